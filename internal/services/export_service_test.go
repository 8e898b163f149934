package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/gravadigital/posterjudge-api/internal/domain/common"
	"github.com/gravadigital/posterjudge-api/internal/domain/profile"
)

func TestExportConference(t *testing.T) {
	env := newTestEnv(t)
	conf, sess, criteria := env.seedConference(t, 3)
	judge := env.actor(t, "j1@example.org", profile.RoleJudge)
	p := env.seedProject(t, "Soil microbiome", sess.ID)
	env.seedProject(t, "Urban bees", sess.ID)

	_, err := env.svc.Evaluations.ScoreProject(env.ctx, judge, p.ID, criteria[0].ID, ScoreRequest{Score: ptr(10.0)})
	require.NoError(t, err)
	_, err = env.svc.Evaluations.ScoreProject(env.ctx, judge, p.ID, criteria[1].ID, ScoreRequest{Score: ptr(5.0)})
	require.NoError(t, err)

	buf, filename, err := env.svc.Exports.ExportConference(env.ctx, conf.ID)
	require.NoError(t, err)
	assert.Equal(t, "student-poster-day-results.xlsx", filename)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{StandingsSheet, ScoresSheet}, f.GetSheetList())

	rows, err := f.GetRows(StandingsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Rank", rows[0][0])
	assert.Equal(t, []string{"1", "Soil microbiome", "1", "1", "100"}, rows[1])
	assert.Equal(t, "Urban bees", rows[2][1])

	scores, err := f.GetRows(ScoresSheet)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, "Clarity (/10, w1)", scores[0][4])
	assert.Equal(t, "Method (/5, w2)", scores[0][5])
	assert.Equal(t, []string{"Soil microbiome", "Judge j1@example.org", "completed", "100", "10", "5"}, scores[1])
}

func TestExportUnknownConference(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.svc.Exports.ExportConference(env.ctx, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "mostra-de-p-steres-2026", slug("Mostra de Pôsteres 2026"))
	assert.Equal(t, "conference", slug("***"))
}
