package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/posterjudge-api/internal/domain/common"
)

func TestNewProject(t *testing.T) {
	p := NewProject("  Soil microbiome  ", []string{"Zoe", " ", "Abel", "Maria "})

	assert.Equal(t, "Soil microbiome", p.Title)
	assert.Equal(t, StatusPending, p.Status)
	assert.Equal(t, []string{"Zoe", "Abel", "Maria"}, []string(p.Students))
	assert.NoError(t, p.Validate())

	assert.ErrorIs(t, NewProject("", nil).Validate(), common.ErrInvalidInput)
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		allowed  bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusPending, false},
		{StatusApproved, StatusPending, true},
		{StatusApproved, StatusRejected, true},
		{StatusRejected, StatusApproved, true},
		{StatusRejected, StatusRejected, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			p := &Project{Title: "x", Status: tt.from}
			assert.Equal(t, tt.allowed, p.CanTransitionTo(tt.to))

			err := p.UpdateStatus(tt.to)
			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, tt.to, p.Status)
			} else {
				assert.ErrorIs(t, err, common.ErrInvalidInput)
				assert.Equal(t, tt.from, p.Status)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("APPROVED")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, s)

	_, err = ParseStatus("archived")
	assert.Error(t, err)

	var scanned Status
	require.NoError(t, scanned.Scan("rejected"))
	assert.Equal(t, StatusRejected, scanned)
	assert.Error(t, scanned.Scan(42))
}
