package services

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/gravadigital/posterjudge-api/internal/domain/evaluation"
	"github.com/gravadigital/posterjudge-api/internal/logger"
	"github.com/gravadigital/posterjudge-api/internal/storage"
)

// Sheet names of the results workbook
const (
	StandingsSheet = "Standings"
	ScoresSheet    = "Scores"
)

// ExportService renders conference results as spreadsheets
type ExportService struct {
	store       storage.Container
	conferences *ConferenceService
	log         *log.Logger
}

// NewExportService creates a new export service
func NewExportService(store storage.Container, conferences *ConferenceService) *ExportService {
	return &ExportService{
		store:       store,
		conferences: conferences,
		log:         logger.Service("export"),
	}
}

// ExportConference builds an .xlsx workbook with two sheets:
//
//	Standings  rank, project, evaluations, completed, mean total (%)
//	Scores     one row per evaluation, one column per criterion
//
// It returns the workbook and a suggested file name.
func (s *ExportService) ExportConference(ctx context.Context, conferenceID uuid.UUID) (*bytes.Buffer, string, error) {
	conf, err := s.conferences.GetConference(ctx, conferenceID)
	if err != nil {
		return nil, "", err
	}
	standings, err := s.conferences.Standings(ctx, conferenceID)
	if err != nil {
		return nil, "", err
	}
	criteria, err := s.conferences.ListCriteria(ctx, conferenceID)
	if err != nil {
		return nil, "", err
	}
	evaluations, err := s.store.Evaluations().ListByConference(ctx, conferenceID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list evaluations: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(StandingsSheet)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if _, err := f.NewSheet(ScoresSheet); err != nil {
		return nil, "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// standings
	header := []any{"Rank", "Project", "Evaluations", "Completed", "Mean total (%)"}
	if err := f.SetSheetRow(StandingsSheet, "A1", &header); err != nil {
		return nil, "", fmt.Errorf("failed to write header: %w", err)
	}
	f.SetCellStyle(StandingsSheet, "A1", cell(colName(len(header)-1), 1), headerStyle)
	f.SetColWidth(StandingsSheet, "B", "B", 40)
	f.SetColWidth(StandingsSheet, "C", "E", 16)

	for i, st := range standings {
		row := []any{st.Rank, st.Title, st.Evaluations, st.Completed, percent(st.MeanTotal)}
		if err := f.SetSheetRow(StandingsSheet, cell("A", i+2), &row); err != nil {
			return nil, "", fmt.Errorf("failed to write standings: %w", err)
		}
	}

	// scores
	scoreHeader := []any{"Project", "Judge", "Status", "Total (%)"}
	for _, c := range criteria {
		scoreHeader = append(scoreHeader, fmt.Sprintf("%s (/%d, w%g)", c.Name, c.MaxScore, c.Weight))
	}
	if err := f.SetSheetRow(ScoresSheet, "A1", &scoreHeader); err != nil {
		return nil, "", fmt.Errorf("failed to write header: %w", err)
	}
	f.SetCellStyle(ScoresSheet, "A1", cell(colName(len(scoreHeader)-1), 1), headerStyle)
	f.SetColWidth(ScoresSheet, "A", "B", 32)

	for i, ev := range evaluations {
		row := []any{projectTitle(ev), judgeName(ev), ev.Status.String(), percent(ev.TotalScore)}
		byCriterion := make(map[uuid.UUID]float64, len(ev.Scores))
		for _, sc := range ev.Scores {
			byCriterion[sc.CriterionID] = sc.Score
		}
		for _, c := range criteria {
			if v, ok := byCriterion[c.ID]; ok {
				row = append(row, v)
			} else {
				row = append(row, "")
			}
		}
		if err := f.SetSheetRow(ScoresSheet, cell("A", i+2), &row); err != nil {
			return nil, "", fmt.Errorf("failed to write scores: %w", err)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.log.Error("Failed to render workbook", "conference_id", conferenceID, "error", err)
		return nil, "", fmt.Errorf("failed to render workbook: %w", err)
	}

	s.log.Info("Conference exported", "conference_id", conferenceID, "projects", len(standings), "evaluations", len(evaluations))
	return buf, fmt.Sprintf("%s-results.xlsx", slug(conf.Name)), nil
}

// percent renders a 0..1 total on a 0-100 scale, blank when there is none
func percent(total *float64) any {
	if total == nil {
		return ""
	}
	r := evaluation.Result{Total: total}
	return *r.Percent()
}

func projectTitle(ev *evaluation.Evaluation) string {
	if ev.Project != nil {
		return ev.Project.Title
	}
	return ev.ProjectID.String()
}

func judgeName(ev *evaluation.Evaluation) string {
	if ev.Judge != nil {
		return ev.Judge.FullName
	}
	return ev.JudgeID.String()
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slug(name string) string {
	s := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if s == "" {
		return "conference"
	}
	return s
}
