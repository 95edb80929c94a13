// Package export renders engine output as XLSX workbooks for coordinators
// who review suggestions outside the CLI.
package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/fernhill-care/rostermatch/pkg/core/model"
)

var suggestionHeader = []string{
	"Patient ID",
	"Service",
	"Status",
	"Confidence",
	"Staff ID",
	"Role",
	"Employment",
	"Continuity Visits",
	"Travel Minutes",
	"Candidates Evaluated",
	"Candidates Passed",
	"Exclusion Reasons",
	"Week Start",
}

// SuggestionsWorkbook renders ranked suggestions into an XLSX workbook
func SuggestionsWorkbook(suggestions []model.Suggestion) (*excelize.File, error) {
	f := excelize.NewFile()

	sheetName := "Suggestions"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range suggestionHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	for i, s := range suggestions {
		row := suggestionRow(&s)
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	return f, nil
}

// WriteSuggestions renders suggestions and saves the workbook to path
func WriteSuggestions(suggestions []model.Suggestion, path string) error {
	f, err := SuggestionsWorkbook(suggestions)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func suggestionRow(s *model.Suggestion) []any {
	staffID := ""
	role := ""
	employment := ""
	if s.Staff != nil {
		staffID = s.Staff.StaffID
		role = s.Staff.RoleName
		employment = s.Staff.EmploymentType
	}

	travelMinutes := any("")
	if s.TravelMinutes != nil {
		travelMinutes = *s.TravelMinutes
	}

	return []any{
		s.PatientID,
		s.ServiceName,
		string(s.Status),
		s.ConfidenceScore,
		staffID,
		role,
		employment,
		s.ContinuityVisits,
		travelMinutes,
		s.CandidatesEvaluated,
		s.CandidatesPassed,
		strings.Join(s.ExclusionReasons, "; "),
		s.WeekStart.Format("2006-01-02"),
	}
}
