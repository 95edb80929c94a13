package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fernhill-care/rostermatch/pkg/core/model"
	"github.com/fernhill-care/rostermatch/pkg/export"
)

// SuggestCmd creates the suggest command
func SuggestCmd(app *AppContext) *cobra.Command {
	var (
		patientID     string
		serviceTypeID string
		staffID       string
		exportPath    string
	)

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Generate ranked staff assignment suggestions for the planning week",
		RunE: func(cmd *cobra.Command, args []string) error {
			weekStart, weekEnd, err := app.planningWeek(time.Now())
			if err != nil {
				return err
			}

			var suggestions []model.Suggestion
			if staffID != "" {
				if patientID == "" || serviceTypeID == "" {
					return fmt.Errorf("--staff requires --patient and --service")
				}
				s, err := app.Orchestrator.GetSuggestionForService(app.Ctx, patientID, serviceTypeID, staffID, weekStart, weekEnd)
				if err != nil {
					return err
				}
				if s == nil {
					fmt.Println("No matching patient, service or staff record found.")
					return nil
				}
				suggestions = []model.Suggestion{*s}
			} else {
				suggestions, err = app.Orchestrator.GenerateSuggestions(app.Ctx, app.Cfg.OrgID, weekStart, weekEnd)
				if err != nil {
					return err
				}
				if patientID != "" {
					filtered := suggestions[:0]
					for _, s := range suggestions {
						if s.PatientID == patientID {
							filtered = append(filtered, s)
						}
					}
					suggestions = filtered
				}
			}

			printSuggestions(suggestions, weekStart)

			if exportPath != "" {
				if err := export.WriteSuggestions(suggestions, exportPath); err != nil {
					return err
				}
				fmt.Printf("Workbook written to %s\n", exportPath)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&patientID, "patient", "", "Limit to a single patient ID")
	cmd.Flags().StringVar(&serviceTypeID, "service", "", "Service type ID (with --staff)")
	cmd.Flags().StringVar(&staffID, "staff", "", "Score a specific staff member instead of ranking")
	cmd.Flags().StringVar(&exportPath, "export", "", "Write suggestions to an XLSX file at this path")
	return cmd
}

func printSuggestions(suggestions []model.Suggestion, weekStart time.Time) {
	if len(suggestions) == 0 {
		fmt.Println("No suggestions for the planning week.")
		return
	}

	fmt.Printf("\nSuggestions for week of %s:\n\n", weekStart.Format("2006-01-02"))
	for _, s := range suggestions {
		if s.Staff == nil {
			fmt.Printf("%-10s %-25s NO MATCH", s.PatientID, s.ServiceName)
			for _, reason := range s.ExclusionReasons {
				fmt.Printf("\n             %s", reason)
			}
			fmt.Println()
			continue
		}

		fmt.Printf("%-10s %-25s %-10s %5.1f  %s (%s)",
			s.PatientID, s.ServiceName, s.Status, s.ConfidenceScore, s.Staff.StaffID, s.Staff.RoleName)
		if s.ContinuityVisits > 0 {
			fmt.Printf("  %d prior visits", s.ContinuityVisits)
		}
		if s.TravelMinutes != nil {
			fmt.Printf("  ~%.0f min travel", *s.TravelMinutes)
		}
		fmt.Println()
	}
	fmt.Println()
}
