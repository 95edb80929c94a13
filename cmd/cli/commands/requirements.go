package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fernhill-care/rostermatch/pkg/core/planner"
)

// RequirementsCmd creates the requirements command
func RequirementsCmd(app *AppContext) *cobra.Command {
	var patientID string

	cmd := &cobra.Command{
		Use:   "requirements",
		Short: "List patients with unscheduled care needs, highest priority first",
		RunE: func(cmd *cobra.Command, args []string) error {
			weekStart, weekEnd, err := app.planningWeek(time.Now())
			if err != nil {
				return err
			}

			requirements, err := app.Planner.Plan(app.Ctx, planner.Query{
				OrgID:     app.Cfg.OrgID,
				From:      weekStart,
				To:        weekEnd,
				PatientID: patientID,
			})
			if err != nil {
				return err
			}

			if len(requirements) == 0 {
				fmt.Println("All patients are fully scheduled for the week.")
				return nil
			}

			fmt.Printf("\nUnscheduled care needs for week of %s:\n\n", weekStart.Format("2006-01-02"))
			for _, req := range requirements {
				fmt.Printf("Patient %s  (priority: %s, remaining: %s hours)\n",
					req.PatientID, tierLabel(app.Planner.Tier(&req)), req.RemainingHours().StringFixed(1))
				for _, svc := range req.Services {
					if !svc.HasUnscheduled() {
						continue
					}
					fmt.Printf("  - %-30s %s of %s %s remaining\n",
						svc.Name, svc.Remaining().StringFixed(1), svc.Required.StringFixed(1), svc.Unit)
				}
				fmt.Println()
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&patientID, "patient", "", "Limit to a single patient ID")
	return cmd
}

func tierLabel(tier planner.PriorityTier) string {
	switch tier {
	case planner.TierDangerous:
		return "dangerous"
	case planner.TierHighVolume:
		return "high volume"
	default:
		return "normal"
	}
}
