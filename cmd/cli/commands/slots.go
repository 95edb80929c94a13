package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// SlotsCmd creates the slots command
func SlotsCmd(app *AppContext) *cobra.Command {
	var (
		day      string
		duration int
	)

	cmd := &cobra.Command{
		Use:   "slots <patient_id> <service_type_id>",
		Short: "Show conflict-free time slots for a patient service on a day",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			patientID, serviceTypeID := args[0], args[1]

			target := time.Now()
			if day != "" {
				parsed, err := time.ParseInLocation("2006-01-02", day, time.Local)
				if err != nil {
					return fmt.Errorf("day must be YYYY-MM-DD: %w", err)
				}
				target = parsed
			}

			slots, err := app.Validator.SuggestedSlots(app.Ctx, patientID, serviceTypeID, target, duration)
			if err != nil {
				return err
			}

			if len(slots) > 0 {
				fmt.Printf("\nAvailable slots on %s:\n\n", target.Format("2006-01-02"))
				for _, slot := range slots {
					fmt.Printf("  %-10s %s - %s\n", slot.Label,
						slot.Start.Format("15:04"), slot.End.Format("15:04"))
				}
				fmt.Println()
				return nil
			}

			fmt.Printf("No free slots on %s; searching forward.\n", target.Format("2006-01-02"))
			next, err := app.Validator.NextAvailableSlot(app.Ctx, patientID, serviceTypeID, target, duration)
			if err != nil {
				return err
			}
			if next == nil {
				fmt.Println("No availability found within the search horizon.")
				return nil
			}
			fmt.Printf("Next available: %s %s - %s\n", next.Start.Format("2006-01-02"),
				next.Start.Format("15:04"), next.End.Format("15:04"))
			return nil
		},
	}

	cmd.Flags().StringVar(&day, "day", "", "Target day (YYYY-MM-DD, default today)")
	cmd.Flags().IntVar(&duration, "duration", 60, "Visit duration in minutes")
	return cmd
}
