package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fernhill-care/rostermatch/pkg/core/orchestrator"
)

// batchItem is one line of an acceptance batch file
type batchItem struct {
	PatientID     string `json:"patientId"`
	ServiceTypeID string `json:"serviceTypeId"`
	StaffID       string `json:"staffId"`
	Start         string `json:"start"`
	End           string `json:"end"`
}

// AcceptCmd creates the accept command
func AcceptCmd(app *AppContext) *cobra.Command {
	var (
		patientID     string
		serviceTypeID string
		staffID       string
		start         string
		end           string
		acceptedBy    string
		batchFile     string
	)

	cmd := &cobra.Command{
		Use:   "accept",
		Short: "Accept a suggestion, re-validating and booking the visit",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()

			if batchFile != "" {
				requests, err := readBatchFile(batchFile, app.Cfg.OrgID, acceptedBy, now)
				if err != nil {
					return err
				}

				batch := app.Orchestrator.AcceptBatch(app.Ctx, requests)
				fmt.Printf("\n%d booked, %d failed.\n\n", len(batch.Successful), len(batch.Failed))
				for _, ok := range batch.Successful {
					fmt.Printf("  ✓ %s / %s -> %s (booking %s)\n",
						ok.Request.PatientID, ok.Request.ServiceTypeID, ok.Request.StaffID, ok.AssignmentID)
				}
				for _, failed := range batch.Failed {
					fmt.Printf("  ✗ %s / %s -> %s\n",
						failed.Request.PatientID, failed.Request.ServiceTypeID, failed.Request.StaffID)
					for _, msg := range failed.Errors {
						fmt.Printf("      %s\n", msg)
					}
				}
				return nil
			}

			if patientID == "" || serviceTypeID == "" || staffID == "" || start == "" || end == "" {
				return fmt.Errorf("either --file or all of --patient, --service, --staff, --start, --end are required")
			}

			startAt, err := time.Parse(time.RFC3339, start)
			if err != nil {
				return fmt.Errorf("start must be RFC3339: %w", err)
			}
			endAt, err := time.Parse(time.RFC3339, end)
			if err != nil {
				return fmt.Errorf("end must be RFC3339: %w", err)
			}

			result := app.Orchestrator.AcceptSuggestion(app.Ctx, orchestrator.AcceptRequest{
				PatientID:     patientID,
				ServiceTypeID: serviceTypeID,
				StaffID:       staffID,
				Start:         startAt,
				End:           endAt,
				AcceptedBy:    acceptedBy,
				OrgID:         app.Cfg.OrgID,
				Now:           now,
			})
			if !result.Success {
				fmt.Println("\nBooking rejected:")
				for _, msg := range result.Errors {
					fmt.Printf("  - %s\n", msg)
				}
				return fmt.Errorf("acceptance failed")
			}

			fmt.Printf("\n✓ Visit booked (booking %s)\n", result.AssignmentID)
			return nil
		},
	}

	cmd.Flags().StringVar(&patientID, "patient", "", "Patient ID")
	cmd.Flags().StringVar(&serviceTypeID, "service", "", "Service type ID")
	cmd.Flags().StringVar(&staffID, "staff", "", "Staff ID")
	cmd.Flags().StringVar(&start, "start", "", "Visit start (RFC3339)")
	cmd.Flags().StringVar(&end, "end", "", "Visit end (RFC3339)")
	cmd.Flags().StringVar(&acceptedBy, "by", "", "Coordinator accepting the suggestion")
	cmd.Flags().StringVar(&batchFile, "file", "", "JSON file with a batch of acceptances")
	return cmd
}

func readBatchFile(path, orgID, acceptedBy string, now time.Time) ([]orchestrator.AcceptRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	var items []batchItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse batch file: %w", err)
	}

	requests := make([]orchestrator.AcceptRequest, 0, len(items))
	for i, item := range items {
		startAt, err := time.Parse(time.RFC3339, item.Start)
		if err != nil {
			return nil, fmt.Errorf("item %d: start must be RFC3339: %w", i, err)
		}
		endAt, err := time.Parse(time.RFC3339, item.End)
		if err != nil {
			return nil, fmt.Errorf("item %d: end must be RFC3339: %w", i, err)
		}
		requests = append(requests, orchestrator.AcceptRequest{
			PatientID:     item.PatientID,
			ServiceTypeID: item.ServiceTypeID,
			StaffID:       item.StaffID,
			Start:         startAt,
			End:           endAt,
			AcceptedBy:    acceptedBy,
			OrgID:         orgID,
			Now:           now,
		})
	}
	return requests, nil
}
