package commands

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fernhill-care/rostermatch/internal/config"
	"github.com/fernhill-care/rostermatch/pkg/core/orchestrator"
	"github.com/fernhill-care/rostermatch/pkg/core/planner"
	"github.com/fernhill-care/rostermatch/pkg/core/schedule"
	"github.com/fernhill-care/rostermatch/pkg/db"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg          *config.Config
	Database     db.Database
	Planner      *planner.Planner
	Validator    *schedule.Validator
	Orchestrator *orchestrator.Orchestrator
	Logger       *zap.Logger
	Ctx          context.Context
}

// planningWeek resolves the current planning week window from the config rule
func (app *AppContext) planningWeek(now time.Time) (time.Time, time.Time, error) {
	starts, err := app.Cfg.WeekStarts(now, 1)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if len(starts) == 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("planning week rule yields no upcoming week start")
	}
	weekStart := starts[0]
	return weekStart, weekStart.AddDate(0, 0, 7), nil
}
