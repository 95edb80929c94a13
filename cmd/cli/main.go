package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fernhill-care/rostermatch/cmd/cli/commands"
	"github.com/fernhill-care/rostermatch/internal/config"
	"github.com/fernhill-care/rostermatch/pkg/core/continuity"
	"github.com/fernhill-care/rostermatch/pkg/core/eligibility"
	"github.com/fernhill-care/rostermatch/pkg/core/orchestrator"
	"github.com/fernhill-care/rostermatch/pkg/core/planner"
	"github.com/fernhill-care/rostermatch/pkg/core/schedule"
	"github.com/fernhill-care/rostermatch/pkg/core/scorer"
	"github.com/fernhill-care/rostermatch/pkg/postgres"
	"github.com/fernhill-care/rostermatch/pkg/travel"
	"github.com/fernhill-care/rostermatch/pkg/utils/logging"
)

var (
	configPath string
	app        *commands.AppContext
	database   *postgres.DB
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rostermatch",
		Short: "Rostermatch CLI - Match home-care staff to patient visits",
		Long:  `A CLI tool for computing unscheduled care needs, ranking staff suggestions, validating schedules and booking visits.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil && app.Logger != nil {
				app.Logger.Sync()
			}
			if database != nil {
				database.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to rostermatch.yaml (default: search cwd and home)")

	rootCmd.AddCommand(commands.RequirementsCmd(appRef()))
	rootCmd.AddCommand(commands.SuggestCmd(appRef()))
	rootCmd.AddCommand(commands.SlotsCmd(appRef()))
	rootCmd.AddCommand(commands.AcceptCmd(appRef()))
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// appRef returns the shared AppContext, allocated before initApp populates it
// so command constructors can close over it.
func appRef() *commands.AppContext {
	if app == nil {
		app = &commands.AppContext{}
	}
	return app
}

// initApp sets up logger, config, database and the engine components
func initApp() error {
	ctx := context.Background()

	logger, err := logging.InitLogger("rostermatch")
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	var cfg *config.Config
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	database, err = postgres.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	estimator := buildEstimator(cfg, logger)

	tracker := continuity.New(database, logger, continuity.Config{
		WindowMonths: cfg.Engine.ContinuityWindowMonths,
	})
	validator := schedule.New(database, logger, schedule.Config{
		StalenessWarning: time.Duration(cfg.Engine.StalenessWarningHours) * time.Hour,
	})
	reqPlanner := planner.New(database, logger, planner.Config{
		DangerousRiskFlags: cfg.Engine.DangerousRiskFlags,
	})
	filter := eligibility.New(database, logger)
	staffScorer := scorer.New(database, tracker, estimator, logger, scorer.Config{
		ReliabilityWindowMonths: cfg.Engine.ReliabilityWindowMonths,
		ReliabilityMinSamples:   cfg.Engine.ReliabilityMinSamples,
		DefaultReliability:      cfg.Engine.DefaultReliability,
	})
	engine := orchestrator.New(database, reqPlanner, filter, staffScorer, validator, tracker, logger, orchestrator.Config{
		NominalStartHour: cfg.Engine.NominalStartHour,
	})

	ref := appRef()
	ref.Cfg = cfg
	ref.Database = database
	ref.Planner = reqPlanner
	ref.Validator = validator
	ref.Orchestrator = engine
	ref.Logger = logger
	ref.Ctx = ctx

	return nil
}

// buildEstimator selects the travel estimator from config, optionally wrapped
// in the redis cache
func buildEstimator(cfg *config.Config, logger *zap.Logger) travel.Estimator {
	var estimator travel.Estimator
	switch cfg.Travel.Mode {
	case "http":
		estimator = travel.NewClient(cfg.Travel.BaseURL, logger)
	case "fixed":
		estimator = travel.Fixed{Minutes: cfg.Travel.FixedMinutes}
	default:
		estimator = travel.Haversine{SpeedKmh: cfg.Travel.SpeedKmh}
	}

	if cfg.Redis != nil {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ttl := time.Duration(cfg.Redis.TTLMinutes) * time.Minute
		estimator = travel.NewCache(estimator, client, ttl, logger)
	}

	return estimator
}

// migrateCmd applies pending database migrations
func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := database.RunMigrations(context.Background()); err != nil {
				return err
			}
			fmt.Println("Migrations applied.")
			return nil
		},
	}
}
