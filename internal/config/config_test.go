package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := &Config{
		DatabaseURL:      "postgres://localhost:5432/rostermatch",
		OrgID:            "org-1",
		PlanningWeekRule: "FREQ=WEEKLY;BYDAY=MO",
		Travel: TravelConfig{
			Mode:    "http",
			BaseURL: "http://travel.internal:8080",
		},
		Engine: EngineConfig{
			ContinuityWindowMonths: 6,
			NominalStartHour:       9,
		},
	}

	err := Validate(cfg)
	assert.NoError(t, err)
}

func TestValidate_MinimalConfig(t *testing.T) {
	cfg := &Config{
		DatabaseURL: "postgres://localhost:5432/rostermatch",
	}

	err := Validate(cfg)
	assert.NoError(t, err)
}

func TestValidate_MissingDatabaseURL(t *testing.T) {
	cfg := &Config{
		OrgID: "org-1",
	}

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_InvalidRRule(t *testing.T) {
	cfg := &Config{
		DatabaseURL:      "postgres://localhost:5432/rostermatch",
		PlanningWeekRule: "INVALID_RRULE_SYNTAX",
	}

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rrule")
}

func TestValidate_InvalidTravelMode(t *testing.T) {
	cfg := &Config{
		DatabaseURL: "postgres://localhost:5432/rostermatch",
		Travel:      TravelConfig{Mode: "teleport"},
	}

	err := Validate(cfg)
	assert.Error(t, err)
}

func TestValidate_HTTPTravelRequiresBaseURL(t *testing.T) {
	cfg := &Config{
		DatabaseURL: "postgres://localhost:5432/rostermatch",
		Travel:      TravelConfig{Mode: "http"},
	}

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "baseURL")
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rostermatch.yaml")
	content := `
databaseURL: postgres://localhost:5432/rostermatch
orgID: org-1
planningWeekRule: FREQ=WEEKLY;BYDAY=MO
travel:
  mode: haversine
  speedKmh: 35
engine:
  continuityWindowMonths: 6
  stalenessWarningHours: 24
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "org-1", cfg.OrgID)
	assert.Equal(t, "haversine", cfg.Travel.Mode)
	assert.Equal(t, 35.0, cfg.Travel.SpeedKmh)
	assert.Equal(t, 6, cfg.Engine.ContinuityWindowMonths)
}

func TestLoadFromPath_FileNotFound(t *testing.T) {
	_, err := LoadFromPath("/nonexistent/rostermatch.yaml")
	assert.Error(t, err)
}

func TestWeekStarts_DefaultMondays(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://localhost/rm"}

	// 2026-09-02 is a Wednesday; the next Monday is 2026-09-07
	from := time.Date(2026, 9, 2, 10, 30, 0, 0, time.UTC)
	starts, err := cfg.WeekStarts(from, 3)
	require.NoError(t, err)
	require.Len(t, starts, 3)
	assert.Equal(t, time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC), starts[0])
	assert.Equal(t, time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC), starts[1])
	assert.Equal(t, time.Date(2026, 9, 21, 0, 0, 0, 0, time.UTC), starts[2])
}

func TestWeekStarts_MondayFromCountsItself(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://localhost/rm"}

	from := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	starts, err := cfg.WeekStarts(from, 2)
	require.NoError(t, err)
	require.Len(t, starts, 2)
	assert.Equal(t, from, starts[0])
}

func TestWeekStarts_CustomRule(t *testing.T) {
	cfg := &Config{
		DatabaseURL:      "postgres://localhost/rm",
		PlanningWeekRule: "FREQ=WEEKLY;BYDAY=SU",
	}

	from := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	starts, err := cfg.WeekStarts(from, 2)
	require.NoError(t, err)
	require.Len(t, starts, 2)
	for _, s := range starts {
		assert.Equal(t, time.Sunday, s.Weekday())
	}
}

func TestWeekStarts_ExhaustedRule(t *testing.T) {
	cfg := &Config{
		DatabaseURL:      "postgres://localhost/rm",
		PlanningWeekRule: "FREQ=WEEKLY;BYDAY=MO;UNTIL=20200101T000000Z",
	}

	// The rule parses and validates but its recurrence ended in 2020
	require.NoError(t, Validate(cfg))

	starts, err := cfg.WeekStarts(time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no week starts")
	assert.Empty(t, starts)
}

func TestWeekStarts_ZeroCount(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://localhost/rm"}

	starts, err := cfg.WeekStarts(time.Now(), 0)
	require.NoError(t, err)
	assert.Empty(t, starts)
}
