package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

// TravelConfig selects the travel-time estimator
type TravelConfig struct {
	// Mode is one of "fixed", "haversine" or "http"
	Mode         string  `yaml:"mode,omitempty" validate:"omitempty,oneof=fixed haversine http"`
	BaseURL      string  `yaml:"baseURL,omitempty" validate:"omitempty,url"`
	FixedMinutes float64 `yaml:"fixedMinutes,omitempty" validate:"omitempty,min=0"`
	SpeedKmh     float64 `yaml:"speedKmh,omitempty" validate:"omitempty,min=1"`
}

// RedisConfig enables the travel-estimate cache when present
type RedisConfig struct {
	Addr       string `yaml:"addr" validate:"required"`
	Password   string `yaml:"password,omitempty"`
	DB         int    `yaml:"db,omitempty"`
	TTLMinutes int    `yaml:"ttlMinutes,omitempty" validate:"omitempty,min=1"`
}

// EngineConfig carries the engine's window and policy knobs. Everything here
// has a working default; the file only needs to override deviations.
type EngineConfig struct {
	ContinuityWindowMonths  int      `yaml:"continuityWindowMonths,omitempty" validate:"omitempty,min=1"`
	StalenessWarningHours   int      `yaml:"stalenessWarningHours,omitempty" validate:"omitempty,min=1"`
	DangerousRiskFlags      []string `yaml:"dangerousRiskFlags,omitempty"`
	ReliabilityWindowMonths int      `yaml:"reliabilityWindowMonths,omitempty" validate:"omitempty,min=1"`
	ReliabilityMinSamples   int      `yaml:"reliabilityMinSamples,omitempty" validate:"omitempty,min=1"`
	DefaultReliability      float64  `yaml:"defaultReliability,omitempty" validate:"omitempty,gt=0,lte=1"`
	NominalStartHour        int      `yaml:"nominalStartHour,omitempty" validate:"omitempty,min=0,max=23"`
}

// Config represents the application configuration
type Config struct {
	DatabaseURL string `yaml:"databaseURL" validate:"required"`
	OrgID       string `yaml:"orgID,omitempty"`

	// PlanningWeekRule is an RRULE expanding to planning week start dates
	// (e.g. "FREQ=WEEKLY;BYDAY=MO"). Empty defaults to weekly Mondays.
	PlanningWeekRule string `yaml:"planningWeekRule,omitempty"`

	Travel TravelConfig `yaml:"travel,omitempty"`
	Redis  *RedisConfig `yaml:"redis,omitempty"`
	Engine EngineConfig `yaml:"engine,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from rostermatch.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	configPath, err := findConfigFile()
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct and checks rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Travel.Mode == "http" && cfg.Travel.BaseURL == "" {
		return fmt.Errorf("travel.baseURL is required when travel.mode is http")
	}

	if cfg.PlanningWeekRule != "" {
		if _, err := rrule.StrToRRule(cfg.PlanningWeekRule); err != nil {
			return fmt.Errorf("invalid rrule in planningWeekRule: %w", err)
		}
	}

	return nil
}

// WeekStarts expands the planning-week rule into the next count week start
// dates at or after from. With no rule configured, weekly Mondays are used.
func (c *Config) WeekStarts(from time.Time, count int) ([]time.Time, error) {
	if count <= 0 {
		return nil, nil
	}

	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())

	if c.PlanningWeekRule == "" {
		// Walk back to the most recent Monday, then step weekly
		start := day
		for start.Weekday() != time.Monday {
			start = start.AddDate(0, 0, -1)
		}
		if start.Before(day) {
			start = start.AddDate(0, 0, 7)
		}
		starts := make([]time.Time, count)
		for i := range starts {
			starts[i] = start.AddDate(0, 0, 7*i)
		}
		return starts, nil
	}

	rule, err := rrule.StrToRRule(c.PlanningWeekRule)
	if err != nil {
		return nil, fmt.Errorf("invalid rrule in planningWeekRule: %w", err)
	}
	rule.DTStart(day)

	horizon := day.AddDate(0, 0, 7*(count+2))
	occurrences := rule.Between(day, horizon, true)
	if len(occurrences) == 0 {
		// An UNTIL or COUNT clause can exhaust a syntactically valid rule
		return nil, fmt.Errorf("planningWeekRule %q yields no week starts at or after %s",
			c.PlanningWeekRule, day.Format("2006-01-02"))
	}
	if len(occurrences) > count {
		occurrences = occurrences[:count]
	}
	return occurrences, nil
}

// findConfigFile searches for rostermatch.yaml in current directory and home directory
func findConfigFile() (string, error) {
	configFileName := "rostermatch.yaml"

	// Check current directory
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file not found in current directory or home directory")
}
