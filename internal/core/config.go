// Package core contains the planning engine of dayflow: task scoring, the
// weekly Markov transition model, the biased bucket sampler, preemption,
// focus slots, plan generation, work logging and reporting.
package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/dayflow/pkg/models"
)

// ConfigFileName is the planner configuration file in the data directory.
const ConfigFileName = "blocks_config.yaml"

// ConfigurationManager loads, validates and initialises blocks_config.yaml.
type ConfigurationManager interface {
	LoadConfig() (*models.PlannerConfig, error)
	ValidateConfig(cfg *models.PlannerConfig) error
	WriteDefaultConfig(force bool) (string, error)
	ConfigPath() string
}

// viperConfigManager implements ConfigurationManager using Viper.
type viperConfigManager struct {
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager reading
// blocks_config.yaml from basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

func (cm *viperConfigManager) ConfigPath() string {
	return filepath.Join(cm.basePath, ConfigFileName)
}

// DefaultPlannerConfig returns the configuration used when no file exists.
func DefaultPlannerConfig() *models.PlannerConfig {
	return &models.PlannerConfig{
		BlocksPerDay:        5,
		WorkStartTime:       "09:00",
		Beta:                0.3,
		Gamma:               0.6,
		Laplace:             1.5,
		RatioBiasAlpha:      1.2,
		WeeklyDecay:         0.85,
		UrgentThreshold:     3.5,
		SupportThreshold:    4.5,
		SupportBudget:       1,
		AllowSupportPreempt: true,
		Targets: map[models.Bucket]float64{
			models.BucketFeature: 0.40,
			models.BucketBug:     0.15,
			models.BucketRnD:     0.10,
			models.BucketDocs:    0.10,
			models.BucketReview:  0.10,
			models.BucketSupport: 0.05,
			models.BucketUrgent:  0.05,
			models.BucketChaos:   0.05,
		},
		Slots: defaultSlots(),
		Logging: models.LoggingConfig{
			Level: "info",
		},
		WorkLog: models.WorkLogConfig{
			Backend: "jsonl",
		},
		Alerts: models.AlertsConfig{
			DeviationThreshold: 0.15,
		},
	}
}

func defaultSlots() map[int]models.SlotConfig {
	return map[int]models.SlotConfig{
		1: {Name: "Deep Work", DurationHours: 1.5, PreferredBuckets: []string{"Feature", "R&D"}, AvoidBuckets: []string{"Support"}},
		2: {Name: "Build", DurationHours: 1.5, PreferredBuckets: []string{"Feature", "Bug"}},
		3: {Name: "Collaborate", DurationHours: 1.0, PreferredBuckets: []string{"Review", "Support"}},
		4: {Name: "Maintain", DurationHours: 1.0, PreferredBuckets: []string{"Bug", "Docs"}},
		5: {Name: "Wrap-up", DurationHours: 1.0, PreferredBuckets: []string{"Docs", "Review"}, AvoidBuckets: []string{"R&D"}},
	}
}

// LoadConfig reads blocks_config.yaml. A missing file yields the defaults.
// Bucket names are matched ignoring case.
func (cm *viperConfigManager) LoadConfig() (*models.PlannerConfig, error) {
	cfg := DefaultPlannerConfig()

	v := viper.New()
	v.SetConfigName(strings.TrimSuffix(ConfigFileName, filepath.Ext(ConfigFileName)))
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	v.SetDefault("blocks_per_day", cfg.BlocksPerDay)
	v.SetDefault("work_start_time", cfg.WorkStartTime)
	v.SetDefault("beta", cfg.Beta)
	v.SetDefault("gamma", cfg.Gamma)
	v.SetDefault("laplace", cfg.Laplace)
	v.SetDefault("ratio_bias_alpha", cfg.RatioBiasAlpha)
	v.SetDefault("weekly_decay", cfg.WeeklyDecay)
	v.SetDefault("urgent_threshold", cfg.UrgentThreshold)
	v.SetDefault("support_threshold", cfg.SupportThreshold)
	v.SetDefault("support_budget", cfg.SupportBudget)
	v.SetDefault("allow_support_preempt", cfg.AllowSupportPreempt)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.development", cfg.Logging.Development)
	v.SetDefault("worklog.backend", cfg.WorkLog.Backend)
	v.SetDefault("notifications.slack.webhook_url", "")
	v.SetDefault("alerts.deviation_threshold", cfg.Alerts.DeviationThreshold)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
	}

	cfg.BlocksPerDay = v.GetInt("blocks_per_day")
	cfg.WorkStartTime = v.GetString("work_start_time")
	cfg.Beta = v.GetFloat64("beta")
	cfg.Gamma = v.GetFloat64("gamma")
	cfg.Laplace = v.GetFloat64("laplace")
	cfg.RatioBiasAlpha = v.GetFloat64("ratio_bias_alpha")
	cfg.WeeklyDecay = v.GetFloat64("weekly_decay")
	cfg.UrgentThreshold = v.GetFloat64("urgent_threshold")
	cfg.SupportThreshold = v.GetFloat64("support_threshold")
	cfg.SupportBudget = v.GetInt("support_budget")
	cfg.AllowSupportPreempt = v.GetBool("allow_support_preempt")
	cfg.Logging.Level = v.GetString("logging.level")
	cfg.Logging.Development = v.GetBool("logging.development")
	cfg.WorkLog.Backend = v.GetString("worklog.backend")
	cfg.Notifications.Slack.WebhookURL = v.GetString("notifications.slack.webhook_url")
	cfg.Alerts.DeviationThreshold = v.GetFloat64("alerts.deviation_threshold")

	if v.IsSet("targets") {
		targets := make(map[models.Bucket]float64)
		for key := range v.GetStringMap("targets") {
			b, err := models.ParseBucket(key)
			if err != nil {
				return nil, fmt.Errorf("reading %s: targets: %w", ConfigFileName, err)
			}
			targets[b] = v.GetFloat64("targets." + key)
		}
		cfg.Targets = targets
	}

	if v.IsSet("block_config") {
		slots := make(map[int]models.SlotConfig)
		for key := range v.GetStringMap("block_config") {
			n, err := strconv.Atoi(key)
			if err != nil {
				return nil, fmt.Errorf("reading %s: block_config key %q must be a slot number", ConfigFileName, key)
			}
			var sc models.SlotConfig
			if err := v.UnmarshalKey("block_config."+key, &sc); err != nil {
				return nil, fmt.Errorf("reading %s: block_config[%d]: %w", ConfigFileName, n, err)
			}
			slots[n] = sc
		}
		cfg.Slots = slots
	}

	return cfg, nil
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

var validWorkLogBackends = map[string]bool{"jsonl": true, "sqlite": true}

// ValidateConfig reports every invalid knob at once. A disagreement between
// blocks_per_day and the slot table wraps models.ErrConfigMismatch.
func (cm *viperConfigManager) ValidateConfig(cfg *models.PlannerConfig) error {
	return validatePlannerConfig(cfg)
}

func validatePlannerConfig(cfg *models.PlannerConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string
	mismatch := false

	if _, err := NewFocusPolicy(cfg.BlocksPerDay, cfg.Slots); err != nil {
		errs = append(errs, err.Error())
		mismatch = errors.Is(err, models.ErrConfigMismatch)
	}
	if _, err := time.Parse("15:04", cfg.WorkStartTime); err != nil {
		errs = append(errs, fmt.Sprintf("work_start_time %q must be HH:MM", cfg.WorkStartTime))
	}
	if cfg.Beta < 0 {
		errs = append(errs, fmt.Sprintf("beta must be non-negative, got %v", cfg.Beta))
	}
	if cfg.Gamma < 0 {
		errs = append(errs, fmt.Sprintf("gamma must be non-negative, got %v", cfg.Gamma))
	}
	if cfg.Laplace < 0 {
		errs = append(errs, fmt.Sprintf("laplace must be non-negative, got %v", cfg.Laplace))
	}
	if cfg.RatioBiasAlpha < 0 {
		errs = append(errs, fmt.Sprintf("ratio_bias_alpha must be non-negative, got %v", cfg.RatioBiasAlpha))
	}
	if cfg.WeeklyDecay <= 0 || cfg.WeeklyDecay >= 1 {
		errs = append(errs, fmt.Sprintf("weekly_decay %v must be in (0, 1)", cfg.WeeklyDecay))
	}
	if cfg.UrgentThreshold < 0 {
		errs = append(errs, fmt.Sprintf("urgent_threshold must be non-negative, got %v", cfg.UrgentThreshold))
	}
	if cfg.SupportThreshold < 0 {
		errs = append(errs, fmt.Sprintf("support_threshold must be non-negative, got %v", cfg.SupportThreshold))
	}
	if cfg.SupportBudget < 0 {
		errs = append(errs, fmt.Sprintf("support_budget must be non-negative, got %d", cfg.SupportBudget))
	}
	for b, share := range cfg.Targets {
		if !b.Valid() {
			errs = append(errs, fmt.Sprintf("targets contains invalid bucket %d", int(b)))
			continue
		}
		if share < 0 || share > 1 {
			errs = append(errs, fmt.Sprintf("targets.%s %v must be between 0 and 1", b, share))
		}
	}
	if cfg.Logging.Level != "" && !validLogLevels[cfg.Logging.Level] {
		errs = append(errs, fmt.Sprintf("logging.level %q is invalid, must be one of: debug, info, warn, error", cfg.Logging.Level))
	}
	if !validWorkLogBackends[cfg.WorkLog.Backend] {
		errs = append(errs, fmt.Sprintf("worklog.backend %q is invalid, must be one of: jsonl, sqlite", cfg.WorkLog.Backend))
	}
	if cfg.Alerts.DeviationThreshold < 0 {
		errs = append(errs, fmt.Sprintf("alerts.deviation_threshold must be non-negative, got %v", cfg.Alerts.DeviationThreshold))
	}

	if len(errs) == 0 {
		return nil
	}
	sort.Strings(errs)
	msg := strings.Join(errs, "\n  - ")
	if mismatch {
		return fmt.Errorf("config validation failed (%w):\n  - %s", models.ErrConfigMismatch, msg)
	}
	return fmt.Errorf("config validation failed:\n  - %s", msg)
}

// WriteDefaultConfig writes the default configuration to blocks_config.yaml.
// An existing file is only replaced when force is set.
func (cm *viperConfigManager) WriteDefaultConfig(force bool) (string, error) {
	path := cm.ConfigPath()
	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	data, err := yaml.Marshal(DefaultPlannerConfig())
	if err != nil {
		return "", fmt.Errorf("marshaling default config: %w", err)
	}
	if err := os.MkdirAll(cm.basePath, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", cm.basePath, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
