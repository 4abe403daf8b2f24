package models

// SlotConfig describes one daily focus slot.
type SlotConfig struct {
	Name             string   `yaml:"name" mapstructure:"name"`
	DurationHours    float64  `yaml:"duration_hours" mapstructure:"duration_hours"`
	PreferredBuckets []string `yaml:"preferred_buckets,omitempty" mapstructure:"preferred_buckets"`
	AvoidBuckets     []string `yaml:"avoid_buckets,omitempty" mapstructure:"avoid_buckets"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level       string `yaml:"level" mapstructure:"level"`
	Development bool   `yaml:"development" mapstructure:"development"`
}

// WorkLogConfig selects the work-log storage backend.
type WorkLogConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"` // jsonl or sqlite
}

// SlackConfig holds the incoming-webhook used for balance alerts.
type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url,omitempty" mapstructure:"webhook_url"`
}

// NotificationsConfig groups outbound notification channels.
type NotificationsConfig struct {
	Slack SlackConfig `yaml:"slack" mapstructure:"slack"`
}

// AlertsConfig tunes the balance alert engine.
type AlertsConfig struct {
	DeviationThreshold float64 `yaml:"deviation_threshold" mapstructure:"deviation_threshold"`
}

// PlannerConfig holds every knob read from blocks_config.yaml.
type PlannerConfig struct {
	BlocksPerDay        int                `yaml:"blocks_per_day"`
	WorkStartTime       string             `yaml:"work_start_time"`
	Beta                float64            `yaml:"beta"`
	Gamma               float64            `yaml:"gamma"`
	Laplace             float64            `yaml:"laplace"`
	RatioBiasAlpha      float64            `yaml:"ratio_bias_alpha"`
	WeeklyDecay         float64            `yaml:"weekly_decay"`
	UrgentThreshold     float64            `yaml:"urgent_threshold"`
	SupportThreshold    float64            `yaml:"support_threshold"`
	SupportBudget       int                `yaml:"support_budget"`
	AllowSupportPreempt bool               `yaml:"allow_support_preempt"`
	Targets             map[Bucket]float64 `yaml:"targets"`
	Slots               map[int]SlotConfig `yaml:"block_config"`

	Logging       LoggingConfig       `yaml:"logging"`
	WorkLog       WorkLogConfig       `yaml:"worklog"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Alerts        AlertsConfig        `yaml:"alerts"`
}

// TargetVector returns the targets as a dense vector; unconfigured buckets are 0.
func (c *PlannerConfig) TargetVector() [NumBuckets]float64 {
	var v [NumBuckets]float64
	for b, share := range c.Targets {
		if b.Valid() {
			v[b] = share
		}
	}
	return v
}
