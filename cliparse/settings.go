package cliparse

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/danielhkuo/olympiad/models"
)

// ErrInvalidSettings wraps every settings validation failure.
var ErrInvalidSettings = errors.New("invalid settings")

// TierSettings is the default quota and score band of one medal tier.
type TierSettings struct {
	MaxCount int     `koanf:"max_count"`
	MinScore float64 `koanf:"min_score"`
	MaxScore float64 `koanf:"max_score"`
}

// Settings holds the workflow engine tunables.
type Settings struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// PassingScore is the classification threshold used when no override is persisted.
	PassingScore float64 `koanf:"passing_score"`

	// ReversalWindow bounds how long after closure a competition closure may be reverted.
	ReversalWindow time.Duration `koanf:"reversal_window"`

	// DefaultQuota is the per-evaluator quota when a balancing request omits one.
	DefaultQuota int `koanf:"default_quota"`

	// EventQueueSize bounds the post-commit event queue.
	EventQueueSize int `koanf:"event_queue_size"`

	// KafkaBrokers and KafkaTopic configure the event sink. No brokers: log only.
	KafkaBrokers []string `koanf:"kafka_brokers"`
	KafkaTopic   string   `koanf:"kafka_topic"`

	// Medals are the global default tiers, keyed by tier name.
	Medals map[string]TierSettings `koanf:"medals"`
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	return Settings{
		LogLevel:       "info",
		PassingScore:   51.0,
		ReversalWindow: 24 * time.Hour,
		DefaultQuota:   10,
		EventQueueSize: 1024,
		KafkaTopic:     "olympiad.workflow",
		Medals: map[string]TierSettings{
			string(models.TierGold):             {MaxCount: 1, MinScore: 90, MaxScore: 100},
			string(models.TierSilver):           {MaxCount: 2, MinScore: 80, MaxScore: 100},
			string(models.TierBronze):           {MaxCount: 3, MinScore: 70, MaxScore: 100},
			string(models.TierHonorableMention): {MaxCount: 5, MinScore: 51, MaxScore: 100},
		},
	}
}

// LoadSettings builds Settings by layering defaults, an optional YAML file,
// and OLYMPIAD_* environment variables (low -> high precedence).
func LoadSettings(path string) (Settings, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Settings{}, fmt.Errorf("failed to load settings file: %w", err)
		}
	}

	// OLYMPIAD_PASSING_SCORE -> passing_score
	envProvider := env.Provider("OLYMPIAD_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "OLYMPIAD_"))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Settings{}, fmt.Errorf("failed to load settings env: %w", err)
	}

	s := DefaultSettings()
	if err := k.UnmarshalWithConf("", &s, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks ranges and tier names.
func (s Settings) Validate() error {
	if s.PassingScore < 0 || s.PassingScore > models.MaxScore {
		return fmt.Errorf("%w: passing_score must be between 0 and 100", ErrInvalidSettings)
	}
	if s.ReversalWindow <= 0 {
		return fmt.Errorf("%w: reversal_window must be positive", ErrInvalidSettings)
	}
	if s.DefaultQuota < 1 {
		return fmt.Errorf("%w: default_quota must be at least 1", ErrInvalidSettings)
	}
	if s.EventQueueSize < 1 {
		return fmt.Errorf("%w: event_queue_size must be at least 1", ErrInvalidSettings)
	}
	for name, tier := range s.Medals {
		if !models.MedalTier(name).Valid() {
			return fmt.Errorf("%w: unknown medal tier %q", ErrInvalidSettings, name)
		}
		if tier.MaxCount < 0 || tier.MinScore > tier.MaxScore {
			return fmt.Errorf("%w: medal tier %q has an invalid quota or band", ErrInvalidSettings, name)
		}
	}
	return nil
}

// MedalDefaults converts the configured tiers into area-independent configs.
func (s Settings) MedalDefaults() []models.MedalTierConfig {
	configs := make([]models.MedalTierConfig, 0, len(models.MedalTiers))
	for _, tier := range models.MedalTiers {
		t, ok := s.Medals[string(tier)]
		if !ok {
			continue
		}
		configs = append(configs, models.MedalTierConfig{
			Tier:     tier,
			MaxCount: t.MaxCount,
			MinScore: t.MinScore,
			MaxScore: t.MaxScore,
		})
	}
	return configs
}
