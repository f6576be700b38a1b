// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package thresholds

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/danielhkuo/olympiad/apperr"
	"github.com/danielhkuo/olympiad/models"
	"github.com/danielhkuo/olympiad/store"
)

// PassingScoreKey is the settings row that overrides the configured default.
const PassingScoreKey = "passing_score"

// Source tells where a resolved medal tier came from.
type Source string

const (
	SourceAreaLevel Source = "area_level"
	SourceArea      Source = "area"
	SourceDefault   Source = "default"
)

// ResolvedTier is one medal tier after resolution.
type ResolvedTier struct {
	models.MedalTierConfig
	Source Source `json:"source"`
}

// Provider resolves thresholds and medal configuration.
type Provider struct {
	store        store.Store
	passingScore float64
	medals       []models.MedalTierConfig
	now          func() time.Time
}

// NewProvider creates a provider falling back to the given defaults.
func NewProvider(st store.Store, passingScore float64, medalDefaults []models.MedalTierConfig) *Provider {
	return &Provider{
		store:        st,
		passingScore: passingScore,
		medals:       medalDefaults,
		now:          time.Now,
	}
}

// PassingScore returns the persisted threshold, or the configured default
// when none has been set.
func (p *Provider) PassingScore(ctx context.Context, repo store.Repository) (float64, error) {
	raw, ok, err := repo.GetSetting(ctx, PassingScoreKey)
	if err != nil {
		return 0, err
	}
	if !ok {
		return p.passingScore, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		// A corrupt row must not block closures.
		slog.Warn("ignoring invalid passing score setting", "value", raw, "error", err)
		return p.passingScore, nil
	}
	return value, nil
}

// SetPassingScore persists a new threshold. Admin only.
func (p *Provider) SetPassingScore(ctx context.Context, actor models.Actor, value float64) error {
	if actor.Role != models.RoleAdmin {
		return apperr.Forbidden("only an administrator can change the passing score")
	}
	if value < 0 || value > models.MaxScore {
		return apperr.Validation("passing score must be between 0 and 100, got %v", value)
	}

	err := p.store.WithTx(ctx, func(repo store.Repository) error {
		return repo.PutSetting(ctx, PassingScoreKey, strconv.FormatFloat(value, 'f', -1, 64), p.now())
	})
	if err != nil {
		slog.Error("failed to save passing score", "error", err)
		return apperr.Wrap(err, "failed to save passing score")
	}

	slog.Info("passing score updated", "value", value, "by", actor.ID)
	return nil
}

// MedalConfig resolves every tier for a cohort. Each tier is taken from the
// first of (area, level), (area, any level) and the global defaults that
// defines it. Tiers defined nowhere are omitted.
func (p *Provider) MedalConfig(ctx context.Context, repo store.Repository, areaID, level string) ([]ResolvedTier, error) {
	rows, err := repo.ListMedalConfig(ctx, areaID)
	if err != nil {
		return nil, err
	}

	byLevel := make(map[models.MedalTier]models.MedalTierConfig)
	byArea := make(map[models.MedalTier]models.MedalTierConfig)
	for _, row := range rows {
		switch {
		case level != "" && row.Level == level:
			byLevel[row.Tier] = row
		case row.Level == "":
			byArea[row.Tier] = row
		}
	}
	defaults := make(map[models.MedalTier]models.MedalTierConfig)
	for _, d := range p.medals {
		defaults[d.Tier] = d
	}

	resolved := make([]ResolvedTier, 0, len(models.MedalTiers))
	for _, tier := range models.MedalTiers {
		if cfg, ok := byLevel[tier]; ok {
			resolved = append(resolved, ResolvedTier{MedalTierConfig: cfg, Source: SourceAreaLevel})
			continue
		}
		if cfg, ok := byArea[tier]; ok {
			resolved = append(resolved, ResolvedTier{MedalTierConfig: cfg, Source: SourceArea})
			continue
		}
		if cfg, ok := defaults[tier]; ok {
			cfg.AreaID = areaID
			cfg.Level = level
			resolved = append(resolved, ResolvedTier{MedalTierConfig: cfg, Source: SourceDefault})
		}
	}
	return resolved, nil
}

// SetMedalTier stores one tier for an area, optionally scoped to a level.
// Admin only.
func (p *Provider) SetMedalTier(ctx context.Context, actor models.Actor, cfg models.MedalTierConfig) error {
	if actor.Role != models.RoleAdmin {
		return apperr.Forbidden("only an administrator can change medal configuration")
	}
	if err := ValidateTier(cfg); err != nil {
		return err
	}

	err := p.store.WithTx(ctx, func(repo store.Repository) error {
		return repo.UpsertMedalTier(ctx, cfg)
	})
	if err != nil {
		slog.Error("failed to save medal tier", "area_id", cfg.AreaID, "tier", cfg.Tier, "error", err)
		return apperr.Wrap(err, "failed to save medal configuration")
	}

	slog.Info("medal tier updated", "area_id", cfg.AreaID, "level", cfg.Level, "tier", cfg.Tier, "by", actor.ID)
	return nil
}

// ValidateTier checks the tier name, quota and score band.
func ValidateTier(cfg models.MedalTierConfig) error {
	if cfg.AreaID == "" {
		return apperr.Validation("area_id is required")
	}
	if !cfg.Tier.Valid() {
		return apperr.Validation("unknown medal tier %q", cfg.Tier)
	}
	if cfg.MaxCount < 0 {
		return apperr.Validation("max_count must not be negative")
	}
	if cfg.MinScore < 0 || cfg.MaxScore > models.MaxScore || cfg.MinScore > cfg.MaxScore {
		return apperr.Validation("score band must satisfy 0 <= min_score <= max_score <= 100").
			With("band", fmt.Sprintf("[%v, %v]", cfg.MinScore, cfg.MaxScore))
	}
	return nil
}
