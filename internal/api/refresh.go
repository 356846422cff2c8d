package api

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kaphack/voicecall-assistant/internal/core"
)

// Refresh loads every rule from store into cache.
func Refresh(ctx context.Context, store RuleStore, cache RuleCache) error {
	if cache == nil {
		return nil
	}
	rules, err := store.GetAllRules(ctx)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}
	cache.SetRules(rules)
	return nil
}

// RunRefresher refreshes the cache every interval until ctx ends. Failed
// refreshes keep the previous rule set.
func RunRefresher(ctx context.Context, store RuleStore, cache RuleCache, interval time.Duration) error {
	if err := Refresh(ctx, store, cache); err != nil {
		log.Warn().Err(err).Str("component", "rules").Msg("initial rule load failed")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := Refresh(ctx, store, cache); err != nil {
				log.Warn().Err(err).Str("component", "rules").Msg("rule refresh failed")
			}
		}
	}
}

// SeedDefaults installs the stock escalation rule into an empty store.
func SeedDefaults(ctx context.Context, store RuleStore) error {
	rules, err := store.GetAllRules(ctx)
	if err != nil {
		return err
	}
	if len(rules) > 0 {
		return nil
	}
	log.Info().Str("component", "rules").Msg("seeding default rules")
	conds := []core.Condition{{Word: "help", Operator: ">=", Count: 3}}
	if _, err := store.CreateRule(ctx, "Repeated help requests", conds, core.ActionHumanHandoff); err != nil {
		return fmt.Errorf("failed to seed rule: %w", err)
	}
	return nil
}
