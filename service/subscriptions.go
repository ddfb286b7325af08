package service

import (
	"context"
	"errors"

	"github.com/nickyhof/BotDesk/core"
	"github.com/nickyhof/BotDesk/logger"
	"github.com/nickyhof/BotDesk/ps"
	"github.com/nickyhof/BotDesk/remote"
)

const (
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
)

// Subscriptions keeps the last subscription read for each user in the
// cache and serves it when no backend can answer.
type Subscriptions struct {
	crud[core.Subscription]
	plans crud[core.SubscriptionPlan]
	cache *ps.Cache
}

func (s *Subscriptions) Plans(ctx context.Context) ([]core.SubscriptionPlan, error) {
	return s.plans.where(ctx, "", nil)
}

func (s *Subscriptions) Plan(ctx context.Context, id string) (*core.SubscriptionPlan, error) {
	return s.plans.GetByID(ctx, id)
}

// GetByUser returns the user's active subscription, or their most recent one
// when none is active.
func (s *Subscriptions) GetByUser(ctx context.Context, userID string) (*core.Subscription, error) {
	if userID == "" {
		return nil, nil
	}

	subscriptions, err := s.where(ctx, "user_id", userID)
	if errors.Is(err, remote.ErrBackendUnavailable) {
		var cached core.Subscription
		found, cacheErr := s.cache.Get(ps.SubscriptionKey(userID), &cached)
		if cacheErr == nil && found {
			logger.WarnErr(err).Str("user", userID).Msg("Serving cached subscription")
			return &cached, nil
		}
	}
	if err != nil {
		return nil, err
	}
	if len(subscriptions) == 0 {
		return nil, nil
	}

	current := subscriptions[len(subscriptions)-1]
	for _, subscription := range subscriptions {
		if subscription.Status == SubscriptionActive {
			current = subscription
		}
	}

	if err := s.cache.Put(ps.SubscriptionKey(userID), current); err != nil {
		logger.WarnErr(err).Str("user", userID).Msg("Failed to cache subscription")
	}
	return &current, nil
}

func (s *Subscriptions) Create(ctx context.Context, subscription core.Subscription) (*core.Subscription, error) {
	if err := required("subscription", "userId", subscription.UserID, "planId", subscription.PlanID); err != nil {
		return nil, err
	}
	if subscription.Status == "" {
		subscription.Status = SubscriptionActive
	}
	created, err := s.insert(ctx, &subscription)
	if err != nil {
		return nil, err
	}
	s.forget(subscription.UserID)
	return created, nil
}

func (s *Subscriptions) Update(ctx context.Context, id string, changes map[string]any) (*core.Subscription, error) {
	updated, err := s.crud.Update(ctx, id, changes)
	if err == nil && updated != nil {
		s.forget(updated.UserID)
	}
	return updated, err
}

func (s *Subscriptions) Cancel(ctx context.Context, id string) (*core.Subscription, error) {
	return s.Update(ctx, id, map[string]any{"status": SubscriptionCancelled})
}

func (s *Subscriptions) forget(userID string) {
	if err := s.cache.Drop(ps.SubscriptionKey(userID)); err != nil {
		logger.WarnErr(err).Str("user", userID).Msg("Failed to drop cached subscription")
	}
}
