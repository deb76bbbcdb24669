package ratelimit

import (
	"context"
	"fmt"
)

// LimitExceeded describes the limit a request ran into.
type LimitExceeded struct {
	Scope  Scope
	Config LimitConfig
	Count  int64
}

// PolicyLimiter enforces a Policy per client key.
type PolicyLimiter struct {
	store  Store
	policy *Policy
}

// NewPolicyLimiter creates a new policy-based rate limiter.
func NewPolicyLimiter(store Store, policy *Policy) *PolicyLimiter {
	return &PolicyLimiter{
		store:  store,
		policy: policy,
	}
}

// Allow records the request against every limit of the given scopes and
// reports the first one exceeded. A nil *LimitExceeded means the request is allowed.
func (l *PolicyLimiter) Allow(ctx context.Context, clientKey string, scopes []Scope) (*LimitExceeded, error) {
	for _, scope := range scopes {
		for _, limit := range l.policy.Limits[scope] {
			exceeded, err := l.record(ctx, fmt.Sprintf("%s:%s", clientKey, scope), scope, limit)
			if err != nil || exceeded != nil {
				return exceeded, err
			}
		}
	}

	return nil, nil
}

// AllowRoute applies endpoint-specific limits instead of the policy. Counters
// are keyed by route template, so "/{code}" shares one budget per client.
func (l *PolicyLimiter) AllowRoute(
	ctx context.Context, clientKey, route string, limits []LimitConfig,
) (*LimitExceeded, error) {
	for _, limit := range limits {
		exceeded, err := l.record(ctx, fmt.Sprintf("%s:route:%s", clientKey, route), ScopeRoute, limit)
		if err != nil || exceeded != nil {
			return exceeded, err
		}
	}

	return nil, nil
}

func (l *PolicyLimiter) record(ctx context.Context, base string, scope Scope, limit LimitConfig) (*LimitExceeded, error) {
	key := fmt.Sprintf("%s:%d", base, limit.Window.Milliseconds())

	count, err := l.store.Record(ctx, key, limit.Window)
	if err != nil {
		return nil, err
	}

	if count > limit.Max {
		return &LimitExceeded{Scope: scope, Config: limit, Count: count}, nil
	}

	return nil, nil
}
