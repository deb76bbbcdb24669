package ratelimit

import "time"

// LimitConfig allows at most Max requests in any sliding Window.
type LimitConfig struct {
	Window time.Duration
	Max    int64
}

// Policy maps scopes to the limits enforced for them.
type Policy struct {
	Limits map[Scope][]LimitConfig
}

// PolicyBuilder assembles a Policy.
type PolicyBuilder struct {
	limits map[Scope][]LimitConfig
}

// NewPolicyBuilder creates an empty policy builder.
func NewPolicyBuilder() *PolicyBuilder {
	return &PolicyBuilder{limits: make(map[Scope][]LimitConfig)}
}

// AddLimit adds a limit for scope. Non-positive values are ignored.
func (b *PolicyBuilder) AddLimit(scope Scope, maxRequests int64, window time.Duration) *PolicyBuilder {
	if maxRequests <= 0 || window <= 0 {
		return b
	}

	b.limits[scope] = append(b.limits[scope], LimitConfig{Window: window, Max: maxRequests})

	return b
}

// Build returns the assembled policy.
func (b *PolicyBuilder) Build() *Policy {
	limits := make(map[Scope][]LimitConfig, len(b.limits))
	for scope, l := range b.limits {
		limits[scope] = append([]LimitConfig(nil), l...)
	}

	return &Policy{Limits: limits}
}

// DefaultPolicy allows globalPerMinute requests per client per minute, with
// writes additionally capped at a tenth of that.
func DefaultPolicy(globalPerMinute int64) *Policy {
	writes := max(globalPerMinute/10, 1)

	return NewPolicyBuilder().
		AddLimit(ScopeGlobal, globalPerMinute, time.Minute).
		AddLimit(ScopeWrite, writes, time.Minute).
		AddLimit(ScopeWrite, writes*30, time.Hour).
		Build()
}
