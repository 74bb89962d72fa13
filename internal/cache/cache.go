package cache

import (
	"context"
	"time"
)

// Store is the TTL cache used in front of the metric reads and the CRM
// metadata. Implementations are injected into their consumers; there is no
// package-level cache instance.
type Store interface {
	// Get unmarshals the cached value for key into dest and reports whether
	// a live entry existed.
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Invalidate drops one key.
	Invalidate(ctx context.Context, key string) error
	// InvalidatePrefix drops every key starting with prefix.
	InvalidatePrefix(ctx context.Context, prefix string) error
	// Flush drops everything.
	Flush(ctx context.Context) error
}

// Cache key namespaces shared by the services and the admin refresh hook.
const (
	KeyGeneralMetrics = "metrics:general"
	KeySDRRanking     = "metrics:ranking"
	KeyUniqueSDRs     = "leads:sdrs"
	PrefixMetrics     = "metrics:"
	PrefixLeads       = "leads:"
	PrefixCRM         = "crm:"
)
