package database

import (
	"log/slog"
	"time"

	"github.com/satishbabariya/dbprobe/settings"
)

const (
	// DefaultTimeout bounds SingleRecord when Database.Timeout is not set.
	DefaultTimeout = 30 * time.Second
	// DefaultPollInterval separates SingleRecord attempts when Database.PollInterval is not set.
	DefaultPollInterval = 1000 * time.Millisecond
)

// Policy is the retrieval policy of SingleRecord.
type Policy struct {
	Timeout  time.Duration
	Interval time.Duration
}

// DefaultPolicy returns the 30s / 1000ms policy.
func DefaultPolicy() Policy {
	return Policy{Timeout: DefaultTimeout, Interval: DefaultPollInterval}
}

// ResolvePolicy reads Database.Timeout and Database.PollInterval from store,
// falling back to the defaults. store may be nil.
func ResolvePolicy(store settings.Store, logger *slog.Logger) Policy {
	policy := DefaultPolicy()

	if store != nil {
		if v, ok := store.LookupDuration(settings.DatabaseCategory, settings.KeyTimeout); ok {
			policy.Timeout = v
			logger.Debug("polling timeout configured", "timeout_ms", v.Milliseconds())
		} else {
			logger.Debug("default polling timeout being used", "timeout_ms", DefaultTimeout.Milliseconds())
		}

		if v, ok := store.LookupDuration(settings.DatabaseCategory, settings.KeyPollInterval); ok {
			policy.Interval = v
			logger.Debug("poll interval configured", "interval_ms", v.Milliseconds())
		} else {
			logger.Debug("default poll interval being used", "interval_ms", DefaultPollInterval.Milliseconds())
		}
		return policy
	}

	logger.Debug("no settings supplied, default polling policy being used",
		"timeout_ms", DefaultTimeout.Milliseconds(),
		"interval_ms", DefaultPollInterval.Milliseconds())
	return policy
}
