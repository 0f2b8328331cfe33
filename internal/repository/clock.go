package repository

import (
	"time"

	"github.com/mansoorceksport/stride/internal/domain"
)

// orSystemClock falls back to the UTC wall clock when no clock is injected.
func orSystemClock(clock domain.Clock) domain.Clock {
	if clock == nil {
		return domain.NewSystemClock(time.UTC)
	}
	return clock
}

// stamp fills only zero timestamps, so times set by the services survive.
func stamp(clock domain.Clock, created, updated *time.Time) {
	now := clock.Now()
	if created != nil && created.IsZero() {
		*created = now
	}
	if updated != nil && updated.IsZero() {
		*updated = now
	}
}
