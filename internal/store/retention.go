package store

import (
	"context"
	"log"
	"time"
)

const retentionSweepInterval = 1 * time.Hour

// StartRetentionSweep runs a background loop that deletes messages older
// than maxAge. It runs one sweep immediately and then once per hour until
// the context is cancelled.
func (s *Store) StartRetentionSweep(ctx context.Context, maxAge time.Duration) {
	ticker := time.NewTicker(retentionSweepInterval)
	defer ticker.Stop()

	s.sweep(ctx, maxAge)
	for {
		select {
		case <-ctx.Done():
			log.Println("[store] retention sweep stopped")
			return
		case <-ticker.C:
			s.sweep(ctx, maxAge)
		}
	}
}

func (s *Store) sweep(ctx context.Context, maxAge time.Duration) {
	cutoff := time.Now().Add(-maxAge)
	n, err := s.DeleteMessagesBefore(ctx, cutoff)
	if err != nil {
		log.Printf("[store] retention sweep: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[store] retention sweep: removed %d messages older than %s", n, maxAge)
	}
}
