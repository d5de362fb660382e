package metrics

import (
	"fmt"
	"time"
)

// DefaultRetentionDays is the default cleanup cutoff.
const DefaultRetentionDays = 30

// Cleanup deletes records whose validated_at is older than the cutoff and
// returns how many were removed. Records at or after the cutoff are left
// untouched, so running cleanup twice in succession deletes nothing new.
func (s *Store) Cleanup(olderThanDays int) (int64, error) {
	if olderThanDays <= 0 {
		olderThanDays = DefaultRetentionDays
	}

	cutoff := s.now().AddDate(0, 0, -olderThanDays)

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		"DELETE FROM validation_metrics WHERE validated_at < ?",
		formatTime(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("cleanup metrics: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cleanup rows affected: %w", err)
	}
	return deleted, nil
}

// CountOlderThan returns how many records a Cleanup with the same cutoff
// would delete, without deleting them.
func (s *Store) CountOlderThan(olderThanDays int) (int64, error) {
	if olderThanDays <= 0 {
		olderThanDays = DefaultRetentionDays
	}

	cutoff := s.now().AddDate(0, 0, -olderThanDays)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	row := s.db.QueryRow(
		"SELECT COUNT(*) FROM validation_metrics WHERE validated_at < ?",
		formatTime(cutoff),
	)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count old metrics: %w", err)
	}
	return count, nil
}

// SetNowFunc overrides the store's clock. Tests use it to pin time windows.
func (s *Store) SetNowFunc(now func() time.Time) {
	s.now = now
}
