package service

import "time"

// SetNow replaces the clock used for timestamps and ids.
func (s *ContentService) SetNow(now func() time.Time) {
	s.now = now
}
