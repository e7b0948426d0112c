package aggregator

import (
	"time"

	"weather-metrics/internal/models"
)

// ResolveWindow fills in missing bounds relative to the current time and
// enforces the window length policy.
func ResolveWindow(from, to *time.Time) (models.Window, error) {
	return ResolveWindowAt(from, to, time.Now().UTC())
}

// ResolveWindowAt is ResolveWindow with an explicit "now".
//
// Missing bounds default to a 24h window: both missing ends at now, a missing
// end follows from, a missing start precedes to. The resolved span must then
// be between MinWindowDays and MaxWindowDays whole days, where whole days are
// counted by truncating division.
func ResolveWindowAt(from, to *time.Time, now time.Time) (models.Window, error) {
	var w models.Window

	switch {
	case from == nil && to == nil:
		w.To = now
		w.From = now.Add(-models.DefaultWindow)
	case from != nil && to == nil:
		w.From = *from
		w.To = from.Add(models.DefaultWindow)
	case from == nil && to != nil:
		w.To = *to
		w.From = to.Add(-models.DefaultWindow)
	default:
		w.From = *from
		w.To = *to
	}

	days := wholeDays(w.From, w.To)
	if days < models.MinWindowDays || days > models.MaxWindowDays {
		return models.Window{}, &models.RangeError{Days: days}
	}

	return w, nil
}

func wholeDays(from, to time.Time) int64 {
	return int64(to.Sub(from) / (24 * time.Hour))
}
