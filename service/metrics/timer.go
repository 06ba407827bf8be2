package metrics

import "time"

// Timer is a helper for timing operations.
// Usage:
//
//	done := Timer(time.Now(), func(duration float64) {
//	    m.RecordQuery("get_transactions", status, canister, duration)
//	})
//	defer done()
func Timer(start time.Time, recordFunc func(float64)) func() {
	return func() {
		recordFunc(time.Since(start).Seconds())
	}
}
