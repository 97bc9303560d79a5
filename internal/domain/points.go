package domain

import "time"

const (
	// MaxDailyPoints caps the rolling 24h counter.
	MaxDailyPoints = 2400
	// AccrualIncrement is added on each eligible accrual check.
	AccrualIncrement = 25
	// ResetWindow is the rolling boundary after which the counter resets.
	ResetWindow = 24 * time.Hour
	// AccrualWindow is the minimum quiet time since the last liveness
	// confirmation before an accrual may fire.
	AccrualWindow = 15 * time.Minute
)

// PointsLedger tracks the bounded daily counter for one session.
// The reset is lazy: it happens on the next check after the window
// elapses, not on a timer of its own.
type PointsLedger struct {
	Daily         int
	LastReset     time.Time
	LastHeartbeat time.Time
}

func NewPointsLedger(now time.Time) PointsLedger {
	return PointsLedger{LastReset: now, LastHeartbeat: now}
}

// AccrualResult describes what a single check did.
type AccrualResult struct {
	Reset bool
	Added int
	Total int
	AtCap bool
}

// Check runs one accrual evaluation: lazy reset first, then the
// eligibility gate. A successful accrual re-arms the eligibility window
// by stamping LastHeartbeat.
func (l *PointsLedger) Check(now time.Time, connected bool) AccrualResult {
	result := AccrualResult{}

	if now.Sub(l.LastReset) >= ResetWindow {
		l.Daily = 0
		l.LastReset = now
		result.Reset = true
	}

	if connected && now.Sub(l.LastHeartbeat) >= AccrualWindow {
		if l.Daily < MaxDailyPoints {
			added := AccrualIncrement
			if l.Daily+added > MaxDailyPoints {
				added = MaxDailyPoints - l.Daily
			}
			l.Daily += added
			l.LastHeartbeat = now
			result.Added = added
		} else {
			result.AtCap = true
		}
	}

	result.Total = l.Daily
	return result
}
