package application

import (
	"math"
	"time"
)

// sessionBucket accumulates the sessions that share a grouping key. Focus
// sums FocusTime over completed sessions of any type, WorkFocus only over
// completed work sessions.
type sessionBucket struct {
	Key           string
	Total         int
	Completed     int
	WorkCompleted int
	Focus         int
	WorkFocus     int
	Interruptions int
}

// aggregateSessions groups sessions into one bucket per key, returned in the
// order of keys. Every bucket starts zeroed; sessions whose key is not listed
// are skipped.
func aggregateSessions(sessions []Session, keys []string, keyOf func(Session) string) []sessionBucket {
	buckets := make([]sessionBucket, len(keys))
	index := make(map[string]int, len(keys))
	for i, key := range keys {
		buckets[i].Key = key
		index[key] = i
	}

	for _, session := range sessions {
		i, ok := index[keyOf(session)]
		if !ok {
			continue
		}
		bucket := &buckets[i]
		bucket.Total++
		bucket.Interruptions += session.InterruptionCount
		if session.Status != SessionStatusCompleted {
			continue
		}
		focus := session.FocusTime()
		bucket.Completed++
		bucket.Focus += focus
		if session.Type == SessionTypeWork {
			bucket.WorkCompleted++
			bucket.WorkFocus += focus
		}
	}
	return buckets
}

// successRate is the bucket's completion percentage, 0 when empty.
func (b sessionBucket) successRate() int {
	return percentage(b.Completed, b.Total)
}

// averageLength is the mean focus seconds per completed session, 0 when none.
func (b sessionBucket) averageLength() int {
	if b.Completed == 0 {
		return 0
	}
	return roundHalfUp(float64(b.Focus) / float64(b.Completed))
}

func percentage(part, total int) int {
	if total <= 0 {
		return 0
	}
	return roundHalfUp(float64(part) / float64(total) * 100)
}

// roundHalfUp rounds .5 towards positive infinity.
func roundHalfUp(value float64) int {
	return int(math.Floor(value + 0.5))
}

const dateKeyLayout = "2006-01-02"

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// startOfWeek returns midnight of the Monday on or before t.
func startOfWeek(t time.Time, loc *time.Location) time.Time {
	day := startOfDay(t, loc)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func dayKey(loc *time.Location) func(Session) string {
	return func(s Session) string {
		return s.StartedAt.In(loc).Format(dateKeyLayout)
	}
}
