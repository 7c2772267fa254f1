package frecency

import (
	"math"
	"time"

	"github.com/lexandro/fastpick-mcp/index"
)

const (
	// decayConstant is ln(2)/10: an access halves in weight every 10 days.
	decayConstant = 0.0693

	secondsPerDay = 86400.0

	// historyWindow caps how far back accesses still count.
	historyWindow = 30 * 24 * time.Hour

	// accessScoreCap is where the access score stops growing linearly.
	accessScoreCap = 10.0

	// weightAccess and weightModification combine the two signals into the
	// total. Fixed by calibration, deliberately not configurable.
	weightAccess       = 1
	weightModification = 2
)

// modificationThresholds awards points by how recently a git-dirty file was
// modified: the fresher the change, the higher the score.
var modificationThresholds = []struct {
	points int64
	maxAge time.Duration
}{
	{12, 2 * time.Minute},
	{6, 10 * time.Minute},
	{4, time.Hour},
	{2, 24 * time.Hour},
	{1, 7 * 24 * time.Hour},
}

// AccessScore derives the access frecency bucket (0..~10) for a path from
// its recorded access events. Unrecorded paths score zero.
func (s *Store) AccessScore(absolutePath string) int64 {
	now := s.now().Unix()

	s.mu.Lock()
	rec, ok := s.records[absolutePath]
	var events []int64
	if ok {
		events = append(events, rec.events...)
	}
	s.mu.Unlock()

	if len(events) == 0 {
		return 0
	}

	cutoff := now - int64(historyWindow.Seconds())
	total := 0.0
	for i := len(events) - 1; i >= 0; i-- {
		if events[i] < cutoff {
			break // older entries only get older
		}
		daysAgo := float64(now-events[i]) / secondsPerDay
		total += math.Exp(-decayConstant * daysAgo)
	}

	if total > accessScoreCap {
		total = accessScoreCap + math.Sqrt(total-accessScoreCap)
	}
	return int64(math.Round(total))
}

// ModificationScore derives the modification frecency bucket (0..12) from
// the file's modified time. Only files git reports as dirty score: a recent
// mtime on a committed file is churn, not work in progress.
func (s *Store) ModificationScore(modTime int64, status index.GitStatus) int64 {
	if !status.IsDirty() {
		return 0
	}

	age := time.Duration(s.now().Unix()-modTime) * time.Second
	for _, threshold := range modificationThresholds {
		if age <= threshold.maxAge {
			return threshold.points
		}
	}
	return 0
}

// ScoresFor returns the access, modification, and weighted total frecency
// scores for one file. This is the index.ScoreFunc used on every rescore
// pass; it reads in-memory state only.
func (s *Store) ScoresFor(absolutePath string, modTime int64, status index.GitStatus) (access, modification, total int64) {
	access = s.AccessScore(absolutePath)
	modification = s.ModificationScore(modTime, status)
	total = weightAccess*access + weightModification*modification
	return access, modification, total
}
