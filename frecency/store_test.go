package frecency

import (
	"testing"
	"time"

	"github.com/lexandro/fastpick-mcp/index"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), true, nil)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func Test_Store_OpenMissingDirWithoutCreate(t *testing.T) {
	_, err := Open(t.TempDir()+"/nope", false, nil)
	if err == nil {
		t.Fatal("expected error for missing directory without create")
	}
}

func Test_Store_AccessScoreUnknownPathIsZero(t *testing.T) {
	s := openTestStore(t)
	if got := s.AccessScore("/repo/never.go"); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}

func Test_Store_RecentAccessScoresHigherThanOld(t *testing.T) {
	s := openTestStore(t)
	base := time.Unix(1700000000, 0)

	s.now = func() time.Time { return base.Add(-10 * 24 * time.Hour) }
	s.RecordAccess("/repo/old.go")

	s.now = func() time.Time { return base }
	s.RecordAccess("/repo/fresh.go")
	s.RecordAccess("/repo/fresh.go")
	s.RecordAccess("/repo/fresh.go")

	fresh := s.AccessScore("/repo/fresh.go")
	old := s.AccessScore("/repo/old.go")
	if fresh <= old {
		t.Errorf("expected fresh (%d) > old (%d)", fresh, old)
	}
}

func Test_Store_AccessScoreMonotonicInEvents(t *testing.T) {
	s := openTestStore(t)
	base := time.Unix(1700000000, 0)
	s.now = func() time.Time { return base }

	s.RecordAccess("/repo/a.go")
	before := s.AccessScore("/repo/a.go")

	s.RecordAccess("/repo/a.go")
	after := s.AccessScore("/repo/a.go")

	if after < before {
		t.Errorf("adding an access decreased the score: %d -> %d", before, after)
	}
}

func Test_Store_AccessEventsBounded(t *testing.T) {
	s := openTestStore(t)
	base := time.Unix(1700000000, 0)
	s.now = func() time.Time { return base }

	for i := 0; i < maxEvents*3; i++ {
		s.RecordAccess("/repo/hot.go")
	}

	s.mu.Lock()
	n := len(s.records["/repo/hot.go"].events)
	s.mu.Unlock()
	if n != maxEvents {
		t.Errorf("expected events capped at %d, got %d", maxEvents, n)
	}
}

func Test_Store_OldAccessesOutsideWindowIgnored(t *testing.T) {
	s := openTestStore(t)
	base := time.Unix(1700000000, 0)

	s.now = func() time.Time { return base.Add(-40 * 24 * time.Hour) }
	s.RecordAccess("/repo/ancient.go")

	s.now = func() time.Time { return base }
	if got := s.AccessScore("/repo/ancient.go"); got != 0 {
		t.Errorf("expected 40-day-old access to score 0, got %d", got)
	}
}

func Test_Store_ModificationScoreRequiresDirtyStatus(t *testing.T) {
	s := openTestStore(t)
	base := time.Unix(1700000000, 0)
	s.now = func() time.Time { return base }

	justNow := base.Unix() - 30

	if got := s.ModificationScore(justNow, index.GitClean); got != 0 {
		t.Errorf("expected clean file to score 0, got %d", got)
	}
	if got := s.ModificationScore(justNow, index.GitModified); got != 12 {
		t.Errorf("expected fresh dirty file to score 12, got %d", got)
	}
}

func Test_Store_ModificationScoreDecaysWithAge(t *testing.T) {
	s := openTestStore(t)
	base := time.Unix(1700000000, 0)
	s.now = func() time.Time { return base }

	cases := []struct {
		age  time.Duration
		want int64
	}{
		{time.Minute, 12},
		{5 * time.Minute, 6},
		{30 * time.Minute, 4},
		{5 * time.Hour, 2},
		{3 * 24 * time.Hour, 1},
		{30 * 24 * time.Hour, 0},
	}
	for _, c := range cases {
		got := s.ModificationScore(base.Add(-c.age).Unix(), index.GitModified)
		if got != c.want {
			t.Errorf("age %v: expected %d, got %d", c.age, c.want, got)
		}
	}
}

func Test_Store_TotalUsesFixedWeights(t *testing.T) {
	s := openTestStore(t)
	base := time.Unix(1700000000, 0)
	s.now = func() time.Time { return base }

	s.RecordAccess("/repo/a.go")
	access, modification, total := s.ScoresFor("/repo/a.go", base.Unix()-30, index.GitModified)

	if total != weightAccess*access+weightModification*modification {
		t.Errorf("weight identity violated: %d != %d*%d + %d*%d",
			total, weightAccess, access, weightModification, modification)
	}
}

func Test_Store_FlushReloadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	base := time.Unix(1700000000, 0)

	s, err := Open(dir, true, nil)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	s.now = func() time.Time { return base }
	s.RecordAccess("/repo/a.go")
	s.RecordAccess("/repo/a.go")
	want := s.AccessScore("/repo/a.go")
	if err := s.Close(); err != nil {
		t.Fatalf("closing store: %v", err)
	}

	s2, err := Open(dir, false, nil)
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	defer s2.Close()
	s2.now = func() time.Time { return base }

	if got := s2.AccessScore("/repo/a.go"); got != want {
		t.Errorf("expected reloaded score %d, got %d", want, got)
	}
}

func Test_Store_RecordAccessAfterCloseDropsEvent(t *testing.T) {
	s, err := Open(t.TempDir(), true, nil)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	s.Close()

	s.RecordAccess("/repo/a.go") // must not panic or error
	if s.DroppedEvents() != 1 {
		t.Errorf("expected 1 dropped event, got %d", s.DroppedEvents())
	}
}

func Test_Store_PruneDropsStaleAbsentRecords(t *testing.T) {
	s := openTestStore(t)
	base := time.Unix(1700000000, 0)

	s.now = func() time.Time { return base.Add(-100 * 24 * time.Hour) }
	s.RecordAccess("/repo/gone.go")
	s.RecordAccess("/repo/still-here.go")

	s.now = func() time.Time { return base }
	s.RecordAccess("/repo/recent-but-gone.go")

	pruned := s.Prune(func(path string) bool {
		return path == "/repo/still-here.go"
	})

	if pruned != 1 {
		t.Fatalf("expected 1 pruned, got %d", pruned)
	}
	s.mu.Lock()
	_, goneOK := s.records["/repo/gone.go"]
	_, hereOK := s.records["/repo/still-here.go"]
	_, recentOK := s.records["/repo/recent-but-gone.go"]
	s.mu.Unlock()

	if goneOK {
		t.Error("expected stale absent record to be pruned")
	}
	if !hereOK {
		t.Error("expected indexed record to survive")
	}
	if !recentOK {
		t.Error("expected recently-seen record to survive the TTL")
	}
}
