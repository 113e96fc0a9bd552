package leaderboard

import (
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendAndTopOrdering(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []Record{
		{Name: "A", Score: 30, Class: "Vanguard", Mode: "casual", CreatedAt: base},
		{Name: "B", Score: 80, Class: "Juggernaut", Mode: "ranked", CreatedAt: base.Add(time.Minute)},
		{Name: "C", Score: 80, Class: "Interceptor", Mode: "casual", CreatedAt: base.Add(2 * time.Minute)},
		{Name: "D", Score: 10, Class: "Vanguard", Mode: "casual", CreatedAt: base.Add(3 * time.Minute)},
	}
	for _, r := range records {
		if err := s.Append(r); err != nil {
			t.Fatalf("append %s: %v", r.Name, err)
		}
	}

	top, err := s.Top(3)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("top size = %d, want 3", len(top))
	}
	// Descending score; B beats C on the earlier-insert tiebreak.
	if top[0].Name != "B" || top[1].Name != "C" || top[2].Name != "A" {
		t.Fatalf("top order = [%s %s %s], want [B C A]", top[0].Name, top[1].Name, top[2].Name)
	}
}

func TestTopLimitLargerThanTable(t *testing.T) {
	s := openTestStore(t)
	if err := s.Append(Record{Name: "solo", Score: 5, Class: "Vanguard", Mode: "casual"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	top, err := s.Top(10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 1 {
		t.Fatalf("top size = %d, want 1", len(top))
	}
}

func TestAllPreservesInsertionOrder(t *testing.T) {
	s := openTestStore(t)
	names := []string{"first", "second", "third"}
	for i, n := range names {
		if err := s.Append(Record{Name: n, Score: i, Class: "Vanguard", Mode: "casual"}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	all, err := s.All()
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	for i, n := range names {
		if all[i].Name != n {
			t.Fatalf("all[%d] = %s, want %s", i, all[i].Name, n)
		}
	}
}

func TestAppendStampsZeroTime(t *testing.T) {
	s := openTestStore(t)
	if err := s.Append(Record{Name: "x", Score: 1, Class: "Vanguard", Mode: "ranked"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	all, err := s.All()
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if all[0].CreatedAt.IsZero() {
		t.Fatal("created_at not stamped")
	}
	if all[0].Mode != "ranked" {
		t.Fatalf("mode = %q, want ranked", all[0].Mode)
	}
}
