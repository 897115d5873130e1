package app

import (
	"context"
	"sync"
	"testing"

	"flag-quiz-service/internal/domain"
)

func TestRecordGameDoesNotMutateInput(t *testing.T) {
	rec := DefaultStats()
	rec.Regions[domain.RegionAsia] = domain.RegionStats{GamesPlayed: 1, Correct: 3, Wrong: 1}

	out := RecordGame(rec, domain.RegionAsia, 4, 6)
	if rec.GamesPlayed != 0 || rec.Regions[domain.RegionAsia].GamesPlayed != 1 {
		t.Fatalf("input record mutated: %+v", rec)
	}
	if out.GamesPlayed != 1 || out.TotalCorrect != 4 || out.TotalWrong != 6 {
		t.Fatalf("unexpected totals %+v", out)
	}
	asia := out.Regions[domain.RegionAsia]
	if asia.GamesPlayed != 2 || asia.Correct != 7 || asia.Wrong != 7 {
		t.Fatalf("unexpected asia stats %+v", asia)
	}
}

func TestStatsLoadFallsBackOnCorruptRecord(t *testing.T) {
	ctx := context.Background()
	kv := newMapKV()
	store := NewStatsStore(kv, "")

	if err := kv.Set(ctx, StatsKey, []byte(`{"gamesPlayed":`)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	rec, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec.GamesPlayed != 0 || rec.Regions == nil {
		t.Fatalf("expected default record, got %+v", rec)
	}
}

func TestLeaderboardLoadFallsBackOnCorruptRecord(t *testing.T) {
	ctx := context.Background()
	kv := newMapKV()
	store := NewLeaderboardStore(kv, "")

	if err := kv.Set(ctx, LeaderboardKey, []byte(`{"regular":[{"score":5}],`)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	rec, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec.Regular == nil || rec.Endless == nil || len(rec.Regular) != 0 || len(rec.Endless) != 0 {
		t.Fatalf("expected two empty lists, got %+v", rec)
	}
}

func TestDarkModeFallsBackOnCorruptRecord(t *testing.T) {
	ctx := context.Background()
	kv := newMapKV()
	prefs := NewPreferencesStore(kv, "")

	for _, raw := range []string{`tru`, `"yes"`, `{"enabled":true}`} {
		if err := kv.Set(ctx, DarkModeKey, []byte(raw)); err != nil {
			t.Fatalf("seed: %v", err)
		}
		enabled, err := prefs.DarkMode(ctx)
		if err != nil {
			t.Fatalf("dark mode %s: %v", raw, err)
		}
		if enabled {
			t.Fatalf("corrupt value %s must read as disabled", raw)
		}
	}

	if err := prefs.SetDarkMode(ctx, true); err != nil {
		t.Fatalf("set: %v", err)
	}
	if enabled, _ := prefs.DarkMode(ctx); !enabled {
		t.Fatalf("expected dark mode on after a valid write")
	}
}

func TestStatsResetClearsLeaderboardToo(t *testing.T) {
	ctx := context.Background()
	kv := newMapKV()
	stats := NewStatsStore(kv, "test")
	board := NewLeaderboardStore(kv, "test")

	if err := stats.Save(ctx, RecordGame(DefaultStats(), domain.RegionEurope, 5, 5)); err != nil {
		t.Fatalf("save stats: %v", err)
	}
	entry := domain.LeaderboardEntry{Region: domain.RegionEurope, Score: 5, Total: 10, Percentage: 50}
	if err := board.Save(ctx, Insert(domain.LeaderboardRecord{}, entry, false)); err != nil {
		t.Fatalf("save board: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, "test:"+StatsKey); !ok {
		t.Fatalf("expected namespaced stats key")
	}

	if err := stats.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	rec, _ := stats.Load(ctx)
	lb, _ := board.Load(ctx)
	if rec.GamesPlayed != 0 || len(lb.Regular) != 0 || len(lb.Endless) != 0 {
		t.Fatalf("expected everything cleared, got %+v %+v", rec, lb)
	}
}

func TestOverviewAccuracy(t *testing.T) {
	rec := RecordGame(DefaultStats(), domain.RegionEurope, 3, 1)
	rec.Regions[domain.RegionAll] = domain.RegionStats{GamesPlayed: 1, Correct: 1, Wrong: 2}

	overview := Overview(rec)
	if overview.Accuracy != 75 {
		t.Fatalf("expected 75%% overall, got %d", overview.Accuracy)
	}
	if len(overview.Regions) != 7 || overview.Regions[0].Region != domain.RegionAll {
		t.Fatalf("expected All plus six continents, got %+v", overview.Regions)
	}
	for _, row := range overview.Regions {
		switch row.Region {
		case domain.RegionAll:
			if row.Accuracy != 33 {
				t.Fatalf("expected 33%% for All, got %d", row.Accuracy)
			}
		case domain.RegionEurope:
			if row.Accuracy != 75 {
				t.Fatalf("expected 75%% for Europe, got %d", row.Accuracy)
			}
		default:
			if row.Accuracy != 0 || row.GamesPlayed != 0 {
				t.Fatalf("expected empty row for %s, got %+v", row.Region, row)
			}
		}
	}
}

// mapKV keeps tests free of the infra packages, which import app.
type mapKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapKV() *mapKV {
	return &mapKV{data: map[string][]byte{}}
}

func (m *mapKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mapKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mapKV) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}
