package app

import (
	"testing"

	"flag-quiz-service/internal/domain"
)

func TestInsertRegularOrderAndCap(t *testing.T) {
	var rec domain.LeaderboardRecord
	for i := 0; i < domain.LeaderboardSize; i++ {
		rec = Insert(rec, domain.LeaderboardEntry{Score: 10 + i, Total: 20, Percentage: 50 + i}, false)
	}

	lowest := domain.LeaderboardEntry{Score: 1, Total: 20, Percentage: 5, Date: "low"}
	rec = Insert(rec, lowest, false)
	if len(rec.Regular) != domain.LeaderboardSize {
		t.Fatalf("expected %d entries, got %d", domain.LeaderboardSize, len(rec.Regular))
	}
	for _, e := range rec.Regular {
		if e.Date == "low" {
			t.Fatalf("11th lowest entry must be excluded")
		}
	}
	for i := 1; i < len(rec.Regular); i++ {
		if rec.Regular[i-1].Percentage < rec.Regular[i].Percentage {
			t.Fatalf("regular list not sorted at %d: %+v", i, rec.Regular)
		}
	}
}

func TestInsertRegularTieBreaksOnScore(t *testing.T) {
	var rec domain.LeaderboardRecord
	rec = Insert(rec, domain.LeaderboardEntry{Score: 8, Total: 10, Percentage: 80, Date: "a"}, false)
	rec = Insert(rec, domain.LeaderboardEntry{Score: 16, Total: 20, Percentage: 80, Date: "b"}, false)
	rec = Insert(rec, domain.LeaderboardEntry{Score: 8, Total: 10, Percentage: 80, Date: "c"}, false)

	got := []string{rec.Regular[0].Date, rec.Regular[1].Date, rec.Regular[2].Date}
	if got[0] != "b" || got[1] != "a" || got[2] != "c" {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestInsertEndlessSortsByScoreOnly(t *testing.T) {
	var rec domain.LeaderboardRecord
	rec = Insert(rec, domain.LeaderboardEntry{Score: 4, Total: 10, Percentage: 40}, true)
	rec = Insert(rec, domain.LeaderboardEntry{Score: 12, Total: 30, Percentage: 40}, true)
	rec = Insert(rec, domain.LeaderboardEntry{Score: 7, Total: 7, Percentage: 100}, true)

	if len(rec.Regular) != 0 {
		t.Fatalf("endless entries must not reach the regular list")
	}
	scores := []int{rec.Endless[0].Score, rec.Endless[1].Score, rec.Endless[2].Score}
	if scores[0] != 12 || scores[1] != 7 || scores[2] != 4 {
		t.Fatalf("unexpected endless order %v", scores)
	}
}

func TestInsertDoesNotMutateInput(t *testing.T) {
	rec := domain.LeaderboardRecord{Regular: []domain.LeaderboardEntry{{Score: 1, Percentage: 10}}}
	_ = Insert(rec, domain.LeaderboardEntry{Score: 9, Percentage: 90}, false)
	if len(rec.Regular) != 1 || rec.Regular[0].Score != 1 {
		t.Fatalf("input mutated: %+v", rec.Regular)
	}
}

func TestEntryFromSummary(t *testing.T) {
	summary := domain.SessionSummary{Correct: 7, Total: 10, Percentage: 70, Region: domain.RegionAsia, Mode: domain.ModeNameToFlag}
	e := EntryFromSummary(summary, "2024-05-01")
	if e.Mode != "Name → Flag" || e.Score != 7 || e.Total != 10 || e.Date != "2024-05-01" {
		t.Fatalf("unexpected entry %+v", e)
	}
}
