package app

import (
	"context"
	"sort"

	"flag-quiz-service/internal/domain"
)

// LeaderboardStore persists the regular and endless top lists.
type LeaderboardStore struct {
	records
}

func NewLeaderboardStore(kv KVStore, namespace string) *LeaderboardStore {
	return &LeaderboardStore{records: records{kv: kv, namespace: namespace}}
}

// Load returns the persisted leaderboard, or two empty lists.
func (s *LeaderboardStore) Load(ctx context.Context) (domain.LeaderboardRecord, error) {
	var rec domain.LeaderboardRecord
	ok, err := s.load(ctx, LeaderboardKey, &rec)
	if err != nil {
		return domain.LeaderboardRecord{}, err
	}
	if !ok {
		rec = domain.LeaderboardRecord{}
	}
	if rec.Regular == nil {
		rec.Regular = []domain.LeaderboardEntry{}
	}
	if rec.Endless == nil {
		rec.Endless = []domain.LeaderboardEntry{}
	}
	return rec, nil
}

func (s *LeaderboardStore) Save(ctx context.Context, rec domain.LeaderboardRecord) error {
	return s.save(ctx, LeaderboardKey, rec)
}

// Insert adds entry to the list for its mode, re-sorts and keeps the top ten.
// Regular ranks by percentage then score; endless by score. Equal entries keep
// their insertion order.
func Insert(rec domain.LeaderboardRecord, entry domain.LeaderboardEntry, endless bool) domain.LeaderboardRecord {
	out := domain.LeaderboardRecord{
		Regular: append([]domain.LeaderboardEntry{}, rec.Regular...),
		Endless: append([]domain.LeaderboardEntry{}, rec.Endless...),
	}

	if endless {
		list := append(out.Endless, entry)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Score > list[j].Score
		})
		out.Endless = truncate(list)
		return out
	}

	list := append(out.Regular, entry)
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Percentage != list[j].Percentage {
			return list[i].Percentage > list[j].Percentage
		}
		return list[i].Score > list[j].Score
	})
	out.Regular = truncate(list)
	return out
}

func truncate(list []domain.LeaderboardEntry) []domain.LeaderboardEntry {
	if len(list) > domain.LeaderboardSize {
		return list[:domain.LeaderboardSize]
	}
	return list
}

// EntryFromSummary builds the leaderboard row for a finished game.
func EntryFromSummary(summary domain.SessionSummary, date string) domain.LeaderboardEntry {
	return domain.LeaderboardEntry{
		Region:     summary.Region,
		Mode:       summary.Mode.Label(),
		Score:      summary.Correct,
		Total:      summary.Total,
		Percentage: summary.Percentage,
		Date:       date,
	}
}
