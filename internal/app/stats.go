package app

import (
	"context"
	"fmt"

	"flag-quiz-service/internal/domain"
)

// StatsStore persists the single process-wide StatsRecord.
type StatsStore struct {
	records
}

func NewStatsStore(kv KVStore, namespace string) *StatsStore {
	return &StatsStore{records: records{kv: kv, namespace: namespace}}
}

// DefaultStats is the record used before anything has been saved.
func DefaultStats() domain.StatsRecord {
	return domain.StatsRecord{Regions: map[domain.Region]domain.RegionStats{}}
}

// Load returns the persisted record, or a fresh default if none exists.
func (s *StatsStore) Load(ctx context.Context) (domain.StatsRecord, error) {
	rec := DefaultStats()
	ok, err := s.load(ctx, StatsKey, &rec)
	if err != nil {
		return domain.StatsRecord{}, err
	}
	if !ok {
		return DefaultStats(), nil
	}
	if rec.Regions == nil {
		rec.Regions = map[domain.Region]domain.RegionStats{}
	}
	return rec, nil
}

// Save overwrites the persisted record wholesale.
func (s *StatsStore) Save(ctx context.Context, rec domain.StatsRecord) error {
	return s.save(ctx, StatsKey, rec)
}

// Reset clears both the statistics and the leaderboard.
func (s *StatsStore) Reset(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key(StatsKey), s.key(LeaderboardKey)); err != nil {
		return fmt.Errorf("reset records: %w", err)
	}
	return nil
}

// RecordGame adds one finished game to rec and returns the result. rec is not modified.
func RecordGame(rec domain.StatsRecord, region domain.Region, correct, wrong int) domain.StatsRecord {
	out := rec
	out.Regions = make(map[domain.Region]domain.RegionStats, len(rec.Regions)+1)
	for r, stats := range rec.Regions {
		out.Regions[r] = stats
	}

	out.GamesPlayed++
	out.TotalCorrect += correct
	out.TotalWrong += wrong

	regionStats := out.Regions[region]
	regionStats.GamesPlayed++
	regionStats.Correct += correct
	regionStats.Wrong += wrong
	out.Regions[region] = regionStats
	return out
}

// Overview derives overall and per-region accuracy for display.
// Regions are All followed by the six selectable continents.
func Overview(rec domain.StatsRecord) domain.StatsOverview {
	selectable := domain.SelectableRegions()
	rows := make([]domain.RegionAccuracy, 0, len(selectable))
	for _, region := range selectable {
		stats := rec.Regions[region]
		rows = append(rows, domain.RegionAccuracy{
			Region:      region,
			GamesPlayed: stats.GamesPlayed,
			Correct:     stats.Correct,
			Wrong:       stats.Wrong,
			Accuracy:    Percentage(stats.Correct, stats.Correct+stats.Wrong),
		})
	}
	return domain.StatsOverview{
		Record:   rec,
		Accuracy: Percentage(rec.TotalCorrect, rec.TotalCorrect+rec.TotalWrong),
		Regions:  rows,
	}
}
