package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"flag-quiz-service/internal/catalog"
	"flag-quiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SessionRepository abstracts where each player's active game lives (in-memory, Redis, etc).
type SessionRepository interface {
	// Put makes session the player's active game, replacing any previous one.
	Put(playerID string, session *Session)
	Get(playerID string) (*Session, bool)
	// Delete drops the player's game; a non-empty sessionID must match the active one.
	Delete(playerID, sessionID string)
	// SweepIdle drops games inactive since before cutoff and reports how many.
	SweepIdle(cutoff time.Time) int
}

// CatalogRepository loads the country catalog (from cache/backing store).
type CatalogRepository interface {
	GetCatalog(ctx context.Context) (*catalog.Catalog, error)
}

// StartRequest is a player's game selection as entered at the boundary.
type StartRequest struct {
	Region string `json:"region"`
	Mode   string `json:"mode"`
	Count  string `json:"count"`
}

// Option tunes a QuizService.
type Option func(*QuizService)

// WithFinishDelay sets the pause between losing the last life and the results.
func WithFinishDelay(d time.Duration) Option {
	return func(s *QuizService) { s.finishDelay = d }
}

// WithClock is test-only for deterministic dates and idle tracking.
func WithClock(now func() time.Time) Option {
	return func(s *QuizService) { s.now = now }
}

// WithRandSource makes question generation reproducible.
func WithRandSource(newRand func() *rand.Rand) Option {
	return func(s *QuizService) { s.newRand = newRand }
}

// QuizService contains the flag quiz use cases.
type QuizService struct {
	sessions    SessionRepository
	catalogs    CatalogRepository
	stats       *StatsStore
	leaderboard *LeaderboardStore
	prefs       *PreferencesStore

	finishDelay time.Duration
	now         func() time.Time
	newRand     func() *rand.Rand

	// recordsMu serialises read-modify-write cycles on the persisted records.
	recordsMu sync.Mutex
}

func NewQuizService(sessions SessionRepository, catalogs CatalogRepository, kv KVStore, namespace string, opts ...Option) *QuizService {
	s := &QuizService{
		sessions:    sessions,
		catalogs:    catalogs,
		stats:       NewStatsStore(kv, namespace),
		leaderboard: NewLeaderboardStore(kv, namespace),
		prefs:       NewPreferencesStore(kv, namespace),
		finishDelay: time.Second,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.newRand == nil {
		s.newRand = func() *rand.Rand {
			return rand.New(rand.NewSource(s.now().UnixNano()))
		}
	}
	return s
}

// Regions lists selectable regions with their country counts.
func (s *QuizService) Regions(ctx context.Context) ([]domain.RegionCount, error) {
	cat, err := s.catalogs.GetCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return cat.Counts(), nil
}

// Countries lists the pool for a region.
func (s *QuizService) Countries(ctx context.Context, region domain.Region) ([]domain.Country, error) {
	cat, err := s.catalogs.GetCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return cat.Filter(region), nil
}

// Start validates the selection and begins a new game for the player,
// abandoning any game they already had.
func (s *QuizService) Start(ctx context.Context, playerID string, req StartRequest) (domain.QuestionView, error) {
	region, err := domain.ParseRegion(req.Region)
	if err != nil {
		return domain.QuestionView{}, err
	}
	if !region.Selectable() {
		return domain.QuestionView{}, domain.ErrUnknownRegion
	}
	mode, err := domain.ParseGameMode(req.Mode)
	if err != nil {
		return domain.QuestionView{}, err
	}

	cat, err := s.catalogs.GetCatalog(ctx)
	if err != nil {
		return domain.QuestionView{}, err
	}
	pool := cat.Filter(region)
	if len(pool) < domain.MinPoolSize {
		return domain.QuestionView{}, domain.ErrNotEnoughCountries
	}
	count, err := domain.ParseQuestionCount(req.Count, len(pool))
	if err != nil {
		return domain.QuestionView{}, err
	}

	session := NewSession(SessionConfig{
		ID:      uuid.NewString(),
		Region:  region,
		Mode:    mode,
		Count:   count,
		Pool:    pool,
		Catalog: cat.Countries(),
		Rand:    s.newRand(),
		Now:     s.now,
	})
	s.sessions.Put(playerID, session)
	log.Debug().Str("player", playerID).Str("session", session.ID()).Str("region", string(region)).Msg("game started")
	return session.View(), nil
}

// Current returns the player's current question.
func (s *QuizService) Current(playerID string) (domain.QuestionView, error) {
	session, ok := s.sessions.Get(playerID)
	if !ok {
		return domain.QuestionView{}, domain.ErrSessionNotFound
	}
	return session.View(), nil
}

// Session returns the player's active game.
func (s *QuizService) Session(playerID string) (*Session, error) {
	session, ok := s.sessions.Get(playerID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Answer scores the player's choice. A new best streak is persisted straight
// away. Losing the last endless life finishes the game after the finish delay;
// the summary then arrives on Session.Results.
func (s *QuizService) Answer(ctx context.Context, playerID, selectedName string) (domain.Outcome, error) {
	session, ok := s.sessions.Get(playerID)
	if !ok {
		return domain.Outcome{}, domain.ErrSessionNotFound
	}

	if name, ok := s.Resolve(ctx, selectedName); ok {
		selectedName = name
	}
	outcome := session.Answer(selectedName)
	if outcome.Ignored {
		return outcome, nil
	}
	if outcome.Correct {
		if err := s.recordStreak(ctx, outcome.Counters.Streak); err != nil {
			return outcome, err
		}
	}
	if outcome.Terminated {
		s.scheduleFinish(playerID, session)
	}
	return outcome, nil
}

// Resolve maps a typed country name to its catalog spelling, ignoring case
// and diacritics.
func (s *QuizService) Resolve(ctx context.Context, name string) (string, bool) {
	cat, err := s.catalogs.GetCatalog(ctx)
	if err != nil {
		return "", false
	}
	country, ok := cat.Lookup(name)
	if !ok {
		return "", false
	}
	return country.Name, true
}

// Next advances the player's game.
func (s *QuizService) Next(_ context.Context, playerID string) (domain.QuestionView, error) {
	session, ok := s.sessions.Get(playerID)
	if !ok {
		return domain.QuestionView{}, domain.ErrSessionNotFound
	}
	if err := session.Advance(); err != nil {
		return domain.QuestionView{}, err
	}
	return session.View(), nil
}

// Finish records a game that is over in the statistics and leaderboard and
// discards it. Games still in progress are rejected with ErrGameInProgress;
// leaving early goes through Quit.
func (s *QuizService) Finish(ctx context.Context, playerID string) (domain.SessionSummary, error) {
	session, ok := s.sessions.Get(playerID)
	if !ok {
		return domain.SessionSummary{}, domain.ErrSessionNotFound
	}
	return s.finish(ctx, playerID, session)
}

// Quit discards the player's game without recording it.
func (s *QuizService) Quit(playerID string) {
	s.sessions.Delete(playerID, "")
}

// Stats returns the statistics overview.
func (s *QuizService) Stats(ctx context.Context) (domain.StatsOverview, error) {
	rec, err := s.stats.Load(ctx)
	if err != nil {
		return domain.StatsOverview{}, err
	}
	return Overview(rec), nil
}

// Leaderboard returns both top lists.
func (s *QuizService) Leaderboard(ctx context.Context) (domain.LeaderboardRecord, error) {
	return s.leaderboard.Load(ctx)
}

// Reset clears statistics and leaderboard. Confirmation is the caller's job.
func (s *QuizService) Reset(ctx context.Context) error {
	s.recordsMu.Lock()
	defer s.recordsMu.Unlock()
	return s.stats.Reset(ctx)
}

func (s *QuizService) DarkMode(ctx context.Context) (bool, error) {
	return s.prefs.DarkMode(ctx)
}

func (s *QuizService) SetDarkMode(ctx context.Context, enabled bool) error {
	return s.prefs.SetDarkMode(ctx, enabled)
}

// SweepIdle drops games untouched for longer than maxIdle.
func (s *QuizService) SweepIdle(maxIdle time.Duration) int {
	return s.sessions.SweepIdle(s.now().Add(-maxIdle))
}

func (s *QuizService) recordStreak(ctx context.Context, streak int) error {
	s.recordsMu.Lock()
	defer s.recordsMu.Unlock()

	rec, err := s.stats.Load(ctx)
	if err != nil {
		return err
	}
	if streak <= rec.BestStreak {
		return nil
	}
	rec.BestStreak = streak
	return s.stats.Save(ctx, rec)
}

// scheduleFinish fires once. The callback only acts if the player's active
// game is still this session, so a restart during the delay is left alone.
func (s *QuizService) scheduleFinish(playerID string, session *Session) {
	time.AfterFunc(s.finishDelay, func() {
		current, ok := s.sessions.Get(playerID)
		if !ok || current.ID() != session.ID() {
			log.Debug().Str("player", playerID).Str("session", session.ID()).Msg("skipping finish of replaced session")
			return
		}
		summary, err := s.finish(context.Background(), playerID, session)
		if errors.Is(err, domain.ErrSessionFinished) {
			return
		}
		if err != nil {
			log.Error().Err(err).Str("player", playerID).Msg("finish endless game")
			return
		}
		session.publish(summary)
	})
}

func (s *QuizService) finish(ctx context.Context, playerID string, session *Session) (domain.SessionSummary, error) {
	if err := session.markFinished(); err != nil {
		return domain.SessionSummary{}, err
	}
	summary := session.Summary()

	s.recordsMu.Lock()
	defer s.recordsMu.Unlock()

	rec, err := s.stats.Load(ctx)
	if err != nil {
		return summary, err
	}
	rec = RecordGame(rec, summary.Region, summary.Correct, summary.Wrong)
	rec.CurrentStreak = session.Streak()
	if rec.CurrentStreak > rec.BestStreak {
		rec.BestStreak = rec.CurrentStreak
	}
	if err := s.stats.Save(ctx, rec); err != nil {
		return summary, err
	}

	board, err := s.leaderboard.Load(ctx)
	if err != nil {
		return summary, err
	}
	board = Insert(board, EntryFromSummary(summary, s.now().Format(time.DateOnly)), summary.Endless)
	if err := s.leaderboard.Save(ctx, board); err != nil {
		return summary, fmt.Errorf("record leaderboard: %w", err)
	}
	s.sessions.Delete(playerID, session.ID())

	log.Info().
		Str("session", session.ID()).
		Str("region", string(summary.Region)).
		Int("correct", summary.Correct).
		Int("wrong", summary.Wrong).
		Bool("endless", summary.Endless).
		Msg("game finished")
	return summary, nil
}
