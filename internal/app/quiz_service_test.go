package app_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"flag-quiz-service/internal/app"
	"flag-quiz-service/internal/catalog"
	"flag-quiz-service/internal/domain"
	"flag-quiz-service/internal/infra/memory"
)

func TestStartValidatesSelection(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t, time.Millisecond, fixedClock)

	cases := []struct {
		req  app.StartRequest
		want error
	}{
		{app.StartRequest{Region: "Atlantis", Count: "10"}, domain.ErrUnknownRegion},
		{app.StartRequest{Region: "Antarctica", Count: "10"}, domain.ErrUnknownRegion},
		{app.StartRequest{Region: "Oceania", Count: "10"}, domain.ErrNotEnoughCountries},
		{app.StartRequest{Region: "Europe", Count: "5"}, domain.ErrInvalidQuestionCount},
		{app.StartRequest{Region: "Europe", Count: "0"}, domain.ErrInvalidQuestionCount},
		{app.StartRequest{Region: "Europe", Mode: "sideways", Count: "all"}, domain.ErrUnknownMode},
	}
	for _, tc := range cases {
		if _, err := service.Start(ctx, "p1", tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("Start(%+v) error = %v, want %v", tc.req, err, tc.want)
		}
	}
	if _, err := service.Current("p1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("rejected selection must not create a session, got %v", err)
	}
}

func TestPresetIsClippedAndGameEnds(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t, time.Millisecond, fixedClock)

	view, err := service.Start(ctx, "p1", app.StartRequest{Region: "africa", Mode: "name-to-flag", Count: "10"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if view.Total != 10 {
		t.Fatalf("expected 10 questions from a pool of 19, got %d", view.Total)
	}

	for i := 1; i <= 10; i++ {
		out, err := service.Answer(ctx, "p1", view.Prompt)
		if err != nil || !out.Correct {
			t.Fatalf("answer %d: %+v %v", i, out, err)
		}
		if i == 10 {
			break
		}
		if view, err = service.Next(ctx, "p1"); err != nil {
			t.Fatalf("next: %v", err)
		}
	}
	if _, err := service.Next(ctx, "p1"); !errors.Is(err, domain.ErrQuizComplete) {
		t.Fatalf("expected ErrQuizComplete, got %v", err)
	}
}

func TestBestStreakPersistsImmediately(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t, time.Millisecond, fixedClock)

	view := mustStart(t, service, "p1", "3")
	for i := 0; i < 2; i++ {
		if _, err := service.Answer(ctx, "p1", view.Prompt); err != nil {
			t.Fatalf("answer: %v", err)
		}
		view, _ = service.Next(ctx, "p1")
	}

	stats, err := service.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Record.BestStreak != 2 || stats.Record.GamesPlayed != 0 {
		t.Fatalf("expected best streak 2 before finishing, got %+v", stats.Record)
	}

	view = mustStart(t, service, "p1", "1")
	if _, err := service.Answer(ctx, "p1", wrongOption(view)); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if _, err := service.Finish(ctx, "p1"); err != nil {
		t.Fatalf("finish: %v", err)
	}
	stats, _ = service.Stats(ctx)
	if stats.Record.BestStreak != 2 || stats.Record.CurrentStreak != 0 {
		t.Fatalf("best streak must not decrease: %+v", stats.Record)
	}
}

func TestFinishRejectsGameInProgress(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t, time.Millisecond, fixedClock)

	view := mustStart(t, service, "p1", "all")
	if _, err := service.Answer(ctx, "p1", view.Prompt); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if _, err := service.Finish(ctx, "p1"); !errors.Is(err, domain.ErrGameInProgress) {
		t.Fatalf("bounded game: expected ErrGameInProgress, got %v", err)
	}

	mustStart(t, service, "p2", "endless")
	if _, err := service.Finish(ctx, "p2"); !errors.Is(err, domain.ErrGameInProgress) {
		t.Fatalf("endless game: expected ErrGameInProgress, got %v", err)
	}

	stats, _ := service.Stats(ctx)
	board, _ := service.Leaderboard(ctx)
	if stats.Record.GamesPlayed != 0 || len(board.Regular) != 0 || len(board.Endless) != 0 {
		t.Fatalf("unfinished games must not be recorded: %+v %+v", stats.Record, board)
	}
	if current, err := service.Current("p1"); err != nil || current.Finished {
		t.Fatalf("rejected finish must leave the game playable: %+v %v", current, err)
	}
}

func TestFinishRecordsExactlyOnce(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t, time.Millisecond, fixedClock)

	view := mustStart(t, service, "p1", "all")
	playThrough(t, service, "p1", view)

	summary, err := service.Finish(ctx, "p1")
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if summary.Correct != 4 || summary.Total != 4 || summary.Percentage != 100 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if _, err := service.Current("p1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("finished game must be discarded, got %v", err)
	}
	if _, err := service.Finish(ctx, "p1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on second finish, got %v", err)
	}

	stats, _ := service.Stats(ctx)
	if stats.Record.GamesPlayed != 1 || stats.Record.Regions[domain.RegionEurope].GamesPlayed != 1 {
		t.Fatalf("expected one recorded game, got %+v", stats.Record)
	}
	board, _ := service.Leaderboard(ctx)
	if len(board.Regular) != 1 || board.Regular[0].Date != "2024-05-01" || board.Regular[0].Total != 4 {
		t.Fatalf("unexpected leaderboard %+v", board.Regular)
	}
}

func TestEndlessFinishesAfterDelay(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t, 5*time.Millisecond, fixedClock)

	view := mustStart(t, service, "p1", "endless")
	session, err := service.Session("p1")
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	loseAllLives(t, service, view)

	select {
	case summary := <-session.Results():
		if !summary.Endless || summary.Wrong != 3 || summary.Total != 3 {
			t.Fatalf("unexpected summary %+v", summary)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for endless results")
	}

	board, _ := service.Leaderboard(ctx)
	if len(board.Endless) != 1 || len(board.Regular) != 0 {
		t.Fatalf("expected one endless entry, got %+v", board)
	}
	if _, err := service.Current("p1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("finished endless game must be discarded, got %v", err)
	}
}

func TestEndlessFinishDuringDelayRecordsOnce(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t, 50*time.Millisecond, fixedClock)

	view := mustStart(t, service, "p1", "endless")
	session, _ := service.Session("p1")
	loseAllLives(t, service, view)

	if _, err := service.Finish(ctx, "p1"); err != nil {
		t.Fatalf("finish during delay: %v", err)
	}
	time.Sleep(200 * time.Millisecond)

	select {
	case summary := <-session.Results():
		t.Fatalf("game finished by the player must not publish again: %+v", summary)
	default:
	}
	stats, _ := service.Stats(ctx)
	board, _ := service.Leaderboard(ctx)
	if stats.Record.GamesPlayed != 1 || len(board.Endless) != 1 {
		t.Fatalf("expected exactly one recorded game, got %+v %+v", stats.Record, board)
	}
}

func TestDelayedFinishSkipsReplacedSession(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t, 50*time.Millisecond, fixedClock)

	view := mustStart(t, service, "p1", "endless")
	old, _ := service.Session("p1")
	loseAllLives(t, service, view)

	mustStart(t, service, "p1", "10")
	time.Sleep(200 * time.Millisecond)

	select {
	case summary := <-old.Results():
		t.Fatalf("replaced session must not publish results: %+v", summary)
	default:
	}
	stats, _ := service.Stats(ctx)
	if stats.Record.GamesPlayed != 0 {
		t.Fatalf("replaced session must not be recorded, got %+v", stats.Record)
	}
}

func TestAnswerAcceptsTypedNames(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t, time.Millisecond, fixedClock)

	view := mustStart(t, service, "p1", "all")
	out, err := service.Answer(ctx, "p1", "  "+strings.ToUpper(view.Prompt)+" ")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if !out.Correct || out.Selected != view.Prompt {
		t.Fatalf("expected typed name resolved to %q, got %+v", view.Prompt, out)
	}
	if _, ok := service.Resolve(ctx, "Atlantis"); ok {
		t.Fatalf("unknown country must not resolve")
	}
}

func TestQuitDiscardsGame(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t, time.Millisecond, fixedClock)

	view := mustStart(t, service, "p1", "10")
	_, _ = service.Answer(ctx, "p1", view.Prompt)
	service.Quit("p1")

	if _, err := service.Current("p1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	stats, _ := service.Stats(ctx)
	if stats.Record.GamesPlayed != 0 {
		t.Fatalf("quit must not record a game")
	}
}

func TestResetAndDarkMode(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t, time.Millisecond, fixedClock)

	view := mustStart(t, service, "p1", "1")
	playThrough(t, service, "p1", view)
	if _, err := service.Finish(ctx, "p1"); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if err := service.SetDarkMode(ctx, true); err != nil {
		t.Fatalf("set dark mode: %v", err)
	}
	if err := service.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	stats, _ := service.Stats(ctx)
	board, _ := service.Leaderboard(ctx)
	if stats.Record.GamesPlayed != 0 || len(board.Regular) != 0 {
		t.Fatalf("reset left data behind: %+v %+v", stats.Record, board)
	}
	if on, _ := service.DarkMode(ctx); !on {
		t.Fatalf("reset must keep the dark mode preference")
	}
}

func TestSweepIdle(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	service := newTestService(t, time.Millisecond, clock)

	mustStart(t, service, "p1", "10")
	now = now.Add(time.Hour)
	mustStart(t, service, "p2", "10")

	if removed := service.SweepIdle(30 * time.Minute); removed != 1 {
		t.Fatalf("expected one idle game removed, got %d", removed)
	}
	if _, err := service.Current("p1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected p1 swept")
	}
	if _, err := service.Current("p2"); err != nil {
		t.Fatalf("expected p2 kept: %v", err)
	}
}

func fixedClock() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func newTestService(t *testing.T, finishDelay time.Duration, clock func() time.Time) *app.QuizService {
	t.Helper()
	var countries []domain.Country
	for i := 0; i < 19; i++ {
		countries = append(countries, domain.Country{Name: fmt.Sprintf("Africa %d", i), Continent: domain.RegionAfrica, Code: fmt.Sprintf("a%d", i)})
	}
	countries = append(countries,
		domain.Country{Name: "France", Continent: domain.RegionEurope, Code: "fr"},
		domain.Country{Name: "Germany", Continent: domain.RegionEurope, Code: "de"},
		domain.Country{Name: "Italy", Continent: domain.RegionEurope, Code: "it"},
		domain.Country{Name: "Spain", Continent: domain.RegionEurope, Code: "es"},
		domain.Country{Name: "Fiji", Continent: domain.RegionOceania, Code: "fj"},
		domain.Country{Name: "Samoa", Continent: domain.RegionOceania, Code: "ws"},
		domain.Country{Name: "Antarctica", Continent: domain.RegionAntarctica, Code: "aq"},
	)
	c, err := catalog.New(countries)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}

	return app.NewQuizService(
		memory.NewSessionStore(),
		memory.NewCatalogRepository(memory.NewStaticCatalogLoader(c), time.Minute),
		memory.NewKVStore(),
		"",
		app.WithFinishDelay(finishDelay),
		app.WithClock(clock),
		app.WithRandSource(func() *rand.Rand { return rand.New(rand.NewSource(5)) }),
	)
}

// mustStart begins a name-to-flag game in Europe, where the prompt is the answer.
func mustStart(t *testing.T, service *app.QuizService, playerID, count string) domain.QuestionView {
	t.Helper()
	view, err := service.Start(context.Background(), playerID, app.StartRequest{Region: "Europe", Mode: "name-to-flag", Count: count})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return view
}

// playThrough answers every question of a bounded game correctly.
func playThrough(t *testing.T, service *app.QuizService, playerID string, view domain.QuestionView) {
	t.Helper()
	ctx := context.Background()
	for {
		out, err := service.Answer(ctx, playerID, view.Prompt)
		if err != nil || !out.Correct {
			t.Fatalf("answer: %+v %v", out, err)
		}
		if out.Next == domain.NextResults {
			return
		}
		if view, err = service.Next(ctx, playerID); err != nil {
			t.Fatalf("next: %v", err)
		}
	}
}

func loseAllLives(t *testing.T, service *app.QuizService, view domain.QuestionView) {
	t.Helper()
	ctx := context.Background()
	for life := domain.EndlessLives; life > 0; life-- {
		out, err := service.Answer(ctx, "p1", wrongOption(view))
		if err != nil {
			t.Fatalf("answer: %v", err)
		}
		if life == 1 {
			if !out.Terminated {
				t.Fatalf("expected termination, got %+v", out)
			}
			return
		}
		if view, err = service.Next(ctx, "p1"); err != nil {
			t.Fatalf("next: %v", err)
		}
	}
}

func wrongOption(view domain.QuestionView) string {
	for _, o := range view.Options {
		if o.Name != view.Prompt {
			return o.Name
		}
	}
	return ""
}
