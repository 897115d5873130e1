package app

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"flag-quiz-service/internal/domain"
)

const distractorsPerQuestion = domain.OptionsPerQuestion - 1

// BuildQueue shuffles pool and turns the first count countries into questions.
// Distractors come from pool, or from catalog when pool is too small.
func BuildQueue(rnd *rand.Rand, pool, catalog []domain.Country, count int) []domain.Question {
	order := shuffled(rnd, pool)
	n := min(count, len(order))
	queue := make([]domain.Question, 0, n)
	for _, correct := range order[:n] {
		queue = append(queue, buildQuestion(rnd, correct, pool, catalog))
	}
	return queue
}

func buildQuestion(rnd *rand.Rand, correct domain.Country, pool, catalog []domain.Country) domain.Question {
	candidates := excluding(pool, correct.Name)
	if len(candidates) < distractorsPerQuestion {
		candidates = excluding(catalog, correct.Name)
	}
	rnd.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	options := make([]domain.Country, 0, domain.OptionsPerQuestion)
	options = append(options, correct)
	options = append(options, candidates[:min(distractorsPerQuestion, len(candidates))]...)
	rnd.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return domain.Question{Correct: correct, Options: options}
}

func shuffled(rnd *rand.Rand, countries []domain.Country) []domain.Country {
	out := make([]domain.Country, len(countries))
	copy(out, countries)
	rnd.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

func excluding(countries []domain.Country, name string) []domain.Country {
	out := make([]domain.Country, 0, len(countries))
	for _, c := range countries {
		if c.Name != name {
			out = append(out, c)
		}
	}
	return out
}

// SessionConfig carries everything a new game needs.
type SessionConfig struct {
	ID      string
	Region  domain.Region
	Mode    domain.GameMode
	Count   domain.QuestionCount
	Pool    []domain.Country
	Catalog []domain.Country
	Rand    *rand.Rand
	Now     func() time.Time
}

// Session is one game in progress. The mutex covers the player's input
// goroutine and the delayed-finish timer.
type Session struct {
	mu sync.Mutex

	id      string
	region  domain.Region
	mode    domain.GameMode
	count   domain.QuestionCount
	pool    []domain.Country
	catalog []domain.Country
	rnd     *rand.Rand
	now     func() time.Time

	queue    []domain.Question
	current  int
	correct  int
	wrong    int
	streak   int
	lives    int
	answered bool
	finished bool

	lastActive time.Time
	results    chan domain.SessionSummary
}

// NewSession builds the question queue and returns a session at question one.
func NewSession(cfg SessionConfig) *Session {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	rnd := cfg.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(now().UnixNano()))
	}
	s := &Session{
		id:         cfg.ID,
		region:     cfg.Region,
		mode:       cfg.Mode,
		count:      cfg.Count,
		pool:       cfg.Pool,
		catalog:    cfg.Catalog,
		rnd:        rnd,
		now:        now,
		lastActive: now(),
		results:    make(chan domain.SessionSummary, 1),
	}
	if s.count.Endless() {
		s.lives = domain.EndlessLives
	}
	s.queue = BuildQueue(rnd, s.pool, s.catalog, s.targetLocked())
	return s
}

// ID identifies this game; a new game for the same player gets a new ID.
func (s *Session) ID() string {
	return s.id
}

// Results delivers the summary of a game finished by the service in the background.
func (s *Session) Results() <-chan domain.SessionSummary {
	return s.results
}

// Answer scores selectedName against the current question. Repeated answers
// to the same question are ignored and leave every counter unchanged.
func (s *Session) Answer(selectedName string) domain.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.now()

	question := s.queue[s.current]
	if s.answered || s.finished {
		return domain.Outcome{
			Ignored:    true,
			Answer:     question.Correct.Name,
			Selected:   selectedName,
			Counters:   s.countersLocked(),
			Terminated: s.terminatedLocked(),
			Next:       s.nextLocked(),
		}
	}
	s.answered = true

	isCorrect := selectedName == question.Correct.Name
	if isCorrect {
		s.correct++
		s.streak++
	} else {
		s.wrong++
		s.streak = 0
		if s.count.Endless() && s.lives > 0 {
			s.lives--
		}
	}

	return domain.Outcome{
		Correct:    isCorrect,
		Answer:     question.Correct.Name,
		Selected:   selectedName,
		Counters:   s.countersLocked(),
		Terminated: s.terminatedLocked(),
		Next:       s.nextLocked(),
	}
}

// Advance moves to the next question, topping up an endless queue with a
// fresh pass over the pool when it runs low.
func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.now()

	switch {
	case s.finished:
		return domain.ErrSessionFinished
	case !s.answered:
		return domain.ErrNotAnswered
	case s.nextLocked() != domain.NextAdvance:
		return domain.ErrQuizComplete
	}

	s.current++
	s.answered = false
	if s.count.Endless() && s.current >= len(s.queue)-2 {
		s.queue = append(s.queue, BuildQueue(s.rnd, s.pool, s.catalog, len(s.pool))...)
	}
	return nil
}

// View renders the current question without revealing the answer.
func (s *Session) View() domain.QuestionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	question := s.queue[s.current]
	view := domain.QuestionView{
		SessionID: s.id,
		Number:    s.current + 1,
		Region:    s.region,
		Mode:      s.mode,
		Endless:   s.count.Endless(),
		Answered:  s.answered,
		Finished:  s.finished,
		Counters:  s.countersLocked(),
		Options:   make([]domain.OptionView, 0, len(question.Options)),
	}
	if !view.Endless {
		view.Total = s.targetLocked()
	}
	if s.mode == domain.ModeNameToFlag {
		view.Prompt = question.Correct.Name
	} else {
		view.Prompt = question.Correct.FlagURL()
	}
	for _, option := range question.Options {
		view.Options = append(view.Options, domain.OptionView{Name: option.Name, FlagURL: option.FlagURL()})
	}
	return view
}

// Summary computes the end-of-game figures. It does not persist anything.
func (s *Session) Summary() domain.SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	answered := s.correct + s.wrong
	summary := domain.SessionSummary{
		Correct:       s.correct,
		Wrong:         s.wrong,
		TotalAnswered: answered,
		Total:         s.targetLocked(),
		Percentage:    Percentage(s.correct, answered),
		Region:        s.region,
		Mode:          s.mode,
		Endless:       s.count.Endless(),
	}
	if summary.Endless {
		summary.Total = answered
	}
	summary.Message = ResultMessage(summary)
	return summary
}

// Streak is the current run of correct answers.
func (s *Session) Streak() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streak
}

// LastActive is the time of the latest answer or advance.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// markFinished latches a game that is over: a bounded game with its last
// question answered, or an endless game out of lives. Only the first caller
// succeeds.
func (s *Session) markFinished() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.finished:
		return domain.ErrSessionFinished
	case !s.terminatedLocked() && s.nextLocked() != domain.NextResults:
		return domain.ErrGameInProgress
	}
	s.finished = true
	return nil
}

func (s *Session) publish(summary domain.SessionSummary) {
	select {
	case s.results <- summary:
	default:
	}
}

func (s *Session) targetLocked() int {
	if s.count.Kind == domain.CountFixed {
		return min(s.count.Value, len(s.pool))
	}
	return len(s.pool)
}

func (s *Session) terminatedLocked() bool {
	return s.count.Endless() && s.lives == 0
}

func (s *Session) nextLocked() domain.NextAction {
	switch {
	case !s.answered:
		return domain.NextNone
	case s.terminatedLocked():
		return domain.NextNone
	case !s.count.Endless() && s.current+1 >= len(s.queue):
		return domain.NextResults
	}
	return domain.NextAdvance
}

func (s *Session) countersLocked() domain.Counters {
	return domain.Counters{
		Correct: s.correct,
		Wrong:   s.wrong,
		Streak:  s.streak,
		Lives:   s.lives,
	}
}

// Percentage is round(100*correct/answered), or 0 when nothing was answered.
func Percentage(correct, answered int) int {
	if answered <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(answered)))
}

// ResultMessage picks the closing line shown with a summary.
func ResultMessage(summary domain.SessionSummary) string {
	if summary.Endless {
		switch {
		case summary.Correct >= 50:
			return "Incredible! You're a true flag expert!"
		case summary.Correct >= 30:
			return "Amazing streak! Great knowledge!"
		case summary.Correct >= 20:
			return "Good run! Keep practicing!"
		case summary.Correct >= 10:
			return "Nice try! Study more flags!"
		}
		return "Keep learning! You'll improve!"
	}
	switch {
	case summary.Percentage == 100:
		return "Perfect! You're a flag master!"
	case summary.Percentage >= 80:
		return "Excellent! Great knowledge of flags!"
	case summary.Percentage >= 60:
		return "Good job! Keep practicing!"
	case summary.Percentage >= 40:
		return "Not bad! Study more flags!"
	}
	return "Keep learning! You'll improve!"
}
