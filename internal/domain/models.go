package domain

import (
	"strconv"
	"strings"
)

const (
	// OptionsPerQuestion is the number of choices shown for every question.
	OptionsPerQuestion = 4
	// MinPoolSize is the smallest region that can produce a question.
	MinPoolSize = OptionsPerQuestion
	// EndlessLives is the lives budget of an endless game.
	EndlessLives = 3
	// LeaderboardSize caps each leaderboard list.
	LeaderboardSize = 10

	flagCDN = "https://flagcdn.com/"
)

// Country is a catalog record.
type Country struct {
	Name      string `json:"name"`
	Continent Region `json:"continent"`
	Code      string `json:"code"`
}

// FlagURL resolves the country's flag image.
func (c Country) FlagURL() string {
	return flagCDN + c.Code + ".svg"
}

// GameMode selects what is shown and what is guessed.
type GameMode string

const (
	ModeFlagToName GameMode = "flag-to-name"
	ModeNameToFlag GameMode = "name-to-flag"
)

// ParseGameMode defaults an empty value to flag-to-name.
func ParseGameMode(raw string) (GameMode, error) {
	switch GameMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeFlagToName:
		return ModeFlagToName, nil
	case ModeNameToFlag:
		return ModeNameToFlag, nil
	}
	return "", ErrUnknownMode
}

// Label is the form stored on leaderboard entries.
func (m GameMode) Label() string {
	if m == ModeNameToFlag {
		return "Name → Flag"
	}
	return "Flag → Name"
}

// CountKind distinguishes fixed-size, whole-pool and endless games.
type CountKind int

const (
	CountFixed CountKind = iota
	CountAll
	CountEndless
)

// QuestionCount is the validated game length.
type QuestionCount struct {
	Kind  CountKind
	Value int
}

// Presets offered alongside custom, all and endless.
var QuestionCountPresets = []int{10, 20, 30}

// ParseQuestionCount validates raw against a pool of poolSize countries.
// Presets are clipped to the pool; custom values must lie in 1..poolSize.
func ParseQuestionCount(raw string, poolSize int) (QuestionCount, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case "all":
		return QuestionCount{Kind: CountAll, Value: poolSize}, nil
	case "endless":
		return QuestionCount{Kind: CountEndless, Value: poolSize}, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return QuestionCount{}, ErrInvalidQuestionCount
	}
	for _, preset := range QuestionCountPresets {
		if n == preset {
			return QuestionCount{Kind: CountFixed, Value: min(n, poolSize)}, nil
		}
	}
	if n > poolSize {
		return QuestionCount{}, ErrInvalidQuestionCount
	}
	return QuestionCount{Kind: CountFixed, Value: n}, nil
}

// Endless reports whether the game runs until lives are exhausted.
func (q QuestionCount) Endless() bool {
	return q.Kind == CountEndless
}

// Question is one multiple-choice round.
type Question struct {
	Correct Country   `json:"correct"`
	Options []Country `json:"options"`
}

// NextAction tells the presentation layer what the next button does.
type NextAction string

const (
	NextAdvance NextAction = "advance"
	NextResults NextAction = "results"
	NextNone    NextAction = "none"
)

// Outcome is the result of answering the current question.
type Outcome struct {
	Ignored    bool       `json:"ignored"`
	Correct    bool       `json:"correct"`
	Answer     string     `json:"answer"`
	Selected   string     `json:"selected"`
	Counters   Counters   `json:"counters"`
	Terminated bool       `json:"terminated"`
	Next       NextAction `json:"next"`
}

// Counters snapshot a session's progress.
type Counters struct {
	Correct int `json:"correct"`
	Wrong   int `json:"wrong"`
	Streak  int `json:"streak"`
	Lives   int `json:"lives"`
}

// SessionSummary is what survives a finished session.
type SessionSummary struct {
	Correct       int      `json:"correct"`
	Wrong         int      `json:"wrong"`
	TotalAnswered int      `json:"totalAnswered"`
	Total         int      `json:"total"`
	Percentage    int      `json:"percentage"`
	Region        Region   `json:"region"`
	Mode          GameMode `json:"mode"`
	Endless       bool     `json:"endless"`
	Message       string   `json:"message"`
}

// RegionStats are the per-region counters of a StatsRecord.
type RegionStats struct {
	GamesPlayed int `json:"gamesPlayed"`
	Correct     int `json:"correct"`
	Wrong       int `json:"wrong"`
}

// StatsRecord is the persisted aggregate of all finished games.
type StatsRecord struct {
	GamesPlayed   int                    `json:"gamesPlayed"`
	TotalCorrect  int                    `json:"totalCorrect"`
	TotalWrong    int                    `json:"totalWrong"`
	BestStreak    int                    `json:"bestStreak"`
	CurrentStreak int                    `json:"currentStreak"`
	Regions       map[Region]RegionStats `json:"regions"`
}

// LeaderboardEntry is one ranked game.
type LeaderboardEntry struct {
	Region     Region `json:"region"`
	Mode       string `json:"mode"`
	Score      int    `json:"score"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
	Date       string `json:"date"`
}

// LeaderboardRecord holds the two persisted top lists.
type LeaderboardRecord struct {
	Regular []LeaderboardEntry `json:"regular"`
	Endless []LeaderboardEntry `json:"endless"`
}

// RegionCount is a selectable region with the size of its pool.
type RegionCount struct {
	Region Region `json:"region"`
	Slug   string `json:"slug"`
	Count  int    `json:"count"`
}

// OptionView is one selectable answer as shown to a player.
type OptionView struct {
	Name    string `json:"name"`
	FlagURL string `json:"flagUrl"`
}

// QuestionView is the presentation-safe form of the current question.
// Prompt is a flag URL in flag-to-name mode and a country name otherwise.
type QuestionView struct {
	SessionID string       `json:"sessionId"`
	Number    int          `json:"number"`
	Total     int          `json:"total"`
	Region    Region       `json:"region"`
	Mode      GameMode     `json:"mode"`
	Endless   bool         `json:"endless"`
	Prompt    string       `json:"prompt"`
	Options   []OptionView `json:"options"`
	Answered  bool         `json:"answered"`
	Finished  bool         `json:"finished"`
	Counters  Counters     `json:"counters"`
}

// RegionAccuracy is one row of the statistics breakdown.
type RegionAccuracy struct {
	Region      Region `json:"region"`
	GamesPlayed int    `json:"gamesPlayed"`
	Correct     int    `json:"correct"`
	Wrong       int    `json:"wrong"`
	Accuracy    int    `json:"accuracy"`
}

// StatsOverview is the statistics screen: the raw record plus derived accuracy.
type StatsOverview struct {
	Record   StatsRecord      `json:"record"`
	Accuracy int              `json:"accuracy"`
	Regions  []RegionAccuracy `json:"regions"`
}
