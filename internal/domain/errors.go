package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a player has no active game.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionFinished is returned when a finished game receives further input.
	ErrSessionFinished = errors.New("quiz session already finished")
	// ErrGameInProgress rejects recording a game that has not reached its end.
	ErrGameInProgress = errors.New("game still in progress")
	// ErrNotAnswered indicates an advance before the current question was answered.
	ErrNotAnswered = errors.New("current question not answered")
	// ErrQuizComplete indicates an advance past the last question of a bounded game.
	ErrQuizComplete = errors.New("no more questions")
	// ErrNotEnoughCountries rejects regions with fewer than MinPoolSize countries.
	ErrNotEnoughCountries = errors.New("not enough countries in this region")
	// ErrInvalidQuestionCount rejects non-numeric or out-of-range question counts.
	ErrInvalidQuestionCount = errors.New("invalid question count")
	// ErrUnknownRegion indicates a region name or slug outside the fixed set.
	ErrUnknownRegion = errors.New("unknown region")
	// ErrUnknownMode indicates a game mode other than flag-to-name or name-to-flag.
	ErrUnknownMode = errors.New("unknown game mode")
	// ErrDuplicateCountry is returned when a catalog lists the same name twice.
	ErrDuplicateCountry = errors.New("duplicate country name")
	// ErrCatalogNotFound indicates the catalog source could not be loaded.
	ErrCatalogNotFound = errors.New("catalog not found")
)
