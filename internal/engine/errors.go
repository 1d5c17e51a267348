package engine

import "errors"

// Engine error taxonomy. All are recoverable values returned to the
// dispatcher, never panics; the dispatcher decides what is surfaced.
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrInvalidSelection    = errors.New("invalid category or points selection")
	ErrAlreadyCompleted    = errors.New("this question has already been answered")
	ErrNotYourTurn         = errors.New("not your turn")
	ErrNoActiveGame        = errors.New("no active game")
	ErrGameInProgress      = errors.New("a game is already running or waiting for players")
	ErrRegistrationClosed  = errors.New("no game is currently accepting registrations")
	ErrAlreadyRegistered   = errors.New("already registered for this game")
	ErrNotRegistered       = errors.New("not registered for this game")
	ErrInsufficientPlayers = errors.New("not enough players to start")
	ErrNoQuestion          = errors.New("no question is currently being answered")
	ErrQuestionInFlight    = errors.New("a question is already in play")
	ErrNoQuestionAvailable = errors.New("no questions available")
	ErrAlreadyAnswered     = errors.New("already answered")
	ErrBetOutOfRange       = errors.New("bet out of range")
	ErrFinalNotReady       = errors.New("final round is not available yet")
)
