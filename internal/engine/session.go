// internal/engine/session.go
//
// Multiplayer game session: the state machine driving registration, turns,
// cell selection, answer judging, open-floor escalation, and hand-off into
// the Final Round.
//
// Sessions hold no lock of their own. All mutation must happen under the
// owning room's single-writer discipline; the only concurrent entry point
// is TimeoutQuestion, which the dispatcher calls under the same room lock
// and which is fenced by the in-flight question's sequence token.

package engine

import (
	"crypto/rand"
	"math/big"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rdren0/literate-waddle/internal/match"
	"github.com/rdren0/literate-waddle/internal/trivia"
)

// State is the session lifecycle phase.
type State int

const (
	StateRegistering State = iota
	StateActive
	StateAnswering
	StateBoardComplete
	StateFinalBetting
	StateFinalAnswering
	StateFinalRevealed
	StateEnded
)

var stateNames = map[State]string{
	StateRegistering:    "registering",
	StateActive:         "active",
	StateAnswering:      "answering",
	StateBoardComplete:  "board-complete",
	StateFinalBetting:   "final-betting",
	StateFinalAnswering: "final-answering",
	StateFinalRevealed:  "final-revealed",
	StateEnded:          "ended",
}

func (s State) String() string { return stateNames[s] }

const (
	// minPlayers is 1: solo-able multiplayer matches the latest upstream
	// behavior. See DESIGN.md for the 1-vs-2 history.
	minPlayers      = 1
	maxOpenAttempts = 3
)

// bonusCell is the hidden daily-double location drawn at game start.
type bonusCell struct {
	category trivia.Category
	points   int
}

// activeQuestion is the single in-flight question plus its open-floor and
// timer bookkeeping. seq is the cancellation token: a timer expiry carrying
// a stale seq is ignored.
type activeQuestion struct {
	question     trivia.Question
	tierPoints   int
	actualPoints int
	dailyDouble  bool
	openFloor    bool
	openAttempts int
	seq          uint64
	timer        *time.Timer
}

// Session is one multiplayer game room's engine state.
type Session struct {
	bank  *trivia.Bank
	state State
	board *Board

	roster      map[string]*Player
	rosterOrder []string
	reg         *registry

	used   map[string]struct{}
	bonus  bonusCell
	active *activeQuestion
	seq    uint64
	final  *FinalRound

	startedAt time.Time
}

// NewSession opens a session in the Registering state with an empty roster.
func NewSession(bank *trivia.Bank) *Session {
	return &Session{
		bank:   bank,
		state:  StateRegistering,
		board:  NewBoard(),
		roster: make(map[string]*Player),
		used:   make(map[string]struct{}),
	}
}

// State returns the current lifecycle phase.
func (s *Session) State() State { return s.state }

// BoardSnapshot returns a read-only view of the grid.
func (s *Session) BoardSnapshot() BoardStatus { return s.board.Snapshot() }

// Leaderboard returns the top standings (score > 0, max 10).
func (s *Session) Leaderboard() []Standing {
	if s.reg == nil {
		return nil
	}
	return s.reg.standings()
}

// Register adds a player to the waiting roster. Only valid while
// registration is open; duplicates are rejected.
func (s *Session) Register(id, displayName string) (int, error) {
	if s.state != StateRegistering {
		return 0, ErrRegistrationClosed
	}
	if _, ok := s.roster[id]; ok {
		return 0, ErrAlreadyRegistered
	}
	if displayName == "" {
		displayName = id
	}
	s.roster[id] = &Player{ID: id, DisplayName: displayName}
	s.rosterOrder = append(s.rosterOrder, id)
	return len(s.rosterOrder), nil
}

// RegisteredPlayers returns the waiting roster in join order.
func (s *Session) RegisteredPlayers() []*Player {
	out := make([]*Player, 0, len(s.rosterOrder))
	for _, id := range s.rosterOrder {
		out = append(out, s.roster[id])
	}
	return out
}

// StartResult describes a freshly started game.
type StartResult struct {
	Players []*Player `json:"players"`
	First   *Player   `json:"first"`
}

// Start snapshots registrants into the active player set in join order
// (no shuffle), draws the hidden bonus cell, and activates the game.
func (s *Session) Start() (*StartResult, error) {
	if s.state != StateRegistering {
		return nil, ErrGameInProgress
	}
	if len(s.rosterOrder) < minPlayers {
		return nil, ErrInsufficientPlayers
	}

	s.reg = newRegistry(s.RegisteredPlayers())
	s.bonus = drawBonusCell()
	s.state = StateActive
	s.startedAt = time.Now()

	log.Info().
		Int("players", len(s.rosterOrder)).
		Str("bonusCategory", s.bonus.category.String()).
		Int("bonusPoints", s.bonus.points).
		Msg("game started")

	return &StartResult{Players: s.reg.inOrder(), First: s.reg.currentPlayer()}, nil
}

// drawBonusCell picks one category and one tier uniformly at random.
func drawBonusCell() bonusCell {
	return bonusCell{
		category: trivia.Category(randIndex(trivia.NumCategories) + 1),
		points:   trivia.PointValues[randIndex(len(trivia.PointValues))],
	}
}

// CurrentPlayer returns the holder of the turn, or nil before start.
func (s *Session) CurrentPlayer() *Player {
	if s.reg == nil {
		return nil
	}
	return s.reg.currentPlayer()
}

// RepairTurn re-derives the current player after suspected pointer
// corruption. Operator-facing self-heal; always safe to call mid-game.
func (s *Session) RepairTurn() *Player {
	if s.reg == nil {
		return nil
	}
	s.reg.clamp()
	return s.reg.currentPlayer()
}

// QuestionView is the plain-data question payload handed to rendering.
type QuestionView struct {
	Category    string `json:"category"`
	Prompt      string `json:"prompt"`
	Points      int    `json:"points"`
	TierPoints  int    `json:"tierPoints"`
	DailyDouble bool   `json:"dailyDouble"`
}

// QuestionResult is returned from a successful cell selection.
type QuestionResult struct {
	Question    QuestionView `json:"question"`
	DailyDouble bool         `json:"dailyDouble"`
	Seq         uint64       `json:"-"`
}

// SelectCell draws a question for the (category, points) cell. Only the
// current player may pick, only while no question is in flight.
func (s *Session) SelectCell(callerID string, categoryIdx, pointsIdx int) (*QuestionResult, error) {
	switch s.state {
	case StateAnswering:
		return nil, ErrQuestionInFlight
	case StateActive:
	default:
		return nil, ErrNoActiveGame
	}

	cur := s.reg.currentPlayer()
	if cur == nil || cur.ID != callerID {
		return nil, ErrNotYourTurn
	}

	if categoryIdx < 1 || categoryIdx > trivia.NumCategories ||
		pointsIdx < 1 || pointsIdx > len(trivia.PointValues) {
		return nil, ErrInvalidSelection
	}
	category := trivia.Category(categoryIdx)
	points := trivia.PointValues[pointsIdx-1]

	if err := s.board.Select(category, points); err != nil {
		return nil, err
	}

	q, ok := s.bank.RandomQuestionExcluding(category, points, s.used)
	if !ok {
		// Bucket exhausted within this session; fall back to any draw so a
		// thin dataset degrades to repeats instead of a dead cell.
		if q, ok = s.bank.RandomQuestion(category, points); !ok {
			return nil, ErrNoQuestionAvailable
		}
	}

	dailyDouble := s.bonus.category == category && s.bonus.points == points
	actual := points
	if dailyDouble {
		actual = points * 2
	}

	s.seq++
	s.active = &activeQuestion{
		question:     q,
		tierPoints:   points,
		actualPoints: actual,
		dailyDouble:  dailyDouble,
		seq:          s.seq,
	}
	s.used[q.Key()] = struct{}{}
	s.state = StateAnswering

	return &QuestionResult{
		Question: QuestionView{
			Category:    category.String(),
			Prompt:      q.Prompt,
			Points:      actual,
			TierPoints:  points,
			DailyDouble: dailyDouble,
		},
		DailyDouble: dailyDouble,
		Seq:         s.seq,
	}, nil
}

// ActiveSeq returns the in-flight question's cancellation token.
func (s *Session) ActiveSeq() (uint64, bool) {
	if s.active == nil {
		return 0, false
	}
	return s.active.seq, true
}

// SetQuestionTimer attaches the dispatcher-armed expiry timer to the
// in-flight question so any resolving transition can cancel it.
func (s *Session) SetQuestionTimer(t *time.Timer) {
	if s.active != nil {
		s.active.timer = t
	}
}

// clearQuestion resolves the in-flight question, cancelling its timer.
func (s *Session) clearQuestion() *activeQuestion {
	aq := s.active
	if aq != nil && aq.timer != nil {
		aq.timer.Stop()
	}
	s.active = nil
	return aq
}

// AnswerResult describes the outcome of one multiplayer submission.
type AnswerResult struct {
	Correct            bool    `json:"correct"`
	Points             int     `json:"points,omitempty"`
	Answer             string  `json:"answer,omitempty"`
	YourAnswer         string  `json:"yourAnswer,omitempty"`
	NewScore           int     `json:"newScore,omitempty"`
	Winner             *Player `json:"winner,omitempty"`
	OpenToAll          bool    `json:"openToAll,omitempty"`
	WasOpenFloor       bool    `json:"wasOpenFloor,omitempty"`
	AttemptsRemaining  int     `json:"attemptsRemaining,omitempty"`
	MaxAttemptsReached bool    `json:"maxAttemptsReached,omitempty"`
	TurnAdvanced       bool    `json:"turnAdvanced,omitempty"`
	NextPlayer         *Player `json:"nextPlayer,omitempty"`
	DailyDouble        bool    `json:"dailyDouble,omitempty"`
	BoardComplete      bool    `json:"boardComplete,omitempty"`
}

// SubmitAnswer judges a submission against the in-flight question and
// applies scoring, open-floor escalation, and turn advancement.
func (s *Session) SubmitAnswer(callerID, text string) (*AnswerResult, error) {
	if s.state != StateAnswering {
		if s.state == StateRegistering || s.state == StateEnded {
			return nil, ErrNoActiveGame
		}
		return nil, ErrNoQuestion
	}

	player, ok := s.reg.get(callerID)
	if !ok {
		return nil, ErrNotRegistered
	}

	aq := s.active
	cur := s.reg.currentPlayer()
	isCurrent := cur != nil && cur.ID == callerID

	if !isCurrent && !aq.openFloor {
		// Dispatcher suppresses this from chat output.
		return nil, ErrNotYourTurn
	}

	player.QuestionsAnswered++

	if match.IsCorrect(text, aq.question.Answer, aq.question.Keywords) {
		player.Score += aq.actualPoints
		player.CorrectAnswers++

		s.board.MarkCompleted(aq.question.Category, aq.tierPoints)
		resolved := s.clearQuestion()
		wasOpen := resolved.openFloor

		turnAdvanced := false
		if !isCurrent {
			// Open-floor win: turn passes to the player after the pre-open
			// current player, not to the answerer.
			s.reg.advance()
			turnAdvanced = true
		}

		s.state = StateActive
		boardComplete := s.board.IsFull()
		if boardComplete {
			s.state = StateBoardComplete
		}

		return &AnswerResult{
			Correct:       true,
			Points:        resolved.actualPoints,
			Answer:        resolved.question.Answer,
			NewScore:      player.Score,
			Winner:        player,
			WasOpenFloor:  wasOpen,
			TurnAdvanced:  turnAdvanced,
			NextPlayer:    s.reg.currentPlayer(),
			DailyDouble:   resolved.dailyDouble,
			BoardComplete: boardComplete,
		}, nil
	}

	// Incorrect.
	if isCurrent && !aq.openFloor {
		aq.openFloor = true
		return &AnswerResult{
			Correct:    false,
			YourAnswer: text,
			OpenToAll:  true,
		}, nil
	}

	aq.openAttempts++

	if aq.openAttempts >= maxOpenAttempts {
		s.board.MarkCompleted(aq.question.Category, aq.tierPoints)
		resolved := s.clearQuestion()
		s.reg.advance()
		s.state = StateActive
		boardComplete := s.board.IsFull()
		if boardComplete {
			s.state = StateBoardComplete
		}
		return &AnswerResult{
			Correct:            false,
			YourAnswer:         text,
			WasOpenFloor:       true,
			MaxAttemptsReached: true,
			Answer:             resolved.question.Answer,
			TurnAdvanced:       true,
			NextPlayer:         s.reg.currentPlayer(),
			BoardComplete:      boardComplete,
		}, nil
	}

	return &AnswerResult{
		Correct:           false,
		YourAnswer:        text,
		WasOpenFloor:      true,
		AttemptsRemaining: maxOpenAttempts - aq.openAttempts,
	}, nil
}

// TimeoutResult describes a question force-completed by its timer.
type TimeoutResult struct {
	Question      QuestionView `json:"question"`
	Answer        string       `json:"answer"`
	BoardComplete bool         `json:"boardComplete"`
}

// TimeoutQuestion force-completes the in-flight question as unawarded and
// reveals the answer. The seq token fences stale timers: expiry for an
// already-resolved question is a no-op.
func (s *Session) TimeoutQuestion(seq uint64) (*TimeoutResult, bool) {
	if s.state != StateAnswering || s.active == nil || s.active.seq != seq {
		return nil, false
	}

	aq := s.clearQuestion()
	s.board.MarkCompleted(aq.question.Category, aq.tierPoints)
	s.state = StateActive
	boardComplete := s.board.IsFull()
	if boardComplete {
		s.state = StateBoardComplete
	}

	return &TimeoutResult{
		Question: QuestionView{
			Category:    aq.question.Category.String(),
			Prompt:      aq.question.Prompt,
			Points:      aq.actualPoints,
			TierPoints:  aq.tierPoints,
			DailyDouble: aq.dailyDouble,
		},
		Answer:        aq.question.Answer,
		BoardComplete: boardComplete,
	}, true
}

// EndResult carries the frozen final standings.
type EndResult struct {
	Standings []Standing `json:"standings"`
}

// EndGame freezes scores and terminates the session. Valid while a game is
// underway or awaiting the Final Round.
func (s *Session) EndGame() (*EndResult, error) {
	switch s.state {
	case StateActive, StateAnswering, StateBoardComplete:
	default:
		return nil, ErrNoActiveGame
	}
	s.clearQuestion()
	s.state = StateEnded
	return &EndResult{Standings: s.reg.standings()}, nil
}

// Reset tears the session down from any state, synchronously invalidating
// any pending timer so a stale expiry cannot touch dead state.
func (s *Session) Reset() {
	s.clearQuestion()
	s.state = StateEnded
}

// randIndex draws a uniform int in [0, n) from crypto/rand.
func randIndex(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}
