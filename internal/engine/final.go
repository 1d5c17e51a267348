// internal/engine/final.go
//
// Final Round: a single high-stakes betting question played after the board
// is cleared. Every player wagers between 0 and their current score, then
// answers once; the reveal applies each bet as a gain or loss.

package engine

import (
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/rdren0/literate-waddle/internal/match"
	"github.com/rdren0/literate-waddle/internal/trivia"
)

// FinalRound is the sub-state machine for the end-of-game betting question.
type FinalRound struct {
	question trivia.Question
	bets     map[string]int
	answers  map[string]finalAnswer
}

type finalAnswer struct {
	text    string
	correct bool
}

// FinalPrompt is the payload announcing the Final Round question.
type FinalPrompt struct {
	Category string `json:"category"`
	Prompt   string `json:"prompt"`
}

// StartFinal transitions from BoardComplete into the betting phase, drawing
// an unused top-tier question (falling back to a repeat if the bank is thin).
func (s *Session) StartFinal() (*FinalPrompt, error) {
	if s.state != StateBoardComplete {
		return nil, ErrFinalNotReady
	}

	top := trivia.PointValues[len(trivia.PointValues)-1]
	q, ok := s.bank.RandomQuestionAnyCategory(top, s.used)
	if !ok {
		q, ok = s.bank.RandomQuestionAnyCategory(top, nil)
	}
	if !ok {
		return nil, ErrNoQuestionAvailable
	}
	s.used[q.Key()] = struct{}{}

	s.final = &FinalRound{
		question: q,
		bets:     make(map[string]int),
		answers:  make(map[string]finalAnswer),
	}
	s.state = StateFinalBetting

	log.Info().Str("category", q.Category.String()).Msg("final round started")
	return &FinalPrompt{Category: q.Category.String(), Prompt: q.Prompt}, nil
}

// BetResult reports one accepted wager and how many are still outstanding.
type BetResult struct {
	Amount    int  `json:"amount"`
	Remaining int  `json:"remaining"`
	AllPlaced bool `json:"allPlaced"`
}

// PlaceBet records a wager in [0, score]. Once every player has bet, the
// round moves to the answering phase.
func (s *Session) PlaceBet(callerID string, amount int) (*BetResult, error) {
	if s.state != StateFinalBetting {
		return nil, ErrFinalNotReady
	}
	player, ok := s.reg.get(callerID)
	if !ok {
		return nil, ErrNotRegistered
	}
	if _, placed := s.final.bets[callerID]; placed {
		return nil, ErrAlreadyAnswered
	}
	ceiling := player.Score
	if ceiling < 0 {
		ceiling = 0
	}
	if amount < 0 || amount > ceiling {
		return nil, ErrBetOutOfRange
	}

	s.final.bets[callerID] = amount
	remaining := len(s.reg.order) - len(s.final.bets)
	if remaining == 0 {
		s.state = StateFinalAnswering
	}
	return &BetResult{Amount: amount, Remaining: remaining, AllPlaced: remaining == 0}, nil
}

// FinalAnswerResult reports a recorded final answer; correctness stays
// hidden until the reveal.
type FinalAnswerResult struct {
	Remaining   int  `json:"remaining"`
	AllAnswered bool `json:"allAnswered"`
}

// SubmitFinalAnswer records one answer per player, judged immediately but
// revealed only when everyone has answered.
func (s *Session) SubmitFinalAnswer(callerID, text string) (*FinalAnswerResult, error) {
	if s.state != StateFinalAnswering {
		return nil, ErrFinalNotReady
	}
	if _, ok := s.reg.get(callerID); !ok {
		return nil, ErrNotRegistered
	}
	if _, answered := s.final.answers[callerID]; answered {
		return nil, ErrAlreadyAnswered
	}

	s.final.answers[callerID] = finalAnswer{
		text:    text,
		correct: match.IsCorrect(text, s.final.question.Answer, s.final.question.Keywords),
	}
	remaining := len(s.reg.order) - len(s.final.answers)
	return &FinalAnswerResult{Remaining: remaining, AllAnswered: remaining == 0}, nil
}

// FinalOutcome is one player's line in the reveal.
type FinalOutcome struct {
	Player   *Player `json:"player"`
	Bet      int     `json:"bet"`
	Answer   string  `json:"answer"`
	Correct  bool    `json:"correct"`
	Delta    int     `json:"delta"`
	NewScore int     `json:"newScore"`
}

// FinalReveal is the full Final Round resolution.
type FinalReveal struct {
	Answer    string         `json:"answer"`
	Outcomes  []FinalOutcome `json:"outcomes"`
	Standings []Standing     `json:"standings"`
}

// RevealFinal resolves the round once every player has answered, applying
// each bet as +bet on a correct answer and -bet otherwise.
func (s *Session) RevealFinal() (*FinalReveal, error) {
	if s.state != StateFinalAnswering {
		return nil, ErrFinalNotReady
	}
	if len(s.final.answers) < len(s.reg.order) {
		return nil, ErrFinalNotReady
	}

	outcomes := lo.Map(s.reg.inOrder(), func(p *Player, _ int) FinalOutcome {
		ans := s.final.answers[p.ID]
		delta := s.final.bets[p.ID]
		if !ans.correct {
			delta = -delta
		}
		p.Score += delta
		return FinalOutcome{
			Player:   p,
			Bet:      s.final.bets[p.ID],
			Answer:   ans.text,
			Correct:  ans.correct,
			Delta:    delta,
			NewScore: p.Score,
		}
	})

	s.state = StateFinalRevealed
	return &FinalReveal{
		Answer:    s.final.question.Answer,
		Outcomes:  outcomes,
		Standings: s.reg.standings(),
	}, nil
}

// FinalStandings returns the post-reveal standings so callers can close out
// the game after the reveal.
func (s *Session) FinalStandings() ([]Standing, error) {
	if s.state != StateFinalRevealed {
		return nil, ErrFinalNotReady
	}
	return s.reg.standings(), nil
}
