// internal/solo/solo.go
//
// Single-player practice session: a fixed ramp of ten questions (two per
// point tier, shuffled), one attempt each, scored out of ten.

package solo

import (
	"crypto/rand"
	"errors"
	"math"
	"math/big"
	"time"

	"github.com/rdren0/literate-waddle/internal/match"
	"github.com/rdren0/literate-waddle/internal/trivia"
)

const rampPerTier = 2

var (
	ErrNoSession     = errors.New("no solo session in progress")
	ErrFinished      = errors.New("solo session already finished")
	ErrAlreadyActive = errors.New("you already have an active solo session")
)

// Session is one player's solo run. Not safe for concurrent use; the
// Manager serializes access.
type Session struct {
	UserID    string
	StartedAt time.Time

	questions  []trivia.Question
	index      int
	score      int
	lastActive time.Time
}

// NewSession builds a solo run from the bank: two questions per tier in
// ascending order, preferring unused categories per tier, backfilled from
// any category, then shuffled. A thin bank yields fewer than ten questions
// rather than failing.
func NewSession(bank *trivia.Bank, userID string) *Session {
	now := time.Now()
	return &Session{
		UserID:     userID,
		StartedAt:  now,
		lastActive: now,
		questions:  buildRamp(bank),
	}
}

func buildRamp(bank *trivia.Bank) []trivia.Question {
	used := make(map[string]struct{})
	var ramp []trivia.Question

	for _, pts := range trivia.PointValues {
		seenCats := make(map[trivia.Category]struct{})
		for i := 0; i < rampPerTier; i++ {
			q, ok := drawDistinct(bank, pts, used, seenCats)
			if !ok {
				// Backfill ignores the distinct-category preference.
				q, ok = bank.RandomQuestionAnyCategory(pts, used)
			}
			if !ok {
				continue
			}
			used[q.Key()] = struct{}{}
			seenCats[q.Category] = struct{}{}
			ramp = append(ramp, q)
		}
	}

	shuffle(ramp)
	return ramp
}

// drawDistinct tries each category not already used at this tier, in a
// shuffled order.
func drawDistinct(bank *trivia.Bank, pts int, used map[string]struct{}, seenCats map[trivia.Category]struct{}) (trivia.Question, bool) {
	for _, c := range trivia.ShuffledCategories() {
		if _, seen := seenCats[c]; seen {
			continue
		}
		if q, ok := bank.RandomQuestionExcluding(c, pts, used); ok {
			return q, true
		}
	}
	return trivia.Question{}, false
}

func shuffle(qs []trivia.Question) {
	for i := len(qs) - 1; i > 0; i-- {
		j := randIndex(i + 1)
		qs[i], qs[j] = qs[j], qs[i]
	}
}

// QuestionView is the current question as shown to the player.
type QuestionView struct {
	Number   int    `json:"number"`
	Total    int    `json:"total"`
	Category string `json:"category"`
	Prompt   string `json:"prompt"`
	Points   int    `json:"points"`
}

// Total returns the number of questions in the ramp.
func (s *Session) Total() int { return len(s.questions) }

// Score returns the running score.
func (s *Session) Score() int { return s.score }

// Done reports whether every question has been consumed.
func (s *Session) Done() bool { return s.index >= len(s.questions) }

// Current returns the question awaiting an answer.
func (s *Session) Current() (QuestionView, error) {
	if s.Done() {
		return QuestionView{}, ErrFinished
	}
	q := s.questions[s.index]
	return QuestionView{
		Number:   s.index + 1,
		Total:    len(s.questions),
		Category: q.Category.String(),
		Prompt:   q.Prompt,
		Points:   q.Points,
	}, nil
}

// Result is the outcome of one solo submission.
type Result struct {
	Correct    bool   `json:"correct"`
	Close      bool   `json:"close"`
	Answer     string `json:"answer"`
	YourAnswer string `json:"yourAnswer"`
	Score      int    `json:"score"`
	Number     int    `json:"number"`
	Total      int    `json:"total"`
	Done       bool   `json:"done"`
	Percentage int    `json:"percentage,omitempty"`
}

// Submit judges the current question. Exactly one attempt per question;
// the index always advances. Correct and near-miss answers each score one
// point (near-miss parity is long-standing behavior, kept as-is).
func (s *Session) Submit(text string) (*Result, error) {
	if s.Done() {
		return nil, ErrFinished
	}
	s.lastActive = time.Now()

	q := s.questions[s.index]
	s.index++

	res := &Result{
		Answer:     q.Answer,
		YourAnswer: text,
		Number:     s.index,
		Total:      len(s.questions),
	}
	switch {
	case match.IsCorrect(text, q.Answer, q.Keywords):
		res.Correct = true
		s.score++
	case match.IsClose(text, q.Answer, q.Keywords):
		res.Close = true
		s.score++
	}
	res.Score = s.score
	res.Done = s.Done()
	if res.Done {
		res.Percentage = int(math.Round(float64(s.score) / 10 * 100))
	}
	return res, nil
}

// idle reports whether the session has gone untouched for the cutoff.
func (s *Session) idle(cutoff time.Duration, now time.Time) bool {
	return now.Sub(s.lastActive) > cutoff
}

func randIndex(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}
