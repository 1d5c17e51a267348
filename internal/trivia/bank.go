// internal/trivia/bank.go
//
// In-memory question bank for the trivia engine.
//
// Responsibilities:
//   - Load the question dataset from an environment-provided file or fall
//     back to the embedded default.
//   - Bucket raw questions into 6 categories x 5 point tiers by even
//     index-range slicing at load time (not randomized).
//   - Supply random draws per bucket, with an optional used-set to prevent
//     repeats within a session.
//
// A bucket that is exhausted (or was never populated) yields ok=false;
// callers degrade question count rather than fail. A malformed or missing
// dataset degrades to an empty bank so the engine stays queryable.
//
// Environment variables:
//   TRIVIA_DATA_FILE=/path/to/questions.json

package trivia

import (
	"crypto/rand"
	_ "embed"
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

//go:embed data/questions.json
var embeddedQuestions []byte

// Category is a 1-based index into the fixed category list.
type Category int

const (
	SpellsAndMagic Category = iota + 1
	HogwartsHistory
	MagicalCreatures
	Potions
	DefenseAgainstDarkArts
	WizardingWorld

	NumCategories = 6
)

var categoryNames = [NumCategories]string{
	"SPELLS & MAGIC",
	"HOGWARTS HISTORY",
	"MAGICAL CREATURES",
	"POTIONS",
	"DEFENSE AGAINST DARK ARTS",
	"WIZARDING WORLD",
}

// PointValues lists the five difficulty tiers in ascending order.
var PointValues = [5]int{100, 200, 300, 400, 500}

// Valid reports whether c is one of the six fixed categories.
func (c Category) Valid() bool { return c >= 1 && c <= NumCategories }

func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c-1]
}

// Categories returns all six categories in display order.
func Categories() []Category {
	out := make([]Category, NumCategories)
	for i := range out {
		out[i] = Category(i + 1)
	}
	return out
}

// ValidPoints reports whether pts is one of the five tier values.
func ValidPoints(pts int) bool {
	return lo.Contains(PointValues[:], pts)
}

// Question is one immutable trivia question.
type Question struct {
	Category Category `json:"category"`
	Points   int      `json:"points"`
	Prompt   string   `json:"prompt"`
	Answer   string   `json:"answer"`
	Keywords []string `json:"keywords,omitempty"`
}

// Key is the used-set identity for a question: (category, points, prompt).
func (q Question) Key() string {
	return fmt.Sprintf("%d-%d-%s", q.Category, q.Points, q.Prompt)
}

// rawQuestion matches the dataset file shape.
type rawQuestion struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Keywords []string `json:"key_words"`
}

// Bank indexes questions by category and point tier.
type Bank struct {
	buckets map[Category]map[int][]Question
}

// Load builds a Bank from TRIVIA_DATA_FILE if set, else the embedded
// dataset. A load failure returns an empty (but usable) bank.
func Load() *Bank {
	data := embeddedQuestions
	if path := os.Getenv("TRIVIA_DATA_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("trivia data file unreadable, using embedded dataset")
		} else {
			data = b
		}
	}
	bank, err := Parse(data)
	if err != nil {
		log.Error().Err(err).Msg("trivia dataset malformed, starting with an empty bank")
		return Empty()
	}
	return bank
}

// Empty returns a bank with all buckets present but unpopulated.
func Empty() *Bank {
	b := &Bank{buckets: make(map[Category]map[int][]Question, NumCategories)}
	for _, c := range Categories() {
		b.buckets[c] = make(map[int][]Question, len(PointValues))
	}
	return b
}

// Parse decodes the raw dataset and distributes each category's questions
// across the five tiers by even index-range slicing.
func Parse(data []byte) (*Bank, error) {
	var raw map[string][]rawQuestion
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}

	b := Empty()
	for i, c := range Categories() {
		questions := raw[fmt.Sprintf("category_%d", i+1)]
		if len(questions) == 0 {
			continue
		}
		perTier := (len(questions) + len(PointValues) - 1) / len(PointValues)
		for tier, pts := range PointValues {
			start := tier * perTier
			if start >= len(questions) {
				break
			}
			end := start + perTier
			if end > len(questions) {
				end = len(questions)
			}
			b.buckets[c][pts] = lo.Map(questions[start:end], func(rq rawQuestion, _ int) Question {
				return Question{
					Category: c,
					Points:   pts,
					Prompt:   rq.Question,
					Answer:   rq.Answer,
					Keywords: rq.Keywords,
				}
			})
		}
		log.Debug().Str("category", c.String()).Int("questions", len(questions)).Msg("bucketed category")
	}
	return b, nil
}

// Size returns the total number of loaded questions.
func (b *Bank) Size() int {
	n := 0
	for _, tiers := range b.buckets {
		for _, qs := range tiers {
			n += len(qs)
		}
	}
	return n
}

// BucketSize returns the number of questions at (category, points).
func (b *Bank) BucketSize(c Category, pts int) int {
	return len(b.buckets[c][pts])
}

// RandomQuestion draws uniformly from the (category, points) bucket.
func (b *Bank) RandomQuestion(c Category, pts int) (Question, bool) {
	qs := b.buckets[c][pts]
	if len(qs) == 0 {
		return Question{}, false
	}
	return qs[randIndex(len(qs))], true
}

// RandomQuestionExcluding draws from the bucket, skipping questions whose
// key appears in used. ok=false when the bucket is exhausted.
func (b *Bank) RandomQuestionExcluding(c Category, pts int, used map[string]struct{}) (Question, bool) {
	qs := lo.Filter(b.buckets[c][pts], func(q Question, _ int) bool {
		_, seen := used[q.Key()]
		return !seen
	})
	if len(qs) == 0 {
		return Question{}, false
	}
	return qs[randIndex(len(qs))], true
}

// RandomQuestionAnyCategory draws an unused question at the given tier from
// any category, trying categories in a shuffled order.
func (b *Bank) RandomQuestionAnyCategory(pts int, used map[string]struct{}) (Question, bool) {
	for _, c := range ShuffledCategories() {
		if q, ok := b.RandomQuestionExcluding(c, pts, used); ok {
			return q, true
		}
	}
	return Question{}, false
}

// ShuffledCategories returns the six categories in uniformly random order.
func ShuffledCategories() []Category {
	cats := Categories()
	for i := len(cats) - 1; i > 0; i-- {
		j := randIndex(i + 1)
		cats[i], cats[j] = cats[j], cats[i]
	}
	return cats
}

// randIndex returns a uniform random int in [0, n) from crypto/rand,
// falling back to 0 on reader failure.
func randIndex(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		log.Warn().Err(err).Msg("random draw failed, using first element")
		return 0
	}
	return int(v.Int64())
}
