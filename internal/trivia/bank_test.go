package trivia

import (
	"fmt"
	"testing"
)

// testDataset builds a raw dataset with n questions in each category.
func testDataset(n int) []byte {
	out := `{`
	for c := 1; c <= NumCategories; c++ {
		if c > 1 {
			out += `,`
		}
		out += fmt.Sprintf(`"category_%d":[`, c)
		for i := 0; i < n; i++ {
			if i > 0 {
				out += `,`
			}
			out += fmt.Sprintf(`{"question":"q%d-%d","answer":"a%d-%d","key_words":["k"]}`, c, i, c, i)
		}
		out += `]`
	}
	out += `}`
	return []byte(out)
}

func TestParseBucketsEvenly(t *testing.T) {
	bank, err := Parse(testDataset(10))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := bank.Size(); got != 60 {
		t.Fatalf("Size = %d, want 60", got)
	}
	// 10 questions over 5 tiers is 2 per tier.
	for _, c := range Categories() {
		for _, pts := range PointValues {
			if got := bank.BucketSize(c, pts); got != 2 {
				t.Errorf("BucketSize(%v, %d) = %d, want 2", c, pts, got)
			}
		}
	}
}

func TestParseUnevenCounts(t *testing.T) {
	// 7 questions: perTier = ceil(7/5) = 2, so tiers get 2,2,2,1,0.
	bank, err := Parse(testDataset(7))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := map[int]int{100: 2, 200: 2, 300: 2, 400: 1, 500: 0}
	for pts, n := range want {
		if got := bank.BucketSize(SpellsAndMagic, pts); got != n {
			t.Errorf("BucketSize(%d) = %d, want %d", pts, got, n)
		}
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := Parse([]byte(`{not json`)); err == nil {
		t.Fatal("Parse accepted malformed input")
	}
}

func TestEmptyBankIsQueryable(t *testing.T) {
	bank := Empty()
	if bank.Size() != 0 {
		t.Fatalf("empty bank Size = %d", bank.Size())
	}
	if _, ok := bank.RandomQuestion(Potions, 300); ok {
		t.Error("empty bank returned a question")
	}
	if _, ok := bank.RandomQuestionAnyCategory(500, nil); ok {
		t.Error("empty bank returned a question for any category")
	}
}

func TestRandomQuestionExcluding(t *testing.T) {
	bank, err := Parse(testDataset(5)) // 1 per tier
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	used := make(map[string]struct{})

	q, ok := bank.RandomQuestion(Potions, 200)
	if !ok {
		t.Fatal("no question in populated bucket")
	}
	used[q.Key()] = struct{}{}

	if _, ok := bank.RandomQuestionExcluding(Potions, 200, used); ok {
		t.Error("draw returned the only question even though it was used")
	}
	if _, ok := bank.RandomQuestionExcluding(Potions, 300, used); !ok {
		t.Error("unused bucket reported exhausted")
	}
}

func TestRandomQuestionAnyCategoryExhaustsAll(t *testing.T) {
	bank, err := Parse(testDataset(5))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	used := make(map[string]struct{})
	for i := 0; i < NumCategories; i++ {
		q, ok := bank.RandomQuestionAnyCategory(500, used)
		if !ok {
			t.Fatalf("draw %d failed with categories remaining", i)
		}
		if _, seen := used[q.Key()]; seen {
			t.Fatalf("draw %d repeated %s", i, q.Key())
		}
		used[q.Key()] = struct{}{}
	}
	if _, ok := bank.RandomQuestionAnyCategory(500, used); ok {
		t.Error("draw succeeded after every 500 question was used")
	}
}

func TestEmbeddedDatasetLoads(t *testing.T) {
	bank, err := Parse(embeddedQuestions)
	if err != nil {
		t.Fatalf("embedded dataset failed to parse: %v", err)
	}
	if bank.Size() == 0 {
		t.Fatal("embedded dataset is empty")
	}
	for _, c := range Categories() {
		n := 0
		for _, pts := range PointValues {
			n += bank.BucketSize(c, pts)
		}
		if n == 0 {
			t.Errorf("category %v has no questions", c)
		}
	}
}

func TestCategoryString(t *testing.T) {
	if got := SpellsAndMagic.String(); got != "SPELLS & MAGIC" {
		t.Errorf("SpellsAndMagic.String() = %q", got)
	}
	if got := Category(0).String(); got != "Category(0)" {
		t.Errorf("invalid category String() = %q", got)
	}
	if Category(7).Valid() {
		t.Error("Category(7) reported valid")
	}
}

func TestShuffledCategoriesIsPermutation(t *testing.T) {
	seen := make(map[Category]int)
	for _, c := range ShuffledCategories() {
		seen[c]++
	}
	if len(seen) != NumCategories {
		t.Fatalf("shuffle produced %d distinct categories", len(seen))
	}
	for c, n := range seen {
		if n != 1 {
			t.Errorf("category %v appeared %d times", c, n)
		}
	}
}
