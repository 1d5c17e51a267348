package match

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"The Sorting Hat", "sorting hat"},
		{"  Expecto   Patronum!  ", "expecto patronum"},
		{"A Phoenix", "phoenix"},
		{"nicholas flamel, the alchemist", "nicholas flamel alchemist"},
		{"Moaning Myrtle's Bathroom", "moaning myrtle's bathroom"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsCorrect(t *testing.T) {
	cases := []struct {
		name      string
		user      string
		canonical string
		keywords  []string
		want      bool
	}{
		{"exact", "Expelliarmus", "Expelliarmus", nil, true},
		{"case and article", "the expelliarmus", "Expelliarmus", nil, true},
		{"keyword exact", "disarm", "Expelliarmus", []string{"disarm", "disarming"}, true},
		{"keyword containment", "it disarms the opponent", "Expelliarmus", []string{"disarms"}, true},
		{"alias voldemort", "Tom Riddle", "Voldemort", nil, true},
		{"alias reversed", "voldemort", "Tom Riddle", nil, true},
		{"small typo", "Expeliarmus", "Expelliarmus", nil, true},
		{"containment", "I think it's Expelliarmus obviously", "Expelliarmus", nil, true},
		{"token overlap", "flamel nicholas", "Nicholas Flamel", nil, true},
		{"wrong answer", "Avada Kedavra", "Expelliarmus", nil, false},
		{"short junk", "x", "Expelliarmus", nil, false},
		{"unrelated words", "giant purple toad", "Nicholas Flamel", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsCorrect(tc.user, tc.canonical, tc.keywords); got != tc.want {
				t.Errorf("IsCorrect(%q, %q, %v) = %v, want %v",
					tc.user, tc.canonical, tc.keywords, got, tc.want)
			}
		})
	}
}

func TestIsCorrectDeterministic(t *testing.T) {
	for i := 0; i < 100; i++ {
		if !IsCorrect("tom riddle", "Voldemort", nil) {
			t.Fatal("matcher gave a different result on repeat evaluation")
		}
	}
}

func TestIsClose(t *testing.T) {
	cases := []struct {
		name      string
		user      string
		canonical string
		keywords  []string
		want      bool
	}{
		{"near miss typo", "Hermoine Granger", "Hermione Granger", nil, true},
		{"single token lev2", "Snap", "Snape", nil, true},
		{"keyword similarity", "disarn", "Expelliarmus", []string{"disarm"}, true},
		{"way off", "quidditch", "Polyjuice Potion", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsClose(tc.user, tc.canonical, tc.keywords); got != tc.want {
				t.Errorf("IsClose(%q, %q, %v) = %v, want %v",
					tc.user, tc.canonical, tc.keywords, got, tc.want)
			}
		})
	}
}

func TestSimilarityBounds(t *testing.T) {
	if s := similarity("", ""); s != 1 {
		t.Errorf("similarity of two empty strings = %v, want 1", s)
	}
	if s := similarity("abc", "abc"); s != 1 {
		t.Errorf("similarity of identical strings = %v, want 1", s)
	}
	if s := similarity("abc", "xyz"); s != 0 {
		t.Errorf("similarity of disjoint strings = %v, want 0", s)
	}
}
