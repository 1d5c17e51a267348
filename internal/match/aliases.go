// internal/match/aliases.go
//
// Fixed table of well-known equivalent phrasings. Aliased(a, b) checks both
// directions, so the relation is symmetric even where the table lists only
// one side.

package match

// aliases maps a normalized phrase to the alternate phrasings accepted for it.
var aliases = map[string][]string{
	"tom riddle":     {"voldemort", "tom marvolo riddle", "lord voldemort"},
	"voldemort":      {"tom riddle", "tom marvolo riddle", "lord voldemort"},
	"lord voldemort": {"voldemort", "tom riddle", "tom marvolo riddle"},

	"hermione granger":      {"hermione"},
	"harry potter":          {"harry"},
	"ron weasley":           {"ron"},
	"professor snape":       {"snape", "severus snape"},
	"professor dumbledore":  {"dumbledore", "albus dumbledore"},
	"professor mcgonagall":  {"mcgonagall", "minerva mcgonagall"},

	"expecto patronum":   {"patronus charm", "patronus"},
	"avada kedavra":      {"killing curse", "the killing curse"},
	"wingardium leviosa": {"levitation charm"},
	"stupefy":            {"stunning spell", "stunning charm"},
	"expelliarmus":       {"disarming spell", "disarming charm"},

	"hogwarts":              {"hogwarts school", "hogwarts school of witchcraft and wizardry"},
	"diagon alley":          {"diagon ally"},
	"hogsmeade":             {"hogsmeade village"},
	"the three broomsticks": {"three broomsticks"},
	"grimmauld place":       {"12 grimmauld place", "number 12 grimmauld place"},

	"invisibility cloak": {"cloak of invisibility"},
	"elder wand":         {"the elder wand"},
	"philosophers stone": {"sorcerers stone"},
	"sorcerers stone":    {"philosophers stone"},
}

// Aliased reports whether two normalized strings are listed as equivalent
// phrasings of each other, in either direction.
func Aliased(a, b string) bool {
	for _, v := range aliases[b] {
		if Normalize(v) == a {
			return true
		}
	}
	for _, v := range aliases[a] {
		if Normalize(v) == b {
			return true
		}
	}
	return false
}
