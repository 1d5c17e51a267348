// internal/engine/player.go
//
// Player records and the turn registry: join-order roster, round-robin
// current-turn pointer, and leaderboard snapshots.

package engine

import (
	"sort"

	"github.com/samber/lo"
)

// Player is one registered participant. Score only decreases through a
// Final Round betting loss.
type Player struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Score             int    `json:"score"`
	QuestionsAnswered int    `json:"questionsAnswered"`
	CorrectAnswers    int    `json:"correctAnswers"`
}

// registry tracks the active player set in join order with a round-robin
// turn pointer.
type registry struct {
	players map[string]*Player
	order   []string
	current int
}

func newRegistry(roster []*Player) *registry {
	r := &registry{players: make(map[string]*Player, len(roster))}
	for _, p := range roster {
		r.players[p.ID] = p
		r.order = append(r.order, p.ID)
	}
	return r
}

func (r *registry) get(id string) (*Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

// clamp self-heals an out-of-range turn pointer instead of failing.
func (r *registry) clamp() {
	if r.current < 0 || r.current >= len(r.order) {
		r.current = 0
	}
}

// currentPlayer returns the holder of the turn, clamping defensively.
func (r *registry) currentPlayer() *Player {
	if len(r.order) == 0 {
		return nil
	}
	r.clamp()
	return r.players[r.order[r.current]]
}

// advance moves the turn pointer to the next player, cyclically.
func (r *registry) advance() *Player {
	if len(r.order) == 0 {
		return nil
	}
	r.current = (r.current + 1) % len(r.order)
	return r.currentPlayer()
}

// inOrder returns all players in join order.
func (r *registry) inOrder() []*Player {
	return lo.Map(r.order, func(id string, _ int) *Player { return r.players[id] })
}

// Standing is one leaderboard row.
type Standing struct {
	Rank              int    `json:"rank"`
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Score             int    `json:"score"`
	CorrectAnswers    int    `json:"correctAnswers"`
	QuestionsAnswered int    `json:"questionsAnswered"`
}

// standings ranks players by score descending, keeping only positive scores
// and at most the top 10.
func (r *registry) standings() []Standing {
	players := lo.Filter(r.inOrder(), func(p *Player, _ int) bool { return p.Score > 0 })
	sort.SliceStable(players, func(i, j int) bool { return players[i].Score > players[j].Score })
	if len(players) > 10 {
		players = players[:10]
	}
	return lo.Map(players, func(p *Player, i int) Standing {
		return Standing{
			Rank:              i + 1,
			ID:                p.ID,
			DisplayName:       p.DisplayName,
			Score:             p.Score,
			CorrectAnswers:    p.CorrectAnswers,
			QuestionsAnswered: p.QuestionsAnswered,
		}
	})
}
