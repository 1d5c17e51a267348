package command

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rdren0/literate-waddle/internal/engine"
	"github.com/rdren0/literate-waddle/internal/solo"
	"github.com/rdren0/literate-waddle/internal/store"
	"github.com/rdren0/literate-waddle/internal/trivia"
)

// testBank builds a bank with one question per cell: cell (c, tier) has
// answer "a<c>-<tier>".
func testBank(t *testing.T) *trivia.Bank {
	t.Helper()
	data := `{`
	for c := 1; c <= trivia.NumCategories; c++ {
		if c > 1 {
			data += `,`
		}
		data += fmt.Sprintf(`"category_%d":[`, c)
		for i := 0; i < 5; i++ {
			if i > 0 {
				data += `,`
			}
			data += fmt.Sprintf(`{"question":"q%d-%d","answer":"a%d-%d"}`, c, i, c, i)
		}
		data += `]`
	}
	data += `}`
	bank, err := trivia.Parse([]byte(data))
	if err != nil {
		t.Fatalf("build test bank: %v", err)
	}
	return bank
}

func cellAnswer(cat, tier int) string { return fmt.Sprintf("a%d-%d", cat, tier-1) }

type recorderStub struct {
	mu    sync.Mutex
	games int
	solos int
}

func (r *recorderStub) RecordGame(string, []engine.Standing) {
	r.mu.Lock()
	r.games++
	r.mu.Unlock()
}

func (r *recorderStub) RecordSolo(string, int, int, int) {
	r.mu.Lock()
	r.solos++
	r.mu.Unlock()
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) sink(ev Event) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

func newTestDispatcher(t *testing.T, timeout time.Duration) (*Dispatcher, *store.Rooms, *recorderStub, *eventLog) {
	t.Helper()
	bank := testBank(t)
	rooms := store.NewRooms()
	rec := &recorderStub{}
	evs := &eventLog{}
	mgr := solo.NewManager(bank, 1, time.Hour, time.Minute, nil)
	d := NewDispatcher(bank, rooms, mgr, rec, evs.sink, timeout)
	mgr.SetOnPromote(d.NotifyPromotion)
	return d, rooms, rec, evs
}

func cmd(verb, caller, roomID string, args ...string) Command {
	return Command{Verb: verb, Args: args, CallerID: caller, CallerName: caller, RoomID: roomID}
}

func TestParseLine(t *testing.T) {
	cases := []struct {
		in       string
		wantVerb string
		wantArgs []string
	}{
		{"!pick 2 300", "pick", []string{"2", "300"}},
		{"/ANSWER the sorting hat", "answer", []string{"the", "sorting", "hat"}},
		{"   join   Alice  ", "join", []string{"Alice"}},
		{"", "", nil},
	}
	for _, tc := range cases {
		verb, args := ParseLine(tc.in)
		if verb != tc.wantVerb {
			t.Errorf("ParseLine(%q) verb = %q, want %q", tc.in, verb, tc.wantVerb)
		}
		if len(args) != len(tc.wantArgs) {
			t.Errorf("ParseLine(%q) args = %v, want %v", tc.in, args, tc.wantArgs)
			continue
		}
		for i := range args {
			if args[i] != tc.wantArgs[i] {
				t.Errorf("ParseLine(%q) args = %v, want %v", tc.in, args, tc.wantArgs)
			}
		}
	}
}

func TestDispatchUnknownRoom(t *testing.T) {
	d, _, _, _ := newTestDispatcher(t, time.Hour)
	out := d.Dispatch(cmd("join", "u1", "nope"))
	if out == nil || out.Kind != KindError {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestOutOfTurnIsSuppressed(t *testing.T) {
	d, rooms, _, _ := newTestDispatcher(t, time.Hour)
	room := rooms.Create(testBank(t))

	d.Dispatch(cmd("join", "u1", room.ID))
	d.Dispatch(cmd("join", "u2", room.ID))
	d.Dispatch(cmd("start", "u1", room.ID))

	// u2 picking out of turn yields no outcome at all.
	if out := d.Dispatch(cmd("pick", "u2", room.ID, "1", "100")); out != nil {
		t.Fatalf("out-of-turn pick produced %+v", out)
	}
	d.Dispatch(cmd("pick", "u1", room.ID, "1", "100"))
	if out := d.Dispatch(cmd("answer", "u2", room.ID, "zzz")); out != nil {
		t.Fatalf("out-of-turn answer produced %+v", out)
	}
}

func TestQuestionTimeoutPushesEvent(t *testing.T) {
	d, rooms, _, evs := newTestDispatcher(t, 20*time.Millisecond)
	room := rooms.Create(testBank(t))

	d.Dispatch(cmd("join", "u1", room.ID))
	d.Dispatch(cmd("start", "u1", room.ID))
	if out := d.Dispatch(cmd("pick", "u1", room.ID, "1", "100")); out == nil || out.Kind != KindQuestion {
		t.Fatalf("pick outcome = %+v", out)
	}

	deadline := time.After(2 * time.Second)
	for {
		evs.mu.Lock()
		n := len(evs.events)
		evs.mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("no timeout event within 2s")
		case <-time.After(5 * time.Millisecond):
		}
	}

	evs.mu.Lock()
	ev := evs.events[0]
	evs.mu.Unlock()
	if ev.RoomID != room.ID || !strings.Contains(ev.Outcome.Message, "Time's up") {
		t.Fatalf("event = %+v", ev)
	}

	// Turn did not advance, and the cell is spent.
	room.Lock()
	defer room.Unlock()
	if cur := room.Session().CurrentPlayer(); cur.ID != "u1" {
		t.Fatalf("current = %s after timeout", cur.ID)
	}
}

func TestAnswerResolutionCancelsTimer(t *testing.T) {
	d, rooms, _, evs := newTestDispatcher(t, 30*time.Millisecond)
	room := rooms.Create(testBank(t))

	d.Dispatch(cmd("join", "u1", room.ID))
	d.Dispatch(cmd("start", "u1", room.ID))
	d.Dispatch(cmd("pick", "u1", room.ID, "1", "100"))
	if out := d.Dispatch(cmd("answer", "u1", room.ID, cellAnswer(1, 1))); out == nil || out.Kind != KindCorrect {
		t.Fatalf("answer outcome = %+v", out)
	}

	time.Sleep(80 * time.Millisecond)
	evs.mu.Lock()
	defer evs.mu.Unlock()
	if len(evs.events) != 0 {
		t.Fatalf("stale timer pushed %+v", evs.events)
	}
}

// Full multiplayer game: join, start, clear the board, final round.
func TestMultiplayerGameEndToEnd(t *testing.T) {
	d, rooms, rec, _ := newTestDispatcher(t, time.Hour)
	room := rooms.Create(testBank(t))

	for _, u := range []string{"alice", "bob"} {
		if out := d.Dispatch(cmd("join", u, room.ID)); out == nil || out.Kind != KindSuccess {
			t.Fatalf("join %s = %+v", u, out)
		}
	}
	if out := d.Dispatch(cmd("start", "alice", room.ID)); out == nil || out.Kind != KindEmbed {
		t.Fatalf("start = %+v", out)
	}

	// Alice answers every cell correctly; winner stays so she picks all 30.
	for c := 1; c <= trivia.NumCategories; c++ {
		for p := 1; p <= 5; p++ {
			pts := trivia.PointValues[p-1]
			if out := d.Dispatch(cmd("pick", "alice", room.ID, fmt.Sprint(c), fmt.Sprint(pts))); out == nil || out.Kind != KindQuestion {
				t.Fatalf("pick (%d,%d) = %+v", c, p, out)
			}
			out := d.Dispatch(cmd("answer", "alice", room.ID, cellAnswer(c, p)))
			if out == nil || out.Kind != KindCorrect {
				t.Fatalf("answer (%d,%d) = %+v", c, p, out)
			}
		}
	}

	// Spent cell is rejected with a visible error.
	if out := d.Dispatch(cmd("pick", "alice", room.ID, "1", "100")); out == nil || out.Kind != KindError {
		t.Fatalf("re-pick = %+v", out)
	}

	if out := d.Dispatch(cmd("final", "alice", room.ID)); out == nil || out.Kind != KindEmbed {
		t.Fatalf("final = %+v", out)
	}
	if out := d.Dispatch(cmd("finalbet", "alice", room.ID, "100")); out == nil || out.Kind != KindSuccess {
		t.Fatalf("alice bet = %+v", out)
	}
	if out := d.Dispatch(cmd("finalbet", "bob", room.ID, "0")); out == nil || out.Kind != KindSuccess {
		t.Fatalf("bob bet = %+v", out)
	}
	if out := d.Dispatch(cmd("finalanswer", "alice", room.ID, "zzz")); out == nil || out.Kind != KindSuccess {
		t.Fatalf("alice final answer = %+v", out)
	}
	out := d.Dispatch(cmd("finalanswer", "bob", room.ID, "zzz"))
	if out == nil || out.Kind != KindEmbed {
		t.Fatalf("reveal = %+v", out)
	}
	if rec.games != 1 {
		t.Fatalf("recorded %d games, want 1", rec.games)
	}

	// The room can be reset for a fresh game.
	if out := d.Dispatch(cmd("reset", "alice", room.ID)); out == nil || out.Kind != KindSuccess {
		t.Fatalf("reset = %+v", out)
	}
	if out := d.Dispatch(cmd("join", "carol", room.ID)); out == nil || out.Kind != KindSuccess {
		t.Fatalf("join after reset = %+v", out)
	}
}

func TestRepairReportsCurrentPlayer(t *testing.T) {
	d, rooms, _, _ := newTestDispatcher(t, time.Hour)
	room := rooms.Create(testBank(t))

	// Before a game starts there is no turn pointer to repair.
	if out := d.Dispatch(cmd("repair", "u1", room.ID)); out == nil || out.Kind != KindError {
		t.Fatalf("repair before start = %+v", out)
	}

	d.Dispatch(cmd("join", "u1", room.ID))
	d.Dispatch(cmd("join", "u2", room.ID))
	d.Dispatch(cmd("start", "u1", room.ID))

	out := d.Dispatch(cmd("repair", "u1", room.ID))
	if out == nil || out.Kind != KindSuccess || !strings.Contains(out.Message, "u1's turn") {
		t.Fatalf("repair = %+v", out)
	}
}

// Full solo run through the dispatcher, with capacity queueing.
func TestSoloEndToEnd(t *testing.T) {
	d, _, rec, evs := newTestDispatcher(t, time.Hour)

	out := d.Dispatch(cmd("solo", "alice", ""))
	if out == nil || out.Kind != KindQuestion {
		t.Fatalf("solo start = %+v", out)
	}

	// Asking again with a run live is an error, not a restart or resume.
	if out := d.Dispatch(cmd("solo", "alice", "")); out == nil || out.Kind != KindError ||
		!strings.Contains(out.Message, "already have an active solo game") {
		t.Fatalf("duplicate solo start = %+v", out)
	}

	// Capacity is 1 in the test manager; bob is queued.
	if out := d.Dispatch(cmd("solo", "bob", "")); out == nil || out.Kind != KindInfo || !strings.Contains(out.Message, "#1") {
		t.Fatalf("bob solo = %+v", out)
	}

	for i := 0; i < 10; i++ {
		out = d.Dispatch(cmd("answer", "alice", "", "no", "idea"))
		if out == nil {
			t.Fatalf("solo answer %d suppressed", i)
		}
	}
	if !strings.Contains(out.Message, "Final score") {
		t.Fatalf("last solo outcome = %+v", out)
	}
	if rec.solos != 1 {
		t.Fatalf("recorded %d solo runs, want 1", rec.solos)
	}

	// Completing the run promotes bob with his first question.
	evs.mu.Lock()
	defer evs.mu.Unlock()
	if len(evs.events) != 1 || evs.events[0].UserID != "bob" || evs.events[0].Outcome.Kind != KindQuestion {
		t.Fatalf("promotion events = %+v", evs.events)
	}
}
