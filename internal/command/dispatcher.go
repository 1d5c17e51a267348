// internal/command/dispatcher.go
//
// The Dispatcher routes normalized commands to rooms and solo sessions.
// It owns every room's lock for the duration of a dispatch, arms and
// fences question timers, and pushes out-of-band events (timeouts, solo
// promotions) through the Sink.
//
// Turn-order rejections (someone answering out of turn) return a nil
// Outcome: in a busy chat channel they are noise, not feedback.

package command

import (
	"errors"
	"fmt"
	"strconv"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"

	"github.com/rdren0/literate-waddle/internal/engine"
	"github.com/rdren0/literate-waddle/internal/solo"
	"github.com/rdren0/literate-waddle/internal/store"
	"github.com/rdren0/literate-waddle/internal/trivia"
)

// DefaultQuestionTimeout bounds how long a question stays in flight.
const DefaultQuestionTimeout = 60 * time.Second

// Recorder persists finished games. Implementations are best-effort; the
// dispatcher ignores their failures.
type Recorder interface {
	RecordGame(roomID string, standings []engine.Standing)
	RecordSolo(userID string, score, total, percentage int)
}

// Dispatcher is the single mutation path for all rooms. Safe for
// concurrent use.
type Dispatcher struct {
	bank    *trivia.Bank
	rooms   *store.Rooms
	solo    *solo.Manager
	rec     Recorder
	sink    Sink
	timeout time.Duration
}

// NewDispatcher wires the dispatcher. rec and sink may be nil; a zero
// timeout falls back to the default.
func NewDispatcher(bank *trivia.Bank, rooms *store.Rooms, soloMgr *solo.Manager, rec Recorder, sink Sink, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultQuestionTimeout
	}
	return &Dispatcher{bank: bank, rooms: rooms, solo: soloMgr, rec: rec, sink: sink, timeout: timeout}
}

// Dispatch executes one command. A nil return means the command produced
// no visible result (unknown verb, out-of-turn answer).
func (d *Dispatcher) Dispatch(cmd Command) *Outcome {
	switch cmd.Verb {
	case "create":
		room := d.rooms.Create(d.bank)
		return success(fmt.Sprintf("Room created: %s. Players can now join.", room.ID))
	case "solo":
		return d.soloStart(cmd)
	case "help":
		return info(helpText)
	case "":
		return nil
	}

	// Solo runs take precedence over room play for the answering verbs, so
	// a player mid-run never accidentally answers a room question.
	if d.solo != nil {
		if _, ok := d.solo.Get(cmd.CallerID); ok {
			switch cmd.Verb {
			case "answer":
				return d.soloAnswer(cmd)
			case "end":
				d.solo.End(cmd.CallerID)
				return success("Solo session abandoned.")
			}
		}
	}

	room, err := d.rooms.Get(cmd.RoomID)
	if err != nil {
		return errOut("That room does not exist.")
	}

	room.Lock()
	defer room.Unlock()
	room.Touch()

	out, err := d.roomCommand(room, cmd)
	if err != nil {
		if errors.Is(err, engine.ErrNotYourTurn) {
			return nil
		}
		return errOut(sentence(err.Error()))
	}
	return out
}

// roomCommand runs a verb against a locked room.
func (d *Dispatcher) roomCommand(room *store.Room, cmd Command) (*Outcome, error) {
	s := room.Session()
	switch cmd.Verb {
	case "join":
		name := Rest(cmd.Args)
		if name == "" {
			name = cmd.CallerName
		}
		n, err := s.Register(cmd.CallerID, name)
		if err != nil {
			return nil, err
		}
		return success(fmt.Sprintf("%s joined the game (%d registered).", name, n)), nil

	case "players":
		roster := s.RegisteredPlayers()
		if len(roster) == 0 {
			return info("Nobody has joined yet."), nil
		}
		return embed(fmt.Sprintf("%d player(s)", len(roster)), roster), nil

	case "start":
		res, err := s.Start()
		if err != nil {
			return nil, err
		}
		return embed(fmt.Sprintf("Game on! %s picks first.", res.First.DisplayName), res), nil

	case "board":
		return embed("Board", s.BoardSnapshot()), nil

	case "pick":
		return d.pick(room, cmd)

	case "answer":
		return d.answer(room, cmd)

	case "scores":
		standings := s.Leaderboard()
		if len(standings) == 0 {
			return info("No scores yet."), nil
		}
		return embed("Standings", standings), nil

	case "end":
		res, err := s.EndGame()
		if err != nil {
			return nil, err
		}
		d.record(room.ID, res.Standings)
		return embed("Game over. Final standings:", res.Standings), nil

	case "reset":
		s.Reset()
		room.ReplaceSession(engine.NewSession(d.bank))
		return success("Room reset. A new game is open for registration."), nil

	case "repair":
		p := s.RepairTurn()
		if p == nil {
			return nil, engine.ErrNoActiveGame
		}
		return success(fmt.Sprintf("Turn order repaired. It is %s's turn to pick.", p.DisplayName)), nil

	case "final":
		prompt, err := s.StartFinal()
		if err != nil {
			return nil, err
		}
		return embed("Final Round! Place your bets with finalbet <amount>.", prompt), nil

	case "finalbet":
		return d.finalBet(s, cmd)

	case "finalanswer":
		return d.finalAnswer(room, cmd)
	}
	return nil, nil
}

func (d *Dispatcher) pick(room *store.Room, cmd Command) (*Outcome, error) {
	if len(cmd.Args) < 2 {
		return nil, engine.ErrInvalidSelection
	}
	catIdx, err := strconv.Atoi(cmd.Args[0])
	if err != nil {
		return nil, engine.ErrInvalidSelection
	}
	ptsArg, err := strconv.Atoi(cmd.Args[1])
	if err != nil {
		return nil, engine.ErrInvalidSelection
	}
	// Accept either a tier value (300) or a tier index (3).
	ptsIdx := ptsArg
	if trivia.ValidPoints(ptsArg) {
		ptsIdx = ptsArg / 100
	}

	s := room.Session()
	res, err := s.SelectCell(cmd.CallerID, catIdx, ptsIdx)
	if err != nil {
		return nil, err
	}
	d.armTimer(room, res.Seq)

	msg := fmt.Sprintf("%s for %d", res.Question.Category, res.Question.Points)
	if res.DailyDouble {
		msg = "DAILY DOUBLE! " + msg
	}
	return &Outcome{Kind: KindQuestion, Message: msg, Data: res.Question}, nil
}

func (d *Dispatcher) answer(room *store.Room, cmd Command) (*Outcome, error) {
	s := room.Session()
	res, err := s.SubmitAnswer(cmd.CallerID, Rest(cmd.Args))
	if err != nil {
		return nil, err
	}

	if res.Correct {
		msg := fmt.Sprintf("Correct! %s wins %d points (total %d).",
			res.Winner.DisplayName, res.Points, res.NewScore)
		if res.BoardComplete {
			msg += " The board is complete! Type final to play the Final Round."
		} else if res.TurnAdvanced {
			msg += fmt.Sprintf(" %s picks next.", res.NextPlayer.DisplayName)
		}
		return &Outcome{Kind: KindCorrect, Message: msg, Data: res}, nil
	}

	switch {
	case res.OpenToAll:
		return &Outcome{
			Kind:    KindIncorrect,
			Message: "Incorrect! The floor is open; anyone can answer.",
			Data:    res,
		}, nil
	case res.MaxAttemptsReached:
		msg := fmt.Sprintf("Nobody got it. The answer was: %s.", res.Answer)
		if res.BoardComplete {
			msg += " The board is complete! Type final to play the Final Round."
		} else {
			msg += fmt.Sprintf(" %s picks next.", res.NextPlayer.DisplayName)
		}
		return &Outcome{Kind: KindIncorrect, Message: msg, Data: res}, nil
	default:
		return &Outcome{
			Kind:    KindIncorrect,
			Message: fmt.Sprintf("Incorrect! %d attempt(s) remaining.", res.AttemptsRemaining),
			Data:    res,
		}, nil
	}
}

func (d *Dispatcher) finalBet(s *engine.Session, cmd Command) (*Outcome, error) {
	if len(cmd.Args) == 0 {
		return nil, engine.ErrInvalidArgument
	}
	amount, err := strconv.Atoi(cmd.Args[0])
	if err != nil {
		return nil, engine.ErrInvalidArgument
	}
	res, err := s.PlaceBet(cmd.CallerID, amount)
	if err != nil {
		return nil, err
	}
	if res.AllPlaced {
		return success("All bets are in! Submit your answer with finalanswer <answer>."), nil
	}
	return success(fmt.Sprintf("Bet locked in. Waiting on %d more.", res.Remaining)), nil
}

func (d *Dispatcher) finalAnswer(room *store.Room, cmd Command) (*Outcome, error) {
	s := room.Session()
	res, err := s.SubmitFinalAnswer(cmd.CallerID, Rest(cmd.Args))
	if err != nil {
		return nil, err
	}
	if !res.AllAnswered {
		return success(fmt.Sprintf("Answer recorded. Waiting on %d more.", res.Remaining)), nil
	}

	reveal, err := s.RevealFinal()
	if err != nil {
		return nil, err
	}
	d.record(room.ID, reveal.Standings)
	return embed(fmt.Sprintf("Final Round over! The answer was: %s.", reveal.Answer), reveal), nil
}

// armTimer schedules the in-flight question's expiry and attaches the
// timer so any resolving transition cancels it. Callers hold the room lock.
func (d *Dispatcher) armTimer(room *store.Room, seq uint64) {
	t := time.AfterFunc(d.timeout, func() { d.expire(room, seq) })
	room.Session().SetQuestionTimer(t)
}

// expire runs on the timer goroutine; the seq token makes a stale firing a
// no-op even if it races a just-resolved question.
func (d *Dispatcher) expire(room *store.Room, seq uint64) {
	room.Lock()
	res, ok := room.Session().TimeoutQuestion(seq)
	room.Unlock()
	if !ok {
		return
	}

	log.Debug().Str("room", room.ID).Msg("question timed out")
	if d.sink != nil {
		msg := fmt.Sprintf("Time's up! The answer was: %s.", res.Answer)
		if res.BoardComplete {
			msg += " The board is complete! Type final to play the Final Round."
		}
		d.sink(Event{RoomID: room.ID, Outcome: &Outcome{Kind: KindInfo, Message: msg, Data: res}})
	}
}

func (d *Dispatcher) soloStart(cmd Command) *Outcome {
	if d.solo == nil {
		return errOut("Solo play is not available.")
	}
	status, err := d.solo.Start(cmd.CallerID)
	if err != nil {
		if errors.Is(err, solo.ErrAlreadyActive) {
			msg := "You already have an active solo game! Finish it or type end to abandon it."
			if s, ok := d.solo.Get(cmd.CallerID); ok {
				if q, qerr := s.Current(); qerr == nil {
					msg = fmt.Sprintf("You already have an active solo game! Question %d of %d is waiting.", q.Number, q.Total)
				}
			}
			return errOut(msg)
		}
		return errOut(sentence(err.Error()))
	}
	if status.Session == nil {
		return info(fmt.Sprintf("All solo slots are busy. You are #%d in the queue.", status.Position))
	}
	q, err := status.Session.Current()
	if err != nil {
		return errOut("No questions are available right now.")
	}
	msg := fmt.Sprintf("Solo game started! Question %d of %d.", q.Number, q.Total)
	return &Outcome{Kind: KindQuestion, Message: msg, Data: q}
}

func (d *Dispatcher) soloAnswer(cmd Command) *Outcome {
	res, err := d.solo.Submit(cmd.CallerID, Rest(cmd.Args))
	if err != nil {
		return errOut(sentence(err.Error()))
	}

	kind := KindIncorrect
	msg := fmt.Sprintf("Incorrect. The answer was: %s.", res.Answer)
	switch {
	case res.Correct:
		kind = KindCorrect
		msg = "Correct!"
	case res.Close:
		kind = KindCorrect
		msg = fmt.Sprintf("So close, we'll count it! The answer was: %s.", res.Answer)
	}

	if res.Done {
		if d.rec != nil {
			d.rec.RecordSolo(cmd.CallerID, res.Score, res.Total, res.Percentage)
		}
		msg += fmt.Sprintf(" Final score: %d/%d (%d%%).", res.Score, res.Total, res.Percentage)
		return &Outcome{Kind: kind, Message: msg, Data: res}
	}

	if s, ok := d.solo.Get(cmd.CallerID); ok {
		if q, err := s.Current(); err == nil {
			return &Outcome{
				Kind:    kind,
				Message: fmt.Sprintf("%s Question %d of %d.", msg, q.Number, q.Total),
				Data:    soloStep{Result: res, Next: q},
			}
		}
	}
	return &Outcome{Kind: kind, Message: msg, Data: res}
}

// soloStep pairs a judged answer with the next question in the ramp.
type soloStep struct {
	Result *solo.Result      `json:"result"`
	Next   solo.QuestionView `json:"next"`
}

// NotifyPromotion is wired as the solo manager's promotion callback: it
// pushes the promoted player's first question through the sink.
func (d *Dispatcher) NotifyPromotion(userID string) {
	if d.sink == nil {
		return
	}
	out := info("A solo slot opened up; your game is starting!")
	if s, ok := d.solo.Get(userID); ok {
		if q, err := s.Current(); err == nil {
			out = &Outcome{
				Kind:    KindQuestion,
				Message: fmt.Sprintf("A solo slot opened up! Question %d of %d.", q.Number, q.Total),
				Data:    q,
			}
		}
	}
	d.sink(Event{UserID: userID, Outcome: out})
}

func (d *Dispatcher) record(roomID string, standings []engine.Standing) {
	if d.rec != nil {
		d.rec.RecordGame(roomID, standings)
	}
}

// sentence turns a sentinel error message into user-facing copy.
func sentence(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r) + "."
}

const helpText = `Commands: create, join [name], players, start, board, ` +
	`pick <category 1-6> <points>, answer <text>, scores, end, reset, repair, ` +
	`final, finalbet <amount>, finalanswer <text>, solo, help`
