// internal/command/outcome.go
//
// Outcome is the engine's entire output surface: a closed set of result
// kinds with plain-data payloads. Rendering (markup, embeds, colors) is
// the transport's problem.

package command

// Kind classifies an outcome for the rendering layer.
type Kind string

const (
	KindSuccess   Kind = "success"
	KindError     Kind = "error"
	KindInfo      Kind = "info"
	KindQuestion  Kind = "question"
	KindCorrect   Kind = "correct"
	KindIncorrect Kind = "incorrect"
	KindEmbed     Kind = "embed"
)

// Outcome is one renderable result. Data carries the structured payload
// (board snapshot, question view, standings, reveal) when Message alone is
// not enough.
type Outcome struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func success(msg string) *Outcome { return &Outcome{Kind: KindSuccess, Message: msg} }
func errOut(msg string) *Outcome  { return &Outcome{Kind: KindError, Message: msg} }
func info(msg string) *Outcome    { return &Outcome{Kind: KindInfo, Message: msg} }

func embed(msg string, data any) *Outcome {
	return &Outcome{Kind: KindEmbed, Message: msg, Data: data}
}

// Event is an outcome pushed outside a request/response exchange: question
// timeouts and solo queue promotions.
type Event struct {
	RoomID  string   `json:"roomId,omitempty"`
	UserID  string   `json:"userId,omitempty"`
	Outcome *Outcome `json:"outcome"`
}

// Sink receives pushed events. Must be safe for concurrent use; the
// dispatcher calls it from timer goroutines.
type Sink func(Event)
