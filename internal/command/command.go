// internal/command/command.go
//
// Normalized command values. Transports (HTTP, chat bridges, tests) build
// a Command and hand it to the Dispatcher; the engine never sees raw chat
// text.

package command

import "strings"

// Command is one caller action, already tokenized by the transport.
type Command struct {
	Verb       string   `json:"verb"`
	Args       []string `json:"args,omitempty"`
	CallerID   string   `json:"callerId"`
	CallerName string   `json:"callerName,omitempty"`
	RoomID     string   `json:"roomId,omitempty"`
}

// ParseLine tokenizes a chat-style line ("!pick 2 300") into a verb and
// args. A leading command sigil is stripped; the verb is lowercased. A
// blank line yields an empty verb.
func ParseLine(line string) (string, []string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	verb := strings.ToLower(strings.TrimLeft(fields[0], "!/"))
	return verb, fields[1:]
}

// Rest joins the args back into free text (answer submissions).
func Rest(args []string) string {
	return strings.Join(args, " ")
}
