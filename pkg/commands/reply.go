package commands

// Level classifies a reply so front ends can colour it.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelPending Level = "pending"
	LevelAnswer  Level = "answer"
)

// Reply is one line (or block, for answers) of feedback for a player.
type Reply struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// Sink receives replies. Answers to ask arrive from worker goroutines, so
// implementations must be safe for concurrent use.
type Sink interface {
	Send(Reply)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Reply)

// Send calls f(r).
func (f SinkFunc) Send(r Reply) { f(r) }
