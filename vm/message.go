package vm

// MessageLevel classifies a Message for the TUI's message strip.
type MessageLevel int

const (
	// LevelInfo is a plain informational message.
	LevelInfo MessageLevel = iota
	// LevelError marks a failed command or execution error.
	LevelError
	// LevelBold marks an emphasized message (e.g. help text headers).
	LevelBold
)

// Message is one line pushed to the control loop's message log, drained
// by the TUI's message strip.
type Message struct {
	Level MessageLevel
	Text  string
}

// InfoMessage constructs an info-level message.
func InfoMessage(text string) Message {
	return Message{Level: LevelInfo, Text: text}
}

// ErrorMessage constructs an error-level message.
func ErrorMessage(text string) Message {
	return Message{Level: LevelError, Text: text}
}

// BoldMessage constructs a bold/emphasized message.
func BoldMessage(text string) Message {
	return Message{Level: LevelBold, Text: text}
}
