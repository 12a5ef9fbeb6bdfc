package engine

import "context"

// Button is one inline choice offered to the user. Intent is what the
// press means; the transport adapter encodes it onto the wire and
// parses it back before handing the press to the engine.
type Button struct {
	Label  string
	Intent Intent
}

// Markup is an inline keyboard, rows of buttons.
type Markup [][]Button

// Poll is an inbound authoring submission, a quiz-type poll the user
// created in the chat.
type Poll struct {
	Question      string
	Options       []string
	CorrectOption int
	Explanation   string
	Anonymous     bool
}

// Transport is the messaging side the engine talks through. Message
// identifiers are opaque to the engine and only round-trip into Edit
// and Delete. Implementations own parse mode and keyboard encoding.
type Transport interface {
	Send(ctx context.Context, chatID int64, text string, markup Markup) (msgID int, err error)
	Edit(ctx context.Context, chatID int64, msgID int, text string) error
	Delete(ctx context.Context, chatID int64, msgID int) error

	// SendQuizPoll delivers a timed quiz poll and returns the poll ID
	// answers will reference. An empty explanation attaches none.
	SendQuizPoll(ctx context.Context, chatID int64, question string, options []string,
		correctOption, openSeconds int, explanation string) (pollID string, err error)
}
