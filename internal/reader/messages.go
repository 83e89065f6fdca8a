package reader

import "github.com/shivaam-bhati/Conversational-Article-Explainer/internal/session"

// eventMsg carries a session event name from the controller's sink.
type eventMsg struct{ name string }

type explainedMsg struct {
	turn *session.Turn
	err  error
}

type answeredMsg struct {
	qa  *session.QA
	err error
}

type navigatedMsg struct{ err error }

type spokeMsg struct{ err error }
