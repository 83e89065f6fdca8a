package protocol

// RPC method names accepted by the session gateway.
const (
	MethodConnect = "connect"
	MethodPing    = "ping"

	MethodSessionStart          = "session.start"
	MethodSessionGoTo           = "session.goto"
	MethodSessionNext           = "session.next"
	MethodSessionPrevious       = "session.previous"
	MethodSessionExplain        = "session.explain"
	MethodSessionAsk            = "session.ask"
	MethodSessionUtterance      = "session.utterance"
	MethodSessionSpeech         = "session.speech"
	MethodSessionSpeechComplete = "session.speechComplete"
	MethodSessionSpeaking       = "session.speaking"
	MethodSessionListening      = "session.listening"
	MethodSessionSnapshot       = "session.snapshot"
	MethodSessionReset          = "session.reset"
)
