package protocol

// WebSocket event names pushed from server to client.
const (
	EventSessionStarted        = "session.started"
	EventSessionReset          = "session.reset"
	EventChunkChanged          = "chunk.changed"
	EventExplanationGenerating = "explanation.generating"
	EventExplanationReady      = "explanation.ready"
	EventExplanationFailed     = "explanation.failed"
	EventQuestionAnswered      = "question.answered"
	EventStyleAttached         = "style.attached"
	EventVoiceState            = "voice.state"
	EventShutdown              = "shutdown"
)
