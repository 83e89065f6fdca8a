package reader

// Key bindings handled in handleKey.
const (
	keyQuit       = "q"
	keyCtrlC      = "ctrl+c"
	keyNext       = "n"
	keyRight      = "right"
	keyL          = "l"
	keyPrev       = "p"
	keyLeft       = "left"
	keyH          = "h"
	keyExplain    = "e"
	keyRegenerate = "r"
	keyAsk        = "a"
	keySpeak      = "s"
	keyStop       = "x"
	keyVoice      = "v"
	keyEnter      = "enter"
	keyEsc        = "esc"
)

var footerKeys = [][2]string{
	{"←/→", "move"},
	{"r", "regenerate"},
	{"a", "ask"},
	{"s", "speak"},
	{"x", "stop"},
	{"v", "voice"},
	{"q", "quit"},
}
