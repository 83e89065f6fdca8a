// Package reader is the terminal front end: a bubbletea model that walks a
// live session chunk by chunk, shows explanations and answers, and reads
// them aloud on request.
package reader

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/apperr"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/session"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/pkg/protocol"
)

const (
	headerHeight = 2
	footerHeight = 2
)

// Controller is the part of *session.Controller the reader drives.
type Controller interface {
	Snapshot() *session.Session
	Next() (*session.Session, error)
	Previous() (*session.Session, error)
	Explain(ctx context.Context, regenerate bool) (*session.Turn, error)
	Ask(ctx context.Context, question string) (*session.QA, error)
	Speak(ctx context.Context, text string) error
	StopSpeaking()
}

// Events forwards controller events into the program. It satisfies
// session.EventSink; events are dropped while the buffer is full.
type Events struct{ ch chan string }

func NewEvents() *Events { return &Events{ch: make(chan string, 64)} }

func (e *Events) Emit(name string, _ any) {
	select {
	case e.ch <- name:
	default:
	}
}

// Options configures a Model.
type Options struct {
	Title string
	Voice bool // read every explanation aloud
}

// Model is the root bubbletea model.
type Model struct {
	ctx    context.Context
	ctl    Controller
	events <-chan string
	title  string

	snap  *session.Session
	voice bool
	busy  string
	err   string

	asking bool
	input  textinput.Model
	vp     viewport.Model
	width  int
	ready  bool
}

// New creates a Model over a controller whose session is already started.
func New(ctx context.Context, ctl Controller, events *Events, opts Options) Model {
	in := textinput.New()
	in.Placeholder = "Ask about this part..."
	in.Prompt = "? "
	in.CharLimit = 500

	return Model{
		ctx:    ctx,
		ctl:    ctl,
		events: events.ch,
		title:  opts.Title,
		voice:  opts.Voice,
		snap:   ctl.Snapshot(),
		input:  in,
		vp:     viewport.New(80, 20),
		busy:   "explaining",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitEvent(m.events), explainCmd(m.ctx, m.ctl, false))
}

func waitEvent(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		name, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg{name: name}
	}
}

func explainCmd(ctx context.Context, ctl Controller, regenerate bool) tea.Cmd {
	return func() tea.Msg {
		turn, err := ctl.Explain(ctx, regenerate)
		return explainedMsg{turn: turn, err: err}
	}
}

func askCmd(ctx context.Context, ctl Controller, q string) tea.Cmd {
	return func() tea.Msg {
		qa, err := ctl.Ask(ctx, q)
		return answeredMsg{qa: qa, err: err}
	}
}

func speakCmd(ctx context.Context, ctl Controller, text string) tea.Cmd {
	return func() tea.Msg {
		return spokeMsg{err: ctl.Speak(ctx, text)}
	}
}

func navCmd(ctl Controller, forward bool) tea.Cmd {
	return func() tea.Msg {
		ctl.StopSpeaking()
		var err error
		if forward {
			_, err = ctl.Next()
		} else {
			_, err = ctl.Previous()
		}
		return navigatedMsg{err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.vp.Width = msg.Width
		m.vp.Height = max(1, msg.Height-headerHeight-footerHeight)
		m.input.Width = max(10, msg.Width-4)
		m.ready = true
		m.render()
		return m, nil

	case tea.KeyMsg:
		if m.asking {
			return m.updateAsking(msg)
		}
		return m.handleKey(msg)

	case eventMsg:
		m.snap = m.ctl.Snapshot()
		cmds := []tea.Cmd{waitEvent(m.events)}
		if msg.name == protocol.EventChunkChanged {
			m.vp.GotoTop()
			m.err = ""
			m.busy = "explaining"
			cmds = append(cmds, explainCmd(m.ctx, m.ctl, false))
		}
		m.render()
		return m, tea.Batch(cmds...)

	case explainedMsg:
		m.busy = ""
		if msg.err != nil {
			m.err = apperr.UserMessage(msg.err)
			return m, nil
		}
		m.snap = m.ctl.Snapshot()
		m.render()
		if m.voice && m.snap != nil && msg.turn.ChunkIndex == m.snap.CurrentIndex {
			return m, speakCmd(m.ctx, m.ctl, msg.turn.Explanation)
		}
		return m, nil

	case answeredMsg:
		m.busy = ""
		if msg.err != nil {
			m.err = apperr.UserMessage(msg.err)
			return m, nil
		}
		m.snap = m.ctl.Snapshot()
		m.render()
		m.vp.GotoBottom()
		if m.voice {
			return m, speakCmd(m.ctx, m.ctl, msg.qa.Answer)
		}
		return m, nil

	case navigatedMsg:
		if msg.err != nil {
			m.err = apperr.UserMessage(msg.err)
		}
		return m, nil

	case spokeMsg:
		if msg.err != nil {
			m.err = "speech: " + apperr.UserMessage(msg.err)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyQuit, keyCtrlC:
		m.ctl.StopSpeaking()
		return m, tea.Quit
	case keyNext, keyRight, keyL:
		return m, navCmd(m.ctl, true)
	case keyPrev, keyLeft, keyH:
		return m, navCmd(m.ctl, false)
	case keyExplain, keyRegenerate:
		if m.busy != "" {
			return m, nil
		}
		m.busy, m.err = "explaining", ""
		return m, explainCmd(m.ctx, m.ctl, msg.String() == keyRegenerate)
	case keyAsk:
		m.asking = true
		m.input.Reset()
		return m, m.input.Focus()
	case keySpeak:
		text := m.currentExplanation()
		if text == "" {
			m.err = "nothing to speak yet"
			return m, nil
		}
		return m, speakCmd(m.ctx, m.ctl, text)
	case keyStop:
		m.ctl.StopSpeaking()
		return m, nil
	case keyVoice:
		m.voice = !m.voice
		if !m.voice {
			m.ctl.StopSpeaking()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m Model) updateAsking(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyEsc:
		m.asking = false
		m.input.Blur()
		return m, nil
	case keyEnter:
		q := strings.TrimSpace(m.input.Value())
		m.asking = false
		m.input.Blur()
		if q == "" {
			return m, nil
		}
		m.busy, m.err = "thinking", ""
		return m, askCmd(m.ctx, m.ctl, q)
	case keyCtrlC:
		m.ctl.StopSpeaking()
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) currentExplanation() string {
	if m.snap == nil {
		return ""
	}
	return m.snap.Explanations[m.snap.CurrentIndex]
}

// render rebuilds the viewport content from the snapshot.
func (m *Model) render() {
	m.vp.SetContent(m.body(max(20, m.vp.Width-2)))
}

func (m Model) body(width int) string {
	s := m.snap
	if s == nil {
		return statusStyle.Render("No article loaded.")
	}
	idx := s.CurrentIndex
	var b strings.Builder

	b.WriteString(chunkStyle.Render(wrap(s.Chunks[idx], width)))
	b.WriteString("\n\n")
	b.WriteString(dividerStyle.Render(strings.Repeat("─", width)))
	b.WriteString("\n\n")

	if text, ok := s.Explanations[idx]; ok {
		b.WriteString(labelStyle.Render("Explanation"))
		b.WriteString("\n")
		b.WriteString(wrap(text, width))
	} else {
		b.WriteString(statusStyle.Render("Press e to explain this part."))
	}

	for _, qa := range s.Questions {
		if qa.ChunkIndex != idx {
			continue
		}
		b.WriteString("\n\n")
		b.WriteString(questionStyle.Render(wrap("Q: "+qa.Question, width)))
		b.WriteString("\n")
		b.WriteString(wrap(qa.Answer, width))
	}
	return b.String()
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	return m.header() + "\n" + m.vp.View() + "\n" + m.footer()
}

func (m Model) header() string {
	var parts []string
	if m.snap != nil {
		parts = append(parts, fmt.Sprintf("%d/%d", m.snap.CurrentIndex+1, len(m.snap.Chunks)))
		if m.snap.AuthorName != "" {
			style := "style pending"
			if m.snap.StyleProfile != nil {
				style = "style on"
			}
			parts = append(parts, m.snap.AuthorName+" ("+style+")")
		}
		parts = append(parts, m.snap.Language)
	}
	if m.voice {
		parts = append(parts, "voice on")
	}
	plain := strings.Join(parts, " · ")
	status := statusStyle.Render(plain)
	if m.snap != nil && m.snap.IsSpeaking {
		status += " " + speakingStyle.Render("● speaking")
	}
	if m.busy != "" {
		status += " " + statusStyle.Render(m.busy+"...")
	}

	title := m.title
	if title == "" {
		title = "explainer"
	}
	room := m.width - runewidth.StringWidth(plain) - 8
	title = runewidth.Truncate(title, max(10, room), "…")
	return titleStyle.Render(title) + "  " + status + "\n" + dividerStyle.Render(strings.Repeat("─", max(1, m.width)))
}

func (m Model) footer() string {
	if m.asking {
		return m.input.View() + "\n" + keyDescStyle.Render("enter send · esc cancel")
	}
	line := ""
	if m.err != "" {
		line = errorStyle.Render(m.err)
	}
	keys := make([]string, len(footerKeys))
	for i, k := range footerKeys {
		keys[i] = keyStyle.Render(k[0]) + " " + keyDescStyle.Render(k[1])
	}
	return line + "\n" + strings.Join(keys, "  ")
}
