package voice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/mattn/go-shellwords"
)

// Command is a parsed command template. Tokens {file}, {text}, {lang} and
// {voice} are substituted per run.
type Command struct {
	argv []string
}

// ParseCommand parses a shell-quoted command line such as
// `ffplay -nodisp -autoexit -loglevel quiet {file}`.
func ParseCommand(line string) (Command, error) {
	argv, err := shellwords.Parse(line)
	if err != nil {
		return Command{}, fmt.Errorf("parse command %q: %w", line, err)
	}
	if len(argv) == 0 {
		return Command{}, errors.New("empty command")
	}
	return Command{argv: argv}, nil
}

// IsZero reports whether no command was configured.
func (c Command) IsZero() bool { return len(c.argv) == 0 }

// Available reports whether the program is on PATH.
func (c Command) Available() bool {
	if c.IsZero() {
		return false
	}
	_, err := exec.LookPath(c.argv[0])
	return err == nil
}

// Expand substitutes vars into the template. When the template has no
// placeholder for primary, its value is appended as the last argument.
func (c Command) Expand(primary string, vars map[string]string) []string {
	out := make([]string, 0, len(c.argv)+1)
	used := false
	for _, a := range c.argv {
		for k, v := range vars {
			token := "{" + k + "}"
			if strings.Contains(a, token) {
				a = strings.ReplaceAll(a, token, v)
				if k == primary {
					used = true
				}
			}
		}
		out = append(out, a)
	}
	if !used {
		out = append(out, vars[primary])
	}
	return out
}

// processPlayback is a Playback backed by an external process.
type processPlayback struct {
	cmd     *exec.Cmd
	done    chan error
	cleanup func()

	mu      sync.Mutex
	stopped bool
}

func startProcess(ctx context.Context, argv []string, cleanup func()) (*processPlayback, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		if cleanup != nil {
			cleanup()
		}
		return nil, fmt.Errorf("start %s: %w", argv[0], err)
	}
	p := &processPlayback{cmd: cmd, done: make(chan error, 1), cleanup: cleanup}
	go func() {
		err := cmd.Wait()
		if p.cleanup != nil {
			p.cleanup()
		}
		p.mu.Lock()
		if p.stopped {
			err = nil
		}
		p.mu.Unlock()
		if err != nil {
			err = fmt.Errorf("%s exited: %w", argv[0], err)
		}
		p.done <- err
	}()
	return p, nil
}

func (p *processPlayback) Done() <-chan error { return p.done }

func (p *processPlayback) Stop() error {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	// A stopped child cannot act on SIGKILL until continued on some systems.
	_ = resumeProcess(p.cmd.Process)
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

func (p *processPlayback) Pause() error  { return pauseProcess(p.cmd.Process) }
func (p *processPlayback) Resume() error { return resumeProcess(p.cmd.Process) }

// writeTemp stores audio in a temp file and returns its path with a
// matching cleanup func.
func writeTemp(audio []byte, ext string) (string, func(), error) {
	f, err := os.CreateTemp("", "explainer-speech-*."+ext)
	if err != nil {
		return "", nil, fmt.Errorf("create temp audio: %w", err)
	}
	name := f.Name()
	if _, err := f.Write(audio); err != nil {
		f.Close()
		os.Remove(name)
		return "", nil, fmt.Errorf("write temp audio: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", nil, err
	}
	return name, func() { os.Remove(name) }, nil
}
