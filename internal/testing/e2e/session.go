package e2e

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"
)

// SessionConfig describes a program to run under a pseudo terminal
type SessionConfig struct {
	Command string
	Args    []string
	WorkDir string
	Env     []string

	// Terminal size
	Rows uint16
	Cols uint16

	// Timeout for the entire session
	Timeout time.Duration
}

// Session runs a terminal program under a PTY and captures its output
type Session struct {
	cmd    *exec.Cmd
	ptmx   *os.File
	cancel context.CancelFunc
	rows   int
	cols   int

	mu     sync.RWMutex
	output bytes.Buffer

	done    chan struct{}
	waitErr error
}

// Start launches the program described by config
func Start(config SessionConfig) (*Session, error) {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Rows == 0 {
		config.Rows = 30
	}
	if config.Cols == 0 {
		config.Cols = 100
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	cmd := exec.CommandContext(ctx, config.Command, config.Args...)
	cmd.Dir = config.WorkDir
	if len(config.Env) > 0 {
		cmd.Env = append(os.Environ(), config.Env...)
	}

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: config.Rows, Cols: config.Cols})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start PTY: %w", err)
	}

	s := &Session{
		cmd:    cmd,
		ptmx:   ptmx,
		cancel: cancel,
		rows:   int(config.Rows),
		cols:   int(config.Cols),
		done:   make(chan struct{}),
	}
	go s.capture()
	go func() {
		s.waitErr = cmd.Wait()
		close(s.done)
	}()
	return s, nil
}

// capture copies PTY output into the buffer until the PTY closes
func (s *Session) capture() {
	buf := make([]byte, 4096)
	for {
		n, err := s.ptmx.Read(buf)
		if n > 0 {
			s.mu.Lock()
			s.output.Write(buf[:n])
			s.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// Send writes keystrokes to the program
func (s *Session) Send(keys string) error {
	_, err := s.ptmx.Write([]byte(keys))
	return err
}

// Output returns everything captured so far
func (s *Session) Output() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.output.String()
}

// Screen replays the captured output on a virtual terminal
func (s *Session) Screen() string {
	return NewScreen(s.rows, s.cols).Replay(s.Output()).Render()
}

// WaitForScreen waits until the visible screen contains text
func (s *Session) WaitForScreen(text string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if strings.Contains(s.Screen(), text) {
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("timeout waiting for %q on screen:\n%s", text, s.Screen())
}

// Wait waits for the program to exit
func (s *Session) Wait(timeout time.Duration) error {
	select {
	case <-s.done:
		return s.waitErr
	case <-time.After(timeout):
		return fmt.Errorf("program still running after %s", timeout)
	}
}

// Close kills the program if it is still running and releases the PTY
func (s *Session) Close() {
	s.cancel()
	<-s.done
	s.ptmx.Close()
}
