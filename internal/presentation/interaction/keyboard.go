package interaction

import (
	"os"
	"unicode/utf8"

	"golang.org/x/sys/unix"
)

// KeyboardReader handles keyboard input in raw mode
type KeyboardReader struct {
	oldState *unix.Termios
	input    chan KeyEvent
	stop     chan struct{}
}

// KeyEvent represents a keyboard event
type KeyEvent struct {
	Key  rune
	Type KeyType
}

// KeyType represents the type of key pressed
type KeyType int

const (
	KeyChar KeyType = iota
	KeyEscape
	KeyEnter
	KeyBackspace
	KeyTab
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyCtrlC
)

// NewKeyboardReader creates a new keyboard reader
func NewKeyboardReader() (*KeyboardReader, error) {
	kr := &KeyboardReader{
		input: make(chan KeyEvent, 10),
		stop:  make(chan struct{}),
	}

	// Set terminal to raw mode
	if err := kr.enableRawMode(); err != nil {
		return nil, err
	}

	// Start reading keyboard input
	go kr.readInput()

	return kr, nil
}

// readInput reads keyboard input in a goroutine
func (kr *KeyboardReader) readInput() {
	buf := make([]byte, 64)

	for {
		select {
		case <-kr.stop:
			return
		default:
			n, err := os.Stdin.Read(buf)
			if err != nil || n == 0 {
				continue
			}

			for data := buf[:n]; len(data) > 0; {
				event, size := parseInput(data)
				data = data[size:]
				if event == nil {
					continue
				}
				select {
				case kr.input <- *event:
				case <-kr.stop:
					return
				}
			}
		}
	}
}

// parseInput parses the first key of raw keyboard input and returns it
// with the number of bytes it used. A read may carry several keys when
// typing fast or pasting. Unknown input yields a nil event.
func parseInput(buf []byte) (*KeyEvent, int) {
	if len(buf) == 0 {
		return nil, 0
	}

	switch buf[0] {
	case 3:
		return &KeyEvent{Key: 3, Type: KeyCtrlC}, 1
	case 9:
		return &KeyEvent{Key: '\t', Type: KeyTab}, 1
	case '\r', '\n':
		return &KeyEvent{Key: '\r', Type: KeyEnter}, 1
	case 8, 127:
		return &KeyEvent{Key: 127, Type: KeyBackspace}, 1
	case 27:
		if len(buf) < 3 || (buf[1] != '[' && buf[1] != 'O') {
			return &KeyEvent{Key: 27, Type: KeyEscape}, 1
		}
		// CSI or SS3: parameter bytes, then the final byte
		i := 2
		for i < len(buf) && buf[i] >= 0x30 && buf[i] <= 0x3f {
			i++
		}
		if i == len(buf) {
			return nil, len(buf)
		}
		switch buf[i] {
		case 'A':
			return &KeyEvent{Type: KeyUp}, i + 1
		case 'B':
			return &KeyEvent{Type: KeyDown}, i + 1
		case 'C':
			return &KeyEvent{Type: KeyRight}, i + 1
		case 'D':
			return &KeyEvent{Type: KeyLeft}, i + 1
		}
		return nil, i + 1
	}

	r, size := utf8.DecodeRune(buf)
	if r == utf8.RuneError || r < 32 {
		return nil, max(size, 1)
	}
	return &KeyEvent{Key: r, Type: KeyChar}, size
}

// Events returns the keyboard event channel
func (kr *KeyboardReader) Events() <-chan KeyEvent {
	return kr.input
}

// Close stops the keyboard reader and restores terminal
func (kr *KeyboardReader) Close() error {
	close(kr.stop)
	return kr.disableRawMode()
}
