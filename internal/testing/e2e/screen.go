package e2e

import (
	"regexp"
	"strings"
)

// ansiEscape matches CSI sequences, including private modes like ?1049h
var ansiEscape = regexp.MustCompile(`\x1b\[[?0-9;]*[a-zA-Z]`)

// StripANSI removes all ANSI escape codes from a string
func StripANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}

// Screen is a virtual terminal that replays captured output, so tests
// can assert on what is visible rather than on everything ever written.
type Screen struct {
	rows, cols int
	buffer     [][]rune
	x, y       int
}

// NewScreen creates a blank screen
func NewScreen(rows, cols int) *Screen {
	s := &Screen{rows: rows, cols: cols, buffer: make([][]rune, rows)}
	for i := range s.buffer {
		s.buffer[i] = blankLine(cols)
	}
	return s
}

func blankLine(cols int) []rune {
	line := make([]rune, cols)
	for i := range line {
		line[i] = ' '
	}
	return line
}

// Replay applies output to the screen
func (s *Screen) Replay(output string) *Screen {
	runes := []rune(output)
	for i := 0; i < len(runes); {
		switch r := runes[i]; {
		case r == '\x1b' && i+1 < len(runes) && runes[i+1] == '[':
			i = s.csi(runes, i+2)
		case r == '\r':
			s.x = 0
			i++
		case r == '\n':
			s.newline()
			i++
		default:
			s.put(r)
			i++
		}
	}
	return s
}

// csi handles one control sequence starting after "ESC [" and returns
// the index following it.
func (s *Screen) csi(runes []rune, i int) int {
	private := i < len(runes) && runes[i] == '?'
	if private {
		i++
	}

	var params []int
	current := 0
	for ; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r >= '0' && r <= '9':
			current = current*10 + int(r-'0')
		case r == ';':
			params = append(params, current)
			current = 0
		default:
			params = append(params, current)
			if !private {
				s.command(r, params)
			} else if r == 'h' && params[0] == 1049 {
				s.clear() // alternate screen starts blank
			}
			return i + 1
		}
	}
	return i
}

func (s *Screen) command(cmd rune, params []int) {
	arg := func(def int) int {
		if len(params) > 0 && params[0] > 0 {
			return params[0]
		}
		return def
	}

	switch cmd {
	case 'H', 'f':
		s.y = arg(1) - 1
		s.x = 0
		if len(params) > 1 && params[1] > 0 {
			s.x = params[1] - 1
		}
	case 'J':
		switch params[0] {
		case 0:
			s.clearLineFrom(s.x)
			for y := s.y + 1; y < s.rows; y++ {
				s.buffer[y] = blankLine(s.cols)
			}
		case 2:
			s.clear()
		}
	case 'K':
		s.clearLineFrom(s.x)
	case 'A':
		s.y = max(0, s.y-arg(1))
	case 'B':
		s.y = min(s.rows-1, s.y+arg(1))
	}
}

func (s *Screen) put(r rune) {
	if s.y < 0 || s.y >= s.rows {
		return
	}
	if s.x >= s.cols {
		s.newline()
	}
	s.buffer[s.y][s.x] = r
	s.x++
}

func (s *Screen) newline() {
	s.x = 0
	s.y++
	if s.y >= s.rows {
		copy(s.buffer, s.buffer[1:])
		s.buffer[s.rows-1] = blankLine(s.cols)
		s.y = s.rows - 1
	}
}

func (s *Screen) clear() {
	for i := range s.buffer {
		s.buffer[i] = blankLine(s.cols)
	}
}

func (s *Screen) clearLineFrom(x int) {
	if s.y < 0 || s.y >= s.rows {
		return
	}
	for j := x; j < s.cols; j++ {
		s.buffer[s.y][j] = ' '
	}
}

// Render returns the visible text, trailing blanks trimmed
func (s *Screen) Render() string {
	lines := make([]string, len(s.buffer))
	for i, row := range s.buffer {
		lines[i] = strings.TrimRight(string(row), " ")
	}
	return strings.Join(lines, "\n")
}
