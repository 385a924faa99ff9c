// Package editor implements the raw-mode line editor: a single mutable
// EditBuffer with a history cursor, tab completion, and a keystroke table
// of Enter, printable runes, Backspace, Tab, Up/Down, Ctrl-C (discard the
// line and re-prompt) and Ctrl-D (end of input on an empty line), with
// every other key a no-op.
package editor

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"monogrammedchalk.com/pshell/history"
)

const bell = "\a"

// EditBuffer is the mutable line under construction plus the cursor into
// history that Up/Down walk.
type EditBuffer struct {
	text         string
	historyCursor int // index into history.All(), len(all) means "not browsing"
}

// Editor reads one line at a time from an interactive terminal, echoing
// keystrokes and handling history recall and tab completion itself (raw
// mode disables the kernel's own line discipline).
type Editor struct {
	in     *os.File
	out    io.Writer
	hist   *history.History
	prompt string

	buf     EditBuffer
	matches []string // non-nil between the first and second Tab on an ambiguous prefix
}

// New returns an Editor reading from in and echoing to out.
func New(in *os.File, out io.Writer, hist *history.History, prompt string) *Editor {
	return &Editor{in: in, out: out, hist: hist, prompt: prompt}
}

// ReadLine prints the prompt, reads keystrokes in raw mode until Enter, and
// returns the resulting line. io.EOF is returned on Ctrl-D with an empty
// buffer.
func (e *Editor) ReadLine() (string, error) {
	fd := int(e.in.Fd())

	if !term.IsTerminal(fd) {
		return e.readLinePlain()
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return "", fmt.Errorf("editor: enter raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	e.buf = EditBuffer{historyCursor: e.hist.Size()}
	e.matches = nil
	fmt.Fprint(e.out, e.prompt)

	reader := bufio.NewReader(e.in)
	for {
		r, _, err := reader.ReadRune()
		if err != nil {
			if e.buf.text == "" {
				return "", io.EOF
			}
			return "", err
		}

		switch r {
		case '\r', '\n':
			fmt.Fprint(e.out, "\r\n")
			return e.buf.text, nil
		case 127, '\b':
			e.clearMatches()
			e.backspace()
		case '\t':
			e.handleTab()
			continue
		case 3: // Ctrl-C
			fmt.Fprint(e.out, "\r\n")
			e.buf = EditBuffer{historyCursor: e.hist.Size()}
			fmt.Fprint(e.out, e.prompt)
			continue
		case 4: // Ctrl-D
			if e.buf.text == "" {
				return "", io.EOF
			}
			continue
		case 27: // ESC: look for arrow-key sequences ESC [ A/B
			if e.handleEscapeSequence(reader) {
				continue
			}
			e.clearMatches()
			continue
		default:
			if r < 32 {
				// other control characters: no-op
				continue
			}
			e.clearMatches()
			e.insert(r)
		}
	}
}

func (e *Editor) readLinePlain() (string, error) {
	reader := bufio.NewReader(e.in)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line, nil
}

func (e *Editor) handleEscapeSequence(reader *bufio.Reader) bool {
	b1, err := reader.ReadByte()
	if err != nil || b1 != '[' {
		return false
	}
	b2, err := reader.ReadByte()
	if err != nil {
		return false
	}
	switch b2 {
	case 'A':
		e.clearMatches()
		e.historyUp()
	case 'B':
		e.clearMatches()
		e.historyDown()
	default:
		return false
	}
	return true
}

func (e *Editor) insert(r rune) {
	e.buf.text += string(r)
	fmt.Fprint(e.out, string(r))
}

func (e *Editor) backspace() {
	if len(e.buf.text) == 0 {
		return
	}
	runes := []rune(e.buf.text)
	e.buf.text = string(runes[:len(runes)-1])
	fmt.Fprint(e.out, "\b \b")
}

func (e *Editor) replaceLine(newText string) {
	// erase the current line's visible text, then draw the new one
	for range e.buf.text {
		fmt.Fprint(e.out, "\b \b")
	}
	e.buf.text = newText
	fmt.Fprint(e.out, newText)
}

// historyUp recalls the previous (older) history entry, guarding against
// underflow at the oldest entry.
func (e *Editor) historyUp() {
	if e.hist.Size() == 0 {
		fmt.Fprint(e.out, bell)
		return
	}
	if e.buf.historyCursor == 0 {
		fmt.Fprint(e.out, bell)
		return
	}
	e.buf.historyCursor--
	e.replaceLine(e.hist.At(e.buf.historyCursor))
}

// historyDown recalls the next (newer) history entry, or clears the buffer
// once the cursor walks past the newest entry. Guarded against underflow
// when history is empty (see DESIGN.md's Open Question decisions on the
// original's empty-history Down-arrow bug).
func (e *Editor) historyDown() {
	size := e.hist.Size()
	if size == 0 {
		fmt.Fprint(e.out, bell)
		return
	}
	if e.buf.historyCursor >= size {
		fmt.Fprint(e.out, bell)
		return
	}
	e.buf.historyCursor++
	if e.buf.historyCursor >= size {
		e.replaceLine("")
		return
	}
	e.replaceLine(e.hist.At(e.buf.historyCursor))
}

func (e *Editor) clearMatches() {
	e.matches = nil
}

// printMatchColumns lists cands wrapped to the terminal's current width
// (falling back to 80 columns when the width can't be determined, e.g. the
// editor isn't attached to a real terminal), one gap between columns.
func (e *Editor) printMatchColumns(cands []string) {
	width := 80
	if w, _, err := term.GetSize(int(e.in.Fd())); err == nil && w > 0 {
		width = w
	}

	col := 0
	for i, c := range cands {
		entry := c
		if i < len(cands)-1 {
			entry += "  "
		}
		if col > 0 && col+len(entry) > width {
			fmt.Fprint(e.out, "\r\n")
			col = 0
		}
		fmt.Fprint(e.out, entry)
		col += len(entry)
	}
	fmt.Fprint(e.out, "\r\n")
}

// handleTab implements the two-press completion protocol: zero matches
// rings the bell; exactly one match replaces the whole buffer and appends a
// trailing space; two or more matches extend the buffer to their longest
// common prefix if that is longer than the buffer, otherwise ring the bell;
// either way the next consecutive Tab prints the match list. Any other
// keypress clears the pending match set.
func (e *Editor) handleTab() {
	word := e.buf.text
	cands := candidates(word)

	switch len(cands) {
	case 0:
		fmt.Fprint(e.out, bell)
		e.matches = nil
	case 1:
		e.replaceLine(cands[0] + " ")
		e.matches = nil
	default:
		prefix := commonPrefix(cands)
		if len(prefix) > len(word) {
			e.replaceLine(prefix)
			e.matches = cands
			return
		}
		if e.matches != nil {
			fmt.Fprint(e.out, "\r\n")
			e.printMatchColumns(cands)
			fmt.Fprint(e.out, e.prompt, e.buf.text)
			e.matches = nil
		} else {
			fmt.Fprint(e.out, bell)
			e.matches = cands
		}
	}
}
