// Package sink implements OutputSink: a small closed set of targets a
// pipeline stage can write its stdout/stderr to -- the terminal's stdout,
// the terminal's stderr, or a file opened in create-or-append mode.
package sink

import (
	"fmt"
	"io"
	"os"
)

// Mode is a file sink's open discipline.
type Mode int

const (
	// Create truncates (or creates) the file on open.
	Create Mode = iota
	// Append creates the file if missing and writes past its end.
	Append
)

// Sink is the capability set every output target supports. open must be
// called exactly once before the first Print, and Close exactly once after
// the owning stage finishes, regardless of outcome.
type Sink interface {
	Open() error
	Print(s string)
	Println(s string)
	Close() error
}

// Terminal targets os.Stdout or os.Stderr. Open and Close are no-ops.
type Terminal struct {
	w io.Writer
}

// Stdout returns a Sink that writes to the process's standard output.
func Stdout() *Terminal { return &Terminal{w: os.Stdout} }

// Stderr returns a Sink that writes to the process's standard error.
func Stderr() *Terminal { return &Terminal{w: os.Stderr} }

func (t *Terminal) Open() error { return nil }
func (t *Terminal) Close() error { return nil }

func (t *Terminal) Print(s string) {
	fmt.Fprint(t.w, s)
}

func (t *Terminal) Println(s string) {
	fmt.Fprintln(t.w, s)
}

// File is a sink backed by a path opened in Create or Append mode.
type File struct {
	Path string
	Mode Mode

	f *os.File
}

// NewFile returns an unopened file sink for path in the given mode.
func NewFile(path string, mode Mode) *File {
	return &File{Path: path, Mode: mode}
}

func (fs *File) Open() error {
	var f *os.File
	var err error
	switch fs.Mode {
	case Append:
		f, err = os.OpenFile(fs.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	default:
		f, err = os.Create(fs.Path)
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", fs.Path, err)
	}
	fs.f = f
	return nil
}

func (fs *File) Print(s string) {
	if fs.f != nil {
		fs.f.WriteString(s)
	}
}

func (fs *File) Println(s string) {
	fs.Print(s + "\n")
}

func (fs *File) Close() error {
	if fs.f == nil {
		return nil
	}
	err := fs.f.Close()
	fs.f = nil
	return err
}
