// Package pipeline implements the Pipeline Executor: it turns a lexer.Pipeline
// into running processes and/or built-in calls, wiring redirection and
// inter-stage byte streams per stage, the way a shell's eval loop does.
package pipeline

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"monogrammedchalk.com/pshell/history"
	"monogrammedchalk.com/pshell/lexer"
	"monogrammedchalk.com/pshell/sink"
)

// Logger receives trace-level detail about dispatch decisions (built-in vs
// external, buffered vs piped-through) when enabled at slog.LevelDebug --
// see SPEC_FULL.md §2.1. The driver overrides this with its own
// internal/shlog logger; tests and other callers are fine with the
// no-op-by-default slog.Default().
var Logger = slog.Default()

// ExecResult mirrors the Continue | Exit(code) outcome of running a
// pipeline. The zero value is Continue.
type ExecResult struct {
	ShouldExit bool
	Code       int
}

// Continue is the steady-state result: keep reading lines.
var Continue = ExecResult{}

// Exit builds the result that tells the driver to terminate with code.
func Exit(code int) ExecResult {
	return ExecResult{ShouldExit: true, Code: code}
}

// BuiltinNames are the commands dispatched inside the shell process rather
// than resolved against PATH.
var BuiltinNames = []string{"cd", "echo", "exit", "pwd", "type", "history"}

// IsBuiltin reports whether name names a built-in command.
func IsBuiltin(name string) bool {
	for _, b := range BuiltinNames {
		if b == name {
			return true
		}
	}
	return false
}

// streamKind discriminates the StageByteStream sum type threaded between
// adjacent stages of a pipeline.
type streamKind int

const (
	streamNone streamKind = iota
	streamBuffered
	streamChildStdout
)

// byteStream is one stage's output, in the form the next stage consumes.
type byteStream struct {
	kind        streamKind
	buffered    []byte
	childStdout io.ReadCloser
}

func (b byteStream) bytesForStdin() []byte {
	return b.buffered
}

// lineWriter is the minimal capability built-ins need to produce text,
// satisfied by both sink.Sink and an in-memory buffer collector.
type lineWriter interface {
	Print(s string)
	Println(s string)
}

type bufWriter struct{ buf strings.Builder }

func (b *bufWriter) Print(s string)   { b.buf.WriteString(s) }
func (b *bufWriter) Println(s string) { b.buf.WriteString(s); b.buf.WriteByte('\n') }

// pendingChild is an already-started external process whose completion and
// stderr flush are deferred until after the pipeline's last stage starts, so
// that no child is ever left un-Waited (no zombies).
type pendingChild struct {
	cmd        *exec.Cmd
	stderrDone <-chan []byte
	stderrSink sink.Sink
}

// Run executes pl stage by stage, threading byte streams between adjacent
// stages, and returns the ExecResult of the pipeline (Continue unless a
// built-in asked to exit). Errors that should be printed by the driver --
// lex-adjacent failures like a missing command, a bad built-in invocation,
// or a redirection-open failure -- are returned rather than printed here.
// Spawn failures for an external process are instead written directly to
// that stage's configured stderr sink and halt the remaining stages without
// being returned as an error, matching the original shell's behavior.
func Run(pl lexer.Pipeline, hist *history.History) (ExecResult, error) {
	var prev byteStream
	var pending []pendingChild
	result := Continue

	last := len(pl) - 1
	for i, stage := range pl {
		isPipedMember := len(pl) > 1
		isLast := i == last
		shouldBuffer := isPipedMember && !isLast

		argv, plan := splitRedirections(stage.Args)

		var out byteStream
		var halted bool
		var err error
		result, out, halted, err = runStage(stage.Command, argv, plan, prev, shouldBuffer, isPipedMember, isLast, hist, &pending)
		prev = out
		if err != nil {
			reap(pending)
			return Continue, err
		}
		if halted || result.ShouldExit {
			break
		}
	}

	reap(pending)
	return result, nil
}

func reap(pending []pendingChild) {
	for _, pc := range pending {
		pc.cmd.Wait()
		stderrBytes := <-pc.stderrDone
		pc.stderrSink.Open()
		pc.stderrSink.Print(string(stderrBytes))
		pc.stderrSink.Close()
	}
}

func runStage(command string, argv []string, plan Plan, prev byteStream, shouldBuffer, isPipedMember, isLast bool, hist *history.History, pending *[]pendingChild) (ExecResult, byteStream, bool, error) {
	if IsBuiltin(command) {
		Logger.Debug("dispatching builtin", "command", command, "args", argv, "buffered", shouldBuffer)
		return runBuiltin(command, argv, plan, prev, shouldBuffer, hist)
	}
	Logger.Debug("dispatching external", "command", command, "args", argv, "piped", isPipedMember, "last", isLast)
	return runExternal(command, argv, plan, prev, shouldBuffer, isPipedMember, isLast, pending)
}

// runBuiltin dispatches a built-in command. Built-ins have no stdin concept
// (see DESIGN.md's Open Question decisions), so an upstream producer's stdout pipe must be
// closed here without being read: nothing will ever consume it, and
// leaving it open lets the producer block forever on a full pipe buffer,
// which in turn blocks the later Wait() on it in reap forever. Closing the
// read end instead makes the producer's next write fail (EPIPE/SIGPIPE),
// the same way a real shell's pipeline unwinds when a downstream stage
// never reads -- this also terminates an unbounded producer like `yes`,
// which draining would not.
func runBuiltin(command string, argv []string, plan Plan, prev byteStream, shouldBuffer bool, hist *history.History) (ExecResult, byteStream, bool, error) {
	if prev.kind == streamChildStdout {
		prev.childStdout.Close()
	}

	stdout := plan.stdoutSink()
	stderr := plan.stderrSink()
	if err := stdout.Open(); err != nil {
		return Continue, byteStream{}, false, err
	}
	if err := stderr.Open(); err != nil {
		stdout.Close()
		return Continue, byteStream{}, false, err
	}
	defer stdout.Close()
	defer stderr.Close()

	var out lineWriter
	var buf *bufWriter
	if shouldBuffer {
		buf = &bufWriter{}
		out = buf
	} else {
		out = stdout
	}

	var result ExecResult
	var err error
	switch command {
	case "cd":
		result, err = cdBuiltin(argv)
	case "echo":
		result, err = echoBuiltin(argv, out)
	case "exit":
		result = exitBuiltin(argv)
	case "pwd":
		result, err = pwdBuiltin(out)
	case "type":
		result, err = typeBuiltin(argv, out)
	case "history":
		result, err = historyBuiltin(argv, out, hist)
	}

	if err != nil {
		return Continue, byteStream{}, false, err
	}
	if shouldBuffer {
		return result, byteStream{kind: streamBuffered, buffered: []byte(buf.buf.String())}, false, nil
	}
	return result, byteStream{}, false, nil
}

func runExternal(command string, argv []string, plan Plan, prev byteStream, shouldBuffer, isPipedMember, isLast bool, pending *[]pendingChild) (ExecResult, byteStream, bool, error) {
	path, ok := lookupPath(command)
	if !ok {
		return Continue, byteStream{}, false, fmt.Errorf("%s: not found", command)
	}

	cmd := exec.Command(path, argv...)

	switch {
	case isPipedMember && !isLast:
		return spawnPipelineMember(cmd, plan, prev, pending)
	case isPipedMember && isLast:
		return runTerminalStage(cmd, plan, prev)
	default:
		return runSoloStage(cmd, plan)
	}
}

// runSoloStage runs command as the only stage in the pipeline: no piped
// input, output collected and flushed to the configured sinks.
func runSoloStage(cmd *exec.Cmd, plan Plan) (ExecResult, byteStream, bool, error) {
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if err := cmd.Start(); err != nil {
		writeSpawnError(plan.stderrSink(), cmd.Path, err)
		return Continue, byteStream{}, true, nil
	}
	cmd.Wait()

	flushSink(plan.stdoutSink(), stdoutBuf.String())
	flushSink(plan.stderrSink(), stderrBuf.String())
	return Continue, byteStream{}, false, nil
}

// spawnPipelineMember starts command as a non-terminal pipeline stage: its
// stdin is fed from prev, its stdout is handed to the next stage as a
// ChildStdout stream, and its stderr/exit are collected asynchronously and
// deferred via pending so the loop can move straight to the next stage.
func spawnPipelineMember(cmd *exec.Cmd, plan Plan, prev byteStream, pending *[]pendingChild) (ExecResult, byteStream, bool, error) {
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return Continue, byteStream{}, false, err
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return Continue, byteStream{}, false, err
	}

	var stdinPipe io.WriteCloser
	if prev.kind == streamChildStdout {
		cmd.Stdin = prev.childStdout
	} else if prev.kind == streamBuffered {
		stdinPipe, err = cmd.StdinPipe()
		if err != nil {
			return Continue, byteStream{}, false, err
		}
	}

	if err := cmd.Start(); err != nil {
		writeSpawnError(plan.stderrSink(), cmd.Path, err)
		return Continue, byteStream{}, true, nil
	}

	if stdinPipe != nil {
		data := prev.bytesForStdin()
		go func() {
			stdinPipe.Write(data)
			stdinPipe.Close()
		}()
	}

	stderrDone := make(chan []byte, 1)
	go func() {
		b, _ := io.ReadAll(stderrPipe)
		stderrDone <- b
	}()

	*pending = append(*pending, pendingChild{cmd: cmd, stderrDone: stderrDone, stderrSink: plan.stderrSink()})
	return Continue, byteStream{kind: streamChildStdout, childStdout: stdoutPipe}, false, nil
}

// runTerminalStage runs command as the last stage of a multi-stage
// pipeline: stdin fed from prev, stdout/stderr collected and flushed to the
// configured sinks.
func runTerminalStage(cmd *exec.Cmd, plan Plan, prev byteStream) (ExecResult, byteStream, bool, error) {
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	var stdinPipe io.WriteCloser
	var err error
	if prev.kind == streamChildStdout {
		cmd.Stdin = prev.childStdout
	} else if prev.kind == streamBuffered {
		stdinPipe, err = cmd.StdinPipe()
		if err != nil {
			return Continue, byteStream{}, false, err
		}
	}

	if err := cmd.Start(); err != nil {
		writeSpawnError(plan.stderrSink(), cmd.Path, err)
		return Continue, byteStream{}, true, nil
	}

	if stdinPipe != nil {
		data := prev.bytesForStdin()
		stdinPipe.Write(data)
		stdinPipe.Close()
	}
	cmd.Wait()

	flushSink(plan.stdoutSink(), stdoutBuf.String())
	flushSink(plan.stderrSink(), stderrBuf.String())
	return Continue, byteStream{}, false, nil
}

func flushSink(s sink.Sink, text string) {
	s.Open()
	s.Print(text)
	s.Close()
}

func writeSpawnError(s sink.Sink, path string, err error) {
	s.Open()
	s.Println(fmt.Sprintf("%s: %s", path, err))
	s.Close()
}

// lookupPath searches the colon-separated PATH for an entry named name,
// mirroring the original shell's plain existence check (no executable-bit
// requirement; the editor's completion source, by contrast, only lists
// files with the owner-execute bit set).
func lookupPath(name string) (string, bool) {
	if strings.Contains(name, string(os.PathSeparator)) {
		if _, err := os.Stat(name); err == nil {
			return name, true
		}
		return "", false
	}
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}

func cdBuiltin(args []string) (ExecResult, error) {
	var dir, shown string
	switch len(args) {
	case 0:
		dir = os.Getenv("HOME")
		if dir == "" {
			return Continue, fmt.Errorf("cd: $HOME is not set")
		}
		shown = dir
	case 1:
		if args[0] == "~" {
			dir = os.Getenv("HOME")
			if dir == "" {
				return Continue, fmt.Errorf("cd: $HOME is not set")
			}
			shown = dir
		} else {
			dir = args[0]
			shown = args[0]
		}
	default:
		return Continue, fmt.Errorf("cd: too many arguments")
	}

	if err := os.Chdir(dir); err != nil {
		return Continue, fmt.Errorf("cd: %s: No such file or directory", shown)
	}
	return Continue, nil
}

func echoBuiltin(args []string, out lineWriter) (ExecResult, error) {
	out.Println(strings.Join(args, " "))
	return Continue, nil
}

func exitBuiltin(args []string) ExecResult {
	code := 0
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			code = n
		} else {
			code = 1
		}
	}
	return Exit(code)
}

func pwdBuiltin(out lineWriter) (ExecResult, error) {
	wd, err := os.Getwd()
	if err != nil {
		return Continue, err
	}
	out.Println(wd)
	return Continue, nil
}

func typeBuiltin(args []string, out lineWriter) (ExecResult, error) {
	if len(args) == 0 {
		return Continue, fmt.Errorf("type: missing argument")
	}
	name := args[0]
	if IsBuiltin(name) {
		out.Println(name + " is a shell builtin")
		return Continue, nil
	}
	path, ok := lookupPath(name)
	if !ok {
		return Continue, fmt.Errorf("%s: not found", name)
	}
	out.Println(name + " is " + path)
	return Continue, nil
}

func historyBuiltin(args []string, out lineWriter, hist *history.History) (ExecResult, error) {
	if len(args) == 0 {
		printHistory(out, hist.All(), 1)
		return Continue, nil
	}

	if args[0] == "-r" {
		if len(args) < 2 {
			return Continue, fmt.Errorf("history: syntax: history -r <path_to_history_file>")
		}
		if err := hist.Load(args[1]); err != nil {
			return Continue, fmt.Errorf("history: %w", err)
		}
		return Continue, nil
	}

	n, err := strconv.Atoi(args[0])
	if err != nil {
		return Continue, fmt.Errorf("history: %s: numeric argument required", args[0])
	}
	all := hist.All()
	last := hist.Last(n)
	startIdx := len(all) - len(last) + 1
	printHistory(out, last, startIdx)
	return Continue, nil
}

// printHistory renders entries right-aligned in a 5-column index field,
// starting the count at startIdx -- preserving each entry's original
// 1-based position rather than renumbering from 1 (see DESIGN.md's Open
// Question decisions).
func printHistory(out lineWriter, entries []string, startIdx int) {
	for i, e := range entries {
		out.Println(fmt.Sprintf("%5d  %s", startIdx+i, e))
	}
}
