package pipeline

import "monogrammedchalk.com/pshell/sink"

// Redirect names a single file target and the mode it should be opened in.
type Redirect struct {
	Path string
	Mode sink.Mode
}

// Plan is the result of scanning a Stage's argv for redirection operators:
// an optional stdout target and an optional stderr target. A nil field
// means "use the default terminal stream".
type Plan struct {
	Stdout *Redirect
	Stderr *Redirect
}

// redirectTokens maps each recognized operator to the stream it targets and
// the mode it opens that stream in.
var redirectTokens = map[string]struct {
	stderr bool
	mode   sink.Mode
}{
	">":   {stderr: false, mode: sink.Create},
	"1>":  {stderr: false, mode: sink.Create},
	">>":  {stderr: false, mode: sink.Append},
	"1>>": {stderr: false, mode: sink.Append},
	"2>":  {stderr: true, mode: sink.Create},
	"2>>": {stderr: true, mode: sink.Append},
}

// splitRedirections scans args left to right for redirection operators
// followed by a target path, stripping both from the returned argv and
// recording the (possibly repeated) targets in a Plan. The final argv
// element is never treated as an operator, since it can't have a following
// path. Later redirections of the same stream overwrite earlier ones.
func splitRedirections(args []string) ([]string, Plan) {
	var plan Plan
	stripped := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if i < len(args)-1 {
			if op, ok := redirectTokens[arg]; ok {
				target := &Redirect{Path: args[i+1], Mode: op.mode}
				if op.stderr {
					plan.Stderr = target
				} else {
					plan.Stdout = target
				}
				i++
				continue
			}
		}
		stripped = append(stripped, arg)
	}

	return stripped, plan
}

// stdoutSink returns the Sink the plan's stdout target describes, or the
// terminal's stdout if none was given.
func (p Plan) stdoutSink() sink.Sink {
	if p.Stdout == nil {
		return sink.Stdout()
	}
	return sink.NewFile(p.Stdout.Path, p.Stdout.Mode)
}

// stderrSink returns the Sink the plan's stderr target describes, or the
// terminal's stderr if none was given.
func (p Plan) stderrSink() sink.Sink {
	if p.Stderr == nil {
		return sink.Stderr()
	}
	return sink.NewFile(p.Stderr.Path, p.Stderr.Mode)
}
