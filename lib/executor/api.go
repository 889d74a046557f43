package executor

import (
	"io"
	"strings"
	"sync"

	"github.com/arch-suite/arch-suite/lib/log"
)

// Command is a structured command invocation. Arguments are passed as a
// vector and are never interpreted by a shell.
type Command struct {
	Name        string
	Args        []string
	Chroot      string    // If set, the command runs chrooted into this directory.
	Dir         string    // Working directory (inside Chroot, if set).
	Env         []string  // Extra environment variables, "KEY=value".
	Stdin       io.Reader // Optional.
	Output      io.Writer // Optional. Receives a copy of stdout and stderr.
	Interactive bool      // Attach to the terminal. Nothing is captured.
}

// String returns the command line, for logging and matching.
func (c Command) String() string {
	if len(c.Args) < 1 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// ExitError is returned when a command ran but exited with a non-zero
// status.
type ExitError struct {
	Command Command
	Result  *Result
}

func (e *ExitError) Error() string {
	return exitErrorString(e)
}

// Executor runs commands. Implementations must not retry and must not mask
// a non-zero exit.
type Executor interface {
	Execute(cmd Command) (*Result, error)
}

type Local struct {
	dryRun bool
	logger log.DebugLogger
}

// New returns an Executor which runs commands on the local host. In dry run
// mode commands are logged and reported as successful without running.
func New(logger log.DebugLogger, dryRun bool) *Local {
	return &Local{dryRun: dryRun, logger: logger}
}

func (e *Local) Execute(cmd Command) (*Result, error) {
	return e.execute(cmd)
}

// Run runs name with args and returns an error if it fails.
func Run(e Executor, name string, args ...string) error {
	_, err := e.Execute(Command{Name: name, Args: args})
	return err
}

// RunIn is similar to Run, except the command runs chrooted into root.
func RunIn(e Executor, root, name string, args ...string) error {
	_, err := e.Execute(Command{Name: name, Args: args, Chroot: root})
	return err
}

// Output runs name with args and returns its standard output.
func Output(e Executor, name string, args ...string) ([]byte, error) {
	result, err := e.Execute(Command{Name: name, Args: args})
	if err != nil {
		return nil, err
	}
	return result.Stdout, nil
}

// Call is a command seen by a Recorder, with its standard input consumed.
type Call struct {
	Command
	StdinData string
}

// Recorder is an Executor which records commands instead of running them.
// Responses are scripted with On and Handle, matched by command line prefix.
// Unmatched commands succeed with empty output.
type Recorder struct {
	mutex sync.Mutex
	calls []Call
	rules []rule
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// On scripts the result for commands whose command line starts with
// prefix. A non-zero ExitCode produces an *ExitError.
func (r *Recorder) On(prefix string, result Result) *Recorder {
	return r.Handle(prefix, func(Command) (*Result, error) {
		res := result
		return &res, nil
	})
}

// Fail scripts commands starting with prefix to exit with status 1.
func (r *Recorder) Fail(prefix string) *Recorder {
	return r.On(prefix, Result{ExitCode: 1, Stderr: []byte("scripted failure")})
}

// Handle scripts commands starting with prefix to be answered by handler.
// Later rules take precedence over earlier ones.
func (r *Recorder) Handle(prefix string,
	handler func(Command) (*Result, error)) *Recorder {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.rules = append(r.rules, rule{prefix: prefix, handler: handler})
	return r
}

func (r *Recorder) Execute(cmd Command) (*Result, error) {
	return r.execute(cmd)
}

// Calls returns every command executed so far.
func (r *Recorder) Calls() []Call {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]Call(nil), r.calls...)
}

// Matching returns the calls whose command line starts with prefix.
func (r *Recorder) Matching(prefix string) []Call {
	return r.matching(prefix)
}

// Ran returns true if any command starting with prefix was executed.
func (r *Recorder) Ran(prefix string) bool {
	return len(r.matching(prefix)) > 0
}
