package workflow

import (
	"io"
	"os"
	"time"

	"github.com/arch-suite/arch-suite/lib/config"
	"github.com/arch-suite/arch-suite/lib/disk"
	"github.com/arch-suite/arch-suite/lib/diskplan"
	"github.com/arch-suite/arch-suite/lib/executor"
	"github.com/arch-suite/arch-suite/lib/fsutil/mounts"
	"github.com/arch-suite/arch-suite/lib/guard"
	"github.com/arch-suite/arch-suite/lib/log"
	"github.com/arch-suite/arch-suite/lib/precondition"
	"github.com/arch-suite/arch-suite/lib/prompt"
)

const (
	StateLogFile    = "state.log"
	InterruptStatus = 130
)

type State uint

const (
	StateIdle State = iota
	StateDiskSelected
	StateWiped
	StatePartitioned
	StateFormatted
	StateMounted
	StateBaseInstalled
	StateRestored
	StateConfigured
	StateComplete
	StateAborted
)

func (s State) String() string {
	return s.string()
}

// Context carries one deployment through its states. Transitions only move
// forward, one state at a time, or to StateAborted.
type Context struct {
	RunID      string
	State      State
	Archive    string // Local snapshot archive.
	MountPoint string
	WorkDir    string   // Holds the state log and the driver profile.
	Profile    []string // Driver packages. Loaded from WorkDir if nil.
	User       string   // Prompted for if empty.
	Disk       disk.Disk
	Layout     *diskplan.MountedLayout
	password   string
}

// Advance moves the context to next, if that is a legal transition.
func (c *Context) Advance(next State) error {
	return c.advance(next)
}

// PreconditionChecker verifies the environment before any disk mutation.
type PreconditionChecker interface {
	Check(req precondition.Requirements) error
}

type Params struct {
	Config        *config.Configuration
	DryRun        bool
	Executor      executor.Executor
	Guard         *guard.Guard
	Logger        log.DebugLogger
	Mounter       mounts.Mounter
	Preconditions PreconditionChecker // Defaults to precondition.New.
	Presenter     prompt.Presenter
	Progress      io.Writer // Optional. Receives output of long running steps.
	ResolvConf    string    // Defaults to /etc/resolv.conf.
	// WaitForBlock defaults to fsutil.WaitForBlockAvailable.
	WaitForBlock func(pathname string, timeout time.Duration) error
}

type Workflow struct {
	params Params
}

func New(params Params) *Workflow {
	if params.ResolvConf == "" {
		params.ResolvConf = "/etc/resolv.conf"
	}
	if params.Preconditions == nil {
		params.Preconditions = precondition.New(params.Logger)
	}
	registerMetrics()
	return &Workflow{params: params}
}

// Deploy replicates the archive in ctx onto an operator selected disk. On
// failure the disk and mounts are left as they are. A rejected confirmation
// returns an *errors.SelectionAbort before anything is written.
func (w *Workflow) Deploy(ctx *Context) error {
	return w.deploy(ctx)
}

// Cleanup unmounts everything at or below mountPoint, deepest first. It is
// safe to call at any time and returns the joined unmount errors.
func (w *Workflow) Cleanup(mountPoint string) error {
	return mounts.UnmountAll(w.params.Mounter, mountPoint)
}

// HandleInterrupts waits for a signal, then runs cleanup and calls exit
// with InterruptStatus. It returns if signals is closed.
func HandleInterrupts(signals <-chan os.Signal, cleanup func(),
	exit func(int)) {
	handleInterrupts(signals, cleanup, exit)
}
