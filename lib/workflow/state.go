package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/arch-suite/arch-suite/lib/fsutil"
)

var stateNames = map[State]string{
	StateIdle:          "Idle",
	StateDiskSelected:  "DiskSelected",
	StateWiped:         "Wiped",
	StatePartitioned:   "Partitioned",
	StateFormatted:     "Formatted",
	StateMounted:       "Mounted",
	StateBaseInstalled: "BaseInstalled",
	StateRestored:      "Restored",
	StateConfigured:    "Configured",
	StateComplete:      "Complete",
	StateAborted:       "Aborted",
}

func (s State) string() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", s)
}

func (c *Context) advance(next State) error {
	switch {
	case c.State == StateComplete || c.State == StateAborted:
		return fmt.Errorf("cannot leave terminal state %s", c.State)
	case next == StateAborted:
	case next != c.State+1:
		return fmt.Errorf("illegal transition: %s -> %s", c.State, next)
	}
	c.State = next
	return nil
}

// transition advances ctx and appends the transition to the state log.
func (w *Workflow) transition(ctx *Context, next State) error {
	previous := ctx.State
	if err := ctx.advance(next); err != nil {
		return err
	}
	w.params.Logger.Debugf(0, "state: %s -> %s\n", previous, next)
	if ctx.WorkDir == "" || w.params.DryRun {
		return nil
	}
	if err := os.MkdirAll(ctx.WorkDir, fsutil.DirPerms); err != nil {
		return err
	}
	file, err := os.OpenFile(filepath.Join(ctx.WorkDir, StateLogFile),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY, fsutil.PublicFilePerms)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(file, "%s %s %s -> %s\n",
		time.Now().UTC().Format(time.RFC3339), ctx.RunID, previous, next)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	return err
}
