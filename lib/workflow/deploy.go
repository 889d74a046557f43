package workflow

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/arch-suite/arch-suite/lib/disk"
	"github.com/arch-suite/arch-suite/lib/diskplan"
	"github.com/arch-suite/arch-suite/lib/errors"
	"github.com/arch-suite/arch-suite/lib/hardware"
	"github.com/arch-suite/arch-suite/lib/precondition"
	"github.com/arch-suite/arch-suite/lib/prompt"
	"github.com/arch-suite/arch-suite/lib/snapshot"
	"github.com/google/uuid"
)

const defaultMountPoint = "/mnt"

var phaseStates = map[diskplan.Phase]State{
	diskplan.PhaseWiped:       StateWiped,
	diskplan.PhasePartitioned: StatePartitioned,
	diskplan.PhaseFormatted:   StateFormatted,
	diskplan.PhaseMounted:     StateMounted,
}

func (w *Workflow) deploy(ctx *Context) error {
	if ctx.State != StateIdle {
		return fmt.Errorf("deployment already in state %s", ctx.State)
	}
	if ctx.RunID == "" {
		ctx.RunID = uuid.NewString()
	}
	if ctx.MountPoint == "" {
		ctx.MountPoint = defaultMountPoint
	}
	w.params.Logger.Printf("deployment %s: %s onto %s\n", ctx.RunID,
		ctx.Archive, ctx.MountPoint)
	err := w.runSteps(ctx)
	if err != nil && errors.IsSelectionAbort(err) {
		if err := w.transition(ctx, StateAborted); err != nil {
			w.params.Logger.Printf("error recording abort: %s\n", err)
		}
	}
	return err
}

func (w *Workflow) runSteps(ctx *Context) error {
	steps := []struct {
		name string
		fn   func(*Context) error
	}{
		{stepPreconditions, w.checkPreconditions},
		{stepSelect, w.selectTarget},
		{stepDisk, w.prepareDisk},
		{stepBaseInstall, w.installBase},
		{stepRestore, w.restoreSnapshot},
		{stepConfigure, w.configure},
	}
	for _, step := range steps {
		startTime := time.Now()
		err := step.fn(ctx)
		recordStep(step.name, startTime)
		if err != nil {
			return err
		}
		w.params.Logger.Debugf(0, "%s step took %s\n", step.name,
			time.Since(startTime).Round(time.Millisecond))
	}
	if err := w.transition(ctx, StateComplete); err != nil {
		return err
	}
	if err := w.Cleanup(ctx.MountPoint); err != nil {
		w.params.Logger.Printf("error unmounting %s: %s\n", ctx.MountPoint, err)
	}
	return nil
}

func (w *Workflow) checkPreconditions(ctx *Context) error {
	if ctx.Archive == "" {
		return errors.NewPreconditionError(precondition.CheckArchive,
			fmt.Errorf("no snapshot archive given"))
	}
	req := precondition.Requirements{
		Root:         !w.params.DryRun,
		ProbeHost:    w.params.Config.Network.ProbeHost,
		ProbeTimeout: time.Duration(w.params.Config.Network.ProbeTimeoutMs) *
			time.Millisecond,
		Archive: ctx.Archive,
	}
	if !w.params.DryRun {
		req.Tools = precondition.DeployTools
	}
	return w.params.Preconditions.Check(req)
}

// selectTarget collects everything the operator must provide, so that no
// prompt other than the final confirmation happens once the disk is
// touched.
func (w *Workflow) selectTarget(ctx *Context) error {
	if err := w.readCredentials(ctx); err != nil {
		return err
	}
	var exclude []string
	if root := disk.RootDisk(w.params.Executor); root != "" {
		exclude = append(exclude, root)
	}
	d, err := disk.SelectExcluding(w.params.Executor, w.params.Presenter,
		exclude)
	if err != nil {
		return err
	}
	if err := diskplan.DefaultLayout().Validate(d.Size); err != nil {
		return errors.NewPreconditionError("disk", err)
	}
	ctx.Disk = d
	if err := w.transition(ctx, StateDiskSelected); err != nil {
		return err
	}
	return w.params.Guard.Require(fmt.Sprintf(
		"erase every partition on %s and install the snapshot", d))
}

func (w *Workflow) readCredentials(ctx *Context) error {
	if ctx.User == "" {
		ctx.User = w.params.Config.User.Username
	}
	if ctx.User == "" {
		name, err := w.params.Presenter.Input("Username for the new system")
		if err != nil {
			return promptError(err)
		}
		ctx.User = name
	}
	if err := snapshot.ValidUsername(ctx.User); err != nil {
		return errors.NewPreconditionError("username", err)
	}
	password, err := w.params.Presenter.Password("Password for " + ctx.User)
	if err != nil {
		return promptError(err)
	}
	repeated, err := w.params.Presenter.Password("Repeat password")
	if err != nil {
		return promptError(err)
	}
	if password != repeated {
		return errors.NewSelectionAbort("passwords do not match")
	}
	if password == "" {
		return errors.NewPreconditionError("password",
			fmt.Errorf("empty password for %s", ctx.User))
	}
	ctx.password = password
	return nil
}

func promptError(err error) error {
	if err == prompt.ErrEmpty {
		return errors.NewSelectionAbort("no answer given")
	}
	return err
}

func (w *Workflow) prepareDisk(ctx *Context) error {
	ops, layout, err := diskplan.Plan(ctx.Disk, diskplan.DefaultLayout(),
		ctx.MountPoint)
	if err != nil {
		return err
	}
	err = diskplan.Apply(ops, diskplan.ApplyOptions{
		DryRun:   w.params.DryRun,
		Executor: w.params.Executor,
		Mounter:  w.params.Mounter,
		Logger:   w.params.Logger,
		OnPhase: func(phase diskplan.Phase) error {
			return w.transition(ctx, phaseStates[phase])
		},
		WaitForBlock: w.params.WaitForBlock,
	})
	if err != nil {
		return err
	}
	ctx.Layout = layout
	return nil
}

func (w *Workflow) restoreSnapshot(ctx *Context) error {
	report, err := snapshot.Restore(snapshot.RestoreOptions{
		Archive:   ctx.Archive,
		DryRun:    w.params.DryRun,
		Root:      ctx.MountPoint,
		User:      ctx.User,
		Password:  ctx.password,
		Executor:  w.params.Executor,
		Logger:    w.params.Logger,
		Progress:  w.params.Progress,
		AURHelper: w.params.Config.Packages.AURHelper,
	})
	if report != nil && len(report.FailedServices) > 0 {
		atomic.AddUint64(&serviceEnableFailures,
			uint64(len(report.FailedServices)))
		w.params.Logger.Printf("units not enabled: %v\n", report.FailedServices)
	}
	if err != nil {
		return err
	}
	return w.transition(ctx, StateRestored)
}

func (w *Workflow) driverPackages(ctx *Context) []string {
	if ctx.Profile != nil || ctx.WorkDir == "" {
		return ctx.Profile
	}
	profile, err := hardware.Load(ctx.WorkDir)
	if err != nil {
		w.params.Logger.Printf("ignoring driver profile: %s\n", err)
		return nil
	}
	return profile
}
