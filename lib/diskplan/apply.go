package diskplan

import (
	"os"
	"time"

	"github.com/arch-suite/arch-suite/lib/errors"
	"github.com/arch-suite/arch-suite/lib/fsutil"
)

const defaultBlockTimeout = 30 * time.Second

func apply(ops []Op, options ApplyOptions) error {
	if options.WaitForBlock == nil {
		options.WaitForBlock = fsutil.WaitForBlockAvailable
	}
	if options.BlockTimeout <= 0 {
		options.BlockTimeout = defaultBlockTimeout
	}
	for index, op := range ops {
		startTime := time.Now()
		if err := applyOne(op, options); err != nil {
			options.Logger.Printf("%s failed: %s\n", op.Step, err)
			return errors.NewDiskOpError(op.Step, err)
		}
		options.Logger.Debugf(0, "%s: %s (%s)\n", op.Step, op,
			time.Since(startTime).Round(time.Millisecond))
		if index+1 < len(ops) && ops[index+1].Phase == op.Phase {
			continue
		}
		if options.OnPhase != nil {
			if err := options.OnPhase(op.Phase); err != nil {
				return err
			}
		}
		if options.StopAfter != nil && *options.StopAfter == op.Phase {
			return nil
		}
	}
	return nil
}

func applyOne(op Op, options ApplyOptions) error {
	switch op.Kind {
	case OpRun:
		_, err := options.Executor.Execute(op.Command)
		return err
	case OpWaitForDevice:
		if options.DryRun {
			return nil
		}
		return options.WaitForBlock(op.Path, options.BlockTimeout)
	case OpMkdir:
		if options.DryRun {
			return nil
		}
		return os.MkdirAll(op.Path, fsutil.DirPerms)
	case OpMount:
		return options.Mounter.Mount(op.Source, op.Path, op.FSType, 0)
	}
	return nil
}
