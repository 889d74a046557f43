package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arch-suite/arch-suite/lib/clone"
	"github.com/arch-suite/arch-suite/lib/config"
	"github.com/arch-suite/arch-suite/lib/diskplan"
	"github.com/arch-suite/arch-suite/lib/errors"
	"github.com/arch-suite/arch-suite/lib/fsutil"
	"github.com/arch-suite/arch-suite/lib/log"
	"github.com/arch-suite/arch-suite/lib/utilities"
)

type utilityAction uint

const (
	utilityInspect utilityAction = iota
	utilityFlash
	utilityPartitionOnly
	utilityMount
	utilityCleanup
	utilityChrootShell
	utilityQuickBackup
	utilityCheckDeps
	utilityWriteConfig
	utilityBack
)

var utilityActionNames = [...]string{
	utilityInspect:       "Inspect hardware",
	utilityFlash:         "Flash an image to USB",
	utilityPartitionOnly: "Partition and format a disk",
	utilityMount:         "Mount the target system",
	utilityCleanup:       "Unmount the target system",
	utilityChrootShell:   "Open a shell in the target system",
	utilityQuickBackup:   "Back up dotfiles",
	utilityCheckDeps:     "Check dependencies",
	utilityWriteConfig:   "Write default configuration",
	utilityBack:          "Back",
}

func (a utilityAction) String() string {
	return utilityActionNames[a]
}

func utilitiesSubcommand(args []string, logger log.DebugLogger) error {
	s, err := newSuite(logger)
	if err != nil {
		return err
	}
	return s.utilitiesMenu()
}

func (s *suite) utilitiesMenu() error {
	u := utilities.New(utilities.Params{
		DryRun:    s.dryRun,
		Executor:  s.executor,
		Guard:     s.guard,
		Logger:    s.logger,
		Mounter:   s.mounter,
		Presenter: s.presenter,
		Progress:  s.progress,
	})
	return runMenu(s, "Utilities",
		[]utilityAction{utilityInspect, utilityFlash, utilityPartitionOnly,
			utilityMount, utilityCleanup, utilityChrootShell,
			utilityQuickBackup, utilityCheckDeps, utilityWriteConfig,
			utilityBack},
		utilityBack, func(action utilityAction) error {
			return s.utility(u, action)
		})
}

func (s *suite) utility(u *utilities.Utilities, action utilityAction) error {
	switch action {
	case utilityInspect:
		profile, err := u.Inspect(s.workDir)
		if err != nil {
			return err
		}
		if packages := profile.Packages(); len(packages) > 0 {
			s.console.Successf("driver profile: %s\n",
				strings.Join(packages, " "))
		} else {
			s.console.Warningf("no driver packages recommended\n")
		}
	case utilityFlash:
		image, err := s.chooseImage()
		if err != nil {
			return err
		}
		if err := u.Flash(image); err != nil {
			return err
		}
		s.console.Successf("%s written\n", filepath.Base(image))
	case utilityPartitionOnly:
		err := s.whileMounted(*mountPoint, u.Cleanup, u.PartitionOnly)
		if err != nil {
			return err
		}
		s.console.Success("disk partitioned and formatted")
	case utilityMount:
		var layout *diskplan.MountedLayout
		err := s.whileMounted(*mountPoint, u.Cleanup, func() error {
			var err error
			layout, err = u.Mount(*mountPoint)
			return err
		})
		if err != nil {
			return err
		}
		s.console.Successf("%s mounted on %s\n", layout.RootDevice,
			layout.MountPoint)
	case utilityCleanup:
		if err := u.Cleanup(*mountPoint); err != nil {
			return err
		}
		s.console.Successf("nothing mounted under %s\n", *mountPoint)
	case utilityChrootShell:
		return u.ChrootShell(*mountPoint)
	case utilityQuickBackup:
		filename, err := utilities.QuickBackup(s.user.Home, s.workDir,
			time.Now(), s.logger)
		if err != nil {
			return err
		}
		if err := handOver(filename, s.user); err != nil {
			return err
		}
		s.console.Successf("dotfiles saved to %s\n", filename)
	case utilityCheckDeps:
		missing, err := u.CheckDependencies()
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			s.console.Warningf("missing packages: %s\n",
				strings.Join(missing, " "))
		} else {
			s.console.Success("all dependencies are installed")
		}
	case utilityWriteConfig:
		return s.writeConfig()
	}
	return nil
}

// chooseImage asks for the ISO to flash, offering the most recent clone
// output as the default.
func (s *suite) chooseImage() (string, error) {
	image, err := latestFile(filepath.Join(s.workDir, clone.OutputDirName),
		"*.iso")
	if err != nil {
		return "", err
	}
	answer, err := s.presenter.Input("ISO image [" + image + "]: ")
	if err != nil {
		return "", err
	}
	if answer = strings.TrimSpace(answer); answer != "" {
		image = answer
	}
	if image == "" {
		return "", errors.NewSelectionAbort("no image given")
	}
	return image, nil
}

func (s *suite) writeConfig() error {
	filename := *configFile
	if filename == "" {
		filename = defaultConfigFile(s.user)
	}
	if _, err := os.Stat(filename); err == nil {
		ok, err := s.presenter.Confirm("Replace " + filename + "?")
		if err != nil {
			return err
		}
		if !ok {
			return errors.NewSelectionAbort("configuration kept")
		}
	}
	dirname := filepath.Dir(filename)
	if err := os.MkdirAll(dirname, fsutil.DirPerms); err != nil {
		return err
	}
	if err := handOver(dirname, s.user); err != nil {
		return err
	}
	if err := config.WriteDefault(filename); err != nil {
		return err
	}
	if err := handOver(filename, s.user); err != nil {
		return err
	}
	s.console.Successf("default configuration written to %s\n", filename)
	return nil
}
