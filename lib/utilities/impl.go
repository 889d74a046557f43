package utilities

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arch-suite/arch-suite/lib/clone"
	"github.com/arch-suite/arch-suite/lib/disk"
	"github.com/arch-suite/arch-suite/lib/diskplan"
	"github.com/arch-suite/arch-suite/lib/errors"
	"github.com/arch-suite/arch-suite/lib/executor"
	"github.com/arch-suite/arch-suite/lib/fsutil"
	"github.com/arch-suite/arch-suite/lib/hardware"
	"github.com/arch-suite/arch-suite/lib/log"
	"github.com/arch-suite/arch-suite/lib/snapshot"
	"github.com/dustin/go-humanize"
)

var backupExcludes = []string{".cache", ".local"}

func (u *Utilities) inspect(workDir string) (hardware.Profile, error) {
	file, err := os.Open(u.params.CPUInfo)
	if err != nil {
		return hardware.Profile{}, err
	}
	defer file.Close()
	profile, err := hardware.Detect(file, u.params.Executor)
	if err != nil {
		return profile, err
	}
	u.params.Logger.Printf("CPU: %s: %s\n", vendorName(profile.CPUVendor),
		packageList(profile.CPU))
	u.params.Logger.Printf("GPU: %s: %s\n", vendorName(profile.GPUVendor),
		packageList(profile.GPU))
	if len(profile.Packages()) < 1 {
		return profile, nil
	}
	ok, err := u.params.Presenter.Confirm("Save driver profile to " +
		filepath.Join(workDir, hardware.ProfileFile) + "?")
	if err != nil {
		return profile, err
	}
	if !ok {
		return profile, errors.NewSelectionAbort("driver profile not saved")
	}
	return profile, hardware.Save(workDir, profile)
}

func vendorName(vendor string) string {
	if vendor == "" {
		return "unknown"
	}
	return vendor
}

func packageList(packages []string) string {
	if len(packages) < 1 {
		return "(none)"
	}
	return strings.Join(packages, " ")
}

func (u *Utilities) flash(image string) error {
	if err := clone.VerifyImage(image); err != nil {
		return errors.NewPreconditionError("image", err)
	}
	fi, err := os.Stat(image)
	if err != nil {
		return err
	}
	target, err := u.selectErasable()
	if err != nil {
		return err
	}
	if uint64(fi.Size()) > target.Size {
		return errors.NewPreconditionError("size", fmt.Errorf(
			"%s (%s) does not fit on %s", image,
			humanize.IBytes(uint64(fi.Size())), target))
	}
	err = u.params.Guard.Require(fmt.Sprintf("overwrite all of %s with %s",
		target, filepath.Base(image)))
	if err != nil {
		return err
	}
	_, err = u.params.Executor.Execute(executor.Command{
		Name: "dd",
		Args: []string{"if=" + image, "of=" + target.Path, "bs=4M",
			"conv=fsync", "oflag=direct", "status=progress"},
		Output: u.params.Progress,
	})
	if err != nil {
		return errors.NewDiskOpError("write-image", err)
	}
	if err := executor.Run(u.params.Executor, "sync"); err != nil {
		return errors.NewDiskOpError("sync", err)
	}
	u.params.Logger.Printf("wrote %s to %s\n", image, target.Path)
	return nil
}

// selectErasable offers every disk except the one hosting the running root
// filesystem.
func (u *Utilities) selectErasable() (disk.Disk, error) {
	var exclude []string
	if root := disk.RootDisk(u.params.Executor); root != "" {
		exclude = append(exclude, root)
	}
	return disk.SelectExcluding(u.params.Executor, u.params.Presenter, exclude)
}

func (u *Utilities) partitionOnly() error {
	target, err := u.selectErasable()
	if err != nil {
		return err
	}
	ops, _, err := diskplan.Plan(target, diskplan.DefaultLayout(), "/mnt")
	if err != nil {
		return errors.NewPreconditionError("disk", err)
	}
	err = u.params.Guard.Require(fmt.Sprintf(
		"erase every partition on %s and create EFI and root filesystems",
		target))
	if err != nil {
		return err
	}
	stopAfter := diskplan.PhaseFormatted
	return diskplan.Apply(ops, diskplan.ApplyOptions{
		DryRun:       u.params.DryRun,
		Executor:     u.params.Executor,
		Mounter:      u.params.Mounter,
		Logger:       u.params.Logger,
		StopAfter:    &stopAfter,
		WaitForBlock: u.params.WaitForBlock,
	})
}

func (u *Utilities) mount(mountPoint string) (*diskplan.MountedLayout, error) {
	target, err := disk.Select(u.params.Executor, u.params.Presenter)
	if err != nil {
		return nil, err
	}
	ops, layout, err := diskplan.Plan(target, diskplan.DefaultLayout(),
		mountPoint)
	if err != nil {
		return nil, errors.NewPreconditionError("disk", err)
	}
	var mountOps []diskplan.Op
	for _, op := range ops {
		if op.Phase == diskplan.PhaseMounted {
			mountOps = append(mountOps, op)
		}
	}
	err = diskplan.Apply(mountOps, diskplan.ApplyOptions{
		DryRun:       u.params.DryRun,
		Executor:     u.params.Executor,
		Mounter:      u.params.Mounter,
		Logger:       u.params.Logger,
		WaitForBlock: u.params.WaitForBlock,
	})
	if err != nil {
		return nil, err
	}
	return layout, nil
}

func (u *Utilities) chrootShell(mountPoint string) error {
	if _, err := os.Stat(filepath.Join(mountPoint, "etc")); err != nil {
		return errors.NewPreconditionError("mount",
			fmt.Errorf("no system mounted at %s", mountPoint))
	}
	_, err := u.params.Executor.Execute(executor.Command{
		Name:        "arch-chroot",
		Args:        []string{mountPoint},
		Interactive: true,
	})
	return err
}

func quickBackup(homeDir, workDir string, now time.Time,
	logger log.DebugLogger) (string, error) {
	if err := os.MkdirAll(workDir, fsutil.DirPerms); err != nil {
		return "", err
	}
	excludes := append([]string(nil), backupExcludes...)
	if rel, err := filepath.Rel(homeDir, workDir); err == nil &&
		!strings.HasPrefix(rel, "..") {
		excludes = append(excludes, filepath.ToSlash(rel))
	}
	filename := filepath.Join(workDir,
		"dotfiles-"+now.Format("20060102-150405")+".tar.gz")
	err := snapshot.ArchiveTree(filename, homeDir, ".",
		func(relPath string) bool {
			top := strings.SplitN(relPath, "/", 2)[0]
			if !strings.HasPrefix(top, ".") {
				return true
			}
			for _, exclude := range excludes {
				if relPath == exclude || strings.HasPrefix(relPath, exclude+"/") {
					return true
				}
			}
			return false
		}, logger)
	if err != nil {
		return "", err
	}
	return filename, nil
}

func (u *Utilities) missingPackages() []string {
	var missing []string
	for _, name := range RequiredPackages {
		if err := executor.Run(u.params.Executor, "pacman", "-Q", name); err != nil {
			missing = append(missing, name)
		}
	}
	return missing
}

func (u *Utilities) checkDependencies() ([]string, error) {
	missing := u.missingPackages()
	if len(missing) < 1 {
		u.params.Logger.Println("all dependencies are installed")
		return nil, nil
	}
	u.params.Logger.Printf("missing packages: %s\n", strings.Join(missing, " "))
	ok, err := u.params.Presenter.Confirm("Install the missing packages?")
	if err != nil || !ok {
		return missing, err
	}
	args := append([]string{"-S", "--needed", "--noconfirm"}, missing...)
	_, err = u.params.Executor.Execute(executor.Command{
		Name:   "pacman",
		Args:   args,
		Output: u.params.Progress,
	})
	if err != nil {
		return missing, err
	}
	return u.missingPackages(), nil
}
