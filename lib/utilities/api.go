package utilities

import (
	"io"
	"time"

	"github.com/arch-suite/arch-suite/lib/diskplan"
	"github.com/arch-suite/arch-suite/lib/executor"
	"github.com/arch-suite/arch-suite/lib/fsutil/mounts"
	"github.com/arch-suite/arch-suite/lib/guard"
	"github.com/arch-suite/arch-suite/lib/hardware"
	"github.com/arch-suite/arch-suite/lib/log"
	"github.com/arch-suite/arch-suite/lib/prompt"
)

// RequiredPackages provide the tools used by capture, deploy and clone.
var RequiredPackages = []string{
	"arch-install-scripts", "pacman-contrib", "gptfdisk", "dosfstools",
	"e2fsprogs", "archiso", "rsync", "pciutils",
}

type Params struct {
	CPUInfo   string // Defaults to /proc/cpuinfo.
	DryRun    bool
	Executor  executor.Executor
	Guard     *guard.Guard
	Logger    log.DebugLogger
	Mounter   mounts.Mounter
	Presenter prompt.Presenter
	Progress  io.Writer // Optional. Receives output of long running commands.
	// WaitForBlock defaults to fsutil.WaitForBlockAvailable.
	WaitForBlock func(pathname string, timeout time.Duration) error
}

// Utilities are the stand-alone operator tools.
type Utilities struct {
	params Params
}

func New(params Params) *Utilities {
	if params.CPUInfo == "" {
		params.CPUInfo = "/proc/cpuinfo"
	}
	return &Utilities{params: params}
}

// Inspect detects the local hardware and, once the operator agrees, saves
// the driver profile into workDir for later deployments.
func (u *Utilities) Inspect(workDir string) (hardware.Profile, error) {
	return u.inspect(workDir)
}

// Flash writes the ISO image to an operator selected disk. The disk holding
// the running root filesystem is never offered.
func (u *Utilities) Flash(image string) error {
	return u.flash(image)
}

// PartitionOnly wipes, partitions and formats an operator selected disk
// without mounting or installing anything.
func (u *Utilities) PartitionOnly() error {
	return u.partitionOnly()
}

// Mount mounts the root and EFI partitions of an operator selected disk,
// previously prepared with the default layout, under mountPoint. Nothing
// is written to the disk.
func (u *Utilities) Mount(mountPoint string) (*diskplan.MountedLayout, error) {
	return u.mount(mountPoint)
}

// Cleanup unmounts everything at or below mountPoint.
func (u *Utilities) Cleanup(mountPoint string) error {
	return mounts.UnmountAll(u.params.Mounter, mountPoint)
}

// ChrootShell opens an interactive shell inside the system mounted at
// mountPoint.
func (u *Utilities) ChrootShell(mountPoint string) error {
	return u.chrootShell(mountPoint)
}

// QuickBackup archives the dotfiles in homeDir into
// workDir/dotfiles-YYYYMMDD-HHMMSS.tar.gz and returns its path.
func QuickBackup(homeDir, workDir string, now time.Time,
	logger log.DebugLogger) (string, error) {
	return quickBackup(homeDir, workDir, now, logger)
}

// MissingPackages returns the packages from RequiredPackages which are not
// installed.
func (u *Utilities) MissingPackages() []string {
	return u.missingPackages()
}

// CheckDependencies reports missing packages and offers to install them.
// It returns the packages which are still missing.
func (u *Utilities) CheckDependencies() ([]string, error) {
	return u.checkDependencies()
}
