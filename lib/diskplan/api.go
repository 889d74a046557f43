package diskplan

import (
	"time"

	"github.com/arch-suite/arch-suite/lib/disk"
	"github.com/arch-suite/arch-suite/lib/executor"
	"github.com/arch-suite/arch-suite/lib/fsutil/mounts"
	"github.com/arch-suite/arch-suite/lib/log"
)

const (
	EFISize           = 512 << 20
	MinimumDeviceSize = 1 << 30
	EFIMountPoint     = "boot/efi" // Relative to the root mount point.

	FileSystemVfat = "vfat"
	FileSystemExt4 = "ext4"

	TypeCodeEFI   = "ef00"
	TypeCodeLinux = "8300"
)

type Role uint

const (
	RoleEFI Role = iota
	RoleRoot
)

func (r Role) String() string {
	switch r {
	case RoleEFI:
		return "EFI"
	case RoleRoot:
		return "root"
	}
	return "unknown"
}

// Partition describes one partition. A Size of zero means "the remainder of
// the device" and is only valid for the last partition.
type Partition struct {
	Role       Role
	Size       uint64
	FileSystem string
	TypeCode   string
}

// Layout is the ordered list of partitions to create.
type Layout []Partition

// DefaultLayout returns a 512MiB EFI System Partition followed by an ext4
// root filling the rest of the device.
func DefaultLayout() Layout {
	return Layout{
		{Role: RoleEFI, Size: EFISize, FileSystem: FileSystemVfat,
			TypeCode: TypeCodeEFI},
		{Role: RoleRoot, FileSystem: FileSystemExt4, TypeCode: TypeCodeLinux},
	}
}

// Validate checks that the layout has exactly one EFI partition preceding
// exactly one root partition, and fits a device of deviceSize bytes.
func (l Layout) Validate(deviceSize uint64) error {
	return l.validate(deviceSize)
}

// Phase is the coarse stage of disk preparation an Op belongs to.
type Phase uint

const (
	PhaseWiped Phase = iota
	PhasePartitioned
	PhaseFormatted
	PhaseMounted
)

func (p Phase) String() string {
	switch p {
	case PhaseWiped:
		return "wiped"
	case PhasePartitioned:
		return "partitioned"
	case PhaseFormatted:
		return "formatted"
	case PhaseMounted:
		return "mounted"
	}
	return "unknown"
}

type OpKind uint

const (
	OpRun OpKind = iota
	OpWaitForDevice
	OpMkdir
	OpMount
)

// Op is one low-level disk operation.
type Op struct {
	Step    string // Short name, reported in a DiskOpError.
	Phase   Phase
	Kind    OpKind
	Command executor.Command // OpRun.
	Path    string           // OpWaitForDevice, OpMkdir and OpMount target.
	Source  string           // OpMount.
	FSType  string           // OpMount.
}

func (op Op) String() string {
	return op.describe()
}

// MountedLayout describes the result of applying a plan.
type MountedLayout struct {
	Disk       disk.Disk
	MountPoint string
	RootDevice string
	EFIDevice  string
	EFIMount   string
}

// Plan computes the ordered operations which wipe d, create layout, format
// the partitions and mount them under mountPoint. It has no side effects.
func Plan(d disk.Disk, layout Layout, mountPoint string) (
	[]Op, *MountedLayout, error) {
	return plan(d, layout, mountPoint)
}

type ApplyOptions struct {
	DryRun       bool
	Executor     executor.Executor
	Mounter      mounts.Mounter
	Logger       log.DebugLogger
	BlockTimeout time.Duration
	// OnPhase is called after the last operation of each phase succeeds. An
	// error stops the plan.
	OnPhase func(Phase) error
	// StopAfter, if not nil, ends the plan once that phase completes.
	StopAfter *Phase
	// WaitForBlock defaults to fsutil.WaitForBlockAvailable.
	WaitForBlock func(pathname string, timeout time.Duration) error
}

// Apply runs ops in order. The first failure is returned as an
// *errors.DiskOpError naming the step. Nothing is retried.
func Apply(ops []Op, options ApplyOptions) error {
	return apply(ops, options)
}
