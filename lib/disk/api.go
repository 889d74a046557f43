package disk

import (
	"github.com/arch-suite/arch-suite/lib/errors"
	"github.com/arch-suite/arch-suite/lib/executor"
	"github.com/arch-suite/arch-suite/lib/prompt"
)

// ErrNoSelection is returned by Select when the operator makes no choice.
var ErrNoSelection = errors.NewSelectionAbort("no disk selected")

// Disk is a candidate target block device. Partition table details are
// derived on demand and not stored.
type Disk struct {
	Path      string // For example /dev/nvme0n1.
	Name      string // For example nvme0n1.
	Size      uint64 // Bytes.
	Model     string
	Transport string // For example sata, nvme, usb.
}

// String returns a one-line description suitable for presenting.
func (d Disk) String() string {
	return d.describe()
}

// List enumerates whole-disk block devices, excluding pseudo-devices.
func List(e executor.Executor) ([]Disk, error) {
	return list(e)
}

// Parse decodes the JSON output of "lsblk -J -d -b -o NAME,SIZE,MODEL,TRAN,TYPE"
// and removes pseudo-devices (loopback, optical, ram disks).
func Parse(data []byte) ([]Disk, error) {
	return parse(data)
}

// IsPseudo returns true for loopback, optical and ram disk devices.
func IsPseudo(name, devType string) bool {
	return isPseudo(name, devType)
}

// Select lists disks, presents them and returns the chosen one. An empty
// choice returns ErrNoSelection, which callers treat as "abort the current
// sub-workflow".
func Select(e executor.Executor, p prompt.Presenter) (Disk, error) {
	return selectDisk(e, p, nil)
}

// SelectExcluding is similar to Select, except disks whose name is in
// exclude are not offered.
func SelectExcluding(e executor.Executor, p prompt.Presenter,
	exclude []string) (Disk, error) {
	return selectDisk(e, p, exclude)
}

// PartitionPath returns the device path of partition number n of disk.
// Device names ending in a digit (nvme0n1, mmcblk0) take a "p" separator.
func PartitionPath(d Disk, n int) string {
	return partitionPath(d.Path, n)
}

// RootDisk returns the name of the disk hosting the running root
// filesystem, or an empty string if it cannot be determined.
func RootDisk(e executor.Executor) string {
	return rootDisk(e)
}
