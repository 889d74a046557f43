package mounts

import (
	"io"
)

const ProcMounts = "/proc/mounts"

type MountEntry struct {
	Device     string
	MountPoint string
	Type       string
	Options    string
}

type MountTable struct {
	Entries []*MountEntry
}

// GetMountTable reads the mount table of the current process.
func GetMountTable() (*MountTable, error) {
	return loadMountTable(ProcMounts)
}

// ReadMountTable parses a mount table in /proc/mounts format.
func ReadMountTable(reader io.Reader) (*MountTable, error) {
	return readMountTable(reader)
}

// FindEntry returns the entry for the longest mount point containing path.
func (mt *MountTable) FindEntry(path string) *MountEntry {
	return mt.findEntry(path)
}

// MountsUnder returns the entries mounted at or below dir, deepest first,
// which is the order they must be unmounted in.
func (mt *MountTable) MountsUnder(dir string) []*MountEntry {
	return mt.mountsUnder(dir)
}
