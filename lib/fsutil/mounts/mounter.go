package mounts

import (
	stderrors "errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/arch-suite/arch-suite/lib/log"
	"golang.org/x/sys/unix"
)

// Mounter mounts and unmounts filesystems and reports the mount table.
type Mounter interface {
	Mount(source, target, fstype string, flags uintptr) error
	Unmount(target string) error
	GetMountTable() (*MountTable, error)
}

type System struct {
	dryRun bool
	logger log.DebugLogger
}

// NewSystem returns a Mounter using the mount(2) and umount(2) system calls.
func NewSystem(logger log.DebugLogger, dryRun bool) *System {
	return &System{dryRun: dryRun, logger: logger}
}

func (s *System) Mount(source, target, fstype string, flags uintptr) error {
	if s.dryRun {
		s.logger.Debugf(0, "dry run: skipping: mount %s %s\n", source, target)
		return nil
	}
	s.logger.Debugf(0, "mounting: %s on %s (%s)\n", source, target, fstype)
	if err := unix.Mount(source, target, fstype, flags, ""); err != nil {
		return fmt.Errorf("error mounting: %s on %s: %w", source, target, err)
	}
	return nil
}

// Unmount unmounts target, falling back to a lazy detach if it is busy.
func (s *System) Unmount(target string) error {
	if s.dryRun {
		s.logger.Debugf(0, "dry run: skipping: umount %s\n", target)
		return nil
	}
	err := unix.Unmount(target, 0)
	if err == nil {
		return nil
	}
	if stderrors.Is(err, unix.EBUSY) {
		s.logger.Debugf(0, "%s busy, detaching\n", target)
		if err := unix.Unmount(target, unix.MNT_DETACH); err == nil {
			return nil
		} else {
			return fmt.Errorf("error detaching: %s: %w", target, err)
		}
	}
	return fmt.Errorf("error unmounting: %s: %w", target, err)
}

func (s *System) GetMountTable() (*MountTable, error) {
	return GetMountTable()
}

// Fake is an in-memory Mounter for tests.
type Fake struct {
	mutex   sync.Mutex
	entries []*MountEntry
	failOn  map[string]error
	Calls   []string
}

func NewFake() *Fake {
	return &Fake{failOn: make(map[string]error)}
}

// FailOn makes Mount or Unmount of target return err.
func (f *Fake) FailOn(target string, err error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.failOn[filepath.Clean(target)] = err
}

func (f *Fake) Mount(source, target, fstype string, flags uintptr) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	target = filepath.Clean(target)
	f.Calls = append(f.Calls, "mount "+source+" "+target)
	if err := f.failOn[target]; err != nil {
		return err
	}
	if flags&unix.MS_BIND != 0 {
		fstype = "none"
	}
	f.entries = append(f.entries, &MountEntry{
		Device:     source,
		MountPoint: target,
		Type:       fstype,
		Options:    "rw",
	})
	return nil
}

func (f *Fake) Unmount(target string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	target = filepath.Clean(target)
	f.Calls = append(f.Calls, "umount "+target)
	if err := f.failOn[target]; err != nil {
		return err
	}
	for index := len(f.entries) - 1; index >= 0; index-- {
		if f.entries[index].MountPoint == target {
			f.entries = append(f.entries[:index], f.entries[index+1:]...)
			return nil
		}
	}
	return unix.EINVAL
}

func (f *Fake) GetMountTable() (*MountTable, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	table := &MountTable{}
	for _, entry := range f.entries {
		copied := *entry
		table.Entries = append(table.Entries, &copied)
	}
	return table, nil
}

// UnmountAll unmounts everything at or below dir, deepest first. It attempts
// every entry and returns the joined errors, if any. It never panics.
func UnmountAll(m Mounter, dir string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while unmounting %s: %v", dir, r)
		}
	}()
	table, err := m.GetMountTable()
	if err != nil {
		return err
	}
	var errs []error
	for _, entry := range table.MountsUnder(dir) {
		if err := m.Unmount(entry.MountPoint); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
