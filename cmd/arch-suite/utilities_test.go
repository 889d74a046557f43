package main

import (
	"testing"
	"time"

	"github.com/arch-suite/arch-suite/lib/executor"
	"github.com/arch-suite/arch-suite/lib/fsutil/mounts"
	"github.com/arch-suite/arch-suite/lib/guard"
	"github.com/arch-suite/arch-suite/lib/utilities"
)

const lsblkJSON = `{"blockdevices": [
  {"name":"sda", "size":500107862016, "model":"Samsung SSD 860", "tran":"sata", "type":"disk"},
  {"name":"sdb", "size":15518924800, "model":"Ultra USB 3.0", "tran":"usb", "type":"disk"}
]}`

func newTestUtilities(t *testing.T, s *suite) (*utilities.Utilities,
	*executor.Recorder, *mounts.Fake) {
	e := executor.NewRecorder().
		On("lsblk -J", executor.Result{Stdout: []byte(lsblkJSON)}).
		On("findmnt -n -o SOURCE /",
			executor.Result{Stdout: []byte("/dev/sda2\n")}).
		On("lsblk -n -o PKNAME /dev/sda2",
			executor.Result{Stdout: []byte("sda\n")})
	mounter := mounts.NewFake()
	u := utilities.New(utilities.Params{
		Executor:     e,
		Guard:        guard.New(s.presenter, s.logger),
		Logger:       s.logger,
		Mounter:      mounter,
		Presenter:    s.presenter,
		WaitForBlock: func(string, time.Duration) error { return nil },
	})
	return u, e, mounter
}

func setMountPoint(t *testing.T) string {
	saved := *mountPoint
	*mountPoint = t.TempDir()
	t.Cleanup(func() { *mountPoint = saved })
	return *mountPoint
}

func TestUtilityMount(t *testing.T) {
	dir := setMountPoint(t)
	s := newTestSuite(t, "2")
	u, _, mounter := newTestUtilities(t, s)
	if err := s.utility(u, utilityMount); err != nil {
		t.Fatal(err)
	}
	table, err := mounter.GetMountTable()
	if err != nil {
		t.Fatal(err)
	}
	if n := len(table.MountsUnder(dir)); n != 2 {
		t.Errorf("expected: 2 mounts, got: %d", n)
	}
}

func TestUtilityPartitionOnly(t *testing.T) {
	setMountPoint(t)
	s := newTestSuite(t, "1", "y")
	u, e, _ := newTestUtilities(t, s)
	if err := s.utility(u, utilityPartitionOnly); err != nil {
		t.Fatal(err)
	}
	if !e.Ran("wipefs -a /dev/sdb") {
		t.Error("expected command: wipefs -a /dev/sdb")
	}
	if e.Ran("wipefs -a /dev/sda") {
		t.Error("root disk wiped")
	}
}
