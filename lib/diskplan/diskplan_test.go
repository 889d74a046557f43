package diskplan

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/arch-suite/arch-suite/lib/disk"
	aerrors "github.com/arch-suite/arch-suite/lib/errors"
	"github.com/arch-suite/arch-suite/lib/executor"
	"github.com/arch-suite/arch-suite/lib/fsutil/mounts"
	"github.com/arch-suite/arch-suite/lib/log/testlogger"
)

func noWait(string, time.Duration) error { return nil }

func testDisk(size uint64) disk.Disk {
	return disk.Disk{Path: "/dev/nvme0n1", Name: "nvme0n1", Size: size}
}

func commandLines(ops []Op) []string {
	var lines []string
	for _, op := range ops {
		if op.Kind == OpRun {
			lines = append(lines, op.Command.String())
		}
	}
	return lines
}

func TestPlanOrderAndEFISize(t *testing.T) {
	for _, size := range []uint64{1 << 30, 64 << 30, 4 << 40} {
		ops, mounted, err := Plan(testDisk(size), DefaultLayout(), "/mnt")
		if err != nil {
			t.Fatalf("%d: %s", size, err)
		}
		lines := commandLines(ops)
		expected := []string{
			"wipefs -a /dev/nvme0n1",
			"sgdisk --zap-all /dev/nvme0n1",
			"sgdisk -n 1:0:+512M -t 1:ef00 -c 1:EFI /dev/nvme0n1",
			"sgdisk -n 2:0:0 -t 2:8300 -c 2:root /dev/nvme0n1",
			"partprobe /dev/nvme0n1",
			"udevadm settle",
			"mkfs.fat -F 32 -n EFI /dev/nvme0n1p1",
			"mkfs.ext4 -F -L root /dev/nvme0n1p2",
		}
		if strings.Join(lines, "\n") != strings.Join(expected, "\n") {
			t.Errorf("expected:\n%s\ngot:\n%s",
				strings.Join(expected, "\n"), strings.Join(lines, "\n"))
		}
		if mounted.EFIMount != "/mnt/boot/efi" {
			t.Errorf("expected: /mnt/boot/efi, got: %s", mounted.EFIMount)
		}
	}
}

func TestPlanMountsRootBeforeEFI(t *testing.T) {
	ops, _, err := Plan(testDisk(8<<30), DefaultLayout(), "/mnt/")
	if err != nil {
		t.Fatal(err)
	}
	var mountPaths []string
	for _, op := range ops {
		if op.Kind == OpMount {
			mountPaths = append(mountPaths, op.Path)
		}
	}
	if strings.Join(mountPaths, " ") != "/mnt /mnt/boot/efi" {
		t.Errorf("expected: /mnt /mnt/boot/efi, got: %v", mountPaths)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		layout Layout
		size   uint64
		valid  bool
	}{
		{"default", DefaultLayout(), 8 << 30, true},
		{"too small", DefaultLayout(), 512 << 20, false},
		{"root first", Layout{DefaultLayout()[1], DefaultLayout()[0]},
			8 << 30, false},
		{"no EFI", Layout{DefaultLayout()[1]}, 8 << 30, false},
		{"too big", Layout{
			{Role: RoleEFI, Size: 2 << 30, FileSystem: FileSystemVfat},
			{Role: RoleRoot, Size: 6 << 30, FileSystem: FileSystemExt4},
		}, 8 << 30, false},
		{"bad filesystem", Layout{
			DefaultLayout()[0],
			{Role: RoleRoot, FileSystem: "btrfs"},
		}, 8 << 30, false},
	}
	for _, test := range tests {
		err := test.layout.Validate(test.size)
		if test.valid && err != nil {
			t.Errorf("%s: unexpected error: %s", test.name, err)
		}
		if !test.valid && err == nil {
			t.Errorf("%s: expected an error", test.name)
		}
	}
}

func TestApply(t *testing.T) {
	mountPoint := t.TempDir()
	ops, _, err := Plan(testDisk(8<<30), DefaultLayout(), mountPoint)
	if err != nil {
		t.Fatal(err)
	}
	recorder := executor.NewRecorder()
	mounter := mounts.NewFake()
	var phases []Phase
	err = Apply(ops, ApplyOptions{
		Executor:     recorder,
		Mounter:      mounter,
		Logger:       testlogger.New(t),
		WaitForBlock: noWait,
		OnPhase: func(phase Phase) error {
			phases = append(phases, phase)
			return nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	expectedPhases := []Phase{PhaseWiped, PhasePartitioned, PhaseFormatted,
		PhaseMounted}
	if len(phases) != len(expectedPhases) {
		t.Fatalf("expected: %v, got: %v", expectedPhases, phases)
	}
	for index := range phases {
		if phases[index] != expectedPhases[index] {
			t.Errorf("expected: %v, got: %v", expectedPhases, phases)
		}
	}
	table, _ := mounter.GetMountTable()
	efi := table.FindEntry(filepath.Join(mountPoint, "boot/efi/EFI"))
	if efi == nil || efi.Device != "/dev/nvme0n1p1" {
		t.Errorf("EFI not mounted: %v", table.Entries)
	}
}

func TestApplyFailureNamesStep(t *testing.T) {
	ops, _, err := Plan(testDisk(8<<30), DefaultLayout(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	recorder := executor.NewRecorder().Fail("mkfs.ext4")
	mounter := mounts.NewFake()
	err = Apply(ops, ApplyOptions{
		Executor:     recorder,
		Mounter:      mounter,
		Logger:       testlogger.New(t),
		WaitForBlock: noWait,
	})
	var diskErr *aerrors.DiskOpError
	if !errors.As(err, &diskErr) {
		t.Fatalf("expected DiskOpError, got: %v", err)
	}
	if diskErr.Step != "format-root" {
		t.Errorf("expected: format-root, got: %s", diskErr.Step)
	}
	if len(recorder.Matching("mkfs.ext4")) != 1 {
		t.Error("failed step was retried")
	}
	if len(mounter.Calls) != 0 {
		t.Errorf("mounted after failure: %v", mounter.Calls)
	}
}

func TestApplyStopAfter(t *testing.T) {
	ops, _, err := Plan(testDisk(8<<30), DefaultLayout(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	recorder := executor.NewRecorder()
	mounter := mounts.NewFake()
	stop := PhaseFormatted
	err = Apply(ops, ApplyOptions{
		Executor:     recorder,
		Mounter:      mounter,
		Logger:       testlogger.New(t),
		WaitForBlock: noWait,
		StopAfter:    &stop,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !recorder.Ran("mkfs.ext4") {
		t.Error("format phase did not run")
	}
	if len(mounter.Calls) != 0 {
		t.Errorf("mount phase ran: %v", mounter.Calls)
	}
}
