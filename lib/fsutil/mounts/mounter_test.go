package mounts

import (
	"errors"
	"testing"

	"golang.org/x/sys/unix"
)

func TestUnmountAll(t *testing.T) {
	m := NewFake()
	m.Mount("/dev/sda2", "/mnt", "ext4", 0)
	m.Mount("/dev/sda1", "/mnt/boot/efi", "vfat", 0)
	m.Mount("/dev", "/mnt/dev", "", unix.MS_BIND)
	m.Mount("/dev/sdb1", "/data", "ext4", 0)
	if err := UnmountAll(m, "/mnt"); err != nil {
		t.Fatal(err)
	}
	table, _ := m.GetMountTable()
	if len(table.MountsUnder("/mnt")) != 0 {
		t.Errorf("mounts left under /mnt: %v", table.MountsUnder("/mnt"))
	}
	if table.FindEntry("/data") == nil {
		t.Error("unrelated mount was removed")
	}
	// The root of the target must be unmounted last.
	if last := m.Calls[len(m.Calls)-1]; last != "umount /mnt" {
		t.Errorf("expected: umount /mnt, got: %s", last)
	}
}

func TestUnmountAllContinuesPastFailures(t *testing.T) {
	m := NewFake()
	m.Mount("/dev/sda2", "/mnt", "ext4", 0)
	m.Mount("/dev/sda1", "/mnt/boot/efi", "vfat", 0)
	busy := errors.New("busy")
	m.FailOn("/mnt/boot/efi", busy)
	err := UnmountAll(m, "/mnt")
	if !errors.Is(err, busy) {
		t.Errorf("expected: %s, got: %v", busy, err)
	}
	table, _ := m.GetMountTable()
	if len(table.Entries) != 1 ||
		table.Entries[0].MountPoint != "/mnt/boot/efi" {
		t.Errorf("expected only /mnt/boot/efi left, got: %v", table.Entries)
	}
}
