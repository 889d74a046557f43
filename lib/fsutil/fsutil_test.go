package fsutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLinesRoundTrip(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "packages.txt")
	if err := WriteLines(filename, []string{"vim", "git"},
		PublicFilePerms); err != nil {
		t.Fatal(err)
	}
	lines, err := LoadLines(filename)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(lines, ",") != "vim,git" {
		t.Errorf("expected: vim,git, got: %v", lines)
	}
	if _, err := os.Stat(filename + "~"); !os.IsNotExist(err) {
		t.Errorf("temporary file left behind: %v", err)
	}
}

func TestLoadLinesMissing(t *testing.T) {
	lines, err := LoadLines(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 0 {
		t.Errorf("expected no lines, got: %v", lines)
	}
}

func TestReadLinesSkipsComments(t *testing.T) {
	lines, err := ReadLines(strings.NewReader("# header\n\n  sshd.service \n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || lines[0] != "sshd.service" {
		t.Errorf("expected: [sshd.service], got: %v", lines)
	}
}

func TestRenamingWriterAbort(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "out")
	writer, err := CreateRenamingWriter(filename, PrivateFilePerms)
	if err != nil {
		t.Fatal(err)
	}
	writer.Write([]byte("partial"))
	writer.Abort()
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filename); !os.IsNotExist(err) {
		t.Errorf("aborted file exists: %v", err)
	}
}

func TestCopyTree(t *testing.T) {
	sourceDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(sourceDir, "airootfs", "etc"),
		DirPerms); err != nil {
		t.Fatal(err)
	}
	err := os.WriteFile(filepath.Join(sourceDir, "airootfs", "etc", "motd"),
		[]byte("hello\n"), PublicFilePerms)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("etc/motd",
		filepath.Join(sourceDir, "airootfs", "link")); err != nil {
		t.Fatal(err)
	}
	destDir := filepath.Join(t.TempDir(), "copy")
	if err := CopyTree(destDir, sourceDir); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(destDir, "airootfs", "etc", "motd"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello\n" {
		t.Errorf("expected: hello, got: %s", data)
	}
	target, err := os.Readlink(filepath.Join(destDir, "airootfs", "link"))
	if err != nil {
		t.Fatal(err)
	}
	if target != "etc/motd" {
		t.Errorf("expected: etc/motd, got: %s", target)
	}
}

func TestWaitForBlockAvailableTimeout(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "regular")
	if err := os.WriteFile(filename, nil, PublicFilePerms); err != nil {
		t.Fatal(err)
	}
	if err := WaitForBlockAvailable(filename,
		20*time.Millisecond); err == nil {
		t.Error("regular file accepted as block device")
	}
}

func TestWaitForBlockAvailableAppears(t *testing.T) {
	if _, err := os.Stat("/dev/null"); err != nil {
		t.Skip("no /dev/null")
	}
	link := filepath.Join(t.TempDir(), "sdb1")
	go func() {
		time.Sleep(10 * time.Millisecond)
		os.Symlink("/dev/null", link)
	}()
	if err := WaitForBlockAvailable(link, time.Second); err != nil {
		t.Error(err)
	}
}
