package snapshot

import (
	"archive/tar"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	aerrors "github.com/arch-suite/arch-suite/lib/errors"
	"github.com/arch-suite/arch-suite/lib/executor"
	"github.com/arch-suite/arch-suite/lib/log/testlogger"
)

func writeFile(t *testing.T, filename, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func sourceSystem() *executor.Recorder {
	return executor.NewRecorder().
		On("pacman -Qqe", executor.Result{Stdout: []byte("git\nvim\nyay\n")}).
		On("pacman -Qqm", executor.Result{Stdout: []byte("yay\n")}).
		On("systemctl list-unit-files", executor.Result{
			Stdout: []byte("sshd.service enabled enabled\n")})
}

// captureFixture builds a source system in a temporary directory and
// captures it.
func captureFixture(t *testing.T, e executor.Executor) string {
	t.Helper()
	base := t.TempDir()
	etcDir := filepath.Join(base, "etc")
	homeDir := filepath.Join(base, "home", "alice")
	writeFile(t, filepath.Join(etcDir, "pacman.conf"), "[core]\n")
	writeFile(t, filepath.Join(etcDir, "fstab"), "UUID=old / ext4\n")
	writeFile(t, filepath.Join(etcDir, "hostname"), "oldbox\n")
	writeFile(t, filepath.Join(homeDir, ".bashrc"), "alias ll='ls -l'\n")
	writeFile(t, filepath.Join(homeDir, ".config", "nvim", "init.lua"), "--\n")
	writeFile(t, filepath.Join(homeDir, ".cache", "big.bin"), "cache\n")
	writeFile(t, filepath.Join(homeDir, ".local", "share", "Trash", "x"), "x\n")
	workDir := filepath.Join(homeDir, "arch-suite-work")
	writeFile(t, filepath.Join(workDir, "old.tar.gz"), "stale\n")
	filename, err := Capture(CaptureOptions{
		WorkDir:  workDir,
		HomeDir:  homeDir,
		EtcDir:   etcDir,
		Executor: e,
		Logger:   testlogger.New(t),
		Now: func() time.Time {
			return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return filename
}

func TestCaptureScenario(t *testing.T) {
	filename := captureFixture(t, sourceSystem())
	if filepath.Base(filename) != "snapshot-20260314.tar.gz" {
		t.Errorf("expected: snapshot-20260314.tar.gz, got: %s", filename)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(filename),
		"snapshot_tmp")); !os.IsNotExist(err) {
		t.Errorf("scratch directory left behind: %v", err)
	}
	contents, err := ReadArchive(filename)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(contents.Packages, " "); got != "git vim yay" {
		t.Errorf("expected: git vim yay, got: %s", got)
	}
	if got := strings.Join(contents.Foreign, " "); got != "yay" {
		t.Errorf("expected: yay, got: %s", got)
	}
	if got := strings.Join(contents.Services, " "); got != "sshd.service" {
		t.Errorf("expected: sshd.service, got: %s", got)
	}
	if !contents.HasEtc || !contents.HasHome {
		t.Errorf("missing tree members: %+v", contents)
	}
	if err := Validate(filename); err != nil {
		t.Errorf("captured archive does not validate: %s", err)
	}
}

func TestCaptureListsServiceUnitsOnly(t *testing.T) {
	e := sourceSystem()
	captureFixture(t, e)
	expected := "systemctl list-unit-files --type=service --state=enabled"
	if !e.Ran(expected) {
		t.Errorf("expected command: %s, got: %v", expected,
			e.Matching("systemctl"))
	}
}

func TestCaptureHomeExcludes(t *testing.T) {
	filename := captureFixture(t, sourceSystem())
	extracted, err := Extract(filename, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	names, err := ListTree(extracted.HomeArchive())
	if err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(names, "\n")
	for _, unwanted := range []string{".cache", "Trash", "arch-suite-work"} {
		if strings.Contains(joined, unwanted) {
			t.Errorf("%s captured in home archive:\n%s", unwanted, joined)
		}
	}
	if !strings.Contains(joined, ".config/nvim/init.lua") {
		t.Errorf("expected .config/nvim/init.lua in:\n%s", joined)
	}
}

func TestCaptureEmptyForeignList(t *testing.T) {
	e := sourceSystem().On("pacman -Qqm", executor.Result{ExitCode: 1})
	filename := captureFixture(t, e)
	contents, err := ReadArchive(filename)
	if err != nil {
		t.Fatal(err)
	}
	if len(contents.Foreign) != 0 {
		t.Errorf("expected no foreign packages, got: %v", contents.Foreign)
	}
}

func TestCaptureFailurePropagates(t *testing.T) {
	base := t.TempDir()
	e := sourceSystem().Fail("pacman -Qqe")
	_, err := Capture(CaptureOptions{
		WorkDir:  filepath.Join(base, "work"),
		HomeDir:  base,
		EtcDir:   base,
		Executor: e,
		Logger:   testlogger.New(t),
	})
	if err == nil {
		t.Error("capture succeeded despite pacman failure")
	}
}

func restoreOptions(t *testing.T, archive string,
	e executor.Executor) RestoreOptions {
	return RestoreOptions{
		Archive:  archive,
		Root:     t.TempDir(),
		User:     "alice",
		Password: "correct horse",
		Executor: e,
		Logger:   testlogger.New(t),
	}
}

func TestRestoreScenario(t *testing.T) {
	archive := captureFixture(t, sourceSystem())
	target := executor.NewRecorder()
	options := restoreOptions(t, archive, target)
	var steps []string
	options.OnStep = func(step string, index int) {
		steps = append(steps, step)
	}
	report, err := Restore(options)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(steps, ",") != strings.Join(RestoreSteps, ",") {
		t.Errorf("expected: %v, got: %v", RestoreSteps, steps)
	}
	if len(report.Skipped) != 0 {
		t.Errorf("unexpected skipped steps: %v", report.Skipped)
	}
	installs := target.Matching("pacman -S --needed --noconfirm -")
	if len(installs) != 1 {
		t.Fatalf("expected one explicit install, got: %v", installs)
	}
	if installs[0].StdinData != "git\nvim\n" {
		t.Errorf("expected: git vim, got: %q", installs[0].StdinData)
	}
	if installs[0].Chroot != options.Root {
		t.Errorf("install not chrooted: %q", installs[0].Chroot)
	}
	if !target.Ran("systemctl enable sshd.service") {
		t.Error("sshd.service not enabled")
	}
	yay := target.Matching("runuser -u alice -- yay -S")
	if len(yay) != 1 || yay[0].StdinData != "yay\n" {
		t.Errorf("foreign packages not reinstalled: %v", yay)
	}
	if !target.Ran("runuser -u alice -- git clone --depth 1 https://aur.archlinux.org/yay-bin.git") {
		t.Error("AUR helper not cloned")
	}
	if !target.Ran("grub-install --target=x86_64-efi --efi-directory=/boot/efi") {
		t.Error("bootloader not installed")
	}
	// The build sudoers drop-in must not survive the restore.
	if _, err := os.Stat(filepath.Join(options.Root,
		buildSudoers)); !os.IsNotExist(err) {
		t.Errorf("temporary sudoers left behind: %v", err)
	}
	if _, err := os.Stat(filepath.Join(options.Root, RestoreDir)); !os.IsNotExist(err) {
		t.Errorf("restore area left behind: %v", err)
	}
}

func TestRestoreTrees(t *testing.T) {
	archive := captureFixture(t, sourceSystem())
	options := restoreOptions(t, archive, executor.NewRecorder())
	if _, err := Restore(options); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(options.Root, "etc", "pacman.conf"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[core]\n" {
		t.Errorf("expected: [core], got: %s", data)
	}
	if _, err := os.Stat(filepath.Join(options.Root, "etc",
		"fstab")); !os.IsNotExist(err) {
		t.Error("fstab of the old system was restored")
	}
	data, err = os.ReadFile(filepath.Join(options.Root, "home", "alice",
		".config", "nvim", "init.lua"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "--\n" {
		t.Errorf("expected: --, got: %s", data)
	}
	fi, err := os.Stat(filepath.Join(options.Root, wheelSudoers))
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0440 {
		t.Errorf("expected: 0440, got: %o", fi.Mode().Perm())
	}
}

func TestRestoreDryRunLeavesRootEmpty(t *testing.T) {
	archive := captureFixture(t, sourceSystem())
	target := executor.NewRecorder()
	options := restoreOptions(t, archive, target)
	options.DryRun = true
	if _, err := Restore(options); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(options.Root)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected: empty root, got: %d entries, first: %s",
			len(entries), entries[0].Name())
	}
	installs := target.Matching("pacman -S --needed --noconfirm -")
	if len(installs) != 1 || installs[0].StdinData != "git\nvim\n" {
		t.Errorf("archive contents not used: %v", installs)
	}
	if !target.Ran("systemctl enable sshd.service") {
		t.Error("sshd.service not enabled")
	}
}

func TestRestorePasswordNotInArgv(t *testing.T) {
	archive := captureFixture(t, sourceSystem())
	target := executor.NewRecorder()
	options := restoreOptions(t, archive, target)
	if _, err := Restore(options); err != nil {
		t.Fatal(err)
	}
	for _, call := range target.Calls() {
		if strings.Contains(call.String(), options.Password) {
			t.Errorf("password in command line: %s", call)
		}
	}
	chpasswd := target.Matching("chpasswd -e")
	if len(chpasswd) != 1 || !strings.HasPrefix(chpasswd[0].StdinData,
		"alice:$2") {
		t.Errorf("expected bcrypt hash on stdin, got: %v", chpasswd)
	}
	if strings.Contains(chpasswd[0].StdinData, options.Password) {
		t.Error("plain text password passed to chpasswd")
	}
}

func TestRestoreContinuesPastFailedService(t *testing.T) {
	e := sourceSystem().On("systemctl list-unit-files", executor.Result{
		Stdout: []byte("bluetooth.service enabled enabled\n" +
			"sshd.service enabled enabled\n")})
	archive := captureFixture(t, e)
	target := executor.NewRecorder().Fail("systemctl enable bluetooth")
	report, err := Restore(restoreOptions(t, archive, target))
	if err != nil {
		t.Fatal(err)
	}
	if !target.Ran("systemctl enable sshd.service") {
		t.Error("remaining service not enabled")
	}
	if len(report.FailedServices) != 1 ||
		report.FailedServices[0] != "bluetooth.service" {
		t.Errorf("expected: [bluetooth.service], got: %v",
			report.FailedServices)
	}
	if !target.Ran("grub-mkconfig") {
		t.Error("restore stopped after a failed service")
	}
}

func TestRestoreFailureNamesStep(t *testing.T) {
	archive := captureFixture(t, sourceSystem())
	target := executor.NewRecorder().Fail("pacman -S --needed --noconfirm -")
	options := restoreOptions(t, archive, target)
	_, err := Restore(options)
	var restoreErr *aerrors.RestoreError
	if !errors.As(err, &restoreErr) {
		t.Fatalf("expected RestoreError, got: %v", err)
	}
	if restoreErr.Step != StepPackages || restoreErr.Index != 3 {
		t.Errorf("expected: packages/3, got: %s/%d",
			restoreErr.Step, restoreErr.Index)
	}
	if target.Ran("useradd") {
		t.Error("restore continued after a failed step")
	}
	// The extracted archive is left for inspection.
	if _, err := os.Stat(filepath.Join(options.Root, RestoreDir,
		MemberPackages)); err != nil {
		t.Errorf("restore area removed after failure: %s", err)
	}
}

func TestRestoreMissingMembers(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "snapshot-minimal.tar.gz")
	err := createTarGz(filename, 0600, func(tw *tar.Writer) error {
		content := "vim\n"
		if err := tw.WriteHeader(&tar.Header{Name: MemberPackages,
			Mode: 0644, Size: int64(len(content)),
			Typeflag: tar.TypeReg}); err != nil {
			return err
		}
		_, err := tw.Write([]byte(content))
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	target := executor.NewRecorder()
	report, err := Restore(restoreOptions(t, filename, target))
	if err != nil {
		t.Fatal(err)
	}
	expected := "etc,home,foreign,services"
	if got := strings.Join(report.Skipped, ","); got != expected {
		t.Errorf("expected: %s, got: %s", expected, got)
	}
	if target.Ran("runuser") {
		t.Error("foreign path ran with no foreign packages")
	}
}

func TestExtractRejectsTraversal(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "evil.tar.gz")
	err := createTarGz(filename, 0600, func(tw *tar.Writer) error {
		if err := tw.WriteHeader(&tar.Header{Name: "link",
			Typeflag: tar.TypeSymlink, Linkname: "/"}); err != nil {
			return err
		}
		content := "pwned\n"
		if err := tw.WriteHeader(&tar.Header{Name: "link/tmp/pwned",
			Mode: 0644, Size: int64(len(content)),
			Typeflag: tar.TypeReg}); err != nil {
			return err
		}
		_, err := tw.Write([]byte(content))
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	file, err := os.Open(filename)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	if err := extractTarGz(file, t.TempDir(),
		extractOptions{}); err == nil {
		t.Error("extraction through a symlink succeeded")
	}
}

func TestValidateRejectsOtherFormats(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "notes.txt")
	writeFile(t, plain, "not an archive\n")
	if err := Validate(plain); err == nil {
		t.Error("plain text accepted")
	}
	if err := Validate(filepath.Join(dir, "missing")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestValidUsername(t *testing.T) {
	for _, name := range []string{"alice", "_svc", "bob-2"} {
		if err := ValidUsername(name); err != nil {
			t.Errorf("%s: %s", name, err)
		}
	}
	for _, name := range []string{"", "root", "Alice", "a b", "x;rm -rf",
		"-dash"} {
		if err := ValidUsername(name); err == nil {
			t.Errorf("%q accepted", name)
		}
	}
}
