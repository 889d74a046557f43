package snapshot

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	aerrors "github.com/arch-suite/arch-suite/lib/errors"
	"github.com/arch-suite/arch-suite/lib/executor"
	"github.com/arch-suite/arch-suite/lib/fsutil"
	"golang.org/x/crypto/bcrypt"
)

const (
	useraddExitUserExists = 9
	wheelSudoers          = "etc/sudoers.d/10-wheel"
	buildSudoers          = "etc/sudoers.d/99-arch-suite-build"
)

var usernameRegexp = regexp.MustCompile(`^[a-z_][a-z0-9_-]{0,31}$`)

// etcSkips are files which describe the identity of the old installation and
// must come from the new base system instead.
var etcSkips = map[string]struct{}{
	"fstab": {}, "crypttab": {}, "machine-id": {}, "mtab": {},
	"resolv.conf": {}, "passwd": {}, "passwd-": {}, "shadow": {},
	"shadow-": {}, "group": {}, "group-": {}, "gshadow": {}, "gshadow-": {},
}

type restorer struct {
	RestoreOptions
	contents   *Extracted
	report     *RestoreReport
	stagingDir string
}

func validUsername(name string) error {
	if !usernameRegexp.MatchString(name) {
		return fmt.Errorf("invalid username: %q", name)
	}
	if name == "root" {
		return errors.New("username must not be root")
	}
	return nil
}

func restore(options RestoreOptions) (*RestoreReport, error) {
	if options.AURHelper == "" {
		options.AURHelper = "yay-bin"
	}
	if err := validUsername(options.User); err != nil {
		return nil, aerrors.NewRestoreError(StepUser, 4, err)
	}
	r := &restorer{RestoreOptions: options, report: &RestoreReport{}}
	if r.DryRun {
		defer func() {
			if r.stagingDir != "" {
				os.RemoveAll(r.stagingDir)
			}
		}()
	}
	steps := []func() error{
		r.extract, r.restoreEtc, r.installPackages, r.createUser,
		r.restoreHome, r.installForeign, r.enableServices, r.installBootloader,
	}
	for index, step := range steps {
		name := RestoreSteps[index]
		r.Logger.Printf("restore step %d/%d: %s\n", index+1, len(steps), name)
		if err := step(); err != nil {
			return r.report, aerrors.NewRestoreError(name, index+1, err)
		}
		if r.OnStep != nil {
			r.OnStep(name, index+1)
		}
	}
	if !r.DryRun {
		os.RemoveAll(r.stagingDir)
	}
	return r.report, nil
}

// dryRunSkip returns true, after logging, if r writes nothing under Root.
func (r *restorer) dryRunSkip(what string) bool {
	if r.DryRun {
		r.Logger.Debugf(0, "dry run: skipping write of %s\n", what)
	}
	return r.DryRun
}

func (r *restorer) skip(step, reason string) {
	r.Logger.Printf("skipping %s: %s\n", step, reason)
	r.report.Skipped = append(r.report.Skipped, step)
}

func (r *restorer) inRoot(name string, args ...string) executor.Command {
	return executor.Command{Name: name, Args: args, Chroot: r.Root}
}

func (r *restorer) asUser(name string, args ...string) executor.Command {
	cmd := r.inRoot("runuser", append([]string{"-u", r.User, "--", name},
		args...)...)
	cmd.Env = []string{"HOME=/home/" + r.User, "USER=" + r.User}
	return cmd
}

func (r *restorer) progressWriter() io.Writer {
	return r.Progress
}

func (r *restorer) run(cmd executor.Command) error {
	_, err := r.Executor.Execute(cmd)
	return err
}

// extract unpacks the archive under Root, or into a temporary directory for
// a dry run so that the later steps still see its contents.
func (r *restorer) extract() error {
	dir := filepath.Join(r.Root, RestoreDir)
	if r.DryRun {
		var err error
		if dir, err = os.MkdirTemp("", "arch-suite-restore-"); err != nil {
			return err
		}
	} else {
		os.RemoveAll(dir)
	}
	r.stagingDir = dir
	contents, err := extract(r.Archive, dir)
	if err != nil {
		return err
	}
	r.contents = contents
	r.Logger.Debugf(0, "%d packages, %d foreign, %d services\n",
		len(contents.Packages), len(contents.Foreign), len(contents.Services))
	return nil
}

func (r *restorer) restoreEtc() error {
	archive := r.contents.EtcArchive()
	if archive == "" {
		r.skip(StepEtc, "no "+MemberEtc)
		return nil
	}
	if r.dryRunSkip("/etc") {
		return nil
	}
	file, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer file.Close()
	return extractTarGz(bufio.NewReader(file), filepath.Join(r.Root, "etc"),
		extractOptions{
			StripPrefix:   "etc",
			KeepOwnership: true,
			Skip: func(name string) bool {
				if _, ok := etcSkips[name]; ok {
					return true
				}
				return strings.HasPrefix(name, "pacman.d/gnupg/")
			},
		})
}

// explicitPackages returns the explicit list minus foreign packages, which
// the primary repositories cannot provide.
func (r *restorer) explicitPackages() []string {
	foreign := make(map[string]struct{}, len(r.contents.Foreign))
	for _, name := range r.contents.Foreign {
		foreign[name] = struct{}{}
	}
	var packages []string
	for _, name := range r.contents.Packages {
		if _, ok := foreign[name]; !ok {
			packages = append(packages, name)
		}
	}
	return packages
}

func stdinList(lines []string) *strings.Reader {
	return strings.NewReader(strings.Join(lines, "\n") + "\n")
}

func (r *restorer) installPackages() error {
	packages := r.explicitPackages()
	if len(packages) < 1 {
		r.skip(StepPackages, "no explicit packages")
		return nil
	}
	cmd := r.inRoot("pacman", "-S", "--needed", "--noconfirm", "-")
	cmd.Stdin = stdinList(packages)
	cmd.Output = r.progressWriter()
	return r.run(cmd)
}

func (r *restorer) createUser() error {
	err := r.run(r.inRoot("useradd", "-m", "-G", "wheel", "-s", "/bin/bash",
		r.User))
	var exitErr *executor.ExitError
	if errors.As(err, &exitErr) &&
		exitErr.Result.ExitCode == useraddExitUserExists {
		r.Logger.Printf("user %s exists, adding to wheel\n", r.User)
		err = r.run(r.inRoot("usermod", "-aG", "wheel", r.User))
	}
	if err != nil {
		return err
	}
	if r.Password == "" {
		return errors.New("empty password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password),
		bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	cmd := r.inRoot("chpasswd", "-e")
	cmd.Stdin = strings.NewReader(r.User + ":" + string(hash) + "\n")
	if err := r.run(cmd); err != nil {
		return err
	}
	return r.writeSudoers(wheelSudoers, "%wheel ALL=(ALL:ALL) ALL\n")
}

func (r *restorer) writeSudoers(name, content string) error {
	if r.dryRunSkip(name) {
		return nil
	}
	filename := filepath.Join(r.Root, name)
	if err := os.MkdirAll(filepath.Dir(filename), 0750); err != nil {
		return err
	}
	return fsutil.CopyToFile(filename, fsutil.SudoersFilePerms,
		strings.NewReader(content), uint64(len(content)))
}

func (r *restorer) restoreHome() error {
	archive := r.contents.HomeArchive()
	if archive == "" {
		r.skip(StepHome, "no "+MemberHome)
		return nil
	}
	if !r.dryRunSkip("/home/" + r.User) {
		file, err := os.Open(archive)
		if err != nil {
			return err
		}
		defer file.Close()
		homeDir := filepath.Join(r.Root, "home", r.User)
		if err := extractTarGz(bufio.NewReader(file), homeDir,
			extractOptions{}); err != nil {
			return err
		}
	}
	return r.run(r.inRoot("chown", "-R", r.User+":", "/home/"+r.User))
}

func (r *restorer) installForeign() (err error) {
	if len(r.contents.Foreign) < 1 {
		r.skip(StepForeign, "no foreign packages")
		return nil
	}
	// makepkg and yay call sudo non-interactively.
	err = r.writeSudoers(buildSudoers, r.User+" ALL=(ALL) NOPASSWD: ALL\n")
	if err != nil {
		return err
	}
	defer func() {
		if r.DryRun {
			return
		}
		if e := os.Remove(filepath.Join(r.Root, buildSudoers)); e != nil &&
			err == nil {
			err = e
		}
	}()
	prerequisites := r.inRoot("pacman", "-S", "--needed", "--noconfirm",
		"git", "base-devel")
	prerequisites.Output = r.progressWriter()
	if err := r.run(prerequisites); err != nil {
		return err
	}
	buildDir := "/home/" + r.User + "/.cache/arch-suite/" + r.AURHelper
	r.removeInRoot(buildDir)
	err = r.run(r.asUser("git", "clone", "--depth", "1",
		"https://aur.archlinux.org/"+r.AURHelper+".git", buildDir))
	if err != nil {
		return err
	}
	makepkg := r.asUser("makepkg", "-si", "--noconfirm")
	makepkg.Dir = buildDir
	makepkg.Output = r.progressWriter()
	if err := r.run(makepkg); err != nil {
		return err
	}
	r.removeInRoot(buildDir)
	yay := r.asUser("yay", "-S", "--needed", "--noconfirm", "-")
	yay.Stdin = stdinList(r.contents.Foreign)
	yay.Output = r.progressWriter()
	return r.run(yay)
}

func (r *restorer) removeInRoot(name string) {
	if !r.DryRun {
		os.RemoveAll(filepath.Join(r.Root, name))
	}
}

// enableServices enables each recorded unit. A unit which fails is logged
// and the remaining units are still attempted.
func (r *restorer) enableServices() error {
	if len(r.contents.Services) < 1 {
		r.skip(StepServices, "no enabled services")
		return nil
	}
	for _, unit := range r.contents.Services {
		if err := r.run(r.inRoot("systemctl", "enable", unit)); err != nil {
			r.Logger.Printf("error enabling %s: %s\n", unit, err)
			r.report.FailedServices = append(r.report.FailedServices, unit)
		}
	}
	sort.Strings(r.report.FailedServices)
	return nil
}

func (r *restorer) installBootloader() error {
	packages := r.inRoot("pacman", "-S", "--needed", "--noconfirm", "grub",
		"efibootmgr")
	packages.Output = r.progressWriter()
	if err := r.run(packages); err != nil {
		return err
	}
	err := r.run(r.inRoot("grub-install", "--target=x86_64-efi",
		"--efi-directory=/boot/efi", "--bootloader-id=GRUB"))
	if err != nil {
		return err
	}
	return r.run(r.inRoot("grub-mkconfig", "-o", "/boot/grub/grub.cfg"))
}
