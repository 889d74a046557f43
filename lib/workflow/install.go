package workflow

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/arch-suite/arch-suite/lib/errors"
	"github.com/arch-suite/arch-suite/lib/executor"
	"github.com/arch-suite/arch-suite/lib/fsutil"
	"github.com/arch-suite/arch-suite/lib/snapshot"
	"golang.org/x/sys/unix"
)

var stepConfigureIndex = len(snapshot.RestoreSteps) + 1

var chrootBindMounts = []string{"/dev", "/proc", "/sys", "/run"}

func (w *Workflow) installBase(ctx *Context) error {
	cfg := w.params.Config
	args := []string{"-K", ctx.MountPoint}
	args = append(args, cfg.Packages.Base...)
	args = append(args, w.driverPackages(ctx)...)
	args = append(args, cfg.Packages.Extra...)
	_, err := w.params.Executor.Execute(executor.Command{
		Name:   "pacstrap",
		Args:   args,
		Output: w.params.Progress,
	})
	if err != nil {
		return errors.NewDiskOpError("pacstrap", err)
	}
	fstab, err := executor.Output(w.params.Executor, "genfstab", "-U",
		ctx.MountPoint)
	if err != nil {
		return errors.NewDiskOpError("genfstab", err)
	}
	if err := w.writeFile(ctx, "etc/fstab", string(fstab)); err != nil {
		return errors.NewDiskOpError("genfstab", err)
	}
	if mirror := cfg.Packages.Mirror; mirror != "" {
		err := w.writeFile(ctx, "etc/pacman.d/mirrorlist", mirrorList(mirror))
		if err != nil {
			return errors.NewDiskOpError("mirrorlist", err)
		}
	}
	if err := w.copyResolvConf(ctx); err != nil {
		return errors.NewDiskOpError("resolv.conf", err)
	}
	for _, dir := range chrootBindMounts {
		if err := w.makeBindMount(ctx.MountPoint, dir); err != nil {
			return errors.NewDiskOpError("bind-mount", err)
		}
	}
	return w.transition(ctx, StateBaseInstalled)
}

func mirrorList(mirror string) string {
	return "Server = " + strings.TrimSuffix(mirror, "/") + "/$repo/os/$arch\n"
}

func (w *Workflow) copyResolvConf(ctx *Context) error {
	if w.params.DryRun {
		return nil
	}
	if _, err := os.Stat(w.params.ResolvConf); os.IsNotExist(err) {
		w.params.Logger.Printf("%s missing, not copied\n", w.params.ResolvConf)
		return nil
	}
	dest := filepath.Join(ctx.MountPoint, "etc", "resolv.conf")
	os.Remove(dest) // May be a dangling symlink into systemd-resolved.
	return fsutil.CopyFile(dest, w.params.ResolvConf, fsutil.PublicFilePerms)
}

func (w *Workflow) makeBindMount(targetRoot, bindMount string) error {
	target := filepath.Join(targetRoot, bindMount)
	if !w.params.DryRun {
		if err := os.MkdirAll(target, fsutil.DirPerms); err != nil {
			return err
		}
	}
	return w.params.Mounter.Mount(bindMount, target, "",
		unix.MS_BIND|unix.MS_REC)
}

// writeFile writes content to name, relative to the new root.
func (w *Workflow) writeFile(ctx *Context, name, content string) error {
	if w.params.DryRun {
		w.params.Logger.Debugf(0, "dry run: skipping write of %s\n", name)
		return nil
	}
	filename := filepath.Join(ctx.MountPoint, name)
	if err := os.MkdirAll(filepath.Dir(filename), fsutil.DirPerms); err != nil {
		return err
	}
	return fsutil.CopyToFile(filename, fsutil.PublicFilePerms,
		strings.NewReader(content), uint64(len(content)))
}

func (w *Workflow) configure(ctx *Context) error {
	if err := w.configureSystem(ctx); err != nil {
		return errors.NewRestoreError(stepConfigure, stepConfigureIndex, err)
	}
	return w.transition(ctx, StateConfigured)
}

func (w *Workflow) configureSystem(ctx *Context) error {
	system := w.params.Config.System
	root := ctx.MountPoint
	e := w.params.Executor
	if err := w.writeFile(ctx, "etc/hostname", system.Hostname+"\n"); err != nil {
		return err
	}
	err := executor.RunIn(e, root, "ln", "-sf",
		"/usr/share/zoneinfo/"+system.Timezone, "/etc/localtime")
	if err != nil {
		return err
	}
	if err := executor.RunIn(e, root, "hwclock", "--systohc"); err != nil {
		return err
	}
	if err := w.enableLocale(ctx, system.Locale); err != nil {
		return err
	}
	if err := executor.RunIn(e, root, "locale-gen"); err != nil {
		return err
	}
	err = w.writeFile(ctx, "etc/locale.conf", "LANG="+system.Locale+"\n")
	if err != nil {
		return err
	}
	err = w.writeFile(ctx, "etc/vconsole.conf", "KEYMAP="+system.Keymap+"\n")
	if err != nil {
		return err
	}
	_, err = e.Execute(executor.Command{
		Name:   "mkinitcpio",
		Args:   []string{"-P"},
		Chroot: root,
		Output: w.params.Progress,
	})
	return err
}

// enableLocale makes sure locale is listed, uncommented, in etc/locale.gen.
func (w *Workflow) enableLocale(ctx *Context, locale string) error {
	entry := localeGenEntry(locale)
	if w.params.DryRun {
		return nil
	}
	filename := filepath.Join(ctx.MountPoint, "etc", "locale.gen")
	data, err := os.ReadFile(filename)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	var output bytes.Buffer
	found := false
	for _, line := range strings.SplitAfter(string(data), "\n") {
		if strings.TrimSpace(strings.TrimLeft(line, "#")) == entry {
			line = entry + "\n"
			found = true
		}
		output.WriteString(line)
	}
	if !found {
		if output.Len() > 0 && !bytes.HasSuffix(output.Bytes(), []byte("\n")) {
			output.WriteByte('\n')
		}
		output.WriteString(entry + "\n")
	}
	return w.writeFile(ctx, "etc/locale.gen", output.String())
}

// localeGenEntry returns the locale.gen line for locale, e.g. "en_US.UTF-8"
// becomes "en_US.UTF-8 UTF-8".
func localeGenEntry(locale string) string {
	charset := "UTF-8"
	if index := strings.LastIndexByte(locale, '.'); index >= 0 {
		charset = locale[index+1:]
	}
	return locale + " " + charset
}
