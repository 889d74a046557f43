package snapshot

import (
	"archive/tar"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arch-suite/arch-suite/lib/executor"
	"github.com/arch-suite/arch-suite/lib/fsutil"
)

var homeExcludes = []string{".cache", ".local/share/Trash"}

func capture(options CaptureOptions) (string, error) {
	if options.EtcDir == "" {
		options.EtcDir = "/etc"
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	logger := options.Logger
	if err := os.MkdirAll(options.WorkDir, fsutil.DirPerms); err != nil {
		return "", err
	}
	scratchDir := filepath.Join(options.WorkDir, "snapshot_tmp")
	os.RemoveAll(scratchDir)
	if err := os.Mkdir(scratchDir, fsutil.PrivateDirPerms); err != nil {
		return "", err
	}
	defer os.RemoveAll(scratchDir)
	logger.Println("gathering package lists")
	lists := []struct {
		member string
		args   []string
	}{
		{MemberPackages, []string{"pacman", "-Qqe"}},
		{MemberForeign, []string{"pacman", "-Qqm"}},
		{MemberServices, []string{"systemctl", "list-unit-files",
			"--type=service", "--state=enabled", "--no-legend",
			"--no-pager"}},
	}
	for _, list := range lists {
		lines, err := queryList(options.Executor, list.args)
		if err != nil {
			return "", err
		}
		if list.member == MemberServices {
			lines = firstColumn(lines)
		}
		err = fsutil.WriteLines(filepath.Join(scratchDir, list.member), lines,
			fsutil.PublicFilePerms)
		if err != nil {
			return "", err
		}
		logger.Debugf(0, "%s: %d entries\n", list.member, len(lines))
	}
	logger.Printf("archiving %s\n", options.EtcDir)
	err := archiveTree(filepath.Join(scratchDir, MemberEtc), options.EtcDir,
		"etc", nil, logger)
	if err != nil {
		return "", err
	}
	logger.Printf("archiving %s\n", options.HomeDir)
	excludeHome := homeExcluder(options.HomeDir, options.WorkDir)
	err = archiveTree(filepath.Join(scratchDir, MemberHome), options.HomeDir,
		".", excludeHome, logger)
	if err != nil {
		return "", err
	}
	filename := filepath.Join(options.WorkDir,
		"snapshot-"+options.Now().Format("20060102")+".tar.gz")
	logger.Printf("creating %s\n", filename)
	err = createTarGz(filename, fsutil.PrivateFilePerms,
		func(tw *tar.Writer) error {
			for _, member := range []string{MemberPackages, MemberForeign,
				MemberEtc, MemberHome, MemberServices} {
				err := addFile(tw, filepath.Join(scratchDir, member), member)
				if err != nil {
					return err
				}
			}
			return nil
		})
	if err != nil {
		return "", err
	}
	if options.Owner != nil {
		for _, pathname := range []string{options.WorkDir, filename} {
			err := os.Chown(pathname, options.Owner.UID, options.Owner.GID)
			if err != nil {
				return "", fmt.Errorf("error handing %s to uid %d: %w",
					pathname, options.Owner.UID, err)
			}
		}
	}
	return filename, nil
}

// queryList runs a listing command. An exit status of 1 with no output
// means an empty list, which is how pacman reports no matches.
func queryList(e executor.Executor, args []string) ([]string, error) {
	result, err := e.Execute(executor.Command{Name: args[0], Args: args[1:]})
	if err != nil {
		var exitErr *executor.ExitError
		if errors.As(err, &exitErr) && exitErr.Result.ExitCode == 1 &&
			len(strings.TrimSpace(string(exitErr.Result.Stdout))) == 0 {
			return nil, nil
		}
		return nil, err
	}
	return fsutil.ReadLines(strings.NewReader(string(result.Stdout)))
}

func firstColumn(lines []string) []string {
	columns := make([]string, 0, len(lines))
	for _, line := range lines {
		if fields := strings.Fields(line); len(fields) > 0 {
			columns = append(columns, fields[0])
		}
	}
	return columns
}

func homeExcluder(homeDir, workDir string) func(string) bool {
	excludes := append([]string(nil), homeExcludes...)
	if rel, err := filepath.Rel(homeDir, workDir); err == nil &&
		rel != "." && !strings.HasPrefix(rel, "..") {
		excludes = append(excludes, filepath.ToSlash(rel))
	}
	return func(relPath string) bool {
		for _, exclude := range excludes {
			if relPath == exclude || strings.HasPrefix(relPath, exclude+"/") {
				return true
			}
		}
		return false
	}
}
