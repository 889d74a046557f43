package clone

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arch-suite/arch-suite/lib/executor"
	"github.com/arch-suite/arch-suite/lib/fsutil"
)

func build(options Options) (string, error) {
	if options.Profile == "" {
		options.Profile = DefaultProfile
	}
	if _, err := os.Stat(filepath.Join(options.Profile, PackagesFile)); err != nil {
		return "", fmt.Errorf("not an archiso profile: %s: %w",
			options.Profile, err)
	}
	liveDir := filepath.Join(options.WorkDir, LiveDirName)
	scratchDir := filepath.Join(options.WorkDir, scratchDirName)
	outputDir := filepath.Join(options.WorkDir, OutputDirName)
	for _, dir := range []string{liveDir, scratchDir} {
		if err := os.RemoveAll(dir); err != nil {
			return "", err
		}
	}
	if err := fsutil.CopyTree(liveDir, options.Profile); err != nil {
		return "", fmt.Errorf("error copying profile: %w", err)
	}
	added, err := addPackages(filepath.Join(liveDir, PackagesFile),
		options.Packages)
	if err != nil {
		return "", err
	}
	options.Logger.Printf("added %d packages to the image\n", added)
	if options.Snapshot != "" {
		dest := filepath.Join(liveDir, EmbedDir, filepath.Base(options.Snapshot))
		if err := os.MkdirAll(filepath.Dir(dest), fsutil.DirPerms); err != nil {
			return "", err
		}
		if err := fsutil.CopyFile(dest, options.Snapshot, 0); err != nil {
			return "", fmt.Errorf("error embedding snapshot: %w", err)
		}
		options.Logger.Debugf(0, "embedded %s\n", dest)
	}
	if err := os.MkdirAll(outputDir, fsutil.DirPerms); err != nil {
		return "", err
	}
	existing, err := listImages(outputDir)
	if err != nil {
		return "", err
	}
	_, err = options.Executor.Execute(executor.Command{
		Name:   "mkarchiso",
		Args:   []string{"-v", "-w", scratchDir, "-o", outputDir, liveDir},
		Output: options.Progress,
	})
	if err != nil {
		return "", err
	}
	os.RemoveAll(scratchDir)
	images, err := listImages(outputDir)
	if err != nil {
		return "", err
	}
	var produced string
	for name := range images {
		if _, ok := existing[name]; !ok {
			produced = filepath.Join(outputDir, name)
		}
	}
	if produced == "" {
		return "", fmt.Errorf("mkarchiso produced no image in %s", outputDir)
	}
	if err := verifyImage(produced); err != nil {
		return "", err
	}
	return produced, nil
}

// addPackages appends the packages not already listed in filename and
// returns how many were added.
func addPackages(filename string, packages []string) (int, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return 0, err
	}
	lines, err := fsutil.ReadLines(bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	listed := make(map[string]struct{}, len(lines)+len(packages))
	for _, line := range lines {
		listed[line] = struct{}{}
	}
	var buffer bytes.Buffer
	if len(data) > 0 && data[len(data)-1] != '\n' {
		buffer.WriteByte('\n')
	}
	added := 0
	for _, name := range packages {
		if _, ok := listed[name]; ok || name == "" {
			continue
		}
		listed[name] = struct{}{}
		buffer.WriteString(name + "\n")
		added++
	}
	if added < 1 {
		return 0, nil
	}
	file, err := os.OpenFile(filename, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return 0, err
	}
	if _, err := file.Write(buffer.Bytes()); err != nil {
		file.Close()
		return 0, err
	}
	return added, file.Close()
}
