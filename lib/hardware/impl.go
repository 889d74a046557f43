package hardware

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/arch-suite/arch-suite/lib/executor"
	"github.com/arch-suite/arch-suite/lib/fsutil"
)

var (
	nvidiaPackages = []string{"nvidia", "nvidia-utils", "nvidia-settings"}
	amdPackages    = []string{"mesa", "xf86-video-amdgpu", "vulkan-radeon"}
	intelPackages  = []string{"mesa", "vulkan-intel", "intel-media-driver"}
)

func cpuPackages(vendorID string) []string {
	switch strings.TrimSpace(vendorID) {
	case "AuthenticAMD":
		return []string{"amd-ucode"}
	case "GenuineIntel":
		return []string{"intel-ucode"}
	}
	return nil
}

func gpuPackages(vendor string) []string {
	lower := strings.ToLower(vendor)
	switch {
	case strings.Contains(lower, "nvidia"):
		return nvidiaPackages
	case strings.Contains(lower, "advanced micro devices"),
		strings.Contains(lower, "amd"), strings.Contains(lower, "ati "),
		strings.HasSuffix(lower, "ati"):
		return amdPackages
	case strings.Contains(lower, "intel"):
		return intelPackages
	}
	return nil
}

func readCPUVendor(cpuinfo io.Reader) (string, error) {
	scanner := bufio.NewScanner(cpuinfo)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if ok && strings.TrimSpace(key) == "vendor_id" {
			return strings.TrimSpace(value), nil
		}
	}
	return "", scanner.Err()
}

// gpuVendors extracts the vendor column of display controllers from
// "lspci -mm" output, where fields are double quoted.
func gpuVendors(lspci string) []string {
	var vendors []string
	for _, line := range strings.Split(lspci, "\n") {
		fields := quotedFields(line)
		if len(fields) < 2 {
			continue
		}
		class := fields[0]
		if strings.Contains(class, "VGA") || strings.Contains(class, "3D") ||
			strings.Contains(class, "Display") {
			vendors = append(vendors, fields[1])
		}
	}
	return vendors
}

func quotedFields(line string) []string {
	var fields []string
	for {
		start := strings.IndexByte(line, '"')
		if start < 0 {
			return fields
		}
		end := strings.IndexByte(line[start+1:], '"')
		if end < 0 {
			return fields
		}
		fields = append(fields, line[start+1:start+1+end])
		line = line[start+end+2:]
	}
}

func detect(cpuinfo io.Reader, e executor.Executor) (Profile, error) {
	var profile Profile
	vendor, err := readCPUVendor(cpuinfo)
	if err != nil {
		return profile, fmt.Errorf("error reading CPU vendor: %w", err)
	}
	profile.CPUVendor = vendor
	profile.CPU = cpuPackages(vendor)
	output, err := executor.Output(e, "lspci", "-mm")
	if err != nil {
		return profile, fmt.Errorf("error listing PCI devices: %w", err)
	}
	seen := make(map[string]struct{})
	for _, gpuVendor := range gpuVendors(string(output)) {
		packages := gpuPackages(gpuVendor)
		if len(packages) > 0 && profile.GPUVendor == "" {
			profile.GPUVendor = gpuVendor
		}
		for _, name := range packages {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				profile.GPU = append(profile.GPU, name)
			}
		}
	}
	return profile, nil
}

func detectLocal(e executor.Executor) (Profile, error) {
	file, err := os.Open("/proc/cpuinfo")
	if err != nil {
		return Profile{}, err
	}
	defer file.Close()
	return detect(file, e)
}

func save(workDir string, p Profile) error {
	if err := os.MkdirAll(workDir, fsutil.DirPerms); err != nil {
		return err
	}
	line := strings.Join(p.Packages(), " ")
	return fsutil.CopyToFile(filepath.Join(workDir, ProfileFile),
		fsutil.PublicFilePerms, strings.NewReader(line+"\n"), 0)
}

func load(workDir string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(workDir, ProfileFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return strings.Fields(string(data)), nil
}
