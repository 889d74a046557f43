package hardware

import (
	"io"

	"github.com/arch-suite/arch-suite/lib/executor"
)

const ProfileFile = "drivers.txt"

// Profile maps each hardware component to its recommended driver packages.
// An unrecognised vendor yields an empty set.
type Profile struct {
	CPUVendor string
	GPUVendor string
	CPU       []string
	GPU       []string
}

// Packages returns the driver packages for every component.
func (p Profile) Packages() []string {
	return append(append([]string(nil), p.CPU...), p.GPU...)
}

// Detect reads the CPU vendor from cpuinfo (normally /proc/cpuinfo) and
// the GPU vendors from "lspci -mm".
func Detect(cpuinfo io.Reader, e executor.Executor) (Profile, error) {
	return detect(cpuinfo, e)
}

// DetectLocal is similar to Detect, reading /proc/cpuinfo.
func DetectLocal(e executor.Executor) (Profile, error) {
	return detectLocal(e)
}

// CPUPackages maps a CPU vendor identifier to microcode packages.
func CPUPackages(vendorID string) []string {
	return cpuPackages(vendorID)
}

// GPUPackages maps a PCI vendor name to graphics driver packages.
func GPUPackages(vendor string) []string {
	return gpuPackages(vendor)
}

// Save writes the packages of p to workDir/drivers.txt as a single space
// separated line, replacing any previous profile. Callers must have the
// operator's confirmation.
func Save(workDir string, p Profile) error {
	return save(workDir, p)
}

// Load reads the saved driver packages. A missing profile yields no
// packages and no error.
func Load(workDir string) ([]string, error) {
	return load(workDir)
}
