package clone

import (
	"io"

	"github.com/arch-suite/arch-suite/lib/executor"
	"github.com/arch-suite/arch-suite/lib/log"
)

const (
	DefaultProfile = "/usr/share/archiso/configs/releng"
	PackagesFile   = "packages.x86_64"
	EmbedDir       = "airootfs/root/arch-suite"
	LiveDirName    = "archlive"
	OutputDirName  = "out"
	scratchDirName = "archiso-tmp"
	requiredISODir = "arch"
)

type Options struct {
	Profile  string   // archiso profile to start from. Defaults to releng.
	WorkDir  string   // Holds the profile copy, scratch and output.
	Packages []string // Added to the image package list.
	Snapshot string   // Optional archive embedded in the image.
	Executor executor.Executor
	Logger   log.DebugLogger
	Progress io.Writer // Optional. Receives mkarchiso output.
}

// Build produces a bootable live image containing Packages and, optionally,
// Snapshot. It returns the path of the verified ISO.
func Build(options Options) (string, error) {
	return build(options)
}

// NativePackages returns the explicitly installed packages which came from
// a repository, suitable for an image package list.
func NativePackages(e executor.Executor) ([]string, error) {
	return nativePackages(e)
}

// VerifyImage returns an error unless filename is an ISO 9660 image with an
// Arch live tree.
func VerifyImage(filename string) error {
	return verifyImage(filename)
}
