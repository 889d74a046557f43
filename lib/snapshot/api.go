package snapshot

import (
	"io"
	"time"

	"github.com/arch-suite/arch-suite/lib/executor"
	"github.com/arch-suite/arch-suite/lib/log"
)

// Names of the members of a snapshot archive. Each is optional.
const (
	MemberPackages = "packages.x86_64.txt"
	MemberForeign  = "packages.foreign.txt"
	MemberEtc      = "etc.tar.gz"
	MemberHome     = "home.tar.gz"
	MemberServices = "services.enabled.txt"

	RestoreDir = "var/tmp/arch-suite-restore" // Relative to the new root.
)

// Restore steps, in the order they run.
const (
	StepExtract    = "extract"
	StepEtc        = "etc"
	StepPackages   = "packages"
	StepUser       = "user"
	StepHome       = "home"
	StepForeign    = "foreign"
	StepServices   = "services"
	StepBootloader = "bootloader"
)

var RestoreSteps = []string{
	StepExtract, StepEtc, StepPackages, StepUser, StepHome, StepForeign,
	StepServices, StepBootloader,
}

// Owner identifies the invoking, non-privileged user who receives ownership
// of captured files.
type Owner struct {
	UID int
	GID int
}

type CaptureOptions struct {
	WorkDir  string
	HomeDir  string
	EtcDir   string // Defaults to /etc.
	Owner    *Owner // If nil, ownership is not changed.
	Executor executor.Executor
	Logger   log.DebugLogger
	Now      func() time.Time // Defaults to time.Now.
}

// Capture gathers the package lists, /etc, the home directory and the
// enabled services into WorkDir/snapshot-YYYYMMDD.tar.gz and returns its
// path.
func Capture(options CaptureOptions) (string, error) {
	return capture(options)
}

// Contents describes what a snapshot archive holds. Absent members are
// reported as absent rather than as errors.
type Contents struct {
	Packages []string
	Foreign  []string
	Services []string
	HasEtc   bool
	HasHome  bool
}

// ReadArchive reads the lists of a snapshot archive and reports which tree
// members are present.
func ReadArchive(filename string) (*Contents, error) {
	return readArchive(filename)
}

// Extracted is a snapshot archive unpacked into a directory.
type Extracted struct {
	Dir string
	*Contents
}

// EtcArchive returns the path of the nested /etc archive, if present.
func (e *Extracted) EtcArchive() string { return e.member(MemberEtc) }

// HomeArchive returns the path of the nested home archive, if present.
func (e *Extracted) HomeArchive() string { return e.member(MemberHome) }

// Extract unpacks the top-level members of filename into dir.
func Extract(filename, dir string) (*Extracted, error) {
	return extract(filename, dir)
}

// ListTree returns the entry names of a nested tree archive such as
// etc.tar.gz.
func ListTree(filename string) ([]string, error) {
	return listTree(filename)
}

// ArchiveTree writes the tree at root to filename as a gzip compressed tar
// archive, with entry names prefixed by prefix. Paths relative to root for
// which exclude returns true are left out with their children.
func ArchiveTree(filename, root, prefix string,
	exclude func(relPath string) bool, logger log.DebugLogger) error {
	return archiveTree(filename, root, prefix, exclude, logger)
}

// Validate checks that filename is a gzip compressed tar archive.
func Validate(filename string) error {
	return validate(filename)
}

type RestoreOptions struct {
	Archive  string
	// DryRun leaves Root untouched. The archive is unpacked to a temporary
	// directory and commands still go to Executor.
	DryRun   bool
	Root     string // Mount point of the new system.
	User     string
	Password string
	Executor executor.Executor
	Logger   log.DebugLogger
	Progress io.Writer // Optional. Receives output of long running steps.
	// OnStep is called after each step succeeds, with its 1-based position.
	OnStep func(step string, index int)
	// AURHelper is the foreign package manager bootstrapped to reinstall
	// foreign packages. Defaults to yay-bin.
	AURHelper string
}

// RestoreReport records what a restore did beyond plain success.
type RestoreReport struct {
	Skipped        []string // Steps with nothing to restore.
	FailedServices []string // Units which could not be enabled.
}

// Restore replays archive onto the new system mounted at Root. A failure is
// returned as an *errors.RestoreError naming the step. The new root is left
// mounted for inspection.
func Restore(options RestoreOptions) (*RestoreReport, error) {
	return restore(options)
}

// ValidUsername returns an error if name is not an acceptable login name.
func ValidUsername(name string) error {
	return validUsername(name)
}
