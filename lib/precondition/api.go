package precondition

import (
	"os/exec"
	"time"

	"github.com/arch-suite/arch-suite/lib/log"
	"golang.org/x/sys/unix"
)

const (
	CheckPrivilege = "privilege"
	CheckNetwork   = "network"
	CheckArchive   = "archive"
	CheckTools     = "tools"

	DefaultProbeTimeout = 3 * time.Second
)

// DeployTools are the programs a deployment runs outside the chroot.
var DeployTools = []string{
	"lsblk", "wipefs", "sgdisk", "partprobe", "udevadm", "mkfs.fat",
	"mkfs.ext4", "pacstrap", "genfstab",
}

// Requirements selects the checks made by Check. Empty fields are not
// checked.
type Requirements struct {
	Root         bool
	ProbeHost    string
	ProbeTimeout time.Duration
	Archive      string
	Tools        []string
}

// Checker verifies Requirements. Every failure is a
// *errors.PreconditionError.
type Checker struct {
	logger   log.DebugLogger
	geteuid  func() int
	lookPath func(string) (string, error)
	ping     func(host string, timeout time.Duration) error
	dial     func(address string, timeout time.Duration) error
}

func New(logger log.DebugLogger) *Checker {
	return &Checker{
		logger:   logger,
		geteuid:  unix.Geteuid,
		lookPath: exec.LookPath,
		ping:     ping,
		dial:     dial,
	}
}

// Check runs the privilege, network, archive and tool checks, in that
// order, stopping at the first failure.
func (c *Checker) Check(req Requirements) error {
	return c.check(req)
}

// Reachable returns nil if host answers an ICMP echo or accepts a TCP
// connection on port 443 within timeout.
func (c *Checker) Reachable(host string, timeout time.Duration) error {
	return c.reachable(host, timeout)
}
