package main

import (
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/arch-suite/arch-suite/lib/config"
	"github.com/arch-suite/arch-suite/lib/errors"
	"github.com/arch-suite/arch-suite/lib/executor"
	"github.com/arch-suite/arch-suite/lib/fsutil"
	"github.com/arch-suite/arch-suite/lib/fsutil/mounts"
	"github.com/arch-suite/arch-suite/lib/guard"
	"github.com/arch-suite/arch-suite/lib/log"
	"github.com/arch-suite/arch-suite/lib/prompt"
	"github.com/arch-suite/arch-suite/lib/store"
	"github.com/arch-suite/arch-suite/lib/workflow"
	"github.com/z46-dev/go-logger"
)

// suite holds what every menu action needs.
type suite struct {
	config    *config.Configuration
	console   *logger.Logger
	dryRun    bool
	executor  executor.Executor
	guard     *guard.Guard
	logger    log.DebugLogger
	mounter   mounts.Mounter
	presenter prompt.Presenter
	progress  io.Writer
	store     *store.Store
	user      *config.InvokingUser
	workDir   string
}

func defaultConfigFile(user *config.InvokingUser) string {
	return filepath.Join(user.Home, ".config", progName, "config.toml")
}

func newSuite(debugLogger log.DebugLogger) (*suite, error) {
	configFilename := *configFile
	if configFilename == "" {
		configFilename = defaultConfigFile(invokingUser)
	}
	cfg, err := config.Load(configFilename)
	if err != nil {
		return nil, err
	}
	dir := *workDir
	if dir == "" {
		dir = invokingUser.WorkDir()
	}
	if err := os.MkdirAll(dir, fsutil.DirPerms); err != nil {
		return nil, err
	}
	if err := handOver(dir, invokingUser); err != nil {
		return nil, err
	}
	console := logger.NewLogger().SetPrefix("[ARCH-SUITE]", logger.BoldPurple).
		IncludeTimestamp()
	presenter := prompt.NewTerminal()
	return &suite{
		config:    cfg,
		console:   console,
		dryRun:    *dryRun,
		executor:  executor.New(debugLogger, *dryRun),
		guard:     guard.New(presenter, debugLogger),
		logger:    debugLogger,
		mounter:   mounts.NewSystem(debugLogger, *dryRun),
		presenter: presenter,
		progress:  os.Stdout,
		store:     store.New(cfg.Store.S3Region, debugLogger),
		user:      invokingUser,
		workDir:   dir,
	}, nil
}

// handOver gives pathname to the invoking user when running as root.
func handOver(pathname string, user *config.InvokingUser) error {
	if os.Geteuid() != 0 {
		return nil
	}
	return os.Chown(pathname, user.UID, user.GID)
}

// report logs the outcome of a menu action and returns true if it failed.
// An operator abort is not a failure.
func (s *suite) report(action string, err error) bool {
	if err == nil {
		return false
	}
	if errors.IsSelectionAbort(err) {
		s.console.Warningf("%s: %s\n", action, err)
		return false
	}
	s.console.Errorf("%s failed: %s\n", action, err)
	return true
}

// whileMounted runs fn with interrupts turned into a cleanup of mountPoint
// followed by exit.
func (s *suite) whileMounted(mountPoint string, cleanup func(string) error,
	fn func() error) error {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		workflow.HandleInterrupts(signals, func() {
			s.console.Warningf("interrupted, unmounting %s\n", mountPoint)
			if err := cleanup(mountPoint); err != nil {
				s.console.Errorf("error unmounting: %s\n", err)
			}
		}, os.Exit)
		close(done)
	}()
	err := fn()
	signal.Stop(signals)
	close(signals)
	<-done
	return err
}

// listFiles returns the files in dir matching pattern, oldest name first.
func listFiles(dir, pattern string) ([]string, error) {
	filenames, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, err
	}
	sort.Strings(filenames)
	return filenames, nil
}

// latestFile returns the last file in dir matching pattern, or "".
func latestFile(dir, pattern string) (string, error) {
	filenames, err := listFiles(dir, pattern)
	if err != nil || len(filenames) < 1 {
		return "", err
	}
	return filenames[len(filenames)-1], nil
}
