package main

import (
	"path/filepath"
	"strings"

	"github.com/arch-suite/arch-suite/lib/errors"
	"github.com/arch-suite/arch-suite/lib/log"
	"github.com/arch-suite/arch-suite/lib/prompt"
	"github.com/arch-suite/arch-suite/lib/snapshot"
	"github.com/arch-suite/arch-suite/lib/store"
	"github.com/arch-suite/arch-suite/lib/workflow"
)

const snapshotPattern = "snapshot-*.tar.gz"

type replicateAction uint

const (
	replicateCapture replicateAction = iota
	replicateDeploy
	replicateUpload
	replicateFetch
	replicateBack
)

var replicateActionNames = [...]string{
	replicateCapture: "Capture this system",
	replicateDeploy:  "Deploy a snapshot",
	replicateUpload:  "Upload a snapshot",
	replicateFetch:   "Fetch a snapshot",
	replicateBack:    "Back",
}

func (a replicateAction) String() string {
	return replicateActionNames[a]
}

func replicateSubcommand(args []string, logger log.DebugLogger) error {
	s, err := newSuite(logger)
	if err != nil {
		return err
	}
	return s.replicateMenu()
}

func (s *suite) replicateMenu() error {
	return runMenu(s, "Replicate",
		[]replicateAction{replicateCapture, replicateDeploy, replicateUpload,
			replicateFetch, replicateBack},
		replicateBack, s.replicate)
}

func (s *suite) replicate(action replicateAction) error {
	switch action {
	case replicateCapture:
		return s.capture()
	case replicateDeploy:
		return s.deploy()
	case replicateUpload:
		return s.upload()
	case replicateFetch:
		return s.fetch()
	}
	return nil
}

func (s *suite) capture() error {
	s.console.Status("capturing packages, services and configuration")
	filename, err := snapshot.Capture(snapshot.CaptureOptions{
		WorkDir:  s.workDir,
		HomeDir:  s.user.Home,
		Owner:    &snapshot.Owner{UID: s.user.UID, GID: s.user.GID},
		Executor: s.executor,
		Logger:   s.logger,
	})
	if err != nil {
		return err
	}
	s.console.Successf("snapshot written to %s\n", filename)
	return nil
}

func (s *suite) deploy() error {
	archive, err := s.chooseSnapshot()
	if err != nil {
		return err
	}
	wf := workflow.New(workflow.Params{
		Config:    s.config,
		DryRun:    s.dryRun,
		Executor:  s.executor,
		Guard:     s.guard,
		Logger:    s.logger,
		Mounter:   s.mounter,
		Presenter: s.presenter,
		Progress:  s.progress,
	})
	ctx := &workflow.Context{
		Archive:    archive,
		MountPoint: *mountPoint,
		WorkDir:    s.workDir,
	}
	err = s.whileMounted(ctx.MountPoint, wf.Cleanup, func() error {
		return wf.Deploy(ctx)
	})
	if err != nil {
		if errors.IsRestore(err) {
			s.console.Warningf("%s is still mounted for inspection\n",
				ctx.MountPoint)
		}
		return err
	}
	s.console.Successf("deployment %s complete, the system can be rebooted\n",
		ctx.RunID)
	return nil
}

func (s *suite) upload() error {
	filenames, err := listFiles(s.workDir, snapshotPattern)
	if err != nil {
		return err
	}
	filename, err := s.pickFile("Snapshot to upload", filenames, "")
	if err != nil {
		return err
	}
	destination := s.config.Store.Upload
	answer, err := s.presenter.Input("Destination (s3://bucket/key or path) [" +
		destination + "]: ")
	if err != nil {
		return err
	}
	if answer = strings.TrimSpace(answer); answer != "" {
		destination = answer
	}
	if destination == "" {
		return errors.NewSelectionAbort("no destination given")
	}
	location, err := s.store.Upload(filename, destination)
	if err != nil {
		return err
	}
	s.console.Successf("uploaded %s to %s\n", filepath.Base(filename),
		location)
	return nil
}

func (s *suite) fetch() error {
	location, err := s.inputLocation()
	if err != nil {
		return err
	}
	filename, err := s.store.Fetch(location, s.workDir)
	if err != nil {
		return err
	}
	if err := snapshot.Validate(filename); err != nil {
		s.console.Warningf("%s is not a usable snapshot: %s\n", filename, err)
		return nil
	}
	s.console.Successf("fetched %s\n", filename)
	return nil
}

// chooseSnapshot returns a local archive to deploy. The -snapshotURL flag
// and then the configured snapshot take precedence over asking the
// operator.
func (s *suite) chooseSnapshot() (string, error) {
	location := *snapshotURL
	if location == "" {
		location = s.config.Store.Snapshot
	}
	if location == "" {
		filenames, err := listFiles(s.workDir, snapshotPattern)
		if err != nil {
			return "", err
		}
		location, err = s.pickFile("Snapshot to deploy", filenames,
			"Other location")
		if err != nil {
			return "", err
		}
		if location == "" {
			if location, err = s.inputLocation(); err != nil {
				return "", err
			}
		}
	}
	return s.store.Fetch(location, s.workDir)
}

// pickFile offers filenames newest first. If other is not empty it is
// offered last and picking it yields "".
func (s *suite) pickFile(title string, filenames []string,
	other string) (string, error) {
	options := make([]prompt.Option[string], 0, len(filenames)+1)
	for index := len(filenames) - 1; index >= 0; index-- {
		options = append(options, prompt.Option[string]{
			Label: filepath.Base(filenames[index]),
			Value: filenames[index],
		})
	}
	if other != "" {
		options = append(options, prompt.Option[string]{Label: other})
	}
	if len(options) < 1 {
		return "", errors.NewSelectionAbort("no files in " + s.workDir)
	}
	filename, err := prompt.Select(s.presenter, title, options)
	if err == prompt.ErrEmpty {
		return "", errors.NewSelectionAbort("nothing selected")
	}
	return filename, err
}

func (s *suite) inputLocation() (string, error) {
	location, err := s.presenter.Input(
		"Snapshot location (path, s3://bucket/key or tftp://host/name): ")
	if err != nil {
		return "", err
	}
	if location = strings.TrimSpace(location); location == "" {
		return "", errors.NewSelectionAbort("no location given")
	}
	if _, err := store.Parse(location); err != nil {
		return "", err
	}
	return location, nil
}
