package main

import (
	"fmt"
	"path/filepath"

	"github.com/arch-suite/arch-suite/lib/clone"
	"github.com/arch-suite/arch-suite/lib/errors"
	"github.com/arch-suite/arch-suite/lib/log"
	"github.com/arch-suite/arch-suite/lib/precondition"
)

func cloneSubcommand(args []string, logger log.DebugLogger) error {
	s, err := newSuite(logger)
	if err != nil {
		return err
	}
	var snapshotFile string
	if len(args) > 0 {
		snapshotFile, err = s.store.Fetch(args[0], s.workDir)
	} else if s.config.Clone.EmbedSnapshot {
		snapshotFile, err = latestFile(s.workDir, snapshotPattern)
	}
	if err != nil {
		return err
	}
	if err := s.clone(snapshotFile); err != nil {
		if errors.IsSelectionAbort(err) {
			s.console.Warningf("clone: %s\n", err)
			return nil
		}
		return fmt.Errorf("error building image: %w", err)
	}
	return nil
}

func (s *suite) clone(snapshotFile string) error {
	err := precondition.New(s.logger).Check(precondition.Requirements{
		Root:  !s.dryRun,
		Tools: []string{"mkarchiso"},
	})
	if err != nil {
		return err
	}
	packages, err := clone.NativePackages(s.executor)
	if err != nil {
		return err
	}
	question := fmt.Sprintf("Build a live image with %d extra packages",
		len(packages))
	if snapshotFile != "" {
		question += " and " + filepath.Base(snapshotFile) + " embedded"
	}
	ok, err := s.presenter.Confirm(question + "?")
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewSelectionAbort("image build declined")
	}
	s.console.Status("running mkarchiso, this takes a while")
	image, err := clone.Build(clone.Options{
		Profile:  s.config.Clone.Profile,
		WorkDir:  s.workDir,
		Packages: packages,
		Snapshot: snapshotFile,
		Executor: s.executor,
		Logger:   s.logger,
		Progress: s.progress,
	})
	if err != nil {
		return err
	}
	s.console.Successf("image written to %s\n", image)
	return nil
}
