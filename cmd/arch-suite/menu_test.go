package main

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/arch-suite/arch-suite/lib/errors"
	"github.com/arch-suite/arch-suite/lib/log/testlogger"
	"github.com/arch-suite/arch-suite/lib/prompt"
	"github.com/z46-dev/go-logger"
)

type testAction uint

const (
	testSucceed testAction = iota
	testAbort
	testFail
	testBack
)

func (a testAction) String() string {
	return [...]string{"succeed", "abort", "fail", "back"}[a]
}

func newTestSuite(t *testing.T, answers ...string) *suite {
	return &suite{
		console:   logger.NewLogger().SetPrefix("[TEST]", logger.BoldWhite),
		logger:    testlogger.New(t),
		presenter: prompt.NewScripted(answers...),
		workDir:   t.TempDir(),
	}
}

func runTestMenu(s *suite) (map[testAction]int, error) {
	counts := make(map[testAction]int)
	err := runMenu(s, "Test",
		[]testAction{testSucceed, testAbort, testFail, testBack}, testBack,
		func(action testAction) error {
			counts[action]++
			switch action {
			case testAbort:
				return errors.NewSelectionAbort("declined")
			case testFail:
				return io.ErrUnexpectedEOF
			}
			return nil
		})
	return counts, err
}

func TestMenuReturnsAfterAbort(t *testing.T) {
	s := newTestSuite(t, "1", "2", "succeed", "4")
	counts, err := runTestMenu(s)
	if err != nil {
		t.Fatal(err)
	}
	if counts[testSucceed] != 2 || counts[testAbort] != 1 {
		t.Errorf("expected: 2 succeed and 1 abort, got: %v", counts)
	}
	if counts[testBack] != 0 {
		t.Error("back was run as an action")
	}
}

func TestMenuReportsFailures(t *testing.T) {
	s := newTestSuite(t, "3", "1", "")
	counts, err := runTestMenu(s)
	if err == nil {
		t.Fatal("failed action not reported")
	}
	if counts[testSucceed] != 1 {
		t.Errorf("menu did not continue after a failure: %v", counts)
	}
}

func TestMenuStopsAtEndOfInput(t *testing.T) {
	s := newTestSuite(t, "1")
	if _, err := runTestMenu(s); err != io.EOF {
		t.Errorf("expected: %v, got: %v", io.EOF, err)
	}
}

func TestActionNames(t *testing.T) {
	for action := replicateCapture; action <= replicateBack; action++ {
		if action.String() == "" {
			t.Errorf("replicate action %d has no name", action)
		}
	}
	for action := utilityInspect; action <= utilityBack; action++ {
		if action.String() == "" {
			t.Errorf("utility action %d has no name", action)
		}
	}
}

func TestSubcommandsSorted(t *testing.T) {
	if !sort.SliceIsSorted(subcommands, func(i, j int) bool {
		return subcommands[i].Command < subcommands[j].Command
	}) {
		t.Error("subcommands are not sorted")
	}
}

func TestPickFileNewestFirst(t *testing.T) {
	s := newTestSuite(t, "1")
	for _, name := range []string{"snapshot-20260101.tar.gz",
		"snapshot-20261014.tar.gz", "dotfiles-20261014-120000.tar.gz"} {
		filename := filepath.Join(s.workDir, name)
		if err := os.WriteFile(filename, nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	filenames, err := listFiles(s.workDir, snapshotPattern)
	if err != nil {
		t.Fatal(err)
	}
	if len(filenames) != 2 {
		t.Fatalf("expected: 2 snapshots, got: %v", filenames)
	}
	filename, err := s.pickFile("Snapshot", filenames, "Other location")
	if err != nil {
		t.Fatal(err)
	}
	expected := filepath.Join(s.workDir, "snapshot-20261014.tar.gz")
	if filename != expected {
		t.Errorf("expected: %s, got: %s", expected, filename)
	}
	latest, err := latestFile(s.workDir, snapshotPattern)
	if err != nil {
		t.Fatal(err)
	}
	if latest != expected {
		t.Errorf("expected: %s, got: %s", expected, latest)
	}
}

func TestPickFileOther(t *testing.T) {
	s := newTestSuite(t, "Other location")
	filename, err := s.pickFile("Snapshot", nil, "Other location")
	if err != nil {
		t.Fatal(err)
	}
	if filename != "" {
		t.Errorf("expected: empty name, got: %s", filename)
	}
}

func TestPickFileNothingToPick(t *testing.T) {
	s := newTestSuite(t)
	if _, err := s.pickFile("Snapshot", nil, ""); !errors.IsSelectionAbort(err) {
		t.Errorf("expected SelectionAbort, got: %v", err)
	}
}

func TestInputLocationRejectsScheme(t *testing.T) {
	s := newTestSuite(t, "ftp://example.com/snapshot.tar.gz")
	if _, err := s.inputLocation(); err == nil {
		t.Error("unsupported scheme accepted")
	}
	s = newTestSuite(t, "  ")
	if _, err := s.inputLocation(); !errors.IsSelectionAbort(err) {
		t.Errorf("expected SelectionAbort, got: %v", err)
	}
}
