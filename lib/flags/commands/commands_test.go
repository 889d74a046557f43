package commands

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/arch-suite/arch-suite/lib/log"
	"github.com/arch-suite/arch-suite/lib/log/testlogger"
)

func makeCommands(called *[]string) []Command {
	record := func(name string, err error) CommandFunc {
		return func(args []string, logger log.DebugLogger) error {
			*called = append(*called, name+" "+strings.Join(args, " "))
			return err
		}
	}
	return []Command{
		{"clone", "[snapshot]", 0, 1, record("clone", nil)},
		{"disabled", "", 0, 0, nil},
		{"fail", "", 0, 0, record("fail", errors.New("broken"))},
		{"help", "", 0, 0, record("help", nil)},
	}
}

func TestRun(t *testing.T) {
	tests := []struct {
		args   []string
		status int
		usage  bool
		called string
		output string
	}{
		{args: nil, status: 2, usage: true},
		{args: []string{"unknown"}, status: 2, usage: true},
		{args: []string{"disabled"}, status: 2, usage: true},
		{args: []string{"clone", "a", "b"}, status: 2, usage: true},
		{args: []string{"clone", "a"}, called: "clone a"},
		{args: []string{"help"}, called: "help "},
		{args: []string{"fail"}, status: 1, called: "fail ", output: "broken\n"},
	}
	for _, test := range tests {
		var called []string
		var output bytes.Buffer
		usage := false
		status := Run(makeCommands(&called), test.args, &output,
			func() { usage = true }, testlogger.New(t))
		if status != test.status {
			t.Errorf("%v: expected: %d, got: %d", test.args, test.status, status)
		}
		if usage != test.usage {
			t.Errorf("%v: expected usage: %v, got: %v", test.args, test.usage,
				usage)
		}
		if got := strings.Join(called, ","); got != test.called {
			t.Errorf("%v: expected: %q, got: %q", test.args, test.called, got)
		}
		if output.String() != test.output {
			t.Errorf("%v: expected: %q, got: %q", test.args, test.output,
				output.String())
		}
	}
}

func TestPrintCommands(t *testing.T) {
	var called []string
	var output bytes.Buffer
	PrintCommands(&output, makeCommands(&called))
	expected := "  clone [snapshot]\n  fail\n  help\n"
	if output.String() != expected {
		t.Errorf("expected: %q, got: %q", expected, output.String())
	}
	output.Reset()
	commands := makeCommands(&called)
	commands[0], commands[3] = commands[3], commands[0]
	PrintCommands(&output, commands)
	if !strings.HasPrefix(output.String(), "NOTE: COMMANDS ARE NOT SORTED!") {
		t.Errorf("unsorted table not flagged: %q", output.String())
	}
}
