package guard

import (
	"strings"
	"testing"

	"github.com/arch-suite/arch-suite/lib/errors"
	"github.com/arch-suite/arch-suite/lib/log/testlogger"
	"github.com/arch-suite/arch-suite/lib/prompt"
)

func TestConfirmDestructive(t *testing.T) {
	tests := []struct {
		answers  []string
		expected bool
	}{
		{[]string{"yes"}, true},
		{[]string{"Y"}, true},
		{[]string{"no"}, false},
		{[]string{""}, false},
		{[]string{"yess"}, false},
		{nil, false}, // Prompt fails with io.EOF.
	}
	for _, test := range tests {
		presenter := prompt.NewScripted(test.answers...)
		g := New(presenter, testlogger.New(t))
		got := g.ConfirmDestructive("wipe all data on /dev/sda")
		if got != test.expected {
			t.Errorf("%v: expected: %v, got: %v",
				test.answers, test.expected, got)
		}
		prompts := presenter.Prompts()
		if len(prompts) != 1 || !strings.Contains(prompts[0], "/dev/sda") {
			t.Errorf("description not presented: %v", prompts)
		}
	}
}

func TestRequireReturnsSelectionAbort(t *testing.T) {
	g := New(prompt.NewScripted("no"), testlogger.New(t))
	err := g.Require("format /dev/sda1")
	if !errors.IsSelectionAbort(err) {
		t.Errorf("expected SelectionAbort, got: %v", err)
	}
	g = New(prompt.NewScripted("yes"), testlogger.New(t))
	if err := g.Require("format /dev/sda1"); err != nil {
		t.Errorf("expected no error, got: %s", err)
	}
}
