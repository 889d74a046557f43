package main

import (
	"fmt"

	"github.com/arch-suite/arch-suite/lib/prompt"
)

type menuAction interface {
	comparable
	fmt.Stringer
}

// runMenu offers actions until the operator picks back or cancels. Each
// chosen action runs once per pick and a failure returns to the menu. The
// error returned reports whether any action failed.
func runMenu[T menuAction](s *suite, title string, actions []T, back T,
	run func(T) error) error {
	options := make([]prompt.Option[T], 0, len(actions))
	for _, action := range actions {
		options = append(options,
			prompt.Option[T]{Label: action.String(), Value: action})
	}
	var failures uint
	for {
		action, err := prompt.Select(s.presenter, title, options)
		if err == prompt.ErrEmpty {
			break
		}
		if err != nil {
			return err
		}
		if action == back {
			break
		}
		if s.report(action.String(), run(action)) {
			failures++
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d action(s) failed", failures)
	}
	return nil
}
