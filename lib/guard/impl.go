package guard

import (
	"github.com/arch-suite/arch-suite/lib/errors"
)

func (g *Guard) confirmDestructive(description string) bool {
	ok, err := g.presenter.Confirm("DESTRUCTIVE: " + description +
		"\nThis cannot be undone. Continue?")
	if err != nil {
		g.logger.Printf("confirmation failed, treating as no: %s\n", err)
		return false
	}
	if !ok {
		g.logger.Printf("operator declined: %s\n", description)
		return false
	}
	g.logger.Debugf(0, "operator approved: %s\n", description)
	return true
}

func (g *Guard) require(description string) error {
	if !g.confirmDestructive(description) {
		return errors.NewSelectionAbort("declined: " + description)
	}
	return nil
}
