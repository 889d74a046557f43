package guard

import (
	"github.com/arch-suite/arch-suite/lib/log"
	"github.com/arch-suite/arch-suite/lib/prompt"
)

// Guard gates irreversible operations behind an explicit confirmation.
type Guard struct {
	presenter prompt.Presenter
	logger    log.DebugLogger
}

func New(presenter prompt.Presenter, logger log.DebugLogger) *Guard {
	return &Guard{presenter: presenter, logger: logger}
}

// ConfirmDestructive presents description, which must state exactly what
// will be destroyed on which target, and returns true only on an explicit
// yes. Any other answer, or a prompt failure, returns false.
func (g *Guard) ConfirmDestructive(description string) bool {
	return g.confirmDestructive(description)
}

// Require is similar to ConfirmDestructive, except that a rejection is
// returned as a *errors.SelectionAbort.
func (g *Guard) Require(description string) error {
	return g.require(description)
}
