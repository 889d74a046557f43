// Package backoffdelay provides delays which grow between attempts.
package backoffdelay

import (
	"time"
)

type Sleeper interface {
	Sleep()
}

// NewExponential returns a Sleeper which first waits minimumDelay. After each
// Sleep the delay grows by delay>>growthRate, so a growthRate of 0 doubles it
// and 2 adds a quarter, until it reaches maximumDelay.
// A minimumDelay of 0 or less means one second. A maximumDelay not above
// minimumDelay means ten times minimumDelay.
func NewExponential(minimumDelay, maximumDelay time.Duration,
	growthRate uint) Sleeper {
	return newExponential(minimumDelay, maximumDelay, growthRate, time.Sleep)
}
