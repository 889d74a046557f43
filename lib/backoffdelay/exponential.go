package backoffdelay

import (
	"time"
)

type exponential struct {
	growthRate uint
	delay      time.Duration
	maximum    time.Duration
	sleep      func(time.Duration)
}

func newExponential(minimumDelay, maximumDelay time.Duration,
	growthRate uint, sleep func(time.Duration)) *exponential {
	if minimumDelay <= 0 {
		minimumDelay = time.Second
	}
	if maximumDelay <= minimumDelay {
		maximumDelay = 10 * minimumDelay
	}
	return &exponential{
		growthRate: growthRate,
		delay:      minimumDelay,
		maximum:    maximumDelay,
		sleep:      sleep,
	}
}

func (e *exponential) Sleep() {
	e.sleep(e.delay)
	if growth := e.delay >> e.growthRate; growth > 0 {
		e.delay += growth
	} else {
		e.delay++
	}
	if e.delay > e.maximum {
		e.delay = e.maximum
	}
}
