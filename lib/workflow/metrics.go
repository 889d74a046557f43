package workflow

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Cloud-Foundations/tricorder/go/tricorder"
	"github.com/Cloud-Foundations/tricorder/go/tricorder/units"
)

const (
	stepPreconditions = "preconditions"
	stepSelect        = "select"
	stepDisk          = "disk"
	stepBaseInstall   = "base-install"
	stepRestore       = "restore"
	stepConfigure     = "configure"
)

var (
	metricsOnce           sync.Once
	serviceEnableFailures uint64
	stepDurations         = make(map[string]*tricorder.CumulativeDistribution)
)

func registerMetrics() {
	metricsOnce.Do(func() {
		bucketer := tricorder.NewGeometricBucketer(0.1, 1e7)
		for _, step := range []string{stepPreconditions, stepSelect, stepDisk,
			stepBaseInstall, stepRestore, stepConfigure} {
			distribution := bucketer.NewCumulativeDistribution()
			err := tricorder.RegisterMetric("/workflow/step-durations/"+step,
				distribution, units.Millisecond, "duration of "+step+" step")
			if err != nil {
				panic(err)
			}
			stepDurations[step] = distribution
		}
		err := tricorder.RegisterMetric("/workflow/service-enable-failures",
			func() uint64 { return atomic.LoadUint64(&serviceEnableFailures) },
			units.None, "number of units which could not be enabled")
		if err != nil {
			panic(err)
		}
	})
}

func recordStep(step string, startTime time.Time) {
	if distribution, ok := stepDurations[step]; ok {
		distribution.Add(time.Since(startTime))
	}
}
