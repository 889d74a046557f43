package workflow

import (
	"os"
)

func handleInterrupts(signals <-chan os.Signal, cleanup func(),
	exit func(int)) {
	if _, ok := <-signals; !ok {
		return
	}
	cleanup()
	exit(InterruptStatus)
}
