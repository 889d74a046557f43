package fsutil

import (
	"fmt"
	"os"
	"time"

	"github.com/arch-suite/arch-suite/lib/backoffdelay"
)

func waitForBlockAvailable(pathname string, timeout time.Duration) error {
	if timeout <= 0 || timeout > time.Hour {
		timeout = time.Hour
	}
	sleeper := backoffdelay.NewExponential(time.Millisecond,
		100*time.Millisecond, 2)
	stopTime := time.Now().Add(timeout)
	var numOpened uint
	for time.Until(stopTime) >= 0 {
		// Opening rather than stat-ing may trigger creation of the node.
		if file, err := os.Open(pathname); err == nil {
			numOpened++
			fi, err := file.Stat()
			file.Close()
			if err != nil {
				return err
			}
			if fi.Mode()&os.ModeDevice != 0 {
				return nil
			}
		}
		sleeper.Sleep()
	}
	return fmt.Errorf("timed out waiting for block device, %d opens: %s",
		numOpened, pathname)
}
