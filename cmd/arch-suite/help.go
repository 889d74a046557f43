package main

import (
	"flag"

	"github.com/arch-suite/arch-suite/lib/log"
)

func helpSubcommand(args []string, logger log.DebugLogger) error {
	flag.Usage()
	return nil
}
