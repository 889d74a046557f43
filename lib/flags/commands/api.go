package commands

import (
	"flag"
	"io"

	"github.com/arch-suite/arch-suite/lib/log"
)

type CommandFunc func([]string, log.DebugLogger) error

type Command struct {
	Command string
	Args    string
	MinArgs int
	MaxArgs int // A negative value means no limit.
	CmdFunc CommandFunc
}

func PrintCommands(writer io.Writer, commands []Command) {
	printCommands(writer, commands)
}

// RunCommands runs the command named by the first non-flag argument and
// returns the exit status: 0 on success, 1 if the command failed and 2 for
// a usage error.
func RunCommands(commands []Command, printUsage func(),
	logger log.DebugLogger) int {
	return runCommands(commands, flag.Args(), flag.CommandLine.Output(),
		printUsage, logger)
}

// Run is similar to RunCommands, except that the command line and the error
// output are given explicitly.
func Run(commands []Command, args []string, output io.Writer,
	printUsage func(), logger log.DebugLogger) int {
	return runCommands(commands, args, output, printUsage, logger)
}
