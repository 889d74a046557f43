package main

import (
	"flag"
	"fmt"
	stdlog "log"
	"os"

	"github.com/Cloud-Foundations/tricorder/go/tricorder"
	"github.com/arch-suite/arch-suite/lib/config"
	"github.com/arch-suite/arch-suite/lib/flags/commands"
	"github.com/arch-suite/arch-suite/lib/flags/loadflags"
	"github.com/arch-suite/arch-suite/lib/log/debuglogger"
)

const progName = "arch-suite"

var (
	configFile = flag.String("configFile", "",
		"Name of deployment profile (default ~/.config/arch-suite/config.toml)")
	debug = flag.Int("debug", -1,
		"Maximum debug level to log (negative disables debug messages)")
	dryRun = flag.Bool("dryRun", false,
		"If true, log destructive commands instead of running them")
	metricsPortNum = flag.Uint("metricsPortNum", 0,
		"Port number to serve metrics on (0 disables)")
	mountPoint = flag.String("mountPoint", "/mnt",
		"Mount point for the system being deployed")
	snapshotURL = flag.String("snapshotURL", "",
		"Snapshot to deploy: a path, s3://bucket/key or tftp://host/name")
	workDir = flag.String("workDir", "",
		"Directory for snapshots, images and logs (default ~/arch-suite-work)")

	invokingUser *config.InvokingUser
)

func printUsage() {
	w := flag.CommandLine.Output()
	fmt.Fprintln(w, "Usage: arch-suite [flags...] command")
	fmt.Fprintln(w, "Common flags:")
	flag.PrintDefaults()
	fmt.Fprintln(w, "Commands:")
	commands.PrintCommands(w, subcommands)
}

var subcommands = []commands.Command{
	{Command: "clone", Args: "[snapshot]", MinArgs: 0, MaxArgs: 1, CmdFunc: cloneSubcommand},
	{Command: "help", Args: "", MinArgs: 0, MaxArgs: 0, CmdFunc: helpSubcommand},
	{Command: "replicate", Args: "", MinArgs: 0, MaxArgs: 0, CmdFunc: replicateSubcommand},
	{Command: "utilities", Args: "", MinArgs: 0, MaxArgs: 0, CmdFunc: utilitiesSubcommand},
}

func doMain() int {
	var err error
	invokingUser, err = config.LookupInvokingUser()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := loadflags.LoadForCli(progName, invokingUser.Home); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	flag.Usage = printUsage
	flag.Parse()
	if flag.NArg() < 1 {
		printUsage()
		return 2
	}
	tricorder.RegisterFlags()
	logger := debuglogger.New(os.Stderr, "", stdlog.LstdFlags)
	logger.SetLevel(int16(*debug))
	if *metricsPortNum > 0 {
		if err := startMetricsServer(*metricsPortNum, logger); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	return commands.RunCommands(subcommands, printUsage, logger)
}

func main() {
	os.Exit(doMain())
}
