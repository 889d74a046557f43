package loadflags

import (
	"flag"
)

// LoadForCli sets flags from the flags.default and then the flags.extra
// files in /etc/config/progName and then homeDir/.config/progName. Lines
// have the form "name=value". If homeDir is empty, $HOME is used.
func LoadForCli(progName, homeDir string) error {
	return loadForCli(flag.CommandLine, progName, homeDir)
}

// LoadDir sets flags from the flags.default and flags.extra files in
// dirname. Missing files are ignored.
func LoadDir(dirname string) error {
	return loadFlags(flag.CommandLine, dirname)
}
