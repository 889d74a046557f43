package loadflags

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const systemDir = "/etc/config"

func loadFlags(flagSet *flag.FlagSet, dirname string) error {
	err := loadFlagsFromFile(flagSet, filepath.Join(dirname, "flags.default"))
	if err != nil {
		return err
	}
	return loadFlagsFromFile(flagSet, filepath.Join(dirname, "flags.extra"))
}

func loadFlagsFromFile(flagSet *flag.FlagSet, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) < 1 {
			continue
		}
		if line[0] == '#' || line[0] == ';' {
			continue
		}
		splitLine := strings.SplitN(line, "=", 2)
		if len(splitLine) < 2 {
			return errors.New("bad line, cannot split name from value: " + line)
		}
		name := strings.TrimSpace(splitLine[0])
		if strings.Count(name, " ") != 0 {
			return errors.New("bad line, name has whitespace: " + line)
		}
		value := strings.TrimSpace(splitLine[1])
		if err := flagSet.Set(name, value); err != nil {
			return fmt.Errorf("%s: %w", filename, err)
		}
	}
	return scanner.Err()
}

func loadForCli(flagSet *flag.FlagSet, progName, homeDir string) error {
	if err := loadFlags(flagSet, filepath.Join(systemDir, progName)); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", err)
	}
	if homeDir == "" {
		homeDir = os.Getenv("HOME")
	}
	return loadFlags(flagSet, filepath.Join(homeDir, ".config", progName))
}
