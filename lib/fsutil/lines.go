package fsutil

import (
	"bufio"
	"io"
	"os"
	"strings"
)

func loadLines(filename string) ([]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()
	return readLines(file)
}

func readLines(reader io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) < 1 || line[0] == '#' {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func writeLines(filename string, lines []string, perm os.FileMode) error {
	writer, err := createRenamingWriter(filename, perm)
	if err != nil {
		return err
	}
	buffered := bufio.NewWriter(writer)
	for _, line := range lines {
		if _, err := buffered.WriteString(line + "\n"); err != nil {
			writer.Abort()
			writer.Close()
			return err
		}
	}
	if err := buffered.Flush(); err != nil {
		writer.Abort()
		writer.Close()
		return err
	}
	return writer.Close()
}
