package mounts

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

func loadMountTable(filename string) (*MountTable, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return readMountTable(file)
}

func readMountTable(reader io.Reader) (*MountTable, error) {
	scanner := bufio.NewScanner(reader)
	table := &MountTable{}
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 4 {
			return nil, fmt.Errorf("only read %d values from %s",
				len(fields), scanner.Text())
		}
		table.Entries = append(table.Entries, &MountEntry{
			Device:     unescape(fields[0]),
			MountPoint: unescape(fields[1]),
			Type:       fields[2],
			Options:    fields[3],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

// unescape decodes the octal escapes (\040 for space etc.) used by the
// kernel for mount points.
func unescape(field string) string {
	if !strings.Contains(field, "\\") {
		return field
	}
	var builder strings.Builder
	for i := 0; i < len(field); i++ {
		if field[i] == '\\' && i+4 <= len(field) {
			if value, err := strconv.ParseUint(field[i+1:i+4], 8, 8); err == nil {
				builder.WriteByte(byte(value))
				i += 3
				continue
			}
		}
		builder.WriteByte(field[i])
	}
	return builder.String()
}

func (mt *MountTable) findEntry(path string) *MountEntry {
	var lastMatch *MountEntry
	var lastLength int
	for _, entry := range mt.Entries {
		if !isUnder(path, entry.MountPoint) {
			continue
		}
		if length := len(entry.MountPoint); length >= lastLength {
			lastMatch = entry
			lastLength = length
		}
	}
	return lastMatch
}

func (mt *MountTable) mountsUnder(dir string) []*MountEntry {
	dir = filepath.Clean(dir)
	var entries []*MountEntry
	for _, entry := range mt.Entries {
		if isUnder(entry.MountPoint, dir) {
			entries = append(entries, entry)
		}
	}
	// Later mounts may stack on earlier ones at the same depth, so keep the
	// table order reversed within a depth.
	reversed := make([]*MountEntry, 0, len(entries))
	for index := len(entries) - 1; index >= 0; index-- {
		reversed = append(reversed, entries[index])
	}
	sort.SliceStable(reversed, func(i, j int) bool {
		return depth(reversed[i].MountPoint) > depth(reversed[j].MountPoint)
	})
	return reversed
}

func isUnder(path, dir string) bool {
	if dir == "/" {
		return strings.HasPrefix(path, "/")
	}
	return path == dir || strings.HasPrefix(path, dir+"/")
}

func depth(path string) int {
	return strings.Count(filepath.Clean(path), "/")
}
