package disk

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/arch-suite/arch-suite/lib/executor"
	"github.com/arch-suite/arch-suite/lib/prompt"
	"github.com/dustin/go-humanize"
)

var pseudoPrefixes = []string{"loop", "sr", "ram", "zram"}

// byteCount accepts both the numeric and the string form of SIZE, which
// differ between lsblk versions.
type byteCount uint64

func (b *byteCount) UnmarshalJSON(data []byte) error {
	text := strings.Trim(string(data), `"`)
	if text == "null" || text == "" {
		*b = 0
		return nil
	}
	value, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return fmt.Errorf("bad size: %s", data)
	}
	*b = byteCount(value)
	return nil
}

type lsblkOutput struct {
	BlockDevices []struct {
		Name      string    `json:"name"`
		Size      byteCount `json:"size"`
		Model     *string   `json:"model"`
		Transport *string   `json:"tran"`
		Type      string    `json:"type"`
	} `json:"blockdevices"`
}

func (d Disk) describe() string {
	model := d.Model
	if model == "" {
		model = "unknown model"
	}
	transport := d.Transport
	if transport == "" {
		transport = "-"
	}
	return fmt.Sprintf("%-10s %10s  %s  (%s)",
		d.Name, humanize.IBytes(d.Size), model, transport)
}

func list(e executor.Executor) ([]Disk, error) {
	output, err := executor.Output(e, "lsblk", "-J", "-d", "-b",
		"-o", "NAME,SIZE,MODEL,TRAN,TYPE")
	if err != nil {
		return nil, fmt.Errorf("error listing block devices: %w", err)
	}
	return parse(output)
}

func parse(data []byte) ([]Disk, error) {
	var output lsblkOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return nil, fmt.Errorf("error decoding lsblk output: %w", err)
	}
	disks := make([]Disk, 0, len(output.BlockDevices))
	for _, device := range output.BlockDevices {
		if isPseudo(device.Name, device.Type) {
			continue
		}
		d := Disk{
			Path: "/dev/" + device.Name,
			Name: device.Name,
			Size: uint64(device.Size),
		}
		if device.Model != nil {
			d.Model = strings.TrimSpace(*device.Model)
		}
		if device.Transport != nil {
			d.Transport = *device.Transport
		}
		disks = append(disks, d)
	}
	return disks, nil
}

func isPseudo(name, devType string) bool {
	switch devType {
	case "loop", "rom":
		return true
	}
	for _, prefix := range pseudoPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func selectDisk(e executor.Executor, p prompt.Presenter,
	exclude []string) (Disk, error) {
	disks, err := list(e)
	if err != nil {
		return Disk{}, err
	}
	options := make([]prompt.Option[Disk], 0, len(disks))
	for _, d := range disks {
		if contains(exclude, d.Name) {
			continue
		}
		options = append(options, prompt.Option[Disk]{Label: d.String(), Value: d})
	}
	if len(options) < 1 {
		return Disk{}, ErrNoSelection
	}
	d, err := prompt.Select(p, "Select the target disk", options)
	if err != nil {
		if err == prompt.ErrEmpty {
			return Disk{}, ErrNoSelection
		}
		return Disk{}, err
	}
	return d, nil
}

func contains(list []string, name string) bool {
	for _, entry := range list {
		if entry == name {
			return true
		}
	}
	return false
}

func partitionPath(devicePath string, n int) string {
	if devicePath == "" {
		return ""
	}
	if last := devicePath[len(devicePath)-1]; last >= '0' && last <= '9' {
		return fmt.Sprintf("%sp%d", devicePath, n)
	}
	return fmt.Sprintf("%s%d", devicePath, n)
}

func rootDisk(e executor.Executor) string {
	source, err := executor.Output(e, "findmnt", "-n", "-o", "SOURCE", "/")
	if err != nil {
		return ""
	}
	parent, err := executor.Output(e, "lsblk", "-n", "-o", "PKNAME",
		strings.TrimSpace(string(source)))
	if err != nil {
		return ""
	}
	fields := strings.Fields(string(parent))
	if len(fields) < 1 {
		return ""
	}
	return fields[0]
}
