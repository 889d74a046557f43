package diskplan

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/arch-suite/arch-suite/lib/disk"
	"github.com/arch-suite/arch-suite/lib/executor"
	"github.com/dustin/go-humanize"
)

func (l Layout) validate(deviceSize uint64) error {
	if deviceSize < MinimumDeviceSize {
		return fmt.Errorf("device size %s is below the minimum of %s",
			humanize.IBytes(deviceSize), humanize.IBytes(MinimumDeviceSize))
	}
	efiIndex, rootIndex := -1, -1
	var fixed uint64
	for index, partition := range l {
		switch partition.Role {
		case RoleEFI:
			if efiIndex >= 0 {
				return errors.New("more than one EFI partition")
			}
			efiIndex = index
		case RoleRoot:
			if rootIndex >= 0 {
				return errors.New("more than one root partition")
			}
			rootIndex = index
		default:
			return fmt.Errorf("partition %d: unknown role", index+1)
		}
		switch partition.FileSystem {
		case FileSystemVfat, FileSystemExt4:
		default:
			return fmt.Errorf("partition %d: unsupported file-system: %s",
				index+1, partition.FileSystem)
		}
		if partition.Size == 0 && index != len(l)-1 {
			return fmt.Errorf("partition %d: only the last partition may fill the device",
				index+1)
		}
		if partition.Size%(1<<20) != 0 {
			return fmt.Errorf("partition %d: size is not a whole number of MiB",
				index+1)
		}
		fixed += partition.Size
	}
	if efiIndex < 0 {
		return errors.New("no EFI partition")
	}
	if rootIndex < 0 {
		return errors.New("no root partition")
	}
	if efiIndex > rootIndex {
		return errors.New("EFI partition must precede the root partition")
	}
	if fixed >= deviceSize {
		return fmt.Errorf("partitions need %s, device has %s",
			humanize.IBytes(fixed), humanize.IBytes(deviceSize))
	}
	return nil
}

func (op Op) describe() string {
	switch op.Kind {
	case OpRun:
		return op.Command.String()
	case OpWaitForDevice:
		return "wait for " + op.Path
	case OpMkdir:
		return "mkdir -p " + op.Path
	case OpMount:
		return "mount -t " + op.FSType + " " + op.Source + " " + op.Path
	}
	return op.Step
}

func run(step string, phase Phase, name string, args ...string) Op {
	return Op{
		Step:    step,
		Phase:   phase,
		Kind:    OpRun,
		Command: executor.Command{Name: name, Args: args},
	}
}

func plan(d disk.Disk, layout Layout, mountPoint string) (
	[]Op, *MountedLayout, error) {
	if err := layout.validate(d.Size); err != nil {
		return nil, nil, fmt.Errorf("invalid layout for %s: %w", d.Path, err)
	}
	mountPoint = filepath.Clean(mountPoint)
	mounted := &MountedLayout{Disk: d, MountPoint: mountPoint}
	ops := []Op{
		run("wipe-signatures", PhaseWiped, "wipefs", "-a", d.Path),
		run("zap-table", PhaseWiped, "sgdisk", "--zap-all", d.Path),
	}
	for index, partition := range layout {
		number := strconv.Itoa(index + 1)
		end := "0"
		if partition.Size > 0 {
			end = "+" + strconv.FormatUint(partition.Size>>20, 10) + "M"
		}
		ops = append(ops, run("create-"+partition.Role.String(),
			PhasePartitioned, "sgdisk",
			"-n", number+":0:"+end,
			"-t", number+":"+partition.TypeCode,
			"-c", number+":"+partition.Role.String(),
			d.Path))
	}
	ops = append(ops,
		run("reread-table", PhasePartitioned, "partprobe", d.Path),
		run("settle", PhasePartitioned, "udevadm", "settle"))
	devices := make([]string, len(layout))
	for index := range layout {
		devices[index] = disk.PartitionPath(d, index+1)
		ops = append(ops, Op{
			Step:  "wait-" + layout[index].Role.String(),
			Phase: PhasePartitioned,
			Kind:  OpWaitForDevice,
			Path:  devices[index],
		})
	}
	for index, partition := range layout {
		step := "format-" + partition.Role.String()
		switch partition.FileSystem {
		case FileSystemVfat:
			ops = append(ops, run(step, PhaseFormatted, "mkfs.fat", "-F", "32",
				"-n", "EFI", devices[index]))
		case FileSystemExt4:
			ops = append(ops, run(step, PhaseFormatted, "mkfs.ext4", "-F",
				"-L", "root", devices[index]))
		}
		switch partition.Role {
		case RoleEFI:
			mounted.EFIDevice = devices[index]
		case RoleRoot:
			mounted.RootDevice = devices[index]
		}
	}
	rootFS, efiFS := fileSystemOf(layout, RoleRoot), fileSystemOf(layout, RoleEFI)
	mounted.EFIMount = filepath.Join(mountPoint, EFIMountPoint)
	ops = append(ops,
		Op{Step: "mkdir-root", Phase: PhaseMounted, Kind: OpMkdir,
			Path: mountPoint},
		Op{Step: "mount-root", Phase: PhaseMounted, Kind: OpMount,
			Source: mounted.RootDevice, Path: mountPoint, FSType: rootFS},
		Op{Step: "mkdir-EFI", Phase: PhaseMounted, Kind: OpMkdir,
			Path: mounted.EFIMount},
		Op{Step: "mount-EFI", Phase: PhaseMounted, Kind: OpMount,
			Source: mounted.EFIDevice, Path: mounted.EFIMount, FSType: efiFS},
	)
	return ops, mounted, nil
}

func fileSystemOf(layout Layout, role Role) string {
	for _, partition := range layout {
		if partition.Role == role {
			return partition.FileSystem
		}
	}
	return ""
}
