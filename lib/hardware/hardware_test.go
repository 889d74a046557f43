package hardware

import (
	"strings"
	"testing"

	"github.com/arch-suite/arch-suite/lib/executor"
)

const lspciOutput = `00:02.0 "VGA compatible controller" "Intel Corporation" "Alder Lake-P GT2 [Iris Xe Graphics]" -r0c "Lenovo" "Device 3a2e"
01:00.0 "3D controller" "NVIDIA Corporation" "GA107M [GeForce RTX 3050 Mobile]" -ra1 "Lenovo" "Device 3a2e"
02:00.0 "Non-Volatile memory controller" "Samsung Electronics Co Ltd" "NVMe SSD Controller" -p02 "Samsung" "Device a801"
`

func TestCPUPackages(t *testing.T) {
	tests := map[string]string{
		"GenuineIntel": "intel-ucode",
		"AuthenticAMD": "amd-ucode",
		"HygonGenuine": "",
	}
	for vendor, expected := range tests {
		if got := strings.Join(CPUPackages(vendor), " "); got != expected {
			t.Errorf("%s: expected: %q, got: %q", vendor, expected, got)
		}
	}
}

func TestGPUPackages(t *testing.T) {
	tests := map[string]string{
		"NVIDIA Corporation": "nvidia nvidia-utils nvidia-settings",
		"Advanced Micro Devices, Inc. [AMD/ATI]": "mesa xf86-video-amdgpu vulkan-radeon",
		"Intel Corporation":                      "mesa vulkan-intel intel-media-driver",
		"Matrox Electronics Systems Ltd.":        "",
		"VMware":                                 "",
	}
	for vendor, expected := range tests {
		if got := strings.Join(GPUPackages(vendor), " "); got != expected {
			t.Errorf("%s: expected: %q, got: %q", vendor, expected, got)
		}
	}
}

func TestDetectIntelCPU(t *testing.T) {
	cpuinfo := "processor\t: 0\nvendor_id\t: GenuineIntel\ncpu family\t: 6\n"
	e := executor.NewRecorder().On("lspci -mm",
		executor.Result{Stdout: []byte(lspciOutput)})
	profile, err := Detect(strings.NewReader(cpuinfo), e)
	if err != nil {
		t.Fatal(err)
	}
	if len(profile.CPU) != 1 || profile.CPU[0] != "intel-ucode" {
		t.Errorf("expected only intel-ucode for CPU, got: %v", profile.CPU)
	}
	expected := "mesa vulkan-intel intel-media-driver nvidia nvidia-utils nvidia-settings"
	if got := strings.Join(profile.GPU, " "); got != expected {
		t.Errorf("expected: %s, got: %s", expected, got)
	}
	if profile.GPUVendor != "Intel Corporation" {
		t.Errorf("expected: Intel Corporation, got: %s", profile.GPUVendor)
	}
}

func TestDetectUnknownVendors(t *testing.T) {
	e := executor.NewRecorder().On("lspci -mm", executor.Result{Stdout: []byte(
		`00:0f.0 "VGA compatible controller" "VMware" "SVGA II Adapter" "VMware" "SVGA II Adapter"`)})
	profile, err := Detect(strings.NewReader("vendor_id : SomethingElse\n"), e)
	if err != nil {
		t.Fatal(err)
	}
	if len(profile.Packages()) != 0 {
		t.Errorf("expected no packages, got: %v", profile.Packages())
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	if packages, err := Load(dir); err != nil || len(packages) != 0 {
		t.Errorf("expected empty profile, got: %v, %v", packages, err)
	}
	profile := Profile{CPU: []string{"amd-ucode"},
		GPU: []string{"mesa", "vulkan-radeon"}}
	if err := Save(dir, profile); err != nil {
		t.Fatal(err)
	}
	if err := Save(dir, Profile{CPU: []string{"intel-ucode"}}); err != nil {
		t.Fatal(err)
	}
	packages, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(packages, " ") != "intel-ucode" {
		t.Errorf("expected overwritten profile, got: %v", packages)
	}
}
