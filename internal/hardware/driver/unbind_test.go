package driver

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDeviceID(t *testing.T) {
	tests := []struct {
		path    string
		addr    byte
		want    string
		wantErr bool
	}{
		{"/dev/i2c-3", 0x4C, "3-004c", false},
		{"/dev/i2c-11", 0x1D, "11-001d", false},
		{"/dev/spidev0.0", 0x4C, "", true},
		{"/dev/i2c-x", 0x4C, "", true},
	}

	for _, tt := range tests {
		got, err := DeviceID(tt.path, tt.addr)
		if (err != nil) != tt.wantErr {
			t.Errorf("DeviceID(%s) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("DeviceID(%s) = %q, expected %q", tt.path, got, tt.want)
		}
	}
}

func TestUnbindMMA7660(t *testing.T) {
	root := t.TempDir()
	sysfsDrivers = root
	t.Cleanup(func() { sysfsDrivers = "/sys/bus/i2c/drivers" })

	drvDir := filepath.Join(root, KernelDriver)
	if err := os.MkdirAll(filepath.Join(drvDir, "3-004c"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(drvDir, "unbind"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := UnbindMMA7660("/dev/i2c-3", 0x4C); err != nil {
		t.Fatalf("UnbindMMA7660 failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(drvDir, "unbind"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "3-004c" {
		t.Errorf("expected device id written to unbind, got %q", data)
	}
}

func TestUnbindMMA7660_NotBound(t *testing.T) {
	sysfsDrivers = t.TempDir()
	t.Cleanup(func() { sysfsDrivers = "/sys/bus/i2c/drivers" })

	if err := UnbindMMA7660("/dev/i2c-3", 0x4C); err != nil {
		t.Errorf("expected no error when driver is not bound, got %v", err)
	}
}
