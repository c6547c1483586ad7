package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// KernelDriver is the in-tree input driver that claims the MMA7660
const KernelDriver = "mma7660"

// sysfsDrivers is the I2C driver directory, replaced in tests
var sysfsDrivers = "/sys/bus/i2c/drivers"

// Unbind unbinds a kernel driver from a device. A driver that is not
// loaded is not an error.
func Unbind(driverName, deviceID string) error {
	unbindPath := filepath.Join(sysfsDrivers, driverName, "unbind")

	file, err := os.OpenFile(unbindPath, os.O_WRONLY, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open unbind file %s: %w", unbindPath, err)
	}
	defer file.Close()

	_, err = file.WriteString(deviceID)
	if err != nil {
		return fmt.Errorf("failed to write device ID to unbind file: %w", err)
	}

	return nil
}

// Bound reports whether deviceID is currently bound to driverName
func Bound(driverName, deviceID string) bool {
	_, err := os.Lstat(filepath.Join(sysfsDrivers, driverName, deviceID))
	return err == nil
}

// DeviceID builds the sysfs client name ("3-004c") for an i2c-dev path
// such as /dev/i2c-3
func DeviceID(busPath string, addr byte) (string, error) {
	base := filepath.Base(busPath)
	num, ok := strings.CutPrefix(base, "i2c-")
	if !ok {
		return "", fmt.Errorf("not an i2c-dev path: %s", busPath)
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return "", fmt.Errorf("invalid i2c bus number in %s: %w", busPath, err)
	}
	return fmt.Sprintf("%d-%04x", n, addr), nil
}

// UnbindMMA7660 releases the accelerometer from the kernel input driver so
// the userspace transport can own it
func UnbindMMA7660(busPath string, addr byte) error {
	id, err := DeviceID(busPath, addr)
	if err != nil {
		return err
	}
	if !Bound(KernelDriver, id) {
		return nil
	}
	if err := Unbind(KernelDriver, id); err != nil {
		return fmt.Errorf("failed to unbind %s: %w", KernelDriver, err)
	}
	return nil
}
