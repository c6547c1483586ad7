package mma7660

import (
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// I2C/SMBus constants
const (
	I2C_SLAVE           = 0x0703
	I2C_SMBUS           = 0x0720
	I2C_SMBUS_READ      = 1
	I2C_SMBUS_WRITE     = 0
	I2C_SMBUS_BYTE_DATA = 2
)

// SMBus I/O control data structure
type smbusIoctlData struct {
	readWrite byte
	command   byte
	size      uint32
	data      *[34]byte
}

// SMBus is a register bus on a Linux i2c-dev character device
type SMBus struct {
	fd   int
	path string
	addr byte
}

// OpenSMBus opens the I2C bus and sets the slave address
func OpenSMBus(path string, addr byte) (*SMBus, error) {
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open I2C bus %s: %w", ErrBus, path, err)
	}

	_, _, errno := syscall.Syscall(
		syscall.SYS_IOCTL,
		uintptr(fd),
		I2C_SLAVE,
		uintptr(addr),
	)
	if errno != 0 {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: set I2C slave address 0x%02X: %w", ErrBus, addr, errno)
	}

	return &SMBus{
		fd:   fd,
		path: path,
		addr: addr,
	}, nil
}

// Close closes the I2C device
func (b *SMBus) Close() error {
	if b.fd < 0 {
		return nil
	}
	err := unix.Close(b.fd)
	b.fd = -1
	return err
}

func (b *SMBus) String() string {
	return fmt.Sprintf("smbus:%s@0x%02X", b.path, b.addr)
}

// ReadByteData reads a byte from a register using SMBus protocol
func (b *SMBus) ReadByteData(reg byte) (byte, error) {
	var dataBlock [34]byte
	data := &smbusIoctlData{
		readWrite: I2C_SMBUS_READ,
		command:   reg,
		size:      I2C_SMBUS_BYTE_DATA,
		data:      &dataBlock,
	}

	if errno := b.ioctl(data); errno != 0 {
		return 0, fmt.Errorf("%w: I2C_SMBUS read 0x%02X: %w", ErrBus, reg, errno)
	}
	return dataBlock[0], nil
}

// WriteByteData writes a byte to a register using SMBus protocol
func (b *SMBus) WriteByteData(reg, value byte) error {
	var dataBlock [34]byte
	dataBlock[0] = value

	data := &smbusIoctlData{
		readWrite: I2C_SMBUS_WRITE,
		command:   reg,
		size:      I2C_SMBUS_BYTE_DATA,
		data:      &dataBlock,
	}

	if errno := b.ioctl(data); errno != 0 {
		return fmt.Errorf("%w: I2C_SMBUS write 0x%02X: %w", ErrBus, reg, errno)
	}
	return nil
}

func (b *SMBus) ioctl(data *smbusIoctlData) syscall.Errno {
	_, _, errno := syscall.Syscall(
		syscall.SYS_IOCTL,
		uintptr(b.fd),
		I2C_SMBUS,
		uintptr(unsafe.Pointer(data)),
	)
	return errno
}
