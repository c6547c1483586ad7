package mma7660

// DefaultAddr is the fixed I2C address of the MMA7660FC
const DefaultAddr = 0x4C

// Registers
const (
	REG_XOUT  = 0x00
	REG_YOUT  = 0x01
	REG_ZOUT  = 0x02
	REG_TILT  = 0x03
	REG_SRST  = 0x04
	REG_SPCNT = 0x05
	REG_INTSU = 0x06
	REG_MODE  = 0x07
	REG_SR    = 0x08
	REG_PDET  = 0x09
	REG_PD    = 0x0A
)

// Output register bits, shared by XOUT/YOUT/ZOUT and TILT
const (
	ALERT_BIT   = 1 << 6 // register was read while the device was updating it
	SIGN_BIT    = 1 << 5
	SAMPLE_MASK = 0x3F
)

// TILT register fields
const (
	TILT_SHAKE       = 1 << 7
	TILT_TAP         = 1 << 5
	TILT_FACING_MASK = 0x03
	TILT_POLA_MASK   = 0x1C
	TILT_POLA_SHIFT  = 2
	TILT_CODE_MASK   = TILT_FACING_MASK | TILT_POLA_MASK
)

// INTSU bits
const (
	INTSU_SHINTX = 1 << 7
	INTSU_SHINTY = 1 << 6
	INTSU_SHINTZ = 1 << 5
)

// MODE values
const (
	MODE_STANDBY = 0x00
	MODE_ACTIVE  = 0x01
)

// Tuned tap detection constants
const (
	PDET_DEFAULT = 0x00
	PD_DEFAULT   = 0x1F
)
