package mma7660

// Facing is the front/back field of the TILT register
type Facing uint8

const (
	FacingUnknown Facing = iota
	FacingFront
	FacingBack
)

func (f Facing) String() string {
	switch f {
	case FacingFront:
		return "Front"
	case FacingBack:
		return "Back"
	default:
		return "Unknown"
	}
}

// Orientation is the portrait/landscape (PoLa) field of the TILT register
type Orientation uint8

const (
	OrientationUnknown          Orientation = 0
	OrientationLandscapeLeft    Orientation = 1
	OrientationLandscapeRight   Orientation = 2
	OrientationPortraitInverted Orientation = 5
	OrientationPortraitNormal   Orientation = 6
)

func (o Orientation) String() string {
	switch o {
	case OrientationLandscapeLeft:
		return "Landscape-Left"
	case OrientationLandscapeRight:
		return "Landscape-Right"
	case OrientationPortraitInverted:
		return "Portrait-Inverted"
	case OrientationPortraitNormal:
		return "Portrait-Normal"
	default:
		return "Unknown"
	}
}

// Status is a decoded TILT register. The alert (updating) bit is never
// carried: a Status only exists for a stable read.
type Status struct {
	Raw         byte
	Shake       bool
	Tap         bool
	Facing      Facing
	Orientation Orientation
}

// Code returns the combined 5-bit facing+orientation field
func (s Status) Code() uint8 {
	return s.Raw & TILT_CODE_MASK
}

// DecodeStatus splits a stable TILT register value into its fields.
// Reserved facing and orientation codes decode to Unknown.
func DecodeStatus(raw byte) Status {
	raw &^= ALERT_BIT

	facing := Facing(raw & TILT_FACING_MASK)
	if facing > FacingBack {
		facing = FacingUnknown
	}

	orientation := Orientation((raw & TILT_POLA_MASK) >> TILT_POLA_SHIFT)
	switch orientation {
	case OrientationLandscapeLeft, OrientationLandscapeRight,
		OrientationPortraitInverted, OrientationPortraitNormal:
	default:
		orientation = OrientationUnknown
	}

	return Status{
		Raw:         raw,
		Shake:       raw&TILT_SHAKE != 0,
		Tap:         raw&TILT_TAP != 0,
		Facing:      facing,
		Orientation: orientation,
	}
}

// SignExtend widens a 6-bit two's complement sample to int8
func SignExtend(raw byte) int8 {
	if raw&SIGN_BIT != 0 {
		return int8(raw | ^byte(SAMPLE_MASK))
	}
	return int8(raw & SAMPLE_MASK)
}

// Sample is one stable reading of the three axes and the TILT register
type Sample struct {
	X, Y, Z int8
	Status  Status
}
