package tensor

// DataType is the runtime element type of a tensor.
type DataType int

// Supported element types.
const (
	Float32 DataType = iota
	Int32
	Bool
)

// Size returns the byte size of one element.
func (d DataType) Size() int {
	switch d {
	case Float32, Int32:
		return 4
	case Bool:
		return 1
	default:
		return 0
	}
}

// String returns a human-readable type name.
func (d DataType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	case Bool:
		return "bool"
	default:
		return "unknown"
	}
}

// Device represents the memory space a tensor lives in. Placement is a
// construction-time decision; mixing tensors from different devices within
// one operation is a usage error.
type Device int

// Supported devices.
const (
	CPU Device = iota
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	default:
		return "Unknown"
	}
}
