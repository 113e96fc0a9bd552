package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ControlFrameSize is the exact length of a viewer control frame.
const ControlFrameSize = 8

// Trigger buttons in the 16-bit mask. Gamepads commonly map the analog
// triggers to buttons 6 and 7; either counts as a fire input.
const (
	ButtonTriggerLeft  = 6
	ButtonTriggerRight = 7
)

// ControlFrame is the fixed 8-byte control layout: six unsigned analog axes
// followed by a little-endian 16-bit button bitmask. The frame is forwarded
// to the device unmodified; any re-scaling to signed ranges or big-endian
// packing for physical hardware happens on the device side.
type ControlFrame struct {
	Axes    [6]uint8
	Buttons uint16
}

// ParseControlFrame decodes a binary control message. Frames of any other
// length are rejected.
func ParseControlFrame(b []byte) (ControlFrame, error) {
	if len(b) != ControlFrameSize {
		return ControlFrame{}, fmt.Errorf("control frame must be %d bytes, got %d", ControlFrameSize, len(b))
	}
	var f ControlFrame
	copy(f.Axes[:], b[:6])
	f.Buttons = binary.LittleEndian.Uint16(b[6:8])
	return f, nil
}

// Pressed reports whether button bit is set in the mask.
func (f ControlFrame) Pressed(bit uint) bool {
	if bit > 15 {
		return false
	}
	return f.Buttons&(1<<bit) != 0
}

// FirePressed reports whether either trigger is held.
func (f ControlFrame) FirePressed() bool {
	return f.Pressed(ButtonTriggerLeft) || f.Pressed(ButtonTriggerRight)
}

const videoTimestampSize = 8

// SplitVideoFrame separates the optional capture-timestamp prefix from a
// device video frame. The prefix, when present, is an 8-byte little-endian
// float64 of milliseconds followed by the JPEG payload; its presence is
// detected by the JPEG start-of-image marker after the prefix. Relay always
// forwards the frame as received, so this is only for consumers that care
// about capture time.
func SplitVideoFrame(b []byte) (timestampMillis float64, payload []byte) {
	if len(b) > videoTimestampSize+1 && b[videoTimestampSize] == 0xFF && b[videoTimestampSize+1] == 0xD8 {
		bits := binary.LittleEndian.Uint64(b[:videoTimestampSize])
		return math.Float64frombits(bits), b[videoTimestampSize:]
	}
	return 0, b
}
