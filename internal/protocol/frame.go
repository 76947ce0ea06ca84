package protocol

import (
	"errors"
)

const frameHeaderSize = 15

// Frame is one complete generation as sent to websocket listeners and as
// persisted by the snapshot store. The cell payload packs one bit per cell in
// row-major order, least significant bit first within each byte.
//
// Layout:
//
//	[0]     playing flag
//	[1:3]   speed, ms per generation
//	[3:5]   grid width
//	[5:7]   grid height
//	[7:15]  generation counter
//	[15:]   packed cells, ceil(width*height/8) bytes
type Frame struct {
	Playing    bool
	Speed      uint16
	Width      uint16
	Height     uint16
	Generation uint64
	Cells      []byte
}

// NewFrame returns a frame with a zeroed cell payload sized for the given
// dimensions.
func NewFrame(width, height uint16) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Cells:  make([]byte, cellBytes(width, height)),
	}
}

func cellBytes(width, height uint16) int {
	return (int(width)*int(height) + 7) / 8
}

// SetAlive marks the cell at the given flat index alive.
func (f *Frame) SetAlive(flatIndex int) {
	f.Cells[flatIndex>>3] |= 1 << (flatIndex & 7)
}

// AliveAt reports whether the cell at the given flat index is alive.
func (f *Frame) AliveAt(flatIndex int) bool {
	return f.Cells[flatIndex>>3]&(1<<(flatIndex&7)) != 0
}

func (f *Frame) EncodeSize() int {
	return frameHeaderSize + cellBytes(f.Width, f.Height)
}

// Encode writes the frame into b, which must be at least EncodeSize() long.
func (f *Frame) Encode(b []byte) {
	if f.Playing {
		b[0] = 1
	} else {
		b[0] = 0
	}

	b[1] = byte(f.Speed >> 8)
	b[2] = byte(f.Speed & 0xff)

	b[3] = byte(f.Width >> 8)
	b[4] = byte(f.Width & 0xff)

	b[5] = byte(f.Height >> 8)
	b[6] = byte(f.Height & 0xff)

	for i := 0; i < 8; i++ {
		b[7+i] = byte(f.Generation >> (56 - 8*i))
	}

	copy(b[frameHeaderSize:], f.Cells[:cellBytes(f.Width, f.Height)])
}

func (f *Frame) Decode(b []byte) error {
	if len(b) < frameHeaderSize {
		return errors.New("[Frame] too short")
	}

	f.Playing = b[0] == 1
	f.Speed = (uint16(b[1]) << 8) | uint16(b[2])
	f.Width = (uint16(b[3]) << 8) | uint16(b[4])
	f.Height = (uint16(b[5]) << 8) | uint16(b[6])

	f.Generation = 0
	for i := 0; i < 8; i++ {
		f.Generation = (f.Generation << 8) | uint64(b[7+i])
	}

	n := cellBytes(f.Width, f.Height)
	if len(b) < frameHeaderSize+n {
		return errors.New("[Frame] byte length does not match grid dimensions")
	}
	f.Cells = append([]byte(nil), b[frameHeaderSize:frameHeaderSize+n]...)

	return nil
}
