package ai

import (
	"encoding/binary"
	"facecam/internal/config"
	"fmt"
	"math"
)

// Tensor is a preprocessed face: RGB, HWC order, values in [0,1].
type Tensor struct {
	Width    int
	Height   int
	Channels int
	Data     []float32
}

// NewTensor allocates a zeroed tensor.
func NewTensor(width, height, channels int) Tensor {
	return Tensor{
		Width:    width,
		Height:   height,
		Channels: channels,
		Data:     make([]float32, width*height*channels),
	}
}

// Len returns the number of elements the shape describes.
func (t Tensor) Len() int {
	return t.Width * t.Height * t.Channels
}

// At returns the value of channel c at pixel (x, y).
func (t Tensor) At(x, y, c int) float32 {
	return t.Data[(y*t.Width+x)*t.Channels+c]
}

// Blob lays the tensor out as a batch of one for the network input and
// returns the 4-D sizes together with the little-endian float32 payload.
func (t Tensor) Blob(layout string) ([]int, []byte, error) {
	if len(t.Data) != t.Len() {
		return nil, nil, fmt.Errorf("tensor has %d values, shape %dx%dx%d needs %d",
			len(t.Data), t.Width, t.Height, t.Channels, t.Len())
	}

	buf := make([]byte, 4*len(t.Data))

	switch layout {
	case config.LayoutNHWC:
		for i, v := range t.Data {
			binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
		}
		return []int{1, t.Height, t.Width, t.Channels}, buf, nil

	case config.LayoutNCHW:
		plane := t.Width * t.Height
		for y := 0; y < t.Height; y++ {
			for x := 0; x < t.Width; x++ {
				for c := 0; c < t.Channels; c++ {
					dst := c*plane + y*t.Width + x
					binary.LittleEndian.PutUint32(buf[4*dst:], math.Float32bits(t.At(x, y, c)))
				}
			}
		}
		return []int{1, t.Channels, t.Height, t.Width}, buf, nil
	}

	return nil, nil, fmt.Errorf("unknown tensor layout %q", layout)
}
