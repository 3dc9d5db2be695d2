package ai

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// ErrInvalidCrop marks a face rectangle that cannot be turned into a
// tensor. Callers skip the face and carry on with the frame.
var ErrInvalidCrop = errors.New("invalid face crop")

// Preprocessor turns a face region of a BGR frame into a model tensor.
type Preprocessor struct {
	size int
}

func NewPreprocessor(size int) *Preprocessor {
	return &Preprocessor{size: size}
}

// Size returns the square input size the tensor is resized to.
func (p *Preprocessor) Size() int {
	return p.size
}

// Preprocess crops rect out of frame, converts BGR to RGB, resizes with
// linear interpolation and scales intensities to [0,1].
func (p *Preprocessor) Preprocess(frame gocv.Mat, rect image.Rectangle) (Tensor, error) {
	if frame.Empty() || frame.Channels() != 3 {
		return Tensor{}, fmt.Errorf("%w: frame must be a non-empty 3-channel image", ErrInvalidCrop)
	}

	bounds := image.Rect(0, 0, frame.Cols(), frame.Rows())
	if rect.Empty() || !rect.In(bounds) {
		return Tensor{}, fmt.Errorf("%w: %v outside %v", ErrInvalidCrop, rect, bounds)
	}

	face := frame.Region(rect)
	defer face.Close()

	rgb := gocv.NewMat()
	defer rgb.Close()
	if err := gocv.CvtColor(face, &rgb, gocv.ColorBGRToRGB); err != nil {
		return Tensor{}, fmt.Errorf("%w: color conversion: %v", ErrInvalidCrop, err)
	}

	resized := gocv.NewMat()
	defer resized.Close()
	if err := gocv.Resize(rgb, &resized, image.Pt(p.size, p.size), 0, 0, gocv.InterpolationLinear); err != nil {
		return Tensor{}, fmt.Errorf("%w: resize: %v", ErrInvalidCrop, err)
	}
	if resized.Empty() {
		return Tensor{}, fmt.Errorf("%w: resize produced an empty image", ErrInvalidCrop)
	}

	normalized := gocv.NewMat()
	defer normalized.Close()
	if err := resized.ConvertToWithParams(&normalized, gocv.MatTypeCV32FC3, 1.0/255.0, 0); err != nil {
		return Tensor{}, fmt.Errorf("%w: scale: %v", ErrInvalidCrop, err)
	}

	values, err := normalized.DataPtrFloat32()
	if err != nil {
		return Tensor{}, fmt.Errorf("%w: %v", ErrInvalidCrop, err)
	}

	tensor := NewTensor(p.size, p.size, 3)
	if len(values) != len(tensor.Data) {
		return Tensor{}, fmt.Errorf("%w: got %d values, want %d", ErrInvalidCrop, len(values), len(tensor.Data))
	}
	copy(tensor.Data, values)

	return tensor, nil
}
