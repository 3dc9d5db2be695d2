package render

import (
	"facecam/internal/dto"
	"fmt"
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"
)

var (
	green   = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	magenta = color.RGBA{R: 255, G: 0, B: 255, A: 0}
	yellow  = color.RGBA{R: 255, G: 255, B: 0, A: 0}
)

const (
	boxThickness  = 2
	textScale     = 0.8
	textThickness = 2
	textOffset    = 10
)

// Renderer draws face boxes and captions onto frames.
type Renderer struct {
	palette map[int]color.RGBA
}

func NewRenderer() *Renderer {
	return &Renderer{
		palette: map[int]color.RGBA{
			0: magenta,
			1: green,
		},
	}
}

// ColorFor returns the box color for a class index.
func (r *Renderer) ColorFor(class int) color.RGBA {
	if c, ok := r.palette[class]; ok {
		return c
	}
	return yellow
}

// Caption formats a label and confidence as "Male (87%)".
func Caption(label string, confidence float64) string {
	return fmt.Sprintf("%s (%.0f%%)", label, math.Max(0, math.Min(1, confidence))*100)
}

// Mirror flips the frame horizontally in place.
func Mirror(frame *gocv.Mat) error {
	if err := gocv.Flip(*frame, frame, 1); err != nil {
		return fmt.Errorf("failed to mirror frame: %w", err)
	}
	return nil
}

// Annotate draws the face rectangle and its caption above it.
func (r *Renderer) Annotate(frame *gocv.Mat, face dto.FaceResult) error {
	c := r.ColorFor(face.Class)

	if err := gocv.Rectangle(frame, face.Rect(), c, boxThickness); err != nil {
		return fmt.Errorf("failed to draw rectangle: %v", err)
	}

	pt := image.Pt(face.X, face.Y-textOffset)
	if err := gocv.PutText(frame, Caption(face.Label, face.Confidence), pt, gocv.FontHersheySimplex, textScale, c, textThickness); err != nil {
		return fmt.Errorf("failed to draw text: %v", err)
	}
	return nil
}

// EncodeJPEG encodes the frame for the viewer stream and the snapshot journal.
func EncodeJPEG(frame gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(".jpg", frame)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())
	return data, nil
}
