package dto

import "image"

// FaceResult is one classified face in a frame.
type FaceResult struct {
	Label      string  `json:"label"`
	Class      int     `json:"class"`
	Confidence float64 `json:"confidence"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

// NewFaceResult builds a result from a detection rectangle.
func NewFaceResult(rect image.Rectangle, label string, class int, confidence float64) FaceResult {
	return FaceResult{
		Label:      label,
		Class:      class,
		Confidence: confidence,
		X:          rect.Min.X,
		Y:          rect.Min.Y,
		Width:      rect.Dx(),
		Height:     rect.Dy(),
	}
}

// Rect returns the face rectangle.
func (f FaceResult) Rect() image.Rectangle {
	return image.Rect(f.X, f.Y, f.X+f.Width, f.Y+f.Height)
}
