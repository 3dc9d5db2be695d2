package ai

import (
	"errors"
	"facecam/internal/config"
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"
)

var ErrCascadeLoad = errors.New("failed to load face cascade classifier")

// FaceLocator finds faces in a single-channel image. Detections are
// independent per call; there is no tracking between frames.
type FaceLocator interface {
	Locate(gray gocv.Mat) []image.Rectangle
}

// CascadeLocator wraps an OpenCV Haar cascade.
type CascadeLocator struct {
	classifier   gocv.CascadeClassifier
	scaleFactor  float64
	minNeighbors int
	minSize      image.Point
}

// NewCascadeLocator loads the cascade XML named in the config.
func NewCascadeLocator(config *config.Config) (*CascadeLocator, error) {
	if _, err := os.Stat(config.CascadePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s not found", ErrCascadeLoad, config.CascadePath)
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(config.CascadePath) {
		classifier.Close()
		return nil, fmt.Errorf("%w: %s", ErrCascadeLoad, config.CascadePath)
	}

	return &CascadeLocator{
		classifier:   classifier,
		scaleFactor:  config.ScaleFactor,
		minNeighbors: config.MinNeighbors,
		minSize:      image.Pt(config.MinFaceSize, config.MinFaceSize),
	}, nil
}

// Locate runs the multi-scale detector on a grayscale frame.
func (l *CascadeLocator) Locate(gray gocv.Mat) []image.Rectangle {
	return l.classifier.DetectMultiScaleWithParams(gray, l.scaleFactor, l.minNeighbors, 0, l.minSize, image.Point{})
}

// Close releases the cascade.
func (l *CascadeLocator) Close() error {
	return l.classifier.Close()
}
