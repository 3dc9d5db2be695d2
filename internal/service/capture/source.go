package capture

import (
	"errors"
	"fmt"
	"strconv"

	"gocv.io/x/gocv"
)

var ErrDeviceUnavailable = errors.New("capture device unavailable")

// Source is a pull-based frame producer. Read blocks until the next frame
// is available and returns false at end of stream or on device failure.
type Source interface {
	Read(frame *gocv.Mat) bool
	Close() error
}

// VideoSource reads from a camera index or a video file through OpenCV.
type VideoSource struct {
	capture *gocv.VideoCapture
}

// Open opens a device index ("0", "1", ...) or anything else OpenCV can
// open by name (file path, RTSP URL).
func Open(source string) (*VideoSource, error) {
	var (
		capture *gocv.VideoCapture
		err     error
	)
	if index, convErr := strconv.Atoi(source); convErr == nil {
		capture, err = gocv.OpenVideoCapture(index)
	} else {
		capture, err = gocv.OpenVideoCapture(source)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDeviceUnavailable, source, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: %s", ErrDeviceUnavailable, source)
	}

	return &VideoSource{capture: capture}, nil
}

// Read grabs the next frame. An empty frame counts as a failed read.
func (s *VideoSource) Read(frame *gocv.Mat) bool {
	if ok := s.capture.Read(frame); !ok {
		return false
	}
	return !frame.Empty()
}

// Close releases the capture handle.
func (s *VideoSource) Close() error {
	return s.capture.Close()
}
