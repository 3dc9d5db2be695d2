package ai

import (
	"errors"
	"fmt"
	"os"

	"gocv.io/x/gocv"
)

var (
	ErrModelNotFound = errors.New("model file not found")
	ErrModelLoad     = errors.New("failed to load model")
)

// Classifier maps a preprocessed face to the raw output vector of the model.
type Classifier interface {
	Predict(t Tensor) ([]float32, error)
}

// NetClassifier runs a pretrained network through the OpenCV DNN module.
type NetClassifier struct {
	net    gocv.Net
	layout string
}

// LoadClassifier checks that the model file exists and loads it. Any
// format gocv.ReadNet understands works (ONNX, TensorFlow .pb, Caffe, ...).
func LoadClassifier(modelPath, layout string) (*NetClassifier, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelPath)
	}

	net := gocv.ReadNet(modelPath, "")
	if net.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrModelLoad, modelPath)
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return nil, fmt.Errorf("%w: failed to set preferable backend or target", ErrModelLoad)
	}

	return &NetClassifier{net: net, layout: layout}, nil
}

// Predict runs one forward pass and copies the output out of the native buffer.
func (c *NetClassifier) Predict(t Tensor) ([]float32, error) {
	sizes, data, err := t.Blob(c.layout)
	if err != nil {
		return nil, err
	}

	blob, err := gocv.NewMatWithSizesFromBytes(sizes, gocv.MatTypeCV32F, data)
	if err != nil {
		return nil, fmt.Errorf("failed to build input blob: %w", err)
	}
	defer blob.Close()

	c.net.SetInput(blob, "")

	output := c.net.Forward("")
	defer output.Close()

	if output.Empty() {
		return nil, ErrEmptyOutput
	}

	values, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read model output: %w", err)
	}

	result := make([]float32, len(values))
	copy(result, values)
	return result, nil
}

// Close releases the network.
func (c *NetClassifier) Close() error {
	return c.net.Close()
}

// Classify runs the classifier and applies the decision policy.
func Classify(c Classifier, t Tensor) (Decision, error) {
	output, err := c.Predict(t)
	if err != nil {
		return Decision{}, err
	}
	return Decide(output)
}
