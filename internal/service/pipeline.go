package service

import (
	"context"
	"encoding/base64"
	"facecam/internal/config"
	"facecam/internal/dto"
	"facecam/internal/logger"
	"facecam/internal/service/ai"
	"facecam/internal/service/capture"
	"facecam/internal/service/render"
	"sync"

	"gocv.io/x/gocv"
)

// Viewers receives annotated frames for the live web viewer.
type Viewers interface {
	GetClientCount() int
	BroadcastFrame(msg dto.FrameMessage) bool
}

// Recorder keeps frames with faces for the snapshot journal.
type Recorder interface {
	AddSnapshot(imageData []byte, source string, faces []dto.FaceResult) bool
}

// Components are the collaborators a Pipeline drives. Viewers and Recorder are optional.
type Components struct {
	Source     capture.Source
	Locator    ai.FaceLocator
	Classifier ai.Classifier
	Display    render.Display
	Viewers    Viewers
	Recorder   Recorder
}

// Stats summarizes a run.
type Stats struct {
	Frames  int
	Faces   int
	Skipped int
}

// Pipeline runs capture, detection, classification and rendering one frame at a time.
type Pipeline struct {
	components   Components
	preprocessor *ai.Preprocessor
	renderer     *render.Renderer
	labels       []string
	sourceName   string
	logger       *logger.Logger

	statsMu   sync.Mutex
	stats     Stats
	closeOnce sync.Once
}

func NewPipeline(config *config.Config, logger *logger.Logger, components Components) *Pipeline {
	return &Pipeline{
		components:   components,
		preprocessor: ai.NewPreprocessor(config.InputSize),
		renderer:     render.NewRenderer(),
		labels:       config.Labels,
		sourceName:   config.Source,
		logger:       logger,
	}
}

// ProcessFrame mirrors the frame, finds and classifies faces and draws the
// results onto it. Faces that cannot be cropped or classified are skipped.
// Every frame is counted, including ones that fail before detection.
func (p *Pipeline) ProcessFrame(frame *gocv.Mat) []dto.FaceResult {
	results := make([]dto.FaceResult, 0)
	skipped := 0
	defer func() {
		p.statsMu.Lock()
		p.stats.Frames++
		p.stats.Faces += len(results)
		p.stats.Skipped += skipped
		p.statsMu.Unlock()
	}()

	if err := render.Mirror(frame); err != nil {
		p.logger.Error("%v", err)
		return nil
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if err := gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray); err != nil {
		p.logger.Error("Failed to convert frame to grayscale: %v", err)
		return nil
	}

	rects := p.components.Locator.Locate(gray)

	for _, rect := range rects {
		tensor, err := p.preprocessor.Preprocess(*frame, rect)
		if err != nil {
			p.logger.Warning("Skipping face %v: %v", rect, err)
			skipped++
			continue
		}

		decision, err := ai.Classify(p.components.Classifier, tensor)
		if err != nil {
			p.logger.Error("Classification failed for face %v: %v", rect, err)
			skipped++
			continue
		}

		face := dto.NewFaceResult(rect, ai.LabelFor(p.labels, decision.Class), decision.Class, decision.Confidence)
		if err := p.renderer.Annotate(frame, face); err != nil {
			p.logger.Error("Failed to annotate face %v: %v", rect, err)
		}
		results = append(results, face)
	}

	return results
}

// Run processes frames until the source is exhausted, the quit key is
// pressed or ctx is cancelled. Source and display are released on return.
func (p *Pipeline) Run(ctx context.Context) error {
	defer p.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	p.logger.Info("Capture started on source %s", p.sourceName)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Capture stopped")
			return nil
		default:
		}

		if !p.components.Source.Read(&frame) {
			p.logger.Info("No more frames from source %s", p.sourceName)
			return nil
		}

		faces := p.ProcessFrame(&frame)
		p.components.Display.Show(frame)
		p.publish(frame, faces)

		if render.IsQuit(p.components.Display.WaitKey(1)) {
			p.logger.Info("Quit key pressed")
			return nil
		}
	}
}

// publish sends the annotated frame to viewers and the recorder. The frame
// is only encoded when someone consumes it.
func (p *Pipeline) publish(frame gocv.Mat, faces []dto.FaceResult) {
	toViewers := p.components.Viewers != nil && p.components.Viewers.GetClientCount() > 0
	toRecorder := p.components.Recorder != nil && len(faces) > 0
	if !toViewers && !toRecorder {
		return
	}

	data, err := render.EncodeJPEG(frame)
	if err != nil {
		p.logger.Error("Failed to encode frame: %v", err)
		return
	}

	if toViewers {
		p.components.Viewers.BroadcastFrame(dto.FrameMessage{
			Source: p.sourceName,
			Image:  base64.StdEncoding.EncodeToString(data),
			Faces:  faces,
		})
	}
	if toRecorder {
		p.components.Recorder.AddSnapshot(data, p.sourceName, faces)
	}
}

// Stats returns the counters collected so far.
func (p *Pipeline) Stats() Stats {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	return p.stats
}

// Close releases the source and the display once and logs the run summary.
func (p *Pipeline) Close() {
	p.closeOnce.Do(func() {
		if err := p.components.Source.Close(); err != nil {
			p.logger.Error("Failed to close source: %v", err)
		}
		if err := p.components.Display.Close(); err != nil {
			p.logger.Error("Failed to close display: %v", err)
		}

		s := p.Stats()
		p.logger.Info("Processed %d frames, %d faces, %d skipped", s.Frames, s.Faces, s.Skipped)
	})
}
