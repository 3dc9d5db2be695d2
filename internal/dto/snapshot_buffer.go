package dto

// BufferedSnapshot holds an annotated frame and its faces before flushing to disk.

type BufferedSnapshot struct {
	Timestamp string
	Source    string
	Faces     []FaceResult
	Data      []byte
}
