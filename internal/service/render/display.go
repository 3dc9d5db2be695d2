package render

import "gocv.io/x/gocv"

// QuitKey ends the live loop when pressed in the window.
const QuitKey = 'q'

// Display presents annotated frames and reports key presses.
type Display interface {
	Show(frame gocv.Mat)
	WaitKey(delay int) int
	Close() error
}

// Window is a HighGUI window.
type Window struct {
	win *gocv.Window
}

func NewWindow(title string) *Window {
	return &Window{win: gocv.NewWindow(title)}
}

func (w *Window) Show(frame gocv.Mat) {
	w.win.IMShow(frame)
}

func (w *Window) WaitKey(delay int) int {
	return w.win.WaitKey(delay)
}

func (w *Window) Close() error {
	return w.win.Close()
}

// Headless discards frames; used when no display is attached.
type Headless struct{}

func (Headless) Show(gocv.Mat)   {}
func (Headless) WaitKey(int) int { return -1 }
func (Headless) Close() error    { return nil }

// IsQuit reports whether a WaitKey result is the quit key.
func IsQuit(key int) bool {
	return key >= 0 && key&0xFF == QuitKey
}
