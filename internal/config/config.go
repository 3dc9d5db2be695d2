package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	LayoutNHWC = "nhwc"
	LayoutNCHW = "nchw"
)

type Config struct {
	ModelPath    string
	ModelLayout  string // nhwc (Keras) albo nchw (PyTorch / blobFromImage)
	InputSize    int    // Bok kwadratowego wejścia sieci w pikselach
	CascadePath  string
	Source       string // Indeks urządzenia ("0") albo ścieżka do pliku wideo
	ScaleFactor  float64
	MinNeighbors int
	MinFaceSize  int
	Labels       []string
	WindowTitle  string
	Headless     bool

	ViewerPort            int
	Record                bool
	SnapshotDirectory     string
	SnapshotLimit         int
	SnapshotFlushInterval int // Co ile sekund zrzucać bufor na dysk
	DatabasePath          string
	LogDirectory          string
}

// Load reads the configuration from the environment, merging a .env file
// from the working directory first when one exists.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ModelPath:             getEnv("MODEL_PATH", "gender_classifier_model.onnx"),
		ModelLayout:           strings.ToLower(getEnv("MODEL_LAYOUT", LayoutNHWC)),
		InputSize:             getEnvAsInt("INPUT_SIZE", 150),
		CascadePath:           getEnv("CASCADE_PATH", "haarcascade_frontalface_default.xml"),
		Source:                getEnv("SOURCE", "0"),
		ScaleFactor:           getEnvAsFloat("SCALE_FACTOR", 1.1),
		MinNeighbors:          getEnvAsInt("MIN_NEIGHBORS", 5),
		MinFaceSize:           getEnvAsInt("MIN_FACE_SIZE", 60),
		Labels:                getEnvAsList("LABELS", []string{"Female", "Male"}),
		WindowTitle:           getEnv("WINDOW_TITLE", "Gender Classifier (press q to quit)"),
		Headless:              getEnvAsBool("HEADLESS", false),
		ViewerPort:            getEnvAsInt("VIEWER_PORT", 0),
		Record:                getEnvAsBool("RECORD", false),
		SnapshotDirectory:     getEnv("SNAPSHOT_DIR", filepath.Join(".", "snapshots")),
		SnapshotLimit:         getEnvAsInt("SNAPSHOT_LIMIT", 10),
		SnapshotFlushInterval: getEnvAsInt("FLUSH_INTERVAL", 30),
		DatabasePath:          getEnv("DB_PATH", filepath.Join(".", "data", "facecam.db")),
		LogDirectory:          getEnv("LOG_DIR", filepath.Join(".", "logs")),
	}
}

// Validate checks the detector and model parameters before anything is opened.
func (c *Config) Validate() error {
	if c.ScaleFactor <= 1 {
		return fmt.Errorf("scale factor must be greater than 1, got %v", c.ScaleFactor)
	}
	if c.MinNeighbors < 0 {
		return fmt.Errorf("min neighbors must not be negative, got %d", c.MinNeighbors)
	}
	if c.MinFaceSize < 0 {
		return fmt.Errorf("min face size must not be negative, got %d", c.MinFaceSize)
	}
	if c.InputSize <= 0 {
		return fmt.Errorf("input size must be positive, got %d", c.InputSize)
	}
	if c.ModelLayout != LayoutNHWC && c.ModelLayout != LayoutNCHW {
		return fmt.Errorf("unknown model layout %q (use %s or %s)", c.ModelLayout, LayoutNHWC, LayoutNCHW)
	}
	if len(c.Labels) < 2 {
		return fmt.Errorf("at least two labels are required, got %d", len(c.Labels))
	}
	if c.ViewerPort < 0 || c.ViewerPort > 65535 {
		return fmt.Errorf("invalid viewer port %d", c.ViewerPort)
	}
	if c.Record && c.SnapshotFlushInterval <= 0 {
		return fmt.Errorf("flush interval must be positive when recording, got %d", c.SnapshotFlushInterval)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated value, dropping empty entries.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
