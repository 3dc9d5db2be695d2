package main

import (
	"facecam/internal/app"
	"facecam/internal/config"
	"facecam/internal/logger"
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the application version.
const Version = "0.1.0"

// cfg is loaded from the environment before any command runs; flags override it.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:     "facecam",
	Short:   "Label faces on a live camera feed with a pretrained classifier",
	Long:    "Detects faces with a Haar cascade, classifies each one with a pretrained network and draws the label and confidence on a mirrored live view. Press q in the window to quit.",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		applyFlags(cmd, cfg)
		return nil
	},
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.NewLogger(cfg)
		defer log.Close()

		application, err := app.NewApp(cfg, log)
		if err != nil {
			log.Error("Startup failed: %v", err)
			return err
		}
		defer application.Close()

		if err := application.Run(cmd.Context()); err != nil {
			return fmt.Errorf("capture loop failed: %w", err)
		}

		s := application.Stats()
		fmt.Printf("Done: %d frames, %d faces labeled, %d skipped\n", s.Frames, s.Faces, s.Skipped)
		return nil
	},
}

var flags struct {
	model      string
	layout     string
	cascade    string
	source     string
	headless   bool
	viewerPort int
	record     bool
	dbPath     string
}

func init() {
	cfg = config.Load()

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.dbPath, "db", "", "Snapshot journal database (env DB_PATH)")

	f := rootCmd.Flags()
	f.StringVarP(&flags.model, "model", "m", "", "Path to the pretrained classifier (env MODEL_PATH)")
	f.StringVar(&flags.layout, "layout", "", "Model input layout: nhwc or nchw (env MODEL_LAYOUT)")
	f.StringVarP(&flags.cascade, "cascade", "c", "", "Path to the Haar cascade XML (env CASCADE_PATH)")
	f.StringVarP(&flags.source, "source", "s", "", "Camera index or video file (env SOURCE)")
	f.BoolVar(&flags.headless, "headless", false, "Run without a window (env HEADLESS)")
	f.IntVarP(&flags.viewerPort, "viewer-port", "p", 0, "Serve the live web viewer on this port (env VIEWER_PORT)")
	f.BoolVarP(&flags.record, "record", "r", false, "Record snapshots of labeled frames (env RECORD)")
}

// applyFlags copies explicitly set flags over the environment configuration.
// Capture flags only belong to the root command.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	if changed("db") {
		c.DatabasePath = flags.dbPath
	}
	if cmd != rootCmd {
		return
	}

	if changed("model") {
		c.ModelPath = flags.model
	}
	if changed("layout") {
		c.ModelLayout = flags.layout
	}
	if changed("cascade") {
		c.CascadePath = flags.cascade
	}
	if changed("source") {
		c.Source = flags.source
	}
	if changed("headless") {
		c.Headless = flags.headless
	}
	if changed("viewer-port") {
		c.ViewerPort = flags.viewerPort
	}
	if changed("record") {
		c.Record = flags.record
	}
}
