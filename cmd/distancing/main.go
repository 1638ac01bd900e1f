package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/distance.report/internal/config"
	"github.com/banshee-data/distance.report/internal/detection"
	"github.com/banshee-data/distance.report/internal/fsutil"
	"github.com/banshee-data/distance.report/internal/monitoring"
	"github.com/banshee-data/distance.report/internal/pipeline"
	"github.com/banshee-data/distance.report/internal/report"
	"github.com/banshee-data/distance.report/internal/version"
)

var (
	configPath  = flag.String("config", "", "Path to monitor config JSON (built-in defaults when empty)")
	inputPath   = flag.String("input", "-", "Recorded detections (JSONL); - reads stdin")
	outputPath  = flag.String("output", "-", "Annotated frames (JSONL); - writes stdout")
	plotDir     = flag.String("plot-dir", "", "Directory for violation charts (disabled when empty)")
	plotTitle   = flag.String("plot-title", "Social distancing violations", "Title for violation charts")
	plotName    = flag.String("plot-name", "violations", "Base file name for violation charts")
	quiet       = flag.Bool("quiet", false, "Suppress diagnostic logging")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// loadConfig returns the config at path, or the built-in defaults.
func loadConfig(path string) (*config.MonitorConfig, error) {
	if path == "" {
		return config.DefaultMonitorConfig(), nil
	}
	return config.LoadMonitorConfig(path)
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// chartOptions controls violation chart output; charts are skipped when Dir
// is empty.
type chartOptions struct {
	FS    fsutil.FileSystem
	Dir   string
	Title string
	Name  string
}

// run wires the pipeline for a single stream and processes it to completion.
func run(ctx context.Context, cfg *config.MonitorConfig, in io.Reader, out io.Writer, charts chartOptions) (pipeline.Stats, error) {
	proc, err := pipeline.NewProcessor(pipeline.OptionsFromConfig(cfg))
	if err != nil {
		return pipeline.Stats{}, err
	}

	var sink pipeline.Sink = pipeline.NewJSONLSink(out)
	var rec *report.Recorder
	if charts.Dir != "" {
		rec = report.NewRecorder(charts.Title)
		sink = pipeline.MultiSink{sink, rec}
	}

	stats, err := pipeline.Run(ctx, proc, detection.NewJSONLSource(in), sink)
	if err != nil {
		return stats, err
	}

	if rec != nil && stats.Frames > 0 {
		if err := rec.WriteAll(charts.FS, charts.Dir, charts.Name); err != nil {
			return stats, fmt.Errorf("write charts: %w", err)
		}
		monitoring.Logf("wrote violation charts to %s", charts.Dir)
	}
	return stats, nil
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *quiet {
		monitoring.SetLogger(nil)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	in, err := openInput(*inputPath)
	if err != nil {
		log.Fatalf("failed to open input: %v", err)
	}
	defer in.Close()

	out, err := openOutput(*outputPath)
	if err != nil {
		log.Fatalf("failed to open output: %v", err)
	}
	defer out.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	monitoring.Logf("distancing %s: threshold=%.1f window=%d smoothing=%v",
		version.Version, cfg.GetProximityThreshold(), cfg.GetWindowSize(), cfg.GetSmoothingEnabled())

	stats, err := run(ctx, cfg, in, out, chartOptions{
		FS:    fsutil.OSFileSystem{},
		Dir:   *plotDir,
		Title: *plotTitle,
		Name:  *plotName,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("stream failed after %d frames: %v", stats.Frames, err)
	}
	monitoring.Logf("processed %d frames, peak violations %d", stats.Frames, stats.PeakViolations)
}
