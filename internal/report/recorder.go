// Package report records per-frame violation counts during a run and renders
// them as a PNG timeline (gonum/plot) or an interactive HTML chart
// (go-echarts).
package report

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/distance.report/internal/fsutil"
	"github.com/banshee-data/distance.report/internal/pipeline"
)

// Sample is one frame's counts.
type Sample struct {
	Frame      int
	People     int
	Violations int
	Pairs      int
	Skipped    bool // proximity analysis skipped for this frame
}

// Recorder accumulates samples. It implements pipeline.Sink so it can sit
// next to the JSONL output in a MultiSink.
type Recorder struct {
	mu      sync.Mutex
	title   string
	samples []Sample
}

// NewRecorder creates an empty recorder; title labels the rendered charts.
func NewRecorder(title string) *Recorder {
	return &Recorder{title: title}
}

// Write records one frame result.
func (r *Recorder) Write(res pipeline.FrameResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, Sample{
		Frame:      res.Index,
		People:     len(res.Detections),
		Violations: res.Violations.Len(),
		Pairs:      len(res.Pairs),
		Skipped:    res.Warning != "",
	})
	return nil
}

// Samples returns a copy of the recorded samples.
func (r *Recorder) Samples() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sample(nil), r.samples...)
}

var (
	peopleColor    = color.RGBA{R: 0, G: 160, B: 0, A: 255}
	violationColor = color.RGBA{R: 220, G: 0, B: 0, A: 255}
)

// WritePNG renders people and violation counts per frame as a PNG.
func (r *Recorder) WritePNG(w io.Writer) error {
	samples := r.Samples()
	if len(samples) == 0 {
		return fmt.Errorf("no samples recorded")
	}

	p := plot.New()
	p.Title.Text = r.title
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Count"

	people := make(plotter.XYs, len(samples))
	violations := make(plotter.XYs, len(samples))
	for i, s := range samples {
		people[i] = plotter.XY{X: float64(s.Frame), Y: float64(s.People)}
		violations[i] = plotter.XY{X: float64(s.Frame), Y: float64(s.Violations)}
	}

	for _, series := range []struct {
		name string
		pts  plotter.XYs
		c    color.Color
	}{
		{"people", people, peopleColor},
		{"violations", violations, violationColor},
	} {
		line, err := plotter.NewLine(series.pts)
		if err != nil {
			return err
		}
		line.Color = series.c
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(series.name, line)
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	wt, err := p.WriterTo(14*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render violation plot: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write violation plot: %w", err)
	}
	return nil
}

// RenderHTML returns an interactive line chart of the recorded samples.
func (r *Recorder) RenderHTML() ([]byte, error) {
	samples := r.Samples()

	x := make([]string, len(samples))
	people := make([]opts.LineData, len(samples))
	violations := make([]opts.LineData, len(samples))
	for i, s := range samples {
		x[i] = strconv.Itoa(s.Frame)
		people[i] = opts.LineData{Value: s.People}
		violations[i] = opts.LineData{Value: s.Violations}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: r.title, Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: r.title, Subtitle: fmt.Sprintf("frames=%d", len(samples))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Count"}),
	)
	line.SetXAxis(x).
		AddSeries("people", people).
		AddSeries("violations", violations)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteAll writes <name>.png and <name>.html into dir. The name is
// sanitized before use.
func (r *Recorder) WriteAll(fsys fsutil.FileSystem, dir, name string) error {
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	base := filepath.Join(dir, fsutil.SanitizeFilename(name))

	if err := writeFile(fsys, base+".png", r.WritePNG); err != nil {
		return err
	}
	html, err := r.RenderHTML()
	if err != nil {
		return err
	}
	return writeFile(fsys, base+".html", func(w io.Writer) error {
		_, err := w.Write(html)
		return err
	})
}

func writeFile(fsys fsutil.FileSystem, path string, fn func(io.Writer) error) error {
	f, err := fsys.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
