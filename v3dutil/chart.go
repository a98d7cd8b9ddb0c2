package v3dutil

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/mrjoshuak/go-vaa3d/pbd"
	"github.com/mrjoshuak/go-vaa3d/v3d"
)

// ===========================================
// Run Statistics
// ===========================================

// ErrNoRuns is returned when charting statistics of an empty stream.
var ErrNoRuns = errors.New("v3dutil: no runs decoded")

// RunChart renders an SVG bar chart of the samples produced by each run kind.
func RunChart(w io.Writer, stats pbd.RunStats, title string) error {
	if stats.Samples() == 0 {
		return ErrNoRuns
	}
	graph := chart.BarChart{
		Title: fmt.Sprintf("%s (%.2fx)", title, stats.Ratio()),
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		Height:   400,
		BarWidth: 80,
		Bars: []chart.Value{
			{Value: float64(stats.Literal.Samples), Label: "literal"},
			{Value: float64(stats.Difference.Samples), Label: "difference"},
			{Value: float64(stats.Repeat.Samples), Label: "repeat"},
		},
	}
	return graph.Render(chart.SVG, w)
}

// FormatStats returns a human-readable summary of run statistics.
func FormatStats(s pbd.RunStats) string {
	line := func(name string, k pbd.KindStats) string {
		avg := 0.0
		if k.Runs > 0 {
			avg = float64(k.Samples) / float64(k.Runs)
		}
		return fmt.Sprintf("  %-10s %10d runs %12d samples (avg %.1f)\n", name, k.Runs, k.Samples, avg)
	}
	return line("literal", s.Literal) +
		line("difference", s.Difference) +
		line("repeat", s.Repeat) +
		fmt.Sprintf("  %d compressed bytes -> %d bytes, ratio %.2f\n", s.BytesIn, s.Samples()*2, s.Ratio())
}

// CollectStats decodes the whole volume read by r and returns its run
// statistics. opts may be nil.
func CollectStats(r io.Reader, opts *v3d.ReadOptions) (pbd.RunStats, error) {
	f, err := NewFile(r, opts)
	if err != nil {
		return pbd.RunStats{}, err
	}
	defer f.Close()

	if _, err := io.Copy(io.Discard, f.Data()); err != nil {
		return pbd.RunStats{}, err
	}
	stats, ok := f.Stats()
	if !ok {
		return pbd.RunStats{}, errors.Errorf("v3dutil: %s volume has no run statistics", f.Header().Format)
	}
	return stats, nil
}
