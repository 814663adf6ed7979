package trace

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/sarchlab/mipsim/timing/pipeline"
)

// RenderChart writes an HTML line chart of pipeline activity over the
// run: cumulative retired instructions and per-cycle stall markers. Handy
// for lecture slides next to the text trace.
func RenderChart(path string, snapshots []pipeline.Snapshot) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Pipeline Activity",
			Subtitle: "Retired instructions and stall cycles per cycle",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	cycles := make([]string, 0, len(snapshots))
	retired := make([]opts.LineData, 0, len(snapshots))
	stalls := make([]opts.LineData, 0, len(snapshots))
	stallTotal := 0
	for _, s := range snapshots {
		cycles = append(cycles, strconv.FormatUint(s.Cycle, 10))
		retired = append(retired, opts.LineData{Value: s.Retired})
		if s.Stalled {
			stallTotal++
		}
		stalls = append(stalls, opts.LineData{Value: stallTotal})
	}

	line.SetXAxis(cycles).
		AddSeries("retired", retired).
		AddSeries("stalls", stalls)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()

	if err := line.Render(f); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
