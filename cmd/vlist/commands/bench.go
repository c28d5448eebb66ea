package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/agiangrant/vlist/frame"
	"github.com/agiangrant/vlist/internal/ffi"
	"github.com/agiangrant/vlist/layout"
	"github.com/agiangrant/vlist/measure"
)

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time the static and dynamic layout passes over synthetic items",
		Args:  cobra.NoArgs,
		RunE:  runBench,
	}
	cmd.Flags().Int("items", 10000, "Number of items")
	cmd.Flags().Bool("measured", false, "Also run the dynamic measurement pass")
	cmd.Flags().Int("width", 80, "Column width items are wrapped at")
	cmd.Flags().Duration("cost", 0, "Simulated render cost per measured item")
	cmd.Flags().Bool("native", false, "Measure with the native text library instead of terminal cells")
	cmd.Flags().Float64("pixels", 640, "Pixel width items are wrapped at with --native")
	cmd.Flags().String("font", "", "Font family for --native")
	cmd.Flags().Float64("font-size", 14, "Font size for --native")
	return cmd
}

// openMetrics loads the native text backend. Nil uses the library search.
var openMetrics func() (measure.TextMetrics, error)

// benchItem is a synthetic paragraph whose wrapped height varies with index.
type benchItem string

func benchItems(n int) []benchItem {
	words := []string{"virtual", "list", "rows", "measure", "scroll", "frame", "batch", "cursor"}
	items := make([]benchItem, n)
	var b strings.Builder
	for i := range items {
		b.Reset()
		for w := 0; w < 5+(i*7)%60; w++ {
			if w > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(words[(i+w)%len(words)])
		}
		items[i] = benchItem(b.String())
	}
	return items
}

// costlyHost charges every measurement against the manual clock so batch
// budgets can be exercised without real rendering.
type costlyHost struct {
	layout.Measurer[benchItem]
	clock *frame.Manual
	cost  time.Duration
}

func (h costlyHost) Measure(item benchItem, index int, width float64) (float64, error) {
	h.clock.Sleep(h.cost)
	return h.Measurer.Measure(item, index, width)
}

// benchHost returns the measurement host and the width to measure at.
func benchHost(cmd *cobra.Command) (layout.Measurer[benchItem], float64, error) {
	text := func(it benchItem) string { return string(it) }
	native, _ := cmd.Flags().GetBool("native")
	if !native {
		width, _ := cmd.Flags().GetInt("width")
		cells := measure.NewCells(text)
		cells.SetWidth(width)
		return cells, float64(width), nil
	}

	pixels, _ := cmd.Flags().GetFloat64("pixels")
	font, _ := cmd.Flags().GetString("font")
	size, _ := cmd.Flags().GetFloat64("font-size")
	host := measure.NewNative(text, measure.NativeOptions{
		Font: font,
		Size: size,
		Open: openMetrics,
	})
	if !host.Ready() {
		return nil, 0, fmt.Errorf("native text library %s not found (set %s)", ffi.LibraryName(), ffi.EnvLibraryPath)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "native:  line height %.1f px at %.0f px wide\n", host.LineHeight(), pixels)
	return host, pixels, nil
}

func runBench(cmd *cobra.Command, args []string) error {
	n, _ := cmd.Flags().GetInt("items")
	measured, _ := cmd.Flags().GetBool("measured")
	width, _ := cmd.Flags().GetInt("width")
	pixels, _ := cmd.Flags().GetFloat64("pixels")
	cost, _ := cmd.Flags().GetDuration("cost")
	if n < 0 || width < 1 || pixels <= 0 {
		return fmt.Errorf("--items must be >= 0, --width >= 1 and --pixels > 0")
	}

	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	items := benchItems(n)

	host, at, err := benchHost(cmd)
	if err != nil {
		return err
	}
	provided := layout.ProvidedHeight[benchItem]{Fn: func(it benchItem, i int) float64 {
		h, _ := host.Measure(it, i, at)
		return h
	}}

	start := time.Now()
	cache := layout.Build(items, provided, cfg.Layout.DefaultItemHeight, cfg.Layout.Spacing)
	fmt.Fprintf(out, "static:  %d items, total height %.0f, %s\n", cache.Len(), cache.TotalHeight(), time.Since(start).Round(time.Microsecond))

	if !measured {
		return nil
	}

	m := frame.NewManual()
	opts := cfg.LayoutOptions(nil)
	opts.Width = at
	dyn := layout.NewCache(n, cfg.Layout.DefaultItemHeight, cfg.Layout.Spacing)
	pass := layout.NewDynamicPass(dyn, items, costlyHost{Measurer: host, clock: m, cost: cost}, m, m, opts)

	start = time.Now()
	pass.Start()
	frames := m.RunFrames(n + 1)
	p := pass.Progress()
	fmt.Fprintf(out, "dynamic: %d/%d items, %d batches over %d frames, batch size %d, total height %.0f, %s\n",
		p.Measured, p.Total, p.Batches, frames, p.BatchSize, dyn.TotalHeight(), time.Since(start).Round(time.Microsecond))
	if !p.Done {
		return fmt.Errorf("measurement incomplete after %d frames", frames)
	}
	return nil
}
