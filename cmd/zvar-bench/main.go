// Command zvar-bench measures propagation throughput of the update engine:
// grids of mapped cells of configurable width and depth, driven from a
// single source, timed per apply pass.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"runtime/metrics"
	"runtime/pprof"
	"time"

	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/zng-ui/zvar/pkg/zvar"
)

type benchConfig struct {
	widths     []int
	heights    []int
	iters      int
	jsonOutput string
	cpuProfile string
}

func main() {
	cfg := benchConfig{}

	rootCmd := &cobra.Command{
		Use:   "zvar-bench",
		Short: "Benchmark update-engine propagation",
		Long: `zvar-bench builds width x height grids of mapped cells fed from one
source variable, then measures the latency of full apply passes while the
source changes every iteration.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg)
		},
	}

	rootCmd.Flags().IntSliceVar(&cfg.widths, "widths", []int{1, 10, 100}, "grid widths (parallel chains)")
	rootCmd.Flags().IntSliceVar(&cfg.heights, "heights", []int{1, 10, 100}, "grid heights (chain depth)")
	rootCmd.Flags().IntVar(&cfg.iters, "iters", 100, "timed iterations per grid")
	rootCmd.Flags().StringVar(&cfg.jsonOutput, "json", "", "write a JSON report to this path")
	rootCmd.Flags().StringVar(&cfg.cpuProfile, "cpuprofile", "", "write a CPU profile to this path")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type gridResult struct {
	Width  int           `json:"width"`
	Height int           `json:"height"`
	Cells  int           `json:"cells"`
	Iters  int           `json:"iters"`
	Avg    time.Duration `json:"avg_ns"`
	Min    time.Duration `json:"min_ns"`
	P75    time.Duration `json:"p75_ns"`
	P99    time.Duration `json:"p99_ns"`
	Max    time.Duration `json:"max_ns"`
}

type report struct {
	GoVersion    string       `json:"go_version"`
	GOOS         string       `json:"goos"`
	GOARCH       string       `json:"goarch"`
	GOMAXPROCS   int          `json:"gomaxprocs"`
	Results      []gridResult `json:"results"`
	CPUSeconds   float64      `json:"cpu_seconds"`
	GCFraction   float64      `json:"gc_cpu_fraction"`
	AllocBytes   uint64       `json:"heap_alloc_bytes"`
	AllocObjects uint64       `json:"heap_alloc_objects"`
}

func run(cfg benchConfig) error {
	if cfg.cpuProfile != "" {
		f, err := os.Create(cfg.cpuProfile)
		if err != nil {
			return fmt.Errorf("create cpu profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("start cpu profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	tbl := table.NewWriter()
	tbl.SetTitle("zvar propagation")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"grid", "cells", "avg", "min", "p75", "p99", "max"})

	before := readRuntimeMetrics()

	var results []gridResult
	for _, w := range cfg.widths {
		for _, h := range cfg.heights {
			result := benchGrid(w, h, cfg.iters)
			results = append(results, result)
			tbl.AppendRow(table.Row{
				fmt.Sprintf("%dx%d", w, h),
				result.Cells,
				result.Avg,
				result.Min,
				result.P75,
				result.P99,
				result.Max,
			})
		}
	}

	after := readRuntimeMetrics()
	tbl.Render()

	if cfg.jsonOutput == "" {
		return nil
	}
	rep := report{
		GoVersion:    runtime.Version(),
		GOOS:         runtime.GOOS,
		GOARCH:       runtime.GOARCH,
		GOMAXPROCS:   runtime.GOMAXPROCS(0),
		Results:      results,
		CPUSeconds:   after.cpuTotalSeconds - before.cpuTotalSeconds,
		GCFraction:   cpuFraction(after, before),
		AllocBytes:   after.heapAllocsBytes - before.heapAllocsBytes,
		AllocObjects: after.heapAllocsObjects - before.heapAllocsObjects,
	}
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(cfg.jsonOutput, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Printf("report written to %s\n", cfg.jsonOutput)
	return nil
}

// benchGrid times iters apply passes through a w x h grid of mapped cells.
// Leaf hooks keep every chain observed so no propagation is skipped.
func benchGrid(w, h, iters int) gridResult {
	u := zvar.New()
	src := zvar.NewVar(u, 0)

	handles := make([]*zvar.VarHandle, 0, w)
	sink := 0
	for i := 0; i < w; i++ {
		last := src
		for j := 0; j < h; j++ {
			last = zvar.Map(last, func(v int) int { return v + 1 })
		}
		handles = append(handles, last.Hook(func(args *zvar.HookArgs[int]) bool {
			sink += args.Value
			return true
		}))
	}

	// Warm the grid so allocation of the cells is not timed.
	if err := src.Set(1); err != nil {
		panic(err)
	}
	u.Apply()

	tach := tachymeter.New(&tachymeter.Config{Size: iters})
	for i := 0; i < iters; i++ {
		start := time.Now()
		if err := src.Set(i + 2); err != nil {
			panic(err)
		}
		u.Apply()
		tach.AddTime(time.Since(start))
	}

	for _, handle := range handles {
		handle.Unsubscribe()
	}
	_ = sink

	calc := tach.Calc()
	return gridResult{
		Width:  w,
		Height: h,
		Cells:  w * h,
		Iters:  iters,
		Avg:    calc.Time.Avg,
		Min:    calc.Time.Min,
		P75:    calc.Time.P75,
		P99:    calc.Time.P99,
		Max:    calc.Time.Max,
	}
}

type runtimeMetricsSnapshot struct {
	cpuTotalSeconds   float64
	cpuGCSeconds      float64
	heapAllocsBytes   uint64
	heapAllocsObjects uint64
}

func readRuntimeMetrics() runtimeMetricsSnapshot {
	samples := []metrics.Sample{
		{Name: "/cpu/classes/total:cpu-seconds"},
		{Name: "/cpu/classes/gc/total:cpu-seconds"},
		{Name: "/gc/heap/allocs:bytes"},
		{Name: "/gc/heap/allocs:objects"},
	}
	metrics.Read(samples)

	var out runtimeMetricsSnapshot
	for _, s := range samples {
		switch s.Name {
		case "/cpu/classes/total:cpu-seconds":
			out.cpuTotalSeconds = s.Value.Float64()
		case "/cpu/classes/gc/total:cpu-seconds":
			out.cpuGCSeconds = s.Value.Float64()
		case "/gc/heap/allocs:bytes":
			out.heapAllocsBytes = s.Value.Uint64()
		case "/gc/heap/allocs:objects":
			out.heapAllocsObjects = s.Value.Uint64()
		}
	}
	return out
}

func cpuFraction(after, before runtimeMetricsSnapshot) float64 {
	total := after.cpuTotalSeconds - before.cpuTotalSeconds
	if total <= 0 {
		return 0
	}
	gc := after.cpuGCSeconds - before.cpuGCSeconds
	if gc < 0 {
		return 0
	}
	return gc / total
}
