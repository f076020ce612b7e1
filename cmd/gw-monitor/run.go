package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/i474232898/groundwater-monitoring/internal/groundwater"
	"github.com/i474232898/groundwater-monitoring/internal/store"
)

var outDir string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the analysis once and write maps, charts and a JSON summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		dir := outDir
		if dir == "" {
			dir = cfg.OutputDir
		}

		svc, cleanup, err := buildService(ctx, cfg, store.NewMemoryStore(1, 0), logger)
		if err != nil {
			return err
		}
		defer cleanup()

		report, err := svc.Run(ctx)
		if err != nil {
			return fmt.Errorf("analysis failed: %w", err)
		}
		if err := writeReport(dir, report); err != nil {
			return err
		}
		logger.Info("report written", zap.String("dir", dir), zap.String("id", report.ID))
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&outDir, "out", "", "output directory (default OUTPUT_DIR)")
}

// writeReport writes one PNG per map layer and chart plus report.json.
func writeReport(dir string, report groundwater.Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	for _, layer := range groundwater.Layers {
		err := writeFile(filepath.Join(dir, "map_"+layer+".png"), func(w io.Writer) error {
			return groundwater.WriteMap(w, report, layer)
		})
		if err != nil {
			return err
		}
	}
	for _, chart := range groundwater.Charts {
		err := writeFile(filepath.Join(dir, "chart_"+chart+".png"), func(w io.Writer) error {
			return groundwater.WriteChart(w, report, chart)
		})
		if err != nil {
			return err
		}
	}
	return writeFile(filepath.Join(dir, "report.json"), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	})
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
