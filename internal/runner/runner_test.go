package runner_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/bandproj/bandproj/internal/runner"
	"github.com/bandproj/bandproj/pkg/logger"
	"github.com/bandproj/bandproj/pkg/report"
	"github.com/bandproj/bandproj/pkg/state"
	"github.com/bandproj/bandproj/pkg/types"
)

// testDataFile describes one k-point with three bands at -1, 0 and 1 eV and a
// single one-orbital shell. Occupations fill the two lowest bands.
func testDataFile() map[string]interface{} {
	return map[string]interface{}{
		"nk":          1,
		"nband":       3,
		"nspin":       1,
		"eigenvalues": []float64{-1, 0, 1},
		"occupations": []float64{1, 1, 0},
		"kweights":    []float64{1},
		"projectors": [][]float64{
			// (site, spin, k, orbital, band) with interleaved re/im
			{1, 0, 0, 1, 0.5, 0.5},
		},
	}
}

func testConfig(t *testing.T, root string) *types.Config {
	t.Helper()

	data, err := json.Marshal(testDataFile())
	if err != nil {
		t.Fatalf("failed to marshal data file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "bands.json"), data, 0644); err != nil {
		t.Fatalf("failed to write data file: %v", err)
	}

	return &types.Config{
		Version:  types.ConfigVersion,
		DataFile: "bands.json",
		Shells:   []types.ShellConfig{{Name: "s", Sites: []int{0}, NOrb: 1}},
		Groups: []types.GroupConfig{
			{
				Name:      "center",
				Window:    types.EnergyWindow{EMin: -0.5, EMax: 0.5},
				Shells:    []int{0},
				Normalize: true,
			},
		},
	}
}

func testRunner(t *testing.T, root string, cfg *types.Config, store *state.Store) *runner.Runner {
	t.Helper()

	log := logger.CreateLoggerWithOutput("error", io.Discard)
	return runner.New(cfg, "bandproj.config.json", root, log, report.Discard{}, store, true)
}

func TestRunner_ProcessesGroup(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(t, root)
	store := state.NewStore(root, logger.CreateLoggerWithOutput("error", io.Discard))

	results, err := testRunner(t, root, cfg, store).Run(context.Background())
	if err != nil {
		t.Fatalf("pipeline run failed: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("expected 1 group result, got %d", len(results))
	}
	res := results[0]
	if res.Name != "center" {
		t.Errorf("expected group name center, got %s", res.Name)
	}
	// The window (-0.5, 0.5) holds only the middle band.
	if res.IBMin != 1 || res.IBMax != 1 || res.NBMax != 1 {
		t.Errorf("unexpected window: ibMin=%d ibMax=%d nbMax=%d", res.IBMin, res.IBMax, res.NBMax)
	}
	// One occupied band in the window, spin degeneracy 2 for a single channel.
	if math.Abs(res.Nelect-2.0) > 1e-12 {
		t.Errorf("expected nelect 2.0, got %g", res.Nelect)
	}

	if !store.Exists(state.StateName("bandproj.config.json")) {
		t.Error("expected a state file after a coordinator run")
	}
}

func TestRunner_CriticalParameterChangeAborts(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(t, root)
	store := state.NewStore(root, logger.CreateLoggerWithOutput("error", io.Discard))

	if _, err := testRunner(t, root, cfg, store).Run(context.Background()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	// Widening the window of a group is a critical change; the stored
	// results no longer describe the configuration. A fresh store stands in
	// for a separate process reading the state file cold.
	cfg.Groups[0].Window.EMax = 2.0
	store = state.NewStore(root, logger.CreateLoggerWithOutput("error", io.Discard))
	_, err := testRunner(t, root, cfg, store).Run(context.Background())
	if !errors.Is(err, state.ErrCriticalParameterChanged) {
		t.Fatalf("expected ErrCriticalParameterChanged, got %v", err)
	}
}

func TestRunner_RepeatedRunPassesAudit(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(t, root)
	store := state.NewStore(root, logger.CreateLoggerWithOutput("error", io.Discard))

	first, err := testRunner(t, root, cfg, store).Run(context.Background())
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	store = state.NewStore(root, logger.CreateLoggerWithOutput("error", io.Discard))
	second, err := testRunner(t, root, cfg, store).Run(context.Background())
	if err != nil {
		t.Fatalf("second run with unchanged parameters failed: %v", err)
	}
	if first[0] != second[0] {
		t.Errorf("runs disagree: %+v vs %+v", first[0], second[0])
	}
}

func TestRunner_NilStoreSkipsPersistence(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(t, root)

	results, err := testRunner(t, root, cfg, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("pipeline run failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 group result, got %d", len(results))
	}
	if _, err := os.Stat(filepath.Join(root, ".bandproj")); !os.IsNotExist(err) {
		t.Error("expected no state directory without a store")
	}
}

func TestRunner_CancelledContext(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(t, root)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := testRunner(t, root, cfg, nil).Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLoadBandData_RejectsShortBuffer(t *testing.T) {
	root := t.TempDir()

	df := testDataFile()
	df["eigenvalues"] = []float64{-1, 0} // one short
	data, _ := json.Marshal(df)
	path := filepath.Join(root, "bands.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write data file: %v", err)
	}

	shells := []types.ShellConfig{{Sites: []int{0}, NOrb: 1}}
	if _, err := runner.LoadBandData(path, shells); err == nil {
		t.Fatal("expected an error for a truncated eigenvalue buffer")
	}
}

func TestLoadBandData_ShellBufferMismatch(t *testing.T) {
	root := t.TempDir()

	df := testDataFile()
	df["projectors"] = [][]float64{{1, 0}} // 2 of 6 entries
	data, _ := json.Marshal(df)
	path := filepath.Join(root, "bands.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write data file: %v", err)
	}

	shells := []types.ShellConfig{{Sites: []int{0}, NOrb: 1}}
	if _, err := runner.LoadBandData(path, shells); err == nil {
		t.Fatal("expected an error for a mis-sized projector buffer")
	}
}
