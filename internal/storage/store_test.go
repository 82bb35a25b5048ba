package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/mobility/internal/config"
	"github.com/san-kum/mobility/internal/experiment"
)

func testRun() (*config.Config, *experiment.Result) {
	cfg := config.DefaultConfig()
	cfg.Parameters.Seed = 42
	cfg.Parameters.NumberParticles = 2
	res := &experiment.Result{
		Solver:     "SelfMobility",
		Times:      []float64{0, 0.1, 0.2},
		MSD:        []float64{0, 0.61, 1.18},
		Initial:    []float64{0, 0, 0, 1, 1, 1},
		Final:      []float64{0.5, -0.25, 0, 1, 2, 3},
		Increments: []float64{0.1, -0.2},
		Metrics:    map[string]float64{"diffusion": 0.98},
	}
	return cfg, res
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg, res := testRun()
	runID, err := st.Save(cfg, res)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Solver != "self" || meta.Variant != "SelfMobility" {
		t.Errorf("unexpected solver %q / %q", meta.Solver, meta.Variant)
	}
	if meta.Seed != 42 {
		t.Errorf("expected seed 42, got %d", meta.Seed)
	}
	if meta.Metrics["diffusion"] != 0.98 {
		t.Errorf("expected diffusion 0.98, got %f", meta.Metrics["diffusion"])
	}

	times, msd, err := st.LoadMSD(runID)
	if err != nil {
		t.Fatalf("load msd failed: %v", err)
	}
	if len(times) != 3 || msd[2] != 1.18 {
		t.Errorf("unexpected msd %v at %v", msd, times)
	}

	initial, final, err := st.LoadPositions(runID)
	if err != nil {
		t.Fatalf("load positions failed: %v", err)
	}
	for i := range res.Final {
		if initial[i] != res.Initial[i] || final[i] != res.Final[i] {
			t.Fatalf("positions differ at %d: %v %v", i, initial, final)
		}
	}

	inc, err := st.LoadIncrements(runID)
	if err != nil {
		t.Fatalf("load increments failed: %v", err)
	}
	if len(inc) != 2 || inc[1] != -0.2 {
		t.Errorf("unexpected increments %v", inc)
	}

	loaded, err := st.LoadConfig(runID)
	if err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	if loaded.Parameters.Seed != 42 || loaded.Solver != "self" {
		t.Errorf("config not restored: %+v", loaded)
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	cfg, res := testRun()
	first, err := st.Save(cfg, res)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	second, err := st.Save(cfg, res)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if first == second {
		t.Fatal("run ids must be unique")
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Timestamp.Before(runs[1].Timestamp) {
		t.Error("expected newest run first")
	}
}

func TestStoreListMissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "absent")).List()
	if err != nil || len(runs) != 0 {
		t.Errorf("expected empty list, got %v, %v", runs, err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	cfg, res := testRun()
	runID, err := st.Save(cfg, res)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{metadataFile, msdFile, positionsFile, noiseFile, configFile} {
		if _, err := os.Stat(filepath.Join(tmpDir, runID, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	cfg, res := testRun()
	runID, err := st.Save(cfg, res)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	var buf bytes.Buffer
	if err := st.ExportJSON(&buf, runID); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	var out ExportData
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("export is not valid json: %v", err)
	}
	if out.ID != runID || len(out.MSD) != 3 {
		t.Errorf("unexpected export %+v", out)
	}
}
