package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	// Check that the file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStoreReopenKeepsReports(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, err := store.SaveReport(Report{Seed: 1, Ticks: 10, Dt: time.Millisecond}); err != nil {
		t.Fatalf("SaveReport() failed: %v", err)
	}
	store.Close()

	store, err = Open(dbPath)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer store.Close()

	reports, err := store.RecentReports(10)
	if err != nil {
		t.Fatalf("RecentReports() failed: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("Expected 1 report after reopen, got %d", len(reports))
	}
}

func TestSaveAndReadReport(t *testing.T) {
	store := openTestStore(t)

	report := Report{
		Seed:            42,
		Ticks:           1000,
		Dt:              30 * time.Millisecond,
		InfeasibleTicks: 3,
		Solves:          990,
		Timings: []ProcessTiming{
			{Name: "fsm", Group: "core", Calls: 1000, Average: 2 * time.Microsecond},
			{Name: "tube", Group: "extra", Calls: 1000, Failures: 4, Average: 40 * time.Microsecond},
		},
	}
	runID, err := store.SaveReport(report)
	if err != nil {
		t.Fatalf("SaveReport() failed: %v", err)
	}
	if runID == "" {
		t.Fatal("Expected a generated run ID")
	}

	reports, err := store.RecentReports(5)
	if err != nil {
		t.Fatalf("RecentReports() failed: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("Expected 1 report, got %d", len(reports))
	}
	got := reports[0]
	if got.RunID != runID || got.Seed != 42 || got.Ticks != 1000 || got.Dt != 30*time.Millisecond {
		t.Errorf("Unexpected report: %+v", got)
	}
	if got.InfeasibleTicks != 3 || got.Solves != 990 {
		t.Errorf("Unexpected counters: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("Expected created_at to be set")
	}

	timings, err := store.ReportTimings(runID)
	if err != nil {
		t.Fatalf("ReportTimings() failed: %v", err)
	}
	if len(timings) != 2 {
		t.Fatalf("Expected 2 timings, got %d", len(timings))
	}
	if timings[0].Name != "fsm" || timings[1].Name != "tube" {
		t.Errorf("Timings out of order: %+v", timings)
	}
	if timings[1].Failures != 4 || timings[1].Average != 40*time.Microsecond {
		t.Errorf("Unexpected tube timing: %+v", timings[1])
	}
}

func TestSaveReportKeepsRunID(t *testing.T) {
	store := openTestStore(t)

	runID, err := store.SaveReport(Report{RunID: "fixed", Seed: 1 << 63})
	if err != nil {
		t.Fatalf("SaveReport() failed: %v", err)
	}
	if runID != "fixed" {
		t.Errorf("Expected run ID 'fixed', got %q", runID)
	}

	reports, err := store.RecentReports(1)
	if err != nil {
		t.Fatalf("RecentReports() failed: %v", err)
	}
	if reports[0].Seed != 1<<63 {
		t.Errorf("Seed not preserved: %d", reports[0].Seed)
	}

	if _, err := store.SaveReport(Report{RunID: "fixed"}); err == nil {
		t.Error("Expected duplicate run ID to fail")
	}
}

func TestRecentReportsOrderAndLimit(t *testing.T) {
	store := openTestStore(t)

	for i := 1; i <= 5; i++ {
		if _, err := store.SaveReport(Report{Seed: uint64(i)}); err != nil {
			t.Fatalf("SaveReport() failed: %v", err)
		}
	}

	reports, err := store.RecentReports(3)
	if err != nil {
		t.Fatalf("RecentReports() failed: %v", err)
	}
	if len(reports) != 3 {
		t.Fatalf("Expected 3 reports, got %d", len(reports))
	}
	for i, want := range []uint64{5, 4, 3} {
		if reports[i].Seed != want {
			t.Errorf("reports[%d].Seed = %d, want %d", i, reports[i].Seed, want)
		}
	}
}

func TestReportTimingsUnknownRun(t *testing.T) {
	store := openTestStore(t)

	timings, err := store.ReportTimings("missing")
	if err != nil {
		t.Fatalf("ReportTimings() failed: %v", err)
	}
	if timings != nil {
		t.Errorf("Expected nil timings, got %+v", timings)
	}
}

func TestAllProcessStats(t *testing.T) {
	store := openTestStore(t)

	for _, avg := range []time.Duration{10 * time.Microsecond, 30 * time.Microsecond} {
		_, err := store.SaveReport(Report{Timings: []ProcessTiming{
			{Name: "support", Group: "core", Calls: 100, Failures: 1, Average: avg},
		}})
		if err != nil {
			t.Fatalf("SaveReport() failed: %v", err)
		}
	}

	stats, err := store.AllProcessStats()
	if err != nil {
		t.Fatalf("AllProcessStats() failed: %v", err)
	}
	s, ok := stats["support"]
	if !ok {
		t.Fatal("Expected stats for 'support'")
	}
	if s.Runs != 2 || s.Calls != 200 || s.Failures != 2 {
		t.Errorf("Unexpected stats: %+v", s)
	}
	if s.Average != 20*time.Microsecond {
		t.Errorf("Expected average 20µs, got %v", s.Average)
	}
}
