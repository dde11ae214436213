package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"audioscribe/config"
	"audioscribe/failures"
	"audioscribe/keys"
	"audioscribe/success"
)

func setupStores(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	if err := failures.Init(filepath.Join(dir, "failures")); err != nil {
		t.Fatalf("Failed to init failure store: %v", err)
	}
	if err := success.Init(filepath.Join(dir, "success")); err != nil {
		t.Fatalf("Failed to init success store: %v", err)
	}
	t.Cleanup(func() {
		failures.Close()
		success.Close()
	})
}

func TestFailedRunWritesLedgerAndRetryRecovers(t *testing.T) {
	setupStores(t)
	ledgerDir := t.TempDir()
	t.Setenv("AUDIOSCRIBE_LEDGER_DIR", ledgerDir)

	outDir := t.TempDir()
	jobs := testJobs(t, outDir, "good.mp3", "bad.mp3")

	fake := &fakeTranscriber{failPaths: map[string]error{"bad.mp3": errors.New("quota exceeded")}}
	pool, err := keys.NewPool([]string{"key-a"})
	if err != nil {
		t.Fatalf("Failed to create pool: %v", err)
	}
	r := &Runner{
		Pool:           pool,
		Client:         fake,
		Workers:        1,
		AcquireTimeout: 5 * time.Second,
		Output:         config.OutputConfig{Backend: "local"},
	}

	summary := r.Run(context.Background(), jobs, "/audio")
	if summary.Succeeded != 1 || summary.Failed != 1 {
		t.Fatalf("Unexpected first-pass summary: %+v", summary)
	}
	if summary.LedgerPath == "" {
		t.Fatal("Expected a ledger path for the failed run")
	}
	if _, err := os.Stat(summary.LedgerPath); err != nil {
		t.Fatalf("Ledger file missing: %v", err)
	}

	// The store mirrors the ledger.
	record, err := failures.GetFailure(filepath.Join("/audio", "bad.mp3"))
	if err != nil || record == nil {
		t.Fatalf("Expected persisted failure record, got %v / %v", record, err)
	}
	if !strings.Contains(record.Error, "quota exceeded") {
		t.Errorf("Unexpected failure error: %q", record.Error)
	}

	ledger, err := failures.LoadLedger(summary.LedgerPath)
	if err != nil {
		t.Fatalf("Failed to load ledger: %v", err)
	}
	if ledger.TotalFailed != 1 || ledger.SourceFolder != "/audio" {
		t.Fatalf("Unexpected ledger contents: %+v", ledger)
	}

	retryJobs := RetryJobs(ledger, RetryOptions{OutputRoot: outDir})
	if len(retryJobs) != 1 || retryJobs[0].RelPath != "bad.mp3" {
		t.Fatalf("Expected one rebuilt job for bad.mp3, got %v", retryJobs)
	}

	// Second pass succeeds; the failure record clears and no new ledger
	// is written.
	fake.failPaths = nil
	summary = r.Run(context.Background(), retryJobs, "/audio")
	if summary.Succeeded != 1 || summary.LedgerPath != "" {
		t.Fatalf("Unexpected retry summary: %+v", summary)
	}

	record, err = failures.GetFailure(filepath.Join("/audio", "bad.mp3"))
	if err != nil {
		t.Fatalf("Failed to query failure store: %v", err)
	}
	if record != nil {
		t.Error("Expected the failure record to be cleared after a successful retry")
	}
	if got, _ := success.GetSuccess(filepath.Join("/audio", "bad.mp3")); got == nil {
		t.Error("Expected a success record after the retry")
	}
}

func TestRetrySkipsCompletedFiles(t *testing.T) {
	setupStores(t)

	full := filepath.Join("/audio", "done.mp3")
	if err := success.StoreSuccess(success.SuccessRecord{
		FullPath:   full,
		OutputPath: "/out/done.srt",
		Timestamp:  time.Now(),
	}); err != nil {
		t.Fatalf("Failed to seed success record: %v", err)
	}

	ledger := &failures.Ledger{FailedFiles: []failures.FailureRecord{
		{FilePath: "done.mp3", FullPath: full},
		{FilePath: "pending.mp3", FullPath: filepath.Join("/audio", "pending.mp3")},
	}}

	jobs := RetryJobs(ledger, RetryOptions{})
	if len(jobs) != 1 || jobs[0].RelPath != "pending.mp3" {
		t.Fatalf("Expected only the pending file to be retried, got %v", jobs)
	}
	if jobs[0].ID == "" {
		t.Error("Rebuilt job is missing an id")
	}
}

func TestRetryPairsContextFiles(t *testing.T) {
	setupStores(t)

	ctxRoot := t.TempDir()
	if err := os.MkdirAll(filepath.Join(ctxRoot, "show"), 0755); err != nil {
		t.Fatal(err)
	}
	ctxPath := filepath.Join(ctxRoot, "show", "ep1.srt")
	if err := os.WriteFile(ctxPath, []byte("1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ledger := &failures.Ledger{FailedFiles: []failures.FailureRecord{
		{FilePath: filepath.Join("show", "ep1.mp3"), FullPath: filepath.Join("/audio", "show", "ep1.mp3")},
		{FilePath: filepath.Join("show", "ep2.mp3"), FullPath: filepath.Join("/audio", "show", "ep2.mp3")},
	}}

	jobs := RetryJobs(ledger, RetryOptions{ContextRoot: ctxRoot})
	if len(jobs) != 2 {
		t.Fatalf("Expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].ContextPath != ctxPath {
		t.Errorf("Expected paired context %s, got %q", ctxPath, jobs[0].ContextPath)
	}
	if jobs[1].ContextPath != "" {
		t.Errorf("Expected no context for ep2, got %q", jobs[1].ContextPath)
	}
}

func TestRetryKeepsVanishedFiles(t *testing.T) {
	setupStores(t)

	ledger := &failures.Ledger{FailedFiles: []failures.FailureRecord{
		{FilePath: "gone.mp3", FullPath: filepath.Join("/audio", "gone.mp3")},
	}}

	// A vanished file still becomes a job; it fails at upload and lands in
	// the fresh ledger with the read error.
	jobs := RetryJobs(ledger, RetryOptions{})
	if len(jobs) != 1 {
		t.Fatalf("Expected the vanished file to be retried, got %v", jobs)
	}
}
