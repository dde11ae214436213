package discover

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestJobsScansRecursivelyAndSorts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "show", "ep2.mp3"))
	writeFile(t, filepath.Join(root, "show", "ep1.wav"))
	writeFile(t, filepath.Join(root, "intro.m4a"))
	writeFile(t, filepath.Join(root, "notes.txt"))
	writeFile(t, filepath.Join(root, "cover.jpg"))

	jobs, err := Jobs(Options{InputRoot: root})
	if err != nil {
		t.Fatalf("Jobs failed: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("Expected 3 audio files, got %d", len(jobs))
	}

	wantRel := []string{
		"intro.m4a",
		filepath.Join("show", "ep1.wav"),
		filepath.Join("show", "ep2.mp3"),
	}
	for i, want := range wantRel {
		if jobs[i].RelPath != want {
			t.Errorf("Job %d: expected rel path %s, got %s", i, want, jobs[i].RelPath)
		}
		if jobs[i].ID == "" {
			t.Errorf("Job %d missing an id", i)
		}
	}

	if jobs[0].MimeType != "audio/mp4" {
		t.Errorf("Expected audio/mp4 for .m4a, got %s", jobs[0].MimeType)
	}
	if jobs[1].MimeType != "audio/wav" {
		t.Errorf("Expected audio/wav for .wav, got %s", jobs[1].MimeType)
	}
}

func TestJobsOutputNextToAudioByDefault(t *testing.T) {
	root := t.TempDir()
	audio := filepath.Join(root, "show", "ep1.mp3")
	writeFile(t, audio)

	jobs, err := Jobs(Options{InputRoot: root})
	if err != nil {
		t.Fatalf("Jobs failed: %v", err)
	}
	want := filepath.Join(root, "show", "ep1.srt")
	if jobs[0].OutputPath != want {
		t.Errorf("Expected output %s, got %s", want, jobs[0].OutputPath)
	}
}

func TestJobsMirrorsOutputRoot(t *testing.T) {
	root := t.TempDir()
	outRoot := t.TempDir()
	writeFile(t, filepath.Join(root, "show", "ep1.mp3"))

	jobs, err := Jobs(Options{InputRoot: root, OutputRoot: outRoot})
	if err != nil {
		t.Fatalf("Jobs failed: %v", err)
	}
	want := filepath.Join(outRoot, "show", "ep1.srt")
	if jobs[0].OutputPath != want {
		t.Errorf("Expected mirrored output %s, got %s", want, jobs[0].OutputPath)
	}
}

func TestJobsPairsContextFiles(t *testing.T) {
	root := t.TempDir()
	ctxRoot := t.TempDir()
	writeFile(t, filepath.Join(root, "show", "ep1.mp3"))
	writeFile(t, filepath.Join(root, "show", "ep2.mp3"))
	writeFile(t, filepath.Join(ctxRoot, "show", "ep1.srt"))

	jobs, err := Jobs(Options{InputRoot: root, ContextRoot: ctxRoot})
	if err != nil {
		t.Fatalf("Jobs failed: %v", err)
	}
	if jobs[0].ContextPath != filepath.Join(ctxRoot, "show", "ep1.srt") {
		t.Errorf("Expected paired context for ep1, got %q", jobs[0].ContextPath)
	}
	if jobs[1].ContextPath != "" {
		t.Errorf("Expected no context for ep2, got %q", jobs[1].ContextPath)
	}
}

func TestJobsRejectsBadInput(t *testing.T) {
	if _, err := Jobs(Options{InputRoot: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Error("Expected error for missing input folder")
	}

	file := filepath.Join(t.TempDir(), "audio.mp3")
	writeFile(t, file)
	if _, err := Jobs(Options{InputRoot: file}); err == nil {
		t.Error("Expected error when input path is a file")
	}
}

func TestJobsUppercaseExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "LOUD.MP3"))

	jobs, err := Jobs(Options{InputRoot: root})
	if err != nil {
		t.Fatalf("Jobs failed: %v", err)
	}
	if len(jobs) != 1 || jobs[0].MimeType != "audio/mpeg" {
		t.Errorf("Expected uppercase extension to match, got %v", jobs)
	}
}

func TestMimeTypeFor(t *testing.T) {
	if got := MimeTypeFor("a.flac"); got != "audio/flac" {
		t.Errorf("Expected audio/flac, got %s", got)
	}
	if got := MimeTypeFor("a.unknown"); got != "audio/mpeg" {
		t.Errorf("Expected audio/mpeg fallback, got %s", got)
	}
}
