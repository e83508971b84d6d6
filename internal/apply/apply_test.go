package apply

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"doubri/internal/manifest"
)

func setupManifestAndFlags(t *testing.T, dir string, entries []manifest.Entry, flags []byte) (flagPath, srcPath string) {
	t.Helper()
	srcPath = filepath.Join(dir, "combined.src")
	if err := manifest.Write(srcPath, 0, entries); err != nil {
		t.Fatalf("manifest.Write: %v", err)
	}
	flagPath = filepath.Join(dir, "combined.dup")
	if err := os.WriteFile(flagPath, flags, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return flagPath, srcPath
}

func TestRunFiltersOnlyActiveLinesForTarget(t *testing.T) {
	dir := t.TempDir()
	entries := []manifest.Entry{
		{NumItems: 2, Filename: "a.jsonl"},
		{NumItems: 3, Filename: "b.jsonl"},
	}
	// a.jsonl: both active. b.jsonl: active, duplicate, active.
	flags := []byte{' ', ' ', ' ', 'D', ' '}
	flagPath, srcPath := setupManifestAndFlags(t, dir, entries, flags)

	target := "b.jsonl"
	in := strings.NewReader("line1\nline2\nline3\n")
	var out bytes.Buffer

	linesRead, linesWritten, err := Run(Options{
		FlagFile:   flagPath,
		SourceFile: srcPath,
		Target:     target,
	}, in, &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if linesRead != 3 {
		t.Errorf("linesRead = %d, want 3", linesRead)
	}
	if linesWritten != 2 {
		t.Errorf("linesWritten = %d, want 2", linesWritten)
	}
	if out.String() != "line1\nline3\n" {
		t.Errorf("output = %q, want %q", out.String(), "line1\nline3\n")
	}
}

func TestRunWithStripMatchesByBaseName(t *testing.T) {
	dir := t.TempDir()
	entries := []manifest.Entry{
		{NumItems: 1, Filename: "/data/shards/a.jsonl"},
	}
	flags := []byte{' '}
	flagPath, srcPath := setupManifestAndFlags(t, dir, entries, flags)

	in := strings.NewReader("only-line\n")
	var out bytes.Buffer
	_, linesWritten, err := Run(Options{
		FlagFile:   flagPath,
		SourceFile: srcPath,
		Target:     "a.jsonl",
		Strip:      true,
	}, in, &out)
	if err != nil {
		t.Fatalf("Run with strip: %v", err)
	}
	if linesWritten != 1 {
		t.Errorf("linesWritten = %d, want 1", linesWritten)
	}
}

func TestRunRejectsMissingTarget(t *testing.T) {
	dir := t.TempDir()
	entries := []manifest.Entry{{NumItems: 1, Filename: "a.jsonl"}}
	flagPath, srcPath := setupManifestAndFlags(t, dir, entries, []byte{' '})

	_, _, err := Run(Options{FlagFile: flagPath, SourceFile: srcPath, Target: "missing.jsonl"}, strings.NewReader(""), &bytes.Buffer{})
	if err == nil {
		t.Errorf("Run with unknown target: got nil error, want error")
	}
}

func TestRunRejectsLineCountMismatch(t *testing.T) {
	dir := t.TempDir()
	entries := []manifest.Entry{{NumItems: 2, Filename: "a.jsonl"}}
	flagPath, srcPath := setupManifestAndFlags(t, dir, entries, []byte{' ', ' '})

	in := strings.NewReader("only-one-line\n")
	_, _, err := Run(Options{FlagFile: flagPath, SourceFile: srcPath, Target: "a.jsonl"}, in, &bytes.Buffer{})
	if err == nil {
		t.Errorf("Run with fewer input lines than the manifest expects: got nil error, want error")
	}
}

func TestRunWhole(t *testing.T) {
	dir := t.TempDir()
	flagPath := filepath.Join(dir, "whole.dup")
	if err := os.WriteFile(flagPath, []byte{' ', 'D', ' '}, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	in := strings.NewReader("a\nb\nc\n")
	var out bytes.Buffer
	linesRead, linesWritten, err := RunWhole(flagPath, in, &out)
	if err != nil {
		t.Fatalf("RunWhole: %v", err)
	}
	if linesRead != 3 || linesWritten != 2 {
		t.Errorf("(linesRead, linesWritten) = (%d, %d), want (3, 2)", linesRead, linesWritten)
	}
	if out.String() != "a\nc\n" {
		t.Errorf("output = %q, want %q", out.String(), "a\nc\n")
	}
}
