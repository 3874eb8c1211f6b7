package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/dgallion1/cvparse/internal/chunker"
	"github.com/spf13/cobra"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := rootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestChunkCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cv.txt")
	if err := os.WriteFile(path, []byte("The quick brown fox jumps over the lazy dog"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "chunk", path, "--chunk-size", "20", "--overlap", "5")
	if err != nil {
		t.Fatalf("chunk: %v", err)
	}

	var got struct {
		Count  int `json:"count"`
		Chunks []struct {
			Text string `json:"text"`
		} `json:"chunks"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	want := []string{"The quick brown fox ", "fox jumps over the ", "the lazy dog"}
	if got.Count != len(want) {
		t.Fatalf("count = %d, want %d", got.Count, len(want))
	}
	for i, c := range got.Chunks {
		if c.Text != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, c.Text, want[i])
		}
	}
}

func TestChunkCommandRejectsBadOverlap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cv.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := runCLI(t, "chunk", path, "--chunk-size", "10", "--overlap", "10")
	if err == nil || !strings.Contains(err.Error(), "overlap must be smaller") {
		t.Fatalf("err = %v, want overlap error", err)
	}
}

func TestChunkCommandUnsupportedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cv.xls")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, "chunk", path); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestParseCommandRequiresKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "cv.txt")
	if err := os.WriteFile(path, []byte("Jane Doe"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := runCLI(t, "parse", path, "--provider", "groq")
	if err == nil || !strings.Contains(err.Error(), "GROQ_API_KEY") {
		t.Fatalf("err = %v, want missing key error", err)
	}
}

func TestChunkFlagDefaults(t *testing.T) {
	defaults := chunker.DefaultConfig()
	for _, cmd := range []*cobra.Command{parseCmd(), chunkCmd()} {
		if got := cmd.Flags().Lookup("chunk-size").DefValue; got != strconv.Itoa(defaults.ChunkSize) {
			t.Errorf("%s --chunk-size default = %s", cmd.Name(), got)
		}
		if got := cmd.Flags().Lookup("overlap").DefValue; got != strconv.Itoa(defaults.ChunkOverlap) {
			t.Errorf("%s --overlap default = %s", cmd.Name(), got)
		}
	}
}
