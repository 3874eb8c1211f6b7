package pipeline

import (
	"fmt"

	"github.com/dgallion1/cvparse/internal/chunker"
)

// Mode selects how chunks are sent to the model.
type Mode string

const (
	// ModeWhole sends every chunk in one prompt.
	ModeWhole Mode = "whole"
	// ModePerChunk sends one prompt per chunk and merges the records.
	ModePerChunk Mode = "per_chunk"
)

// ParseMode accepts "" as ModeWhole.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeWhole:
		return ModeWhole, nil
	case ModePerChunk:
		return ModePerChunk, nil
	}
	return "", fmt.Errorf("unknown mode %q (want %s or %s)", s, ModeWhole, ModePerChunk)
}

// Options are the per-request knobs. They travel with each request; nothing
// in this package reads process-wide settings.
type Options struct {
	ChunkSize    int  `json:"chunk_size"`
	ChunkOverlap int  `json:"overlap"`
	Mode         Mode `json:"mode"`
}

func (o Options) Chunking() chunker.Config {
	return chunker.Config{ChunkSize: o.ChunkSize, ChunkOverlap: o.ChunkOverlap}
}

// Validate returns the chunker's *ConfigurationError unchanged for a bad
// size/overlap pair.
func (o Options) Validate() error {
	if err := o.Chunking().Validate(); err != nil {
		return err
	}
	_, err := ParseMode(string(o.Mode))
	return err
}
