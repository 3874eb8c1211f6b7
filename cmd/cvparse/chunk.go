package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dgallion1/cvparse/internal/chunker"
	"github.com/dgallion1/cvparse/internal/config"
	"github.com/dgallion1/cvparse/internal/document"
	"github.com/dgallion1/cvparse/internal/parser"
	"github.com/spf13/cobra"
)

func chunkCmd() *cobra.Command {
	var chunkSize, overlap int
	cmd := &cobra.Command{
		Use:   "chunk FILE",
		Short: "Print the chunks a document splits into",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cmd.Flags().Changed("chunk-size") {
				cfg.ChunkSize = chunkSize
			}
			if cmd.Flags().Changed("overlap") {
				cfg.ChunkOverlap = overlap
			}

			doc, err := readDocument(args[0], cfg)
			if err != nil {
				return err
			}
			chunks, err := chunker.SplitChunks(doc.Text(), cfg.Chunking())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"title":      doc.Title,
				"pages":      len(doc.Pages),
				"chunk_size": cfg.ChunkSize,
				"overlap":    cfg.ChunkOverlap,
				"count":      len(chunks),
				"chunks":     chunks,
			})
		},
	}
	defaults := chunker.DefaultConfig()
	cmd.Flags().IntVar(&chunkSize, "chunk-size", defaults.ChunkSize, "maximum chunk length in characters")
	cmd.Flags().IntVar(&overlap, "overlap", defaults.ChunkOverlap, "maximum overlap between chunks in characters")
	return cmd
}

func readDocument(path string, cfg config.Config) (*document.Document, error) {
	p, err := parser.ForFile(path, parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext})
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := p.Parse(f, path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}
