package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dgallion1/cvparse/internal/chunker"
	"github.com/dgallion1/cvparse/internal/config"
	"github.com/dgallion1/cvparse/internal/extract"
	"github.com/dgallion1/cvparse/internal/parser"
	"github.com/dgallion1/cvparse/internal/pipeline"
	"github.com/dgallion1/cvparse/internal/store"
	"github.com/spf13/cobra"
)

var errDecodeFailed = errors.New("model reply could not be decoded")

type parseFlags struct {
	chunkSize int
	overlap   int
	mode      string
	provider  string
	model     string
	noCache   bool
	chunks    bool
}

func parseCmd() *cobra.Command {
	var f parseFlags
	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Extract a structured record from a résumé",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			flags := cmd.Flags()
			if flags.Changed("chunk-size") {
				cfg.ChunkSize = f.chunkSize
			}
			if flags.Changed("overlap") {
				cfg.ChunkOverlap = f.overlap
			}
			if flags.Changed("mode") {
				cfg.ExtractMode = f.mode
			}
			if flags.Changed("provider") {
				cfg.LLMProvider = f.provider
			}
			if flags.Changed("model") {
				cfg.LLMModel = f.model
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log := slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.SlogLevel()}))
			ctx := cmd.Context()

			llm, err := extract.NewCompleter(ctx, cfg.LLMProvider, cfg.LLMAPIKey(), cfg.LLMBaseURL, cfg.LLMModel)
			if err != nil {
				return err
			}

			var results store.Store
			if cfg.RedisURL != "" && !f.noCache {
				rs, err := store.NewRedisStore(ctx, cfg.RedisURL, cfg.ResultTTL)
				if err != nil {
					return err
				}
				defer rs.Close()
				results = rs
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			runner := pipeline.NewRunner(llm, results, log, pipeline.RunnerOptions{
				Parser:               parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
				MaxConcurrentExtract: cfg.MaxConcurrentExtract,
			})
			out, err := runner.Run(ctx, pipeline.Input{
				Filename: filepath.Base(args[0]),
				Data:     data,
				Options: pipeline.Options{
					ChunkSize:    cfg.ChunkSize,
					ChunkOverlap: cfg.ChunkOverlap,
					Mode:         pipeline.Mode(cfg.ExtractMode),
				},
				NoCache: f.noCache,
			})
			if err != nil {
				return err
			}
			if !f.chunks {
				out.Chunks = nil
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return err
			}
			if !out.Result.OK() {
				return errDecodeFailed
			}
			return nil
		},
	}

	defaults := chunker.DefaultConfig()
	fl := cmd.Flags()
	fl.IntVar(&f.chunkSize, "chunk-size", defaults.ChunkSize, "maximum chunk length in characters")
	fl.IntVar(&f.overlap, "overlap", defaults.ChunkOverlap, "maximum overlap between chunks in characters")
	fl.StringVar(&f.mode, "mode", "whole", "whole or per_chunk")
	fl.StringVar(&f.provider, "provider", config.ProviderGroq, "groq, openai, anthropic or gemini")
	fl.StringVar(&f.model, "model", "", "model name (provider default when empty)")
	fl.BoolVar(&f.noCache, "no-cache", false, "skip the result cache")
	fl.BoolVar(&f.chunks, "chunks", false, "include chunks in the output")
	return cmd
}
