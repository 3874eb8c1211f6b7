package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/cvparse/internal/chunker"
	"github.com/dgallion1/cvparse/internal/extract"
	"github.com/dgallion1/cvparse/internal/metrics"
	"github.com/dgallion1/cvparse/internal/parser"
	"github.com/dgallion1/cvparse/internal/store"
)

var (
	// ErrParse wraps failures to read the uploaded document.
	ErrParse = errors.New("document could not be parsed")
	// ErrEmptyDocument is returned when the document holds no text.
	ErrEmptyDocument = errors.New("document has no extractable text")
	// ErrQueueFull is returned by Orchestrator.Submit when no slot is free.
	ErrQueueFull = errors.New("job queue is full")
)

// Input is one document to parse.
type Input struct {
	Filename string
	Title    string // Overrides the title found in the document.
	Data     []byte
	Options  Options
	NoCache  bool
}

// Output is the outcome of a run. Result is either a decoded record or a
// decode failure carrying the raw reply.
type Output struct {
	Key         string          `json:"key"`
	Title       string          `json:"title"`
	ContentHash string          `json:"content_hash"`
	Model       string          `json:"model"`
	Options     Options         `json:"options"`
	Pages       int             `json:"pages"`
	Chunks      []chunker.Chunk `json:"chunks,omitempty"`
	ChunkCount  int             `json:"chunk_count"`
	Result      extract.Result  `json:"result"`
	Cached      bool            `json:"cached"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Status maps the output onto a terminal job status.
func (o *Output) Status() JobStatus {
	switch {
	case o.Cached:
		return StatusCached
	case o.Result.OK():
		return StatusCompleted
	default:
		return StatusDecodeFailed
	}
}

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	Parser               parser.Options
	MaxConcurrentExtract int
	Stats                *extract.LLMStats
	Metrics              *metrics.Metrics
}

// Runner executes parse → chunk → prompt → complete → decode for one
// document at a time. It is safe for concurrent use.
type Runner struct {
	llm     extract.Completer
	store   store.Store
	log     *slog.Logger
	opts    RunnerOptions
	backoff func(int) time.Duration
}

// NewRunner creates a runner. st may be nil to disable result caching.
func NewRunner(llm extract.Completer, st store.Store, log *slog.Logger, opts RunnerOptions) *Runner {
	if opts.MaxConcurrentExtract <= 0 {
		opts.MaxConcurrentExtract = 4
	}
	if opts.Stats == nil {
		opts.Stats = extract.NewLLMStats(time.Hour)
	}
	return &Runner{
		llm:     llm,
		store:   st,
		log:     log,
		opts:    opts,
		backoff: Backoff,
	}
}

// Stats returns the latency tracker fed by this runner.
func (r *Runner) Stats() *extract.LLMStats { return r.opts.Stats }

// Store returns the result store, which may be nil.
func (r *Runner) Store() store.Store { return r.store }

// Model names the model behind the runner's completer.
func (r *Runner) Model() string { return r.llm.Model() }

// Run processes one document synchronously. A decode failure is not an
// error: it comes back as an Output whose Result has StatusDecodeFailed.
func (r *Runner) Run(ctx context.Context, in Input) (*Output, error) {
	return r.run(ctx, in, noProgress{}, r.log)
}

type progress interface {
	SetStatus(status JobStatus, phase string)
	SetTotalChunks(n int)
	IncrChunksProcessed()
	AddError(err string)
}

type noProgress struct{}

func (noProgress) SetStatus(JobStatus, string) {}
func (noProgress) SetTotalChunks(int)          {}
func (noProgress) IncrChunksProcessed()        {}
func (noProgress) AddError(string)             {}

func (r *Runner) run(ctx context.Context, in Input, prog progress, log *slog.Logger) (*Output, error) {
	opts := in.Options
	if opts.Mode == "" {
		opts.Mode = ModeWhole
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	cfg := opts.Chunking()

	// Phase 1: Parse
	prog.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(in.Filename, r.opts.Parser)
	if err != nil {
		return nil, err
	}
	doc, err := p.Parse(bytes.NewReader(in.Data), in.Filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if in.Title != "" {
		doc.Title = in.Title
	}
	text := doc.Text()
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}

	hash := doc.ContentHash()
	key := store.Key(hash, cfg, string(opts.Mode), r.llm.Model())
	log = log.With("key", key)

	// Phase 1.5: Result cache
	if r.store != nil && !in.NoCache {
		entry, err := r.store.Get(ctx, key)
		switch {
		case err == nil:
			log.Info("result cache hit")
			r.opts.Metrics.CacheHit()
			return &Output{
				Key:         key,
				Title:       entry.Title,
				ContentHash: entry.ContentHash,
				Model:       entry.Model,
				Options:     opts,
				Pages:       len(doc.Pages),
				ChunkCount:  entry.ChunkCount,
				Result:      entry.Result,
				Cached:      true,
				CreatedAt:   entry.CreatedAt,
			}, nil
		case !errors.Is(err, store.ErrNotFound):
			log.Warn("result cache lookup failed, proceeding", "error", err)
		}
	}

	// Phase 2: Chunk
	prog.SetStatus(StatusChunking, "chunking")
	chunks, err := chunker.SplitChunks(text, cfg)
	if err != nil {
		return nil, err
	}
	prog.SetTotalChunks(len(chunks))
	r.opts.Metrics.Chunks(len(chunks))
	log.Info("chunked document", "pages", len(doc.Pages), "chars", len([]rune(text)), "chunks", len(chunks))

	// Phase 3: Extract
	prog.SetStatus(StatusExtracting, "extracting")
	var result extract.Result
	if opts.Mode == ModePerChunk {
		result, err = r.extractPerChunk(ctx, chunks, prog, log)
	} else {
		result, err = r.extractWhole(ctx, chunks, prog, log)
	}
	if err != nil {
		return nil, err
	}

	out := &Output{
		Key:         key,
		Title:       doc.Title,
		ContentHash: hash,
		Model:       r.llm.Model(),
		Options:     opts,
		Pages:       len(doc.Pages),
		Chunks:      chunks,
		ChunkCount:  len(chunks),
		Result:      result,
		CreatedAt:   time.Now().UTC(),
	}
	cacheable := result.OK()
	switch {
	case !result.OK():
		log.Warn("model reply could not be decoded", "error", result.Error)
	case result.Record.IsEmpty():
		// An empty record usually means the model missed the text; let the
		// next request try again.
		log.Warn("model returned an empty record")
		cacheable = false
	}

	if r.store != nil && cacheable {
		entry := &store.Entry{
			Key:         key,
			ContentHash: hash,
			Title:       out.Title,
			Model:       out.Model,
			Mode:        string(opts.Mode),
			Chunking:    cfg,
			ChunkCount:  out.ChunkCount,
			Result:      result,
			CreatedAt:   out.CreatedAt,
		}
		if err := r.store.Put(ctx, entry); err != nil {
			log.Warn("result cache write failed", "error", err)
		}
	}
	return out, nil
}

func (r *Runner) extractWhole(ctx context.Context, chunks []chunker.Chunk, prog progress, log *slog.Logger) (extract.Result, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	raw, took, err := r.complete(ctx, extract.BuildPrompt(texts, extract.ResumeFields), log)
	if err != nil {
		return extract.Result{}, err
	}
	for range chunks {
		prog.IncrChunksProcessed()
	}
	return r.decode(raw, took), nil
}

// extractPerChunk prompts once per chunk with bounded concurrency. Records
// that decode are merged; if none decode the first failure is returned.
func (r *Runner) extractPerChunk(ctx context.Context, chunks []chunker.Chunk, prog progress, log *slog.Logger) (extract.Result, error) {
	type chunkResult struct {
		res extract.Result
		err error
	}
	results := make([]chunkResult, len(chunks))
	sem := make(chan struct{}, r.opts.MaxConcurrentExtract)
	var wg sync.WaitGroup

	for i, chunk := range chunks {
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			prompt := extract.BuildPrompt([]string{chunk.Text}, extract.ResumeFields)
			raw, took, err := r.complete(ctx, prompt, log.With("chunk", i))
			if err != nil {
				results[i] = chunkResult{err: err}
				return
			}
			results[i] = chunkResult{res: r.decode(raw, took)}
			prog.IncrChunksProcessed()
		}()
	}
	wg.Wait()

	var (
		records  []extract.Record
		firstBad *extract.Result
	)
	for i, cr := range results {
		if cr.err != nil {
			return extract.Result{}, fmt.Errorf("chunk %d: %w", i, cr.err)
		}
		if cr.res.OK() {
			records = append(records, *cr.res.Record)
			continue
		}
		prog.AddError(fmt.Sprintf("chunk %d: %s", i, cr.res.Error))
		if firstBad == nil {
			firstBad = &cr.res
		}
	}
	if len(records) == 0 {
		return *firstBad, nil
	}
	if firstBad != nil {
		log.Warn("some chunk replies could not be decoded", "decoded", len(records), "chunks", len(chunks))
	}
	return extract.Decoded(extract.MergeRecords(records...)), nil
}

// complete calls the model with retries and records latency. took is the
// duration of the successful attempt.
func (r *Runner) complete(ctx context.Context, prompt string, log *slog.Logger) (string, time.Duration, error) {
	model := r.llm.Model()
	var took time.Duration
	raw, err := retry(ctx, log, r.backoff, func() (string, error) {
		start := time.Now()
		raw, err := r.llm.Complete(ctx, prompt)
		took = time.Since(start)
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		r.opts.Metrics.LLMCall(model, outcome, took)
		return raw, err
	})
	if err != nil {
		return "", 0, fmt.Errorf("complete with %s: %w", model, err)
	}
	log.Debug("llm call", "model", model, "duration_ms", took.Milliseconds(), "reply_chars", len(raw))
	return raw, took, nil
}

func (r *Runner) decode(raw string, took time.Duration) extract.Result {
	res := extract.Decode(raw)
	r.opts.Stats.Record(r.llm.Model(), took, res.OK())
	if !res.OK() {
		r.opts.Metrics.DecodeFailed(r.llm.Model())
	}
	return res
}
