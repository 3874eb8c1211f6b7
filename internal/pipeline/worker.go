package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dgallion1/cvparse/internal/chunker"
)

// Worker processes queued jobs through a shared Runner.
type Worker struct {
	runner *Runner
	log    *slog.Logger
}

func NewWorker(runner *Runner, log *slog.Logger) *Worker {
	return &Worker{runner: runner, log: log}
}

// Process runs the full pipeline for a job and leaves it in a terminal state.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	out, err := w.runner.run(ctx, Input{
		Filename: job.Filename,
		Title:    job.Title,
		Data:     job.FileData(),
		Options:  job.Options,
	}, job, log)
	if err != nil {
		phase := failedPhase(job, err)
		log.Error("job failed", "phase", phase, "error", err)
		job.fail(phase, err)
		w.runner.opts.Metrics.DocumentDone(string(StatusFailed))
		return
	}

	job.finish(out)
	w.runner.opts.Metrics.DocumentDone(string(out.Status()))
	log.Info("job finished", "status", out.Status(), "chunks", out.ChunkCount, "cached", out.Cached)
}

func failedPhase(job *Job, err error) string {
	var cfgErr *chunker.ConfigurationError
	if errors.As(err, &cfgErr) {
		return "validating"
	}
	return string(job.Snapshot().Status)
}
