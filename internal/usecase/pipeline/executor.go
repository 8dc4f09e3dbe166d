package pipeline

import (
	"context"
	"log/slog"
	"time"
)

// Executor runs an ordered list of stages over one SearchContext.
//
// Stages run strictly sequentially: each stage's output context is the next
// stage's input. On the first fatal stage failure the executor stops and
// returns the context as-is with the error recorded; detecting the missing
// answer and shaping the error response is the caller's job. There are no
// retries at this level.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor creates a pipeline executor.
func NewExecutor(logger *slog.Logger) *Executor {
	return &Executor{logger: logger}
}

// Execute runs the stages in order and returns the final context.
func (e *Executor) Execute(ctx context.Context, stages []Stage, sc *SearchContext) *SearchContext {
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			sc.StageMetadata[stage.Name()] = StageMetadata{
				Status: StageFailed,
				Error:  err.Error(),
			}
			sc.AddWarning("request cancelled before stage " + stage.Name())
			return sc
		}

		start := time.Now()
		result := stage.Execute(ctx, sc)
		elapsed := time.Since(start)

		if result.Context != nil {
			sc = result.Context
		}

		meta := StageMetadata{
			Status:    StageCompleted,
			ElapsedMs: elapsed.Milliseconds(),
			Extra:     result.Metadata,
		}
		if s, ok := result.Metadata["status"]; ok {
			meta.Status = s
		}
		if result.Err != nil {
			meta.Error = result.Err.Error()
		}
		if !result.Success {
			meta.Status = StageFailed
		}
		sc.StageMetadata[stage.Name()] = meta

		if !result.Success {
			sc.FatalErr = result.Err
			e.logger.Error("pipeline_stage_failed",
				slog.String("stage", stage.Name()),
				slog.String("error", meta.Error),
				slog.Int64("duration_ms", elapsed.Milliseconds()))
			return sc
		}

		e.logger.Info("pipeline_stage_completed",
			slog.String("stage", stage.Name()),
			slog.String("status", meta.Status),
			slog.Int64("duration_ms", elapsed.Milliseconds()))
	}
	return sc
}
