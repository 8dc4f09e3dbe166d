package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"rag-modulo/internal/usecase/pipeline"
)

// stubStage is a minimal stage for executor tests.
type stubStage struct {
	name     string
	result   func(sc *pipeline.SearchContext) pipeline.StageResult
	executed bool
}

func (s *stubStage) Name() string { return s.name }

func (s *stubStage) Execute(_ context.Context, sc *pipeline.SearchContext) pipeline.StageResult {
	s.executed = true
	return s.result(sc)
}

func TestExecutor_RunsStagesInOrder(t *testing.T) {
	var order []string
	mkStage := func(name string) *stubStage {
		return &stubStage{
			name: name,
			result: func(sc *pipeline.SearchContext) pipeline.StageResult {
				order = append(order, name)
				return pipeline.Succeed(sc)
			},
		}
	}

	executor := pipeline.NewExecutor(testLogger())
	sc := pipeline.NewSearchContext("q", "u", "c", nil)

	stages := []pipeline.Stage{mkStage("first"), mkStage("second"), mkStage("third")}
	sc = executor.Execute(context.Background(), stages, sc)

	assert.Equal(t, []string{"first", "second", "third"}, order)
	assert.NoError(t, sc.FatalErr)
	for _, name := range order {
		meta, ok := sc.StageMetadata[name]
		assert.True(t, ok)
		assert.Equal(t, pipeline.StageCompleted, meta.Status)
	}
}

func TestExecutor_HaltsOnFatalFailure(t *testing.T) {
	fatalErr := errors.New("store unreachable")

	first := &stubStage{
		name:   "first",
		result: func(sc *pipeline.SearchContext) pipeline.StageResult { return pipeline.Succeed(sc) },
	}
	failing := &stubStage{
		name:   "failing",
		result: func(sc *pipeline.SearchContext) pipeline.StageResult { return pipeline.Fail(sc, fatalErr) },
	}
	never := &stubStage{
		name:   "never",
		result: func(sc *pipeline.SearchContext) pipeline.StageResult { return pipeline.Succeed(sc) },
	}

	executor := pipeline.NewExecutor(testLogger())
	sc := pipeline.NewSearchContext("q", "u", "c", nil)
	sc = executor.Execute(context.Background(), []pipeline.Stage{first, failing, never}, sc)

	assert.True(t, first.executed)
	assert.True(t, failing.executed)
	assert.False(t, never.executed, "stages after a fatal failure must not run")

	assert.ErrorIs(t, sc.FatalErr, fatalErr)
	assert.Equal(t, pipeline.StageFailed, sc.StageMetadata["failing"].Status)
	assert.Equal(t, "store unreachable", sc.StageMetadata["failing"].Error)
	_, ran := sc.StageMetadata["never"]
	assert.False(t, ran)
}

func TestExecutor_StatusOverrideFromMetadata(t *testing.T) {
	skipping := &stubStage{
		name: "skipping",
		result: func(sc *pipeline.SearchContext) pipeline.StageResult {
			return pipeline.SucceedWith(sc, map[string]string{"status": pipeline.StageSkipped, "skip_reason": "nothing to do"})
		},
	}

	executor := pipeline.NewExecutor(testLogger())
	sc := pipeline.NewSearchContext("q", "u", "c", nil)
	sc = executor.Execute(context.Background(), []pipeline.Stage{skipping}, sc)

	meta := sc.StageMetadata["skipping"]
	assert.Equal(t, pipeline.StageSkipped, meta.Status)
	assert.Equal(t, "nothing to do", meta.Extra["skip_reason"])
	assert.NoError(t, sc.FatalErr)
}

func TestExecutor_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stage := &stubStage{
		name:   "unreached",
		result: func(sc *pipeline.SearchContext) pipeline.StageResult { return pipeline.Succeed(sc) },
	}

	executor := pipeline.NewExecutor(testLogger())
	sc := pipeline.NewSearchContext("q", "u", "c", nil)
	sc = executor.Execute(ctx, []pipeline.Stage{stage}, sc)

	assert.False(t, stage.executed)
	assert.Equal(t, pipeline.StageFailed, sc.StageMetadata["unreached"].Status)
	assert.NotEmpty(t, sc.Errors)
}
