package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"djangify/internal/logging"

	"go.uber.org/zap"
)

// StageError is returned when a stage aborts the run.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// FailedStage returns the stage carried by err, or StageNone.
func FailedStage(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return StageNone
}

// Step executes one stage against the state.
type Step interface {
	Stage() Stage
	Run(ctx context.Context, st *State) (StageOutput, error)
}

// Recorder persists audit documents. *logging.AuditTrail satisfies it.
type Recorder interface {
	RecordState(node string, state any) error
}

// auditNodes names the per-stage audit document.
var auditNodes = map[Stage]string{
	StagePlan:      "planner",
	StageDiscover:  "discovery_node",
	StageConvert:   "converter",
	StageBuild:     "builder",
	StageIntegrate: "integration_node",
}

// Controller runs steps in order. The first failing step aborts the run.
type Controller struct {
	steps    []Step
	recorder Recorder
	now      func() time.Time
}

// NewController creates a Controller. recorder may be nil.
func NewController(recorder Recorder, steps ...Step) *Controller {
	return &Controller{steps: steps, recorder: recorder, now: time.Now}
}

// Run executes every step once. On failure st.Stage stays on the failed
// stage and the error is a *StageError; on success st.Stage is StageDone.
func (c *Controller) Run(ctx context.Context, st *State) error {
	log := logging.Get(logging.CategoryPipeline)
	log.Info("conversion started",
		zap.String("run_id", st.RunID),
		zap.String("input", st.InputDir),
		zap.String("output", st.OutputDir))

	for _, step := range c.steps {
		stage := step.Stage()
		st.Stage = stage

		if err := ctx.Err(); err != nil {
			return &StageError{Stage: stage, Err: err}
		}

		started := c.now()
		log.Info("stage started", zap.String("stage", string(stage)))
		out, err := step.Run(ctx, st)
		if err != nil {
			log.Error("stage failed", zap.String("stage", string(stage)), zap.Error(err))
			return &StageError{Stage: stage, Err: err}
		}
		if out == nil || out.Stage() != stage {
			return &StageError{Stage: stage, Err: fmt.Errorf("unexpected stage output %q", outputStage(out))}
		}
		if err := st.apply(out); err != nil {
			return &StageError{Stage: stage, Err: err}
		}

		finished := c.now()
		st.History = append(st.History, StageRecord{Stage: stage, Started: started, Finished: finished})
		c.record(stage, out)
		log.Info("stage finished",
			zap.String("stage", string(stage)),
			zap.Duration("elapsed", finished.Sub(started)))
	}

	st.Stage = StageDone
	log.Info("conversion finished", zap.String("run_id", st.RunID), zap.Int("stages", len(st.History)))
	return nil
}

func (c *Controller) record(stage Stage, out StageOutput) {
	if c.recorder == nil {
		return
	}
	node, ok := auditNodes[stage]
	if !ok {
		node = string(stage)
	}
	if err := c.recorder.RecordState(node, out); err != nil {
		logging.Get(logging.CategoryPipeline).Warn("failed to write audit record", zap.String("node", node), zap.Error(err))
	}
}

func outputStage(out StageOutput) Stage {
	if out == nil {
		return StageNone
	}
	return out.Stage()
}
