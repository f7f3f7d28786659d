package datarecording

import (
	"github.com/epidlab/herdsim/sim"
)

// StepTableName is the table that holds one row per completed simulation
// step.
const StepTableName = "step_log"

// A StepLogger is a hook that appends the snapshot of every completed step
// to a DataRecorder. Attach it to an engine with AcceptHook.
type StepLogger struct {
	recorder DataRecorder
}

// NewStepLogger creates a StepLogger that writes into the given recorder.
func NewStepLogger(recorder DataRecorder) *StepLogger {
	recorder.CreateTable(StepTableName, sim.StepRecord{})

	return &StepLogger{recorder: recorder}
}

// Func records the step snapshot when the engine completes a step.
func (l *StepLogger) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosAfterStep {
		return
	}

	record := ctx.Item.(sim.StepRecord)
	l.recorder.InsertData(StepTableName, record)
}
