// Package simulation composes an epidemic engine with the recording and
// monitoring collaborators that surround a run.
package simulation

import (
	"github.com/epidlab/herdsim/datarecording"
	"github.com/epidlab/herdsim/monitoring"
	"github.com/epidlab/herdsim/sim"
)

// A Simulation provides the services required to run an epidemic.
type Simulation struct {
	id string

	engine       *sim.Epidemic
	dataRecorder datarecording.DataRecorder
	csvWriter    *datarecording.CSVStepWriter
	monitor      *monitoring.Monitor
	progressBar  *monitoring.ProgressBar
}

// ID returns the unique identifier of the run.
func (s *Simulation) ID() string {
	return s.id
}

// GetEngine returns the engine used in the simulation.
func (s *Simulation) GetEngine() *sim.Epidemic {
	return s.engine
}

// GetDataRecorder returns the data recorder used in the simulation.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetMonitor returns the monitor used in the simulation. It is nil if
// monitoring is disabled.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// Run drives the engine through the full configured run and invokes the
// simulation end handlers.
func (s *Simulation) Run() error {
	err := s.engine.Run()
	if err != nil {
		return err
	}

	s.engine.Finished()

	return nil
}

// Terminate persists everything the run produced.
func (s *Simulation) Terminate() {
	s.dataRecorder.Flush()
	s.csvWriter.Flush()

	if s.monitor != nil && s.progressBar != nil {
		s.monitor.CompleteProgressBar(s.progressBar)
	}
}

// progressHook moves the monitor progress bar forward as steps complete.
type progressHook struct {
	bar *monitoring.ProgressBar
}

func (h progressHook) Func(ctx sim.HookCtx) {
	if ctx.Pos == sim.HookPosAfterStep {
		h.bar.IncrementFinished(1)
	}
}
