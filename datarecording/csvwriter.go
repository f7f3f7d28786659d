package datarecording

import (
	"fmt"
	"os"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/epidlab/herdsim/sim"
)

// CSVStepWriter stores step snapshots in a CSV file, one row per step in
// step order, with a header row naming the five snapshot fields.
type CSVStepWriter struct {
	path string
	file *os.File

	records    []sim.StepRecord
	bufferSize int
}

// NewCSVStepWriter creates a new CSVStepWriter.
func NewCSVStepWriter(path string) *CSVStepWriter {
	return &CSVStepWriter{
		path:       path,
		bufferSize: 1000,
	}
}

// Init creates the csv file and writes the header row. It refuses to
// overwrite an existing file.
func (w *CSVStepWriter) Init() {
	if w.path == "" {
		w.path = "herdsim_run_" + xid.New().String()
	}

	filename := w.path + ".csv"
	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	file, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	w.file = file

	fmt.Fprintf(file,
		"TimeStep, CurrentlyInfected, TotalInfectedSoFar, Alive, Dead\n")

	atexit.Register(func() {
		w.Flush()
		err := w.file.Close()
		if err != nil {
			panic(err)
		}
	})
}

// Write appends a step snapshot to the CSV file.
func (w *CSVStepWriter) Write(record sim.StepRecord) {
	w.records = append(w.records, record)
	if len(w.records) >= w.bufferSize {
		w.Flush()
	}
}

// Func lets a CSVStepWriter be attached to an engine as a hook.
func (w *CSVStepWriter) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosAfterStep {
		return
	}

	w.Write(ctx.Item.(sim.StepRecord))
}

// Flush writes the buffered snapshots to the CSV file.
func (w *CSVStepWriter) Flush() {
	for _, r := range w.records {
		fmt.Fprintf(w.file, "%d, %d, %d, %d, %d\n",
			r.TimeStep,
			r.CurrentlyInfected,
			r.TotalInfectedSoFar,
			r.Alive,
			r.Dead,
		)
	}

	w.records = nil
}
