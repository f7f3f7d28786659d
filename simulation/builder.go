package simulation

import (
	"github.com/rs/xid"

	"github.com/epidlab/herdsim/datarecording"
	"github.com/epidlab/herdsim/monitoring"
	"github.com/epidlab/herdsim/sim"
)

// Builder can be used to build a simulation.
type Builder struct {
	engineBuilder  sim.Builder
	monitorOn      bool
	monitorPort    int
	outputFileName string
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		engineBuilder: sim.MakeBuilder(),
		monitorOn:     true,
	}
}

// WithEngineBuilder sets the configured epidemic engine builder to use.
func (b Builder) WithEngineBuilder(eb sim.Builder) Builder {
	b.engineBuilder = eb
	return b
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithOutputFileName sets the custom output file name for the step log.
// Both the SQLite database and the CSV file use this name.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{}
	s.id = xid.New().String()

	outputPath := b.outputFileName
	if outputPath == "" {
		outputPath = "herdsim_run_" + s.id
	}

	s.dataRecorder = datarecording.New(outputPath)
	s.csvWriter = datarecording.NewCSVStepWriter(outputPath)
	s.csvWriter.Init()

	s.engine = b.engineBuilder.Build()
	s.engine.AcceptHook(datarecording.NewStepLogger(s.dataRecorder))
	s.engine.AcceptHook(s.csvWriter)

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}
		s.monitor.RegisterEngine(s.engine)
		s.monitor.StartServer()

		s.progressBar = s.monitor.CreateProgressBar(
			"Simulation steps", uint64(s.engine.TotalSteps()))
		s.engine.AcceptHook(progressHook{bar: s.progressBar})
	}

	return s
}
