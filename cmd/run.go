package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/epidlab/herdsim/sim"
	"github.com/epidlab/herdsim/simulation"
)

var runFlags = struct {
	disease         string
	population      int
	r0              float64
	mortality       float64
	steps           int
	vaccinated      float64
	initialInfected int
	seed            int64
	output          string
	monitorPort     int
	noMonitor       bool
	openBrowser     bool
}{}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one epidemic simulation",
	Run: func(cmd *cobra.Command, _ []string) {
		applyEnvDefaults(cmd)
		runSimulation()
	},
}

// flagEnvKeys maps flags to the HERDSIM_* variables that can provide their
// defaults, either from the environment or from a .env file.
var flagEnvKeys = map[string]string{
	"disease":          "HERDSIM_DISEASE",
	"population":       "HERDSIM_POPULATION",
	"r0":               "HERDSIM_R0",
	"mortality":        "HERDSIM_MORTALITY",
	"steps":            "HERDSIM_STEPS",
	"vaccinated":       "HERDSIM_VACCINATED",
	"initial-infected": "HERDSIM_INITIAL_INFECTED",
	"seed":             "HERDSIM_SEED",
	"output":           "HERDSIM_OUTPUT",
	"monitor-port":     "HERDSIM_MONITOR_PORT",
}

func applyEnvDefaults(cmd *cobra.Command) {
	for flag, envKey := range flagEnvKeys {
		if cmd.Flags().Changed(flag) {
			continue
		}

		value, found := os.LookupEnv(envKey)
		if !found {
			continue
		}

		err := cmd.Flags().Set(flag, value)
		if err != nil {
			fmt.Fprintf(os.Stderr,
				"Invalid value for %s: %s\n", envKey, err)
			os.Exit(1)
		}
	}
}

func runSimulation() {
	engineBuilder := sim.MakeBuilder().
		WithDisease(runFlags.disease).
		WithPopulationSize(runFlags.population).
		WithR0(runFlags.r0).
		WithMortalityRate(runFlags.mortality).
		WithTotalSteps(runFlags.steps).
		WithVaccinatedFraction(runFlags.vaccinated).
		WithInitialInfected(runFlags.initialInfected)

	if runFlags.seed != 0 {
		engineBuilder = engineBuilder.WithSeed(runFlags.seed)
	}

	builder := simulation.MakeBuilder().
		WithEngineBuilder(engineBuilder)

	if runFlags.noMonitor {
		builder = builder.WithoutMonitoring()
	} else if runFlags.monitorPort > 0 {
		builder = builder.WithMonitorPort(runFlags.monitorPort)
	}

	if runFlags.output != "" {
		builder = builder.WithOutputFileName(runFlags.output)
	}

	s := builder.Build()
	engine := s.GetEngine()

	fmt.Print(engine.Report())

	if runFlags.openBrowser && s.GetMonitor() != nil {
		s.GetMonitor().OpenBrowser()
	}

	err := s.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Simulation failed: %s\n", err)
		atexit.Exit(1)
	}

	s.Terminate()

	fmt.Println()
	fmt.Print(engine.Report())

	atexit.Exit(0)
}

func init() {
	f := runCmd.Flags()

	f.StringVar(&runFlags.disease, "disease", "unnamed",
		"label of the simulated disease, no behavioral effect")
	f.IntVar(&runFlags.population, "population", 1000,
		"number of individuals in the population")
	f.Float64Var(&runFlags.r0, "r0", 2,
		"basic reproduction number, out of 100 contacts")
	f.Float64Var(&runFlags.mortality, "mortality", 0.05,
		"probability that an infection is fatal, in [0, 1]")
	f.IntVar(&runFlags.steps, "steps", 20,
		"number of time steps to simulate")
	f.Float64Var(&runFlags.vaccinated, "vaccinated", 0,
		"fraction of the population vaccinated at start, in [0, 1]")
	f.IntVar(&runFlags.initialInfected, "initial-infected", 1,
		"number of individuals infected at start")
	f.Int64Var(&runFlags.seed, "seed", 0,
		"random seed, 0 seeds from the current time")
	f.StringVar(&runFlags.output, "output", "",
		"output file name without extension")
	f.IntVar(&runFlags.monitorPort, "monitor-port", 0,
		"port of the monitoring server, 0 picks a random port")
	f.BoolVar(&runFlags.noMonitor, "no-monitor", false,
		"disable the monitoring server")
	f.BoolVar(&runFlags.openBrowser, "open", false,
		"open the monitor page in the default browser")

	rootCmd.AddCommand(runCmd)
}
