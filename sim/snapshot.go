package sim

import "fmt"

// A StepRecord is the summary snapshot of the population at the end of one
// simulation step. One record per step is appended to the run log.
type StepRecord struct {
	TimeStep           int `json:"time_step"`
	CurrentlyInfected  int `json:"currently_infected"`
	TotalInfectedSoFar int `json:"total_infected_so_far"`
	Alive              int `json:"alive"`
	Dead               int `json:"dead"`
}

// A SummaryReport is a read-only diagnostic view of a simulation. It is
// never consumed by the engine logic.
type SummaryReport struct {
	Disease         string  `json:"disease"`
	R0              float64 `json:"r0"`
	MortalityPct    float64 `json:"mortality_pct"`
	PopulationSize  int     `json:"population_size"`
	Vaccinated      int     `json:"vaccinated"`
	TotalImmune     int     `json:"total_immune"`
	CurrentInfected int     `json:"current_infected"`
	Dead            int     `json:"dead"`
}

func (r SummaryReport) String() string {
	return fmt.Sprintf(
		"Disease: %s\n"+
			"R0: %g per 100 contacts\n"+
			"Mortality rate: %g%%\n"+
			"Population size: %d\n"+
			"Vaccinated: %d\n"+
			"Total immune: %d\n"+
			"Currently infected: %d\n"+
			"Dead: %d\n",
		r.Disease, r.R0, r.MortalityPct, r.PopulationSize,
		r.Vaccinated, r.TotalImmune, r.CurrentInfected, r.Dead)
}
