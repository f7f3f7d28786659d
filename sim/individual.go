package sim

// An Individual is one member of the simulated population. It holds health
// and immunity state only. The Epidemic engine is the sole mutator of an
// Individual; other packages can read the state through the getters.
type Individual struct {
	alive            bool
	vaccinated       bool
	infected         bool
	recovered        bool
	pendingInfection bool
}

func newIndividual() *Individual {
	return &Individual{alive: true}
}

// Alive returns false once the individual has died of an infection. A dead
// individual never changes state again.
func (i *Individual) Alive() bool {
	return i.alive
}

// Vaccinated returns true if the individual won the vaccination roll at
// population creation. Vaccination is permanent.
func (i *Individual) Vaccinated() bool {
	return i.vaccinated
}

// Infected returns true while the individual is carrying the disease. An
// infection lasts one step before it resolves into recovery or death.
func (i *Individual) Infected() bool {
	return i.infected
}

// Recovered returns true once the individual has survived an infection.
// Recovery confers permanent immunity.
func (i *Individual) Recovered() bool {
	return i.recovered
}

// Immune returns true if the individual can no longer be infected, either
// through vaccination or through recovery.
func (i *Individual) Immune() bool {
	return i.vaccinated || i.recovered
}

// vaccinate rolls for vaccination. The individual is vaccinated iff the
// draw exceeds (1 - pctVaccinated).
func (i *Individual) vaccinate(pctVaccinated float64, rng Rand) {
	if rng.Float64() > 1-pctVaccinated {
		i.vaccinated = true
	}
}
