package sim

import "fmt"

// Builder can be used to build an Epidemic.
type Builder struct {
	disease            string
	populationSize     int
	r0                 float64
	mortalityRate      float64
	totalSteps         int
	pctVaccinated      float64
	numInitialInfected int
	rng                Rand
}

// MakeBuilder creates a new Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		disease:            "unnamed",
		populationSize:     1000,
		r0:                 2,
		mortalityRate:      0.05,
		totalSteps:         20,
		pctVaccinated:      0,
		numInitialInfected: 1,
	}
}

// WithDisease sets the label of the simulated disease. The label has no
// behavioral effect.
func (b Builder) WithDisease(name string) Builder {
	b.disease = name
	return b
}

// WithPopulationSize sets the number of individuals in the population.
func (b Builder) WithPopulationSize(size int) Builder {
	b.populationSize = size
	return b
}

// WithR0 sets the basic reproduction number, expressed out of 100 contacts.
// It is converted internally to a per-contact transmission probability.
func (b Builder) WithR0(r0 float64) Builder {
	b.r0 = r0
	return b
}

// WithMortalityRate sets the probability that an infection resolves into
// death rather than recovery.
func (b Builder) WithMortalityRate(rate float64) Builder {
	b.mortalityRate = rate
	return b
}

// WithTotalSteps sets the number of steps the simulation runs for.
func (b Builder) WithTotalSteps(steps int) Builder {
	b.totalSteps = steps
	return b
}

// WithVaccinatedFraction sets the probability that an individual is
// vaccinated at population creation.
func (b Builder) WithVaccinatedFraction(fraction float64) Builder {
	b.pctVaccinated = fraction
	return b
}

// WithInitialInfected sets the number of individuals that start the
// simulation infected.
func (b Builder) WithInitialInfected(count int) Builder {
	b.numInitialInfected = count
	return b
}

// WithRand sets the random source of the simulation. All draws of the run
// come from this source.
func (b Builder) WithRand(rng Rand) Builder {
	b.rng = rng
	return b
}

// WithSeed sets the random source to a math/rand generator with the given
// seed, making the run reproducible.
func (b Builder) WithSeed(seed int64) Builder {
	b.rng = NewRand(seed)
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.populationSize <= 0 {
		panic(fmt.Sprintf(
			"population size must be positive, got %d", b.populationSize))
	}

	if b.numInitialInfected < 0 || b.numInitialInfected > b.populationSize {
		panic(fmt.Sprintf(
			"initial infected count must be in [0, %d], got %d",
			b.populationSize, b.numInitialInfected))
	}

	if b.r0 < 0 || b.r0 > 100 {
		panic(fmt.Sprintf("R0 must be in [0, 100], got %g", b.r0))
	}

	if b.mortalityRate < 0 || b.mortalityRate > 1 {
		panic(fmt.Sprintf(
			"mortality rate must be in [0, 1], got %g", b.mortalityRate))
	}

	if b.pctVaccinated < 0 || b.pctVaccinated > 1 {
		panic(fmt.Sprintf(
			"vaccinated fraction must be in [0, 1], got %g",
			b.pctVaccinated))
	}

	if b.totalSteps < 0 {
		panic(fmt.Sprintf(
			"total steps must be non-negative, got %d", b.totalSteps))
	}
}

// Build builds the Epidemic and initializes its population.
func (b Builder) Build() *Epidemic {
	b.parametersMustBeValid()

	e := &Epidemic{
		disease:          b.disease,
		r0:               b.r0,
		transmissionProb: b.r0 / 100,
		mortalityRate:    b.mortalityRate,
		pctVaccinated:    b.pctVaccinated,
		totalSteps:       b.totalSteps,
		rng:              b.rng,
	}

	if e.rng == nil {
		e.rng = NewTimeSeededRand()
	}

	e.initPopulation(b.populationSize, b.numInitialInfected)

	return e
}
