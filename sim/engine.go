package sim

import (
	"log"
	"sync"
)

// contactsPerCarrier is the number of live contacts every infected
// individual makes in one step. R0 is configured out of this number.
const contactsPerCarrier = 100

// StepTeller can be used to get the index of the current step.
type StepTeller interface {
	CurrentStep() int
}

// A SimulationEndHandler is a handler that is called after the simulation
// ends.
type SimulationEndHandler interface {
	Handle(step int)
}

// An Engine is a unit that keeps an epidemic simulation run.
type Engine interface {
	Hookable
	StepTeller

	// Run advances the simulation until the configured number of steps is
	// reached.
	Run() error

	// Pause will pause the simulation until continue is called.
	Pause()

	// Continue will continue the paused simulation.
	Continue()

	// Snapshot returns the summary record of the most recently completed
	// step.
	Snapshot() StepRecord

	// Report returns the read-only diagnostic summary of the simulation.
	Report() SummaryReport

	// RegisterSimulationEndHandler registers a handler that performs some
	// actions after the simulation is finished.
	RegisterSimulationEndHandler(handler SimulationEndHandler)

	// Finished invokes all the registered SimulationEndHandler
	Finished()
}

// An Epidemic simulates disease spread through a closed, fully-mixed
// population in discrete time steps. It owns the population and is the only
// mutator of the Individuals in it.
type Epidemic struct {
	HookableBase

	disease          string
	r0               float64
	transmissionProb float64
	mortalityRate    float64
	pctVaccinated    float64
	totalSteps       int

	population []*Individual
	rng        Rand

	stateLock       sync.RWMutex
	currentStep     int
	currentInfected int
	totalInfected   int
	deadCount       int

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	singleRunLock sync.Mutex

	simulationEndHandlers []SimulationEndHandler
}

func (e *Epidemic) initPopulation(populationSize, numInitialInfected int) {
	e.population = make([]*Individual, 0, populationSize)

	for n := 0; n < populationSize; n++ {
		p := newIndividual()

		// Patients zero never roll for vaccination. Infection takes
		// precedence and their vaccination status stays false.
		if n < numInitialInfected {
			p.infected = true
			e.currentInfected++
			e.totalInfected++
		} else {
			p.vaccinate(e.pctVaccinated, e.rng)
		}

		e.population = append(e.population, p)
	}
}

// Run advances the simulation step by step until the configured number of
// steps has completed.
func (e *Epidemic) Run() error {
	e.singleRunLock.Lock()
	defer e.singleRunLock.Unlock()

	for e.CurrentStep() < e.totalSteps {
		e.pauseLock.Lock()
		e.stepForward()
		e.pauseLock.Unlock()
	}

	return nil
}

// stepForward runs one full step: the interaction phase for every
// individual that entered the step infected, then one resolution pass over
// the whole population.
func (e *Epidemic) stepForward() {
	hookCtx := HookCtx{
		Domain: e,
		Pos:    HookPosBeforeStep,
	}
	e.InvokeHook(hookCtx)

	carriers := e.livingInfected()
	for range carriers {
		e.sampleContacts()
	}

	e.stateLock.Lock()
	e.resolve()
	record := e.record()
	e.currentStep++
	e.stateLock.Unlock()

	e.mustBeConsistent(record)

	hookCtx.Pos = HookPosAfterStep
	hookCtx.Item = record
	e.InvokeHook(hookCtx)
}

// livingInfected fixes the set of individuals that drive this step's
// interactions. Individuals that become infected during resolution of the
// same step must not spread before the next step.
func (e *Epidemic) livingInfected() []*Individual {
	carriers := make([]*Individual, 0, e.currentInfected)
	for _, p := range e.population {
		if p.alive && p.infected {
			carriers = append(carriers, p)
		}
	}

	return carriers
}

// sampleContacts models the transmission attempts of one carrier for one
// step. Contacts are drawn uniformly from the full population, so
// self-contact and repeat contact are possible and intentionally not
// deduplicated. A dead draw is discarded without consuming a contact slot.
func (e *Epidemic) sampleContacts() {
	contacts := 0
	for contacts < contactsPerCarrier {
		target := e.population[e.rng.Intn(len(e.population))]
		if !target.alive {
			continue
		}
		contacts++

		if target.vaccinated || target.recovered {
			continue
		}

		// The transmission draw happens for every susceptible-looking
		// contact, but a contact that is already infected is left
		// untouched regardless of the outcome.
		if e.rng.Float64() >= 1-e.transmissionProb && !target.infected {
			target.pendingInfection = true
		}
	}
}

// resolve settles every living individual exactly once at the end of a
// step. Infections that entered the step resolve into recovery or death;
// infections staged during the step are promoted. Counters update only
// here, never during sampling.
func (e *Epidemic) resolve() {
	for _, p := range e.population {
		if !p.alive {
			continue
		}

		switch {
		case p.infected:
			if e.rng.Float64() >= 1-e.mortalityRate {
				p.alive = false
				p.infected = false
				e.deadCount++
				e.currentInfected--
			} else {
				p.infected = false
				p.recovered = true
				e.currentInfected--
			}
		case p.pendingInfection:
			p.infected = true
			p.pendingInfection = false
			e.currentInfected++
			e.totalInfected++
		}
	}
}

func (e *Epidemic) record() StepRecord {
	return StepRecord{
		TimeStep:           e.currentStep,
		CurrentlyInfected:  e.currentInfected,
		TotalInfectedSoFar: e.totalInfected,
		Alive:              len(e.population) - e.deadCount,
		Dead:               e.deadCount,
	}
}

// mustBeConsistent recounts the population and panics if the tracked
// counters have drifted. A divergence is a programming error, not a
// recoverable condition.
func (e *Epidemic) mustBeConsistent(record StepRecord) {
	infected, dead := 0, 0
	for _, p := range e.population {
		if p.infected {
			infected++
		}
		if !p.alive {
			dead++
		}
		if p.pendingInfection {
			log.Panicf(
				"pending infection not resolved after step %d",
				record.TimeStep)
		}
	}

	if infected != record.CurrentlyInfected {
		log.Panicf(
			"infected counter drift after step %d: tracked %d, counted %d",
			record.TimeStep, record.CurrentlyInfected, infected)
	}

	if dead != record.Dead {
		log.Panicf(
			"dead counter drift after step %d: tracked %d, counted %d",
			record.TimeStep, record.Dead, dead)
	}
}

// CurrentStep returns the number of steps that have fully completed.
func (e *Epidemic) CurrentStep() int {
	e.stateLock.RLock()
	defer e.stateLock.RUnlock()

	return e.currentStep
}

// TotalSteps returns the configured length of the run.
func (e *Epidemic) TotalSteps() int {
	return e.totalSteps
}

// Snapshot returns the summary record of the most recently completed step.
// Before the first step completes it describes the initial population.
func (e *Epidemic) Snapshot() StepRecord {
	e.stateLock.RLock()
	defer e.stateLock.RUnlock()

	record := e.record()
	record.TimeStep = e.currentStep - 1
	if e.currentStep == 0 {
		record.TimeStep = 0
	}

	return record
}

// Report returns the diagnostic summary of the simulation.
func (e *Epidemic) Report() SummaryReport {
	e.stateLock.RLock()
	defer e.stateLock.RUnlock()

	vaccinated, recovered := 0, 0
	for _, p := range e.population {
		if p.vaccinated {
			vaccinated++
		}
		if p.recovered {
			recovered++
		}
	}

	return SummaryReport{
		Disease:         e.disease,
		R0:              e.r0,
		MortalityPct:    e.mortalityRate * 100,
		PopulationSize:  len(e.population),
		Vaccinated:      vaccinated,
		TotalImmune:     vaccinated + recovered,
		CurrentInfected: e.currentInfected,
		Dead:            e.deadCount,
	}
}

// Population returns the individuals of the simulation. The returned slice
// must be treated as read-only; the engine stays the single writer.
func (e *Epidemic) Population() []*Individual {
	return e.population
}

// Pause prevents the Epidemic from running more steps.
func (e *Epidemic) Pause() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if e.isPaused {
		return
	}

	e.pauseLock.Lock()
	e.isPaused = true
}

// Continue allows the Epidemic to run more steps.
func (e *Epidemic) Continue() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if !e.isPaused {
		return
	}

	e.pauseLock.Unlock()
	e.isPaused = false
}

// RegisterSimulationEndHandler registers a handler that performs some
// actions after the simulation is finished.
func (e *Epidemic) RegisterSimulationEndHandler(
	handler SimulationEndHandler,
) {
	e.simulationEndHandlers = append(e.simulationEndHandlers, handler)
}

// Finished should be called after the simulation ends. This function calls
// all the registered SimulationEndHandler.
func (e *Epidemic) Finished() {
	step := e.CurrentStep()
	for _, h := range e.simulationEndHandlers {
		h.Handle(step)
	}
}
