package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"
)

// recordCollector keeps the snapshot of every completed step.
type recordCollector struct {
	records []StepRecord
}

func (c *recordCollector) Func(ctx HookCtx) {
	if ctx.Pos == HookPosAfterStep {
		c.records = append(c.records, ctx.Item.(StepRecord))
	}
}

var _ = Describe("Epidemic", func() {
	var mockCtrl *gomock.Controller

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	Context("interaction sampling", func() {
		It("should resample dead contacts without consuming a contact slot",
			func() {
				rng := &scriptedRand{
					ints:   []int{1, 2},
					floats: []float64{0.5},
				}
				e := &Epidemic{transmissionProb: 1, rng: rng}

				carrier := &Individual{alive: true, infected: true}
				dead := &Individual{alive: false}
				susceptible := &Individual{alive: true}
				e.population = []*Individual{carrier, dead, susceptible}

				e.sampleContacts()

				Expect(rng.intCalls).To(Equal(200))
				Expect(rng.floatCalls).To(Equal(100))
				Expect(susceptible.pendingInfection).To(BeTrue())
				Expect(dead.pendingInfection).To(BeFalse())
				Expect(carrier.pendingInfection).To(BeFalse())
			})

		It("should never mutate immune contacts and never roll for them",
			func() {
				rng := &scriptedRand{
					ints:   []int{1, 2},
					floats: []float64{0.9999},
				}
				e := &Epidemic{transmissionProb: 1, rng: rng}

				carrier := &Individual{alive: true, infected: true}
				vaccinated := &Individual{alive: true, vaccinated: true}
				recovered := &Individual{alive: true, recovered: true}
				e.population = []*Individual{carrier, vaccinated, recovered}

				e.sampleContacts()

				Expect(rng.floatCalls).To(Equal(0))
				Expect(vaccinated.pendingInfection).To(BeFalse())
				Expect(recovered.pendingInfection).To(BeFalse())
			})

		It("should roll for infected contacts but leave them untouched",
			func() {
				rng := &scriptedRand{
					ints:   []int{1},
					floats: []float64{0.9999},
				}
				e := &Epidemic{transmissionProb: 1, rng: rng}

				carrier := &Individual{alive: true, infected: true}
				other := &Individual{alive: true, infected: true}
				e.population = []*Individual{carrier, other}

				e.sampleContacts()

				Expect(rng.floatCalls).To(Equal(100))
				Expect(other.pendingInfection).To(BeFalse())
				Expect(other.infected).To(BeTrue())
			})

		It("should allow self-contact", func() {
			rng := &scriptedRand{
				ints:   []int{0},
				floats: []float64{0.9999},
			}
			e := &Epidemic{transmissionProb: 1, rng: rng}

			carrier := &Individual{alive: true, infected: true}
			e.population = []*Individual{carrier}

			e.sampleContacts()

			Expect(carrier.pendingInfection).To(BeFalse())
			Expect(carrier.infected).To(BeTrue())
		})

		It("should not touch engine counters during sampling", func() {
			rng := &scriptedRand{
				ints:   []int{1},
				floats: []float64{0.9999},
			}
			e := &Epidemic{transmissionProb: 1, rng: rng}

			carrier := &Individual{alive: true, infected: true}
			susceptible := &Individual{alive: true}
			e.population = []*Individual{carrier, susceptible}

			e.sampleContacts()

			Expect(susceptible.pendingInfection).To(BeTrue())
			Expect(e.currentInfected).To(Equal(0))
			Expect(e.totalInfected).To(Equal(0))
			Expect(e.deadCount).To(Equal(0))
		})
	})

	Context("state resolution", func() {
		It("should recover an infected individual when the draw spares it",
			func() {
				rng := &scriptedRand{floats: []float64{0.5}}
				e := &Epidemic{mortalityRate: 0.6, rng: rng}

				p := &Individual{alive: true, infected: true}
				e.population = []*Individual{p}
				e.currentInfected = 1
				e.totalInfected = 1

				e.resolve()

				Expect(p.alive).To(BeTrue())
				Expect(p.infected).To(BeFalse())
				Expect(p.recovered).To(BeTrue())
				Expect(e.currentInfected).To(Equal(0))
				Expect(e.deadCount).To(Equal(0))
			})

		It("should kill an infected individual when the draw condemns it",
			func() {
				rng := &scriptedRand{floats: []float64{0.7}}
				e := &Epidemic{mortalityRate: 0.6, rng: rng}

				p := &Individual{alive: true, infected: true}
				e.population = []*Individual{p}
				e.currentInfected = 1
				e.totalInfected = 1

				e.resolve()

				Expect(p.alive).To(BeFalse())
				Expect(p.infected).To(BeFalse())
				Expect(p.recovered).To(BeFalse())
				Expect(e.currentInfected).To(Equal(0))
				Expect(e.deadCount).To(Equal(1))
			})

		It("should promote a pending infection without a draw", func() {
			rng := &scriptedRand{floats: []float64{0.9999}}
			e := &Epidemic{mortalityRate: 1, rng: rng}

			p := &Individual{alive: true, pendingInfection: true}
			e.population = []*Individual{p}

			e.resolve()

			Expect(rng.floatCalls).To(Equal(0))
			Expect(p.infected).To(BeTrue())
			Expect(p.pendingInfection).To(BeFalse())
			Expect(e.currentInfected).To(Equal(1))
			Expect(e.totalInfected).To(Equal(1))
		})

		It("should skip dead individuals entirely", func() {
			rng := &scriptedRand{floats: []float64{0.5}}
			e := &Epidemic{mortalityRate: 1, rng: rng}

			p := &Individual{alive: false}
			e.population = []*Individual{p}

			e.resolve()

			Expect(rng.floatCalls).To(Equal(0))
			Expect(p.alive).To(BeFalse())
			Expect(p.infected).To(BeFalse())
		})
	})

	Context("step orchestration", func() {
		It("should invoke hooks before and after each step", func() {
			e := MakeBuilder().
				WithPopulationSize(10).
				WithInitialInfected(0).
				WithR0(0).
				WithTotalSteps(2).
				WithSeed(1).
				Build()

			positions := []*HookPos{}
			hook := NewMockHook(mockCtrl)
			hook.EXPECT().
				Func(gomock.Any()).
				Do(func(ctx HookCtx) {
					positions = append(positions, ctx.Pos)
				}).
				Times(4)
			e.AcceptHook(hook)

			Expect(e.Run()).To(Succeed())
			Expect(positions).To(Equal([]*HookPos{
				HookPosBeforeStep, HookPosAfterStep,
				HookPosBeforeStep, HookPosAfterStep,
			}))
		})

		It("should call simulation end handlers with the final step", func() {
			e := MakeBuilder().
				WithPopulationSize(10).
				WithInitialInfected(0).
				WithR0(0).
				WithTotalSteps(3).
				WithSeed(1).
				Build()

			handler := NewMockSimulationEndHandler(mockCtrl)
			handler.EXPECT().Handle(3)
			e.RegisterSimulationEndHandler(handler)

			Expect(e.Run()).To(Succeed())
			e.Finished()

			Expect(e.CurrentStep()).To(Equal(3))
		})

		It("should emit records with consecutive step indices", func() {
			e := MakeBuilder().
				WithPopulationSize(50).
				WithInitialInfected(2).
				WithTotalSteps(5).
				WithSeed(7).
				Build()

			collector := &recordCollector{}
			e.AcceptHook(collector)

			Expect(e.Run()).To(Succeed())

			Expect(collector.records).To(HaveLen(5))
			for n, record := range collector.records {
				Expect(record.TimeStep).To(Equal(n))
			}
		})

		It("should panic when the tracked counters drift", func() {
			e := MakeBuilder().
				WithPopulationSize(10).
				WithInitialInfected(1).
				WithR0(0).
				WithMortalityRate(0).
				WithTotalSteps(1).
				WithSeed(1).
				Build()

			e.currentInfected = 3

			Expect(func() { _ = e.Run() }).To(Panic())
		})
	})

	Context("full runs", func() {
		It("should reproduce a run exactly from the same seed", func() {
			run := func() []StepRecord {
				e := MakeBuilder().
					WithPopulationSize(300).
					WithInitialInfected(10).
					WithR0(4).
					WithMortalityRate(0.2).
					WithVaccinatedFraction(0.3).
					WithTotalSteps(15).
					WithSeed(99).
					Build()

				collector := &recordCollector{}
				e.AcceptHook(collector)
				Expect(e.Run()).To(Succeed())

				return collector.records
			}

			Expect(run()).To(Equal(run()))
		})

		It("should keep counters consistent with the population every step",
			func() {
				e := MakeBuilder().
					WithPopulationSize(500).
					WithInitialInfected(20).
					WithR0(3).
					WithMortalityRate(0.3).
					WithVaccinatedFraction(0.4).
					WithTotalSteps(20).
					WithSeed(5).
					Build()

				check := &consistencyCheckHook{e: e}
				e.AcceptHook(check)

				Expect(e.Run()).To(Succeed())
				Expect(check.checked).To(BeNumerically(">", 0))
			})

		It("should keep everyone alive with a zero mortality rate", func() {
			e := MakeBuilder().
				WithPopulationSize(200).
				WithInitialInfected(10).
				WithR0(5).
				WithMortalityRate(0).
				WithVaccinatedFraction(0.2).
				WithTotalSteps(30).
				WithSeed(42).
				Build()

			collector := &recordCollector{}
			e.AcceptHook(collector)

			Expect(e.Run()).To(Succeed())

			for _, record := range collector.records {
				Expect(record.Dead).To(Equal(0))
				Expect(record.Alive).To(Equal(200))
			}

			// The outbreak burns out within the run, so every individual
			// that was ever infected has recovered.
			final := collector.records[len(collector.records)-1]
			Expect(final.CurrentlyInfected).To(Equal(0))

			recovered := 0
			for _, p := range e.Population() {
				if p.Recovered() {
					recovered++
				}
			}
			Expect(recovered).To(Equal(final.TotalInfectedSoFar))
		})

		It("should never infect anyone in a fully vaccinated population",
			func() {
				e := MakeBuilder().
					WithPopulationSize(100).
					WithInitialInfected(0).
					WithVaccinatedFraction(1).
					WithR0(10).
					WithTotalSteps(10).
					WithSeed(3).
					Build()

				collector := &recordCollector{}
				e.AcceptHook(collector)

				Expect(e.Run()).To(Succeed())

				for _, record := range collector.records {
					Expect(record.TotalInfectedSoFar).To(Equal(0))
					Expect(record.CurrentlyInfected).To(Equal(0))
				}
			})

		It("should resolve all initial infections in one step with R0 zero",
			func() {
				e := MakeBuilder().
					WithPopulationSize(100).
					WithInitialInfected(5).
					WithR0(0).
					WithMortalityRate(0.3).
					WithTotalSteps(10).
					WithSeed(11).
					Build()

				collector := &recordCollector{}
				e.AcceptHook(collector)

				Expect(e.Run()).To(Succeed())

				first := collector.records[0]
				Expect(first.CurrentlyInfected).To(Equal(0))

				for _, record := range collector.records {
					Expect(record.TotalInfectedSoFar).To(Equal(5))
				}
			})

		It("should kill the only patient in one step with full mortality",
			func() {
				e := MakeBuilder().
					WithPopulationSize(10).
					WithInitialInfected(1).
					WithR0(0).
					WithMortalityRate(1).
					WithTotalSteps(1).
					WithSeed(2).
					Build()

				Expect(e.Run()).To(Succeed())

				record := e.Snapshot()
				Expect(record.Dead).To(Equal(1))
				Expect(record.CurrentlyInfected).To(Equal(0))
				Expect(record.Alive).To(Equal(9))

				for _, p := range e.Population()[1:] {
					Expect(p.Alive()).To(BeTrue())
					Expect(p.Recovered()).To(BeFalse())
				}
			})

		It("should burn the outbreak out in a mostly vaccinated population",
			func() {
				e := MakeBuilder().
					WithPopulationSize(1000).
					WithInitialInfected(50).
					WithVaccinatedFraction(0.85).
					WithR0(2).
					WithMortalityRate(0.5).
					WithTotalSteps(20).
					WithSeed(13).
					Build()

				collector := &recordCollector{}
				e.AcceptHook(collector)

				Expect(e.Run()).To(Succeed())

				burnoutStep := -1
				for n, record := range collector.records {
					if record.CurrentlyInfected == 0 {
						burnoutStep = n
						break
					}
				}
				Expect(burnoutStep).To(BeNumerically(">=", 0))

				settled := collector.records[burnoutStep]
				for _, record := range collector.records[burnoutStep:] {
					Expect(record.CurrentlyInfected).To(Equal(0))
					Expect(record.TotalInfectedSoFar).
						To(Equal(settled.TotalInfectedSoFar))
					Expect(record.Dead).To(Equal(settled.Dead))
				}
			})

		It("should keep cumulative counters monotonic", func() {
			e := MakeBuilder().
				WithPopulationSize(400).
				WithInitialInfected(15).
				WithR0(3).
				WithMortalityRate(0.4).
				WithVaccinatedFraction(0.1).
				WithTotalSteps(25).
				WithSeed(21).
				Build()

			collector := &recordCollector{}
			e.AcceptHook(collector)

			Expect(e.Run()).To(Succeed())

			previous := StepRecord{TotalInfectedSoFar: 15}
			for _, record := range collector.records {
				Expect(record.TotalInfectedSoFar).
					To(BeNumerically(">=", previous.TotalInfectedSoFar))
				Expect(record.Dead).
					To(BeNumerically(">=", previous.Dead))
				previous = record
			}
		})
	})
})

// consistencyCheckHook recounts the population after every step and
// compares the counts with the emitted record.
type consistencyCheckHook struct {
	e       *Epidemic
	checked int
}

func (h *consistencyCheckHook) Func(ctx HookCtx) {
	if ctx.Pos != HookPosAfterStep {
		return
	}

	record := ctx.Item.(StepRecord)

	infected, dead := 0, 0
	for _, p := range h.e.Population() {
		if p.Infected() {
			infected++
		}
		if !p.Alive() {
			dead++
		}
	}

	Expect(infected).To(Equal(record.CurrentlyInfected))
	Expect(dead).To(Equal(record.Dead))
	Expect(record.Alive).To(Equal(len(h.e.Population()) - dead))

	h.checked++
}
