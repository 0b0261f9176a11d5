package dfba_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dfba/internal/dfba"
	"github.com/san-kum/dfba/internal/dynamo"
	"github.com/san-kum/dfba/internal/integrators"
	"github.com/san-kum/dfba/internal/metabolic"
)

// Glucose uptake that just covers ATP maintenance: 17.5 ATP per fully
// respired glucose in the core model, 34 in the lumped network.
const (
	maintenanceUptake     = 8.39 / 17.5
	liteMaintenanceUptake = 8.39 / 34
)

// exhaustion inverts the Michaelis-Menten uptake, G = Km*u/(Vmax-u).
func exhaustion(u float64) float64 { return 5 * u / (10 - u) }

var _ = Describe("System", func() {
	var sys *dfba.System

	BeforeEach(func() {
		var err error
		sys, err = dfba.New(metabolic.Textbook(), dfba.DefaultParams())
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects models without the substrate exchange", func() {
		p := dfba.DefaultParams()
		p.Substrate = "EX_missing"
		_, err := dfba.New(metabolic.Textbook(), p)
		Expect(errors.Is(err, metabolic.ErrUnknownReaction)).To(BeTrue())
	})

	It("rejects non-positive km", func() {
		p := dfba.DefaultParams()
		p.Uptake.Km = 0
		_, err := dfba.New(metabolic.Textbook(), p)
		Expect(err).To(HaveOccurred())
	})

	Describe("Derive", func() {
		It("grows on the full uptake rate", func() {
			dx, err := sys.Derive(dynamo.State{0.1, 10}, 0)
			Expect(err).NotTo(HaveOccurred())

			mu, v, slack, err := sys.Rates(10)
			Expect(err).NotTo(HaveOccurred())
			Expect(slack).To(BeNumerically("~", 0, 1e-9))
			Expect(v).To(BeNumerically("~", -20.0/3, 1e-6))
			Expect(dx[0]).To(BeNumerically("~", mu*0.1, 1e-9))
			Expect(dx[1]).To(BeNumerically("~", v*0.1, 1e-9))
			Expect(dx[0]).To(BeNumerically(">", 0))
			Expect(dx[1]).To(BeNumerically("<", 0))
		})

		It("stops growing once glucose cannot cover maintenance", func() {
			mu, v, slack, err := sys.Rates(0.01)
			Expect(err).NotTo(HaveOccurred())
			Expect(mu).To(BeNumerically("~", 0, 1e-8))
			Expect(slack).To(BeNumerically(">", 0))
			Expect(v).To(BeNumerically("<=", 0))
		})

		It("counts the linear programs it solves", func() {
			_, err := sys.Derive(dynamo.State{0.1, 10}, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(sys.LPSolves()).To(Equal(3))
		})

		It("leaves the model bounds untouched", func() {
			m := metabolic.Textbook()
			s, err := dfba.New(m, dfba.DefaultParams())
			Expect(err).NotTo(HaveOccurred())
			_, err = s.Derive(dynamo.State{0.1, 2}, 0)
			Expect(err).NotTo(HaveOccurred())

			r, err := m.Reaction(metabolic.TextbookGlucose)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.LowerBound).To(Equal(-10.0))
		})
	})

	Describe("Fluxes", func() {
		It("balances glucose through the network", func() {
			fluxes, err := sys.Fluxes(10)
			Expect(err).NotTo(HaveOccurred())
			Expect(fluxes).To(HaveKey(metabolic.TextbookBiomass))
			Expect(fluxes[metabolic.TextbookGlucose]).To(BeNumerically("~", -20.0/3, 1e-6))
			Expect(fluxes[metabolic.TextbookMaintenance]).To(BeNumerically(">=", 8.39-1e-6))
		})
	})

	Describe("InfeasibilityEvent", func() {
		It("is negative while glucose is plentiful", func() {
			ev := dfba.InfeasibilityEvent(sys)
			g, err := ev.Func(dynamo.State{0.1, 10}, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(g).To(BeNumerically("<", 0))
			Expect(ev.Terminal).To(BeTrue())
			Expect(ev.Direction).To(Equal(1))
		})

		It("turns positive below the exhaustion level", func() {
			ev := dfba.InfeasibilityEvent(sys)
			g, err := ev.Func(dynamo.State{0.1, exhaustion(maintenanceUptake) / 2}, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(g).To(BeNumerically(">", 0))
		})
	})
})

var _ = Describe("Glucose-limited batch", Ordered, func() {
	var result *dynamo.Result

	BeforeAll(func() {
		sys, err := dfba.New(metabolic.Textbook(), dfba.DefaultParams())
		Expect(err).NotTo(HaveOccurred())

		sim := dynamo.New(sys, integrators.NewRK45())
		sim.AddEvent(dfba.InfeasibilityEvent(sys))

		cfg := dynamo.DefaultConfig()
		cfg.Duration = 15
		cfg.TEval = dynamo.Linspace(0, 15, 100)

		result, err = sim.Run(context.Background(), dynamo.State{0.1, 10}, cfg)
		Expect(err).NotTo(HaveOccurred())
	})

	It("terminates at glucose exhaustion", func() {
		Expect(result.Status).To(Equal(dynamo.StatusTerminated))
		Expect(result.Events).To(HaveLen(1))

		ev := result.Events[0]
		Expect(ev.Name).To(Equal("infeasible"))
		Expect(ev.Time).To(BeNumerically("~", 5.80, 0.05))
		Expect(ev.State[1]).To(BeNumerically("~", exhaustion(maintenanceUptake), 1e-3))
		Expect(ev.State[0]).To(BeNumerically("~", 0.873, 0.01))
	})

	It("keeps only the requested output times before the event", func() {
		n := len(result.Times)
		spacing := 15.0 / 99
		Expect(n).To(BeNumerically("<", 100))
		Expect(result.Times[n-1]).To(BeNumerically("<=", result.Events[0].Time))
		Expect(result.Events[0].Time - result.Times[n-1]).To(BeNumerically("<", spacing))
		Expect(result.Times[n-1]).To(BeNumerically("~", spacing*float64(n-1), 1e-9))
	})

	It("grows biomass while consuming glucose", func() {
		biomass := result.Series(0)
		glucose := result.Series(1)
		for i := 1; i < len(biomass); i++ {
			Expect(biomass[i]).To(BeNumerically(">=", biomass[i-1]-1e-9))
			Expect(glucose[i]).To(BeNumerically("<=", glucose[i-1]+1e-9))
		}
		Expect(result.Final()[0]).To(BeNumerically("~", 0.87, 0.02))
	})
})

var _ = Describe("Lumped network batch", func() {
	It("exhausts where the lumped maintenance cost is no longer covered", func() {
		p := dfba.DefaultParams()
		p.Biomass = metabolic.LiteBiomass
		sys, err := dfba.New(metabolic.CoreLite(), p)
		Expect(err).NotTo(HaveOccurred())

		sim := dynamo.New(sys, integrators.NewRK45())
		sim.AddEvent(dfba.InfeasibilityEvent(sys))

		cfg := dynamo.DefaultConfig()
		cfg.Duration = 15

		result, err := sim.Run(context.Background(), dynamo.State{0.1, 10}, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Status).To(Equal(dynamo.StatusTerminated))

		ev := result.Events[0]
		Expect(ev.Time).To(BeNumerically("~", 6.19, 0.05))
		Expect(ev.State[1]).To(BeNumerically("~", exhaustion(liteMaintenanceUptake), 1e-3))
		Expect(result.Times[len(result.Times)-1]).To(Equal(ev.Time))
	})
})
