// Package export publishes per-step simulation metrics to external systems.
package export

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/parksim/parksim/sim"
)

// PromSink mirrors each sampled metrics row into Prometheus collectors.
// It implements sim.Observer.
type PromSink struct {
	step      prometheus.Gauge
	live      prometheus.Gauge
	occupancy *prometheus.GaugeVec
	cars      *prometheus.CounterVec

	last sim.Counters
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	step := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "parksim_step",
		Help: "Index of the most recently completed simulation step",
	})
	live := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "parksim_live_drivers",
		Help: "Drivers currently inside the facility",
	})
	occupancy := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "parksim_occupancy_ratio",
		Help: "Occupied spaces divided by provisioned spaces",
	}, []string{"category"})
	cars := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parksim_cars_total",
		Help: "Vehicles by lifecycle event",
	}, []string{"event"})

	var err error
	if step, err = register(reg, step); err != nil {
		return nil, err
	}
	if live, err = register(reg, live); err != nil {
		return nil, err
	}
	if occupancy, err = register(reg, occupancy); err != nil {
		return nil, err
	}
	if cars, err = register(reg, cars); err != nil {
		return nil, err
	}
	return &PromSink{step: step, live: live, occupancy: occupancy, cars: cars}, nil
}

// register adds c to reg, reusing an identical collector that is already registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ObserveStep updates the gauges and advances the counters by the step's deltas.
func (s *PromSink) ObserveStep(rec sim.Record) {
	s.step.Set(float64(rec.Step))
	s.live.Set(float64(rec.Live))
	s.occupancy.WithLabelValues("all").Set(rec.Occupancy)
	for _, c := range sim.Categories() {
		s.occupancy.WithLabelValues(c.String()).Set(rec.CategoryOccupancy(c))
	}
	s.cars.WithLabelValues("arrived").Add(float64(rec.Arrived - s.last.Arrived))
	s.cars.WithLabelValues("parked").Add(float64(rec.Parked - s.last.Parked))
	s.cars.WithLabelValues("exited").Add(float64(rec.Exited - s.last.Exited))
	s.cars.WithLabelValues("turned_away").Add(float64(rec.TurnedAway - s.last.TurnedAway))
	s.last = rec.Counters
}
