package controller

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/plant-controller/internal/actuation"
	"github.com/thatsimonsguy/plant-controller/internal/command"
	"github.com/thatsimonsguy/plant-controller/internal/model"
	"github.com/thatsimonsguy/plant-controller/internal/policy"
	"github.com/thatsimonsguy/plant-controller/internal/schedule"
	"github.com/thatsimonsguy/plant-controller/internal/sensors"
)

type Options struct {
	Thresholds           policy.Thresholds
	EscalateSensorFaults bool
	IdleYield            time.Duration
}

// Controller owns the environment snapshot and runs every step of the loop on
// a single goroutine.
type Controller struct {
	clock    schedule.Clock
	drivers  []sensors.Driver
	watering *actuation.Watering
	alarm    *actuation.AlarmIndicator
	opts     Options

	commands    *command.Handler
	commandGate schedule.Gate

	tasks []*schedule.Task
	env   model.EnvironmentState
}

func New(clock schedule.Clock, drivers []sensors.Driver, watering *actuation.Watering, alarm *actuation.AlarmIndicator, opts Options) *Controller {
	return &Controller{
		clock:    clock,
		drivers:  drivers,
		watering: watering,
		alarm:    alarm,
		opts:     opts,
	}
}

// SetCommandHandler polls h no more often than every poll.
func (c *Controller) SetCommandHandler(h *command.Handler, poll time.Duration) {
	c.commands = h
	c.commandGate = schedule.NewGate(poll)
}

// AddTask registers a gated consumer. Tasks run in registration order and see
// the snapshot by value.
func (c *Controller) AddTask(name string, interval time.Duration, run func(now schedule.Millis, env model.EnvironmentState)) {
	c.tasks = append(c.tasks, schedule.NewTask(name, interval, func(now schedule.Millis) {
		run(now, c.env)
	}))
}

// Tick runs one loop iteration. Every step runs to completion before the next.
func (c *Controller) Tick(now schedule.Millis) {
	for _, d := range c.drivers {
		d.Update(now, &c.env)
	}

	decision := policy.Evaluate(c.env, c.opts.Thresholds)
	decision = policy.Escalate(decision, sensors.AllNominal(c.drivers), c.opts.EscalateSensorFaults)
	c.env.AlarmActive = decision.AlarmActive
	if c.alarm != nil {
		c.alarm.Apply(decision.AlarmActive)
	}

	c.watering.CheckSafety(now)
	if c.commands != nil && c.commandGate.TryFire(now) {
		c.commands.Poll(now)
	}
	c.env.WateringActive = c.watering.Active()

	for _, t := range c.tasks {
		t.RunIfDue(now)
	}
}

// Run ticks until ctx is cancelled, then releases every output.
func (c *Controller) Run(ctx context.Context) {
	log.Info().Int("sensors", len(c.drivers)).Int("tasks", len(c.tasks)).Msg("Starting control loop")
	for {
		c.Tick(c.clock.Now())

		select {
		case <-ctx.Done():
			c.release()
			log.Info().Msg("Control loop stopped")
			return
		case <-time.After(c.opts.IdleYield):
		}
	}
}

func (c *Controller) release() {
	c.watering.Stop(c.clock.Now(), actuation.ReasonShutdown)
	if c.alarm != nil {
		c.alarm.Release()
	}
	c.env.WateringActive = false
}

func (c *Controller) Env() model.EnvironmentState {
	return c.env
}

func (c *Controller) Statuses() []model.SensorStatus {
	out := make([]model.SensorStatus, 0, len(c.drivers))
	for _, d := range c.drivers {
		out = append(out, d.Status())
	}
	return out
}
