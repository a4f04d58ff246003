package backtest

import (
	"fmt"
	"time"
)

const minStep = time.Second

// Clock owns the simulated "now" for a run. It only ever moves forward,
// in fixed steps, between the configured bounds. Every data query and
// fill timestamp in the engine is injected from here.
type Clock struct {
	start   time.Time
	end     time.Time
	step    time.Duration
	current time.Time
}

// NewClock creates a clock positioned at start.
func NewClock(start, end time.Time, step time.Duration) (*Clock, error) {
	if !start.Before(end) {
		return nil, fmt.Errorf("backtest.NewClock: start_time %s must be before end_time %s", start, end)
	}
	if step < minStep {
		return nil, fmt.Errorf("backtest.NewClock: step %s below minimum %s", step, minStep)
	}
	return &Clock{start: start, end: end, step: step, current: start}, nil
}

// Now returns the current simulated instant.
func (c *Clock) Now() time.Time { return c.current }

// Start returns the lower bound of the run.
func (c *Clock) Start() time.Time { return c.start }

// End returns the upper bound of the run.
func (c *Clock) End() time.Time { return c.end }

// Step returns the tick size.
func (c *Clock) Step() time.Duration { return c.step }

// Advance moves the clock forward one step. The clock never moves backward.
func (c *Clock) Advance() {
	c.current = c.current.Add(c.step)
}

// Finished reports whether the clock has advanced past end_time.
func (c *Clock) Finished() bool {
	return c.current.After(c.end)
}
