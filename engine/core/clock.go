package core

import "time"

// TimeSource returns a monotonic time in seconds.
type TimeSource func() float64

type Clock struct {
	origin    time.Time
	startTime float64
	elapsed   float64
	running   bool
}

func NewClock() *Clock {
	return &Clock{origin: time.Now()}
}

// Now returns the seconds since the clock was created. time.Since reads the
// monotonic reading so wall clock jumps do not leak into frame deltas.
func (c *Clock) Now() float64 {
	return time.Since(c.origin).Seconds()
}

// Updates the provided clock. Should be called just before checking elapsed time.
// Has no effect on non-started clocks.
func (c *Clock) Update() {
	if c.running {
		c.elapsed = c.Now() - c.startTime
	}
}

// Starts the provided clock. Resets elapsed time.
func (c *Clock) Start() {
	c.startTime = c.Now()
	c.elapsed = 0
	c.running = true
}

// Stops the provided clock. Does not reset elapsed time.
func (c *Clock) Stop() {
	c.running = false
}

func (c *Clock) Elapsed() float64 {
	return c.elapsed
}
