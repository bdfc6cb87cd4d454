// Package engine provides the tick-based simulation loop and the town
// economy it drives.
package engine

import (
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"
)

// Default day lengths in ticks. The economy day paces production and
// consumption; the calendar day paces reporting and saving. They are
// independent.
const (
	DefaultEconomyDayTicks  = 30
	DefaultCalendarDayTicks = 1440
)

// Engine drives the simulation forward.
type Engine struct {
	Tick     uint64        // Current tick counter (monotonic, never resets)
	Interval time.Duration // Base tick interval (default 1 second)

	EconomyDayTicks  uint64
	CalendarDayTicks uint64

	// Callbacks for each tick layer, populated during setup.
	OnTick        func(tick uint64) // Every tick
	OnEconomyDay  func(tick uint64) // Every EconomyDayTicks
	OnCalendarDay func(tick uint64) // Every CalendarDayTicks

	speed   atomic.Uint64 // float64 bits
	running atomic.Bool
}

// NewEngine creates a simulation engine with default settings.
func NewEngine() *Engine {
	e := &Engine{
		Interval:         time.Second,
		EconomyDayTicks:  DefaultEconomyDayTicks,
		CalendarDayTicks: DefaultCalendarDayTicks,
	}
	e.SetSpeed(1)
	return e
}

// Speed returns the speed multiplier: 1.0 = real-time, 0 = paused.
func (e *Engine) Speed() float64 {
	return math.Float64frombits(e.speed.Load())
}

// SetSpeed changes the speed multiplier. It is safe to call while running.
func (e *Engine) SetSpeed(speed float64) {
	e.speed.Store(math.Float64bits(max(speed, 0)))
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Run starts the simulation loop. Blocks until Stop() is called.
func (e *Engine) Run() {
	e.running.Store(true)
	slog.Info("simulation engine started", "tick", e.Tick, "speed", e.Speed())

	for e.running.Load() {
		speed := e.Speed()
		if speed <= 0 {
			// Paused: sleep briefly and check again.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()

		e.Step()

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	slog.Info("simulation engine stopped", "tick", e.Tick)
}

// Stop halts the simulation loop.
func (e *Engine) Stop() {
	e.running.Store(false)
}

// Step advances the simulation by one tick.
func (e *Engine) Step() {
	e.Tick++

	if e.OnTick != nil {
		e.OnTick(e.Tick)
	}

	if e.EconomyDayTicks > 0 && e.Tick%e.EconomyDayTicks == 0 && e.OnEconomyDay != nil {
		e.OnEconomyDay(e.Tick)
	}

	if e.CalendarDayTicks > 0 && e.Tick%e.CalendarDayTicks == 0 && e.OnCalendarDay != nil {
		e.OnCalendarDay(e.Tick)
	}
}

// SimTime returns a human-readable simulation time for tick, given the
// length of a calendar day in ticks.
func SimTime(tick, calendarDayTicks uint64) string {
	if calendarDayTicks == 0 {
		return fmt.Sprintf("Tick %d", tick)
	}
	day := tick/calendarDayTicks + 1
	minutes := tick % calendarDayTicks * 24 * 60 / calendarDayTicks
	return fmt.Sprintf("Day %d, %d:%02d", day, minutes/60, minutes%60)
}
