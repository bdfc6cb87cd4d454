package engine

import (
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

func TestEngine_Step(t *testing.T) {
	e := NewEngine()
	e.EconomyDayTicks = 3
	e.CalendarDayTicks = 5

	var ticks, economyDays, calendarDays []uint64
	e.OnTick = func(tick uint64) { ticks = append(ticks, tick) }
	e.OnEconomyDay = func(tick uint64) { economyDays = append(economyDays, tick) }
	e.OnCalendarDay = func(tick uint64) { calendarDays = append(calendarDays, tick) }

	for i := 0; i < 15; i++ {
		e.Step()
	}

	testutil.AssertEqual(t, "tick", e.Tick, uint64(15))
	testutil.AssertEqual(t, "ticks", len(ticks), 15)
	testutil.AssertEqual(t, "economy days", len(economyDays), 5)
	testutil.AssertEqual(t, "first economy day", economyDays[0], uint64(3))
	testutil.AssertEqual(t, "calendar days", len(calendarDays), 3)
	testutil.AssertEqual(t, "last calendar day", calendarDays[2], uint64(15))
}

func TestEngine_ZeroDayLength(t *testing.T) {
	e := NewEngine()
	e.EconomyDayTicks = 0
	called := false
	e.OnEconomyDay = func(uint64) { called = true }

	e.Step()
	testutil.AssertEqual(t, "called", called, false)
}

func TestEngine_Speed(t *testing.T) {
	e := NewEngine()
	testutil.AssertEqual(t, "default", e.Speed(), 1.0)

	e.SetSpeed(4)
	testutil.AssertEqual(t, "set", e.Speed(), 4.0)

	e.SetSpeed(-2)
	testutil.AssertEqual(t, "clamped", e.Speed(), 0.0)
}

func TestEngine_RunAndStop(t *testing.T) {
	e := NewEngine()
	e.Interval = time.Millisecond
	e.SetSpeed(10)
	e.OnTick = func(tick uint64) {
		if tick == 5 {
			e.Stop()
		}
	}

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		e.Stop()
		t.Fatal("engine did not stop")
	}
	testutil.AssertEqual(t, "tick", e.Tick, uint64(5))
	testutil.AssertEqual(t, "running", e.Running(), false)
}

func TestSimTime(t *testing.T) {
	tests := map[string]struct {
		tick    uint64
		dayLen  uint64
		expTime string
	}{
		"start":       {tick: 0, dayLen: 1440, expTime: "Day 1, 0:00"},
		"noon":        {tick: 720, dayLen: 1440, expTime: "Day 1, 12:00"},
		"second day":  {tick: 1441, dayLen: 1440, expTime: "Day 2, 0:01"},
		"short days":  {tick: 45, dayLen: 30, expTime: "Day 2, 12:00"},
		"no calendar": {tick: 9, dayLen: 0, expTime: "Tick 9"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "time", SimTime(tt.tick, tt.dayLen), tt.expTime)
		})
	}
}
