package assist

import "time"

// Timer is the stoppable handle the debouncer holds per channel.
// *time.Timer satisfies it.
type Timer interface {
	Stop() bool
}

// TimerFactory schedules fn after d and returns a handle that can cancel it.
// Sessions default to time.AfterFunc; tests inject deterministic fakes.
type TimerFactory func(d time.Duration, fn func()) Timer

func afterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// channel identifies one independent debounce timer.
type channel uint8

const (
	chInline channel = iota
	chRewriteOptions
	chCustomRewrite
	chSuggestionScan
	channelCount
)

// debouncer keeps at most one pending timer per channel. A new trigger
// always supersedes a still-pending timer on the same channel.
type debouncer struct {
	start   TimerFactory
	pending [channelCount]Timer
}

func (d *debouncer) trigger(ch channel, delay time.Duration, fn func()) {
	if t := d.pending[ch]; t != nil {
		t.Stop()
	}
	d.pending[ch] = d.start(delay, fn)
}

func (d *debouncer) cancel(ch channel) {
	if t := d.pending[ch]; t != nil {
		t.Stop()
		d.pending[ch] = nil
	}
}

func (d *debouncer) cancelAll() {
	for ch := channel(0); ch < channelCount; ch++ {
		d.cancel(ch)
	}
}
