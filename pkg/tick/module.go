package tick

import (
	"time"

	"github.com/sasha-s/go-deadlock"
)

// Ticker delivers simulation ticks at a fixed interval and can be
// paused and resumed without being rebuilt. While paused nothing is
// delivered on C. A tick that fires while the consumer is busy is
// dropped rather than queued, so a slow tick never produces a burst
// of catch-up ticks afterwards.
type Ticker struct {
	C <-chan time.Time

	interval time.Duration

	mutex  deadlock.Mutex
	pause  chan bool
	paused bool
	stop   chan struct{}
	ticker *time.Ticker
}

func New(d time.Duration) *Ticker {
	c := make(chan time.Time)
	pause := make(chan bool)
	stop := make(chan struct{})
	ticker := time.NewTicker(d)

	t := &Ticker{
		C:        c,
		interval: d,
		pause:    pause,
		stop:     stop,
		ticker:   ticker,
	}

	go t.run(c)

	return t
}

func (t *Ticker) Interval() time.Duration {
	return t.interval
}

func (t *Ticker) run(c chan<- time.Time) {
	defer close(t.stop)

	for {
		select {
		case now := <-t.ticker.C:
			select {
			case c <- now:
			default:
			}
		case shouldPause := <-t.pause:
			for shouldPause {
				select {
				case shouldPause = <-t.pause:
				case <-t.stop:
					return
				}
			}
		case <-t.stop:
			return
		}
	}
}

func (t *Ticker) Pause() {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.pause != nil && !t.paused {
		t.pause <- true
		t.paused = true
	}
}

func (t *Ticker) Paused() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.paused
}

func (t *Ticker) Resume() {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.pause != nil && t.paused {
		t.pause <- false
		t.paused = false
	}
}

func (t *Ticker) Stop() {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.stop != nil {
		close(t.pause)
		t.pause = nil
		t.stop <- struct{}{}
		<-t.stop
		t.stop = nil
		t.ticker.Stop()
	}
}

func (t *Ticker) Stopped() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.stop == nil
}
