package timer

import (
	"sync"
	"time"
)

// Loop calls fn at a fixed rate on its own goroutine. A Loop can be started
// again after Stop.
type Loop struct {
	interval time.Duration
	fn       func()

	mutex sync.Mutex
	stop  chan struct{}
	done  chan struct{}
}

func NewLoop(interval time.Duration, fn func()) *Loop {
	return &Loop{interval: interval, fn: fn}
}

// Start launches the worker. It returns false if the loop is already running.
func (l *Loop) Start() bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.stop != nil {
		return false
	}
	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	go l.run(l.stop, l.done)
	return true
}

// Stop tears the worker down and waits for it to exit. No call to fn is in
// progress or will start once Stop returns. fn must not call Stop.
func (l *Loop) Stop() {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.stop == nil {
		return
	}
	close(l.stop)
	<-l.done
	l.stop, l.done = nil, nil
}

func (l *Loop) Running() bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.stop != nil
}

func (l *Loop) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			// ticker and stop may both be ready; stop wins
			select {
			case <-stop:
				return
			default:
			}
			l.fn()
		}
	}
}
