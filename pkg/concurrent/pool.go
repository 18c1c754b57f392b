package concurrent

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrScheduleTimeout = errors.New("schedule error: timed out")
	ErrPoolClosed      = errors.New("schedule error: pool closed")
)

/*
Pool. goroutine pool for connection handlers. at most size goroutines run at once, idle ones wait on a
queue for the next task. a task that finds neither a free goroutine slot nor queue room blocks the scheduler.
ref: https://github.com/gobwas/ws-examples/blob/master/src/gopool/pool.go
*/
type Pool struct {
	sem  chan struct{}
	work chan func()

	done      chan struct{}
	closeOnce sync.Once
}

// NewPool. size max goroutines, queue pending tasks, spawn goroutines started up front.
func NewPool(size, queue, spawn int) *Pool {
	if size < 1 {
		size = 1
	}
	if spawn > size {
		spawn = size
	}
	if spawn <= 0 && queue > 0 {
		// a queued task needs at least one live worker.
		spawn = 1
	}
	p := &Pool{
		sem:  make(chan struct{}, size),
		work: make(chan func(), queue),
		done: make(chan struct{}),
	}
	p.Spawn(spawn)
	return p
}

// Spawn. start n idle workers, as long as there are free slots.
func (p *Pool) Spawn(n int) {
	for i := 0; i < n; i++ {
		select {
		case p.sem <- struct{}{}:
			go p.worker(nil)
		default:
			return
		}
	}
}

func (p *Pool) Schedule(task func()) error {
	return p.schedule(task, nil)
}

func (p *Pool) ScheduleTimeout(timeout time.Duration, task func()) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	return p.schedule(task, timer.C)
}

func (p *Pool) schedule(task func(), timeout <-chan time.Time) error {
	select {
	case <-p.done:
		return ErrPoolClosed
	default:
	}

	select {
	case <-p.done:
		return ErrPoolClosed
	case <-timeout:
		return ErrScheduleTimeout
	case p.work <- task:
		return nil
	case p.sem <- struct{}{}:
		go p.worker(task)
		return nil
	}
}

func (p *Pool) worker(task func()) {
	defer func() { <-p.sem }()
	if task != nil {
		task()
	}
	for {
		select {
		case task := <-p.work:
			task()
		case <-p.done:
			return
		}
	}
}

// Close. stops idle workers; running tasks finish, queued tasks may be dropped.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
}
