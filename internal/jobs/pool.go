package jobs

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Pool runs submitted tasks on a fixed number of workers. Submit never
// blocks; tasks queue in FIFO order until a worker is free.
type Pool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []func()
	closed  bool
	workers sync.WaitGroup
}

// NewPool starts a pool with the given number of workers, minimum one.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{}
	p.cond = sync.NewCond(&p.mu)
	for i := 0; i < workers; i++ {
		p.workers.Add(1)
		go p.work(i)
	}
	log.Debugf("Started worker pool with %d workers", workers)
	return p
}

// Submit enqueues a task and returns immediately. Tasks submitted after
// Close are dropped.
func (p *Pool) Submit(task func()) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		log.Warn("Task submitted to a closed pool, dropping")
		return
	}
	p.queue = append(p.queue, task)
	p.mu.Unlock()
	p.cond.Signal()
}

// Close stops accepting tasks, lets queued ones drain and waits for the
// workers to exit.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cond.Broadcast()
	p.workers.Wait()
}

func (p *Pool) work(id int) {
	defer p.workers.Done()
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 && p.closed {
			p.mu.Unlock()
			return
		}
		task := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()

		p.run(id, task)
	}
}

// run executes one task, containing panics so a broken job cannot take the
// worker down with it.
func (p *Pool) run(id int, task func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Worker %d recovered from panic: %v", id, r)
		}
	}()
	task()
}
