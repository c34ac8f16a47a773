package workerpool

import "sync"

// Pool is a bounded in-process worker pool. Submit blocks once all workers
// are busy and the queue is full, which is the back-pressure point the
// tuning governor hooks into.
type Pool struct {
	tasks   chan func()
	workers sync.WaitGroup
	pending sync.WaitGroup
	once    sync.Once
}

// New creates a pool with the given worker count and queue depth.
func New(workers, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	p := &Pool{tasks: make(chan func(), queueSize)}
	p.workers.Add(workers)
	for i := 0; i < workers; i++ {
		go p.run()
	}
	return p
}

func (p *Pool) run() {
	defer p.workers.Done()
	for task := range p.tasks {
		func() {
			defer p.pending.Done()
			task()
		}()
	}
}

// Submit enqueues a task, blocking while the queue is full.
func (p *Pool) Submit(task func()) {
	p.pending.Add(1)
	p.tasks <- task
}

// Wait blocks until every submitted task has finished.
func (p *Pool) Wait() {
	p.pending.Wait()
}

// Close stops accepting tasks and joins the workers after the queue drains.
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.tasks)
	})
	p.workers.Wait()
}
