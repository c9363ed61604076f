package storage

import (
	"runtime"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

// AsyncRepository decouples the ingest hot path from broker round trips.
// Save enqueues without blocking; when the buffer is full the message is
// dropped and counted, never stalling an ingest worker on a slow broker.
type AsyncRepository struct {
	repo    *Repository
	ch      chan Message
	wg      sync.WaitGroup
	done    chan struct{}
	closed  sync.Once
	dropped atomic.Int64
}

func NewAsyncRepository(repo *Repository, buffer, workers int) *AsyncRepository {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	a := &AsyncRepository{
		repo: repo,
		ch:   make(chan Message, buffer),
		done: make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		a.wg.Add(1)
		go a.worker()
	}
	return a
}

func (a *AsyncRepository) worker() {
	defer a.wg.Done()
	for {
		select {
		case msg := <-a.ch:
			a.deliver(msg)
		case <-a.done:
			// Drain whatever was buffered before the close, then stop.
			for {
				select {
				case msg := <-a.ch:
					a.deliver(msg)
				default:
					return
				}
			}
		}
	}
}

func (a *AsyncRepository) deliver(msg Message) {
	if err := a.repo.Save(msg); err != nil {
		log.WithField("err", err).Error("async event mirror failed")
	}
}

// Save enqueues the message. Returns false if the buffer was full and the
// message was dropped.
func (a *AsyncRepository) Save(m Message) bool {
	select {
	case <-a.done:
		return false
	default:
	}

	select {
	case a.ch <- m:
		return true
	default:
		a.dropped.Add(1)
		return false
	}
}

// Dropped returns how many messages were discarded on buffer overflow.
func (a *AsyncRepository) Dropped() int64 {
	return a.dropped.Load()
}

// Close drains the buffer and stops the workers. The message channel is never
// closed, so a Save racing with Close cannot panic; at worst its message stays
// behind in the buffer.
func (a *AsyncRepository) Close() {
	a.closed.Do(func() {
		close(a.done)
	})
	a.wg.Wait()
}
