package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"relay-chat/contract"
	"relay-chat/errors"
	"sync"
	"time"
)

const DefaultRestartDelay = 200 * time.Millisecond

// Supervisor runs the background loops of a relay client.
// Each worker gets its own goroutine; a worker that panics or returns an
// error is restarted after a delay, a worker that returns nil is done.
// Stop cancels every worker and waits for all of them.
type Supervisor struct {
	log          *slog.Logger
	restartDelay time.Duration
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

func NewSupervisor(log *slog.Logger, restartDelay time.Duration) *Supervisor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Supervisor{log: log, restartDelay: restartDelay, ctx: ctx, cancel: cancel}
}

// Go starts worker under supervision. It is a no-op once Stop was called.
// A started worker always gets one Run, with a canceled context if Stop
// came first.
func (s *Supervisor) Go(worker contract.Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.wg.Add(1)
	name := contract.GetWorkerName(worker)

	go func() {
		defer s.wg.Done()

		for {
			err := func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
					}
				}()
				return worker.Run(s.ctx)
			}()

			if err == nil {
				// Terminated properly, never restart !
				s.log.Debug(fmt.Sprintf("Worker finished : %s", name))
				return
			}
			if s.ctx.Err() != nil {
				s.log.Debug("Worker stopped (context canceled)", "name", name)
				return
			}

			s.log.Warn("Worker crashed, restarting", "name", name, "err", err)
			select {
			case <-s.ctx.Done():
				return
			case <-time.After(s.restartDelay):
			}
		}
	}()
}

// Stop cancels all workers and blocks until they returned.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.cancel()
	s.wg.Wait()
}
