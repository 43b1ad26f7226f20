package session

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const taskChanSize = 256

// workerFunc processes one queued task. A non-nil error is fatal to
// the whole pool's tomb.
type workerFunc = func(t *tomb.Tomb, task any) error

// workerPool is a fixed-size pool of goroutines pulling tasks off a
// shared channel, adapted from the teacher's pool so that any free
// worker can pick up any pending connection's next frame — this is
// what keeps matching on one symbol from delaying a different
// symbol's order (spec §5 cross-symbol independence), since a stalled
// worker only ever blocks the one task it drew.
type workerPool struct {
	n     int
	tasks chan any
	work  workerFunc
}

func newWorkerPool(size int) workerPool {
	return workerPool{
		tasks: make(chan any, taskChanSize),
		n:     size,
	}
}

// addTask enqueues task for the next free worker.
func (p *workerPool) addTask(task any) {
	p.tasks <- task
}

// setup starts n workers under t. A worker that exits is not
// replaced.
func (p *workerPool) setup(t *tomb.Tomb, work workerFunc) {
	p.work = work
	log.Info().Int("workers", p.n).Msg("starting session worker pool")
	for i := 0; i < p.n; i++ {
		t.Go(func() error {
			return p.loop(t)
		})
	}
}

func (p *workerPool) loop(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case task := <-p.tasks:
			if err := p.work(t, task); err != nil {
				log.Error().Err(err).Msg("session worker exiting")
				return err
			}
		}
	}
}
