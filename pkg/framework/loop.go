package framework

import (
	"context"
	"time"

	"go.uber.org/multierr"
)

// DefaultInterval is the default period of a Loop.
const DefaultInterval = 100 * time.Millisecond

// Loop runs its Runnables in the background and
// processes housekeeping Tasks periodically.
type Loop struct {
	Interval time.Duration

	tasks    []Task
	runners  []Runnable
	wakeUpCh chan struct{}
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{Interval: DefaultInterval, wakeUpCh: make(chan struct{}, 1)}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddTask registers Tasks. A Task which is also a Runnable is started too.
func (l *Loop) AddTask(tasks ...Task) *Loop {
	l.tasks = append(l.tasks, tasks...)
	for _, task := range tasks {
		if runner, ok := task.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds Runnable implementions.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Run implements Runnable.
// It stops when ctx is done or any of the Runnables stops.
func (l *Loop) Run(ctx context.Context) error {
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	runner := NewRunnerWith(runCtx).Go(l.runners...)

	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			cancel()
			return multierr.Append(ctx.Err(), runner.Wait())
		case <-runner.Done():
			cancel()
			return runner.Wait()
		case <-ticker.C:
			l.runTasks()
		case <-l.wakeUpCh:
			l.runTasks()
		}
	}
}

// TriggerNext schedules the next iteration to be executed immediately.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

func (l *Loop) runTasks() {
	for _, task := range l.tasks {
		task.Process()
	}
}
