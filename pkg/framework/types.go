package framework

import "context"

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// RunFunc is the func form of Runnable.
type RunFunc func(context.Context) error

// Run implements Runnable.
func (f RunFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Task is the periodic housekeeping work driven by a Loop.
// Process must return quickly and never block on I/O.
type Task interface {
	Process()
}

// ProcessFunc is the func form of Task.
type ProcessFunc func()

// Process implements Task.
func (f ProcessFunc) Process() {
	f()
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}
