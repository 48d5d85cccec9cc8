package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

type closeCounter int

func (c *closeCounter) Close() error {
	*c++
	return nil
}

func TestRunnerWait(t *testing.T) {
	errA, errB := errors.New("a"), errors.New("b")
	r := NewRunner().Go(
		RunFunc(func(context.Context) error { return errA }),
		NamedRun("b", RunFunc(func(context.Context) error { return errB })),
		RunFunc(func(context.Context) error { return nil }),
		RunFunc(func(context.Context) error { return context.Canceled }),
	)
	err := r.Wait()
	require.Error(t, err)
	require.ElementsMatch(t, []error{errA, errB}, multierr.Errors(err))
	select {
	case <-r.Done():
	default:
		t.Fatal("Done not closed")
	}
}

func TestRunnerDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := make(chan struct{})
	r := NewRunnerWith(ctx).Go(
		RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}),
		RunFunc(func(context.Context) error {
			<-stop
			return nil
		}),
	)
	select {
	case <-r.Done():
		t.Fatal("Done closed too early")
	case <-time.After(10 * time.Millisecond):
	}
	close(stop)
	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed")
	}
	cancel()
	require.NoError(t, r.Wait())
}

func TestRunWithContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	unblock := make(chan struct{})
	var canceled bool
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()
	err := RunWithContextCancel(ctx, func() {
		canceled = true
		close(unblock)
	}, func() error {
		<-unblock
		return errors.New("unblocked")
	})
	require.Equal(t, context.Canceled, err)
	require.True(t, canceled)

	errIO := errors.New("io")
	err = RunWithContext(context.Background(), func() error { return errIO })
	require.Equal(t, errIO, err)
}

func TestRunWithContextCloser(t *testing.T) {
	var closer closeCounter
	require.NoError(t, RunWithContextCloser(context.Background(), &closer, func() error { return nil }))
	require.Equal(t, closeCounter(1), closer)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	blocked := make(chan struct{})
	err := RunWithContextCloser(ctx, closeFunc(func() { close(blocked) }), func() error {
		<-blocked
		return nil
	})
	require.Equal(t, context.DeadlineExceeded, err)
}

type closeFunc func()

func (f closeFunc) Close() error {
	f()
	return nil
}
