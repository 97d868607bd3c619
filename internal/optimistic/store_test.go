package optimistic

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	Value   int
	Pending int
}

func inc(server int, err error) Command[counter, int] {
	return Command[counter, int]{
		Name:  "inc",
		Apply: func(c counter) counter { c.Value++; c.Pending++; return c },
		Send:  func(context.Context) (int, error) { return server, err },
		Commit: func(c counter, res int) counter {
			c.Value = res
			c.Pending--
			return c
		},
	}
}

func TestRunCommitsServerAnswer(t *testing.T) {
	s := NewStore(counter{Value: 1})
	res, err := Run(context.Background(), s, inc(10, nil))
	require.NoError(t, err)
	assert.Equal(t, 10, res)
	assert.Equal(t, counter{Value: 10}, s.State())
}

func TestRunRestoresSnapshotOnFailure(t *testing.T) {
	boom := errors.New("503")
	s := NewStore(counter{Value: 1})
	_, err := Run(context.Background(), s, inc(0, boom))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, counter{Value: 1}, s.State())
}

func TestRunUsesTargetedRevert(t *testing.T) {
	s := NewStore(counter{Value: 1})
	cmd := inc(0, errors.New("offline"))
	cmd.Send = func(context.Context) (int, error) {
		// something else changed the state while the request was in flight
		s.Update(func(c counter) counter { c.Pending += 100; return c })
		return 0, errors.New("offline")
	}
	cmd.Revert = func(current, snapshot counter) counter {
		current.Value = snapshot.Value
		current.Pending--
		return current
	}
	_, err := Run(context.Background(), s, cmd)
	require.Error(t, err)
	assert.Equal(t, counter{Value: 1, Pending: 100}, s.State())
}

func TestGoShowsOptimisticStateImmediately(t *testing.T) {
	release := make(chan struct{})
	s := NewStore(counter{})
	cmd := inc(5, nil)
	cmd.Send = func(context.Context) (int, error) {
		<-release
		return 5, nil
	}

	done := Go(context.Background(), s, cmd)
	assert.Equal(t, counter{Value: 1, Pending: 1}, s.State())

	close(release)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("command did not finish")
	}
	assert.Equal(t, counter{Value: 5}, s.State())
}

func TestGoIgnoresCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	s := NewStore(counter{})
	cmd := inc(3, nil)
	cmd.Send = func(ctx context.Context) (int, error) {
		<-release
		return 3, ctx.Err()
	}

	done := Go(ctx, s, cmd)
	cancel()
	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 3, s.State().Value)
}

func TestDone(t *testing.T) {
	assert.NoError(t, <-Done(nil))
	assert.EqualError(t, <-Done(errors.New("x")), "x")
}
