// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package schedule

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/press-tracker/pkg/types"
)

func TestParse(t *testing.T) {
	for _, spec := range []string{"0 6 * * *", "*/30 * * * 1-5", "@daily", "@every 6h"} {
		_, err := Parse(spec)
		assert.NoError(t, err, spec)
	}
	for _, spec := range []string{"", "every day", "0 0 6 * * *", "61 * * * *"} {
		_, err := Parse(spec)
		assert.ErrorIs(t, err, types.ErrConfig, spec)
	}
}

func TestWatchInvalidSpec(t *testing.T) {
	called := false
	err := Watch(context.Background(), "not a schedule", func(context.Context) error {
		called = true
		return nil
	}, Options{RunNow: true})
	assert.ErrorIs(t, err, types.ErrConfig)
	assert.False(t, called)
}

func TestWatchRunNowAndStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var runs int32
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, "@daily", func(context.Context) error {
			atomic.AddInt32(&runs, 1)
			return nil
		}, Options{RunNow: true})
	}()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
}

func TestWrapSkipsOverlappingRuns(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 2)
	var runs int32

	job := wrap(context.Background(), func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		started <- struct{}{}
		<-release
		return nil
	}, zerolog.Ctx(context.Background()))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		job.Run()
	}()
	<-started

	job.Run() // returns at once: the first run is still going
	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
}

func TestWrapLogsErrorsAndRecovers(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	wrap(context.Background(), func(context.Context) error {
		return errors.New("quota exceeded")
	}, &log).Run()
	assert.Contains(t, buf.String(), "quota exceeded")

	assert.NotPanics(t, func() {
		wrap(context.Background(), func(context.Context) error {
			panic("boom")
		}, &log).Run()
	})
	assert.Contains(t, buf.String(), "panic")
}

func TestWrapSkipsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	wrap(ctx, func(context.Context) error {
		called = true
		return nil
	}, zerolog.Ctx(ctx)).Run()
	assert.False(t, called)
}
