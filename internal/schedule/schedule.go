// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package schedule runs a job on a cron schedule until its context ends.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/pdiddy/press-tracker/pkg/types"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// parser accepts five-field cron expressions and descriptors such as
// "@daily" or "@every 6h".
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Options tune Watch.
type Options struct {
	// RunNow runs the job once before waiting for the first tick.
	RunNow bool
	// Location is the time zone of the schedule. Nil means local time.
	Location *time.Location
}

// Parse validates spec. Errors wrap types.ErrConfig.
func Parse(spec string) (cron.Schedule, error) {
	if spec == "" {
		return nil, fmt.Errorf("%w: schedule is required", types.ErrConfig)
	}
	s, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid schedule %q: %v", types.ErrConfig, spec, err)
	}
	return s, nil
}

// Watch runs job on spec until ctx is cancelled. A tick that fires while
// the previous run is still going is skipped. Job errors and panics are
// logged and do not stop the schedule. Watch waits for a running job to
// finish before returning.
func Watch(ctx context.Context, spec string, job Job, opts Options) error {
	sched, err := Parse(spec)
	if err != nil {
		return err
	}
	log := zerolog.Ctx(ctx)

	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	c := cron.New(cron.WithParser(parser), cron.WithLocation(loc), cron.WithLogger(cronLogger{log}))
	wrapped := wrap(ctx, job, log)
	c.Schedule(sched, wrapped)

	if opts.RunNow {
		wrapped.Run()
	}

	c.Start()
	log.Info().
		Str("schedule", spec).
		Time("next", sched.Next(time.Now().In(loc))).
		Msg("Watching schedule")

	<-ctx.Done()
	<-c.Stop().Done()
	log.Info().Msg("Schedule stopped")
	return nil
}

// wrap adapts job to a cron.Job that recovers panics and skips overlapping
// runs.
func wrap(ctx context.Context, job Job, log *zerolog.Logger) cron.Job {
	logger := cronLogger{log}
	return cron.NewChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)).Then(cron.FuncJob(func() {
		if ctx.Err() != nil {
			return
		}
		start := time.Now()
		if err := job(ctx); err != nil {
			log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("Scheduled run failed")
			return
		}
		log.Info().Dur("elapsed", time.Since(start)).Msg("Scheduled run finished")
	}))
}

// cronLogger routes cron's key/value logging to zerolog.
type cronLogger struct {
	log *zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
