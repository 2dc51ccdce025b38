// Package crawler drives the identifier sweep: a fixed-width window of tasks per
// round, each running the fetch/extract/append pipeline, until too many
// consecutive identifiers come back empty.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Sriram-PR/olympedia-scraper/pkg/metrics"
	"github.com/Sriram-PR/olympedia-scraper/pkg/utils"
)

// Processor handles a single identifier
type Processor interface {
	Process(ctx context.Context, id int) (bool, error)
}

// Options controls the sweep
type Options struct {
	Concurrency   int // Window width and pool size
	StopThreshold int // Consecutive misses that end the run
	ProgressEvery int // Log progress on found ids divisible by this, 0 disables
}

// Result summarizes a finished run
type Result struct {
	RunID     string
	StartedAt int // First identifier dispatched
	StoppedAt int // Identifier whose miss reached the threshold
	Found     int
	Missed    int
	Windows   int
	Duration  time.Duration
}

// taskResult is what each task reports back to the driver
type taskResult struct {
	id    int
	found bool
	err   error
}

// Driver dispatches identifiers window by window and decides when to stop
type Driver struct {
	proc       Processor
	checkpoint Checkpointer
	opts       Options
	log        *logrus.Entry
	runID      string
}

// NewDriver creates a Driver. Non-positive concurrency or threshold are raised to 1.
func NewDriver(proc Processor, checkpoint Checkpointer, opts Options, log *logrus.Entry) *Driver {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.StopThreshold < 1 {
		opts.StopThreshold = 1
	}
	runID := uuid.NewString()
	return &Driver{
		proc:       proc,
		checkpoint: checkpoint,
		opts:       opts,
		log:        log.WithField("run_id", runID),
		runID:      runID,
	}
}

// RunID returns the identifier used to correlate this run's logs
func (d *Driver) RunID() string {
	return d.runID
}

// StartID returns the first identifier to dispatch: the one after the checkpoint
// when resuming past start, otherwise start.
func StartID(start int, resume bool, last int) int {
	if resume && last >= start {
		return last + 1
	}
	return start
}

// Run sweeps identifiers from startID until StopThreshold consecutive misses are seen,
// then saves the triggering identifier as the final checkpoint and returns.
//
// Every window [w, w+Concurrency) is fully completed before the next is dispatched.
// Tasks still in flight when the threshold is hit are allowed to finish, and the
// final checkpoint is written after them. If ctx is cancelled, Run waits for the
// current window and returns ctx.Err().
func (d *Driver) Run(ctx context.Context, startID int) (res Result, err error) {
	res = Result{RunID: d.runID, StartedAt: startID}
	started := time.Now()
	defer func() { res.Duration = time.Since(started) }()

	d.log.WithFields(logrus.Fields{
		"start_id":       startID,
		"concurrency":    d.opts.Concurrency,
		"stop_threshold": d.opts.StopThreshold,
	}).Info("Sweep starting")

	consecutiveMisses := 0
	stopped := false

	for windowStart := startID; ; windowStart += d.opts.Concurrency {
		if err := ctx.Err(); err != nil {
			d.log.Warnf("Sweep cancelled before window %d: %v", windowStart, err)
			return res, err
		}

		results := d.dispatchWindow(ctx, windowStart)

		for r := range results {
			if stopped {
				continue
			}
			if isCancellation(ctx, r.err) {
				continue
			}

			if r.found {
				res.Found++
				consecutiveMisses = 0
				if d.opts.ProgressEvery > 0 && r.id%d.opts.ProgressEvery == 0 {
					d.log.WithFields(logrus.Fields{"athlete_id": r.id, "found": res.Found}).Info("Progress")
				}
			} else {
				res.Missed++
				consecutiveMisses++
				if r.err != nil {
					category := utils.CategorizeError(r.err)
					metrics.ObserveTaskError(category)
					d.log.WithFields(logrus.Fields{"athlete_id": r.id, "category": category}).Errorf("Task failed: %v", r.err)
				}
			}
			metrics.SetConsecutiveMisses(consecutiveMisses)

			if consecutiveMisses >= d.opts.StopThreshold {
				stopped = true
				res.StoppedAt = r.id
			}
		}
		res.Windows++
		metrics.ObserveWindow()

		if stopped {
			if err := d.checkpoint.Save(res.StoppedAt); err != nil {
				return res, fmt.Errorf("final checkpoint at %d: %w", res.StoppedAt, err)
			}
			metrics.SetCheckpoint(res.StoppedAt)
			d.log.WithFields(logrus.Fields{
				"stopped_at": res.StoppedAt,
				"found":      res.Found,
				"missed":     res.Missed,
				"windows":    res.Windows,
				"duration":   time.Since(started).String(),
			}).Infof("Stopped after %d consecutive misses", consecutiveMisses)
			return res, nil
		}
	}
}

// dispatchWindow starts one task per identifier in [start, start+Concurrency) and
// returns a channel of their results in completion order. The channel is closed once
// every task has returned.
func (d *Driver) dispatchWindow(ctx context.Context, start int) <-chan taskResult {
	results := make(chan taskResult, d.opts.Concurrency)

	// Task failures are reported as results, never as group errors, so one failing
	// identifier does not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(d.opts.Concurrency)

	go func() {
		for id := start; id < start+d.opts.Concurrency; id++ {
			g.Go(func() error {
				results <- d.runTask(ctx, id)
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	return results
}

// runTask runs one identifier, converting a panic into an error result
func (d *Driver) runTask(ctx context.Context, id int) (r taskResult) {
	r.id = id
	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()

	defer func() {
		if p := recover(); p != nil {
			r.found = false
			r.err = fmt.Errorf("panic: %v", p)
			d.log.WithFields(logrus.Fields{
				"athlete_id":  id,
				"panic_info":  p,
				"stack_trace": string(debug.Stack()),
			}).Error("PANIC recovered in task")
		}
	}()

	r.found, r.err = d.proc.Process(ctx, id)
	return r
}

// isCancellation reports whether err comes from the run's own context. HTTP client
// timeouts also match context.DeadlineExceeded and must stay misses.
func isCancellation(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
