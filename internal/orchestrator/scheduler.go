package orchestrator

import (
	"context"
	"math/rand"
	"time"

	"threadpulse/internal/page"

	"go.uber.org/zap"
)

// Schedule controls the long-running loop's human-looking cadence.
type Schedule struct {
	MinRotation time.Duration // gap between rotations, lower bound
	MaxRotation time.Duration // gap between rotations, upper bound

	BreakAfterRounds int           // rotations before an extended break
	BreakDuration    time.Duration // length of the extended break

	MinRunPause time.Duration // settle pause right after a rotation
	MaxRunPause time.Duration
}

// DefaultSchedule mirrors the cadence a careful human operator keeps:
// a couple of minutes to half an hour between rotations, a three-hour
// break every ten rounds.
func DefaultSchedule() Schedule {
	return Schedule{
		MinRotation:      2 * time.Minute,
		MaxRotation:      30 * time.Minute,
		BreakAfterRounds: 10,
		BreakDuration:    3 * time.Hour,
		MinRunPause:      60 * time.Second,
		MaxRunPause:      120 * time.Second,
	}
}

// ScheduleState is the loop's position in the break cycle. It is
// threaded explicitly so callers can observe or persist it.
type ScheduleState struct {
	RoundsSinceBreak int
	LastBreakEnd     time.Time
}

// SessionFactory opens a fresh browser session for one rotation and
// returns the page plus a teardown func. Each rotation gets its own
// session so a wedged browser never outlives the round.
type SessionFactory func(ctx context.Context) (page.Page, func(), error)

// Loop runs rotations until the context is cancelled. A failed rotation
// or session start is logged and the cadence continues; nothing short of
// cancellation stops the loop.
func (r *Runner) Loop(ctx context.Context, factory SessionFactory, communities []string, sched Schedule) error {
	log := r.log()
	state := ScheduleState{LastBreakEnd: time.Now()}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		p, done, err := factory(ctx)
		if err != nil {
			log.Error("session start failed", zap.Error(err))
		} else {
			if err := r.RunOnce(ctx, p, communities); err != nil {
				log.Error("rotation failed", zap.Error(err))
			}
			done()
		}
		state.RoundsSinceBreak++

		if err := sleepCtx(ctx, randDuration(r.rng(), sched.MinRunPause, sched.MaxRunPause)); err != nil {
			return err
		}

		if sched.BreakAfterRounds > 0 && state.RoundsSinceBreak >= sched.BreakAfterRounds {
			log.Info("taking extended break",
				zap.Int("rounds", state.RoundsSinceBreak),
				zap.Duration("duration", sched.BreakDuration))
			if err := sleepCtx(ctx, sched.BreakDuration); err != nil {
				return err
			}
			state.RoundsSinceBreak = 0
			state.LastBreakEnd = time.Now()
			continue
		}

		gap := randDuration(r.rng(), sched.MinRotation, sched.MaxRotation)
		log.Info("next rotation scheduled", zap.Duration("in", gap))
		if err := sleepCtx(ctx, gap); err != nil {
			return err
		}
	}
}

// randDuration draws uniformly from [min, max]. A degenerate or inverted
// range collapses to min.
func randDuration(rng *rand.Rand, min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rng.Int63n(int64(max-min)+1))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
