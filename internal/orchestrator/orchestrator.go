// Package orchestrator runs complete engagement rotations: for each
// configured community it collects fresh threads, picks one, and hands
// it to the interaction driver, isolating every community-level fault so
// one broken page never aborts the rotation.
package orchestrator

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"threadpulse/internal/generator"
	"threadpulse/internal/ledger"
	"threadpulse/internal/page"
	"threadpulse/internal/pacing"
	"threadpulse/internal/reddit"

	"go.uber.org/zap"
)

// Ledger is the subset of the action ledger the runner needs: append for
// rotation-level records and the duplicate check for collection.
type Ledger interface {
	Append(rec ledger.ActionRecord) (int64, error)
	WasActedOn(subjectText, community string) (bool, error)
}

// Engager performs the per-thread interaction sequence.
type Engager interface {
	Engage(ctx context.Context, p page.Page, thread reddit.CandidateThread, community string) error
}

const defaultThreadListWait = 10 * time.Second

// Runner orchestrates one rotation over the configured communities.
type Runner struct {
	Ledger    Ledger
	Generator generator.Generator
	Pacer     pacing.Pacer
	Rand      *rand.Rand
	Log       *zap.Logger

	BaseURL     string
	Credentials reddit.Credentials
	Login       reddit.LoginConfig

	MaxCandidates  int
	ThreadListWait time.Duration

	// Engager overrides the default driver, mainly for tests.
	Engager Engager
}

// RunOnce performs a single rotation: log in when credentials are
// configured, then visit every community in shuffled order. A community
// failure is logged as a subreddit_error record and the rotation moves
// on; only login and context cancellation abort the whole rotation.
func (r *Runner) RunOnce(ctx context.Context, p page.Page, communities []string) error {
	log := r.log()

	if r.Credentials.Username != "" {
		if err := reddit.Login(ctx, p, r.Credentials, r.pacer(), r.Login, log); err != nil {
			return fmt.Errorf("login: %w", err)
		}
	}

	order := make([]string, len(communities))
	copy(order, communities)
	r.rng().Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	log.Info("starting rotation", zap.Strings("communities", order))

	for _, community := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.processCommunity(ctx, p, community); err != nil {
			log.Error("community processing failed",
				zap.String("community", community), zap.Error(err))
			r.record(ledger.ActionRecord{
				SubjectText: "Error processing r/" + community,
				ActionType:  ledger.ActionSubredditError,
				Error:       err.Error(),
				Community:   community,
			})
		}
		r.pacer().Pause(pacing.Step)
	}
	log.Info("rotation complete")
	return nil
}

func (r *Runner) processCommunity(ctx context.Context, p page.Page, community string) error {
	log := r.log().With(zap.String("community", community))

	url := reddit.CommunityURL(r.BaseURL, community)
	if err := p.Navigate(ctx, url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	p.WaitStable(defaultThreadListWait)
	r.pacer().Pause(pacing.Action)

	if !strings.Contains(p.URL(), "/r/"+community) {
		return fmt.Errorf("unexpected landing url %q", p.URL())
	}

	if !reddit.WaitThreadList(ctx, p, r.threadListWait()) {
		log.Debug("thread list did not render, collecting anyway")
	}

	collector := &reddit.Collector{Dedup: r.Ledger, Max: r.MaxCandidates, Log: log}
	pool := collector.Collect(p, community)
	if len(pool) == 0 {
		log.Info("no new posts found")
		r.record(ledger.ActionRecord{
			SubjectText: "No new posts found in r/" + community,
			ActionType:  ledger.ActionNoNewPosts,
			Community:   community,
		})
		return nil
	}

	thread, _ := reddit.Select(pool, r.rng())
	log.Info("thread selected",
		zap.String("title", thread.Title), zap.Int("pool", len(pool)))
	return r.engager().Engage(ctx, p, thread, community)
}

func (r *Runner) record(rec ledger.ActionRecord) {
	if _, err := r.Ledger.Append(rec); err != nil {
		r.log().Error("ledger append failed",
			zap.String("action_type", rec.ActionType), zap.Error(err))
	}
}

func (r *Runner) engager() Engager {
	if r.Engager != nil {
		return r.Engager
	}
	return &reddit.Driver{
		Ledger:    r.Ledger,
		Generator: r.Generator,
		Pacer:     r.pacer(),
		Log:       r.Log,
	}
}

func (r *Runner) rng() *rand.Rand {
	if r.Rand == nil {
		r.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return r.Rand
}

func (r *Runner) pacer() pacing.Pacer {
	if r.Pacer != nil {
		return r.Pacer
	}
	return pacing.Zero{}
}

func (r *Runner) threadListWait() time.Duration {
	if r.ThreadListWait > 0 {
		return r.ThreadListWait
	}
	return defaultThreadListWait
}

func (r *Runner) log() *zap.Logger {
	if r.Log != nil {
		return r.Log
	}
	return zap.NewNop()
}
