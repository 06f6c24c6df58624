package orchestrator_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"threadpulse/internal/ledger"
	"threadpulse/internal/orchestrator"
	"threadpulse/internal/page"
	"threadpulse/internal/page/pagetest"
	"threadpulse/internal/pacing"
	"threadpulse/internal/reddit"

	"github.com/stretchr/testify/require"
)

type fakeLedger struct {
	mu    sync.Mutex
	recs  []ledger.ActionRecord
	acted map[string]bool
}

func (l *fakeLedger) Append(rec ledger.ActionRecord) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recs = append(l.recs, rec)
	return int64(len(l.recs)), nil
}

func (l *fakeLedger) WasActedOn(subject, community string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acted[subject+"|"+community], nil
}

func (l *fakeLedger) types() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.recs))
	for _, rec := range l.recs {
		out = append(out, rec.ActionType)
	}
	return out
}

type fakeEngager struct {
	mu      sync.Mutex
	threads []reddit.CandidateThread
	err     error
}

func (e *fakeEngager) Engage(_ context.Context, _ page.Page, thread reddit.CandidateThread, _ string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.threads = append(e.threads, thread)
	return e.err
}

func article(title, href string) *pagetest.FakeElement {
	link := &pagetest.FakeElement{
		TextValue: title,
		Attrs:     map[string]string{"href": href},
	}
	post := &pagetest.FakeElement{
		Children: map[string][]*pagetest.FakeElement{"a[slot='title']": {link}},
	}
	return &pagetest.FakeElement{
		Children: map[string][]*pagetest.FakeElement{"shreddit-post": {post}},
	}
}

func newRunner(led *fakeLedger, eng *fakeEngager) *orchestrator.Runner {
	return &orchestrator.Runner{
		Ledger:         led,
		Pacer:          pacing.Zero{},
		Rand:           rand.New(rand.NewSource(1)),
		Engager:        eng,
		ThreadListWait: time.Millisecond,
	}
}

func TestRunOnceEngagesSelectedThread(t *testing.T) {
	p := &pagetest.FakePage{Els: map[string][]*pagetest.FakeElement{
		"article": {article("Post A", "/r/golf/comments/a/post/")},
	}}
	led := &fakeLedger{}
	eng := &fakeEngager{}
	r := newRunner(led, eng)

	err := r.RunOnce(context.Background(), p, []string{"golf"})
	require.NoError(t, err)

	require.Len(t, eng.threads, 1)
	require.Equal(t, "Post A", eng.threads[0].Title)
	require.Equal(t, []string{"https://www.reddit.com/r/golf/"}, p.Navigations)
	require.Empty(t, led.recs)
}

func TestRunOnceEmptyCommunityLogsNoNewPosts(t *testing.T) {
	p := &pagetest.FakePage{Els: map[string][]*pagetest.FakeElement{}}
	led := &fakeLedger{}
	eng := &fakeEngager{}
	r := newRunner(led, eng)

	err := r.RunOnce(context.Background(), p, []string{"golf"})
	require.NoError(t, err)

	require.Empty(t, eng.threads)
	require.Equal(t, []string{ledger.ActionNoNewPosts}, led.types())
	rec := led.recs[0]
	require.Equal(t, "No new posts found in r/golf", rec.SubjectText)
	require.Equal(t, "golf", rec.Community)
	require.False(t, rec.Success)
}

func TestRunOnceDedupExhaustedPoolLogsNoNewPosts(t *testing.T) {
	p := &pagetest.FakePage{Els: map[string][]*pagetest.FakeElement{
		"article": {article("Post A", "/r/golf/comments/a/post/")},
	}}
	led := &fakeLedger{acted: map[string]bool{"Post A|golf": true}}
	eng := &fakeEngager{}
	r := newRunner(led, eng)

	err := r.RunOnce(context.Background(), p, []string{"golf"})
	require.NoError(t, err)
	require.Empty(t, eng.threads)
	require.Equal(t, []string{ledger.ActionNoNewPosts}, led.types())
}

func TestRunOnceIsolatesCommunityFailures(t *testing.T) {
	p := &pagetest.FakePage{
		Els: map[string][]*pagetest.FakeElement{
			"article": {article("Post A", "/r/golf/comments/a/post/")},
		},
		NavErr: map[string]error{
			"https://www.reddit.com/r/SaaS/": errors.New("net::ERR_TIMED_OUT"),
		},
	}
	led := &fakeLedger{}
	eng := &fakeEngager{}
	r := newRunner(led, eng)

	err := r.RunOnce(context.Background(), p, []string{"SaaS", "golf"})
	require.NoError(t, err)

	// The broken community is recorded and the healthy one still runs.
	var faults []ledger.ActionRecord
	for _, rec := range led.recs {
		if rec.ActionType == ledger.ActionSubredditError {
			faults = append(faults, rec)
		}
	}
	require.Len(t, faults, 1)
	require.Equal(t, "Error processing r/SaaS", faults[0].SubjectText)
	require.Equal(t, "SaaS", faults[0].Community)
	require.NotEmpty(t, faults[0].Error)
	require.Len(t, eng.threads, 1)
}

func TestRunOnceRecordsEngageFailureAsCommunityError(t *testing.T) {
	p := &pagetest.FakePage{Els: map[string][]*pagetest.FakeElement{
		"article": {article("Post A", "/r/golf/comments/a/post/")},
	}}
	led := &fakeLedger{}
	eng := &fakeEngager{err: errors.New("open thread: tab crashed")}
	r := newRunner(led, eng)

	err := r.RunOnce(context.Background(), p, []string{"golf"})
	require.NoError(t, err)
	require.Equal(t, []string{ledger.ActionSubredditError}, led.types())
}

func TestRunOnceShuffleIsSeedDeterministic(t *testing.T) {
	communities := []string{"golf", "SaaS", "Entrepreneur", "SideProject"}

	visit := func(seed int64) []string {
		p := &pagetest.FakePage{Els: map[string][]*pagetest.FakeElement{}}
		r := newRunner(&fakeLedger{}, &fakeEngager{})
		r.Rand = rand.New(rand.NewSource(seed))
		require.NoError(t, r.RunOnce(context.Background(), p, communities))
		return p.Navigations
	}

	require.Equal(t, visit(7), visit(7))
	// The input slice is never reordered in place.
	require.Equal(t, []string{"golf", "SaaS", "Entrepreneur", "SideProject"}, communities)
}

func TestRunOnceLogsInWhenCredentialsSet(t *testing.T) {
	login := &pagetest.FakeElement{}
	password := &pagetest.FakeElement{}
	button := &pagetest.FakeElement{TextValue: "Log In"}
	p := &pagetest.FakePage{Els: map[string][]*pagetest.FakeElement{
		"input[name='username']": {login},
		"input[name='password']": {password},
		"button":                 {button},
	}}
	led := &fakeLedger{}
	r := newRunner(led, &fakeEngager{})
	r.Credentials = reddit.Credentials{Username: "golfer42", Password: "hunter2"}
	r.Login = reddit.LoginConfig{FormWait: time.Millisecond, ConfirmWait: time.Millisecond}

	err := r.RunOnce(context.Background(), p, []string{"golf"})
	require.NoError(t, err)
	require.Equal(t, "https://www.reddit.com/login/", p.Navigations[0])
	require.Equal(t, "golfer42", login.Typed)
}

func TestLoopRunsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	led := &fakeLedger{}
	r := newRunner(led, &fakeEngager{})

	var sessions int
	factory := func(context.Context) (page.Page, func(), error) {
		sessions++
		if sessions > 3 {
			cancel()
			return nil, nil, errors.New("shutting down")
		}
		return &pagetest.FakePage{Els: map[string][]*pagetest.FakeElement{}}, func() {}, nil
	}

	sched := orchestrator.Schedule{} // zero cadence keeps the test fast
	err := r.Loop(ctx, factory, []string{"golf"}, sched)
	require.ErrorIs(t, err, context.Canceled)

	// Three rotations completed against the empty page.
	require.Equal(t, []string{
		ledger.ActionNoNewPosts,
		ledger.ActionNoNewPosts,
		ledger.ActionNoNewPosts,
	}, led.types())
}

func TestLoopSurvivesSessionStartFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	led := &fakeLedger{}
	r := newRunner(led, &fakeEngager{})

	var sessions int
	factory := func(context.Context) (page.Page, func(), error) {
		sessions++
		switch {
		case sessions == 1:
			return nil, nil, errors.New("browser did not start")
		case sessions == 2:
			return &pagetest.FakePage{Els: map[string][]*pagetest.FakeElement{}}, func() {}, nil
		default:
			cancel()
			return nil, nil, errors.New("shutting down")
		}
	}

	err := r.Loop(ctx, factory, []string{"golf"}, orchestrator.Schedule{})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, []string{ledger.ActionNoNewPosts}, led.types())
}
