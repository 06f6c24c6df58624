package reddit

import (
	"context"
	"fmt"
	"time"

	"threadpulse/internal/generator"
	"threadpulse/internal/ledger"
	"threadpulse/internal/page"
	"threadpulse/internal/pacing"

	"go.uber.org/zap"
)

// Recorder receives one action record per attempted sub-step. Append
// failures are reported to the operator log only; they never interrupt
// the interaction sequence.
type Recorder interface {
	Append(rec ledger.ActionRecord) (int64, error)
}

const (
	defaultEditorWait = 5 * time.Second
	defaultSubmitWait = 5 * time.Second
	stableWait        = 10 * time.Second
)

// Driver performs the ordered upvote-and-comment sequence against one
// selected thread. Each sub-step returns an Outcome; Engage converts
// outcomes into ledger records and decides whether the sequence
// continues, so the logging policy lives in exactly one place.
type Driver struct {
	Ledger    Recorder
	Generator generator.Generator
	Pacer     pacing.Pacer
	Log       *zap.Logger

	// EditorWait and SubmitWait bound the comment-editor and
	// submit-button discovery polls. Zero selects the defaults.
	EditorWait time.Duration
	SubmitWait time.Duration
}

// Engage opens the thread and runs the interaction sequence. Only a
// navigation failure is returned as an error (the caller logs it at
// community granularity); every later fault degrades to a logged,
// non-fatal outcome.
func (d *Driver) Engage(ctx context.Context, p page.Page, thread CandidateThread, community string) error {
	log := d.log().With(
		zap.String("community", community),
		zap.String("title", truncate(thread.Title, 50)))

	if err := p.Navigate(ctx, thread.AbsoluteURL()); err != nil {
		return fmt.Errorf("open thread %s: %w", thread.AbsoluteURL(), err)
	}
	p.WaitStable(stableWait)
	d.Pacer.Pause(pacing.Action)

	if out := d.attemptUpvote(p); out.OK {
		log.Info("post upvoted")
		d.record(ledger.ActionRecord{
			SubjectText: thread.Title,
			ActionType:  ledger.ActionPostUpvoted,
			Success:     true,
			Community:   community,
		})
	} else {
		log.Warn("upvote failed", zap.String("reason", out.Msg))
		d.record(ledger.ActionRecord{
			SubjectText: thread.Title,
			ActionType:  ledger.ActionUpvoteFailed,
			Error:       out.Msg,
			Community:   community,
		})
	}

	comment, err := d.Generator.Generate(ctx, thread.Title, ledger.PlatformReddit)
	if err != nil {
		// Generation failure abandons the comment for this thread; the
		// next rotation re-collects candidates fresh.
		log.Warn("comment generation failed", zap.Error(err))
		d.record(ledger.ActionRecord{
			SubjectText: thread.Title,
			ActionType:  ledger.ActionCommentError,
			Error:       err.Error(),
			Community:   community,
		})
		return nil
	}
	log.Info("comment generated", zap.Int("length", len(comment)))
	d.record(ledger.ActionRecord{
		SubjectText: thread.Title,
		ActionType:  ledger.ActionCommentGenerated,
		Success:     true,
		CommentText: comment,
		Community:   community,
	})

	editor, out := d.findCommentEditor(ctx, p)
	if !out.OK {
		log.Warn("comment field not found")
		d.record(ledger.ActionRecord{
			SubjectText: thread.Title,
			ActionType:  ledger.ActionCommentFieldNotFound,
			CommentText: comment,
			Error:       out.Msg,
			Community:   community,
		})
		return nil
	}

	if out := d.typeComment(editor, comment); !out.OK {
		log.Warn("comment field interaction failed", zap.String("reason", out.Msg))
		d.record(ledger.ActionRecord{
			SubjectText: thread.Title,
			ActionType:  ledger.ActionCommentError,
			CommentText: comment,
			Error:       out.Msg,
			Community:   community,
		})
		return nil
	}

	if out := d.submitComment(ctx, p); out.OK {
		log.Info("comment posted")
		d.record(ledger.ActionRecord{
			SubjectText: thread.Title,
			ActionType:  ledger.ActionCommentPosted,
			Success:     true,
			CommentText: comment,
			Community:   community,
		})
	} else {
		log.Warn("comment submit failed", zap.String("reason", out.Msg))
		d.record(ledger.ActionRecord{
			SubjectText: thread.Title,
			ActionType:  ledger.ActionCommentFailed,
			CommentText: comment,
			Error:       out.Msg,
			Community:   community,
		})
	}
	return nil
}

// attemptUpvote tries the upvote discovery chain. Not finding a control
// is an expected, non-fatal outcome on reshuffled markup.
func (d *Driver) attemptUpvote(p page.Page) Outcome {
	el, strategy, found := page.FindFirst(p, upvoteStrategies)
	if !found {
		return failed(FailNotFound, "could not find or click upvote button")
	}
	if err := el.Click(); err != nil {
		return failed(FailInteraction, "upvote click failed: %v", err)
	}
	d.log().Debug("upvote control clicked", zap.Int("strategy", strategy))
	d.Pacer.Pause(pacing.Short)
	return ok()
}

// findCommentEditor wakes the comment interface (trigger control first,
// then a loose comment-area click) and locates the editable field.
func (d *Driver) findCommentEditor(ctx context.Context, p page.Page) (page.Element, Outcome) {
	d.Pacer.Pause(pacing.Step)
	p.ScrollBottom()
	d.Pacer.Pause(pacing.Short)

	if trigger, strategy, found := page.FindFirst(p, commentTriggerStrategies); found {
		if err := trigger.Click(); err != nil {
			d.log().Debug("comment trigger click failed", zap.Error(err))
		} else {
			d.log().Debug("comment trigger clicked", zap.Int("strategy", strategy))
			d.Pacer.Pause(pacing.Action)
		}
	} else if area, _, found := page.FindFirst(p, commentAreaFallback); found {
		if err := area.Click(); err == nil {
			d.Pacer.Pause(pacing.Short)
		}
	}

	editor, found := page.WaitVisible(ctx, p, commentEditorStrategies, d.editorWait(), 0)
	if !found {
		return nil, failed(FailNotFound, "could not find comment field")
	}
	return editor, ok()
}

// typeComment enters the text one character at a time. A zero-length
// comment types nothing and proceeds straight to submit.
func (d *Driver) typeComment(editor page.Element, comment string) Outcome {
	if err := editor.Focus(); err != nil {
		return failed(FailInteraction, "focus comment field: %v", err)
	}
	d.Pacer.Pause(pacing.Short)
	if err := editor.ClearInput(); err != nil {
		return failed(FailInteraction, "clear comment field: %v", err)
	}
	for _, r := range comment {
		if err := editor.InputChar(r); err != nil {
			return failed(FailInteraction, "type comment: %v", err)
		}
		d.Pacer.Pause(pacing.Keystroke)
	}
	d.Pacer.Pause(pacing.Short)
	return ok()
}

func (d *Driver) submitComment(ctx context.Context, p page.Page) Outcome {
	el, found := page.WaitVisible(ctx, p, submitStrategies, d.submitWait(), 0)
	if !found {
		return failed(FailNotFound, "could not find or click submit button")
	}
	if err := el.Click(); err != nil {
		return failed(FailInteraction, "submit click failed: %v", err)
	}
	return ok()
}

func (d *Driver) record(rec ledger.ActionRecord) {
	if _, err := d.Ledger.Append(rec); err != nil {
		// The ledger cannot log its own failure; the operator log is
		// the only surface left, and the run continues regardless.
		d.log().Error("ledger append failed",
			zap.String("action_type", rec.ActionType),
			zap.Error(err))
	}
}

func (d *Driver) editorWait() time.Duration {
	if d.EditorWait > 0 {
		return d.EditorWait
	}
	return defaultEditorWait
}

func (d *Driver) submitWait() time.Duration {
	if d.SubmitWait > 0 {
		return d.SubmitWait
	}
	return defaultSubmitWait
}

func (d *Driver) log() *zap.Logger {
	if d.Log != nil {
		return d.Log
	}
	return zap.NewNop()
}
