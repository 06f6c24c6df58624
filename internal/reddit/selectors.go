package reddit

import (
	"strings"

	"threadpulse/internal/page"
)

// Reddit ships markup changes without notice, so every lookup goes
// through an ordered fallback chain: earlier strategies are the selectors
// that currently work, later ones are progressively looser nets that
// survived past redesigns. First visible match wins.

var cookieBannerStrategies = []page.Strategy{
	{Selector: "button[data-testid='cookie-banner-accept']"},
	{Selector: "button", Text: "Accept All|I Accept|Accept"},
}

var upvoteStrategies = []page.Strategy{
	{Selector: "button[upvote]", Accept: isUpvoteControl},
	{Selector: "button[aria-pressed='false']", Accept: isUpvoteControl},
	{Selector: "button", Text: "Upvote", Accept: isUpvoteControl},
	{Selector: "button[class*='upvote']", Accept: isUpvoteControl},
	{Selector: "button[class*='button-secondary']", Accept: isUpvoteControl},
}

var commentTriggerStrategies = []page.Strategy{
	{Selector: "faceplate-textarea-input[data-testid='trigger-button']"},
	{Selector: "faceplate-textarea-input[placeholder*='Join the conversation']"},
	{Selector: "div[data-testid='trigger-button']"},
	{Selector: "textarea[placeholder*='Join the conversation']"},
	{Selector: "input[placeholder*='Join the conversation']"},
}

// commentAreaFallback is the last resort when no trigger control matches:
// click anything that looks like the comment region to wake the editor.
var commentAreaFallback = []page.Strategy{
	{Selector: "div[class*='comment'], div[class*='reply'], div[class*='textarea'], div[class*='input']"},
}

var commentEditorStrategies = []page.Strategy{
	{Selector: "div[contenteditable='true'][role='textbox']"},
	{Selector: "div[data-lexical-editor='true'][contenteditable='true']"},
	{Selector: "div[role='textbox'][contenteditable='true']"},
	{Selector: "div[contenteditable='true']"},
	{Selector: "shreddit-composer div[contenteditable='true']"},
	{Selector: "div[data-testid='comment-rich-text-editor'] div[contenteditable='true']"},
	{Selector: "*[contenteditable='true']"},
	{Selector: "div[role='textbox']"},
}

var submitStrategies = []page.Strategy{
	{Selector: "button[slot='submit-button']"},
	{Selector: "button[type='submit']", Text: "Comment"},
	{Selector: "button", Text: "Comment"},
	{Selector: "button[data-testid='comment-submit']"},
	{Selector: "button[type='submit']"},
}

// threadListStrategies detect that a community page has rendered its
// thread list at all.
var threadListStrategies = []page.Strategy{
	{Selector: "shreddit-post"},
}

// isUpvoteControl filters the looser upvote selectors down to buttons
// that actually look like an unpressed upvote arrow.
func isUpvoteControl(el page.Element) bool {
	if txt, err := el.Text(); err == nil && strings.Contains(strings.ToLower(txt), "upvote") {
		return true
	}
	if v, ok := el.Attr("aria-pressed"); ok && v == "false" {
		return true
	}
	if cls, ok := el.Attr("class"); ok && strings.Contains(strings.ToLower(cls), "upvote") {
		return true
	}
	return false
}
