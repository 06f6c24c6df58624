// Package reddit drives the single supported platform: it collects
// candidate threads from a community page, picks one, and performs the
// upvote-and-comment interaction sequence against it, logging every
// attempted sub-step to the action ledger.
package reddit

import "strings"

// BaseURL is the platform root used to absolutize relative thread links.
const BaseURL = "https://www.reddit.com"

// CandidateThread is a thread eligible for engagement. Identity is the
// visible title text plus the community name; reddit's stable post ids are
// not part of the contract.
type CandidateThread struct {
	Title string
	Link  string
}

// AbsoluteURL returns the thread link with the platform root prefixed
// when the collected href was relative.
func (t CandidateThread) AbsoluteURL() string {
	if strings.HasPrefix(t.Link, "http") {
		return t.Link
	}
	return BaseURL + t.Link
}

// CommunityURL returns the landing page for a community.
func CommunityURL(base, community string) string {
	if base == "" {
		base = BaseURL
	}
	return base + "/r/" + community + "/"
}
