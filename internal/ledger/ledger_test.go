package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendAssignsIncreasingIDs(t *testing.T) {
	s := openTestStore(t)

	var last int64
	for i := 0; i < 5; i++ {
		id, err := s.Append(ActionRecord{
			SubjectText: "Post",
			ActionType:  ActionPostUpvoted,
			Success:     true,
			Community:   "golf",
		})
		require.NoError(t, err)
		require.Greater(t, id, last)
		last = id
	}
}

func TestAppendDefaultsPlatform(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Append(ActionRecord{SubjectText: "x", ActionType: ActionUpvoteFailed})
	require.NoError(t, err)

	counts, err := s.AggregateCounts(context.Background(), Filter{})
	require.NoError(t, err)
	require.Contains(t, counts, PlatformReddit)
}

func TestWasActedOn(t *testing.T) {
	s := openTestStore(t)

	acted, err := s.WasActedOn("Post A", "community1")
	require.NoError(t, err)
	require.False(t, acted)

	_, err = s.Append(ActionRecord{
		SubjectText: "Post A",
		ActionType:  ActionCommentPosted,
		Success:     true,
		CommentText: "nice",
		Community:   "community1",
	})
	require.NoError(t, err)

	acted, err = s.WasActedOn("Post A", "community1")
	require.NoError(t, err)
	require.True(t, acted)

	// Different community is not a match.
	acted, err = s.WasActedOn("Post A", "community2")
	require.NoError(t, err)
	require.False(t, acted)
}

func TestWasActedOnIgnoresFailures(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Append(ActionRecord{
		SubjectText: "Post B",
		ActionType:  ActionCommentPosted,
		Success:     false,
		Error:       "submit button not found",
		Community:   "golf",
	})
	require.NoError(t, err)

	acted, err := s.WasActedOn("Post B", "golf")
	require.NoError(t, err)
	require.False(t, acted)
}

func TestWasActedOnQualifyingTypes(t *testing.T) {
	s := openTestStore(t)

	// An upvote alone does not mark a thread as engaged.
	_, err := s.Append(ActionRecord{
		SubjectText: "Post C",
		ActionType:  ActionPostUpvoted,
		Success:     true,
		Community:   "golf",
	})
	require.NoError(t, err)

	acted, err := s.WasActedOn("Post C", "golf")
	require.NoError(t, err)
	require.False(t, acted)

	// A generated comment does, even before posting succeeds.
	_, err = s.Append(ActionRecord{
		SubjectText: "Post C",
		ActionType:  ActionCommentGenerated,
		Success:     true,
		CommentText: "solid take",
		Community:   "golf",
	})
	require.NoError(t, err)

	acted, err = s.WasActedOn("Post C", "golf")
	require.NoError(t, err)
	require.True(t, acted)
}

func TestWasActedOnExactMatch(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Append(ActionRecord{
		SubjectText: "Post D",
		ActionType:  ActionCommentPosted,
		Success:     true,
		Community:   "golf",
	})
	require.NoError(t, err)

	// No normalization: whitespace variants bypass the filter.
	acted, err := s.WasActedOn("Post D ", "golf")
	require.NoError(t, err)
	require.False(t, acted)
}

func TestAggregateCounts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.Append(ActionRecord{SubjectText: "a", ActionType: ActionPostUpvoted, Success: true, Community: "golf"})
		require.NoError(t, err)
	}
	_, err := s.Append(ActionRecord{SubjectText: "b", ActionType: ActionCommentPosted, Success: true, Community: "golf"})
	require.NoError(t, err)

	counts, err := s.AggregateCounts(ctx, Filter{})
	require.NoError(t, err)
	require.Equal(t, 3, counts[PlatformReddit][ActionPostUpvoted])
	require.Equal(t, 1, counts[PlatformReddit][ActionCommentPosted])

	counts, err = s.AggregateCounts(ctx, Filter{ActionType: ActionCommentPosted})
	require.NoError(t, err)
	require.Len(t, counts[PlatformReddit], 1)

	counts, err = s.AggregateCounts(ctx, Filter{Platform: "Twitter"})
	require.NoError(t, err)
	require.Empty(t, counts)
}

func TestRecentComments(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Append(ActionRecord{SubjectText: "first", ActionType: ActionCommentGenerated, Success: true, CommentText: "c1", Community: "golf"})
	require.NoError(t, err)
	_, err = s.Append(ActionRecord{SubjectText: "second", ActionType: ActionCommentPosted, Success: true, CommentText: "c2", Community: "SaaS"})
	require.NoError(t, err)
	// Non-comment actions are excluded from the feed.
	_, err = s.Append(ActionRecord{SubjectText: "third", ActionType: ActionPostUpvoted, Success: true, Community: "golf"})
	require.NoError(t, err)

	recs, err := s.RecentComments(ctx, Filter{}, 50)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "second", recs[0].PostTitle)
	require.Equal(t, "first", recs[1].PostTitle)
	require.Equal(t, "SaaS", recs[0].Community)

	recs, err = s.RecentComments(ctx, Filter{}, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "second", recs[0].PostTitle)
}
