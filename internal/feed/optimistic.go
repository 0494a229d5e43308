package feed

import "alignment-feed-bff/internal/domain"

// FeedbackMutation names one of the per-article feedback flags.
type FeedbackMutation string

const (
	MutationThumbsUp   FeedbackMutation = "thumbs_up"
	MutationThumbsDown FeedbackMutation = "thumbs_down"
	MutationRead       FeedbackMutation = "read"
)

// PendingFeedback is an optimistically applied feedback mutation: the
// article already shows the new value while the server call is in
// flight, and the snapshot restores the old value if the call fails.
type PendingFeedback struct {
	snapshot domain.Article
	applied  domain.Article
}

// Begin applies the mutation locally and captures a snapshot for
// rollback. Last write wins; there is no merging with concurrent
// mutations of the same article.
func Begin(article domain.Article, mutation FeedbackMutation, value bool) PendingFeedback {
	applied := article
	switch mutation {
	case MutationThumbsUp:
		applied.ThumbsUp = &value
		if value {
			// Mutually exclusive with thumbs down, mirroring the upstream.
			f := false
			applied.ThumbsDown = &f
		}
	case MutationThumbsDown:
		applied.ThumbsDown = &value
		if value {
			f := false
			applied.ThumbsUp = &f
		}
	case MutationRead:
		applied.HaveRead = &value
	}
	return PendingFeedback{snapshot: article, applied: applied}
}

// Article returns the optimistically mutated article to display while
// the server call is pending.
func (p PendingFeedback) Article() domain.Article {
	return p.applied
}

// Resolve finishes the mutation: a nil err commits the applied value, a
// non-nil err reverts to the pre-mutation snapshot.
func (p PendingFeedback) Resolve(err error) domain.Article {
	if err != nil {
		return p.snapshot
	}
	return p.applied
}
