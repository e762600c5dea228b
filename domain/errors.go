package domain

import (
	"errors"
)

var (
	// ErrDuplicateArticle signals that an article with the same fingerprint
	// already exists. Callers treat this as a normal skip, not a failure.
	ErrDuplicateArticle = errors.New("article already exists")

	// ErrArticleNotFound signals that an article disappeared between being
	// queued and being processed. Logged and abandoned, never retried.
	ErrArticleNotFound = errors.New("article not found")

	// ErrStorylineNotFound signals a storyline vanished before an update.
	ErrStorylineNotFound = errors.New("storyline not found")

	// ErrDuplicateDispatch signals a notification was already enqueued for
	// the (alert, article) pair.
	ErrDuplicateDispatch = errors.New("notification already dispatched")

	// ErrMalformedLLMResponse signals the model returned output that does not
	// parse into the expected shape. Retryable at the call site.
	ErrMalformedLLMResponse = errors.New("malformed model response")

	// ErrFeedUnavailable signals a feed could not be fetched or parsed.
	// The collection cycle logs it and moves on to the next feed.
	ErrFeedUnavailable = errors.New("feed unavailable")
)
