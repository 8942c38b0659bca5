// Package publish defines the collaborator that pushes approved content to
// LinkedIn. No implementation ships with this repository; the facade treats
// an unconfigured publisher as a client error rather than a crash.
package publish

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by every method of the zero publisher.
var ErrNotConfigured = errors.New("publish: no publisher configured")

// PostResult is a search hit when looking for posts to comment on.
type PostResult struct {
	URL     string `json:"url"`
	Author  string `json:"author"`
	Content string `json:"content"`
}

// Publisher performs the externally visible LinkedIn actions. Callers must
// clear the safety monitor before every call and record the outcome after.
type Publisher interface {
	// PublishPost publishes a post, optionally with a media asset, and
	// reports whether the attempt succeeded.
	PublishPost(ctx context.Context, content, assetPath string) (bool, error)
	// PublishComment publishes a comment under the given post URL.
	PublishComment(ctx context.Context, postURL, text string) (bool, error)
	// LatestPostURL returns the URL of the author's most recent live post.
	LatestPostURL(ctx context.Context) (string, error)
	// SearchPosts finds posts matching a query, for comment targeting.
	SearchPosts(ctx context.Context, query string, limit int) ([]PostResult, error)
}

// Unconfigured is the stand-in used when no publisher is wired. Every
// method fails with ErrNotConfigured.
type Unconfigured struct{}

var _ Publisher = Unconfigured{}

func (Unconfigured) PublishPost(context.Context, string, string) (bool, error) {
	return false, ErrNotConfigured
}

func (Unconfigured) PublishComment(context.Context, string, string) (bool, error) {
	return false, ErrNotConfigured
}

func (Unconfigured) LatestPostURL(context.Context) (string, error) {
	return "", ErrNotConfigured
}

func (Unconfigured) SearchPosts(context.Context, string, int) ([]PostResult, error) {
	return nil, ErrNotConfigured
}
