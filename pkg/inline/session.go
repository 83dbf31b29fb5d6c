package inline

import (
	"context"
	"errors"
	"strings"

	"github.com/joeblew999/plat-proposal/pkg/proposal"
)

// Session memoizes resolutions for the length of one export, so a source that
// appears several times in a document is resolved once. A Session is not safe
// for concurrent use.
type Session struct {
	in      *Inliner
	results map[string]sessionEntry
}

type sessionEntry struct {
	res Result
	err error
}

// NewSession starts a memoizing session over in.
func (in *Inliner) NewSession() *Session {
	return &Session{in: in, results: make(map[string]sessionEntry)}
}

// Inline resolves ref, reusing an earlier result for the same source and
// asset key. A reused failure is reported under ref's own kind. Cancellation
// errors are never memoized.
func (s *Session) Inline(ctx context.Context, ref proposal.ImageRef) (Result, error) {
	key := strings.TrimSpace(ref.Src) + "\x00" + strings.TrimSpace(ref.AssetKey)
	if e, ok := s.results[key]; ok {
		return e.res, withKind(e.err, ref.EffectiveKind())
	}
	res, err := s.in.Inline(ctx, ref)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return res, err
	}
	s.results[key] = sessionEntry{res: res, err: err}
	return res, err
}

// InlineBackground is Inliner.InlineBackground with per-session memoization.
func (s *Session) InlineBackground(ctx context.Context, css, assetKey string) Background {
	return rewriteBackground(ctx, css, assetKey, s.Inline)
}

func withKind(err error, kind proposal.ImageKind) error {
	var assetErr *AssetError
	if !errors.As(err, &assetErr) || assetErr.Kind == string(kind) {
		return err
	}
	relabeled := *assetErr
	relabeled.Kind = string(kind)
	return &relabeled
}

// Len returns the number of distinct sources resolved so far.
func (s *Session) Len() int {
	return len(s.results)
}

// InlineURL inlines a bare image URL within the session.
func (s *Session) InlineURL(ctx context.Context, raw string) (Result, error) {
	return s.Inline(ctx, proposal.ImageRef{Src: raw, Kind: proposal.KindImage})
}
