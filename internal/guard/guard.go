// Package guard gates protected commands on an authenticated session.
//
// A Guard is mounted once per protected view. If the session is anonymous it
// asks the server who the user is, exactly once, using the cookies the
// client already holds. Until that settles the guard reports Pending; it
// never lets protected content through while an operation is loading.
package guard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/aussiebroadwan/jobboard/internal/session"
	"github.com/aussiebroadwan/jobboard/pkg/boardsdk"
)

// DefaultLoginPath is where anonymous users are sent.
const DefaultLoginPath = "/login"

// Decision is the guard's verdict.
type Decision int

const (
	Pending Decision = iota
	Allow
	Redirect
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Outcome is a Decision plus, for Redirect, where to go. Replace means the
// protected location is replaced in history rather than pushed.
type Outcome struct {
	Decision Decision
	To       string
	Replace  bool
}

// Decide is the pure guard rule.
func Decide(s session.Session, rehydrating bool, loginPath string) Outcome {
	switch {
	case s.Loading || rehydrating:
		return Outcome{Decision: Pending}
	case s.IsAuthenticated:
		return Outcome{Decision: Allow}
	default:
		return Outcome{Decision: Redirect, To: loginPath, Replace: true}
	}
}

// Source is the session store as seen by a guard.
type Source interface {
	State() session.Session
	Subscribe() (<-chan session.Session, func())
	GetCurrentUser(ctx context.Context) (*boardsdk.UserProfile, error)
}

// RedirectError is returned by Require when the session is not
// authenticated.
type RedirectError struct {
	To string
}

func (e *RedirectError) Error() string {
	return "authentication required: continue at " + e.To
}

// ErrLoginRequired matches any *RedirectError with errors.Is.
var ErrLoginRequired = errors.New("guard: login required")

func (e *RedirectError) Is(target error) bool { return target == ErrLoginRequired }

// Option configures a Guard.
type Option func(*Guard)

// WithLoginPath overrides DefaultLoginPath.
func WithLoginPath(path string) Option {
	return func(g *Guard) { g.loginPath = path }
}

// WithLogger sets the logger used for suppressed rehydration failures.
func WithLogger(l *slog.Logger) Option {
	return func(g *Guard) { g.logger = l }
}

// Guard protects one view.
type Guard struct {
	src       Source
	loginPath string
	logger    *slog.Logger

	mount       sync.Once
	rehydrating atomic.Bool
	done        chan struct{}
}

// New creates an unmounted guard over src.
func New(src Source, opts ...Option) *Guard {
	g := &Guard{
		src:       src,
		loginPath: DefaultLoginPath,
		logger:    slog.Default(),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Mount starts rehydration if the session needs it. Only the first call has
// any effect. ctx bounds the rehydration request.
func (g *Guard) Mount(ctx context.Context) {
	g.mount.Do(func() {
		st := g.src.State()
		if st.IsAuthenticated && !st.Loading {
			close(g.done)
			return
		}

		g.rehydrating.Store(true)
		go g.rehydrate(ctx)
	})
}

func (g *Guard) rehydrate(ctx context.Context) {
	defer func() {
		g.rehydrating.Store(false)
		close(g.done)
	}()

	st, err := g.settled(ctx)
	if err != nil || st.IsAuthenticated {
		return
	}

	if _, err := g.src.GetCurrentUser(ctx); err != nil {
		g.logger.Debug("rehydration failed", "error", err)
	}
}

// settled waits until no operation is loading.
func (g *Guard) settled(ctx context.Context) (session.Session, error) {
	updates, cancel := g.src.Subscribe()
	defer cancel()

	st := g.src.State()
	for st.Loading {
		select {
		case next, ok := <-updates:
			if !ok {
				return g.src.State(), errors.New("guard: session closed")
			}
			st = next
		case <-ctx.Done():
			return st, ctx.Err()
		}
	}
	return st, nil
}

// Outcome is the current verdict.
func (g *Guard) Outcome() Outcome {
	return Decide(g.src.State(), g.rehydrating.Load(), g.loginPath)
}

// Await blocks until the verdict is no longer Pending.
func (g *Guard) Await(ctx context.Context) (Outcome, error) {
	updates, cancel := g.src.Subscribe()
	defer cancel()

	done := g.done
	for {
		out := g.Outcome()
		if out.Decision != Pending {
			return out, nil
		}

		select {
		case _, ok := <-updates:
			if !ok {
				return g.Outcome(), errors.New("guard: session closed")
			}
		case <-done:
			done = nil
		case <-ctx.Done():
			return out, ctx.Err()
		}
	}
}

// Require mounts the guard, waits, and returns a *RedirectError unless the
// session is authenticated.
func (g *Guard) Require(ctx context.Context) error {
	g.Mount(ctx)

	out, err := g.Await(ctx)
	if err != nil {
		return err
	}
	if out.Decision != Allow {
		return &RedirectError{To: out.To}
	}
	return nil
}
