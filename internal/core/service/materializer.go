package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rentalhub/marketplace-gate/internal/core/domain"
	"github.com/rentalhub/marketplace-gate/internal/core/ports"
)

const defaultFetchTimeout = 5 * time.Second

// MaterializerOptions tunes a Materializer. Zero values are usable.
type MaterializerOptions struct {
	// Invalidator drops the fetcher's cached profile on logout.
	Invalidator ports.ProfileInvalidator

	// LoginPath is returned by Logout.
	LoginPath string

	// FetchTimeout bounds each profile fetch attempt.
	FetchTimeout time.Duration
}

// Materializer derives the "who am I" view from the credential store and the
// profile-fetch collaborator. The view is for display only and never feeds
// authorization.
type Materializer struct {
	store        ports.CredentialStore
	decoder      ports.CredentialDecoder
	fetcher      ports.ProfileFetcher
	invalidator  ports.ProfileInvalidator
	loginPath    string
	fetchTimeout time.Duration
	log          zerolog.Logger

	mu      sync.Mutex
	view    domain.SessionView
	raw     string
	subject string
	gen     uint64
	cancel  context.CancelFunc
	settled chan struct{}
	subs    map[uint64]func(domain.SessionView)
	nextSub uint64

	// publishMu orders deliveries; delivered is the newest generation sent.
	publishMu sync.Mutex
	delivered uint64
}

// NewMaterializer returns a Materializer in the anonymous state. Call Sync to
// read the credential store.
func NewMaterializer(
	store ports.CredentialStore,
	decoder ports.CredentialDecoder,
	fetcher ports.ProfileFetcher,
	opts MaterializerOptions,
	log zerolog.Logger,
) *Materializer {
	if opts.LoginPath == "" {
		opts.LoginPath = defaultLoginPath
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	return &Materializer{
		store:        store,
		decoder:      decoder,
		fetcher:      fetcher,
		invalidator:  opts.Invalidator,
		loginPath:    opts.LoginPath,
		fetchTimeout: opts.FetchTimeout,
		log:          log,
		view:         domain.AnonymousView(),
		subs:         make(map[uint64]func(domain.SessionView)),
	}
}

// View returns the current session view.
func (m *Materializer) View() domain.SessionView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}

// Subscribe registers fn to receive new views in generation order. A view
// superseded before delivery is skipped. fn must not call Sync or Logout. The
// returned function removes the subscription.
func (m *Materializer) Subscribe(fn func(domain.SessionView)) (cancel func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// Sync recomputes the view if the stored credential changed since the last
// call. A present, decodable credential starts a profile fetch bound to ctx;
// until it settles the view carries the decoded projection with IsLoading set.
func (m *Materializer) Sync(ctx context.Context) {
	raw, present := m.store.Get()
	if !present {
		raw = ""
	}

	m.mu.Lock()
	if raw == m.raw {
		m.mu.Unlock()
		return
	}
	m.stopFetchLocked()
	m.raw = raw
	m.subject = ""

	if raw == "" {
		gen, view := m.setLocked(domain.AnonymousView())
		m.mu.Unlock()
		m.publish(gen, view)
		return
	}

	cred, err := m.decoder.Decode(raw)
	if err != nil {
		m.log.Debug().Err(err).Msg("session credential not decodable, treating as anonymous")
		gen, view := m.setLocked(domain.AnonymousView())
		m.mu.Unlock()
		m.publish(gen, view)
		return
	}

	m.subject = cred.SubjectID
	projection := domain.ProjectCredential(cred)
	gen, view := m.setLocked(domain.SessionView{User: projection, IsLoading: true, IsAuthenticated: true})

	fetchCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.settled = make(chan struct{})
	m.mu.Unlock()

	m.publish(gen, view)
	go m.fetch(fetchCtx, gen, cred.SubjectID, projection)
}

// Wait blocks until no profile fetch is pending or ctx is done.
func (m *Materializer) Wait(ctx context.Context) error {
	for {
		m.mu.Lock()
		ch := m.settled
		m.mu.Unlock()
		if ch == nil {
			return nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Logout clears the credential, drops every piece of cached profile state and
// returns the anonymous entry path. Calling it while logged out is a no-op.
func (m *Materializer) Logout(ctx context.Context) string {
	raw, present := m.store.Get()
	if present {
		m.store.Clear()
	}

	m.mu.Lock()
	subject := m.subject
	if subject == "" && present {
		if cred, err := m.decoder.Decode(raw); err == nil {
			subject = cred.SubjectID
		}
	}
	wasAnonymous := m.raw == ""
	m.stopFetchLocked()
	m.raw = ""
	m.subject = ""
	gen, view := m.setLocked(domain.AnonymousView())
	m.mu.Unlock()

	if subject != "" && m.invalidator != nil {
		if err := m.invalidator.Invalidate(ctx, subject); err != nil {
			m.log.Warn().Err(err).Str("subject_id", subject).Msg("failed to invalidate cached profile")
		}
	}
	if !wasAnonymous {
		m.publish(gen, view)
	}
	return m.loginPath
}

func (m *Materializer) fetch(ctx context.Context, gen uint64, subject string, projection *domain.UserProfile) {
	profile, err := m.fetchOnce(ctx, subject)
	if err != nil && ctx.Err() == nil {
		m.log.Debug().Err(err).Str("subject_id", subject).Msg("profile fetch failed, retrying once")
		profile, err = m.fetchOnce(ctx, subject)
	}

	user := profile
	if err != nil || profile == nil {
		if err != nil && !errors.Is(err, context.Canceled) {
			m.log.Warn().Err(err).Str("subject_id", subject).Msg("profile fetch failed, using credential claims")
		}
		user = projection
	}

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	settledGen, view := m.setLocked(domain.SessionView{User: user, IsAuthenticated: true})
	m.stopFetchLocked()
	m.mu.Unlock()

	m.publish(settledGen, view)
}

func (m *Materializer) fetchOnce(ctx context.Context, subject string) (*domain.UserProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, m.fetchTimeout)
	defer cancel()
	return m.fetcher.GetProfile(ctx, subject)
}

// setLocked replaces the view and starts a new generation. m.mu must be held.
func (m *Materializer) setLocked(view domain.SessionView) (uint64, domain.SessionView) {
	m.gen++
	m.view = view
	return m.gen, view
}

// stopFetchLocked cancels the current fetch context and releases waiters.
func (m *Materializer) stopFetchLocked() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.settled != nil {
		close(m.settled)
		m.settled = nil
	}
}

// publish delivers the view of generation gen unless a newer one has already
// been delivered.
func (m *Materializer) publish(gen uint64, view domain.SessionView) {
	m.publishMu.Lock()
	defer m.publishMu.Unlock()
	if gen <= m.delivered {
		return
	}
	m.delivered = gen

	m.mu.Lock()
	subs := make([]func(domain.SessionView), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(view)
	}
}
