package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rentalhub/marketplace-gate/internal/core/domain"
)

type stubProfileRepo struct {
	profiles map[string]*domain.UserProfile
	err      error
	calls    atomic.Int32
	gate     chan struct{}
}

func (r *stubProfileRepo) FindByID(_ context.Context, id string) (*domain.UserProfile, error) {
	r.calls.Add(1)
	if r.gate != nil {
		<-r.gate
	}
	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.profiles[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return p, nil
}

type stubProfileCache struct {
	mu      sync.Mutex
	entries map[string]*domain.UserProfile
	getErr  error
	ttls    []time.Duration
	deleted []string
}

func newStubProfileCache() *stubProfileCache {
	return &stubProfileCache{entries: make(map[string]*domain.UserProfile)}
}

func (c *stubProfileCache) Get(_ context.Context, id string) (*domain.UserProfile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.entries[id], nil
}

func (c *stubProfileCache) Set(_ context.Context, p *domain.UserProfile, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[p.ID] = p
	c.ttls = append(c.ttls, ttl)
	return nil
}

func (c *stubProfileCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	c.deleted = append(c.deleted, id)
	return nil
}

type countingProfileMetrics struct {
	mu    sync.Mutex
	cache map[string]int
	fetch map[string]int
}

func newCountingProfileMetrics() *countingProfileMetrics {
	return &countingProfileMetrics{cache: map[string]int{}, fetch: map[string]int{}}
}

func (m *countingProfileMetrics) CacheResult(r string) {
	m.mu.Lock()
	m.cache[r]++
	m.mu.Unlock()
}

func (m *countingProfileMetrics) FetchResult(r string) {
	m.mu.Lock()
	m.fetch[r]++
	m.mu.Unlock()
}

func seededProfileRepo() *stubProfileRepo {
	return &stubProfileRepo{profiles: map[string]*domain.UserProfile{
		"u1": {ID: "u1", Email: "owner@rentals.test", Role: domain.RoleOwner},
	}}
}

func TestProfileService_MissThenHit(t *testing.T) {
	repo := seededProfileRepo()
	cache := newStubProfileCache()
	metrics := newCountingProfileMetrics()
	svc := NewProfileService(repo, cache, 30*time.Second, metrics, zerolog.Nop())

	for i := 0; i < 3; i++ {
		p, err := svc.GetProfile(context.Background(), "u1")
		if err != nil {
			t.Fatalf("GetProfile() error = %v", err)
		}
		if p.Email != "owner@rentals.test" {
			t.Fatalf("unexpected profile %+v", p)
		}
	}

	if got := repo.calls.Load(); got != 1 {
		t.Fatalf("expected 1 repository read, got %d", got)
	}
	if len(cache.ttls) != 1 || cache.ttls[0] != 30*time.Second {
		t.Fatalf("expected one cache write with 30s ttl, got %v", cache.ttls)
	}
	if metrics.cache["miss"] != 1 || metrics.cache["hit"] != 2 {
		t.Fatalf("unexpected cache metrics %v", metrics.cache)
	}
}

func TestProfileService_NotFound(t *testing.T) {
	svc := NewProfileService(seededProfileRepo(), newStubProfileCache(), time.Minute, nil, zerolog.Nop())

	_, err := svc.GetProfile(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}

	_, err = svc.GetProfile(context.Background(), "")
	if !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound for empty subject, got %v", err)
	}
}

func TestProfileService_RepositoryErrorWrapped(t *testing.T) {
	repo := &stubProfileRepo{err: errors.New("connection reset")}
	svc := NewProfileService(repo, nil, time.Minute, nil, zerolog.Nop())

	_, err := svc.GetProfile(context.Background(), "u1")
	if err == nil || errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("expected wrapped repository error, got %v", err)
	}
}

func TestProfileService_CacheErrorFallsBack(t *testing.T) {
	cache := newStubProfileCache()
	cache.getErr = errors.New("redis down")
	svc := NewProfileService(seededProfileRepo(), cache, time.Minute, nil, zerolog.Nop())

	p, err := svc.GetProfile(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if p.ID != "u1" {
		t.Fatalf("unexpected profile %+v", p)
	}
}

func TestProfileService_CollapsesConcurrentMisses(t *testing.T) {
	repo := seededProfileRepo()
	repo.gate = make(chan struct{})
	svc := NewProfileService(repo, nil, 0, nil, zerolog.Nop())

	const callers = 8
	var wg sync.WaitGroup
	var started sync.WaitGroup
	errs := make(chan error, callers)
	started.Add(callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started.Done()
			_, err := svc.GetProfile(context.Background(), "u1")
			errs <- err
		}()
	}
	started.Wait()
	time.Sleep(20 * time.Millisecond)
	close(repo.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("GetProfile() error = %v", err)
		}
	}
	if got := repo.calls.Load(); got >= callers {
		t.Fatalf("expected concurrent misses to share reads, got %d reads", got)
	}
}

func TestProfileService_Invalidate(t *testing.T) {
	repo := seededProfileRepo()
	cache := newStubProfileCache()
	svc := NewProfileService(repo, cache, time.Minute, nil, zerolog.Nop())

	if _, err := svc.GetProfile(context.Background(), "u1"); err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if err := svc.Invalidate(context.Background(), "u1"); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if _, err := svc.GetProfile(context.Background(), "u1"); err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}

	if len(cache.deleted) != 1 || cache.deleted[0] != "u1" {
		t.Fatalf("expected u1 deleted from cache, got %v", cache.deleted)
	}
	if got := repo.calls.Load(); got != 2 {
		t.Fatalf("expected a fresh repository read after invalidation, got %d reads", got)
	}
}
