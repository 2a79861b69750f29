package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/datasteward/steward/internal/infra/logger"
)

// DefaultRefreshInterval is how long a fetched credential is trusted
const DefaultRefreshInterval = 900 * time.Second

// CredentialSource yields the secret used to open the pool
type CredentialSource interface {
	Credential(ctx context.Context) (string, error)
}

// StaticCredential is a fixed password
type StaticCredential string

func (c StaticCredential) Credential(context.Context) (string, error) {
	return string(c), nil
}

// FileCredential re-reads a password or token file on every refresh
type FileCredential struct {
	Path string
}

func (c FileCredential) Credential(context.Context) (string, error) {
	b, err := os.ReadFile(c.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read credential file: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// PoolOptions tunes the pool opened by the provider
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// RefreshInterval of zero never refreshes
	RefreshInterval time.Duration
}

// PoolProvider owns the shared connection pool. It reopens the pool with a
// fresh credential once the current one is older than the refresh interval.
type PoolProvider struct {
	driver  string
	dsn     func(credential string) string
	creds   CredentialSource
	options PoolOptions
	log     logger.Logger

	open func(driver, dsn string) (*sql.DB, error)
	now  func() time.Time

	mu        sync.Mutex
	db        *sql.DB
	fetchedAt time.Time
	closed    bool
	// leases counts holders per pool; a replaced pool that is still leased
	// is retired and closed by its last release
	leases  map[*sql.DB]int
	retired map[*sql.DB]struct{}
}

// NewPoolProvider creates a provider; the pool is opened on first use
func NewPoolProvider(driver string, dsn func(credential string) string, creds CredentialSource, options PoolOptions, log logger.Logger) *PoolProvider {
	if creds == nil {
		creds = StaticCredential("")
	}
	return &PoolProvider{
		driver:  driver,
		dsn:     dsn,
		creds:   creds,
		options: options,
		log:     log,
		open:    sql.Open,
		now:     time.Now,
		leases:  make(map[*sql.DB]int),
		retired: make(map[*sql.DB]struct{}),
	}
}

// DB returns the current pool, refreshing it first when the credential is stale
func (p *PoolProvider) DB(ctx context.Context) (*sql.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current(ctx)
}

// Lease returns the current pool and pins it until release is called
func (p *PoolProvider) Lease(ctx context.Context) (*sql.DB, func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	db, err := p.current(ctx)
	if err != nil {
		return nil, nil, err
	}
	p.leases[db]++

	var once sync.Once
	release := func() {
		once.Do(func() { p.release(db) })
	}
	return db, release, nil
}

func (p *PoolProvider) release(db *sql.DB) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.leases[db]--
	if p.leases[db] > 0 {
		return
	}
	delete(p.leases, db)
	if _, ok := p.retired[db]; !ok {
		return
	}
	delete(p.retired, db)
	if err := db.Close(); err != nil {
		p.log.Warn(context.Background(), "Failed to close retired pool", map[string]interface{}{"error": err.Error()})
	}
}

func (p *PoolProvider) current(ctx context.Context) (*sql.DB, error) {
	if p.closed {
		return nil, errors.New("connection provider is closed")
	}
	if p.db != nil && !p.stale() {
		return p.db, nil
	}
	if err := p.refresh(ctx); err != nil {
		return nil, err
	}
	return p.db, nil
}

func (p *PoolProvider) stale() bool {
	return p.options.RefreshInterval > 0 && p.now().Sub(p.fetchedAt) >= p.options.RefreshInterval
}

func (p *PoolProvider) refresh(ctx context.Context) error {
	credential, err := p.creds.Credential(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch credential: %w", err)
	}

	db, err := p.open(p.driver, p.dsn(credential))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if p.options.MaxOpenConns > 0 {
		db.SetMaxOpenConns(p.options.MaxOpenConns)
	}
	if p.options.MaxIdleConns > 0 {
		db.SetMaxIdleConns(p.options.MaxIdleConns)
	}
	if p.options.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(p.options.ConnMaxLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	old := p.db
	p.db = db
	p.fetchedAt = p.now()
	if old != nil {
		if p.leases[old] > 0 {
			p.retired[old] = struct{}{}
		} else if err := old.Close(); err != nil {
			p.log.Warn(ctx, "Failed to close previous pool", map[string]interface{}{"error": err.Error()})
		}
		p.log.Info(ctx, "Connection pool refreshed", map[string]interface{}{"driver": p.driver})
	} else {
		p.log.Info(ctx, "Database connection established", map[string]interface{}{"driver": p.driver})
	}
	return nil
}

// Close releases the pool. A pool still leased is closed by its last release.
func (p *PoolProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	if p.db == nil {
		return nil
	}
	db := p.db
	p.db = nil
	if p.leases[db] > 0 {
		p.retired[db] = struct{}{}
		return nil
	}
	return db.Close()
}
