package docstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/famiglia/ops-console/pkg/config"
	"github.com/famiglia/ops-console/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"golang.org/x/sync/singleflight"
)

const dialKey = "mongo-client"

// DialFunc opens and verifies a client connection.
type DialFunc func(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error)

// Provider hands out one process-wide Mongo client. The first caller dials;
// concurrent callers wait on the same dial. A successful client is kept until
// Close, a failed dial is forgotten so the next caller retries.
type Provider struct {
	cfg  config.MongoConfig
	dial DialFunc
	logg *logger.Logger

	group singleflight.Group

	mu     sync.RWMutex
	client *mongo.Client
}

type Option func(*Provider)

// WithDialFunc replaces the driver dial, mainly for tests.
func WithDialFunc(dial DialFunc) Option {
	return func(p *Provider) {
		if dial != nil {
			p.dial = dial
		}
	}
}

func NewProvider(cfg config.MongoConfig, logg *logger.Logger, opts ...Option) *Provider {
	p := &Provider{
		cfg:  cfg,
		dial: Dial,
		logg: logg,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Client returns the shared client, dialing on first use.
func (p *Provider) Client(ctx context.Context) (*mongo.Client, error) {
	if client := p.current(); client != nil {
		return client, nil
	}

	resultChan := p.group.DoChan(dialKey, func() (interface{}, error) {
		if client := p.current(); client != nil {
			return client, nil
		}

		// Detached from the caller: other waiters share this dial.
		dialCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.connectTimeout())
		defer cancel()

		client, err := p.dial(dialCtx, p.cfg)
		if err != nil {
			if p.logg != nil {
				p.logg.WarnErr(ctx, "mongo dial failed", err)
			}
			return nil, err
		}

		p.mu.Lock()
		p.client = client
		p.mu.Unlock()

		if p.logg != nil {
			p.logg.Info(ctx, "mongo connection established")
		}
		return client, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*mongo.Client), nil
	}
}

// Database returns the configured database handle.
func (p *Provider) Database(ctx context.Context) (*mongo.Database, error) {
	client, err := p.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Database(p.cfg.Database), nil
}

// Collection returns a handle on the named collection of the configured database.
func (p *Provider) Collection(ctx context.Context, name string) (*mongo.Collection, error) {
	db, err := p.Database(ctx)
	if err != nil {
		return nil, err
	}
	return db.Collection(name), nil
}

// Ping dials if needed and checks the primary is reachable.
func (p *Provider) Ping(ctx context.Context) error {
	client, err := p.Client(ctx)
	if err != nil {
		return err
	}
	return client.Ping(ctx, readpref.Primary())
}

// Close disconnects the shared client, if one was ever established.
func (p *Provider) Close(ctx context.Context) error {
	p.mu.Lock()
	client := p.client
	p.client = nil
	p.mu.Unlock()

	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

func (p *Provider) current() *mongo.Client {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.client
}

func (p *Provider) connectTimeout() time.Duration {
	if p.cfg.ConnectTimeout > 0 {
		return p.cfg.ConnectTimeout
	}
	return 10 * time.Second
}

// Dial connects with the driver and pings the primary so that a bad URI or an
// unreachable cluster fails here instead of on the first query.
func Dial(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName("ops-console").
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}
	return client, nil
}
