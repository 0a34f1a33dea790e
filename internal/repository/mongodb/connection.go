package mongodb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/dtroode/usergraph/internal/model"
)

// Connection owns the process-wide MongoDB client.
// The handle is assigned only by Connect and cleared only by Close.
type Connection struct {
	uri            string
	database       string
	connectTimeout time.Duration

	mu     sync.RWMutex
	client *mongo.Client
	db     *mongo.Database
}

func NewConnection(uri, database string, connectTimeout time.Duration) *Connection {
	return &Connection{
		uri:            uri,
		database:       database,
		connectTimeout: connectTimeout,
	}
}

// Connect establishes the connection and verifies it with a ping.
// Calling it again returns the existing handle.
func (c *Connection) Connect(ctx context.Context) (*mongo.Database, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return c.db, nil
	}
	if c.uri == "" {
		return nil, model.ErrNotConfigured
	}

	if c.connectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.connectTimeout)
		defer cancel()
	}

	opts := options.Client().ApplyURI(c.uri)
	if c.connectTimeout > 0 {
		opts.SetConnectTimeout(c.connectTimeout).SetServerSelectionTimeout(c.connectTimeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	c.client = client
	c.db = client.Database(c.database)

	return c.db, nil
}

// Database returns the active handle or model.ErrNotConnected.
func (c *Connection) Database() (*mongo.Database, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.db == nil {
		return nil, model.ErrNotConnected
	}
	return c.db, nil
}

// Close releases the client. It is a no-op when not connected.
func (c *Connection) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}

	err := c.client.Disconnect(ctx)
	c.client = nil
	c.db = nil
	if err != nil {
		return fmt.Errorf("failed to disconnect from mongodb: %w", err)
	}
	return nil
}

func (c *Connection) Ping(ctx context.Context) error {
	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()

	if client == nil {
		return model.ErrNotConnected
	}
	return client.Ping(ctx, readpref.Primary())
}
