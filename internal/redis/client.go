package redis

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	ipc "github.com/librescoot/redis-ipc"
)

const defaultPort = 6379

// Client wraps redis-ipc client
type Client struct {
	ipc  *ipc.Client
	addr string
	log  *slog.Logger
}

// NewClient creates a new Redis client using redis-ipc. addr is host, or
// host:port.
func NewClient(addr string, log *slog.Logger) (*Client, error) {
	host, port, err := splitAddr(addr)
	if err != nil {
		return nil, err
	}

	client, err := ipc.New(
		ipc.WithAddress(host),
		ipc.WithPort(port),
		ipc.WithCodec(ipc.StringCodec{}),
		ipc.WithOnDisconnect(func(err error) {
			if err != nil {
				log.Warn("redis disconnected", "error", err)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis-ipc client: %w", err)
	}

	return &Client{
		ipc:  client,
		addr: net.JoinHostPort(host, strconv.Itoa(port)),
		log:  log,
	}, nil
}

// Connect tests the connection to Redis
func (c *Client) Connect(ctx context.Context) error {
	if !c.ipc.Connected() {
		return fmt.Errorf("not connected to redis at %s", c.addr)
	}
	c.log.Info("connected to redis", "addr", c.addr)
	return nil
}

// Addr returns the normalized host:port
func (c *Client) Addr() string {
	return c.addr
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.ipc.Close()
}

func splitAddr(addr string) (string, int, error) {
	if addr == "" {
		return "localhost", defaultPort, nil
	}

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		// no port given
		return addr, defaultPort, nil
	}
	if host == "" {
		host = "localhost"
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid redis port %q", portStr)
	}
	return host, port, nil
}
