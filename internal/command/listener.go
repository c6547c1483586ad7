package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// CommandList is the Redis list commands are pushed to
const CommandList = "scooter:mma7660"

const (
	popTimeout     = 5 * time.Second
	consumerName   = "command"
	publishTimeout = 2 * time.Second
)

// Consumers interface for device reference counting
type Consumers interface {
	Acquire(consumer string)
	Release(consumer string)
}

// Settings interface for applying configuration
type Settings interface {
	Set(field, value string) error
}

// Diagnostics interface for the stat dump
type Diagnostics interface {
	Dump() (string, error)
}

// StatPublisher stores the stat dump
type StatPublisher interface {
	PublishStat(ctx context.Context, stat string) error
}

// Listener executes commands pushed to CommandList
type Listener struct {
	redis     *redis.Client
	consumers Consumers
	settings  Settings
	diag      Diagnostics
	stat      StatPublisher
	log       *slog.Logger
}

// NewListener creates a new command listener
func NewListener(
	redisAddr string,
	consumers Consumers,
	settings Settings,
	diag Diagnostics,
	stat StatPublisher,
	log *slog.Logger,
) (*Listener, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
		DB:   0,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Listener{
		redis:     rdb,
		consumers: consumers,
		settings:  settings,
		diag:      diag,
		stat:      stat,
		log:       log,
	}, nil
}

// Close closes the listener
func (l *Listener) Close() error {
	return l.redis.Close()
}

// ListenForCommands listens for commands on CommandList until ctx is done
func (l *Listener) ListenForCommands(ctx context.Context) {
	l.log.Info("starting command listener", "list", CommandList)

	for {
		select {
		case <-ctx.Done():
			return

		default:
			result, err := l.redis.BRPop(ctx, popTimeout, CommandList).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
					continue
				}
				l.log.Error("error reading from command list", "list", CommandList, "error", err)
				// avoid spinning while redis is down
				select {
				case <-ctx.Done():
				case <-time.After(time.Second):
				}
				continue
			}

			if len(result) >= 2 {
				cmd := result[1]
				l.log.Info("received command", "command", cmd)
				if err := l.handleCommand(ctx, cmd); err != nil {
					l.log.Error("command failed", "command", cmd, "error", err)
				}
			}
		}
	}
}

// handleCommand handles a command string
func (l *Listener) handleCommand(ctx context.Context, cmd string) error {
	cmd = strings.TrimSpace(cmd)

	switch cmd {
	case "acquire":
		l.consumers.Acquire(consumerName)
		return nil

	case "release":
		l.consumers.Release(consumerName)
		return nil

	case "dump":
		stat, err := l.diag.Dump()
		if err != nil {
			return fmt.Errorf("dump: %w", err)
		}
		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()
		return l.stat.PublishStat(pubCtx, stat)
	}

	if rest, ok := strings.CutPrefix(cmd, "set:"); ok {
		field, value, found := strings.Cut(rest, ":")
		if !found {
			return fmt.Errorf("invalid set command %q, expected set:<field>:<value>", cmd)
		}
		return l.settings.Set(field, value)
	}

	return fmt.Errorf("unknown command %q", cmd)
}
