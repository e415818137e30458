package redisconn

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/semaphore"
)

var adminCommands = map[string]bool{
	"bgrewriteaof": true,
	"bgsave":       true,
	"config":       true,
	"debug":        true,
	"flushall":     true,
	"flushdb":      true,
	"monitor":      true,
	"replicaof":    true,
	"save":         true,
	"shutdown":     true,
	"slaveof":      true,
}

func isAdmin(cmd redis.Cmder) bool {
	name := cmd.Name()
	if adminCommands[name] {
		return true
	}
	return name == "client" && subcommand(cmd) == "kill"
}

// subcommand returns the lower-cased second argument of cmd, if any.
func subcommand(cmd redis.Cmder) string {
	args := cmd.Args()
	if len(args) < 2 {
		return ""
	}
	return strings.ToLower(fmt.Sprint(args[1]))
}

// adminGuard rejects administrative commands.
type adminGuard struct{}

func (adminGuard) DialHook(next redis.DialHook) redis.DialHook { return next }

func (adminGuard) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if isAdmin(cmd) {
			return reject(cmd)
		}
		return next(ctx, cmd)
	}
}

func (adminGuard) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		for _, cmd := range cmds {
			if isAdmin(cmd) {
				err := reject(cmd)
				for _, other := range cmds {
					if other != cmd {
						other.SetErr(err)
					}
				}
				return err
			}
		}
		return next(ctx, cmds)
	}
}

func reject(cmd redis.Cmder) error {
	err := fmt.Errorf("%w: %s", ErrAdminDisabled, strings.ToUpper(cmd.Name()))
	cmd.SetErr(err)
	return err
}

// handshakeCommands are issued by go-redis while it initialises a fresh
// connection, nested inside the command that triggered the dial. Counting
// them against the backlog would deadlock a small limit.
var handshakeCommands = map[string]bool{
	"auth":     true,
	"hello":    true,
	"readonly": true,
	"select":   true,
}

// handshakeClientSubcommands are the CLIENT forms go-redis sends during
// connection setup. Every other CLIENT call is counted.
var handshakeClientSubcommands = map[string]bool{
	"setinfo": true,
	"setname": true,
}

func isHandshake(cmd redis.Cmder) bool {
	name := cmd.Name()
	if name == "client" {
		return handshakeClientSubcommands[subcommand(cmd)]
	}
	return handshakeCommands[name]
}

// backlogLimiter bounds the number of commands in flight. Callers past the
// bound block until a slot frees up or their context ends.
type backlogLimiter struct {
	size int64
	sem  *semaphore.Weighted
}

func newBacklogLimiter(n int) *backlogLimiter {
	return &backlogLimiter{size: int64(n), sem: semaphore.NewWeighted(int64(n))}
}

func (l *backlogLimiter) DialHook(next redis.DialHook) redis.DialHook { return next }

func (l *backlogLimiter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if isHandshake(cmd) {
			return next(ctx, cmd)
		}
		if err := l.sem.Acquire(ctx, 1); err != nil {
			cmd.SetErr(err)
			return err
		}
		defer l.sem.Release(1)
		return next(ctx, cmd)
	}
}

func (l *backlogLimiter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		n := int64(0)
		for _, cmd := range cmds {
			if !isHandshake(cmd) {
				n++
			}
		}
		if n == 0 {
			return next(ctx, cmds)
		}
		if n > l.size {
			n = l.size
		}
		if err := l.sem.Acquire(ctx, n); err != nil {
			for _, cmd := range cmds {
				cmd.SetErr(err)
			}
			return err
		}
		defer l.sem.Release(n)
		return next(ctx, cmds)
	}
}

// Compile-time interface checks
var (
	_ redis.Hook = adminGuard{}
	_ redis.Hook = (*backlogLimiter)(nil)
)
