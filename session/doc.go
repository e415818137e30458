// Package session holds a single lazily opened Redis connection per Session
// and reopens it when it has been closed.
//
// GetConnection is the only call that creates or opens connections. It runs
// under one mutex shared by every Session in the process, held for the whole
// call including the wait for a connection to open, so no two connections
// are ever opened concurrently. The decision it makes depends on the held
// handle:
//
//	none              create from freshly resolved settings, then open
//	opening           return it; an open is already in flight
//	closing, closed   create a replacement, then open
//	new               open and wait
//	open              return it
//
// Transport faults while creating a replacement or opening are returned as
// *ConnectionError. IsAvailable converts exactly that error into false; any
// other failure, such as a missing connection string, is returned to the
// caller.
//
// Example:
//
//	sess := session.New(session.WithSource(connconfig.File("redis.yaml")))
//	conn, err := sess.GetConnection(ctx)
//	if err != nil {
//		return err
//	}
//	val, err := conn.Client().Get(ctx, "greeting").Result()
package session
