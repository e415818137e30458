// Package connconfig provides named configuration sources for connection
// strings. Every source implements connstring.Source.
//
//   - Map: fixed in-memory entries, handy in tests and when embedding
//   - Env: one environment variable per name (REDIS_CONNECTION_STRING_REDIS for "Redis")
//   - File: a YAML document with a connectionStrings mapping, reloaded on change
//   - Chain: the first source that knows a name wins
//
// Sources are read on every lookup, and a session looks its name up every time
// it (re)creates a connection, so configuration changes apply to the next
// connection without restarting the process.
//
// Example file:
//
//	connectionStrings:
//	  Redis: "HOST=10.0.0.5;PORT=6380;ALLOWADMIN=true"
//	  Cache: "HOST=cache.internal;SYNCTIMEOUT=2000"
package connconfig
