// Package connstring holds the parameters used to build a Redis connection
// handle and the parser for the flat connection string format they are
// usually configured with:
//
//	HOST=10.0.0.5;PORT=6380;ALLOWADMIN=true
//
// Keys are case-insensitive. Recognised keys are HOST, PORT, IOTIMEOUT,
// PASSWORD, MAXUNSENT, ALLOWADMIN and SYNCTIMEOUT; anything else is ignored.
// Parsing is lenient: segments without '=' are skipped, values that do not
// convert to the field's type leave the default in place, and when a key is
// repeated the last occurrence wins.
//
// Settings values are immutable. Use Default, New or Parse to build one, or
// FromSource to resolve a named connection string from a Source first.
package connstring
