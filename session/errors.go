package session

// ConnectionError reports that the session could not produce a usable
// connection. The underlying fault is available through Unwrap.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	if e.Err == nil {
		return "Redis connection failed."
	}
	return "Redis connection failed: " + e.Err.Error()
}

func (e *ConnectionError) Unwrap() error { return e.Err }
