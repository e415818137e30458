package connstring

import (
	"strconv"
	"strings"
)

// Parse reads a semicolon-delimited KEY=VALUE connection string. Only keys
// present in text override the defaults. Parse never fails: malformed
// segments and unconvertible values are skipped.
func Parse(text string) Settings {
	s := Default()
	s.apply(text)
	return s
}

func (s *Settings) apply(text string) {
	for _, item := range strings.Split(text, ";") {
		key, value, ok := strings.Cut(item, "=")
		if !ok {
			continue
		}

		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "HOST":
			s.host = value
		case "PORT":
			setInt(&s.port, value)
		case "IOTIMEOUT":
			setInt(&s.ioTimeout, value)
		case "PASSWORD":
			s.password = value
			s.hasPassword = true
		case "MAXUNSENT":
			setInt(&s.maxUnsent, value)
		case "ALLOWADMIN":
			setBool(&s.allowAdmin, value)
		case "SYNCTIMEOUT":
			setInt(&s.syncTimeout, value)
		}
	}
}

func setInt(dst *int, value string) {
	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		*dst = n
	}
}

// setBool accepts only "true" or "false" in any case; strconv.ParseBool is
// more permissive ("1", "t", ...) than the connection string format allows.
func setBool(dst *bool, value string) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true":
		*dst = true
	case "false":
		*dst = false
	}
}
