package config

import (
	"errors"
	"fmt"
)

// URLError identifies why a control-plane URL was rejected.
type URLError int

const (
	// URLSyntaxError: the URL is not syntactically valid.
	URLSyntaxError URLError = iota + 1
	// URLUnsupportedScheme: the scheme is not "tcp".
	URLUnsupportedScheme
	// URLMissingHost: the URL has no host part.
	URLMissingHost
	// URLMissingPort: the URL has no port and there is no default port.
	URLMissingPort
	// URLPathNotAllowed: the path is anything other than "/".
	URLPathNotAllowed
	// URLFragmentNotAllowed: the URL carries a fragment.
	URLFragmentNotAllowed
)

func (e URLError) String() string {
	switch e {
	case URLSyntaxError:
		return "syntax error"
	case URLUnsupportedScheme:
		return "unsupported scheme"
	case URLMissingHost:
		return "missing host"
	case URLMissingPort:
		return "missing port"
	case URLPathNotAllowed:
		return "path not allowed"
	case URLFragmentNotAllowed:
		return "fragment not allowed"
	default:
		return fmt.Sprintf("url error %d", int(e))
	}
}

// Error is returned by Load and the parsers. The set of implementations is
// closed: InvalidAddrError, ControlPlaneError, NotANumberError and
// InvalidEnvVarError.
type Error interface {
	error
	configError()
}

// InvalidAddrError reports an endpoint string that is not tcp://<ip>:<port>.
type InvalidAddrError struct{}

func (InvalidAddrError) Error() string { return "invalid address" }
func (InvalidAddrError) configError()  {}

// ControlPlaneError reports a rejected control-plane URL.
type ControlPlaneError struct {
	Raw  string
	Kind URLError
}

func (e ControlPlaneError) Error() string {
	return fmt.Sprintf("invalid control plane url %q: %s", e.Raw, e.Kind)
}
func (ControlPlaneError) configError() {}

// NotANumberError reports text that should have been a number.
type NotANumberError struct {
	Value string
}

func (e NotANumberError) Error() string { return fmt.Sprintf("not a number: %q", e.Value) }
func (NotANumberError) configError()    {}

// InvalidEnvVarError reports an environment variable whose value could not be
// used. Value is the raw text, or "<not text>" when it was not valid UTF-8.
type InvalidEnvVarError struct {
	Name  string
	Value string
}

func (e InvalidEnvVarError) Error() string {
	return fmt.Sprintf("invalid environment variable %s=%q", e.Name, e.Value)
}
func (InvalidEnvVarError) configError() {}

// ErrorKind returns a stable label for a configuration error, suitable for
// metric labels and log fields. Errors outside the closed set map to "other".
func ErrorKind(err error) string {
	var cerr Error
	if !errors.As(err, &cerr) {
		return "other"
	}
	switch e := cerr.(type) {
	case InvalidAddrError:
		return "invalid_addr"
	case ControlPlaneError:
		switch e.Kind {
		case URLSyntaxError:
			return "control_url_syntax"
		case URLUnsupportedScheme:
			return "control_url_scheme"
		case URLMissingHost:
			return "control_url_missing_host"
		case URLMissingPort:
			return "control_url_missing_port"
		case URLPathNotAllowed:
			return "control_url_path"
		case URLFragmentNotAllowed:
			return "control_url_fragment"
		default:
			panic(fmt.Sprintf("config: unhandled url error %d", int(e.Kind)))
		}
	case NotANumberError:
		return "not_a_number"
	case InvalidEnvVarError:
		return "invalid_env_var"
	default:
		panic(fmt.Sprintf("config: unhandled error type %T", cerr))
	}
}
