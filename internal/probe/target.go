package probe

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	perrors "gateprobe/pkg/errors"
)

// Target is the host and port under test.
type Target struct {
	Host string
	Port int
}

// ParseTarget validates a host and a port argument.
func ParseTarget(host, port string) (Target, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return Target{}, fmt.Errorf("%w: empty host", perrors.ErrInvalidTarget)
	}
	p, err := strconv.Atoi(strings.TrimSpace(port))
	if err != nil {
		return Target{}, fmt.Errorf("%w: port %q is not a number", perrors.ErrInvalidTarget, port)
	}
	if p < 1 || p > 65535 {
		return Target{}, fmt.Errorf("%w: port %d out of range 1-65535", perrors.ErrInvalidTarget, p)
	}
	return Target{Host: host, Port: p}, nil
}

// Address returns the dialable host:port form.
func (t Target) Address() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

func (t Target) String() string {
	return t.Address()
}
