package transport

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"sync"
)

// Roles of a link endpoint, selected by the "role" query of a link URL.
const (
	RoleHost   = "host"
	RoleDevice = "device"
)

// Opener opens a Port from a parsed link URL.
type Opener func(ctx context.Context, u *url.URL) (Port, error)

var (
	openersLock sync.RWMutex
	openers     = make(map[string]Opener)
)

// RegisterScheme makes a link scheme available to Open.
func RegisterScheme(scheme string, opener Opener) {
	openersLock.Lock()
	defer openersLock.Unlock()
	openers[scheme] = opener
}

// Schemes lists the registered link schemes.
func Schemes() []string {
	openersLock.RLock()
	defer openersLock.RUnlock()
	schemes := make([]string, 0, len(openers))
	for scheme := range openers {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)
	return schemes
}

// Role gets the endpoint role of a link URL, RoleHost by default.
func Role(u *url.URL) string {
	if role := u.Query().Get("role"); role != "" {
		return role
	}
	return RoleHost
}

// Open opens the Port named by link.
// A link without scheme is a serial device path.
func Open(ctx context.Context, link string) (Port, error) {
	u, err := url.Parse(link)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}
	if u.Scheme == "" {
		u.Scheme = "serial"
	}
	switch role := Role(u); role {
	case RoleHost, RoleDevice:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidLink, role)
	}
	openersLock.RLock()
	opener := openers[u.Scheme]
	openersLock.RUnlock()
	if opener == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	return opener(ctx, u)
}
