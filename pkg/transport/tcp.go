package transport

import (
	"context"
	"fmt"
	"net"
	"net/url"

	"github.com/golang/glog"

	fx "github.com/robotalks/srpc/pkg/framework"
)

func init() {
	RegisterScheme("tcp", openTCP)
}

func openTCP(ctx context.Context, u *url.URL) (Port, error) {
	if u.Host == "" {
		return nil, fmt.Errorf("%w: tcp address missing", ErrInvalidLink)
	}
	if Role(u) == RoleDevice {
		ln, err := net.Listen("tcp", u.Host)
		if err != nil {
			return nil, err
		}
		defer ln.Close()
		return Accept(ctx, ln)
	}
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", u.Host)
	if err != nil {
		return nil, err
	}
	glog.Infof("connected to %s", conn.RemoteAddr())
	return NewStream(conn), nil
}

// Accept waits for a single connection on ln.
// ln is closed if ctx is done before a connection arrives.
func Accept(ctx context.Context, ln net.Listener) (Port, error) {
	glog.Infof("waiting for connection on %s", ln.Addr())
	var conn net.Conn
	err := fx.RunWithContextCancel(ctx, func() { ln.Close() }, func() (err error) {
		conn, err = ln.Accept()
		return
	})
	if err != nil {
		if conn != nil {
			conn.Close()
		}
		return nil, err
	}
	glog.Infof("accepted connection from %s", conn.RemoteAddr())
	return NewStream(conn), nil
}
