// Package websocket carries the link over binary websocket frames.
// Importing it registers the ws and wss link schemes.
package websocket

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/srpc/pkg/framework"
	"github.com/robotalks/srpc/pkg/transport"
)

func init() {
	transport.RegisterScheme("ws", open)
	transport.RegisterScheme("wss", open)
}

// Wrap turns a websocket connection into a Port sending binary frames.
func Wrap(conn *websocket.Conn) *transport.Stream {
	conn.PayloadType = websocket.BinaryFrame
	return transport.NewStream(conn)
}

// Dial connects to a websocket link server.
func Dial(ctx context.Context, u *url.URL) (*transport.Stream, error) {
	origin := &url.URL{Scheme: "http", Host: u.Host}
	if u.Scheme == "wss" {
		origin.Scheme = "https"
	}
	config, err := websocket.NewConfig(u.String(), origin.String())
	if err != nil {
		return nil, err
	}
	var conn *websocket.Conn
	err = fx.RunWithContext(ctx, func() (err error) {
		conn, err = websocket.DialConfig(config)
		return
	})
	if err != nil {
		if conn != nil {
			conn.Close()
		}
		return nil, err
	}
	glog.Infof("websocket connected to %s", u)
	return Wrap(conn), nil
}

// Handler serves each incoming connection as a Port.
// The connection is held until serve returns.
func Handler(serve func(transport.Port)) http.Handler {
	return websocket.Handler(func(conn *websocket.Conn) {
		port := Wrap(conn)
		defer port.Close()
		serve(port)
	})
}

// serverPort is a Port accepted by Accept, closing it stops the server.
type serverPort struct {
	*transport.Stream
	done      chan struct{}
	closeOnce sync.Once
	server    *http.Server
}

func (p *serverPort) Close() error {
	err := p.Stream.Close()
	p.closeOnce.Do(func() {
		close(p.done)
		p.server.Close()
	})
	return err
}

// Accept serves websocket on ln and waits for the first connection.
func Accept(ctx context.Context, ln net.Listener, path string) (transport.Port, error) {
	portCh := make(chan *serverPort, 1)
	var accepted atomic.Bool
	server := &http.Server{}
	mux := http.NewServeMux()
	mux.Handle(path, websocket.Handler(func(conn *websocket.Conn) {
		if !accepted.CompareAndSwap(false, true) {
			glog.Warningf("reject websocket from %s: link in use", conn.Request().RemoteAddr)
			conn.Close()
			return
		}
		port := &serverPort{Stream: Wrap(conn), done: make(chan struct{}), server: server}
		portCh <- port
		<-port.done
	}))
	server.Handler = mux
	go server.Serve(ln)
	glog.Infof("waiting for websocket on %s%s", ln.Addr(), path)

	select {
	case port := <-portCh:
		return port, nil
	case <-ctx.Done():
		server.Close()
		return nil, ctx.Err()
	}
}

func open(ctx context.Context, u *url.URL) (transport.Port, error) {
	if u.Host == "" {
		return nil, fmt.Errorf("%w: websocket address missing", transport.ErrInvalidLink)
	}
	if transport.Role(u) != transport.RoleDevice {
		return Dial(ctx, u)
	}
	ln, err := net.Listen("tcp", u.Host)
	if err != nil {
		return nil, err
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return Accept(ctx, ln, path)
}
