package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"net"
	"net/url"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"github.com/robotalks/srpc/pkg/device"
	"github.com/robotalks/srpc/pkg/env"
	fx "github.com/robotalks/srpc/pkg/framework"
	"github.com/robotalks/srpc/pkg/link"
	"github.com/robotalks/srpc/pkg/transport"
)

func init() {
	env.SetupFlags()
}

type server struct {
	conf   *env.Config
	device *device.Device
}

func (s *server) newLink(port transport.Port) *link.Link {
	l := link.New(port, s.conf.Options())
	if err := s.device.Register(l.Service); err != nil {
		glog.Fatalf("register functions: %v", err)
	}
	return l
}

// Run implements fx.Runnable.
func (s *server) Run(ctx context.Context) error {
	u, err := url.Parse(s.conf.Link)
	if err != nil {
		return err
	}
	if u.Scheme != "tcp" {
		linkURL, err := s.conf.LinkURL()
		if err != nil {
			return err
		}
		port, err := transport.Open(ctx, linkURL)
		if err != nil {
			return err
		}
		return s.newLink(port).Run(ctx)
	}

	// tcp serves hosts one after another.
	ln, err := net.Listen("tcp", u.Host)
	if err != nil {
		return err
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		ln.Close()
		return nil
	})
	g.Go(func() error {
		for {
			port, err := transport.Accept(ctx, ln)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			if err = s.newLink(port).Run(ctx); err != nil {
				glog.Warningf("link stopped: %v", err)
			}
		}
	})
	return g.Wait()
}

func main() {
	flag.Parse()
	conf := env.NewConfig()
	conf.Role = transport.RoleDevice
	srv := &server{conf: conf, device: device.New()}
	glog.Infof("device %s serving on %s", conf.DeviceID, conf.Link)
	if err := fx.NewRunner().HandleSignals().Go(fx.NamedRun("rpcd", srv)).Wait(); err != nil {
		glog.Exit(err)
	}
}
