package main

//go-build: CGO_ENABLED=0

import (
	"time"

	"github.com/robotalks/srpc/pkg/cli/sh"
	"github.com/robotalks/srpc/pkg/env"
	"github.com/robotalks/srpc/pkg/link"
	"github.com/robotalks/srpc/pkg/rpc"

	_ "github.com/robotalks/srpc/pkg/cli/cmds/calls"
)

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main(func(l *link.Link) {
		l.Service.MustRegister("host.time", rpc.Func0(func() uint32 {
			return uint32(time.Now().Unix())
		}))
	})
}
