// Package calls provides shell commands calling functions over the link.
package calls

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/dustin/go-humanize"

	"github.com/robotalks/srpc/pkg/cli/sh"
	"github.com/robotalks/srpc/pkg/rpc"
)

// CallResult is the JSON output of call.
type CallResult struct {
	Name    string        `json:"name"`
	Result  []interface{} `json:"result,omitempty"`
	Raw     string        `json:"raw,omitempty"`
	Elapsed string        `json:"elapsed"`
}

var (
	// CallCmd calls a remote function.
	CallCmd = ishell.Cmd{
		Name:    "call",
		Aliases: []string{"x"},
		Help:    "NAME [TYPE:VALUE ...] [-> TYPE,...]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			spec, err := ParseCall(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			l := sh.LinkFrom(c)
			start := time.Now()
			raw, err := l.Client.Do(context.Background(), spec.Name, spec.Args...)
			if err != nil {
				c.Err(fmt.Errorf("%s: %w", rpc.KindOf(err), err))
				return
			}
			res := CallResult{Name: spec.Name, Elapsed: time.Since(start).String()}
			if len(spec.Result) == 0 {
				res.Raw = hex.EncodeToString(raw)
				sh.Print(c, &res, fmt.Sprintf("[%s] (%s)", res.Raw, res.Elapsed))
				return
			}
			if res.Result, err = spec.Result.Decode(raw); err != nil {
				c.Err(fmt.Errorf("%w: %d bytes returned", rpc.ErrShortResult, len(raw)))
				return
			}
			strs := make([]string, len(res.Result))
			for n, v := range res.Result {
				strs[n] = fmt.Sprint(v)
			}
			sh.Print(c, &res, fmt.Sprintf("%s (%s)", strings.Join(strs, " "), res.Elapsed))
		}),
	}

	// StreamCmd sends a fire-and-forget call.
	StreamCmd = ishell.Cmd{
		Name:    "stream",
		Aliases: []string{"s"},
		Help:    "NAME [TYPE:VALUE ...]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			spec, err := ParseCall(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			if len(spec.Result) > 0 {
				c.Err(fmt.Errorf("stream has no result"))
				return
			}
			if err = sh.LinkFrom(c).Client.Stream(spec.Name, spec.Args...); err != nil {
				c.Err(err)
				return
			}
			sh.Print(c, map[string]string{"name": spec.Name}, "sent")
		}),
	}

	// PingCmd checks the peer is responding.
	PingCmd = ishell.Cmd{
		Name: "ping",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			start := time.Now()
			_, err := rpc.Call[uint8](context.Background(), sh.LinkFrom(c).Client, rpc.PingFunction)
			if err != nil {
				c.Err(err)
				return
			}
			elapsed := time.Since(start)
			sh.Print(c, map[string]string{"rtt": elapsed.String()}, "pong "+elapsed.String())
		}),
	}

	// FunctionsCmd lists the functions served to the peer.
	FunctionsCmd = ishell.Cmd{
		Name:    "functions",
		Aliases: []string{"fn"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			fns := sh.LinkFrom(c).Service.Functions()
			lines := make([]string, len(fns))
			for n, fn := range fns {
				lines[n] = fmt.Sprintf("%s%s calls=%s", fn.Name, fn.Signature, humanize.Comma(int64(fn.Calls)))
			}
			sh.Print(c, fns, strings.Join(lines, "\n"))
		}),
	}

	// StatsCmd prints link counters.
	StatsCmd = ishell.Cmd{
		Name: "stats",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			st := sh.LinkFrom(c).Stats()
			count := func(v uint64) string { return humanize.Comma(int64(v)) }
			lines := []string{
				fmt.Sprintf("sent:      %s frames, %s, %s failures", count(st.FramesSent), humanize.Bytes(st.BytesSent), count(st.SendFailures)),
				fmt.Sprintf("received:  %s frames, %s unrouted", count(st.FramesReceived), count(st.FramesUnrouted)),
				fmt.Sprintf("lost:      %s frames, %s bytes", count(st.FramesDropped), count(st.BytesDropped)),
				fmt.Sprintf("responses: %s dropped, %s stale", count(st.ResponsesDropped), count(st.ResponsesStale)),
				fmt.Sprintf("served:    %s requests, %s streams, %s failures", count(st.Requests), count(st.Streams), count(st.Failures)),
			}
			sh.Print(c, &st, strings.Join(lines, "\n"))
		}),
	}
)

func init() {
	sh.AddCmds(
		&CallCmd,
		&StreamCmd,
		&PingCmd,
		&FunctionsCmd,
		&StatsCmd,
	)
}
