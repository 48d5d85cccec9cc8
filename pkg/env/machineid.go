package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// MachineID retrieves an ID identifying the machine, derived from the
// machine id so it isn't exposed on shared brokers.
// It falls back to the hostname.
func MachineID() string {
	id, err := machineid.ProtectedID("srpc")
	if err == nil {
		return id[:16]
	}
	glog.Warningf("machine id unavailable: %v", err)
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "srpc"
}
