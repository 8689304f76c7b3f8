// Package network implements ports.Network for the Source's uplink.
package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"sync/atomic"

	"github.com/bft-labs/timelink/internal/ports"
)

// Runner executes an external command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Status describes one interface.
type Status struct {
	Up    bool
	Addrs []net.IP
}

// StatusFunc looks up an interface by name.
type StatusFunc func(name string) (Status, error)

// Config describes the uplink.
type Config struct {
	Iface    string
	SSID     string
	Password string
}

// Interface associates an interface with NetworkManager and reports its
// readiness from the kernel's view of the interface.
type Interface struct {
	config   Config
	runner   Runner
	status   StatusFunc
	logger   ports.Logger
	disabled atomic.Bool
}

// NewInterface creates an Interface. A nil runner uses ExecRunner.
func NewInterface(cfg Config, runner Runner, logger ports.Logger) *Interface {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Interface{
		config: cfg,
		runner: runner,
		status: lookupStatus,
		logger: logger,
	}
}

// Associate requests a connection when credentials are configured. Without
// them association is left to the operating system.
func (i *Interface) Associate(ctx context.Context) error {
	if i.disabled.Load() {
		return errors.New("network disabled")
	}
	if i.config.SSID == "" {
		i.logger.Debug("no ssid configured, relying on system network", ports.String("iface", i.config.Iface))
		return nil
	}

	args := []string{"device", "wifi", "connect", i.config.SSID}
	if i.config.Password != "" {
		args = append(args, "password", i.config.Password)
	}
	if i.config.Iface != "" {
		args = append(args, "ifname", i.config.Iface)
	}

	i.logger.Info("associating", ports.String("ssid", i.config.SSID), ports.String("iface", i.config.Iface))
	out, err := i.runner.Run(ctx, "nmcli", args...)
	if err != nil {
		return fmt.Errorf("nmcli connect: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Connected reports whether the interface is up with a routable address.
func (i *Interface) Connected() bool {
	if i.disabled.Load() {
		return false
	}
	st, err := i.status(i.config.Iface)
	if err != nil {
		i.logger.Debug("interface lookup failed", ports.String("iface", i.config.Iface), ports.Err(err))
		return false
	}
	if !st.Up {
		return false
	}
	for _, ip := range st.Addrs {
		if ip.IsGlobalUnicast() || ip.IsPrivate() {
			return true
		}
	}
	return false
}

// Disable latches the interface off and disconnects it when it was
// associated by us.
func (i *Interface) Disable() error {
	i.disabled.Store(true)
	if i.config.SSID == "" || i.config.Iface == "" {
		return nil
	}
	out, err := i.runner.Run(context.Background(), "nmcli", "device", "disconnect", i.config.Iface)
	if err != nil {
		return fmt.Errorf("nmcli disconnect: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// lookupStatus reads an interface from the kernel. An empty name means any
// non-loopback interface.
func lookupStatus(name string) (Status, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return Status{}, err
	}

	var st Status
	found := false
	for _, ifc := range ifaces {
		if ifc.Flags&net.FlagLoopback != 0 {
			continue
		}
		if name != "" && ifc.Name != name {
			continue
		}
		found = true
		if ifc.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := ifc.Addrs()
		if err != nil {
			continue
		}
		st.Up = true
		for _, a := range addrs {
			if ipn, ok := a.(*net.IPNet); ok {
				st.Addrs = append(st.Addrs, ipn.IP)
			}
		}
	}
	if !found {
		return Status{}, fmt.Errorf("interface %q not found", name)
	}
	return st, nil
}

var _ ports.Network = (*Interface)(nil)
