package network

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"

	logadapter "github.com/bft-labs/timelink/internal/adapters/log"
)

type recordingRunner struct {
	calls []string
	err   error
}

func (r *recordingRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, name+" "+strings.Join(args, " "))
	if r.err != nil {
		return []byte("Error: No network with SSID found."), r.err
	}
	return nil, nil
}

func newTestInterface(cfg Config, runner Runner, st Status, stErr error) *Interface {
	i := NewInterface(cfg, runner, logadapter.NewNoopLogger())
	i.status = func(string) (Status, error) { return st, stErr }
	return i
}

func TestInterface_AssociateRunsNmcli(t *testing.T) {
	r := &recordingRunner{}
	i := newTestInterface(Config{Iface: "wlan0", SSID: "lab", Password: "secret"}, r, Status{}, nil)

	if err := i.Associate(context.Background()); err != nil {
		t.Fatalf("Associate: %v", err)
	}
	want := "nmcli device wifi connect lab password secret ifname wlan0"
	if len(r.calls) != 1 || r.calls[0] != want {
		t.Errorf("calls = %v, want [%s]", r.calls, want)
	}
}

func TestInterface_AssociateWithoutSSID(t *testing.T) {
	r := &recordingRunner{}
	i := newTestInterface(Config{Iface: "eth0"}, r, Status{}, nil)

	if err := i.Associate(context.Background()); err != nil {
		t.Fatalf("Associate: %v", err)
	}
	if len(r.calls) != 0 {
		t.Errorf("expected no commands, got %v", r.calls)
	}
}

func TestInterface_AssociateFailure(t *testing.T) {
	r := &recordingRunner{err: errors.New("exit status 10")}
	i := newTestInterface(Config{SSID: "lab"}, r, Status{}, nil)

	err := i.Associate(context.Background())
	if err == nil || !strings.Contains(err.Error(), "No network with SSID") {
		t.Errorf("Associate error = %v, want nmcli output", err)
	}
}

func TestInterface_Connected(t *testing.T) {
	tests := []struct {
		name string
		st   Status
		err  error
		want bool
	}{
		{"up with private address", Status{Up: true, Addrs: []net.IP{net.ParseIP("192.168.1.20")}}, nil, true},
		{"up with global v6", Status{Up: true, Addrs: []net.IP{net.ParseIP("2001:db8::1")}}, nil, true},
		{"up link-local only", Status{Up: true, Addrs: []net.IP{net.ParseIP("fe80::1")}}, nil, false},
		{"up without address", Status{Up: true}, nil, false},
		{"down", Status{Addrs: []net.IP{net.ParseIP("10.0.0.2")}}, nil, false},
		{"lookup error", Status{}, errors.New("no such interface"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := newTestInterface(Config{Iface: "wlan0"}, &recordingRunner{}, tt.st, tt.err)
			if got := i.Connected(); got != tt.want {
				t.Errorf("Connected() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInterface_DisableLatches(t *testing.T) {
	r := &recordingRunner{}
	up := Status{Up: true, Addrs: []net.IP{net.ParseIP("10.0.0.2")}}
	i := newTestInterface(Config{Iface: "wlan0", SSID: "lab"}, r, up, nil)

	if !i.Connected() {
		t.Fatal("expected connected before Disable")
	}
	if err := i.Disable(); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	if i.Connected() {
		t.Error("Connected() after Disable should be false")
	}
	if err := i.Associate(context.Background()); err == nil {
		t.Error("Associate after Disable should fail")
	}
	if r.calls[len(r.calls)-1] != "nmcli device disconnect wlan0" {
		t.Errorf("last call = %q", r.calls[len(r.calls)-1])
	}
}
