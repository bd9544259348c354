package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"time"

	"github.com/go-logr/logr"

	"github.com/chaosinthecrd/tag/internal/tag/activity"
	"github.com/chaosinthecrd/tag/internal/tag/identity"
)

const (
	// DefaultTarget is the well known endpoint probed when no target is set.
	DefaultTarget = "google.com:80"

	// WriteTimeout bounds the probe write.
	WriteTimeout = time.Second
)

var (
	ErrConnect           = errors.New("failed to connect")
	ErrTimeout           = errors.New("write timed out")
	ErrWrite             = errors.New("failed to write probe")
	ErrAddressResolution = errors.New("failed to read socket address")
	ErrIdentity          = errors.New("no identity to attribute network activity to")
)

// probe is the payload written to the remote end.
var probe = []byte{1, 1, 1, 4}

// Generator generates a single TCP connection with a small write.
type Generator struct {
	log    logr.Logger
	target string
	dial   func(ctx context.Context, network, address string) (net.Conn, error)
	now    func() time.Time
}

func NewGenerator(log logr.Logger, target string) *Generator {
	if target == "" {
		target = DefaultTarget
	}

	return &Generator{
		log:    log.WithName("network"),
		target: target,
		dial:   (&net.Dialer{}).DialContext,
		now:    time.Now,
	}
}

// Generate connects to the target and writes the probe. The record time is
// taken right after the write returned.
func (g *Generator) Generate(ctx context.Context, id *identity.Context) (activity.Record, error) {
	if id == nil {
		return activity.Record{}, ErrIdentity
	}

	conn, err := g.dial(ctx, "tcp", g.target)
	if err != nil {
		return activity.Record{}, fmt.Errorf("%w to %s: %w", ErrConnect, g.target, err)
	}
	defer conn.Close()

	if err := conn.SetWriteDeadline(time.Now().Add(WriteTimeout)); err != nil {
		return activity.Record{}, fmt.Errorf("%w: setting deadline: %w", ErrTimeout, err)
	}

	n, err := conn.Write(probe)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return activity.Record{}, fmt.Errorf("%w after %s: %w", ErrTimeout, WriteTimeout, err)
		}
		return activity.Record{}, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	sent := g.now()

	source, err := addrPort(conn.LocalAddr())
	if err != nil {
		return activity.Record{}, fmt.Errorf("%w: local: %w", ErrAddressResolution, err)
	}
	destination, err := addrPort(conn.RemoteAddr())
	if err != nil {
		return activity.Record{}, fmt.Errorf("%w: remote: %w", ErrAddressResolution, err)
	}

	g.log.V(2).Info("probe sent", "source", source.String(), "destination", destination.String(), "bytes", n)

	return activity.New(id, sent, activity.Network{
		Source:      source,
		Destination: destination,
		Protocol:    activity.ProtocolTCP,
		BytesSent:   n,
	}), nil
}

func addrPort(addr net.Addr) (netip.AddrPort, error) {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok || tcp == nil {
		return netip.AddrPort{}, fmt.Errorf("unexpected address %v", addr)
	}

	// IPv4 peers on dual stack sockets come back as ::ffff:a.b.c.d
	ap := tcp.AddrPort()
	ap = netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
	if !ap.IsValid() || ap.Addr().IsUnspecified() {
		return netip.AddrPort{}, fmt.Errorf("address %s is not specified", ap)
	}

	return ap, nil
}
