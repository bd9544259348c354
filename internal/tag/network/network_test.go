package network

import (
	"context"
	"io"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaosinthecrd/tag/internal/tag/activity"
	"github.com/chaosinthecrd/tag/internal/tag/identity"
)

var testIdentity = &identity.Context{Username: "alice", PID: 100, CommandLine: "tag network", ProcessName: "tag"}

// listen starts a TCP server on loopback that reads everything it is sent.
func listen(t *testing.T) (string, <-chan []byte) {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	received := make(chan []byte, 1)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		b, _ := io.ReadAll(conn)
		received <- b
	}()

	return l.Addr().String(), received
}

func TestGenerate(t *testing.T) {
	target, received := listen(t)
	g := NewGenerator(logr.Discard(), target)

	r, err := g.Generate(context.Background(), testIdentity)
	require.NoError(t, err)

	p, ok := r.Activity.(activity.Network)
	require.True(t, ok)

	assert.Equal(t, 4, p.BytesSent)
	assert.Equal(t, activity.ProtocolTCP, p.Protocol)
	assert.Equal(t, target, p.Destination.String())
	assert.Equal(t, "127.0.0.1", p.Source.Addr().String())
	assert.NotZero(t, p.Source.Port())
	assert.NotEqual(t, p.Source, p.Destination)
	assert.False(t, p.Source.Addr().IsUnspecified())
	assert.Equal(t, testIdentity.PID, r.PID)
	assert.False(t, r.Time.IsZero())

	assert.Equal(t, []byte{1, 1, 1, 4}, <-received)
}

func TestGenerateConnectFailure(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	target := l.Addr().String()
	require.NoError(t, l.Close())

	_, err = NewGenerator(logr.Discard(), target).Generate(context.Background(), testIdentity)
	require.ErrorIs(t, err, ErrConnect)
}

func TestGenerateCancelled(t *testing.T) {
	target, _ := listen(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGenerator(logr.Discard(), target).Generate(ctx, testIdentity)
	require.ErrorIs(t, err, ErrConnect)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateNilIdentity(t *testing.T) {
	_, err := NewGenerator(logr.Discard(), "127.0.0.1:1").Generate(context.Background(), nil)
	require.ErrorIs(t, err, ErrIdentity)
}

func TestNewGeneratorDefaultTarget(t *testing.T) {
	assert.Equal(t, DefaultTarget, NewGenerator(logr.Discard(), "").target)
	assert.Equal(t, "example.com:443", NewGenerator(logr.Discard(), "example.com:443").target)
}

type failingWriteConn struct {
	net.Conn
}

func (failingWriteConn) Write([]byte) (int, error) {
	return 0, syscall.ECONNRESET
}

func TestGenerateWriteFailures(t *testing.T) {
	tests := map[string]struct {
		conn    func(t *testing.T) net.Conn
		wantErr error
		notErr  error
	}{
		"peer never reads": {
			conn: func(t *testing.T) net.Conn {
				client, server := net.Pipe()
				t.Cleanup(func() { server.Close() })
				return client
			},
			wantErr: ErrTimeout,
			notErr:  ErrWrite,
		},
		"write fails": {
			conn: func(t *testing.T) net.Conn {
				client, server := net.Pipe()
				t.Cleanup(func() { server.Close() })
				return failingWriteConn{client}
			},
			wantErr: ErrWrite,
			notErr:  ErrTimeout,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			g := NewGenerator(logr.Discard(), "127.0.0.1:80")
			g.dial = func(context.Context, string, string) (net.Conn, error) {
				return test.conn(t), nil
			}

			start := time.Now()
			r, err := g.Generate(context.Background(), testIdentity)
			require.ErrorIs(t, err, test.wantErr)
			assert.NotErrorIs(t, err, test.notErr)
			assert.Equal(t, activity.Record{}, r)
			assert.Less(t, time.Since(start), WriteTimeout+5*time.Second)
		})
	}
}

func TestAddrPort(t *testing.T) {
	tests := []struct {
		name    string
		addr    net.Addr
		want    string
		wantErr bool
	}{
		{name: "ipv4", addr: &net.TCPAddr{IP: net.IPv4(10, 0, 0, 1), Port: 80}, want: "10.0.0.1:80"},
		{name: "ipv6", addr: &net.TCPAddr{IP: net.ParseIP("2001:db8::1"), Port: 443}, want: "[2001:db8::1]:443"},
		{name: "unspecified", addr: &net.TCPAddr{IP: net.IPv4zero, Port: 80}, wantErr: true},
		{name: "nil tcp", addr: (*net.TCPAddr)(nil), wantErr: true},
		{name: "udp", addr: &net.UDPAddr{IP: net.IPv4(10, 0, 0, 1), Port: 53}, wantErr: true},
		{name: "nil", addr: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := addrPort(tt.addr)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}
