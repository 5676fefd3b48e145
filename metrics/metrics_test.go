package metrics

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/gstoney/mcclient"
	"github.com/gstoney/mcclient/internal/mctest"
	"github.com/gstoney/mcclient/packet"
)

func TestTracer_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	tr := c.Tracer()

	tr.StateChanged(mcclient.StateDisconnected, mcclient.StateConnecting)
	tr.StateChanged(mcclient.StateConnecting, mcclient.StateHandshaking)
	tr.StateChanged(mcclient.StateHandshaking, mcclient.StateLogin)

	require.Equal(t, 1.0, testutil.ToFloat64(c.connStarted))
	require.Equal(t, 1.0, testutil.ToFloat64(c.connStates.WithLabelValues("Login")))
	require.Equal(t, 0.0, testutil.ToFloat64(c.connStates.WithLabelValues("Connecting")))

	tr.SentPacket(packet.KindLoginStart, 10)
	tr.ReceivedPacket(packet.KindSetCompression, 3)
	tr.ReceivedPacket(packet.KindLoginSuccess, 20)
	tr.SkippedPacket(&mcclient.SkippedPacketError{State: packet.Login, WireID: 0x55, Err: packet.ErrUnknownPacket})
	tr.EncryptionEnabled()
	tr.CompressionEnabled(256)

	require.Equal(t, 1.0, testutil.ToFloat64(c.packetsSent.WithLabelValues("LoginStart")))
	require.Equal(t, 10.0, testutil.ToFloat64(c.bytesSent))
	require.Equal(t, 23.0, testutil.ToFloat64(c.bytesReceived))
	require.Equal(t, 1.0, testutil.ToFloat64(c.packetsSkipped.WithLabelValues("Login")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.encryptionEnabled))
	require.Equal(t, 1.0, testutil.ToFloat64(c.compressionEnabled))

	tr.StateChanged(mcclient.StateLogin, mcclient.StateFailed)
	tr.Closed(errors.New("boom"))

	require.Equal(t, 0.0, testutil.ToFloat64(c.connStates.WithLabelValues("Login")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.connClosed.WithLabelValues("error")))
	require.Equal(t, 1, testutil.CollectAndCount(c.connDuration))
}

func TestNewCollector_Reregister(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := NewCollector(reg)
	b := NewCollector(reg)

	a.Tracer().EncryptionEnabled()
	b.Tracer().EncryptionEnabled()

	// Both collectors share the metrics registered first.
	require.Equal(t, 2.0, testutil.ToFloat64(a.encryptionEnabled))
	require.Same(t, a.packetsSent, b.packetsSent)
}

func TestTracer_StatusConnection(t *testing.T) {
	srv := &mctest.Server{Handler: func(s *mctest.Session) error {
		return s.ServeStatus(`{"players":{"online":0}}`)
	}}
	addr, err := srv.Listen()
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	c, err := mcclient.Dial(context.Background(), addr, mcclient.IntentStatus, mcclient.Config{
		Tracer: NewTracerWithRegisterer(reg),
	})
	require.NoError(t, err)
	require.NoError(t, c.Wait())
	require.NoError(t, srv.Close())

	expected := `
# HELP mcclient_packets_sent_total Packets written, by kind
# TYPE mcclient_packets_sent_total counter
mcclient_packets_sent_total{kind="Handshake"} 1
mcclient_packets_sent_total{kind="StatusRequest"} 1
# HELP mcclient_connections_closed_total Connections Closed
# TYPE mcclient_connections_closed_total counter
mcclient_connections_closed_total{result="clean"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg,
		strings.NewReader(expected),
		"mcclient_packets_sent_total", "mcclient_connections_closed_total"))
}
