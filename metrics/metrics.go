// Package metrics exports connection events as Prometheus metrics.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gstoney/mcclient"
	"github.com/gstoney/mcclient/packet"
)

const metricNamespace = "mcclient"

// Collector holds the metrics shared by every connection traced through it.
type Collector struct {
	connStarted  prometheus.Counter
	connClosed   *prometheus.CounterVec
	connDuration prometheus.Histogram
	connStates   *prometheus.GaugeVec

	packetsSent     *prometheus.CounterVec
	packetsReceived *prometheus.CounterVec
	packetsSkipped  *prometheus.CounterVec
	bytesSent       prometheus.Counter
	bytesReceived   prometheus.Counter

	encryptionEnabled  prometheus.Counter
	compressionEnabled prometheus.Counter
}

// NewCollector registers the metrics with registerer. Metrics that are
// already registered are reused, so it may be called more than once for
// the same registerer.
func NewCollector(registerer prometheus.Registerer) *Collector {
	c := &Collector{
		connStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "connections_started_total",
			Help:      "Connections Started",
		}),
		connClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "connections_closed_total",
			Help:      "Connections Closed",
		}, []string{"result"}),
		connDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricNamespace,
			Name:      "connection_duration_seconds",
			Help:      "Duration of a Connection",
			Buckets:   prometheus.ExponentialBuckets(1.0/64, 2, 20),
		}),
		connStates: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Name:      "connections",
			Help:      "Open connections by state",
		}, []string{"state"}),
		packetsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "packets_sent_total",
			Help:      "Packets written, by kind",
		}, []string{"kind"}),
		packetsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "packets_received_total",
			Help:      "Packets decoded, by kind",
		}, []string{"kind"}),
		packetsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "packets_skipped_total",
			Help:      "Inbound frames dropped, by protocol state",
		}, []string{"state"}),
		bytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "payload_bytes_sent_total",
			Help:      "Uncompressed payload bytes written",
		}),
		bytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "payload_bytes_received_total",
			Help:      "Uncompressed payload bytes decoded",
		}),
		encryptionEnabled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "encryption_enabled_total",
			Help:      "Connections that switched on encryption",
		}),
		compressionEnabled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "compression_enabled_total",
			Help:      "Connections that switched on compression",
		}),
	}

	c.connStarted = register(registerer, c.connStarted)
	c.connClosed = register(registerer, c.connClosed)
	c.connDuration = register(registerer, c.connDuration)
	c.connStates = register(registerer, c.connStates)
	c.packetsSent = register(registerer, c.packetsSent)
	c.packetsReceived = register(registerer, c.packetsReceived)
	c.packetsSkipped = register(registerer, c.packetsSkipped)
	c.bytesSent = register(registerer, c.bytesSent)
	c.bytesReceived = register(registerer, c.bytesReceived)
	c.encryptionEnabled = register(registerer, c.encryptionEnabled)
	c.compressionEnabled = register(registerer, c.compressionEnabled)
	return c
}

func register[C prometheus.Collector](registerer prometheus.Registerer, c C) C {
	if err := registerer.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			panic(err)
		}
		existing, ok := are.ExistingCollector.(C)
		if !ok {
			panic(err)
		}
		return existing
	}
	return c
}

// NewTracer returns a tracer for one connection, recording into the
// default registerer.
func NewTracer() *mcclient.Tracer {
	return NewTracerWithRegisterer(prometheus.DefaultRegisterer)
}

// NewTracerWithRegisterer returns a tracer for one connection using a given
// Prometheus registerer.
func NewTracerWithRegisterer(registerer prometheus.Registerer) *mcclient.Tracer {
	return NewCollector(registerer).Tracer()
}

// Tracer returns a tracer for one connection. A tracer must not be shared
// between connections.
func (c *Collector) Tracer() *mcclient.Tracer {
	var startTime time.Time

	return &mcclient.Tracer{
		StateChanged: func(from, to mcclient.State) {
			if from == mcclient.StateDisconnected && to == mcclient.StateConnecting {
				startTime = time.Now()
				c.connStarted.Inc()
			}
			if open(from) {
				c.connStates.WithLabelValues(from.String()).Dec()
			}
			if open(to) {
				c.connStates.WithLabelValues(to.String()).Inc()
			}
		},
		SentPacket: func(kind packet.Kind, size int) {
			c.packetsSent.WithLabelValues(kind.String()).Inc()
			c.bytesSent.Add(float64(size))
		},
		ReceivedPacket: func(kind packet.Kind, size int) {
			c.packetsReceived.WithLabelValues(kind.String()).Inc()
			c.bytesReceived.Add(float64(size))
		},
		SkippedPacket: func(err *mcclient.SkippedPacketError) {
			c.packetsSkipped.WithLabelValues(err.State.String()).Inc()
		},
		EncryptionEnabled: func() {
			c.encryptionEnabled.Inc()
		},
		CompressionEnabled: func(int32) {
			c.compressionEnabled.Inc()
		},
		Closed: func(err error) {
			result := "clean"
			if err != nil {
				result = "error"
			}
			c.connClosed.WithLabelValues(result).Inc()
			if !startTime.IsZero() {
				c.connDuration.Observe(time.Since(startTime).Seconds())
			}
		},
	}
}

// open reports whether s is counted in the connections gauge.
func open(s mcclient.State) bool {
	return !s.Terminal()
}
