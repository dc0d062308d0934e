package notify

import (
	"fmt"
	"io"

	"github.com/VictoriaMetrics/metrics"
)

// channelMetrics holds the per-channel metric set. Each Channel owns its own
// set so several channels can live in one process.
type channelMetrics struct {
	set *metrics.Set

	connects      *metrics.Counter
	connectErrors *metrics.Counter
	ceilingHits   *metrics.Counter
	disconnects   *metrics.Counter
	sent          *metrics.Counter
	sentBytes     *metrics.Counter
	sendErrors    *metrics.Counter
	received      *metrics.Counter
	receivedBytes *metrics.Counter
	dropped       *metrics.Counter
}

func newChannelMetrics(id string, c *Channel) *channelMetrics {
	s := metrics.NewSet()
	name := func(metric string) string {
		return fmt.Sprintf(`attachnotify_%s{channel=%q}`, metric, id)
	}

	m := &channelMetrics{
		set:           s,
		connects:      s.NewCounter(name("connects_total")),
		connectErrors: s.NewCounter(name("connect_errors_total")),
		ceilingHits:   s.NewCounter(name("reconnect_ceiling_total")),
		disconnects:   s.NewCounter(name("disconnects_total")),
		sent:          s.NewCounter(name("messages_sent_total")),
		sentBytes:     s.NewCounter(name("bytes_sent_total")),
		sendErrors:    s.NewCounter(name("send_errors_total")),
		received:      s.NewCounter(name("frames_received_total")),
		receivedBytes: s.NewCounter(name("bytes_received_total")),
		dropped:       s.NewCounter(name("messages_dropped_total")),
	}

	s.NewGauge(name("queue_depth"), func() float64 {
		return float64(c.Pending())
	})
	s.NewGauge(name("reconnect_attempts"), func() float64 {
		return float64(c.ReconnectAttempts())
	})
	s.NewGauge(name("connected"), func() float64 {
		if c.Connected() {
			return 1
		}
		return 0
	})
	return m
}

func (m *channelMetrics) writePrometheus(w io.Writer) {
	m.set.WritePrometheus(w)
}
