package api

import (
	"log/slog"
	"net/http"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/relaychat/relaychat/server/internal/hub"
)

// Metrics returns the GET /metrics handler. It encodes the hub's delivery
// counters in the Prometheus text exposition format.
func Metrics(h *hub.Hub) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		stats := h.Stats()
		families := []*dto.MetricFamily{
			gauge("relaychat_connections_open",
				"Number of currently open chat connections.",
				float64(stats.ConnectionsOpen)),
			counter("relaychat_connections_opened_total",
				"Total chat connections opened since start.",
				float64(stats.OpenedTotal)),
			counter("relaychat_connections_closed_total",
				"Total chat connections closed since start.",
				float64(stats.ClosedTotal)),
			counter("relaychat_broadcasts_total",
				"Total broadcast operations performed.",
				float64(stats.BroadcastsTotal)),
			counter("relaychat_broadcast_sends_total",
				"Total per-recipient send attempts across all broadcasts.",
				float64(stats.SendsTotal)),
			counter("relaychat_broadcast_send_failures_total",
				"Per-recipient send failures; failed recipients are skipped, not retried.",
				float64(stats.SendFailuresTotal)),
		}

		format := expfmt.NewFormat(expfmt.TypeTextPlain)
		w.Header().Set("Content-Type", string(format))
		enc := expfmt.NewEncoder(w, format)
		for _, mf := range families {
			if err := enc.Encode(mf); err != nil {
				slog.Warn("metrics encode failed", "family", mf.GetName(), "err", err)
				return
			}
		}
	})
}

func gauge(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{Gauge: &dto.Gauge{Value: proto.Float64(v)}}},
	}
}

func counter(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{{Counter: &dto.Counter{Value: proto.Float64(v)}}},
	}
}
