package estimator

import (
	"encoding/json"
	"net/http"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type healthHandler struct {
	mqtt     mqtt.Client
	orchards int
}

func (h *healthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	type status struct {
		Status        string `json:"status"`
		MQTTConnected bool   `json:"mqtt_connected"`
		Orchards      int    `json:"orchards"`
	}
	st := status{
		MQTTConnected: h.mqtt != nil && h.mqtt.IsConnectionOpen(),
		Orchards:      h.orchards,
	}
	// il gRPC funziona anche senza broker
	if st.MQTTConnected {
		st.Status = "ok"
	} else {
		st.Status = "degraded"
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(st)
}

// NewHTTPMux serves /healthz and /metrics.
func NewHTTPMux(m mqtt.Client, orchards int, g prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/healthz", &healthHandler{mqtt: m, orchards: orchards})
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return mux
}
