package irc

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments for one server instance. Each
// server carries its own registry so multiple instances in one process
// (tests in particular) never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	// ClientsGauge tracks currently connected clients
	ClientsGauge prometheus.Gauge

	// ChannelsGauge tracks currently existing channels
	ChannelsGauge prometheus.Gauge

	// CommandsTotal counts dispatched commands by verb
	CommandsTotal *prometheus.CounterVec

	// MessagesTotal counts relayed PRIVMSG deliveries
	MessagesTotal prometheus.Counter
}

// NewMetrics builds a Metrics with a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		ClientsGauge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ircd_clients_connected",
			Help: "Number of currently connected clients",
		}),
		ChannelsGauge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ircd_channels_active",
			Help: "Number of currently existing channels",
		}),
		CommandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ircd_commands_total",
			Help: "Total number of commands dispatched by verb",
		}, []string{"command"}),
		MessagesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "ircd_messages_total",
			Help: "Total number of PRIVMSG messages relayed",
		}),
	}
}

func (m *Metrics) countCommand(verb string) {
	m.CommandsTotal.WithLabelValues(verb).Inc()
}

// Handler exposes the registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// newMetricsServer builds the HTTP server exposing the metrics endpoint and
// a trivial health check on the configured metrics address.
func (s *Server) newMetricsServer() *http.Server {
	router := mux.NewRouter()
	router.Handle(s.config.Metrics.Path, s.metrics.Handler())
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return &http.Server{
		Addr:    s.config.GetMetricsListenAddress(),
		Handler: router,
	}
}

// startMetricsServer serves metrics until Stop shuts the listener down.
func (s *Server) startMetricsServer() {
	s.log.Info().Str("addr", s.metricsHTTP.Addr).Msg("metrics server listening")
	if err := s.metricsHTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.log.Error().Err(err).Msg("metrics server stopped")
	}
}
