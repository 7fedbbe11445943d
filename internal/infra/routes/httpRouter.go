package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"survey-bot/internal/infra/handlers"
)

type Routes struct {
	Mux              *mux.Router
	HttpHandler      *handlers.HttpHandlers
	InfobipHandler   *handlers.InfobipHandlers
	KeepAliveHandler *handlers.KeepAliveHandlers
	Gatherer         prometheus.Gatherer
}

func NewRoutes(mux *mux.Router, httpHandler *handlers.HttpHandlers, infobipHandler *handlers.InfobipHandlers, keepAliveHandler *handlers.KeepAliveHandlers, gatherer prometheus.Gatherer) *Routes {
	return &Routes{
		Mux:              mux,
		HttpHandler:      httpHandler,
		InfobipHandler:   infobipHandler,
		KeepAliveHandler: keepAliveHandler,
		Gatherer:         gatherer,
	}
}

func (r *Routes) Init() {
	r.Mux.HandleFunc("/webhook", r.HttpHandler.MetaWebhook).Methods(http.MethodGet, http.MethodPost)
	r.Mux.HandleFunc("/webhook/infobip", r.InfobipHandler.InfoBipWebhook).Methods(http.MethodPost)

	r.Mux.HandleFunc("/", r.KeepAliveHandler.Home).Methods(http.MethodGet)
	r.Mux.HandleFunc("/health", r.KeepAliveHandler.Health).Methods(http.MethodGet)
	r.Mux.HandleFunc("/healthCheck", r.KeepAliveHandler.HealthCheck).Methods(http.MethodGet)
	r.Mux.HandleFunc("/ping", r.KeepAliveHandler.Ping).Methods(http.MethodGet)
	r.Mux.HandleFunc("/status", r.KeepAliveHandler.Status).Methods(http.MethodGet)
	r.Mux.HandleFunc("/uptime", r.KeepAliveHandler.Uptime).Methods(http.MethodGet)
	r.Mux.HandleFunc("/keep-alive", r.KeepAliveHandler.KeepAlive).Methods(http.MethodGet)

	if r.Gatherer != nil {
		r.Mux.Handle("/metrics", promhttp.HandlerFor(r.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
}
