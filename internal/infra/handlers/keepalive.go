package handlers

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"time"

	"survey-bot/internal/infra/logger"
	"survey-bot/internal/util"
)

const keepAlivePage = `<html>
  <head><title>%[1]s</title></head>
  <body style="font-family: Arial, sans-serif; text-align: center; padding: 50px;">
    <h1>%[1]s</h1>
    <p>Bot está rodando e funcionando!</p>
    <p>%[2]s</p>
    <p>Uptime: %[3]d segundos</p>
  </body>
</html>
`

// KeepAliveHandlers answers the uptime monitors that keep the host awake.
// None of these endpoints touch the conversation state.
type KeepAliveHandlers struct {
	Logger  *logger.Logger
	BotName string
	Started time.Time
	Now     func() time.Time
}

func NewKeepAliveHandlers(logger *logger.Logger, botName string) *KeepAliveHandlers {
	return &KeepAliveHandlers{Logger: logger, BotName: botName, Started: time.Now(), Now: time.Now}
}

func (th *KeepAliveHandlers) uptime() time.Duration {
	return th.Now().Sub(th.Started)
}

func (th *KeepAliveHandlers) Home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, keepAlivePage,
		html.EscapeString(th.BotName),
		util.FormatDateTimeBR(th.Now()),
		int64(th.uptime().Seconds()),
	)
}

func (th *KeepAliveHandlers) Health(w http.ResponseWriter, r *http.Request) {
	th.writeJSON(w, map[string]any{
		"status":    "ok",
		"timestamp": th.Now().UTC().Format(time.RFC3339),
		"uptime":    th.uptime().Seconds(),
		"bot":       th.BotName + " Ativo",
	})
}

func (th *KeepAliveHandlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	th.writeJSON(w, map[string]string{"status": "healthy"})
}

func (th *KeepAliveHandlers) Ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("pong"))
}

func (th *KeepAliveHandlers) Status(w http.ResponseWriter, r *http.Request) {
	th.writeJSON(w, map[string]string{
		"bot":    th.BotName,
		"status": "online",
		"time":   th.Now().UTC().Format(time.RFC3339),
		"uptime": fmt.Sprintf("%d segundos", int64(th.uptime().Seconds())),
	})
}

func (th *KeepAliveHandlers) Uptime(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (th *KeepAliveHandlers) KeepAlive(w http.ResponseWriter, r *http.Request) {
	th.writeJSON(w, map[string]string{
		"status":    "alive",
		"uptime":    util.FormatHoursMinutes(th.uptime()),
		"timestamp": th.Now().UTC().Format(time.RFC3339),
		"message":   "Bot mantido ativo!",
	})
}

func (th *KeepAliveHandlers) writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		th.Logger.Error(fmt.Sprintf("Failed to encode response: %v", err))
	}
}
