package gateway

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"indicator-dashboard/internal/indengine"
	"indicator-dashboard/internal/indicator"
	"indicator-dashboard/internal/logger"
	"indicator-dashboard/internal/metrics"
	"indicator-dashboard/internal/model"
	"indicator-dashboard/internal/predict"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// Service is the query surface the REST handlers call. *indengine.Service
// implements it.
type Service interface {
	Indicators(ctx context.Context, symbol string, tf model.Timeframe) (*indicator.Bundle, error)
	Charts(ctx context.Context, symbol string, tf model.Timeframe) (*indengine.ChartData, error)
	Predictions(ctx context.Context) ([]predict.Prediction, error)
}

// SetCORS sets CORS headers for REST endpoints.
func SetCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// RegisterRoutes registers all HTTP routes on the provided mux.
func RegisterRoutes(mux *http.ServeMux, hub *Hub, svc Service, health *metrics.HealthStatus, m *metrics.Metrics, processStart time.Time) {
	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[gateway] ws upgrade error: %v", err)
			return
		}
		hub.HandleWSRequest(conn, r.URL.Query().Get("last_ts"))
	})

	// REST: full indicator bundle
	mux.HandleFunc("/api/indicators", instrument("indicators", m, func(w http.ResponseWriter, r *http.Request) {
		symbol, tf, ok := parseSeries(w, r)
		if !ok {
			return
		}
		ctx := traced(r, symbol)
		bundle, err := svc.Indicators(ctx, symbol, tf)
		if err != nil {
			writeServiceError(ctx, w, err, "Failed to fetch indicators")
			return
		}
		writeJSON(w, http.StatusOK, bundle)
	}))

	// REST: chart overlays, feed data only
	mux.HandleFunc("/api/charts", instrument("charts", m, func(w http.ResponseWriter, r *http.Request) {
		symbol, tf, ok := parseSeries(w, r)
		if !ok {
			return
		}
		ctx := traced(r, symbol)
		chart, err := svc.Charts(ctx, symbol, tf)
		if err != nil {
			writeServiceError(ctx, w, err, "Failed to fetch chart data")
			return
		}
		writeJSON(w, http.StatusOK, chart)
	}))

	// REST: watchlist predictions
	mux.HandleFunc("/api/predictions", instrument("predictions", m, func(w http.ResponseWriter, r *http.Request) {
		ctx := traced(r, "predictions")
		preds, err := svc.Predictions(ctx)
		if err != nil {
			slog.Error("predictions failed", append(logger.LogWithTrace(ctx), "error", err)...)
			writeError(w, http.StatusInternalServerError, "Failed to generate predictions")
			return
		}
		writeJSON(w, http.StatusOK, preds)
	}))

	// REST: supported timeframes
	mux.HandleFunc("/api/timeframes", instrument("timeframes", m, func(w http.ResponseWriter, r *http.Request) {
		tfs := model.Timeframes()
		out := make([]TimeframeInfo, len(tfs))
		for i, tf := range tfs {
			out[i] = TimeframeInfo{Value: string(tf), Label: tf.Label(), Days: tf.Days()}
		}
		writeJSON(w, http.StatusOK, out)
	}))

	// REST: latest live snapshot per channel
	mux.HandleFunc("/api/latest", instrument("latest", m, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, hub.GetLatestAll())
	}))

	// REST: replay buffered envelopes for gap backfill
	mux.HandleFunc("/api/missed", instrument("missed", m, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		channel := q.Get("channel")
		if _, _, err := model.ParseChannel(channel); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid channel")
			return
		}
		current := hub.GetChannelSeq(channel)
		from, err := strconv.ParseInt(q.Get("from"), 10, 64)
		if err != nil || from < 0 {
			writeError(w, http.StatusBadRequest, "Invalid from")
			return
		}
		to := current
		if s := q.Get("to"); s != "" {
			if to, err = strconv.ParseInt(s, 10, 64); err != nil || to < from {
				writeError(w, http.StatusBadRequest, "Invalid to")
				return
			}
		}

		msgs, oldest := hub.GetReplayRange(channel, from, to)
		resp := MissedResponse{
			Channel:  channel,
			Oldest:   oldest,
			Current:  current,
			Messages: make([]json.RawMessage, len(msgs)),
		}
		for i, msg := range msgs {
			resp.Messages[i] = msg
		}
		writeJSON(w, http.StatusOK, resp)
	}))

	// Health endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		status, ok := health.Healthy()
		code := http.StatusOK
		if !ok {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]interface{}{
			"status":     status,
			"ws_clients": hub.ClientCount(),
			"uptime_sec": int64(time.Since(processStart).Seconds()),
			"ts":         time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
}

// instrument adds CORS, preflight handling and request metrics.
func instrument(endpoint string, m *metrics.Metrics, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		fn(rec, r)
		m.RequestDur.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		m.RequestsTotal.WithLabelValues(endpoint, strconv.Itoa(rec.status)).Inc()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// parseSeries reads symbol and timeframe, writing a 400 on a bad timeframe.
func parseSeries(w http.ResponseWriter, r *http.Request) (string, model.Timeframe, bool) {
	q := r.URL.Query()
	tf, err := model.ParseTimeframe(q.Get("timeframe"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown timeframe")
		return "", "", false
	}
	return indengine.NormalizeSymbol(q.Get("symbol")), tf, true
}

func traced(r *http.Request, symbol string) context.Context {
	return logger.WithTraceID(r.Context(), logger.GenerateTraceID(symbol, time.Now()))
}

// writeServiceError maps ErrNoData to 404 and anything else to 500 with msg.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, indicator.ErrNoData) {
		writeError(w, http.StatusNotFound, "No data available")
		return
	}
	slog.Error(msg, append(logger.LogWithTrace(ctx), "error", err)...)
	writeError(w, http.StatusInternalServerError, msg)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[gateway] encode response: %v", err)
	}
}
