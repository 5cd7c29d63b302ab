package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/tazeemc/Entropy/internal/api/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	streamReadTimeout  = 30 * time.Second
	streamWriteTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamHandler runs a backtest over a websocket and streams its records
type StreamHandler struct {
	sources   *Sources
	results   *ResultStore
	presetDir string
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(sources *Sources, results *ResultStore, presetDir string) *StreamHandler {
	return &StreamHandler{
		sources:   sources,
		results:   results,
		presetDir: presetDir,
	}
}

// Stream handles GET /api/v1/backtest/stream.
//
// The client sends one BacktestRequest as JSON. The server answers with a
// "record" frame per step, then a single "summary" frame, and closes. Any
// failure is sent as an "error" frame instead.
func (h *StreamHandler) Stream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[Stream] Upgrade error: %v", err)
		return
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(streamReadTimeout))
	var req models.BacktestRequest
	if err := conn.ReadJSON(&req); err != nil {
		h.writeError(conn, models.ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()})
		return
	}
	if req.DataSource.Type == "" {
		h.writeError(conn, models.ErrorDetail{Code: "INVALID_REQUEST", Message: "data_source.type is required"})
		return
	}

	cfg, err := resolveModel(h.presetDir, req.Config)
	if err != nil {
		h.writeErr(conn, err)
		return
	}
	series, err := h.sources.Fetch(c.Request.Context(), req.DataSource)
	if err != nil {
		h.writeErr(conn, err)
		return
	}
	res, perf, err := runBacktest(cfg, series, req.Options.LimitObservations)
	if err != nil {
		h.writeErr(conn, err)
		return
	}
	id := h.results.Put(res).String()

	for _, rec := range res.Records {
		row := convertRecord(rec)
		if err := h.write(conn, models.StreamMessage{Type: "record", ID: id, Record: &row}); err != nil {
			log.Printf("[Stream] %s: client went away after %d records: %v", id, rec.Index, err)
			return
		}
	}

	summary := buildSummary(res, perf, cfg.Name)
	if err := h.write(conn, models.StreamMessage{Type: "summary", ID: id, Summary: &summary}); err != nil {
		log.Printf("[Stream] %s: failed to send summary: %v", id, err)
		return
	}

	conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	err = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		log.Printf("[Stream] %s: close: %v", id, err)
	}
}

func (h *StreamHandler) write(conn *websocket.Conn, msg models.StreamMessage) error {
	conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	return conn.WriteJSON(msg)
}

func (h *StreamHandler) writeErr(conn *websocket.Conn, err error) {
	_, detail := errorDetail(err)
	h.writeError(conn, detail)
}

func (h *StreamHandler) writeError(conn *websocket.Conn, detail models.ErrorDetail) {
	if err := h.write(conn, models.StreamMessage{Type: "error", Error: &detail}); err != nil {
		log.Printf("[Stream] Failed to send error frame: %v", err)
	}
}
