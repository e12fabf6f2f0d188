package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/vanshika/basketwise/internal/service"
)

const streamWriteTimeout = 5 * time.Second

// streamMessage is one server frame on a plan stream. Seq echoes the
// position of the range update it answers.
type streamMessage struct {
	Seq   uint64        `json:"seq"`
	Plan  *planResponse `json:"plan,omitempty"`
	Error *Problem      `json:"error,omitempty"`
}

// handleStream upgrades to a websocket that accepts price range updates for
// a cached plan. Updates are recomputed concurrently and only the result of
// the most recent update is sent; superseded results are dropped.
func (h *APIHandlers) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	planID := r.PathValue("id")
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(h.allowedOrigins),
	})
	if err != nil {
		h.logger.Warn("plan stream upgrade failed", zap.String("plan_id", planID), zap.Error(err))
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var (
		latest  service.LatestOnly
		writeMu sync.Mutex
		wg      sync.WaitGroup
	)
	publish := func(ticket uint64, msg streamMessage) {
		writeMu.Lock()
		defer writeMu.Unlock()
		// Checked under the write lock so an older result can never follow
		// a newer one onto the wire.
		if !latest.Current(ticket) {
			h.metrics.StaleDiscarded()
			return
		}
		wctx, wcancel := context.WithTimeout(ctx, streamWriteTimeout)
		defer wcancel()
		if err := wsjson.Write(wctx, conn, msg); err != nil {
			h.logger.Debug("plan stream write failed", zap.String("plan_id", planID), zap.Error(err))
			cancel()
		}
	}

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && !errors.Is(err, context.Canceled) {
				h.logger.Debug("plan stream closed", zap.String("plan_id", planID), zap.Error(err))
			}
			break
		}

		ticket := latest.Begin()
		var update rangeRequest
		if err := json.Unmarshal(data, &update); err != nil {
			problem := newProblem(http.StatusBadRequest, "malformed range update", r.URL.Path)
			publish(ticket, streamMessage{Seq: ticket, Error: &problem})
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if msg, ok := h.rangeResult(ctx, &latest, ticket, planID, r.URL.Path, update); ok {
				publish(ticket, msg)
			}
		}()
	}

	cancel()
	wg.Wait()
	conn.Close(websocket.StatusNormalClosure, "")
}

// rangeResult recomputes the plan for one stream update. It reports false
// without computing when a newer update has already arrived or the stream
// is closing.
func (h *APIHandlers) rangeResult(ctx context.Context, latest *service.LatestOnly, ticket uint64, planID, instance string, update rangeRequest) (streamMessage, bool) {
	if !latest.Current(ticket) {
		h.metrics.StaleDiscarded()
		return streamMessage{}, false
	}

	result, err := h.planner.Recompute(ctx, planID, update.MinPrice, update.MaxPrice)
	if err != nil {
		if ctx.Err() != nil {
			return streamMessage{}, false
		}
		status := statusFor(err)
		detail := err.Error()
		if status == http.StatusInternalServerError {
			h.logger.Error("plan stream recompute failed", zap.String("plan_id", planID), zap.Error(err))
			detail = "failed to recompute plan"
		}
		problem := newProblem(status, detail, instance)
		return streamMessage{Seq: ticket, Error: &problem}, true
	}
	resp := toPlanResponse(result)
	return streamMessage{Seq: ticket, Plan: &resp}, true
}

// originPatterns converts configured origins to the host patterns the
// websocket handshake matches against.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			patterns = append(patterns, origin)
			continue
		}
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
		}
	}
	return patterns
}
