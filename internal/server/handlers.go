package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/vanshika/basketwise/internal/auth"
	"github.com/vanshika/basketwise/internal/catalog"
	"github.com/vanshika/basketwise/internal/metrics"
	"github.com/vanshika/basketwise/internal/poolcache"
	"github.com/vanshika/basketwise/internal/service"
)

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger         *zap.Logger
	planner        *service.Planner
	metrics        *metrics.Metrics
	allowedOrigins []string
}

// NewAPIHandlers constructs an APIHandlers instance. allowedOrigins limits
// which browser origins may open plan streams; empty means same-origin only.
func NewAPIHandlers(logger *zap.Logger, planner *service.Planner, m *metrics.Metrics, allowedOrigins []string) *APIHandlers {
	return &APIHandlers{
		logger:         logger,
		planner:        planner,
		metrics:        m,
		allowedOrigins: allowedOrigins,
	}
}

func (h *APIHandlers) handlePlans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var payload planRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.planner.Plan(r.Context(), service.PlanRequest{
		Budget:       payload.Budget,
		MinPrice:     payload.MinPrice,
		MaxPrice:     payload.MaxPrice,
		DesiredItems: payload.DesiredItems,
	})
	if err != nil {
		h.fail(w, r, err, "failed to compute plan")
		return
	}

	respondJSON(w, http.StatusCreated, toPlanResponse(result))
}

func (h *APIHandlers) handleRange(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var payload rangeRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.planner.Recompute(r.Context(), r.PathValue("id"), payload.MinPrice, payload.MaxPrice)
	if err != nil {
		h.fail(w, r, err, "failed to recompute plan")
		return
	}

	respondJSON(w, http.StatusOK, toPlanResponse(result))
}

func (h *APIHandlers) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	products, err := h.planner.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, r, err, "failed to search products")
		return
	}

	respondJSON(w, http.StatusOK, productsResponse{Items: products})
}

func (h *APIHandlers) handleAlternatives(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, r, http.StatusBadRequest, "invalid product id")
		return
	}

	products, err := h.planner.Alternatives(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "failed to load alternatives")
		return
	}

	respondJSON(w, http.StatusOK, productsResponse{Items: products})
}

func (h *APIHandlers) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var payload recommendRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}

	recs, err := h.planner.Recommend(r.Context(), service.RecommendRequest(payload))
	if err != nil {
		h.fail(w, r, err, "failed to compute recommendations")
		return
	}

	respondJSON(w, http.StatusOK, toRecommendationsResponse(recs))
}

func (h *APIHandlers) handleComplementary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var payload recommendRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}

	recs, err := h.planner.Complementary(r.Context(), service.RecommendRequest(payload))
	if err != nil {
		h.fail(w, r, err, "failed to compute complementary products")
		return
	}

	respondJSON(w, http.StatusOK, toRecommendationsResponse(recs))
}

func (h *APIHandlers) handleLists(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.saveList(w, r)
	case http.MethodGet:
		h.listLists(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (h *APIHandlers) saveList(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeProblem(w, r, http.StatusUnauthorized, "sign in to save lists")
		return
	}

	var payload saveListRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.planner.SaveSelection(r.Context(), claims.UserID(), payload.toServiceInput())
	if err != nil {
		h.fail(w, r, err, "failed to save list")
		return
	}

	respondJSON(w, http.StatusCreated, saveListResponse{
		ListID:    result.ListID,
		TotalCost: result.TotalCost,
		ItemCount: result.ItemCount,
	})
}

func (h *APIHandlers) listLists(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeProblem(w, r, http.StatusUnauthorized, "sign in to view lists")
		return
	}

	lists, err := h.planner.Lists(r.Context(), claims.UserID())
	if err != nil {
		h.fail(w, r, err, "failed to list saved lists")
		return
	}

	resp := listsResponse{Items: make([]listSummaryResponse, 0, len(lists))}
	for _, l := range lists {
		resp.Items = append(resp.Items, listSummaryResponse{
			ListID:    l.ID,
			TotalCost: l.TotalCost,
			ItemCount: l.ItemCount,
			CreatedAt: formatTime(l.CreatedAt),
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

// fail maps service errors onto problem responses. Unexpected errors are
// logged and reported with a generic detail.
func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error, detail string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(detail, zap.String("path", r.URL.Path), zap.Error(err))
		writeProblem(w, r, status, detail)
		return
	}
	writeProblem(w, r, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, auth.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, poolcache.ErrPlanNotFound), errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, methods ...string) {
	for _, m := range methods {
		w.Header().Add("Allow", m)
	}
	writeProblem(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
