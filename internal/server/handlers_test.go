package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vanshika/basketwise/internal/auth"
	"github.com/vanshika/basketwise/internal/catalog"
	"github.com/vanshika/basketwise/internal/domain"
	"github.com/vanshika/basketwise/internal/graph"
	"github.com/vanshika/basketwise/internal/metrics"
	"github.com/vanshika/basketwise/internal/poolcache"
	"github.com/vanshika/basketwise/internal/repository"
	"github.com/vanshika/basketwise/internal/service"
	"github.com/vanshika/basketwise/internal/store"
)

type testEnv struct {
	handler http.Handler
	api     *APIHandlers
	graph   *graph.MemoryClient
	catalog *catalog.Repository
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	ctx := context.Background()

	st, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cat, err := catalog.New(ctx, st)
	require.NoError(t, err)
	for _, p := range []domain.Product{
		{ID: 1, Name: "Amul Milk", Category: "milk", Brand: "Amul", Price: 40, StockQuantity: 5, Weight: 1},
		{ID: 2, Name: "Nandini Milk", Category: "milk", Brand: "Nandini", Price: 60, StockQuantity: 5, Weight: 1},
		{ID: 3, Name: "Brown Bread", Category: "bread", Brand: "Harvest", Price: 30, StockQuantity: 5, Weight: 0.4},
		{ID: 4, Name: "White Bread", Category: "bread", Brand: "Modern", Price: 35, StockQuantity: 5, Weight: 0.4},
		{ID: 5, Name: "Salted Butter", Category: "butter", Brand: "Amul", Price: 50, StockQuantity: 5, Weight: 0.1},
	} {
		require.NoError(t, cat.Upsert(ctx, p))
	}
	require.NoError(t, cat.AddAlternative(ctx, 1, 2))

	users, err := auth.NewUserRepository(ctx, st)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	client := graph.NewMemoryClient()
	logger := zap.NewNop()
	planner := service.NewPlanner(cat, repository.New(client), poolcache.NewMemoryStore(time.Hour), service.Options{
		Metrics: m,
		Logger:  logger,
	})

	api := NewAPIHandlers(logger, planner, m, nil)
	handler := NewRouter(logger, RouterDependencies{
		Health:         CompositeHealth{"graph": GraphHealthService{Client: client}, "catalog": ProbeFunc(st.Ping)},
		API:            api,
		Auth:           NewAuthHandlers(logger, auth.NewService(users, "test-secret", time.Hour, logger)),
		Metrics:        m,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
	return testEnv{handler: handler, api: api, graph: client, catalog: cat}
}

func (e testEnv) do(t *testing.T, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&out), rec.Body.String())
	return out
}

func nodeProductIDs(nodes []nodeResponse) []int64 {
	ids := make([]int64, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.Product.ID)
	}
	return ids
}

func (e testEnv) createPlan(t *testing.T) planResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/plans", `{"budget":200,"desiredItems":["milk","bread"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[planResponse](t, rec)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	env.graph.FailConnectivity(errors.New("neo4j unreachable"))
	rec = env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "degraded", body["status"])
	assert.Contains(t, body["error"], "graph: neo4j unreachable")
}

func TestPlanThenRange(t *testing.T) {
	env := newTestEnv(t)

	plan := env.createPlan(t)
	require.NotEmpty(t, plan.PlanID)
	assert.Equal(t, []string{"milk", "bread"}, plan.DesiredItems)
	assert.Equal(t, []int64{1, 3}, nodeProductIDs(plan.OptimalPath))
	assert.Equal(t, 70.0, plan.OptimalCost)
	assert.Nil(t, plan.InRangePath)
	assert.Nil(t, plan.InRangeCost)
	assert.False(t, plan.RangeActive)
	assert.Len(t, plan.Graph.Nodes, 4)
	assert.Len(t, plan.Graph.Edges, 4)
	require.Len(t, plan.Graph.Stages, 2)
	assert.Equal(t, "0_1", plan.Graph.Stages[0][1].ID)
	assert.Equal(t, int64(2), plan.Graph.Stages[0][1].Product.ID)
	assert.Equal(t, 1, plan.Graph.Stages[1][0].Stage)
	assert.LessOrEqual(t, plan.SelectionTotal, 200.0)

	rec := env.do(t, http.MethodPost, "/plans/"+plan.PlanID+"/range", `{"minPrice":75,"maxPrice":100}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ranged := decodeBody[planResponse](t, rec)

	assert.Equal(t, plan.PlanID, ranged.PlanID)
	assert.True(t, ranged.RangeActive)
	assert.Equal(t, []int64{1, 4}, nodeProductIDs(ranged.InRangePath))
	require.NotNil(t, ranged.InRangeCost)
	assert.Equal(t, 75.0, *ranged.InRangeCost)
	assert.Equal(t, 70.0, ranged.OptimalCost)
}

func TestRangeWithoutMatchingPath(t *testing.T) {
	env := newTestEnv(t)
	plan := env.createPlan(t)

	rec := env.do(t, http.MethodPost, "/plans/"+plan.PlanID+"/range", `{"minPrice":100,"maxPrice":90}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decodeBody[planResponse](t, rec).InRangePath)
}

func TestPlanResponseCarriesTopLevelPathsAndCosts(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/plans", `{"budget":200,"minPrice":75,"maxPrice":100,"desiredItems":["milk","bread"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody[map[string]any](t, rec)

	for _, key := range []string{"optimalPath", "optimalCost", "inRangePath", "inRangeCost", "selection", "graph"} {
		assert.Contains(t, body, key)
	}
	assert.Equal(t, 70.0, body["optimalCost"])
	assert.Equal(t, 75.0, body["inRangeCost"])
	require.Len(t, body["optimalPath"], 2)
	first := body["optimalPath"].([]any)[0].(map[string]any)
	assert.Equal(t, "0_0", first["id"])

	stages := body["graph"].(map[string]any)["stages"].([]any)
	require.Len(t, stages, 2)
	node := stages[1].([]any)[0].(map[string]any)
	assert.Equal(t, "1_0", node["id"])
	assert.Contains(t, node, "product")

	rec = env.do(t, http.MethodPost, "/plans", `{"budget":200,"desiredItems":["milk","bread"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	body = decodeBody[map[string]any](t, rec)
	assert.Nil(t, body["inRangePath"])
	assert.Nil(t, body["inRangeCost"])
}

func TestRangeUnknownPlan(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/plans/missing/range", `{"minPrice":1,"maxPrice":2}`)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	problem := decodeBody[Problem](t, rec)
	assert.Equal(t, ProblemTypeNotFound, problem.Type)
	assert.Equal(t, "/plans/missing/range", problem.Instance)
}

func TestPlanRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)

	cases := map[string]string{
		"negative budget": `{"budget":-1,"desiredItems":["milk"]}`,
		"negative min":    `{"budget":10,"minPrice":-5,"desiredItems":["milk"]}`,
		"unknown field":   `{"budget":10,"items":["milk"]}`,
		"malformed":       `{"budget":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/plans", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, ProblemTypeBadRequest, decodeBody[Problem](t, rec).Type)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/plans", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}

func TestSearchAndAlternatives(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/products/search?q=bread", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{3, 4}, domain.ProductIDs(decodeBody[productsResponse](t, rec).Items))

	rec = env.do(t, http.MethodGet, "/products/search?q=caviar", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[productsResponse](t, rec).Items)

	rec = env.do(t, http.MethodGet, "/products/1/alternatives", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{2}, domain.ProductIDs(decodeBody[productsResponse](t, rec).Items))

	rec = env.do(t, http.MethodGet, "/products/99/alternatives", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/products/abc/alternatives", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecommendations(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/recommendations", `{"productIds":[3]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	recs := decodeBody[recommendationsResponse](t, rec).Items
	require.Len(t, recs, 1)
	assert.Equal(t, int64(4), recs[0].Product.ID)
	assert.Equal(t, 1.0, recs[0].Confidence)
	assert.Equal(t, string(domain.SourceWeightSimilarity), recs[0].Source)

	rec = env.do(t, http.MethodPost, "/recommendations", `{"productIds":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/recommendations", `{"productIds":[42]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestComplementaryFallsBackToCategory(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/recommendations/complementary", `{"productIds":[1]}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	recs := decodeBody[recommendationsResponse](t, rec).Items
	require.Len(t, recs, 1)
	assert.Equal(t, int64(2), recs[0].Product.ID)
	assert.Equal(t, 0.5, recs[0].Confidence)
	assert.Equal(t, string(domain.SourceCategory), recs[0].Source)
}

func TestComplementaryUsesPurchaseHistory(t *testing.T) {
	env := newTestEnv(t)
	env.graph.Queue(graph.ModeRead, graph.Result{Records: []graph.Record{
		{"productId": int64(5), "name": "Salted Butter", "category": "butter", "brand": "Amul", "price": 50.0, "weight": 0.1, "confidence": 0.4},
	}})

	rec := env.do(t, http.MethodPost, "/recommendations/complementary", `{"productIds":[3]}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	recs := decodeBody[recommendationsResponse](t, rec).Items
	require.Len(t, recs, 1)
	assert.Equal(t, int64(5), recs[0].Product.ID)
	assert.Equal(t, string(domain.SourceCoPurchase), recs[0].Source)
}

func TestAuthFlowAndLists(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/lists", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

	signup := `{"name":"Asha","email":"asha@example.com","username":"asha","password":"s3cret","age":28,"gender":"female"}`
	rec = env.do(t, http.MethodPost, "/auth/signup", signup)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user := decodeBody[userResponse](t, rec)
	require.NotEmpty(t, user.UserID)

	rec = env.do(t, http.MethodPost, "/auth/signup", signup)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/login", `{"username":"asha","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/login", `{"username":"asha","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decodeBody[loginResponse](t, rec)
	require.NotEmpty(t, login.Token)
	assert.Equal(t, user.UserID, login.User.UserID)
	bearer := "Bearer " + login.Token

	rec = env.do(t, http.MethodGet, "/auth/me", "", "Authorization", bearer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "asha", decodeBody[userResponse](t, rec).Username)

	env.graph.Queue(graph.ModeWrite, graph.Result{}, graph.Result{Records: []graph.Record{{"listId": "list-1"}}})
	rec = env.do(t, http.MethodPost, "/lists",
		`{"budget":200,"desiredItems":["milk","bread"],"items":[{"productId":1,"name":"Amul Milk","price":40,"quantity":2},{"productId":3,"name":"Brown Bread","price":30}]}`,
		"Authorization", bearer)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	saved := decodeBody[saveListResponse](t, rec)
	assert.Equal(t, "list-1", saved.ListID)
	assert.Equal(t, 110.0, saved.TotalCost)
	assert.Equal(t, 2, saved.ItemCount)

	writes := env.graph.Calls(graph.ModeWrite)
	require.Len(t, writes, 2)
	assert.Equal(t, user.UserID, writes[1].Params["userId"])

	env.graph.Queue(graph.ModeRead, graph.Result{Records: []graph.Record{
		{"listId": "list-1", "totalCost": 110.0, "itemCount": int64(2), "createdAt": "2026-10-18T09:00:00Z"},
	}})
	rec = env.do(t, http.MethodGet, "/lists", "", "Authorization", bearer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	lists := decodeBody[listsResponse](t, rec).Items
	require.Len(t, lists, 1)
	assert.Equal(t, "list-1", lists[0].ListID)
	assert.Equal(t, "2026-10-18T09:00:00Z", lists[0].CreatedAt)

	rec = env.do(t, http.MethodGet, "/lists", "", "Authorization", "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignUpRejectsUnderage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/signup",
		`{"name":"Kid","email":"kid@example.com","username":"kid","password":"pw","age":12,"gender":"male"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[Problem](t, rec).Detail, "at least 15")
}

func TestMetricsEndpointCountsRoutes(t *testing.T) {
	env := newTestEnv(t)
	env.createPlan(t)

	rec := env.do(t, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `basketwise_http_requests_total{code="201",route="/plans"} 1`)
	assert.Contains(t, body, `basketwise_planner_computations_total{kind="plan"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	handler := NewRouter(zap.NewNop(), RouterDependencies{AllowedOrigins: []string{"http://localhost:5173"}})

	req := httptest.NewRequest(http.MethodOptions, "/plans", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/plans", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func dialStream(t *testing.T, srv *httptest.Server, planID string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/plans/"+planID+"/stream", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func TestStreamPublishesLatestRange(t *testing.T) {
	env := newTestEnv(t)
	plan := env.createPlan(t)
	srv := httptest.NewServer(env.handler)
	defer srv.Close()

	conn := dialStream(t, srv, plan.PlanID)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, window := range []rangeRequest{{MinPrice: 0, MaxPrice: 72}, {MinPrice: 90, MaxPrice: 92}, {MinPrice: 75, MaxPrice: 100}} {
		require.NoError(t, wsjson.Write(ctx, conn, window))
	}

	var last streamMessage
	for last.Seq < 3 {
		var msg streamMessage
		require.NoError(t, wsjson.Read(ctx, conn, &msg))
		require.Greater(t, msg.Seq, last.Seq, "results must arrive in request order")
		last = msg
	}

	require.NotNil(t, last.Plan)
	assert.Equal(t, []int64{1, 4}, nodeProductIDs(last.Plan.InRangePath))
	require.NotNil(t, last.Plan.InRangeCost)
	assert.Equal(t, 75.0, *last.Plan.InRangeCost)
	assert.Equal(t, 75.0, last.Plan.MinPrice)
	assert.Equal(t, 100.0, last.Plan.MaxPrice)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))
}

func TestStreamSkipsSupersededUpdates(t *testing.T) {
	env := newTestEnv(t)
	plan := env.createPlan(t)

	var latest service.LatestOnly
	superseded := latest.Begin()
	current := latest.Begin()

	_, ok := env.api.rangeResult(context.Background(), &latest, superseded, plan.PlanID, "/stream", rangeRequest{MinPrice: 75, MaxPrice: 100})
	assert.False(t, ok)

	metricsBody := env.do(t, http.MethodGet, "/metrics", "").Body.String()
	assert.Contains(t, metricsBody, "basketwise_planner_stale_results_discarded_total 1")
	assert.NotContains(t, metricsBody, `kind="recompute"`)

	msg, ok := env.api.rangeResult(context.Background(), &latest, current, plan.PlanID, "/stream", rangeRequest{MinPrice: 75, MaxPrice: 100})
	require.True(t, ok)
	assert.Equal(t, current, msg.Seq)
	require.NotNil(t, msg.Plan)
	require.NotNil(t, msg.Plan.InRangeCost)
	assert.Equal(t, 75.0, *msg.Plan.InRangeCost)
}

func TestStreamReportsErrors(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.handler)
	defer srv.Close()

	conn := dialStream(t, srv, "missing")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, wsjson.Write(ctx, conn, rangeRequest{MinPrice: 1, MaxPrice: 2}))
	var msg streamMessage
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	require.NotNil(t, msg.Error)
	assert.Equal(t, http.StatusNotFound, msg.Error.Status)

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("{not json")))
	msg = streamMessage{}
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	require.NotNil(t, msg.Error)
	assert.Equal(t, http.StatusBadRequest, msg.Error.Status)
	assert.Equal(t, uint64(2), msg.Seq)
}

func TestOriginPatterns(t *testing.T) {
	got := originPatterns([]string{"http://localhost:5173", " ", "*", "https://shop.example.com"})

	assert.Equal(t, []string{"localhost:5173", "*", "shop.example.com"}, got)
}
