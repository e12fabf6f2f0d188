package server

import (
	"github.com/vanshika/basketwise/internal/domain"
	"github.com/vanshika/basketwise/internal/optimizer"
	"github.com/vanshika/basketwise/internal/service"
)

// --- Request & Response DTOs ---

type planRequest struct {
	Budget       float64  `json:"budget"`
	MinPrice     float64  `json:"minPrice"`
	MaxPrice     float64  `json:"maxPrice"`
	DesiredItems []string `json:"desiredItems"`
}

type rangeRequest struct {
	MinPrice float64 `json:"minPrice"`
	MaxPrice float64 `json:"maxPrice"`
}

type recommendRequest struct {
	ProductIDs []int64 `json:"productIds"`
	Category   string  `json:"category"`
	ExcludeIDs []int64 `json:"excludeIds"`
}

type cartItemRequest struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Brand     string  `json:"brand"`
	Price     float64 `json:"price"`
	Weight    float64 `json:"weight"`
	Quantity  int     `json:"quantity"`
}

type saveListRequest struct {
	Budget       float64           `json:"budget"`
	DesiredItems []string          `json:"desiredItems"`
	Items        []cartItemRequest `json:"items"`
}

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Age      int    `json:"age"`
	Gender   string `json:"gender"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expiresAt"`
	User      userResponse `json:"user"`
}

type nodeResponse struct {
	ID      string         `json:"id"`
	Stage   int            `json:"stage"`
	Index   int            `json:"index"`
	Product domain.Product `json:"product"`
}

type edgeResponse struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Weight float64 `json:"weight"`
}

type graphResponse struct {
	Nodes  []nodeResponse   `json:"nodes"`
	Edges  []edgeResponse   `json:"edges"`
	Stages [][]nodeResponse `json:"stages"`
}

type planResponse struct {
	PlanID         string           `json:"planId"`
	Budget         float64          `json:"budget"`
	MinPrice       float64          `json:"minPrice"`
	MaxPrice       float64          `json:"maxPrice"`
	RangeActive    bool             `json:"rangeActive"`
	DesiredItems   []string         `json:"desiredItems"`
	Selection      []domain.Product `json:"selection"`
	SelectionTotal float64          `json:"selectionTotal"`
	Graph          graphResponse    `json:"graph"`
	OptimalPath    []nodeResponse   `json:"optimalPath"`
	OptimalCost    float64          `json:"optimalCost"`
	InRangePath    []nodeResponse   `json:"inRangePath"`
	InRangeCost    *float64         `json:"inRangeCost"`
	ComputedAt     string           `json:"computedAt"`
}

type recommendationResponse struct {
	Product    domain.Product `json:"product"`
	Confidence float64        `json:"confidence"`
	Source     string         `json:"source"`
}

type listSummaryResponse struct {
	ListID    string  `json:"listId"`
	TotalCost float64 `json:"totalCost"`
	ItemCount int     `json:"itemCount"`
	CreatedAt string  `json:"createdAt"`
}

type saveListResponse struct {
	ListID    string  `json:"listId"`
	TotalCost float64 `json:"totalCost"`
	ItemCount int     `json:"itemCount"`
}

type productsResponse struct {
	Items []domain.Product `json:"items"`
}

type recommendationsResponse struct {
	Items []recommendationResponse `json:"items"`
}

type listsResponse struct {
	Items []listSummaryResponse `json:"items"`
}

func (req saveListRequest) toServiceInput() service.SaveRequest {
	items := make([]domain.CartItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.CartItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Category:  item.Category,
			Brand:     item.Brand,
			Price:     item.Price,
			Weight:    item.Weight,
			Quantity:  item.Quantity,
		})
	}
	return service.SaveRequest{
		Budget:       req.Budget,
		DesiredItems: req.DesiredItems,
		Items:        items,
	}
}

func toNodeResponses(nodes []optimizer.Node) []nodeResponse {
	out := make([]nodeResponse, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, nodeResponse{ID: n.ID, Stage: n.Stage, Index: n.Index, Product: n.Product})
	}
	return out
}

func toPlanResponse(res service.PlanResult) planResponse {
	g := graphResponse{
		Nodes:  toNodeResponses(res.Graph.Nodes),
		Edges:  make([]edgeResponse, 0, len(res.Graph.Edges)),
		Stages: make([][]nodeResponse, 0, len(res.Graph.Stages)),
	}
	for _, e := range res.Graph.Edges {
		g.Edges = append(g.Edges, edgeResponse{From: e.From, To: e.To, Weight: e.Weight})
	}
	for _, stage := range res.Graph.Stages {
		g.Stages = append(g.Stages, toNodeResponses(stage))
	}

	resp := planResponse{
		PlanID:         res.PlanID,
		Budget:         res.Budget,
		MinPrice:       res.MinPrice,
		MaxPrice:       res.MaxPrice,
		RangeActive:    res.RangeActive(),
		DesiredItems:   res.DesiredItems,
		Selection:      res.Selection,
		SelectionTotal: res.SelectionTotal,
		Graph:          g,
		OptimalPath:    toNodeResponses(res.Optimal.Path),
		OptimalCost:    res.Optimal.Cost,
		ComputedAt:     formatTime(res.ComputedAt),
	}
	if resp.DesiredItems == nil {
		resp.DesiredItems = []string{}
	}
	if resp.Selection == nil {
		resp.Selection = []domain.Product{}
	}
	// inRangePath and inRangeCost stay null when no path fits the window.
	if res.InRange != nil {
		cost := res.InRange.Cost
		resp.InRangePath = toNodeResponses(res.InRange.Path)
		resp.InRangeCost = &cost
	}
	return resp
}

func toRecommendationsResponse(recs []domain.Recommendation) recommendationsResponse {
	resp := recommendationsResponse{Items: make([]recommendationResponse, 0, len(recs))}
	for _, r := range recs {
		resp.Items = append(resp.Items, recommendationResponse{
			Product:    r.Product,
			Confidence: r.Confidence,
			Source:     string(r.Source),
		})
	}
	return resp
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{UserID: u.ID, Name: u.Name, Email: u.Email, Username: u.Username}
}
