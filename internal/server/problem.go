package server

import (
	"encoding/json"
	"net/http"
)

// Problem types for RFC 7807 problem responses.
const (
	ProblemTypeBadRequest   = "https://basketwise.dev/problems/bad-request"
	ProblemTypeUnauthorized = "https://basketwise.dev/problems/unauthorized"
	ProblemTypeNotFound     = "https://basketwise.dev/problems/not-found"
	ProblemTypeMethod       = "https://basketwise.dev/problems/method-not-allowed"
	ProblemTypeConflict     = "https://basketwise.dev/problems/conflict"
	ProblemTypeInternal     = "https://basketwise.dev/problems/internal-error"
	ProblemTypeUnavailable  = "https://basketwise.dev/problems/unavailable"
)

// Problem is an RFC 7807 problem details document.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func newProblem(status int, detail, instance string) Problem {
	return Problem{
		Type:     problemType(status),
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: instance,
	}
}

func problemType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return ProblemTypeBadRequest
	case http.StatusUnauthorized:
		return ProblemTypeUnauthorized
	case http.StatusNotFound:
		return ProblemTypeNotFound
	case http.StatusMethodNotAllowed:
		return ProblemTypeMethod
	case http.StatusConflict:
		return ProblemTypeConflict
	case http.StatusServiceUnavailable:
		return ProblemTypeUnavailable
	default:
		return ProblemTypeInternal
	}
}

// writeProblem renders a problem document with the matching status code.
func writeProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(newProblem(status, detail, r.URL.Path))
}
