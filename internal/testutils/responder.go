package testutils

import (
	"bytes"
	"io"
	"net/http"
	"sync"

	"github.com/jarcoal/httpmock"
)

// FlowMetersJSON is a backend listing whose consumption adds up to 8 litres
const FlowMetersJSON = `[
  {"_id": "665f1c2e9b1d", "nombre": "Kitchen", "tipo": "residencial", "estado": "activo",
   "mediciones": [{"caudal": 1.2, "consumo_total": 5, "temperatura": 18.5, "evento_fuga": false}]},
  {"_id": "665f1c2e9b1e", "nombre": "Garden", "tipo": "riego",
   "mediciones": [{"caudal": 0.4, "consumo_total": 3, "evento_fuga": true}]}
]`

// AnalysisJSON is a recommendations payload as returned by the backend
const AnalysisJSON = `{"user_id": "u-1", "recomendaciones": ["Revisar fuga en Garden"]}`

var (
	// LoginResponder accepts any credentials and returns Token
	LoginResponder, _ = httpmock.NewJsonResponder(http.StatusOK, map[string]string{"access_token": Token, "token_type": "bearer"})

	// UnauthorizedResponder mimics the backend rejecting credentials
	UnauthorizedResponder = httpmock.NewStringResponder(http.StatusUnauthorized, `{"detail": "Invalid credentials"}`)

	// FlowMetersResponder serves FlowMetersJSON
	FlowMetersResponder = JSONResponder(http.StatusOK, FlowMetersJSON)

	// GarbageResponder returns a body that is not JSON
	GarbageResponder = httpmock.NewStringResponder(http.StatusOK, `{"foo": "bar"`)
)

// JSONResponder returns a fixed JSON body with the given status
func JSONResponder(status int, body string) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		resp := httpmock.NewStringResponse(status, body)
		resp.Header.Set("Content-Type", "application/json")
		return resp, nil
	}
}

// Recorder keeps the last request seen by each wrapped responder
type Recorder struct {
	mu       sync.Mutex
	requests map[string]*http.Request
	bodies   map[string][]byte
	calls    map[string]int
}

func NewRecorder() *Recorder {
	return &Recorder{
		requests: map[string]*http.Request{},
		bodies:   map[string][]byte{},
		calls:    map[string]int{},
	}
}

// Wrap records every request before delegating to next
func (r *Recorder) Wrap(next httpmock.Responder) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		var body []byte
		if req.Body != nil {
			body, _ = io.ReadAll(req.Body)
			req.Body = io.NopCloser(bytes.NewReader(body))
		}

		key := req.Method + " " + req.URL.String()
		r.mu.Lock()
		r.requests[key] = req
		r.bodies[key] = body
		r.calls[key]++
		r.mu.Unlock()
		return next(req)
	}
}

// Last returns the last request recorded for method and url, or nil
func (r *Recorder) Last(method, url string) *http.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests[method+" "+url]
}

// Body returns the body of the last request recorded for method and url
func (r *Recorder) Body(method, url string) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bodies[method+" "+url]
}

// Calls reports how many requests were recorded for method and url
func (r *Recorder) Calls(method, url string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[method+" "+url]
}

// RequireBearer only delegates to next when the request carries token,
// answering 401 otherwise.
func RequireBearer(token string, next httpmock.Responder) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("Authorization") != "Bearer "+token {
			return httpmock.NewStringResponse(http.StatusUnauthorized, `{"detail": "Not authenticated"}`), nil
		}
		return next(req)
	}
}
