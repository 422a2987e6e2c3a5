package api

// HealthResponse is the payload for GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Clients int64  `json:"clients"`
}

// DiagnosticsResponse is the payload for GET /api/v1/diagnostics.
type DiagnosticsResponse struct {
	Warnings  []string `json:"warnings"`
	Errors    []string `json:"errors"`
	UpdatedAt string   `json:"updated_at,omitempty"` // RFC3339
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
