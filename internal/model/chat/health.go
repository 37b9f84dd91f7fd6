package chat

// ComponentHealth is the check result of one backend component.
type ComponentHealth struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthReport is the body of GET /chat/health.
type HealthReport struct {
	Status   string                     `json:"status"`
	Message  string                     `json:"message"`
	Services map[string]ComponentHealth `json:"services"`
}
