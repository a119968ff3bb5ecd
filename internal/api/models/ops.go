package models

// Health is the liveness and readiness body.
type Health struct {
	Status  HealthStatus   `json:"status"`
	Time    Timestamp      `json:"time"`
	Details map[string]any `json:"details,omitempty"`
}

// SystemStatus reports the service status and each upstream provider's health.
type SystemStatus struct {
	Status    HealthStatus     `json:"status"`
	Time      Timestamp        `json:"time"`
	Providers []ProviderStatus `json:"providers"`
}

// ProviderStatus is the health of one upstream provider as seen by its
// circuit breaker.
type ProviderStatus struct {
	Provider            string       `json:"provider"`
	Status              HealthStatus `json:"status"`
	CircuitState        string       `json:"circuitState"`
	Requests            uint32       `json:"requests"`
	ConsecutiveFailures uint32       `json:"consecutiveFailures"`
	LastSuccessAt       *Timestamp   `json:"lastSuccessAt,omitempty"`
	LastFailureAt       *Timestamp   `json:"lastFailureAt,omitempty"`
	LastOperation       string       `json:"lastOperation,omitempty"`
	Message             *string      `json:"message,omitempty"`

	Operations map[string]OperationStatus `json:"operations,omitempty"`
}

// OperationStatus counts outcomes of one kind of provider call.
type OperationStatus struct {
	Successes uint64 `json:"successes"`
	Failures  uint64 `json:"failures"`
}
