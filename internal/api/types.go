package api

import "strconv"

// Measurement is a single reading reported by a flow meter
type Measurement struct {
	Flow             float64  `json:"caudal" yaml:"caudal"`
	TotalConsumption float64  `json:"consumo_total" yaml:"consumo_total"`
	Temperature      *float64 `json:"temperatura,omitempty" yaml:"temperatura,omitempty"`
	LeakEvent        bool     `json:"evento_fuga" yaml:"evento_fuga"`
}

// FlowMeter represents a flow meter ("caudalímetro") record owned by the backend
type FlowMeter struct {
	ID           string        `json:"_id" yaml:"_id"`
	Name         string        `json:"nombre" yaml:"nombre"`
	Type         string        `json:"tipo" yaml:"tipo"`
	State        string        `json:"estado,omitempty" yaml:"estado,omitempty"`
	Measurements []Measurement `json:"mediciones" yaml:"mediciones"`
}

// TotalConsumption sums the consumption of every measurement, in litres
func (m FlowMeter) TotalConsumption() float64 {
	var total float64
	for _, measurement := range m.Measurements {
		total += measurement.TotalConsumption
	}
	return total
}

// FormatLitres renders a consumption value without trailing zeros, e.g. 8 or 12.5
func FormatLitres(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// HasLeak reports whether any measurement flagged a leak
func (m FlowMeter) HasLeak() bool {
	for _, measurement := range m.Measurements {
		if measurement.LeakEvent {
			return true
		}
	}
	return false
}

// Credentials is the login request body
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is returned by a successful login
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}

// AnalysisRequest is the body of an analysis request
type AnalysisRequest struct {
	UserID string `json:"user_id"`
}

// RegisterResult is returned by the registration endpoint
type RegisterResult struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}
