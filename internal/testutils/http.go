package testutils

import (
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/jarcoal/httpmock"
)

const (
	BaseURL = "http://hydrai.test/api"
	Token   = "eyJhbGciOiJIUzI1NiJ9.hydrai"

	LoginURL         = BaseURL + "/login"
	RegisterURL      = BaseURL + "/register"
	FlowMetersURL    = BaseURL + "/caudalimetros"
	AnalysisURL      = BaseURL + "/analisis"
	RequestIDPattern = "^[a-f0-9]{8}-[a-f0-9]{4}-4[a-f0-9]{3}-[89ab][a-f0-9]{3}-[a-f0-9]{12}$"
)

// NewMockClient returns a resty client whose transport is served by httpmock.
// The mock is torn down when the test ends.
func NewMockClient(t *testing.T) *resty.Client {
	t.Helper()

	client := resty.New()
	httpmock.ActivateNonDefault(client.GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return client
}
