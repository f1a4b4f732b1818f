package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlowMeterDerivedValues(t *testing.T) {
	var meter FlowMeter
	err := json.Unmarshal([]byte(`{
		"_id": "665f1c",
		"nombre": "Cocina",
		"tipo": "ultrasonico",
		"estado": "activo",
		"mediciones": [
			{"caudal": 1.5, "consumo_total": 10.25, "temperatura": 18.0, "evento_fuga": false},
			{"caudal": 0.5, "consumo_total": 2.75, "evento_fuga": true}
		]
	}`), &meter)
	require.NoError(t, err)

	assert.Equal(t, 13.0, meter.TotalConsumption())
	assert.True(t, meter.HasLeak())
	require.NotNil(t, meter.Measurements[0].Temperature)
	assert.Nil(t, meter.Measurements[1].Temperature)

	empty := FlowMeter{Name: "Nuevo"}
	assert.Zero(t, empty.TotalConsumption())
	assert.False(t, empty.HasLeak())
}

func TestDetailMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "String detail", body: `{"detail":"Credenciales incorrectas"}`, want: "Credenciales incorrectas"},
		{name: "Validation detail", body: `{"detail":[{"msg":"field required"},{"msg":"value is not a valid email"}]}`, want: "field required; value is not a valid email"},
		{name: "Message field", body: `{"message":"maintenance"}`, want: "maintenance"},
		{name: "Unknown shape", body: `{"error":"x"}`, want: ""},
		{name: "Not JSON", body: `<html>502</html>`, want: ""},
		{name: "Empty", body: ``, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detailMessage([]byte(tt.body)))
		})
	}
}

func TestValidateFlowMeters(t *testing.T) {
	assert.NoError(t, validateFlowMeters([]byte(`[]`)))
	assert.NoError(t, validateFlowMeters([]byte(`[{"_id":"1","nombre":"M1","tipo":"x","mediciones":[{"consumo_total":5}]}]`)))
	assert.Error(t, validateFlowMeters([]byte(`[{"_id":1,"mediciones":[]}]`)))
	assert.Error(t, validateFlowMeters([]byte(`[{"nombre":"sin mediciones"}]`)))
}
