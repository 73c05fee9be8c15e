package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTickers(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"TSLA, AAPL, SPY", []string{"TSLA", "AAPL", "SPY"}},
		{" tsla ,aapl", []string{"TSLA", "AAPL"}},
		{"AAPL,,MSFT, ", []string{"AAPL", "MSFT"}},
		{"AAPL,AAPL", []string{"AAPL", "AAPL"}},
		{"", []string{}},
		{" , ,", []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseTickers(tc.input))
		})
	}
}

func TestObject_KeepsKeyOrder(t *testing.T) {
	var obj Object
	require.NoError(t, json.Unmarshal([]byte(`{"TSLA":0.2,"AAPL":0.5,"SPY":0.3,"AAPL":0.4}`), &obj))

	assert.Equal(t, []string{"TSLA", "AAPL", "SPY"}, obj.Keys())
	raw, ok := obj.Field("AAPL")
	require.True(t, ok)
	assert.JSONEq(t, `0.4`, string(raw))
	assert.True(t, obj.Has("SPY"))
	assert.False(t, obj.Has("MSFT"))

	out, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"TSLA":0.2,"AAPL":0.4,"SPY":0.3}`, string(out))
}

func TestObject_NestedAndStringValues(t *testing.T) {
	payload := `{"model":"arima","max_sharpe_portfolio":{"weights":{"MSFT":0.7,"AAPL":0.3}}}`
	var obj Object
	require.NoError(t, json.Unmarshal([]byte(payload), &obj))
	assert.Equal(t, []string{"model", "max_sharpe_portfolio"}, obj.Keys())

	raw, ok := obj.Field("model")
	require.True(t, ok)
	assert.Equal(t, `"arima"`, string(raw))

	out, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, payload, string(out))
}

func TestObject_Empty(t *testing.T) {
	var obj Object
	assert.Equal(t, 0, obj.Len())
	assert.Nil(t, obj.Keys())
	assert.False(t, obj.Has("AAPL"))

	out, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(out))
}

func TestObject_RejectsNonObject(t *testing.T) {
	var obj Object
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &obj))
}

func TestTickerValues(t *testing.T) {
	var tv TickerValues
	require.NoError(t, json.Unmarshal([]byte(`{"MSFT":-0.031,"AAPL":-0.027}`), &tv))
	assert.Equal(t, []string{"MSFT", "AAPL"}, tv.Keys())

	v, ok := tv.Lookup("AAPL")
	assert.True(t, ok)
	assert.InDelta(t, -0.027, v, 1e-12)

	_, ok = tv.Lookup("TSLA")
	assert.False(t, ok)

	assert.Error(t, json.Unmarshal([]byte(`{"AAPL":"high"}`), &tv))
	assert.Error(t, json.Unmarshal([]byte(`{"AAPL":null}`), &tv))
}

func TestTickerValues_NilSafe(t *testing.T) {
	var tv *TickerValues
	_, ok := tv.Lookup("AAPL")
	assert.False(t, ok)
	assert.Equal(t, 0, tv.Len())
}

func TestPerformance_Encodings(t *testing.T) {
	tests := []struct {
		name string
		json string
		want Performance
	}{
		{"object", `{"expected_return":0.21,"volatility":0.18,"sharpe_ratio":1.1}`, Performance{0.21, 0.18, 1.1}},
		{"short names", `{"return":0.21,"volatility":0.18,"sharpe":1.1}`, Performance{0.21, 0.18, 1.1}},
		{"triple", `[0.21, 0.18, 1.1]`, Performance{0.21, 0.18, 1.1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var p Performance
			require.NoError(t, json.Unmarshal([]byte(tc.json), &p))
			assert.Equal(t, tc.want, p)
		})
	}

	var p Performance
	assert.Error(t, json.Unmarshal([]byte(`[0.1, 0.2]`), &p))
}

func TestRiskMetrics_AbsentMappingsAreNil(t *testing.T) {
	var r RiskMetrics
	require.NoError(t, json.Unmarshal([]byte(`{"var_95":{"AAPL":-0.03},"rolling_volatility":{"AAPL":0.02}}`), &r))
	assert.Nil(t, r.CVaR95)
	assert.Equal(t, 1, r.VaR95.Len())
}

func TestForecastResult_PresenceDetection(t *testing.T) {
	var f ForecastResult
	require.NoError(t, json.Unmarshal([]byte(`{"predictions":[],"confidence_interval":false}`), &f))
	assert.NotNil(t, f.Predictions)
	assert.Nil(t, f.Forecast)
	require.NotNil(t, f.ConfidenceInterval)
	assert.False(t, *f.ConfidenceInterval)
}
