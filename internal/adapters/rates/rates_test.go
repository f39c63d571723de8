package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic_Lookup(t *testing.T) {
	static, err := NewStatic(map[string]string{"HKD/CNY": "0.9150"})
	require.NoError(t, err)

	rate, ok := static.Lookup("HKD", "CNY")
	require.True(t, ok)
	assert.Equal(t, "0.915", rate.String())

	// Inverse direction is derived.
	inverse, ok := static.Lookup("CNY", "HKD")
	require.True(t, ok)
	assert.InDelta(t, 1.0929, inverse.InexactFloat64(), 0.0001)

	// Identity always succeeds.
	one, ok := static.Lookup("CNY", "CNY")
	require.True(t, ok)
	assert.True(t, one.Equal(decimal.NewFromInt(1)))

	_, ok = static.Lookup("USD", "CNY")
	assert.False(t, ok)
}

func TestNewStatic_RejectsBadInput(t *testing.T) {
	_, err := NewStatic(map[string]string{"HKDCNY": "0.9150"})
	assert.Error(t, err)

	_, err = NewStatic(map[string]string{"HKD/CNY": "not-a-number"})
	assert.Error(t, err)

	_, err = NewStatic(map[string]string{"HKD/CNY": "-1"})
	assert.Error(t, err)
}

func TestHTTPSource_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"rates": {"HKD/CNY": "0.9150", "USD/CNY": "7.1030"}}`))
	}))
	defer server.Close()

	source := NewHTTPSource(server.URL, nil)
	static, err := source.Fetch(context.Background())
	require.NoError(t, err)

	rate, ok := static.Lookup("USD", "CNY")
	require.True(t, ok)
	assert.Equal(t, "7.103", rate.String())
}

func TestHTTPSource_RetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"rates": {"HKD/CNY": "0.9150"}}`))
	}))
	defer server.Close()

	source := NewHTTPSource(server.URL, nil)
	static, err := source.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)

	_, ok := static.Lookup("HKD", "CNY")
	assert.True(t, ok)
}

func TestHTTPSource_BadStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	source := NewHTTPSource(server.URL, nil)
	_, err := source.Fetch(context.Background())
	assert.Error(t, err)
}
