package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExchangeRateHostClient_Rate(t *testing.T) {
	t.Parallel()

	t.Run("reads the convert quote", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/convert", r.URL.Path)
			q := r.URL.Query()
			assert.Equal(t, "RUB", q.Get("from"))
			assert.Equal(t, "KZT", q.Get("to"))
			assert.Equal(t, "1", q.Get("amount"))
			assert.Equal(t, "secret", q.Get("access_key"))
			_, _ = w.Write([]byte(`{"success":true,"query":{"from":"RUB","to":"KZT","amount":1},` +
				`"info":{"timestamp":1768685464,"quote":6.572788},"result":6.572788}`))
		}))
		defer server.Close()

		client := NewExchangeRateHostClient(server.URL, "secret", time.Second)
		got, err := client.Rate(context.Background(), "RUB", "KZT")
		require.NoError(t, err)
		require.Equal(t, decimal.RequireFromString("6.572788"), got.Rate)
		require.Equal(t, time.Unix(1768685464, 0).UTC(), got.Date)
	})

	t.Run("reports API errors", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":false,"error":{"code":101,"type":"missing_access_key","info":"You have not supplied an API Access Key."}}`))
		}))
		defer server.Close()

		client := NewExchangeRateHostClient(server.URL, "", time.Second)
		_, err := client.Rate(context.Background(), "RUB", "KZT")
		require.Error(t, err)
		require.Contains(t, err.Error(), "missing_access_key")
	})

	t.Run("missing quote", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":true,"info":{}}`))
		}))
		defer server.Close()

		client := NewExchangeRateHostClient(server.URL, "", time.Second)
		_, err := client.Rate(context.Background(), "RUB", "KZT")
		require.ErrorIs(t, err, errRateMissing)
	})

	t.Run("non positive quote", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":true,"info":{"quote":-1}}`))
		}))
		defer server.Close()

		client := NewExchangeRateHostClient(server.URL, "", time.Second)
		_, err := client.Rate(context.Background(), "RUB", "KZT")
		require.ErrorIs(t, err, errInvalidNonPositiveRate)
	})
}
