package elasticsearch

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/infobox/infrastructure/logger"
	"github.com/jonesrussell/infobox/infrastructure/retry"
)

// roundTripFunc answers every request with the status it returns.
type roundTripFunc func(*http.Request) (int, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	status, err := f(req)
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	header.Set("X-Elastic-Product", "Elasticsearch")
	return &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(`{"error":"unavailable"}`)),
		Request:    req,
	}, nil
}

func fastConnect() retry.Config {
	return retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}
}

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input, want string
	}{
		{"http://elasticsearch:9200", "http://elasticsearch:9200"},
		{"https://elasticsearch:9200", "https://elasticsearch:9200"},
		{"elasticsearch:9200", "http://elasticsearch:9200"},
		{"", "http://localhost:9200"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, normalizeURL(tt.input))
		})
	}
}

func TestConfig_SetDefaults(t *testing.T) {
	t.Parallel()

	cfg := Config{URL: "http://custom:9200", MaxRetries: 5}
	cfg.SetDefaults()

	assert.Equal(t, "http://custom:9200", cfg.URL)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.PingTimeout)
	assert.Equal(t, 5, cfg.Connect.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Connect.InitialDelay)
}

func TestCreateTransport(t *testing.T) {
	t.Parallel()

	plain, err := createTransport(TLSConfig{})
	require.NoError(t, err)
	assert.Nil(t, plain.TLSClientConfig)

	secure, err := createTransport(TLSConfig{Enabled: true, InsecureSkipVerify: true})
	require.NoError(t, err)
	require.NotNil(t, secure.TLSClientConfig)
	assert.True(t, secure.TLSClientConfig.InsecureSkipVerify)

	_, err = createTransport(TLSConfig{Enabled: true, CAFile: "/nonexistent/ca.pem"})
	require.Error(t, err)
}

func TestNewClient_RetriesUntilPingSucceeds(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	cfg := Config{
		URL:        "http://es.test:9200",
		MaxRetries: 0,
		Connect:    fastConnect(),
		Transport: roundTripFunc(func(*http.Request) (int, error) {
			if calls.Add(1) < 2 {
				return 0, io.ErrUnexpectedEOF
			}
			return http.StatusOK, nil
		}),
	}

	client, err := NewClient(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, client)
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
}

func TestNewClient_FailsOnErrorStatus(t *testing.T) {
	t.Parallel()

	cfg := Config{
		URL:     "http://es.test:9200",
		Connect: fastConnect(),
		Transport: roundTripFunc(func(*http.Request) (int, error) {
			return http.StatusUnauthorized, nil
		}),
	}

	_, err := NewClient(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to elasticsearch")
	assert.Contains(t, err.Error(), "HTTP 401")
}
