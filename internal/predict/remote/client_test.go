package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DukeRupert/churnform/internal/predict"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, url string, timeout time.Duration) *Client {
	t.Helper()
	c, err := New(Config{URL: url, Timeout: timeout}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return c
}

func TestNew_ValidatesConfig(t *testing.T) {
	_, err := New(Config{URL: "ftp://example.com/predict"}, nil)
	assert.Error(t, err)

	_, err = New(Config{URL: "http://example.com", Timeout: -time.Second}, nil)
	assert.Error(t, err)

	c, err := New(Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultURL, c.config.URL)
}

func TestPredict_Success(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict/churn", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"probability": 0.73, "result": true}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/predict/churn", time.Second)

	p, err := c.Predict(context.Background(), map[string]any{"tenure": 12.0, "gender": "Male"})

	require.NoError(t, err)
	assert.Equal(t, 0.73, p.Probability)
	assert.True(t, p.Result)
	assert.Equal(t, 12.0, gotBody["tenure"])
	assert.Equal(t, "Male", gotBody["gender"])
}

func TestPredict_IntegerResultFlag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"probability": 0.64, "result": 1}`))
	}))
	defer srv.Close()

	p, err := newTestClient(t, srv.URL, 0).Predict(context.Background(), map[string]any{})

	require.NoError(t, err)
	assert.True(t, p.Result)
}

func TestPredict_ValidationFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":[{"loc":["body","tenure"],"msg":"value is not a valid integer"}]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, time.Second).Predict(context.Background(), map[string]any{})

	var fe *predict.FailureError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusUnprocessableEntity, fe.StatusCode)
	details, ok := predict.ParseDetails(fe.Body)
	require.True(t, ok)
	assert.Equal(t, "tenure", details[0].Field())
}

func TestPredict_OpaqueFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, time.Second).Predict(context.Background(), map[string]any{})

	var fe *predict.FailureError
	require.ErrorAs(t, err, &fe)
	assert.JSONEq(t, `{"status":500,"message":"upstream exploded"}`, string(fe.Body))
}

func TestPredict_MalformedSuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, time.Second).Predict(context.Background(), map[string]any{})

	assert.ErrorIs(t, err, predict.ErrMalformedResponse)
}

func TestPredict_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestClient(t, url, time.Second).Predict(context.Background(), map[string]any{})

	assert.ErrorIs(t, err, predict.ErrUnavailable)
}

func TestPredict_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := newTestClient(t, srv.URL, 50*time.Millisecond).Predict(context.Background(), map[string]any{})

	assert.ErrorIs(t, err, predict.ErrUnavailable)
}

func TestPredict_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(t, srv.URL, 0).Predict(ctx, map[string]any{})

	assert.True(t, errors.Is(err, context.Canceled))
}
