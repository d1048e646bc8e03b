package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type maskReply struct {
	Mask string `json:"mask"`
}

func TestNewHTTPClient(t *testing.T) {
	t.Parallel()

	cli, ok := NewHTTPClient().(*HTTPClient)
	require.True(t, ok)
	assert.Equal(t, defaultTimeout, cli.client.Timeout)
}

func TestDoHTTPRequest_MultipartUpload(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/segment", r.URL.Path)
		assert.Equal(t, "multipart/form-data; boundary=xyz", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "--xyz--", string(body))
		_, _ = w.Write([]byte(`{"mask": "aGVsbG8="}`))
	}))
	defer server.Close()

	var reply maskReply
	err := NewHTTPClient().DoHTTPRequest(context.Background(), &RequestParam{
		RequestURI: server.URL + "/api/segment",
		Method:     http.MethodPost,
		Header:     map[string]string{"Content-Type": "multipart/form-data; boundary=xyz"},
		Body:       strings.NewReader("--xyz--"),
		Response:   &reply,
	})
	require.NoError(t, err)
	assert.Equal(t, "aGVsbG8=", reply.Mask)
}

func TestDoHTTPRequest_BodyContentTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        interface{}
		contentType string
		payload     string
	}{
		{"reader", strings.NewReader("plain"), "text/plain", "plain"},
		{"bytes", []byte{1, 2, 3}, "application/octet-stream", "\x01\x02\x03"},
		{"json", map[string]string{"model": "m"}, "application/json", `{"model":"m"}`},
		{"nil", nil, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.contentType, r.Header.Get("Content-Type"))
				body, _ := io.ReadAll(r.Body)
				assert.Equal(t, tt.payload, string(body))
			}))
			defer server.Close()

			err := NewHTTPClient().DoHTTPRequest(context.Background(), &RequestParam{
				RequestURI: server.URL,
				Method:     http.MethodPost,
				Body:       tt.body,
			})
			require.NoError(t, err)
		})
	}
}

func TestDoHTTPRequest_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		reply   string
		wantErr string
	}{
		{"bad gateway", http.StatusBadGateway, "model offline\n", "status 502: model offline"},
		{"not found", http.StatusNotFound, "", "status 404"},
		{"bad json", http.StatusOK, "{not json", "decode response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.reply))
			}))
			defer server.Close()

			var reply maskReply
			err := NewHTTPClient().DoHTTPRequest(context.Background(), &RequestParam{
				RequestURI: server.URL,
				Method:     http.MethodPost,
				Response:   &reply,
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	err := NewHTTPClient().DoHTTPRequest(context.Background(), nil)
	assert.EqualError(t, err, "request param is nil")
}

func TestDoHTTPRequest_TimeoutAndCancel(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	start := time.Now()
	err := NewHTTPClient().DoHTTPRequest(context.Background(), &RequestParam{
		RequestURI: server.URL,
		Method:     http.MethodGet,
		Timeout:    50 * time.Millisecond,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = NewHTTPClient().DoHTTPRequest(ctx, &RequestParam{
		RequestURI: server.URL,
		Method:     http.MethodGet,
	})
	assert.ErrorIs(t, err, context.Canceled)
}
