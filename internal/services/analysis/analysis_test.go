package analysis

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url, key string) *Client {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), url, key, "test-model", time.Second)
}

func chatReply(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
	})
	return string(b)
}

func TestClient_Analyze(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, chatReply("Here you go:\n```json\n{\"summary\":\"ok {fine}\",\"risks\":[]}\n```"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "sk-test")
	res, err := c.Analyze(context.Background(), KindContract, "Договор поставки")
	require.NoError(t, err)
	assert.Equal(t, "ok {fine}", res["summary"])

	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "Договор поставки", got.Messages[1].Content)
}

func TestClient_AnalyzeErrors(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		kind    Kind
		status  int
		body    string
		wantErr error
	}{
		{name: "unknown kind", key: "k", kind: "poem", wantErr: ErrUnknownKind},
		{name: "no api key", key: "", kind: KindTax, wantErr: ErrNotConfigured},
		{name: "upstream 500", key: "k", kind: KindTax, status: http.StatusInternalServerError, body: "{}", wantErr: ErrUpstream},
		{name: "no choices", key: "k", kind: KindTax, status: http.StatusOK, body: `{"choices":[]}`, wantErr: ErrUpstream},
		{name: "not json content", key: "k", kind: KindTax, status: http.StatusOK, body: chatReply("sorry"), wantErr: ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL, tt.key).Analyze(context.Background(), tt.kind, "text")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSON(`{"a":1}`))
	assert.Equal(t, `{"a":{"b":"}"}}`, extractJSON(`text {"a":{"b":"}"}} tail`))
	assert.Equal(t, "plain", extractJSON("plain"))
}
