package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobfill/models"
)

type seenRequest struct {
	method, path, auth string
}

func newClassifierServer(t *testing.T, status int, body string) (*httptest.Server, *seenRequest) {
	t.Helper()
	seen := &seenRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.method, seen.path, seen.auth = r.Method, r.URL.Path, r.Header.Get("Authorization")
		var req models.ClassificationRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestClassifierClient_OK(t *testing.T) {
	srv, seen := newClassifierServer(t, http.StatusOK,
		`{"fields": [{"index": 0, "identifier": "first_name", "profileKey": "first_name", "value": "Jane", "confidence": 0.95}], "resumeUsed": true}`)

	client := NewClassifierClient(srv.URL+"/", "tok")
	outcome, err := client.Classify(context.Background(), request(textField("First Name")))
	require.NoError(t, err)

	ok, isOK := outcome.(ClassificationOK)
	require.True(t, isOK)
	assert.True(t, ok.ResumeUsed)
	require.Len(t, ok.Fields, 1)
	assert.Equal(t, "Jane", ok.Fields[0].Value)

	assert.Equal(t, ClassifyPath, seen.path)
	assert.Equal(t, http.MethodPost, seen.method)
	assert.Equal(t, "Bearer tok", seen.auth)
}

func TestClassifierClient_ParseFailureFlag(t *testing.T) {
	srv, _ := newClassifierServer(t, http.StatusOK,
		`{"fields": [{"index": 0, "identifier": "unknown", "value": "", "confidence": 0}], "resumeUsed": false, "parseFailure": true}`)

	outcome, err := NewClassifierClient(srv.URL, "").Classify(context.Background(), request(textField("Favorite color")))
	require.NoError(t, err)

	pf, ok := outcome.(ClassificationParseFailure)
	require.True(t, ok)
	assert.Len(t, pf.Fallback, 1)
	assert.Error(t, pf.Err)
}

func TestClassifierClient_BadRequest(t *testing.T) {
	srv, _ := newClassifierServer(t, http.StatusBadRequest, `{"error": "fields must contain at least one field"}`)

	outcome, err := NewClassifierClient(srv.URL, "").Classify(context.Background(), request(textField("x")))
	assert.Nil(t, outcome)
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "fields must contain at least one field", reqErr.Message)
}

func TestClassifierClient_BadGateway(t *testing.T) {
	srv, _ := newClassifierServer(t, http.StatusBadGateway,
		`{"error": "llm call failed", "status": 429, "body": "rate limited"}`)

	outcome, err := NewClassifierClient(srv.URL, "").Classify(context.Background(), request(textField("x")))
	require.NoError(t, err)
	assert.Equal(t, ClassificationUpstreamFailure{Provider: "llm", Status: 429, Body: "rate limited"}, outcome)
}

func TestClassifierClient_ServerError(t *testing.T) {
	srv, _ := newClassifierServer(t, http.StatusInternalServerError, strings.Repeat("e", 800))

	outcome, err := NewClassifierClient(srv.URL, "").Classify(context.Background(), request(textField("x")))
	require.NoError(t, err)
	uf, ok := outcome.(ClassificationUpstreamFailure)
	require.True(t, ok)
	assert.Equal(t, "classifier", uf.Provider)
	assert.Equal(t, http.StatusInternalServerError, uf.Status)
	assert.Len(t, uf.Body, MaxUpstreamBody)
}

func TestClassifierClient_EmptyBatch(t *testing.T) {
	_, err := NewClassifierClient("http://127.0.0.1:1", "").Classify(context.Background(), models.ClassificationRequest{})
	assert.ErrorIs(t, err, ErrEmptyFieldBatch)
}

func TestToResponse(t *testing.T) {
	fields := []models.ClassifiedField{models.Unanswered(0)}

	resp, ok := ToResponse(ClassificationParseFailure{Fallback: fields, ResumeUsed: true})
	require.True(t, ok)
	assert.True(t, resp.ParseFailure)
	assert.True(t, resp.ResumeUsed)
	assert.Equal(t, fields, resp.Fields)

	_, ok = ToResponse(ClassificationUpstreamFailure{Provider: "openai", Status: 500})
	assert.False(t, ok)
}
