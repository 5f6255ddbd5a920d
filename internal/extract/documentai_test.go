package extract

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	documentai "google.golang.org/api/documentai/v1"
	"google.golang.org/api/option"
)

func newTestDocumentAI(t *testing.T, handler http.HandlerFunc) *DocumentAI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	d, err := NewDocumentAI(context.Background(),
		DocumentAIConfig{Project: "test-project", Location: "eu", ProcessorID: "test-processor-id"},
		nil,
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	return d
}

func TestDocumentAI_Extract(t *testing.T) {
	var gotPath string
	var gotReq documentai.GoogleCloudDocumentaiV1ProcessRequest
	d := newTestDocumentAI(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"document":{"entities":[
			{"type":"persona_nome","mentionText":"Mario"},
			{"type":"persona_cognome","mentionText":"Rossi"},
			{"type":"data_documento","mentionText":"2025-06-20"}
		]}}`))
	})

	entities, err := d.Extract(context.Background(), []byte("Contenuto di un documento di prova"), "application/pdf")
	require.NoError(t, err)

	assert.Equal(t, "/v1/projects/test-project/locations/eu/processors/test-processor-id:process", gotPath)
	require.NotNil(t, gotReq.RawDocument)
	assert.Equal(t, "application/pdf", gotReq.RawDocument.MimeType)
	raw, err := base64.StdEncoding.DecodeString(gotReq.RawDocument.Content)
	require.NoError(t, err)
	assert.Equal(t, "Contenuto di un documento di prova", string(raw))

	require.Len(t, entities, 3)
	assert.Equal(t, EntityName, entities[0].Type)
	assert.Equal(t, "Mario", entities[0].Text)
	got := Fields(entities)
	assert.Equal(t, "Rossi", got.Surname)
	assert.Equal(t, "2025-06-20", got.DocumentDate)
}

func TestDocumentAI_ExtractNoDocument(t *testing.T) {
	d := newTestDocumentAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})
	entities, err := d.Extract(context.Background(), []byte("x"), "application/pdf")
	require.NoError(t, err)
	assert.Empty(t, entities)
}

func TestDocumentAI_ExtractServiceError(t *testing.T) {
	calls := 0
	d := newTestDocumentAI(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"Unsupported input file format."}}`))
	})
	_, err := d.Extract(context.Background(), []byte("x"), "application/zip")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "process document")
	assert.Equal(t, 1, calls, "extraction must not retry")
}

func TestProcessorNameAndEndpoint(t *testing.T) {
	assert.Equal(t, "projects/p/locations/us/processors/x", ProcessorName("p", "us", "x"))
	assert.Equal(t, "https://eu-documentai.googleapis.com/", RegionalEndpoint("eu"))
	assert.Equal(t, "https://documentai.googleapis.com/", RegionalEndpoint(""))
}
