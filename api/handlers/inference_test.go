package handlers_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/neurocare/portal-api/api/handlers"
)

func TestInference_GenerateReportHandlerSuccess(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rag/generate-report", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "patient-123")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"report": "No abnormalities detected"}`))
	}))
	defer upstream.Close()

	i := handlers.NewInference(upstream.URL)

	req := httptest.NewRequest("POST", "/api/v1/reports/generate",
		bytes.NewBufferString(`{"patientId": "patient-123"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	http.HandlerFunc(i.GenerateReportHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "No abnormalities detected")
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}

func TestInference_AnalyzeScanHandlerUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vision/analyze-mri", r.URL.Path)
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	defer upstream.Close()

	i := handlers.NewInference(upstream.URL)

	req := httptest.NewRequest("POST", "/api/v1/scans/analyze",
		bytes.NewBufferString(`{"scanUrl": "https://example.com/scan.png"}`))
	rr := httptest.NewRecorder()

	http.HandlerFunc(i.AnalyzeScanHandler).ServeHTTP(rr, req)

	// upstream failures surface as a bad gateway, never as our own 5xx
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "AI service request failed")
}

func TestInference_AnalyzeScanHandlerUnreachable(t *testing.T) {
	i := handlers.NewInference("http://127.0.0.1:1")

	req := httptest.NewRequest("POST", "/api/v1/scans/analyze",
		bytes.NewBufferString(`{}`))
	rr := httptest.NewRecorder()

	http.HandlerFunc(i.AnalyzeScanHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "AI service unreachable")
}
