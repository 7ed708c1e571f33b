package handlers

import (
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/neurocare/portal-api/config"
)

// Inference proxies report-generation requests to the external AI service.
// The service owns all segmentation and RAG logic; this handler forwards the
// payload and surfaces any failure to the caller without retrying.
type Inference struct {
	BaseURL string
	Client  *http.Client
}

// NewInference creates an inference proxy against the given service URL
func NewInference(baseURL string) Inference {
	return Inference{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// GenerateReportHandler forwards the request body to the AI service's
// report-generation endpoint
func (i Inference) GenerateReportHandler(w http.ResponseWriter, r *http.Request) {
	i.proxy(w, r, "/rag/generate-report")
}

// AnalyzeScanHandler forwards an MRI analysis request to the AI service
func (i Inference) AnalyzeScanHandler(w http.ResponseWriter, r *http.Request) {
	i.proxy(w, r, "/vision/analyze-mri")
}

func (i Inference) proxy(w http.ResponseWriter, r *http.Request, path string) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, i.BaseURL+path, r.Body)
	if err != nil {
		config.ErrorStatus("failed to build upstream request", http.StatusInternalServerError, w, err)
		return
	}
	req.Header.Set("Content-Type", r.Header.Get("Content-Type"))

	resp, err := i.Client.Do(req)
	if err != nil {
		config.ErrorStatus("AI service unreachable", http.StatusBadGateway, w, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		zap.S().Errorw("AI service returned an error",
			"path", path,
			"status", resp.StatusCode,
			"body", string(body))
		config.ErrorStatus("AI service request failed", http.StatusBadGateway, w,
			&upstreamError{status: resp.StatusCode})
		return
	}

	w.Header().Set("Content-Type", resp.Header.Get("Content-Type"))
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		zap.S().Errorw("failed to stream upstream response", "error", err)
	}
}

type upstreamError struct {
	status int
}

func (e *upstreamError) Error() string {
	return http.StatusText(e.status)
}
