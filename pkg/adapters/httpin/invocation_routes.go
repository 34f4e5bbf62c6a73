package httpin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jademcosta/syncbatcher/pkg/adapters/httpin/httpmiddleware"
	"github.com/jademcosta/syncbatcher/pkg/compressor"
	"github.com/jademcosta/syncbatcher/pkg/config"
	"github.com/jademcosta/syncbatcher/pkg/coordinator"
	"github.com/jademcosta/syncbatcher/pkg/domain"
	"github.com/jademcosta/syncbatcher/pkg/normalizer"
)

// Source names HTTP invocations on the invoker metrics.
const Source = "http"

type Submitter interface {
	Submit(ctx context.Context, source string, batch domain.Batch) (domain.Outcome, error)
}

type ManifestInspector interface {
	Snapshot(ctx context.Context) (coordinator.Snapshot, error)
}

var errUnsupportedEncoding = errors.New("unsupported content encoding")

type errorResponse struct {
	Error string `json:"error"`
}

// RegisterInvocationRoutes mounts the invocation and manifest routes. A
// positive sizeLimit also caps the decompressed size of request bodies.
func RegisterInvocationRoutes(
	api *API, version string, conf config.APIConfig, sizeLimit int64, submitter Submitter,
	inspector ManifestInspector,
) {
	var router chi.Router = api.mux
	if conf.Token != "" {
		router = api.mux.With(httpmiddleware.Auth(conf.Token))
	}

	router.Post("/"+version+"/invocations", invocationHandler(api.log, submitter, conf.DecompressionAlgorithms, sizeLimit))
	router.Get("/"+version+"/manifest", manifestHandler(api.log, inspector))
}

func invocationHandler(
	l *slog.Logger, submitter Submitter, decompressionAlgorithms []string, sizeLimit int64,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentPath := r.URL.Path

		body, err := readBody(r, decompressionAlgorithms, sizeLimit)
		observeSize(currentPath, float64(len(body)))
		if err != nil {
			l.Warn("invocation request body could not be read", "error", err)
			var maxBytesErr *http.MaxBytesError
			switch {
			case errors.As(err, &maxBytesErr):
				increaseErrorCount("request_entity_too_large", currentPath)
				writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "payload too large"})
			case errors.Is(err, errUnsupportedEncoding):
				increaseErrorCount("unsupported_encoding", currentPath)
				writeJSON(w, http.StatusUnsupportedMediaType, errorResponse{Error: err.Error()})
			default:
				increaseErrorCount("error_reading_body", currentPath)
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "body could not be read"})
			}
			return
		}

		if len(body) == 0 {
			increaseErrorCount("request_without_body", currentPath)
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "request without body"})
			return
		}

		if !json.Valid(body) {
			increaseErrorCount("invalid_json", currentPath)
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "body is not valid JSON"})
			return
		}

		outcome, err := submitter.Submit(r.Context(), Source, normalizer.ParseEvent(body))
		if err != nil {
			if errors.Is(err, domain.ErrInvokerStopped) {
				increaseErrorCount("shutting_down", currentPath)
				writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
				return
			}

			l.Warn("invocation failed", "error", err)
			increaseErrorCount("invocation_failed", currentPath)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, outcome)
	}
}

func manifestHandler(l *slog.Logger, inspector ManifestInspector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := inspector.Snapshot(r.Context())
		if err != nil {
			l.Warn("manifest could not be read", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, snapshot)
	}
}

// readBody returns the request body, decompressed when a Content-Encoding
// listed in allowedAlgorithms was sent. The decompressed body obeys the same
// sizeLimit as the raw one.
func readBody(r *http.Request, allowedAlgorithms []string, sizeLimit int64) ([]byte, error) {
	buf := &bytes.Buffer{}
	_, err := buf.ReadFrom(r.Body)
	if err != nil {
		return nil, err
	}

	encoding := strings.ToLower(strings.TrimSpace(r.Header.Get("Content-Encoding")))
	if encoding == "" || encoding == "identity" {
		return buf.Bytes(), nil
	}

	if !slices.Contains(allowedAlgorithms, encoding) {
		return nil, fmt.Errorf("%w: %s", errUnsupportedEncoding, encoding)
	}

	reader, err := compressor.NewReader(&config.CompressionConfig{Type: encoding}, buf)
	if err != nil {
		return nil, fmt.Errorf("error creating %s decompressor: %w", encoding, err)
	}
	defer reader.Close()

	var limited io.Reader = reader
	if sizeLimit > 0 {
		limited = io.LimitReader(reader, sizeLimit+1)
	}

	decompressed, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("error decompressing body: %w", err)
	}

	if sizeLimit > 0 && int64(len(decompressed)) > sizeLimit {
		return nil, &http.MaxBytesError{Limit: sizeLimit}
	}

	return decompressed, nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response) //nolint:errcheck
}
