package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eugenenazirov/propconf/internal/configurer"
	"github.com/eugenenazirov/propconf/internal/endpoint"
	"github.com/eugenenazirov/propconf/internal/storage"
	"github.com/eugenenazirov/propconf/internal/uri"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Handler wires the endpoint catalog and storage into HTTP handlers.
type Handler struct {
	catalog *endpoint.Catalog
	storage storage.Storage
	logger  *zap.Logger

	clock func() time.Time
	newID func() string
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithIDGenerator overrides how ids are assigned to endpoints created without one.
func WithIDGenerator(newID func() string) HandlerOption {
	return func(h *Handler) {
		h.newID = newID
	}
}

// WithLogger sets the logger used for binding diagnostics.
func WithLogger(logger *zap.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(catalog *endpoint.Catalog, store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		catalog: catalog,
		storage: store,
		logger:  zap.NewNop(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListComponents(w http.ResponseWriter, r *http.Request) {
	_ = r
	kinds := h.catalog.Kinds()
	resp := make([]componentResponse, 0, len(kinds))
	for _, kind := range kinds {
		resp = append(resp, componentResponse{Scheme: kind.Scheme, Description: kind.Description})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleDescribeComponent(w http.ResponseWriter, r *http.Request) {
	scheme := r.PathValue("scheme")
	props, err := h.catalog.Describe(scheme)
	if err != nil {
		if errors.Is(err, endpoint.ErrUnknownScheme) {
			writeError(w, http.StatusNotFound, "Unknown component", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, propertiesResponse{Scheme: scheme, Properties: props})
}

func (h *Handler) handleListEndpoints(w http.ResponseWriter, r *http.Request) {
	records, err := h.storage.List(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) handleCreateEndpoint(w http.ResponseWriter, r *http.Request) {
	var req createEndpointRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.URI) == "" {
		writeError(w, http.StatusBadRequest, "Invalid request", "uri is required")
		return
	}

	ep, err := h.catalog.Bind(req.URI, req.Properties, req.IgnoreCase)
	if err != nil {
		h.writeBindError(w, r, err)
		return
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = h.newID()
	}
	rec, err := h.storage.Create(r.Context(), storage.Record{
		ID:         id,
		URI:        req.URI,
		Properties: req.Properties,
		IgnoreCase: req.IgnoreCase,
	})
	if err != nil {
		h.writeStorageError(w, err)
		return
	}

	h.writeEndpoint(w, http.StatusCreated, rec, ep)
}

func (h *Handler) handleGetEndpoint(w http.ResponseWriter, r *http.Request) {
	rec, ep, ok := h.loadEndpoint(w, r)
	if !ok {
		return
	}
	h.writeEndpoint(w, http.StatusOK, rec, ep)
}

func (h *Handler) handleDeleteEndpoint(w http.ResponseWriter, r *http.Request) {
	if err := h.storage.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.writeStorageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetProperty applies one property to a stored endpoint and persists it.
func (h *Handler) handleSetProperty(w http.ResponseWriter, r *http.Request) {
	var req setPropertyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rec, ep, ok := h.loadEndpoint(w, r)
	if !ok {
		return
	}

	name := r.PathValue("name")
	applied, err := h.catalog.Set(ep, name, req.Value, rec.IgnoreCase)
	switch {
	case err != nil:
		h.writeBindError(w, r, err)
		return
	case !applied:
		writeError(w, http.StatusNotFound, "Unknown property", "endpoint "+rec.URI+" has no property "+name)
		return
	}

	canonical, _ := h.catalog.Canonical(ep, name, rec.IgnoreCase)
	props := make(map[string]any, len(rec.Properties)+1)
	for key, value := range rec.Properties {
		if !strings.EqualFold(key, canonical) {
			props[key] = value
		}
	}
	props[canonical] = req.Value
	rec.Properties = props

	rec, err = h.storage.Update(r.Context(), rec)
	if err != nil {
		h.writeStorageError(w, err)
		return
	}
	h.writeEndpoint(w, http.StatusOK, rec, ep)
}

// loadEndpoint fetches the record named by the id path value and binds it again.
func (h *Handler) loadEndpoint(w http.ResponseWriter, r *http.Request) (storage.Record, endpoint.Endpoint, bool) {
	rec, err := h.storage.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeStorageError(w, err)
		return storage.Record{}, nil, false
	}
	ep, err := h.catalog.Bind(rec.URI, rec.Properties, rec.IgnoreCase)
	if err != nil {
		h.logger.Warn("stored endpoint no longer binds",
			zap.String("id", rec.ID),
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusConflict, "Stored endpoint is invalid", err.Error())
		return storage.Record{}, nil, false
	}
	return rec, ep, true
}

func (h *Handler) writeEndpoint(w http.ResponseWriter, status int, rec storage.Record, ep endpoint.Endpoint) {
	settings, err := h.catalog.Snapshot(ep)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, status, endpointResponse{
		Record:   rec,
		Scheme:   ep.Scheme(),
		Path:     ep.Path(),
		Settings: settings,
	})
}

func (h *Handler) writeBindError(w http.ResponseWriter, r *http.Request, err error) {
	var unknown *endpoint.UnknownParametersError
	switch {
	case errors.Is(err, configurer.ErrTypeCoercion):
		writeError(w, http.StatusUnprocessableEntity, "Invalid property value", err.Error())
	case errors.As(err, &unknown):
		writeError(w, http.StatusBadRequest, "Unknown parameters", err.Error(),
			"Check GET /api/components/"+unknown.Scheme+"/properties for supported names")
	case errors.Is(err, endpoint.ErrUnknownScheme),
		errors.Is(err, endpoint.ErrInvalidPath),
		errors.Is(err, uri.ErrInvalidURI):
		writeError(w, http.StatusBadRequest, "Invalid endpoint uri", err.Error())
	default:
		h.logger.Error("bind failed",
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.Error(err),
		)
		writeInternalError(w, err)
	}
}

func (h *Handler) writeStorageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "Endpoint not found", err.Error())
	case errors.Is(err, storage.ErrConflict):
		writeError(w, http.StatusConflict, "Endpoint already exists", err.Error())
	case errors.Is(err, storage.ErrInvalidRecord):
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
	default:
		writeInternalError(w, err)
	}
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type createEndpointRequest struct {
	ID         string         `json:"id"`
	URI        string         `json:"uri"`
	Properties map[string]any `json:"properties"`
	IgnoreCase bool           `json:"ignoreCase"`
}

type setPropertyRequest struct {
	Value any `json:"value"`
}

type endpointResponse struct {
	storage.Record
	Scheme   string         `json:"scheme"`
	Path     string         `json:"path"`
	Settings map[string]any `json:"settings"`
}

type componentResponse struct {
	Scheme      string `json:"scheme"`
	Description string `json:"description"`
}

type propertiesResponse struct {
	Scheme     string                  `json:"scheme"`
	Properties []endpoint.PropertyInfo `json:"properties"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "Request too large", err.Error())
		return false
	}
	writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
	return false
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
