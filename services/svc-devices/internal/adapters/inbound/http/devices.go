package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/architeacher/filterspec/pkg/logger"
	"github.com/architeacher/filterspec/services/svc-devices/internal/domain/model"
	"github.com/architeacher/filterspec/services/svc-devices/internal/usecases"
	"github.com/architeacher/filterspec/services/svc-devices/internal/usecases/queries"
)

const defaultMaxBodyBytes = 1 << 20

type (
	// searchRequest is the body of POST /v1/devices/search.
	searchRequest struct {
		Filter *model.DeviceFilter `json:"filter"`
		Sort   string              `json:"sort"`
		Size   uint                `json:"size"`
		Cursor string              `json:"cursor"`
	}

	DevicesHandler struct {
		app          *usecases.Application
		logger       logger.Logger
		maxBodyBytes int64
	}
)

func NewDevicesHandler(app *usecases.Application, log logger.Logger, maxBodyBytes int64) *DevicesHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}

	return &DevicesHandler{
		app:          app,
		logger:       log,
		maxBodyBytes: maxBodyBytes,
	}
}

// SearchDevices handles POST /v1/devices/search.
func (h *DevicesHandler) SearchDevices(w http.ResponseWriter, r *http.Request) {
	var req searchRequest

	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := decodeStrict(body, &req); err != nil {
		h.writeDecodeError(w, r, err)

		return
	}

	h.search(w, r, req)
}

// ListDevices handles GET /v1/devices with the filter as a JSON document in
// the filter query parameter.
func (h *DevicesHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	req := searchRequest{
		Sort:   params.Get("sort"),
		Cursor: params.Get("cursor"),
	}

	if raw := params.Get("size"); raw != "" {
		size, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			writeError(w, r, h.logger, fmt.Errorf("%w: %q", model.ErrInvalidPageSize, raw))

			return
		}

		req.Size = uint(size)
	}

	if raw := params.Get("filter"); raw != "" {
		req.Filter = &model.DeviceFilter{}

		if err := decodeStrict(bytes.NewReader([]byte(raw)), req.Filter); err != nil {
			h.writeDecodeError(w, r, err)

			return
		}
	}

	h.search(w, r, req)
}

func (h *DevicesHandler) search(w http.ResponseWriter, r *http.Request, req searchRequest) {
	page, err := model.NewPage(req.Size, req.Sort, req.Cursor)
	if err != nil {
		writeError(w, r, h.logger, err)

		return
	}

	list, err := h.app.Queries.ListDevices.Execute(r.Context(), queries.ListDevicesQuery{
		Filter: req.Filter,
		Page:   page,
	})
	if err != nil {
		writeError(w, r, h.logger, err)

		return
	}

	writeJSONResponse(w, http.StatusOK, toDeviceListResponse(list))
}

// GetDevice handles GET /v1/devices/{id}.
func (h *DevicesHandler) GetDevice(w http.ResponseWriter, r *http.Request) {
	id, err := model.ParseDeviceID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)

		return
	}

	device, err := h.app.Queries.GetDevice.Execute(r.Context(), queries.GetDeviceQuery{ID: id})
	if err != nil {
		writeError(w, r, h.logger, err)

		return
	}

	writeJSONResponse(w, http.StatusOK, deviceResponse{Data: device})
}

func (h *DevicesHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	result, err := h.app.Queries.FetchLiveness.Execute(r.Context(), queries.FetchLivenessQuery{})
	if err != nil {
		writeError(w, r, h.logger, err)

		return
	}

	writeJSONResponse(w, http.StatusOK, result)
}

func (h *DevicesHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	result, err := h.app.Queries.FetchReadiness.Execute(r.Context(), queries.FetchReadinessQuery{})
	if err != nil {
		writeError(w, r, h.logger, err)

		return
	}

	status := http.StatusOK
	if !result.Ready {
		status = http.StatusServiceUnavailable
	}

	writeJSONResponse(w, status, result)
}

// writeDecodeError reports malformed JSON. Values the domain rejects while
// decoding, such as an unknown state, keep their own classification.
func (h *DevicesHandler) writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var maxBytes *http.MaxBytesError

	switch {
	case errors.As(err, &maxBytes):
		writeErrorResponse(w, http.StatusRequestEntityTooLarge, codeInvalidJSON, err.Error())
	case errors.Is(err, model.ErrInvalidState), errors.Is(err, model.ErrInvalidDeviceID):
		writeError(w, r, h.logger, fmt.Errorf("%w: %w", model.ErrInvalidFilter, err))
	default:
		writeErrorResponse(w, http.StatusBadRequest, codeInvalidJSON, err.Error())
	}
}

// decodeStrict rejects unknown keys, so a misspelled criterion is an error
// rather than a silently ignored slot.
func decodeStrict(r io.Reader, dst any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}

		return err
	}

	_, err := dec.Token()

	var maxBytes *http.MaxBytesError

	switch {
	case errors.Is(err, io.EOF):
	case errors.As(err, &maxBytes):
		return err
	default:
		return errors.New("request body holds data after the JSON value")
	}

	return nil
}
