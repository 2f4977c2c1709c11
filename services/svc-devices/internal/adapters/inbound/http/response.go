package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/architeacher/filterspec/pkg/circuitbreaker"
	"github.com/architeacher/filterspec/pkg/logger"
	"github.com/architeacher/filterspec/pkg/predicate"
	"github.com/architeacher/filterspec/services/svc-devices/internal/domain/model"
)

const (
	contentTypeHeader = "Content-Type"
	applicationJSON   = "application/json"

	codeInvalidFilter = "INVALID_FILTER"
	codeInvalidPaging = "INVALID_PAGING"
	codeInvalidID     = "INVALID_ID"
	codeInvalidJSON   = "INVALID_JSON"
	codeNotFound      = "NOT_FOUND"
	codeInternalError = "INTERNAL_ERROR"
	codeUnavailable   = "SERVICE_UNAVAILABLE"

	msgInternalError = "internal server error"
)

type (
	errorResponse struct {
		Code    string                  `json:"code"`
		Message string                  `json:"message"`
		Details []model.ValidationError `json:"details,omitempty"`
	}

	pagination struct {
		Size       uint   `json:"size"`
		NextCursor string `json:"nextCursor,omitempty"`
	}

	deviceListResponse struct {
		Data       []*model.Device `json:"data"`
		Pagination pagination      `json:"pagination"`
	}

	deviceResponse struct {
		Data *model.Device `json:"data"`
	}
)

// errorMappings is checked in order; the first matching sentinel decides
// the response.
var errorMappings = []struct {
	target error
	status int
	code   string
}{
	{model.ErrInvalidFilter, http.StatusBadRequest, codeInvalidFilter},
	{model.ErrInvalidState, http.StatusBadRequest, codeInvalidFilter},
	{predicate.ErrFieldNotFound, http.StatusBadRequest, codeInvalidFilter},
	{predicate.ErrTypeMismatch, http.StatusBadRequest, codeInvalidFilter},
	{predicate.ErrMalformedOperand, http.StatusBadRequest, codeInvalidFilter},
	{predicate.ErrUnsupportedOperator, http.StatusBadRequest, codeInvalidFilter},
	{model.ErrInvalidCursor, http.StatusBadRequest, codeInvalidPaging},
	{model.ErrInvalidSort, http.StatusBadRequest, codeInvalidPaging},
	{model.ErrInvalidPageSize, http.StatusBadRequest, codeInvalidPaging},
	{model.ErrInvalidDeviceID, http.StatusBadRequest, codeInvalidID},
	{model.ErrDeviceNotFound, http.StatusNotFound, codeNotFound},
	{circuitbreaker.ErrOpen, http.StatusServiceUnavailable, codeUnavailable},
	{circuitbreaker.ErrProbeLimit, http.StatusServiceUnavailable, codeUnavailable},
}

func writeJSONResponse(w http.ResponseWriter, status int, body any) {
	w.Header().Set(contentTypeHeader, applicationJSON)
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(body)
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSONResponse(w, status, errorResponse{Code: code, Message: message})
}

// writeError maps a use case error onto a response. Unrecognized errors are
// logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}

		resp := errorResponse{Code: m.code, Message: err.Error()}

		var verrs *model.ValidationErrors
		if errors.As(err, &verrs) {
			resp.Details = verrs.Errors
		}

		writeJSONResponse(w, m.status, resp)

		return
	}

	reqLogger := log.WithContext(r.Context())
	reqLogger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")

	writeErrorResponse(w, http.StatusInternalServerError, codeInternalError, msgInternalError)
}

func toDeviceListResponse(list *model.DeviceList) deviceListResponse {
	devices := list.Devices
	if devices == nil {
		devices = []*model.Device{}
	}

	return deviceListResponse{
		Data: devices,
		Pagination: pagination{
			Size:       list.Size,
			NextCursor: list.NextCursor,
		},
	}
}
