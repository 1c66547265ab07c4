package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/leshachaplin/exmanalytics/internal/apierror"
	"github.com/leshachaplin/exmanalytics/internal/domain"
)

// Interaction accepts an email open for asynchronous saving.
func (h *Handler) Interaction(w http.ResponseWriter, r *http.Request) {
	var args domain.EmailOpened
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
		h.error(apierror.BadRequest("malformed request body"), w)
		return
	}
	if args.IPAddress == "" {
		if ip, ok := clientIP(r); ok {
			args.IPAddress = ip
		}
	}

	if err := h.interactions.Enqueue(args); err != nil {
		h.error(err, w)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// Dimensions computes the dimensions of an interaction without saving it.
func (h *Handler) Dimensions(w http.ResponseWriter, r *http.Request) {
	var interaction domain.Interaction
	if err := json.NewDecoder(r.Body).Decode(&interaction); err != nil {
		h.error(apierror.BadRequest("malformed request body"), w)
		return
	}

	results, err := h.interactions.ComputeDimensions(r.Context(), &interaction)
	if err != nil {
		h.error(err, w)
		return
	}
	if err = encodeJSONResponse(w, http.StatusOK, results); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode dimensions")
	}
}

func toAPIError(err error) error {
	var apiErr apierror.Error
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, domain.ErrInvalidArgument):
		return apierror.BadRequest(err.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		return apierror.Unavailable(err.Error())
	default:
		return err
	}
}
