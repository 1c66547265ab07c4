package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/leshachaplin/exmanalytics/internal/apierror"
	"github.com/leshachaplin/exmanalytics/internal/service"
)

type Handler struct {
	interactions service.Interaction
	logger       zerolog.Logger
}

func NewHandler(interactions service.Interaction, logger zerolog.Logger) *Handler {
	return &Handler{
		interactions: interactions,
		logger:       logger,
	}
}

func (h *Handler) error(err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	var apiErr apierror.Error
	if !errors.As(toAPIError(err), &apiErr) {
		apiErr = apierror.Internal(err.Error())
	}

	w.WriteHeader(apiErr.StatusCode())
	if err = json.NewEncoder(w).Encode(apiErr); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode api error")
	}
}
