package inventory

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/voltara-ev/voltara/internal/platform/httpx"
)

// Handler exposes inventory over JSON HTTP.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/units", h.ReceiveUnits)
	r.Get("/units", h.ListUnits)
	r.Get("/availability", h.Availability)
}

func (h *Handler) ReceiveUnits(w http.ResponseWriter, r *http.Request) {
	var req ReceiveUnitsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	units, err := h.service.Receive(r.Context(), req)
	if err != nil {
		h.logger.Error("receive units", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, units)
}

func (h *Handler) ListUnits(w http.ResponseWriter, r *http.Request) {
	variantID, err := uuid.Parse(r.URL.Query().Get("variantId"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "variantId must be a UUID")
		return
	}
	var status *UnitStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := UnitStatus(raw)
		switch s {
		case UnitAvailable, UnitReserved, UnitSold:
			status = &s
		default:
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "unknown unit status")
			return
		}
	}
	units, err := h.service.ListUnits(r.Context(), variantID, status)
	if err != nil {
		h.logger.Error("list units", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, units)
}

func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	variantID, err := uuid.Parse(r.URL.Query().Get("variantId"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "variantId must be a UUID")
		return
	}
	colorID, err := uuid.Parse(r.URL.Query().Get("colorId"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "colorId must be a UUID")
		return
	}
	snap, err := h.service.Availability(r.Context(), variantID, colorID)
	if err != nil {
		h.logger.Error("availability", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
}
