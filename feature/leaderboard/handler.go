package leaderboard

import (
	"errors"
	"strconv"

	"doubloon-tracker/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the leaderboard mirror.
type Handler struct {
	service   *Service
	scheduler *Scheduler
	logger    *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, scheduler *Scheduler, logger *zap.Logger) *Handler {
	return &Handler{service: service, scheduler: scheduler, logger: logger}
}

// RegisterRoutes registers the leaderboard routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/leaderboard")
	group.Get("/status", h.HandleStatus)
	group.Post("/sync", h.HandleSync)
}

// HandleStatus reports the last export.
// @Summary Leaderboard export status
// @Tags leaderboard
// @Produce json
// @Success 200 {object} Status
// @Router /leaderboard/status [get]
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(h.service.Status())
}

// HandleSync triggers a manual sync, subject to the cooldown.
// @Summary Sync leaderboard
// @Description Export balances to the public leaderboard unless it is already current.
// @Tags leaderboard
// @Produce json
// @Success 200 {object} Result
// @Failure 429 {object} map[string]any "Cooldown"
// @Failure 502 {object} map[string]string "Export failed"
// @Router /leaderboard/sync [post]
func (h *Handler) HandleSync(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	res, err := h.scheduler.TriggerManual(c.Context(), "api")
	if err != nil {
		var cooldown *CooldownError
		if errors.As(err, &cooldown) {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(cooldown.Seconds()))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       err.Error(),
				"retry_after": cooldown.Seconds(),
			})
		}
		l.Error("Leaderboard sync failed", zap.Error(err))
		status := fiber.StatusInternalServerError
		if errors.Is(err, ErrExternalSync) {
			status = fiber.StatusBadGateway
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(res)
}
