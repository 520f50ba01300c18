package auditlog

import (
	"errors"
	"fmt"
	"strconv"

	"doubloon-tracker/core/audit"
	"doubloon-tracker/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	// DefaultLines is the tail length when none is requested.
	DefaultLines = 10
	// MaxLines caps the tail length a request may ask for.
	MaxLines = 1000
)

// Handler serves the audit trail files.
type Handler struct {
	trail  *audit.Trail
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(trail *audit.Trail, logger *zap.Logger) *Handler {
	return &Handler{trail: trail, logger: logger}
}

// RegisterRoutes registers the audit log routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/logs")
	group.Get("/", h.HandleList)
	group.Get("/:name", h.HandleTail)
	group.Get("/:name/full", h.HandleFull)
}

// HandleList returns the trail names.
// @Summary List audit trails
// @Tags logs
// @Produce json
// @Success 200 {array} string
// @Router /logs [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	return c.JSON(audit.Names())
}

// HandleTail returns the last lines of a trail.
// @Summary Tail audit trail
// @Tags logs
// @Produce json
// @Param name path string true "Trail (commands, points, errors, debug)"
// @Param lines query int false "Number of lines (default 10, max 1000)"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 404 {object} map[string]string "Unknown trail"
// @Router /logs/{name} [get]
func (h *Handler) HandleTail(c *fiber.Ctx) error {
	n, err := strconv.Atoi(c.Query("lines", strconv.Itoa(DefaultLines)))
	if err != nil || n <= 0 || n > MaxLines {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fmt.Sprintf("lines must be between 1 and %d", MaxLines)})
	}

	name := audit.Name(c.Params("name"))
	lines, err := h.trail.Tail(name, n)
	if err != nil {
		return h.fail(c, err)
	}
	if lines == nil {
		lines = []string{}
	}
	return c.JSON(fiber.Map{"name": name, "lines": lines})
}

// HandleFull returns the whole trail file as plain text.
// @Summary Download audit trail
// @Tags logs
// @Produce plain
// @Param name path string true "Trail (commands, points, errors, debug)"
// @Success 200 {string} string
// @Failure 404 {object} map[string]string "Unknown trail"
// @Router /logs/{name}/full [get]
func (h *Handler) HandleFull(c *fiber.Ctx) error {
	body, err := h.trail.Full(audit.Name(c.Params("name")))
	if err != nil {
		return h.fail(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(body)
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	if errors.Is(err, audit.ErrUnknownTrail) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	logger.WithRayID(h.logger, c).Error("Reading audit trail failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}
