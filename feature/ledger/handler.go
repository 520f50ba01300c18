package ledger

import (
	"errors"
	"strconv"

	"doubloon-tracker/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler exposes the ledger over HTTP for operators.
type Handler struct {
	engine *Engine
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(engine *Engine, logger *zap.Logger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

// RegisterRoutes registers the ledger routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/ledger")
	group.Get("/top", h.HandleTop)
	group.Get("/users/:id", h.HandleGetUser)
	group.Put("/users/:id", h.HandleRegister)
	group.Post("/users/:id/award", h.HandleAward)
	group.Post("/users/:id/revoke", h.HandleRevoke)
	group.Post("/ranks/repair", h.HandleRepairRanks)
}

// AdjustRequest is the body of award and revoke requests. Amount is a string so
// malformed input is reported the same way as chat commands.
type AdjustRequest struct {
	Amount string `json:"amount"`
	Actor  string `json:"actor"`
	Name   string `json:"name"`
}

// RegisterRequest is the body of a registration.
type RegisterRequest struct {
	Name string `json:"name"`
}

// HandleTop returns the users with the highest balances.
// @Summary Leaderboard
// @Description Users ordered by balance, highest first.
// @Tags ledger
// @Produce json
// @Param limit query int false "Maximum rows (default 10, 0 for all)"
// @Success 200 {array} models.User
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /ledger/top [get]
func (h *Handler) HandleTop(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "10"))
	if err != nil || limit < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "limit must be a non-negative integer"})
	}
	users, err := h.engine.Top(c.Context(), limit)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(users)
}

// HandleGetUser returns one balance record.
// @Summary Get balance
// @Tags ledger
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} map[string]string "Not Found"
// @Router /ledger/users/{id} [get]
func (h *Handler) HandleGetUser(c *fiber.Ctx) error {
	u, err := h.engine.Balance(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(u)
}

// HandleRegister creates or renames a user.
// @Summary Register user
// @Tags ledger
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param body body RegisterRequest true "Display name"
// @Success 200 {object} models.User
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /ledger/users/{id} [put]
func (h *Handler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}
	u, err := h.engine.Register(c.Context(), "api", c.Params("id"), req.Name)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(u)
}

// HandleAward adds doubloons to a user, creating the record if needed.
// @Summary Award doubloons
// @Tags ledger
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param body body AdjustRequest true "Amount"
// @Success 200 {object} Result
// @Failure 400 {object} map[string]string "Invalid amount"
// @Router /ledger/users/{id}/award [post]
func (h *Handler) HandleAward(c *fiber.Ctx) error {
	return h.adjust(c, false)
}

// HandleRevoke removes doubloons from an existing user.
// @Summary Revoke doubloons
// @Tags ledger
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param body body AdjustRequest true "Amount"
// @Success 200 {object} Result
// @Failure 400 {object} map[string]string "Invalid amount"
// @Failure 404 {object} map[string]string "Not Found"
// @Failure 409 {object} map[string]string "Insufficient balance"
// @Router /ledger/users/{id}/revoke [post]
func (h *Handler) HandleRevoke(c *fiber.Ctx) error {
	return h.adjust(c, true)
}

func (h *Handler) adjust(c *fiber.Ctx, revoke bool) error {
	var req AdjustRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	actor := req.Actor
	if actor == "" {
		actor = "api"
	}
	res, err := h.engine.Adjust(c.Context(), AdminChange{
		Actor:       actor,
		UserID:      c.Params("id"),
		DisplayName: req.Name,
		Magnitude:   req.Amount,
		Revoke:      revoke,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(res)
}

// HandleRepairRanks reclassifies stored ranks against the tier table.
// @Summary Repair ranks
// @Tags ledger
// @Produce json
// @Success 200 {object} map[string]int
// @Router /ledger/ranks/repair [post]
func (h *Handler) HandleRepairRanks(c *fiber.Ctx) error {
	n, err := h.engine.RepairRanks(c.Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"repaired": n})
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	var insufficient *InsufficientBalanceError
	switch {
	case errors.Is(err, ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &insufficient):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   err.Error(),
			"balance": insufficient.Balance,
		})
	case errors.Is(err, ErrInvalidMagnitude):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	logger.WithRayID(h.logger, c).Error("Ledger request failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}
