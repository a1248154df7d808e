package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/nikitakuklev/stepperd/internal/hal"
	"github.com/nikitakuklev/stepperd/pkg/motion"
)

// Handler holds the service dependency for HTTP handlers.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// SetupRoutes configures all API routes with the handler.
func (h *Handler) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Get("/health", h.healthCheck)

	motorRoutes := api.Group("/motors")
	motorRoutes.Get("/", h.listMotors)
	motorRoutes.Get("/:uuid/", h.getMotor)

	api.Post("/move/", h.move)
	api.Post("/enable/", h.enable)
	api.Post("/disable/", h.disable)
	api.Post("/stop/", h.stop)
	api.Post("/home/", h.home)
	api.Post("/config/motion", h.updateMotionConfig)

	api.Get("/board", h.board)
	api.Get("/metrics", h.metricsJSON)
	api.Get("/metrics/prometheus", h.metricsPrometheus)

	app.Use("/api/v1/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/api/v1/ws", websocket.New(func(c *websocket.Conn) {
		h.service.wsHub.HandleWebSocket(c)
	}))

	// Unprefixed legacy route, per spec §6.
	app.Post("/shutdown/", h.shutdown)
}

func (h *Handler) healthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":            "healthy",
		"service":           "stepperd",
		"websocket_clients": h.service.wsHub.GetClientCount(),
		"motors":            h.service.registry.Count(),
	})
}

func (h *Handler) listMotors(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"motors": h.service.ListMotors(),
	})
}

func (h *Handler) getMotor(c *fiber.Ctx) error {
	uuid := c.Params("uuid")
	snap, err := h.service.GetMotor(uuid)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(snap)
}

type moveRequest struct {
	UUID  string `json:"uuid"`
	Dir   int    `json:"dir"`
	Steps int    `json:"steps"`
	Block bool   `json:"block"`
	Force bool   `json:"force"`
}

func (h *Handler) move(c *fiber.Ctx) error {
	var req moveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	result, err := h.service.Move(req.UUID, motion.Direction(req.Dir), req.Steps, req.Block, req.Force)
	return respondResult(c, result, err)
}

type motorActionRequest struct {
	UUID  string `json:"uuid"`
	Force bool   `json:"force"`
}

func (h *Handler) enable(c *fiber.Ctx) error {
	var req motorActionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	result, err := h.service.Enable(req.UUID, req.Force)
	return respondResult(c, result, err)
}

func (h *Handler) disable(c *fiber.Ctx) error {
	var req motorActionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	result, err := h.service.Disable(req.UUID)
	return respondResult(c, result, err)
}

func (h *Handler) stop(c *fiber.Ctx) error {
	var req struct {
		UUID string `json:"uuid"`
	}
	_ = c.BodyParser(&req) // uuid is optional: empty body stops every motor

	results, err := h.service.Stop(req.UUID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"results": results})
}

type homeRequest struct {
	UUID string `json:"uuid"`
	Dir  int    `json:"dir"`
}

func (h *Handler) home(c *fiber.Ctx) error {
	var req homeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	result, err := h.service.Home(req.UUID, motion.Direction(req.Dir))
	return respondResult(c, result, err)
}

type motionConfigRequest struct {
	UUID string `json:"uuid"`
	MotionConfigUpdate
}

func (h *Handler) updateMotionConfig(c *fiber.Ctx) error {
	var req motionConfigRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.service.UpdateMotionConfig(req.UUID, req.MotionConfigUpdate); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "motion config updated"})
}

func (h *Handler) board(c *fiber.Ctx) error {
	info, activePins := h.service.BoardInfo()
	pins := make(map[string]string, len(activePins))
	for pin, mode := range activePins {
		modeStr := "input"
		if mode == hal.Output {
			modeStr = "output"
		}
		pins[strconv.Itoa(pin)] = modeStr
	}
	return c.JSON(fiber.Map{
		"board":       info,
		"active_pins": pins,
	})
}

func (h *Handler) metricsJSON(c *fiber.Ctx) error {
	return c.JSON(h.service.MetricsSnapshot())
}

func (h *Handler) metricsPrometheus(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/plain; version=0.0.4")
	return c.SendString(h.service.MetricsPrometheus())
}

func (h *Handler) shutdown(c *fiber.Ctx) error {
	go h.service.Shutdown()
	return c.JSON(fiber.Map{"message": "shutting down"})
}

func respondResult(c *fiber.Ctx, result motion.Result, err error) error {
	if _, ok := err.(*motion.AdmissionReject); ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil && result == motion.ResultFailed {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"result": result})
}
