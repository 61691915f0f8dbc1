package httpapi

import (
	"bytes"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/tqwind/windalert/internal/api/http/views"
	"github.com/tqwind/windalert/internal/store"
)

var validate = validator.New()

// RegisterRoutes wires the dashboard handlers into the Fiber app. All
// routes are read-only; they may run concurrently with the worker's writes
// and tolerate readings lagging by up to one polling interval.
func RegisterRoutes(app *fiber.App, readings *store.ReadingRepository, statsRepo *store.StatsRepository, alerts *store.AlertLogRepository) {
	app.Get("/", func(c *fiber.Ctx) error {
		data := views.DashboardData{}

		if recent, err := readings.LastHours(c.Context(), 24); err == nil {
			data.Readings = recent
			data.Latest = &recent[len(recent)-1]
		} else if !errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load readings")
		}

		if snap, err := statsRepo.Latest(c.Context()); err == nil {
			data.Stats = &snap
		} else if !errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load stats")
		}

		if entries, err := alerts.LastHours(c.Context(), 24); err == nil {
			data.Alerts = entries
		}

		var buf bytes.Buffer
		if err := views.RenderDashboard(&buf, &data); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to render dashboard")
		}
		c.Type("html", "utf-8")
		return c.Send(buf.Bytes())
	})

	v1 := app.Group("/api/v1")

	v1.Get("/readings/latest", func(c *fiber.Ctx) error {
		reading, err := readings.Latest(c.Context())
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no readings recorded yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch latest reading")
		}
		return c.JSON(reading)
	})

	v1.Get("/readings/history", func(c *fiber.Ctx) error {
		var req historyQuery
		req.Hours = c.QueryInt("hours", 24)
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "hours must be between 1 and 168")
		}

		window, err := readings.LastHours(c.Context(), req.Hours)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no readings for requested window")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch reading history")
		}

		return c.JSON(fiber.Map{
			"hours":    req.Hours,
			"readings": window,
		})
	})

	v1.Get("/stats/latest", func(c *fiber.Ctx) error {
		snap, err := statsRepo.Latest(c.Context())
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no stats snapshot yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch stats")
		}
		return c.JSON(snap)
	})

	v1.Get("/alerts/recent", func(c *fiber.Ctx) error {
		entries, err := alerts.LastHours(c.Context(), 24)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch alerts")
		}
		return c.JSON(fiber.Map{"alerts": entries})
	})
}

// historyQuery bounds the dashboard history window.
type historyQuery struct {
	Hours int `validate:"required,min=1,max=168"`
}
