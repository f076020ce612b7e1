package httpapi

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/i474232898/groundwater-monitoring/internal/groundwater"
	"github.com/i474232898/groundwater-monitoring/internal/render"
	"github.com/i474232898/groundwater-monitoring/internal/store"
)

var validate = validator.New()

// ReportService is what the handlers need from groundwater.Service.
type ReportService interface {
	GetLatest() (groundwater.Report, error)
	GetRange(from, to time.Time) ([]groundwater.Report, error)
}

// NewApp builds the Fiber app with the central error handler, panic recovery,
// the given middleware, the health endpoint and the API routes.
func NewApp(service ReportService, logger *zap.Logger, middleware ...fiber.Handler) *fiber.App {
	if logger == nil {
		logger = zap.NewNop()
	}
	app := fiber.New(fiber.Config{
		AppName:               "gw-monitor",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			if code >= fiber.StatusInternalServerError {
				logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	for _, m := range middleware {
		app.Use(m)
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "gw-monitor",
		})
	})

	RegisterRoutes(app, service)
	return app
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service ReportService) {
	v1 := app.Group("/api/v1/reports")

	v1.Get("/latest", func(c *fiber.Ctx) error {
		report, err := latestReport(service)
		if err != nil {
			return err
		}
		return c.JSON(report)
	})

	v1.Get("/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		reports, err := service.GetRange(req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no reports for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch report history")
		}

		return c.JSON(fiber.Map{
			"from":    req.From,
			"to":      req.To,
			"reports": reports,
		})
	})

	v1.Get("/latest/maps/:layer", func(c *fiber.Ctx) error {
		layer := c.Params("layer")
		if err := validate.Var(layer, "oneof="+strings.Join(groundwater.Layers, " ")); err != nil {
			return fiber.NewError(fiber.StatusNotFound, "unknown map layer "+strconv.Quote(layer))
		}
		report, err := latestReport(service)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := groundwater.WriteMap(&buf, report, layer); err != nil {
			return err
		}
		c.Type("png")
		return c.Send(buf.Bytes())
	})

	v1.Get("/latest/charts/:chart", func(c *fiber.Ctx) error {
		chart := c.Params("chart")
		if err := validate.Var(chart, "oneof="+strings.Join(groundwater.Charts, " ")); err != nil {
			return fiber.NewError(fiber.StatusNotFound, "unknown chart "+strconv.Quote(chart))
		}
		report, err := latestReport(service)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := groundwater.WriteChart(&buf, report, chart); err != nil {
			if errors.Is(err, render.ErrNotEnoughData) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return err
		}
		c.Type("png")
		return c.Send(buf.Bytes())
	})
}

func latestReport(service ReportService) (groundwater.Report, error) {
	report, err := service.GetLatest()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return groundwater.Report{}, fiber.NewError(fiber.StatusNotFound, "no report available yet")
		}
		return groundwater.Report{}, fiber.NewError(fiber.StatusInternalServerError, "failed to fetch report")
	}
	return report, nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
