package httpapi

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/commodity-weather-forecast/internal/forecast"
	"github.com/i474232898/commodity-weather-forecast/internal/pipeline"
	"github.com/i474232898/commodity-weather-forecast/internal/series"
	"github.com/i474232898/commodity-weather-forecast/internal/store"
)

var validate = validator.New()

// SeriesReader reads stored series.
type SeriesReader interface {
	Read(ctx context.Context, name string) (series.Frame, error)
}

// Forecaster produces price forecasts.
type Forecaster interface {
	Forecast(ctx context.Context, horizon int) (forecast.Result, error)
}

// Runner triggers pipeline tasks on demand.
type Runner interface {
	Run(ctx context.Context, task string) (pipeline.Report, error)
}

// Deps are the collaborators the dashboard API serves from.
type Deps struct {
	Store          SeriesReader
	Forecaster     Forecaster
	Runner         Runner
	DefaultHorizon int
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/api/v1")

	v1.Get("/series/:name", func(c *fiber.Ctx) error {
		req := seriesRequest{Name: c.Params("name")}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		frame, err := deps.Store.Read(c.UserContext(), req.Name)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "series has not been loaded yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read series")
		}

		return c.JSON(fiber.Map{
			"name":    req.Name,
			"columns": frame.Columns,
			"rows":    frame.Rows,
		})
	})

	v1.Get("/forecast", func(c *fiber.Ctx) error {
		var req forecastQuery
		if err := req.bind(c, deps.DefaultHorizon); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		res, err := deps.Forecaster.Forecast(c.UserContext(), req.Horizon)
		if err != nil {
			switch {
			case errors.Is(err, store.ErrNotFound):
				return fiber.NewError(fiber.StatusNotFound, "price series has not been loaded yet")
			case errors.Is(err, forecast.ErrNoSamples):
				return fiber.NewError(fiber.StatusUnprocessableEntity, "price series has no usable samples")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to compute forecast")
		}

		points := res.Points
		if req.OnlyFuture {
			points = res.Future()
		}
		return c.JSON(fiber.Map{
			"series":  series.CommodityPrices,
			"horizon": req.Horizon,
			"fitted":  res.Fitted,
			"dropped": res.Dropped,
			"points":  points,
		})
	})

	v1.Post("/runs/:task", func(c *fiber.Ctx) error {
		req := runRequest{Task: c.Params("task")}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		rep, err := deps.Runner.Run(c.UserContext(), req.Task)
		if err != nil {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
				"report":  rep,
			})
		}
		return c.JSON(rep)
	})
}

type seriesRequest struct {
	Name string `validate:"required,oneof=commodity_prices weather_data"`
}

type runRequest struct {
	Task string `validate:"required,oneof=prices weather"`
}

// forecastQuery holds query parameters for the forecast endpoint.
type forecastQuery struct {
	Horizon    int `validate:"gte=1,lte=3650"`
	OnlyFuture bool
}

func (q *forecastQuery) bind(c *fiber.Ctx, def int) error {
	q.Horizon = def
	if h := c.Query("horizon"); h != "" {
		n, err := strconv.Atoi(h)
		if err != nil {
			return errors.New("horizon must be an integer")
		}
		q.Horizon = n
	}
	if v := c.Query("only_future"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.New("only_future must be a boolean")
		}
		q.OnlyFuture = b
	}
	return nil
}
