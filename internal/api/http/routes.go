package httpapi

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/ltumat/AirQualityPrediction/internal/registry"
	"github.com/ltumat/AirQualityPrediction/internal/scheduler"
	"github.com/ltumat/AirQualityPrediction/internal/store"
)

var validate = validator.New()

// API bundles the dependencies the HTTP handlers read.
type API struct {
	Store   *registry.Store
	File    string
	Runner  *scheduler.Runner
	History *store.MemoryStore
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, api API) {
	v1 := app.Group("/api/v1")

	v1.Get("/sensors", func(c *fiber.Ctx) error {
		q, err := parseSensorsQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		doc, err := api.Store.Load(api.File)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load sensor registry")
		}

		return c.JSON(fiber.Map{"sensors": filterSensors(doc.Sensors, q)})
	})

	v1.Get("/sensors/:name", func(c *fiber.Ctx) error {
		name := c.Params("name")
		if decoded, err := url.PathUnescape(name); err == nil {
			name = decoded
		}

		doc, err := api.Store.Load(api.File)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load sensor registry")
		}

		for _, sensor := range doc.Sensors {
			if sensor.Name == name {
				return c.JSON(sensor)
			}
		}
		return fiber.NewError(fiber.StatusNotFound, "no sensor with requested name")
	})

	v1.Post("/sync", func(c *fiber.Ctx) error {
		report, err := api.Runner.RunOnce(c.Context())
		if err != nil {
			if errors.Is(err, scheduler.ErrSyncInProgress) {
				return fiber.NewError(fiber.StatusConflict, "sync already in progress")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "coordinate sync failed")
		}
		return c.JSON(report)
	})

	v1.Get("/runs", func(c *fiber.Ctx) error {
		var req runsQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		reports, err := api.History.Recent(api.File, req.Limit)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no runs recorded yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read run history")
		}

		return c.JSON(fiber.Map{
			"file": api.File,
			"runs": reports,
		})
	})

	v1.Get("/runs/latest", func(c *fiber.Ctx) error {
		report, err := api.History.Latest(api.File)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no runs recorded yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read run history")
		}
		return c.JSON(report)
	})
}

// sensorsQuery holds the optional registry filters. A city filter only makes
// sense within a country.
type sensorsQuery struct {
	Country string `validate:"required_with=City"`
	City    string
}

func parseSensorsQuery(c *fiber.Ctx) (sensorsQuery, error) {
	q := sensorsQuery{
		Country: c.Query("country"),
		City:    c.Query("city"),
	}

	if err := validate.Struct(q); err != nil {
		return q, err
	}

	return q, nil
}

func filterSensors(sensors []registry.Sensor, q sensorsQuery) []registry.Sensor {
	if q.Country == "" && q.City == "" {
		return sensors
	}

	filtered := make([]registry.Sensor, 0, len(sensors))
	for _, sensor := range sensors {
		if q.Country != "" && !strings.EqualFold(sensor.Country, q.Country) {
			continue
		}
		if q.City != "" && !strings.EqualFold(sensor.City, q.City) {
			continue
		}
		filtered = append(filtered, sensor)
	}
	return filtered
}

// runsQuery holds query parameters for the run-history endpoint.
type runsQuery struct {
	Limit int `validate:"omitempty,min=1,max=100"`
}

func (q *runsQuery) bind(c *fiber.Ctx) error {
	limitStr := c.Query("limit")
	if limitStr == "" {
		return nil
	}

	n, err := strconv.Atoi(limitStr)
	if err != nil {
		return errors.New("invalid limit; use an integer between 1 and 100")
	}
	q.Limit = n
	return nil
}
