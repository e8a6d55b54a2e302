package httpapi

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/climacan/climacan/internal/supervisor"
)

var validate = validator.New()

// RegisterRoutes wires the worker liveness endpoints into the Fiber app.
func RegisterRoutes(app *fiber.App, sup *supervisor.Supervisor) {
	v1 := app.Group("/api/v1")

	v1.Get("/workers", func(c *fiber.Ctx) error {
		q := workersQuery{Source: c.Query("source")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		var workers []workerStatus
		for _, h := range sup.Handles() {
			if q.Source != "" && string(h.Source()) != q.Source {
				continue
			}
			st := h.Status()
			workers = append(workers, workerStatus{
				Name:                h.Name(),
				Source:              string(h.Source()),
				Alive:               h.Alive(),
				State:               string(st.State),
				LastPollAt:          st.LastPollAt,
				LastSuccessAt:       st.LastSuccessAt,
				ConsecutiveFailures: st.ConsecutiveFailures,
			})
		}

		if len(workers) == 0 && q.Source != "" {
			return fiber.NewError(fiber.StatusNotFound, "no worker for requested source")
		}

		return c.JSON(fiber.Map{"workers": workers})
	})
}

// workersQuery holds query parameters for the workers endpoint.
type workersQuery struct {
	Source string `validate:"omitempty,oneof=aemet grafcan"`
}

// workerStatus is the liveness view of one collector worker.
type workerStatus struct {
	Name                string    `json:"name"`
	Source              string    `json:"source"`
	Alive               bool      `json:"alive"`
	State               string    `json:"state"`
	LastPollAt          time.Time `json:"lastPollAt"`
	LastSuccessAt       time.Time `json:"lastSuccessAt"`
	ConsecutiveFailures int       `json:"consecutiveFailures"`
}
