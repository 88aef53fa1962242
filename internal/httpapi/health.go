package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// live always answers unconditionally: the process is up and accepting
// connections, regardless of downstream health.
func (h *handlers) live(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "live"})
}

// ready pings the seat store and lock store with short deadlines,
// generalizing the teacher's single /healthz into the liveness/readiness
// split a load balancer needs to stop routing traffic during a downstream
// outage without restarting the process.
func (h *handlers) ready(c echo.Context) error {
	ctx, cancel := withTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	checks := echo.Map{}
	ok := true

	if err := h.deps.Seats.Ping(ctx); err != nil {
		checks["seatstore"] = err.Error()
		ok = false
	} else {
		checks["seatstore"] = "ok"
	}

	if err := h.deps.Locks.Ping(ctx); err != nil {
		checks["lockstore"] = err.Error()
		ok = false
	} else {
		checks["lockstore"] = "ok"
	}

	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, echo.Map{"status": map[bool]string{true: "ready", false: "not_ready"}[ok], "checks": checks})
}
