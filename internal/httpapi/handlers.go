package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seatgrid/internal/booking"
	"github.com/iliyamo/seatgrid/internal/bookerr"
	"github.com/iliyamo/seatgrid/internal/eventinit"
	"github.com/iliyamo/seatgrid/internal/queue"
	"github.com/iliyamo/seatgrid/internal/seatstore"
)

type handlers struct {
	deps *Dependencies
}

// createEventRequest binds POST /events per spec §6.
type createEventRequest struct {
	Name string    `json:"name"`
	Date time.Time `json:"date"`
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
}

func (h *handlers) createEvent(c echo.Context) error {
	var req createEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ownerID, _ := c.Get("user_id").(string)

	ctx, cancel := withTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	ev, err := h.deps.Init.CreateEvent(ctx, eventinit.Request{
		Name:    req.Name,
		OwnerID: ownerID,
		Date:    req.Date,
		Rows:    req.Rows,
		Cols:    req.Cols,
	})
	if err != nil {
		return writeBookErr(c, err)
	}

	if h.deps.Publisher != nil {
		go h.deps.Publisher.PublishEventCreated(c.Request().Context(), queue.EventCreatedEvent{
			EventID:    ev.ID,
			Name:       ev.Name,
			Date:       ev.Date,
			Rows:       ev.Rows,
			Cols:       ev.Cols,
			TotalSeats: eventinit.TotalSeats(ev),
			CreatedAt:  ev.CreatedAt,
		})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"id":         ev.ID,
		"name":       ev.Name,
		"date":       ev.Date,
		"rows":       ev.Rows,
		"cols":       ev.Cols,
		"totalSeats": eventinit.TotalSeats(ev),
	})
}

type seatView struct {
	Row    string `json:"row"`
	Col    string `json:"col"`
	Status string `json:"status"`
}

func (h *handlers) listSeats(c echo.Context) error {
	eventID := c.Param("id")

	ctx, cancel := withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.deps.Seats.GetEvent(ctx, eventID); err != nil {
		if err == seatstore.ErrEventNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load event"})
	}

	all, err := h.deps.Seats.FetchSeatMap(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
	}

	seats := make([]seatView, 0, len(all))
	for _, s := range all {
		seats = append(seats, seatView{Row: s.Row, Col: s.Col, Status: s.Status})
	}
	return c.JSON(http.StatusOK, seats)
}

// seatRefRequest mirrors spec §6's `{row, col}` booking request shape.
type seatRefRequest struct {
	Row string `json:"row"`
	Col string `json:"col"`
}

type createBookingRequest struct {
	EventID string           `json:"eventId"`
	UserID  string           `json:"userId"`
	Seats   []seatRefRequest `json:"seats"`
}

func (h *handlers) createBooking(c echo.Context) error {
	var req createBookingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request body"})
	}

	ctx, cancel := withTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	seats := make([]booking.SeatRef, len(req.Seats))
	for i, s := range req.Seats {
		seats[i] = booking.SeatRef{Row: s.Row, Col: s.Col}
	}

	res, err := h.deps.Coord.BookSeats(ctx, req.EventID, req.UserID, seats)
	if err != nil {
		return writeBookErr(c, err)
	}

	if h.deps.Publisher != nil {
		go h.deps.Publisher.PublishSeatsBooked(c.Request().Context(), queue.SeatsBookedEvent{
			BookingID:   res.BookingID,
			EventID:     res.EventID,
			UserID:      req.UserID,
			SeatCount:   res.SeatCount,
			ConfirmedAt: time.Now().UTC(),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"message":   "booking confirmed",
		"seatCount": res.SeatCount,
	})
}

func writeBookErr(c echo.Context, err error) error {
	if be, ok := bookerr.As(err); ok {
		if be.Code == bookerr.CodeInvalid {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": string(be.Code), "message": be.Message})
		}
		return c.JSON(bookerr.HTTPStatus(be.Code), echo.Map{
			"success":      false,
			"message":      be.Message,
			"errorDetails": string(be.Code),
		})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": err.Error()})
}
