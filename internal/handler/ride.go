package handler

import (
	"errors"   // errors.Is comparisons against repository sentinels
	"net/http" // HTTP status codes
	"strconv"  // parsing path parameters
	"time"     // event timestamps

	"github.com/labstack/echo/v4"

	"github.com/convoiexpress95-beep/Fleetcheeckss-sub003/internal/model"
	"github.com/convoiexpress95-beep/Fleetcheeckss-sub003/internal/queue"
	"github.com/convoiexpress95-beep/Fleetcheeckss-sub003/internal/repository"
	"github.com/convoiexpress95-beep/Fleetcheeckss-sub003/internal/service"
)

// RideHandler exposes ride creation, lookup and search over HTTP. The
// write path goes through the ride service and its schema-variant
// fallback cascade; reads go straight to the repository. JWT and role
// validation are assumed to have been performed by middleware on the
// protected routes.
type RideHandler struct {
	Service *service.RideService // fallback-cascade write path
	Rides   *repository.RideRepo // read path
}

// NewRideHandler constructs a new RideHandler with the provided
// dependencies. All dependencies must be non-nil.
func NewRideHandler(svc *service.RideService, rides *repository.RideRepo) *RideHandler {
	if svc == nil || rides == nil {
		panic("nil dependency passed to NewRideHandler")
	}
	return &RideHandler{Service: svc, Rides: rides}
}

// CreateRide handles POST /v1/rides. The request body is a JSON
// CreateRideInput. Precondition violations return 400 without any
// store call; when every schema variant is rejected by the store, the
// last store error is surfaced with a 502 so operators see the most
// specific diagnostic available. On success a ride.created event is
// published best-effort and 201 with the new id is returned.
func (h *RideHandler) CreateRide(c echo.Context) error {
	driverID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var input model.CreateRideInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx := c.Request().Context()
	id, err := h.Service.Create(ctx, driverID, input)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Reason})
		}
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error":  "ride creation failed",
			"detail": err.Error(),
		})
	}

	// Best effort: a broker outage must not fail the request.
	_ = queue.PublishRideCreated(ctx, queue.RideCreatedEvent{
		RideID:        id,
		DriverID:      driverID,
		Departure:     input.Departure,
		Destination:   input.Destination,
		DepartureTime: input.DepartureTime,
		Price:         input.Price,
		SeatsTotal:    input.SeatsTotal,
		Options:       input.Options,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// GetRide handles GET /v1/rides/:id and returns a single ride.
func (h *RideHandler) GetRide(c echo.Context) error {
	rideID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || rideID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ride id"})
	}
	ride, err := h.Rides.GetByID(c.Request().Context(), rideID)
	if err != nil {
		if errors.Is(err, repository.ErrRideNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ride not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, ride)
}

// ListMyRides handles GET /v1/rides/mine and returns the rides offered
// by the authenticated driver, most recent departure first.
func (h *RideHandler) ListMyRides(c echo.Context) error {
	driverID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	rides, err := h.Rides.ListByDriver(c.Request().Context(), driverID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"rides": rides})
}

// SearchRides handles GET /v1/search/rides. Supported query parameters:
// departure, destination, date (YYYY-MM-DD), page, page_size. Results
// are upcoming rides ordered by departure time; the route sits behind
// the shared response-cache middleware.
func (h *RideHandler) SearchRides(c echo.Context) error {
	q := repository.RideSearchQuery{
		Departure:   c.QueryParam("departure"),
		Destination: c.QueryParam("destination"),
		Date:        c.QueryParam("date"),
		Page:        1,
		PageSize:    20,
	}
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		q.Page = p
	}
	if ps, err := strconv.Atoi(c.QueryParam("page_size")); err == nil && ps > 0 && ps <= 100 {
		q.PageSize = ps
	}
	rides, total, err := h.Rides.SearchUpcoming(c.Request().Context(), q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"rides":     rides,
		"total":     total,
		"page":      q.Page,
		"page_size": q.PageSize,
	})
}
