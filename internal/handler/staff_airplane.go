package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/brunacrodrigues/vitoria-airlines/internal/model"
	"github.com/brunacrodrigues/vitoria-airlines/internal/repository"
	"github.com/brunacrodrigues/vitoria-airlines/internal/seatmap"
)

// airplaneRequest is the write payload shared by airplane create and
// edit.
type airplaneRequest struct {
	Model          string `json:"model"`
	ExecutiveSeats int    `json:"executive_seats"`
	EconomySeats   int    `json:"economy_seats"`
	Status         string `json:"status"`
	Version        uint32 `json:"version"` // required on edit only
}

func validateAirplane(body airplaneRequest) (model.AirplaneStatus, string) {
	if body.Model == "" {
		return "", "model is required"
	}
	if body.ExecutiveSeats < 0 || body.EconomySeats < 0 {
		return "", "seat counts must not be negative"
	}
	if body.ExecutiveSeats+body.EconomySeats == 0 {
		return "", "airplane needs at least one seat"
	}
	status := model.AirplaneStatus(body.Status)
	if status == "" {
		status = model.AirplaneActive
	}
	switch status {
	case model.AirplaneActive, model.AirplaneInactive, model.AirplaneMaintenance:
	default:
		return "", "invalid status"
	}
	return status, ""
}

// CreateAirplane handles POST /v1/airplanes.  The airplane row and its
// generated seat map commit together; an airplane without seats never
// becomes visible.
func (h *StaffHandler) CreateAirplane(c echo.Context) error {
	var body airplaneRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	status, msg := validateAirplane(body)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx := c.Request().Context()
	tx, err := h.AirplaneRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	airplane := &model.Airplane{
		Model:          body.Model,
		ExecutiveSeats: body.ExecutiveSeats,
		EconomySeats:   body.EconomySeats,
		Status:         status,
	}
	if err := h.AirplaneRepo.CreateTx(ctx, tx, airplane); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	seats, err := seatmap.Generate(airplane.ID, body.ExecutiveSeats, body.EconomySeats)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat counts"})
	}
	if err := h.SeatRepo.CreateBulkTx(ctx, tx, seats); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	committed = true

	return c.JSON(http.StatusCreated, airplane)
}

// UpdateAirplane handles PUT /v1/airplanes/:id.  Changing seat counts
// regenerates the entire seat map, which is refused while any active
// ticket references one of the airplane's seats; deleting a sold seat
// would orphan the ticket.
func (h *StaffHandler) UpdateAirplane(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid airplane id"})
	}
	var body airplaneRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	status, msg := validateAirplane(body)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx := c.Request().Context()
	current, err := h.AirplaneRepo.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrAirplaneNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "airplane not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	reseat := current.ExecutiveSeats != body.ExecutiveSeats || current.EconomySeats != body.EconomySeats

	tx, err := h.AirplaneRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if reseat {
		active, err := h.TicketRepo.CountActiveByAirplaneTx(ctx, tx, id)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if active > 0 {
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "seat layout cannot change while tickets are sold on this airplane",
			})
		}
	}

	airplane := &model.Airplane{
		ID:             id,
		Model:          body.Model,
		ExecutiveSeats: body.ExecutiveSeats,
		EconomySeats:   body.EconomySeats,
		Status:         status,
		Version:        body.Version,
	}
	if err := h.AirplaneRepo.UpdateVersionedTx(ctx, tx, airplane); err != nil {
		switch {
		case errors.Is(err, repository.ErrStaleVersion):
			return c.JSON(http.StatusConflict, echo.Map{"error": "airplane was modified by someone else, reload and retry"})
		case errors.Is(err, repository.ErrAirplaneNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "airplane not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	if reseat {
		seats, err := seatmap.Generate(id, body.ExecutiveSeats, body.EconomySeats)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat counts"})
		}
		if err := h.SeatRepo.ReplaceForAirplaneTx(ctx, tx, id, seats); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	committed = true

	return c.JSON(http.StatusOK, airplane)
}

// ListAirplanes handles GET /v1/airplanes.
func (h *StaffHandler) ListAirplanes(c echo.Context) error {
	airplanes, err := h.AirplaneRepo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": airplanes, "total": len(airplanes)})
}

// CreateAirport handles POST /v1/airports.
func (h *StaffHandler) CreateAirport(c echo.Context) error {
	var body struct {
		IATA    string `json:"iata"`
		Name    string `json:"name"`
		City    string `json:"city"`
		Country string `json:"country"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body.IATA) != 3 || body.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "iata (3 letters) and name are required"})
	}
	airport := &model.Airport{IATA: body.IATA, Name: body.Name, City: body.City, Country: body.Country}
	if err := h.AirportRepo.Create(c.Request().Context(), airport); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "airport code already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, airport)
}
