package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"workshopbuddy/internal/model"
	"workshopbuddy/internal/service"
)

// StockHandler serves one stock collection. The same type backs both
// /materials and /consumables.
type StockHandler struct {
	stockService service.StockService
}

// NewStockHandler creates a handler for the collection behind stockService.
func NewStockHandler(stockService service.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

// CreateStockRequest represents a create request for a material or consumable.
type CreateStockRequest struct {
	Name            string  `json:"name" validate:"required"`
	Description     *string `json:"description"`
	Quantity        int     `json:"quantity"`
	MinimumQuantity int     `json:"minimumQuantity"`
	Unit            *string `json:"unit"`
}

// UpdateStockRequest is a partial update. Omitted fields are left unchanged,
// null clears description and unit.
type UpdateStockRequest struct {
	Name            model.Optional[string] `json:"name" swaggertype:"string"`
	Description     model.Optional[string] `json:"description" swaggertype:"string"`
	Quantity        model.Optional[int]    `json:"quantity" swaggertype:"integer"`
	MinimumQuantity model.Optional[int]    `json:"minimumQuantity" swaggertype:"integer"`
	Unit            model.Optional[string] `json:"unit" swaggertype:"string"`
}

// List godoc
// @Summary List stock
// @Tags inventory
// @Produce json
// @Security BearerAuth
// @Success 200 {array} StockDto
// @Failure 401 {object} errors.ErrorResponse
// @Router /materials [get]
// @Router /consumables [get]
func (h *StockHandler) List(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}

	rows, err := h.stockService.List(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toStockDtos(rows))
}

// Get godoc
// @Summary Get one stock record
// @Tags inventory
// @Produce json
// @Security BearerAuth
// @Param id path int true "Record ID"
// @Success 200 {object} StockDto
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /materials/{id} [get]
// @Router /consumables/{id} [get]
func (h *StockHandler) Get(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	stock, err := h.stockService.Get(c.Request().Context(), userID, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toStockDto(stock))
}

// Create godoc
// @Summary Create a stock record
// @Tags inventory
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateStockRequest true "Record"
// @Success 201 {object} StockDto
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /materials [post]
// @Router /consumables [post]
func (h *StockHandler) Create(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req CreateStockRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	stock, err := h.stockService.Create(c.Request().Context(), userID, service.CreateStockInput{
		Name:            req.Name,
		Description:     req.Description,
		Quantity:        req.Quantity,
		MinimumQuantity: req.MinimumQuantity,
		Unit:            req.Unit,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toStockDto(stock))
}

// Update godoc
// @Summary Update a stock record
// @Tags inventory
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Record ID"
// @Param request body UpdateStockRequest true "Fields to change"
// @Success 200 {object} StockDto
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /materials/{id} [put]
// @Router /consumables/{id} [put]
func (h *StockHandler) Update(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req UpdateStockRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	stock, err := h.stockService.Update(c.Request().Context(), userID, id, service.StockPatch{
		Name:            req.Name,
		Description:     req.Description,
		Quantity:        req.Quantity,
		MinimumQuantity: req.MinimumQuantity,
		Unit:            req.Unit,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toStockDto(stock))
}

// Delete godoc
// @Summary Delete a stock record
// @Description Deleting a material also removes it from every item.
// @Tags inventory
// @Security BearerAuth
// @Param id path int true "Record ID"
// @Success 204
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /materials/{id} [delete]
// @Router /consumables/{id} [delete]
func (h *StockHandler) Delete(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.stockService.Delete(c.Request().Context(), userID, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
