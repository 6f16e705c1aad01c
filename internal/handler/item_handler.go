package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"workshopbuddy/internal/model"
	"workshopbuddy/internal/service"
)

// ItemHandler handles item and material link endpoints.
type ItemHandler struct {
	itemService service.ItemService
}

// NewItemHandler creates a new item handler.
func NewItemHandler(itemService service.ItemService) *ItemHandler {
	return &ItemHandler{itemService: itemService}
}

// CreateItemRequest represents an item create request.
type CreateItemRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
	Notes       *string `json:"notes"`
}

// UpdateItemRequest is a partial update of an item.
type UpdateItemRequest struct {
	Name        model.Optional[string] `json:"name" swaggertype:"string"`
	Description model.Optional[string] `json:"description" swaggertype:"string"`
	Notes       model.Optional[string] `json:"notes" swaggertype:"string"`
}

// LinkMaterialRequest links a material to an item.
type LinkMaterialRequest struct {
	MaterialID       uint `json:"materialId" validate:"required"`
	RequiredQuantity int  `json:"requiredQuantity"`
}

// List godoc
// @Summary List items with their materials
// @Tags items
// @Produce json
// @Security BearerAuth
// @Success 200 {array} ItemDto
// @Failure 401 {object} errors.ErrorResponse
// @Router /items [get]
func (h *ItemHandler) List(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}

	items, err := h.itemService.List(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toItemDtos(items))
}

// Get godoc
// @Summary Get an item
// @Tags items
// @Produce json
// @Security BearerAuth
// @Param id path int true "Item ID"
// @Success 200 {object} ItemDto
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /items/{id} [get]
func (h *ItemHandler) Get(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	item, err := h.itemService.Get(c.Request().Context(), userID, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toItemDto(item))
}

// Create godoc
// @Summary Create an item
// @Tags items
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateItemRequest true "Item"
// @Success 201 {object} ItemDto
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /items [post]
func (h *ItemHandler) Create(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req CreateItemRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	item, err := h.itemService.Create(c.Request().Context(), userID, service.CreateItemInput{
		Name:        req.Name,
		Description: req.Description,
		Notes:       req.Notes,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toItemDto(item))
}

// Update godoc
// @Summary Update an item
// @Tags items
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Item ID"
// @Param request body UpdateItemRequest true "Fields to change"
// @Success 200 {object} ItemDto
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /items/{id} [put]
func (h *ItemHandler) Update(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req UpdateItemRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	item, err := h.itemService.Update(c.Request().Context(), userID, id, service.ItemPatch{
		Name:        req.Name,
		Description: req.Description,
		Notes:       req.Notes,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toItemDto(item))
}

// Delete godoc
// @Summary Delete an item and its links
// @Tags items
// @Security BearerAuth
// @Param id path int true "Item ID"
// @Success 204
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /items/{id} [delete]
func (h *ItemHandler) Delete(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.itemService.Delete(c.Request().Context(), userID, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// LinkMaterial godoc
// @Summary Link a material to an item
// @Tags items
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Item ID"
// @Param request body LinkMaterialRequest true "Link"
// @Success 200 {object} ItemDto
// @Failure 400 {object} errors.ErrorResponse "validation error or material already linked"
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /items/{id}/materials [post]
func (h *ItemHandler) LinkMaterial(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req LinkMaterialRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	item, err := h.itemService.LinkMaterial(c.Request().Context(), userID, id, req.MaterialID, req.RequiredQuantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toItemDto(item))
}

// UnlinkMaterial godoc
// @Summary Remove a material from an item
// @Tags items
// @Security BearerAuth
// @Param id path int true "Item ID"
// @Param materialId path int true "Material ID"
// @Success 204
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /items/{id}/materials/{materialId} [delete]
func (h *ItemHandler) UnlinkMaterial(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	materialID, err := parseID(c, "materialId")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.itemService.UnlinkMaterial(c.Request().Context(), userID, id, materialID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
