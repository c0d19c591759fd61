package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/relief-inventory/internal/application/dto"
	"github.com/jhoicas/relief-inventory/internal/application/request"
	"github.com/jhoicas/relief-inventory/internal/domain/entity"
)

// RequestHandler flujo de solicitudes de albergues: alta, revisión y consulta.
type RequestHandler struct {
	uc *request.WorkflowUseCase
}

// NewRequestHandler construye el handler.
func NewRequestHandler(uc *request.WorkflowUseCase) *RequestHandler {
	return &RequestHandler{uc: uc}
}

// Submit godoc
// @Summary      Crear solicitud de insumos
// @Description  El personal de albergue solo puede solicitar para su propio albergue; si omite shelter_id se usa el del token.
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SubmitRequestRequest  true  "albergue, urgencia y líneas"
// @Success      201   {object}  dto.RequestResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/requests [post]
func (h *RequestHandler) Submit(c *fiber.Ctx) error {
	var in dto.SubmitRequestRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if !isAdmin(c) {
		if in.ShelterID == "" {
			in.ShelterID = GetShelterID(c)
		}
		if !canAccessShelter(c, in.ShelterID) {
			return forbidden(c, "solo puede solicitar para su albergue")
		}
	}
	out, err := h.uc.Submit(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Review godoc
// @Summary      Aprobar o rechazar solicitud
// @Description  La aprobación ejecuta todos los traslados en una sola transacción; si alguna línea falla
//
//	la solicitud sigue pendiente y la respuesta detalla cada línea.
//
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID de la solicitud"
// @Param        body  body  dto.ReviewRequestRequest  true  "approved | rejected y notas"
// @Success      200   {object}  dto.RequestResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/requests/{id} [patch]
func (h *RequestHandler) Review(c *fiber.Ctx) error {
	var in dto.ReviewRequestRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Review(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar solicitudes
// @Description  El personal de albergue solo ve las de su albergue.
// @Tags         requests
// @Security     Bearer
// @Produce      json
// @Param        status      query  string  false  "pending | approved | rejected"
// @Param        shelter_id  query  string  false  "albergue"
// @Param        urgency     query  string  false  "normal | medium | high"
// @Param        limit       query  int     false  "máx. 100"
// @Param        offset      query  int     false  "desplazamiento"
// @Success      200  {object}  dto.RequestListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/requests [get]
func (h *RequestHandler) List(c *fiber.Ctx) error {
	filter := entity.RequestFilter{
		Status:    c.Query("status"),
		ShelterID: c.Query("shelter_id"),
		Urgency:   c.Query("urgency"),
		Limit:     c.QueryInt("limit"),
		Offset:    c.QueryInt("offset"),
	}
	if !isAdmin(c) {
		filter.ShelterID = GetShelterID(c)
	}
	out, err := h.uc.List(c.UserContext(), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener solicitud
// @Tags         requests
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la solicitud"
// @Success      200  {object}  dto.RequestResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/requests/{id} [get]
func (h *RequestHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if !canAccessShelter(c, out.ShelterID) {
		return forbidden(c, "la solicitud pertenece a otro albergue")
	}
	return c.JSON(out)
}

// DispatchSlip godoc
// @Summary      Guía de despacho en PDF
// @Description  Disponible solo para solicitudes aprobadas.
// @Tags         requests
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la solicitud"
// @Success      200  {file}    binary
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/requests/{id}/slip [get]
func (h *RequestHandler) DispatchSlip(c *fiber.Ctx) error {
	req, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if !canAccessShelter(c, req.ShelterID) {
		return forbidden(c, "la solicitud pertenece a otro albergue")
	}
	pdfBytes, filename, err := h.uc.DispatchSlip(c.UserContext(), req.ID)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdfBytes)
}
