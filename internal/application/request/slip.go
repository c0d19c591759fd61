package request

import (
	"context"
	"fmt"

	"github.com/jhoicas/relief-inventory/internal/domain"
	"github.com/jhoicas/relief-inventory/internal/domain/entity"
)

// DispatchSlip genera la guía de despacho (PDF) de una solicitud aprobada.
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - domain.ErrNotFound         si la solicitud no existe.
//   - domain.ErrInvalidInput     si la solicitud no está aprobada.
func (uc *WorkflowUseCase) DispatchSlip(ctx context.Context, requestID string) (pdfBytes []byte, filename string, err error) {
	if uc.slips == nil {
		return nil, "", fmt.Errorf("guía de despacho: generador no configurado")
	}
	req, err := uc.mustGet(ctx, requestID)
	if err != nil {
		return nil, "", err
	}
	if req.Status != entity.RequestApproved {
		return nil, "", fmt.Errorf("%w: la solicitud %s está en estado %s", domain.ErrInvalidInput, req.RequestNumber, req.Status)
	}

	from, err := uc.locations.Resolve(ctx, uc.locations.Provincial())
	if err != nil {
		return nil, "", err
	}
	shelterName := req.ShelterID
	if to, err := uc.locations.Resolve(ctx, uc.locations.Shelter(req.ShelterID)); err == nil {
		shelterName = to.Name
	}

	lines := make([]SlipLine, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, SlipLine{
			ItemName: it.ItemName,
			Unit:     it.Unit,
			Quantity: it.RequestedQuantity,
			Reason:   it.Reason,
		})
	}

	pdfBytes, err = uc.slips.GenerateDispatchSlip(ctx, SlipData{
		Request:     req,
		FromName:    from.Name,
		ShelterName: shelterName,
		Lines:       lines,
	})
	if err != nil {
		return nil, "", fmt.Errorf("guía de despacho: generación fallida: %w", err)
	}
	return pdfBytes, fmt.Sprintf("despacho_%s.pdf", req.RequestNumber), nil
}
