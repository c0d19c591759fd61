// Package pdf genera la guía de despacho de una solicitud aprobada.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Bodega provincial      │  N° Solicitud + Fecha     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  DESTINO: Albergue / Urgencia / Revisado por                │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Unidad | Ítem | Motivo                       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR con el número + firmas de entrega y recepción   │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/relief-inventory/internal/application/request"
	"github.com/jhoicas/relief-inventory/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

var urgencyLabel = map[string]string{
	entity.UrgencyNormal: "Normal",
	entity.UrgencyMedium: "Media",
	entity.UrgencyHigh:   "Alta",
}

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa request.SlipPDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateDispatchSlip genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateDispatchSlip(_ context.Context, data request.SlipData) ([]byte, error) {
	if data.Request == nil {
		return nil, fmt.Errorf("pdf: solicitud vacía")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Guía de despacho "+data.Request.RequestNumber, true).
		WithAuthor(data.FromName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(data))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(destinationRow(data))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableDetailRows(data.Lines)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(data.Lines))

	m.AddRows(line.NewRow(3))
	m.AddRows(footerRow(data.Request))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(data request.SlipData) core.Row {
	req := data.Request
	fecha := req.CreatedAt.Format("02/01/2006")
	if req.ReviewedAt != nil {
		fecha = req.ReviewedAt.Format("02/01/2006 15:04")
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New(data.FromName, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Origen del despacho", props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("GUÍA DE DESPACHO", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(req.RequestNumber, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Aprobada: "+fecha, props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func destinationRow(data request.SlipData) core.Row {
	req := data.Request
	return row.New(14).Add(
		col.New(12).Add(
			text.New("DESTINO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(data.ShelterName, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("Urgencia: %s   |   Solicitado por: %s   |   Revisado por: %s",
				nonEmpty(urgencyLabel[req.Urgency], req.Urgency),
				nonEmpty(req.RequestedBy, "—"),
				nonEmpty(req.ReviewedBy, "—"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 2, align.Center),
		h("Unidad", 2, align.Left),
		h("Ítem", 4, align.Left),
		h("Motivo", 4, align.Left),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

func tableDetailRows(lines []request.SlipLine) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		result = append(result, row.New(7).Add(
			col.New(2).Add(text.New(
				formatThousands(l.Quantity),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(2).Add(text.New(
				l.Unit,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(4).Add(text.New(
				l.ItemName,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(4).Add(text.New(
				l.Reason,
				props.Text{Size: 7, Align: align.Left, Top: 1, Left: 1, Color: colorGray},
			)),
		))
	}
	return result
}

func totalsRow(lines []request.SlipLine) core.Row {
	var units int64
	for _, l := range lines {
		units += l.Quantity
	}
	return row.New(8).Add(
		col.New(6),
		col.New(6).Add(text.New(
			fmt.Sprintf("Líneas: %d   |   Unidades: %s", len(lines), formatThousands(units)),
			props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: colorPrimary, Top: 2, Right: 1},
		)),
	)
}

// footerRow: QR con número e id de la solicitud + espacio para firmas.
func footerRow(req *entity.Request) core.Row {
	return row.New(45).Add(
		col.New(4).Add(code.NewQr(req.RequestNumber+"|"+req.ID, props.Rect{
			Percent: 90,
			Center:  true,
		})),
		col.New(4).Add(
			text.New("Entrega (bodega)", props.Text{Size: 8, Top: 30, Align: align.Center, Color: colorGray}),
			text.New("______________________", props.Text{Size: 8, Top: 25, Align: align.Center}),
		),
		col.New(4).Add(
			text.New("Recepción (albergue)", props.Text{Size: 8, Top: 30, Align: align.Center, Color: colorGray}),
			text.New("______________________", props.Text{Size: 8, Top: 25, Align: align.Center}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatThousands inserta puntos de miles. Ej: 25000 → "25.000"
func formatThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := n < 0
	if neg {
		s = s[1:]
	}
	l := len(s)
	if l <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}
	buf := make([]byte, 0, l+l/3+1)
	if neg {
		buf = append(buf, '-')
	}
	for i, c := range []byte(s) {
		if i > 0 && (l-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}
