package infra

// pdf.go — printable shopping lists using go-pdf/fpdf.
// A5 portrait, one row per item: checkbox, product, quantity, priority.

import (
	"bytes"
	"fmt"

	"pantrio/internal/dto"

	"github.com/go-pdf/fpdf"
)

// ShoppingListPDF renders a list (with its items) into PDF bytes.
func ShoppingListPDF(list *dto.ListResponse) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 24

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, list.Title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	subtitle := fmt.Sprintf("%d items  ·  %d%% done  ·  status: %s", list.TotalItems, list.CompletionPercentage, list.Status)
	pdf.CellFormat(contentW, 5, subtitle, "", 1, "L", false, 0, "")
	pdf.Ln(2)
	pdf.Line(12, pdf.GetY(), pageW-12, pdf.GetY())
	pdf.Ln(3)

	// ── Item rows ─────────────────────────────────────────────────────────────
	colCheck := 8.0
	colName := contentW * 0.50
	colQty := contentW * 0.22
	colPriority := contentW - colCheck - colName - colQty

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(colCheck, 6, "", "B", 0, "C", false, 0, "")
	pdf.CellFormat(colName, 6, "Product", "B", 0, "L", false, 0, "")
	pdf.CellFormat(colQty, 6, "Quantity", "B", 0, "R", false, 0, "")
	pdf.CellFormat(colPriority, 6, "Priority", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, it := range list.Items {
		// Checkbox square, filled state marked with an X.
		y := pdf.GetY()
		pdf.Rect(13, y+1.2, 3.5, 3.5, "D")
		if it.IsChecked {
			pdf.SetFont("Helvetica", "B", 8)
			pdf.Text(13.7, y+4.2, "X")
			pdf.SetFont("Helvetica", "", 9)
		}
		pdf.CellFormat(colCheck, 6, "", "", 0, "C", false, 0, "")

		name := it.ProductName
		if name == "" {
			name = it.ProductID
		}
		pdf.CellFormat(colName, 6, name, "", 0, "L", false, 0, "")

		qty := it.SuggestedQuantity.String()
		if it.ActualQuantity != nil {
			qty = it.ActualQuantity.String()
		}
		if it.Unit != "" {
			qty = qty + " " + it.Unit
		}
		pdf.CellFormat(colQty, 6, qty, "", 0, "R", false, 0, "")
		pdf.CellFormat(colPriority, 6, it.Priority, "", 1, "R", false, 0, "")
	}

	if list.Notes != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.MultiCell(contentW, 4, list.Notes, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render shopping list: %w", err)
	}
	return buf.Bytes(), nil
}
