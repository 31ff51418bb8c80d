package dispatch

import (
	"bytes"
	"fmt"
	"time"

	"mediloon/models"

	"github.com/phpdave11/gofpdf"
)

// PurchaseOrderPDF renders a supplier purchase order document for a
// dispatched request.
func PurchaseOrderPDF(req models.PurchaseRequest) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Purchase Order")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 10, fmt.Sprintf("PO Number: PO-%s", req.IntentID))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Supplier: %s", req.SupplierRef))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("SKU: %s", req.SKU))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Quantity: %d units", req.Quantity))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Date: %s", time.Now().Format("2006-01-02")))
	pdf.Ln(12)

	pdf.SetFont("Arial", "I", 10)
	pdf.Cell(0, 10, "Standard payment terms apply. Reply to this order referencing the PO number.")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
