package ordering

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"mediloon/globals"
	"mediloon/models"
	"mediloon/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
	"go.mongodb.org/mongo-driver/bson"
)

// pickupPayload builds the signed string the pharmacy counter scans:
// orderId|pickupCode|timestamp|signature.
func pickupPayload(orderID, pickupCode string, secret []byte) string {
	data := fmt.Sprintf("%s|%s|%d", orderID, pickupCode, time.Now().Unix())
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(data))
	sig := base64.StdEncoding.EncodeToString(h.Sum(nil))
	return fmt.Sprintf("%s|%s", data, sig)
}

// Receipt renders a PDF pickup receipt with an embedded QR code for a
// committed order.
func (a *API) Receipt(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	customerID, _ := r.Context().Value(globals.UserIDKey).(string)
	orderID := ps.ByName("orderid")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var order models.CommittedOrder
	err := a.store.Orders.FindOne(ctx, bson.M{"orderid": orderID}).Decode(&order)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Order not found")
		return
	}
	if order.CustomerID != customerID {
		utils.RespondWithError(w, http.StatusForbidden, "Not your order")
		return
	}

	qrPNG, err := qrcode.Encode(pickupPayload(order.OrderID, order.PickupCode, globals.JwtSecret), qrcode.Medium, 256)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate QR code")
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Pharmacy Pickup Receipt")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 10, fmt.Sprintf("Order ID: %s", order.OrderID))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Date: %s", order.CreatedAt.Format("2006-01-02")))
	pdf.Ln(10)

	for _, item := range order.Items {
		pdf.Cell(0, 8, fmt.Sprintf("- %s %s x %d", item.Name, item.Strength, item.Quantity))
		pdf.Ln(7)
	}
	pdf.Ln(5)
	pdf.SetFont("Arial", "I", 10)
	pdf.Cell(0, 10, "Show the code below at the counter to collect your order.")

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 40, 40, 40, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=receipt-"+order.OrderID+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
