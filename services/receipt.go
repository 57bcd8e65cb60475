package services

import (
	"bytes"
	"fmt"
	"time"

	"hackathonwallah/models"

	"github.com/jung-kurt/gofpdf"
)

// ReceiptData is what a payment receipt shows.
type ReceiptData struct {
	Payment   *models.Payment
	Hackathon *models.Hackathon
	User      *models.User
	TeamName  string
}

// RenderReceipt writes a one-page PDF receipt for a settled payment.
func RenderReceipt(d ReceiptData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Payment receipt "+d.Payment.OrderID, false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 12, "HackathonWallah")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, "Payment receipt")
	pdf.Ln(14)

	rows := [][2]string{
		{"Order ID", d.Payment.OrderID},
		{"Payment ID", d.Payment.PaymentID},
		{"Hackathon", d.Hackathon.Title},
		{"Participant", d.User.Name},
		{"Email", d.User.Email},
		{"Team", d.TeamName},
		{"Amount", fmt.Sprintf("%s %s", d.Payment.Currency, d.Payment.Amount.StringFixed(2))},
		{"Method", d.Payment.PaymentMethod},
		{"Gateway", d.Payment.Gateway},
		{"Status", string(d.Payment.Status)},
		{"Paid on", d.Payment.UpdatedAt.In(istLocation()).Format("02 Jan 2006, 15:04 MST")},
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(45, 8, r[0], "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 8, tr(r[1]), "", 1, "", false, 0, "")
	}

	pdf.Ln(10)
	pdf.SetFont("Arial", "I", 9)
	pdf.MultiCell(0, 5, "This is a system generated receipt and does not require a signature.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("error generating receipt PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func istLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.FixedZone("IST", 5*60*60+30*60)
	}
	return loc
}
