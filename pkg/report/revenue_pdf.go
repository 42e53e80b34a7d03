package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/smarttransit/seat-reservation/internal/models"
)

// RevenueSummaryPDF renders the per-trip revenue totals as an A4 table
func RevenueSummaryPDF(totals []models.TripTotals, generatedAt time.Time) ([]byte, error) {
	pdf := newDocument("Revenue Summary", generatedAt)

	widths := []float64{20, 90, 35, 45}
	header(pdf, widths, "Trip", "Name", "Seats", "Revenue")

	pdf.SetFont("Helvetica", "", 10)
	var seats int
	var revenue float64
	for _, t := range totals {
		row(pdf, widths,
			fmt.Sprintf("%d", t.TripID),
			truncate(t.TripName, 48),
			fmt.Sprintf("%d", t.TotalSeatsBooked),
			FormatAmount(t.TotalRevenue),
		)
		seats += t.TotalSeatsBooked
		revenue += t.TotalRevenue
	}

	pdf.SetFont("Helvetica", "B", 10)
	row(pdf, widths, "", "Total", fmt.Sprintf("%d", seats), FormatAmount(revenue))

	return output(pdf)
}

// TripDatesPDF renders every booked date of one trip with its seats and bookings
func TripDatesPDF(trip *models.Trip, details []models.DateDetail, generatedAt time.Time) ([]byte, error) {
	pdf := newDocument(fmt.Sprintf("Trip %d: %s", trip.ID, trip.Name), generatedAt)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("%s to %s, departs %s, fare %s", trip.Source, trip.Destination, trip.Departure, FormatAmount(trip.Price)))
	pdf.Ln(10)

	if len(details) == 0 {
		pdf.SetFont("Helvetica", "I", 11)
		pdf.Cell(0, 6, "No bookings.")
		pdf.Ln(6)
		return output(pdf)
	}

	widths := []float64{30, 55, 55, 50}
	for _, d := range details {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 7, fmt.Sprintf("%s  (%d seats, %s)", d.Date, len(d.BookedSeats), FormatAmount(d.Revenue)))
		pdf.Ln(8)

		header(pdf, widths, "Seats", "Passenger", "Transaction", "Amount")
		pdf.SetFont("Helvetica", "", 10)
		for _, b := range d.Bookings {
			row(pdf, widths,
				strings.Join(b.Seats, " "),
				truncate(b.PassengerName, 28),
				truncate(b.TransactionID, 28),
				FormatAmount(b.Amount),
			)
		}
		pdf.Ln(4)
	}

	return output(pdf)
}

// FormatAmount renders money with two decimals and thousands separators
func FormatAmount(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac := s[:len(s)-3], s[len(s)-3:]
	var out []byte
	n := len(intPart)
	for i := 0; i < n; i++ {
		out = append(out, intPart[i])
		if pos := n - i - 1; pos > 0 && pos%3 == 0 {
			out = append(out, ',')
		}
	}

	if neg {
		return "-" + string(out) + frac
	}
	return string(out) + frac
}

func newDocument(title string, generatedAt time.Time) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, title)
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "I", 9)
	pdf.Cell(0, 5, "Generated "+generatedAt.UTC().Format("2006-01-02 15:04")+" UTC")
	pdf.Ln(10)
	return pdf
}

func header(pdf *gofpdf.Fpdf, widths []float64, cols ...string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, c := range cols {
		pdf.CellFormat(widths[i], 7, c, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

func row(pdf *gofpdf.Fpdf, widths []float64, cols ...string) {
	for i, c := range cols {
		align := "L"
		if i == len(cols)-1 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 6, c, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "."
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
