package payroll

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// RenderPayslip draws a one-page A4 payslip for rec.
func RenderPayslip(rec Record, emp Employee, company string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Payslip %s %d", MonthName(rec.Month), rec.Year), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, company+" Payslip")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s (%s)", emp.Name, emp.EmployeeID))
	pdf.Ln(7)
	if emp.Department != "" || emp.Position != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Department: %s  Position: %s", emp.Department, emp.Position))
		pdf.Ln(7)
	}
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s %d", MonthName(rec.Month), rec.Year))
	pdf.Ln(10)

	lines := []struct {
		label  string
		amount float64
	}{
		{"Base salary", rec.BaseSalary},
		{"Bonus", rec.Bonus},
		{"Deductions", -rec.Deductions},
	}
	for _, line := range lines {
		pdf.CellFormat(80, 8, line.label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 8, fmt.Sprintf("%.2f", line.amount), "1", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(80, 8, "Net pay", "1", 0, "L", false, 0, "")
	pdf.CellFormat(50, 8, fmt.Sprintf("%.2f", rec.NetPay), "1", 1, "R", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s  Generated: %s", rec.Status, rec.GeneratedAt.Format("2006-01-02")))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
