package payroll

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/jung-kurt/gofpdf"
)

type payslipLine struct {
	label  string
	amount float64
}

// RenderPayslip lays out a single-page A4 payslip for a stored record.
func RenderPayslip(record Record) ([]byte, error) {
	res := record.Result
	period := time.Date(record.Year, time.Month(record.Month), 1, 0, 0, 0, 0, time.UTC)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	employee := record.EmployeeName
	if record.EmployeeCode != "" {
		employee = fmt.Sprintf("%s (%s)", employee, record.EmployeeCode)
	}
	pdf.Cell(0, 7, fmt.Sprintf("Employee: %s", employee))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Period: %s", period.Format("January 2006")))
	pdf.Ln(6)
	if record.State != "" {
		pdf.Cell(0, 7, fmt.Sprintf("Work state: %s", record.State))
		pdf.Ln(6)
	}
	pdf.Cell(0, 7, fmt.Sprintf("Paid days: %g of %g", record.Attendance.PaidDays, record.Attendance.TotalWorkingDays))
	pdf.Ln(10)

	section(pdf, "Earnings", earningLines(record))
	section(pdf, "Deductions", []payslipLine{
		{"Provident fund", res.PFEmployee},
		{"ESI", res.ESIEmployee},
		{"Professional tax", res.ProfessionalTax},
		{"Labour welfare fund", res.LWFEmployee},
		{"Total deductions", res.TotalDeductions},
	})
	section(pdf, "Employer contributions", []payslipLine{
		{"Provident fund", res.PFEmployer},
		{"Pension (EPS)", res.EPSContribution},
		{"EDLI", res.EDLIContribution},
		{"PF admin charges", res.PFAdminCharges},
		{"ESI", res.ESIEmployer},
		{"Labour welfare fund", res.LWFEmployer},
	})

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(120, 8, "Net pay", "T", 0, "L", false, 0, "")
	pdf.CellFormat(50, 8, fmt.Sprintf("%.2f", res.NetPay), "T", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, title string, lines []payslipLine) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, title)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	for _, line := range lines {
		pdf.CellFormat(120, 6, line.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, fmt.Sprintf("%.2f", line.amount), "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)
}

// earningLines itemises the stored salary structure prorated by the record's
// factor, the same way gross is derived. Zero components are left out.
func earningLines(record Record) []payslipLine {
	factor := record.Result.ProrationFactor
	salary := record.Salary
	components := []payslipLine{
		{"Basic", salary.Basic},
		{"Dearness allowance", salary.DearnessAllowance},
		{"HRA", salary.HRA},
		{"Conveyance", salary.Conveyance},
		{"Medical", salary.Medical},
		{"Special allowance", salary.Special},
		{"Other allowances", salary.OtherAllowances},
		{"Overtime", record.Result.OvertimeAmount},
	}
	lines := make([]payslipLine, 0, len(components)+1)
	for _, c := range components {
		if c.amount == 0 {
			continue
		}
		lines = append(lines, payslipLine{c.label, math.Round(c.amount*factor*100) / 100})
	}
	return append(lines, payslipLine{"Gross earnings", record.Result.GrossEarnings})
}
