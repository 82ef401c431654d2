package reports

import (
	"context"
	"fmt"

	"bitbucket.org/mmdatafocus/condopal_backend/models"
	"bitbucket.org/mmdatafocus/condopal_backend/utils"
	"github.com/xuri/excelize/v2"
)

// ExportPaymentsExcel renders the landlord's filtered payment listing as a
// spreadsheet. The caller streams the file and sets response headers.
func ExportPaymentsExcel(ctx context.Context, ownerId string, filter models.CondoPaymentFilter) (*excelize.File, error) {
	rows, err := models.ListLandlordPayments(ctx, ownerId, filter)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	const sheet = "Sheet1"
	if _, err := f.NewSheet(sheet); err != nil {
		return nil, err
	}

	// Add headers
	f.SetCellValue(sheet, "A1", "PaymentId")
	f.SetCellValue(sheet, "B1", "Condo")
	f.SetCellValue(sheet, "C1", "Tenant")
	f.SetCellValue(sheet, "D1", "BillingMonth")
	f.SetCellValue(sheet, "E1", "Channel")
	f.SetCellValue(sheet, "F1", "RentCost")
	f.SetCellValue(sheet, "G1", "AdditionalCost")
	f.SetCellValue(sheet, "H1", "TotalPaid")
	f.SetCellValue(sheet, "I1", "Status")
	f.SetCellValue(sheet, "J1", "PaidAt")

	// Add data
	for i, p := range rows {
		row := i + 2
		condoName := ""
		if p.Condo != nil {
			condoName = p.Condo.Name
		}
		tenantName := ""
		if p.Tenant != nil {
			tenantName = p.Tenant.Name
		}
		status := string(p.VerificationStatus)
		if status == "" {
			if utils.DereferencePtr(p.IsPaid) {
				status = "PAID"
			} else {
				status = "UNPAID"
			}
		}

		f.SetCellValue(sheet, "A"+fmt.Sprint(row), p.ID)
		f.SetCellValue(sheet, "B"+fmt.Sprint(row), condoName)
		f.SetCellValue(sheet, "C"+fmt.Sprint(row), tenantName)
		f.SetCellValue(sheet, "D"+fmt.Sprint(row), p.BillingMonth)
		f.SetCellValue(sheet, "E"+fmt.Sprint(row), string(p.Channel))
		f.SetCellValue(sheet, "F"+fmt.Sprint(row), p.RentCost.String())
		f.SetCellValue(sheet, "G"+fmt.Sprint(row), p.AdditionalCost.String())
		f.SetCellValue(sheet, "H"+fmt.Sprint(row), p.TotalPaid.String())
		f.SetCellValue(sheet, "I"+fmt.Sprint(row), status)
		f.SetCellValue(sheet, "J"+fmt.Sprint(row), p.PaidAt.Format("2006-01-02 15:04:05"))
	}

	return f, nil
}
