package service

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"library-backend/internal/domains/loan/model"
)

// exportPageSize bounds how many loans one export pulls per query.
const exportPageSize = 500

// ExportLoans renders the filtered loan set as an xlsx workbook,
// paging through the repository so no single query loads everything.
func (s *LoanService) ExportLoans(ctx context.Context, req model.ListLoansRequest) ([]byte, error) {
	req.Page = 1
	req.PerPage = exportPageSize

	var loans []model.LoanDetail
	for {
		result, err := s.ListLoans(ctx, req)
		if err != nil {
			return nil, err
		}
		loans = append(loans, result.Loans...)
		if len(loans) >= result.Total || len(result.Loans) == 0 {
			break
		}
		req.Page++
	}

	f, err := buildLoansExcelFile(loans)
	if err != nil {
		return nil, fmt.Errorf("failed to build excel file: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize excel file: %w", err)
	}

	return buf.Bytes(), nil
}

func buildLoansExcelFile(loans []model.LoanDetail) (*excelize.File, error) {
	f := excelize.NewFile()

	sheetName := "Loans"
	f.SetSheetName("Sheet1", sheetName)

	headers := []string{
		"ID",
		"Borrower",
		"Email",
		"Book",
		"Quantity",
		"Unit Price",
		"Line Total",
		"Borrowed At",
		"Due At",
		"Returned At",
		"Status",
	}

	for colIdx, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(colIdx+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		f.SetCellStyle(sheetName, "A1", "K1", headerStyle)
	}

	for i, l := range loans {
		rowNum := i + 2
		cell := func(col int) string {
			name, _ := excelize.CoordinatesToCellName(col, rowNum)
			return name
		}

		f.SetCellValue(sheetName, cell(1), l.ID.String())
		f.SetCellValue(sheetName, cell(2), l.UserName)
		f.SetCellValue(sheetName, cell(3), l.UserEmail)
		f.SetCellValue(sheetName, cell(4), l.BookTitle)
		f.SetCellValue(sheetName, cell(5), l.Quantity)
		f.SetCellValue(sheetName, cell(6), l.BookPrice.InexactFloat64())
		f.SetCellValue(sheetName, cell(7), l.LineTotal.InexactFloat64())
		f.SetCellValue(sheetName, cell(8), l.BorrowedAt.Format("2006-01-02"))
		f.SetCellValue(sheetName, cell(9), l.DueAt.Format("2006-01-02"))
		if l.ReturnedAt != nil {
			f.SetCellValue(sheetName, cell(10), l.ReturnedAt.Format("2006-01-02 15:04:05"))
		} else {
			f.SetCellValue(sheetName, cell(10), "")
		}
		f.SetCellValue(sheetName, cell(11), string(l.Status))
	}

	if err := f.SetColWidth(sheetName, "A", "K", 18); err != nil {
		return nil, err
	}

	return f, nil
}
