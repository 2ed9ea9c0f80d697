package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/contractdesk/contractdesk/backend/go-services/internal/contract"
	"github.com/xuri/excelize/v2"
)

const (
	ExportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	contractsSheet   = "Contracts"
	obligationsSheet = "Obligations"
	exportDate       = "2006-01-02"
)

var (
	contractHeaders = []interface{}{
		"Title", "Partner", "Department", "Requester", "Status", "Priority",
		"Category", "Value", "Start date", "End date", "Review deadline", "Created",
	}
	obligationHeaders = []interface{}{
		"Contract", "Type", "Description", "Due date", "Status", "Due", "Amount",
	}
)

func dateCell(t *time.Time) interface{} {
	if t == nil {
		return ""
	}
	return t.Format(exportDate)
}

func amountCell(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

// ExportContracts writes the filtered contracts and their obligations as an
// XLSX workbook with one sheet each.
func (s *Service) ExportContracts(ctx context.Context, f contract.ContractFilter, w io.Writer) error {
	contracts, err := s.ListContracts(ctx, f)
	if err != nil {
		return err
	}
	categories, err := s.allCategories(ctx)
	if err != nil {
		return err
	}
	obligations, err := s.allObligations(ctx)
	if err != nil {
		return err
	}
	catNames := make(map[string]string, len(categories))
	for _, c := range categories {
		catNames[c.ID] = c.Name
	}

	x := excelize.NewFile()
	defer x.Close()
	if err := x.SetSheetName("Sheet1", contractsSheet); err != nil {
		return err
	}
	if _, err := x.NewSheet(obligationsSheet); err != nil {
		return err
	}
	header, err := x.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	titles := make(map[string]string, len(contracts))
	rows := [][]interface{}{contractHeaders}
	for _, c := range contracts {
		titles[c.ID] = c.Title
		category := ""
		if c.CategoryID != nil {
			category = catNames[*c.CategoryID]
		}
		rows = append(rows, []interface{}{
			c.Title,
			c.Partner,
			contract.DepartmentLabel(c.Department),
			c.Requester,
			contract.StatusBadge(c.Status).Label,
			contract.PriorityBadge(c.Priority).Label,
			category,
			amountCell(c.Value),
			dateCell(c.StartDate),
			dateCell(c.EndDate),
			dateCell(c.ReviewDeadline),
			c.CreatedAt.Format(exportDate),
		})
	}
	if err := writeSheet(x, contractsSheet, rows, header); err != nil {
		return err
	}

	now := s.now()
	contract.SortObligationsByDue(obligations)
	rows = [][]interface{}{obligationHeaders}
	for _, o := range obligations {
		title, ok := titles[o.ContractID]
		if !ok {
			continue
		}
		due := ""
		if d := contract.ObligationDays(o, now); d != nil {
			due = contract.DueText(*d)
		}
		rows = append(rows, []interface{}{
			title,
			contract.ObligationTypeLabel(o.Type),
			o.Description,
			dateCell(o.DueDate),
			contract.ObligationStatusBadge(contract.EffectiveObligationStatus(o, now)).Label,
			due,
			amountCell(o.Amount),
		})
	}
	if err := writeSheet(x, obligationsSheet, rows, header); err != nil {
		return err
	}

	return x.Write(w)
}

func writeSheet(x *excelize.File, sheet string, rows [][]interface{}, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := row
		if err := x.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := x.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}
	return x.SetColWidth(sheet, "A", "C", 28)
}
