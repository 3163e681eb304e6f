// Package export renders the current stock position as tabular report
// documents. It is a pure transformation of repository reads; layout and
// delivery are the caller's concern.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/lagiovanas/estoque/internal/estoque"
)

// Row is one report line: a catalog item joined with its figures from
// the current count.
type Row struct {
	Name          string
	Unit          string
	Leftover      float64
	FinalPosition float64
	LowStock      bool
	Counted       bool
}

// BuildRows joins the catalog with the current snapshot, one row per
// item, ordered by name under Brazilian Portuguese collation. Items the
// snapshot does not track come back with zero figures and Counted false.
func BuildRows(items []estoque.Item, current *estoque.Count, cfg estoque.Config) []Row {
	rows := make([]Row, 0, len(items))
	for _, item := range items {
		var detail estoque.CountDetail
		var counted bool
		if current != nil && current.Details != nil {
			detail, counted = current.Details[item.ID]
		}
		rows = append(rows, Row{
			Name:          item.Name,
			Unit:          item.Unit,
			Leftover:      detail.Leftover,
			FinalPosition: detail.FinalPosition,
			LowStock:      cfg.IsLowStock(detail.Leftover),
			Counted:       counted,
		})
	}

	collator := collate.New(language.BrazilianPortuguese, collate.Loose)
	sort.Slice(rows, func(i, j int) bool {
		return collator.CompareString(rows[i].Name, rows[j].Name) < 0
	})
	return rows
}

var header = []string{"Insumo", "Unidade", "Sobrou", "Posição Final", "Estoque Baixo"}

// WriteStockCSV serialises the report rows as CSV.
func WriteStockCSV(w io.Writer, rows []Row) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write([]string{
			row.Name,
			row.Unit,
			formatFloat(row.Leftover),
			formatFloat(row.FinalPosition),
			lowStockLabel(row.LowStock),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// StockSheet is the sheet name of the XLSX report.
const StockSheet = "Estoque"

// WriteStockXLSX renders the same table as an XLSX workbook.
func WriteStockXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", StockSheet); err != nil {
		return err
	}
	for i, title := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(StockSheet, cell, title); err != nil {
			return err
		}
	}
	for i, row := range rows {
		values := []any{row.Name, row.Unit, row.Leftover, row.FinalPosition, lowStockLabel(row.LowStock)}
		for j, value := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(StockSheet, cell, value); err != nil {
				return err
			}
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: write xlsx: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func lowStockLabel(low bool) string {
	if low {
		return "sim"
	}
	return "não"
}
