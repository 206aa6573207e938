package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Sheet1"

// ledgerColumns is the fixed output column set. Order matters: the file is
// consumed by sellers who reconcile it against the marketplace's own
// reports, so headers stay in the marketplace's language.
var ledgerColumns = []string{
	"Артикул WB",
	"Артикул поставщика",
	"Кол-во продаж",
	"Продажи",
	"К перечислению за товар",
	"Кол-во доставок",
	"Стоимость логистики",
	"Штрафы",
	"Доплаты",
	"Кол-во возвратов",
	"Возвраты",
	"Хранение",
	"Реклама",
	"Подписка Джем",
	"Платная приемка",
	"Утилизация",
	"Списания за отзывы",
	"Прочие удержания",
	"Итого к оплате",
}

const (
	headerRowIndex = 4
	dataStartIndex = 5
)

// WorkbookMeta is the report's header block: who and for which period.
type WorkbookMeta struct {
	StoreName  string
	PeriodFrom time.Time
	PeriodTo   time.Time
}

func cellValues(row LedgerRow) []any {
	return []any{
		row.ProductID,
		row.VendorCode,
		row.SaleQty,
		row.RetailAmount.InexactFloat64(),
		row.ForPay.InexactFloat64(),
		row.DeliveryCount,
		row.DeliveryCost.InexactFloat64(),
		row.Penalty.InexactFloat64(),
		row.AdditionalPayment.InexactFloat64(),
		row.ReturnQty,
		row.ReturnAmount.InexactFloat64(),
		row.Storage.InexactFloat64(),
		row.Advert.InexactFloat64(),
		row.Subscription.InexactFloat64(),
		row.Acceptance.InexactFloat64(),
		row.Disposal.InexactFloat64(),
		row.ReviewDebit.InexactFloat64(),
		row.OtherDeductions.InexactFloat64(),
		row.Settlement.InexactFloat64(),
	}
}

// WriteWorkbook renders the ledger to path: two metadata lines, a bold
// header row, the data rows, and a totals row of live SUM formulas so the
// file stays honest when sellers edit it.
func WriteWorkbook(path string, meta WorkbookMeta, rows []LedgerRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetCellValue(sheetName, "A1", meta.StoreName); err != nil {
		return err
	}
	period := fmt.Sprintf("Период: %s-%s", meta.PeriodFrom.Format("02.01.2006"), meta.PeriodTo.Format("02.01.2006"))
	if err := f.SetCellValue(sheetName, "A2", period); err != nil {
		return err
	}

	widths := make([]int, len(ledgerColumns))
	for i, header := range ledgerColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, headerRowIndex)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return err
		}
		widths[i] = len([]rune(header))
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(ledgerColumns))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, fmt.Sprintf("A%d", headerRowIndex), fmt.Sprintf("%s%d", lastCol, headerRowIndex), headerStyle); err != nil {
		return err
	}

	for i, row := range rows {
		for j, value := range cellValues(row) {
			cell, err := excelize.CoordinatesToCellName(j+1, dataStartIndex+i)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return err
			}
			if width := len([]rune(fmt.Sprint(value))); width > widths[j] {
				widths[j] = width
			}
		}
	}

	totalsRow := dataStartIndex + len(rows)
	if err := f.SetCellValue(sheetName, fmt.Sprintf("A%d", totalsRow), "Итого"); err != nil {
		return err
	}
	if len(rows) > 0 {
		// Numeric columns get live sums over the data range.
		for col := 3; col <= len(ledgerColumns); col++ {
			name, err := excelize.ColumnNumberToName(col)
			if err != nil {
				return err
			}
			formula := fmt.Sprintf("SUM(%s%d:%s%d)", name, dataStartIndex, name, totalsRow-1)
			if err := f.SetCellFormula(sheetName, fmt.Sprintf("%s%d", name, totalsRow), formula); err != nil {
				return err
			}
		}
	}
	totalsStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "9C6500"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"FFEB9C"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, fmt.Sprintf("A%d", totalsRow), fmt.Sprintf("%s%d", lastCol, totalsRow), totalsStyle); err != nil {
		return err
	}

	for i, width := range widths {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheetName, name, name, float64(width)+2); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}
