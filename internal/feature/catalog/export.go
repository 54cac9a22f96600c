package catalog

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm/clause"

	"anime-shop/internal/core/result"
	"anime-shop/internal/domain"
	"anime-shop/internal/feature"
	"anime-shop/internal/repo"
)

const (
	exportSheet   = "Products"
	exportMaxRows = 10000
	xlsxMIME      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportProducts 复用列表筛选条件，不分页
type ExportProducts struct {
	ProductFilter
}

var exportHeaders = []string{"ID", "Name", "Slug", "Category", "Price", "Stock", "Sold", "Weight (g)", "Status", "Created At"}

type exportHandlers struct{ d *feature.Deps }

func (h exportHandlers) export(ctx context.Context, req ExportProducts) result.Result[feature.File] {
	if _, ok := feature.CurrentUser(ctx); !ok {
		return result.Unauthorized[feature.File](feature.MsgUnauthorized)
	}
	order := productSort.Resolve(req.SortBy, req.SortDirection)
	q := req.where()(repo.Of[domain.Product](h.d.UoW.New()).Query(ctx).Preload("Category"))
	q = q.Order(clause.OrderByColumn{Column: repo.Col(order.Column), Desc: order.Desc}).Limit(exportMaxRows)
	var products []domain.Product
	if err := q.Find(&products).Error; err != nil {
		return feature.Fail[feature.File](ctx, h.d, "export products", result.Wrap(result.CodeDatabaseError, "Failed to load products.", err))
	}

	content, err := buildProductSheet(products)
	if err != nil {
		return feature.Fail[feature.File](ctx, h.d, "export products", result.Wrap(result.CodeInternalError, "Failed to build spreadsheet.", err))
	}
	return result.Success(feature.File{
		FileName:    fmt.Sprintf("products_%s.xlsx", h.d.Now().Format("20060102_150405")),
		ContentType: xlsxMIME,
		Content:     content,
	}, "")
}

func buildProductSheet(products []domain.Product) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}
	for i, title := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheet, cell, title)
	}
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}
	last, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	f.SetCellStyle(exportSheet, "A1", last, style)

	for i, p := range products {
		row := i + 2
		category := ""
		if p.Category != nil {
			category = p.Category.Name
		}
		values := []any{
			p.ID, p.Name, p.Slug, category, p.Price.InexactFloat64(),
			p.StockQuantity, p.SoldCount, p.WeightGrams, string(p.Status),
			p.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(exportSheet, cell, v)
		}
	}
	f.SetColWidth(exportSheet, "A", "A", 38)
	f.SetColWidth(exportSheet, "B", "C", 32)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
