package order

import (
	"bytes"
	"context"
	"fmt"

	"github.com/phpdave11/gofpdf"

	"anime-shop/internal/core/result"
	"anime-shop/internal/domain"
	"anime-shop/internal/feature"
)

type GetOrderInvoice struct {
	ID string `uri:"id"`
}

func (h handlers) invoice(ctx context.Context, req GetOrderInvoice) result.Result[feature.File] {
	if _, ok := feature.CurrentUser(ctx); !ok {
		return result.Unauthorized[feature.File](feature.MsgUnauthorized)
	}
	o, err := h.visible(ctx, h.d.UoW.New(), req.ID)
	if err != nil {
		return feature.Fail[feature.File](ctx, h.d, "order invoice", err)
	}
	content, err := renderInvoice(o)
	if err != nil {
		return feature.Fail[feature.File](ctx, h.d, "order invoice", result.Wrap(result.CodeInternalError, "Failed to render invoice.", err))
	}
	return result.Success(feature.File{
		FileName:    "invoice_" + o.OrderCode + ".pdf",
		ContentType: "application/pdf",
		Content:     content,
	}, "")
}

// renderInvoice 核心字体只支持 Latin-1，文本先转码
func renderInvoice(o *domain.Order) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Invoice "+o.OrderCode, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "INVOICE")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	for _, line := range []string{
		"Order No : " + o.OrderCode,
		"Date     : " + o.CreatedAt.Format("2006-01-02 15:04"),
		"Payment  : " + string(o.PaymentMethod) + " (" + string(o.PaymentStatus) + ")",
		"Status   : " + string(o.OrderStatus),
	} {
		pdf.Cell(0, 6, line)
		pdf.Ln(6)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Ship to:")
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, tr(o.RecipientName+" - "+o.RecipientPhone))
	pdf.Ln(6)
	pdf.MultiCell(0, 6, tr(o.ShippingAddress), "", "", false)
	pdf.Ln(4)

	widths := []float64{95, 30, 20, 35}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(221, 235, 247)
	for i, title := range []string{"Product", "Unit price", "Qty", "Total"} {
		pdf.CellFormat(widths[i], 8, title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 10)
	for _, it := range o.Items {
		pdf.CellFormat(widths[0], 7, tr(it.ProductName), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, vnd(it.UnitPrice.StringFixed(0)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 7, fmt.Sprint(it.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[3], 7, vnd(it.LineTotal.StringFixed(0)), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	label := widths[0] + widths[1] + widths[2]
	for _, row := range [][2]string{
		{"Subtotal", vnd(o.Subtotal.StringFixed(0))},
		{"Discount", "-" + vnd(o.DiscountAmount.StringFixed(0))},
		{"Shipping (" + o.ShippingProvider + ")", vnd(o.ShippingFee.StringFixed(0))},
		{"Total", vnd(o.TotalAmount.StringFixed(0))},
	} {
		if row[0] == "Total" {
			pdf.SetFont("Helvetica", "B", 11)
		}
		pdf.CellFormat(label, 7, row[0], "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, row[1], "", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// vnd 千分位加点，例如 1250000 -> 1.250.000 VND
func vnd(digits string) string {
	neg := len(digits) > 0 && digits[0] == '-'
	if neg {
		digits = digits[1:]
	}
	var b bytes.Buffer
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	s := b.String() + " VND"
	if neg {
		return "-" + s
	}
	return s
}
