package share

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/mmynk/moneyshare/internal/calculator"
	"github.com/mmynk/moneyshare/internal/models"
)

// Document is everything a report needs: the bill and its computed
// balances. Renderers never recompute anything.
type Document struct {
	Bill        models.Bill
	Result      calculator.Result
	Transfers   []calculator.Transfer
	GeneratedAt time.Time
}

// Renderer turns a Document into an exported report.
type Renderer interface {
	Render(w io.Writer, doc Document) error
	ContentType() string
}

// TextRenderer writes a plain-text report with aligned tables.
type TextRenderer struct {
	// Brand is printed above the title.
	Brand string
}

var _ Renderer = TextRenderer{}

func (TextRenderer) ContentType() string { return "text/plain; charset=utf-8" }

func (r TextRenderer) Render(w io.Writer, doc Document) error {
	ew := &errWriter{w: w}
	bill := doc.Bill
	title := bill.Name
	if title == "" {
		title = "Untitled Bill"
	}

	if r.Brand != "" {
		ew.printf("%s\n", r.Brand)
	}
	ew.printf("Báo cáo chi phí: %s\n", title)
	ew.printf("Thời gian tạo: %s\n", doc.GeneratedAt.Format("02/01/2006 15:04"))
	if bill.Address != "" {
		ew.printf("Địa chỉ: %s\n", bill.Address)
	}
	ew.printf("\n")

	if bill.Mode == models.ModeFood {
		r.renderFood(ew, doc)
	} else {
		r.renderNormal(ew, doc)
	}
	return ew.err
}

func (TextRenderer) renderFood(ew *errWriter, doc Document) {
	bill := doc.Bill
	ew.printf("Tổng ban đầu: %s\n", Money(bill.TotalAmount()))
	ew.printf("Giảm giá: %s\n", Money(bill.DiscountAmount))
	ew.printf("Phí ship: %s\n", Money(bill.ShipAmount))
	ew.printf("Tổng sau giảm: %s\n", Money(bill.TotalAfterDiscount()))
	if bill.HasActualTotal() {
		ew.printf("Thực trả: %s\n", Money(bill.ActualTotal))
	}

	ew.printf("\nChi tiết món ăn\n")
	tw := tabwriter.NewWriter(ew, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Tên món\tĐơn giá\tSố lượng\tThành tiền\t\n")
	for _, e := range bill.Expenses {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t\n", orDash(e.Name), Money(e.Amount), e.Units(), Money(e.LineTotal()))
	}
	tw.Flush()

	ew.printf("\nGiá mỗi phần sau giảm giá\n")
	tw = tabwriter.NewWriter(ew, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Tên món\tGiá mỗi phần\t\n")
	for _, b := range doc.Result.Balances {
		fmt.Fprintf(tw, "%s\t%s\t\n", orDash(b.Label), Money(b.Amount))
	}
	tw.Flush()
}

func (TextRenderer) renderNormal(ew *errWriter, doc Document) {
	bill := doc.Bill
	ew.printf("Tổng chi phí: %s\n", Money(bill.TotalAfterDiscount()))
	ew.printf("Trung bình mỗi người: %s\n", Money(bill.AverageAmount()))

	ew.printf("\nChi tiết chi phí\n")
	tw := tabwriter.NewWriter(ew, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Mô tả\tThời gian\tSố tiền\tNgười trả\t\n")
	for _, e := range bill.Expenses {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", orDash(e.Name), expenseDate(e.CreatedAt), Money(e.LineTotal()), orDash(e.PaidBy))
	}
	tw.Flush()

	ew.printf("\nSố dư từng người\n")
	tw = tabwriter.NewWriter(ew, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Tên\tSố dư\t\n")
	for _, b := range doc.Result.Balances {
		fmt.Fprintf(tw, "%s\t%s\t\n", b.Label, signedBalance(b.Amount))
	}
	tw.Flush()

	if len(doc.Transfers) > 0 {
		ew.printf("\nChuyển khoản đề xuất\n")
		for _, t := range doc.Transfers {
			ew.printf("%s → %s: %s\n", t.From, t.To, Money(t.Amount))
		}
	}
}

func signedBalance(v float64) string {
	switch {
	case v > 0:
		return "+" + Money(v) + " (Nhận)"
	case v < 0:
		return "-" + Money(math.Abs(v)) + " (Trả)"
	default:
		return Money(0)
	}
}

func expenseDate(createdAt string) string {
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return "-"
	}
	return t.Format("02/01/2006")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// errWriter remembers the first write error so rendering code can stay
// linear.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) Write(p []byte) (int, error) {
	if ew.err != nil {
		return 0, ew.err
	}
	n, err := ew.w.Write(p)
	ew.err = err
	return n, err
}

func (ew *errWriter) printf(format string, args ...any) {
	fmt.Fprintf(ew, format, args...)
}

// Filename suggests a download name for a rendered report.
func Filename(bill models.Bill, ext string) string {
	return "bill-" + strconv.FormatInt(bill.ID, 10) + "." + ext
}
