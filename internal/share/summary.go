// Package share formats allocation results for people: the copyable text
// summary and the exported report.
package share

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/mmynk/moneyshare/internal/calculator"
	"github.com/mmynk/moneyshare/internal/models"
)

// Currency is the symbol appended to every amount.
const Currency = "₫"

var printer = message.NewPrinter(language.Vietnamese)

// Money formats an amount with Vietnamese digit grouping, e.g. 120.000 ₫.
func Money(v float64) string {
	return printer.Sprint(number.Decimal(v, number.MaxFractionDigits(2))) + " " + Currency
}

// FormatSummary renders the text a user copies to share a result.
//
// NORMAL bills get one line per participant saying whether they receive,
// pay or are settled. FOOD bills get the per-unit price of each line.
func FormatSummary(bill models.Bill, res calculator.Result) string {
	var sb strings.Builder
	sb.WriteString("💸 Bill Split Result\n")
	fmt.Fprintf(&sb, "Mode: %s\n", bill.Mode.Label())
	fmt.Fprintf(&sb, "Total: %s\n", Money(bill.TotalAfterDiscount()))

	lines := make([]string, 0, len(res.Balances))
	for _, b := range res.Balances {
		lines = append(lines, balanceLine(res.Mode, b))
	}
	sb.WriteString(strings.Join(lines, "\n"))
	return sb.String()
}

func balanceLine(mode models.BillMode, b calculator.Balance) string {
	if mode == models.ModeFood {
		return fmt.Sprintf("%s: %s", b.Label, Money(b.Amount))
	}
	switch {
	case b.Amount > 0:
		return fmt.Sprintf("%s: Receive (+%s)", b.Label, Money(b.Amount))
	case b.Amount < 0:
		return fmt.Sprintf("%s: Pay (-%s)", b.Label, Money(math.Abs(b.Amount)))
	default:
		return fmt.Sprintf("%s: Nothing todo", b.Label)
	}
}
