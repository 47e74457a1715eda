package fixtures

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-mapper/internal/domain/mapping"
	"github.com/FACorreiaa/statement-mapper/pkg/money"
)

var ErrNoPDFLayout = errors.New("source has no pdf layout")

// Statement renders transactions as the text a PDF extractor would return
// for a multi-page statement of cfg's layout: a preamble, the section marker
// with its header on every page, page footers, and a totals line followed by
// the next section. Reference slots take the transaction reference, and
// dates are written in the layout's validation date format.
func Statement(cfg *mapping.Config, txs []Transaction, perPage int) (string, error) {
	if !cfg.PDFEnabled() {
		return "", fmt.Errorf("%w: %s", ErrNoPDFLayout, cfg.SourceID)
	}
	if perPage <= 0 {
		perPage = len(txs)
	}
	p := cfg.PDFExtraction
	slots := cfg.Grammar()

	rows, err := Rows(cfg, txs)
	if err != nil {
		return "", err
	}
	dateFormat := p.ValidationRules.DateFormat
	if dateFormat == "" {
		dateFormat = "MM/DD"
	}

	pages := max(1, (len(txs)+perPage-1)/perPage)
	header := make([]string, len(slots))
	for i, s := range slots {
		header[i] = strings.ToUpper(s.Column)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s MERCHANT SERVICES\n", strings.ToUpper(cfg.DisplayName))
	b.WriteString("MERCHANT NUMBER 4445012345\n")
	b.WriteString("STATEMENT PERIOD 01/01 - 12/31\n\n")

	for page := 0; page < pages; page++ {
		if page == 0 {
			b.WriteString(p.SectionHeader + "\n")
		} else {
			b.WriteString(p.SectionHeader + " (CONTINUED)\n")
		}
		b.WriteString(spaced(header, page) + "\n")

		for i := page * perPage; i < min(len(txs), (page+1)*perPage); i++ {
			cells := make([]string, 0, len(slots))
			for _, s := range slots {
				var v string
				switch s.Kind {
				case mapping.SlotDate:
					if v, err = mapping.FormatDate(txs[i].Date, dateFormat); err != nil {
						return "", err
					}
				case mapping.SlotReference:
					v = txs[i].Reference
				default:
					v = rows[i][s.Column]
				}
				if v != "" {
					cells = append(cells, v)
				}
			}
			b.WriteString(spaced(cells, i) + "\n")
		}

		fmt.Fprintf(&b, "PAGE %d OF %d\n", page+1, pages)
		if page < pages-1 {
			b.WriteString("\n")
		}
	}

	conv, err := mapping.AmountConvention(cfg.AmountFormatFor(cfg.AmountMapping))
	if err != nil {
		return "", err
	}
	total := money.Sum(conv.Currency, amounts(txs)...)
	fmt.Fprintf(&b, "TOTAL %s\n\n", conv.Format(total.Decimal()))
	for _, stop := range p.StopHeaders {
		if stop != "TOTAL" {
			b.WriteString(stop + "\n")
			b.WriteString("NONE\n")
		}
	}
	return b.String(), nil
}

// spaced joins cells with uneven runs of spaces, the way layout text
// extraction renders column gaps.
func spaced(cells []string, seed int) string {
	var b strings.Builder
	for i, c := range cells {
		if i > 0 {
			b.WriteString(strings.Repeat(" ", 2+(seed+i)%4))
		}
		b.WriteString(c)
	}
	return b.String()
}

func amounts(txs []Transaction) []decimal.Decimal {
	out := make([]decimal.Decimal, len(txs))
	for i, tx := range txs {
		out[i] = tx.Amount
	}
	return out
}
