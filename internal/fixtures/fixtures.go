// Package fixtures generates synthetic statements in a source's own
// conventions, for tests and for load runs of the extraction pipeline.
package fixtures

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-mapper/internal/domain/mapping"
)

// Transaction is one generated movement. Amount is signed, debits negative.
type Transaction struct {
	Date        civil.Date
	Description string
	Amount      decimal.Decimal
	Fee         decimal.Decimal
	Reference   string
	Status      string
}

// Generator produces reproducible data for a seed.
type Generator struct {
	faker *gofakeit.Faker
	Year  int
}

// New returns a generator. Seed 0 picks a random seed.
func New(seed int64) *Generator {
	return &Generator{faker: gofakeit.New(seed), Year: 2024}
}

var merchants = []string{
	"AMAZON MKTPLACE", "WALMART SUPERCENTER", "COSTCO WHSE", "STARBUCKS",
	"SHELL OIL", "VERIZON WIRELESS", "WHOLE FOODS MKT", "HOME DEPOT",
	"UBER TRIP", "NETFLIX.COM", "CVS PHARMACY", "DELTA AIR LINES",
}

var purchases = []string{
	"MEAT PRODUCTS", "DAIRY PRODUCTS", "PRODUCE DELIVERY", "PAPER GOODS",
	"DRY GOODS", "FROZEN SEAFOOD", "CLEANING SUPPLIES", "BEVERAGES",
}

var statuses = []string{"Posted", "Posted", "Posted", "Pending"}

// Description returns a merchant or supplier line item.
func (g *Generator) Description() string {
	if g.faker.Bool() {
		return merchants[g.faker.Number(0, len(merchants)-1)]
	}
	return fmt.Sprintf("%s %s", purchases[g.faker.Number(0, len(purchases)-1)], strings.ToUpper(g.faker.LastName()))
}

// Amount returns a positive amount between minCents and maxCents.
func (g *Generator) Amount(minCents, maxCents int) decimal.Decimal {
	if minCents > maxCents {
		minCents, maxCents = maxCents, minCents
	}
	return decimal.New(int64(g.faker.Number(minCents, maxCents)), -2)
}

// Transaction returns one transaction dated within the generator's year.
func (g *Generator) Transaction() Transaction {
	start := time.Date(g.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(g.Year, time.December, 31, 0, 0, 0, 0, time.UTC)

	amount := g.Amount(100, 250000)
	if g.faker.Number(1, 10) <= 7 {
		amount = amount.Neg()
	}
	fee := decimal.Zero
	if g.faker.Number(1, 5) == 1 {
		fee = g.Amount(100, 5000).Neg()
	}

	return Transaction{
		Date:        civil.DateOf(g.faker.DateRange(start, end)),
		Description: g.Description(),
		Amount:      amount,
		Fee:         fee,
		Reference:   fmt.Sprintf("B%04d", g.faker.Number(1000, 9999)),
		Status:      statuses[g.faker.Number(0, len(statuses)-1)],
	}
}

// Transactions returns n transactions in date order.
func (g *Generator) Transactions(n int) []Transaction {
	txs := make([]Transaction, n)
	for i := range txs {
		txs[i] = g.Transaction()
	}
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.Before(txs[j].Date)
	})
	return txs
}

// Rows renders transactions as cfg's source would write them, keyed by
// source column.
func Rows(cfg *mapping.Config, txs []Transaction) ([]map[string]string, error) {
	r, err := newRenderer(cfg)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]string, len(txs))
	for i, tx := range txs {
		if out[i], err = r.row(tx); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// CSV renders transactions as a delimited export with cfg's columns as header.
func CSV(cfg *mapping.Config, txs []Transaction) ([]byte, error) {
	rows, err := Rows(cfg, txs)
	if err != nil {
		return nil, err
	}
	columns := cfg.Columns()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := make([]string, len(columns))
		for i, c := range columns {
			record[i] = row[c]
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

type renderer struct {
	cfg *mapping.Config
}

func newRenderer(cfg *mapping.Config) (*renderer, error) {
	if err := mapping.Validate(cfg); err != nil {
		return nil, err
	}
	return &renderer{cfg: cfg}, nil
}

func (r *renderer) row(tx Transaction) (map[string]string, error) {
	cfg := r.cfg
	row := map[string]string{}

	date, err := mapping.FormatDate(tx.Date, cfg.DateFormatFor(cfg.DateMapping))
	if err != nil {
		return nil, err
	}
	row[cfg.DateMapping.SourceColumn] = date
	row[cfg.DescriptionMapping.SourceColumn] = tx.Description

	conv, err := mapping.AmountConvention(cfg.AmountFormatFor(cfg.AmountMapping))
	if err != nil {
		return nil, err
	}
	row[cfg.AmountMapping.SourceColumn] = conv.Format(tx.Amount)

	// The first extra amount column is the gross before fees, later ones
	// carry the fee, so gross + fee = amount.
	amounts := 0
	for _, f := range cfg.OptionalMappings {
		switch f.Kind() {
		case mapping.ValueAmount:
			c, err := mapping.AmountConvention(cfg.AmountFormatFor(f))
			if err != nil {
				return nil, err
			}
			v := tx.Fee
			if amounts == 0 {
				v = tx.Amount.Sub(tx.Fee)
			}
			amounts++
			row[f.SourceColumn] = c.Format(v)
		case mapping.ValueDate:
			d, err := mapping.FormatDate(tx.Date, cfg.DateFormatFor(f))
			if err != nil {
				return nil, err
			}
			row[f.SourceColumn] = d
		default:
			row[f.SourceColumn] = tx.Status
		}
	}
	return row, nil
}
