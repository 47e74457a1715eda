package mapping

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/FACorreiaa/statement-mapper/internal/domain/import/sniffer"
)

var ErrDraftIncomplete = errors.New("could not identify required columns")

// Draft proposes a configuration for a new source from a sample delimited
// export: header names pick the date, description and amount columns, sample
// values decide the date and amount conventions, and every other column is
// carried as an optional text attribute. The draft is validated before it is
// returned.
func Draft(sourceID, displayName string, data []byte) (*Config, error) {
	layout, err := sniffer.Detect(data, sniffer.Auto())
	if err != nil {
		return nil, fmt.Errorf("failed to detect file layout: %w", err)
	}

	s := sniffer.SuggestColumns(layout.Headers)
	var missing []string
	if s.Date < 0 {
		missing = append(missing, TargetDate)
	}
	if s.Description < 0 {
		missing = append(missing, TargetDescription)
	}
	if s.Amount < 0 {
		missing = append(missing, TargetAmount)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s (headers: %s)", ErrDraftIncomplete,
			strings.Join(missing, ", "), strings.Join(layout.Headers, ", "))
	}

	dialect := sniffer.ProbeDialect(layout.SampleRows, s.Amount, s.Date)
	headers := layout.Headers

	cfg := &Config{
		SourceID:            NormalizeKey(sourceID),
		DisplayName:         displayName,
		Description:         "Drafted from " + strings.Join(headers, ", "),
		DateMapping:         dateField(headers[s.Date], dialect.DateFormat),
		DescriptionMapping:  descriptionField(headers[s.Description]),
		AmountMapping:       amountField(headers[s.Amount], dialect.AmountFormat),
		RequiredColumns:     []string{headers[s.Date], headers[s.Description], headers[s.Amount]},
		DefaultDateFormat:   dialect.DateFormat,
		DefaultAmountFormat: dialect.AmountFormat,
	}
	if cfg.DisplayName == "" {
		cfg.DisplayName = sourceID
	}

	targets := map[string]bool{TargetDate: true, TargetDescription: true, TargetAmount: true}
	for _, i := range s.Others {
		target := uniqueTarget(fieldName(headers[i]), targets)
		cfg.OptionalMappings = append(cfg.OptionalMappings, optionalField(headers[i], target, headers[i]))
	}
	for _, h := range headers {
		if h != "" {
			cfg.ExpectedColumns = append(cfg.ExpectedColumns, h)
		}
	}
	for _, row := range layout.SampleRows {
		example := make(map[string]string, len(headers))
		for i, h := range headers {
			if h != "" && i < len(row) {
				example[h] = row[i]
			}
		}
		cfg.ExampleData = append(cfg.ExampleData, example)
	}

	cfg.applyDefaults()
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// fieldName turns a header into a snake_case attribute name.
func fieldName(header string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(header) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	name := strings.TrimSuffix(b.String(), "_")
	if name == "" {
		return "field"
	}
	return name
}

func uniqueTarget(name string, taken map[string]bool) string {
	candidate := name
	for n := 2; taken[candidate]; n++ {
		candidate = fmt.Sprintf("%s_%d", name, n)
	}
	taken[candidate] = true
	return candidate
}
