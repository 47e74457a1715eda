package mapping

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrConfigNotFound = errors.New("mapping configuration not found")
	ErrConfigInvalid  = errors.New("mapping configuration invalid")
)

// InvalidError lists every reason a configuration was rejected.
type InvalidError struct {
	SourceID string
	Reasons  []string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("mapping configuration %q invalid: %s", e.SourceID, strings.Join(e.Reasons, "; "))
}

func (e *InvalidError) Is(target error) bool { return target == ErrConfigInvalid }

var sourceIDRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_\-]*$`)

var canonicalTargets = map[string]bool{
	TargetDate:        true,
	TargetDescription: true,
	TargetAmount:      true,
}

// Validate checks a configuration and returns an *InvalidError carrying all
// reasons, or nil.
func Validate(cfg *Config) error {
	if cfg == nil {
		return &InvalidError{Reasons: []string{"configuration is nil"}}
	}

	v := &validator{cfg: cfg}
	v.identity()
	v.required("date_mapping", cfg.DateMapping, TargetDate, TypeDate)
	v.required("description_mapping", cfg.DescriptionMapping, TargetDescription, TypeDescription)
	v.required("amount_mapping", cfg.AmountMapping, TargetAmount, TypeAmount)
	v.optional()
	v.columns()
	v.formats()
	v.pdf()

	if len(v.reasons) == 0 {
		return nil
	}
	return &InvalidError{SourceID: cfg.SourceID, Reasons: v.reasons}
}

type validator struct {
	cfg     *Config
	reasons []string
}

func (v *validator) addf(format string, args ...any) {
	v.reasons = append(v.reasons, fmt.Sprintf(format, args...))
}

func (v *validator) identity() {
	if v.cfg.SourceID == "" {
		v.addf("source_id is required")
	} else if !sourceIDRe.MatchString(v.cfg.Key()) {
		v.addf("source_id %q may only contain letters, digits, '-' and '_'", v.cfg.SourceID)
	}
	if strings.TrimSpace(v.cfg.DisplayName) == "" {
		v.addf("display_name is required")
	}
}

func (v *validator) required(name string, f FieldMapping, target string, typ MappingType) {
	if strings.TrimSpace(f.SourceColumn) == "" {
		v.addf("%s: source_column is required", name)
	}
	if f.TargetField != target {
		v.addf("%s: target_field must be %q, got %q", name, target, f.TargetField)
	}
	if f.MappingType != typ {
		v.addf("%s: mapping_type must be %q, got %q", name, typ, f.MappingType)
	}
	if !f.Required {
		v.addf("%s: must be required", name)
	}
}

func (v *validator) optional() {
	targets := map[string]bool{}
	for i, f := range v.cfg.OptionalMappings {
		name := fmt.Sprintf("optional_mappings[%d]", i)
		if strings.TrimSpace(f.SourceColumn) == "" {
			v.addf("%s: source_column is required", name)
		}
		if f.MappingType != TypeOptional {
			v.addf("%s: mapping_type must be %q, got %q", name, TypeOptional, f.MappingType)
		}
		switch {
		case f.TargetField == "":
			v.addf("%s: target_field is required", name)
		case canonicalTargets[f.TargetField]:
			v.addf("%s: target_field %q is reserved for required mappings", name, f.TargetField)
		case targets[f.TargetField]:
			v.addf("%s: duplicate target_field %q", name, f.TargetField)
		}
		targets[f.TargetField] = true

		switch f.ValueType {
		case "", ValueText, ValueAmount, ValueDate:
		default:
			v.addf("%s: unknown value_type %q", name, f.ValueType)
		}
	}
}

func (v *validator) columns() {
	seen := map[string]bool{}
	for _, f := range v.cfg.Mappings() {
		if f.SourceColumn == "" {
			continue
		}
		if seen[f.SourceColumn] {
			v.addf("source_column %q is mapped more than once", f.SourceColumn)
		}
		seen[f.SourceColumn] = true
	}

	expected := toSet(v.cfg.ExpectedColumns)
	for _, col := range v.cfg.RequiredColumns {
		if !expected[col] {
			v.addf("required column %q is not in expected_columns", col)
		}
	}
	if len(expected) == 0 {
		return
	}
	for _, f := range v.cfg.Mappings() {
		if f.SourceColumn != "" && !expected[f.SourceColumn] {
			v.addf("mapped column %q is not in expected_columns", f.SourceColumn)
		}
	}
}

func (v *validator) formats() {
	if !IsDateFormat(v.cfg.DefaultDateFormat) {
		v.addf("default_date_format %q is not a recognized date format", v.cfg.DefaultDateFormat)
	}
	if !IsAmountFormat(v.cfg.DefaultAmountFormat) {
		v.addf("default_amount_format %q is not a recognized amount format", v.cfg.DefaultAmountFormat)
	}
	for _, f := range v.cfg.Mappings() {
		if f.DateFormat != "" && !IsDateFormat(f.DateFormat) {
			v.addf("%s: date_format %q is not a recognized date format", f.SourceColumn, f.DateFormat)
		}
		if f.AmountFormat != "" && !IsAmountFormat(f.AmountFormat) {
			v.addf("%s: amount_format %q is not a recognized amount format", f.SourceColumn, f.AmountFormat)
		}
	}
}

func (v *validator) pdf() {
	p := v.cfg.PDFExtraction
	if p == nil || !p.Enabled {
		return
	}
	if strings.TrimSpace(p.SectionHeader) == "" {
		v.addf("pdf_extraction: section_header is required")
	}
	if len(p.ExpectedColumns) == 0 {
		v.addf("pdf_extraction: expected_columns is required")
	}
	cols := toSet(p.ExpectedColumns)
	if p.DateColumn != "" && !cols[p.DateColumn] {
		v.addf("pdf_extraction: date_column %q is not in expected_columns", p.DateColumn)
	}
	for _, f := range []FieldMapping{v.cfg.DateMapping, v.cfg.DescriptionMapping, v.cfg.AmountMapping} {
		if f.SourceColumn != "" && len(cols) > 0 && !cols[f.SourceColumn] {
			v.addf("pdf_extraction: mapped column %q is not in expected_columns", f.SourceColumn)
		}
	}
	if df := p.ValidationRules.DateFormat; df != "" {
		if _, err := ParseDateFormat(df); err != nil {
			v.addf("pdf_extraction: validation_rules.date_format %q is not a recognized date format", df)
		}
	}
	if p.MinRows() < 0 {
		v.addf("pdf_extraction: validation_rules.min_rows must not be negative")
	}
	if p.HeaderWindow < 0 {
		v.addf("pdf_extraction: header_window must not be negative")
	}
	if p.MinSimilarity < 0 || p.MinSimilarity > 1 {
		v.addf("pdf_extraction: min_similarity must be within [0, 1]")
	}

	slotCols := map[string]bool{}
	for i, s := range p.RowGrammar {
		switch s.Kind {
		case SlotNumeric, SlotDate, SlotText, SlotReference:
		default:
			v.addf("pdf_extraction: row_grammar[%d] has unknown kind %q", i, s.Kind)
		}
		if !cols[s.Column] {
			v.addf("pdf_extraction: row_grammar[%d] column %q is not in expected_columns", i, s.Column)
		}
		if slotCols[s.Column] {
			v.addf("pdf_extraction: row_grammar column %q appears more than once", s.Column)
		}
		slotCols[s.Column] = true
	}
	if len(p.RowGrammar) > 0 && len(p.RowGrammar) != len(p.ExpectedColumns) {
		v.addf("pdf_extraction: row_grammar must declare one slot per expected column")
	}
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
