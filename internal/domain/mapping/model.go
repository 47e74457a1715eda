// Package mapping holds the declarative per-source mapping configurations:
// how a source's columns map onto canonical transaction fields, which date and
// amount conventions it uses, and how its PDF statements are laid out.
package mapping

import (
	"encoding/json"
	"strings"
)

// MappingType identifies the role of a field mapping.
type MappingType string

const (
	TypeDate        MappingType = "date"
	TypeDescription MappingType = "description"
	TypeAmount      MappingType = "amount"
	TypeOptional    MappingType = "optional"
)

// ValueType controls conversion of optional mappings. Text values are carried
// through unchanged.
type ValueType string

const (
	ValueText   ValueType = "text"
	ValueAmount ValueType = "amount"
	ValueDate   ValueType = "date"
)

// Canonical target fields of the three required mappings.
const (
	TargetDate        = "date"
	TargetDescription = "description"
	TargetAmount      = "amount"
)

// Defaults applied when a configuration omits them.
const (
	DefaultDateFormat   = "MM/DD/YYYY"
	DefaultAmountFormat = "USD"
	DefaultMinRows      = 1
	DefaultHeaderWindow = 25
	DefaultSimilarity   = 0.70
	DefaultBlankRun     = 3
)

// FieldMapping maps one source column onto a target field.
type FieldMapping struct {
	SourceColumn string      `json:"source_column"`
	TargetField  string      `json:"target_field"`
	MappingType  MappingType `json:"mapping_type"`
	Required     bool        `json:"required"`
	DateFormat   string      `json:"date_format,omitempty"`
	AmountFormat string      `json:"amount_format,omitempty"`
	ValueType    ValueType   `json:"value_type,omitempty"`
	Description  string      `json:"description,omitempty"`
}

// Kind resolves the conversion applied to an optional mapping's value. An
// explicit value_type wins; otherwise a format hint implies the type.
func (f FieldMapping) Kind() ValueType {
	switch {
	case f.ValueType != "":
		return f.ValueType
	case f.AmountFormat != "":
		return ValueAmount
	case f.DateFormat != "":
		return ValueDate
	default:
		return ValueText
	}
}

// SlotKind types a slot of a PDF row grammar.
type SlotKind string

const (
	SlotNumeric   SlotKind = "numeric"
	SlotDate      SlotKind = "date"
	SlotText      SlotKind = "text"
	SlotReference SlotKind = "reference"
)

// Slot is one typed position of a PDF row.
type Slot struct {
	Column   string   `json:"column"`
	Kind     SlotKind `json:"kind"`
	Optional bool     `json:"optional,omitempty"`
}

// ValidationRules are the table-level checks of a PDF extraction.
type ValidationRules struct {
	DateFormat string `json:"date_format,omitempty"`
	MinRows    *int   `json:"min_rows,omitempty"`
}

// PDFExtraction describes where a source's statement table lives inside
// extracted PDF text and what its rows look like.
type PDFExtraction struct {
	Enabled         bool            `json:"enabled"`
	SectionHeader   string          `json:"section_header"`
	ExpectedColumns []string        `json:"expected_columns"`
	DateColumn      string          `json:"date_column,omitempty"`
	ValidationRules ValidationRules `json:"validation_rules"`

	StopHeaders   []string `json:"stop_headers,omitempty"`
	NoisePatterns []string `json:"noise_patterns,omitempty"`
	RowGrammar    []Slot   `json:"row_grammar,omitempty"`
	HeaderWindow  int      `json:"header_window,omitempty"`
	MinSimilarity float64  `json:"min_similarity,omitempty"`
	BlankRun      int      `json:"blank_run,omitempty"`
}

// MinRows returns the configured minimum, DefaultMinRows when unset.
func (p *PDFExtraction) MinRows() int {
	if p.ValidationRules.MinRows == nil {
		return DefaultMinRows
	}
	return *p.ValidationRules.MinRows
}

// Window returns the header search window in lines.
func (p *PDFExtraction) Window() int {
	if p.HeaderWindow <= 0 {
		return DefaultHeaderWindow
	}
	return p.HeaderWindow
}

// Threshold returns the minimum header similarity in [0,1].
func (p *PDFExtraction) Threshold() float64 {
	if p.MinSimilarity <= 0 {
		return DefaultSimilarity
	}
	return p.MinSimilarity
}

// BlankLines is the run of blank lines that ends a table.
func (p *PDFExtraction) BlankLines() int {
	if p.BlankRun <= 0 {
		return DefaultBlankRun
	}
	return p.BlankRun
}

// Config is one source's mapping configuration. Once loaded it is shared
// read-only between extractions; use Clone before modifying.
type Config struct {
	SourceID    string `json:"source_id"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`

	DateMapping        FieldMapping   `json:"date_mapping"`
	DescriptionMapping FieldMapping   `json:"description_mapping"`
	AmountMapping      FieldMapping   `json:"amount_mapping"`
	OptionalMappings   []FieldMapping `json:"optional_mappings"`

	ExpectedColumns []string `json:"expected_columns"`
	RequiredColumns []string `json:"required_columns"`

	DefaultDateFormat   string `json:"default_date_format"`
	DefaultAmountFormat string `json:"default_amount_format"`

	ExampleData []map[string]string `json:"example_data,omitempty"`

	PDFExtraction *PDFExtraction `json:"pdf_extraction,omitempty"`
}

// Key is the lookup key of a configuration.
func (c *Config) Key() string {
	return NormalizeKey(c.SourceID)
}

// NormalizeKey folds a source id for case-insensitive lookups.
func NormalizeKey(sourceID string) string {
	return strings.ToLower(strings.TrimSpace(sourceID))
}

// Mappings returns the required mappings followed by the optional ones.
func (c *Config) Mappings() []FieldMapping {
	all := make([]FieldMapping, 0, 3+len(c.OptionalMappings))
	all = append(all, c.DateMapping, c.DescriptionMapping, c.AmountMapping)
	return append(all, c.OptionalMappings...)
}

// DateFormatFor returns the mapping's own date format, else the default.
func (c *Config) DateFormatFor(f FieldMapping) string {
	if f.DateFormat != "" {
		return f.DateFormat
	}
	return c.DefaultDateFormat
}

// AmountFormatFor returns the mapping's own amount format, else the default.
func (c *Config) AmountFormatFor(f FieldMapping) string {
	if f.AmountFormat != "" {
		return f.AmountFormat
	}
	return c.DefaultAmountFormat
}

// PDFEnabled reports whether the source has a usable PDF extension.
func (c *Config) PDFEnabled() bool {
	return c.PDFExtraction != nil && c.PDFExtraction.Enabled
}

// Grammar returns the PDF row grammar. Without an explicit grammar one slot
// per expected column is derived: the date column is a date, columns mapped
// as amounts are numeric, the rest are text and the last slot is optional.
func (c *Config) Grammar() []Slot {
	p := c.PDFExtraction
	if p == nil {
		return nil
	}
	if len(p.RowGrammar) > 0 {
		out := make([]Slot, len(p.RowGrammar))
		copy(out, p.RowGrammar)
		return out
	}

	numeric := map[string]bool{c.AmountMapping.SourceColumn: true}
	for _, m := range c.OptionalMappings {
		if m.Kind() == ValueAmount {
			numeric[m.SourceColumn] = true
		}
	}

	slots := make([]Slot, 0, len(p.ExpectedColumns))
	for _, col := range p.ExpectedColumns {
		kind := SlotText
		switch {
		case strings.EqualFold(col, p.DateColumn):
			kind = SlotDate
		case numeric[col]:
			kind = SlotNumeric
		}
		slots = append(slots, Slot{Column: col, Kind: kind})
	}
	if n := len(slots); n > 1 && slots[n-1].Kind == SlotText {
		slots[n-1].Optional = true
	}
	return slots
}

// applyDefaults fills format defaults the way stored files expect them.
func (c *Config) applyDefaults() {
	if c.DefaultDateFormat == "" {
		c.DefaultDateFormat = DefaultDateFormat
	}
	if c.DefaultAmountFormat == "" {
		c.DefaultAmountFormat = DefaultAmountFormat
	}
	if c.Icon == "" {
		c.Icon = "file"
	}
	if c.OptionalMappings == nil {
		c.OptionalMappings = []FieldMapping{}
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	data, err := json.Marshal(c)
	if err != nil {
		panic(err)
	}
	out := &Config{}
	if err := json.Unmarshal(data, out); err != nil {
		panic(err)
	}
	return out
}

// Decode parses a JSON configuration and applies defaults. It does not validate.
func Decode(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Encode renders a configuration as indented JSON.
func Encode(cfg *Config) ([]byte, error) {
	return json.MarshalIndent(cfg, "", "  ")
}
