package mapping

// Built-in source configurations. Files in the configuration store with the
// same source id replace them.

const monetaryBatchesSection = "SUMMARY OF MONETARY BATCHES"

func dateField(column, format string) FieldMapping {
	return FieldMapping{
		SourceColumn: column,
		TargetField:  TargetDate,
		MappingType:  TypeDate,
		Required:     true,
		DateFormat:   format,
		Description:  "Transaction date",
	}
}

func descriptionField(column string) FieldMapping {
	return FieldMapping{
		SourceColumn: column,
		TargetField:  TargetDescription,
		MappingType:  TypeDescription,
		Required:     true,
		Description:  "Transaction description",
	}
}

func amountField(column, format string) FieldMapping {
	return FieldMapping{
		SourceColumn: column,
		TargetField:  TargetAmount,
		MappingType:  TypeAmount,
		Required:     true,
		AmountFormat: format,
		Description:  "Transaction amount",
	}
}

func optionalField(column, target, description string) FieldMapping {
	return FieldMapping{
		SourceColumn: column,
		TargetField:  target,
		MappingType:  TypeOptional,
		Description:  description,
	}
}

func intPtr(n int) *int { return &n }

func merchantBatchConfig(id, name string) *Config {
	gross := optionalField("Gross", "gross", "Gross batch amount")
	gross.ValueType = ValueAmount
	rc := optionalField("R&C", "returns_chargebacks", "Returns and chargebacks")
	rc.ValueType = ValueAmount

	return &Config{
		SourceID:            id,
		DisplayName:         name,
		Description:         name + " merchant statement processing and management",
		Icon:                "credit-card",
		DateMapping:         dateField("Date", "YYYY-MM-DD"),
		DescriptionMapping:  descriptionField("Ref"),
		AmountMapping:       amountField("Net", "USD_TRAILING"),
		OptionalMappings:    []FieldMapping{gross, rc},
		ExpectedColumns:     []string{"Gross", "R&C", "Net", "Date", "Ref"},
		RequiredColumns:     []string{"Gross", "Net", "Date"},
		DefaultDateFormat:   "YYYY-MM-DD",
		DefaultAmountFormat: "USD_TRAILING",
		ExampleData: []map[string]string{
			{"Gross": "1,250.00", "R&C": "0.00", "Net": "1,250.00", "Date": "2024-01-15", "Ref": "B1001"},
			{"Gross": "480.25", "R&C": "35.00-", "Net": "445.25", "Date": "2024-01-16", "Ref": "B1002"},
		},
		PDFExtraction: &PDFExtraction{
			Enabled:         true,
			SectionHeader:   monetaryBatchesSection,
			ExpectedColumns: []string{"Gross", "R&C", "Net", "Date", "Ref"},
			DateColumn:      "Date",
			ValidationRules: ValidationRules{DateFormat: "MM/DD", MinRows: intPtr(1)},
			StopHeaders:     []string{"TOTAL", "SUMMARY OF CHARGEBACKS", "SUMMARY OF DEPOSITS"},
			NoisePatterns:   []string{"PAGE ", "CONTINUED", "MERCHANT NUMBER"},
			RowGrammar: []Slot{
				{Column: "Gross", Kind: SlotNumeric},
				{Column: "R&C", Kind: SlotNumeric},
				{Column: "Net", Kind: SlotNumeric},
				{Column: "Date", Kind: SlotDate},
				{Column: "Ref", Kind: SlotReference, Optional: true},
			},
		},
	}
}

// Defaults returns fresh copies of the built-in configurations keyed by source id.
func Defaults() map[string]*Config {
	configs := []*Config{
		{
			SourceID:           "bankofamerica",
			DisplayName:        "Bank of America",
			Description:        "Bank statement processing and management",
			Icon:               "bank",
			DateMapping:        dateField("Date", "MM/DD/YYYY"),
			DescriptionMapping: descriptionField("Original Description"),
			AmountMapping:      amountField("Amount", "USD"),
			OptionalMappings: []FieldMapping{
				optionalField("Status", "status", "Transaction status"),
			},
			ExpectedColumns: []string{"Status", "Date", "Original Description", "Amount"},
			RequiredColumns: []string{"Date", "Original Description", "Amount"},
			ExampleData: []map[string]string{
				{"Status": "Posted", "Date": "01/15/2024", "Original Description": "VERIZON WIRELESS", "Amount": "-421.50"},
				{"Status": "Posted", "Date": "01/20/2024", "Original Description": "GROCERY STORE", "Amount": "-45.67"},
			},
		},
		{
			SourceID:           "chase",
			DisplayName:        "Chase",
			Description:        "Credit card statement processing and management",
			Icon:               "credit-card",
			DateMapping:        dateField("Posting Date", "MM/DD/YYYY"),
			DescriptionMapping: descriptionField("Description"),
			AmountMapping:      amountField("Amount", "USD"),
			OptionalMappings: []FieldMapping{
				optionalField("Details", "details", "Additional transaction details"),
				optionalField("Type", "type", "Transaction type"),
				{
					SourceColumn: "Balance",
					TargetField:  "balance",
					MappingType:  TypeOptional,
					ValueType:    ValueAmount,
					Description:  "Account balance",
				},
				optionalField("Check or Slip #", "check_number", "Check or slip number"),
			},
			ExpectedColumns: []string{"Posting Date", "Description", "Amount", "Details", "Type", "Balance", "Check or Slip #"},
			RequiredColumns: []string{"Posting Date", "Description", "Amount"},
			ExampleData: []map[string]string{
				{"Posting Date": "01/15/2024", "Description": "VERIZON WIRELESS", "Amount": "-421.50", "Type": "DEBIT"},
				{"Posting Date": "01/20/2024", "Description": "GROCERY STORE", "Amount": "-45.67", "Type": "DEBIT"},
			},
		},
		{
			SourceID:           "restaurantdepot",
			DisplayName:        "Restaurant Depot",
			Description:        "Supplier invoice processing and management",
			Icon:               "shop",
			DateMapping:        dateField("Date", "MM/DD/YYYY"),
			DescriptionMapping: descriptionField("Description"),
			AmountMapping:      amountField("Total", "USD"),
			ExpectedColumns:    []string{"Date", "Description", "Total"},
			RequiredColumns:    []string{"Date", "Description", "Total"},
			ExampleData: []map[string]string{
				{"Date": "01/15/2024", "Description": "MEAT PRODUCTS", "Total": "225.50"},
				{"Date": "01/20/2024", "Description": "DAIRY PRODUCTS", "Total": "85.67"},
			},
		},
		{
			SourceID:           "sysco",
			DisplayName:        "Sysco",
			Description:        "Food service supplier processing and management",
			Icon:               "truck",
			DateMapping:        dateField("Date", "MM/DD/YYYY"),
			DescriptionMapping: descriptionField("Description"),
			AmountMapping:      amountField("Total", "USD"),
			ExpectedColumns:    []string{"Date", "Description", "Total"},
			RequiredColumns:    []string{"Date", "Description", "Total"},
			ExampleData: []map[string]string{
				{"Date": "01/15/2024", "Description": "PRODUCE DELIVERY", "Total": "310.20"},
				{"Date": "01/22/2024", "Description": "PAPER GOODS", "Total": "64.99"},
			},
		},
		merchantBatchConfig("gg", "GG"),
		merchantBatchConfig("ar", "AR"),
	}

	out := make(map[string]*Config, len(configs))
	for _, c := range configs {
		c.applyDefaults()
		out[c.Key()] = c
	}
	return out
}
