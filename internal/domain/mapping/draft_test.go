package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraft(t *testing.T) {
	t.Run("us card export", func(t *testing.T) {
		data := "Posting Date,Description,Amount,Type,Balance\n" +
			"01/15/2024,VERIZON WIRELESS,-421.50,DEBIT,1000.00\n" +
			"01/20/2024,GROCERY STORE,-45.67,DEBIT,954.33\n"

		cfg, err := Draft("NewBank", "New Bank", []byte(data))
		require.NoError(t, err)

		assert.Equal(t, "newbank", cfg.SourceID)
		assert.Equal(t, "Posting Date", cfg.DateMapping.SourceColumn)
		assert.Equal(t, "MM/DD/YYYY", cfg.DateMapping.DateFormat)
		assert.Equal(t, "Description", cfg.DescriptionMapping.SourceColumn)
		assert.Equal(t, "Amount", cfg.AmountMapping.SourceColumn)
		assert.Equal(t, "USD", cfg.AmountMapping.AmountFormat)
		require.Len(t, cfg.OptionalMappings, 2)
		assert.Equal(t, "type", cfg.OptionalMappings[0].TargetField)
		assert.Equal(t, "balance", cfg.OptionalMappings[1].TargetField)
		assert.Len(t, cfg.ExampleData, 2)
		assert.Equal(t, []string{"Posting Date", "Description", "Amount"}, cfg.RequiredColumns)
	})

	t.Run("european export", func(t *testing.T) {
		data := "Data mov.;Descrição;Valor;Saldo\n15/01/2024;Café;-3,50;100,00\n"

		cfg, err := Draft("millennium", "", []byte(data))
		require.NoError(t, err)

		assert.Equal(t, "millennium", cfg.DisplayName)
		assert.Equal(t, "Data mov.", cfg.DateMapping.SourceColumn)
		assert.Equal(t, "DD/MM/YYYY", cfg.DefaultDateFormat)
		assert.Equal(t, "EUR", cfg.DefaultAmountFormat)
		assert.Equal(t, "Valor", cfg.AmountMapping.SourceColumn)
		assert.Equal(t, "Descrição", cfg.DescriptionMapping.SourceColumn)
	})

	t.Run("unrecognized headers", func(t *testing.T) {
		_, err := Draft("x", "X", []byte("Foo,Bar\n1,2\n"))
		assert.ErrorIs(t, err, ErrDraftIncomplete)
	})
}

func TestFieldName(t *testing.T) {
	tests := map[string]string{
		"Check or Slip #": "check_or_slip",
		"R&C":             "r_c",
		"Balance":         "balance",
		"  ":              "field",
		"Saldo (EUR)":     "saldo_eur",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, fieldName(in))
		})
	}
}
