package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrySamples(t *testing.T) {
	t.Run("built-in examples convert", func(t *testing.T) {
		for _, id := range []string{"bankofamerica", "chase", "restaurantdepot", "sysco", "gg", "ar"} {
			cfg := config(t, id)
			res, err := TrySamples(cfg, nil)
			require.NoError(t, err, id)
			assert.Equal(t, len(cfg.ExampleData), res.Rows, id)
			assert.Len(t, res.Records, len(cfg.ExampleData), id)
			assert.Empty(t, res.Warnings, id)
			for _, f := range res.Fields {
				if f.Rows > 0 {
					assert.Equal(t, 1.0, f.SuccessRate(), "%s %s", id, f.Column)
				}
			}
		}
	})

	t.Run("low success rate warns", func(t *testing.T) {
		rows := []map[string]string{
			{"Status": "Posted", "Date": "01/15/2024", "Original Description": "A", "Amount": "1.00"},
			{"Status": "Posted", "Date": "01/16/2024", "Original Description": "B", "Amount": "1.234,50"},
			{"Status": "Posted", "Date": "01/17/2024", "Original Description": "C", "Amount": "abc"},
		}
		res, err := TrySamples(config(t, "bankofamerica"), rows)
		require.NoError(t, err)

		require.Len(t, res.Records, 1)
		assert.Equal(t, 2, res.Report.InvalidRows)

		var amount FieldResult
		for _, f := range res.Fields {
			if f.Target == "amount" {
				amount = f
			}
		}
		assert.Equal(t, 3, amount.Rows)
		assert.Equal(t, 1, amount.Converted)
		assert.Equal(t, []string{"1.234,50", "abc"}, amount.Failures)
		require.Len(t, res.Warnings, 1)
		assert.Contains(t, res.Warnings[0], "Amount: only 33% of values converted")
	})

	t.Run("empty optional values do not count", func(t *testing.T) {
		rows := []map[string]string{
			{"Posting Date": "01/15/2024", "Description": "A", "Amount": "1.00"},
			{"Posting Date": "01/16/2024", "Description": "B", "Amount": "2.00", "Balance": "oops"},
		}
		res, err := TrySamples(config(t, "chase"), rows)
		require.NoError(t, err)
		assert.Len(t, res.Records, 2)

		for _, f := range res.Fields {
			switch f.Target {
			case "balance":
				assert.Equal(t, 1, f.Rows)
				assert.Zero(t, f.Converted)
			case "details":
				assert.Zero(t, f.Rows)
			}
		}
		require.Len(t, res.Warnings, 1)
		assert.Contains(t, res.Warnings[0], "Balance")
	})

	t.Run("extra sample columns are carried", func(t *testing.T) {
		rows := []map[string]string{
			{"Date": "01/15/2024", "Description": "A", "Total": "1.00", "Store": "12"},
		}
		res, err := TrySamples(config(t, "sysco"), rows)
		require.NoError(t, err)
		assert.Len(t, res.Records, 1)
		assert.Empty(t, res.Warnings)
	})

	t.Run("no rows", func(t *testing.T) {
		res, err := TrySamples(config(t, "sysco"), []map[string]string{})
		require.NoError(t, err)
		assert.Zero(t, res.Rows)
		assert.Equal(t, []string{"no sample rows"}, res.Warnings)
	})
}
