package coerce_test

import (
	"testing"

	. "github.com/tabulo/tabulo/internal/coerce"
	"gotest.tools/assert"
)

func TestNumber(t *testing.T) {
	t.Run("nil and empty", func(t *testing.T) {
		assert.Equal(t, Number(nil, ""), 0.)
		assert.Equal(t, Number("", ""), 0.)
		assert.Equal(t, Number("   ", ""), 0.)
	})

	t.Run("passthrough numbers", func(t *testing.T) {
		assert.Equal(t, Number(42., ""), 42.)
		assert.Equal(t, Number(42, ""), 42.)
		assert.Equal(t, Number(-1.5, ""), -1.5)
	})

	t.Run("french decimal comma", func(t *testing.T) {
		assert.Equal(t, Number("1234,56", ""), 1234.56)
		assert.Equal(t, Number("0,5", ""), 0.5)
	})

	t.Run("thousands separators", func(t *testing.T) {
		assert.Equal(t, Number("1 234,56", ""), 1234.56)
		assert.Equal(t, Number("1 234 567", ""), 1234567.)
		assert.Equal(t, Number("1 234,5", ""), 1234.5)
		assert.Equal(t, Number("1,234.56", ""), 1234.56)
	})

	t.Run("unit stripping", func(t *testing.T) {
		assert.Equal(t, Number("1500 EUR", "EUR"), 1500.)
		assert.Equal(t, Number("1500eur", "EUR"), 1500.)
		assert.Equal(t, Number("EUR 1500", "EUR"), 1500.)
		assert.Equal(t, Number("12,5 kg", "kg"), 12.5)
	})

	t.Run("garbage degrades to zero", func(t *testing.T) {
		assert.Equal(t, Number("hello", ""), 0.)
		assert.Equal(t, Number(struct{}{}, ""), 0.)
	})

	t.Run("numeric prefix wins like parseFloat", func(t *testing.T) {
		assert.Equal(t, Number("12.5abc", ""), 12.5)
	})

	t.Run("idempotent", func(t *testing.T) {
		first := Number("1 234,56", "EUR")
		assert.Equal(t, Number("1 234,56", "EUR"), first)
	})
}
