package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestTransactionNumber tests deterministic transaction number layout
func TestTransactionNumber(t *testing.T) {
	clock := FixedClock{Instant: time.Date(2026, 8, 28, 14, 30, 5, 0, time.UTC)}
	generator := NewReceiptNumberGenerator(clock, FixedSequence{Value: 4821})

	number := generator.TransactionNumber("JKT-01", "T01")
	assert.Equal(t, "JKT-01-T01-20260828143005-4821", number)
}

// TestReturnNumber tests deterministic return number layout
func TestReturnNumber(t *testing.T) {
	clock := FixedClock{Instant: time.Date(2026, 8, 28, 9, 15, 0, 0, time.UTC)}
	generator := NewReceiptNumberGenerator(clock, FixedSequence{Value: 1000})

	number := generator.ReturnNumber("JKT-01")
	assert.Equal(t, "RTN-JKT-01-20260828091500-1000", number)
}

// TestRandomSequenceRange tests that the random sequence stays in its range
func TestRandomSequenceRange(t *testing.T) {
	sequence := RandomSequence()

	for i := 0; i < 1000; i++ {
		value := sequence.Next()
		assert.GreaterOrEqual(t, value, 1000)
		assert.LessOrEqual(t, value, 9999)
	}
}

// TestGeneratorDefaults tests that nil dependencies fall back to defaults
func TestGeneratorDefaults(t *testing.T) {
	generator := NewReceiptNumberGenerator(nil, nil)

	number := generator.TransactionNumber("JKT-01", "T01")
	assert.Regexp(t, `^JKT-01-T01-\d{14}-\d{4}$`, number)
}
