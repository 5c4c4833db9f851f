package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	assert.Equal(t, "150000.00 DA", Format("DZD", 15000000))
	assert.Equal(t, "$19.99", Format("USD", 1999))
	assert.Equal(t, "€0.50", Format("EUR", 50))
	assert.Equal(t, "12.00 GBP", Format("GBP", 1200))
}
