package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadPricingDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, int64(500), cfg.Pricing.FreeShippingThreshold)
	assert.Equal(t, int64(50), cfg.Pricing.FlatShippingFee)
	assert.Equal(t, 0.18, cfg.Pricing.TaxRate)
}

func TestLoadPricingFromEnv(t *testing.T) {
	t.Setenv("FREE_SHIPPING_THRESHOLD", "1000")
	t.Setenv("FLAT_SHIPPING_FEE", "75")
	t.Setenv("TAX_RATE", "0.05")

	cfg := Load()

	assert.Equal(t, int64(1000), cfg.Pricing.FreeShippingThreshold)
	assert.Equal(t, int64(75), cfg.Pricing.FlatShippingFee)
	assert.Equal(t, 0.05, cfg.Pricing.TaxRate)
}
