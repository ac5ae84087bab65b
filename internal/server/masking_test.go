package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xela07ax/compliance-ledger/internal/domain"
)

func TestMaskAddress(t *testing.T) {
	assert.Equal(t, "bc1qxy2k...", MaskAddress("bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh"))
	assert.Equal(t, "short", MaskAddress("short"))
	assert.Equal(t, "12345678", MaskAddress("12345678"))
	assert.Equal(t, "", MaskAddress(""))
}

func TestMaskIP(t *testing.T) {
	assert.Equal(t, "203.0.*.*", MaskIP("203.0.113.7"))
	assert.Equal(t, "10.1.*.*", MaskIP("10.1.2.3"))
	assert.Equal(t, "2001:db8...", MaskIP("2001:db8::1"))
	assert.Equal(t, "", MaskIP(""))
}

func TestMaskRecordDoesNotMutateOriginal(t *testing.T) {
	rec := &domain.MetadataRecord{
		UserAddress: "bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh",
		IPAddress:   "203.0.113.7",
	}
	masked := maskRecord(rec)

	assert.Equal(t, "bc1qxy2k...", masked.UserAddress)
	assert.Equal(t, "203.0.*.*", masked.IPAddress)
	// Оригинал не тронут
	assert.Equal(t, "203.0.113.7", rec.IPAddress)
}
