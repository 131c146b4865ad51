package commands

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSalesCSV(t *testing.T) {
	input := strings.Join([]string{
		"date,sku_id,quantity,unit_price,promo_flag,category,sub_category,product_type",
		"2025-03-01,SKU-001,24,4.50,false,beverages,juice,bottle",
		"2025-03-02,SKU-001,31,3.99,true,beverages,juice,bottle",
	}, "\n")

	obs, err := parseSalesCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, obs, 2)

	assert.Equal(t, "SKU-001", obs[0].SKUID)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), obs[0].Date)
	assert.Equal(t, 24.0, obs[0].Quantity)
	assert.Equal(t, 4.5, obs[0].UnitPrice)
	assert.False(t, obs[0].PromoFlag)
	assert.True(t, obs[1].PromoFlag)
	assert.Equal(t, "beverages", obs[1].Category)
}

func TestParseSalesCSV_MissingColumn(t *testing.T) {
	input := "date,quantity\n2025-03-01,24\n"

	_, err := parseSalesCSV(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sku_id")
}

func TestParseSalesCSV_BadRow(t *testing.T) {
	input := strings.Join([]string{
		"date,sku_id,quantity",
		"2025-03-01,SKU-001,24",
		"2025-03-02,SKU-001,many",
	}, "\n")

	_, err := parseSalesCSV(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}
