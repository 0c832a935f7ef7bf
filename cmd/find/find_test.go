package find

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twdrugfinder/drugfinder/internal/records"
)

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, []records.InventoryRow{{
		Clinic:          "安心診所",
		InstitutionCode: "A123",
		Drug:            "Ritalin",
		City:            "臺北市",
		Stock:           records.StockInStock,
		Payment:         records.NewPaymentConditions("健保", "自費"),
		Listed:          true,
	}}))

	out := buf.String()
	assert.Contains(t, out, "CLINIC")
	assert.Contains(t, out, "安心診所")
	assert.Contains(t, out, "有貨")
	assert.Contains(t, out, "健保,自費")
}

func TestPrintEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, nil))
	assert.Equal(t, "目前沒有診所回報此藥品有貨。\n", buf.String())
}
