package csvimport

import (
	"bytes"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventra/internal/core/apperror"
)

func TestRead_PlainCSV(t *testing.T) {
	input := strings.Join([]string{
		"productId,name,category,price,quantity,unit,thresholdValue,expiryDate,supplier,description",
		"SKU-001,Widget,Tools,9.99,100,pcs,10,2027-01-01,Acme,A widget",
		"SKU-002,Gadget,,5,50,,,,,",
	}, "\n")

	rows, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "SKU-001", rows[0].SKU)
	assert.Equal(t, "Widget", rows[0].Name)
	assert.Equal(t, "Tools", rows[0].Category)
	assert.Equal(t, "9.99", rows[0].Price)
	assert.Equal(t, "100", rows[0].Quantity)
	assert.Equal(t, "10", rows[0].ThresholdValue)
	assert.Equal(t, "2027-01-01", rows[0].ExpiryDate)
	assert.Equal(t, "Acme", rows[0].Supplier)

	assert.Equal(t, "SKU-002", rows[1].SKU)
	assert.Empty(t, rows[1].Category)
}

func TestRead_HeaderAliases(t *testing.T) {
	input := strings.Join([]string{
		"SKU,Product Name,Expiry Date",
		"SKU-001,Widget,2027-01-01",
	}, "\n")

	rows, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "SKU-001", rows[0].SKU)
	assert.Equal(t, "Widget", rows[0].Name)
	assert.Equal(t, "2027-01-01", rows[0].ExpiryDate)
}

func TestRead_UnknownColumnsIgnored(t *testing.T) {
	input := strings.Join([]string{
		"productId,name,mystery",
		"SKU-001,Widget,whatever",
	}, "\n")

	rows, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "SKU-001", rows[0].SKU)
}

func TestRead_TrimsWhitespace(t *testing.T) {
	input := strings.Join([]string{
		"productId, name",
		" SKU-001 , Widget ",
	}, "\n")

	rows, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "SKU-001", rows[0].SKU)
	assert.Equal(t, "Widget", rows[0].Name)
}

func TestRead_GzipDetectedByMagicBytes(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte("productId,name\nSKU-001,Widget\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	rows, err := Read(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "SKU-001", rows[0].SKU)
}

func TestRead_EmptyUpload(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestRead_NoRecognizedColumns(t *testing.T) {
	input := "foo,bar\n1,2\n"
	_, err := Read(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recognized columns")
}

func TestRead_HeaderOnlyIsEmptyBatch(t *testing.T) {
	rows, err := Read(strings.NewReader("productId,name\n"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRead_MalformedCSV(t *testing.T) {
	input := "productId,name\n\"unterminated,Widget\n"
	_, err := Read(strings.NewReader(input))
	require.Error(t, err)
}
