package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"inventra/internal/core/entity"
	"inventra/internal/core/id"
)

type mockRecord struct {
	entity.BaseRecord
	SKU  string `db:"sku" json:"productId"`
	Name string `db:"name" json:"name"`
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[mockRecord]()

	expectedCols := []string{
		"id", "user_id", "version", "created_at", "updated_at", "sku", "name",
	}

	for _, expected := range expectedCols {
		assert.Contains(t, cols, expected)
	}
}

func TestStructToMap(t *testing.T) {
	now := time.Now().UTC()
	rec := mockRecord{
		BaseRecord: entity.BaseRecord{
			ID:        id.New(),
			OwnerID:   "user-1",
			Version:   5,
			CreatedAt: now,
			UpdatedAt: now,
		},
		SKU:  "SKU-001",
		Name: "Test Name",
	}

	m := StructToMap(rec)

	assert.Equal(t, rec.ID, m["id"])
	assert.Equal(t, "user-1", m["user_id"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, now, m["created_at"])
	assert.Equal(t, "SKU-001", m["sku"])
	assert.Equal(t, "Test Name", m["name"])
}
