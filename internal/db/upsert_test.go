package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkUpsert_EmptyRows(t *testing.T) {
	n, err := BulkUpsert(nil, nil, UpsertConfig{
		Table:        "guidance_content",
		Columns:      []string{"device_key", "title"},
		ConflictKeys: []string{"device_key"},
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestBulkUpsert_NoColumns(t *testing.T) {
	_, err := BulkUpsert(nil, nil, UpsertConfig{
		Table:        "guidance_content",
		ConflictKeys: []string{"device_key"},
	}, [][]any{{"glucose_meter", "Insert strip"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns specified")
}

func TestBulkUpsert_NoConflictKeys(t *testing.T) {
	_, err := BulkUpsert(nil, nil, UpsertConfig{
		Table:   "guidance_content",
		Columns: []string{"device_key", "title"},
	}, [][]any{{"glucose_meter", "Insert strip"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no conflict keys specified")
}

func TestQuoteAndJoin(t *testing.T) {
	assert.Equal(t, `"device_key", "step_number", "language_code"`,
		quoteAndJoin([]string{"device_key", "step_number", "language_code"}))
}
