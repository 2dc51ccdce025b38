package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecord_AllFieldsEmpty(t *testing.T) {
	r := NewRecord()
	row := r.Row()

	require.Len(t, row, len(Fields))
	for i, v := range row {
		assert.Empty(t, v, "field %s should start empty", Fields[i])
	}
	assert.Len(t, Fields, 20)
	assert.Equal(t, FieldAthleteID, Fields[0])
	assert.Equal(t, FieldBronzeMedal, Fields[len(Fields)-1])
}

func TestRecord_SetAndGet(t *testing.T) {
	r := NewRecord()

	assert.True(t, r.Set(FieldName, "Jane Doe"))
	assert.True(t, r.Set(FieldHeightCM, "170"))
	assert.False(t, r.Set("nickname", "JD"), "unknown keys must be refused")

	assert.Equal(t, "Jane Doe", r.Get(FieldName))
	assert.Equal(t, "170", r.Get(FieldHeightCM))
	assert.Equal(t, "", r.Get("nickname"))

	m := r.Map()
	assert.Len(t, m, len(Fields))
	_, ok := m["nickname"]
	assert.False(t, ok)
}

func TestRecord_RowKeepsColumnOrder(t *testing.T) {
	r := NewRecord()
	// Assign out of order
	r.Set(FieldBronzeMedal, "2")
	r.Set(FieldAthleteID, "7")
	r.Set(FieldNOC, "USA")

	row := r.Row()
	assert.Equal(t, "7", row[0])
	assert.Equal(t, "USA", row[13])
	assert.Equal(t, "2", row[19])
}

func TestRecord_MarshalJSONOrdered(t *testing.T) {
	r := NewRecord()
	r.Set(FieldAthleteID, "1")
	r.Set(FieldName, `A "quoted" name`)

	data, err := json.Marshal(r)
	require.NoError(t, err)

	s := string(data)
	assert.Regexp(t, `^\{"athlete_id":"1","name":"A \\"quoted\\" name","sex":""`, s)
	assert.Contains(t, s, `"bronze_medal":""}`)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, len(Fields))
}

func TestAttemptEntry_JSONTags(t *testing.T) {
	entry := AttemptEntry{
		Status:      AttemptStatusMiss,
		ErrorType:   "HTTP_404",
		LastAttempt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Attempts:    2,
	}

	data, err := json.Marshal(entry)
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"status":"miss"`)
	assert.Contains(t, s, `"error_type":"HTTP_404"`)
	assert.NotContains(t, s, "content_hash", "empty hash should be omitted")
	assert.NotContains(t, s, `"name"`)
}

func TestLedgerStats_Total(t *testing.T) {
	s := LedgerStats{Found: 3, Missed: 2, Errored: 1, Highest: 42}
	assert.Equal(t, 6, s.Total())
}
