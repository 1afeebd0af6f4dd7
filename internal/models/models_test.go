package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringListScan(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  StringList
	}{
		{name: "json bytes", value: []byte(`["a","b"]`), want: StringList{"a", "b"}},
		{name: "json string", value: `["only"]`, want: StringList{"only"}},
		{name: "legacy plain text", value: "Room clash", want: StringList{"Room clash"}},
		{name: "null", value: nil, want: nil},
		{name: "empty", value: []byte{}, want: nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got StringList
			require.NoError(t, got.Scan(tc.value))
			assert.Equal(t, tc.want, got)
		})
	}

	var bad StringList
	assert.Error(t, bad.Scan(42))
}

func TestStringListValueNeverNull(t *testing.T) {
	v, err := StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)
}

func TestGenerationJobJSONColumns(t *testing.T) {
	v, err := GenerationJobParams{Weeks: 2}.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"section_ids":[],"weeks":2}`, string(v.([]byte)))

	var params GenerationJobParams
	require.NoError(t, params.Scan(`{"section_ids":[3,4],"weeks":4,"seed":9}`))
	assert.Equal(t, GenerationJobParams{SectionIDs: []int64{3, 4}, Weeks: 4, Seed: 9}, params)

	var results JobResults
	require.NoError(t, results.Scan([]byte(`[{"section_id":3,"log_id":"l1","status":"Success","penalty":0}]`)))
	require.Len(t, results, 1)
	assert.Equal(t, GenerationStatusSuccess, results[0].Status)

	require.NoError(t, results.Scan(nil))
	assert.Nil(t, results)
	assert.Error(t, results.Scan(1.5))
	assert.Error(t, params.Scan([]byte("{")))
}
