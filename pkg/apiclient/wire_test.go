package apiclient_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/libraryclient/pkg/apiclient"
)

func TestID_JSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want apiclient.ID
	}{
		{name: "number", in: `42`, want: "42"},
		{name: "string", in: `"42"`, want: "42"},
		{name: "uuid string", in: `"0b7c1c9e-1f43-4c1c-9d4e-1f6b0f2a9a11"`, want: "0b7c1c9e-1f43-4c1c-9d4e-1f6b0f2a9a11"},
		{name: "null", in: `null`, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var id apiclient.ID
			require.NoError(t, json.Unmarshal([]byte(tt.in), &id))
			assert.Equal(t, tt.want, id)
		})
	}

	out, err := json.Marshal(struct {
		Num apiclient.ID `json:"num"`
		Str apiclient.ID `json:"str"`
	}{Num: "7", Str: "abc"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"num":7,"str":"abc"}`, string(out))

	var bad apiclient.ID
	assert.Error(t, json.Unmarshal([]byte(`{}`), &bad))
}

func TestTime_JSON(t *testing.T) {
	t.Parallel()

	want := time.Date(2025, 3, 1, 10, 15, 30, 0, time.UTC)
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{name: "local date time", in: `"2025-03-01T10:15:30"`, want: want},
		{name: "fractional", in: `"2025-03-01T10:15:30.5"`, want: want.Add(500 * time.Millisecond)},
		{name: "rfc3339", in: `"2025-03-01T10:15:30Z"`, want: want},
		{name: "array", in: `[2025,3,1,10,15,30]`, want: want},
		{name: "date only", in: `"2025-03-01"`, want: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{name: "null", in: `null`},
		{name: "empty", in: `""`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var got apiclient.Time
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.True(t, tt.want.Equal(got.Time), "got %v", got.Time)
		})
	}

	var bad apiclient.Time
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`[2025]`), &bad))

	assert.Nil(t, apiclient.Time{}.Ptr())
	out, err := json.Marshal(apiclient.Time{Time: want})
	require.NoError(t, err)
	assert.Equal(t, `"2025-03-01T10:15:30"`, string(out))
}
