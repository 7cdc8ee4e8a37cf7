package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_JSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Date
		wantErr bool
	}{
		{name: "date", input: `"2003-09-02"`, want: NewDate(2003, 9, 2)},
		{name: "datetime", input: `"2003-09-02T10:11:12Z"`, want: NewDate(2003, 9, 2)},
		{name: "null", input: `null`},
		{name: "blank", input: `"  "`},
		{name: "bad layout", input: `"02/09/2003"`, wantErr: true},
		{name: "not a string", input: `20030902`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d)
		})
	}

	data, err := json.Marshal(struct {
		Set   Date `json:"set"`
		Unset Date `json:"unset"`
	}{Set: NewDate(1980, 5, 17)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"set": "1980-05-17", "unset": null}`, string(data))
}

func TestNullableID_UnmarshalJSON(t *testing.T) {
	type payload struct {
		Ref NullableID `json:"ref"`
	}
	tests := []struct {
		name      string
		input     string
		wantSet   bool
		wantValid bool
		wantID    int
		wantErr   bool
	}{
		{name: "omitted", input: `{}`},
		{name: "null", input: `{"ref": null}`, wantSet: true},
		{name: "empty string", input: `{"ref": ""}`, wantSet: true},
		{name: "number", input: `{"ref": 7}`, wantSet: true, wantValid: true, wantID: 7},
		{name: "numeric string", input: `{"ref": " 7 "}`, wantSet: true, wantValid: true, wantID: 7},
		{name: "zero", input: `{"ref": 0}`, wantErr: true},
		{name: "text", input: `{"ref": "lol"}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			err := json.Unmarshal([]byte(tt.input), &p)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSet, p.Ref.Set)
			assert.Equal(t, tt.wantValid, p.Ref.Valid)
			assert.Equal(t, tt.wantID, p.Ref.ID())
		})
	}

	data, err := json.Marshal([]NullableID{{}, NullableIDFrom(3)})
	require.NoError(t, err)
	assert.Equal(t, `[null,3]`, string(data))
}

func TestCode_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Code
		wantErr bool
	}{
		{name: "string", input: `{"nrc": "0042"}`, want: "0042"},
		{name: "number", input: `{"nrc": 1234}`, want: "1234"},
		{name: "null", input: `{"nrc": null}`},
		{name: "bool", input: `{"nrc": true}`, wantErr: true},
		{name: "list", input: `{"nrc": [1]}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p struct {
				NRC Code `json:"nrc"`
			}
			err := json.Unmarshal([]byte(tt.input), &p)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.NRC)
		})
	}
}

func TestStringList_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    StringList
		wantErr bool
	}{
		{name: "list", input: `["a", "b"]`, want: StringList{"a", "b"}},
		{name: "JSON text", input: `"[\"a\", \"b\"]"`, want: StringList{"a", "b"}},
		{name: "blank text", input: `""`, want: StringList{}},
		{name: "not a list", input: `"a, b"`, wantErr: true},
		{name: "number", input: `3`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l StringList
			err := json.Unmarshal([]byte(tt.input), &l)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, l)
		})
	}

	data, err := json.Marshal(StringList(nil))
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))
}

func TestListQuery_SearchTerms(t *testing.T) {
	q := ListQuery{Search: " ana,  barrios\tGODE "}
	assert.Equal(t, []string{"ana", "barrios", "GODE"}, q.SearchTerms())
	assert.Empty(t, ListQuery{Search: " , "}.SearchTerms())
}

func TestDBOrdering_String(t *testing.T) {
	assert.Equal(t, "name ASC", DBOrdering{Field: "name", Ascending: true}.String())
	assert.Equal(t, "name DESC", DBOrdering{Field: "name"}.String())
}
