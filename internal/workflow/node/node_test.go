package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain object", in: `{"a":1}`, want: `{"a":1}`},
		{name: "fenced", in: "```json\n{\"a\":[1,2]}\n```", want: `{"a":[1,2]}`},
		{name: "prose around", in: `Sure! [{"t":"x"}] hope this helps {}`, want: `[{"t":"x"}]`},
		{name: "brace in string", in: `{"t":"a } b"} trailing }`, want: `{"t":"a } b"}`},
		{name: "escaped quote", in: `{"t":"say \"}\""}`, want: `{"t":"say \"}\""}`},
		{name: "no json", in: "  seven  ", want: "seven"},
		{name: "unterminated", in: `{"a":`, want: `{"a":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSONObject(tt.in))
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Show bool `json:"show"`
	}
	require.NoError(t, DecodeJSON("result: {\"show\": true}", &v))
	assert.True(t, v.Show)
	assert.Error(t, DecodeJSON("", &v))
	assert.Error(t, DecodeJSON("not json", &v))
}

func TestRuneHelpers(t *testing.T) {
	assert.Equal(t, "你好", TruncateByRunes("你好世界", 2))
	assert.Equal(t, "世界", TailByRunes("你好世界", 2))
	assert.Equal(t, "abc", TailByRunes("abc", 10))
	assert.Equal(t, "", TruncateByRunes("abc", 0))
	assert.Equal(t, "a b c", CompactOneLine(" a\n\tb  c "))
}
