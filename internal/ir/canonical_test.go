package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	got, err := MarshalCanonical(Obj(
		O("sys", Strs([]string{"b", "a"})),
		O("env", List{}),
		O("count", Int(2)),
	))
	require.NoError(t, err)
	assert.Equal(t, `{"count":2,"env":[],"sys":["b","a"]}`, string(got))
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	got, err := MarshalCanonical(Str("a && b -> <c>"))
	require.NoError(t, err)
	assert.Equal(t, `"a && b -> <c>"`, string(got))
}

func TestMarshalCanonical_ControlCharacters(t *testing.T) {
	got, err := MarshalCanonical("tab\there\x01\"q\"\\")
	require.NoError(t, err)
	assert.Equal(t, `"tab\there\u0001\"q\"\\"`, string(got))
}

func TestMarshalCanonical_LineSeparatorsLiteral(t *testing.T) {
	got, err := MarshalCanonical("a\u2028b\u2029c")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(got))
}

func TestMarshalCanonical_NFC(t *testing.T) {
	decomposed, err := MarshalCanonical("e\u0301")
	require.NoError(t, err)
	composed, err := MarshalCanonical("\u00e9")
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}

func TestMarshalCanonical_UTF16KeyOrder(t *testing.T) {
	// U+1F600 encodes as surrogates 0xD83D..., which sort before U+FF5E in UTF-16
	// but after it in UTF-8.
	got, err := MarshalCanonical(Obj(O("\uFF5E", Int(1)), O("\U0001F600", Int(2))))
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"\uFF5E\":1}", string(got))
}

func TestMarshalCanonical_PlainGoValues(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{
		"ok":    true,
		"n":     int64(7),
		"names": []any{"x", 3},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"n":7,"names":["x",3],"ok":true}`, string(got))
}

func TestMarshalCanonical_RejectsFloatsAndNull(t *testing.T) {
	_, err := MarshalCanonical(1.5)
	assert.Error(t, err)

	_, err = MarshalCanonical(nil)
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"x": nil})
	assert.Error(t, err)
}

func TestHash_DomainSeparation(t *testing.T) {
	v := Obj(O("op", Str("var")), O("name", Str("p")))

	formula, err := FormulaKey(v)
	require.NoError(t, err)
	fragment, err := FragmentHash(v)
	require.NoError(t, err)

	assert.Len(t, formula, 64)
	assert.NotEqual(t, formula, fragment)
	assert.Equal(t, formula, MustFormulaKey(v))
}

func TestHash_StableAcrossKeyInsertionOrder(t *testing.T) {
	a := Object{"x": Int(1), "y": Int(2)}
	b := Object{"y": Int(2), "x": Int(1)}
	ha, err := SystemHash(a)
	require.NoError(t, err)
	hb, err := SystemHash(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
}

func TestObject_UnmarshalJSON_RoundTrip(t *testing.T) {
	in := Obj(
		O("big", Int(9007199254740993)),
		O("nodes", List{Obj(O("id", Int(0)), O("initial", Bool(true)))}),
		O("vars", Strs([]string{"a"})),
	)
	data, err := MarshalCanonical(in)
	require.NoError(t, err)

	var out Object
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestObject_UnmarshalJSON_Rejects(t *testing.T) {
	for _, doc := range []string{`{"x":1.5}`, `{"x":null}`, `[1]`} {
		var out Object
		assert.Error(t, json.Unmarshal([]byte(doc), &out), doc)
	}
}
