package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/synthkit/internal/ir"
)

func TestMarshalRemoved(t *testing.T) {
	got, err := marshalRemoved(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", got)

	got, err = marshalRemoved([]string{"s1", "s0"})
	require.NoError(t, err)
	assert.Equal(t, `["s1","s0"]`, got)
}

func TestMarshalResult_Nil(t *testing.T) {
	got, err := marshalResult(nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	obj, err := unmarshalResult(got)
	require.NoError(t, err)
	assert.Nil(t, obj)
}

func TestUnmarshalResult_LargeInteger(t *testing.T) {
	obj, err := unmarshalResult(`{"rank":9007199254740993}`)
	require.NoError(t, err)
	assert.Equal(t, ir.Int(9007199254740993), obj["rank"])
}

func TestUnmarshalResult_RejectsFloat(t *testing.T) {
	_, err := unmarshalResult(`{"rank":1.5}`)
	assert.Error(t, err)
}

func TestUnmarshalResult_InvalidJSON(t *testing.T) {
	_, err := unmarshalResult(`{not json`)
	assert.Error(t, err)
}

func TestUnmarshalRemoved(t *testing.T) {
	got, err := unmarshalRemoved("")
	require.NoError(t, err)
	assert.Equal(t, []string{}, got)

	got, err = unmarshalRemoved(`["a"]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)

	_, err = unmarshalRemoved(`{}`)
	assert.Error(t, err)
}
