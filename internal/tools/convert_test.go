package tools

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertArg(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		target  reflect.Type
		want    any
		wantErr bool
	}{
		{"float to int", float64(7), reflect.TypeOf(0), 7, false},
		{"fraction to int", 7.5, reflect.TypeOf(0), nil, true},
		{"overflow int8", float64(300), reflect.TypeOf(int8(0)), nil, true},
		{"negative to uint", float64(-1), reflect.TypeOf(uint(0)), nil, true},
		{"int to float", 2, reflect.TypeOf(0.0), 2.0, false},
		{"string", "hi", reflect.TypeOf(""), "hi", false},
		{"bool", true, reflect.TypeOf(false), true, false},
		{"slice", []any{float64(1), float64(2)}, reflect.TypeOf([]int{}), []int{1, 2}, false},
		{"map", map[string]any{"k": "v"}, reflect.TypeOf(map[string]string{}), map[string]string{"k": "v"}, false},
		{"any keeps value", []any{"x"}, reflect.TypeOf((*any)(nil)).Elem(), []any{"x"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ConvertArg(tt.value, tt.target)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Interface())
		})
	}
}

func TestBindArgs(t *testing.T) {
	fn := func(a, b int) int { return a + b }
	params := []Param{{Name: "a", Type: "int"}, {Name: "b", Type: "int"}}
	fnType := reflect.TypeOf(fn)

	in, err := BindArgs(params, fnType, map[string]any{"b": float64(4), "a": float64(3)})
	require.NoError(t, err)
	out := reflect.ValueOf(fn).Call(in)
	assert.Equal(t, 7, out[0].Interface())

	_, err = BindArgs(params, fnType, map[string]any{"a": 1})
	assert.True(t, errors.Is(err, ErrInvalidArguments))

	_, err = BindArgs(params, fnType, map[string]any{"a": 1, "b": 2, "c": 3})
	assert.True(t, errors.Is(err, ErrInvalidArguments))

	_, err = BindArgs(params[:1], fnType, map[string]any{"a": 1})
	assert.Error(t, err)
}

func TestUnpackResults(t *testing.T) {
	boom := errors.New("boom")

	single := func() int { return 1 }
	withErr := func() (string, error) { return "ok", nil }
	failing := func() (string, error) { return "", boom }
	multi := func() (int, string) { return 1, "a" }
	none := func() {}

	call := func(fn any) (any, error) {
		v := reflect.ValueOf(fn)
		return UnpackResults(v.Call(nil), v.Type())
	}

	got, err := call(single)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	got, err = call(withErr)
	require.NoError(t, err)
	assert.Equal(t, "ok", got)

	_, err = call(failing)
	assert.ErrorIs(t, err, boom)

	got, err = call(multi)
	require.NoError(t, err)
	assert.Equal(t, []any{1, "a"}, got)

	got, err = call(none)
	require.NoError(t, err)
	assert.Nil(t, got)
}
