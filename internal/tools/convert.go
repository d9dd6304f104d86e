package tools

import (
	"fmt"
	"math"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// BindArgs maps keyword arguments onto the positional parameters of fnType.
// Arguments arrive JSON-shaped (float64 numbers, []any, map[string]any) and
// are converted to the declared parameter types.
func BindArgs(params []Param, fnType reflect.Type, args map[string]any) ([]reflect.Value, error) {
	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: target is %s, not a function", ErrInvalidArguments, fnType.Kind())
	}
	if fnType.NumIn() != len(params) {
		return nil, fmt.Errorf("%w: function takes %d parameters, definition lists %d",
			ErrInvalidArguments, fnType.NumIn(), len(params))
	}
	for key := range args {
		if !hasParam(params, key) {
			return nil, fmt.Errorf("%w: unexpected argument %q", ErrInvalidArguments, key)
		}
	}

	in := make([]reflect.Value, len(params))
	for i, p := range params {
		raw, ok := args[p.Name]
		if !ok {
			return nil, fmt.Errorf("%w: missing argument %q", ErrInvalidArguments, p.Name)
		}
		v, err := ConvertArg(raw, fnType.In(i))
		if err != nil {
			return nil, fmt.Errorf("%w: argument %q: %v", ErrInvalidArguments, p.Name, err)
		}
		in[i] = v
	}
	return in, nil
}

// ConvertArg converts a JSON-shaped value to target.
func ConvertArg(value any, target reflect.Type) (reflect.Value, error) {
	out := reflect.New(target).Elem()

	switch target.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if err := rejectFraction(value); err != nil {
			return out, err
		}
		n, err := cast.ToInt64E(value)
		if err != nil {
			return out, err
		}
		if out.OverflowInt(n) {
			return out, fmt.Errorf("%d overflows %s", n, target)
		}
		out.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if err := rejectFraction(value); err != nil {
			return out, err
		}
		n, err := cast.ToUint64E(value)
		if err != nil {
			return out, err
		}
		if out.OverflowUint(n) {
			return out, fmt.Errorf("%d overflows %s", n, target)
		}
		out.SetUint(n)

	case reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(value)
		if err != nil {
			return out, err
		}
		out.SetFloat(f)

	case reflect.String:
		s, err := cast.ToStringE(value)
		if err != nil {
			return out, err
		}
		out.SetString(s)

	case reflect.Bool:
		b, err := cast.ToBoolE(value)
		if err != nil {
			return out, err
		}
		out.SetBool(b)

	case reflect.Interface:
		if value == nil {
			return out, nil
		}
		v := reflect.ValueOf(value)
		if !v.Type().AssignableTo(target) {
			return out, fmt.Errorf("%T does not satisfy %s", value, target)
		}
		out.Set(v)

	default:
		ptr := reflect.New(target)
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           ptr.Interface(),
		})
		if err != nil {
			return out, err
		}
		if err := dec.Decode(value); err != nil {
			return out, err
		}
		out = ptr.Elem()
	}
	return out, nil
}

// UnpackResults turns a function's return values into a single result. A
// trailing error return is surfaced as the error; several remaining values
// are returned as []any.
func UnpackResults(out []reflect.Value, fnType reflect.Type) (any, error) {
	if n := fnType.NumOut(); n > 0 && fnType.Out(n-1) == errorType {
		if last := out[n-1]; last.IsValid() && !last.IsNil() {
			if err, ok := last.Interface().(error); ok {
				return nil, err
			}
			return nil, fmt.Errorf("%v", last.Interface())
		}
		out = out[:n-1]
	}

	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return valueOf(out[0]), nil
	default:
		vals := make([]any, len(out))
		for i, v := range out {
			vals[i] = valueOf(v)
		}
		return vals, nil
	}
}

func valueOf(v reflect.Value) any {
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}
	return v.Interface()
}

func rejectFraction(value any) error {
	var f float64
	switch x := value.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	default:
		return nil
	}
	if f != math.Trunc(f) {
		return fmt.Errorf("%v is not an integer", value)
	}
	return nil
}

func hasParam(params []Param, name string) bool {
	for _, p := range params {
		if p.Name == name {
			return true
		}
	}
	return false
}
