package filters

import (
	"math"

	"github.com/liquidil/liquidil/internal/value"
)

func numResult(isInt bool, f float64) value.Value {
	if isInt {
		return value.Int(int64(f))
	}
	return value.Float(f)
}

func registerNumeric(r Registry) {
	r["plus"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		a, ok := value.AsFloat(in)
		if !ok || len(args) < 1 {
			return nil, argErr("plus", "non-numeric operand")
		}
		b, ok := value.AsFloat(args[0])
		if !ok {
			return nil, argErr("plus", "non-numeric operand")
		}
		return numResult(value.IsIntLike(in) && value.IsIntLike(args[0]), a+b), nil
	}
	r["minus"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		a, ok := value.AsFloat(in)
		if !ok || len(args) < 1 {
			return nil, argErr("minus", "non-numeric operand")
		}
		b, ok := value.AsFloat(args[0])
		if !ok {
			return nil, argErr("minus", "non-numeric operand")
		}
		return numResult(value.IsIntLike(in) && value.IsIntLike(args[0]), a-b), nil
	}
	r["times"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		a, ok := value.AsFloat(in)
		if !ok || len(args) < 1 {
			return nil, argErr("times", "non-numeric operand")
		}
		b, ok := value.AsFloat(args[0])
		if !ok {
			return nil, argErr("times", "non-numeric operand")
		}
		return numResult(value.IsIntLike(in) && value.IsIntLike(args[0]), a*b), nil
	}
	r["divided_by"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		a, ok := value.AsFloat(in)
		if !ok || len(args) < 1 {
			return nil, argErr("divided_by", "non-numeric operand")
		}
		b, ok := value.AsFloat(args[0])
		if !ok || b == 0 {
			return nil, argErr("divided_by", "division by zero")
		}
		if value.IsIntLike(in) && value.IsIntLike(args[0]) {
			return value.Int(int64(a) / int64(b)), nil
		}
		return value.Float(a / b), nil
	}
	r["modulo"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		a, ok := value.AsFloat(in)
		if !ok || len(args) < 1 {
			return nil, argErr("modulo", "non-numeric operand")
		}
		b, ok := value.AsFloat(args[0])
		if !ok || b == 0 {
			return nil, argErr("modulo", "division by zero")
		}
		if value.IsIntLike(in) && value.IsIntLike(args[0]) {
			return value.Int(int64(a) % int64(b)), nil
		}
		return value.Float(math.Mod(a, b)), nil
	}
	r["abs"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		a, ok := value.AsFloat(in)
		if !ok {
			return nil, argErr("abs", "non-numeric operand")
		}
		return numResult(value.IsIntLike(in), math.Abs(a)), nil
	}
	r["ceil"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		a, ok := value.AsFloat(in)
		if !ok {
			return nil, argErr("ceil", "non-numeric operand")
		}
		return value.Int(int64(math.Ceil(a))), nil
	}
	r["floor"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		a, ok := value.AsFloat(in)
		if !ok {
			return nil, argErr("floor", "non-numeric operand")
		}
		return value.Int(int64(math.Floor(a))), nil
	}
	r["round"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		a, ok := value.AsFloat(in)
		if !ok {
			return nil, argErr("round", "non-numeric operand")
		}
		if len(args) == 0 {
			return value.Int(int64(math.Round(a))), nil
		}
		prec, _ := value.AsInt(args[0])
		mult := math.Pow(10, float64(prec))
		return value.Float(math.Round(a*mult) / mult), nil
	}
	r["at_least"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		a, ok := value.AsFloat(in)
		if !ok || len(args) < 1 {
			return nil, argErr("at_least", "non-numeric operand")
		}
		b, ok := value.AsFloat(args[0])
		if !ok {
			return nil, argErr("at_least", "non-numeric operand")
		}
		return numResult(value.IsIntLike(in) && value.IsIntLike(args[0]), math.Max(a, b)), nil
	}
	r["at_most"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		a, ok := value.AsFloat(in)
		if !ok || len(args) < 1 {
			return nil, argErr("at_most", "non-numeric operand")
		}
		b, ok := value.AsFloat(args[0])
		if !ok {
			return nil, argErr("at_most", "non-numeric operand")
		}
		return numResult(value.IsIntLike(in) && value.IsIntLike(args[0]), math.Min(a, b)), nil
	}
}
