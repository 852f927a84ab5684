package precision

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// RoundingPolicyVersion identifies the scale and rounding rules applied by this package.
const RoundingPolicyVersion = "1.1.0"

// SemanticType classifies a numeric value for scale and rounding purposes.
type SemanticType string

const (
	Money       SemanticType = "money"
	Price       SemanticType = "price"
	FXRate      SemanticType = "fx_rate"
	Quantity    SemanticType = "quantity"
	Performance SemanticType = "performance"
	Risk        SemanticType = "risk"
)

var (
	// ErrInvalidNumeric is returned when a value cannot be read as a decimal.
	ErrInvalidNumeric = errors.New("invalid numeric value")
	// ErrInvalidScale is returned when an input carries more fractional digits than allowed.
	ErrInvalidScale = errors.New("invalid numeric scale")
	// ErrUnsupportedType is returned for an unknown semantic type.
	ErrUnsupportedType = errors.New("unsupported semantic type")
)

type rule struct {
	outputScale   int32
	maxInputScale int32
}

var rules = map[SemanticType]rule{
	Money:       {outputScale: 2, maxInputScale: 8},
	Price:       {outputScale: 6, maxInputScale: 12},
	FXRate:      {outputScale: 8, maxInputScale: 12},
	Quantity:    {outputScale: 6, maxInputScale: 12},
	Performance: {outputScale: 6, maxInputScale: 12},
	Risk:        {outputScale: 6, maxInputScale: 12},
}

// NumericError describes a value rejected by the policy.
type NumericError struct {
	Type  SemanticType
	Value any
	Err   error
	msg   string
}

func (e *NumericError) Error() string { return e.msg }

func (e *NumericError) Unwrap() error { return e.Err }

// SemanticTypes lists every type the policy covers, in declaration order.
func SemanticTypes() []SemanticType {
	return []SemanticType{Money, Price, FXRate, Quantity, Performance, Risk}
}

// ParseSemanticType maps a case-insensitive name to a SemanticType.
func ParseSemanticType(s string) (SemanticType, error) {
	t := SemanticType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := rules[t]; !ok {
		return "", &NumericError{Type: t, Value: s, Err: ErrUnsupportedType, msg: fmt.Sprintf("unsupported semantic type: %s", s)}
	}
	return t, nil
}

// OutputScale returns the canonical number of fractional digits for t.
func OutputScale(t SemanticType) (int32, error) {
	r, ok := rules[t]
	if !ok {
		return 0, unsupported(t)
	}
	return r.outputScale, nil
}

// MaxInputScale returns the largest accepted number of fractional digits for t.
func MaxInputScale(t SemanticType) (int32, error) {
	r, ok := rules[t]
	if !ok {
		return 0, unsupported(t)
	}
	return r.maxInputScale, nil
}

// Scale returns the number of fractional digits d carries.
func Scale(d decimal.Decimal) int32 {
	if exp := d.Exponent(); exp < 0 {
		return -exp
	}
	return 0
}

// ToDecimal converts a loosely typed value into an exact decimal. A nil value is zero.
func ToDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, nil
	case decimal.Decimal:
		return x, nil
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero, nil
		}
		return *x, nil
	case json.Number:
		return fromString(string(x))
	case string:
		return fromString(x)
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int32:
		return decimal.NewFromInt32(x), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case float32:
		return fromFloat(float64(x))
	case float64:
		return fromFloat(x)
	default:
		return decimal.Zero, fmt.Errorf("%w: %T", ErrInvalidNumeric, v)
	}
}

func fromString(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidNumeric, s)
	}
	return d, nil
}

func fromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidNumeric, f)
	}
	return decimal.NewFromFloat(f), nil
}

// Normalize converts v to a decimal and checks it against the input scale ceiling of t.
func Normalize(v any, t SemanticType) (decimal.Decimal, error) {
	r, ok := rules[t]
	if !ok {
		return decimal.Zero, unsupported(t)
	}
	d, err := ToDecimal(v)
	if err != nil {
		return decimal.Zero, &NumericError{
			Type:  t,
			Value: v,
			Err:   ErrInvalidNumeric,
			msg:   fmt.Sprintf("invalid %s value: %v", t, v),
		}
	}
	if scale := Scale(d); scale > r.maxInputScale {
		return decimal.Zero, &NumericError{
			Type:  t,
			Value: v,
			Err:   ErrInvalidScale,
			msg:   fmt.Sprintf("%s scale %d exceeds max %d", t, scale, r.maxInputScale),
		}
	}
	return d, nil
}

// Quantize normalizes v and rounds it half-to-even to the output scale of t.
func Quantize(v any, t SemanticType) (decimal.Decimal, error) {
	d, err := Normalize(v, t)
	if err != nil {
		return decimal.Zero, err
	}
	return round(d, rules[t].outputScale), nil
}

// round keeps exactly scale fractional digits so the textual form is canonical.
func round(d decimal.Decimal, scale int32) decimal.Decimal {
	return d.RoundBank(scale)
}

// QuantizeMoney rounds d to money scale.
func QuantizeMoney(d decimal.Decimal) decimal.Decimal { return round(d, rules[Money].outputScale) }

// QuantizePrice rounds d to price scale.
func QuantizePrice(d decimal.Decimal) decimal.Decimal { return round(d, rules[Price].outputScale) }

// QuantizeFXRate rounds d to fx rate scale.
func QuantizeFXRate(d decimal.Decimal) decimal.Decimal { return round(d, rules[FXRate].outputScale) }

// QuantizeQuantity rounds d to quantity scale.
func QuantizeQuantity(d decimal.Decimal) decimal.Decimal {
	return round(d, rules[Quantity].outputScale)
}

// QuantizePerformance rounds d to performance scale.
func QuantizePerformance(d decimal.Decimal) decimal.Decimal {
	return round(d, rules[Performance].outputScale)
}

// QuantizeRisk rounds d to risk scale.
func QuantizeRisk(d decimal.Decimal) decimal.Decimal { return round(d, rules[Risk].outputScale) }

// JSONNumber renders d as an exact JSON number, keeping its fractional digits.
func JSONNumber(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(Scale(d)))
}

func unsupported(t SemanticType) error {
	return &NumericError{Type: t, Err: ErrUnsupportedType, msg: fmt.Sprintf("unsupported semantic type: %s", t)}
}
