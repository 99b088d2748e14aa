package value

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// decimalLexical is the xsd:decimal lexical space. apd accepts exponents,
// NaN and infinities, which xsd:decimal does not.
var decimalLexical = regexp.MustCompile(`^[+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)$`)

// integerLexical is the xsd:integer lexical space.
var integerLexical = regexp.MustCompile(`^[+-]?[0-9]+$`)

// Number is an arbitrary-precision decimal number.
// Numbers are immutable; the zero value is 0.
type Number struct {
	d *apd.Decimal
}

// NewNumber creates the number coeff * 10^exp.
func NewNumber(coeff int64, exp int32) Number {
	return Number{d: apd.New(coeff, exp)}
}

// NumberFromInt64 creates an integral number.
func NumberFromInt64(n int64) Number {
	return NewNumber(n, 0)
}

// ParseDecimal parses the xsd:decimal lexical form s.
func ParseDecimal(s string) (Number, error) {
	if !decimalLexical.MatchString(s) {
		return Number{}, fmt.Errorf("invalid xsd:decimal lexical form %q", s)
	}
	return parseNumber(s)
}

// ParseInteger parses the xsd:integer lexical form s.
func ParseInteger(s string) (Number, error) {
	if !integerLexical.MatchString(s) {
		return Number{}, fmt.Errorf("invalid xsd:integer lexical form %q", s)
	}
	return parseNumber(s)
}

func parseNumber(s string) (Number, error) {
	// apd rejects "1." and ".5" forms allowed by xsd:decimal.
	if s[len(s)-1] == '.' {
		s += "0"
	}
	if n := len(s); n >= 1 && (s[0] == '.' || (n >= 2 && (s[0] == '+' || s[0] == '-') && s[1] == '.')) {
		if s[0] == '.' {
			s = "0" + s
		} else {
			s = s[:1] + "0" + s[1:]
		}
	}
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return Number{}, fmt.Errorf("parse number %q: %w", s, err)
	}
	return Number{d: d}, nil
}

func (n Number) decimal() *apd.Decimal {
	if n.d == nil {
		return apd.New(0, 0)
	}
	return n.d
}

// Cmp compares numerically: -1, 0 or +1.
func (n Number) Cmp(other Number) int {
	return n.decimal().Cmp(other.decimal())
}

// Compare is Cmp with ties broken by the decimal text, so that 3.5 sorts
// before 3.50. Unlike Cmp it is a total order over distinct Numbers.
func (n Number) Compare(other Number) int {
	if c := n.Cmp(other); c != 0 {
		return c
	}
	return strings.Compare(n.String(), other.String())
}

// Sign returns -1, 0 or +1.
func (n Number) Sign() int {
	return n.decimal().Sign()
}

// IsInteger reports whether n has no fractional part.
func (n Number) IsInteger() bool {
	var integ, frac apd.Decimal
	n.decimal().Modf(&integ, &frac)
	return frac.IsZero()
}

// Int64 returns n as an int64 if it is integral and in range.
func (n Number) Int64() (int64, error) {
	if !n.IsInteger() {
		return 0, fmt.Errorf("%s is not an integer", n)
	}
	var integ, frac apd.Decimal
	n.decimal().Modf(&integ, &frac)
	return integ.Int64()
}

// String returns the plain decimal notation of n, without exponent.
func (n Number) String() string {
	return n.decimal().Text('f')
}
