package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Paise is a monetary amount in minor units (paise for INR, cents for most
// other currencies). All price arithmetic in the system happens on this
// integer type; decimal values exist only at the API edge.
type Paise int64

// DefaultCurrency is applied when a checkout request omits the currency.
const DefaultCurrency = "INR"

// minorUnitExponent is the number of decimal places in a major unit.
const minorUnitExponent = 2

// ParsePrice converts a decimal price string (e.g. "29.90") into minor
// units. Rejects negative amounts and amounts with sub-minor-unit
// precision, since those cannot be represented exactly.
func ParsePrice(s string) (Paise, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, Invalid("money.parse", fmt.Sprintf("invalid amount: %q", s))
	}
	if d.IsNegative() {
		return 0, Invalid("money.parse", "amount must not be negative")
	}

	minor := d.Shift(minorUnitExponent)
	if !minor.IsInteger() {
		return 0, Invalid("money.parse", fmt.Sprintf("amount %q has more than %d decimal places", s, minorUnitExponent))
	}

	return Paise(minor.IntPart()), nil
}

// Decimal returns the amount in major units as an exact decimal.
func (p Paise) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(p)).Shift(-minorUnitExponent)
}

// String renders the amount in major units with two decimal places.
func (p Paise) String() string {
	return p.Decimal().StringFixed(minorUnitExponent)
}

// MarshalJSON renders the amount as a decimal string, e.g. "244.40".
// Clients never see raw minor units or binary floats.
func (p Paise) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// UnmarshalJSON accepts either a decimal string or a bare JSON number.
func (p *Paise) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParsePrice(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
