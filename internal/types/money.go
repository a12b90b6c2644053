// README: Common money value object used across modules.
package types

// Money is an amount in cents. A deployment settles in a single currency;
// arithmetic keeps the first non-empty currency it sees.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func (m Money) Add(other Money) Money {
	cur := m.Currency
	if cur == "" {
		cur = other.Currency
	}
	return Money{Amount: m.Amount + other.Amount, Currency: cur}
}

func (m Money) Sub(other Money) Money {
	cur := m.Currency
	if cur == "" {
		cur = other.Currency
	}
	return Money{Amount: m.Amount - other.Amount, Currency: cur}
}

func (m Money) IsNegative() bool { return m.Amount < 0 }

func (m Money) IsPositive() bool { return m.Amount > 0 }
