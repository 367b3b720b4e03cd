package service

import (
	"math/rand/v2"
	"strings"
	"sync"

	"country-service/internal/domain"

	"github.com/shopspring/decimal"
)

// Multipliers are drawn uniformly from [MultiplierMin, MultiplierMin+MultiplierSpan).
const (
	MultiplierMin  = 1000.0
	MultiplierSpan = 1001.0
)

// MultiplierSource supplies the per-record GDP simulation multiplier.
type MultiplierSource interface {
	Multiplier() float64
}

type RandomMultiplier struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomMultiplier() *RandomMultiplier {
	return NewSeededMultiplier(rand.Uint64())
}

// NewSeededMultiplier gives a reproducible sequence.
func NewSeededMultiplier(seed uint64) *RandomMultiplier {
	return &RandomMultiplier{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (m *RandomMultiplier) Multiplier() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MultiplierMin + m.rng.Float64()*MultiplierSpan
}

// FixedMultiplier always returns the same value.
type FixedMultiplier float64

func (f FixedMultiplier) Multiplier() float64 { return float64(f) }

// RoundRate rounds an exchange rate to two places, half up.
func RoundRate(rate float64) decimal.Decimal {
	return decimal.NewFromFloat(rate).Round(2)
}

// EstimateGDP is population * multiplier / rate rounded to a whole number, half up.
// The unrounded rate is used.
func EstimateGDP(population int64, rate, multiplier float64) decimal.Decimal {
	return decimal.NewFromInt(population).
		Mul(decimal.NewFromFloat(multiplier)).
		Div(decimal.NewFromFloat(rate)).
		Round(0)
}

// applyCurrency sets currency code, exchange rate and estimated GDP from the first descriptor.
//
//	no descriptor          -> code and rate cleared, GDP 0
//	code missing in rates  -> code set, rate and GDP absent
//	rate found             -> code, rate (2dp) and GDP set
func applyCurrency(c *domain.Country, currencies []domain.ExternalCurrency, rates map[string]float64, mult MultiplierSource) {
	code := ""
	if len(currencies) > 0 {
		code = strings.ToUpper(strings.TrimSpace(currencies[0].Code))
	}

	if code == "" {
		c.CurrencyCode = nil
		c.ExchangeRate = decimal.NullDecimal{}
		c.EstimatedGDP = decimal.NewNullDecimal(decimal.Zero)
		return
	}

	c.CurrencyCode = &code
	rate, ok := rates[code]
	if !ok || rate <= 0 {
		c.ExchangeRate = decimal.NullDecimal{}
		c.EstimatedGDP = decimal.NullDecimal{}
		return
	}

	c.ExchangeRate = decimal.NewNullDecimal(RoundRate(rate))
	c.EstimatedGDP = decimal.NewNullDecimal(EstimateGDP(c.Population, rate, mult.Multiplier()))
}
