package availability

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RateConverter converts base-currency prices for display.
type RateConverter interface {
	// Convert returns ok=false when no rate is known for currency.
	Convert(amount float64, currency string) (float64, bool)
}

// StaticRates holds units of each currency per one unit of the base currency.
type StaticRates map[string]float64

// ParseRates reads "USD:1.08,GBP:0.85". An empty string yields no rates.
func ParseRates(s string) (StaticRates, error) {
	rates := StaticRates{}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		code, value, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("invalid rate %q: expected CODE:RATE", pair)
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || rate <= 0 {
			return nil, fmt.Errorf("invalid rate %q: must be a positive number", pair)
		}
		rates[strings.ToUpper(strings.TrimSpace(code))] = rate
	}
	return rates, nil
}

func (s StaticRates) Convert(amount float64, currency string) (float64, bool) {
	rate, ok := s[strings.ToUpper(currency)]
	if !ok {
		return 0, false
	}
	return math.Round(amount*rate*100) / 100, true
}
