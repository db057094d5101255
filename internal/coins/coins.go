// Package coins implements greedy change-making over a denomination set.
package coins

import (
	"fmt"
	"sort"

	"github.com/go-faster/errors"
)

// ErrChangeNotRepresentable is returned when an amount cannot be split exactly
// into the available denominations.
var ErrChangeNotRepresentable = errors.New("no exact change possible")

// DefaultSet holds 1€, 50ct, 20ct, 10ct and 5ct.
var DefaultSet = []int64{5, 10, 20, 50, 100}

// Descending returns a deduplicated copy of set sorted largest first.
func Descending(set []int64) []int64 {
	out := make([]int64, 0, len(set))
	seen := make(map[int64]struct{}, len(set))
	for _, c := range set {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] > out[j] })
	return out
}

// ToCoins splits amountCt into coins from set, largest denomination first.
//
// The greedy pass is exact and minimal only for canonical coin systems such as
// the default euro set. For other sets it may fail or return more coins than
// necessary even when an exact split exists. Non-positive denominations are
// skipped. A zero amount yields an empty slice.
func ToCoins(amountCt int64, set []int64) ([]int64, error) {
	result := make([]int64, 0)
	rest := amountCt
	for _, c := range Descending(set) {
		if c <= 0 || rest <= 0 {
			continue
		}
		n := rest / c
		for i := int64(0); i < n; i++ {
			result = append(result, c)
		}
		rest %= c
	}
	if rest != 0 {
		return nil, ErrChangeNotRepresentable
	}
	return result, nil
}

// Sum adds up coin values.
func Sum(coins []int64) int64 {
	var s int64
	for _, c := range coins {
		s += c
	}
	return s
}

// Pretty renders coins for display: whole euros as "N€", the rest as "Nct".
func Pretty(coins []int64) []string {
	out := make([]string, 0, len(coins))
	for _, c := range coins {
		if c >= 100 {
			out = append(out, fmt.Sprintf("%d€", c/100))
			continue
		}
		out = append(out, fmt.Sprintf("%dct", c))
	}
	return out
}
