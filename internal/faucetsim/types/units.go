package types

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// Decimals - число десятичных знаков базовой единицы
const Decimals = 18

var (
	// Ether - одна единица в базовых единицах (10^18)
	Ether = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)

	ErrInvalidAmount = errors.New("invalid amount")
)

// ParseUnits переводит десятичную строку ("0.1", "10") в базовые единицы
// с заданным числом знаков. Отрицательные значения и лишние знаки - ошибка.
func ParseUnits(value string, decimals int) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" || strings.HasPrefix(value, "-") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	whole, frac, _ := strings.Cut(value, ".")
	if len(frac) > decimals {
		return nil, fmt.Errorf("%w: %q has more than %d decimals", ErrInvalidAmount, value, decimals)
	}
	if whole == "" {
		whole = "0"
	}
	digits := whole + frac + strings.Repeat("0", decimals-len(frac))
	result, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	return result, nil
}

// ParseEther = ParseUnits(value, 18)
func ParseEther(value string) (*big.Int, error) {
	return ParseUnits(value, Decimals)
}

// MustParseEther для констант в коде и тестах
func MustParseEther(value string) *big.Int {
	v, err := ParseEther(value)
	if err != nil {
		panic(err)
	}
	return v
}

// FormatUnits переводит базовые единицы в десятичную строку без хвостовых нулей
func FormatUnits(value *big.Int, decimals int) string {
	if value == nil {
		return "0"
	}
	sign := ""
	abs := new(big.Int).Set(value)
	if abs.Sign() < 0 {
		sign = "-"
		abs.Neg(abs)
	}
	base := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(abs, base, new(big.Int))
	if frac.Sign() == 0 {
		return sign + whole.String()
	}
	fs := frac.String()
	fs = strings.Repeat("0", decimals-len(fs)) + fs
	return sign + whole.String() + "." + strings.TrimRight(fs, "0")
}

func FormatEther(value *big.Int) string {
	return FormatUnits(value, Decimals)
}
