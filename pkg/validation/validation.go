// Package validation builds the request validator with the domain tags
// registered on top of go-playground/validator.
package validation

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var (
	intlPhonePattern = regexp.MustCompile(`^\+\d{1,3}\d{8,15}$`)
	hhmmPattern      = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// New returns a validator with cpf, intlphone, isodate, hhmm and personname registered.
func New() *validator.Validate {
	v := validator.New()
	mustRegister(v, "cpf", func(fl validator.FieldLevel) bool { return ValidCPF(fl.Field().String()) })
	mustRegister(v, "intlphone", func(fl validator.FieldLevel) bool { return intlPhonePattern.MatchString(fl.Field().String()) })
	mustRegister(v, "isodate", func(fl validator.FieldLevel) bool { return ValidISODate(fl.Field().String()) })
	mustRegister(v, "hhmm", func(fl validator.FieldLevel) bool { return hhmmPattern.MatchString(fl.Field().String()) })
	mustRegister(v, "personname", func(fl validator.FieldLevel) bool { return ValidPersonName(fl.Field().String()) })
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// ValidCPF checks length, repeated digits and both check digits. Punctuation is ignored.
func ValidCPF(raw string) bool {
	digits := make([]int, 0, 11)
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	if len(digits) != 11 {
		return false
	}
	same := true
	for _, d := range digits[1:] {
		if d != digits[0] {
			same = false
			break
		}
	}
	if same {
		return false
	}
	return cpfDigit(digits[:9], 10) == digits[9] && cpfDigit(digits[:10], 11) == digits[10]
}

func cpfDigit(digits []int, weight int) int {
	sum := 0
	for i, d := range digits {
		sum += d * (weight - i)
	}
	rem := (sum * 10) % 11
	if rem == 10 {
		return 0
	}
	return rem
}

// CleanCPF keeps only the digits of a CPF.
func CleanCPF(raw string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
}

// ValidISODate accepts YYYY-MM-DD calendar dates.
func ValidISODate(raw string) bool {
	_, err := time.Parse("2006-01-02", raw)
	return err == nil
}

// ValidPersonName accepts 2 to 100 letters and spaces after trimming.
func ValidPersonName(raw string) bool {
	name := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(name)
	if n < 2 || n > 100 {
		return false
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && r != ' ' && r != '\'' && r != '-' && !unicode.Is(unicode.Mn, r) {
			return false
		}
	}
	return true
}
