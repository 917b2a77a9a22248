package shared

import "strings"

// Digits strips everything but ASCII digits.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidTaxID reports whether s is a CPF (11 digits) or CNPJ (14 digits) with
// correct check digits. Punctuation is ignored.
func ValidTaxID(s string) bool {
	d := Digits(s)
	if len(d) != 11 && len(d) != 14 {
		return false
	}
	if strings.Count(d, d[:1]) == len(d) {
		return false
	}
	if len(d) == 11 {
		return d[9] == cpfDigit(d[:9], 10) && d[10] == cpfDigit(d[:10], 11)
	}
	first := []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	second := append([]int{6}, first...)
	return d[12] == cnpjDigit(d[:12], first) && d[13] == cnpjDigit(d[:13], second)
}

func cpfDigit(d string, weight int) byte {
	sum := 0
	for i := range d {
		sum += int(d[i]-'0') * (weight - i)
	}
	return byte('0' + (sum*10)%11%10)
}

func cnpjDigit(d string, weights []int) byte {
	sum := 0
	for i := range d {
		sum += int(d[i]-'0') * weights[i]
	}
	r := sum % 11
	if r < 2 {
		return '0'
	}
	return byte('0' + 11 - r)
}
