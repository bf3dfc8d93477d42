package page

import (
	"errors"
	"fmt"
)

const (
	minDigit  = 'a'
	maxDigit  = 'z'
	digitBase = maxDigit - minDigit + 1
)

// ErrInvalidOrderKey 排序键非法或区间为空
var ErrInvalidOrderKey = errors.New("invalid order key")

// Midpoint 生成严格位于 prev 与 next 之间的排序键（a-z 小数位）
// prev 为空表示开头，next 为空表示末尾；键不以 'a' 结尾，因此总能在两键之间插入
func Midpoint(prev, next string) (string, error) {
	if err := validateKey(prev); err != nil {
		return "", err
	}
	if err := validateKey(next); err != nil {
		return "", err
	}
	if next != "" && prev >= next {
		return "", fmt.Errorf("%w: %q >= %q", ErrInvalidOrderKey, prev, next)
	}
	return midpoint(prev, next, next != ""), nil
}

func validateKey(k string) error {
	for i := 0; i < len(k); i++ {
		if k[i] < minDigit || k[i] > maxDigit {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidOrderKey, k, k[i])
		}
	}
	if k != "" && k[len(k)-1] == minDigit {
		return fmt.Errorf("%w: %q has a trailing %q", ErrInvalidOrderKey, k, minDigit)
	}
	return nil
}

// midpoint 中 bounded=false 表示没有上界
func midpoint(a, b string, bounded bool) string {
	if bounded {
		n := 0
		for n < len(b) && digitAt(a, n) == b[n] {
			n++
		}
		if n > 0 {
			rest := ""
			if n < len(a) {
				rest = a[n:]
			}
			return b[:n] + midpoint(rest, b[n:], true)
		}
	}

	da := 0
	if a != "" {
		da = int(a[0] - minDigit)
	}
	db := int(digitBase)
	if bounded {
		db = int(b[0] - minDigit)
	}

	if db-da > 1 {
		return string(rune(minDigit + (da+db+1)/2))
	}
	if bounded && len(b) > 1 {
		return b[:1]
	}
	rest := ""
	if a != "" {
		rest = a[1:]
	}
	return string(rune(minDigit+da)) + midpoint(rest, "", false)
}

func digitAt(s string, i int) byte {
	if i < len(s) {
		return s[i]
	}
	return minDigit
}
