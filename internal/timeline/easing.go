package timeline

import "github.com/ivlev/tinydisplay/internal/action"

// travel returns the signed distance covered after k of n steps along an axis
// whose total signed travel is d. Integer arithmetic only; k >= n yields d.
func travel(d, k, n, step int, e action.Easing) int {
	if d == 0 || k <= 0 {
		return 0
	}
	sign := 1
	if d < 0 {
		sign, d = -1, -d
	}
	if k >= n {
		return sign * d
	}

	var t int64
	a, u, nn := int64(d), int64(k), int64(n)
	switch e {
	case action.EaseIn:
		t = a * u * u / (nn * nn)
	case action.EaseOut:
		r := nn - u
		t = a - a*r*r/(nn*nn)
	case action.EaseInOut:
		if 2*u < nn {
			t = 2 * a * u * u / (nn * nn)
		} else {
			r := nn - u
			t = a - 2*a*r*r/(nn*nn)
		}
	default:
		t = min(int64(k)*int64(step), a)
	}
	return sign * int(min(max(t, 0), a))
}
