// Package conv formats integers into caller-owned buffers. MCU builds use
// it where fmt would drag in reflection and allocate on every call.
package conv

// Itoa writes the base-10 form of n into buf and returns the used tail.
// buf needs 20 bytes to hold any int64.
func Itoa(buf []byte, n int64) []byte {
	if n < 0 {
		s := Utoa(buf, uint64(-n))
		if len(s) == len(buf) {
			return s
		}
		i := len(buf) - len(s) - 1
		buf[i] = '-'
		return buf[i:]
	}
	return Utoa(buf, uint64(n))
}

// Utoa writes the base-10 form of n into buf and returns the used tail.
func Utoa(buf []byte, n uint64) []byte {
	if len(buf) == 0 {
		return buf[:0]
	}
	i := len(buf)
	if n == 0 {
		i--
		buf[i] = '0'
		return buf[i:]
	}
	for n > 0 && i > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return buf[i:]
}
