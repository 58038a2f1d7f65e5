package order

import (
	"crypto/rand"
	"fmt"
	"time"
)

// Ambiguous characters (0/O, 1/I/L) are excluded so staff can read the
// number back over the phone.
const numberCharset = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

// NewOrderNumber returns an externally visible order number such as
// CS-20260831-7KQ2MX. The random suffix keeps numbers unguessable from the
// internal aggregate id or from each other.
func NewOrderNumber(now time.Time) string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(fmt.Sprintf("order number entropy: %v", err))
	}
	for i, b := range buf {
		buf[i] = numberCharset[int(b)%len(numberCharset)]
	}
	return fmt.Sprintf("CS-%s-%s", now.Format("20060102"), string(buf))
}
