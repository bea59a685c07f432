package orders

import (
	"fmt"
	"math/rand"
	"regexp"
	"time"
)

var orderNumberRe = regexp.MustCompile(`^IP-\d{4}-\d{6}$`)

// NewOrderNumber mints a customer-facing order number, IP-<year>-<6 digits>.
// The suffix folds a millisecond-derived component into a random draw.
// Uniqueness is enforced by the orders table; callers retry on collision.
func NewOrderNumber(now time.Time, rng *rand.Rand) string {
	var draw int
	if rng != nil {
		draw = rng.Intn(1000000)
	} else {
		draw = rand.Intn(1000000)
	}
	derived := int(now.UnixNano()/int64(time.Millisecond)) % 1000000
	return fmt.Sprintf("IP-%d-%06d", now.UTC().Year(), (draw+derived)%1000000)
}

// IsOrderNumber reports whether the input looks like a minted order number.
func IsOrderNumber(value string) bool {
	return orderNumberRe.MatchString(value)
}
