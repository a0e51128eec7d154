package cart

import (
	"strconv"
	"strings"
)

const DefaultQuantity = 1

// ParseQuantity reads a requested quantity. Anything that is not an integer,
// including empty input, becomes DefaultQuantity. Zero and negative values
// pass through; SetQuantity treats them as removal.
func ParseQuantity(raw string) int {
	q, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return DefaultQuantity
	}
	return q
}
