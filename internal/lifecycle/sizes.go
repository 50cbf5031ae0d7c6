package lifecycle

import (
	"errors"
	"fmt"
	"strings"
)

var ErrSizesIncomplete = errors.New("sizes incomplete")

// SizedLine is the part of a rental item the size flow cares about.
type SizedLine struct {
	ItemID      int
	ProductType string
	Quantity    int
	Size        string
}

// RequiresSize reports whether every unit of the product type needs a size.
func RequiresSize(productType string) bool {
	return productType == "wetsuit" || productType == "fins"
}

// SplitSizes expands a comma-joined size field into exactly quantity slots.
func SplitSizes(size string, quantity int) []string {
	if quantity < 0 {
		quantity = 0
	}
	slots := make([]string, quantity)
	if size == "" {
		return slots
	}
	for i, s := range strings.Split(size, ",") {
		if i >= quantity {
			break
		}
		slots[i] = strings.TrimSpace(s)
	}
	return slots
}

// JoinSizes is the inverse of SplitSizes.
func JoinSizes(slots []string) string {
	trimmed := make([]string, len(slots))
	for i, s := range slots {
		trimmed[i] = strings.TrimSpace(s)
	}
	return strings.Join(trimmed, ",")
}

// MissingSlots lists "item:slot" positions (1-based slot) still lacking a size.
func MissingSlots(lines []SizedLine) []string {
	var missing []string
	for _, l := range lines {
		if !RequiresSize(l.ProductType) {
			continue
		}
		for i, s := range SplitSizes(l.Size, l.Quantity) {
			if s == "" {
				missing = append(missing, fmt.Sprintf("%d:%d", l.ItemID, i+1))
			}
		}
	}
	return missing
}

// SizesComplete returns ErrSizesIncomplete when any size slot is empty.
func SizesComplete(lines []SizedLine) error {
	if missing := MissingSlots(lines); len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrSizesIncomplete, strings.Join(missing, ", "))
	}
	return nil
}
