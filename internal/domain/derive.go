package domain

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"
)

var (
	slugStrip   = regexp.MustCompile(`[^a-z0-9 -]`)
	slugSpaces  = regexp.MustCompile(`\s+`)
	slugSqueeze = regexp.MustCompile(`-+`)
)

// Slugify derives a URL-safe identifier from a human-readable name:
// lowercase, drop everything outside [a-z0-9 -], spaces to dashes, runs of
// dashes collapsed. Slugs are derived once, on first save, and never
// regenerated afterwards even if the name changes.
func Slugify(name string) string {
	s := strings.ToLower(name)
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	s = slugSqueeze.ReplaceAllString(s, "-")
	return s
}

const skuAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenerateSKU produces a unique-enough inventory code of the form
// SKU-<epoch-millis>-<9 base36 chars> for products submitted without one.
func GenerateSKU(now time.Time) string {
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = skuAlphabet[rand.Intn(len(skuAlphabet))]
	}
	return fmt.Sprintf("SKU-%d-%s", now.UnixMilli(), suffix)
}

// FormatOrderNumber builds ORD-<epoch-millis>-<seq zero-padded to 6>.
// The sequence comes from a count of existing orders taken just before the
// insert; two concurrent saves can read the same count and, within the same
// millisecond, produce identical numbers. That count-then-format race is a
// known weakness of the scheme and is deliberately preserved.
func FormatOrderNumber(now time.Time, seq int64) string {
	return fmt.Sprintf("ORD-%d-%06d", now.UnixMilli(), seq)
}

// ComputeTotals recomputes every line total, the subtotal and the grand
// total from the order's current items. It runs on every save and
// unconditionally overwrites whatever was stored, so repeated saves are
// idempotent. An order with zero items yields subtotal 0 and
// total = tax + shipping - discount; a negative total is not rejected.
func (o *Order) ComputeTotals() {
	o.Subtotal = 0
	for i := range o.Items {
		o.Items[i].Total = o.Items[i].Price * float64(o.Items[i].Quantity)
		o.Subtotal += o.Items[i].Total
	}
	o.Total = o.Subtotal + o.TaxAmount + o.ShippingAmount - o.DiscountAmount
}

// ApplyReviewStats recomputes AverageRating and ReviewCount from the
// approved reviews. When the product has reviews but none are approved the
// previous values are left alone, matching how the stats were always
// maintained.
func (p *Product) ApplyReviewStats() {
	if len(p.Reviews) == 0 {
		return
	}
	var sum, n int
	for _, r := range p.Reviews {
		if r.IsApproved {
			sum += r.Rating
			n++
		}
	}
	if n == 0 {
		return
	}
	p.AverageRating = float64(sum) / float64(n)
	p.ReviewCount = n
}

// ParsePeriod maps an analytics period token to a day count. Unknown tokens
// fall back to 30 days, mirroring the default period.
func ParsePeriod(period string) int {
	switch period {
	case "7d":
		return 7
	case "90d":
		return 90
	case "1y":
		return 365
	default:
		return 30
	}
}
