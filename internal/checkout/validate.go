package checkout

import (
	"fmt"
	"math"

	"github.com/meridian-pos/meridian-pos/internal/catalog"
)

const (
	// MaxCartLines caps cart size to keep lock footprints bounded.
	MaxCartLines = 1000
	// MaxLineQuantity caps a single line's quantity.
	MaxLineQuantity = 10000
	// TotalTolerance is the absolute money tolerance when comparing a
	// declared total against the recomputed one.
	TotalTolerance = 0.01
)

// ValidateInput runs the structural validation pipeline over a cart. It does
// not touch the database; stock and catalog checks happen under lock in the
// engine. Violations are collected, not fail-fast, so the register gets the
// whole picture in one round trip.
func ValidateInput(in CheckoutInput) error {
	var violations []string

	if len(in.Lines) == 0 {
		violations = append(violations, "cart is empty")
	}
	if len(in.Lines) > MaxCartLines {
		violations = append(violations, fmt.Sprintf("cart exceeds %d lines", MaxCartLines))
	}
	if !in.PaymentMethod.Valid() {
		violations = append(violations, fmt.Sprintf("unknown payment method %q", in.PaymentMethod))
	}

	for i, line := range in.Lines {
		n := i + 1
		if line.Quantity <= 0 {
			violations = append(violations, fmt.Sprintf("line %d: quantity must be positive", n))
		}
		if line.Quantity > MaxLineQuantity {
			violations = append(violations, fmt.Sprintf("line %d: quantity exceeds %d", n, MaxLineQuantity))
		}
		if line.UnitPrice < 0 {
			violations = append(violations, fmt.Sprintf("line %d: unit price must not be negative", n))
		}
	}

	if in.DeclaredTotal != nil {
		var computed float64
		for _, line := range in.Lines {
			computed += line.UnitPrice * line.Quantity
		}
		if math.Abs(computed-*in.DeclaredTotal) > TotalTolerance {
			violations = append(violations, fmt.Sprintf("declared total %.2f does not match line total %.2f", *in.DeclaredTotal, computed))
		}
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// CheckQuantityKind enforces the per-kind quantity rule: kinds that sell
// whole units reject fractional quantities. Run again under lock against the
// fresh catalog row, since the kind on the register may be stale.
func CheckQuantityKind(kind catalog.Kind, qty float64) error {
	if kind.AllowsFractionalQuantity() {
		return nil
	}
	if qty != math.Trunc(qty) {
		return &ValidationError{Violations: []string{
			fmt.Sprintf("%s products sell whole units, got quantity %g", kind, qty),
		}}
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
