package checkout

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/meridian-pos/meridian-pos/internal/catalog"
	"github.com/meridian-pos/meridian-pos/internal/sales"
)

func validInput() CheckoutInput {
	return CheckoutInput{
		TenantID:      uuid.New(),
		PaymentMethod: sales.PaymentCash,
		Lines: []CartLine{
			{ProductID: uuid.New(), Quantity: 2, UnitPrice: 10},
		},
	}
}

func TestValidateInputAcceptsValidCart(t *testing.T) {
	require.NoError(t, ValidateInput(validInput()))
}

func TestValidateInputEmptyCart(t *testing.T) {
	in := validInput()
	in.Lines = nil
	err := ValidateInput(in)
	require.ErrorIs(t, err, ErrInvalidSale)
}

func TestValidateInputLineCap(t *testing.T) {
	in := validInput()
	in.Lines = make([]CartLine, MaxCartLines+1)
	for i := range in.Lines {
		in.Lines[i] = CartLine{ProductID: uuid.New(), Quantity: 1, UnitPrice: 1}
	}
	err := ValidateInput(in)
	require.ErrorIs(t, err, ErrInvalidSale)

	in.Lines = in.Lines[:MaxCartLines]
	require.NoError(t, ValidateInput(in))
}

func TestValidateInputUnknownPaymentMethod(t *testing.T) {
	in := validInput()
	in.PaymentMethod = "barter"
	require.ErrorIs(t, ValidateInput(in), ErrInvalidSale)
}

func TestValidateInputCollectsAllViolations(t *testing.T) {
	in := validInput()
	in.Lines = []CartLine{
		{ProductID: uuid.New(), Quantity: 0, UnitPrice: 5},
		{ProductID: uuid.New(), Quantity: -2, UnitPrice: -1},
		{ProductID: uuid.New(), Quantity: MaxLineQuantity + 1, UnitPrice: 1},
	}
	err := ValidateInput(in)
	require.ErrorIs(t, err, ErrInvalidSale)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	// zero qty, negative qty, negative price, quantity cap
	require.Len(t, vErr.Violations, 4)
}

func TestValidateInputQuantityBounds(t *testing.T) {
	cases := []struct {
		name string
		qty  float64
		ok   bool
	}{
		{"one", 1, true},
		{"max", MaxLineQuantity, true},
		{"over max", MaxLineQuantity + 0.5, false},
		{"zero", 0, false},
		{"negative", -1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			in.Lines[0].Quantity = tc.qty
			err := ValidateInput(in)
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrInvalidSale)
			}
		})
	}
}

func TestValidateInputDeclaredTotal(t *testing.T) {
	total := func(v float64) *float64 { return &v }

	in := validInput()
	in.Lines = []CartLine{
		{ProductID: uuid.New(), Quantity: 3, UnitPrice: 10},
		{ProductID: uuid.New(), Quantity: 1, UnitPrice: 2.5},
	}

	in.DeclaredTotal = total(32.5)
	require.NoError(t, ValidateInput(in))

	// Within the money tolerance.
	in.DeclaredTotal = total(32.51)
	require.NoError(t, ValidateInput(in))

	in.DeclaredTotal = total(32.55)
	require.ErrorIs(t, ValidateInput(in), ErrInvalidSale)

	in.DeclaredTotal = total(30)
	require.ErrorIs(t, ValidateInput(in), ErrInvalidSale)
}

func TestCheckQuantityKind(t *testing.T) {
	cases := []struct {
		name string
		kind catalog.Kind
		qty  float64
		ok   bool
	}{
		{"standard whole", catalog.KindStandard, 3, true},
		{"standard fractional", catalog.KindStandard, 2.5, false},
		{"weighable fractional", catalog.KindWeighable, 0.755, true},
		{"apparel whole", catalog.KindApparel, 1, true},
		{"apparel fractional", catalog.KindApparel, 1.5, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckQuantityKind(tc.kind, tc.qty)
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrInvalidSale)
			}
		})
	}
}

func TestValidationErrorUnwraps(t *testing.T) {
	err := error(&ValidationError{Violations: []string{"x"}})
	require.True(t, errors.Is(err, ErrInvalidSale))
}

func TestInsufficientStockErrorMessage(t *testing.T) {
	err := &InsufficientStockError{
		ProductName: "Basic Tee", SKU: "TSHIRT-1", VariantLabel: "M/Black",
		Available: 1, Requested: 3,
	}
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Contains(t, err.Error(), "Basic Tee (M/Black)")
	require.Contains(t, err.Error(), "have 1, want 3")
}
