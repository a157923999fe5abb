package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/distroflow/cartcore/pkg/enums"
	pkgerrors "github.com/distroflow/cartcore/pkg/errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// ProductInput mirrors the wire shape delivered by the product catalog service.
type ProductInput struct {
	ID             string           `json:"id" validate:"required"`
	Name           string           `json:"name"`
	Price          *decimal.Decimal `json:"price"`
	OrderingMode   string           `json:"ordering_mode" validate:"required,oneof=unit case"`
	CaseSize       int              `json:"case_size" validate:"min=0"`
	MinOrderQty    int              `json:"min_order_qty" validate:"min=0"`
	AvailableStock int              `json:"available_stock" validate:"min=0"`
}

// ParseProducts validates raw catalog records and converts them into Products.
// Any structurally invalid record rejects the whole batch: a catalog feed with
// broken entries is a publisher defect, not something to paper over.
func ParseProducts(inputs []ProductInput) ([]Product, error) {
	products := make([]Product, 0, len(inputs))
	for i, input := range inputs {
		if err := validate.Struct(input); err != nil {
			return nil, formatValidationErrors(i, input.ID, err)
		}

		mode, err := enums.ParseOrderingMode(input.OrderingMode)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product record").
				WithDetails(map[string]any{"index": i, "product_id": input.ID})
		}

		p := Product{
			ID:             input.ID,
			Name:           input.Name,
			Price:          copyDecimalPtr(input.Price),
			OrderingMode:   mode,
			CaseSize:       input.CaseSize,
			MinOrderQty:    input.MinOrderQty,
			AvailableStock: input.AvailableStock,
		}

		switch mode {
		case enums.OrderingModeCase:
			if p.CaseSize < 1 {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "case-ordered product requires a positive case size").
					WithDetails(map[string]any{"index": i, "product_id": input.ID})
			}
		case enums.OrderingModeUnit:
			if p.MinOrderQty < 1 {
				p.MinOrderQty = 1
			}
		}

		products = append(products, p)
	}
	return products, nil
}

// LoadProductsFile reads a JSON catalog fixture and builds a Snapshot.
func LoadProductsFile(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading products file: %w", err)
	}
	var inputs []ProductInput
	if err := json.Unmarshal(raw, &inputs); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid products file")
	}
	products, err := ParseProducts(inputs)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(products), nil
}

func formatValidationErrors(index int, productID string, err error) *pkgerrors.Error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		fields := map[string]string{}
		for _, fieldErr := range errs {
			fields[fieldErr.Field()] = validationMessage(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid product record").WithDetails(map[string]any{
			"index":      index,
			"product_id": productID,
			"fields":     fields,
		})
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product record")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	}
	return "is invalid"
}

func copyDecimalPtr(src *decimal.Decimal) *decimal.Decimal {
	if src == nil {
		return nil
	}
	val := *src
	return &val
}
