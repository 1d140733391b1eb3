package cart

import "github.com/shopspring/decimal"

// AddItemRequest is the outer-edge shape for a raw cart addition. Prices may
// arrive as display strings from legacy catalog screens; they are parsed here
// and nowhere deeper.
type AddItemRequest struct {
	ProductID   string `json:"productId,omitempty"`
	ProductName string `json:"productName" validate:"required,max=200"`
	Brand       string `json:"brand,omitempty" validate:"max=100"`
	Category    string `json:"category,omitempty" validate:"max=100"`
	Employee    string `json:"employee" validate:"required,max=100"`
	Company     string `json:"company" validate:"required,max=200"`
	UnitPrice   string `json:"unitPrice" validate:"required"`
	Quantity    int    `json:"quantity" validate:"required,gte=1"`
	VATRate     string `json:"vatRate,omitempty"`
	Stock       *int   `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Priority    string `json:"orderStatus,omitempty" validate:"omitempty,oneof=normal urgent rush emergency"`
}

// ToInput normalizes the request into the service input.
func (r AddItemRequest) ToInput() (AddItemInput, error) {
	price, err := decimal.NewFromString(r.UnitPrice)
	if err != nil {
		return AddItemInput{}, err
	}
	vat := decimal.Zero
	if r.VATRate != "" {
		if vat, err = decimal.NewFromString(r.VATRate); err != nil {
			return AddItemInput{}, err
		}
	}
	return AddItemInput{
		ProductID:   r.ProductID,
		ProductName: r.ProductName,
		Brand:       r.Brand,
		Category:    r.Category,
		Employee:    r.Employee,
		Company:     r.Company,
		UnitPrice:   price,
		Quantity:    r.Quantity,
		VATRate:     vat,
		Stock:       r.Stock,
		Priority:    Priority(r.Priority),
	}, nil
}

// SetQuantityRequest changes a consolidated item's quantity. Zero removes.
type SetQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}
