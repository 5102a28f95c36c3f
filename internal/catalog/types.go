// Package catalog is the client of the remote product catalog, file storage and cart service.
package catalog

// Product is the read-only projection of a catalog product.
type Product struct {
	ID          string
	Name        string
	Description string
	// Price is the display price, already formatted with currency.
	Price string
	// MainImageID references a file; empty when the product has no image.
	MainImageID string
}

// LineItem is one product entry inside a cart.
type LineItem struct {
	ID          string
	ProductID   string
	Name        string
	Description string
	Quantity    int
	UnitPrice   string
	Total       string
}

// Cart is the cart summary.
type Cart struct {
	ID    string
	Total string
}

// Customer is a registered shop customer.
type Customer struct {
	ID    string
	Name  string
	Email string
}

type displayPrice struct {
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Formatted string `json:"formatted"`
}

type productDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Meta        struct {
		DisplayPrice struct {
			WithTax displayPrice `json:"with_tax"`
		} `json:"display_price"`
	} `json:"meta"`
	Relationships struct {
		MainImage struct {
			Data *struct {
				ID string `json:"id"`
			} `json:"data"`
		} `json:"main_image"`
	} `json:"relationships"`
}

func (p productDTO) toProduct() Product {
	product := Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Meta.DisplayPrice.WithTax.Formatted,
	}
	if img := p.Relationships.MainImage.Data; img != nil {
		product.MainImageID = img.ID
	}
	return product
}

type lineItemDTO struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	Meta        struct {
		DisplayPrice struct {
			WithTax struct {
				Unit  displayPrice `json:"unit"`
				Value displayPrice `json:"value"`
			} `json:"with_tax"`
		} `json:"display_price"`
	} `json:"meta"`
}

func (i lineItemDTO) toLineItem() LineItem {
	return LineItem{
		ID:          i.ID,
		ProductID:   i.ProductID,
		Name:        i.Name,
		Description: i.Description,
		Quantity:    i.Quantity,
		UnitPrice:   i.Meta.DisplayPrice.WithTax.Unit.Formatted,
		Total:       i.Meta.DisplayPrice.WithTax.Value.Formatted,
	}
}

type cartDTO struct {
	ID   string `json:"id"`
	Meta struct {
		DisplayPrice struct {
			WithTax displayPrice `json:"with_tax"`
		} `json:"display_price"`
	} `json:"meta"`
}

type customerDTO struct {
	ID    string `json:"id,omitempty"`
	Type  string `json:"type"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type fileDTO struct {
	Link struct {
		Href string `json:"href"`
	} `json:"link"`
}

type cartItemRequest struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Quantity int    `json:"quantity"`
}

type envelope[T any] struct {
	Data T `json:"data"`
}
