package shop

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Quantities offered under a product card.
var Quantities = []int{1, 5, 10}

func (m *Machine) menuView(ctx context.Context) (string, Keyboard, error) {
	products, err := m.catalog.ListProducts(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("list products: %w", err)
	}

	keyboard := make(Keyboard, 0, len(products)+1)
	for _, p := range products {
		keyboard = append(keyboard, []Button{{Label: p.Name, Payload: p.ID}})
	}
	keyboard = append(keyboard, []Button{{Label: m.tr.T("button.cart"), Payload: PayloadCart}})

	return m.tr.T("menu.greeting"), keyboard, nil
}

func (m *Machine) productView(ctx context.Context, productID string) (Action, error) {
	product, err := m.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", productID, err)
	}

	caption := m.tr.Tf("product.caption", product.Name, product.Price, product.Description)

	quantities := make([]Button, 0, len(Quantities))
	for _, q := range Quantities {
		quantities = append(quantities, Button{
			Label:   m.tr.Tf("button.quantity", q),
			Payload: strconv.Itoa(q),
		})
	}

	keyboard := Keyboard{
		quantities,
		{{Label: m.tr.T("button.cart"), Payload: PayloadCart}},
		{{Label: m.tr.T("button.back"), Payload: PayloadBack}},
	}

	if product.MainImageID == "" {
		return ReplyTextReplacingPrior{Text: caption, Keyboard: keyboard}, nil
	}

	photoURL, err := m.catalog.GetImageURL(ctx, product.MainImageID)
	if err != nil {
		return nil, fmt.Errorf("get image %s: %w", product.MainImageID, err)
	}

	return ReplacePhoto{PhotoURL: photoURL, Caption: caption, Keyboard: keyboard}, nil
}

func (m *Machine) cartView(ctx context.Context, userID int64) (string, Keyboard, error) {
	items, err := m.catalog.GetCartItems(ctx, userID)
	if err != nil {
		return "", nil, fmt.Errorf("get cart items: %w", err)
	}

	cart, err := m.catalog.GetCart(ctx, userID)
	if err != nil {
		return "", nil, fmt.Errorf("get cart: %w", err)
	}

	blocks := make([]string, 0, len(items)+2)
	blocks = append(blocks, m.tr.T("cart.header"))

	keyboard := make(Keyboard, 0, len(items)+1)
	for _, item := range items {
		blocks = append(blocks, m.tr.Tf("cart.item", item.Name, item.Description, item.UnitPrice, item.Quantity, item.Total))
		keyboard = append(keyboard, []Button{{
			Label:   m.tr.Tf("button.remove", item.Name),
			Payload: item.ID,
		}})
	}
	blocks = append(blocks, m.tr.Tf("cart.total", cart.Total))
	keyboard = append(keyboard, []Button{{Label: m.tr.T("button.to_menu"), Payload: PayloadMainMenu}})

	return strings.Join(blocks, "\n\n"), keyboard, nil
}
