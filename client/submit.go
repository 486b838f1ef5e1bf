package client

import (
	"context"
	"strings"
	"time"

	"github.com/stockroom-app/stockroom/model"
)

// ItemForm carries the fields of the add-item form.
type ItemForm struct {
	Name        string
	Description string
	Quantity    int
	Price       float64
	// ImageURL is set only when a new image was uploaded with the form.
	ImageURL string
}

// Submit stores a form submission. If an item with the same name
// (compared case-insensitively) already exists on the server, the
// submission is merged into it: quantities are added, description and
// price are overwritten, and the image is replaced only when the form
// carries a new one. Otherwise a new item is created and prepended to
// the mirror.
//
// The existence check and the write are separate requests, so two
// clients submitting the same name at once can both create; the server
// does not enforce name uniqueness.
func (s *Store) Submit(ctx context.Context, form ItemForm) error {
	items, err := s.api.FetchInventory(ctx)
	if err != nil {
		s.setError("Failed to fetch inventory items")
		return err
	}

	var existing *model.Item
	for i := range items {
		if strings.EqualFold(items[i].Name, form.Name) {
			existing = &items[i]
			break
		}
	}

	if existing != nil {
		updates := map[string]interface{}{
			"quantity":    existing.Quantity + form.Quantity,
			"description": form.Description,
			"price":       form.Price,
		}
		if form.ImageURL != "" {
			updates["image_url"] = form.ImageURL
		}
		return s.Update(ctx, existing.ID, updates)
	}

	id, err := s.api.Create(ctx, CreateItem{
		Name:        form.Name,
		Description: form.Description,
		Quantity:    form.Quantity,
		Price:       form.Price,
		ImageURL:    form.ImageURL,
	})
	if err != nil {
		s.setError("Failed to create item")
		return err
	}

	now := time.Now()
	s.Add(model.Item{
		ID:          id,
		Name:        form.Name,
		Description: form.Description,
		Quantity:    form.Quantity,
		Price:       form.Price,
		ImageURL:    form.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	return nil
}
