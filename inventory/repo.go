package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stockroom-app/stockroom/model"
	"gorm.io/gorm"
)

var (
	// ErrUnknownField is returned when a partial update names a column
	// outside the mutable whitelist.
	ErrUnknownField = errors.New("inventory: unknown field")
	// ErrEmptyUpdate is returned when a partial update carries no fields.
	ErrEmptyUpdate = errors.New("inventory: empty update")
)

// mutableColumns whitelists the columns a partial update may touch.
// Column names in the generated SET clause only ever come from here.
var mutableColumns = map[string]bool{
	"description": true,
	"quantity":    true,
	"price":       true,
	"image_url":   true,
}

// Repo executes the inventory statements. It owns no validation beyond
// the column whitelist; business rules live in the API layer.
type Repo struct {
	db *gorm.DB
}

// NewRepo creates a Repo over the given database.
func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// List returns all items, most recently created first.
func (r *Repo) List(ctx context.Context) ([]model.Item, error) {
	items := []model.Item{}
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Find(&items).Error
	return items, err
}

// Insert stores a new item and fills in its generated ID and
// timestamps.
func (r *Repo) Insert(ctx context.Context, item *model.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// Update applies a partial update to the item with the given id. The
// SET clause is built solely from whitelisted keys and always touches
// updated_at. Updating a nonexistent id affects zero rows and is not
// an error.
func (r *Repo) Update(ctx context.Context, id int64, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return ErrEmptyUpdate
	}
	set := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		if !mutableColumns[k] {
			return fmt.Errorf("%w: %s", ErrUnknownField, k)
		}
		set[k] = v
	}
	set["updated_at"] = time.Now()
	return r.db.WithContext(ctx).
		Model(&model.Item{}).
		Where("id = ?", id).
		Updates(set).Error
}

// Delete removes the item with the given id. Deleting a nonexistent id
// succeeds with zero rows affected.
func (r *Repo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Item{}, id).Error
}
