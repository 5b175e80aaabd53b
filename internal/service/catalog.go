package service

import (
	"context"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/tableside/console/internal/api"
	"github.com/tableside/console/internal/enum"
	"github.com/tableside/console/internal/model"
	"github.com/tableside/console/internal/notify"
	"github.com/tableside/console/internal/paging"
)

// CatalogAPI is the slice of the API client the admin view uses.
type CatalogAPI interface {
	ListItems(ctx context.Context) ([]model.MenuItem, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateItem(ctx context.Context, f api.ItemForm) error
	UpdateItem(ctx context.Context, id int64, f api.ItemForm) error
	DeleteItem(ctx context.Context, id int64) error
	CreateCategory(ctx context.Context, name string) error
	UpdateCategory(ctx context.Context, id int64, name string) error
	DeleteCategory(ctx context.Context, id int64) error
}

// Catalog is the admin view controller for menu items and categories.
type Catalog struct {
	feedback
	api CatalogAPI

	mu         sync.RWMutex
	items      []model.MenuItem
	categories []model.Category
	loaded     bool
}

// NewCatalog creates an empty catalog; call Load before reading it.
func NewCatalog(catalog CatalogAPI, session SessionCloser, n notify.Notifier, log logrus.FieldLogger) *Catalog {
	return &Catalog{
		feedback: feedback{session: session, notify: n, log: log.WithField("view", "admin")},
		api:      catalog,
	}
}

// Load fetches items and categories concurrently. A failure ends the
// session.
func (c *Catalog) Load(ctx context.Context) error {
	var (
		items      []model.MenuItem
		categories []model.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = c.api.ListItems(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = c.api.ListCategories(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return c.invalidate(err)
	}

	c.mu.Lock()
	c.items, c.categories, c.loaded = items, categories, true
	c.mu.Unlock()
	return nil
}

// Loaded reports whether the lists are in memory.
func (c *Catalog) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

func (c *Catalog) ensureLoaded(ctx context.Context) error {
	if c.Loaded() {
		return nil
	}
	return c.Load(ctx)
}

// Unmount discards the loaded lists.
func (c *Catalog) Unmount() {
	c.mu.Lock()
	c.items, c.categories, c.loaded = nil, nil, false
	c.mu.Unlock()
}

// CatalogItem is a menu item as listed in the admin view.
type CatalogItem struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Img          string          `json:"img"`
	CategoryID   *int64          `json:"category_id"`
	CategoryName string          `json:"category_name"`
}

// categoryName resolves an item's category against the loaded list, so a
// deleted category shows as NoCategory.
func categoryName(it model.MenuItem, byID map[int64]string) string {
	if it.CategoryID != nil {
		if name, ok := byID[*it.CategoryID]; ok {
			return name
		}
		return enum.NoCategory
	}
	return it.CategoryName()
}

// Items lists menu items whose name or category name contains search,
// five per page.
func (c *Catalog) Items(search string, page int) paging.Page[CatalogItem] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	byID := make(map[int64]string, len(c.categories))
	for _, cat := range c.categories {
		byID[cat.ID] = cat.Name
	}

	needle := strings.ToLower(search)
	rows := make([]CatalogItem, 0, len(c.items))
	for _, it := range c.items {
		name := categoryName(it, byID)
		if needle != "" &&
			!strings.Contains(strings.ToLower(it.Name), needle) &&
			!strings.Contains(strings.ToLower(name), needle) {
			continue
		}
		rows = append(rows, CatalogItem{
			ID:           it.ID,
			Name:         it.Name,
			Price:        it.Price,
			Img:          it.Img,
			CategoryID:   it.CategoryID,
			CategoryName: name,
		})
	}
	return paging.Paginate(rows, page, paging.DefaultSize)
}

// Categories lists every category. The list is not paginated.
func (c *Catalog) Categories() []model.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// ItemInput is a submitted item form.
type ItemInput struct {
	Name       string
	Price      decimal.Decimal
	CategoryID *int64
	Image      *api.Image
}

func (c *Catalog) validateItem(in ItemInput, creating bool) error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrNameRequired
	}
	if in.Price.IsNegative() {
		return ErrNegativePrice
	}
	if creating && in.Image == nil {
		return ErrImageRequired
	}
	if in.CategoryID != nil {
		c.mu.RLock()
		defer c.mu.RUnlock()
		for _, cat := range c.categories {
			if cat.ID == *in.CategoryID {
				return nil
			}
		}
		return ErrCategoryNotFound
	}
	return nil
}

// SaveItem creates the item when id is zero and updates it otherwise.
func (c *Catalog) SaveItem(ctx context.Context, id int64, in ItemInput) error {
	if err := c.ensureLoaded(ctx); err != nil {
		return err
	}
	creating := id == 0
	if err := c.validateItem(in, creating); err != nil {
		return err
	}
	form := api.ItemForm{
		Name:       strings.TrimSpace(in.Name),
		Price:      in.Price,
		CategoryID: in.CategoryID,
		Image:      in.Image,
	}

	if creating {
		if err := c.api.CreateItem(ctx, form); err != nil {
			return c.failed(err, "Failed to create item.")
		}
		c.succeeded("Item created successfully!")
	} else {
		if err := c.api.UpdateItem(ctx, id, form); err != nil {
			return c.failed(err, "Failed to update item.")
		}
		c.succeeded("Item updated successfully!")
	}
	return c.Load(ctx)
}

// DeleteItem removes an item once the operator has confirmed.
func (c *Catalog) DeleteItem(ctx context.Context, id int64, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	if err := c.api.DeleteItem(ctx, id); err != nil {
		return c.failed(err, "Failed to delete item.")
	}
	c.succeeded("Item deleted successfully!")
	return c.Load(ctx)
}

// SaveCategory creates the category when id is zero and renames it
// otherwise.
func (c *Catalog) SaveCategory(ctx context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameRequired
	}
	if id == 0 {
		if err := c.api.CreateCategory(ctx, name); err != nil {
			return c.failed(err, "Failed to create category.")
		}
		c.succeeded("Category created successfully!")
	} else {
		if err := c.api.UpdateCategory(ctx, id, name); err != nil {
			return c.failed(err, "Failed to update category.")
		}
		c.succeeded("Category updated successfully!")
	}
	return c.Load(ctx)
}

// DeleteCategory removes a category once confirmed. Items still pointing at
// it are kept and show NoCategory.
func (c *Catalog) DeleteCategory(ctx context.Context, id int64, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	if err := c.api.DeleteCategory(ctx, id); err != nil {
		return c.failed(err, "Failed to delete category.")
	}
	c.succeeded("Category deleted successfully!")
	return c.Load(ctx)
}
