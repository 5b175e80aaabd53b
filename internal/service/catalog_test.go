package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tableside/console/internal/api"
	"github.com/tableside/console/internal/enum"
	"github.com/tableside/console/internal/model"
	"github.com/tableside/console/internal/notify"
)

type mockCatalogAPI struct {
	listItemsFn      func(ctx context.Context) ([]model.MenuItem, error)
	listCategoriesFn func(ctx context.Context) ([]model.Category, error)
	createItemFn     func(ctx context.Context, f api.ItemForm) error
	updateItemFn     func(ctx context.Context, id int64, f api.ItemForm) error
	deleteItemFn     func(ctx context.Context, id int64) error
	createCategoryFn func(ctx context.Context, name string) error
	updateCategoryFn func(ctx context.Context, id int64, name string) error
	deleteCategoryFn func(ctx context.Context, id int64) error
}

func (m *mockCatalogAPI) ListItems(ctx context.Context) ([]model.MenuItem, error) {
	return m.listItemsFn(ctx)
}
func (m *mockCatalogAPI) ListCategories(ctx context.Context) ([]model.Category, error) {
	return m.listCategoriesFn(ctx)
}
func (m *mockCatalogAPI) CreateItem(ctx context.Context, f api.ItemForm) error {
	return m.createItemFn(ctx, f)
}
func (m *mockCatalogAPI) UpdateItem(ctx context.Context, id int64, f api.ItemForm) error {
	return m.updateItemFn(ctx, id, f)
}
func (m *mockCatalogAPI) DeleteItem(ctx context.Context, id int64) error {
	return m.deleteItemFn(ctx, id)
}
func (m *mockCatalogAPI) CreateCategory(ctx context.Context, name string) error {
	return m.createCategoryFn(ctx, name)
}
func (m *mockCatalogAPI) UpdateCategory(ctx context.Context, id int64, name string) error {
	return m.updateCategoryFn(ctx, id, name)
}
func (m *mockCatalogAPI) DeleteCategory(ctx context.Context, id int64) error {
	return m.deleteCategoryFn(ctx, id)
}

// fakeMenu is an in-memory remote catalog.
type fakeMenu struct {
	mu         sync.Mutex
	items      []model.MenuItem
	categories []model.Category
	loads      atomic.Int32
}

func (f *fakeMenu) api() *mockCatalogAPI {
	return &mockCatalogAPI{
		listItemsFn: func(context.Context) ([]model.MenuItem, error) {
			f.loads.Add(1)
			f.mu.Lock()
			defer f.mu.Unlock()
			return append([]model.MenuItem(nil), f.items...), nil
		},
		listCategoriesFn: func(context.Context) ([]model.Category, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			return append([]model.Category(nil), f.categories...), nil
		},
		deleteCategoryFn: func(_ context.Context, id int64) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			kept := f.categories[:0]
			for _, c := range f.categories {
				if c.ID != id {
					kept = append(kept, c)
				}
			}
			f.categories = kept
			return nil
		},
	}
}

func int64Ptr(v int64) *int64 { return &v }

func sampleMenu() *fakeMenu {
	food := model.Category{ID: 1, Name: "Food"}
	drinks := model.Category{ID: 2, Name: "Drinks"}
	return &fakeMenu{
		categories: []model.Category{food, drinks},
		items: []model.MenuItem{
			{ID: 1, Name: "Nasi Goreng", Price: decimal.NewFromInt(25000), CategoryID: int64Ptr(1), Category: &food},
			{ID: 2, Name: "Mie Goreng", Price: decimal.NewFromInt(22000), CategoryID: int64Ptr(1), Category: &food},
			{ID: 3, Name: "Es Teh", Price: decimal.NewFromInt(5000), CategoryID: int64Ptr(2), Category: &drinks},
			{ID: 4, Name: "Kerupuk", Price: decimal.NewFromInt(2000)},
		},
	}
}

func newCatalog(t *testing.T, m *mockCatalogAPI) (*Catalog, *mockSession, *notify.Recorder) {
	t.Helper()
	session := &mockSession{}
	notes := &notify.Recorder{}
	return NewCatalog(m, session, notes, quietLog()), session, notes
}

func itemNames(p []CatalogItem) []string {
	var out []string
	for _, it := range p {
		out = append(out, it.Name)
	}
	return out
}

func TestCatalog_LoadAndSearchByCategoryName(t *testing.T) {
	menu := sampleMenu()
	c, _, _ := newCatalog(t, menu.api())
	require.NoError(t, c.Load(context.Background()))

	page := c.Items("drink", 1)
	assert.Equal(t, []string{"Es Teh"}, itemNames(page.Items))

	page = c.Items("GORENG", 1)
	assert.Equal(t, []string{"Nasi Goreng", "Mie Goreng"}, itemNames(page.Items))

	page = c.Items("", 1)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, enum.NoCategory, page.Items[3].CategoryName)
}

func TestCatalog_PaginatesAndClamps(t *testing.T) {
	menu := &fakeMenu{}
	for i := int64(1); i <= 7; i++ {
		menu.items = append(menu.items, model.MenuItem{ID: i, Name: "Item", Price: decimal.NewFromInt(1000)})
	}
	c, _, _ := newCatalog(t, menu.api())
	require.NoError(t, c.Load(context.Background()))

	page := c.Items("", 9)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 2, page.Page)
	assert.Len(t, page.Items, 2)
}

func TestCatalog_LoadFailureClearsSession(t *testing.T) {
	m := sampleMenu().api()
	m.listCategoriesFn = func(context.Context) ([]model.Category, error) {
		return nil, &api.Error{Status: http.StatusUnauthorized}
	}
	c, session, _ := newCatalog(t, m)

	err := c.Load(context.Background())

	assert.ErrorIs(t, err, ErrSessionInvalid)
	assert.Equal(t, 1, session.clearedCount())
	assert.False(t, c.Loaded())
}

func TestCatalog_DeletedCategoryShowsNoCategory(t *testing.T) {
	menu := sampleMenu()
	c, _, notes := newCatalog(t, menu.api())
	require.NoError(t, c.Load(context.Background()))

	require.NoError(t, c.DeleteCategory(context.Background(), 2, true))

	page := c.Items("Es Teh", 1)
	require.Len(t, page.Items, 1)
	assert.Equal(t, enum.NoCategory, page.Items[0].CategoryName)
	assert.Len(t, c.Categories(), 1)
	assert.Contains(t, notes.Toasts(), notify.Toast{Level: enum.LevelSuccess, Message: "Category deleted successfully!"})
}

func TestCatalog_DeleteNeedsConfirmation(t *testing.T) {
	m := sampleMenu().api()
	m.deleteItemFn = func(context.Context, int64) error {
		t.Fatal("delete must not be sent")
		return nil
	}
	c, _, _ := newCatalog(t, m)

	assert.ErrorIs(t, c.DeleteItem(context.Background(), 1, false), ErrConfirmationRequired)
	assert.ErrorIs(t, c.DeleteCategory(context.Background(), 1, false), ErrConfirmationRequired)
}

func TestCatalog_SaveItemValidation(t *testing.T) {
	m := sampleMenu().api()
	m.createItemFn = func(context.Context, api.ItemForm) error {
		t.Fatal("invalid item must not be sent")
		return nil
	}
	c, _, _ := newCatalog(t, m)
	img := &api.Image{Filename: "a.png", Body: strings.NewReader("png")}

	tests := []struct {
		name string
		in   ItemInput
		want error
	}{
		{"missing name", ItemInput{Name: "  ", Price: decimal.NewFromInt(1), Image: img}, ErrNameRequired},
		{"negative price", ItemInput{Name: "Tea", Price: decimal.NewFromInt(-1), Image: img}, ErrNegativePrice},
		{"no image on create", ItemInput{Name: "Tea", Price: decimal.NewFromInt(1)}, ErrImageRequired},
		{"unknown category", ItemInput{Name: "Tea", Price: decimal.NewFromInt(1), Image: img, CategoryID: int64Ptr(9)}, ErrCategoryNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.SaveItem(context.Background(), 0, tt.in)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestCatalog_CreateItemReloads(t *testing.T) {
	menu := sampleMenu()
	m := menu.api()
	var sent api.ItemForm
	m.createItemFn = func(_ context.Context, f api.ItemForm) error {
		sent = f
		menu.mu.Lock()
		menu.items = append(menu.items, model.MenuItem{ID: 5, Name: f.Name, Price: f.Price, CategoryID: f.CategoryID})
		menu.mu.Unlock()
		return nil
	}
	c, _, notes := newCatalog(t, m)

	err := c.SaveItem(context.Background(), 0, ItemInput{
		Name:       " Teh Tarik ",
		Price:      decimal.NewFromInt(8000),
		CategoryID: int64Ptr(2),
		Image:      &api.Image{Filename: "teh.jpg", Body: strings.NewReader("jpg")},
	})
	require.NoError(t, err)

	assert.Equal(t, "Teh Tarik", sent.Name)
	assert.EqualValues(t, 2, menu.loads.Load(), "initial load plus reload")
	page := c.Items("tarik", 1)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Drinks", page.Items[0].CategoryName)
	assert.Contains(t, notes.Toasts(), notify.Toast{Level: enum.LevelSuccess, Message: "Item created successfully!"})
}

func TestCatalog_UpdateItemWithoutImage(t *testing.T) {
	m := sampleMenu().api()
	var gotID int64
	m.updateItemFn = func(_ context.Context, id int64, f api.ItemForm) error {
		gotID = id
		assert.Nil(t, f.Image)
		return nil
	}
	c, _, _ := newCatalog(t, m)

	require.NoError(t, c.SaveItem(context.Background(), 3, ItemInput{Name: "Es Teh Manis", Price: decimal.NewFromInt(6000)}))
	assert.Equal(t, int64(3), gotID)
}

func TestCatalog_MutationFailureShowsMessage(t *testing.T) {
	m := sampleMenu().api()
	m.updateCategoryFn = func(context.Context, int64, string) error {
		return &api.Error{Status: http.StatusUnprocessableEntity, Message: "The name has already been taken."}
	}
	m.createCategoryFn = func(context.Context, string) error {
		return errors.New("connection reset")
	}
	c, session, notes := newCatalog(t, m)

	err := c.SaveCategory(context.Background(), 1, "Drinks")
	var mErr *MutationError
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, "The name has already been taken.", mErr.Message)

	err = c.SaveCategory(context.Background(), 0, "Snacks")
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, "Failed to create category.", mErr.Message)

	assert.Len(t, notes.Toasts(), 2)
	assert.Zero(t, session.clearedCount())
}

func TestCatalog_SaveCategoryNameRequired(t *testing.T) {
	c, _, _ := newCatalog(t, sampleMenu().api())
	assert.ErrorIs(t, c.SaveCategory(context.Background(), 0, "   "), ErrNameRequired)
}

func TestCatalog_UnmountDiscards(t *testing.T) {
	c, _, _ := newCatalog(t, sampleMenu().api())
	require.NoError(t, c.Load(context.Background()))

	c.Unmount()

	assert.False(t, c.Loaded())
	assert.Empty(t, c.Categories())
	assert.Zero(t, c.Items("", 1).Total)
}
