package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/tableside/console/internal/model"
)

// Image is an uploaded item picture.
type Image struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// ItemForm is the multipart body for creating or updating a menu item.
type ItemForm struct {
	Name       string
	Price      decimal.Decimal
	CategoryID *int64
	Image      *Image
}

func (f ItemForm) encode() (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	fields := [][2]string{
		{"name", f.Name},
		{"price", f.Price.String()},
		{"category_id", ""},
	}
	if f.CategoryID != nil {
		fields[2][1] = strconv.FormatInt(*f.CategoryID, 10)
	}
	for _, kv := range fields {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", err
		}
	}

	if f.Image != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, f.Image.Filename))
		ct := f.Image.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, f.Image.Body); err != nil {
			return nil, "", fmt.Errorf("copy image: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

// ListItems fetches the menu. It needs no session.
func (c *Client) ListItems(ctx context.Context) ([]model.MenuItem, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodGet, path: "items"}, &raw); err != nil {
		return nil, err
	}
	return decodeList[model.MenuItem](c.log, "item", raw), nil
}

// CreateItem adds a menu item.
func (c *Client) CreateItem(ctx context.Context, f ItemForm) error {
	body, ct, err := f.encode()
	if err != nil {
		return fmt.Errorf("encode item form: %w", err)
	}
	return c.do(ctx, request{method: http.MethodPost, path: "items", body: body, contentType: ct}, nil)
}

// UpdateItem replaces a menu item's fields. The image is kept when f.Image
// is nil.
func (c *Client) UpdateItem(ctx context.Context, id int64, f ItemForm) error {
	body, ct, err := f.encode()
	if err != nil {
		return fmt.Errorf("encode item form: %w", err)
	}
	path := fmt.Sprintf("items/%d", id)
	return c.do(ctx, request{method: http.MethodPut, path: path, body: body, contentType: ct}, nil)
}

// DeleteItem removes a menu item.
func (c *Client) DeleteItem(ctx context.Context, id int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: fmt.Sprintf("items/%d", id)}, nil)
}

type categoryRequest struct {
	Name string `json:"name"`
}

// ListCategories fetches all categories.
func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodGet, path: "categories"}, &raw); err != nil {
		return nil, err
	}
	return decodeList[model.Category](c.log, "category", raw), nil
}

// CreateCategory adds a category.
func (c *Client) CreateCategory(ctx context.Context, name string) error {
	req, err := jsonRequest(http.MethodPost, "categories", categoryRequest{Name: name})
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}

// UpdateCategory renames a category.
func (c *Client) UpdateCategory(ctx context.Context, id int64, name string) error {
	req, err := jsonRequest(http.MethodPut, fmt.Sprintf("categories/%d", id), categoryRequest{Name: name})
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}

// DeleteCategory removes a category. Items referencing it are left alone.
func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: fmt.Sprintf("categories/%d", id)}, nil)
}
