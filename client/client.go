package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/stockroom-app/stockroom/model"
)

// Client is a typed HTTP client for the inventory API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a Client for the API at baseURL. Every request carries
// the given timeout so no call can block indefinitely.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// SetToken sets the Bearer token used for authenticated requests.
func (c *Client) SetToken(token string) { c.token = token }

// CreateItem is the payload for creating a new inventory item.
type CreateItem struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image_url,omitempty"`
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, name, email, password string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/register", map[string]string{
		"name": name, "email": email, "password": password,
	}, nil)
}

// Login signs in and stores the session token on the client.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var resp struct {
		Token string `json:"token"`
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email": email, "password": password,
	}, &resp)
	if err != nil {
		return err
	}
	c.token = resp.Token
	return nil
}

// FetchInventory returns all items in server order.
func (c *Client) FetchInventory(ctx context.Context) ([]model.Item, error) {
	var resp struct {
		Data []model.Item `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/inventory", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Create stores a new item and returns its generated id.
func (c *Client) Create(ctx context.Context, item CreateItem) (int64, error) {
	var resp struct {
		Data struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/inventory", item, &resp); err != nil {
		return 0, err
	}
	return resp.Data.ID, nil
}

// Update applies a partial update to the item with the given id.
func (c *Client) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	return c.do(ctx, http.MethodPatch, "/api/inventory/"+strconv.FormatInt(id, 10), updates, nil)
}

// Delete removes the item with the given id.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/inventory/"+strconv.FormatInt(id, 10), nil, nil)
}

// UploadImage sends the image through the upload proxy and returns the
// public URL the image host assigned.
func (c *Client) UploadImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	buf := &bytes.Buffer{}
	mp := multipart.NewWriter(buf)
	fw, err := mp.CreateFormFile("image", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return "", err
	}
	if err := mp.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mp.FormDataContentType())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload: status %d", resp.StatusCode)
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.URL, nil
}
