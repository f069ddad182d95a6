// Package gs1 looks up branded product data (brand, packshot, pack size) by GTIN
// from a GS1 DataKart style API.
package gs1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

var (
	ErrNotConfigured = errors.New("barcode lookup is not configured")
	ErrNotFound      = errors.New("barcode not found")
	ErrUnavailable   = errors.New("barcode service unavailable")
	ErrInvalidGTIN   = errors.New("invalid GTIN")
)

// Product is the subset of barcode data the catalog stores.
type Product struct {
	GTIN         string
	Name         string
	Brand        string
	ImageURL     string
	Description  string
	Category     string
	Manufacturer string
	PackSize     string
	SKU          string
}

// Attributes returns the non-empty metadata fields for CatalogProduct.Attributes.
func (p *Product) Attributes() map[string]interface{} {
	attrs := map[string]interface{}{}
	for k, v := range map[string]string{
		"gs1_name":     p.Name,
		"gs1_category": p.Category,
		"manufacturer": p.Manufacturer,
		"gs1_sku":      p.SKU,
		"description":  p.Description,
	} {
		if v != "" {
			attrs[k] = v
		}
	}
	return attrs
}

type Client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

func NewClient(apiKey, endpoint string, timeout time.Duration) *Client {
	return &Client{
		apiKey:     apiKey,
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// LookupGTIN fetches one product by barcode.
func (c *Client) LookupGTIN(ctx context.Context, gtin string) (*Product, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}
	gtin = digitsOnly(gtin)
	if !ValidGTIN(gtin) {
		return nil, ErrInvalidGTIN
	}

	body, _ := json.Marshal(map[string]string{"gtin": gtin, "format": "json"})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/product/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: malformed response", ErrUnavailable)
	}

	doc := gjson.ParseBytes(raw)
	// Some deployments wrap results in {"products": [...]}
	if first := doc.Get("products.0"); first.Exists() {
		doc = first
	} else if data := doc.Get("data"); data.IsObject() {
		doc = data
	}

	p := mapProduct(doc)
	if p.GTIN == "" && p.Name == "" && p.Brand == "" {
		return nil, ErrNotFound
	}
	if p.GTIN == "" {
		p.GTIN = gtin
	}
	return p, nil
}

// first returns the first non-empty string among the paths.
func first(doc gjson.Result, paths ...string) string {
	for _, path := range paths {
		if v := strings.TrimSpace(doc.Get(path).String()); v != "" {
			return v
		}
	}
	return ""
}

func mapProduct(doc gjson.Result) *Product {
	p := &Product{
		GTIN:         first(doc, "gtin", "barcode", "ean"),
		Name:         first(doc, "productName", "name"),
		Brand:        first(doc, "brand", "brandName"),
		ImageURL:     first(doc, "packshot", "imageUrl", "productImage"),
		Description:  first(doc, "description", "productDescription"),
		Category:     first(doc, "category", "masterCategory"),
		Manufacturer: first(doc, "manufacturer", "manufacturerName"),
		SKU:          first(doc, "sku", "skuCode"),
	}
	weight := first(doc, "weight", "quantity")
	unit := first(doc, "unit")
	switch {
	case weight != "" && unit != "":
		p.PackSize = weight + unit
	default:
		p.PackSize = weight
	}
	return p
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidGTIN checks length (8, 12, 13 or 14 digits) and the mod-10 check digit.
func ValidGTIN(gtin string) bool {
	switch len(gtin) {
	case 8, 12, 13, 14:
	default:
		return false
	}
	sum := 0
	// Weights alternate 3,1,... counting from the digit left of the check digit.
	for i := len(gtin) - 2; i >= 0; i-- {
		d := int(gtin[i] - '0')
		if d < 0 || d > 9 {
			return false
		}
		if (len(gtin)-2-i)%2 == 0 {
			sum += d * 3
		} else {
			sum += d
		}
	}
	check := (10 - sum%10) % 10
	return check == int(gtin[len(gtin)-1]-'0')
}
