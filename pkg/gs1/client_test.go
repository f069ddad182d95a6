package gs1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validEAN = "4006381333931"

func TestValidGTIN(t *testing.T) {
	assert.True(t, ValidGTIN(validEAN))
	assert.True(t, ValidGTIN("036000291452"))
	assert.False(t, ValidGTIN("4006381333932"))
	assert.False(t, ValidGTIN("12345"))
}

func TestLookupGTIN(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/product/search", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, validEAN, body["gtin"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"products":[{"barcode":"4006381333931","productName":"Toor Dal","brandName":"Tata Sampann","packshot":"https://img.example/dal.png","weight":"2","unit":"kg","manufacturer":"Tata"}]}`))
	}))
	defer srv.Close()

	c := NewClient("key", srv.URL, time.Second)
	p, err := c.LookupGTIN(context.Background(), "400-6381-333931")
	require.NoError(t, err)

	assert.Equal(t, validEAN, p.GTIN)
	assert.Equal(t, "Tata Sampann", p.Brand)
	assert.Equal(t, "https://img.example/dal.png", p.ImageURL)
	assert.Equal(t, "2kg", p.PackSize)
	assert.Equal(t, "Tata", p.Attributes()["manufacturer"])
}

func TestLookupGTINFailures(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusServiceUnavailable)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient("key", srv.URL, time.Second)

	_, err := c.LookupGTIN(context.Background(), validEAN)
	assert.ErrorIs(t, err, ErrUnavailable)

	status.Store(http.StatusNotFound)
	_, err = c.LookupGTIN(context.Background(), validEAN)
	assert.ErrorIs(t, err, ErrNotFound)

	status.Store(http.StatusOK)
	_, err = c.LookupGTIN(context.Background(), validEAN)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.LookupGTIN(context.Background(), "123")
	assert.ErrorIs(t, err, ErrInvalidGTIN)

	_, err = NewClient("", srv.URL, time.Second).LookupGTIN(context.Background(), validEAN)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestLookupGTINUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient("key", url, 200*time.Millisecond).LookupGTIN(context.Background(), validEAN)
	assert.ErrorIs(t, err, ErrUnavailable)
}
