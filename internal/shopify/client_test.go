package shopify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(Config{
		Domain:          "test.myshopify.com",
		StorefrontToken: "token123",
		APIVersion:      "2024-10",
	})
	c.endpoint = srv.URL
	c.http = srv.Client()
	return c
}

func TestCartCreate_Success(t *testing.T) {
	var gotToken string
	var gotBody map[string]any

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Shopify-Storefront-Access-Token")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		_, _ = w.Write([]byte(`{"data":{"cartCreate":{
			"cart":{
				"checkoutUrl":"https://shop.vitea.com/cart/c/abc?key=1",
				"totalQuantity":3,
				"cost":{"totalAmount":{"amount":"45.00","currencyCode":"USD"}}
			},
			"userErrors":[]
		}}}`))
	})

	result, err := c.CartCreate(context.Background(), []CartLineInput{
		{MerchandiseID: MerchandisePrefix + "111", Quantity: 2},
		{MerchandiseID: MerchandisePrefix + "222", Quantity: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, "token123", gotToken)
	assert.Contains(t, gotBody["query"], "cartCreate")
	assert.Equal(t, "https://shop.vitea.com/cart/c/abc?key=1", result.CheckoutURL)
	assert.Equal(t, 3, result.TotalQuantity)
	assert.Equal(t, "45", result.TotalCost.Amount.String())
	assert.Empty(t, result.UserErrors)
}

func TestCartCreate_UserErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"cartCreate":{
			"cart":null,
			"userErrors":[{"field":["input","lines","0"],"message":"variant out of stock"}]
		}}}`))
	})

	result, err := c.CartCreate(context.Background(), []CartLineInput{
		{MerchandiseID: MerchandisePrefix + "111", Quantity: 2},
	})
	require.NoError(t, err)

	require.Len(t, result.UserErrors, 1)
	assert.Equal(t, "variant out of stock", result.UserErrors[0].Message)
	assert.Equal(t, "0", result.UserErrors[0].Field)
	assert.Empty(t, result.CheckoutURL)
}

func TestCartCreate_GraphQLError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"message":"invalid token"}]}`))
	})

	_, err := c.CartCreate(context.Background(), []CartLineInput{
		{MerchandiseID: MerchandisePrefix + "111", Quantity: 1},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")
}

func TestCartCreate_BadStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.CartCreate(context.Background(), []CartLineInput{
		{MerchandiseID: MerchandisePrefix + "111", Quantity: 1},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")
}

func TestProductByHandle_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"product":null}}`))
	})

	_, err := c.ProductByHandle(context.Background(), "missing")
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestListProducts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"products":{"nodes":[{
			"id":"gid://shopify/Product/1",
			"title":"Creatine Monohydrate",
			"handle":"creatine",
			"featuredImage":{"url":"https://cdn.example.com/creatine.jpg"},
			"variants":{"nodes":[{
				"id":"gid://shopify/ProductVariant/111",
				"title":"300g",
				"availableForSale":true,
				"price":{"amount":"29.99","currencyCode":"USD"},
				"selectedOptions":[{"name":"Size","value":"300g"}]
			}]}
		}]}}}`))
	})

	products, err := c.ListProducts(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, products, 1)

	p := products[0]
	assert.Equal(t, "creatine", p.Handle)
	assert.Equal(t, "https://cdn.example.com/creatine.jpg", p.ImageURL)
	require.Len(t, p.Variants, 1)
	assert.Equal(t, MerchandisePrefix+"111", p.Variants[0].ID)
	assert.Equal(t, "29.99", p.Variants[0].Price.Amount.String())
	require.Len(t, p.Variants[0].SelectedOptions, 1)
	assert.Equal(t, "Size", p.Variants[0].SelectedOptions[0].Name)
}
