package controllers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelmarket/x402-gateway/app/models"
)

func newSubscriptionApp() *fiber.App {
	app := fiber.New()
	app.Post("/api/subscriptions", HandleSubscribe)
	app.Get("/api/subscriptions/:wallet", HandleListSubscriptions)
	app.Delete("/api/subscriptions", HandleUnsubscribe)
	app.Get("/api/transactions/wallet/:wallet", HandleListWalletTransactions)
	return app
}

func TestHandleSubscribeAndList(t *testing.T) {
	newGatewayServices(weatherListing("abc", "http://127.0.0.1:1"))
	app := newSubscriptionApp()

	payload := []byte(`{"walletAddress":"0xCALLER","apiId":"abc"}`)
	req := httptest.NewRequest("POST", "/api/subscriptions", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// Listing each subscription carries its listing alongside.
	resp, err = app.Test(httptest.NewRequest("GET", "/api/subscriptions/0xcaller", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		OK   bool `json:"ok"`
		Data []struct {
			Subscription models.ApiSubscription `json:"subscription"`
			Api          *models.ApiListing     `json:"api"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "abc", body.Data[0].Subscription.ApiID)
	require.NotNil(t, body.Data[0].Api)
	assert.Equal(t, "Weather API", body.Data[0].Api.Name)
}

func TestHandleSubscribeUnknownListingIs404(t *testing.T) {
	newGatewayServices()
	app := newSubscriptionApp()

	payload := []byte(`{"walletAddress":"0xcaller","apiId":"missing"}`)
	req := httptest.NewRequest("POST", "/api/subscriptions", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHandleListSubscriptionsDanglingListingIsOmitted(t *testing.T) {
	_, _, _, subRepo := newGatewayServices()
	require.NoError(t, subRepo.Create(&models.ApiSubscription{WalletAddress: "0xcaller", ApiID: "gone"}))
	app := newSubscriptionApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/api/subscriptions/0xcaller", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Data, 1)
	assert.NotContains(t, body.Data[0], "api")
}

func TestHandleUnsubscribeMissingIs404(t *testing.T) {
	newGatewayServices(weatherListing("abc", "http://127.0.0.1:1"))
	app := newSubscriptionApp()

	payload := []byte(`{"walletAddress":"0xcaller","apiId":"abc"}`)
	req := httptest.NewRequest("DELETE", "/api/subscriptions", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHandleListWalletTransactions(t *testing.T) {
	_, _, txRepo, _ := newGatewayServices()
	require.NoError(t, txRepo.Create(&models.ApiTransaction{ApiID: "abc", WalletAddress: "0xcaller", Amount: "100000"}))
	require.NoError(t, txRepo.Create(&models.ApiTransaction{ApiID: "def", WalletAddress: "0xother", Amount: "200000"}))
	app := newSubscriptionApp()

	// The wallet path segment is matched case-insensitively.
	resp, err := app.Test(httptest.NewRequest("GET", "/api/transactions/wallet/0xCALLER", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		OK   bool                    `json:"ok"`
		Data []models.ApiTransaction `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.OK)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "abc", body.Data[0].ApiID)
	assert.Equal(t, "100000", body.Data[0].Amount)
}
