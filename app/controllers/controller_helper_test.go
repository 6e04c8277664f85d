package controllers

import (
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/pixelmarket/x402-gateway/app/models"
	"github.com/pixelmarket/x402-gateway/app/repository"
	"github.com/pixelmarket/x402-gateway/internal/pkg/entitlement"
	"github.com/pixelmarket/x402-gateway/internal/pkg/guardian"
	"github.com/pixelmarket/x402-gateway/internal/pkg/middleware"
	"github.com/pixelmarket/x402-gateway/internal/pkg/proxy"
	"github.com/pixelmarket/x402-gateway/internal/pkg/x402"
)

type fakeListingRepo struct {
	mu       sync.Mutex
	listings map[string]*models.ApiListing
}

func newFakeListingRepo(listings ...*models.ApiListing) *fakeListingRepo {
	repo := &fakeListingRepo{listings: make(map[string]*models.ApiListing)}
	for _, l := range listings {
		repo.listings[l.ID] = l
	}
	return repo
}

func (f *fakeListingRepo) Create(listing *models.ApiListing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listings[listing.ID] = listing
	return nil
}

func (f *fakeListingRepo) GetByID(id string) (*models.ApiListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	listing, ok := f.listings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return listing, nil
}

func (f *fakeListingRepo) GetActive() ([]models.ApiListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ApiListing
	for _, l := range f.listings {
		if l.IsActive {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeListingRepo) Update(listing *models.ApiListing) error {
	return f.Create(listing)
}

func (f *fakeListingRepo) Deactivate(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	listing, ok := f.listings[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	listing.IsActive = false
	return nil
}

func (f *fakeListingRepo) Count() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.listings)), nil
}

type fakeTransactionRepo struct {
	mu      sync.Mutex
	created []models.ApiTransaction
}

func (f *fakeTransactionRepo) Create(tx *models.ApiTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, *tx)
	return nil
}

func (f *fakeTransactionRepo) GetByApiID(apiID string, _, _ int) ([]models.ApiTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ApiTransaction
	for _, tx := range f.created {
		if tx.ApiID == apiID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (f *fakeTransactionRepo) GetByWallet(walletAddress string) ([]models.ApiTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ApiTransaction
	for _, tx := range f.created {
		if strings.EqualFold(tx.WalletAddress, walletAddress) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (f *fakeTransactionRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

type fakeSubscriptionRepo struct {
	mu   sync.Mutex
	subs []models.ApiSubscription
}

func (f *fakeSubscriptionRepo) Create(sub *models.ApiSubscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, *sub)
	return nil
}

func (f *fakeSubscriptionRepo) GetByWallet(walletAddress string) ([]models.ApiSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ApiSubscription
	for _, sub := range f.subs {
		if sub.WalletAddress == strings.ToLower(walletAddress) {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (f *fakeSubscriptionRepo) Exists(walletAddress, apiID string) (bool, error) {
	subs, _ := f.GetByWallet(walletAddress)
	for _, sub := range subs {
		if sub.ApiID == apiID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSubscriptionRepo) Delete(walletAddress, apiID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, sub := range f.subs {
		if sub.WalletAddress == strings.ToLower(walletAddress) && sub.ApiID == apiID {
			f.subs = append(f.subs[:i], f.subs[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// newGatewayServices injects a full fake-backed service graph and
// returns the pieces tests assert on.
func newGatewayServices(listings ...*models.ApiListing) (*entitlement.MemoryStore, *fakeListingRepo, *fakeTransactionRepo, *fakeSubscriptionRepo) {
	store := entitlement.NewMemoryStore()
	issuer := x402.NewIssuer(x402.Config{
		Network: x402.NetworkTestnet,
		PayTo:   "0xmerchant",
		Asset:   x402.AssetDevUSDCe,
	})
	listingRepo := newFakeListingRepo(listings...)
	txRepo := &fakeTransactionRepo{}
	subRepo := &fakeSubscriptionRepo{}

	SetServices(&Services{
		Store:      store,
		Gate:       middleware.NewPaywallGate(store, issuer),
		Settler:    x402.NewSettler(&stubCollaborator{}, store),
		Dispatcher: proxy.NewDispatcher(),
		Guardian:   guardian.NewClientFromEnv(),
		Validate:   validator.New(),
		Repos: &repository.Repositories{
			Listing:      listingRepo,
			Transaction:  txRepo,
			Subscription: subRepo,
		},
	})
	return store, listingRepo, txRepo, subRepo
}

func weatherListing(id, baseURL string) *models.ApiListing {
	return &models.ApiListing{
		ID:           id,
		Name:         "Weather API",
		Description:  "Get current weather data for any city",
		Category:     "Weather",
		BaseURL:      baseURL,
		Endpoint:     "/v1/current.json",
		Method:       models.MethodGet,
		PricePerCall: "100000",
		OwnerAddress: "0xowner",
		IsActive:     true,
	}
}
