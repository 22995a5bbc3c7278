package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celobazaar/groupbuyd/internal/domain"
	"github.com/celobazaar/groupbuyd/internal/service"
)

// fakeListingService implements ListingService with canned responses.
type fakeListingService struct {
	listings []domain.Listing
	listing  domain.Listing
	txHash   string
	err      error

	createInput service.CreateListingInput
	orderedID   uint64
}

func (f *fakeListingService) Listings(context.Context) ([]domain.Listing, error) {
	return f.listings, f.err
}

func (f *fakeListingService) Listing(_ context.Context, id uint64) (domain.Listing, error) {
	if f.err != nil {
		return domain.Listing{}, f.err
	}
	return f.listing, nil
}

func (f *fakeListingService) RefreshAll(context.Context) ([]domain.Listing, error) {
	return f.listings, f.err
}

func (f *fakeListingService) CreateListing(_ context.Context, in service.CreateListingInput) (string, error) {
	f.createInput = in
	return f.txHash, f.err
}

func (f *fakeListingService) PlaceOrder(_ context.Context, id uint64) (domain.Listing, error) {
	f.orderedID = id
	if f.err != nil {
		return domain.Listing{}, f.err
	}
	return f.listing, nil
}

func (f *fakeListingService) Withdraw(_ context.Context, id uint64) (string, error) {
	return f.txHash, f.err
}

// newTestMux registers the listing routes the way the server does, so path
// parameters resolve.
func newTestMux(svc ListingService) *http.ServeMux {
	h := NewListingHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/listings", h.ListListings)
	mux.HandleFunc("GET /api/listings/{id}", h.GetListing)
	mux.HandleFunc("POST /api/listings", h.CreateListing)
	mux.HandleFunc("POST /api/listings/{id}/order", h.PlaceOrder)
	mux.HandleFunc("POST /api/listings/{id}/withdraw", h.Withdraw)
	mux.HandleFunc("POST /api/refresh", h.Refresh)
	return mux
}

func TestListListings(t *testing.T) {
	svc := &fakeListingService{
		listings: []domain.Listing{
			{ID: 0, ProductName: "first"},
			{ID: 1, ProductName: "second"},
		},
	}
	mux := newTestMux(svc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/listings", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Listings []domain.Listing `json:"listings"`
		Total    int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, "first", resp.Listings[0].ProductName)
	assert.Contains(t, rec.Body.String(), "ends_in_seconds")
}

func TestGetListingInvalidID(t *testing.T) {
	mux := newTestMux(&fakeListingService{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/listings/abc", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetListingNotFound(t *testing.T) {
	mux := newTestMux(&fakeListingService{err: domain.ErrNotFound})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/listings/42", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateListingPassesInputThrough(t *testing.T) {
	svc := &fakeListingService{txHash: "0xabc"}
	mux := newTestMux(svc)

	body := `{"product_name":"Widget","product_description":"desc","price":"12.5","duration_minutes":10}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/listings", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Widget", svc.createInput.ProductName)
	assert.True(t, svc.createInput.Price.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, int64(10), svc.createInput.DurationMinutes)
	assert.Contains(t, rec.Body.String(), "0xabc")
}

func TestCreateListingValidationErrorsMapTo400(t *testing.T) {
	cases := []error{
		domain.ErrMissingField,
		domain.ErrInvalidPrice,
		domain.ErrDurationTooShort,
	}

	for _, tcErr := range cases {
		mux := newTestMux(&fakeListingService{err: tcErr})

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/listings",
			strings.NewReader(`{"product_name":"x"}`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code, tcErr.Error())
	}
}

func TestPlaceOrderGatingErrorsMapTo409(t *testing.T) {
	cases := []error{
		domain.ErrNotOpen,
		domain.ErrSellerOrder,
		domain.ErrAlreadyOrdered,
	}

	for _, tcErr := range cases {
		mux := newTestMux(&fakeListingService{err: tcErr})

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/listings/3/order", nil))

		assert.Equal(t, http.StatusConflict, rec.Code, tcErr.Error())
	}
}

func TestPlaceOrderReadOnlyMapsTo403(t *testing.T) {
	mux := newTestMux(&fakeListingService{err: domain.ErrNoWriteCapability})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/listings/3/order", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPlaceOrderRoutesID(t *testing.T) {
	svc := &fakeListingService{listing: domain.Listing{ID: 7}}
	mux := newTestMux(svc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/listings/7/order", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(7), svc.orderedID)
}

func TestWithdrawUnrecognizedErrorMapsTo502(t *testing.T) {
	mux := newTestMux(&fakeListingService{err: errors.New("rpc unavailable")})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/listings/1/withdraw", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
