package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/celobazaar/groupbuyd/internal/domain"
	"github.com/celobazaar/groupbuyd/internal/service"
)

// ListingService defines the methods the listing handler requires from the
// sync client. It is declared locally so the handler package does not depend
// on the concrete service implementation.
type ListingService interface {
	Listings(ctx context.Context) ([]domain.Listing, error)
	Listing(ctx context.Context, id uint64) (domain.Listing, error)
	RefreshAll(ctx context.Context) ([]domain.Listing, error)
	CreateListing(ctx context.Context, in service.CreateListingInput) (string, error)
	PlaceOrder(ctx context.Context, id uint64) (domain.Listing, error)
	Withdraw(ctx context.Context, id uint64) (string, error)
}

// ListingHandler serves listing-related HTTP endpoints.
type ListingHandler struct {
	listings ListingService
	logger   *slog.Logger
}

// NewListingHandler creates a ListingHandler with the given service.
func NewListingHandler(listings ListingService, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{
		listings: listings,
		logger:   logger,
	}
}

// listingView augments a listing with the remaining open window, so clients
// do not need to compare EndTime against their own clock.
type listingView struct {
	domain.Listing
	EndsInSeconds int64 `json:"ends_in_seconds"`
}

func newListingView(l domain.Listing) listingView {
	return listingView{
		Listing:       l,
		EndsInSeconds: int64(l.EndsIn(time.Now()).Seconds()),
	}
}

func newListingViews(listings []domain.Listing) []listingView {
	views := make([]listingView, len(listings))
	for i, l := range listings {
		views[i] = newListingView(l)
	}
	return views
}

// listListingsResponse wraps the list endpoint output.
type listListingsResponse struct {
	Listings []listingView `json:"listings"`
	Total    int           `json:"total"`
}

// ListListings returns all listings in ascending id order.
// GET /api/listings
func (h *ListingHandler) ListListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listings.Listings(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list listings failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to list listings")
		return
	}

	writeJSON(w, http.StatusOK, listListingsResponse{
		Listings: newListingViews(listings),
		Total:    len(listings),
	})
}

// GetListing returns one listing with a fresh buyers snapshot.
// GET /api/listings/{id}
func (h *ListingHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid listing id")
		return
	}

	listing, err := h.listings.Listing(r.Context(), id)
	if err != nil {
		if writeDomainError(w, err) {
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get listing failed",
			slog.Uint64("listing_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to fetch listing")
		return
	}

	writeJSON(w, http.StatusOK, newListingView(listing))
}

// createListingRequest is the JSON body for listing creation.
type createListingRequest struct {
	ProductName        string          `json:"product_name"`
	ProductDescription string          `json:"product_description"`
	Price              decimal.Decimal `json:"price"`
	DurationMinutes    int64           `json:"duration_minutes"`
}

// CreateListing validates and submits a new listing to the ledger.
// POST /api/listings
func (h *ListingHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req createListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	txHash, err := h.listings.CreateListing(r.Context(), service.CreateListingInput{
		ProductName:        req.ProductName,
		ProductDescription: req.ProductDescription,
		Price:              req.Price,
		DurationMinutes:    req.DurationMinutes,
	})
	if err != nil {
		if writeDomainError(w, err) {
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: create listing failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to create listing")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"tx_hash": txHash})
}

// PlaceOrder submits an order for the listing's unit price on behalf of the
// linked account.
// POST /api/listings/{id}/order
func (h *ListingHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid listing id")
		return
	}

	listing, err := h.listings.PlaceOrder(r.Context(), id)
	if err != nil {
		if writeDomainError(w, err) {
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: place order failed",
			slog.Uint64("listing_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to place order")
		return
	}

	writeJSON(w, http.StatusOK, newListingView(listing))
}

// Withdraw submits a withdrawal of the escrowed funds for an ended listing.
// POST /api/listings/{id}/withdraw
func (h *ListingHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid listing id")
		return
	}

	txHash, err := h.listings.Withdraw(r.Context(), id)
	if err != nil {
		if writeDomainError(w, err) {
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: withdraw failed",
			slog.Uint64("listing_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to withdraw funds")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"tx_hash": txHash})
}

// Refresh forces a full re-enumeration of the ledger, replacing the cache.
// POST /api/refresh
func (h *ListingHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listings.RefreshAll(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: refresh failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "refresh failed")
		return
	}

	writeJSON(w, http.StatusOK, listListingsResponse{
		Listings: newListingViews(listings),
		Total:    len(listings),
	})
}
