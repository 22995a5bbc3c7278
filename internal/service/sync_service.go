// Package service contains the ledger synchronization client: the single
// owner of the read path (materializing listings from the registry), the
// write path (create, order, withdraw), and the listing cache.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/celobazaar/groupbuyd/internal/domain"
)

// minDurationMinutes is the shortest listing duration the client will submit.
const minDurationMinutes = 5

// Notifier is the subset of the notification system the sync client uses. It
// is declared locally so the service does not depend on the concrete
// implementation and tests can substitute their own.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// Config holds sync client tuning knobs.
type Config struct {
	// FetchConcurrency is the number of per-listing fetches in flight
	// during a full refresh. The registry reads are side-effect-free, so
	// they are safe to parallelize; 1 restores strictly sequential
	// fetching.
	FetchConcurrency int

	// PartialResults selects the refresh failure policy. False (the
	// default) discards all progress when any single fetch fails; true
	// commits the contiguous prefix of ids fetched before the first
	// failure and still returns the error.
	PartialResults bool
}

// SyncClient mediates all reads from and writes to the external ledger,
// normalizes records into domain.Listing, and enforces pre-submission
// validation. All listing state is rebuilt from the ledger; the cache is a
// session-scoped materialization, never an authority.
type SyncClient struct {
	ledger   domain.Ledger
	cache    domain.ListingCache
	bus      domain.SignalBus // optional
	journal  domain.TxJournal // optional
	notifier Notifier         // optional
	cfg      Config
	session  domain.Session
	logger   *slog.Logger
}

// NewSyncClient creates a SyncClient. bus, journal, and notifier may be nil.
func NewSyncClient(
	ledger domain.Ledger,
	cache domain.ListingCache,
	bus domain.SignalBus,
	journal domain.TxJournal,
	notifier Notifier,
	cfg Config,
	session domain.Session,
	logger *slog.Logger,
) *SyncClient {
	if cfg.FetchConcurrency < 1 {
		cfg.FetchConcurrency = 1
	}
	return &SyncClient{
		ledger:   ledger,
		cache:    cache,
		bus:      bus,
		journal:  journal,
		notifier: notifier,
		cfg:      cfg,
		session:  session,
		logger:   logger.With(slog.String("component", "sync")),
	}
}

// Session returns the wallet session bound to this client.
func (s *SyncClient) Session() domain.Session {
	return s.session
}

// RefreshAll enumerates the registry counter and materializes every listing,
// replacing the cache wholesale on success. Listings come back in ascending
// id order with empty buyer snapshots; buyers are fetched lazily per listing.
func (s *SyncClient) RefreshAll(ctx context.Context) ([]domain.Listing, error) {
	start := time.Now()

	count, err := s.ledger.Counter(ctx)
	if err != nil {
		s.reportRefreshFailure(ctx, err)
		return nil, fmt.Errorf("sync: read counter: %w", err)
	}

	results := make([]*domain.Listing, count)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.FetchConcurrency)
	for id := uint64(0); id < count; id++ {
		g.Go(func() error {
			l, err := s.fetchListing(gctx, id)
			if err != nil {
				return err
			}
			results[id] = &l
			return nil
		})
	}
	fetchErr := g.Wait()

	listings := make([]domain.Listing, 0, count)
	for _, l := range results {
		if l == nil {
			// Later ids may have succeeded, but committing a gapped
			// set would break the ascending-enumeration guarantee.
			break
		}
		listings = append(listings, *l)
	}

	if fetchErr != nil {
		s.reportRefreshFailure(ctx, fetchErr)
		if !s.cfg.PartialResults {
			// Fail-fast policy: everything fetched so far is discarded
			// and the previous cache contents stay untouched.
			return nil, fmt.Errorf("sync: refresh: %w", fetchErr)
		}
		if err := s.cache.ReplaceAll(ctx, listings); err != nil {
			return nil, fmt.Errorf("sync: commit partial refresh: %w", err)
		}
		return listings, fmt.Errorf("sync: partial refresh (%d/%d): %w", len(listings), count, fetchErr)
	}

	if err := s.cache.ReplaceAll(ctx, listings); err != nil {
		return nil, fmt.Errorf("sync: commit refresh: %w", err)
	}

	s.logger.InfoContext(ctx, "ledger refreshed",
		slog.Uint64("count", count),
		slog.Duration("took", time.Since(start)),
	)
	s.publish(ctx, domain.EventListingsRefreshed, map[string]any{
		"count": len(listings),
	})

	return listings, nil
}

// fetchListing materializes a single listing: two sequential reads, scalar
// fields then the escrow contract address.
func (s *SyncClient) fetchListing(ctx context.Context, id uint64) (domain.Listing, error) {
	rec, err := s.ledger.ListingInfo(ctx, id)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("sync: listing %d: %w", id, err)
	}
	addr, err := s.ledger.ListingContractAddress(ctx, id)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("sync: listing %d address: %w", id, err)
	}

	return domain.Listing{
		ID:                 id,
		Seller:             rec.Seller,
		ContractAddress:    addr,
		ProductName:        rec.Name,
		ProductDescription: rec.Description,
		UnitPrice:          domain.FromFixedPoint(rec.Price),
		EndTime:            int64(rec.EndTime),
		State:              domain.ListingState(rec.State),
		Buyers:             []string{},
	}, nil
}

// Listings returns the cached listing set, refreshing from the ledger first
// if no refresh has succeeded yet this session.
func (s *SyncClient) Listings(ctx context.Context) ([]domain.Listing, error) {
	listings, populated, err := s.cache.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync: snapshot: %w", err)
	}
	if populated {
		return listings, nil
	}
	return s.RefreshAll(ctx)
}

// Listing returns one listing with its buyers snapshot freshly fetched from
// the escrow contract. The buyers list is only ever a point-in-time snapshot.
func (s *SyncClient) Listing(ctx context.Context, id uint64) (domain.Listing, error) {
	l, err := s.cachedListing(ctx, id)
	if err != nil {
		return domain.Listing{}, err
	}

	buyers, err := s.ledger.Orders(ctx, l.ContractAddress)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("sync: buyers of listing %d: %w", id, err)
	}
	l.Buyers = buyers

	if err := s.cache.Put(ctx, l); err != nil {
		s.logger.WarnContext(ctx, "cache put failed",
			slog.Uint64("listing_id", id),
			slog.String("error", err.Error()),
		)
	}
	return l, nil
}

// cachedListing reads a listing from the cache, populating it first when this
// session has not refreshed yet.
func (s *SyncClient) cachedListing(ctx context.Context, id uint64) (domain.Listing, error) {
	_, populated, err := s.cache.Snapshot(ctx)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("sync: snapshot: %w", err)
	}
	if !populated {
		if _, err := s.RefreshAll(ctx); err != nil {
			return domain.Listing{}, err
		}
	}

	l, err := s.cache.Get(ctx, id)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("sync: listing %d: %w", id, err)
	}
	return l, nil
}

// CreateListingInput carries the author-supplied fields for a new listing.
type CreateListingInput struct {
	ProductName        string
	ProductDescription string
	Price              decimal.Decimal
	DurationMinutes    int64
}

// CreateListing validates the input, submits the creation transaction, waits
// for confirmation, and triggers a full refresh so the cache reflects the new
// listing only after the ledger does. It returns the transaction hash.
//
// Validation happens entirely client-side before any external call: a
// rejected input makes zero ledger round-trips.
func (s *SyncClient) CreateListing(ctx context.Context, in CreateListingInput) (string, error) {
	if in.ProductName == "" || in.ProductDescription == "" || in.DurationMinutes == 0 || in.Price.IsZero() {
		return "", domain.ErrMissingField
	}
	if in.Price.IsNegative() {
		return "", fmt.Errorf("%w: price must be more than 0", domain.ErrInvalidPrice)
	}
	if in.DurationMinutes < minDurationMinutes {
		return "", domain.ErrDurationTooShort
	}

	price, err := domain.ToFixedPoint(in.Price)
	if err != nil {
		return "", err
	}

	if !s.ledger.CanWrite() {
		return "", domain.ErrNoWriteCapability
	}

	txHash, err := s.ledger.CreateListing(ctx,
		uint64(in.DurationMinutes)*60, price, in.ProductName, in.ProductDescription)
	s.record(ctx, "create_listing", nil, txHash, err, map[string]any{
		"product_name": in.ProductName,
		"price":        in.Price.String(),
	})
	if err != nil {
		return txHash, fmt.Errorf("sync: create listing: %w", err)
	}

	// Never optimistic: the cache reflects the new listing only after a
	// full re-enumeration of the ledger.
	if _, err := s.RefreshAll(ctx); err != nil {
		s.logger.WarnContext(ctx, "post-create refresh failed",
			slog.String("error", err.Error()),
		)
	}

	s.publish(ctx, domain.EventListingCreated, map[string]any{
		"product_name": in.ProductName,
		"seller":       s.session.Address,
		"tx":           txHash,
	})
	s.notify(ctx, domain.EventListingCreated, "Listing created",
		fmt.Sprintf("%s listed at %s by %s", in.ProductName, in.Price.String(), s.session.Address))

	return txHash, nil
}

// PlaceOrder submits a payment of exactly the listing's unit price to its
// escrow contract, waits for confirmation, and returns the listing with a
// re-fetched buyers snapshot. Gating that the original left to UI affordance
// is enforced here defensively; the contract remains the authority.
func (s *SyncClient) PlaceOrder(ctx context.Context, id uint64) (domain.Listing, error) {
	if !s.ledger.CanWrite() {
		return domain.Listing{}, domain.ErrNoWriteCapability
	}

	l, err := s.cachedListing(ctx, id)
	if err != nil {
		return domain.Listing{}, err
	}

	buyers, err := s.ledger.Orders(ctx, l.ContractAddress)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("sync: buyers of listing %d: %w", id, err)
	}
	l.Buyers = buyers

	account := s.ledger.Account()
	switch {
	case l.State != domain.ListingOpen:
		return domain.Listing{}, domain.ErrNotOpen
	case l.IsSeller(account):
		return domain.Listing{}, domain.ErrSellerOrder
	case l.HasBuyer(account):
		return domain.Listing{}, domain.ErrAlreadyOrdered
	}

	txHash, err := s.ledger.PlaceOrder(ctx, l.ContractAddress, domain.ToNativeValue(l.UnitPrice))
	s.record(ctx, "place_order", &id, txHash, err, map[string]any{
		"price": l.UnitPrice.String(),
	})
	if err != nil {
		// Local state stays untouched; the rejection propagates as-is.
		return domain.Listing{}, fmt.Errorf("sync: place order on listing %d: %w", id, err)
	}

	buyers, err = s.ledger.Orders(ctx, l.ContractAddress)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("sync: re-fetch buyers of listing %d: %w", id, err)
	}
	l.Buyers = buyers

	if err := s.cache.Put(ctx, l); err != nil {
		s.logger.WarnContext(ctx, "cache put failed",
			slog.Uint64("listing_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.publish(ctx, domain.EventOrderPlaced, map[string]any{
		"listing_id": id,
		"buyer":      account,
		"tx":         txHash,
	})
	s.notify(ctx, domain.EventOrderPlaced, "Order placed",
		fmt.Sprintf("%s ordered listing #%d (%s)", account, id, l.ProductName))

	return l, nil
}

// Withdraw submits a withdrawal of the escrowed funds to the seller, waits
// for confirmation, and marks the session-local withdrawn hint. The hint does
// not survive a full refresh because the contracts expose no withdrawal state
// to rebuild it from.
func (s *SyncClient) Withdraw(ctx context.Context, id uint64) (string, error) {
	if !s.ledger.CanWrite() {
		return "", domain.ErrNoWriteCapability
	}

	l, err := s.cachedListing(ctx, id)
	if err != nil {
		return "", err
	}

	account := s.ledger.Account()
	if !l.IsSeller(account) {
		return "", domain.ErrNotSeller
	}
	if l.State != domain.ListingEnded {
		return "", domain.ErrNotEnded
	}
	if l.Withdrawn {
		return "", domain.ErrAlreadyWithdrawn
	}

	buyers, err := s.ledger.Orders(ctx, l.ContractAddress)
	if err != nil {
		return "", fmt.Errorf("sync: buyers of listing %d: %w", id, err)
	}
	if len(buyers) == 0 {
		return "", domain.ErrNoBuyers
	}
	l.Buyers = buyers

	txHash, err := s.ledger.WithdrawFunds(ctx, l.ContractAddress)
	s.record(ctx, "withdraw", &id, txHash, err, nil)
	if err != nil {
		return txHash, fmt.Errorf("sync: withdraw from listing %d: %w", id, err)
	}

	l.Withdrawn = true
	if err := s.cache.Put(ctx, l); err != nil {
		s.logger.WarnContext(ctx, "cache put failed",
			slog.Uint64("listing_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.publish(ctx, domain.EventFundsWithdrawn, map[string]any{
		"listing_id": id,
		"seller":     account,
		"tx":         txHash,
	})
	s.notify(ctx, domain.EventFundsWithdrawn, "Funds withdrawn",
		fmt.Sprintf("Seller %s withdrew proceeds of listing #%d", account, id))

	return txHash, nil
}

// Invalidate empties the cache, forcing the next read to rebuild from the
// ledger.
func (s *SyncClient) Invalidate(ctx context.Context) error {
	if err := s.cache.Invalidate(ctx); err != nil {
		return fmt.Errorf("sync: invalidate: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Internal helpers
// ---------------------------------------------------------------------------

// record journals a submitted transaction. Journal failures are logged, never
// propagated: the journal is observability, not state.
func (s *SyncClient) record(ctx context.Context, op string, listingID *uint64, txHash string, opErr error, detail map[string]any) {
	if s.journal == nil {
		return
	}

	status := "confirmed"
	if opErr != nil {
		status = "failed"
		if detail == nil {
			detail = map[string]any{}
		}
		detail["error"] = opErr.Error()
	}

	rec := domain.TxRecord{
		Op:        op,
		ListingID: listingID,
		TxHash:    txHash,
		Status:    status,
		Detail:    detail,
	}
	if err := s.journal.Record(ctx, rec); err != nil {
		s.logger.WarnContext(ctx, "journal record failed",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
	}
}

// publish emits a JSON event envelope on the signal bus.
func (s *SyncClient) publish(ctx context.Context, event string, payload map[string]any) {
	if s.bus == nil {
		return
	}

	data, err := json.Marshal(map[string]any{
		"type":    event,
		"payload": payload,
	})
	if err != nil {
		return
	}
	if err := s.bus.Publish(ctx, event, data); err != nil {
		s.logger.WarnContext(ctx, "publish failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

// notify forwards an event to the notification channels, if configured.
func (s *SyncClient) notify(ctx context.Context, event, title, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, event, title, message); err != nil {
		s.logger.WarnContext(ctx, "notify failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

// reportRefreshFailure logs, publishes, and notifies a failed refresh.
func (s *SyncClient) reportRefreshFailure(ctx context.Context, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	s.logger.ErrorContext(ctx, "refresh failed", slog.String("error", err.Error()))
	s.publish(ctx, domain.EventRefreshFailed, map[string]any{
		"error": err.Error(),
	})
	s.notify(ctx, domain.EventRefreshFailed, "Refresh failed", err.Error())
}
