package service

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/celobazaar/groupbuyd/internal/domain"
)

// fakeLedger implements domain.Ledger over in-memory listing fixtures and
// counts every call so tests can assert how many round-trips an operation
// made.
type fakeLedger struct {
	mu sync.Mutex

	records   map[uint64]domain.ListingRecord
	addresses map[uint64]string
	orders    map[string][]string // escrow addr -> buyers

	account  string
	writable bool

	counterErr  error
	infoErr     map[uint64]error
	ordersErr   error
	createErr   error
	placeErr    error
	withdrawErr error

	calls map[string]int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		records:   make(map[uint64]domain.ListingRecord),
		addresses: make(map[uint64]string),
		orders:    make(map[string][]string),
		infoErr:   make(map[uint64]error),
		calls:     make(map[string]int),
		account:   "0xwriter",
		writable:  true,
	}
}

// addListing registers a listing fixture under the next free id.
func (f *fakeLedger) addListing(rec domain.ListingRecord, buyers ...string) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := uint64(len(f.records))
	addr := fmt.Sprintf("0xescrow%04d", id)
	f.records[id] = rec
	f.addresses[id] = addr
	f.orders[addr] = buyers
	return id
}

func (f *fakeLedger) count(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeLedger) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeLedger) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *fakeLedger) Counter(context.Context) (uint64, error) {
	f.count("Counter")
	if f.counterErr != nil {
		return 0, f.counterErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint64(len(f.records)), nil
}

func (f *fakeLedger) ListingInfo(_ context.Context, id uint64) (domain.ListingRecord, error) {
	f.count("ListingInfo")
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.infoErr[id]; err != nil {
		return domain.ListingRecord{}, err
	}
	rec, ok := f.records[id]
	if !ok {
		return domain.ListingRecord{}, fmt.Errorf("no listing %d", id)
	}
	return rec, nil
}

func (f *fakeLedger) ListingContractAddress(_ context.Context, id uint64) (string, error) {
	f.count("ListingContractAddress")
	f.mu.Lock()
	defer f.mu.Unlock()
	addr, ok := f.addresses[id]
	if !ok {
		return "", fmt.Errorf("no listing %d", id)
	}
	return addr, nil
}

func (f *fakeLedger) CreateListing(_ context.Context, durationSeconds uint64, price *big.Int, name, description string) (string, error) {
	f.count("CreateListing")
	if f.createErr != nil {
		return "", f.createErr
	}

	f.mu.Lock()
	id := uint64(len(f.records))
	addr := fmt.Sprintf("0xescrow%04d", id)
	f.records[id] = domain.ListingRecord{
		EndTime:     1_000_000 + durationSeconds,
		State:       uint8(domain.ListingOpen),
		Price:       price,
		Name:        name,
		Description: description,
		Seller:      f.account,
	}
	f.addresses[id] = addr
	f.orders[addr] = nil
	f.mu.Unlock()

	return fmt.Sprintf("0xtxcreate%04d", id), nil
}

func (f *fakeLedger) Orders(_ context.Context, contractAddr string) ([]string, error) {
	f.count("Orders")
	if f.ordersErr != nil {
		return nil, f.ordersErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.orders[contractAddr]...), nil
}

func (f *fakeLedger) PlaceOrder(_ context.Context, contractAddr string, _ *big.Int) (string, error) {
	f.count("PlaceOrder")
	if f.placeErr != nil {
		return "", f.placeErr
	}
	f.mu.Lock()
	f.orders[contractAddr] = append(f.orders[contractAddr], f.account)
	f.mu.Unlock()
	return "0xtxorder", nil
}

func (f *fakeLedger) WithdrawFunds(_ context.Context, _ string) (string, error) {
	f.count("WithdrawFunds")
	if f.withdrawErr != nil {
		return "", f.withdrawErr
	}
	return "0xtxwithdraw", nil
}

func (f *fakeLedger) CanWrite() bool { return f.writable }

func (f *fakeLedger) Account() string { return f.account }

// journalRecorder captures journal entries in memory.
type journalRecorder struct {
	mu      sync.Mutex
	records []domain.TxRecord
}

func (j *journalRecorder) Record(_ context.Context, rec domain.TxRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, rec)
	return nil
}

func (j *journalRecorder) ListRecent(_ context.Context, limit int) ([]domain.TxRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if limit > len(j.records) {
		limit = len(j.records)
	}
	out := make([]domain.TxRecord, 0, limit)
	for i := len(j.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, j.records[i])
	}
	return out, nil
}
