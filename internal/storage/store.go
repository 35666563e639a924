// Package storage persists the bill collection behind a key-value store.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mmynk/moneyshare/internal/idgen"
	"github.com/mmynk/moneyshare/internal/metrics"
	"github.com/mmynk/moneyshare/internal/models"
)

// BillsKey is the key the whole bill collection is stored under.
const BillsKey = "MONEY_BILLS"

// KV is the narrow key-value contract a backend has to provide. Values are
// opaque strings; the store owns their JSON shape.
type KV interface {
	// Get returns the value for key, or ok=false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// Close releases any resources held by the backend.
	Close() error
}

// SaveResult describes a finished upsert.
type SaveResult struct {
	Bill    models.Bill
	Created bool
}

// Notifier is told about successful saves when the caller asks for it.
type Notifier interface {
	BillSaved(ctx context.Context, res SaveResult)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, res SaveResult)

func (f NotifierFunc) BillSaved(ctx context.Context, res SaveResult) { f(ctx, res) }

type noopNotifier struct{}

func (noopNotifier) BillSaved(context.Context, SaveResult) {}

// BillStore reads and rewrites the full bill collection on every
// operation. Writes are serialized so concurrent callers in one process
// never lose each other's changes.
type BillStore struct {
	kv       KV
	ids      idgen.Generator
	notifier Notifier
	now      func() time.Time

	mu sync.Mutex
}

// Option configures a BillStore.
type Option func(*BillStore)

// WithNotifier sets the receiver of save notifications.
func WithNotifier(n Notifier) Option {
	return func(s *BillStore) { s.notifier = n }
}

// WithIDGenerator sets the source of new bill ids.
func WithIDGenerator(g idgen.Generator) Option {
	return func(s *BillStore) { s.ids = g }
}

// WithClock overrides the time source used for date stamps.
func WithClock(now func() time.Time) Option {
	return func(s *BillStore) { s.now = now }
}

// NewBillStore creates a store over kv. Without WithIDGenerator, ids count
// up from the current Unix time in milliseconds.
func NewBillStore(kv KV, opts ...Option) *BillStore {
	s := &BillStore{
		kv:       kv,
		notifier: noopNotifier{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ids == nil {
		s.ids = idgen.NewSequence(s.now().UnixMilli())
	}
	return s
}

// Close closes the underlying backend.
func (s *BillStore) Close() error {
	return s.kv.Close()
}

// List returns the stored bills in insertion order. Sub-bills are left out
// unless includeSubBills is set.
func (s *BillStore) List(ctx context.Context, includeSubBills bool) (bills []models.Bill, err error) {
	defer func() { metrics.RecordStoreOp("list", err) }()

	all, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if includeSubBills {
		return all, nil
	}
	return slices.DeleteFunc(all, func(b models.Bill) bool { return b.IsSubBill }), nil
}

// GetByID returns the bill with the given id.
func (s *BillStore) GetByID(ctx context.Context, id int64) (bill models.Bill, err error) {
	defer func() { metrics.RecordStoreOp("get", err) }()

	all, err := s.load(ctx)
	if err != nil {
		return models.Bill{}, err
	}
	i := indexOf(all, id)
	if i < 0 {
		return models.Bill{}, models.BillNotFound(id)
	}
	return all[i], nil
}

// Create appends a new bill. An id is assigned when bill.ID is zero; a
// caller-supplied id must not be taken yet.
func (s *BillStore) Create(ctx context.Context, bill models.Bill) (created models.Bill, err error) {
	defer func() { metrics.RecordStoreOp("create", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return models.Bill{}, err
	}
	if bill.ID != 0 && indexOf(all, bill.ID) >= 0 {
		return models.Bill{}, models.ValidationError{Reason: fmt.Sprintf("bill %d already exists", bill.ID)}
	}

	bill = s.prepare(all, bill)
	if err := bill.Validate(); err != nil {
		return models.Bill{}, err
	}
	if err := s.save(ctx, append(all, bill)); err != nil {
		return models.Bill{}, err
	}

	slog.Info("Bill created", "bill_id", bill.ID, "mode", bill.Mode.String(), "sub_bill", bill.IsSubBill)
	return bill, nil
}

// Upsert replaces the bill with the same id or appends it. Saving a
// sub-bill also refreshes the amount of its parent's linking line. When
// notify is set the configured Notifier receives the result.
func (s *BillStore) Upsert(ctx context.Context, bill models.Bill, notify bool) (res SaveResult, err error) {
	defer func() { metrics.RecordStoreOp("upsert", err) }()

	s.mu.Lock()
	res, err = s.upsertLocked(ctx, bill)
	s.mu.Unlock()
	if err != nil {
		return SaveResult{}, err
	}

	if notify {
		s.notifier.BillSaved(ctx, res)
	}
	return res, nil
}

// Save upserts a bill sent by a client. Expense lines may only keep links
// to sub-bills the stored version already links to. Sub-bills whose lines
// were dropped are deleted in the same write and returned as removed.
func (s *BillStore) Save(ctx context.Context, bill models.Bill, notify bool) (res SaveResult, removed []int64, err error) {
	defer func() { metrics.RecordStoreOp("save", err) }()

	s.mu.Lock()
	res, removed, err = s.saveLocked(ctx, bill)
	s.mu.Unlock()
	if err != nil {
		return SaveResult{}, nil, err
	}

	if notify {
		s.notifier.BillSaved(ctx, res)
	}
	return res, removed, nil
}

func (s *BillStore) saveLocked(ctx context.Context, bill models.Bill) (SaveResult, []int64, error) {
	all, err := s.load(ctx)
	if err != nil {
		return SaveResult{}, nil, err
	}

	var prev models.Bill
	if i := indexOf(all, bill.ID); bill.ID != 0 && i >= 0 {
		prev = all[i]
	}
	if err := checkLinks(all, prev, bill); err != nil {
		return SaveResult{}, nil, err
	}

	removed := subBills(all, bill.ID, prev.RemovedSubBills(bill))
	all = slices.DeleteFunc(all, func(b models.Bill) bool { return slices.Contains(removed, b.ID) })

	res, err := s.upsertInto(ctx, all, bill)
	if err != nil {
		return SaveResult{}, nil, err
	}
	if len(removed) > 0 {
		slog.Info("Dropped unlinked sub-bills", "bill_id", res.Bill.ID, "sub_bills", removed)
	}
	return res, removed, nil
}

func (s *BillStore) upsertLocked(ctx context.Context, bill models.Bill) (SaveResult, error) {
	all, err := s.load(ctx)
	if err != nil {
		return SaveResult{}, err
	}
	return s.upsertInto(ctx, all, bill)
}

func (s *BillStore) upsertInto(ctx context.Context, all []models.Bill, bill models.Bill) (SaveResult, error) {
	bill = s.prepare(all, bill)
	if err := bill.Validate(); err != nil {
		return SaveResult{}, err
	}

	created := false
	if i := indexOf(all, bill.ID); i >= 0 {
		all[i] = bill
	} else {
		all = append(all, bill)
		created = true
	}
	if bill.IsSubBill {
		refreshParents(all, bill)
	}

	if err := s.save(ctx, all); err != nil {
		return SaveResult{}, err
	}
	slog.Info("Bill saved", "bill_id", bill.ID, "created", created)
	return SaveResult{Bill: bill, Created: created}, nil
}

// Update applies fn to the stored bill with the given id and saves the
// result, all under the write lock.
func (s *BillStore) Update(ctx context.Context, id int64, fn func(models.Bill) (models.Bill, error)) (updated models.Bill, err error) {
	defer func() { metrics.RecordStoreOp("update", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return models.Bill{}, err
	}
	i := indexOf(all, id)
	if i < 0 {
		return models.Bill{}, models.BillNotFound(id)
	}

	next, err := fn(all[i].Clone())
	if err != nil {
		return models.Bill{}, err
	}
	next.ID = id
	res, err := s.upsertLocked(ctx, next)
	if err != nil {
		return models.Bill{}, err
	}
	return res.Bill, nil
}

// Delete removes a bill and every sub-bill its expenses reference.
func (s *BillStore) Delete(ctx context.Context, id int64) (err error) {
	defer func() { metrics.RecordStoreOp("delete", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return err
	}
	i := indexOf(all, id)
	if i < 0 {
		return models.BillNotFound(id)
	}

	doomed := append([]int64{id}, subBills(all, id, all[i].SubBillIDs())...)
	kept := slices.DeleteFunc(all, func(b models.Bill) bool { return slices.Contains(doomed, b.ID) })
	if err := s.save(ctx, kept); err != nil {
		return err
	}

	slog.Info("Bill deleted", "bill_id", id, "sub_bills", doomed[1:])
	return nil
}

// DeleteSubBill removes a single sub-bill. Ids of regular bills are
// rejected so a stray link never takes a standalone bill with it.
func (s *BillStore) DeleteSubBill(ctx context.Context, id int64) (err error) {
	defer func() { metrics.RecordStoreOp("delete_sub_bill", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return err
	}
	i := indexOf(all, id)
	if i < 0 {
		return models.BillNotFound(id)
	}
	if !all[i].IsSubBill {
		return models.ValidationError{Reason: fmt.Sprintf("bill %d is not a sub-bill", id)}
	}

	if err := s.save(ctx, slices.Delete(all, i, i+1)); err != nil {
		return err
	}
	slog.Info("Sub-bill deleted", "bill_id", id)
	return nil
}

// FindParent returns the bill whose expenses link to the given sub-bill.
func (s *BillStore) FindParent(ctx context.Context, subBillID int64) (models.Bill, bool, error) {
	all, err := s.load(ctx)
	if err != nil {
		return models.Bill{}, false, err
	}
	for _, b := range all {
		if slices.Contains(b.SubBillIDs(), subBillID) {
			return b, true, nil
		}
	}
	return models.Bill{}, false, nil
}

// prepare assigns a fresh id when missing and stamps the save date.
func (s *BillStore) prepare(all []models.Bill, bill models.Bill) models.Bill {
	bill = bill.Normalize()
	if bill.ID == 0 {
		bill.ID = s.nextID(all)
	}
	bill.Date = s.now().UTC().Format(time.RFC3339)
	return bill
}

// nextID draws ids until one is free in the collection.
func (s *BillStore) nextID(all []models.Bill) int64 {
	for {
		id := s.ids.NextID()
		if id != 0 && indexOf(all, id) < 0 {
			return id
		}
	}
}

func (s *BillStore) load(ctx context.Context) ([]models.Bill, error) {
	raw, ok, err := s.kv.Get(ctx, BillsKey)
	if err != nil {
		return nil, &models.PersistenceError{Op: "read", Err: err}
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []models.Bill{}, nil
	}

	var bills []models.Bill
	if err := json.Unmarshal([]byte(raw), &bills); err != nil {
		return nil, &models.PersistenceError{Op: "decode", Err: err}
	}
	for i := range bills {
		bills[i] = bills[i].WithLegacyExpenseIDs().Normalize()
	}
	return bills, nil
}

func (s *BillStore) save(ctx context.Context, bills []models.Bill) error {
	if bills == nil {
		bills = []models.Bill{}
	}
	data, err := json.Marshal(bills)
	if err != nil {
		return &models.PersistenceError{Op: "encode", Err: err}
	}
	if err := s.kv.Set(ctx, BillsKey, string(data)); err != nil {
		return &models.PersistenceError{Op: "write", Err: err}
	}
	return nil
}

func refreshParents(all []models.Bill, sub models.Bill) {
	for i := range all {
		if next, changed := all[i].WithSubBillLine(sub); changed {
			all[i] = next
			slog.Debug("Refreshed sub-bill line", "bill_id", next.ID, "sub_bill_id", sub.ID)
		}
	}
}

// checkLinks rejects sub-bill links that the stored version of the bill
// does not already carry, and links pointing at regular bills.
func checkLinks(all []models.Bill, prev, next models.Bill) error {
	known := prev.SubBillIDs()
	for _, id := range next.SubBillIDs() {
		if !slices.Contains(known, id) {
			return models.ValidationError{Reason: fmt.Sprintf("sub-bill %d is not linked to this bill", id)}
		}
		if i := indexOf(all, id); i >= 0 && (!all[i].IsSubBill || id == next.ID) {
			return models.ValidationError{Reason: fmt.Sprintf("bill %d is not a sub-bill", id)}
		}
	}
	return nil
}

// subBills keeps the ids that name a stored sub-bill other than owner.
func subBills(all []models.Bill, owner int64, ids []int64) []int64 {
	var out []int64
	for _, id := range ids {
		if id == owner {
			continue
		}
		if i := indexOf(all, id); i >= 0 && all[i].IsSubBill {
			out = append(out, id)
		}
	}
	return out
}

func indexOf(bills []models.Bill, id int64) int {
	return slices.IndexFunc(bills, func(b models.Bill) bool { return b.ID == id })
}
