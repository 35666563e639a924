package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/moneyshare/internal/calculator"
	"github.com/mmynk/moneyshare/internal/decoder"
	"github.com/mmynk/moneyshare/internal/metrics"
	"github.com/mmynk/moneyshare/internal/models"
	"github.com/mmynk/moneyshare/internal/share"
	"github.com/mmynk/moneyshare/internal/storage"
	"github.com/mmynk/moneyshare/pkg/api"
	"github.com/mmynk/moneyshare/pkg/api/apiconnect"
)

// DefaultSubBillName names sub-bills created without a name.
const DefaultSubBillName = "Sub-Bill Food"

// BillService implements the Connect BillService
type BillService struct {
	store    *storage.BillStore
	decoder  decoder.Decoder
	renderer share.Renderer
	now      func() time.Time
}

var _ apiconnect.BillServiceHandler = (*BillService)(nil)

// Option configures a BillService.
type Option func(*BillService)

// WithRenderer replaces the report renderer used by ExportReport.
func WithRenderer(r share.Renderer) Option {
	return func(s *BillService) { s.renderer = r }
}

// WithClock overrides the time source used for default titles and report
// stamps.
func WithClock(now func() time.Time) Option {
	return func(s *BillService) { s.now = now }
}

// NewBillService creates a BillService over the given store. dec may be nil,
// in which case image scanning reports the decoder as unavailable.
func NewBillService(store *storage.BillStore, dec decoder.Decoder, opts ...Option) *BillService {
	s := &BillService{
		store:    store,
		decoder:  dec,
		renderer: share.TextRenderer{Brand: "MoneyShare"},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateBill builds a new bill from scratch and persists it.
func (s *BillService) CreateBill(ctx context.Context, req *connect.Request[api.CreateBillRequest]) (*connect.Response[api.BillResponse], error) {
	msg := req.Msg
	if err := validate(msg); err != nil {
		return nil, fail("CreateBill", err)
	}
	mode, err := models.ParseBillMode(msg.Mode)
	if err != nil {
		return nil, fail("CreateBill", err)
	}

	bill, err := models.NewBill(mode,
		models.WithName(msg.Name),
		models.WithAddress(msg.Address),
		models.WithParticipants(trimAll(msg.Participants)...),
	)
	if err != nil {
		return nil, fail("CreateBill", err)
	}
	for _, e := range msg.Expenses {
		if bill, err = s.addExpense(bill, fromAPIExpense(e)); err != nil {
			return nil, fail("CreateBill", err)
		}
	}
	bill, err = bill.WithAdjustments(models.Adjustments{
		Discount:    &msg.DiscountAmount,
		Ship:        &msg.ShipAmount,
		ActualTotal: &msg.ActualTotal,
	})
	if err != nil {
		return nil, fail("CreateBill", err)
	}
	if bill.Name == "" {
		bill.Name = defaultTitle(bill, s.now())
	}

	created, err := s.store.Create(ctx, bill)
	if err != nil {
		return nil, fail("CreateBill", err)
	}
	return connect.NewResponse(&api.BillResponse{Bill: toAPIBill(created)}), nil
}

// GetBill returns one bill. Sub-bills can be fetched directly for
// inspection.
func (s *BillService) GetBill(ctx context.Context, req *connect.Request[api.GetBillRequest]) (*connect.Response[api.BillResponse], error) {
	if err := validate(req.Msg); err != nil {
		return nil, fail("GetBill", err)
	}
	bill, err := s.store.GetByID(ctx, req.Msg.BillID)
	if err != nil {
		return nil, fail("GetBill", err, "bill_id", req.Msg.BillID)
	}
	return connect.NewResponse(&api.BillResponse{Bill: toAPIBill(bill)}), nil
}

// ListBills returns the stored bills in insertion order.
func (s *BillService) ListBills(ctx context.Context, req *connect.Request[api.ListBillsRequest]) (*connect.Response[api.ListBillsResponse], error) {
	bills, err := s.store.List(ctx, req.Msg.IncludeSubBills)
	if err != nil {
		return nil, fail("ListBills", err)
	}
	slog.Debug("Listed bills", "count", len(bills), "include_sub_bills", req.Msg.IncludeSubBills)
	return connect.NewResponse(&api.ListBillsResponse{Bills: toAPIBills(bills)}), nil
}

// SaveBill upserts a whole bill as edited by a client. Expense lines can
// only keep sub-bill links the stored bill already has; sub-bills whose
// linking lines were dropped in the edit are deleted.
func (s *BillService) SaveBill(ctx context.Context, req *connect.Request[api.SaveBillRequest]) (*connect.Response[api.SaveBillResponse], error) {
	if err := validate(req.Msg); err != nil {
		return nil, fail("SaveBill", err)
	}
	bill, err := fromAPIBill(req.Msg.Bill)
	if err != nil {
		return nil, fail("SaveBill", err)
	}

	res, removed, err := s.store.Save(ctx, bill, req.Msg.Notify)
	if err != nil {
		return nil, fail("SaveBill", err, "bill_id", bill.ID)
	}
	for _, id := range removed {
		slog.Info("Sub-bill deleted with its line", "sub_bill_id", id, "bill_id", res.Bill.ID)
	}
	return connect.NewResponse(&api.SaveBillResponse{Bill: toAPIBill(res.Bill), Created: res.Created}), nil
}

// DeleteBill removes a bill together with its sub-bills.
func (s *BillService) DeleteBill(ctx context.Context, req *connect.Request[api.DeleteBillRequest]) (*connect.Response[api.DeleteBillResponse], error) {
	if err := validate(req.Msg); err != nil {
		return nil, fail("DeleteBill", err)
	}
	if err := s.store.Delete(ctx, req.Msg.BillID); err != nil {
		return nil, fail("DeleteBill", err, "bill_id", req.Msg.BillID)
	}
	return connect.NewResponse(&api.DeleteBillResponse{}), nil
}

// AddParticipant appends a name to a NORMAL bill's roster.
func (s *BillService) AddParticipant(ctx context.Context, req *connect.Request[api.AddParticipantRequest]) (*connect.Response[api.BillResponse], error) {
	if err := validate(req.Msg); err != nil {
		return nil, fail("AddParticipant", err)
	}
	bill, err := s.store.Update(ctx, req.Msg.BillID, func(b models.Bill) (models.Bill, error) {
		return b.WithParticipant(req.Msg.Name)
	})
	if err != nil {
		return nil, fail("AddParticipant", err, "bill_id", req.Msg.BillID)
	}
	return connect.NewResponse(&api.BillResponse{Bill: toAPIBill(bill)}), nil
}

// RemoveParticipant drops a participant and the expenses they paid for.
func (s *BillService) RemoveParticipant(ctx context.Context, req *connect.Request[api.RemoveParticipantRequest]) (*connect.Response[api.BillResponse], error) {
	if err := validate(req.Msg); err != nil {
		return nil, fail("RemoveParticipant", err)
	}
	var removed []int64
	bill, err := s.store.Update(ctx, req.Msg.BillID, func(b models.Bill) (models.Bill, error) {
		next, err := b.WithoutParticipant(strings.TrimSpace(req.Msg.Name))
		if err != nil {
			return models.Bill{}, err
		}
		removed = b.RemovedSubBills(next)
		return next, nil
	})
	if err != nil {
		return nil, fail("RemoveParticipant", err, "bill_id", req.Msg.BillID)
	}
	if _, err := s.deleteSubBills(ctx, removed); err != nil {
		return nil, fail("RemoveParticipant", err, "bill_id", req.Msg.BillID)
	}
	return connect.NewResponse(&api.BillResponse{Bill: toAPIBill(bill)}), nil
}

// AddExpense appends an expense line. Lines linking a sub-bill are only
// created through CreateSubBill.
func (s *BillService) AddExpense(ctx context.Context, req *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.BillResponse], error) {
	if err := validate(req.Msg); err != nil {
		return nil, fail("AddExpense", err)
	}
	bill, err := s.store.Update(ctx, req.Msg.BillID, func(b models.Bill) (models.Bill, error) {
		return s.addExpense(b, fromAPIExpense(req.Msg.Expense))
	})
	if err != nil {
		return nil, fail("AddExpense", err, "bill_id", req.Msg.BillID)
	}
	return connect.NewResponse(&api.BillResponse{Bill: toAPIBill(bill)}), nil
}

// RemoveExpense deletes an expense line. When the line linked a sub-bill,
// the sub-bill is deleted too; a sub-bill that is already gone is ignored.
func (s *BillService) RemoveExpense(ctx context.Context, req *connect.Request[api.RemoveExpenseRequest]) (*connect.Response[api.RemoveExpenseResponse], error) {
	if err := validate(req.Msg); err != nil {
		return nil, fail("RemoveExpense", err)
	}
	var removed models.Expense
	bill, err := s.store.Update(ctx, req.Msg.BillID, func(b models.Bill) (models.Bill, error) {
		next, e, err := b.WithoutExpense(req.Msg.ExpenseID)
		removed = e
		return next, err
	})
	if err != nil {
		return nil, fail("RemoveExpense", err, "bill_id", req.Msg.BillID, "expense_id", req.Msg.ExpenseID)
	}

	resp := &api.RemoveExpenseResponse{Bill: toAPIBill(bill)}
	if removed.SubBillID != 0 {
		deleted, err := s.deleteSubBills(ctx, []int64{removed.SubBillID})
		if err != nil {
			return nil, fail("RemoveExpense", err, "bill_id", req.Msg.BillID, "sub_bill_id", removed.SubBillID)
		}
		if len(deleted) > 0 {
			resp.RemovedSubBillID = removed.SubBillID
		}
	}
	return connect.NewResponse(resp), nil
}

// UpdateAdjustments changes discount, shipping and the real payment. Saving
// a sub-bill refreshes its parent's linking line.
func (s *BillService) UpdateAdjustments(ctx context.Context, req *connect.Request[api.UpdateAdjustmentsRequest]) (*connect.Response[api.BillResponse], error) {
	msg := req.Msg
	if err := validate(msg); err != nil {
		return nil, fail("UpdateAdjustments", err)
	}
	bill, err := s.store.Update(ctx, msg.BillID, func(b models.Bill) (models.Bill, error) {
		return b.WithAdjustments(models.Adjustments{
			Discount:    msg.DiscountAmount,
			Ship:        msg.ShipAmount,
			ActualTotal: msg.ActualTotal,
		})
	})
	if err != nil {
		return nil, fail("UpdateAdjustments", err, "bill_id", msg.BillID)
	}
	return connect.NewResponse(&api.BillResponse{Bill: toAPIBill(bill)}), nil
}

// ScanBill decodes a receipt image into a FOOD bill preview. Nothing is
// saved; the client reviews the lines and saves with SaveBill.
func (s *BillService) ScanBill(ctx context.Context, req *connect.Request[api.ScanBillRequest]) (*connect.Response[api.BillResponse], error) {
	if err := validate(req.Msg); err != nil {
		return nil, fail("ScanBill", err)
	}

	base := models.Bill{Mode: models.ModeFood, Expenses: []models.Expense{}}
	if req.Msg.BillID != 0 {
		var err error
		if base, err = s.store.GetByID(ctx, req.Msg.BillID); err != nil {
			return nil, fail("ScanBill", err, "bill_id", req.Msg.BillID)
		}
	}
	if base.Mode != models.ModeFood {
		return nil, fail("ScanBill", models.ValidationError{Reason: "only FOOD bills can be scanned"}, "bill_id", base.ID)
	}

	decoded, err := s.decode(ctx, req.Msg.Image)
	if err != nil {
		return nil, fail("ScanBill", err, "bill_id", base.ID)
	}
	preview, err := base.WithDecoded(decoded)
	if err != nil {
		return nil, fail("ScanBill", err, "bill_id", base.ID)
	}
	slog.Info("Bill scanned", "bill_id", base.ID, "expenses", len(preview.Expenses))
	return connect.NewResponse(&api.BillResponse{Bill: toAPIBill(preview)}), nil
}

// CreateSubBill creates a FOOD sub-bill and links it to a NORMAL parent
// through one expense line paid by req.PaidBy.
//
// Steps:
// - Check the parent and payer
// - Decode the image when one is given (a failure changes nothing)
// - Create the sub-bill, then add the linking line to the parent
// - Delete the sub-bill again if the parent could not be updated
func (s *BillService) CreateSubBill(ctx context.Context, req *connect.Request[api.CreateSubBillRequest]) (*connect.Response[api.CreateSubBillResponse], error) {
	msg := req.Msg
	if err := validate(msg); err != nil {
		return nil, fail("CreateSubBill", err)
	}

	parent, err := s.store.GetByID(ctx, msg.ParentID)
	if err != nil {
		return nil, fail("CreateSubBill", err, "bill_id", msg.ParentID)
	}
	if parent.Mode != models.ModeNormal || parent.IsSubBill {
		return nil, fail("CreateSubBill", models.ValidationError{Reason: "sub-bills can only be added to NORMAL bills"}, "bill_id", parent.ID)
	}
	paidBy := strings.TrimSpace(msg.PaidBy)
	if !parent.HasParticipant(paidBy) {
		return nil, fail("CreateSubBill", models.ValidationError{Reason: fmt.Sprintf("paidBy %q must be one of the participants", paidBy)}, "bill_id", parent.ID)
	}

	sub, err := models.NewBill(models.ModeFood,
		models.WithName(msg.Name),
		models.WithExpenses(fromAPIExpenses(msg.Expenses)...),
		models.AsSubBill(),
	)
	if err != nil {
		return nil, fail("CreateSubBill", err, "bill_id", parent.ID)
	}
	sub, err = sub.WithAdjustments(models.Adjustments{
		Discount:    &msg.DiscountAmount,
		Ship:        &msg.ShipAmount,
		ActualTotal: &msg.ActualTotal,
	})
	if err != nil {
		return nil, fail("CreateSubBill", err, "bill_id", parent.ID)
	}
	if msg.Image != "" {
		decoded, err := s.decode(ctx, msg.Image)
		if err != nil {
			return nil, fail("CreateSubBill", err, "bill_id", parent.ID)
		}
		if sub, err = sub.WithDecoded(decoded); err != nil {
			return nil, fail("CreateSubBill", err, "bill_id", parent.ID)
		}
	}
	if len(sub.Expenses) == 0 {
		return nil, fail("CreateSubBill", models.ValidationError{Reason: "Sub-bill has no expenses!"}, "bill_id", parent.ID)
	}
	if sub.Name == "" {
		sub.Name = DefaultSubBillName
	}

	sub, err = s.store.Create(ctx, sub)
	if err != nil {
		return nil, fail("CreateSubBill", err, "bill_id", parent.ID)
	}
	parent, err = s.store.Update(ctx, parent.ID, func(p models.Bill) (models.Bill, error) {
		return p.WithExpense(models.LinkingExpense(sub, paidBy))
	})
	if err != nil {
		if derr := s.store.DeleteSubBill(ctx, sub.ID); derr != nil {
			slog.Error("Failed to roll back sub-bill", "sub_bill_id", sub.ID, "error", derr)
		}
		return nil, fail("CreateSubBill", err, "bill_id", msg.ParentID, "sub_bill_id", sub.ID)
	}

	slog.Info("Sub-bill linked", "bill_id", parent.ID, "sub_bill_id", sub.ID, "paid_by", paidBy)
	return connect.NewResponse(&api.CreateSubBillResponse{
		Parent:  toAPIBill(parent),
		SubBill: toAPIBill(sub),
	}), nil
}

// CalculateBalances computes the balances of a stored bill or an unsaved
// draft. NORMAL results also carry suggested transfers.
func (s *BillService) CalculateBalances(ctx context.Context, req *connect.Request[api.CalculateBalancesRequest]) (*connect.Response[api.CalculateBalancesResponse], error) {
	var (
		bill models.Bill
		err  error
	)
	switch {
	case req.Msg.Draft != nil:
		if err = validate(req.Msg.Draft); err == nil {
			bill, err = fromAPIBill(*req.Msg.Draft)
		}
		bill = bill.Normalize()
	case req.Msg.BillID != 0:
		bill, err = s.store.GetByID(ctx, req.Msg.BillID)
	default:
		err = models.ValidationError{Reason: "billId or draft is required"}
	}
	if err != nil {
		return nil, fail("CalculateBalances", err, "bill_id", req.Msg.BillID)
	}

	res, transfers, err := s.calculate(bill)
	if err != nil {
		return nil, fail("CalculateBalances", err, "bill_id", bill.ID)
	}
	return connect.NewResponse(&api.CalculateBalancesResponse{
		Mode:      res.Mode.String(),
		Balances:  toAPIBalances(res),
		ByName:    res.ByLabel(),
		Transfers: toAPITransfers(transfers),
		RealPaid:  bill.Mode == models.ModeFood && bill.HasActualTotal(),
	}), nil
}

// ShareSummary formats a stored bill's balances as a chat-friendly text.
func (s *BillService) ShareSummary(ctx context.Context, req *connect.Request[api.ShareSummaryRequest]) (*connect.Response[api.ShareSummaryResponse], error) {
	if err := validate(req.Msg); err != nil {
		return nil, fail("ShareSummary", err)
	}
	bill, err := s.store.GetByID(ctx, req.Msg.BillID)
	if err != nil {
		return nil, fail("ShareSummary", err, "bill_id", req.Msg.BillID)
	}
	res, _, err := s.calculate(bill)
	if err != nil {
		return nil, fail("ShareSummary", err, "bill_id", bill.ID)
	}
	return connect.NewResponse(&api.ShareSummaryResponse{Text: share.FormatSummary(bill, res)}), nil
}

// ExportReport renders a stored bill with the configured renderer.
func (s *BillService) ExportReport(ctx context.Context, req *connect.Request[api.ExportReportRequest]) (*connect.Response[api.ExportReportResponse], error) {
	if err := validate(req.Msg); err != nil {
		return nil, fail("ExportReport", err)
	}
	bill, err := s.store.GetByID(ctx, req.Msg.BillID)
	if err != nil {
		return nil, fail("ExportReport", err, "bill_id", req.Msg.BillID)
	}
	res, transfers, err := s.calculate(bill)
	if err != nil {
		return nil, fail("ExportReport", err, "bill_id", bill.ID)
	}

	var buf bytes.Buffer
	doc := share.Document{Bill: bill, Result: res, Transfers: transfers, GeneratedAt: s.now()}
	if err := s.renderer.Render(&buf, doc); err != nil {
		return nil, fail("ExportReport", fmt.Errorf("render report: %w", err), "bill_id", bill.ID)
	}
	contentType := s.renderer.ContentType()
	return connect.NewResponse(&api.ExportReportResponse{
		Filename:    share.Filename(bill, extension(contentType)),
		ContentType: contentType,
		Content:     buf.String(),
	}), nil
}

// calculate runs the allocation for bill and, for NORMAL bills, the
// suggested transfers.
func (s *BillService) calculate(bill models.Bill) (calculator.Result, []calculator.Transfer, error) {
	res, err := calculator.Calculate(bill)
	metrics.RecordAllocation(bill.Mode.String(), err)
	if err != nil {
		return calculator.Result{}, nil, err
	}
	if bill.Mode != models.ModeNormal {
		return res, nil, nil
	}
	transfers, err := calculator.SuggestTransfers(res)
	if err != nil {
		return calculator.Result{}, nil, err
	}
	return res, transfers, nil
}

func (s *BillService) addExpense(b models.Bill, e models.Expense) (models.Bill, error) {
	if e.SubBillID != 0 {
		return models.Bill{}, models.ValidationError{Reason: "sub-bill lines are created with CreateSubBill"}
	}
	return b.WithExpense(e)
}

func (s *BillService) decode(ctx context.Context, image string) (models.DecodedBill, error) {
	if s.decoder == nil {
		return models.DecodedBill{}, &models.ExternalServiceError{Service: decoder.ServiceName, Err: decoder.ErrNotConfigured}
	}
	return s.decoder.Decode(ctx, image)
}

// deleteSubBills removes sub-bills whose linking lines are gone and returns
// the ids it deleted. Missing bills and regular bills are skipped.
func (s *BillService) deleteSubBills(ctx context.Context, ids []int64) ([]int64, error) {
	var (
		deleted []int64
		errs    []error
	)
	for _, id := range ids {
		err := s.store.DeleteSubBill(ctx, id)
		switch {
		case err == nil:
			deleted = append(deleted, id)
			slog.Info("Sub-bill deleted with its line", "sub_bill_id", id)
		case models.IsNotFound(err):
			slog.Warn("Linked sub-bill already gone", "sub_bill_id", id)
		case models.IsValidation(err):
			slog.Warn("Line linked a regular bill, keeping it", "sub_bill_id", id)
		default:
			errs = append(errs, fmt.Errorf("delete sub-bill %d: %w", id, err))
		}
	}
	return deleted, errors.Join(errs...)
}

// defaultTitle names a bill after its participants, or after the date when
// there is nobody to name.
func defaultTitle(b models.Bill, now time.Time) string {
	switch n := len(b.Participants); {
	case n == 0:
		return fmt.Sprintf("Bill - %s", now.Format("Jan 2, 2006"))
	case n <= 3:
		return fmt.Sprintf("Split with %s", strings.Join(b.Participants, ", "))
	default:
		return fmt.Sprintf("Split with %s and %d others", strings.Join(b.Participants[:2], ", "), n-2)
	}
}

func extension(contentType string) string {
	if strings.HasPrefix(contentType, "text/plain") {
		return "txt"
	}
	return "bin"
}

func trimAll(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, strings.TrimSpace(n))
	}
	return out
}
