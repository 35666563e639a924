// Package apiconnect wires the moneyshare.v1 BillService to Connect.
package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/moneyshare/pkg/api"
)

// BillServiceName is the fully-qualified name of the BillService service.
const BillServiceName = "moneyshare.v1.BillService"

// Procedure paths of the BillService RPCs.
const (
	BillServiceCreateBillProcedure        = "/moneyshare.v1.BillService/CreateBill"
	BillServiceGetBillProcedure           = "/moneyshare.v1.BillService/GetBill"
	BillServiceListBillsProcedure         = "/moneyshare.v1.BillService/ListBills"
	BillServiceSaveBillProcedure          = "/moneyshare.v1.BillService/SaveBill"
	BillServiceDeleteBillProcedure        = "/moneyshare.v1.BillService/DeleteBill"
	BillServiceAddParticipantProcedure    = "/moneyshare.v1.BillService/AddParticipant"
	BillServiceRemoveParticipantProcedure = "/moneyshare.v1.BillService/RemoveParticipant"
	BillServiceAddExpenseProcedure        = "/moneyshare.v1.BillService/AddExpense"
	BillServiceRemoveExpenseProcedure     = "/moneyshare.v1.BillService/RemoveExpense"
	BillServiceUpdateAdjustmentsProcedure = "/moneyshare.v1.BillService/UpdateAdjustments"
	BillServiceScanBillProcedure          = "/moneyshare.v1.BillService/ScanBill"
	BillServiceCreateSubBillProcedure     = "/moneyshare.v1.BillService/CreateSubBill"
	BillServiceCalculateBalancesProcedure = "/moneyshare.v1.BillService/CalculateBalances"
	BillServiceShareSummaryProcedure      = "/moneyshare.v1.BillService/ShareSummary"
	BillServiceExportReportProcedure      = "/moneyshare.v1.BillService/ExportReport"
)

// BillServiceHandler is implemented by the server side of BillService.
type BillServiceHandler interface {
	CreateBill(context.Context, *connect.Request[api.CreateBillRequest]) (*connect.Response[api.BillResponse], error)
	GetBill(context.Context, *connect.Request[api.GetBillRequest]) (*connect.Response[api.BillResponse], error)
	ListBills(context.Context, *connect.Request[api.ListBillsRequest]) (*connect.Response[api.ListBillsResponse], error)
	SaveBill(context.Context, *connect.Request[api.SaveBillRequest]) (*connect.Response[api.SaveBillResponse], error)
	DeleteBill(context.Context, *connect.Request[api.DeleteBillRequest]) (*connect.Response[api.DeleteBillResponse], error)
	AddParticipant(context.Context, *connect.Request[api.AddParticipantRequest]) (*connect.Response[api.BillResponse], error)
	RemoveParticipant(context.Context, *connect.Request[api.RemoveParticipantRequest]) (*connect.Response[api.BillResponse], error)
	AddExpense(context.Context, *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.BillResponse], error)
	RemoveExpense(context.Context, *connect.Request[api.RemoveExpenseRequest]) (*connect.Response[api.RemoveExpenseResponse], error)
	UpdateAdjustments(context.Context, *connect.Request[api.UpdateAdjustmentsRequest]) (*connect.Response[api.BillResponse], error)
	ScanBill(context.Context, *connect.Request[api.ScanBillRequest]) (*connect.Response[api.BillResponse], error)
	CreateSubBill(context.Context, *connect.Request[api.CreateSubBillRequest]) (*connect.Response[api.CreateSubBillResponse], error)
	CalculateBalances(context.Context, *connect.Request[api.CalculateBalancesRequest]) (*connect.Response[api.CalculateBalancesResponse], error)
	ShareSummary(context.Context, *connect.Request[api.ShareSummaryRequest]) (*connect.Response[api.ShareSummaryResponse], error)
	ExportReport(context.Context, *connect.Request[api.ExportReportRequest]) (*connect.Response[api.ExportReportResponse], error)
}

// NewBillServiceHandler builds an HTTP handler for svc and returns the path
// to mount it on.
func NewBillServiceHandler(svc BillServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec())}, opts...)

	routes := map[string]http.Handler{
		BillServiceCreateBillProcedure:        connect.NewUnaryHandler(BillServiceCreateBillProcedure, svc.CreateBill, opts...),
		BillServiceGetBillProcedure:           connect.NewUnaryHandler(BillServiceGetBillProcedure, svc.GetBill, opts...),
		BillServiceListBillsProcedure:         connect.NewUnaryHandler(BillServiceListBillsProcedure, svc.ListBills, opts...),
		BillServiceSaveBillProcedure:          connect.NewUnaryHandler(BillServiceSaveBillProcedure, svc.SaveBill, opts...),
		BillServiceDeleteBillProcedure:        connect.NewUnaryHandler(BillServiceDeleteBillProcedure, svc.DeleteBill, opts...),
		BillServiceAddParticipantProcedure:    connect.NewUnaryHandler(BillServiceAddParticipantProcedure, svc.AddParticipant, opts...),
		BillServiceRemoveParticipantProcedure: connect.NewUnaryHandler(BillServiceRemoveParticipantProcedure, svc.RemoveParticipant, opts...),
		BillServiceAddExpenseProcedure:        connect.NewUnaryHandler(BillServiceAddExpenseProcedure, svc.AddExpense, opts...),
		BillServiceRemoveExpenseProcedure:     connect.NewUnaryHandler(BillServiceRemoveExpenseProcedure, svc.RemoveExpense, opts...),
		BillServiceUpdateAdjustmentsProcedure: connect.NewUnaryHandler(BillServiceUpdateAdjustmentsProcedure, svc.UpdateAdjustments, opts...),
		BillServiceScanBillProcedure:          connect.NewUnaryHandler(BillServiceScanBillProcedure, svc.ScanBill, opts...),
		BillServiceCreateSubBillProcedure:     connect.NewUnaryHandler(BillServiceCreateSubBillProcedure, svc.CreateSubBill, opts...),
		BillServiceCalculateBalancesProcedure: connect.NewUnaryHandler(BillServiceCalculateBalancesProcedure, svc.CalculateBalances, opts...),
		BillServiceShareSummaryProcedure:      connect.NewUnaryHandler(BillServiceShareSummaryProcedure, svc.ShareSummary, opts...),
		BillServiceExportReportProcedure:      connect.NewUnaryHandler(BillServiceExportReportProcedure, svc.ExportReport, opts...),
	}

	return "/" + BillServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := routes[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// BillServiceClient is a client for BillService.
type BillServiceClient interface {
	CreateBill(context.Context, *connect.Request[api.CreateBillRequest]) (*connect.Response[api.BillResponse], error)
	GetBill(context.Context, *connect.Request[api.GetBillRequest]) (*connect.Response[api.BillResponse], error)
	ListBills(context.Context, *connect.Request[api.ListBillsRequest]) (*connect.Response[api.ListBillsResponse], error)
	SaveBill(context.Context, *connect.Request[api.SaveBillRequest]) (*connect.Response[api.SaveBillResponse], error)
	DeleteBill(context.Context, *connect.Request[api.DeleteBillRequest]) (*connect.Response[api.DeleteBillResponse], error)
	AddParticipant(context.Context, *connect.Request[api.AddParticipantRequest]) (*connect.Response[api.BillResponse], error)
	RemoveParticipant(context.Context, *connect.Request[api.RemoveParticipantRequest]) (*connect.Response[api.BillResponse], error)
	AddExpense(context.Context, *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.BillResponse], error)
	RemoveExpense(context.Context, *connect.Request[api.RemoveExpenseRequest]) (*connect.Response[api.RemoveExpenseResponse], error)
	UpdateAdjustments(context.Context, *connect.Request[api.UpdateAdjustmentsRequest]) (*connect.Response[api.BillResponse], error)
	ScanBill(context.Context, *connect.Request[api.ScanBillRequest]) (*connect.Response[api.BillResponse], error)
	CreateSubBill(context.Context, *connect.Request[api.CreateSubBillRequest]) (*connect.Response[api.CreateSubBillResponse], error)
	CalculateBalances(context.Context, *connect.Request[api.CalculateBalancesRequest]) (*connect.Response[api.CalculateBalancesResponse], error)
	ShareSummary(context.Context, *connect.Request[api.ShareSummaryRequest]) (*connect.Response[api.ShareSummaryResponse], error)
	ExportReport(context.Context, *connect.Request[api.ExportReportRequest]) (*connect.Response[api.ExportReportResponse], error)
}

// NewBillServiceClient returns a client that talks JSON to the BillService
// at baseURL.
func NewBillServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) BillServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec())}, opts...)
	return &billServiceClient{
		createBill:        connect.NewClient[api.CreateBillRequest, api.BillResponse](httpClient, baseURL+BillServiceCreateBillProcedure, opts...),
		getBill:           connect.NewClient[api.GetBillRequest, api.BillResponse](httpClient, baseURL+BillServiceGetBillProcedure, opts...),
		listBills:         connect.NewClient[api.ListBillsRequest, api.ListBillsResponse](httpClient, baseURL+BillServiceListBillsProcedure, opts...),
		saveBill:          connect.NewClient[api.SaveBillRequest, api.SaveBillResponse](httpClient, baseURL+BillServiceSaveBillProcedure, opts...),
		deleteBill:        connect.NewClient[api.DeleteBillRequest, api.DeleteBillResponse](httpClient, baseURL+BillServiceDeleteBillProcedure, opts...),
		addParticipant:    connect.NewClient[api.AddParticipantRequest, api.BillResponse](httpClient, baseURL+BillServiceAddParticipantProcedure, opts...),
		removeParticipant: connect.NewClient[api.RemoveParticipantRequest, api.BillResponse](httpClient, baseURL+BillServiceRemoveParticipantProcedure, opts...),
		addExpense:        connect.NewClient[api.AddExpenseRequest, api.BillResponse](httpClient, baseURL+BillServiceAddExpenseProcedure, opts...),
		removeExpense:     connect.NewClient[api.RemoveExpenseRequest, api.RemoveExpenseResponse](httpClient, baseURL+BillServiceRemoveExpenseProcedure, opts...),
		updateAdjustments: connect.NewClient[api.UpdateAdjustmentsRequest, api.BillResponse](httpClient, baseURL+BillServiceUpdateAdjustmentsProcedure, opts...),
		scanBill:          connect.NewClient[api.ScanBillRequest, api.BillResponse](httpClient, baseURL+BillServiceScanBillProcedure, opts...),
		createSubBill:     connect.NewClient[api.CreateSubBillRequest, api.CreateSubBillResponse](httpClient, baseURL+BillServiceCreateSubBillProcedure, opts...),
		calculateBalances: connect.NewClient[api.CalculateBalancesRequest, api.CalculateBalancesResponse](httpClient, baseURL+BillServiceCalculateBalancesProcedure, opts...),
		shareSummary:      connect.NewClient[api.ShareSummaryRequest, api.ShareSummaryResponse](httpClient, baseURL+BillServiceShareSummaryProcedure, opts...),
		exportReport:      connect.NewClient[api.ExportReportRequest, api.ExportReportResponse](httpClient, baseURL+BillServiceExportReportProcedure, opts...),
	}
}

type billServiceClient struct {
	createBill        *connect.Client[api.CreateBillRequest, api.BillResponse]
	getBill           *connect.Client[api.GetBillRequest, api.BillResponse]
	listBills         *connect.Client[api.ListBillsRequest, api.ListBillsResponse]
	saveBill          *connect.Client[api.SaveBillRequest, api.SaveBillResponse]
	deleteBill        *connect.Client[api.DeleteBillRequest, api.DeleteBillResponse]
	addParticipant    *connect.Client[api.AddParticipantRequest, api.BillResponse]
	removeParticipant *connect.Client[api.RemoveParticipantRequest, api.BillResponse]
	addExpense        *connect.Client[api.AddExpenseRequest, api.BillResponse]
	removeExpense     *connect.Client[api.RemoveExpenseRequest, api.RemoveExpenseResponse]
	updateAdjustments *connect.Client[api.UpdateAdjustmentsRequest, api.BillResponse]
	scanBill          *connect.Client[api.ScanBillRequest, api.BillResponse]
	createSubBill     *connect.Client[api.CreateSubBillRequest, api.CreateSubBillResponse]
	calculateBalances *connect.Client[api.CalculateBalancesRequest, api.CalculateBalancesResponse]
	shareSummary      *connect.Client[api.ShareSummaryRequest, api.ShareSummaryResponse]
	exportReport      *connect.Client[api.ExportReportRequest, api.ExportReportResponse]
}

func (c *billServiceClient) CreateBill(ctx context.Context, req *connect.Request[api.CreateBillRequest]) (*connect.Response[api.BillResponse], error) {
	return c.createBill.CallUnary(ctx, req)
}

func (c *billServiceClient) GetBill(ctx context.Context, req *connect.Request[api.GetBillRequest]) (*connect.Response[api.BillResponse], error) {
	return c.getBill.CallUnary(ctx, req)
}

func (c *billServiceClient) ListBills(ctx context.Context, req *connect.Request[api.ListBillsRequest]) (*connect.Response[api.ListBillsResponse], error) {
	return c.listBills.CallUnary(ctx, req)
}

func (c *billServiceClient) SaveBill(ctx context.Context, req *connect.Request[api.SaveBillRequest]) (*connect.Response[api.SaveBillResponse], error) {
	return c.saveBill.CallUnary(ctx, req)
}

func (c *billServiceClient) DeleteBill(ctx context.Context, req *connect.Request[api.DeleteBillRequest]) (*connect.Response[api.DeleteBillResponse], error) {
	return c.deleteBill.CallUnary(ctx, req)
}

func (c *billServiceClient) AddParticipant(ctx context.Context, req *connect.Request[api.AddParticipantRequest]) (*connect.Response[api.BillResponse], error) {
	return c.addParticipant.CallUnary(ctx, req)
}

func (c *billServiceClient) RemoveParticipant(ctx context.Context, req *connect.Request[api.RemoveParticipantRequest]) (*connect.Response[api.BillResponse], error) {
	return c.removeParticipant.CallUnary(ctx, req)
}

func (c *billServiceClient) AddExpense(ctx context.Context, req *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.BillResponse], error) {
	return c.addExpense.CallUnary(ctx, req)
}

func (c *billServiceClient) RemoveExpense(ctx context.Context, req *connect.Request[api.RemoveExpenseRequest]) (*connect.Response[api.RemoveExpenseResponse], error) {
	return c.removeExpense.CallUnary(ctx, req)
}

func (c *billServiceClient) UpdateAdjustments(ctx context.Context, req *connect.Request[api.UpdateAdjustmentsRequest]) (*connect.Response[api.BillResponse], error) {
	return c.updateAdjustments.CallUnary(ctx, req)
}

func (c *billServiceClient) ScanBill(ctx context.Context, req *connect.Request[api.ScanBillRequest]) (*connect.Response[api.BillResponse], error) {
	return c.scanBill.CallUnary(ctx, req)
}

func (c *billServiceClient) CreateSubBill(ctx context.Context, req *connect.Request[api.CreateSubBillRequest]) (*connect.Response[api.CreateSubBillResponse], error) {
	return c.createSubBill.CallUnary(ctx, req)
}

func (c *billServiceClient) CalculateBalances(ctx context.Context, req *connect.Request[api.CalculateBalancesRequest]) (*connect.Response[api.CalculateBalancesResponse], error) {
	return c.calculateBalances.CallUnary(ctx, req)
}

func (c *billServiceClient) ShareSummary(ctx context.Context, req *connect.Request[api.ShareSummaryRequest]) (*connect.Response[api.ShareSummaryResponse], error) {
	return c.shareSummary.CallUnary(ctx, req)
}

func (c *billServiceClient) ExportReport(ctx context.Context, req *connect.Request[api.ExportReportRequest]) (*connect.Response[api.ExportReportResponse], error) {
	return c.exportReport.CallUnary(ctx, req)
}
