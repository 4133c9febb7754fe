package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"dentallab/internal/core/application/usecases/commands"
	"dentallab/internal/core/application/usecases/queries"
	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/payment"
	"dentallab/internal/core/ports"
	"dentallab/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

const (
	maxWebhookBody = 1 << 20
	// SignatureHeader carries the processor's webhook signature.
	SignatureHeader = "Stripe-Signature"
)

// Handlers groups the use cases the HTTP server exposes.
type Handlers struct {
	CreateOrder      *commands.CreateOrderCommandHandler
	UpdateOrder      *commands.UpdateOrderCommandHandler
	TransitionOrder  *commands.TransitionOrderCommandHandler
	ForceOrderStatus *commands.ForceOrderStatusCommandHandler
	AddOrderFile     *commands.AddOrderFileCommandHandler
	DeleteOrder      *commands.DeleteOrderCommandHandler
	CreateCheckout   *commands.CreateCheckoutCommandHandler
	ReconcilePayment *commands.ReconcilePaymentCommandHandler

	GetOrder   queries.GetOrderQueryHandler
	ListOrders queries.ListOrdersQueryHandler
	ListLedger queries.ListLedgerQueryHandler
	GetInvoice queries.GetInvoiceQueryHandler
}

// Server translates HTTP requests into commands and queries.
type Server struct {
	handlers Handlers
	gateway  ports.PaymentGateway
	logger   *slog.Logger
}

func NewServer(handlers Handlers, gateway ports.PaymentGateway, logger *slog.Logger) *Server {
	return &Server{
		handlers: handlers,
		gateway:  gateway,
		logger:   logger.With("component", "http"),
	}
}

// Register mounts the API on e. Every /api/v1 route except the payment webhook goes
// through auth.
func (s *Server) Register(e *echo.Echo, auth echo.MiddlewareFunc) {
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})

	api := e.Group("/api/v1")
	api.POST("/payments/webhook", s.PaymentWebhook)

	secured := api.Group("", auth)
	secured.POST("/orders", s.CreateOrder)
	secured.GET("/orders", s.ListOrders)
	secured.GET("/orders/:id", s.GetOrder)
	secured.PATCH("/orders/:id", s.UpdateOrder)
	secured.DELETE("/orders/:id", s.DeleteOrder)
	secured.POST("/orders/:id/transitions", s.TransitionOrder)
	secured.PUT("/orders/:id/status", s.ForceOrderStatus)
	secured.POST("/orders/:id/files", s.AddOrderFiles)
	secured.GET("/orders/:id/ledger", s.ListLedger)
	secured.POST("/checkout", s.CreateCheckout)
	secured.GET("/invoices", s.GetInvoice)
}

// CreateOrder handles POST /api/v1/orders. The order is sent as JSON, or as the "order"
// field of a multipart form whose "files" field carries attachments.
func (s *Server) CreateOrder(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return s.fail(c, err)
	}

	var req CreateOrderRequest
	uploads, release, err := s.bindWithUploads(c, &req)
	if err != nil {
		return s.fail(c, err)
	}
	defer release()

	details, err := req.details()
	if err != nil {
		return s.fail(c, err)
	}
	cmd, err := commands.NewCreateOrderCommand(principal, kernel.NewUUID(), details, itemSpecs(req.Items), uploads)
	if err != nil {
		return s.fail(c, err)
	}

	result, err := s.handlers.CreateOrder.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}

	resp := CreateOrderResponse{ID: result.OrderID, Total: result.Total}
	if result.FilesErr != nil {
		s.logger.WarnContext(c.Request().Context(), "order created without some files",
			slog.String("order_id", result.OrderID.String()),
			slog.Any("error", result.FilesErr),
		)
		resp.FileErrors = result.FilesErr.Error()
	}
	return c.JSON(http.StatusCreated, resp)
}

// ListOrders handles GET /api/v1/orders?status=&limit=&offset=.
func (s *Server) ListOrders(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return s.fail(c, err)
	}

	limit, err := intParam(c, "limit")
	if err != nil {
		return s.fail(c, err)
	}
	offset, err := intParam(c, "offset")
	if err != nil {
		return s.fail(c, err)
	}

	query, err := queries.NewListOrdersQuery(principal, c.QueryParam("status"), limit, offset)
	if err != nil {
		return s.fail(c, err)
	}

	orders, err := s.handlers.ListOrders.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}

	response := make([]OrderSummaryResponse, len(orders))
	for i, o := range orders {
		response[i] = OrderSummaryResponse{
			ID:            o.ID,
			RequesterID:   o.RequesterID,
			DentistID:     o.DentistID,
			PatientName:   o.PatientName,
			Status:        o.Status,
			PaymentStatus: o.PaymentStatus,
			Total:         o.Total,
			ItemCount:     o.ItemCount,
			CreatedAt:     o.CreatedAt,
		}
	}
	return c.JSON(http.StatusOK, response)
}

// GetOrder handles GET /api/v1/orders/:id.
func (s *Server) GetOrder(c echo.Context) error {
	principal, orderID, err := principalAndOrder(c)
	if err != nil {
		return s.fail(c, err)
	}

	query, err := queries.NewGetOrderQuery(principal, orderID)
	if err != nil {
		return s.fail(c, err)
	}

	o, err := s.handlers.GetOrder.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(o))
}

// UpdateOrder handles PATCH /api/v1/orders/:id, as JSON or multipart like CreateOrder.
func (s *Server) UpdateOrder(c echo.Context) error {
	principal, orderID, err := principalAndOrder(c)
	if err != nil {
		return s.fail(c, err)
	}

	var req UpdateOrderRequest
	uploads, release, err := s.bindWithUploads(c, &req)
	if err != nil {
		return s.fail(c, err)
	}
	defer release()

	patch, err := req.patch()
	if err != nil {
		return s.fail(c, err)
	}
	cmd, err := commands.NewUpdateOrderCommand(principal, orderID, patch, req.items(), uploads)
	if err != nil {
		return s.fail(c, err)
	}

	if err = s.handlers.UpdateOrder.Handle(c.Request().Context(), cmd); err != nil {
		return s.fail(c, err)
	}
	return s.GetOrder(c)
}

// DeleteOrder handles DELETE /api/v1/orders/:id.
func (s *Server) DeleteOrder(c echo.Context) error {
	principal, orderID, err := principalAndOrder(c)
	if err != nil {
		return s.fail(c, err)
	}

	cmd, err := commands.NewDeleteOrderCommand(principal, orderID)
	if err != nil {
		return s.fail(c, err)
	}
	if err = s.handlers.DeleteOrder.Handle(c.Request().Context(), cmd); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// TransitionOrder handles POST /api/v1/orders/:id/transitions.
func (s *Server) TransitionOrder(c echo.Context) error {
	principal, orderID, err := principalAndOrder(c)
	if err != nil {
		return s.fail(c, err)
	}

	var req StatusRequest
	if err = s.bind(c, &req); err != nil {
		return s.fail(c, err)
	}

	cmd, err := commands.NewTransitionOrderCommand(principal, orderID, req.Status)
	if err != nil {
		return s.fail(c, err)
	}
	if err = s.handlers.TransitionOrder.Handle(c.Request().Context(), cmd); err != nil {
		return s.fail(c, err)
	}
	return s.GetOrder(c)
}

// ForceOrderStatus handles PUT /api/v1/orders/:id/status (admin only).
func (s *Server) ForceOrderStatus(c echo.Context) error {
	principal, orderID, err := principalAndOrder(c)
	if err != nil {
		return s.fail(c, err)
	}

	var req StatusRequest
	if err = s.bind(c, &req); err != nil {
		return s.fail(c, err)
	}

	cmd, err := commands.NewForceOrderStatusCommand(principal, orderID, req.Status)
	if err != nil {
		return s.fail(c, err)
	}
	if err = s.handlers.ForceOrderStatus.Handle(c.Request().Context(), cmd); err != nil {
		return s.fail(c, err)
	}
	return s.GetOrder(c)
}

// AddOrderFiles handles POST /api/v1/orders/:id/files. Files are attached one by one;
// the response lists the ones that failed.
func (s *Server) AddOrderFiles(c echo.Context) error {
	principal, orderID, err := principalAndOrder(c)
	if err != nil {
		return s.fail(c, err)
	}

	uploads, release, err := openUploads(c)
	if err != nil {
		return s.fail(c, err)
	}
	defer release()
	if len(uploads) == 0 {
		return s.fail(c, errs.NewValueIsRequiredError("files"))
	}

	var failed []error
	for _, upload := range uploads {
		cmd, cmdErr := commands.NewAddOrderFileCommand(principal, orderID, upload)
		if cmdErr == nil {
			cmdErr = s.handlers.AddOrderFile.Handle(c.Request().Context(), cmd)
		}
		if cmdErr != nil {
			if len(uploads) == 1 || statusFor(cmdErr) != http.StatusInternalServerError {
				return s.fail(c, cmdErr)
			}
			failed = append(failed, cmdErr)
		}
	}
	if len(failed) == len(uploads) {
		return s.fail(c, errors.Join(failed...))
	}
	if len(failed) > 0 {
		s.logger.WarnContext(c.Request().Context(), "some files were not stored",
			slog.String("order_id", orderID.String()),
			slog.Any("error", errors.Join(failed...)),
		)
	}
	return s.GetOrder(c)
}

// ListLedger handles GET /api/v1/orders/:id/ledger.
func (s *Server) ListLedger(c echo.Context) error {
	principal, orderID, err := principalAndOrder(c)
	if err != nil {
		return s.fail(c, err)
	}

	query, err := queries.NewListLedgerQuery(principal, orderID)
	if err != nil {
		return s.fail(c, err)
	}
	entries, err := s.handlers.ListLedger.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}

	response := make([]LedgerEntryResponse, len(entries))
	for i, e := range entries {
		response[i] = LedgerEntryResponse{
			ID:            e.ID,
			TransactionID: e.TransactionID,
			Amount:        e.Amount,
			Currency:      e.Currency,
			Status:        e.Status,
			CreatedAt:     e.CreatedAt,
		}
	}
	return c.JSON(http.StatusOK, response)
}

// CreateCheckout handles POST /api/v1/checkout.
func (s *Server) CreateCheckout(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return s.fail(c, err)
	}

	var req CheckoutRequest
	if err = s.bind(c, &req); err != nil {
		return s.fail(c, err)
	}
	ids, err := parseUUIDs(req.OrderIDs)
	if err != nil {
		return s.fail(c, err)
	}

	cmd, err := commands.NewCreateCheckoutCommand(principal, ids, req.Currency)
	if err != nil {
		return s.fail(c, err)
	}
	session, err := s.handlers.CreateCheckout.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, CheckoutResponse{SessionID: session.SessionID, URL: session.URL})
}

// GetInvoice handles GET /api/v1/invoices?order_id=...&order_id=....
func (s *Server) GetInvoice(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return s.fail(c, err)
	}

	ids, err := parseUUIDs(c.QueryParams()["order_id"])
	if err != nil {
		return s.fail(c, err)
	}
	query, err := queries.NewGetInvoiceQuery(principal, ids)
	if err != nil {
		return s.fail(c, err)
	}

	invoice, err := s.handlers.GetInvoice.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, toInvoiceResponse(invoice))
}

// PaymentWebhook handles POST /api/v1/payments/webhook. Deliveries that are not payment
// confirmations are acknowledged and dropped. A 5xx asks the processor to redeliver,
// which reconciliation tolerates.
func (s *Server) PaymentWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return s.fail(c, err)
	}

	confirmation, err := s.gateway.ParseConfirmation(body, c.Request().Header.Get(SignatureHeader))
	if errors.Is(err, payment.ErrIgnoredEvent) {
		return c.JSON(http.StatusOK, WebhookResponse{Received: true})
	}
	if err != nil {
		s.logger.WarnContext(ctx, "webhook rejected", slog.Any("error", err))
		return s.fail(c, err)
	}

	cmd, err := commands.NewReconcilePaymentCommand(confirmation)
	if err != nil {
		return s.fail(c, err)
	}
	result, err := s.handlers.ReconcilePayment.Handle(ctx, cmd)
	if err != nil {
		return s.fail(c, err)
	}
	// Unknown orders will not appear on redelivery; anything else may be transient.
	for _, o := range result.Orders {
		if o.Err != nil && !errors.Is(o.Err, errs.ErrObjectNotFound) {
			return c.JSON(http.StatusInternalServerError, ErrorResponse{
				Code:    http.StatusInternalServerError,
				Message: "payment could not be reconciled for every order",
			})
		}
	}

	return c.JSON(http.StatusOK, WebhookResponse{
		Received:  true,
		Applied:   result.Count(commands.ReconcileApplied),
		Failed:    result.Count(commands.ReconcileRecordedFailure),
		Duplicate: result.Count(commands.ReconcileDuplicate),
		Unknown:   result.Count(commands.ReconcileError),
	})
}

func principalAndOrder(c echo.Context) (kernel.Principal, kernel.UUID, error) {
	principal, err := principalFrom(c)
	if err != nil {
		return kernel.Principal{}, kernel.UUID{}, err
	}
	orderID, err := kernel.UUIDFromString(c.Param("id"))
	if err != nil {
		return kernel.Principal{}, kernel.UUID{}, err
	}
	return principal, orderID, nil
}

func intParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errs.NewValueIsInvalidErrorWithCause(name, err)
	}
	return v, nil
}

// bind decodes a JSON body into req and validates it.
func (s *Server) bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("request body", err)
	}
	return c.Validate(req)
}

// bindWithUploads accepts either a JSON body or a multipart form with the JSON in the
// "order" field and attachments in "files". release closes the opened files.
func (s *Server) bindWithUploads(c echo.Context, req any) ([]commands.FileUpload, func(), error) {
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return nil, func() {}, s.bind(c, req)
	}

	if err := json.Unmarshal([]byte(c.FormValue("order")), req); err != nil {
		return nil, func() {}, errs.NewValueIsInvalidErrorWithCause("order", err)
	}
	if err := c.Validate(req); err != nil {
		return nil, func() {}, err
	}
	return openUploads(c)
}

func openUploads(c echo.Context) ([]commands.FileUpload, func(), error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, func() {}, errs.NewValueIsInvalidErrorWithCause("multipart form", err)
	}

	headers := form.File["files"]
	opened := make([]multipart.File, 0, len(headers))
	release := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	uploads := make([]commands.FileUpload, 0, len(headers))
	for _, fh := range headers {
		f, openErr := fh.Open()
		if openErr != nil {
			release()
			return nil, func() {}, openErr
		}
		opened = append(opened, f)

		mimeType := fh.Header.Get(echo.HeaderContentType)
		if mimeType == "" {
			mimeType = echo.MIMEOctetStream
		}
		uploads = append(uploads, commands.FileUpload{
			OriginalName: fh.Filename,
			MimeType:     mimeType,
			Size:         fh.Size,
			Content:      f,
		})
	}
	return uploads, release, nil
}
