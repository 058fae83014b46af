package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"order-desk/internal/events"
	"order-desk/internal/model"
	"order-desk/internal/pricing"
	"order-desk/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	catalog     *productService
	voucherRepo repository.VoucherRepository
	publisher   events.Publisher
	now         Clock
	logger      zerolog.Logger
}

// NewOrderService creates a new order service. A nil clock means time.Now.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	voucherRepo repository.VoucherRepository,
	publisher events.Publisher,
	now Clock,
	logger zerolog.Logger,
) OrderService {
	if now == nil {
		now = time.Now
	}
	return &orderService{
		orderRepo:   orderRepo,
		catalog:     newProductService(productRepo, logger),
		voucherRepo: voucherRepo,
		publisher:   publisher,
		now:         now,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// Create places a pending order. The voucher is locked, checked and reserved
// in the same transaction that inserts the order.
func (s *orderService) Create(ctx context.Context, p model.Principal, req *model.OrderRequest) (_ *model.Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.Create")
	defer func() { endSpan(span, err) }()

	if p.Role == "" || p.UserID == "" {
		return nil, model.ErrUnauthorised
	}
	if err := validateOrderRequest(req); err != nil {
		return nil, err
	}

	items, err := s.catalog.priceItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	if err := checkAmount("order subtotal", pricing.Subtotal(items)); err != nil {
		return nil, err
	}

	now := s.now()
	order := &model.Order{
		ID:           uuid.New(),
		UserID:       p.UserID,
		OrderDate:    now,
		Status:       model.OrderPending,
		DeliveryType: req.DeliveryType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for i := range items {
		items[i].OrderID = order.ID
	}

	code := ""
	if req.VoucherCode != nil {
		code = model.NormalizeCode(*req.VoucherCode)
	}
	span.SetAttributes(
		attribute.String("order.id", order.ID.String()),
		attribute.Bool("order.has_voucher", code != ""),
	)

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	discount := decimal.Zero
	freeShipping := false
	if code != "" {
		var v *model.Voucher
		v, err = s.voucherRepo.GetByCodeForUpdate(ctx, tx, code)
		if err != nil {
			s.logger.Error().Err(err).Str("voucher_code", code).Msg("failed to lock voucher")
			return nil, fmt.Errorf("failed to create order: %w", err)
		}

		discount, freeShipping, err = s.reserveVoucher(ctx, tx, v, pricing.Subtotal(items), now)
		if err != nil {
			s.logger.Warn().
				Str("voucher_code", code).
				Str("user_id", p.UserID).
				Err(err).
				Msg("voucher rejected")
			return nil, err
		}

		order.VoucherID = &v.ID
		order.VoucherCode = &v.Code
		order.VoucherCounted = true
	}

	totals := pricing.ComputeTotals(items, req.DeliveryFee, discount, freeShipping)
	order.Subtotal = totals.Subtotal
	order.DeliveryFee = totals.DeliveryFee
	order.ShippingWaived = totals.ShippingWaived
	order.VoucherDiscount = totals.Discount
	order.TotalAmount = totals.Total

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Int("item_count", len(items)).
			Msg("failed to create order items")
		return nil, fmt.Errorf("failed to create order items: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	order.Items = items

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("user_id", order.UserID).
		Int("item_count", len(items)).
		Str("total_amount", order.TotalAmount.StringFixed(2)).
		Str("voucher_discount", order.VoucherDiscount.StringFixed(2)).
		Msg("order created successfully")

	s.publish(ctx, events.NewOrderEvent(events.OrderCreated, order, s.now()))

	return order, nil
}

// reserveVoucher runs the eligibility checks on the locked voucher and
// consumes one use.
func (s *orderService) reserveVoucher(ctx context.Context, tx pgx.Tx, v *model.Voucher, subtotal decimal.Decimal, now time.Time) (decimal.Decimal, bool, error) {
	if err := pricing.CheckEligibility(v, subtotal, now); err != nil {
		return decimal.Zero, false, err
	}

	reserved, err := s.voucherRepo.Reserve(ctx, tx, v.ID)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to reserve voucher: %w", err)
	}
	if !reserved {
		return decimal.Zero, false, model.ErrVoucherUsageLimitReached
	}

	return pricing.Discount(v, subtotal), v.FreeShipping, nil
}

// Get retrieves an order visible to the principal.
func (s *orderService) Get(ctx context.Context, p model.Principal, id uuid.UUID) (*model.Order, error) {
	if p.Role == "" {
		return nil, model.ErrUnauthorised
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	// Another customer's order is reported as missing.
	if order == nil || !p.CanView(order.UserID) {
		s.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}

	return order, nil
}

// List returns orders visible to the principal, newest first.
func (s *orderService) List(ctx context.Context, p model.Principal, filter model.OrderFilter) ([]model.Order, error) {
	if p.Role == "" {
		return nil, model.ErrUnauthorised
	}
	if !p.IsAdmin() {
		filter.UserID = p.UserID
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, model.InvalidInput(fmt.Sprintf("unknown order status %q", filter.Status))
	}
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset)

	orders, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", filter.UserID).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, nil
}

// Approve moves a pending order to approved.
func (s *orderService) Approve(ctx context.Context, p model.Principal, id uuid.UUID) (_ *model.Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.Approve", trace.WithAttributes(attribute.String("order.id", id.String())))
	defer func() { endSpan(span, err) }()

	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	order, err := s.transition(ctx, id, func(_ pgx.Tx, o *model.Order) error {
		o.Status = model.OrderApproved
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Str("admin", p.UserID).
		Msg("order approved")

	s.publish(ctx, events.NewOrderEvent(events.OrderApproved, order, s.now()))

	return order, nil
}

// Deny moves a pending order to denied and returns its voucher use if one
// was counted.
func (s *orderService) Deny(ctx context.Context, p model.Principal, id uuid.UUID, reason string) (_ *model.DenyResult, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.Deny", trace.WithAttributes(attribute.String("order.id", id.String())))
	defer func() { endSpan(span, err) }()

	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, model.ErrMissingDenyReason
	}

	reversed := false
	order, err := s.transition(ctx, id, func(tx pgx.Tx, o *model.Order) error {
		o.Status = model.OrderDenied
		o.AdminNotes = &reason

		if o.VoucherID == nil || !o.VoucherCounted {
			return nil
		}
		if err := s.voucherRepo.Release(ctx, tx, *o.VoucherID); err != nil {
			return fmt.Errorf("failed to release voucher: %w", err)
		}
		o.VoucherCounted = false
		reversed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Str("admin", p.UserID).
		Bool("voucher_reversed", reversed).
		Msg("order denied")

	e := events.NewOrderEvent(events.OrderDenied, order, s.now())
	e.VoucherReversed = reversed
	s.publish(ctx, e)

	return &model.DenyResult{Order: order, VoucherReversed: reversed}, nil
}

// transition locks a pending order, applies mutate and persists the result
// in one transaction. Orders that are no longer pending fail with
// model.ErrInvalidTransition.
func (s *orderService) transition(ctx context.Context, id uuid.UUID, mutate func(tx pgx.Tx, o *model.Order) error) (_ *model.Order, err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order, err := s.orderRepo.GetForUpdate(ctx, tx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to lock order")
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	if order.Status != model.OrderPending {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("status", string(order.Status)).
			Msg("order is not pending")
		return nil, model.ErrInvalidTransition
	}

	if err = mutate(tx, order); err != nil {
		return nil, err
	}
	order.UpdatedAt = s.now()

	if err = s.orderRepo.UpdateStatus(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to update order status")
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	items, itemsErr := s.orderRepo.GetByID(ctx, id)
	if itemsErr != nil || items == nil {
		s.logger.Warn().Err(itemsErr).Str("order_id", id.String()).Msg("failed to reload order items")
		return order, nil
	}
	order.Items = items.Items

	return order, nil
}

// publish delivers an event after commit. Failures are logged only; the
// order change has already been made durable.
func (s *orderService) publish(ctx context.Context, e events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Error().
			Err(err).
			Str("event_type", string(e.Type)).
			Str("order_id", e.OrderID.String()).
			Msg("failed to publish order event")
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
