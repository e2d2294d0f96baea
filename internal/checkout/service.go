package checkout

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hoamai/storefront/internal/catalog"
	"github.com/hoamai/storefront/internal/shared"
	"github.com/hoamai/storefront/internal/shipping"
)

// ProductSource loads products, hidden ones included.
type ProductSource interface {
	LookupProduct(ctx context.Context, id string) (catalog.Product, error)
}

// FeeSource returns the fee table. It never fails.
type FeeSource interface {
	Table(ctx context.Context) shipping.Table
}

// Notifier relays placed orders to the shop staff.
type Notifier interface {
	NotifyOrder(ctx context.Context, order Order) error
}

// Auditor records admin changes.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service prices checkouts and manages orders.
type Service struct {
	repo     Repository
	products ProductSource
	fees     FeeSource
	notifier Notifier
	audit    Auditor
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

// ServiceDeps bundles the collaborators of the checkout service.
type ServiceDeps struct {
	Repo     Repository
	Products ProductSource
	Fees     FeeSource
	Notifier Notifier
	Audit    Auditor
	Logger   *slog.Logger
}

// NewService constructs the checkout service. Notifier and Audit may be nil.
func NewService(deps ServiceDeps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     deps.Repo,
		products: deps.Products,
		fees:     deps.Fees,
		notifier: deps.Notifier,
		audit:    deps.Audit,
		logger:   logger,
		validate: newValidator(),
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

type snapshot struct {
	product catalog.Product
	table   shipping.Table
	book    CouponBook
	// couponsErr is set when the coupon store failed; the rest of the
	// snapshot is still usable.
	couponsErr error
}

// load fetches the product, fee table and, when a code needs checking, the
// coupons concurrently. A coupon store failure does not fail the load.
func (s *Service) load(ctx context.Context, productID string, withCoupons bool) (snapshot, error) {
	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.products.LookupProduct(gctx, productID)
		if errors.Is(err, catalog.ErrProductNotFound) {
			return ErrProductNotOrdered
		}
		if err != nil {
			return err
		}
		if p.IsHidden {
			return ErrProductNotOrdered
		}
		snap.product = p
		return nil
	})
	g.Go(func() error {
		snap.table = s.fees.Table(gctx)
		return nil
	})
	if withCoupons {
		g.Go(func() error {
			coupons, err := s.repo.ListCoupons(gctx)
			if err != nil {
				s.logger.Warn("load coupons", slog.Any("error", err))
				snap.couponsErr = err
				return nil
			}
			snap.book = NewCouponBook(coupons)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return snapshot{}, err
	}
	return snap, nil
}

// QuoteResult is a priced checkout preview.
type QuoteResult struct {
	Resolution
	AppliedCoupon *Coupon `json:"appliedCoupon,omitempty"`
	// CouponError explains why CouponCode was not applied; the previously
	// applied coupon stays in effect.
	CouponError string `json:"couponError,omitempty"`
	Submittable bool   `json:"submittable"`
}

// Quote prices a checkout. Coupon misses are reported, not returned as errors,
// so checkout stays completable with a bad code.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (QuoteResult, error) {
	if err := shared.ValidateStruct(s.validate, req); err != nil {
		return QuoteResult{}, err
	}
	snap, err := s.load(ctx, req.ProductID, req.AppliedCoupon != "" || req.CouponCode != "")
	if err != nil {
		return QuoteResult{}, err
	}

	var (
		state     CouponState
		couponErr string
	)
	if snap.couponsErr != nil {
		couponErr = ErrCouponsUnavailable.Error()
	} else {
		for _, code := range []string{req.AppliedCoupon, req.CouponCode} {
			if code == "" {
				continue
			}
			if _, err := state.Apply(code, snap.book); err != nil {
				couponErr = err.Error()
			}
		}
	}

	in := Input{
		Product:       snap.product,
		VariantID:     req.VariantID,
		Address:       req.Address,
		Table:         snap.table,
		IsGift:        req.IsGift,
		PaymentMethod: req.PaymentMethod,
	}
	result := QuoteResult{CouponError: couponErr}
	if c, ok := state.Applied(); ok {
		in.Coupon = &c
		result.AppliedCoupon = &c
	}
	res, err := Resolve(in)
	if err != nil {
		return QuoteResult{}, err
	}
	result.Resolution = res
	result.Submittable = res.Shipping.Complete
	return result, nil
}

// Submit validates a checkout, recomputes its price and stores the order.
func (s *Service) Submit(ctx context.Context, req OrderRequest) (Order, error) {
	err := shared.ValidateStruct(s.validate, req)
	if err := mergeFieldErrors(err, validateAddress(req.Address), validateDelivery(req.Delivery)); err != nil {
		return Order{}, err
	}
	snap, err := s.load(ctx, req.ProductID, req.CouponCode != "")
	if err != nil {
		return Order{}, err
	}

	in := Input{
		Product:       snap.product,
		VariantID:     req.VariantID,
		Address:       req.Address,
		Table:         snap.table,
		IsGift:        req.IsGift,
		PaymentMethod: req.PaymentMethod,
	}
	if req.CouponCode != "" {
		if snap.couponsErr != nil {
			return Order{}, ErrCouponsUnavailable
		}
		var state CouponState
		c, err := state.Apply(req.CouponCode, snap.book)
		if err != nil {
			return Order{}, shared.FieldError("couponCode", "is not a valid coupon")
		}
		in.Coupon = &c
	}
	res, err := Resolve(in)
	if err != nil {
		return Order{}, err
	}
	if !res.Shipping.Complete {
		return Order{}, shared.FieldError("address.district", "is required for in-city delivery")
	}
	if req.ExpectedTotal != nil && *req.ExpectedTotal != res.Pricing.TotalPrice {
		s.logger.Info("order rejected on price change",
			slog.String("product_id", req.ProductID),
			slog.Int64("expected_total", *req.ExpectedTotal),
			slog.Int64("total", res.Pricing.TotalPrice))
		return Order{}, ErrPriceChanged
	}

	now := s.now()
	order := Order{
		ID:            uuid.NewString(),
		Status:        StatusPending,
		Item:          res.Item,
		Purchaser:     req.Purchaser,
		Recipient:     req.Recipient,
		IsGift:        req.IsGift,
		Address:       req.Address,
		Delivery:      req.Delivery,
		CardMessage:   req.CardMessage,
		Note:          req.Note,
		Pricing:       res.Pricing,
		PaymentMethod: res.PaymentMethod,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if res.Shipping.District != "" {
		order.Address.District = res.Shipping.District
	}
	if err := s.repo.InsertOrder(ctx, order); err != nil {
		return Order{}, err
	}
	s.logger.Info("order placed",
		slog.String("order_id", order.ID),
		slog.Int64("total_price", order.TotalPrice),
		slog.String("shipping_source", res.Shipping.Source))

	if s.notifier != nil {
		if err := s.notifier.NotifyOrder(ctx, order); err != nil {
			s.logger.Warn("order notification not queued", slog.String("order_id", order.ID), slog.Any("error", err))
		}
	}
	return order, nil
}

// ListOrders returns orders newest first. An empty status lists all.
func (s *Service) ListOrders(ctx context.Context, status Status, page, perPage int) (OrderPage, error) {
	p := shared.NewPagination(page, perPage, 0)
	orders, total, err := s.repo.ListOrders(ctx, status, p.PerPage, p.Offset())
	if err != nil {
		return OrderPage{}, err
	}
	return OrderPage{Orders: orders, Pagination: shared.NewPagination(p.Page, p.PerPage, total)}, nil
}

// GetOrder loads one order.
func (s *Service) GetOrder(ctx context.Context, id string) (Order, error) {
	return s.repo.GetOrder(ctx, id)
}

// UpdateStatus advances or cancels an order.
func (s *Service) UpdateStatus(ctx context.Context, id string, next Status) (Order, error) {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !order.Status.CanTransition(next) {
		return Order{}, ErrInvalidTransition
	}
	at := s.now()
	if err := s.repo.UpdateStatus(ctx, id, order.Status, next, at); err != nil {
		return Order{}, err
	}
	s.record(ctx, "order.status", "order", id, map[string]any{"from": order.Status, "to": next})
	order.Status = next
	order.UpdatedAt = at
	return order, nil
}

// Coupons lists the stored coupons.
func (s *Service) Coupons(ctx context.Context) ([]Coupon, error) {
	return s.repo.ListCoupons(ctx)
}

// ReplaceCoupons stores a new coupon list wholesale.
func (s *Service) ReplaceCoupons(ctx context.Context, coupons []Coupon) ([]Coupon, error) {
	normalized, err := NormalizeCoupons(coupons)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceCoupons(ctx, normalized); err != nil {
		return nil, err
	}
	s.record(ctx, "coupons.replace", "coupons", "all", map[string]any{"count": len(normalized)})
	return NewCouponBook(normalized).List(), nil
}

func (s *Service) record(ctx context.Context, action, entity, id string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: entity, EntityID: id, Meta: meta}); err != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
