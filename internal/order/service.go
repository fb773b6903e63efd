package order

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"storefront-be/internal/catalog"
	"storefront-be/internal/coupon"
	"storefront-be/internal/logger"
	"storefront-be/internal/payment"
	"storefront-be/internal/pricing"
	"storefront-be/internal/settings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// customPricesPaise is the allow-list for client-declared custom item
// prices. Anything outside it is treated as tampering.
var customPricesPaise = map[int64]bool{
	14900: true,
	19900: true,
	24900: true,
	29900: true,
	34900: true,
	39900: true,
}

const (
	prepaidExpiry = 15 * time.Minute
	fraudRTOLimit = 2 // prior cancelled orders on the same phone
	maxListLimit  = 100
)

var (
	emailRegex   = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneRegex   = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	pincodeRegex = regexp.MustCompile(`^[1-9][0-9]{5}$`)
)

type LineInput struct {
	ProductID        *int64
	Quantity         int
	CustomTitle      string
	CustomPricePaise *int64
	CustomImageURL   string
}

type CustomerInput struct {
	Name    string
	Email   string
	Phone   string
	Street  string
	City    string
	State   string
	Pincode string
}

type CreateInput struct {
	Items         []LineInput
	CouponCode    string
	Customer      CustomerInput
	PaymentMethod pricing.PaymentMethod
}

type CreateResult struct {
	OrderID        int64
	AmountPaise    int64
	GatewayOrderID string // set for prepaid orders only
}

type Rules struct {
	CODMinOrderPaise      int64
	CODFeePaise           int64
	FreeShippingMinPaise  int64
	ShippingFlatRatePaise int64
}

type Service interface {
	Create(ctx context.Context, input CreateInput) (*CreateResult, error)
	Get(ctx context.Context, orderID int64) (*Order, error)
	List(ctx context.Context, statusFilter string, limit, page int32) ([]*Order, error)

	// UpdateStatus applies an admin-requested transition through the
	// state machine.
	UpdateStatus(ctx context.Context, orderID int64, target string) error

	// ConfirmCOD moves an UNVERIFIED order to PAID once the out-of-band
	// verification step has succeeded.
	ConfirmCOD(ctx context.Context, orderID int64) error

	// VerifyPayment checks the gateway callback signature and, only on
	// success, flips the order from PENDING to PAID.
	VerifyPayment(ctx context.Context, gatewayOrderID, paymentRef, signature string) error
}

type service struct {
	repo        Repository
	catalogRepo catalog.Repository
	couponSvc   coupon.Service
	settings    settings.Repository
	gateway     payment.Gateway
	rules       Rules
}

func NewService(
	repo Repository,
	catalogRepo catalog.Repository,
	couponSvc coupon.Service,
	settingsRepo settings.Repository,
	gateway payment.Gateway,
	rules Rules,
) Service {
	return &service{
		repo:        repo,
		catalogRepo: catalogRepo,
		couponSvc:   couponSvc,
		settings:    settingsRepo,
		gateway:     gateway,
		rules:       rules,
	}
}

func (s *service) Create(ctx context.Context, input CreateInput) (*CreateResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Create"),
		zap.Int("item_count", len(input.Items)),
		zap.String("payment_method", string(input.PaymentMethod)),
	)

	log.Info("order intake started")

	if err := validateCustomer(input.Customer); err != nil {
		log.Warn("customer validation failed", zap.Error(err))
		return nil, err
	}
	if len(input.Items) == 0 {
		return nil, ErrEmptyCart
	}

	// Re-price every line against authoritative catalog data; client
	// prices are only honored for allow-listed custom items.
	lines := make([]pricing.Line, 0, len(input.Items))
	items := make([]Item, 0, len(input.Items))

	for i, in := range input.Items {
		if in.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item %d has invalid quantity", ErrInvalidCustomer, i)
		}

		if in.ProductID != nil {
			p, err := s.catalogRepo.GetForCheckout(ctx, *in.ProductID)
			if err != nil {
				log.Warn("product lookup failed", zap.Int64("product_id", *in.ProductID), zap.Error(err))
				return nil, err
			}
			if p.Stock < in.Quantity {
				log.Warn("insufficient stock",
					zap.Int64("product_id", p.ID),
					zap.Int("stock", p.Stock),
					zap.Int("requested", in.Quantity),
				)
				return nil, ErrInsufficientStock
			}

			lines = append(lines, pricing.Line{UnitPricePaise: p.PricePaise, Quantity: in.Quantity})
			items = append(items, Item{
				ProductID:  in.ProductID,
				Title:      p.Title,
				PricePaise: p.PricePaise,
				Quantity:   in.Quantity,
				ImageURL:   p.ImageURL,
			})
			continue
		}

		if in.CustomPricePaise == nil || !customPricesPaise[*in.CustomPricePaise] {
			log.Warn("custom price rejected", zap.Int("index", i))
			return nil, ErrPriceTampering
		}

		title := in.CustomTitle
		if title == "" {
			title = "Custom Item"
		}
		lines = append(lines, pricing.Line{UnitPricePaise: *in.CustomPricePaise, Quantity: in.Quantity})
		items = append(items, Item{
			Title:      title,
			PricePaise: *in.CustomPricePaise,
			Quantity:   in.Quantity,
			ImageURL:   in.CustomImageURL,
		})
	}

	var subtotal int64
	for _, l := range lines {
		subtotal += l.UnitPricePaise * int64(l.Quantity)
	}

	if input.PaymentMethod == pricing.MethodCOD {
		if subtotal < s.rules.CODMinOrderPaise {
			return nil, ErrCODBelowMinimum
		}
		cancelled, err := s.repo.CountCancelledByPhone(ctx, input.Customer.Phone)
		if err != nil {
			return nil, err
		}
		if cancelled >= fraudRTOLimit {
			log.Warn("COD blocked by RTO history", zap.Int("cancelled_orders", cancelled))
			return nil, ErrFraudBlocked
		}
	}

	var couponDiscount int64
	var couponCode *string
	if input.CouponCode != "" {
		var err error
		couponDiscount, err = s.couponSvc.Validate(ctx, input.CouponCode, subtotal)
		if err != nil {
			return nil, err
		}
		code := coupon.Normalize(input.CouponCode)
		couponCode = &code
	}

	quote := pricing.Compute(lines, input.PaymentMethod, couponDiscount, s.pricingConfig(ctx))

	log.Info("order priced",
		zap.Int64("subtotal_paise", quote.SubtotalPaise),
		zap.Int64("discount_paise", quote.DiscountPaise()),
		zap.Int64("shipping_paise", quote.ShippingPaise),
		zap.Int64("cod_fee_paise", quote.CODFeePaise),
		zap.Int64("total_paise", quote.TotalPaise),
	)

	now := time.Now()
	o := &Order{
		CustomerName:  input.Customer.Name,
		Email:         input.Customer.Email,
		Phone:         input.Customer.Phone,
		Address: Address{
			Street:  input.Customer.Street,
			City:    input.Customer.City,
			State:   input.Customer.State,
			Pincode: input.Customer.Pincode,
		},
		SubtotalPaise: quote.SubtotalPaise,
		ShippingPaise: quote.ShippingPaise,
		DiscountPaise: quote.DiscountPaise(),
		CODFeePaise:   quote.CODFeePaise,
		AmountPaise:   quote.TotalPaise,
		PaymentMethod: input.PaymentMethod,
		CouponCode:    couponCode,
		CreatedAt:     now,
		Items:         items,
	}

	var gatewayOrderID string
	if input.PaymentMethod == pricing.MethodPrepaid {
		receipt := uuid.New().String()
		ref, err := s.gateway.CreateIntent(ctx, quote.TotalPaise, "INR", receipt)
		if err != nil {
			log.Error("payment intent creation failed", zap.Error(err))
			return nil, err
		}
		gatewayOrderID = ref
		o.GatewayOrderID = &ref
		o.Status = StatusPending
		expiry := now.Add(prepaidExpiry)
		o.ExpiresAt = &expiry
	} else {
		o.Status = StatusUnverified
	}

	if err := s.repo.CreateOrderTx(ctx, o); err != nil {
		log.Error("failed to persist order", zap.Error(err))
		return nil, err
	}

	log.Info("order created",
		zap.Int64("order_id", o.ID),
		zap.String("status", string(o.Status)),
	)

	return &CreateResult{
		OrderID:        o.ID,
		AmountPaise:    quote.TotalPaise,
		GatewayOrderID: gatewayOrderID,
	}, nil
}

// pricingConfig merges env defaults with the StoreSettings row when one
// exists.
func (s *service) pricingConfig(ctx context.Context) pricing.Config {
	cfg := pricing.Config{
		FreeShippingMinPaise: s.rules.FreeShippingMinPaise,
		FlatRatePaise:        s.rules.ShippingFlatRatePaise,
		CODFeePaise:          s.rules.CODFeePaise,
	}

	if s.settings == nil {
		return cfg
	}
	st, err := s.settings.Get(ctx)
	if err != nil {
		logger.FromCtx(ctx).Warn("failed to load store settings, using defaults", zap.Error(err))
		return cfg
	}
	if st != nil {
		if st.FreeShippingMinPaise > 0 {
			cfg.FreeShippingMinPaise = st.FreeShippingMinPaise
		}
		if st.ShippingFlatRatePaise > 0 {
			cfg.FlatRatePaise = st.ShippingFlatRatePaise
		}
	}
	return cfg
}

func (s *service) Get(ctx context.Context, orderID int64) (*Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

func (s *service) List(ctx context.Context, statusFilter string, limit, page int32) ([]*Order, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = 20
	}
	if page < 1 {
		page = 1
	}

	var status *Status
	if statusFilter != "" {
		st, err := ParseAdminStatus(statusFilter)
		if err != nil {
			return nil, err
		}
		status = &st
	}

	return s.repo.List(ctx, status, limit, (page-1)*limit)
}

func (s *service) UpdateStatus(ctx context.Context, orderID int64, target string) error {
	log := logger.FromCtx(ctx).With(
		zap.Int64("order_id", orderID),
		zap.String("target_status", target),
	)

	to, err := ParseAdminStatus(target)
	if err != nil {
		log.Warn("rejected unrecognized status")
		return err
	}

	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	if err := CheckTransition(o.Status, to); err != nil {
		log.Warn("rejected transition", zap.String("from", string(o.Status)), zap.Error(err))
		return err
	}

	// SHIPPED is written by the label workflow together with the
	// tracking number; a manual flip would leave the order shipped with
	// no tracking.
	if to == StatusShipped && o.TrackingNumber == nil {
		log.Warn("rejected manual shipped flip without tracking")
		return ErrNotShippable
	}

	if to == StatusCancelled && o.TrackingNumber == nil {
		if err := s.repo.CancelAndRestock(ctx, orderID, o.Status); err != nil {
			return err
		}
		log.Info("order cancelled, stock restored")
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, orderID, o.Status, to); err != nil {
		return err
	}

	log.Info("order status updated", zap.String("from", string(o.Status)))
	return nil
}

func (s *service) ConfirmCOD(ctx context.Context, orderID int64) error {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if o.Status != StatusUnverified {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, StatusPaid)
	}
	return s.repo.UpdateStatus(ctx, orderID, StatusUnverified, StatusPaid)
}

func (s *service) VerifyPayment(ctx context.Context, gatewayOrderID, paymentRef, signature string) error {
	log := logger.FromCtx(ctx).With(zap.String("gateway_order_id", gatewayOrderID))

	if !s.gateway.VerifyCallback(gatewayOrderID, paymentRef, signature) {
		log.Warn("payment signature verification failed")
		return ErrPaymentVerification
	}

	err := s.repo.MarkPaidByGatewayRef(ctx, gatewayOrderID)
	if errors.Is(err, ErrOrderNotFound) {
		// The CAS found no PENDING row. If the order is already paid
		// the webhook is a retry and success is the right answer.
		o, getErr := s.repo.GetByGatewayRef(ctx, gatewayOrderID)
		if getErr == nil && o.Status != StatusPending && !IsTerminal(o.Status) {
			log.Info("payment callback replay ignored", zap.String("status", string(o.Status)))
			return nil
		}
		return err
	}
	if err != nil {
		return err
	}

	log.Info("order marked paid")
	return nil
}

func validateCustomer(c CustomerInput) error {
	if len(c.Name) < 2 {
		return fmt.Errorf("%w: name too short", ErrInvalidCustomer)
	}
	if !emailRegex.MatchString(c.Email) {
		return fmt.Errorf("%w: malformed email", ErrInvalidCustomer)
	}
	if !phoneRegex.MatchString(c.Phone) {
		return fmt.Errorf("%w: phone must be 10-15 digits", ErrInvalidCustomer)
	}
	if !pincodeRegex.MatchString(c.Pincode) {
		return fmt.Errorf("%w: pincode must be 6 digits", ErrInvalidCustomer)
	}
	if c.Street == "" {
		return fmt.Errorf("%w: address required", ErrInvalidCustomer)
	}
	return nil
}
