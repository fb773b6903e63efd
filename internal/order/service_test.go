package order

import (
	"context"
	"testing"

	"storefront-be/internal/catalog"
	"storefront-be/internal/coupon"
	"storefront-be/internal/pricing"
	"storefront-be/internal/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// --- Mocks ---

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateOrderTx(ctx context.Context, o *Order) error {
	args := m.Called(ctx, o)
	if args.Error(0) == nil {
		o.ID = 42
	}
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, orderID int64) (*Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, status *Status, limit, offset int32) ([]*Order, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Order), args.Error(1)
}

func (m *MockRepository) CountCancelledByPhone(ctx context.Context, phone string) (int, error) {
	args := m.Called(ctx, phone)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, orderID int64, from, to Status) error {
	args := m.Called(ctx, orderID, from, to)
	return args.Error(0)
}

func (m *MockRepository) CancelAndRestock(ctx context.Context, orderID int64, from Status) error {
	args := m.Called(ctx, orderID, from)
	return args.Error(0)
}

func (m *MockRepository) GetByGatewayRef(ctx context.Context, gatewayOrderID string) (*Order, error) {
	args := m.Called(ctx, gatewayOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) MarkPaidByGatewayRef(ctx context.Context, gatewayOrderID string) error {
	args := m.Called(ctx, gatewayOrderID)
	return args.Error(0)
}

func (m *MockRepository) MarkShipped(ctx context.Context, orderID int64, from Status, awb, courier, labelURL string) error {
	args := m.Called(ctx, orderID, from, awb, courier, labelURL)
	return args.Error(0)
}

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) GetForCheckout(ctx context.Context, productID int64) (*catalog.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

type MockCouponSvc struct {
	mock.Mock
}

func (m *MockCouponSvc) Validate(ctx context.Context, code string, subtotalPaise int64) (int64, error) {
	args := m.Called(ctx, code, subtotalPaise)
	return args.Get(0).(int64), args.Error(1)
}

type MockSettings struct {
	mock.Mock
}

func (m *MockSettings) Get(ctx context.Context) (*settings.StoreSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settings.StoreSettings), args.Error(1)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateIntent(ctx context.Context, amountPaise int64, currency, receipt string) (string, error) {
	args := m.Called(ctx, amountPaise, currency, receipt)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) VerifyCallback(orderRef, paymentRef, signature string) bool {
	args := m.Called(orderRef, paymentRef, signature)
	return args.Bool(0)
}

// --- Helpers ---

var testRules = Rules{
	CODMinOrderPaise:      299 * 100,
	CODFeePaise:           50 * 100,
	FreeShippingMinPaise:  499 * 100,
	ShippingFlatRatePaise: 49 * 100,
}

type deps struct {
	repo    *MockRepository
	catalog *MockCatalog
	coupons *MockCouponSvc
	gateway *MockGateway
}

func newTestService() (Service, *deps) {
	d := &deps{
		repo:    new(MockRepository),
		catalog: new(MockCatalog),
		coupons: new(MockCouponSvc),
		gateway: new(MockGateway),
	}
	svc := NewService(d.repo, d.catalog, d.coupons, nil, d.gateway, testRules)
	return svc, d
}

func validCustomer() CustomerInput {
	return CustomerInput{
		Name:    "Asha Rao",
		Email:   "asha@example.com",
		Phone:   "9876543210",
		Street:  "12 MG Road",
		City:    "Bengaluru",
		State:   "Karnataka",
		Pincode: "560001",
	}
}

func catalogLine(id int64, qty int) LineInput {
	return LineInput{ProductID: &id, Quantity: qty}
}

// --- Tests ---

func TestCreate_PrepaidHappyPath(t *testing.T) {
	svc, d := newTestService()

	d.catalog.On("GetForCheckout", mock.Anything, int64(1)).Return(&catalog.Product{
		ID: 1, Title: "Sticker Pack", PricePaise: 500 * 100, Stock: 10, ImageURL: "img",
	}, nil)
	d.gateway.On("CreateIntent", mock.Anything, int64(900*100), "INR", mock.Anything).
		Return("order_gw_1", nil)
	d.repo.On("CreateOrderTx", mock.Anything, mock.MatchedBy(func(o *Order) bool {
		return o.Status == StatusPending &&
			o.AmountPaise == 900*100 &&
			o.ExpiresAt != nil &&
			o.GatewayOrderID != nil && *o.GatewayOrderID == "order_gw_1"
	})).Return(nil)

	res, err := svc.Create(context.Background(), CreateInput{
		Items:         []LineInput{catalogLine(1, 2)},
		Customer:      validCustomer(),
		PaymentMethod: pricing.MethodPrepaid,
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(42), res.OrderID)
	assert.Equal(t, int64(900*100), res.AmountPaise)
	assert.Equal(t, "order_gw_1", res.GatewayOrderID)
	d.repo.AssertExpectations(t)
}

func TestCreate_CODHappyPath(t *testing.T) {
	svc, d := newTestService()

	d.catalog.On("GetForCheckout", mock.Anything, int64(1)).Return(&catalog.Product{
		ID: 1, Title: "Sticker Pack", PricePaise: 600 * 100, Stock: 3, ImageURL: "img",
	}, nil)
	d.repo.On("CountCancelledByPhone", mock.Anything, "9876543210").Return(1, nil)
	d.repo.On("CreateOrderTx", mock.Anything, mock.MatchedBy(func(o *Order) bool {
		return o.Status == StatusUnverified &&
			o.AmountPaise == 650*100 &&
			o.CODFeePaise == 50*100 &&
			o.GatewayOrderID == nil
	})).Return(nil)

	res, err := svc.Create(context.Background(), CreateInput{
		Items:         []LineInput{catalogLine(1, 1)},
		Customer:      validCustomer(),
		PaymentMethod: pricing.MethodCOD,
	})

	assert.NoError(t, err)
	assert.Empty(t, res.GatewayOrderID)
	d.gateway.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreate_RejectsEmptyCart(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateInput{
		Customer:      validCustomer(),
		PaymentMethod: pricing.MethodPrepaid,
	})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCreate_RejectsBadCustomer(t *testing.T) {
	svc, _ := newTestService()

	cases := []func(*CustomerInput){
		func(c *CustomerInput) { c.Name = "A" },
		func(c *CustomerInput) { c.Email = "not-an-email" },
		func(c *CustomerInput) { c.Phone = "12345" },
		func(c *CustomerInput) { c.Pincode = "05600" },
		func(c *CustomerInput) { c.Pincode = "0560011" },
		func(c *CustomerInput) { c.Street = "" },
	}
	for _, mutate := range cases {
		c := validCustomer()
		mutate(&c)
		_, err := svc.Create(context.Background(), CreateInput{
			Items:         []LineInput{catalogLine(1, 1)},
			Customer:      c,
			PaymentMethod: pricing.MethodPrepaid,
		})
		assert.ErrorIs(t, err, ErrInvalidCustomer)
	}
}

func TestCreate_ProductMissing(t *testing.T) {
	svc, d := newTestService()

	d.catalog.On("GetForCheckout", mock.Anything, int64(9)).Return(nil, catalog.ErrProductNotFound)

	_, err := svc.Create(context.Background(), CreateInput{
		Items:         []LineInput{catalogLine(9, 1)},
		Customer:      validCustomer(),
		PaymentMethod: pricing.MethodPrepaid,
	})
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestCreate_InsufficientStock(t *testing.T) {
	svc, d := newTestService()

	d.catalog.On("GetForCheckout", mock.Anything, int64(1)).Return(&catalog.Product{
		ID: 1, PricePaise: 500 * 100, Stock: 1,
	}, nil)

	_, err := svc.Create(context.Background(), CreateInput{
		Items:         []LineInput{catalogLine(1, 2)},
		Customer:      validCustomer(),
		PaymentMethod: pricing.MethodPrepaid,
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestCreate_CustomPriceTampering(t *testing.T) {
	svc, d := newTestService()

	bad := int64(1 * 100)
	_, err := svc.Create(context.Background(), CreateInput{
		Items:         []LineInput{{Quantity: 1, CustomTitle: "Custom", CustomPricePaise: &bad}},
		Customer:      validCustomer(),
		PaymentMethod: pricing.MethodPrepaid,
	})
	assert.ErrorIs(t, err, ErrPriceTampering)
	d.repo.AssertNotCalled(t, "CreateOrderTx", mock.Anything, mock.Anything)
}

func TestCreate_CustomPriceAllowListed(t *testing.T) {
	svc, d := newTestService()

	ok := int64(299 * 100)
	d.gateway.On("CreateIntent", mock.Anything, mock.Anything, "INR", mock.Anything).
		Return("order_gw_2", nil)
	d.repo.On("CreateOrderTx", mock.Anything, mock.Anything).Return(nil)

	res, err := svc.Create(context.Background(), CreateInput{
		Items:         []LineInput{{Quantity: 1, CustomTitle: "Name Print", CustomPricePaise: &ok}},
		Customer:      validCustomer(),
		PaymentMethod: pricing.MethodPrepaid,
	})
	assert.NoError(t, err)
	assert.NotZero(t, res.OrderID)
}

func TestCreate_CODBelowMinimum(t *testing.T) {
	svc, d := newTestService()

	d.catalog.On("GetForCheckout", mock.Anything, int64(1)).Return(&catalog.Product{
		ID: 1, PricePaise: 200 * 100, Stock: 5,
	}, nil)

	_, err := svc.Create(context.Background(), CreateInput{
		Items:         []LineInput{catalogLine(1, 1)},
		Customer:      validCustomer(),
		PaymentMethod: pricing.MethodCOD,
	})
	assert.ErrorIs(t, err, ErrCODBelowMinimum)
}

func TestCreate_CODFraudBlock(t *testing.T) {
	svc, d := newTestService()

	d.catalog.On("GetForCheckout", mock.Anything, int64(1)).Return(&catalog.Product{
		ID: 1, PricePaise: 600 * 100, Stock: 5,
	}, nil)
	d.repo.On("CountCancelledByPhone", mock.Anything, "9876543210").Return(2, nil)

	_, err := svc.Create(context.Background(), CreateInput{
		Items:         []LineInput{catalogLine(1, 1)},
		Customer:      validCustomer(),
		PaymentMethod: pricing.MethodCOD,
	})
	assert.ErrorIs(t, err, ErrFraudBlocked)
	d.repo.AssertNotCalled(t, "CreateOrderTx", mock.Anything, mock.Anything)
}

func TestCreate_CouponInvalidAborts(t *testing.T) {
	svc, d := newTestService()

	d.catalog.On("GetForCheckout", mock.Anything, int64(1)).Return(&catalog.Product{
		ID: 1, PricePaise: 600 * 100, Stock: 5,
	}, nil)
	d.coupons.On("Validate", mock.Anything, "SAVE50", int64(600*100)).
		Return(int64(0), coupon.ErrInvalid)

	_, err := svc.Create(context.Background(), CreateInput{
		Items:         []LineInput{catalogLine(1, 1)},
		CouponCode:    "SAVE50",
		Customer:      validCustomer(),
		PaymentMethod: pricing.MethodPrepaid,
	})
	assert.ErrorIs(t, err, coupon.ErrInvalid)
}

func TestCreate_GatewayFailureAbortsBeforePersist(t *testing.T) {
	svc, d := newTestService()

	d.catalog.On("GetForCheckout", mock.Anything, int64(1)).Return(&catalog.Product{
		ID: 1, PricePaise: 600 * 100, Stock: 5,
	}, nil)
	d.gateway.On("CreateIntent", mock.Anything, mock.Anything, "INR", mock.Anything).
		Return("", assert.AnError)

	_, err := svc.Create(context.Background(), CreateInput{
		Items:         []LineInput{catalogLine(1, 1)},
		Customer:      validCustomer(),
		PaymentMethod: pricing.MethodPrepaid,
	})
	assert.Error(t, err)
	d.repo.AssertNotCalled(t, "CreateOrderTx", mock.Anything, mock.Anything)
}

func TestUpdateStatus_RejectsUnknownString(t *testing.T) {
	svc, d := newTestService()

	err := svc.UpdateStatus(context.Background(), 1, "NOT_A_STATUS")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	d.repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	d.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatus_RejectsIllegalTransition(t *testing.T) {
	svc, d := newTestService()

	d.repo.On("GetByID", mock.Anything, int64(1)).Return(&Order{ID: 1, Status: StatusPending}, nil)

	err := svc.UpdateStatus(context.Background(), 1, "DELIVERED")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateStatus_CancelRestoresStock(t *testing.T) {
	svc, d := newTestService()

	d.repo.On("GetByID", mock.Anything, int64(1)).Return(&Order{ID: 1, Status: StatusPaid}, nil)
	d.repo.On("CancelAndRestock", mock.Anything, int64(1), StatusPaid).Return(nil)

	err := svc.UpdateStatus(context.Background(), 1, "CANCELLED")
	assert.NoError(t, err)
	d.repo.AssertExpectations(t)
}

func TestUpdateStatus_RejectsManualShippedWithoutTracking(t *testing.T) {
	svc, d := newTestService()

	d.repo.On("GetByID", mock.Anything, int64(1)).Return(&Order{ID: 1, Status: StatusPaid}, nil)

	err := svc.UpdateStatus(context.Background(), 1, "SHIPPED")
	assert.ErrorIs(t, err, ErrNotShippable)
	d.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatus_TerminalOrder(t *testing.T) {
	svc, d := newTestService()

	d.repo.On("GetByID", mock.Anything, int64(1)).Return(&Order{ID: 1, Status: StatusRefunded}, nil)

	err := svc.UpdateStatus(context.Background(), 1, "PROCESSING")
	assert.ErrorIs(t, err, ErrTerminalState)
}

func TestConfirmCOD(t *testing.T) {
	svc, d := newTestService()

	d.repo.On("GetByID", mock.Anything, int64(5)).Return(&Order{ID: 5, Status: StatusUnverified}, nil)
	d.repo.On("UpdateStatus", mock.Anything, int64(5), StatusUnverified, StatusPaid).Return(nil)

	assert.NoError(t, svc.ConfirmCOD(context.Background(), 5))

	d.repo.ExpectedCalls = nil
	d.repo.On("GetByID", mock.Anything, int64(6)).Return(&Order{ID: 6, Status: StatusPaid}, nil)
	assert.ErrorIs(t, svc.ConfirmCOD(context.Background(), 6), ErrInvalidTransition)
}

func TestVerifyPayment_BadSignature(t *testing.T) {
	svc, d := newTestService()

	d.gateway.On("VerifyCallback", "order_gw_1", "pay_1", "sig").Return(false)

	err := svc.VerifyPayment(context.Background(), "order_gw_1", "pay_1", "sig")
	assert.ErrorIs(t, err, ErrPaymentVerification)
	d.repo.AssertNotCalled(t, "MarkPaidByGatewayRef", mock.Anything, mock.Anything)
}

func TestVerifyPayment_Success(t *testing.T) {
	svc, d := newTestService()

	d.gateway.On("VerifyCallback", "order_gw_1", "pay_1", "sig").Return(true)
	d.repo.On("MarkPaidByGatewayRef", mock.Anything, "order_gw_1").Return(nil)

	assert.NoError(t, svc.VerifyPayment(context.Background(), "order_gw_1", "pay_1", "sig"))
}

func TestVerifyPayment_ReplayIsIdempotent(t *testing.T) {
	svc, d := newTestService()

	d.gateway.On("VerifyCallback", "order_gw_1", "pay_1", "sig").Return(true)
	d.repo.On("MarkPaidByGatewayRef", mock.Anything, "order_gw_1").Return(ErrOrderNotFound)
	d.repo.On("GetByGatewayRef", mock.Anything, "order_gw_1").
		Return(&Order{ID: 1, Status: StatusPaid}, nil)

	assert.NoError(t, svc.VerifyPayment(context.Background(), "order_gw_1", "pay_1", "sig"))
}

func TestVerifyPayment_UnknownRef(t *testing.T) {
	svc, d := newTestService()

	d.gateway.On("VerifyCallback", "order_gw_x", "pay_1", "sig").Return(true)
	d.repo.On("MarkPaidByGatewayRef", mock.Anything, "order_gw_x").Return(ErrOrderNotFound)
	d.repo.On("GetByGatewayRef", mock.Anything, "order_gw_x").Return(nil, ErrOrderNotFound)

	err := svc.VerifyPayment(context.Background(), "order_gw_x", "pay_1", "sig")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
