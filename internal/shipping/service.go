package shipping

import (
	"context"
	"fmt"
	"strconv"

	"storefront-be/internal/logger"
	"storefront-be/internal/money"
	"storefront-be/internal/order"
	"storefront-be/internal/pricing"

	"go.uber.org/zap"
)

// OrderStore is the slice of order persistence this workflow needs.
type OrderStore interface {
	GetByID(ctx context.Context, orderID int64) (*order.Order, error)
	MarkShipped(ctx context.Context, orderID int64, from order.Status, awb, courier, labelURL string) error
}

type Service interface {
	// GenerateLabel runs the full fulfilment push for one order:
	// guard, provider push, AWB assignment, label document, and a
	// single atomic local update to SHIPPED.
	GenerateLabel(ctx context.Context, orderID int64) (*LabelResult, error)

	CheckPincode(ctx context.Context, pincode string) (*Serviceability, error)
}

type service struct {
	client Client
	orders OrderStore
}

func NewService(client Client, orders OrderStore) Service {
	return &service{client: client, orders: orders}
}

func (s *service) GenerateLabel(ctx context.Context, orderID int64) (*LabelResult, error) {
	log := logger.FromCtx(ctx).With(zap.Int64("order_id", orderID))

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// Idempotency guard: a shipping push must never go out twice.
	if o.TrackingNumber != nil || o.Status == order.StatusShipped || o.Status == order.StatusDelivered {
		log.Warn("label request rejected, already shipped")
		return nil, order.ErrAlreadyShipped
	}
	if !o.Shippable() {
		log.Warn("label request rejected, not shippable", zap.String("status", string(o.Status)))
		return nil, order.ErrNotShippable
	}

	req := s.buildShipmentRequest(o)

	shipmentID, err := s.client.PushOrder(ctx, req)
	if err != nil {
		log.Error("provider push failed", zap.Error(err))
		return nil, err
	}

	awb, err := s.client.AssignAWB(ctx, shipmentID)
	if err != nil {
		log.Error("AWB assignment failed", zap.Int64("shipment_id", shipmentID), zap.Error(err))
		return nil, err
	}

	labelURL, err := s.client.GenerateLabel(ctx, shipmentID)
	if err != nil {
		log.Error("label generation failed", zap.String("awb", awb.Code), zap.Error(err))
		return nil, err
	}

	// One atomic write; a concurrent request that also passed the guard
	// loses here and surfaces as already-shipped. If this write fails
	// the shipment exists upstream with the order still unshipped
	// locally, which needs manual reconciliation.
	if err := s.orders.MarkShipped(ctx, orderID, o.Status, awb.Code, awb.CourierName, labelURL); err != nil {
		log.Error("failed to record shipment, reconcile with provider",
			zap.String("awb", awb.Code),
			zap.Error(err),
		)
		return nil, fmt.Errorf("shipment %s created upstream but not recorded: %w", awb.Code, err)
	}

	log.Info("order shipped",
		zap.String("awb", awb.Code),
		zap.String("courier", awb.CourierName),
	)

	return &LabelResult{
		AWB:      awb.Code,
		Courier:  awb.CourierName,
		LabelURL: labelURL,
	}, nil
}

func (s *service) buildShipmentRequest(o *order.Order) ShipmentRequest {
	city, state, pincode := o.Address.City, o.Address.State, o.Address.Pincode
	if city == "" || state == "" {
		pc, ps, pp := parseLegacyAddress(o.Address.Street)
		if city == "" {
			city = pc
		}
		if state == "" {
			state = ps
		}
		if pincode == "" {
			pincode = pp
		}
	}

	var codAmount float64
	if o.PaymentMethod == pricing.MethodCOD {
		codAmount = money.ToRupees(o.AmountPaise)
	}

	items := make([]ShipmentItem, 0, len(o.Items))
	for _, it := range o.Items {
		sku := "CUSTOM"
		if it.ProductID != nil {
			sku = "SKU-" + strconv.FormatInt(*it.ProductID, 10)
		}
		items = append(items, ShipmentItem{
			Name:      it.Title,
			SKU:       sku,
			Units:     it.Quantity,
			UnitPrice: money.ToRupees(it.PricePaise),
		})
	}

	return ShipmentRequest{
		OrderRef:     strconv.FormatInt(o.ID, 10),
		CustomerName: o.CustomerName,
		Email:        o.Email,
		Phone:        o.Phone,
		Street:       o.Address.Street,
		City:         city,
		State:        state,
		Pincode:      pincode,
		CODAmount:    codAmount,
		Subtotal:     money.ToRupees(o.SubtotalPaise),
		Items:        items,
	}
}

func (s *service) CheckPincode(ctx context.Context, pincode string) (*Serviceability, error) {
	return s.client.CheckServiceability(ctx, pincode, true)
}
