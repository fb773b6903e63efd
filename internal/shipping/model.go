package shipping

import "errors"

var (
	ErrAuthFailed      = errors.New("courier authentication failed")
	ErrProvider        = errors.New("courier provider error")
	ErrProviderTimeout = errors.New("courier provider timeout")
	ErrAWBFailed       = errors.New("courier assignment failed")
	ErrNotServiceable  = errors.New("pincode not serviceable")
)

// Flat lightweight goods ship in one nominal package.
const (
	packageLengthCm = 10.0
	packageWidthCm  = 10.0
	packageHeightCm = 2.0
	packageWeightKg = 0.25
)

// expressMaxDays is the delivery ETA at or under which a pincode is
// classified as express.
const expressMaxDays = 3

type ShipmentItem struct {
	Name      string
	SKU       string
	Units     int
	UnitPrice float64
}

type ShipmentRequest struct {
	OrderRef     string
	CustomerName string
	Email        string
	Phone        string
	Street       string
	City         string
	State        string
	Pincode      string
	CODAmount    float64 // 0 for prepaid
	Subtotal     float64
	Items        []ShipmentItem
}

type AWB struct {
	Code        string
	CourierName string
}

type Serviceability struct {
	CourierName   string
	City          string
	State         string
	EstimatedDays int
	DeliveryDate  string
	CODAvailable  bool
	IsExpress     bool
}

type LabelResult struct {
	AWB      string
	Courier  string
	LabelURL string
}
