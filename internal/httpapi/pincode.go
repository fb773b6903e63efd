package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"

	"storefront-be/internal/shipping"
)

var pincodeRegex = regexp.MustCompile(`^[1-9][0-9]{5}$`)

// PincodeHandlers answers checkout-time serviceability lookups.
type PincodeHandlers struct {
	shipping shipping.Service
}

func NewPincodeHandlers(shippingSvc shipping.Service) *PincodeHandlers {
	return &PincodeHandlers{shipping: shippingSvc}
}

func (h *PincodeHandlers) Check(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pincode string `json:"pincode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, Error{Message: "malformed request body", Status: http.StatusBadRequest})
		return
	}
	if !pincodeRegex.MatchString(req.Pincode) {
		WriteError(w, Error{Message: "pincode must be 6 digits", Status: http.StatusBadRequest})
		return
	}

	res, err := h.shipping.CheckPincode(r.Context(), req.Pincode)
	if errors.Is(err, shipping.ErrNotServiceable) {
		// A clean "no" is an answer, not a failure.
		WriteJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"message": "delivery not available for this pincode",
		})
		return
	}
	if err != nil {
		e := FromErr(err)
		WriteJSON(w, e.Status, map[string]any{"success": false, "message": e.Message})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"city":      res.City,
		"state":     res.State,
		"date":      res.DeliveryDate,
		"cod":       res.CODAvailable,
		"isExpress": res.IsExpress,
	})
}
