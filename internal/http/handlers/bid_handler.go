// Bid session handlers: the driver app's HTTP surface for the
// negotiation engine. Terminal outcomes go out over the driver's
// websocket; these endpoints drive the session forward.
package handlers

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"drover/internal/modules/bid"
	"drover/internal/modules/pricing"
	"drover/internal/types"
)

// Pusher delivers outcome frames to a connected driver app.
type Pusher interface {
	Push(driverID types.ID, v any)
}

type BidHandler struct {
	bids    *bid.Service
	pricing *pricing.Service
	push    Pusher
}

func NewBidHandler(bids *bid.Service, pricingSvc *pricing.Service, push Pusher) *BidHandler {
	return &BidHandler{bids: bids, pricing: pricingSvc, push: push}
}

type createBidReq struct {
	RideRequestID string `json:"ride_request_id"`
	DriverID      string `json:"driver_id"`
	DefaultAmount string `json:"default_amount"`
}

type outcomeFrame struct {
	Type          string `json:"type"`
	SessionID     string `json:"session_id"`
	RideRequestID string `json:"ride_request_id"`
	Amount        string `json:"amount,omitempty"`
	RiderName     string `json:"rider_name,omitempty"`
	PickupAddress string `json:"pickup_address,omitempty"`
	Reason        string `json:"reason,omitempty"`
	Code          string `json:"code,omitempty"`
	RetrySeconds  int    `json:"retry_seconds,omitempty"`
}

func (h *BidHandler) Create(c *gin.Context) {
	var req createBidReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	defaultAmount, err := types.ParseAmount(req.DefaultAmount)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid default_amount")
		return
	}
	driverID := types.ID(req.DriverID)
	rideRequestID := types.ID(req.RideRequestID)

	// Callbacks fire from notifier/timer goroutines after the session
	// exists, so the ID travels through an atomic holder.
	var sessionID atomic.Value
	frame := func(typ string) outcomeFrame {
		sid, _ := sessionID.Load().(string)
		return outcomeFrame{Type: typ, SessionID: sid, RideRequestID: req.RideRequestID}
	}
	sess, err := h.bids.Create(c.Request.Context(), bid.CreateCommand{
		RideRequestID: rideRequestID,
		DriverID:      driverID,
		DefaultAmount: defaultAmount,
		Callbacks: bid.Callbacks{
			OnAccepted: func(a bid.Acceptance) {
				f := frame("bid_accepted")
				f.Amount = types.FormatAmount(a.Amount)
				f.RiderName = a.RiderName
				f.PickupAddress = a.PickupAddress
				h.push.Push(driverID, f)
			},
			OnCancelled: func(cl bid.Cancellation) {
				f := frame("bid_cancelled")
				f.Reason = cl.Reason
				h.push.Push(driverID, f)
			},
			OnExpired: func() {
				h.push.Push(driverID, frame("bid_expired"))
			},
			OnSubmissionFailed: func(se *bid.SubmitError) {
				f := frame("bid_submit_failed")
				f.Code = string(se.Code)
				f.Reason = se.Reason
				f.RetrySeconds = se.RetrySeconds
				h.push.Push(driverID, f)
			},
		},
	})
	if err != nil {
		writeBidError(c, err)
		return
	}
	sessionID.Store(string(sess.ID))

	writeJSON(c, http.StatusCreated, gin.H{
		"session_id":     sess.ID,
		"state":          bid.StateEditing,
		"working_amount": types.FormatAmount(defaultAmountClamped(defaultAmount)),
	})
}

func defaultAmountClamped(cents int64) int64 {
	clamped, _ := bid.Clamp(cents)
	return clamped
}

func (h *BidHandler) Get(c *gin.Context) {
	snap, err := h.bids.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeBidError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, snapshotView(snap))
}

type adjustReq struct {
	Kind      string `json:"kind"`      // amount | percent
	Value     string `json:"value"`     // "2.00" for amount, "5" for percent
	Direction string `json:"direction"` // increase | decrease
}

func (h *BidHandler) Adjust(c *gin.Context) {
	var req adjustReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	adj := bid.Adjustment{Kind: bid.AdjustmentKind(req.Kind)}
	switch adj.Kind {
	case bid.KindAmount:
		cents, err := types.ParseAmount(req.Value)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid value")
			return
		}
		adj.Value = cents
	case bid.KindPercent:
		pct, err := strconv.ParseInt(req.Value, 10, 64)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid value")
			return
		}
		adj.Value = pct
	default:
		writeError(c, http.StatusBadRequest, "unknown adjustment kind")
		return
	}

	res, err := h.bids.Adjust(c.Request.Context(), types.ID(c.Param("id")), adj, bid.Direction(req.Direction))
	if err != nil {
		writeBidError(c, err)
		return
	}
	writeAdjustResult(c, res)
}

type manualAmountReq struct {
	Amount string `json:"amount"`
}

func (h *BidHandler) SetAmount(c *gin.Context) {
	var req manualAmountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	res, err := h.bids.SetManualAmount(c.Request.Context(), types.ID(c.Param("id")), req.Amount)
	if err != nil {
		writeBidError(c, err)
		return
	}
	writeAdjustResult(c, res)
}

func (h *BidHandler) Reset(c *gin.Context) {
	res, err := h.bids.ResetToDefault(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeBidError(c, err)
		return
	}
	writeAdjustResult(c, res)
}

// Submit moves the session into the confirmation step and returns the
// earnings quote the confirm dialog displays.
func (h *BidHandler) Submit(c *gin.Context) {
	id := types.ID(c.Param("id"))
	confirm, err := h.bids.Submit(c.Request.Context(), id)
	if err != nil {
		writeBidError(c, err)
		return
	}
	snap, err := h.bids.Get(c.Request.Context(), id)
	if err != nil {
		writeBidError(c, err)
		return
	}
	quote, _ := h.pricing.Quote(c.Request.Context(), snap.WorkingAmount)
	writeJSON(c, http.StatusOK, gin.H{
		"confirmation_required": confirm,
		"state":                 snap.State,
		"quote":                 quoteView(quote),
	})
}

func (h *BidHandler) Confirm(c *gin.Context) {
	id := types.ID(c.Param("id"))
	if err := h.bids.ConfirmSubmit(c.Request.Context(), id); err != nil {
		writeBidError(c, err)
		return
	}
	snap, err := h.bids.Get(c.Request.Context(), id)
	if err != nil {
		writeBidError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, snapshotView(snap))
}

func (h *BidHandler) CancelConfirm(c *gin.Context) {
	if err := h.bids.CancelConfirm(c.Request.Context(), types.ID(c.Param("id"))); err != nil {
		writeBidError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"state": bid.StateEditing})
}

func (h *BidHandler) Cancel(c *gin.Context) {
	if err := h.bids.Cancel(c.Request.Context(), types.ID(c.Param("id"))); err != nil {
		writeBidError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"state": bid.StateDeclinedByDriver})
}

func (h *BidHandler) Quote(c *gin.Context) {
	snap, err := h.bids.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeBidError(c, err)
		return
	}
	amount := snap.WorkingAmount
	if snap.SubmittedAmount != nil {
		amount = *snap.SubmittedAmount
	}
	quote, _ := h.pricing.Quote(c.Request.Context(), amount)
	writeJSON(c, http.StatusOK, quoteView(quote))
}

func (h *BidHandler) Events(c *gin.Context) {
	events, err := h.bids.Events(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeBidError(c, err)
		return
	}
	out := make([]gin.H, 0, len(events))
	for _, e := range events {
		v := gin.H{
			"from_state": e.FromState,
			"to_state":   e.ToState,
			"created_at": e.CreatedAt.Format(time.RFC3339),
		}
		if e.Amount != nil {
			v["amount"] = types.FormatAmount(*e.Amount)
		}
		out = append(out, v)
	}
	writeJSON(c, http.StatusOK, gin.H{"events": out})
}

func writeAdjustResult(c *gin.Context, res bid.AdjustResult) {
	v := gin.H{"working_amount": types.FormatAmount(res.Amount)}
	if res.Boundary != bid.BoundaryNone {
		v["boundary_hit"] = res.Boundary
	}
	writeJSON(c, http.StatusOK, v)
}

func snapshotView(snap bid.Snapshot) gin.H {
	v := gin.H{
		"session_id":      snap.ID,
		"ride_request_id": snap.RideRequestID,
		"driver_id":       snap.DriverID,
		"state":           snap.State,
		"working_amount":  types.FormatAmount(snap.WorkingAmount),
		"closed":          snap.Closed,
	}
	if snap.SubmittedAmount != nil {
		v["submitted_amount"] = types.FormatAmount(*snap.SubmittedAmount)
	}
	if snap.Deadline != nil {
		v["listen_deadline"] = snap.Deadline.Format(time.RFC3339)
	}
	if snap.LastError != nil {
		v["last_error"] = gin.H{
			"code":          snap.LastError.Code,
			"retry_seconds": snap.LastError.RetrySeconds,
			"reason":        snap.LastError.Reason,
		}
	}
	return v
}

func quoteView(q pricing.Quote) gin.H {
	return gin.H{
		"gross":      types.FormatAmount(q.Gross.Amount),
		"commission": types.FormatAmount(q.Commission.Amount),
		"net":        types.FormatAmount(q.Net.Amount),
		"currency":   q.Gross.Currency,
	}
}
