// Outcome notifier backed by Redis: one pub/sub channel per submitted
// bid, plus the general offer pool the driver rejoins after a bid
// resolves without a trip.
package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"drover/internal/modules/bid"
	"drover/internal/types"
)

const (
	outcomeChannelPrefix = "rides:outcome:%s:%s" // ride_request_id, driver_id
	listeningPoolKey     = "drivers:listening"
)

type RedisNotifier struct {
	redis  *redis.Client
	logger *slog.Logger
}

func NewRedisNotifier(client *redis.Client, logger *slog.Logger) *RedisNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisNotifier{redis: client, logger: logger}
}

// outcomeMessage is the wire form pushed by the rider-facing side.
type outcomeMessage struct {
	Kind          string `json:"kind"` // accepted | cancelled | expired
	RideRequestID string `json:"ride_request_id"`
	AmountCents   int64  `json:"amount_cents"`
	RiderName     string `json:"rider_name,omitempty"`
	PickupAddress string `json:"pickup_address,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// SubscribeOutcome listens on the per-bid channel and forwards the first
// decoded pushes to the handler. The engine's closed-flag guard makes
// duplicate deliveries harmless, so no dedup happens here. While a bid
// is pending the driver leaves the general offer pool.
func (n *RedisNotifier) SubscribeOutcome(ctx context.Context, rideRequestID, driverID types.ID, h bid.OutcomeHandler) (bid.Unsubscribe, error) {
	channel := fmt.Sprintf(outcomeChannelPrefix, string(rideRequestID), string(driverID))
	sub := n.redis.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}
	if err := n.redis.SRem(ctx, listeningPoolKey, string(driverID)).Err(); err != nil {
		n.logger.Warn("remove driver from listening pool failed",
			"driver_id", string(driverID), "error", err)
	}

	done := make(chan struct{})
	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-done:
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				n.deliver(msg.Payload, h)
			}
		}
	}()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			close(done)
			_ = sub.Close()
		})
	}
	return unsub, nil
}

func (n *RedisNotifier) deliver(payload string, h bid.OutcomeHandler) {
	var m outcomeMessage
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		n.logger.Warn("drop malformed outcome message", "error", err)
		return
	}
	switch m.Kind {
	case "accepted":
		if h.OnAccepted != nil {
			h.OnAccepted(bid.Acceptance{
				RideRequestID: types.ID(m.RideRequestID),
				Amount:        m.AmountCents,
				RiderName:     m.RiderName,
				PickupAddress: m.PickupAddress,
			})
		}
	case "cancelled":
		if h.OnCancelled != nil {
			h.OnCancelled(bid.Cancellation{
				RideRequestID: types.ID(m.RideRequestID),
				Reason:        m.Reason,
			})
		}
	case "expired":
		if h.OnExpired != nil {
			h.OnExpired()
		}
	default:
		n.logger.Warn("drop outcome message with unknown kind", "kind", m.Kind)
	}
}

// ResumeGeneralListening re-adds the driver to the offer pool.
func (n *RedisNotifier) ResumeGeneralListening(ctx context.Context, driverID types.ID) error {
	return n.redis.SAdd(ctx, listeningPoolKey, string(driverID)).Err()
}
