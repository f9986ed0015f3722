package services

import (
	"context"
	"time"

	"github.com/curiofm/curio-backend/internal/platform/logger"
	"github.com/curiofm/curio-backend/internal/realtime"
	"github.com/curiofm/curio-backend/internal/realtime/bus"
)

type Emitter interface {
	Emit(ctx context.Context, msg realtime.Message)
}

type HubEmitter struct{ Hub *realtime.Hub }

func (e *HubEmitter) Emit(ctx context.Context, msg realtime.Message) {
	e.Hub.Broadcast(msg)
}

// BusEmitter publishes through the shared bus so every instance's hub sees
// the message. On publish failure it delivers locally.
type BusEmitter struct {
	Bus bus.Bus
	Hub *realtime.Hub
	Log *logger.Logger
}

func (e *BusEmitter) Emit(ctx context.Context, msg realtime.Message) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := e.Bus.Publish(ctx, msg); err != nil {
		if e.Log != nil {
			e.Log.Warn("event bus publish failed; delivering locally", "event", msg.Event, "error", err)
		}
		if e.Hub != nil {
			e.Hub.Broadcast(msg)
		}
	}
}

// FeedNotifier turns domain writes into realtime events on the feed channel
// and the affected curator's channel.
type FeedNotifier interface {
	TrackShared(ctx context.Context, view RecommendationView, overlaps int)
	TipRecorded(ctx context.Context, recipientFID int64, data TipEvent)
	CosignAdded(ctx context.Context, ownerFID int64, data CosignEvent)
}

type TipEvent struct {
	RecommendationID string  `json:"recommendationId"`
	TipperFID        int64   `json:"tipperFid"`
	AmountUSD        float64 `json:"amountUsd"`
	TipCount         int64   `json:"tipCount"`
	TotalTipsUSD     float64 `json:"totalTipsUsd"`
}

type CosignEvent struct {
	RecommendationID string `json:"recommendationId"`
	CuratorFID       int64  `json:"curatorFid"`
	Count            int64  `json:"count"`
}

type feedNotifier struct {
	emit Emitter
}

func NewFeedNotifier(emit Emitter) FeedNotifier {
	return &feedNotifier{emit: emit}
}

func (n *feedNotifier) send(ctx context.Context, event realtime.Event, data any, curatorFID int64) {
	if n == nil || n.emit == nil {
		return
	}
	n.emit.Emit(ctx, realtime.Message{Channel: realtime.FeedChannel, Event: event, Data: data})
	if curatorFID > 0 {
		n.emit.Emit(ctx, realtime.Message{Channel: realtime.CuratorChannel(curatorFID), Event: event, Data: data})
	}
}

func (n *feedNotifier) TrackShared(ctx context.Context, view RecommendationView, overlaps int) {
	n.send(ctx, realtime.EventTrackShared, map[string]any{
		"recommendation": view,
		"tasteOverlaps":  overlaps,
	}, view.Curator.FID)
}

func (n *feedNotifier) TipRecorded(ctx context.Context, recipientFID int64, data TipEvent) {
	n.send(ctx, realtime.EventTipRecorded, data, recipientFID)
}

func (n *feedNotifier) CosignAdded(ctx context.Context, ownerFID int64, data CosignEvent) {
	n.send(ctx, realtime.EventCosignAdded, data, ownerFID)
}
