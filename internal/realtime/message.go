package realtime

import "strconv"

type Event string

const (
	EventTrackShared Event = "track.shared"
	EventTipRecorded Event = "tip.recorded"
	EventCosignAdded Event = "cosign.added"
)

// FeedChannel receives every public engagement event.
const FeedChannel = "feed"

// CuratorChannel is the per-curator channel, e.g. "curator:42".
func CuratorChannel(fid int64) string {
	return "curator:" + strconv.FormatInt(fid, 10)
}

type Message struct {
	Channel string `json:"channel"`
	Event   Event  `json:"event"`
	Data    any    `json:"data,omitempty"`
}
