// Copyright (C) 2024 Pinlock Authors. All rights reserved.

package tracking

import "context"

// TrackingEvent is a usage event, like a completed check or a bumped pin.
type TrackingEvent struct {
	Category string
	Action   string
	Label    string
	Fields   map[string]string
}

type Track func(ctx context.Context, event *TrackingEvent) error

// NopTrack discards all events.
func NopTrack(ctx context.Context, event *TrackingEvent) error {
	return nil
}
