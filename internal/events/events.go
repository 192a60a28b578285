// Package events fans search lifecycle notifications out to subscribers, in
// process or over Redis pub/sub.
package events

import (
	"context"
	"time"
)

const (
	TypeSearchStarted  = "search.started"
	TypeSearchFinished = "search.finished"
)

type Event struct {
	Type       string    `json:"type"`
	RunID      string    `json:"runId"`
	Instance   string    `json:"instance"`
	TS         time.Time `json:"ts"`
	Cost       float64   `json:"cost"`
	Routes     int       `json:"routes"`
	Unassigned int       `json:"unassigned"`
}

// Broker delivers events per instance name. Subscribers that fall behind lose
// events instead of blocking publishers.
type Broker interface {
	Subscribe(instance string) chan Event
	Unsubscribe(instance string, ch chan Event)
	Publish(ctx context.Context, instance string, evt Event) error
}
