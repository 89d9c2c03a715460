package payout

import (
	"time"

	"fleetride/internal/domain/shared/money"
)

type Initiated struct {
	PayoutID     PayoutID
	FleetOwnerID string
	BookingID    string
	ExtensionID  string
	Amount       money.Money
	At           time.Time
}

func (e Initiated) EventName() string     { return "payout.initiated" }
func (e Initiated) AggregateID() string   { return string(e.PayoutID) }
func (e Initiated) OccurredAt() time.Time { return e.At }

type Processing struct {
	PayoutID          PayoutID
	ProviderReference string
	At                time.Time
}

func (e Processing) EventName() string     { return "payout.processing" }
func (e Processing) AggregateID() string   { return string(e.PayoutID) }
func (e Processing) OccurredAt() time.Time { return e.At }

type Completed struct {
	PayoutID     PayoutID
	FleetOwnerID string
	Amount       money.Money
	At           time.Time
}

func (e Completed) EventName() string     { return "payout.completed" }
func (e Completed) AggregateID() string   { return string(e.PayoutID) }
func (e Completed) OccurredAt() time.Time { return e.At }

type Failed struct {
	PayoutID     PayoutID
	FleetOwnerID string
	Reason       string
	At           time.Time
}

func (e Failed) EventName() string     { return "payout.failed" }
func (e Failed) AggregateID() string   { return string(e.PayoutID) }
func (e Failed) OccurredAt() time.Time { return e.At }
