package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "fleetride/internal/domain/booking"
	"fleetride/internal/domain/period"
	"fleetride/internal/domain/shared/money"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection("agg_booking")}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		return nil, err
	}
	return doc.toAggregate()
}

func (r *BookingRepository) ListDue(ctx context.Context, now time.Time) ([]*domainbooking.Booking, error) {
	filter := bson.M{
		"status":       bson.M{"$in": []string{string(domainbooking.StatusConfirmed), string(domainbooking.StatusActive)}},
		"period.start": bson.M{"$lte": now.UTC().UnixMilli()},
	}
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*domainbooking.Booking
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		b, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, cur.Err()
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	for _, leg := range b.Legs {
		if leg.ID == "" {
			leg.ID = uuid.NewString()
		}
	}
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

type bookingDocument struct {
	ID                    string         `bson:"_id"`
	Reference             string         `bson:"reference"`
	Status                string         `bson:"status"`
	Period                periodDocument `bson:"period"`
	PickupAddress         string         `bson:"pickup_address"`
	DropOffAddress        string         `bson:"drop_off_address"`
	CustomerID            string         `bson:"customer_id"`
	CarID                 string         `bson:"car_id"`
	ChauffeurID           string         `bson:"chauffeur_id,omitempty"`
	SpecialRequests       string         `bson:"special_requests,omitempty"`
	Legs                  []legDocument  `bson:"legs"`
	PaymentStatus         string         `bson:"payment_status"`
	PaymentID             string         `bson:"payment_id,omitempty"`
	Financials            moneySnapshot  `bson:"financials"`
	IncludeSecurityDetail bool           `bson:"include_security_detail"`
	CancelledAt           int64          `bson:"cancelled_at,omitempty"`
	CancellationReason    string         `bson:"cancellation_reason,omitempty"`
	CreatedAt             int64          `bson:"created_at"`
	UpdatedAt             int64          `bson:"updated_at"`
	Version               int64          `bson:"version"`
}

type periodDocument struct {
	Kind  string `bson:"kind"`
	Start int64  `bson:"start"`
	End   int64  `bson:"end"`
}

type legDocument struct {
	ID                string `bson:"id"`
	Date              int64  `bson:"date"`
	StartTime         int64  `bson:"start_time"`
	EndTime           int64  `bson:"end_time"`
	TotalDailyPrice   string `bson:"total_daily_price"`
	ItemsNetValue     string `bson:"items_net_value"`
	FleetOwnerEarning string `bson:"fleet_owner_earning"`
	Status            string `bson:"status"`
	Notes             string `bson:"notes,omitempty"`
}

// moneySnapshot stores exact decimals as strings; BSON doubles would lose
// the precision the money package guarantees.
type moneySnapshot struct {
	TotalAmount         string `bson:"total_amount"`
	NetTotal            string `bson:"net_total"`
	PlatformServiceFee  string `bson:"platform_service_fee"`
	VATAmount           string `bson:"vat_amount"`
	FleetOwnerPayoutNet string `bson:"fleet_owner_payout_net"`
	SecurityDetailCost  string `bson:"security_detail_cost"`
	Currency            string `bson:"currency"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:        string(b.ID),
		Reference: b.Reference,
		Status:    string(b.Status),
		Period: periodDocument{
			Kind:  string(b.Period.Kind()),
			Start: b.Period.Start().UnixMilli(),
			End:   b.Period.End().UnixMilli(),
		},
		PickupAddress:   b.PickupAddress,
		DropOffAddress:  b.DropOffAddress,
		CustomerID:      b.CustomerID,
		CarID:           b.CarID,
		ChauffeurID:     b.ChauffeurID,
		SpecialRequests: b.SpecialRequests,
		PaymentStatus:   string(b.PaymentStatus),
		PaymentID:       b.PaymentID,
		Financials: moneySnapshot{
			TotalAmount:         b.Financials.TotalAmount.Amount.String(),
			NetTotal:            b.Financials.NetTotal.Amount.String(),
			PlatformServiceFee:  b.Financials.PlatformServiceFee.Amount.String(),
			VATAmount:           b.Financials.VATAmount.Amount.String(),
			FleetOwnerPayoutNet: b.Financials.FleetOwnerPayoutNet.Amount.String(),
			SecurityDetailCost:  b.Financials.SecurityDetailCost.Amount.String(),
			Currency:            b.Financials.TotalAmount.Currency,
		},
		IncludeSecurityDetail: b.IncludeSecurityDetail,
		CancellationReason:    b.CancellationReason,
		CreatedAt:             b.CreatedAt.UnixMilli(),
		UpdatedAt:             b.UpdatedAt.UnixMilli(),
		Version:               b.Version,
	}
	if !b.CancelledAt.IsZero() {
		doc.CancelledAt = b.CancelledAt.UnixMilli()
	}
	for _, leg := range b.Legs {
		doc.Legs = append(doc.Legs, legDocument{
			ID:                leg.ID,
			Date:              leg.Date.UnixMilli(),
			StartTime:         leg.StartTime.UnixMilli(),
			EndTime:           leg.EndTime.UnixMilli(),
			TotalDailyPrice:   leg.TotalDailyPrice.Amount.String(),
			ItemsNetValue:     leg.ItemsNetValue.Amount.String(),
			FleetOwnerEarning: leg.FleetOwnerEarning.Amount.String(),
			Status:            string(leg.Status),
			Notes:             leg.Notes,
		})
	}
	return doc
}

func (d bookingDocument) toAggregate() (*domainbooking.Booking, error) {
	status, err := domainbooking.ParseStatus(d.Status)
	if err != nil {
		return nil, err
	}
	payStatus, err := domainbooking.ParsePaymentStatus(d.PaymentStatus)
	if err != nil {
		return nil, err
	}
	fin, err := d.Financials.toFinancials()
	if err != nil {
		return nil, err
	}
	agg := &domainbooking.Booking{
		ID:                    domainbooking.BookingID(d.ID),
		Reference:             d.Reference,
		Status:                status,
		Period:                period.Reconstitute(period.Kind(d.Period.Kind), timestampToTime(d.Period.Start), timestampToTime(d.Period.End)),
		PickupAddress:         d.PickupAddress,
		DropOffAddress:        d.DropOffAddress,
		CustomerID:            d.CustomerID,
		CarID:                 d.CarID,
		ChauffeurID:           d.ChauffeurID,
		SpecialRequests:       d.SpecialRequests,
		PaymentStatus:         payStatus,
		PaymentID:             d.PaymentID,
		Financials:            fin,
		IncludeSecurityDetail: d.IncludeSecurityDetail,
		CancellationReason:    d.CancellationReason,
		CreatedAt:             timestampToTime(d.CreatedAt),
		UpdatedAt:             timestampToTime(d.UpdatedAt),
		Version:               d.Version,
	}
	if d.CancelledAt != 0 {
		agg.CancelledAt = timestampToTime(d.CancelledAt)
	}
	for _, ld := range d.Legs {
		leg, err := ld.toLeg(fin.TotalAmount.Currency)
		if err != nil {
			return nil, err
		}
		agg.Legs = append(agg.Legs, leg)
	}
	return agg, nil
}

func (s moneySnapshot) toFinancials() (domainbooking.Financials, error) {
	fields := []string{s.TotalAmount, s.NetTotal, s.PlatformServiceFee, s.VATAmount, s.FleetOwnerPayoutNet, s.SecurityDetailCost}
	out := make([]money.Money, len(fields))
	for i, raw := range fields {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return domainbooking.Financials{}, err
		}
		m, err := money.New(amount, s.Currency)
		if err != nil {
			return domainbooking.Financials{}, err
		}
		out[i] = m
	}
	return domainbooking.Financials{
		TotalAmount:         out[0],
		NetTotal:            out[1],
		PlatformServiceFee:  out[2],
		VATAmount:           out[3],
		FleetOwnerPayoutNet: out[4],
		SecurityDetailCost:  out[5],
	}, nil
}

func (ld legDocument) toLeg(currency string) (*domainbooking.Leg, error) {
	status, err := domainbooking.ParseLegStatus(ld.Status)
	if err != nil {
		return nil, err
	}
	amounts := make([]money.Money, 3)
	for i, raw := range []string{ld.TotalDailyPrice, ld.ItemsNetValue, ld.FleetOwnerEarning} {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, err
		}
		m, err := money.New(d, currency)
		if err != nil {
			return nil, err
		}
		amounts[i] = m
	}
	return &domainbooking.Leg{
		ID:                ld.ID,
		Date:              timestampToTime(ld.Date),
		StartTime:         timestampToTime(ld.StartTime),
		EndTime:           timestampToTime(ld.EndTime),
		TotalDailyPrice:   amounts[0],
		ItemsNetValue:     amounts[1],
		FleetOwnerEarning: amounts[2],
		Status:            status,
		Notes:             ld.Notes,
	}, nil
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
