package mongo

import (
	"context"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainpayout "fleetride/internal/domain/payout"
	"fleetride/internal/domain/shared/money"
)

type PayoutRepository struct {
	col *mongo.Collection
}

func NewPayoutRepository(db *mongo.Database) *PayoutRepository {
	return &PayoutRepository{col: db.Collection("agg_payout")}
}

func (r *PayoutRepository) ByID(ctx context.Context, id domainpayout.PayoutID) (*domainpayout.Payout, error) {
	var doc payoutDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		return nil, err
	}
	return doc.toAggregate()
}

// subjectFilter matches payouts sharing either subject id. The second return
// is false when both ids are empty: a payout without a subject shares history
// with nothing, so no query should run at all.
func subjectFilter(bookingID, extensionID string) (bson.M, bool) {
	var clauses []bson.M
	if bookingID != "" {
		clauses = append(clauses, bson.M{"booking_id": bookingID})
	}
	if extensionID != "" {
		clauses = append(clauses, bson.M{"extension_id": extensionID})
	}
	if len(clauses) == 0 {
		return nil, false
	}
	return bson.M{"$or": clauses}, true
}

func (r *PayoutRepository) BySubject(ctx context.Context, bookingID, extensionID string) ([]*domainpayout.Payout, error) {
	filter, ok := subjectFilter(bookingID, extensionID)
	if !ok {
		return nil, nil
	}
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*domainpayout.Payout
	for cur.Next(ctx) {
		var doc payoutDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		p, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, cur.Err()
}

func (r *PayoutRepository) Save(ctx context.Context, p *domainpayout.Payout) error {
	doc := newPayoutDocument(p)
	filter := bson.M{"_id": doc.ID, "version": p.Version}
	doc.Version = p.Version + 1
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	p.Version = doc.Version
	return nil
}

type payoutDocument struct {
	ID                string              `bson:"_id"`
	FleetOwnerID      string              `bson:"fleet_owner_id"`
	BookingID         string              `bson:"booking_id,omitempty"`
	ExtensionID       string              `bson:"extension_id,omitempty"`
	Amount            string              `bson:"amount"`
	Currency          string              `bson:"currency"`
	BankAccount       bankAccountDocument `bson:"bank_account"`
	Status            string              `bson:"status"`
	ProviderReference string              `bson:"provider_reference,omitempty"`
	FailureReason     string              `bson:"failure_reason,omitempty"`
	ProcessedAt       int64               `bson:"processed_at,omitempty"`
	CompletedAt       int64               `bson:"completed_at,omitempty"`
	CreatedAt         int64               `bson:"created_at"`
	UpdatedAt         int64               `bson:"updated_at"`
	Version           int64               `bson:"version"`
}

type bankAccountDocument struct {
	AccountName   string `bson:"account_name"`
	AccountNumber string `bson:"account_number"`
	BankCode      string `bson:"bank_code"`
	BankName      string `bson:"bank_name"`
	Verified      bool   `bson:"verified"`
}

func newPayoutDocument(p *domainpayout.Payout) payoutDocument {
	doc := payoutDocument{
		ID:           string(p.ID),
		FleetOwnerID: p.FleetOwnerID,
		BookingID:    p.BookingID,
		ExtensionID:  p.ExtensionID,
		Amount:       p.Amount.Amount.String(),
		Currency:     p.Amount.Currency,
		BankAccount: bankAccountDocument{
			AccountName:   p.BankAccount.AccountName,
			AccountNumber: p.BankAccount.AccountNumber,
			BankCode:      p.BankAccount.BankCode,
			BankName:      p.BankAccount.BankName,
			Verified:      p.BankAccount.Verified,
		},
		Status:            string(p.Status),
		ProviderReference: p.ProviderReference,
		FailureReason:     p.FailureReason,
		CreatedAt:         p.CreatedAt.UnixMilli(),
		UpdatedAt:         p.UpdatedAt.UnixMilli(),
		Version:           p.Version,
	}
	if !p.ProcessedAt.IsZero() {
		doc.ProcessedAt = p.ProcessedAt.UnixMilli()
	}
	if !p.CompletedAt.IsZero() {
		doc.CompletedAt = p.CompletedAt.UnixMilli()
	}
	return doc
}

func (d payoutDocument) toAggregate() (*domainpayout.Payout, error) {
	status, err := domainpayout.ParseStatus(d.Status)
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return nil, err
	}
	m, err := money.New(amount, d.Currency)
	if err != nil {
		return nil, err
	}
	agg := &domainpayout.Payout{
		ID:           domainpayout.PayoutID(d.ID),
		FleetOwnerID: d.FleetOwnerID,
		BookingID:    d.BookingID,
		ExtensionID:  d.ExtensionID,
		Amount:       m,
		BankAccount: domainpayout.BankAccount{
			AccountName:   d.BankAccount.AccountName,
			AccountNumber: d.BankAccount.AccountNumber,
			BankCode:      d.BankAccount.BankCode,
			BankName:      d.BankAccount.BankName,
			Verified:      d.BankAccount.Verified,
		},
		Status:            status,
		ProviderReference: d.ProviderReference,
		FailureReason:     d.FailureReason,
		CreatedAt:         timestampToTime(d.CreatedAt),
		UpdatedAt:         timestampToTime(d.UpdatedAt),
		Version:           d.Version,
	}
	if d.ProcessedAt != 0 {
		agg.ProcessedAt = timestampToTime(d.ProcessedAt)
	}
	if d.CompletedAt != 0 {
		agg.CompletedAt = timestampToTime(d.CompletedAt)
	}
	return agg, nil
}
