package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/ignite/loyalty-crm/internal/domain"
	"github.com/ignite/loyalty-crm/internal/service/loyalty"
)

const customerColumns = `uid, purchases, total_spent, last_activity, feedback_score, feedback_comments,
	engagement_score, purchase_history, created_at, loyalty_score, category, last_calculated,
	ai_offer, churn_risk`

// CustomerRepo implements loyalty.Repository against PostgreSQL. Purchase
// history, offer and churn risk are stored as JSONB in the same row.
type CustomerRepo struct{ db *sql.DB }

// NewCustomerRepo creates a Postgres-backed customer repository.
func NewCustomerRepo(db *sql.DB) *CustomerRepo { return &CustomerRepo{db: db} }

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCustomer(s rowScanner) (*domain.CustomerRecord, error) {
	var (
		rec                   domain.CustomerRecord
		history, offer, churn []byte
	)
	if err := s.Scan(
		&rec.UID, &rec.Purchases, &rec.TotalSpent, &rec.LastActivity, &rec.FeedbackScore,
		&rec.FeedbackComments, &rec.EngagementScore, &history, &rec.CreatedAt, &rec.LoyaltyScore,
		&rec.Category, &rec.LastCalculated, &offer, &churn,
	); err != nil {
		return nil, err
	}

	if len(history) > 0 {
		if err := json.Unmarshal(history, &rec.PurchaseHistory); err != nil {
			return nil, fmt.Errorf("decode purchase_history: %w", err)
		}
	}
	if len(offer) > 0 && string(offer) != "null" {
		rec.AIOffer = &domain.Offer{}
		if err := json.Unmarshal(offer, rec.AIOffer); err != nil {
			return nil, fmt.Errorf("decode ai_offer: %w", err)
		}
	}
	if len(churn) > 0 && string(churn) != "null" {
		rec.ChurnRisk = &domain.ChurnRisk{}
		if err := json.Unmarshal(churn, rec.ChurnRisk); err != nil {
			return nil, fmt.Errorf("decode churn_risk: %w", err)
		}
	}
	return &rec, nil
}

func (r *CustomerRepo) Get(ctx context.Context, uid string) (*domain.CustomerRecord, error) {
	rec, err := scanCustomer(r.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE uid = $1`, uid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, loyalty.ErrNotFound
	}
	if err != nil {
		return nil, classify("get customer", err)
	}
	return rec, nil
}

func (r *CustomerRepo) Set(ctx context.Context, rec *domain.CustomerRecord) error {
	history := rec.PurchaseHistory
	if history == nil {
		history = []domain.PurchaseRecord{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("encode purchase_history: %w", err)
	}
	offerJSON, err := nullableJSON(rec.AIOffer)
	if err != nil {
		return err
	}
	churnJSON, err := nullableJSON(rec.ChurnRisk)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO customers (`+customerColumns+`, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW())
		ON CONFLICT (uid) DO UPDATE SET
			purchases = $2, total_spent = $3, last_activity = $4, feedback_score = $5,
			feedback_comments = $6, engagement_score = $7, purchase_history = $8,
			created_at = $9, loyalty_score = $10, category = $11, last_calculated = $12,
			ai_offer = $13, churn_risk = $14, updated_at = NOW()
	`, rec.UID, rec.Purchases, rec.TotalSpent, rec.LastActivity, rec.FeedbackScore,
		rec.FeedbackComments, rec.EngagementScore, historyJSON, rec.CreatedAt, rec.LoyaltyScore,
		string(rec.Category), rec.LastCalculated, offerJSON, churnJSON)
	if err != nil {
		return classify("set customer", err)
	}
	return nil
}

func (r *CustomerRepo) Update(ctx context.Context, uid string, u domain.CustomerUpdate) error {
	var (
		sets []string
		args = []interface{}{uid}
	)
	add := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if u.Purchases != nil {
		add("purchases", *u.Purchases)
	}
	if u.TotalSpent != nil {
		add("total_spent", *u.TotalSpent)
	}
	if u.LastActivity != nil {
		add("last_activity", *u.LastActivity)
	}
	if u.FeedbackScore != nil {
		add("feedback_score", *u.FeedbackScore)
	}
	if u.FeedbackComments != nil {
		add("feedback_comments", *u.FeedbackComments)
	}
	if u.EngagementScore != nil {
		add("engagement_score", *u.EngagementScore)
	}
	if u.LoyaltyScore != nil {
		add("loyalty_score", *u.LoyaltyScore)
	}
	if u.Category != nil {
		add("category", string(*u.Category))
	}
	if u.LastCalculated != nil {
		add("last_calculated", *u.LastCalculated)
	}
	if u.AIOffer != nil {
		b, err := json.Marshal(u.AIOffer)
		if err != nil {
			return fmt.Errorf("encode ai_offer: %w", err)
		}
		add("ai_offer", b)
	}
	if u.ChurnRisk != nil {
		b, err := json.Marshal(u.ChurnRisk)
		if err != nil {
			return fmt.Errorf("encode churn_risk: %w", err)
		}
		add("churn_risk", b)
	}
	sets = append(sets, "updated_at = NOW()")

	res, err := r.db.ExecContext(ctx,
		`UPDATE customers SET `+strings.Join(sets, ", ")+` WHERE uid = $1`, args...)
	if err != nil {
		return classify("update customer", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return loyalty.ErrNotFound
	}
	return nil
}

func (r *CustomerRepo) AppendPurchase(ctx context.Context, uid string, p domain.PurchaseRecord) error {
	entry, err := json.Marshal([]domain.PurchaseRecord{p})
	if err != nil {
		return fmt.Errorf("encode purchase: %w", err)
	}
	match, err := json.Marshal([]map[string]string{{"id": p.ID}})
	if err != nil {
		return fmt.Errorf("encode purchase id: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE customers SET
			purchases = purchases + 1,
			total_spent = total_spent + $2,
			last_activity = $3,
			purchase_history = purchase_history || $4::jsonb,
			updated_at = NOW()
		WHERE uid = $1 AND NOT purchase_history @> $5::jsonb
	`, uid, p.Amount, p.Timestamp, entry, match)
	if err != nil {
		return classify("append purchase", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	// Either the customer is missing or the purchase was already recorded.
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM customers WHERE uid = $1)`, uid,
	).Scan(&exists); err != nil {
		return classify("check customer", err)
	}
	if !exists {
		return loyalty.ErrNotFound
	}
	return nil
}

func (r *CustomerRepo) List(ctx context.Context, f loyalty.ListFilter) ([]domain.CustomerRecord, error) {
	var limit sql.NullInt64
	if f.Limit > 0 {
		limit = sql.NullInt64{Int64: int64(f.Limit), Valid: true}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE ($1 = '' OR category = $1)
		ORDER BY uid
		LIMIT $2 OFFSET $3
	`, string(f.Category), limit, f.Offset)
	if err != nil {
		return nil, classify("list customers", err)
	}
	defer rows.Close()

	var out []domain.CustomerRecord
	for rows.Next() {
		rec, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func nullableJSON(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case *domain.Offer:
		if t == nil {
			return nil, nil
		}
	case *domain.ChurnRisk:
		if t == nil {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json column: %w", err)
	}
	return b, nil
}

// Postgres error codes that mean "try again later".
var throttledCodes = map[pq.ErrorCode]bool{
	"53300": true, // too_many_connections
	"57P03": true, // cannot_connect_now
	"53400": true, // configuration_limit_exceeded
}

func classify(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && throttledCodes[pqErr.Code] {
		return fmt.Errorf("%s: %w: %v", op, loyalty.ErrThrottled, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
