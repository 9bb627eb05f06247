package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/loyalty-crm/internal/domain"
	"github.com/ignite/loyalty-crm/internal/service/loyalty"
)

func setupTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return db, mock, func() { db.Close() }
}

var columns = []string{
	"uid", "purchases", "total_spent", "last_activity", "feedback_score", "feedback_comments",
	"engagement_score", "purchase_history", "created_at", "loyalty_score", "category", "last_calculated",
	"ai_offer", "churn_risk",
}

func TestCustomerRepo_Get(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM customers WHERE uid = \\$1").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"user-1", 3, 150.0, "2024-05-01T00:00:00Z", 4.0, "nice",
			0.7, []byte(`[{"id":"p1","productId":"sku","productName":"Shoe","quantity":1,"amount":50,"timestamp":"2024-05-01T00:00:00Z"}]`),
			"2024-01-01T00:00:00Z", 72, "Loyal", "2024-05-02T00:00:00Z",
			[]byte(`{"name":"LOYALIST","discount":"15%","description":"d","expiration":"e","targetedCategory":"shoes","expectedConversionRate":"30-40%"}`),
			nil,
		))

	rec, err := NewCustomerRepo(db).Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, rec.Purchases)
	assert.Equal(t, domain.CategoryLoyal, rec.Category)
	require.Len(t, rec.PurchaseHistory, 1)
	assert.Equal(t, "Shoe", rec.PurchaseHistory[0].ProductName)
	require.NotNil(t, rec.AIOffer)
	assert.Equal(t, "LOYALIST", rec.AIOffer.Name)
	assert.Nil(t, rec.ChurnRisk)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepo_GetNotFound(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM customers").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := NewCustomerRepo(db).Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, loyalty.ErrNotFound)
}

func TestCustomerRepo_Set(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO customers (.+) ON CONFLICT \\(uid\\) DO UPDATE").
		WithArgs("user-1", 1, 20.0, "ts", 0.0, "", 0.5, []byte("[]"), "ts", 0, "", "", nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewCustomerRepo(db).Set(context.Background(), &domain.CustomerRecord{
		UID: "user-1", Purchases: 1, TotalSpent: 20, LastActivity: "ts", EngagementScore: 0.5, CreatedAt: "ts",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepo_Update(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	score := 90
	cat := domain.CategoryAtRisk
	mock.ExpectExec("UPDATE customers SET loyalty_score = \\$2, category = \\$3, updated_at = NOW\\(\\) WHERE uid = \\$1").
		WithArgs("user-1", 90, "At-Risk").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewCustomerRepo(db).Update(context.Background(), "user-1", domain.CustomerUpdate{LoyaltyScore: &score, Category: &cat})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepo_UpdateNotFound(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	eng := 0.6
	mock.ExpectExec("UPDATE customers SET engagement_score").
		WithArgs("ghost", 0.6).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewCustomerRepo(db).Update(context.Background(), "ghost", domain.CustomerUpdate{EngagementScore: &eng})
	assert.ErrorIs(t, err, loyalty.ErrNotFound)
}

func TestCustomerRepo_AppendPurchase(t *testing.T) {
	p := domain.PurchaseRecord{ID: "p1", ProductID: "sku", ProductName: "Shoe", Quantity: 1, Amount: 50, Timestamp: "ts"}

	t.Run("appended", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()

		mock.ExpectExec("UPDATE customers SET purchases = purchases \\+ 1").
			WithArgs("user-1", 50.0, "ts", sqlmock.AnyArg(), []byte(`[{"id":"p1"}]`)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, NewCustomerRepo(db).AppendPurchase(context.Background(), "user-1", p))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate is a no-op", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()

		mock.ExpectExec("UPDATE customers SET").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS").WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		require.NoError(t, NewCustomerRepo(db).AppendPurchase(context.Background(), "user-1", p))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing customer", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()

		mock.ExpectExec("UPDATE customers SET").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS").WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		err := NewCustomerRepo(db).AppendPurchase(context.Background(), "ghost", p)
		assert.ErrorIs(t, err, loyalty.ErrNotFound)
	})
}

func TestCustomerRepo_List(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM customers (.+) ORDER BY uid").
		WithArgs("Churned", int64(10), 0).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("a", 0, 0.0, "", 0.0, "", 0.0, []byte("[]"), "", 5, "Churned", "", nil, []byte(`{"churnProbability":80,"riskLevel":"high","keyRiskFactors":[],"retentionStrategies":[]}`)).
			AddRow("b", 1, 5.0, "", 0.0, "", 0.2, nil, "", 12, "Churned", "", nil, nil))

	out, err := NewCustomerRepo(db).List(context.Background(), loyalty.ListFilter{Category: domain.CategoryChurned, Limit: 10})
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.NotNil(t, out[0].ChurnRisk)
	assert.Equal(t, domain.RiskHigh, out[0].ChurnRisk.RiskLevel)
	assert.Equal(t, "b", out[1].UID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassify(t *testing.T) {
	err := classify("get customer", &pq.Error{Code: "53300", Message: "too many connections"})
	assert.ErrorIs(t, err, loyalty.ErrThrottled)
	assert.True(t, loyalty.IsRateLimited(err))

	err = classify("get customer", &pq.Error{Code: "42P01", Message: "relation does not exist"})
	assert.NotErrorIs(t, err, loyalty.ErrThrottled)
}
