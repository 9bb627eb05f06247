package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/loyalty-crm/internal/domain"
	"github.com/ignite/loyalty-crm/internal/service/loyalty"
)

var _ loyalty.Repository = (*CustomerRepo)(nil)

func TestCustomerRepo_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewCustomerRepo()

	_, err := repo.Get(ctx, "u1")
	assert.ErrorIs(t, err, loyalty.ErrNotFound)

	require.NoError(t, repo.Set(ctx, &domain.CustomerRecord{UID: "u1", Purchases: 1, TotalSpent: 10}))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	got.Purchases = 99

	again, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, again.Purchases, "returned records are copies")
}

func TestCustomerRepo_Update(t *testing.T) {
	ctx := context.Background()
	repo := NewCustomerRepo()
	require.NoError(t, repo.Set(ctx, &domain.CustomerRecord{UID: "u1", FeedbackScore: 2}))

	score := 77
	offer := domain.Offer{Name: "LOYALIST"}
	require.NoError(t, repo.Update(ctx, "u1", domain.CustomerUpdate{LoyaltyScore: &score, AIOffer: &offer}))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 77, got.LoyaltyScore)
	assert.Equal(t, 2.0, got.FeedbackScore)
	assert.Equal(t, "LOYALIST", got.AIOffer.Name)

	assert.ErrorIs(t, repo.Update(ctx, "ghost", domain.CustomerUpdate{}), loyalty.ErrNotFound)
}

func TestCustomerRepo_AppendPurchase(t *testing.T) {
	ctx := context.Background()
	repo := NewCustomerRepo()
	require.NoError(t, repo.Set(ctx, &domain.CustomerRecord{UID: "u1"}))

	p := domain.PurchaseRecord{ID: "p1", Amount: 25, Timestamp: "2024-01-01T00:00:00Z"}
	require.NoError(t, repo.AppendPurchase(ctx, "u1", p))
	require.NoError(t, repo.AppendPurchase(ctx, "u1", p))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Purchases)
	assert.Equal(t, 25.0, got.TotalSpent)
	assert.Equal(t, p.Timestamp, got.LastActivity)
	assert.Len(t, got.PurchaseHistory, 1)

	assert.ErrorIs(t, repo.AppendPurchase(ctx, "ghost", p), loyalty.ErrNotFound)
}

func TestCustomerRepo_List(t *testing.T) {
	ctx := context.Background()
	repo := NewCustomerRepo()
	for _, r := range []domain.CustomerRecord{
		{UID: "c", Category: domain.CategoryLoyal},
		{UID: "a", Category: domain.CategoryChurned},
		{UID: "b", Category: domain.CategoryLoyal},
	} {
		r := r
		require.NoError(t, repo.Set(ctx, &r))
	}

	all, err := repo.List(ctx, loyalty.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, uids(all))

	loyal, err := repo.List(ctx, loyalty.ListFilter{Category: domain.CategoryLoyal, Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, uids(loyal))

	none, err := repo.List(ctx, loyalty.ListFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func uids(rs []domain.CustomerRecord) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.UID)
	}
	return out
}
