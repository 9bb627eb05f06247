package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Offer(t *testing.T) {
	r := New()
	out, err := r.Render(Offer, map[string]interface{}{
		"loyalty_score":          72,
		"category":               "Loyal",
		"days_inactive":          3.0,
		"total_spent":            1234.5,
		"avg_order_value":        123.45,
		"purchase_frequency":     1.5,
		"purchase_count":         10,
		"segment":                "Active Loyal",
		"preferred_categories":   []string{},
		"insights":               "Standard customer profile",
		"suggested_discount":     "15-20%",
		"timing_strategy":        "Standard timeframe (7 days)",
		"recommended_categories": []string{"bestsellers", "new arrivals"},
	})
	require.NoError(t, err)

	assert.Contains(t, out, "Loyalty Score: 72/100")
	assert.Contains(t, out, "Days Since Last Purchase: 3\n")
	assert.Contains(t, out, "Total Lifetime Spend: $1234.50")
	assert.Contains(t, out, "Preferred Categories: None identified")
	assert.Contains(t, out, "Recommended product categories: bestsellers, new arrivals")
	assert.Contains(t, out, `"targetedCategory"`)
}

func TestRender_ChurnSpecialContext(t *testing.T) {
	r := New()
	base := map[string]interface{}{
		"days_inactive":      120.0,
		"purchase_count":     0,
		"engagement_score":   0.1,
		"avg_order_value":    0.0,
		"purchase_frequency": 0.0,
	}

	base["special_context"] = []string{"Customer has made no purchases yet", "Customer inactive for 120 days"}
	out, err := r.Render(Churn, base)
	require.NoError(t, err)
	assert.Contains(t, out, "- Special context: Customer has made no purchases yet, Customer inactive for 120 days")

	base["special_context"] = []string{}
	out, err = r.Render(Churn, base)
	require.NoError(t, err)
	assert.NotContains(t, out, "Special context")
}

func TestRender_Cached(t *testing.T) {
	r := New()
	b := map[string]interface{}{"feedback": "great shoes"}

	first, err := r.Render(Sentiment, b)
	require.NoError(t, err)
	second, err := r.Render(Sentiment, b)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Contains(t, first, `Customer feedback: "great shoes"`)
}

func TestRender_Unknown(t *testing.T) {
	_, err := New().Render("nope", nil)
	assert.Error(t, err)
}

func TestWithTemplate(t *testing.T) {
	r := New().WithTemplate(Loyalty, "score for {{ purchase_count }} purchases")
	out, err := r.Render(Loyalty, map[string]interface{}{"purchase_count": 4})
	require.NoError(t, err)
	assert.Equal(t, "score for 4 purchases", out)
}

func TestFilters(t *testing.T) {
	r := New().WithTemplate("t", "{{ a | fixed: 1 }}|{{ b | num }}|{{ c | join_or: \"none\" }}")
	out, err := r.Render("t", map[string]interface{}{"a": 2.345, "b": 12.5, "c": nil})
	require.NoError(t, err)
	assert.Equal(t, "2.3|12.5|none", out)
}

func TestDefault(t *testing.T) {
	assert.Same(t, Default(), Default())
}
