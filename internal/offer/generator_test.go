package offer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ignite/loyalty-crm/internal/aigateway"
	"github.com/ignite/loyalty-crm/internal/domain"
)

func clock() time.Time { return fixedNow }

var loyalBigSpender = domain.CustomerProfile{
	PurchaseCount:   12,
	TotalSpent:      1200,
	EngagementScore: 0.9,
	FeedbackScore:   5,
	LoyaltyScore:    100,
	Category:        domain.CategoryLoyal,
}

func TestGenerate_AIResponse(t *testing.T) {
	gen := aigateway.NewStatic("Sure! ```json\n" + `{"name":"GOLDEN","discount":"18%","description":"18% off electronics.","expiration":"Valid for 5 days","targetedCategory":"electronics","expectedConversionRate":"35%"}` + "\n```")
	g := NewGenerator(gen, WithClock(clock))

	o, source := g.GenerateWithSource(context.Background(), loyalBigSpender)
	assert.Equal(t, SourceAI, source)
	assert.Equal(t, domain.Offer{
		Name:                   "GOLDEN",
		Discount:               "18%",
		Description:            "18% off electronics.",
		Expiration:             "Valid for 5 days",
		TargetedCategory:       "electronics",
		ExpectedConversionRate: "35%",
	}, o)

	p := gen.LastPrompt()
	assert.Contains(t, p, "Loyalty Category: Loyal")
	assert.Contains(t, p, "Behavioral Segment: High-Value Regular")
	assert.Contains(t, p, "Suggested discount range: 15-20%")
}

func TestGenerate_GatewayFailureUsesBasic(t *testing.T) {
	g := NewGenerator(aigateway.NewFailing(errors.New("unavailable")), WithClock(clock))
	o, source := g.GenerateWithSource(context.Background(), loyalBigSpender)
	assert.Equal(t, SourceEmergency, source)
	assert.Equal(t, BasicFallback(loyalBigSpender, fixedNow), o)
	assert.Equal(t, "LOYALVIP", o.Name)
}

func TestGenerate_ParseFailure(t *testing.T) {
	tests := []struct {
		strategy Strategy
		wantName string
	}{
		{StrategyRich, "VIPSTATUS"},
		{StrategyBasic, "LOYALVIP"},
		{StrategySalvage, "SUMMER"},
	}
	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			g := NewGenerator(aigateway.NewStatic("SUMMER deal: 22% off everything"), WithClock(clock), WithParseFallback(tt.strategy))
			o, source := g.GenerateWithSource(context.Background(), loyalBigSpender)
			assert.Equal(t, SourceFallback, source)
			assert.Equal(t, tt.wantName, o.Name)
		})
	}
}

func TestGenerate_NilGateway(t *testing.T) {
	o := NewGenerator(nil, WithClock(clock)).Generate(context.Background(), loyalBigSpender)
	assert.Equal(t, BasicFallback(loyalBigSpender, fixedNow), o)
}

func TestGenerate_ScoresUnscoredProfile(t *testing.T) {
	g := NewGenerator(nil, WithClock(clock))
	o := g.Generate(context.Background(), domain.CustomerProfile{EngagementScore: 0.1, DaysInactive: 200})
	assert.Equal(t, "WELCOME", o.Name)
}

func TestParseStrategy(t *testing.T) {
	assert.Equal(t, StrategyBasic, ParseStrategy("basic"))
	assert.Equal(t, StrategySalvage, ParseStrategy("salvage"))
	assert.Equal(t, StrategyRich, ParseStrategy("rich"))
	assert.Equal(t, StrategyRich, ParseStrategy(""))
}

func TestSalvage(t *testing.T) {
	text := "COMEBACK special\nname: something\nA warm welcome back with savings on shoes\nvalid for 5 days, 35% off"
	p := domain.CustomerProfile{Category: domain.CategoryAtRisk}
	o := Salvage(text, p, fixedNow)
	assert.Equal(t, "COMEBACK", o.Name)
	assert.Equal(t, "35%", o.Discount)
	assert.Equal(t, "A warm welcome back with savings on shoes", o.Description)
	assert.Equal(t, "Valid for 5 days", o.Expiration)
	assert.Equal(t, "bestsellers", o.TargetedCategory)
}
