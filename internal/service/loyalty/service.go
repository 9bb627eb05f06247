package loyalty

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/loyalty-crm/internal/domain"
	"github.com/ignite/loyalty-crm/internal/pkg/logger"
	"github.com/ignite/loyalty-crm/internal/scoring"
)

const (
	newCustomerEngagement = 0.5
	engagementStep        = 0.02
	feedbackWeightOld     = 0.7
	feedbackWeightNew     = 0.3
)

// Service implements loyalty business logic. It is safe for concurrent use.
type Service struct {
	repo   Repository
	offers OfferGenerator
	churn  ChurnEstimator
	cache  ResultCache

	now           func() time.Time
	sleep         func(ctx context.Context, d time.Duration) error
	retryDelays   []time.Duration
	newPurchaseID func() string
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables the loyalty result cache.
func WithCache(c ResultCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRetryDelays overrides the backoff schedule of CalculateLoyaltyWithRetry.
func WithRetryDelays(delays ...time.Duration) Option {
	return func(s *Service) { s.retryDelays = delays }
}

// NewService creates a loyalty service.
func NewService(repo Repository, offers OfferGenerator, churn ChurnEstimator, opts ...Option) *Service {
	s := &Service{
		repo:          repo,
		offers:        offers,
		churn:         churn,
		now:           time.Now,
		sleep:         sleepContext,
		retryDelays:   []time.Duration{time.Second, 2 * time.Second, 4 * time.Second},
		newPurchaseID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CalculateLoyalty scores the customer, generates an offer and writes
// {loyaltyScore, category, lastCalculated, aiOffer} back to the record.
// A failed write-back is logged; the computed result is still returned.
func (s *Service) CalculateLoyalty(ctx context.Context, uid string) (*domain.LoyaltyResult, error) {
	uid, err := cleanUID(uid)
	if err != nil {
		return nil, err
	}

	rec, err := s.repo.Get(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}

	now := s.now()
	profile, last := scoring.ProfileFromRecord(rec, now)
	scored := scoring.Compute(profile)
	profile.LoyaltyScore, profile.Category = scored.Score, scored.Category

	o, source := s.offers.GenerateWithSource(ctx, profile)
	logger.Info("loyalty calculated",
		"user_id", uid,
		"score", scored.Score,
		"category", string(scored.Category),
		"offer_source", source,
	)

	result := &domain.LoyaltyResult{
		UserID:             uid,
		LoyaltyScore:       scored.Score,
		Category:           scored.Category,
		LastPurchase:       last,
		PurchaseCount:      profile.PurchaseCount,
		TotalSpent:         profile.TotalSpent,
		DaysInactive:       int(math.Round(profile.DaysInactive)),
		RecommendedActions: scoring.RecommendedActions(scored.Category),
		AIOffer:            &o,
	}

	calculated := now.UTC().Format(time.RFC3339Nano)
	if err := s.repo.Update(ctx, uid, domain.CustomerUpdate{
		LoyaltyScore:   &result.LoyaltyScore,
		Category:       &result.Category,
		LastCalculated: &calculated,
		AIOffer:        &o,
	}); err != nil {
		logger.Error("failed to write loyalty result", "user_id", uid, "error", err)
	}

	if s.cache != nil {
		s.cache.Set(ctx, uid, result)
	}
	return result, nil
}

// CalculateLoyaltyWithRetry is CalculateLoyalty retried after 1s, 2s and 4s
// when the failure is a rate limit. Other errors return immediately.
func (s *Service) CalculateLoyaltyWithRetry(ctx context.Context, uid string) (*domain.LoyaltyResult, error) {
	for attempt := 0; ; attempt++ {
		result, err := s.CalculateLoyalty(ctx, uid)
		if err == nil || !IsRateLimited(err) || attempt >= len(s.retryDelays) {
			return result, err
		}

		delay := s.retryDelays[attempt]
		logger.Warn("rate limited, retrying loyalty calculation",
			"user_id", uid, "attempt", attempt+1, "delay", delay.String())
		if serr := s.sleep(ctx, delay); serr != nil {
			return nil, serr
		}
	}
}

// Loyalty returns the cached result for uid when there is one, otherwise it
// calculates a fresh one.
func (s *Service) Loyalty(ctx context.Context, uid string, refresh bool) (*domain.LoyaltyResult, error) {
	if s.cache != nil && !refresh {
		if r, ok := s.cache.Get(ctx, uid); ok {
			return r, nil
		}
	}
	return s.CalculateLoyaltyWithRetry(ctx, uid)
}

// Rewards returns the perks for the customer's current loyalty result.
func (s *Service) Rewards(ctx context.Context, uid string) ([]domain.Reward, error) {
	r, err := s.Loyalty(ctx, uid, false)
	if err != nil {
		return nil, err
	}
	return scoring.Rewards(*r), nil
}

// CalculateChurn estimates churn for a stored customer and persists the
// estimate as churnRisk.
func (s *Service) CalculateChurn(ctx context.Context, uid string) (*domain.ChurnRisk, error) {
	uid, err := cleanUID(uid)
	if err != nil {
		return nil, err
	}

	rec, err := s.repo.Get(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}

	risk := s.churn.Estimate(ctx, scoring.SignalsFromRecord(rec, s.now()))

	if err := s.repo.Update(ctx, uid, domain.CustomerUpdate{ChurnRisk: &risk}); err != nil {
		logger.Error("failed to write churn risk", "user_id", uid, "error", err)
	}
	return &risk, nil
}

// PurchaseInput is a purchase as reported by the storefront.
type PurchaseInput struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Category    string  `json:"category,omitempty"`
	Quantity    int     `json:"quantity"`
	Amount      float64 `json:"amount"`
}

// RecordPurchase adds a purchase to the customer's record, creating the
// record on the first purchase.
func (s *Service) RecordPurchase(ctx context.Context, uid string, in PurchaseInput) (*domain.PurchaseRecord, error) {
	uid, err := cleanUID(uid)
	if err != nil {
		return nil, err
	}
	if in.Amount < 0 || math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) {
		return nil, ErrInvalidPurchase
	}
	if in.Quantity <= 0 {
		in.Quantity = 1
	}

	ts := s.now().UTC().Format(time.RFC3339Nano)
	p := domain.PurchaseRecord{
		ID:          s.newPurchaseID(),
		ProductID:   in.ProductID,
		ProductName: in.ProductName,
		Category:    in.Category,
		Quantity:    in.Quantity,
		Amount:      in.Amount,
		Timestamp:   ts,
	}

	err = s.repo.AppendPurchase(ctx, uid, p)
	if errors.Is(err, ErrNotFound) {
		err = s.repo.Set(ctx, &domain.CustomerRecord{
			UID:             uid,
			Purchases:       1,
			TotalSpent:      in.Amount,
			LastActivity:    ts,
			FeedbackScore:   0,
			EngagementScore: newCustomerEngagement,
			PurchaseHistory: []domain.PurchaseRecord{p},
			CreatedAt:       ts,
		})
		if err == nil {
			logger.Info("customer created on first purchase", "user_id", uid)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("record purchase: %w", err)
	}

	s.invalidate(ctx, uid)
	return &p, nil
}

// PurchaseHistory returns the customer's purchases, oldest first. An unknown
// customer has an empty history.
func (s *Service) PurchaseHistory(ctx context.Context, uid string) ([]domain.PurchaseRecord, error) {
	uid, err := cleanUID(uid)
	if err != nil {
		return nil, err
	}

	rec, err := s.repo.Get(ctx, uid)
	if errors.Is(err, ErrNotFound) {
		return []domain.PurchaseRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	if rec.PurchaseHistory == nil {
		return []domain.PurchaseRecord{}, nil
	}
	return rec.PurchaseHistory, nil
}

// RecordFeedback stores a 1-5 rating and blends it into the engagement
// score: new = old*0.7 + score/5*0.3. It returns the new engagement score.
func (s *Service) RecordFeedback(ctx context.Context, uid string, score int, comments string) (float64, error) {
	if score < 1 || score > 5 {
		return 0, ErrInvalidFeedback
	}
	uid, err := cleanUID(uid)
	if err != nil {
		return 0, err
	}

	rec, err := s.repo.Get(ctx, uid)
	if err != nil {
		return 0, fmt.Errorf("get customer: %w", err)
	}

	old := rec.EngagementScore
	if old <= 0 {
		old = newCustomerEngagement
	}
	engagement := old*feedbackWeightOld + float64(score)/5*feedbackWeightNew

	feedback := float64(score)
	now := s.now().UTC().Format(time.RFC3339Nano)
	if err := s.repo.Update(ctx, uid, domain.CustomerUpdate{
		FeedbackScore:    &feedback,
		FeedbackComments: &comments,
		EngagementScore:  &engagement,
		LastActivity:     &now,
	}); err != nil {
		return 0, fmt.Errorf("record feedback: %w", err)
	}

	logger.Debug("feedback recorded", "user_id", uid, "score", score, "comments", comments)
	s.invalidate(ctx, uid)
	return engagement, nil
}

// TrackEngagement nudges the engagement score up by 0.02 (capped at 1) for
// an interaction such as a page view. action is only logged.
func (s *Service) TrackEngagement(ctx context.Context, uid, action string) (float64, error) {
	uid, err := cleanUID(uid)
	if err != nil {
		return 0, err
	}

	rec, err := s.repo.Get(ctx, uid)
	if err != nil {
		return 0, fmt.Errorf("get customer: %w", err)
	}

	old := rec.EngagementScore
	if old <= 0 {
		old = newCustomerEngagement
	}
	engagement := math.Min(old+engagementStep, 1)

	now := s.now().UTC().Format(time.RFC3339Nano)
	if err := s.repo.Update(ctx, uid, domain.CustomerUpdate{
		EngagementScore: &engagement,
		LastActivity:    &now,
	}); err != nil {
		return 0, fmt.Errorf("track engagement: %w", err)
	}

	logger.Debug("engagement tracked", "user_id", uid, "action", action)
	s.invalidate(ctx, uid)
	return engagement, nil
}

// ListCustomers returns stored records matching the filter.
func (s *Service) ListCustomers(ctx context.Context, filter ListFilter) ([]domain.CustomerRecord, error) {
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, fmt.Errorf("%w %q", ErrInvalidCategory, filter.Category)
	}
	return s.repo.List(ctx, filter)
}

// Stats counts customers by their last calculated category.
func (s *Service) Stats(ctx context.Context) (*domain.CategoryStats, error) {
	records, err := s.repo.List(ctx, ListFilter{})
	if err != nil {
		return nil, err
	}

	stats := &domain.CategoryStats{
		Total:      len(records),
		ByCategory: make(map[domain.Category]int, len(domain.Categories)),
	}
	for _, c := range domain.Categories {
		stats.ByCategory[c] = 0
	}
	for _, r := range records {
		if r.Category.Valid() {
			stats.ByCategory[r.Category]++
		} else {
			stats.Unscored++
		}
	}
	return stats, nil
}

// UserIDs returns every stored user id in order. Used by batch
// recalculation.
func (s *Service) UserIDs(ctx context.Context) ([]string, error) {
	records, err := s.repo.List(ctx, ListFilter{})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.UID)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Service) invalidate(ctx context.Context, uid string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, uid)
	}
}

func cleanUID(uid string) (string, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return "", ErrInvalidUserID
	}
	return uid, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
