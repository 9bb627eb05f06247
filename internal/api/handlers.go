package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/loyalty-crm/internal/domain"
	"github.com/ignite/loyalty-crm/internal/pkg/httputil"
	"github.com/ignite/loyalty-crm/internal/scoring"
	"github.com/ignite/loyalty-crm/internal/sentiment"
	"github.com/ignite/loyalty-crm/internal/service/loyalty"
)

// retryAfter is advertised on 429 responses.
const retryAfter = 4 * time.Second

// OfferGenerator produces an offer and reports where it came from.
type OfferGenerator interface {
	GenerateWithSource(ctx context.Context, p domain.CustomerProfile) (domain.Offer, string)
}

// ChurnEstimator estimates churn and reports where it came from.
type ChurnEstimator interface {
	EstimateWithSource(ctx context.Context, s domain.ChurnSignals) (domain.ChurnRisk, string)
}

type SentimentAnalyzer interface {
	Analyze(ctx context.Context, text string) (domain.SentimentAnalysis, error)
}

type LoyaltyPredictor interface {
	Predict(ctx context.Context, p domain.CustomerProfile) scoring.Prediction
}

// Handlers serves the customer and what-if analysis endpoints.
type Handlers struct {
	svc       *loyalty.Service
	offers    OfferGenerator
	churn     ChurnEstimator
	sentiment SentimentAnalyzer
	predictor LoyaltyPredictor
}

func NewHandlers(svc *loyalty.Service, offers OfferGenerator, churn ChurnEstimator, sa SentimentAnalyzer, predictor LoyaltyPredictor) *Handlers {
	return &Handlers{svc: svc, offers: offers, churn: churn, sentiment: sa, predictor: predictor}
}

// writeError maps service errors onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, loyalty.ErrNotFound):
		httputil.NotFound(w, "customer not found")
	case errors.Is(err, loyalty.ErrInvalidFeedback),
		errors.Is(err, loyalty.ErrInvalidPurchase),
		errors.Is(err, loyalty.ErrInvalidUserID),
		errors.Is(err, loyalty.ErrInvalidCategory),
		errors.Is(err, sentiment.ErrEmptyFeedback):
		httputil.BadRequest(w, err.Error())
	case loyalty.IsRateLimited(err):
		httputil.TooManyRequests(w, retryAfter)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		httputil.Error(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		httputil.InternalError(w, r, err)
	}
}

// ListCustomers handles GET /api/customers?category=&page=&limit=.
func (h *Handlers) ListCustomers(w http.ResponseWriter, r *http.Request) {
	q := parseCustomerQuery(r)

	customers, err := h.svc.ListCustomers(r.Context(), q.filter())
	if err != nil {
		writeError(w, r, err)
		return
	}
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.OK(w, newCustomerPage(customers, q, stats))
}

// Stats handles GET /api/customers/stats.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.OK(w, stats)
}

// GetLoyalty handles GET /api/customers/{userID}/loyalty[?refresh=true].
func (h *Handlers) GetLoyalty(w http.ResponseWriter, r *http.Request) {
	refresh := r.URL.Query().Get("refresh") == "true"
	res, err := h.svc.Loyalty(r.Context(), chi.URLParam(r, "userID"), refresh)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.OK(w, res)
}

func (h *Handlers) GetRewards(w http.ResponseWriter, r *http.Request) {
	rewards, err := h.svc.Rewards(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.OK(w, map[string]interface{}{"rewards": rewards})
}

func (h *Handlers) CalculateChurn(w http.ResponseWriter, r *http.Request) {
	risk, err := h.svc.CalculateChurn(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.OK(w, risk)
}

func (h *Handlers) GetPurchases(w http.ResponseWriter, r *http.Request) {
	history, err := h.svc.PurchaseHistory(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.OK(w, map[string]interface{}{"purchases": history})
}

func (h *Handlers) RecordPurchase(w http.ResponseWriter, r *http.Request) {
	var in loyalty.PurchaseInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	p, err := h.svc.RecordPurchase(r.Context(), chi.URLParam(r, "userID"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.Created(w, p)
}

type feedbackRequest struct {
	Score    int    `json:"score"`
	Comments string `json:"comments"`
}

func (h *Handlers) RecordFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	engagement, err := h.svc.RecordFeedback(r.Context(), chi.URLParam(r, "userID"), req.Score, req.Comments)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.OK(w, map[string]interface{}{"engagementScore": engagement})
}

type engagementRequest struct {
	Action string `json:"action"`
}

func (h *Handlers) TrackEngagement(w http.ResponseWriter, r *http.Request) {
	var req engagementRequest
	if r.ContentLength != 0 && !httputil.Decode(w, r, &req) {
		return
	}
	engagement, err := h.svc.TrackEngagement(r.Context(), chi.URLParam(r, "userID"), req.Action)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.OK(w, map[string]interface{}{"engagementScore": engagement})
}

// loyaltyAnalysis is the what-if scoring response.
type loyaltyAnalysis struct {
	LoyaltyScore       int                `json:"loyaltyScore"`
	Category           domain.Category    `json:"category"`
	RecommendedActions []string           `json:"recommendedActions"`
	Prediction         scoring.Prediction `json:"prediction"`
}

// AnalyzeLoyalty handles POST /api/analyze/loyalty with a hand-entered
// profile.
func (h *Handlers) AnalyzeLoyalty(w http.ResponseWriter, r *http.Request) {
	var p domain.CustomerProfile
	if !httputil.Decode(w, r, &p) {
		return
	}
	profile := scoring.ManualProfile(p)
	res := scoring.Compute(profile)
	httputil.OK(w, loyaltyAnalysis{
		LoyaltyScore:       res.Score,
		Category:           res.Category,
		RecommendedActions: scoring.RecommendedActions(res.Category),
		Prediction:         h.predictor.Predict(r.Context(), profile),
	})
}

func (h *Handlers) AnalyzeOffer(w http.ResponseWriter, r *http.Request) {
	var p domain.CustomerProfile
	if !httputil.Decode(w, r, &p) {
		return
	}
	o, source := h.offers.GenerateWithSource(r.Context(), scoring.ManualProfile(p))
	httputil.OK(w, map[string]interface{}{"offer": o, "source": source})
}

// AnalyzeChurn takes a profile and estimates churn from its signals.
func (h *Handlers) AnalyzeChurn(w http.ResponseWriter, r *http.Request) {
	var p domain.CustomerProfile
	if !httputil.Decode(w, r, &p) {
		return
	}
	signals := scoring.ManualSignals(p)
	risk, source := h.churn.EstimateWithSource(r.Context(), signals)
	httputil.OK(w, map[string]interface{}{"churnRisk": risk, "source": source})
}

type sentimentRequest struct {
	Text string `json:"text"`
}

func (h *Handlers) AnalyzeSentiment(w http.ResponseWriter, r *http.Request) {
	var req sentimentRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	res, err := h.sentiment.Analyze(r.Context(), req.Text)
	if err != nil {
		if errors.Is(err, sentiment.ErrEmptyFeedback) || loyalty.IsRateLimited(err) {
			writeError(w, r, err)
			return
		}
		httputil.Error(w, http.StatusBadGateway, "ai_unavailable", "sentiment analysis is unavailable")
		return
	}
	httputil.OK(w, res)
}
