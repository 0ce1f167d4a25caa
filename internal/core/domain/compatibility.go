package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Factor names one of the dimensions a compatibility analysis is made of.
type Factor string

const (
	FactorLocation      Factor = "location"
	FactorDate          Factor = "date"
	FactorValue         Factor = "value"
	FactorAccommodation Factor = "accommodation"
	FactorGuests        Factor = "guests"
)

// Factors lists every factor in the order used for reporting.
var Factors = []Factor{
	FactorLocation, FactorDate, FactorValue, FactorAccommodation, FactorGuests,
}

// FactorWeights must sum to 1.
var FactorWeights = map[Factor]float64{
	FactorLocation:      0.25,
	FactorDate:          0.30,
	FactorValue:         0.20,
	FactorAccommodation: 0.15,
	FactorGuests:        0.10,
}

// FactorStatus is the qualitative rating of a factor score.
type FactorStatus string

const (
	FactorStatusExcellent FactorStatus = "excellent"
	FactorStatusGood      FactorStatus = "good"
	FactorStatusFair      FactorStatus = "fair"
	FactorStatusPoor      FactorStatus = "poor"
)

// Score to status thresholds, inclusive.
const (
	ExcellentThreshold = 85
	GoodThreshold      = 65
	FairThreshold      = 40
)

// StatusForScore ...
func StatusForScore(score int) FactorStatus {
	switch {
	case score >= ExcellentThreshold:
		return FactorStatusExcellent
	case score >= GoodThreshold:
		return FactorStatusGood
	case score >= FairThreshold:
		return FactorStatusFair
	default:
		return FactorStatusPoor
	}
}

func (s FactorStatus) belowGood() bool {
	return s == FactorStatusFair || s == FactorStatusPoor
}

// RecommendationTier ...
type RecommendationTier string

const (
	TierHighlyRecommended RecommendationTier = "highly_recommended"
	TierRecommended       RecommendationTier = "recommended"
	TierPossible          RecommendationTier = "possible"
	TierNotRecommended    RecommendationTier = "not_recommended"
)

// TierForScore maps an overall score to its recommendation tier.
func TierForScore(score int) RecommendationTier {
	switch {
	case score >= 90:
		return TierHighlyRecommended
	case score >= 70:
		return TierRecommended
	case score >= 40:
		return TierPossible
	default:
		return TierNotRecommended
	}
}

// Location ...
type Location struct {
	City      string
	Country   string
	Latitude  float64
	Longitude float64
}

func (l Location) hasCoordinates() bool {
	return l.Latitude != 0 || l.Longitude != 0
}

// ListingProfile is the comparable projection of the booking a swap offers.
type ListingProfile struct {
	Location          Location
	CheckIn           time.Time
	CheckOut          time.Time
	Value             decimal.Decimal
	AccommodationType string
	Rating            float64
	Guests            int
}

func (l ListingProfile) validate() error {
	if l.CheckIn.IsZero() || l.CheckOut.IsZero() || !l.CheckOut.After(l.CheckIn) {
		return fmt.Errorf("%w: missing or inverted stay dates", ErrInvalidListing)
	}
	if l.Location.Country == "" && !l.Location.hasCoordinates() {
		return fmt.Errorf("%w: missing location", ErrInvalidListing)
	}
	if !l.Value.IsPositive() {
		return fmt.Errorf("%w: value must be positive", ErrInvalidListing)
	}
	return nil
}

// CompatibilityFactor ...
type CompatibilityFactor struct {
	Score   int
	Weight  float64
	Status  FactorStatus
	Details string
}

// CompatibilityResult ...
type CompatibilityResult struct {
	OverallScore    int
	Factors         map[Factor]CompatibilityFactor
	Recommendations []string
	PotentialIssues []string
	Tier            RecommendationTier
}

// CompatibilityScorer computes how well two listings fit each other.
type CompatibilityScorer struct{}

// Score is deterministic and returns ErrInvalidListing if either profile
// lacks comparable data.
func (CompatibilityScorer) Score(
	source, target ListingProfile,
) (*CompatibilityResult, error) {
	if err := source.validate(); err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	if err := target.validate(); err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}

	scores := map[Factor]factorScore{
		FactorLocation:      scoreLocation(source.Location, target.Location),
		FactorDate:          scoreDates(source, target),
		FactorValue:         scoreValue(source.Value, target.Value),
		FactorAccommodation: scoreAccommodation(source, target),
		FactorGuests:        scoreGuests(source.Guests, target.Guests),
	}

	result := &CompatibilityResult{
		Factors:         make(map[Factor]CompatibilityFactor, len(Factors)),
		Recommendations: make([]string, 0),
		PotentialIssues: make([]string, 0),
	}
	total := 0.0
	for _, f := range Factors {
		s := scores[f]
		factor := CompatibilityFactor{
			Score:   s.score,
			Weight:  FactorWeights[f],
			Status:  StatusForScore(s.score),
			Details: s.details,
		}
		result.Factors[f] = factor
		total += float64(factor.Score) * factor.Weight

		if factor.Status.belowGood() {
			key := factorKey{f, factor.Status}
			result.Recommendations = append(result.Recommendations, recommendationTemplates[key])
			result.PotentialIssues = append(result.PotentialIssues, issueTemplates[key])
		}
	}
	if len(result.Recommendations) == 0 {
		result.Recommendations = append(result.Recommendations, strongMatchRecommendation)
	}

	result.OverallScore = int(math.Round(total))
	result.Tier = TierForScore(result.OverallScore)
	return result, nil
}

type factorScore struct {
	score   int
	details string
}

func scoreLocation(a, b Location) factorScore {
	sameCountry := a.Country != "" && strings.EqualFold(a.Country, b.Country)
	if sameCountry && a.City != "" && strings.EqualFold(a.City, b.City) {
		return factorScore{100, "same city"}
	}

	if a.hasCoordinates() && b.hasCoordinates() {
		km := haversineKm(a, b)
		score := distanceScore(km)
		if sameCountry && score < FairThreshold {
			score = FairThreshold
		}
		return factorScore{score, fmt.Sprintf("%.0f km apart", km)}
	}

	if sameCountry {
		return factorScore{70, "same country"}
	}
	return factorScore{15, "different countries"}
}

func distanceScore(km float64) int {
	switch {
	case km < 50:
		return 90
	case km < 200:
		return 75
	case km < 500:
		return 55
	case km < 1500:
		return 35
	default:
		return 15
	}
}

const earthRadiusKm = 6371.0

func haversineKm(a, b Location) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(b.Latitude - a.Latitude)
	dLon := toRad(b.Longitude - a.Longitude)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Latitude))*math.Cos(toRad(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

const day = 24 * time.Hour

func scoreDates(a, b ListingProfile) factorScore {
	lenA := a.CheckOut.Sub(a.CheckIn)
	lenB := b.CheckOut.Sub(b.CheckIn)
	shorter := lenA
	if lenB < shorter {
		shorter = lenB
	}

	start := maxTime(a.CheckIn, b.CheckIn)
	end := minTime(a.CheckOut, b.CheckOut)

	var score int
	var details string
	if overlap := end.Sub(start); overlap > 0 {
		ratio := float64(overlap) / float64(shorter)
		score = 40 + int(math.Round(60*ratio))
		details = fmt.Sprintf("%.0f%% of the shorter stay overlaps", ratio*100)
	} else {
		gapDays := int(math.Ceil(float64(-overlap) / float64(day)))
		switch {
		case gapDays <= 7:
			score = 35
		case gapDays <= 30:
			score = 20
		default:
			score = 5
		}
		details = fmt.Sprintf("stays are %d days apart", gapDays)
	}

	if lenA == lenB {
		score += 5
		details += ", same length"
	}
	if score > 100 {
		score = 100
	}
	return factorScore{score, details}
}

func scoreValue(a, b decimal.Decimal) factorScore {
	lo, hi := decimal.Min(a, b), decimal.Max(a, b)
	ratio := lo.Div(hi)
	score := int(ratio.Mul(decimal.NewFromInt(100)).Round(0).IntPart())
	return factorScore{score, fmt.Sprintf("values %s and %s", a.String(), b.String())}
}

func scoreAccommodation(a, b ListingProfile) factorScore {
	score := 30
	details := fmt.Sprintf("%s vs %s", a.AccommodationType, b.AccommodationType)
	if a.AccommodationType != "" &&
		strings.EqualFold(a.AccommodationType, b.AccommodationType) {
		score = 60
		details = "same accommodation type"
	}

	bonus := 40 - int(math.Round(10*math.Abs(a.Rating-b.Rating)))
	if bonus < 0 {
		bonus = 0
	}
	score += bonus
	return factorScore{score, fmt.Sprintf("%s, ratings %.1f and %.1f", details, a.Rating, b.Rating)}
}

func scoreGuests(a, b int) factorScore {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	score := 100 - 20*diff
	if score < 0 {
		score = 0
	}
	return factorScore{score, fmt.Sprintf("%d vs %d guests", a, b)}
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
