package booking

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tdex-network/bookswap/internal/core/domain"
	"github.com/tdex-network/bookswap/internal/core/ports"
	"github.com/tdex-network/bookswap/pkg/httputil"
)

type location struct {
	City      string  `json:"city"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type listing struct {
	Location          location        `json:"location"`
	CheckIn           time.Time       `json:"check_in"`
	CheckOut          time.Time       `json:"check_out"`
	Value             decimal.Decimal `json:"value"`
	AccommodationType string          `json:"accommodation_type"`
	Rating            float64         `json:"rating"`
	Guests            int             `json:"guests"`
}

type bookingResponse struct {
	ID      string  `json:"id"`
	OwnerID string  `json:"owner_id"`
	Listing listing `json:"listing"`
}

type service struct {
	client *httputil.Client
}

// NewService returns a BookingService talking to the booking service
// exposed at baseURL.
func NewService(
	baseURL string, timeout time.Duration, rps int, apiKey string,
) (ports.BookingService, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid booking service url: %w", err)
	}
	var header map[string]string
	if apiKey != "" {
		header = map[string]string{"X-Api-Key": apiKey}
	}
	return &service{
		httputil.NewClient("booking", baseURL, timeout, rps, header),
	}, nil
}

func (s *service) GetBooking(
	ctx context.Context, bookingID string,
) (*ports.Booking, error) {
	var resp bookingResponse
	path := fmt.Sprintf("/v1/bookings/%s", url.PathEscape(bookingID))
	if err := s.client.Do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return nil, ports.ErrBookingNotFound
		}
		return nil, err
	}

	l := resp.Listing
	return &ports.Booking{
		ID:      resp.ID,
		OwnerID: resp.OwnerID,
		Listing: domain.ListingProfile{
			Location: domain.Location{
				City:      l.Location.City,
				Country:   l.Location.Country,
				Latitude:  l.Location.Latitude,
				Longitude: l.Location.Longitude,
			},
			CheckIn:           l.CheckIn,
			CheckOut:          l.CheckOut,
			Value:             l.Value,
			AccommodationType: l.AccommodationType,
			Rating:            l.Rating,
			Guests:            l.Guests,
		},
	}, nil
}
