package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/calio/food-agent/internal/domain"
	"github.com/calio/food-agent/internal/observability"
)

const (
	nearbyEndpoint = "https://maps.googleapis.com/maps/api/place/nearbysearch/json"
	textEndpoint   = "https://maps.googleapis.com/maps/api/place/textsearch/json"
	photoEndpoint  = "https://maps.googleapis.com/maps/api/place/photo"

	searchRadiusMeters = 5000
)

// GoogleDirectory implements domain.RestaurantDirectory on top of the
// Google Places web API.
type GoogleDirectory struct {
	apiKey     string
	httpClient *http.Client
}

func NewGoogleDirectory(apiKey string) (*GoogleDirectory, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("places API key must be set")
	}
	return &GoogleDirectory{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

type placesResponse struct {
	Status  string        `json:"status"`
	Results []placeResult `json:"results"`
}

type placeResult struct {
	Name   string   `json:"name"`
	Rating *float64 `json:"rating"`
	Photos []struct {
		PhotoReference string `json:"photo_reference"`
	} `json:"photos"`
}

// SearchByCuisine runs a radius-bounded keyword search, falling back to
// a text search when the keyword search comes back empty. Places has no
// first-class cuisine filter; keyword matching is the accepted idiom.
func (g *GoogleDirectory) SearchByCuisine(
	ctx context.Context,
	loc domain.Location,
	cuisine string,
) ([]domain.Candidate, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", loc.Lat, loc.Lon))
	params.Set("radius", fmt.Sprintf("%d", searchRadiusMeters))
	params.Set("type", "restaurant")
	params.Set("keyword", cuisine)

	results, err := g.query(ctx, nearbyEndpoint, params)
	if err != nil {
		return nil, err
	}
	if len(results) > 0 {
		return g.toCandidates(results), nil
	}

	observability.LoggerFromContext(ctx).Info("keyword search empty, trying text search", "cuisine", cuisine)

	textParams := url.Values{}
	textParams.Set("query", cuisine+" restaurant")
	textParams.Set("location", fmt.Sprintf("%f,%f", loc.Lat, loc.Lon))
	textParams.Set("radius", fmt.Sprintf("%d", searchRadiusMeters))

	results, err = g.query(ctx, textEndpoint, textParams)
	if err != nil {
		return nil, err
	}
	return g.toCandidates(results), nil
}

// SearchNearby is distance-ranked with no cuisine filter.
func (g *GoogleDirectory) SearchNearby(
	ctx context.Context,
	loc domain.Location,
	limit int,
) ([]domain.Candidate, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", loc.Lat, loc.Lon))
	params.Set("rankby", "distance")
	params.Set("type", "restaurant")

	results, err := g.query(ctx, nearbyEndpoint, params)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return g.toCandidates(results), nil
}

func (g *GoogleDirectory) query(ctx context.Context, endpoint string, params url.Values) ([]placeResult, error) {
	params.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building places request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling places API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("places API returned status %d", resp.StatusCode)
	}

	var parsed placesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding places response: %w", err)
	}

	switch parsed.Status {
	case "OK", "ZERO_RESULTS":
		return parsed.Results, nil
	default:
		return nil, fmt.Errorf("places API status %s", parsed.Status)
	}
}

func (g *GoogleDirectory) toCandidates(results []placeResult) []domain.Candidate {
	candidates := make([]domain.Candidate, 0, len(results))
	for i, r := range results {
		c := domain.Candidate{
			Name: r.Name,
			// Places does not expose delivery times; synthesize a
			// stable estimate so cards always render one.
			ETA: 15 + (i%4)*5,
		}
		if r.Rating != nil {
			c.Rating = r.Rating
		}
		if len(r.Photos) > 0 {
			c.ImageURL = fmt.Sprintf(
				"%s?maxwidth=400&photo_reference=%s&key=%s",
				photoEndpoint, r.Photos[0].PhotoReference, g.apiKey,
			)
		}
		candidates = append(candidates, c)
	}
	return candidates
}
