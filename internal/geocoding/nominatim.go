package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jengzang/location-bridge-go/internal/location"
	"github.com/jengzang/location-bridge-go/internal/models"
	"github.com/jengzang/location-bridge-go/internal/spatial"
)

// DefaultBaseURL is the public OSM Nominatim endpoint
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// Reverse results are shared by fixes within about 5 m of each other
var reverseKeyPrecision = spatial.GeohashPrecisionForDistance(5)

// Config configures a NominatimGeocoder
type Config struct {
	BaseURL        string
	UserAgent      string        // Nominatim rejects requests without one
	RequestsPerSec float64       // Request rate limit (requests/second)
	Timeout        time.Duration // Request timeout duration
	MaxResults     int
	CacheTTL       time.Duration
}

var _ location.GeocodingProvider = (*NominatimGeocoder)(nil)

// NominatimGeocoder implements location.GeocodingProvider on OSM Nominatim
type NominatimGeocoder struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *Cache
	config     Config
}

// NewNominatimGeocoder creates a new geocoder
func NewNominatimGeocoder(config Config) *NominatimGeocoder {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.UserAgent == "" {
		config.UserAgent = "location-bridge-go"
	}
	if config.RequestsPerSec <= 0 {
		config.RequestsPerSec = 1
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.MaxResults <= 0 {
		config.MaxResults = 5
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = 24 * time.Hour
	}

	return &NominatimGeocoder{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(config.RequestsPerSec), 1),
		cache:      NewCache(config.CacheTTL),
		config:     config,
	}
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

type reverseResult struct {
	Error       string `json:"error"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Address     struct {
		HouseNumber string `json:"house_number"`
		Road        string `json:"road"`
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		State       string `json:"state"`
		Country     string `json:"country"`
		CountryCode string `json:"country_code"`
		Postcode    string `json:"postcode"`
	} `json:"address"`
}

// Forward converts an address into candidate coordinates. No match is an empty result.
func (n *NominatimGeocoder) Forward(ctx context.Context, address string) ([]models.Location, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return []models.Location{}, nil
	}

	cacheKey := "forward_" + strings.ToLower(address)
	if val, found := n.cache.Get(cacheKey); found {
		return val.([]models.Location), nil
	}

	params := url.Values{
		"q":      {address},
		"format": {"json"},
		"limit":  {strconv.Itoa(n.config.MaxResults)},
	}
	var results []searchResult
	if err := n.get(ctx, "/search", params, &results); err != nil {
		return nil, err
	}

	locations := make([]models.Location, 0, len(results))
	for _, r := range results {
		lat, err := strconv.ParseFloat(r.Lat, 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(r.Lon, 64)
		if err != nil {
			continue
		}
		locations = append(locations, models.Location{Coords: models.Coords{Latitude: lat, Longitude: lon}})
	}

	n.cache.Set(cacheKey, locations)
	return locations, nil
}

// Reverse converts coordinates into candidate addresses
func (n *NominatimGeocoder) Reverse(ctx context.Context, loc models.Location) ([]models.Address, error) {
	lat, lon := loc.Coords.Latitude, loc.Coords.Longitude
	cacheKey := "reverse_" + spatial.EncodeGeohash(lat, lon, reverseKeyPrecision)
	if val, found := n.cache.Get(cacheKey); found {
		return val.([]models.Address), nil
	}

	params := url.Values{
		"lat":            {strconv.FormatFloat(lat, 'f', 6, 64)},
		"lon":            {strconv.FormatFloat(lon, 'f', 6, 64)},
		"format":         {"json"},
		"addressdetails": {"1"},
	}
	var data reverseResult
	if err := n.get(ctx, "/reverse", params, &data); err != nil {
		return nil, err
	}

	addresses := []models.Address{}
	if data.Error == "" {
		a := data.Address
		city := firstNonEmpty(a.City, a.Town, a.Village)
		street := strings.TrimSpace(a.Road + " " + a.HouseNumber)
		addresses = append(addresses, models.Address{
			City:           city,
			Street:         street,
			Region:         a.State,
			Country:        a.Country,
			PostalCode:     a.Postcode,
			Name:           firstNonEmpty(data.Name, street, city),
			IsoCountryCode: strings.ToUpper(a.CountryCode),
		})
	}

	n.cache.Set(cacheKey, addresses)
	return addresses, nil
}

// get performs one rate-limited request and decodes the JSON body into out
func (n *NominatimGeocoder) get(ctx context.Context, path string, params url.Values, out any) error {
	ctx, cancel := context.WithTimeout(ctx, n.config.Timeout)
	defer cancel()

	if err := n.limiter.Wait(ctx); err != nil {
		return unavailable("geocoder rate limit wait failed", err)
	}

	endpoint := fmt.Sprintf("%s%s?%s", n.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build geocoding request: %w", err)
	}
	req.Header.Set("User-Agent", n.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return unavailable("geocoding request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return unavailable("geocoding request failed", fmt.Errorf("HTTP error: %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return unavailable("failed to decode geocoding response", err)
	}
	return nil
}

func unavailable(msg string, err error) error {
	return location.NewError(location.KindGeocoderUnavailable, msg, err)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
