// Massive-backed Provider implementation. Retrieves option contracts,
// chain snapshots, expiries, and option prices via the Massive HTTP APIs
// (Polygon-compatible endpoints), with pagination and rate-limit retries.
package data

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/contactkeval/option-analytics/internal/logger"
)

// massiveDataProvider implements the Provider interface using Massive APIs.
type massiveDataProvider struct {
	// APIKey used for authenticating requests with Massive.
	APIKey string

	// Client is the HTTP client used to make API requests.
	Client *http.Client

	// BaseURL is the root endpoint for Massive APIs
	// (e.g., https://api.massive.com).
	BaseURL string

	// secondary is an optional fallback provider.
	secondary Provider
}

// massiveContract represents a single option contract returned by
// Massive's contracts reference endpoint.
type massiveContract struct {
	ContractType      string  `json:"contract_type"`
	ExerciseStyle     string  `json:"exercise_style"`
	ExpiryDate        string  `json:"expiration_date"`
	SharesPerContract int     `json:"shares_per_contract"`
	StrikePrice       float64 `json:"strike_price"`
	Ticker            string  `json:"ticker"`
	UnderlyingTicker  string  `json:"underlying_ticker"`
}

// massiveContractsResp models the paginated contracts response.
type massiveContractsResp struct {
	Results   []massiveContract `json:"results"`
	Status    string            `json:"status"`
	RequestID string            `json:"request_id"`
	NextURL   string            `json:"next_url"`
}

// massiveSnapshotResp models the paginated chain snapshot response.
type massiveSnapshotResp struct {
	Results []struct {
		Details struct {
			ContractType string  `json:"contract_type"`
			ExpiryDate   string  `json:"expiration_date"`
			StrikePrice  float64 `json:"strike_price"`
		} `json:"details"`
		LastQuote struct {
			Bid float64 `json:"bid"`
			Ask float64 `json:"ask"`
		} `json:"last_quote"`
		LastTrade struct {
			Price float64 `json:"price"`
		} `json:"last_trade"`
	} `json:"results"`
	Status  string `json:"status"`
	NextURL string `json:"next_url"`
}

// bar is a single OHLC aggregate used for option price lookups.
type bar struct {
	Date  time.Time
	Open  float64
	Close float64
}

// NewMassiveDataProvider constructs a Massive-backed data provider.
// Requests that fail are delegated to secondary when one is given.
//
// It initializes an HTTP client with sensible defaults for timeouts,
// connection pooling, HTTP/2, and gzip decompression.
func NewMassiveDataProvider(apiKey string, secondary Provider) Provider {
	logger.Infof("initializing Massive data provider")

	return &massiveDataProvider{
		APIKey:    apiKey,
		secondary: secondary,
		Client: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
				DisableCompression:    false, // must be false to enable gzip auto-decompression
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		BaseURL: "https://api.massive.com",
	}
}

// Secondary returns the configured secondary Provider, if any.
func (massiveDataProv *massiveDataProvider) Secondary() Provider {
	return massiveDataProv.secondary
}

// GetOptionChain retrieves a full chain snapshot for one expiry.
//
// Parameters:
//   - underlying: underlying ticker symbol
//   - expiryDate: option expiration date to snapshot
//   - asOfDate: informational; the snapshot endpoint is always current
//
// Returns:
//   - []ChainQuote: one quote per listed contract, sorted by strike
//   - error: if the request or decoding fails
func (massiveDataProv *massiveDataProvider) GetOptionChain(
	underlying string,
	expiryDate, asOfDate time.Time,
) ([]ChainQuote, error) {

	logger.Debugf(
		"chain snapshot request: %s expiry=%s",
		underlying,
		expiryDate.Format("2006-01-02"),
	)

	u, err := url.Parse(fmt.Sprintf(
		"%s/v3/snapshot/options/%s",
		massiveDataProv.BaseURL,
		underlying,
	))
	if err != nil {
		return nil, err
	}

	query := u.Query()
	query.Set("expiration_date", expiryDate.Format("2006-01-02"))
	query.Set("limit", "250")
	query.Set("apiKey", massiveDataProv.APIKey)
	u.RawQuery = query.Encode()

	var out []ChainQuote

	// Handle pagination
	for reqURL := u.String(); reqURL != ""; {
		body, err := massiveDataProv.getJSON(reqURL)
		if err != nil {
			// Delegate to secondary provider if present
			if massiveDataProv.secondary != nil {
				logger.Tracef("chain snapshot failed, delegating to secondary provider: %v", err)
				return massiveDataProv.secondary.GetOptionChain(underlying, expiryDate, asOfDate)
			}
			return nil, fmt.Errorf("chain snapshot: %w", err)
		}

		var snap massiveSnapshotResp
		if err := json.Unmarshal(body, &snap); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}

		logger.Tracef("received %d chain entries", len(snap.Results))

		for _, r := range snap.Results {
			exp, err := time.Parse("2006-01-02", r.Details.ExpiryDate)
			if err != nil {
				continue // skip malformed expiry dates
			}
			out = append(out, ChainQuote{
				Strike: r.Details.StrikePrice,
				Expiry: exp,
				Type:   r.Details.ContractType,
				Bid:    r.LastQuote.Bid,
				Ask:    r.LastQuote.Ask,
				Last:   r.LastTrade.Price,
			})
		}

		reqURL = snap.NextURL
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Strike < out[j].Strike })
	return out, nil
}

// GetOptionPrice retrieves the premium of a single contract around a trade
// time. It first looks at minute bars in the 5 minutes before the trade
// time and uses the last close; if that window is empty it looks forward 5
// minutes and uses the first open. When no price can be found the request
// is delegated to the secondary provider, if one is configured.
func (massiveDataProv *massiveDataProvider) GetOptionPrice(
	underlying string,
	strike float64,
	expiryDate time.Time,
	optType string,
	asOfDate time.Time,
) (float64, error) {

	price, err := massiveDataProv.optionPriceFromBars(underlying, strike, expiryDate, optType, asOfDate)
	if err != nil && massiveDataProv.secondary != nil {
		logger.Tracef("option price lookup failed, delegating to secondary provider: %v", err)
		return massiveDataProv.secondary.GetOptionPrice(underlying, strike, expiryDate, optType, asOfDate)
	}
	return price, err
}

// optionPriceFromBars is the live lookup behind GetOptionPrice.
func (massiveDataProv *massiveDataProvider) optionPriceFromBars(
	underlying string,
	strike float64,
	expiryDate time.Time,
	optType string,
	asOfDate time.Time,
) (float64, error) {

	symbol := OptionSymbolFromParts(underlying, expiryDate, optType, strike)

	logger.Debugf(
		"option price lookup: %s at %s",
		symbol,
		asOfDate.Format(time.RFC3339),
	)

	bars, err := massiveDataProv.getBars(symbol, asOfDate.Add(-5*time.Minute), asOfDate, "minute")
	if err != nil {
		return 0, fmt.Errorf("fetch option bars: %w", err)
	}
	if len(bars) != 0 {
		return bars[len(bars)-1].Close, nil
	}

	logger.Tracef("no bars before trade time, trying forward window")

	bars, err = massiveDataProv.getBars(symbol, asOfDate, asOfDate.Add(5*time.Minute), "minute")
	if err != nil {
		return 0, fmt.Errorf("fetch option bars: %w", err)
	}
	if len(bars) == 0 {
		return 0, fmt.Errorf(
			"no option bars found for %s on %s",
			symbol,
			asOfDate.Format("2006-01-02 15:04"),
		)
	}
	return bars[0].Open, nil
}

// GetRelevantExpiries returns the sorted unique expiration dates listed
// for the underlying within the date range.
func (massiveDataProv *massiveDataProvider) GetRelevantExpiries(
	underlying string,
	fromDate, toDate time.Time,
) ([]time.Time, error) {

	logger.Infof(
		"resolving expiries for %s [%s → %s]",
		underlying,
		fromDate.Format("2006-01-02"),
		toDate.Format("2006-01-02"),
	)

	contracts, err := massiveDataProv.getContracts(underlying, 0, time.Time{}, fromDate, toDate)
	if err != nil {
		if massiveDataProv.secondary != nil {
			logger.Tracef("contracts fetch failed, delegating to secondary provider: %v", err)
			return massiveDataProv.secondary.GetRelevantExpiries(underlying, fromDate, toDate)
		}
		return nil, fmt.Errorf("fetch contracts: %w", err)
	}

	expiryMap := map[string]time.Time{}
	for _, c := range contracts {
		key := c.Expiry.Format("2006-01-02")
		expiryMap[key] = c.Expiry
	}

	expiries := make([]time.Time, 0, len(expiryMap))
	for _, dt := range expiryMap {
		expiries = append(expiries, dt)
	}
	sort.Slice(expiries, func(i, j int) bool { return expiries[i].Before(expiries[j]) })

	logger.Infof("resolved %d unique expiries", len(expiries))
	return expiries, nil
}

// RoundToNearestStrike finds the listed strike closest to target. If no
// contracts can be fetched the call is delegated to the secondary
// provider, or the target is returned unchanged when there is none.
func (massiveDataProv *massiveDataProvider) RoundToNearestStrike(
	underlying string,
	expiryDate, asOfDate time.Time,
	target float64,
) float64 {

	contracts, err := massiveDataProv.getContracts(underlying, 0, expiryDate, asOfDate, asOfDate)
	if err != nil {
		if massiveDataProv.secondary != nil {
			logger.Tracef("strike rounding delegated to secondary provider: %v", err)
			return massiveDataProv.secondary.RoundToNearestStrike(underlying, expiryDate, asOfDate, target)
		}
		logger.Errorf("strike rounding fallback, contracts fetch failed: %v", err)
		return target
	}

	var strikeList []float64
	for i := range contracts {
		if contracts[i].Expiry.Equal(expiryDate) {
			strikeList = append(strikeList, contracts[i].Strike)
		}
	}
	if len(strikeList) == 0 {
		return target
	}

	sort.Float64s(strikeList)
	return Closest(strikeList, target)
}

// getContracts retrieves option contracts matching the supplied filters.
// strike 0 means all strikes; a zero expiryDate enables range queries.
func (massiveDataProv *massiveDataProvider) getContracts(
	underlying string,
	strike float64,
	expiryDate, fromDate, toDate time.Time,
) ([]ChainQuote, error) {

	u, err := url.Parse(massiveDataProv.BaseURL + "/v3/reference/options/contracts")
	if err != nil {
		return nil, err
	}

	query := u.Query()
	query.Set("underlying_ticker", underlying)
	if strike > 0.0 {
		query.Set("strike_price", fmt.Sprintf("%.8g", strike))
	}
	if expiryDate.IsZero() {
		query.Set("expiration_date.gte", fromDate.Format("2006-01-02"))
		query.Set("expiration_date.lte", toDate.Format("2006-01-02"))
	} else {
		query.Set("expiration_date", expiryDate.Format("2006-01-02"))
	}
	query.Set("expired", "true")
	query.Set("limit", "1000")
	query.Set("apiKey", massiveDataProv.APIKey)
	u.RawQuery = query.Encode()

	out := []ChainQuote{}

	for reqURL := u.String(); reqURL != ""; {
		body, err := massiveDataProv.getJSON(reqURL)
		if err != nil {
			return nil, err
		}

		var massiveResp massiveContractsResp
		if err := json.Unmarshal(body, &massiveResp); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}

		logger.Tracef("received %d contracts", len(massiveResp.Results))

		for _, result := range massiveResp.Results {
			t, err := time.Parse("2006-01-02", result.ExpiryDate)
			if err != nil {
				continue // skip malformed expiry dates
			}
			out = append(out, ChainQuote{
				Expiry: t,
				Strike: result.StrikePrice,
				Type:   result.ContractType,
			})
		}

		reqURL = massiveResp.NextURL
	}

	return out, nil
}

// getBars retrieves OHLC aggregates for a symbol over a time range.
func (massiveDataProv *massiveDataProvider) getBars(
	symbol string,
	fromDate, toDate time.Time,
	timespan string,
) ([]bar, error) {

	reqURL := fmt.Sprintf(
		"%s/v2/aggs/ticker/%s/range/1/%s/%s/%s?adjusted=true&sort=asc&limit=50000&apiKey=%s",
		massiveDataProv.BaseURL,
		symbol,
		timespan,
		fromDate.Format("2006-01-02"),
		toDate.Format("2006-01-02"),
		massiveDataProv.APIKey,
	)

	body, err := massiveDataProv.getJSON(reqURL)
	if err != nil {
		return nil, fmt.Errorf("massive aggs request failed: %w", err)
	}

	var resp struct {
		Results []struct {
			Open      float64 `json:"o"`
			Close     float64 `json:"c"`
			Timestamp int64   `json:"t"` // epoch millis
		} `json:"results"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing massive response: %w", err)
	}

	out := make([]bar, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, bar{
			Date:  time.UnixMilli(r.Timestamp).UTC(),
			Open:  r.Open,
			Close: r.Close,
		})
	}
	return out, nil
}

// getJSON executes an authenticated GET request with rate-limit handling
// and returns the response body.
//
// Behavior:
//   - Retries on HTTP 429, sleeping until the next minute boundary
//   - Returns an error for other non-2xx status codes
func (massiveDataProv *massiveDataProvider) getJSON(reqURL string) ([]byte, error) {
	for {
		req, err := http.NewRequest("GET", reqURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+massiveDataProv.APIKey)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "massive-client/1.0")

		resp, err := massiveDataProv.Client.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()

			// Sleep until the next minute boundary
			sleepDuration := time.Until(time.Now().Truncate(time.Minute).Add(time.Minute))
			logger.Infof("rate limit hit, sleeping for %s", sleepDuration)
			time.Sleep(sleepDuration)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			var dbg struct {
				Message string `json:"message"`
			}
			_ = json.Unmarshal(body, &dbg)
			logger.Errorf("massive API error status=%d message=%s", resp.StatusCode, dbg.Message)
			return nil, fmt.Errorf("massive returned status %d: %s", resp.StatusCode, dbg.Message)
		}
		if readErr != nil {
			return nil, readErr
		}
		if len(body) == 0 {
			return nil, fmt.Errorf("empty response body")
		}
		return body, nil
	}
}

// strikeInterval is not meaningful for the live provider; strikes come
// from the listed contract grid instead. A configured secondary answers.
func (massiveDataProv *massiveDataProvider) strikeInterval(underlying string) float64 {
	if massiveDataProv.secondary != nil {
		return massiveDataProv.secondary.strikeInterval(underlying)
	}
	return 0.0
}
