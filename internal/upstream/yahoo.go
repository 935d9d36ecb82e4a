package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/guregu/null/v6"
)

const (
	yahooBaseURL   = "https://query1.finance.yahoo.com"
	yahooCookieURL = "https://fc.yahoo.com"
)

// Yahoo serves history, quote and profile data from Yahoo Finance.
//
// The quote and quoteSummary endpoints reject requests without a crumb tied
// to the session cookie, so the HTTP client must keep cookies. The crumb is
// fetched lazily and refreshed once when Yahoo answers 401.
type Yahoo struct {
	*options

	mu    sync.Mutex
	crumb string
}

// NewYahoo creates a Yahoo Finance client. Without WithHTTPClient it uses a
// client with its own cookie jar.
func NewYahoo(opts ...Option) *Yahoo {
	jar, _ := cookiejar.New(nil)
	defaults := []Option{
		WithHTTPClient(&http.Client{Jar: jar}),
		WithCookieURL(yahooCookieURL),
	}
	return &Yahoo{options: newOptions(yahooBaseURL, append(defaults, opts...))}
}

// crumbFor returns the cached crumb, fetching a new one when none is cached
// or the cached one is stale.
func (y *Yahoo) crumbFor(ctx context.Context, op, symbol, stale string) (string, error) {
	y.mu.Lock()
	defer y.mu.Unlock()

	if y.crumb != "" && y.crumb != stale {
		return y.crumb, nil
	}
	y.crumb = ""

	fail := func(reason, err error) error {
		return &Error{Source: "yahoo", Op: op, Symbol: symbol, Reason: reason, Err: fmt.Errorf("crumb: %w", err)}
	}

	// The cookie page answers 404 but still sets the session cookie.
	resp, err := y.get(ctx, y.cookieURL, "")
	if err != nil {
		return "", fail(transportReason(ctx, err), err)
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()

	resp, err = y.get(ctx, y.baseURL+"/v1/test/getcrumb", "text/plain")
	if err != nil {
		return "", fail(transportReason(ctx, err), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", statusError("yahoo", op, symbol, resp)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return "", fail(transportReason(ctx, err), err)
	}
	crumb := strings.TrimSpace(string(body))
	if crumb == "" {
		return "", fail(ErrUnavailable, errors.New("empty crumb"))
	}
	y.crumb = crumb
	return crumb, nil
}

// getWithCrumb is getJSON for endpoints that need a crumb. rawURL must
// already carry a query string.
func (y *Yahoo) getWithCrumb(ctx context.Context, op, symbol, rawURL string, out any) error {
	crumb, err := y.crumbFor(ctx, op, symbol, "")
	if err != nil {
		return err
	}
	err = y.getJSON(ctx, "yahoo", op, symbol, rawURL+"&crumb="+url.QueryEscape(crumb), out)

	var uerr *Error
	if !errors.As(err, &uerr) || uerr.Status != http.StatusUnauthorized {
		return err
	}
	if crumb, err = y.crumbFor(ctx, op, symbol, crumb); err != nil {
		return err
	}
	return y.getJSON(ctx, "yahoo", op, symbol, rawURL+"&crumb="+url.QueryEscape(crumb), out)
}

type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []null.Float `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// History returns daily closes between from and to, oldest first. Bars
// without a close (holidays, halted sessions) are skipped.
func (y *Yahoo) History(ctx context.Context, symbol string, from, to time.Time) ([]PricePoint, error) {
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(from.Unix(), 10))
	q.Set("period2", strconv.FormatInt(to.Unix(), 10))
	q.Set("interval", "1d")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", y.baseURL, url.PathEscape(symbol), q.Encode())

	var chart yahooChart
	if err := y.getJSON(ctx, "yahoo", "history", symbol, u, &chart); err != nil {
		return nil, err
	}
	if chart.Chart.Error != nil {
		return nil, &Error{Source: "yahoo", Op: "history", Symbol: symbol, Reason: ErrInvalidSymbol,
			Err: fmt.Errorf("%s: %s", chart.Chart.Error.Code, chart.Chart.Error.Description)}
	}
	if len(chart.Chart.Result) == 0 {
		return nil, &Error{Source: "yahoo", Op: "history", Symbol: symbol, Reason: ErrInvalidSymbol}
	}

	res := chart.Chart.Result[0]
	points := make([]PricePoint, 0, len(res.Timestamp))
	if len(res.Indicators.Quote) == 0 {
		return points, nil
	}
	closes := res.Indicators.Quote[0].Close
	for i, ts := range res.Timestamp {
		if i >= len(closes) || !closes[i].Valid {
			continue
		}
		points = append(points, PricePoint{
			Date:  time.Unix(ts, 0).UTC(),
			Close: closes[i].Float64,
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

type yahooQuoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol             string      `json:"symbol"`
			ShortName          null.String `json:"shortName"`
			LongName           null.String `json:"longName"`
			RegularMarketPrice null.Float  `json:"regularMarketPrice"`
			MarketCap          null.Float  `json:"marketCap"`
			TrailingPE         null.Float  `json:"trailingPE"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"quoteResponse"`
}

// Quote returns the live quote for symbol.
func (y *Yahoo) Quote(ctx context.Context, symbol string) (Quote, error) {
	u := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", y.baseURL, url.QueryEscape(symbol))

	var resp yahooQuoteResponse
	if err := y.getWithCrumb(ctx, "quote", symbol, u, &resp); err != nil {
		return Quote{}, err
	}
	if resp.QuoteResponse.Error != nil {
		return Quote{}, &Error{Source: "yahoo", Op: "quote", Symbol: symbol, Reason: ErrUnavailable,
			Err: fmt.Errorf("%s: %s", resp.QuoteResponse.Error.Code, resp.QuoteResponse.Error.Description)}
	}
	if len(resp.QuoteResponse.Result) == 0 {
		return Quote{}, &Error{Source: "yahoo", Op: "quote", Symbol: symbol, Reason: ErrInvalidSymbol}
	}

	r := resp.QuoteResponse.Result[0]
	name := r.ShortName
	if name.String == "" {
		name = r.LongName
	}
	return Quote{
		Symbol:    r.Symbol,
		Name:      name,
		Price:     r.RegularMarketPrice,
		MarketCap: r.MarketCap,
		PERatio:   r.TrailingPE,
	}, nil
}

type yahooSummary struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile struct {
				Sector   null.String `json:"sector"`
				Industry null.String `json:"industry"`
				Website  null.String `json:"website"`
			} `json:"assetProfile"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"quoteSummary"`
}

// Profile returns the asset profile for symbol.
func (y *Yahoo) Profile(ctx context.Context, symbol string) (Profile, error) {
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=assetProfile", y.baseURL, url.PathEscape(symbol))

	var resp yahooSummary
	if err := y.getWithCrumb(ctx, "profile", symbol, u, &resp); err != nil {
		return Profile{}, err
	}
	if resp.QuoteSummary.Error != nil || len(resp.QuoteSummary.Result) == 0 {
		return Profile{}, &Error{Source: "yahoo", Op: "profile", Symbol: symbol, Reason: ErrInvalidSymbol}
	}

	p := resp.QuoteSummary.Result[0].AssetProfile
	return Profile{Sector: p.Sector, Industry: p.Industry, Website: p.Website}, nil
}
