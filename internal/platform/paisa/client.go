// Package paisa is the REST client for the PaisaPredict prediction-market
// service. It owns the HTTP wire contract: request envelopes, the bearer
// token header, and the mapping from HTTP status codes to the domain error
// taxonomy. All state lives on the service; the client never caches.
package paisa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/paisapredict/predictctl/internal/domain"
)

// TokenSource supplies the current bearer token. An empty string means the
// request is sent anonymously; the service rejects it if the endpoint
// requires authentication.
type TokenSource interface {
	Token() string
}

// Client is the REST client for the PaisaPredict API.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// NewClient creates a Client for the given API root, e.g.
// "https://api.paisapredict.example/api/v1".
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetTokenSource configures where the client reads the bearer token before
// each request. Until it is set, all requests are anonymous.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

// ---------------------------------------------------------------------------
// Authentication
// ---------------------------------------------------------------------------

// Signup registers a new account. It does not authenticate; the caller must
// still sign in. Field-level rejections surface as an AuthError with
// Kind AuthValidationFailed.
func (c *Client) Signup(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	_, err := c.do(ctx, http.MethodPost, "/users/signup", body)
	if err != nil {
		var authErr *domain.AuthError
		if errors.As(err, &authErr) {
			authErr.Kind = domain.AuthValidationFailed
			return authErr
		}
		return fmt.Errorf("paisa: signup: %w", err)
	}
	return nil
}

// Signin exchanges credentials for a bearer token. A rejection surfaces as
// an AuthError with Kind AuthInvalidCredentials, carrying the service's
// message unchanged.
func (c *Client) Signin(ctx context.Context, email, password string) (string, error) {
	body := map[string]string{"email": email, "password": password}
	respBody, err := c.do(ctx, http.MethodPost, "/users/signin", body)
	if err != nil {
		var authErr *domain.AuthError
		if errors.As(err, &authErr) {
			authErr.Kind = domain.AuthInvalidCredentials
			return "", authErr
		}
		return "", fmt.Errorf("paisa: signin: %w", err)
	}

	var resp struct {
		Message string `json:"message"`
		Token   string `json:"token"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("paisa: decode signin response: %w", err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("paisa: signin response carried no token")
	}
	return resp.Token, nil
}

// GetMe returns the profile for the current bearer token.
func (c *Client) GetMe(ctx context.Context) (domain.User, error) {
	body, err := c.do(ctx, http.MethodGet, "/users/me", nil)
	if err != nil {
		return domain.User{}, fmt.Errorf("paisa: get me: %w", err)
	}

	var resp struct {
		User domain.User `json:"user"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.User{}, fmt.Errorf("paisa: decode profile: %w", err)
	}
	return resp.User, nil
}

// Leaderboard returns the winnings leaderboard.
func (c *Client) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	body, err := c.do(ctx, http.MethodGet, "/users/leaderboard", nil)
	if err != nil {
		return nil, fmt.Errorf("paisa: leaderboard: %w", err)
	}

	var resp struct {
		Leaderboard []domain.LeaderboardEntry `json:"leaderboard"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("paisa: decode leaderboard: %w", err)
	}
	return resp.Leaderboard, nil
}

// ---------------------------------------------------------------------------
// Markets
// ---------------------------------------------------------------------------

// ListMarkets returns every market.
func (c *Client) ListMarkets(ctx context.Context) ([]domain.Market, error) {
	return c.marketList(ctx, "/markets/getallmarkets")
}

// ListOpenMarkets returns markets the service still reports as open.
func (c *Client) ListOpenMarkets(ctx context.Context) ([]domain.Market, error) {
	return c.marketList(ctx, "/markets/openmarkets")
}

// ListMarketsByCategory returns markets in the given category.
func (c *Client) ListMarketsByCategory(ctx context.Context, cat domain.Category) ([]domain.Market, error) {
	return c.marketList(ctx, "/markets/getmarketsbycatagory/"+url.PathEscape(string(cat)))
}

// SearchMarkets returns markets whose title matches the query.
func (c *Client) SearchMarkets(ctx context.Context, title string) ([]domain.Market, error) {
	return c.marketList(ctx, "/markets/search?title="+url.QueryEscape(title))
}

func (c *Client) marketList(ctx context.Context, path string) ([]domain.Market, error) {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("paisa: list markets: %w", err)
	}

	var resp struct {
		Markets []domain.Market `json:"markets"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("paisa: decode markets: %w", err)
	}
	return resp.Markets, nil
}

// GetMarket returns a single market snapshot by ID.
func (c *Client) GetMarket(ctx context.Context, id int64) (domain.Market, error) {
	path := "/markets/getmarket/" + strconv.FormatInt(id, 10)
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return domain.Market{}, fmt.Errorf("paisa: get market %d: %w", id, err)
	}

	var resp struct {
		Market domain.Market `json:"market"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Market{}, fmt.Errorf("paisa: decode market: %w", err)
	}
	return resp.Market, nil
}

// CreateMarket creates a new market (admin only).
func (c *Client) CreateMarket(ctx context.Context, req CreateMarketRequest) (domain.Market, error) {
	body, err := c.do(ctx, http.MethodPost, "/markets/create", req)
	if err != nil {
		return domain.Market{}, fmt.Errorf("paisa: create market: %w", err)
	}

	var resp struct {
		Market domain.Market `json:"market"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Market{}, fmt.Errorf("paisa: decode created market: %w", err)
	}
	return resp.Market, nil
}

// LockMarket freezes wagering on a market (admin only). The returned
// snapshot is the service's view immediately after the lock.
func (c *Client) LockMarket(ctx context.Context, id int64) (domain.Market, error) {
	path := "/markets/lockbets/" + strconv.FormatInt(id, 10)
	body, err := c.do(ctx, http.MethodPost, path, nil)
	if err != nil {
		return domain.Market{}, fmt.Errorf("paisa: lock market %d: %w", id, err)
	}

	var resp struct {
		LockedMarket domain.Market `json:"lockedMarket"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Market{}, fmt.Errorf("paisa: decode locked market: %w", err)
	}
	return resp.LockedMarket, nil
}

// ResolveMarket fixes the winning outcome of a locked market (admin only).
// Settlement happens on the service as a consequence of this call: winners
// are credited and their bets marked WON or LOST.
func (c *Client) ResolveMarket(ctx context.Context, id int64, outcome domain.Outcome) error {
	path := "/markets/resolvemarket/" + strconv.FormatInt(id, 10)
	body := map[string]domain.Outcome{"outcome": outcome}
	if _, err := c.do(ctx, http.MethodPost, path, body); err != nil {
		return fmt.Errorf("paisa: resolve market %d: %w", id, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Bets and transactions
// ---------------------------------------------------------------------------

// PlaceBet submits a wager. The service validates again regardless of any
// client-side pre-checks.
func (c *Client) PlaceBet(ctx context.Context, marketID int64, outcome domain.Outcome, amount domain.Money) (BetReceipt, error) {
	req := struct {
		Amount   domain.Money   `json:"amount"`
		MarketID int64          `json:"marketId"`
		Outcome  domain.Outcome `json:"outcome_chosen"`
	}{Amount: amount, MarketID: marketID, Outcome: outcome}

	body, err := c.do(ctx, http.MethodPost, "/bets/placebets", req)
	if err != nil {
		return BetReceipt{}, fmt.Errorf("paisa: place bet: %w", err)
	}

	var receipt BetReceipt
	if err := json.Unmarshal(body, &receipt); err != nil {
		return BetReceipt{}, fmt.Errorf("paisa: decode bet receipt: %w", err)
	}
	return receipt, nil
}

// ListUserBets returns the current user's bets.
func (c *Client) ListUserBets(ctx context.Context) ([]domain.Bet, error) {
	return c.betList(ctx, "/bets/getallbets")
}

// ListMarketBets returns all bets placed on the given market.
func (c *Client) ListMarketBets(ctx context.Context, marketID int64) ([]domain.Bet, error) {
	return c.betList(ctx, "/bets/getallbetsmarket/"+strconv.FormatInt(marketID, 10))
}

func (c *Client) betList(ctx context.Context, path string) ([]domain.Bet, error) {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("paisa: list bets: %w", err)
	}

	var resp struct {
		Bets []domain.Bet `json:"bets"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("paisa: decode bets: %w", err)
	}
	return resp.Bets, nil
}

// ListTransactions returns the current user's ledger entries.
func (c *Client) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	body, err := c.do(ctx, http.MethodGet, "/transactions/getalltransactions", nil)
	if err != nil {
		return nil, fmt.Errorf("paisa: list transactions: %w", err)
	}

	var resp struct {
		Transactions []domain.Transaction `json:"transactions"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("paisa: decode transactions: %w", err)
	}
	return resp.Transactions, nil
}

// ---------------------------------------------------------------------------
// Internal helpers
// ---------------------------------------------------------------------------

// do builds, sends, and reads an HTTP request against the service. The
// bearer token, when present, is read fresh from the token source for every
// call. The X-Request-ID header is for log correlation only; it is not an
// idempotency key and the client performs no retries.
func (c *Client) do(ctx context.Context, method, path string, reqBody any) ([]byte, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		jsonBody, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.NetworkError{Message: fmt.Sprintf("read response: %v", err)}
	}

	if err := checkStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}
	return respBody, nil
}

// checkStatus maps non-2xx responses onto the domain error taxonomy. The
// server message is preserved verbatim in every branch.
func checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var envelope apiError
	_ = json.Unmarshal(body, &envelope)

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &domain.AuthError{
			Kind:    domain.AuthSessionExpired,
			Message: envelope.Message,
			Fields:  envelope.Errors,
		}
	case http.StatusNotFound:
		if envelope.Message != "" {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, envelope.Message)
		}
		return domain.ErrNotFound
	default:
		// Field-level validation rejections carry an errors array; they
		// come back from the auth endpoints as 400s.
		if len(envelope.Errors) > 0 {
			return &domain.AuthError{
				Kind:    domain.AuthValidationFailed,
				Message: envelope.Message,
				Fields:  envelope.Errors,
			}
		}
		return &domain.NetworkError{StatusCode: statusCode, Message: envelope.Message}
	}
}
