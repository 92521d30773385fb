package smartstore

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

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/channel"
)

// maxResponseSize limits the response body size to prevent memory exhaustion
const maxResponseSize = 10 * 1024 * 1024 // 10MB max response

// Gateway implements channel.Gateway against the SmartStore commerce API.
// The bearer token lives in the credential repository so concurrent workers
// share one token per channel; a stale token self-heals through the single
// 401 refresh-and-retry inside doRequest.
type Gateway struct {
	config      *Config
	httpClient  *http.Client
	credentials channel.CredentialRepository
	logger      *zap.Logger
	now         func() time.Time
}

// NewGateway creates a new SmartStore gateway with the given configuration
func NewGateway(config *Config, credentials channel.CredentialRepository, logger *zap.Logger) (*Gateway, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Gateway{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		credentials: credentials,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// ---------------------------------------------------------------------------
// Response envelopes
// ---------------------------------------------------------------------------

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type originProductResponse struct {
	OriginProduct struct {
		SalePrice int64 `json:"salePrice"`
	} `json:"originProduct"`
}

type optionCombination struct {
	ID                int64  `json:"id"`
	SellerManagerCode string `json:"sellerManagerCode"`
	OptionName1       string `json:"optionName1"`
	OptionName2       string `json:"optionName2"`
	Price             int64  `json:"price"`
}

type optionListResponse struct {
	OptionCombinationGroupNames struct {
		OptionGroupName1 string `json:"optionGroupName1"`
		OptionGroupName2 string `json:"optionGroupName2"`
	} `json:"optionCombinationGroupNames"`
	OptionCombinations []optionCombination `json:"optionCombinations"`
}

// ---------------------------------------------------------------------------
// channel.Gateway implementation
// ---------------------------------------------------------------------------

// GetBasePrice reads a product's current base sale price
func (g *Gateway) GetBasePrice(ctx context.Context, productNo string) (decimal.Decimal, error) {
	result, err := g.doRequest(ctx, http.MethodGet, "/v2/products/origin-products/"+url.PathEscape(productNo), nil)
	if err != nil {
		return decimal.Zero, err
	}

	var resp originProductResponse
	if err := json.Unmarshal(result.body, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("smartstore: failed to parse response: %w", err)
	}
	return decimal.NewFromInt(resp.OriginProduct.SalePrice), nil
}

// UpdateBasePrice writes a product's base sale price
func (g *Gateway) UpdateBasePrice(ctx context.Context, productNo string, price decimal.Decimal) (*channel.PushAck, error) {
	body := map[string]any{
		"salePrice": price.IntPart(),
	}
	result, err := g.doRequest(ctx, http.MethodPut, "/v2/products/origin-products/"+url.PathEscape(productNo)+"/sale-price", body)
	if err != nil {
		return nil, err
	}
	return result.ack(), nil
}

// GetVariantPrice reads the effective price of one variant, which the channel
// exposes as base sale price plus the option's additional amount.
func (g *Gateway) GetVariantPrice(ctx context.Context, productNo, variantCode string) (decimal.Decimal, error) {
	base, err := g.GetBasePrice(ctx, productNo)
	if err != nil {
		return decimal.Zero, err
	}
	variants, err := g.ListVariants(ctx, productNo)
	if err != nil {
		return decimal.Zero, err
	}
	for _, variant := range variants {
		if variant.Code == variantCode {
			return base.Add(variant.AdditionalAmount), nil
		}
	}
	return decimal.Zero, &channel.GatewayError{
		HTTPStatus: http.StatusNotFound,
		Code:       "OPTION_NOT_FOUND",
		Message:    fmt.Sprintf("variant %s not found on product %s", variantCode, productNo),
	}
}

// UpdateVariantAmount writes a variant's additional amount over the base
func (g *Gateway) UpdateVariantAmount(ctx context.Context, productNo, variantCode string, additional decimal.Decimal) (*channel.PushAck, error) {
	body := map[string]any{
		"optionCombinations": []map[string]any{
			{
				"sellerManagerCode": variantCode,
				"price":             additional.IntPart(),
			},
		},
	}
	result, err := g.doRequest(ctx, http.MethodPut, "/v2/products/origin-products/"+url.PathEscape(productNo)+"/options", body)
	if err != nil {
		return nil, err
	}
	return result.ack(), nil
}

// ListVariants enumerates the product's live option rows
func (g *Gateway) ListVariants(ctx context.Context, productNo string) ([]channel.Variant, error) {
	result, err := g.doRequest(ctx, http.MethodGet, "/v2/products/origin-products/"+url.PathEscape(productNo)+"/options", nil)
	if err != nil {
		return nil, err
	}

	var resp optionListResponse
	if err := json.Unmarshal(result.body, &resp); err != nil {
		return nil, fmt.Errorf("smartstore: failed to parse response: %w", err)
	}

	variants := make([]channel.Variant, 0, len(resp.OptionCombinations))
	for _, combo := range resp.OptionCombinations {
		code := combo.SellerManagerCode
		if code == "" {
			code = strconv.FormatInt(combo.ID, 10)
		}
		variant := channel.Variant{
			Code:             code,
			AdditionalAmount: decimal.NewFromInt(combo.Price),
		}
		if combo.OptionName1 != "" {
			variant.Options = append(variant.Options, channel.OptionPair{
				Name:  resp.OptionCombinationGroupNames.OptionGroupName1,
				Value: combo.OptionName1,
			})
		}
		if combo.OptionName2 != "" {
			variant.Options = append(variant.Options, channel.OptionPair{
				Name:  resp.OptionCombinationGroupNames.OptionGroupName2,
				Value: combo.OptionName2,
			})
		}
		variants = append(variants, variant)
	}
	return variants, nil
}

// UpdateOptionLabels rewrites option-value display labels
func (g *Gateway) UpdateOptionLabels(ctx context.Context, productNo string, labels []channel.OptionLabel) (*channel.PushAck, error) {
	items := make([]map[string]any, len(labels))
	for i, label := range labels {
		items[i] = map[string]any{
			"optionName": label.OptionName,
			"value":      label.Value,
			"label":      label.Label,
		}
	}
	body := map[string]any{"optionLabels": items}
	result, err := g.doRequest(ctx, http.MethodPut, "/v2/products/origin-products/"+url.PathEscape(productNo)+"/option-labels", body)
	if err != nil {
		return nil, err
	}
	return result.ack(), nil
}

// ---------------------------------------------------------------------------
// Internal helpers
// ---------------------------------------------------------------------------

type requestResult struct {
	status   int
	body     []byte
	request  string
	response string
}

func (r *requestResult) ack() *channel.PushAck {
	return &channel.PushAck{
		HTTPStatus:      r.status,
		Pending:         r.status == http.StatusAccepted,
		RequestPayload:  r.request,
		ResponsePayload: r.response,
	}
}

// doRequest performs one authenticated request. On 401 it refreshes the
// shared token once and retries once.
func (g *Gateway) doRequest(ctx context.Context, method, path string, body any) (*requestResult, error) {
	token, err := g.token(ctx)
	if err != nil {
		return nil, err
	}

	result, err := g.send(ctx, method, path, body, token)
	if err != nil {
		return nil, err
	}
	if result.status == http.StatusUnauthorized {
		token, err = g.refreshToken(ctx)
		if err != nil {
			return nil, err
		}
		result, err = g.send(ctx, method, path, body, token)
		if err != nil {
			return nil, err
		}
	}

	if result.status >= 400 {
		return nil, g.asGatewayError(result)
	}
	return result, nil
}

func (g *Gateway) send(ctx context.Context, method, path string, body any, token string) (*requestResult, error) {
	var reqPayload string
	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("smartstore: failed to marshal request: %w", err)
		}
		reqPayload = string(bodyBytes)
		reader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.config.APIBaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("smartstore: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, &channel.GatewayError{
			HTTPStatus: 0,
			Code:       "CHANNEL_UNREACHABLE",
			Message:    err.Error(),
		}
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("smartstore: failed to read response: %w", err)
	}

	return &requestResult{
		status:   resp.StatusCode,
		body:     respBytes,
		request:  reqPayload,
		response: string(respBytes),
	}, nil
}

func (g *Gateway) asGatewayError(result *requestResult) *channel.GatewayError {
	var envelope errorEnvelope
	_ = json.Unmarshal(result.body, &envelope)
	if envelope.Message == "" {
		envelope.Message = http.StatusText(result.status)
	}
	return &channel.GatewayError{
		HTTPStatus: result.status,
		Code:       envelope.Code,
		Message:    envelope.Message,
		Raw:        result.response,
	}
}

// token returns the shared bearer token, refreshing it when missing or past
// its lifetime.
func (g *Gateway) token(ctx context.Context) (string, error) {
	credential, err := g.credentials.Find(ctx, g.config.ChannelID)
	if err != nil {
		if errors.Is(err, channel.ErrCredentialNotFound) {
			return g.refreshToken(ctx)
		}
		return "", err
	}
	if credential.Expired(g.now()) {
		return g.refreshToken(ctx)
	}
	return credential.AccessToken, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// refreshToken exchanges client credentials for a fresh token and stores it.
// Last write wins; a racing worker's token works just as well.
func (g *Gateway) refreshToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", g.config.ClientID)
	form.Set("client_secret", g.config.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.APIBaseURL+"/v1/oauth2/token", bytes.NewBufferString(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("smartstore: failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", &channel.GatewayError{
			HTTPStatus: 0,
			Code:       "CHANNEL_UNREACHABLE",
			Message:    err.Error(),
		}
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("smartstore: failed to read token response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", &channel.GatewayError{
			HTTPStatus: resp.StatusCode,
			Code:       "TOKEN_REFRESH_FAILED",
			Message:    http.StatusText(resp.StatusCode),
			Raw:        string(respBytes),
		}
	}

	var token tokenResponse
	if err := json.Unmarshal(respBytes, &token); err != nil {
		return "", fmt.Errorf("smartstore: failed to parse token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", &channel.GatewayError{
			HTTPStatus: resp.StatusCode,
			Code:       "TOKEN_REFRESH_FAILED",
			Message:    "empty access token",
			Raw:        string(respBytes),
		}
	}

	now := g.now()
	credential := &channel.Credential{
		ChannelID:   g.config.ChannelID,
		AccessToken: token.AccessToken,
		ExpiresAt:   now.Add(time.Duration(token.ExpiresIn) * time.Second),
		UpdatedAt:   now,
	}
	if err := g.credentials.Save(ctx, credential); err != nil {
		g.logger.Warn("Failed to persist refreshed token", zap.Error(err))
	}
	return token.AccessToken, nil
}

// Ensure Gateway implements the channel gateway interface
var _ channel.Gateway = (*Gateway)(nil)
