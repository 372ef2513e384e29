// Package bankdata holds the shared HTTP core of the per-country credit bureau
// integrations and normalizes their failures into one error taxonomy.
package bankdata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"creditflow/internal/credit/models"
	"creditflow/internal/platform/httpclient"
	"creditflow/pkg/attrs"
	dErrors "creditflow/pkg/domain-errors"
)

// Poster performs one JSON POST and returns the decoded JSON reply.
type Poster interface {
	Post(ctx context.Context, url string, body any, headers map[string]string) (map[string]any, error)
}

// FetchResult is what a provider returns once the bureau accepted the lookup.
type FetchResult struct {
	ExternalRequestID string
	ProviderName      string
	FetchStatus       models.FetchStatus
}

// RequestBuilder renders the provider-specific request body.
type RequestBuilder func(documentID, creditRequestID, callbackURL string) map[string]any

// Endpoint describes one bureau integration.
type Endpoint struct {
	ProviderName     string
	BaseURL          string
	Path             string
	APIKeyHeader     string
	APIKey           string
	CallbackURL      string
	CorrelationField string
	ErrorCodeField   string
	ErrorMsgField    string
	KnownErrors      map[string]KnownError
	Build            RequestBuilder
}

// HTTPProvider initiates asynchronous bureau lookups over HTTP.
type HTTPProvider struct {
	endpoint Endpoint
	poster   Poster
	tracer   trace.Tracer
	logger   *slog.Logger
}

type Option func(*HTTPProvider)

func WithLogger(logger *slog.Logger) Option {
	return func(p *HTTPProvider) {
		p.logger = logger
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(p *HTTPProvider) {
		p.tracer = tracer
	}
}

func NewHTTPProvider(endpoint Endpoint, poster Poster, opts ...Option) (*HTTPProvider, error) {
	if poster == nil {
		return nil, errors.New("poster is required")
	}
	if endpoint.ProviderName == "" {
		return nil, errors.New("provider name is required")
	}
	if endpoint.CorrelationField == "" {
		return nil, errors.New("correlation field is required")
	}
	if endpoint.Build == nil {
		return nil, errors.New("request builder is required")
	}
	p := &HTTPProvider{
		endpoint: endpoint,
		poster:   poster,
		tracer:   otel.Tracer("creditflow/bankdata"),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *HTTPProvider) Name() string {
	return p.endpoint.ProviderName
}

// FetchBankData asks the bureau to start a lookup for documentID. The result
// arrives later on the callback URL.
func (p *HTTPProvider) FetchBankData(ctx context.Context, documentID, creditRequestID string) (*FetchResult, error) {
	ctx, span := p.tracer.Start(ctx, "bankdata.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("provider", p.endpoint.ProviderName),
			attribute.String("credit_request_id", creditRequestID),
		),
	)
	defer span.End()

	url := strings.TrimRight(p.endpoint.BaseURL, "/") + p.endpoint.Path
	headers := map[string]string{}
	if p.endpoint.APIKey != "" {
		header := p.endpoint.APIKeyHeader
		if header == "" {
			header = "X-API-Key"
		}
		headers[header] = p.endpoint.APIKey
	}

	body := p.endpoint.Build(documentID, creditRequestID, p.endpoint.CallbackURL)
	reply, err := p.poster.Post(ctx, url, body, headers)
	if err != nil {
		mapped := p.classify(err)
		span.RecordError(mapped)
		span.SetStatus(codes.Error, "provider call failed")
		p.logger.WarnContext(ctx, "bank data request failed",
			"provider", p.endpoint.ProviderName,
			"credit_request_id", creditRequestID,
			"error", mapped,
		)
		return nil, mapped
	}

	if pe := p.knownError(reply, 0); pe != nil {
		span.SetStatus(codes.Error, pe.Code)
		return nil, pe
	}

	externalID := attrs.String(reply, p.endpoint.CorrelationField)
	if externalID == "" {
		err := dErrors.New(dErrors.CodeProviderInvalidResponse,
			fmt.Sprintf("%s response missing %s", p.endpoint.ProviderName, p.endpoint.CorrelationField)).
			WithDetail("provider", p.endpoint.ProviderName)
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid provider response")
		return nil, err
	}

	span.SetAttributes(attribute.String("external_request_id", externalID))
	return &FetchResult{
		ExternalRequestID: externalID,
		ProviderName:      p.endpoint.ProviderName,
		FetchStatus:       models.FetchPending,
	}, nil
}

// classify applies the failure taxonomy in priority order: recognized
// provider code, timeout, HTTP error status, anything else.
func (p *HTTPProvider) classify(err error) error {
	var statusErr *httpclient.HTTPStatusError
	isStatus := errors.As(err, &statusErr)

	if isStatus {
		if pe := p.knownError(statusErr.Body, statusErr.StatusCode); pe != nil {
			return pe
		}
	}

	if isTimeout(err) {
		return dErrors.Wrap(err, dErrors.CodeExternalServiceTimeout,
			fmt.Sprintf("%s request timed out", p.endpoint.ProviderName)).
			WithDetail("provider", p.endpoint.ProviderName)
	}

	if isStatus {
		return dErrors.Wrap(err, dErrors.CodeProviderRequestFailed,
			fmt.Sprintf("%s returned HTTP %d", p.endpoint.ProviderName, statusErr.StatusCode)).
			WithDetail("provider", p.endpoint.ProviderName).
			WithDetail("status_code", statusErr.StatusCode)
	}

	return dErrors.Wrap(err, dErrors.CodeExternalServiceUnavailable,
		fmt.Sprintf("%s unreachable", p.endpoint.ProviderName)).
		WithDetail("provider", p.endpoint.ProviderName)
}

func (p *HTTPProvider) knownError(body map[string]any, status int) *ProviderError {
	if p.endpoint.ErrorCodeField == "" || body == nil {
		return nil
	}
	code := attrs.String(body, p.endpoint.ErrorCodeField)
	known, ok := p.endpoint.KnownErrors[code]
	if code == "" || !ok {
		return nil
	}
	msg := known.Message
	if p.endpoint.ErrorMsgField != "" {
		if m := attrs.String(body, p.endpoint.ErrorMsgField); m != "" {
			msg = m
		}
	}
	return &ProviderError{
		Provider:    p.endpoint.ProviderName,
		Code:        code,
		Message:     msg,
		ShouldCatch: known.ShouldCatch,
		HTTPStatus:  status,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
