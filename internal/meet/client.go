package meet

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"
	meetapi "google.golang.org/api/meet/v2"
	"google.golang.org/api/option"

	"github.com/teemow/meetlink/internal/google"
	"github.com/teemow/meetlink/internal/instrumentation"
	"github.com/teemow/meetlink/internal/logging"
)

// OpCreateSpace is the RemoteError.Op of CreateSpace failures.
const OpCreateSpace = "spaces.create"

// Client creates meeting spaces.
type Client struct {
	apiOptions []option.ClientOption
	metrics    *instrumentation.Metrics
	logger     logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint points the client at a different Meet API base URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.apiOptions = append(c.apiOptions, option.WithEndpoint(endpoint))
		}
	}
}

// WithMetrics records every call on m.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient returns a Client.
func NewClient(opts ...Option) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrDefault(c.logger)
	return c
}

// CreateSpace creates a new meeting space authenticated by ts and returns it.
func (c *Client) CreateSpace(ctx context.Context, ts oauth2.TokenSource) (*Space, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceMeet, instrumentation.OperationCreate)
	defer span.End()

	start := time.Now()
	space, err := c.createSpace(ctx, ts)
	duration := time.Since(start)

	if err != nil {
		c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceMeet, instrumentation.OperationCreate, instrumentation.StatusError, duration)
		instrumentation.SetSpanError(span, err)
		return nil, err
	}

	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceMeet, instrumentation.OperationCreate, instrumentation.StatusSuccess, duration)
	span.SetAttributes(attribute.String(instrumentation.SpanAttrSpaceName, space.Name))
	instrumentation.SetSpanSuccess(span)
	c.logger.Debug("Created meeting space",
		logging.Service(instrumentation.ServiceMeet),
		logging.Operation(OpCreateSpace),
		"space", space.Name,
		"duration", duration,
	)

	return space, nil
}

func (c *Client) createSpace(ctx context.Context, ts oauth2.TokenSource) (*Space, error) {
	opts := append([]option.ClientOption{option.WithHTTPClient(google.NewHTTPClient(ctx, ts))}, c.apiOptions...)
	svc, err := meetapi.NewService(ctx, opts...)
	if err != nil {
		return nil, &RemoteError{Op: OpCreateSpace, Err: fmt.Errorf("failed to create Meet service: %w", err)}
	}

	created, err := svc.Spaces.Create(&meetapi.Space{}).Context(ctx).Do()
	if err != nil {
		return nil, &RemoteError{Op: OpCreateSpace, Err: fmt.Errorf("failed to create space: %w", err)}
	}
	if created.MeetingUri == "" {
		return nil, &RemoteError{Op: OpCreateSpace, Err: ErrMissingMeetingURI}
	}

	return toSpace(created), nil
}

// toSpace converts a Meet API Space to our Space type
func toSpace(s *meetapi.Space) *Space {
	space := &Space{
		Name:        s.Name,
		MeetingURI:  s.MeetingUri,
		MeetingCode: s.MeetingCode,
	}
	if s.Config != nil {
		space.AccessType = s.Config.AccessType
	}
	return space
}
