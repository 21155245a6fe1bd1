package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/better-hash/ai-video-generator/internal/entity"
	"github.com/better-hash/ai-video-generator/internal/logging"
	"github.com/better-hash/ai-video-generator/internal/services"
)

const (
	// DefaultTimeout bounds every request when Config.Timeout is unset.
	DefaultTimeout   = 30 * time.Second
	defaultUserAgent = "vidgen"
	maxResponseBody  = 4 << 20
)

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config describes how to reach the backend.
type Config struct {
	// BaseURL includes the API prefix, e.g. http://127.0.0.1:8000/api.
	BaseURL       string
	Timeout       time.Duration
	UserAgent     string
	MaxImageBytes int64
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithLogger sets the boundary logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client talks to the generation backend.
type Client struct {
	base      *url.URL
	timeout   time.Duration
	userAgent string
	maxImage  int64
	http      HTTPDoer
	logger    *slog.Logger
}

// New constructs a client. It fails only when BaseURL cannot be parsed.
func New(cfg Config, opts ...Option) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	base, err := url.Parse(raw)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("gateway: invalid base url %q", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	maxImage := cfg.MaxImageBytes
	if maxImage <= 0 || maxImage > MaxImageBytes {
		maxImage = MaxImageBytes
	}
	client := &Client{
		base:      base,
		timeout:   timeout,
		userAgent: userAgent,
		maxImage:  maxImage,
		http:      &http.Client{Timeout: timeout},
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "gateway")
	return client, nil
}

// BaseURL returns the normalized API base.
func (c *Client) BaseURL() string { return c.base.String() }

// ParseScript sends raw script text to the parser.
func (c *Client) ParseScript(ctx context.Context, text string) (entity.ParsedScript, error) {
	const op = "parse script"
	if strings.TrimSpace(text) == "" {
		return entity.ParsedScript{}, services.Wrap(services.ErrValidation, "gateway", op, "script text is empty", nil)
	}
	var resp parseResponse
	if err := c.doJSON(ctx, op, http.MethodPost, "/scripts/parse", parseRequest{ScriptText: text}, &resp); err != nil {
		return entity.ParsedScript{}, err
	}
	parsed := resp.ParsedScript
	if parsed.IsEmpty() && resp.ParsedData != nil {
		parsed = *resp.ParsedData
	}
	if parsed.IsEmpty() {
		return entity.ParsedScript{}, services.Wrap(services.ErrFormat, "gateway", op, "response has no title, characters, or scenes", nil)
	}
	return parsed.Clone(), nil
}

// GenerateCharacter asks the backend to design a character from text.
func (c *Client) GenerateCharacter(ctx context.Context, description string) (CharacterResult, error) {
	const op = "generate character"
	if strings.TrimSpace(description) == "" {
		return CharacterResult{}, services.Wrap(services.ErrValidation, "gateway", op, "description is empty", nil)
	}
	var resp characterResponse
	if err := c.doJSON(ctx, op, http.MethodPost, "/characters/generate", describeRequest{Description: description}, &resp); err != nil {
		return CharacterResult{}, err
	}
	return resp.result(), nil
}

// GenerateCharacterWithImage is GenerateCharacter with a reference image sent
// as multipart form data.
func (c *Client) GenerateCharacterWithImage(ctx context.Context, description string, image ImageUpload) (CharacterResult, error) {
	const op = "generate character with image"
	if strings.TrimSpace(description) == "" {
		return CharacterResult{}, services.Wrap(services.ErrValidation, "gateway", op, "description is empty", nil)
	}
	if err := CheckImage(image, c.maxImage); err != nil {
		return CharacterResult{}, err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("description", description); err != nil {
		return CharacterResult{}, services.Wrap(services.ErrValidation, "gateway", op, "encode form", err)
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, image.filename()))
	header.Set("Content-Type", image.ContentType())
	part, err := writer.CreatePart(header)
	if err != nil {
		return CharacterResult{}, services.Wrap(services.ErrValidation, "gateway", op, "encode form", err)
	}
	if _, err := part.Write(image.Data); err != nil {
		return CharacterResult{}, services.Wrap(services.ErrValidation, "gateway", op, "encode form", err)
	}
	if err := writer.Close(); err != nil {
		return CharacterResult{}, services.Wrap(services.ErrValidation, "gateway", op, "encode form", err)
	}

	var resp characterResponse
	if err := c.do(ctx, op, http.MethodPost, "/characters/generate-with-image", &body, writer.FormDataContentType(), &resp); err != nil {
		return CharacterResult{}, err
	}
	return resp.result(), nil
}

// GenerateScene asks the backend to design a scene from text.
func (c *Client) GenerateScene(ctx context.Context, description string) (SceneResult, error) {
	const op = "generate scene"
	if strings.TrimSpace(description) == "" {
		return SceneResult{}, services.Wrap(services.ErrValidation, "gateway", op, "description is empty", nil)
	}
	var resp sceneResponse
	if err := c.doJSON(ctx, op, http.MethodPost, "/scenes/generate", describeRequest{Description: description}, &resp); err != nil {
		return SceneResult{}, err
	}
	return resp.result(), nil
}

// SubmitVideoJob starts a render and returns its task handle.
func (c *Client) SubmitVideoJob(ctx context.Context, req VideoJobRequest) (SubmitResult, error) {
	const op = "submit video job"
	if strings.TrimSpace(req.ScriptText) == "" {
		return SubmitResult{}, services.Wrap(services.ErrValidation, "gateway", op, "script text is empty", nil)
	}
	if err := req.Settings.Validate(); err != nil {
		return SubmitResult{}, services.Wrap(services.ErrValidation, "gateway", op, "invalid settings", err)
	}
	payload := videoJobPayload{
		ScriptText: req.ScriptText,
		Characters: req.Characters,
		Scenes:     req.Scenes,
		Settings:   req.Settings,
	}
	if payload.Characters == nil {
		payload.Characters = []entity.Character{}
	}
	if payload.Scenes == nil {
		payload.Scenes = []entity.Scene{}
	}
	var resp submitResponse
	if err := c.doJSON(ctx, op, http.MethodPost, "/videos/generate", payload, &resp); err != nil {
		return SubmitResult{}, err
	}
	taskID := strings.TrimSpace(resp.TaskID)
	if taskID == "" {
		return SubmitResult{}, services.Wrap(services.ErrFormat, "gateway", op, "response missing task_id", nil)
	}
	return SubmitResult{TaskID: taskID}, nil
}

// FetchTaskStatus reads the current status of a job.
func (c *Client) FetchTaskStatus(ctx context.Context, taskID string) (TaskStatus, error) {
	const op = "fetch task status"
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return TaskStatus{}, services.Wrap(services.ErrValidation, "gateway", op, "task id is empty", nil)
	}
	ctx = services.WithTaskID(ctx, taskID)
	var resp statusResponse
	if err := c.doJSON(ctx, op, http.MethodGet, "/status/"+url.PathEscape(taskID), nil, &resp); err != nil {
		return TaskStatus{}, err
	}
	status, ok := entity.ParseTaskStatus(resp.Status)
	if !ok {
		return TaskStatus{}, services.Wrap(services.ErrFormat, "gateway", op, fmt.Sprintf("unknown status %q", resp.Status), nil)
	}
	out := TaskStatus{
		Status:   status,
		VideoURL: strings.TrimSpace(resp.VideoURL),
		Error:    strings.TrimSpace(resp.Error),
		Message:  strings.TrimSpace(resp.Message),
	}
	if resp.Progress != nil {
		progress := progressPercent(*resp.Progress)
		out.Progress = &progress
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, payload, out any) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return services.Wrap(services.ErrValidation, "gateway", op, "encode request", err)
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}
	return c.do(ctx, op, method, path, body, contentType, out)
}

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.base.JoinPath(path).String()
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return services.Wrap(services.ErrValidation, "gateway", op, "build request", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		req.Header.Set("X-Request-ID", rid)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		wrapped := services.Wrap(services.ErrTransport, "gateway", op, transportDetail(err), err)
		c.logOutcome(ctx, method, path, 0, start, wrapped)
		return wrapped
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		wrapped := services.Wrap(services.ErrTransport, "gateway", op, "read response", err)
		c.logOutcome(ctx, method, path, resp.StatusCode, start, wrapped)
		return wrapped
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{Code: resp.StatusCode, Body: truncateBody(data)}
		wrapped := services.Wrap(services.ErrServer, "gateway", op, "unexpected status", statusErr)
		c.logOutcome(ctx, method, path, resp.StatusCode, start, wrapped)
		return wrapped
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			wrapped := services.Wrap(services.ErrFormat, "gateway", op, "decode response", err)
			c.logOutcome(ctx, method, path, resp.StatusCode, start, wrapped)
			return wrapped
		}
	}
	c.logOutcome(ctx, method, path, resp.StatusCode, start, nil)
	return nil
}

func (c *Client) logOutcome(ctx context.Context, method, path string, status int, start time.Time, err error) {
	logger := logging.WithContext(ctx, c.logger)
	attrs := []logging.Attr{
		logging.String("method", method),
		logging.String("path", path),
		logging.Int("status", status),
		logging.Int64("duration_ms", time.Since(start).Milliseconds()),
	}
	if err == nil {
		attrs = append(attrs, logging.String("outcome", "ok"))
		logger.Debug("backend request completed", logging.Args(attrs...)...)
		return
	}
	attrs = append(attrs,
		logging.String("outcome", outcomeLabel(err)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, hintFor(err)),
	)
	logging.WarnWithContext(logger, "backend request failed", "gateway_request_failed", attrs...)
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, services.ErrTransport):
		return "transport_error"
	case errors.Is(err, services.ErrServer):
		return "server_error"
	case errors.Is(err, services.ErrFormat):
		return "format_error"
	default:
		return "error"
	}
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, services.ErrTransport):
		return "check that the backend is running and api.base_url is correct"
	case errors.Is(err, services.ErrServer):
		return "inspect the backend logs for the failing request"
	case errors.Is(err, services.ErrFormat):
		return "backend response shape does not match this client version"
	default:
		return "check logs for details"
	}
}

func transportDetail(err error) string {
	var netErr interface{ Timeout() bool }
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return "request timed out"
	}
	if errors.Is(err, context.Canceled) {
		return "request cancelled"
	}
	return "request failed"
}

func (r characterResponse) result() CharacterResult {
	fields := r.entityFields
	if r.Character != nil && fields == (entityFields{}) {
		fields = *r.Character
	}
	return CharacterResult{
		Name:       strings.TrimSpace(fields.Name),
		ImageURL:   firstNonEmpty(fields.ImageURL, fields.AppearancePath),
		VoiceModel: strings.TrimSpace(fields.VoiceModel),
	}
}

func (r sceneResponse) result() SceneResult {
	fields := r.entityFields
	if r.Scene != nil && fields == (entityFields{}) {
		fields = *r.Scene
	}
	return SceneResult{
		Name:      strings.TrimSpace(fields.Name),
		ImageURL:  firstNonEmpty(fields.ImageURL, fields.BackgroundPath),
		Mood:      strings.TrimSpace(fields.Mood),
		TimeOfDay: strings.TrimSpace(fields.TimeOfDay),
	}
}

// progressPercent clamps before converting so out-of-range floats cannot
// overflow int.
func progressPercent(value float64) int {
	if math.IsNaN(value) {
		return 0
	}
	return int(math.Round(math.Min(math.Max(value, 0), 100)))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
