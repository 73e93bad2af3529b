package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/freelancer-bff/internal/auth"
	"github.com/spec-kit/freelancer-bff/internal/upstream"
	apperrors "github.com/spec-kit/freelancer-bff/pkg/util"
)

// SubjectParam in an upstream path is replaced by the authenticated subject id.
const SubjectParam = ":subject"

// Forwarder sends a request to the upstream backend.
type Forwarder interface {
	Do(ctx context.Context, method, path, rawQuery string, body []byte) (*upstream.Response, error)
}

// Injection forces a field of the JSON request body. When Param is set the
// field gets that path parameter as an integer, otherwise it gets Value.
type Injection struct {
	Field string
	Param string
	Value any
}

// Target describes where and how an inbound route is forwarded.
type Target struct {
	Method string
	Path   string
	// Status overrides the success status; zero picks one from the inbound method.
	Status int
	Inject []Injection
}

// ProxyHandler forwards gated requests to the upstream backend.
type ProxyHandler struct {
	upstream Forwarder
	logger   *zap.Logger
}

// NewProxyHandler constructs handler.
func NewProxyHandler(forwarder Forwarder, logger *zap.Logger) *ProxyHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProxyHandler{upstream: forwarder, logger: logger}
}

// Forward returns a handler sending the request to target. inboundMethod
// picks the default success status.
func (h *ProxyHandler) Forward(inboundMethod string, target Target) fiber.Handler {
	status := target.Status
	if status == 0 {
		status = defaultStatus(inboundMethod)
	}

	return func(c *fiber.Ctx) error {
		params := c.AllParams()
		if err := validateIDParams(params); err != nil {
			return err
		}

		path, err := resolvePath(c, target.Path, params)
		if err != nil {
			return err
		}

		body, err := buildBody(c.Body(), target.Inject, params)
		if err != nil {
			return err
		}

		query := string(c.Request().URI().QueryString())
		resp, err := h.upstream.Do(c.UserContext(), target.Method, path, query, body)
		if err != nil {
			h.logger.Debug("forward failed",
				zap.String("method", target.Method),
				zap.String("path", path),
				zap.Error(err))
			return err
		}

		if status == http.StatusNoContent || len(resp.Body) == 0 {
			return c.SendStatus(status)
		}
		contentType := resp.ContentType
		if contentType == "" {
			contentType = fiber.MIMEApplicationJSON
		}
		c.Set(fiber.HeaderContentType, contentType)
		return c.Status(status).Send(resp.Body)
	}
}

func defaultStatus(method string) int {
	switch method {
	case http.MethodPost:
		return http.StatusCreated
	case http.MethodDelete:
		return http.StatusNoContent
	default:
		return http.StatusOK
	}
}

// IsIDParam reports whether a path parameter must hold a positive integer.
func IsIDParam(name string) bool {
	return name == "id" || strings.HasSuffix(name, "Id")
}

func validateIDParams(params map[string]string) error {
	for name, value := range params {
		if !IsIDParam(name) {
			continue
		}
		if _, err := parseID(value); err != nil {
			return apperrors.NewValidationError(name+" must be a positive integer", map[string]any{"param": name, "value": value})
		}
	}
	return nil
}

func parseID(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, strconv.ErrRange
	}
	return id, nil
}

// resolvePath fills :name segments of template from params and :subject from
// the authenticated identity. Param values are forwarded as received.
func resolvePath(c *fiber.Ctx, template string, params map[string]string) (string, error) {
	segments := strings.Split(template, "/")
	for i, segment := range segments {
		if !strings.HasPrefix(segment, ":") {
			continue
		}
		if segment == SubjectParam {
			identity, ok := auth.IdentityFromContext(c)
			if !ok {
				return "", apperrors.NewUnauthorized("not authenticated")
			}
			segments[i] = strconv.FormatInt(identity.SubjectID, 10)
			continue
		}
		value, ok := params[segment[1:]]
		if !ok {
			return "", apperrors.NewInternalError(nil)
		}
		segments[i] = value
	}
	return strings.Join(segments, "/"), nil
}

func buildBody(raw []byte, inject []Injection, params map[string]string) ([]byte, error) {
	trimmed := strings.TrimSpace(string(raw))
	if len(inject) == 0 {
		if trimmed == "" {
			return nil, nil
		}
		if !json.Valid(raw) {
			return nil, apperrors.NewValidationError("request body must be valid JSON", nil)
		}
		return append([]byte(nil), raw...), nil
	}

	payload := map[string]any{}
	if trimmed != "" {
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, apperrors.NewValidationError("request body must be a JSON object", nil)
		}
		if payload == nil {
			payload = map[string]any{}
		}
	}

	for _, in := range inject {
		if in.Param == "" {
			payload[in.Field] = in.Value
			continue
		}
		id, err := parseID(params[in.Param])
		if err != nil {
			return nil, apperrors.NewValidationError(in.Param+" must be a positive integer", nil)
		}
		payload[in.Field] = id
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return encoded, nil
}
