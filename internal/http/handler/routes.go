package handler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"puttr/internal/http/middleware"
	"puttr/internal/service"
)

const (
	contentField  = "content"
	authScheme    = "Token"
	healthTimeout = 2 * time.Second
)

// RouteOptions carries the settings the routes read.
type RouteOptions struct {
	// AppHost is the public host[:port] shown in the landing page examples.
	AppHost string
	// TokenRatePerMinute rate limits GET /token per client IP when positive.
	TokenRatePerMinute int
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, svc service.UploadService, log *zap.Logger, opts RouteOptions) {
	app.Get("/", Index(opts.AppHost))

	tokenHandlers := []fiber.Handler{IssueToken(svc)}
	if opts.TokenRatePerMinute > 0 {
		tokenHandlers = append([]fiber.Handler{middleware.NewRateLimiter(opts.TokenRatePerMinute).Handler()}, tokenHandlers...)
	}
	app.Get("/token", tokenHandlers...)

	app.Put("/data", PutData(svc, log))
	app.Get("/uploads", ListUploads(svc))

	app.Get("/health", HealthCheck(svc))
	app.Get("/healthz", LivenessProbe())
}

// Index serves the landing page. Its curl examples point at host, or at the
// request's Host header when host is empty.
func Index(host string) fiber.Handler {
	var page string
	if host != "" {
		page = fmt.Sprintf(indexHTML, html.EscapeString(host), html.EscapeString(host))
	}
	return func(c *fiber.Ctx) error {
		if page != "" {
			return c.Type("html", "utf-8").SendString(page)
		}
		h := html.EscapeString(c.Hostname())
		return c.Type("html", "utf-8").SendString(fmt.Sprintf(indexHTML, h, h))
	}
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8" /><title>puttr</title></head>
<body>
  <h1>puttr</h1>
  <p>Get a token with <code>GET /token</code>. It is valid for a few minutes.</p>
  <p>Send your content as a PUT request to <code>/data</code> with the header
  <code>Authorization: Token &lt;token&gt;</code> and the key <code>content</code>, e.g.:</p>
  <pre>
curl -X PUT -H "Authorization: Token $(curl -s %s/token)" \
     -F content='hello world' %s/data
  </pre>
  <p>The request <code>Content-Type</code> decides the stored file extension.</p>
</body>
</html>`

// IssueToken godoc
// @Summary Issue an upload token
// @Description Returns a new opaque bearer token valid for a limited time.
// @Tags token
// @Produce plain
// @Success 200 {string} string "token"
// @Failure 429 {object} errorPayload
// @Router /token [get]
func IssueToken(svc service.UploadService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok := svc.IssueToken(c.UserContext())
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.SendString(tok)
	}
}

// PutData godoc
// @Summary Store content
// @Description Writes the content field (query, form, multipart or JSON body)
// @Description to a timestamped file. The extension follows the Content-Type header.
// @Tags data
// @Accept plain,x-www-form-urlencoded,mpfd,json
// @Produce plain
// @Param Authorization header string true "Token <token>"
// @Param content formData string false "content to store"
// @Success 200 {string} string "success"
// @Failure 401 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /data [put]
func PutData(svc service.UploadService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			c.Set(fiber.HeaderWWWAuthenticate, authScheme)
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token")
		}

		content, contentType, err := readContent(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "cannot read content")
		}

		_, err = svc.Upload(c.UserContext(), tok, content, contentType)
		switch {
		case err == nil:
			return c.SendString("success")
		case errors.Is(err, service.ErrUnauthorized):
			c.Set(fiber.HeaderWWWAuthenticate, authScheme)
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token")
		case errors.Is(err, service.ErrContentRequired):
			return writeError(c, fiber.StatusNotFound, "CONTENT_REQUIRED", "content is required")
		default:
			log.Error("upload_failed",
				zap.String("request_id", middleware.RequestIDFromCtx(c)),
				zap.Error(err),
			)
			return writeError(c, fiber.StatusInternalServerError, "STORAGE_FAILURE", "upload could not be stored")
		}
	}
}

// ListUploads godoc
// @Summary List recorded uploads
// @Tags data
// @Produce json
// @Param limit query int false "page size" default(10)
// @Param offset query int false "page offset" default(0)
// @Success 200 {object} service.UploadListResult
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /uploads [get]
func ListUploads(svc service.UploadService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			if errors.Is(err, service.ErrLedgerDisabled) {
				return writeError(c, fiber.StatusNotFound, "LEDGER_DISABLED", "upload ledger is not configured")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// HealthCheck godoc
// @Summary Readiness probe
// @Description Checks the storage backend and, when configured, the ledger database.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(svc service.UploadService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
		defer cancel()
		if err := svc.Ping(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe answers 200 as long as the process serves requests.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// bearerToken extracts <t> from "Token <t>". The scheme is case-insensitive.
func bearerToken(header string) (string, bool) {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, authScheme) {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}

// readContent returns the content field and its declared media type.
//
// The field is looked up in the query string, an urlencoded body, a
// multipart body or a JSON object body. A multipart file part named content
// carries its own Content-Type. A request without the field yields nil
// content.
func readContent(c *fiber.Ctx) ([]byte, string, error) {
	contentType := c.Get(fiber.HeaderContentType)

	if v := c.FormValue(contentField); v != "" {
		return []byte(v), contentType, nil
	}

	switch {
	case isMediaType(contentType, fiber.MIMEMultipartForm):
		fh, err := c.FormFile(contentField)
		if err != nil {
			// no such part: treated as missing content
			return nil, contentType, nil
		}
		f, err := fh.Open()
		if err != nil {
			return nil, "", err
		}
		defer f.Close()
		b, err := io.ReadAll(f)
		if err != nil {
			return nil, "", err
		}
		if partType := fh.Header.Get(fiber.HeaderContentType); partType != "" {
			contentType = partType
		}
		return b, contentType, nil
	case isMediaType(contentType, fiber.MIMEApplicationJSON):
		if len(c.Body()) == 0 {
			return nil, contentType, nil
		}
		var body contentBody
		if err := c.BodyParser(&body); err != nil {
			return nil, "", err
		}
		if body.Content == "" {
			return nil, contentType, nil
		}
		return []byte(body.Content), contentType, nil
	default:
		return nil, contentType, nil
	}
}

// contentBody is the JSON request shape accepted by PUT /data.
type contentBody struct {
	Content string `json:"content"`
}

func isMediaType(header, mediaType string) bool {
	base, _, _ := strings.Cut(header, ";")
	return strings.EqualFold(strings.TrimSpace(base), mediaType)
}
