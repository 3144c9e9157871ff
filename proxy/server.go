package proxy

import (
	"context"
	"encoding/base64"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/prognoshealth/todolambda/logging"
)

// DefaultMaxBodyBytes bounds the request bodies the Server reads.
const DefaultMaxBodyBytes = 1 << 20

// Server serves a Router over net/http by converting every request into the
// API Gateway v2 event the router expects.
type Server struct {
	Router       *Router
	MaxBodyBytes int64

	logger *zap.Logger
}

// NewServer returns a Server for router.
func NewServer(router *Router, logger *zap.Logger) *Server {
	return &Server{
		Router:       router,
		MaxBodyBytes: DefaultMaxBodyBytes,
		logger:       logging.OrNop(logger),
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	request, err := NewAPIGatewayV2HTTPRequest(r, s.MaxBodyBytes)
	if err != nil {
		s.logger.Warn("unable to read request", zap.String("path", r.URL.Path), zap.Error(err))
		response, _ := ErrorResponse(http.StatusBadRequest, MsgInvalidBody, err.Error())
		WriteResponse(w, response)
		return
	}

	response, err := s.Router.Route(r.Context(), request)
	if err != nil {
		s.logger.Error("route failed", zap.String("path", r.URL.Path), zap.Error(err))
		response, _ = ErrorResponse(http.StatusInternalServerError, MsgInternal, err.Error())
	}

	WriteResponse(w, response)

	s.logger.Debug("served",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", statusOf(response)),
		zap.Duration("duration", time.Since(start)),
		zap.String("request_id", request.RequestContext.RequestID))
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	s.logger.Info("listening", zap.String("addr", addr))

	select {
	case err := <-errc:
		return errors.Wrapf(err, "failed serving on %s", addr)
	case <-ctx.Done():
	}

	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdown); err != nil {
		return errors.Wrap(err, "failed shutting down server")
	}

	return nil
}

// NewAPIGatewayV2HTTPRequest converts r into the event API Gateway would send
// for it. Multi valued headers and query parameters are joined with commas
// like API Gateway does. Bodies that are not valid UTF-8 are base64 encoded.
func NewAPIGatewayV2HTTPRequest(r *http.Request, maxBodyBytes int64) (events.APIGatewayV2HTTPRequest, error) {
	var body []byte
	if r.Body != nil {
		reader := io.Reader(r.Body)
		if maxBodyBytes > 0 {
			reader = io.LimitReader(r.Body, maxBodyBytes+1)
		}

		b, err := io.ReadAll(reader)
		if err != nil {
			return events.APIGatewayV2HTTPRequest{}, errors.Wrap(err, "unable to read request body")
		}

		if maxBodyBytes > 0 && int64(len(b)) > maxBodyBytes {
			return events.APIGatewayV2HTTPRequest{}, errors.Errorf("request body exceeds %d bytes", maxBodyBytes)
		}

		body = b
	}

	headers := make(map[string]string, len(r.Header))
	for k, v := range r.Header {
		headers[strings.ToLower(k)] = strings.Join(v, ",")
	}

	var query map[string]string
	if values := r.URL.Query(); len(values) > 0 {
		query = make(map[string]string, len(values))
		for k, v := range values {
			query[k] = strings.Join(v, ",")
		}
	}

	var cookies []string
	for _, c := range r.Cookies() {
		cookies = append(cookies, c.String())
	}

	request := events.APIGatewayV2HTTPRequest{
		Version:               "2.0",
		RouteKey:              "$default",
		RawPath:               r.URL.Path,
		RawQueryString:        r.URL.RawQuery,
		Cookies:               cookies,
		Headers:               headers,
		QueryStringParameters: query,
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			RouteKey:  "$default",
			RequestID: uuid.NewString(),
			Stage:     "$default",
			Time:      time.Now().UTC().Format("02/Jan/2006:15:04:05 -0700"),
			TimeEpoch: time.Now().UnixMilli(),
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method:    strings.ToUpper(r.Method),
				Path:      r.URL.Path,
				Protocol:  r.Proto,
				SourceIP:  sourceIP(r.RemoteAddr),
				UserAgent: r.UserAgent(),
			},
		},
	}

	if utf8.Valid(body) {
		request.Body = string(body)
	} else {
		request.Body = base64.StdEncoding.EncodeToString(body)
		request.IsBase64Encoded = true
	}

	return request, nil
}

// WriteResponse writes response to w. A zero status code is written as 200.
func WriteResponse(w http.ResponseWriter, response events.APIGatewayProxyResponse) {
	for k, v := range response.Headers {
		w.Header().Set(k, v)
	}

	for k, values := range response.MultiValueHeaders {
		for _, v := range values {
			w.Header().Add(k, v)
		}
	}

	w.WriteHeader(statusOf(response))

	if response.Body == "" {
		return
	}

	body := []byte(response.Body)
	if response.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(response.Body)
		if err == nil {
			body = decoded
		}
	}

	_, _ = w.Write(body)
}

func statusOf(response events.APIGatewayProxyResponse) int {
	if response.StatusCode == 0 {
		return http.StatusOK
	}

	return response.StatusCode
}

func sourceIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}

	return host
}
