// Package rpc adapts Connect unary calls to transport functions.
package rpc

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"

	"github.com/rmrevin/ngrm/transport"
)

// UnaryFunc is the shape of a generated Connect client method or of
// (*connect.Client).CallUnary.
type UnaryFunc[Req, Res any] func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error)

// Unary wraps call as a transport. The procedure is reported as the URL in
// metadata. Response headers and trailers are merged into the metadata
// headers, and Connect error codes are mapped to HTTP statuses.
func Unary[Req, Res any](procedure string, call UnaryFunc[Req, Res]) transport.Func[*Req, *Res] {
	return func(ctx context.Context, params *Req) (*transport.Response[*Res], error) {
		res, err := call(ctx, connect.NewRequest(params))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			te := &transport.Error{URL: procedure, Status: http.StatusInternalServerError, Err: err}
			var ce *connect.Error
			if errors.As(err, &ce) {
				te.Status = StatusOf(ce.Code())
				te.Header = ce.Meta()
			}
			return nil, te
		}

		header := res.Header().Clone()
		for k, vs := range res.Trailer() {
			for _, v := range vs {
				header.Add(k, v)
			}
		}
		return &transport.Response[*Res]{
			Body:   res.Msg,
			URL:    procedure,
			Status: http.StatusOK,
			Header: header,
		}, nil
	}
}

// StatusOf maps a Connect code to the HTTP status Connect uses for it.
func StatusOf(code connect.Code) int {
	switch code {
	case connect.CodeCanceled:
		return 499
	case connect.CodeInvalidArgument, connect.CodeFailedPrecondition, connect.CodeOutOfRange:
		return http.StatusBadRequest
	case connect.CodeDeadlineExceeded:
		return http.StatusGatewayTimeout
	case connect.CodeNotFound:
		return http.StatusNotFound
	case connect.CodeAlreadyExists, connect.CodeAborted:
		return http.StatusConflict
	case connect.CodePermissionDenied:
		return http.StatusForbidden
	case connect.CodeResourceExhausted:
		return http.StatusTooManyRequests
	case connect.CodeUnimplemented:
		return http.StatusNotImplemented
	case connect.CodeUnavailable:
		return http.StatusServiceUnavailable
	case connect.CodeUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
