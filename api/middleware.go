package api

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// DecompressRequests lets clients gzip their JSON bodies; handlers always
// see the plain payload. A body that claims gzip but isn't is a 400.
func DecompressRequests() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			encoding := req.Header.Get(echo.HeaderContentEncoding)
			if !strings.Contains(strings.ToLower(encoding), "gzip") {
				return next(c)
			}
			raw := req.Body
			gr, err := gzip.NewReader(raw)
			if err != nil {
				_ = raw.Close()
				return echo.NewHTTPError(http.StatusBadRequest, "invalid gzip body")
			}
			req.Body = readCloserPair{gr, raw}
			req.ContentLength = -1
			req.Header.Del(echo.HeaderContentEncoding)
			req.Header.Del(echo.HeaderContentLength)
			return next(c)
		}
	}
}

// readCloserPair closes the decompressor and the underlying body in order.
type readCloserPair struct {
	io.ReadCloser
	underlying io.Closer
}

func (p readCloserPair) Close() error {
	err := p.ReadCloser.Close()
	if cerr := p.underlying.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
