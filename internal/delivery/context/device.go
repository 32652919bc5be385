package context

import (
	"net"
	"strings"

	"arcana/internal/domain/entity"

	"github.com/labstack/echo/v4"
)

// ExtractDeviceInfo captures the device context of a request for session
// binding. The client IP prefers the first X-Forwarded-For hop, then
// X-Real-IP, then the socket address.
func ExtractDeviceInfo(c echo.Context) entity.DeviceInfo {
	return entity.DeviceInfo{
		UserAgent: c.Request().UserAgent(),
		IPAddress: clientIP(c),
	}
}

func clientIP(c echo.Context) string {
	if fwd := c.Request().Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if real := c.Request().Header.Get("X-Real-IP"); real != "" {
		return strings.TrimSpace(real)
	}

	host, _, err := net.SplitHostPort(c.Request().RemoteAddr)
	if err != nil {
		return c.Request().RemoteAddr
	}

	return host
}
