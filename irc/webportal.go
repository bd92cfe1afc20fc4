package irc

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// WebPortal exposes a small read-only JSON API about the running server:
// live stats, the user list and the channel list.
type WebPortal struct {
	server *Server
	echo   *echo.Echo
}

// NewWebPortal wires the portal routes against a server.
func NewWebPortal(s *Server) *WebPortal {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	p := &WebPortal{server: s, echo: e}

	e.GET("/api/stats", p.handleStats)
	e.GET("/api/users", p.handleUsers)
	e.GET("/api/channels", p.handleChannels)

	return p
}

// Start serves the portal until Stop is called.
func (p *WebPortal) Start() {
	addr := p.server.config.GetWebListenAddress()
	p.server.log.Info().Str("addr", addr).Msg("web portal listening")
	if err := p.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		p.server.log.Error().Err(err).Msg("web portal stopped")
	}
}

// Stop shuts the portal down.
func (p *WebPortal) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.echo.Shutdown(ctx); err != nil {
		p.server.log.Error().Err(err).Msg("web portal shutdown")
	}
}

func (p *WebPortal) handleStats(c echo.Context) error {
	stats := p.server.GetStats()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"name":     stats.Name,
		"network":  stats.Network,
		"clients":  stats.Clients,
		"channels": stats.Channels,
		"uptime":   stats.Uptime.Round(time.Second).String(),
	})
}

func (p *WebPortal) handleUsers(c echo.Context) error {
	users := p.server.GetUserList()
	sort.Strings(users)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count": len(users),
		"users": users,
	})
}

func (p *WebPortal) handleChannels(c echo.Context) error {
	channels := p.server.GetChannelList()
	sort.Slice(channels, func(i, j int) bool { return channels[i].Name < channels[j].Name })
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":    len(channels),
		"channels": channels,
	})
}
