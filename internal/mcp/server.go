package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/gmboard/internal/domain/activity"
	"github.com/rpggio/gmboard/internal/domain/campaign"
	"github.com/rpggio/gmboard/internal/domain/mutation"
	"github.com/rpggio/gmboard/internal/domain/system"
	"github.com/rpggio/gmboard/internal/overlay"
)

// CampaignService defines campaign operations needed by MCP.
type CampaignService interface {
	List(ctx context.Context) ([]campaign.Campaign, error)
	Get(ctx context.Context, id int64) (*campaign.Campaign, error)
	Create(ctx context.Context, req campaign.CreateRequest) (*campaign.Campaign, error)
	AddCharacter(ctx context.Context, campaignID int64, req campaign.AddCharacterRequest) (*campaign.Character, error)
}

// MutationService defines mutation operations needed by MCP.
type MutationService interface {
	Apply(ctx context.Context, campaignID, characterID int64, m mutation.Mutation) (*campaign.Character, error)
}

// SystemCatalog defines rule system lookups needed by MCP.
type SystemCatalog interface {
	Get(name string) (system.System, error)
	List() []system.System
}

// OverlayResolver builds viewer-facing overlays.
type OverlayResolver interface {
	Resolve(c campaign.Campaign, a overlay.Address) overlay.View
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error)
}

// Services contains all domain services needed by MCP. Activity is
// optional.
type Services struct {
	Campaigns CampaignService
	Mutations MutationService
	Systems   SystemCatalog
	Overlay   OverlayResolver
	Activity  ActivityService
}

// Config contains server configuration.
type Config struct {
	Services Services
	Version  string
	Logger   *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and
// resources.
func NewServer(cfg Config) *sdkmcp.Server {
	version := cfg.Version
	if version == "" {
		version = "0.1.0"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "gmboard",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Services)

	return server
}
