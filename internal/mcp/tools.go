package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/gmboard/internal/domain/activity"
	"github.com/rpggio/gmboard/internal/domain/campaign"
	"github.com/rpggio/gmboard/internal/domain/mutation"
	"github.com/rpggio/gmboard/internal/overlay"
)

// registerTools adds every tool. Results are returned as JSON text since
// stat values are bare scalars that no inferred schema describes.
func registerTools(server *sdkmcp.Server, svc Services) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_campaigns",
		Description: "List every campaign with its characters and their stats",
	}, listCampaignsHandler(svc))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_campaign",
		Description: "Get one campaign with its characters",
	}, getCampaignHandler(svc))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_campaign",
		Description: "Create a campaign for a rule system; it starts with no characters",
	}, createCampaignHandler(svc))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "add_character",
		Description: "Add a character to a campaign; stats are copied from the system template",
	}, addCharacterHandler(svc))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "apply_mutation",
		Description: "Change one field or one stat of a character (see gmboard://docs/mutations)",
	}, applyMutationHandler(svc))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_overlay",
		Description: "Get the viewer-facing overlay of a campaign; hidden characters are left out",
	}, getOverlayHandler(svc))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_systems",
		Description: "List rule systems and their default stats",
	}, listSystemsHandler(svc))

	if svc.Activity != nil {
		sdkmcp.AddTool(server, &sdkmcp.Tool{
			Name:        "get_recent_activity",
			Description: "List recent changes to a campaign, newest first",
		}, getRecentActivityHandler(svc))
	}
}

func listCampaignsHandler(svc Services) sdkmcp.ToolHandlerFor[ListCampaignsParams, any] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ ListCampaignsParams) (*sdkmcp.CallToolResult, any, error) {
		campaigns, err := svc.Campaigns.List(ctx)
		if err != nil {
			return nil, nil, toolError(err)
		}
		return jsonResult(CampaignsResult{Campaigns: campaigns})
	}
}

func getCampaignHandler(svc Services) sdkmcp.ToolHandlerFor[GetCampaignParams, any] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetCampaignParams) (*sdkmcp.CallToolResult, any, error) {
		c, err := svc.Campaigns.Get(ctx, in.CampaignID)
		if err != nil {
			return nil, nil, toolError(err)
		}
		return jsonResult(c)
	}
}

func createCampaignHandler(svc Services) sdkmcp.ToolHandlerFor[CreateCampaignParams, any] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, in CreateCampaignParams) (*sdkmcp.CallToolResult, any, error) {
		if in.System != "" {
			if _, err := svc.Systems.Get(in.System); err != nil {
				return nil, nil, toolError(err)
			}
		}
		c, err := svc.Campaigns.Create(ctx, campaign.CreateRequest{Name: in.Name, System: in.System})
		if err != nil {
			return nil, nil, toolError(err)
		}
		return jsonResult(c)
	}
}

func addCharacterHandler(svc Services) sdkmcp.ToolHandlerFor[AddCharacterParams, any] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, in AddCharacterParams) (*sdkmcp.CallToolResult, any, error) {
		ch, err := svc.Campaigns.AddCharacter(ctx, in.CampaignID, campaign.AddCharacterRequest{
			Name:  in.Name,
			Icon:  in.Icon,
			Color: in.Color,
		})
		if err != nil {
			return nil, nil, toolError(err)
		}
		return jsonResult(ch)
	}
}

func applyMutationHandler(svc Services) sdkmcp.ToolHandlerFor[ApplyMutationParams, any] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, in ApplyMutationParams) (*sdkmcp.CallToolResult, any, error) {
		ch, err := svc.Mutations.Apply(ctx, in.CampaignID, in.CharacterID, mutation.Mutation{
			Field:    mutation.Field(in.Field),
			StatName: in.StatName,
			Value:    in.Value,
		})
		if err != nil {
			return nil, nil, toolError(err)
		}
		return jsonResult(ch)
	}
}

func getOverlayHandler(svc Services) sdkmcp.ToolHandlerFor[GetOverlayParams, any] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetOverlayParams) (*sdkmcp.CallToolResult, any, error) {
		if in.CampaignID <= 0 {
			return nil, nil, toolError(fmt.Errorf("%w: campaign_id is required", overlay.ErrInvalidAddress))
		}
		addr := overlay.Address{CampaignID: in.CampaignID, CharacterID: in.CharacterID, Variation: in.Variation}
		c, err := svc.Campaigns.Get(ctx, addr.CampaignID)
		if err != nil {
			return nil, nil, toolError(err)
		}
		return jsonResult(OverlayResult{Overlay: svc.Overlay.Resolve(*c, addr), Path: addr.Path()})
	}
}

func listSystemsHandler(svc Services) sdkmcp.ToolHandlerFor[ListSystemsParams, any] {
	return func(_ context.Context, _ *sdkmcp.CallToolRequest, in ListSystemsParams) (*sdkmcp.CallToolResult, any, error) {
		if in.Name != "" {
			sys, err := svc.Systems.Get(in.Name)
			if err != nil {
				return nil, nil, toolError(err)
			}
			return jsonResult(sys)
		}
		return jsonResult(SystemsResult{Systems: svc.Systems.List()})
	}
}

func getRecentActivityHandler(svc Services) sdkmcp.ToolHandlerFor[GetRecentActivityParams, any] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetRecentActivityParams) (*sdkmcp.CallToolResult, any, error) {
		entries, err := svc.Activity.GetRecentActivity(ctx, activity.ListOptions{
			CampaignID:  in.CampaignID,
			CharacterID: in.CharacterID,
			Limit:       in.Limit,
		})
		if err != nil {
			return nil, nil, toolError(err)
		}
		return jsonResult(ActivityResult{Entries: entries})
	}
}

func jsonResult(v any) (*sdkmcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding result: %w", err)
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}
