package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `gmboard holds the live state of tabletop campaigns: Campaigns → Characters → Stats.

Core concepts:
- Campaign: a named party bound to a rule system (e.g. "Generic", "Ordem Paranormal"). Ids are small integers assigned in order.
- Character: name, icon, color, visible flag and an ordered list of stats copied from the system template when added.
- Stat: a named value that is a number, a boolean or a string. A stat with a max is a gauge (e.g. HP 40/100).
- Overlay: the public, read-only view a stream overlay renders. Hidden characters never appear in it.

Workflow:
1) Orient: list_campaigns, or get_campaign when you know the id. list_systems shows the stat templates.
2) Edit: apply_mutation changes one field or one stat. Numbers are parsed leniently; anything unparsable becomes 0. Gauges are kept within [0, max].
3) Verify: get_overlay shows what viewers see right now.

Every write is pushed to connected dashboards and overlays immediately.

Docs:
- gmboard://docs/index
- gmboard://docs/mutations
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "gmboard://docs/index",
		Name:        "docs_index",
		Title:       "gmboard docs index",
		Description: "Entry point: what the tools do and which doc to read next.",
		Content: `# gmboard: Agent Docs Index

## Tools

- list_campaigns: every campaign with its characters.
- get_campaign: one campaign by id.
- create_campaign: new campaign with a name and a system.
- add_character: appends a character; stats come from the campaign's system template.
- apply_mutation: single-field edit of a character (see gmboard://docs/mutations).
- get_overlay: the viewer-facing layout for a campaign, optionally one character and a layout variation.
- list_systems: rule systems and their default stats.
- get_recent_activity: what changed in a campaign, newest first.

## Limits

- Stats cannot be added or removed after a character is created.
- A stat keeps its kind: a number stays a number.
- Concurrent editors are not serialized; the last write wins.
`,
	},
	{
		URI:         "gmboard://docs/mutations",
		Name:        "docs_mutations",
		Title:       "Mutations",
		Description: "Fields, value parsing and bounds for apply_mutation.",
		Content: `# Mutations

A mutation is {field, stat_name, value}.

| field | target | value |
|---|---|---|
| name, icon, color | character | text |
| visible | character | boolean |
| statValue | stat_name | number stats: integer, "12", "12abc" → 12, "abc" → 0; boolean stats: true/false; string stats: text |
| statMax | stat_name (gauges only) | integer, parsed like statValue |

Gauge values are clamped to [0, max]. Lowering a max also lowers the value when needed.

Applying the same statValue twice leaves the character as after the first.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
