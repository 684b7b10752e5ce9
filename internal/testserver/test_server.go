package testserver

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rpggio/gmboard/internal/broadcast"
	"github.com/rpggio/gmboard/internal/domain/activity"
	"github.com/rpggio/gmboard/internal/domain/campaign"
	"github.com/rpggio/gmboard/internal/domain/mutation"
	"github.com/rpggio/gmboard/internal/domain/system"
	"github.com/rpggio/gmboard/internal/overlay"
	"github.com/rpggio/gmboard/internal/sqlite"
	"github.com/rpggio/gmboard/internal/transport"
	"github.com/stretchr/testify/require"
)

// TestServer is a fully wired store behind an httptest server.
type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	Services transport.Services
}

// New starts a server on a fresh in-memory database named after the test.
func New(t *testing.T, opts ...campaign.Option) *TestServer {
	t.Helper()
	return NewWithRepository(t, nil, opts...)
}

// NewWithRepository is New with the campaign store passed through wrap, so
// tests can interleave work with store calls.
func NewWithRepository(t *testing.T, wrap func(campaign.Repository) campaign.Repository, opts ...campaign.Option) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	var repo campaign.Repository = sqlite.NewCampaignRepository(db)
	if wrap != nil {
		repo = wrap(repo)
	}
	svc := newServices(db, repo, opts...)
	server := httptest.NewServer(transport.NewServer(svc, nil))

	t.Cleanup(func() {
		server.Close()
		svc.Hub.Close()
		_ = db.Close()
	})

	return &TestServer{Server: server, DB: db, Services: svc}
}

// NewServices wires the domain services on top of db.
func NewServices(db *sqlite.DB, opts ...campaign.Option) transport.Services {
	return newServices(db, sqlite.NewCampaignRepository(db), opts...)
}

func newServices(db *sqlite.DB, repo campaign.Repository, opts ...campaign.Option) transport.Services {
	catalog := system.Builtin()
	hub := broadcast.NewHub(broadcast.DefaultQueueSize, nil)
	activityRepo := sqlite.NewActivityRepository(db)

	opts = append([]campaign.Option{
		campaign.WithNotifier(hub),
		campaign.WithActivities(activityRepo),
	}, opts...)
	campaigns := campaign.NewService(repo, catalog, nil, opts...)

	registry := overlay.DefaultRegistry()
	for _, sys := range catalog.List() {
		registry.Bind(sys.Name, sys.Layout)
	}

	return transport.Services{
		Campaigns: campaigns,
		Mutations: mutation.NewService(campaigns, nil),
		Systems:   catalog,
		Overlay:   overlay.NewResolver(registry),
		Activity:  activity.NewService(activityRepo, nil),
		Hub:       hub,
	}
}

// URL is the base HTTP address.
func (ts *TestServer) URL() string {
	return ts.Server.URL
}

// WSURL is the websocket push endpoint.
func (ts *TestServer) WSURL() string {
	return "ws" + strings.TrimPrefix(ts.Server.URL, "http") + "/ws"
}
