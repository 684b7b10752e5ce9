package transport_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/rpggio/gmboard/internal/broadcast"
	"github.com/rpggio/gmboard/internal/domain/campaign"
	"github.com/rpggio/gmboard/internal/testserver"
	"github.com/rpggio/gmboard/internal/transport"
)

func dial(t *testing.T, ts *testserver.TestServer) *websocket.Conn {
	t.Helper()
	conn, err := websocket.Dial(ts.WSURL(), "", ts.URL())
	require.NoError(t, err)
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, frameType, requestID string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, websocket.JSON.Send(conn, transport.Frame{Type: frameType, RequestID: requestID, Payload: data}))
}

func receive(t *testing.T, conn *websocket.Conn) transport.Frame {
	t.Helper()
	var frame transport.Frame
	require.NoError(t, websocket.JSON.Receive(conn, &frame))
	return frame
}

func join(t *testing.T, conn *websocket.Conn, campaignID int64) transport.JoinedPayload {
	t.Helper()
	send(t, conn, transport.FrameCampaignJoin, "join", transport.JoinPayload{CampaignID: campaignID})
	frame := receive(t, conn)
	require.Equal(t, transport.FrameCampaignJoined, frame.Type, string(frame.Payload))
	require.Equal(t, "join", frame.RequestID)
	var joined transport.JoinedPayload
	require.NoError(t, json.Unmarshal(frame.Payload, &joined))
	return joined
}

func TestWS_JoinReturnsSnapshot(t *testing.T) {
	ts := testserver.New(t)
	seed(t, ts)
	conn := dial(t, ts)

	joined := join(t, conn, 1)
	require.Equal(t, int64(1), joined.CampaignID)
	require.NotEmpty(t, joined.SubscriberID)
	require.Equal(t, int64(1), joined.LatestSeq)
	require.NotNil(t, joined.Campaign)
	require.Len(t, joined.Campaign.Characters, 1)
	require.Eventually(t, func() bool { return ts.Services.Hub.Subscribers(1) == 1 }, time.Second, 10*time.Millisecond)
}

func TestWS_JoinUnknownCampaign(t *testing.T) {
	ts := testserver.New(t)
	conn := dial(t, ts)

	send(t, conn, transport.FrameCampaignJoin, "j1", transport.JoinPayload{CampaignID: 7})
	frame := receive(t, conn)
	require.Equal(t, transport.FrameError, frame.Type)
	require.Equal(t, "j1", frame.RequestID)
	var payload transport.ErrorPayload
	require.NoError(t, json.Unmarshal(frame.Payload, &payload))
	require.Equal(t, transport.CodeNotFound, payload.Code)
	require.Zero(t, ts.Services.Hub.Subscribers(7))
}

func TestWS_BroadcastsRESTWrites(t *testing.T) {
	ts := testserver.New(t)
	seed(t, ts)
	viewer := dial(t, ts)
	joined := join(t, viewer, 1)

	resp := do(t, http.MethodPut, ts.URL()+"/api/campaigns/1/characters/1", `{"stats":[{"name":"HP","value":40}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	frame := receive(t, viewer)
	require.Equal(t, transport.FrameCharacterUpdated, frame.Type)
	var ev broadcast.Event
	require.NoError(t, json.Unmarshal(frame.Payload, &ev))
	require.Equal(t, joined.LatestSeq+1, ev.Seq)
	require.NotNil(t, ev.Character)
	hp, _, _ := ev.Character.Stat("HP")
	require.Equal(t, campaign.NumberValue(40), hp.Value)
}

func TestWS_UpdateAndMutateFrames(t *testing.T) {
	ts := testserver.New(t)
	seed(t, ts)
	conn := dial(t, ts)
	join(t, conn, 1)

	name := "Renamed"
	send(t, conn, transport.FrameCharacterUpdate, "u1", transport.CharacterUpdatePayload{
		CampaignID:  1,
		CharacterID: 1,
		Patch:       campaign.CharacterPatch{Name: &name},
	})
	// The ack and the room event race on the same connection.
	byType := map[string]transport.Frame{}
	for range 2 {
		frame := receive(t, conn)
		byType[frame.Type] = frame
	}
	require.Contains(t, byType, transport.FrameCharacterAck)
	require.Contains(t, byType, transport.FrameCharacterUpdated)
	require.Equal(t, "u1", byType[transport.FrameCharacterAck].RequestID)

	send(t, conn, transport.FrameCharacterMutate, "m1", map[string]any{
		"campaign_id":  1,
		"character_id": 1,
		"field":        "statValue",
		"stat_name":    "Mana",
		"value":        -5,
	})
	byType = map[string]transport.Frame{}
	for range 2 {
		frame := receive(t, conn)
		byType[frame.Type] = frame
	}
	ack, ok := byType[transport.FrameCharacterAck]
	require.True(t, ok)
	var ch campaign.Character
	require.NoError(t, json.Unmarshal(ack.Payload, &ch))
	mana, _, _ := ch.Stat("Mana")
	require.Equal(t, campaign.NumberValue(0), mana.Value)
}

func TestWS_RejectsUnknownFrames(t *testing.T) {
	ts := testserver.New(t)
	conn := dial(t, ts)

	send(t, conn, "campaign.delete", "x", map[string]any{})
	frame := receive(t, conn)
	require.Equal(t, transport.FrameError, frame.Type)

	require.NoError(t, websocket.Message.Send(conn, "not json"))
	frame = receive(t, conn)
	require.Equal(t, transport.FrameError, frame.Type)
}

func TestWS_RejectsOversizedFrames(t *testing.T) {
	ts := testserver.New(t)
	seed(t, ts)
	conn := dial(t, ts)

	require.NoError(t, websocket.Message.Send(conn, strings.Repeat("x", 128<<10)))
	frame := receive(t, conn)
	require.Equal(t, transport.FrameError, frame.Type)
	var payload transport.ErrorPayload
	require.NoError(t, json.Unmarshal(frame.Payload, &payload))
	require.Equal(t, transport.CodeInvalidInput, payload.Code)
	require.Equal(t, "frame too large", payload.Message)

	// The connection stays usable after the oversized frame is skipped.
	joined := join(t, conn, 1)
	require.Equal(t, int64(1), joined.CampaignID)
}

// interleavingRepository runs write right after the n-th Get has read its
// result, once armed.
type interleavingRepository struct {
	campaign.Repository
	armed atomic.Bool
	calls atomic.Int32
	n     int32
	write func()
}

func (r *interleavingRepository) Get(ctx context.Context, id int64) (*campaign.Campaign, error) {
	c, err := r.Repository.Get(ctx, id)
	if r.armed.Load() && r.calls.Add(1) == r.n {
		r.write()
	}
	return c, err
}

func TestWS_JoinDeliversWriteCommittedDuringSnapshot(t *testing.T) {
	// The join reads the campaign twice: an existence check, then the snapshot.
	repo := &interleavingRepository{n: 2}
	ts := testserver.NewWithRepository(t, func(inner campaign.Repository) campaign.Repository {
		repo.Repository = inner
		return repo
	})
	seed(t, ts)

	writeErr := make(chan error, 1)
	repo.write = func() {
		_, err := ts.Services.Campaigns.UpdateCharacter(context.Background(), 1, 1, campaign.CharacterPatch{
			Stats: []campaign.Stat{{Name: "HP", Value: campaign.NumberValue(42)}},
		})
		writeErr <- err
	}
	repo.armed.Store(true)

	conn := dial(t, ts)
	joined := join(t, conn, 1)
	require.NoError(t, <-writeErr)

	hp, _, _ := joined.Campaign.Characters[0].Stat("HP")
	require.Equal(t, campaign.NumberValue(100), hp.Value)
	require.Equal(t, int64(1), joined.LatestSeq)

	frame := receive(t, conn)
	require.Equal(t, transport.FrameCharacterUpdated, frame.Type)
	var ev broadcast.Event
	require.NoError(t, json.Unmarshal(frame.Payload, &ev))
	require.Greater(t, ev.Seq, joined.LatestSeq)
	hp, _, _ = ev.Character.Stat("HP")
	require.Equal(t, campaign.NumberValue(42), hp.Value)
}
