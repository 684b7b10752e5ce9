package transport

import (
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/rpggio/gmboard/internal/broadcast"
	"github.com/rpggio/gmboard/internal/domain/campaign"
	"github.com/rpggio/gmboard/internal/domain/mutation"
)

const (
	maxFramesPerSecond     = 30
	maxDecodeErrorsPerConn = 5
	maxFrameBytes          = 64 << 10
)

// Frame types exchanged on /ws.
const (
	FrameCampaignJoin     = "campaign.join"
	FrameCampaignJoined   = "campaign.joined"
	FrameCharacterUpdate  = "character.update"
	FrameCharacterMutate  = "character.mutate"
	FrameCharacterAck     = "character.ack"
	FrameCharacterUpdated = string(broadcast.EventCharacterUpdated)
	FrameCharacterCreated = string(broadcast.EventCharacterCreated)
	FrameCampaignUpdated  = string(broadcast.EventCampaignUpdated)
	FrameError            = "error"
)

// Frame is the websocket envelope in both directions.
type Frame struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// JoinPayload subscribes the connection to a campaign room.
type JoinPayload struct {
	CampaignID int64 `json:"campaign_id"`
}

// JoinedPayload confirms a join and carries the snapshot to start from.
type JoinedPayload struct {
	CampaignID   int64              `json:"campaign_id"`
	SubscriberID string             `json:"subscriber_id"`
	LatestSeq    int64              `json:"latest_seq"`
	ServerTime   string             `json:"server_time"`
	Campaign     *campaign.Campaign `json:"campaign"`
}

// CharacterUpdatePayload writes a character patch through the store.
type CharacterUpdatePayload struct {
	CampaignID  int64                   `json:"campaign_id"`
	CharacterID int64                   `json:"character_id"`
	Patch       campaign.CharacterPatch `json:"patch"`
}

// CharacterMutatePayload applies a single mutation on the server. The
// mutation fields sit next to the ids.
type CharacterMutatePayload struct {
	CampaignID  int64 `json:"campaign_id"`
	CharacterID int64 `json:"character_id"`
	mutation.Mutation
}

// ErrorPayload reports a rejected frame.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type wsPeer struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

func newWSPeer(encoder *json.Encoder) *wsPeer {
	return &wsPeer{encoder: encoder}
}

func (p *wsPeer) writeFrame(frame Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.encoder.Encode(frame)
}

// wsSession is one connection's room membership. Joining another campaign
// leaves the previous room first.
type wsSession struct {
	mu   sync.Mutex
	peer *wsPeer
	sub  *broadcast.Subscriber
	pump sync.WaitGroup
}

func (s *wsSession) join(hub *broadcast.Hub, campaignID int64) *broadcast.Subscriber {
	s.leave(hub)

	sub := hub.Join(campaignID)
	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()
	return sub
}

// startPump forwards room events to the peer until the subscriber leaves.
func (s *wsSession) startPump(sub *broadcast.Subscriber) {
	s.pump.Add(1)
	go func() {
		defer s.pump.Done()
		for ev := range sub.Events() {
			_ = s.peer.writeFrame(Frame{Type: string(ev.Type), Payload: mustJSON(ev)})
		}
	}()
}

func (s *wsSession) leave(hub *broadcast.Hub) {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()
	if sub != nil {
		hub.Leave(sub)
		s.pump.Wait()
	}
}

func (s *Server) handleWSConn(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	// Oversized frames are refused before they are buffered.
	conn.MaxPayloadBytes = maxFrameBytes

	session := &wsSession{peer: newWSPeer(json.NewEncoder(conn))}
	defer session.leave(s.svc.Hub)

	windowStart := time.Now()
	framesInWindow := 0
	decodeErrors := 0

	for {
		var frame Frame
		if err := websocket.JSON.Receive(conn, &frame); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			message := "invalid frame payload"
			switch {
			case errors.Is(err, websocket.ErrFrameTooLarge):
				message = "frame too large"
			case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
			default:
				return
			}
			decodeErrors++
			_ = writeWSError(session.peer, "", CodeInvalidInput, message)
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			continue
		}
		decodeErrors = 0

		now := time.Now()
		if now.Sub(windowStart) >= time.Second {
			windowStart = now
			framesInWindow = 0
		}
		framesInWindow++
		if framesInWindow > maxFramesPerSecond {
			_ = writeWSError(session.peer, frame.RequestID, CodeRateLimited, "rate limit exceeded")
			return
		}

		switch frame.Type {
		case FrameCampaignJoin:
			s.handleJoinFrame(conn, session, frame)
		case FrameCharacterUpdate:
			s.handleCharacterUpdateFrame(conn, session, frame)
		case FrameCharacterMutate:
			s.handleCharacterMutateFrame(conn, session, frame)
		default:
			_ = writeWSError(session.peer, frame.RequestID, CodeInvalidInput, "unsupported frame type")
		}
	}
}

func (s *Server) handleJoinFrame(conn *websocket.Conn, session *wsSession, frame Frame) {
	var payload JoinPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(session.peer, frame.RequestID, CodeInvalidInput, "invalid join payload")
		return
	}
	if payload.CampaignID <= 0 {
		_ = writeWSError(session.peer, frame.RequestID, CodeInvalidInput, "campaign_id is required")
		return
	}

	ctx := conn.Request().Context()
	if _, err := s.svc.Campaigns.Get(ctx, payload.CampaignID); err != nil {
		s.wsFail(session, frame, err)
		return
	}

	// Subscribe, then read the seq, then the snapshot. Anything published
	// after the seq read reaches the subscriber with a higher seq; events
	// already in the snapshot merge again by id.
	sub := session.join(s.svc.Hub, payload.CampaignID)
	latestSeq := s.svc.Hub.LastSeq(payload.CampaignID)
	snapshot, err := s.svc.Campaigns.Get(ctx, payload.CampaignID)
	if err != nil {
		session.leave(s.svc.Hub)
		s.wsFail(session, frame, err)
		return
	}

	_ = session.peer.writeFrame(Frame{
		Type:      FrameCampaignJoined,
		RequestID: frame.RequestID,
		Payload: mustJSON(JoinedPayload{
			CampaignID:   payload.CampaignID,
			SubscriberID: sub.ID(),
			LatestSeq:    latestSeq,
			ServerTime:   time.Now().UTC().Format(time.RFC3339),
			Campaign:     snapshot,
		}),
	})
	session.startPump(sub)

	s.logger.Debug("websocket joined campaign", "campaign_id", payload.CampaignID, "subscriber_id", sub.ID())
}

func (s *Server) handleCharacterUpdateFrame(conn *websocket.Conn, session *wsSession, frame Frame) {
	var payload CharacterUpdatePayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(session.peer, frame.RequestID, CodeInvalidInput, "invalid character payload")
		return
	}
	ch, err := s.svc.Campaigns.UpdateCharacter(conn.Request().Context(), payload.CampaignID, payload.CharacterID, payload.Patch)
	if err != nil {
		s.wsFail(session, frame, err)
		return
	}
	_ = session.peer.writeFrame(Frame{Type: FrameCharacterAck, RequestID: frame.RequestID, Payload: mustJSON(ch)})
}

func (s *Server) handleCharacterMutateFrame(conn *websocket.Conn, session *wsSession, frame Frame) {
	var payload CharacterMutatePayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(session.peer, frame.RequestID, CodeInvalidInput, "invalid mutation payload")
		return
	}
	ch, err := s.svc.Mutations.Apply(conn.Request().Context(), payload.CampaignID, payload.CharacterID, payload.Mutation)
	if err != nil {
		s.wsFail(session, frame, err)
		return
	}
	_ = session.peer.writeFrame(Frame{Type: FrameCharacterAck, RequestID: frame.RequestID, Payload: mustJSON(ch)})
}

func (s *Server) wsFail(session *wsSession, frame Frame, err error) {
	status, code := mapError(err)
	if code == CodeInternal {
		s.logger.Error("websocket frame failed", "type", frame.Type, "error", err)
	}
	_ = writeWSError(session.peer, frame.RequestID, code, errorMessage(status, err))
}

func writeWSError(peer *wsPeer, requestID, code, message string) error {
	return peer.writeFrame(Frame{
		Type:      FrameError,
		RequestID: requestID,
		Payload:   mustJSON(ErrorPayload{Code: code, Message: message}),
	})
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return data
}
