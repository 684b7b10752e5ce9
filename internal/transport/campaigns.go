package transport

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/rpggio/gmboard/internal/domain/activity"
	"github.com/rpggio/gmboard/internal/domain/campaign"
	"github.com/rpggio/gmboard/internal/domain/mutation"
	"github.com/rpggio/gmboard/internal/overlay"
)

func (s *Server) handleListSystems(w http.ResponseWriter, _ *http.Request) {
	out := make(map[string]any)
	for _, sys := range s.svc.Systems.List() {
		out[sys.Name] = sys
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := s.svc.Campaigns.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, campaigns)
}

func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req campaign.CreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, err.Error())
		return
	}
	c, err := s.svc.Campaigns.Create(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := s.campaignID(w, r)
	if !ok {
		return
	}
	c, err := s.svc.Campaigns.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleUpdateCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := s.campaignID(w, r)
	if !ok {
		return
	}
	var req campaign.UpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, err.Error())
		return
	}
	c, err := s.svc.Campaigns.Update(r.Context(), id, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := s.campaignID(w, r)
	if !ok {
		return
	}
	opts := activity.ListOptions{CampaignID: id}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeInvalidInput, fmt.Sprintf("invalid limit %q", raw))
			return
		}
		opts.Limit = limit
	}
	entries, err := s.svc.Activity.GetRecentActivity(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleListCharacters(w http.ResponseWriter, r *http.Request) {
	id, ok := s.campaignID(w, r)
	if !ok {
		return
	}
	chars, err := s.svc.Campaigns.ListCharacters(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chars)
}

func (s *Server) handleAddCharacter(w http.ResponseWriter, r *http.Request) {
	id, ok := s.campaignID(w, r)
	if !ok {
		return
	}
	var req campaign.AddCharacterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, err.Error())
		return
	}
	ch, err := s.svc.Campaigns.AddCharacter(r.Context(), id, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ch)
}

func (s *Server) handleGetCharacter(w http.ResponseWriter, r *http.Request) {
	campaignID, characterID, ok := s.characterIDs(w, r)
	if !ok {
		return
	}
	ch, err := s.svc.Campaigns.GetCharacter(r.Context(), campaignID, characterID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

func (s *Server) handleUpdateCharacter(w http.ResponseWriter, r *http.Request) {
	campaignID, characterID, ok := s.characterIDs(w, r)
	if !ok {
		return
	}
	var patch campaign.CharacterPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, err.Error())
		return
	}
	ch, err := s.svc.Campaigns.UpdateCharacter(r.Context(), campaignID, characterID, patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

func (s *Server) handleApplyMutation(w http.ResponseWriter, r *http.Request) {
	campaignID, characterID, ok := s.characterIDs(w, r)
	if !ok {
		return
	}
	var m mutation.Mutation
	if err := decodeJSON(w, r, &m); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, err.Error())
		return
	}
	ch, err := s.svc.Mutations.Apply(r.Context(), campaignID, characterID, m)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	addr, err := overlay.ParseAddress(r.URL.Path, r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.svc.Campaigns.Get(r.Context(), addr.CampaignID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Overlay.Resolve(*c, addr))
}

func (s *Server) campaignID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := pathID(r, "campaignID")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, err.Error())
		return 0, false
	}
	return id, true
}

func (s *Server) characterIDs(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	campaignID, ok := s.campaignID(w, r)
	if !ok {
		return 0, 0, false
	}
	characterID, err := pathID(r, "characterID")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, err.Error())
		return 0, 0, false
	}
	return campaignID, characterID, true
}
