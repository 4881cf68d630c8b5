package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"vttserver/internal/metrics"
	"vttserver/internal/rooms"
)

// maxUploadSize caps map/token image uploads at 15MB.
const maxUploadSize = 15 << 20

type createRoomRequest struct {
	Password string `json:"password"`
	GMID     string `json:"gmId"`
}

type createRoomResponse struct {
	RoomID string `json:"roomId"`
	GMID   string `json:"gmId"`
}

// handleCreateRoom mints a room id, builds a default snapshot, and
// persists it. The GM id is taken from the request when the creator
// already has a stable identity, otherwise minted here.
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	roomID := rooms.NewID()
	gmID := req.GMID
	if gmID == "" {
		gmID = rooms.NewGMID()
	}

	var passwordHash *string
	if req.Password != "" {
		hash, err := rooms.HashPassword(req.Password)
		if err != nil {
			s.Logger.Error().Err(err).Msg("hashing room password")
			s.Error(w, http.StatusInternalServerError, "failed to create room")
			return
		}
		passwordHash = &hash
	}

	state := rooms.New(roomID, gmID, passwordHash)
	if err := s.Store.Put(r.Context(), roomID, state); err != nil {
		s.Logger.Error().Err(err).Str("room", roomID).Msg("persisting new room")
		s.Error(w, http.StatusInternalServerError, "failed to create room")
		return
	}

	metrics.RoomsCreated.Inc()
	s.Logger.Info().Str("room", roomID).Msg("room created")
	s.JSON(w, http.StatusOK, createRoomResponse{RoomID: roomID, GMID: gmID})
}

// handleUpload stores a map or token image and returns its public URL.
// The core treats the resulting url as an opaque string.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		s.Error(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	if err := os.MkdirAll(s.Cfg.UploadDir, 0o755); err != nil {
		s.Logger.Error().Err(err).Msg("creating upload dir")
		s.Error(w, http.StatusInternalServerError, "upload failed")
		return
	}

	name := uuid.New().String() + filepath.Ext(header.Filename)
	dst, err := os.Create(filepath.Join(s.Cfg.UploadDir, name))
	if err != nil {
		s.Logger.Error().Err(err).Msg("creating upload file")
		s.Error(w, http.StatusInternalServerError, "upload failed")
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		s.Logger.Error().Err(err).Msg("writing upload file")
		s.Error(w, http.StatusInternalServerError, "upload failed")
		return
	}

	s.JSON(w, http.StatusOK, map[string]string{
		"url":      fmt.Sprintf("%s/uploads/%s", s.Cfg.PublicBaseURL, name),
		"filename": header.Filename,
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "ok")
}
