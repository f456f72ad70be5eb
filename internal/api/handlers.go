package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"agencyboard/internal/documents"
	"agencyboard/internal/pipeline"
	"agencyboard/internal/session"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, StatusResponse{
		Version:      s.version,
		DatabasePath: s.databasePath,
		Boards:       s.summaries(),
		Documents:    s.docs != nil,
		Signing:      s.docs != nil && s.docs.SigningEnabled(),
		Meeting:      s.hooks.MeetingEnabled(),
		Contract:     s.hooks.ContractEnabled(),
	})
}

func (s *Server) handleBoards(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, BoardsResponse{Boards: s.summaries()})
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	coord, ok := s.coordinator(w, r)
	if !ok || !s.ensureLoaded(w, r, coord) {
		return
	}
	s.writeJSON(w, http.StatusOK, FromProjection(coord.Columns(), coord.Registry()))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	coord, ok := s.coordinator(w, r)
	if !ok {
		return
	}
	result, err := coord.Refresh(r.Context())
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, ErrorResponse{Error: "board data unavailable", Detail: err.Error()})
		return
	}
	resp := RefreshResponse{Board: string(coord.Board()), Total: result.Total, New: []Record{}}
	if !result.Initial {
		resp.New = FromRecords(result.New, coord.Registry())
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	coord, ok := s.coordinator(w, r)
	if !ok {
		return
	}
	var body CreateRecordRequest
	if !s.decodeJSON(w, r, &body) {
		return
	}
	if !s.ensureLoaded(w, r, coord) {
		return
	}
	rec, err := coord.Create(r.Context(), actorOf(r), body.ToRecord(coord.Board()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, FromRecord(rec, coord.Registry()))
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	coord, ok := s.coordinator(w, r)
	if !ok || !s.ensureLoaded(w, r, coord) {
		return
	}
	rec, err := coord.Record(r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, RecordResponse{
		Record: FromRecord(rec, coord.Registry()),
		Moves:  FromMoves(pipeline.AvailableMoves(coord.Registry(), rec)),
	})
}

func (s *Server) handleRemoveRecord(w http.ResponseWriter, r *http.Request) {
	coord, ok := s.coordinator(w, r)
	if !ok || !s.ensureLoaded(w, r, coord) {
		return
	}
	if err := coord.Remove(r.Context(), actorOf(r), r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMoves(w http.ResponseWriter, r *http.Request) {
	coord, ok := s.coordinator(w, r)
	if !ok || !s.ensureLoaded(w, r, coord) {
		return
	}
	id := r.PathValue("id")
	moves, err := coord.AvailableMoves(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, MovesResponse{RecordID: id, Moves: FromMoves(moves)})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	coord, ok := s.coordinator(w, r)
	if !ok {
		return
	}
	var body MoveRequest
	if !s.decodeJSON(w, r, &body) {
		return
	}
	if !s.ensureLoaded(w, r, coord) {
		return
	}
	id := r.PathValue("id")
	ctx := session.WithRecord(r.Context(), string(coord.Board()), id)
	result, err := coord.Move(ctx, actorOf(r), body.ToRequest(id, coord.Registry()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, MoveResponse{
		Outcome:   string(result.Outcome),
		From:      string(result.From),
		To:        string(result.To),
		Record:    FromRecord(result.Record, coord.Registry()),
		Finalized: result.Finalization != nil,
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if !s.documentsReady(w) {
		return
	}
	entries, err := s.docs.List(r.PathValue("folder"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := DocumentsResponse{Documents: make([]Document, 0, len(entries))}
	for _, e := range entries {
		resp.Folder = e.Folder
		dto := FromDocument(e)
		if s.docs.SigningEnabled() {
			if link, expires, err := s.docs.SignedURL(e.Folder, e.Name, s.urlTTL); err == nil {
				dto.URL = link
				dto.ExpiresAt = formatTime(expires)
			}
		}
		resp.Documents = append(resp.Documents, dto)
	}
	if resp.Folder == "" {
		resp.Folder = folderOf(r)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleUploadDocument accepts a multipart form with one or more "file"
// parts, streaming each into the folder.
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	if !s.documentsReady(w) {
		return
	}
	reader, err := r.MultipartReader()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, ErrorResponse{Error: "expected multipart/form-data upload", Detail: err.Error()})
		return
	}
	folder := r.PathValue("folder")
	resp := DocumentsResponse{Folder: folderOf(r), Documents: []Document{}}
	for {
		part, err := reader.NextPart()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			s.writeError(w, http.StatusBadRequest, ErrorResponse{Error: "malformed multipart body", Detail: err.Error()})
			return
		}
		if part.FormName() != "file" || part.FileName() == "" {
			_ = part.Close()
			continue
		}
		entry, err := s.docs.Upload(folder, part.FileName(), part)
		_ = part.Close()
		if err != nil {
			s.fail(w, r, err)
			return
		}
		resp.Documents = append(resp.Documents, FromDocument(entry))
	}
	if len(resp.Documents) == 0 {
		s.writeError(w, http.StatusBadRequest, ErrorResponse{Error: `no "file" part in upload`})
		return
	}
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if !s.documentsReady(w) {
		return
	}
	if err := s.docs.Delete(r.PathValue("folder"), r.PathValue("name")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDocumentURL(w http.ResponseWriter, r *http.Request) {
	if !s.documentsReady(w) {
		return
	}
	link, expires, err := s.docs.SignedURL(r.PathValue("folder"), r.PathValue("name"), s.urlTTL)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, SignedURLResponse{URL: link, ExpiresAt: formatTime(expires)})
}

func (s *Server) handleSignedFile(w http.ResponseWriter, r *http.Request) {
	if !s.documentsReady(w) {
		return
	}
	folder, name := r.PathValue("folder"), r.PathValue("name")
	expires, err := parseExpires(r.URL.Query().Get("expires"))
	if err != nil {
		s.writeError(w, http.StatusForbidden, ErrorResponse{Error: "invalid signed url", Detail: err.Error()})
		return
	}
	if err := s.docs.Verify(folder, name, expires, r.URL.Query().Get("sig")); err != nil {
		s.fail(w, r, err)
		return
	}
	f, entry, err := s.docs.Open(folder, name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer f.Close()
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", entry.Name))
	http.ServeContent(w, r, entry.Name, entry.ModTime, f)
}

func (s *Server) documentsReady(w http.ResponseWriter) bool {
	if s.docs == nil {
		s.writeError(w, http.StatusServiceUnavailable, ErrorResponse{Error: "document storage not configured"})
		return false
	}
	return true
}

func folderOf(r *http.Request) string {
	return documents.FolderName(r.PathValue("folder"))
}

func parseExpires(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("missing expires")
	}
	return strconv.ParseInt(raw, 10, 64)
}
