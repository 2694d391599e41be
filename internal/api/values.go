package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/cellgrid/packdb/internal/apperr"
	"github.com/cellgrid/packdb/internal/model"
	"github.com/cellgrid/packdb/internal/source"
)

type valueRequest struct {
	FieldID      int64       `json:"field_id"`
	ValueText    string      `json:"value_text"`
	SourceType   source.Kind `json:"source_type"`
	SourceDetail string      `json:"source_detail"`
}

// numericPayload parses the text payload for number fields. Unparseable text
// is kept as text with a null numeric rather than rejected, so contributors
// can record qualified readings like "~120 est".
func numericPayload(field *model.Field, text string) *float64 {
	if field.DataType != model.DataTypeNumber {
		return nil
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return nil
	}
	return &n
}

func (s *Server) handleListPackValues(w http.ResponseWriter, r *http.Request) {
	packID, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := s.store.GetPack(r.Context(), packID); err != nil {
		writeError(w, r, err)
		return
	}
	values, err := s.store.ListPackValues(r.Context(), packID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, values)
}

func (s *Server) handleCreateValue(w http.ResponseWriter, r *http.Request) {
	packID, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req valueRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.ValueText) == "" {
		writeError(w, r, apperr.Validationf("value_text is required"))
		return
	}
	if strings.TrimSpace(req.SourceDetail) == "" {
		writeError(w, r, apperr.Validationf("source_detail is required"))
		return
	}
	if !source.Valid(req.SourceType) {
		writeError(w, r, apperr.Validationf("unknown source_type %q", req.SourceType))
		return
	}
	if _, err := s.store.GetPack(r.Context(), packID); err != nil {
		writeError(w, r, err)
		return
	}
	field, err := s.store.GetField(r.Context(), req.FieldID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	text := strings.TrimSpace(req.ValueText)
	if !field.AllowsOption(text) {
		writeError(w, r, apperr.Validationf("%q is not an option for field %s", text, field.Name))
		return
	}

	user := userFrom(r.Context())
	value := &model.Value{
		PackID:          packID,
		FieldID:         req.FieldID,
		ValueText:       &text,
		ValueNumeric:    numericPayload(field, text),
		SourceType:      req.SourceType,
		SourceDetail:    strings.TrimSpace(req.SourceDetail),
		ContributedBy:   user.ID,
		ContributorName: &user.DisplayName,
	}
	if err := s.store.CreateValue(r.Context(), value); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, value)
}

func (s *Server) handleGetValue(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	value, err := s.store.GetValue(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, value)
}

func (s *Server) handleUpdateValue(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		ValueText    *string `json:"value_text"`
		SourceDetail *string `json:"source_detail"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.ValueText == nil && req.SourceDetail == nil {
		writeError(w, r, apperr.Validationf("nothing to update"))
		return
	}
	value, err := s.store.GetValue(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	user := userFrom(r.Context())
	if value.ContributedBy != user.ID && user.Role != model.RoleAdmin {
		writeError(w, r, apperr.ErrForbidden)
		return
	}
	if req.ValueText != nil {
		text := strings.TrimSpace(*req.ValueText)
		if text == "" {
			writeError(w, r, apperr.Validationf("value_text must not be blank"))
			return
		}
		field, err := s.store.GetField(r.Context(), value.FieldID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !field.AllowsOption(text) {
			writeError(w, r, apperr.Validationf("%q is not an option for field %s", text, field.Name))
			return
		}
		value.ValueText = &text
		value.ValueNumeric = numericPayload(field, text)
	}
	if req.SourceDetail != nil {
		detail := strings.TrimSpace(*req.SourceDetail)
		if detail == "" {
			writeError(w, r, apperr.Validationf("source_detail must not be blank"))
			return
		}
		value.SourceDetail = detail
	}
	if err := s.store.UpdateValue(r.Context(), value); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, value)
}

func (s *Server) handleDeleteValue(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	value, err := s.store.GetValue(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	user := userFrom(r.Context())
	if value.ContributedBy != user.ID && user.Role != model.RoleAdmin {
		writeError(w, r, apperr.ErrForbidden)
		return
	}
	if err := s.store.SoftDeleteValue(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := s.store.GetValue(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	comments, err := s.store.ListComments(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeError(w, r, apperr.Validationf("text is required"))
		return
	}
	if _, err := s.store.GetValue(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	user := userFrom(r.Context())
	comment := &model.Comment{
		ValueID:    id,
		AuthorID:   user.ID,
		AuthorName: &user.DisplayName,
		Text:       text,
	}
	if err := s.store.CreateComment(r.Context(), comment); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}
