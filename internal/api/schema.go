package api

import (
	"net/http"
	"strings"

	"github.com/cellgrid/packdb/internal/apperr"
	"github.com/cellgrid/packdb/internal/model"
	"github.com/cellgrid/packdb/internal/source"
)

type sourceInfo struct {
	Kind  source.Kind `json:"kind"`
	Label string      `json:"label"`
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	kinds := source.Kinds()
	infos := make([]sourceInfo, len(kinds))
	for i, k := range kinds {
		infos[i] = sourceInfo{Kind: k, Label: source.Label(k)}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sources":       infos,
		"default_order": source.DefaultOrder(),
	})
}

func (s *Server) handleListDomains(w http.ResponseWriter, r *http.Request) {
	domains, err := s.store.ListDomains(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, domains)
}

func (s *Server) handleCreateDomain(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
		SortOrder   int     `json:"sort_order"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, r, apperr.Validationf("name is required"))
		return
	}
	user := userFrom(r.Context())
	domain := &model.Domain{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		SortOrder:   req.SortOrder,
		CreatedBy:   &user.ID,
	}
	if err := s.store.CreateDomain(r.Context(), domain); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, domain)
}

func (s *Server) handleListFields(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := s.store.GetDomain(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	fields, err := s.store.ListFields(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fields)
}

type fieldRequest struct {
	Name          string   `json:"name"`
	DisplayName   string   `json:"display_name"`
	Unit          *string  `json:"unit"`
	DataType      string   `json:"data_type"`
	SelectOptions []string `json:"select_options"`
	SortOrder     int      `json:"sort_order"`
	Description   *string  `json:"description"`
}

func (fr *fieldRequest) validate() error {
	if strings.TrimSpace(fr.Name) == "" {
		return apperr.Validationf("name is required")
	}
	if strings.TrimSpace(fr.DisplayName) == "" {
		return apperr.Validationf("display_name is required")
	}
	switch fr.DataType {
	case model.DataTypeText, model.DataTypeNumber, model.DataTypeSelect:
	default:
		return apperr.Validationf("unknown data_type %q", fr.DataType)
	}
	if fr.DataType == model.DataTypeSelect && len(fr.SelectOptions) == 0 {
		return apperr.Validationf("select fields need at least one option")
	}
	return nil
}

func (s *Server) handleCreateField(w http.ResponseWriter, r *http.Request) {
	domainID, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := s.store.GetDomain(r.Context(), domainID); err != nil {
		writeError(w, r, err)
		return
	}
	var req fieldRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, r, err)
		return
	}
	user := userFrom(r.Context())
	field := &model.Field{
		DomainID:      domainID,
		Name:          strings.TrimSpace(req.Name),
		DisplayName:   strings.TrimSpace(req.DisplayName),
		Unit:          req.Unit,
		DataType:      req.DataType,
		SelectOptions: req.SelectOptions,
		SortOrder:     req.SortOrder,
		Description:   req.Description,
		CreatedBy:     &user.ID,
	}
	if err := s.store.CreateField(r.Context(), field); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, field)
}

func (s *Server) handleUpdateField(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req fieldRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	field, err := s.store.GetField(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if req.Name != "" && req.Name != field.Name {
		writeError(w, r, apperr.Validationf("field name is immutable"))
		return
	}
	req.Name = field.Name
	if err := req.validate(); err != nil {
		writeError(w, r, err)
		return
	}
	field.DisplayName = strings.TrimSpace(req.DisplayName)
	field.Unit = req.Unit
	field.DataType = req.DataType
	field.SelectOptions = req.SelectOptions
	field.SortOrder = req.SortOrder
	field.Description = req.Description
	if err := s.store.UpdateField(r.Context(), field); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, field)
}

func (s *Server) handleDeleteField(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.SoftDeleteField(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
