package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cellgrid/packdb/internal/apperr"
	"github.com/cellgrid/packdb/internal/model"
	"github.com/cellgrid/packdb/internal/source"
)

func idParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, apperr.Validationf("invalid id %q", raw)
	}
	return id, nil
}

// effectiveOrder returns the caller's stored priority order, falling back to
// the default for anonymous users or users who never customized.
func (s *Server) effectiveOrder(ctx context.Context) ([]source.Kind, error) {
	user := userFrom(ctx)
	if user == nil {
		return source.DefaultOrder(), nil
	}
	order, err := s.store.GetPriority(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return source.DefaultOrder(), nil
	}
	return order, nil
}

type packRequest struct {
	OEM          string  `json:"oem"`
	Model        string  `json:"model"`
	Year         int     `json:"year"`
	Variant      *string `json:"variant"`
	Market       *string `json:"market"`
	FuelType     *string `json:"fuel_type"`
	VehicleClass *string `json:"vehicle_class"`
	Drivetrain   *string `json:"drivetrain"`
	Platform     *string `json:"platform"`
}

func (pr *packRequest) validate() error {
	if strings.TrimSpace(pr.OEM) == "" {
		return apperr.Validationf("oem is required")
	}
	if strings.TrimSpace(pr.Model) == "" {
		return apperr.Validationf("model is required")
	}
	if pr.Year < 1990 || pr.Year > 2100 {
		return apperr.Validationf("year %d out of range", pr.Year)
	}
	return nil
}

func (pr *packRequest) apply(p *model.Pack) {
	p.OEM = strings.TrimSpace(pr.OEM)
	p.Model = strings.TrimSpace(pr.Model)
	p.Year = pr.Year
	p.Variant = pr.Variant
	p.Market = pr.Market
	p.FuelType = pr.FuelType
	p.VehicleClass = pr.VehicleClass
	p.Drivetrain = pr.Drivetrain
	p.Platform = pr.Platform
}

func (s *Server) handleListPacks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	atoi := func(key string) int {
		n, _ := strconv.Atoi(q.Get(key))
		return n
	}
	filter := model.PackFilter{
		OEM:          q.Get("oem"),
		Model:        q.Get("model"),
		Market:       q.Get("market"),
		FuelType:     q.Get("fuel_type"),
		VehicleClass: q.Get("vehicle_class"),
		Drivetrain:   q.Get("drivetrain"),
		Platform:     q.Get("platform"),
		Search:       q.Get("search"),
		Page:         atoi("page"),
		PageSize:     atoi("page_size"),
		SortBy:       q.Get("sort_by"),
		SortDir:      q.Get("sort_dir"),
	}
	page, err := s.store.ListPacks(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleCreatePack(w http.ResponseWriter, r *http.Request) {
	var req packRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, r, err)
		return
	}
	pack := &model.Pack{}
	req.apply(pack)
	user := userFrom(r.Context())
	pack.CreatedBy = &user.ID
	pack.CreatedByName = &user.DisplayName

	if err := s.store.CreatePack(r.Context(), pack); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, pack)
}

func (s *Server) handleGetPack(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	order, err := s.effectiveOrder(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	detail, err := s.proj.Detail(r.Context(), id, order)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleUpdatePack(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req packRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, r, err)
		return
	}
	pack, err := s.store.GetPack(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req.apply(pack)
	if err := s.store.UpdatePack(r.Context(), pack); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pack)
}

func (s *Server) handleDeletePack(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.SoftDeletePack(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// handleComparePacks serves /packs/compare?ids=1,2,3. Between two and three
// packs compare at once; any missing pack fails the whole request.
func (s *Server) handleComparePacks(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ids")
	if raw == "" {
		writeError(w, r, apperr.Validationf("ids is required"))
		return
	}
	parts := strings.Split(raw, ",")
	if len(parts) < 2 || len(parts) > 3 {
		writeError(w, r, apperr.Validationf("compare takes 2 to 3 pack ids, got %d", len(parts)))
		return
	}
	seen := make(map[int64]bool, len(parts))
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id < 1 {
			writeError(w, r, apperr.Validationf("invalid pack id %q", part))
			return
		}
		if seen[id] {
			writeError(w, r, apperr.Validationf("duplicate pack id %d", id))
			return
		}
		seen[id] = true
		ids = append(ids, id)
	}

	order, err := s.effectiveOrder(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := s.proj.Compare(r.Context(), ids, order)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
