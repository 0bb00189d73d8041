package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/toonvest/backend/internal/catalog"
	"github.com/toonvest/backend/internal/models"
	"github.com/toonvest/backend/internal/services"
	"github.com/toonvest/backend/internal/store"
)

type CatalogHandler struct {
	catalog *catalog.Catalog
	store   *store.Store
}

func NewCatalogHandler(cat *catalog.Catalog, docStore *store.Store) *CatalogHandler {
	return &CatalogHandler{
		catalog: cat,
		store:   docStore,
	}
}

// titleView is a catalog entry with its live funding overlay applied.
type titleView struct {
	models.Title
	CurrentRaised   int64   `json:"currentRaised"`
	TotalInvestors  int     `json:"totalInvestors"`
	ProgressPercent float64 `json:"progressPercent"`
}

// ListTitles returns the full catalog with live progress
// @Summary List titles
// @Description Get every investable title with its current funding progress
// @Tags titles
// @Produce json
// @Success 200 {object} object{titles=[]titleView,count=int}
// @Router /titles [get]
func (h *CatalogHandler) ListTitles(w http.ResponseWriter, r *http.Request) {
	titles := h.catalog.List()
	views := make([]titleView, 0, len(titles))
	for i := range titles {
		views = append(views, h.view(r, &titles[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"titles": views,
		"count":  len(views),
	})
}

// GetTitle returns one title with live progress
// @Summary Get title
// @Description Get a title by id with its current funding progress
// @Tags titles
// @Produce json
// @Param titleId path string true "Title ID"
// @Success 200 {object} titleView
// @Failure 404 {object} services.ErrorResponse
// @Router /titles/{titleId} [get]
func (h *CatalogHandler) GetTitle(w http.ResponseWriter, r *http.Request) {
	titleID := chi.URLParam(r, "titleId")

	title, ok := h.catalog.Get(titleID)
	if !ok {
		services.SendErrorResponse(w, "Title not found", http.StatusNotFound, nil)
		return
	}

	view := h.view(r, title)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

func (h *CatalogHandler) view(r *http.Request, title *models.Title) titleView {
	progress, err := h.store.GetProgress(r.Context(), title.ID)
	if err == store.ErrNotFound {
		progress = catalog.BaseProgress(title)
	} else if err != nil {
		log.Printf("[CATALOG] Failed to read progress for %s: %v", title.ID, err)
		progress = catalog.BaseProgress(title)
	}

	return titleView{
		Title:           *title,
		CurrentRaised:   progress.CurrentRaised,
		TotalInvestors:  progress.TotalInvestors,
		ProgressPercent: progress.ProgressPercent(title.GoalAmount),
	}
}
