package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/airjourney/internal/domain"
	"github.com/Domenick1991/airjourney/internal/segments"
	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	snapshots segments.SnapshotProvider
}

type catalogResponse struct {
	FetchedAt string          `json:"fetched_at"`
	Segments  int             `json:"segments"`
	Flights   []domain.Flight `json:"flights"`
}

func NewCatalogHandler(snapshots segments.SnapshotProvider) *CatalogHandler {
	return &CatalogHandler{snapshots: snapshots}
}

func (h *CatalogHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.get)
}

func (h *CatalogHandler) get(c *gin.Context) {
	snapshot, err := h.snapshots.GetSnapshot(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalogResponse{
		FetchedAt: snapshot.FetchedAt.UTC().Format(time.RFC3339),
		Segments:  snapshot.Len(),
		Flights:   snapshot.Flights(),
	})
}
