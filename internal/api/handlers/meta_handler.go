package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/intake/internal/models"
)

type MetaHandler struct {
	catalog     *models.Catalog
	sttProvider string
	llmProvider string
}

func NewMetaHandler(catalog *models.Catalog, sttProvider, llmProvider string) *MetaHandler {
	return &MetaHandler{catalog: catalog, sttProvider: sttProvider, llmProvider: llmProvider}
}

func (h *MetaHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"stt_provider": h.sttProvider,
		"llm_provider": h.llmProvider,
	})
}

func (h *MetaHandler) Catalog(c *gin.Context) {
	writeOK(c, http.StatusOK, gin.H{
		"clinic_name": h.catalog.ClinicName,
		"questions":   h.catalog.Questions,
	})
}
