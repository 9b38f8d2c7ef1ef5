package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h HandlerSet) Catalog(c *gin.Context) {
	cards, err := h.catalogService.Cards(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("catalog load failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "catalog unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": cards})
}
