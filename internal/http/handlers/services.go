package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kadik23/law-firm-web-app-sub002/internal/http/middleware"
	"github.com/kadik23/law-firm-web-app-sub002/internal/modules/services"
	"github.com/kadik23/law-firm-web-app-sub002/internal/shared/apperr"
)

type ServiceHandler struct {
	Catalog *services.Repo
}

func NewServiceHandler(catalog *services.Repo) *ServiceHandler {
	return &ServiceHandler{Catalog: catalog}
}

// GET /api/services
func (h *ServiceHandler) List(c *gin.Context) {
	out, err := h.Catalog.List(c.Request.Context())
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": out})
}
