// README: Party directory handlers; dispatcher-maintained metadata for report enrichment.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"freightdesk/internal/http/middleware"
	"freightdesk/internal/modules/directory"
	"freightdesk/internal/types"
)

type DirectoryHandler struct {
	directory *directory.Service
}

func NewDirectoryHandler(svc *directory.Service) *DirectoryHandler {
	return &DirectoryHandler{directory: svc}
}

func (h *DirectoryHandler) Get(c *gin.Context) {
	p, err := h.directory.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type partyReq struct {
	Kind        string `json:"kind"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
	Notes       string `json:"notes"`
}

func (h *DirectoryHandler) Put(c *gin.Context) {
	claims, _ := middleware.ClaimsFrom(c)
	if claims.Role != types.RoleDispatcher {
		c.JSON(http.StatusForbidden, gin.H{"error": "only dispatchers maintain the directory"})
		return
	}
	var req partyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p, err := h.directory.Upsert(c.Request.Context(), directory.Party{
		ID:          types.ID(c.Param("id")),
		Kind:        directory.Kind(req.Kind),
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		Notes:       req.Notes,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
