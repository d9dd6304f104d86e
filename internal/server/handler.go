package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"toolforge/internal/forge"
	"toolforge/internal/store"
)

// ToolHandler serves the tool catalog and invocation endpoints.
type ToolHandler struct {
	svc *forge.Service
}

// NewToolHandler creates a new ToolHandler.
func NewToolHandler(svc *forge.Service) *ToolHandler {
	return &ToolHandler{svc: svc}
}

// List handles GET /v1/tools.
func (h *ToolHandler) List(c *gin.Context) {
	reg := h.svc.Registry()
	records := reg.List()
	resp := make([]ToolResponse, 0, len(records))
	for _, m := range records {
		_, callable := reg.Get(m.Name)
		resp = append(resp, toToolResponse(m, callable))
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// Prompt handles GET /v1/tools/prompt.
func (h *ToolHandler) Prompt(c *gin.Context) {
	c.String(http.StatusOK, h.svc.Registry().FormatForInjection())
}

// Submit handles POST /v1/tools.
func (h *ToolHandler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	def, err := h.svc.Submit(c.Request.Context(), req.Name, req.Code, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toDefinitionResponse(def))
}

// Invoke handles POST /v1/tools/:name/invoke. Tool failures are reported
// with a non-2xx status and the planner-facing error result.
func (h *ToolHandler) Invoke(c *gin.Context) {
	var req InvokeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBindError(c, err)
			return
		}
	}
	result, err := h.svc.Invoke(c.Request.Context(), c.Param("name"), req.Params)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Act handles POST /v1/actions.
func (h *ToolHandler) Act(c *gin.Context) {
	var req ActRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	res, err := h.svc.Act(c.Request.Context(), req.Text)
	if err != nil {
		writeError(c, err)
		return
	}

	body := gin.H{"action": string(res.Action.Type), "name": res.Action.Name}
	if res.Result != nil {
		body["result"] = res.Result
	}
	if res.Definition != nil {
		body["definition"] = toDefinitionResponse(*res.Definition)
	}
	c.JSON(http.StatusOK, body)
}

// History handles GET /v1/history?tool=&limit=.
func (h *ToolHandler) History(c *gin.Context) {
	hist := h.svc.History()
	if hist == nil {
		writeError(c, ErrHistoryDisabled)
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		writeBindError(c, errors.New("limit must be a positive integer"))
		return
	}

	var invs []store.Invocation
	if tool := c.Query("tool"); tool != "" {
		invs, err = hist.ByTool(tool, limit)
	} else {
		invs, err = hist.Recent(limit)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]InvocationResponse, 0, len(invs))
	for _, inv := range invs {
		resp = append(resp, toInvocationResponse(inv))
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
