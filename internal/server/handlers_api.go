package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/penwyp/go-milestone-board/internal/application/board"
	"github.com/penwyp/go-milestone-board/internal/core/editsession"
	"github.com/penwyp/go-milestone-board/internal/core/model"
	"github.com/penwyp/go-milestone-board/internal/core/rowkey"
	"github.com/penwyp/go-milestone-board/internal/data/store"
	"github.com/penwyp/go-milestone-board/internal/presentation/formatter"
)

type errorResponse struct {
	Error string `json:"error"`
}

type panelResponse struct {
	State       string `json:"state"`
	Category    string `json:"category,omitempty"`
	Title       string `json:"title,omitempty"`
	Key         string `json:"key,omitempty"`
	Milestone   string `json:"milestone,omitempty"`
	Date        string `json:"date,omitempty"`
	NextStep    string `json:"next_step,omitempty"`
	ActionItems string `json:"action_items,omitempty"`
	Message     string `json:"message,omitempty"`
	Error       string `json:"error,omitempty"`
}

func newPanelResponse(p editsession.Panel) panelResponse {
	r := panelResponse{
		State:    p.State.String(),
		Category: p.Category,
		Message:  p.Message,
	}
	if p.Selected() {
		r.Title = p.Title()
		r.Key = rowkey.Encode(p.Key)
		r.Milestone = p.Milestone
		r.Date = model.FormatDate(p.Date)
		r.NextStep = p.NextStep
		r.ActionItems = p.ActionItems
	}
	if p.Err != nil {
		r.Error = p.Err.Error()
	}
	return r
}

type timelineResponse struct {
	Category string                  `json:"category"`
	First    string                  `json:"first,omitempty"`
	Last     string                  `json:"last,omitempty"`
	Lanes    int                     `json:"lanes"`
	Points   []formatter.PointRecord `json:"points"`
}

type selectRequest struct {
	Category  string `json:"category"`
	Key       string `json:"key"`
	Milestone string `json:"milestone"`
	Date      string `json:"date"`
}

type commitRequest struct {
	Date        *string `json:"date"`
	NextStep    *string `json:"next_step"`
	ActionItems *string `json:"action_items"`
}

type commitResponse struct {
	Message string        `json:"message"`
	Panel   panelResponse `json:"panel"`
}

func (s *Server) apiCategories(c *gin.Context) {
	renderJSON(c, http.StatusOK, gin.H{"categories": s.board.Categories()})
}

func (s *Server) apiTimeline(c *gin.Context) {
	category := c.Param("category")
	includeClosed, _ := strconv.ParseBool(c.Query("include_closed"))

	points, err := s.board.Points(category, includeClosed)
	if err != nil {
		renderJSON(c, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	chart, err := s.board.Chart(category)
	if err != nil {
		renderJSON(c, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}

	resp := timelineResponse{
		Category: category,
		First:    model.FormatDate(chart.Span.First),
		Last:     model.FormatDate(chart.Span.Last),
		Lanes:    len(chart.Lanes),
		Points:   formatter.Records(category, points),
	}
	if resp.Points == nil {
		resp.Points = []formatter.PointRecord{}
	}
	renderJSON(c, http.StatusOK, resp)
}

func (s *Server) apiPanel(c *gin.Context) {
	renderJSON(c, http.StatusOK, newPanelResponse(s.board.Controller().Panel()))
}

func (s *Server) apiSelect(c *gin.Context) {
	var req selectRequest
	if err := bindJSON(c, &req); err != nil {
		renderJSON(c, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	sel := editsession.Selection{Category: req.Category, Key: req.Key, Milestone: req.Milestone}
	if req.Date != "" {
		d, err := model.ParseISODate(req.Date)
		if err != nil {
			renderJSON(c, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		sel.Date = d
	}

	panel, err := s.board.Controller().Select(sel)
	renderJSON(c, selectStatus(err), newPanelResponse(panel))
}

func selectStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, store.ErrUnknownCategory), errors.Is(err, store.ErrRowNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) apiCommit(c *gin.Context) {
	var req commitRequest
	if err := bindJSON(c, &req); err != nil {
		renderJSON(c, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	msg, err := s.board.Controller().Submit(c.Request.Context(), editsession.Form{
		Date:        req.Date,
		NextStep:    req.NextStep,
		ActionItems: req.ActionItems,
	})
	panel := newPanelResponse(s.board.Controller().Panel())
	if err != nil {
		panel.Error = err.Error()
		renderJSON(c, commitStatus(err), commitResponse{Panel: panel})
		return
	}
	renderJSON(c, http.StatusOK, commitResponse{Message: msg, Panel: panel})
}

func commitStatus(err error) int {
	var perr *editsession.PersistenceError
	switch {
	case errors.As(err, &perr):
		return http.StatusInternalServerError
	case errors.Is(err, editsession.ErrNoSelection):
		return http.StatusConflict
	case errors.Is(err, store.ErrRowNotFound), errors.Is(err, store.ErrUnknownCategory):
		return http.StatusNotFound
	default:
		return http.StatusUnprocessableEntity
	}
}

func (s *Server) apiCancel(c *gin.Context) {
	s.board.Controller().Cancel()
	renderJSON(c, http.StatusOK, newPanelResponse(s.board.Controller().Panel()))
}

func (s *Server) apiReload(c *gin.Context) {
	if err := s.board.Reload(c.Request.Context(), board.TriggerManual); err != nil {
		renderJSON(c, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	renderJSON(c, http.StatusOK, gin.H{"reloaded_at": s.board.LastReload().Format("2006-01-02T15:04:05Z07:00")})
}
