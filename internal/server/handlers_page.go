package server

import (
	"bytes"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/penwyp/go-milestone-board/internal/application/board"
	"github.com/penwyp/go-milestone-board/internal/core/editsession"
	"github.com/penwyp/go-milestone-board/internal/core/model"
	"github.com/penwyp/go-milestone-board/internal/core/rowkey"
	"github.com/penwyp/go-milestone-board/internal/presentation/layout"
	"github.com/penwyp/go-milestone-board/internal/util"
)

type categoryTab struct {
	Name   string
	Href   string
	Active bool
}

// pageData is the template model of the dashboard page.
type pageData struct {
	Title      string
	Category   string
	Categories []categoryTab
	Chart      *chartView
	Empty      bool

	Panel      editsession.Panel
	PanelDate  string
	IdlePrompt string
	Schema     model.Schema

	Status     string
	Workbook   string
	LastReload string
}

func pageURL(category string) string {
	return "/?" + url.Values{"category": {category}}.Encode()
}

// pageCategory picks the category to show: the query, the category of the
// selection, or the first one.
func (s *Server) pageCategory(c *gin.Context, panel editsession.Panel) string {
	if category := c.Query("category"); category != "" {
		return category
	}
	if panel.Selected() {
		return panel.Category
	}
	return s.board.Categories()[0]
}

func (s *Server) handlePage(c *gin.Context) {
	cfg := s.board.Config()
	panel := s.board.Controller().Panel()
	category := s.pageCategory(c, panel)

	chart, err := s.board.Chart(category)
	if err != nil {
		c.String(http.StatusNotFound, err.Error())
		return
	}

	var selected *rowkey.Key
	if panel.Selected() && panel.Category == category {
		k := panel.Key
		selected = &k
	}

	data := pageData{
		Title:      layout.Title,
		Category:   category,
		Chart:      buildChart(chart, cfg, util.GetTimeProvider().Today(), selected, panel.Milestone),
		Empty:      len(chart.Lanes) == 0,
		Panel:      panel,
		PanelDate:  model.FormatDate(panel.Date),
		IdlePrompt: editsession.IdlePrompt,
		Schema:     cfg.Schema,
		Status:     s.takeStatus(),
		Workbook:   s.board.WorkbookPath(),
	}
	if t := s.board.LastReload(); !t.IsZero() {
		data.LastReload = t.Format("2006-01-02 15:04:05")
	}
	for _, name := range s.board.Categories() {
		data.Categories = append(data.Categories, categoryTab{Name: name, Href: pageURL(name), Active: name == category})
	}

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		util.LogErrorf("Failed to render page: %v", err)
		c.String(http.StatusInternalServerError, "failed to render page")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// handleSelect is the target of chart point links.
func (s *Server) handleSelect(c *gin.Context) {
	sel := editsession.Selection{
		Category:  c.Query("category"),
		Key:       c.Query("key"),
		Milestone: c.Query("milestone"),
	}
	if d, err := model.ParseISODate(c.Query("date")); err == nil {
		sel.Date = d
	}

	if _, err := s.board.Controller().Select(sel); err != nil {
		util.LogWarnf("Selection of %q failed: %v", sel.Key, err)
	}
	c.Redirect(http.StatusSeeOther, pageURL(sel.Category))
}

// handleCommit applies the panel form. Posted fields that match the panel
// are left out, so a date-only edit does not rewrite the notes.
func (s *Server) handleCommit(c *gin.Context) {
	panel := s.board.Controller().Panel()

	var form editsession.Form
	form.Date = changedField(c, "date", model.FormatDate(panel.Date))
	form.NextStep = changedField(c, "next_step", panel.NextStep)
	form.ActionItems = changedField(c, "action_items", panel.ActionItems)

	category := panel.Category
	if _, err := s.board.Controller().Submit(c.Request.Context(), form); err != nil {
		util.LogWarnf("Commit failed: %v", err)
	}
	if category == "" {
		category = s.board.Categories()[0]
	}
	c.Redirect(http.StatusSeeOther, pageURL(category))
}

// changedField returns the posted value of name with line breaks normalised
// to LF, or nil when it is absent or equal to current.
func changedField(c *gin.Context, name, current string) *string {
	v, ok := c.GetPostForm(name)
	if !ok {
		return nil
	}
	v = strings.ReplaceAll(v, "\r\n", "\n")
	v = strings.ReplaceAll(v, "\r", "\n")
	if v == current {
		return nil
	}
	return editsession.Text(v)
}

func (s *Server) handleCancel(c *gin.Context) {
	category := s.board.Controller().Panel().Category
	s.board.Controller().Cancel()
	if category == "" {
		category = s.board.Categories()[0]
	}
	c.Redirect(http.StatusSeeOther, pageURL(category))
}

func (s *Server) handleReload(c *gin.Context) {
	if err := s.board.Reload(c.Request.Context(), board.TriggerManual); err != nil {
		s.setStatus("Reload failed: " + err.Error())
	} else {
		s.setStatus("Reloaded " + s.board.WorkbookPath())
	}
	category := c.PostForm("category")
	if category == "" {
		category = s.board.Categories()[0]
	}
	c.Redirect(http.StatusSeeOther, pageURL(category))
}
