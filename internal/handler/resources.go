// Package handler provides HTTP handlers for the AssetHub REST API.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/CageChen/assethub/internal/config"
	"github.com/CageChen/assethub/internal/markdown"
	"github.com/CageChen/assethub/internal/resource"
	"github.com/gin-gonic/gin"
)

// FileEntry describes one file of a resource
type FileEntry struct {
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}

// FreshResponse is the result of a freshness check
type FreshResponse struct {
	Name  string `json:"name"`
	Since int64  `json:"since"`
	Fresh bool   `json:"fresh"`
}

// ResourceHandler serves the configured resource sources
type ResourceHandler struct {
	cfg      *config.Config
	renderer *markdown.Renderer
	logger   *slog.Logger
	mu       sync.RWMutex
}

// NewResourceHandler creates a new resource handler
func NewResourceHandler(cfg *config.Config, logger *slog.Logger) *ResourceHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ResourceHandler{
		cfg:      cfg,
		renderer: markdown.NewRenderer(cfg.HighlightStyle),
		logger:   logger,
	}
}

// source looks up the :name source, answering 404 when it is unknown
func (h *ResourceHandler) source(c *gin.Context) (config.Source, bool) {
	h.mu.RLock()
	src, ok := h.cfg.Source(c.Param("name"))
	h.mu.RUnlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown resource: " + c.Param("name")})
	}
	return src, ok
}

func (h *ResourceHandler) open(c *gin.Context) (resource.Resource, bool) {
	src, ok := h.source(c)
	if !ok {
		return nil, false
	}
	r, err := src.Open(h.logger)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return r, true
}

// fail maps a resource error kind to an HTTP status
func (h *ResourceHandler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch resource.KindOf(err) {
	case resource.KindNotFound:
		status = http.StatusNotFound
	case resource.KindInvalidArgument:
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("resource operation failed", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// ListResources returns the configured sources
func (h *ResourceHandler) ListResources(c *gin.Context) {
	h.mu.RLock()
	sources := append([]config.Source{}, h.cfg.Sources...)
	h.mu.RUnlock()

	c.JSON(http.StatusOK, gin.H{"resources": sources})
}

// GetFresh reports whether a resource is unchanged since the "since" unix timestamp
func (h *ResourceHandler) GetFresh(c *gin.Context) {
	since, err := strconv.ParseInt(c.Query("since"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "since must be a unix timestamp"})
		return
	}

	r, ok := h.open(c)
	if !ok {
		return
	}
	fresh, err := r.IsFresh(since)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, FreshResponse{Name: c.Param("name"), Since: since, Fresh: fresh})
}

// GetContent returns the aggregated content of a resource
func (h *ResourceHandler) GetContent(c *gin.Context) {
	r, ok := h.open(c)
	if !ok {
		return
	}
	content, err := r.Content()
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(content))
}

// GetFiles lists the files of a resource in walk order
func (h *ResourceHandler) GetFiles(c *gin.Context) {
	r, ok := h.open(c)
	if !ok {
		return
	}

	var files []resource.Resource
	if dir, isDir := r.(*resource.DirectoryResource); isDir {
		var err error
		if files, err = dir.Files(); err != nil {
			h.fail(c, err)
			return
		}
	} else {
		files = []resource.Resource{r}
	}

	entries := make([]FileEntry, 0, len(files))
	for _, f := range files {
		file, ok := f.(*resource.FileResource)
		if !ok {
			continue
		}
		info, err := file.Stat()
		if err != nil {
			h.fail(c, err)
			return
		}
		entries = append(entries, FileEntry{Path: file.Path(), Size: info.Size, ModTime: info.ModTime})
	}

	c.JSON(http.StatusOK, gin.H{"name": c.Param("name"), "files": entries})
}

// GetHTML renders the aggregated content of a resource as markdown
func (h *ResourceHandler) GetHTML(c *gin.Context) {
	r, ok := h.open(c)
	if !ok {
		return
	}
	content, err := r.Content()
	if err != nil {
		h.fail(c, err)
		return
	}

	doc, err := h.renderer.Render([]byte(content))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to render markdown: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, doc)
}

// AddResourceRequest represents a request to add a source
type AddResourceRequest struct {
	Name    string `json:"name" binding:"required"`
	Path    string `json:"path" binding:"required"`
	Kind    string `json:"kind"`
	Pattern string `json:"pattern"`
	Engine  string `json:"engine"`
	GitRef  string `json:"git_ref"`
	SubPath string `json:"sub_path"`
}

// AddResource adds a source to the configuration and saves it
func (h *ResourceHandler) AddResource(c *gin.Context) {
	var req AddResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "name and path are required",
		})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.cfg.AddSource(config.Source(req)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	if err := h.cfg.Save(); err != nil {
		h.cfg.RemoveSource(req.Name)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to save config: " + err.Error(),
		})
		return
	}

	h.logger.Info("resource added", "name", req.Name, "path", req.Path)
	c.JSON(http.StatusOK, gin.H{
		"message":   "resource added",
		"resources": h.cfg.Sources,
	})
}

// RemoveResource removes a source from the configuration and saves it
func (h *ResourceHandler) RemoveResource(c *gin.Context) {
	name := c.Param("name")

	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.cfg.RemoveSource(name) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown resource: " + name})
		return
	}

	if err := h.cfg.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to save config: " + err.Error(),
		})
		return
	}

	h.logger.Info("resource removed", "name", name)
	c.JSON(http.StatusOK, gin.H{
		"message":   "resource removed",
		"resources": h.cfg.Sources,
	})
}
