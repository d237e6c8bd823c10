// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package api serves article generation over HTTP. Each accepted request
// becomes a job that runs the pipeline in the background; clients poll the
// job for progress and the saved result.
package api

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pdiddy/article-engine/internal/pipeline"
	"github.com/pdiddy/article-engine/pkg/types"
)

// Runner runs one pipeline. *pipeline.Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// History lists saved articles. *store.Store satisfies it.
type History interface {
	History(ctx context.Context, f types.HistoryFilter) ([]types.HistoryEntry, error)
}

// Server holds the job table and the collaborators the handlers use.
type Server struct {
	runner  Runner
	history History
	logger  *zap.Logger

	mu   sync.RWMutex
	jobs map[string]*Job

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer returns a server that runs jobs with runner. history may be nil.
func NewServer(runner Runner, history History, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		runner:  runner,
		history: history,
		logger:  logger,
		jobs:    make(map[string]*Job),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// NewRouter constructs a Gin engine with registered routes.
func (s *Server) NewRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", handleHealth)
	api := r.Group("/api")
	api.POST("/articles", s.handleCreateArticle)
	api.GET("/articles", s.handleListArticles)
	api.GET("/jobs", s.handleListJobs)
	api.GET("/jobs/:id", s.handleGetJob)
	return r
}

// Close cancels running jobs and waits for them to finish.
func (s *Server) Close() {
	s.cancel()
	s.wg.Wait()
}

// Wait blocks until every started job has finished.
func (s *Server) Wait() {
	s.wg.Wait()
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleCreateArticle accepts an ArticleRequest and starts a job.
func (s *Server) handleCreateArticle(c *gin.Context) {
	var body ArticleRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req, err := body.pipelineRequest()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job := s.start(req)
	c.JSON(http.StatusAccepted, gin.H{"job_id": job.ID, "status": job.Status})
}

func (s *Server) handleGetJob(c *gin.Context) {
	job, ok := s.job(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) handleListJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": s.list()})
}

// handleListArticles returns the article history. Query parameters topic,
// platform, q, and limit narrow the listing.
func (s *Server) handleListArticles(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusOK, gin.H{"articles": []types.HistoryEntry{}})
		return
	}
	f := types.HistoryFilter{
		Topic:    c.Query("topic"),
		Platform: c.Query("platform"),
		Query:    c.Query("q"),
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		f.Limit = n
	}
	entries, err := s.history.History(c.Request.Context(), f)
	if err != nil {
		s.logger.Error("listing history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if entries == nil {
		entries = []types.HistoryEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"articles": entries})
}
