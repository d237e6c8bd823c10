// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/article-engine/internal/pipeline"
	"github.com/pdiddy/article-engine/internal/platform"
	"github.com/pdiddy/article-engine/internal/progress"
	"github.com/pdiddy/article-engine/pkg/types"
)

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobQueued   JobStatus = "queued"
	JobRunning  JobStatus = "running"
	JobComplete JobStatus = "complete"
	JobFailed   JobStatus = "failed"
)

// ArticleRequest is the body of POST /api/articles.
type ArticleRequest struct {
	Topic       string   `json:"topic" binding:"required"`
	Description string   `json:"description"`
	Style       string   `json:"style"`
	Platform    string   `json:"platform"`
	Subtopics   []string `json:"subtopics"`
	Concurrency int      `json:"concurrency"`
}

func (r ArticleRequest) pipelineRequest() (pipeline.Request, error) {
	style := types.StyleConversational
	if r.Style != "" {
		s, err := platform.ParseStyle(strings.ToLower(r.Style))
		if err != nil {
			return pipeline.Request{}, err
		}
		style = s
	}
	p, err := platform.ParsePlatform(strings.ToLower(r.Platform))
	if err != nil {
		return pipeline.Request{}, err
	}
	return pipeline.Request{
		Topic:       strings.TrimSpace(r.Topic),
		Description: r.Description,
		Style:       style,
		Platform:    p,
		Subtopics:   r.Subtopics,
		Concurrency: min(max(r.Concurrency, 1), 8),
	}, nil
}

// JobResult summarises a finished article.
type JobResult struct {
	Title        string           `json:"title"`
	WordCount    int              `json:"word_count"`
	SectionCount int              `json:"section_count"`
	Files        types.SaveResult `json:"files"`
}

// Job is one background pipeline run.
type Job struct {
	ID        string               `json:"id"`
	Topic     string               `json:"topic"`
	Status    JobStatus            `json:"status"`
	Progress  *types.ProgressEvent `json:"progress,omitempty"`
	Result    *JobResult           `json:"result,omitempty"`
	Error     string               `json:"error,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// start registers a job and runs it in a goroutine.
func (s *Server) start(req pipeline.Request) Job {
	now := time.Now().UTC()
	job := &Job{
		ID:        uuid.NewString(),
		Topic:     req.Topic,
		Status:    JobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	snapshot := *job
	s.mu.Unlock()

	req.Observer = progress.ObserverFunc(func(e types.ProgressEvent) {
		s.update(job.ID, func(j *Job) {
			j.Status = JobRunning
			j.Progress = &e
		})
	})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		logger := s.logger.With(zap.String("job", job.ID), zap.String("topic", req.Topic))
		logger.Info("job started")

		res, err := s.runner.Run(s.ctx, req)
		s.update(job.ID, func(j *Job) {
			if err != nil {
				j.Status = JobFailed
				j.Error = err.Error()
				return
			}
			j.Status = JobComplete
			j.Result = &JobResult{
				Title:        res.Metadata.Title,
				WordCount:    res.Metadata.WordCount,
				SectionCount: res.Metadata.SectionCount,
				Files:        res.Saved,
			}
		})
		if err != nil {
			logger.Error("job failed", zap.Error(err))
			return
		}
		logger.Info("job complete", zap.String("path", res.Saved.ContentPath))
	}()
	return snapshot
}

func (s *Server) update(id string, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		fn(j)
		j.UpdatedAt = time.Now().UTC()
	}
}

// job returns a copy of the job with the given id.
func (s *Server) job(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

// list returns copies of all jobs, newest first.
func (s *Server) list() []Job {
	s.mu.RLock()
	out := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, *j)
	}
	s.mu.RUnlock()
	slices.SortFunc(out, func(a, b Job) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out
}
