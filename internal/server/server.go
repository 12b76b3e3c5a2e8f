package server

import (
	"errors"
	"net/http"
	"net/http/pprof"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/richie-p-meyer/loglens/internal/aggregator"
	"github.com/richie-p-meyer/loglens/internal/diff"
	"github.com/richie-p-meyer/loglens/internal/filter"
	"github.com/richie-p-meyer/loglens/internal/loader"
	"github.com/richie-p-meyer/loglens/internal/model"
)

const defaultLimit = 100

// Server exposes the stats, filter and diff reports over HTTP for log
// files found below a root directory.
type Server struct {
	engine    *gin.Engine
	loader    *loader.Loader
	log       logrus.FieldLogger
	root      string
	addr      string
	startTime time.Time
}

// New creates a report server. Requested paths are resolved inside root.
func New(l *loader.Loader, log logrus.FieldLogger, root, addr string) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(log))

	// Disable automatic redirects that cause 301 issues.
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false

	s := &Server{
		engine:    engine,
		loader:    l,
		log:       log,
		root:      root,
		addr:      addr,
		startTime: time.Now(),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"uptime": time.Since(s.startTime).Truncate(time.Second).String(),
			"root":   s.root,
		})
	})

	api := s.engine.Group("/api")
	api.GET("/stats", s.handleStats)
	api.GET("/entries", s.handleEntries)
	api.GET("/diff", s.handleDiff)

	// pprof profiling endpoints.
	s.engine.GET("/debug/pprof/", gin.WrapF(pprof.Index))
	s.engine.GET("/debug/pprof/cmdline", gin.WrapF(pprof.Cmdline))
	s.engine.GET("/debug/pprof/profile", gin.WrapF(pprof.Profile))
	s.engine.GET("/debug/pprof/symbol", gin.WrapF(pprof.Symbol))
	s.engine.GET("/debug/pprof/trace", gin.WrapF(pprof.Trace))
	s.engine.GET("/debug/pprof/allocs", gin.WrapH(pprof.Handler("allocs")))
	s.engine.GET("/debug/pprof/heap", gin.WrapH(pprof.Handler("heap")))
	s.engine.GET("/debug/pprof/goroutine", gin.WrapH(pprof.Handler("goroutine")))
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start runs the server. Blocks until the server is stopped.
func (s *Server) Start() error {
	s.log.WithFields(logrus.Fields{"addr": s.addr, "root": s.root}).Info("report server listening")
	return s.engine.Run(s.addr)
}

// GET /api/stats?file=app.log&level=ERROR&keyword=timeout
func (s *Server) handleStats(c *gin.Context) {
	entries, ok := s.loadParam(c, "file")
	if !ok {
		return
	}
	summary := aggregator.Summarize(entries)
	if wantsText(c) {
		c.String(http.StatusOK, summary.String())
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GET /api/entries?file=app.log&limit=50
func (s *Server) handleEntries(c *gin.Context) {
	entries, ok := s.loadParam(c, "file")
	if !ok {
		return
	}

	limit := defaultLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			badRequest(c, errors.New("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	c.JSON(http.StatusOK, gin.H{"count": len(entries), "entries": entries})
}

// GET /api/diff?healthy=good.log&failing=bad.log
func (s *Server) handleDiff(c *gin.Context) {
	healthy, ok := s.loadParam(c, "healthy")
	if !ok {
		return
	}
	failing, ok := s.loadParam(c, "failing")
	if !ok {
		return
	}

	report, err := diff.Compare(healthy, failing)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": diff.MissingSideMessage})
		return
	}
	if wantsText(c) {
		c.String(http.StatusOK, report.String())
		return
	}
	c.JSON(http.StatusOK, report)
}

// loadParam loads and filters the file named by query parameter name.
// On failure it writes the error response and returns false.
func (s *Server) loadParam(c *gin.Context, name string) ([]model.LogEntry, bool) {
	criteria, err := queryCriteria(c)
	if err != nil {
		badRequest(c, err)
		return nil, false
	}

	rel := c.Query(name)
	if rel == "" {
		badRequest(c, errors.New("missing "+name+" parameter"))
		return nil, false
	}

	entries, err := s.loader.Files(s.resolve(rel))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	return filter.Apply(entries, criteria), true
}

// resolve maps a request path (or glob) into the root directory. Leading
// slashes and ".." segments cannot escape the root.
func (s *Server) resolve(rel string) string {
	clean := filepath.Clean("/" + filepath.FromSlash(rel))
	return filepath.Join(s.root, clean)
}

func queryCriteria(c *gin.Context) (filter.Criteria, error) {
	q := filter.Query{
		Since:     c.Query("since"),
		Until:     c.Query("until"),
		Levels:    c.QueryArray("level"),
		Keywords:  c.QueryArray("keyword"),
		RequestID: c.Query("request_id"),
	}
	if v := c.Query("min_latency"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return filter.Criteria{}, errors.New("min_latency must be an integer")
		}
		q.MinLatency = &n
	}
	return q.Criteria()
}

func wantsText(c *gin.Context) bool {
	return strings.EqualFold(c.Query("format"), "text")
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// requestLogger logs one line per request at debug level.
func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start).String(),
		}).Debug("request")
	}
}
