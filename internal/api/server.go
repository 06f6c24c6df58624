// Package api serves the read-only dashboard endpoints over the action
// ledger: aggregated engagement counts and the recent-comments feed. The
// service opens the sqlite file read-only and runs as a separate process
// from the bot, so a busy writer never blocks a dashboard query.
package api

import (
	"context"
	"net/http"
	"strconv"

	"threadpulse/internal/ledger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultCommentLimit = 50

// Ledger is the read side of the action ledger.
type Ledger interface {
	AggregateCounts(ctx context.Context, f ledger.Filter) (map[string]map[string]int, error)
	RecentComments(ctx context.Context, f ledger.Filter, limit int) ([]ledger.CommentRecord, error)
}

// Server holds the handlers for the dashboard query service.
type Server struct {
	ledger    Ledger
	collector *Collector
	log       *zap.Logger
}

// NewServer builds the query service over an opened ledger.
func NewServer(led Ledger, log *zap.Logger) (*Server, error) {
	collector, err := NewCollector()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{ledger: led, collector: collector, log: log}, nil
}

// Router assembles the gin engine with all routes and middleware.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())
	r.Use(s.collector.Instrument())

	r.GET("/healthz", s.health)
	r.GET("/metrics", s.metrics)
	r.GET("/comments", s.comments)
	r.GET("/prometheus", gin.WrapH(s.collector.Handler()))
	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// metrics returns action counts grouped by platform and action type,
// optionally narrowed by platform, action_type, from_date and to_date
// query parameters.
func (s *Server) metrics(c *gin.Context) {
	counts, err := s.ledger.AggregateCounts(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		s.log.Error("aggregate query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, counts)
}

// comments returns the newest comment records first, bounded by the
// limit query parameter.
func (s *Server) comments(c *gin.Context) {
	limit := defaultCommentLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	recs, err := s.ledger.RecentComments(c.Request.Context(), filterFromQuery(c), limit)
	if err != nil {
		s.log.Error("comments query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Rotation-level records carry no community; the dashboard shows
	// those as Unknown.
	out := make([]ledger.CommentRecord, 0, len(recs))
	for _, rec := range recs {
		if rec.Community == "" {
			rec.Community = "Unknown"
		}
		out = append(out, rec)
	}
	c.JSON(http.StatusOK, out)
}

func filterFromQuery(c *gin.Context) ledger.Filter {
	return ledger.Filter{
		Platform:   c.Query("platform"),
		ActionType: c.Query("action_type"),
		From:       c.Query("from_date"),
		To:         c.Query("to_date"),
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
