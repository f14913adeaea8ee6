package web

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/example/tablebook/internal/intent"
	"github.com/example/tablebook/internal/runs"
)

const maxListLimit = 200

type parseRequest struct {
	Text     string `json:"text" binding:"required"`
	Timezone string `json:"timezone"`
}

func (s *Server) parseIntent(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err, "Invalid request")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		abortWithError(c, http.StatusBadRequest, errors.New("blank text"), "Invalid request")
		return
	}

	loc := s.Location
	if tz := strings.TrimSpace(req.Timezone); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err, "Unknown timezone")
			return
		}
		loc = l
	}

	p := intent.NewParser(intent.WithClock(s.Clock), intent.WithLocation(loc))
	c.JSON(http.StatusOK, p.Parse(req.Text))
}

func (s *Server) listRuns(c *gin.Context) {
	if s.Runs == nil {
		abortWithError(c, http.StatusServiceUnavailable, errNoHistory, "Run history is not configured")
		return
	}
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			abortWithError(c, http.StatusBadRequest, errors.Newf("bad limit %q", v), "Invalid limit")
			return
		}
		limit = min(n, maxListLimit)
	}

	list, err := s.Runs.List(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err, "Failed to list runs")
		return
	}
	if list == nil {
		list = []runs.Run{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": list})
}

func (s *Server) getRun(c *gin.Context) {
	if s.Runs == nil {
		abortWithError(c, http.StatusServiceUnavailable, errNoHistory, "Run history is not configured")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err, "Invalid id")
		return
	}

	run, err := s.Runs.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, runs.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, err, "Run not found")
			return
		}
		abortWithError(c, http.StatusInternalServerError, err, "Failed to load run")
		return
	}
	c.JSON(http.StatusOK, run)
}
