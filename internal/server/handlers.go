package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rshade/planetzero/internal/engine"
	"github.com/rshade/planetzero/internal/greenops"
	"github.com/rshade/planetzero/internal/ingest"
	"github.com/rshade/planetzero/pkg/version"
)

// handlers binds routes to engine operations.
type handlers struct {
	eng               *engine.Engine
	leaderboardLimit  int
	leaderboardPeriod engine.Period
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.GetVersion()})
}

// submitLog handles POST /daily-log. ?mode=create rejects an existing day
// with 409; otherwise the day is replaced. 201 means a new record.
func (h *handlers) submitLog(c *gin.Context) {
	mode, err := engine.ParseWriteMode(c.Query("mode"))
	if err != nil {
		writeError(c, err)
		return
	}
	data, err := c.GetRawData()
	if err != nil {
		writeError(c, fmt.Errorf("%w: reading body: %w", engine.ErrValidation, err))
		return
	}
	day, err := ingest.ParseDailyLog(c.Request.Context(), data, ingest.FormatJSON)
	if err != nil {
		writeError(c, err)
		return
	}
	if day.Date == "" {
		day.Date = h.eng.Today()
	}

	res, err := h.eng.LogActivity(c.Request.Context(), authUser(c), day.Date, day.Activity, mode)
	if err != nil {
		writeError(c, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	c.JSON(status, res)
}

func (h *handlers) getLog(c *gin.Context) {
	rec, err := h.eng.GetLog(c.Request.Context(), authUser(c), c.Param("date"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *handlers) dashboard(c *gin.Context) {
	d, err := h.eng.Dashboard(c.Request.Context(), authUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *handlers) summary(c *gin.Context) {
	r := engine.DateRange{Start: c.Query("start"), End: c.Query("end")}
	s, err := h.eng.Summary(c.Request.Context(), authUser(c), engine.WindowCustom, r)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *handlers) history(c *gin.Context) {
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		writeError(c, err)
		return
	}
	recs, err := h.eng.History(c.Request.Context(), authUser(c), engine.HistoryQuery{
		Start: c.Query("start"),
		End:   c.Query("end"),
		Limit: limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": recs, "count": len(recs)})
}

func (h *handlers) leaderboard(c *gin.Context) {
	period := h.leaderboardPeriod
	if p := c.Query("period"); p != "" {
		parsed, err := engine.ParsePeriod(p)
		if err != nil {
			writeError(c, err)
			return
		}
		period = parsed
	}
	limit, err := intQuery(c, "limit", h.leaderboardLimit)
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := h.eng.Leaderboard(c.Request.Context(), authUser(c), period, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handlers) recommendations(c *gin.Context) {
	set, err := h.eng.Recommendations(c.Request.Context(), authUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, set)
}

func (h *handlers) profile(c *gin.Context) {
	p, err := h.eng.Profile(c.Request.Context(), authUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handlers) onboarding(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		writeError(c, fmt.Errorf("%w: reading body: %w", engine.ErrValidation, err))
		return
	}
	fields, err := ingest.ParseOnboarding(c.Request.Context(), data, ingest.FormatJSON)
	if err != nil {
		writeError(c, err)
		return
	}
	u, err := h.eng.Onboard(c.Request.Context(), authUser(c), fields)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u, "onboarding_completed": u.OnboardingCompleted()})
}

func (h *handlers) factors(c *gin.Context) {
	factors, err := greenops.SelectFactors(c.Query("category"), c.Query("subtype"))
	if err != nil {
		writeError(c, fmt.Errorf("%w: %w", engine.ErrValidation, err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"factors": factors})
}

// intQuery parses an optional integer query parameter.
func intQuery(c *gin.Context, name string, def int) (int, error) {
	v := c.Query(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", engine.ErrValidation, name, v)
	}
	return n, nil
}
