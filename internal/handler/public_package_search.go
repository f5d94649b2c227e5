package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	queue_publisher "github.com/tripio/travel-marketplace/internal/service"

	"github.com/tripio/travel-marketplace/internal/queue"
	"github.com/tripio/travel-marketplace/internal/repository"
)

// SearchPackages handles GET /v1/packages/search.  Filters: q,
// destination, region, min_price/max_price (major units), duration
// min/max, difficulty, start_after/start_before (YYYY-MM-DD), sort.
// Each keyword search also emits an activity event so the search-term
// counters stay fresh; tracking is fire-and-forget and never delays
// the response.
func (h *PublicHandler) SearchPackages(c echo.Context) error {
	q := repository.PackageSearchQuery{
		Keyword:     strings.TrimSpace(c.QueryParam("q")),
		Destination: strings.TrimSpace(c.QueryParam("destination")),
		Region:      strings.TrimSpace(c.QueryParam("region")),
		Difficulty:  strings.TrimSpace(c.QueryParam("difficulty")),
		StartAfter:  strings.TrimSpace(c.QueryParam("start_after")),
		StartBefore: strings.TrimSpace(c.QueryParam("start_before")),
		SortBy:      strings.TrimSpace(c.QueryParam("sort")),
	}
	if v, err := strconv.ParseFloat(c.QueryParam("min_price"), 64); err == nil && v > 0 {
		q.MinPriceCents = toCents(v)
	}
	if v, err := strconv.ParseFloat(c.QueryParam("max_price"), 64); err == nil && v > 0 {
		q.MaxPriceCents = toCents(v)
	}
	if v, err := strconv.Atoi(c.QueryParam("min_duration")); err == nil && v > 0 {
		q.MinDuration = v
	}
	if v, err := strconv.Atoi(c.QueryParam("max_duration")); err == nil && v > 0 {
		q.MaxDuration = v
	}
	q.Page, q.PageSize = pageParams(c)

	items, total, err := h.PackageRepo.Search(c.Request().Context(), q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":   "database_error",
			"message": err.Error(),
		})
	}

	if q.Keyword != "" {
		// Snapshot everything from the request now: Echo recycles the
		// context once the handler returns, so the detached publisher
		// must never touch it.
		go publishSearchEvent(searchEvent(c, q.Keyword))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data":      items,
		"total":     total,
		"page":      q.Page,
		"page_size": q.PageSize,
	})
}

// searchEvent captures a search as an activity event.  It must run on
// the request goroutine, while the echo.Context is still ours.
func searchEvent(c echo.Context, term string) queue.UserActivityEvent {
	ev := queue.UserActivityEvent{
		SessionID:  c.Request().Header.Get("X-Session-ID"),
		IPAddress:  c.RealIP(),
		Action:     "search",
		Page:       c.Request().URL.Path,
		SearchTerm: term,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	if uid, err := getUserID(c); err == nil {
		ev.UserID = &uid
	}
	return ev
}

// publishSearchEvent sends a captured event to the activity queue.
// Fire-and-forget: a broker outage costs a counter tick, not the
// search response.
func publishSearchEvent(ev queue.UserActivityEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := queue_publisher.PublishActivity(ctx, ev); err != nil {
		log.Printf("search: publishing activity event failed: %v", err)
	}
}
