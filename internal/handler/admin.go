package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tripio/travel-marketplace/internal/model"
	"github.com/tripio/travel-marketplace/internal/repository"
)

// AdminHandler covers platform administration: the geographic catalog,
// user moderation, review moderation, featured curation and the
// platform dashboard.
type AdminHandler struct {
	Users        *repository.UserRepo
	RegionRepo   *repository.RegionRepo
	DestRepo     *repository.DestinationRepo
	PackageRepo  *repository.PackageRepo
	ReviewRepo   *repository.ReviewRepo
	ActivityRepo *repository.ActivityRepo
}

func NewAdminHandler(u *repository.UserRepo, r *repository.RegionRepo, d *repository.DestinationRepo, p *repository.PackageRepo, rv *repository.ReviewRepo, a *repository.ActivityRepo) *AdminHandler {
	if u == nil || r == nil || d == nil || p == nil || rv == nil || a == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{Users: u, RegionRepo: r, DestRepo: d, PackageRepo: p, ReviewRepo: rv, ActivityRepo: a}
}

// --- users ---

// ListUsers handles GET /v1/admin/users with optional ?role= filter.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	role := strings.ToUpper(c.QueryParam("role"))
	switch role {
	case "", model.RoleBuyer, model.RoleSeller, model.RoleAdmin:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}
	page, pageSize := pageParams(c)

	users, total, err := h.Users.List(c.Request().Context(), role, page, pageSize)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load users"})
	}
	items := make([]echo.Map, 0, len(users))
	for _, u := range users {
		items = append(items, echo.Map{
			"id":                 u.ID,
			"email":              u.Email,
			"username":           u.Username,
			"role":               u.Role,
			"is_active":          u.IsActive,
			"is_verified_seller": u.IsVerifiedSeller,
			"created_at":         u.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":     items,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

type suspendReq struct {
	Active bool `json:"active"`
}

// SetUserActive handles PUT /v1/admin/users/:id/active, suspending or
// reinstating an account.  Suspended users cannot log in.
func (h *AdminHandler) SetUserActive(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	adminID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if id == adminID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot suspend yourself"})
	}
	var req suspendReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.Users.SetActive(c.Request().Context(), id, req.Active); err != nil {
		return adminUserError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type verifySellerReq struct {
	Verified bool `json:"verified"`
}

// VerifySeller handles PUT /v1/admin/users/:id/verify-seller.
func (h *AdminHandler) VerifySeller(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req verifySellerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx := c.Request().Context()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return adminUserError(c, err)
	}
	if u.Role != model.RoleSeller {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user is not a seller"})
	}
	if err := h.Users.SetVerifiedSeller(ctx, id, req.Verified); err != nil {
		return adminUserError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func adminUserError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}

// --- catalog: regions ---

type regionReq struct {
	Name        string  `json:"name"`
	Code        string  `json:"code"`
	ParentID    *uint64 `json:"parent_id"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url"`
	IsActive    *bool   `json:"is_active"`
	Featured    bool    `json:"featured"`
}

func (r regionReq) apply(reg *model.Region) {
	reg.Name = strings.TrimSpace(r.Name)
	reg.Code = strings.ToUpper(strings.TrimSpace(r.Code))
	reg.ParentID = r.ParentID
	reg.Description = r.Description
	reg.ImageURL = strings.TrimSpace(r.ImageURL)
	reg.IsActive = true
	if r.IsActive != nil {
		reg.IsActive = *r.IsActive
	}
	reg.Featured = r.Featured
}

// CreateRegion handles POST /v1/admin/regions.
func (h *AdminHandler) CreateRegion(c echo.Context) error {
	var req regionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	ctx := c.Request().Context()

	if req.ParentID != nil {
		if _, err := h.RegionRepo.GetByID(ctx, *req.ParentID); err != nil {
			if errors.Is(err, repository.ErrRegionNotFound) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "parent region not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}

	reg := model.Region{Slug: slugify(req.Name)}
	req.apply(&reg)
	if err := h.RegionRepo.Create(ctx, &reg); err != nil {
		if errors.Is(err, repository.ErrSlugExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "a region with this name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create region"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"region_id": reg.ID, "slug": reg.Slug})
}

// UpdateRegion handles PUT /v1/admin/regions/:id.
func (h *AdminHandler) UpdateRegion(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid region id"})
	}
	var req regionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if req.ParentID != nil && *req.ParentID == id {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "region cannot be its own parent"})
	}

	reg := model.Region{ID: id}
	req.apply(&reg)
	if err := h.RegionRepo.Update(c.Request().Context(), reg); err != nil {
		if errors.Is(err, repository.ErrRegionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "region not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update region"})
	}
	return c.NoContent(http.StatusNoContent)
}

// --- catalog: destinations ---

type destinationReq struct {
	RegionID         uint64  `json:"region_id"`
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	ShortDescription string  `json:"short_description"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Address          string  `json:"address"`
	MainImageURL     string  `json:"main_image_url"`
	IsActive         *bool   `json:"is_active"`
	Featured         bool    `json:"featured"`
}

func (r destinationReq) validate() string {
	if r.RegionID == 0 {
		return "region_id is required"
	}
	if strings.TrimSpace(r.Name) == "" {
		return "name is required"
	}
	if r.Latitude < -90 || r.Latitude > 90 {
		return "latitude out of range"
	}
	if r.Longitude < -180 || r.Longitude > 180 {
		return "longitude out of range"
	}
	return ""
}

func (r destinationReq) apply(d *model.Destination) {
	d.RegionID = r.RegionID
	d.Name = strings.TrimSpace(r.Name)
	d.Description = r.Description
	d.ShortDescription = strings.TrimSpace(r.ShortDescription)
	d.Latitude = r.Latitude
	d.Longitude = r.Longitude
	d.Address = strings.TrimSpace(r.Address)
	d.MainImageURL = strings.TrimSpace(r.MainImageURL)
	d.IsActive = true
	if r.IsActive != nil {
		d.IsActive = *r.IsActive
	}
	d.Featured = r.Featured
}

// CreateDestination handles POST /v1/admin/destinations.
func (h *AdminHandler) CreateDestination(c echo.Context) error {
	var req destinationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ctx := c.Request().Context()

	if _, err := h.RegionRepo.GetByID(ctx, req.RegionID); err != nil {
		if errors.Is(err, repository.ErrRegionNotFound) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "region not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	d := model.Destination{Slug: slugify(req.Name)}
	req.apply(&d)
	if err := h.DestRepo.Create(ctx, &d); err != nil {
		if errors.Is(err, repository.ErrSlugExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "a destination with this name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create destination"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"destination_id": d.ID, "slug": d.Slug})
}

// UpdateDestination handles PUT /v1/admin/destinations/:id.
func (h *AdminHandler) UpdateDestination(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid destination id"})
	}
	var req destinationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	d := model.Destination{ID: id}
	req.apply(&d)
	if err := h.DestRepo.Update(c.Request().Context(), d); err != nil {
		if errors.Is(err, repository.ErrDestinationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "destination not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update destination"})
	}
	return c.NoContent(http.StatusNoContent)
}

// --- curation & moderation ---

type featureReq struct {
	Featured bool `json:"featured"`
}

// FeaturePackage handles PUT /v1/admin/packages/:id/feature.
func (h *AdminHandler) FeaturePackage(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid package id"})
	}
	var req featureReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.PackageRepo.SetFeatured(c.Request().Context(), id, req.Featured); err != nil {
		if errors.Is(err, repository.ErrPackageNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "package not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update package"})
	}
	return c.NoContent(http.StatusNoContent)
}

type publishReq struct {
	Published bool `json:"published"`
}

// ModerateReview handles PUT /v1/admin/reviews/:id/publish.
// Unpublishing recomputes the package and destination rating rollups.
func (h *AdminHandler) ModerateReview(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid review id"})
	}
	var req publishReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.ReviewRepo.SetPublished(c.Request().Context(), id, req.Published); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update review"})
	}
	return c.NoContent(http.StatusNoContent)
}

// --- analytics ---

// Dashboard handles GET /v1/admin/dashboard.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	stats, err := h.ActivityRepo.PlatformDashboard(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load dashboard"})
	}
	return c.JSON(http.StatusOK, stats)
}

// TopSearches handles GET /v1/admin/top-searches.
func (h *AdminHandler) TopSearches(c echo.Context) error {
	terms, err := h.ActivityRepo.TopSearchTerms(c.Request().Context(), 20)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load search terms"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": terms})
}
