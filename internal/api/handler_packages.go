package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"cafeteria-backend/internal/model"
	"cafeteria-backend/internal/mw"
	"cafeteria-backend/internal/store"
)

type mealSpecRequest struct {
	Enabled bool            `json:"enabled"`
	Total   int             `json:"total"`
	Price   decimal.Decimal `json:"price"`
}

func (r mealSpecRequest) toSpec() store.MealSpec {
	return store.MealSpec{Enabled: r.Enabled, Total: r.Total, Price: r.Price}
}

type createPackageRequest struct {
	MemberID    string `json:"member_id" binding:"required"`
	MemberType  string `json:"member_type" binding:"required"`
	PackageType string `json:"package_type" binding:"required"`

	Breakfast mealSpecRequest `json:"breakfast"`
	Lunch     mealSpecRequest `json:"lunch"`
	Dinner    mealSpecRequest `json:"dinner"`

	Balance decimal.Decimal `json:"balance"`

	StartDate     string              `json:"start_date"`
	EndDate       string              `json:"end_date"`
	DisabledDays  []string            `json:"disabled_days"`
	DisabledMeals map[string][]string `json:"disabled_meals"`
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *createPackageRequest) toInput() (store.CreatePackageInput, error) {
	in := store.CreatePackageInput{
		MemberID:    r.MemberID,
		MemberType:  model.MemberType(r.MemberType),
		PackageType: model.PackageType(r.PackageType),
		Breakfast:   r.Breakfast.toSpec(),
		Lunch:       r.Lunch.toSpec(),
		Dinner:      r.Dinner.toSpec(),
		Balance:     r.Balance,
	}
	var err error
	if in.StartDate, err = parseDate(r.StartDate); err != nil {
		return in, err
	}
	if in.EndDate, err = parseDate(r.EndDate); err != nil {
		return in, err
	}
	for _, d := range r.DisabledDays {
		day, err := parseDate(d)
		if err != nil {
			return in, err
		}
		in.DisabledDays = append(in.DisabledDays, *day)
	}
	if len(r.DisabledMeals) > 0 {
		in.DisabledMeals = make(map[string][]model.MealType, len(r.DisabledMeals))
		for date, meals := range r.DisabledMeals {
			for _, m := range meals {
				in.DisabledMeals[date] = append(in.DisabledMeals[date], model.MealType(m))
			}
		}
	}
	return in, nil
}

func packageID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid package ID"})
		return 0, false
	}
	return id, true
}

// CreatePackage handles POST /api/packages.
func (h *Handler) CreatePackage(c *gin.Context) {
	var req createPackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in, err := req.toInput()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid date, use YYYY-MM-DD"})
		return
	}

	pkg, err := h.store.CreatePackage(c.Request.Context(), mw.Organization(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pkg)
}

// ListPackages handles GET /api/packages.
func (h *Handler) ListPackages(c *gin.Context) {
	pkgs, err := h.store.ListPackages(c.Request.Context(), mw.Organization(c), c.Query("member_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pkgs)
}

// GetPackage handles GET /api/packages/:id.
func (h *Handler) GetPackage(c *gin.Context) {
	id, ok := packageID(c)
	if !ok {
		return
	}
	pkg, err := h.store.GetPackage(c.Request.Context(), mw.Organization(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pkg)
}

// DeletePackage handles DELETE /api/packages/:id.
func (h *Handler) DeletePackage(c *gin.Context) {
	id, ok := packageID(c)
	if !ok {
		return
	}
	if err := h.store.DeletePackage(c.Request.Context(), mw.Organization(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type renewPackageRequest struct {
	createPackageRequest
	CarryOver bool `json:"carry_over"`
}

// RenewPackage handles POST /api/packages/:id/renew.
func (h *Handler) RenewPackage(c *gin.Context) {
	id, ok := packageID(c)
	if !ok {
		return
	}
	var req renewPackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in, err := req.toInput()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid date, use YYYY-MM-DD"})
		return
	}

	result, err := h.store.RenewPackage(c.Request.Context(), mw.Organization(c), id, store.RenewPackageInput{
		CreatePackageInput: in,
		CarryOver:          req.CarryOver,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type deactivateRequest struct {
	Reason string `json:"reason"`
}

// DeactivatePackage handles POST /api/packages/:id/deactivate.
func (h *Handler) DeactivatePackage(c *gin.Context) {
	id, ok := packageID(c)
	if !ok {
		return
	}
	var req deactivateRequest
	// Body is optional for deactivation.
	_ = c.ShouldBindJSON(&req)

	pkg, err := h.store.DeactivatePackage(c.Request.Context(), mw.Organization(c), id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pkg)
}

// ReactivatePackage handles POST /api/packages/:id/reactivate.
func (h *Handler) ReactivatePackage(c *gin.Context) {
	id, ok := packageID(c)
	if !ok {
		return
	}
	pkg, err := h.store.ReactivatePackage(c.Request.Context(), mw.Organization(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pkg)
}

type depositRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Notes  string          `json:"notes"`
}

// Deposit handles POST /api/packages/:id/deposit.
func (h *Handler) Deposit(c *gin.Context) {
	id, ok := packageID(c)
	if !ok {
		return
	}
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pkg, tx, err := h.store.Deposit(c.Request.Context(), mw.Organization(c), id, req.Amount, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"package": pkg, "transaction": tx})
}

// GetPackageHistory handles GET /api/packages/:id/history.
func (h *Handler) GetPackageHistory(c *gin.Context) {
	id, ok := packageID(c)
	if !ok {
		return
	}
	hist, err := h.store.PackageHistory(c.Request.Context(), mw.Organization(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hist)
}

// GetPackageTransactions handles GET /api/packages/:id/transactions.
func (h *Handler) GetPackageTransactions(c *gin.Context) {
	id, ok := packageID(c)
	if !ok {
		return
	}
	txs, err := h.store.PackageTransactions(c.Request.Context(), mw.Organization(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txs)
}
