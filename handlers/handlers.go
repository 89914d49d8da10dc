package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"parkingfee/middleware"
	"parkingfee/parking"
	"parkingfee/rates"
)

const maxCategoryLen = 64

type Handler struct {
	store    rates.Catalog
	resolver *rates.Resolver
	log      *zap.Logger
}

func New(store rates.Catalog, log *zap.Logger) *Handler {
	return &Handler{
		store:    store,
		resolver: rates.NewResolver(store, log),
		log:      log,
	}
}

// FeeRequest prices one stay. Start is "HH:MM"; without it the daytime
// regime is used. Category defaults to weekday.
type FeeRequest struct {
	Minutes  *int   `json:"minutes" binding:"required"`
	Start    string `json:"start"`
	Category string `json:"category"`
}

type FeeResponse struct {
	Category string       `json:"category"`
	Source   rates.Source `json:"source"`
	Start    string       `json:"start,omitempty"`
	parking.Quote
}

// SplitFeeRequest prices a stay with a weekday part and a holiday part.
type SplitFeeRequest struct {
	WeekdayMinutes  int    `json:"weekday_minutes"`
	HolidayMinutes  int    `json:"holiday_minutes"`
	WeekdayCategory string `json:"weekday_category"`
	HolidayCategory string `json:"holiday_category"`
}

type SplitFeeResponse struct {
	WeekdayFee int `json:"weekday_fee"`
	HolidayFee int `json:"holiday_fee"`
	Total      int `json:"total"`
}

// RateRequest is the body of a rate profile update.
type RateRequest struct {
	UnitMinutes      int `json:"unit_minutes" binding:"required,gt=0"`
	UnitPrice        int `json:"unit_price" binding:"min=0"`
	CapMinutes       int `json:"cap_minutes" binding:"min=0"`
	CapFee           int `json:"cap_fee" binding:"min=0"`
	NightUnitMinutes int `json:"night_unit_minutes" binding:"required,gt=0"`
	NightUnitPrice   int `json:"night_unit_price" binding:"min=0"`
	NightCapMinutes  int `json:"night_cap_minutes" binding:"min=0"`
	NightCapFee      int `json:"night_cap_fee" binding:"min=0"`
}

func (r RateRequest) profile() parking.Profile {
	return parking.Profile{
		UnitMinutes:      r.UnitMinutes,
		UnitPrice:        r.UnitPrice,
		CapMinutes:       r.CapMinutes,
		CapFee:           r.CapFee,
		NightUnitMinutes: r.NightUnitMinutes,
		NightUnitPrice:   r.NightUnitPrice,
		NightCapMinutes:  r.NightCapMinutes,
		NightCapFee:      r.NightCapFee,
	}
}

type RateResponse struct {
	Category string          `json:"category"`
	Source   rates.Source    `json:"source"`
	Profile  parking.Profile `json:"profile"`
}

func (h *Handler) Fee(c *gin.Context) {
	var req FeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Category == "" {
		req.Category = string(parking.Weekday)
	}

	profile, source, err := h.resolver.Resolve(c.Request.Context(), req.Category)
	if err != nil {
		h.fail(c, err)
		return
	}
	calc, err := parking.NewCalculator(profile)
	if err != nil {
		h.fail(c, err)
		return
	}

	var quote parking.Quote
	if req.Start == "" {
		quote, err = calc.Quote(*req.Minutes)
	} else {
		var start parking.TimeOfDay
		start, err = parking.ParseTimeOfDay(req.Start)
		if err == nil {
			req.Start = start.String()
			quote, err = calc.QuoteAt(*req.Minutes, start.Hour, start.Minute)
		}
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	middleware.FeeQuotes.WithLabelValues(req.Category, string(quote.Regime), strconv.FormatBool(quote.Capped)).Inc()

	c.JSON(http.StatusOK, FeeResponse{
		Category: req.Category,
		Source:   source,
		Start:    req.Start,
		Quote:    quote,
	})
}

func (h *Handler) SplitFee(c *gin.Context) {
	var req SplitFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.WeekdayCategory == "" {
		req.WeekdayCategory = string(parking.Weekday)
	}
	if req.HolidayCategory == "" {
		req.HolidayCategory = string(parking.Holiday)
	}

	ctx := c.Request.Context()
	weekday, _, err := h.resolver.Resolve(ctx, req.WeekdayCategory)
	if err != nil {
		h.fail(c, err)
		return
	}
	holiday, _, err := h.resolver.Resolve(ctx, req.HolidayCategory)
	if err != nil {
		h.fail(c, err)
		return
	}

	total, err := parking.SplitFee(req.WeekdayMinutes, req.HolidayMinutes, &weekday, &holiday)
	if err != nil {
		h.fail(c, err)
		return
	}
	weekdayFee, err := parking.SplitFee(req.WeekdayMinutes, 0, &weekday, nil)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, SplitFeeResponse{
		WeekdayFee: weekdayFee,
		HolidayFee: total - weekdayFee,
		Total:      total,
	})
}

func (h *Handler) ListRates(c *gin.Context) {
	categories, err := h.store.Categories(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"presets":    parking.Presets(),
	})
}

func (h *Handler) GetRate(c *gin.Context) {
	category := c.Param("category")

	profile, source, err := h.resolver.Resolve(c.Request.Context(), category)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, RateResponse{Category: category, Source: source, Profile: profile})
}

func (h *Handler) PutRate(c *gin.Context) {
	category := c.Param("category")
	if len(category) > maxCategoryLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category name too long"})
		return
	}

	var req RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile := req.profile()
	if err := profile.Validate(); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.store.Save(c.Request.Context(), category, profile); err != nil {
		h.fail(c, err)
		return
	}

	h.log.Info("rates saved", zap.String("category", category), zap.String("request_id", middleware.GetRequestID(c)))
	c.JSON(http.StatusOK, RateResponse{Category: category, Source: rates.SourceStored, Profile: profile})
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, parking.ErrInvalidDuration),
		errors.Is(err, parking.ErrInvalidTimeOfDay),
		errors.Is(err, parking.ErrInvalidProfile):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, parking.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		h.log.Error("request failed", zap.Error(err), zap.String("request_id", middleware.GetRequestID(c)))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
