/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package httpapi

import (
	"net/http"
	"strconv"

	"stream-earn-go/internal/api"
	"stream-earn-go/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type Handler struct {
	ledger *api.LedgerService
}

func NewHandler(ledger *api.LedgerService) *Handler {
	return &Handler{ledger: ledger}
}

func pathId(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func (h *Handler) Health(c *gin.Context) {
	if err := h.ledger.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// --- Auth ---

func (h *Handler) Register(c *gin.Context) {
	var req struct {
		Username     string `json:"username" binding:"required"`
		Email        string `json:"email" binding:"required,email"`
		Password     string `json:"password" binding:"required,min=6"`
		Role         string `json:"role" binding:"required,oneof=artist streamer"`
		ReferralCode string `json:"referral_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.ledger.Register(c.Request.Context(), models.RegisterParams{
		Username:     req.Username,
		Email:        req.Email,
		Password:     req.Password,
		Role:         req.Role,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.ledger.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// --- Account ---

func (h *Handler) Me(c *gin.Context) {
	account, err := h.ledger.GetAccount(c.Request.Context(), GetAccountId(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *Handler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	entries, err := h.ledger.GetLedgerHistory(c.Request.Context(), GetAccountId(c), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *Handler) ListActiveTracks(c *gin.Context) {
	tracks, err := h.ledger.ListActiveTracks(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tracks": tracks})
}

// --- Streamer ---

func (h *Handler) StartAd(c *gin.Context) {
	startedAt, err := h.ledger.StartAd(c.Request.Context(), GetAccountId(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"started_at": startedAt})
}

func (h *Handler) CompleteAd(c *gin.Context) {
	completion, err := h.ledger.RecordAdWatch(c.Request.Context(), GetAccountId(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, completion)
}

func (h *Handler) AdStatus(c *gin.Context) {
	status, err := h.ledger.CheckAdStatus(c.Request.Context(), GetAccountId(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *Handler) PlayTrack(c *gin.Context) {
	trackId, ok := pathId(c, "id")
	if !ok {
		return
	}
	result, err := h.ledger.RecordPlay(c.Request.Context(), GetAccountId(c), trackId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) StreamerStats(c *gin.Context) {
	stats, err := h.ledger.GetStreamerStats(c.Request.Context(), GetAccountId(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// --- Withdrawals ---

func (h *Handler) RequestWithdrawal(c *gin.Context) {
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	withdrawal, err := h.ledger.RequestWithdrawal(c.Request.Context(), GetAccountId(c), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, withdrawal)
}

func (h *Handler) ListMyWithdrawals(c *gin.Context) {
	withdrawals, err := h.ledger.ListWithdrawals(c.Request.Context(), GetAccountId(c), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": withdrawals})
}

// --- Artist ---

func (h *Handler) CreateTrack(c *gin.Context) {
	var req models.TrackParams
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	track, err := h.ledger.CreateTrack(c.Request.Context(), GetAccountId(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, track)
}

func (h *Handler) ListMyTracks(c *gin.Context) {
	tracks, err := h.ledger.ListArtistTracks(c.Request.Context(), GetAccountId(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tracks": tracks})
}

func (h *Handler) DeleteTrack(c *gin.Context) {
	trackId, ok := pathId(c, "id")
	if !ok {
		return
	}
	if err := h.ledger.DeleteTrack(c.Request.Context(), GetAccountId(c), trackId); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) ArtistStats(c *gin.Context) {
	stats, err := h.ledger.GetArtistStats(c.Request.Context(), GetAccountId(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// --- Admin ---

func (h *Handler) Overview(c *gin.Context) {
	overview, err := h.ledger.GetPlatformOverview(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// Report serves ?type=overview|earnings|users|music&from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) Report(c *gin.Context) {
	from, to, err := api.ParseReportRange(c.Query("from"), c.Query("to"), h.ledger.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	report, err := h.ledger.Report(c.Request.Context(), c.DefaultQuery("type", models.ReportOverview), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) ListAccounts(c *gin.Context) {
	accounts, err := h.ledger.ListAccounts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

func (h *Handler) ListTracks(c *gin.Context) {
	tracks, err := h.ledger.ListTracks(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tracks": tracks})
}

func (h *Handler) ListWithdrawals(c *gin.Context) {
	withdrawals, err := h.ledger.ListWithdrawals(c.Request.Context(), 0, c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": withdrawals})
}

func (h *Handler) ProcessWithdrawal(c *gin.Context) {
	withdrawalId, ok := pathId(c, "id")
	if !ok {
		return
	}
	var req struct {
		Decision string `json:"decision" binding:"required"`
		Reason   string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	withdrawal, err := h.ledger.ProcessWithdrawal(c.Request.Context(), GetAccountId(c), withdrawalId, req.Decision, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, withdrawal)
}

func (h *Handler) BanAccount(c *gin.Context) {
	accountId, ok := pathId(c, "id")
	if !ok {
		return
	}
	var req struct {
		Duration string `json:"duration" binding:"required"`
		Reason   string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.ledger.BanAccount(c.Request.Context(), GetAccountId(c), accountId, req.Duration, req.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) UnbanAccount(c *gin.Context) {
	accountId, ok := pathId(c, "id")
	if !ok {
		return
	}
	if err := h.ledger.UnbanAccount(c.Request.Context(), GetAccountId(c), accountId); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) SetAccountActive(c *gin.Context) {
	accountId, ok := pathId(c, "id")
	if !ok {
		return
	}
	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.ledger.SetAccountActive(c.Request.Context(), GetAccountId(c), accountId, *req.Active); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) BulkAction(c *gin.Context) {
	var req struct {
		AccountIds []int64 `json:"account_ids" binding:"required,min=1"`
		Action     string  `json:"action" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	affected, err := h.ledger.BulkAction(c.Request.Context(), GetAccountId(c), req.AccountIds, req.Action)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"affected": affected})
}

func (h *Handler) SetTrackActive(c *gin.Context) {
	trackId, ok := pathId(c, "id")
	if !ok {
		return
	}
	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.ledger.SetTrackActive(c.Request.Context(), GetAccountId(c), trackId, *req.Active); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) Reconcile(c *gin.Context) {
	mismatches, err := h.ledger.ReconcileAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if mismatches == nil {
		mismatches = []models.ReconcileResult{}
	}
	c.JSON(http.StatusOK, gin.H{"consistent": len(mismatches) == 0, "mismatches": mismatches})
}

func (h *Handler) AccountHistory(c *gin.Context) {
	accountId, ok := pathId(c, "id")
	if !ok {
		return
	}
	if _, err := h.ledger.GetAccount(c.Request.Context(), accountId); err != nil {
		respondError(c, err)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	entries, err := h.ledger.GetLedgerHistory(c.Request.Context(), accountId, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
