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
	"stream-earn-go/internal/api"
	"stream-earn-go/internal/models"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the ledger service onto a gin engine
func NewRouter(ledger *api.LedgerService, authCfg models.AuthConfig, limiter *RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger())
	if limiter != nil {
		r.Use(RateLimit(limiter))
	}

	h := NewHandler(ledger)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", h.Health)
		v1.POST("/auth/register", h.Register)
		v1.POST("/auth/login", h.Login)
		v1.GET("/tracks", h.ListActiveTracks)

		authed := v1.Group("")
		authed.Use(AuthRequired(authCfg))
		{
			authed.GET("/me", h.Me)
			authed.GET("/me/history", h.History)

			streamer := authed.Group("")
			streamer.Use(RequireRole(models.RoleStreamer))
			{
				streamer.POST("/ads/start", h.StartAd)
				streamer.POST("/ads/complete", h.CompleteAd)
				streamer.GET("/ads/status", h.AdStatus)
				streamer.POST("/tracks/:id/play", h.PlayTrack)
				streamer.GET("/streamer/stats", h.StreamerStats)
			}

			earners := authed.Group("/withdrawals")
			earners.Use(RequireRole(models.RoleStreamer, models.RoleArtist))
			{
				earners.POST("", h.RequestWithdrawal)
				earners.GET("", h.ListMyWithdrawals)
			}

			artist := authed.Group("/artist")
			artist.Use(RequireRole(models.RoleArtist))
			{
				artist.POST("/tracks", h.CreateTrack)
				artist.GET("/tracks", h.ListMyTracks)
				artist.DELETE("/tracks/:id", h.DeleteTrack)
				artist.GET("/stats", h.ArtistStats)
			}

			admin := authed.Group("/admin")
			admin.Use(RequireRole(models.RoleAdmin))
			{
				admin.GET("/overview", h.Overview)
				admin.GET("/reports", h.Report)
				admin.GET("/accounts", h.ListAccounts)
				admin.GET("/accounts/:id/history", h.AccountHistory)
				admin.POST("/accounts/:id/ban", h.BanAccount)
				admin.POST("/accounts/:id/unban", h.UnbanAccount)
				admin.POST("/accounts/:id/active", h.SetAccountActive)
				admin.POST("/accounts/bulk", h.BulkAction)
				admin.GET("/tracks", h.ListTracks)
				admin.POST("/tracks/:id/active", h.SetTrackActive)
				admin.GET("/withdrawals", h.ListWithdrawals)
				admin.POST("/withdrawals/:id/process", h.ProcessWithdrawal)
				admin.GET("/reconcile", h.Reconcile)
			}
		}
	}

	return r
}
