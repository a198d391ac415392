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
	"errors"
	"net/http"

	"stream-earn-go/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{store.ErrInvalidInput, http.StatusBadRequest},
	{store.ErrInvalidAmount, http.StatusBadRequest},
	{store.ErrInvalidDecision, http.StatusBadRequest},
	{store.ErrInvalidBanDuration, http.StatusBadRequest},
	{store.ErrPrematureCompletion, http.StatusBadRequest},
	{store.ErrNoAdStarted, http.StatusBadRequest},
	{store.ErrBelowMinimum, http.StatusBadRequest},
	{store.ErrSelfAction, http.StatusBadRequest},
	{store.ErrInvalidCredentials, http.StatusUnauthorized},
	{store.ErrLocked, http.StatusForbidden},
	{store.ErrWrongRole, http.StatusForbidden},
	{store.ErrAccountBanned, http.StatusForbidden},
	{store.ErrAccountInactive, http.StatusForbidden},
	{store.ErrTrackNotFound, http.StatusNotFound},
	{store.ErrAccountNotFound, http.StatusNotFound},
	{store.ErrWithdrawalNotFound, http.StatusNotFound},
	{store.ErrEmailExists, http.StatusConflict},
	{store.ErrUsernameExists, http.StatusConflict},
	{store.ErrNotPending, http.StatusConflict},
	{store.ErrTrackLimitReached, http.StatusConflict},
	{store.ErrInsufficientBalance, http.StatusUnprocessableEntity},
}

// respondError writes the status for a ledger error. Unknown errors are logged
// and reported as a generic 500.
func respondError(c *gin.Context, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			c.JSON(e.status, gin.H{"error": err.Error()})
			return
		}
	}

	zap.L().Error("Unhandled request error",
		zap.String("path", c.FullPath()),
		zap.String("request_id", c.GetString(ctxRequestId)),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
