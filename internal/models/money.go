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

package models

import "github.com/shopspring/decimal"

// Amounts are persisted as integer cents and surfaced as decimals.

// ToCents converts a decimal amount to integer cents. It reports false when the
// amount carries sub-cent precision.
func ToCents(amount decimal.Decimal) (int64, bool) {
	if !amount.Equal(amount.Round(2)) {
		return 0, false
	}
	return amount.Shift(2).IntPart(), true
}

// FromCents converts integer cents to a two-digit decimal.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
