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

package api

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"stream-earn-go/internal/store"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var allowedTrackExtensions = map[string]bool{
	".mp3": true,
	".wav": true,
	".ogg": true,
}

func init() {
	if err := validate.RegisterValidation("trackfile", isTrackFile); err != nil {
		panic(err)
	}
}

// isTrackFile accepts a bare mp3, wav or ogg filename
func isTrackFile(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if filepath.Base(name) != name {
		return false
	}
	return allowedTrackExtensions[strings.ToLower(filepath.Ext(name))]
}

// validateParams runs the struct tags of params and wraps any failure in
// store.ErrInvalidInput, naming the offending fields.
func validateParams(params interface{}) error {
	err := validate.Struct(params)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
	}
	failed := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		failed = append(failed, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", store.ErrInvalidInput, strings.Join(failed, ", "))
}
