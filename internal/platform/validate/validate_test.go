// Copyright (c) 2026 Comiket Bot. All rights reserved.

package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comiketbot/comiket/internal/platform/apperr"
	"github.com/comiketbot/comiket/internal/platform/validate"
)

func TestValidator_Required(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		value    string
		hasError bool
	}{
		{"valid_string", "title", "よくわかる現代魔法", false},
		{"empty_string", "title", "", true},
		{"whitespace_only", "title", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Required(tt.field, tt.value)

			if tt.hasError {
				assert.True(t, v.HasErrors())
				err := v.Err()
				require.NotNil(t, err)

				ae := apperr.As(err)
				require.NotNil(t, ae)
				assert.Equal(t, apperr.CodeValidation, ae.Code)
				assert.Equal(t, tt.field, ae.Details[0].Field)
			} else {
				assert.False(t, v.HasErrors())
				assert.Nil(t, v.Err())
			}
		})
	}
}

func TestValidator_HTTPURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		isValid bool
	}{
		{"https", "https://www.melonbooks.co.jp/detail/detail.php?product_id=42", true},
		{"http", "http://example.com/x", true},
		{"relative", "/detail/detail.php", false},
		{"no_scheme", "www.melonbooks.co.jp/detail", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.HTTPURL("url", tt.url)
			assert.Equal(t, !tt.isValid, v.HasErrors())
		})
	}
}

func TestValidator_StringList(t *testing.T) {
	t.Run("empty_list_is_valid", func(t *testing.T) {
		v := &validate.Validator{}
		assert.Nil(t, v.StringList("genres", nil).Err())
	})

	t.Run("entries_must_carry_content", func(t *testing.T) {
		v := &validate.Validator{}
		err := v.StringList("genres", []string{"百合", " "}).Err()
		require.NotNil(t, err)

		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "genres", ae.Details[0].Field)
	})
}

func TestValidator_ChainCollectsAllFailures(t *testing.T) {
	v := &validate.Validator{}
	err := v.
		Required("title", "").
		HTTPURL("url", "nope").
		NonNegative("price_yen", -100).
		Err()

	require.NotNil(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Len(t, ae.Details, 3)
}
