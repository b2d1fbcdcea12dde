package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-portfolio-backend/internal/media"
	"github.com/tbourn/go-portfolio-backend/internal/multilingual"
	"github.com/tbourn/go-portfolio-backend/internal/services"
)

func Test_failErr_Mapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		err    error
		status int
		code   string
		msg    string
	}{
		{"validation", &services.ValidationError{Field: "name", Message: "is required"}, http.StatusBadRequest, ErrCodeBadRequest, "name is required"},
		{"category not found", services.ErrCategoryNotFound, http.StatusNotFound, ErrCodeNotFound, msgCategoryNotFound},
		{"project not found wrapped", fmt.Errorf("load: %w", services.ErrProjectNotFound), http.StatusNotFound, ErrCodeNotFound, msgProjectNotFound},
		{"contact not found", services.ErrContactNotFound, http.StatusNotFound, ErrCodeNotFound, msgContactNotFound},
		{"image not found", media.ErrNotFound, http.StatusNotFound, ErrCodeNotFound, msgImageNotFound},
		{"image required", services.ErrImageRequired, http.StatusBadRequest, ErrCodeBadRequest, msgImageRequired},
		{"no file", media.ErrNoFile, http.StatusBadRequest, ErrCodeBadRequest, msgImageRequired},
		{"category missing", services.ErrCategoryMissing, http.StatusBadRequest, ErrCodeBadRequest, msgCategoryMissing},
		{"duplicate contact", services.ErrDuplicateContact, http.StatusBadRequest, ErrCodeBadRequest, msgDuplicateContact},
		{"unsupported type", media.ErrUnsupportedType, http.StatusBadRequest, ErrCodeBadRequest, "Only image files are allowed"},
		{"too large", media.ErrTooLarge, http.StatusBadRequest, ErrCodeBadRequest, "Image exceeds the maximum upload size"},
		{"invalid image", fmt.Errorf("%w: eof", media.ErrInvalidImage), http.StatusBadRequest, ErrCodeBadRequest, "Uploaded file is not a valid image"},
		{"missing language", multilingual.ErrMissingLanguage, http.StatusBadRequest, ErrCodeBadRequest, multilingual.ErrMissingLanguage.Error()},
		{"body too large", &http.MaxBytesError{Limit: 10}, http.StatusBadRequest, ErrCodeBadRequest, msgBodyTooLarge},
		{"duplicate category", services.ErrDuplicateCategory, http.StatusConflict, ErrCodeConflict, msgDuplicateCategory},
		{"bad login", services.ErrInvalidCredentials, http.StatusUnauthorized, ErrCodeUnauthorized, msgInvalidLogin},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, ErrCodeInternal, msgInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/x", func(c *gin.Context) { failErr(c, tc.err) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

			if w.Code != tc.status {
				t.Fatalf("status=%d, want %d", w.Code, tc.status)
			}
			er := decodeError(t, w)
			if er.Success || er.Code != tc.code || er.Message != tc.msg {
				t.Fatalf("body=%+v", er)
			}
		})
	}
}
