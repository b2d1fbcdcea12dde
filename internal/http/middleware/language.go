// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the caller's preferred content language once per
// request. The resolved value is stored in the Gin context and advertised on
// the response with Content-Language; Vary: Accept-Language keeps caches
// from mixing the two languages.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-portfolio-backend/internal/multilingual"
)

const (
	// LangQueryParam is the query parameter that forces a language.
	LangQueryParam = "lang"

	languageKey = "language"
)

// Language resolves the request language from ?lang= and Accept-Language.
func Language() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := multilingual.Resolve(c.Query(LangQueryParam), c.GetHeader("Accept-Language"))
		c.Set(languageKey, lang)

		h := c.Writer.Header()
		h.Set("Content-Language", lang.String())
		h.Add("Vary", "Accept-Language")
		c.Next()
	}
}

// LanguageFrom returns the language resolved by Language(). Without the
// middleware it resolves from the request directly.
func LanguageFrom(c *gin.Context) multilingual.Language {
	if v, ok := c.Get(languageKey); ok {
		if l, ok := v.(multilingual.Language); ok {
			return l
		}
	}
	return multilingual.Resolve(c.Query(LangQueryParam), c.GetHeader("Accept-Language"))
}
