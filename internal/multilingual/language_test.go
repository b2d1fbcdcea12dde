package multilingual

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		header string
		want   Language
	}{
		{"query wins over header", "ar", "en-US,en;q=0.9", Arabic},
		{"query en", "en", "ar", English},
		{"query must match exactly", "AR", "", English},
		{"unknown query falls through to header", "fr", "ar-EG", Arabic},
		{"header order beats weight", "", "fr-FR,ar;q=0.5,en;q=0.9", Arabic},
		{"region stripped and lowercased", "", "AR-sa", Arabic},
		{"spaces trimmed", "", "  de ,  en-GB ;q=0.3", English},
		{"no acceptable tag", "", "fr-FR", English},
		{"empty header", "", "", English},
		{"wildcard skipped", "", "*, ar", Arabic},
		{"malformed entries skipped", "", ";;;,-,ar", Arabic},
		{"three-letter code is not en", "", "eng,ar", Arabic},
		{"three-letter code is not ar", "", "ara,en", English},
		{"alias skipped in header order", "", "fr-FR,ara;q=0.5,en", English},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.query, tt.header))
		})
	}
}

func TestLanguageIsValid(t *testing.T) {
	assert.True(t, English.IsValid())
	assert.True(t, Arabic.IsValid())
	assert.False(t, Language("fr").IsValid())
	assert.False(t, Language("").IsValid())
	assert.Equal(t, English, Default)
}
