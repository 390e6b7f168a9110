package i18n

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCatalogIsTotalForEveryLanguage(t *testing.T) {
	t.Parallel()

	for _, lang := range Supported() {
		entries, ok := catalog[lang]
		require.True(t, ok, lang)
		for _, key := range Keys {
			text, ok := entries[key]
			require.True(t, ok, "%s missing %s", lang, key)
			require.NotEmpty(t, strings.TrimSpace(text), "%s %s", lang, key)
		}
		require.Len(t, entries, len(Keys), lang)
	}
}

func TestParameterizedEntriesAgreeAcrossLanguages(t *testing.T) {
	t.Parallel()

	for _, key := range Keys {
		want := strings.Count(catalog[English][key], "%s")
		for _, lang := range Supported() {
			require.Equal(t, want, strings.Count(catalog[lang][key], "%s"), "%s %s", lang, key)
		}
	}
}

func TestTFormatsArguments(t *testing.T) {
	t.Parallel()

	require.Equal(t, `Could not convert "hello" to a valid number.`, T(English, KeyConversion, "hello"))
	require.Equal(t, "మైక్ లోపం: aborted", T(Telugu, KeyMicGeneric, "aborted"))
	require.Equal(t,
		`Invalid number format for Nitrogen: "1.2.3". Please enter a valid number.`,
		T(English, KeyInvalidNumber, T(English, KeyLabelNitrogen), "1.2.3"),
	)
}

func TestTFallbacks(t *testing.T) {
	t.Parallel()

	require.Equal(t, catalog[English][KeyListening], T(Language("fr"), KeyListening))
	require.Equal(t, "no_such_key", T(Telugu, Key("no_such_key")))
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    Language
		wantErr bool
	}{
		{raw: "en", want: English},
		{raw: "EN-us", want: English},
		{raw: "te", want: Telugu},
		{raw: "te_IN.UTF-8", want: Telugu},
		{raw: " telugu ", want: Telugu},
		{raw: "fr", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tc := range tests {
		got, err := Parse(tc.raw)
		if tc.wantErr {
			require.Error(t, err, tc.raw)
			continue
		}
		require.NoError(t, err, tc.raw)
		require.Equal(t, tc.want, got, tc.raw)
	}
}

func TestRecognizerTag(t *testing.T) {
	t.Parallel()

	require.Equal(t, "en-US", English.RecognizerTag())
	require.Equal(t, "te-IN", Telugu.RecognizerTag())
}

func TestCropName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "వరి", CropName(Telugu, "Rice"))
	require.Equal(t, "rice", CropName(English, "rice"))
	require.Equal(t, "quinoa", CropName(Telugu, "quinoa"))
}
