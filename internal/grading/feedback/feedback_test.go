package feedback

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edumate-go-api/internal/grading/features"
	"github.com/noah-isme/edumate-go-api/internal/grading/scoring"
)

func TestGenerateCoversEveryBandAndSubject(t *testing.T) {
	for _, subject := range Subjects() {
		for _, band := range scoring.Bands() {
			fb, err := Generate(string(band), subject)
			require.NoError(t, err, "%s/%s", subject, band)
			require.NotEmpty(t, fb.Text)
			require.NotEmpty(t, fb.Resources)
		}
	}
}

func TestGenerateTemplate(t *testing.T) {
	fb, err := Generate("a", " Mathematics ")
	require.NoError(t, err)
	require.Contains(t, fb.Text, "Excellent work!")
	require.Equal(t, "Advanced Algebra", fb.Resources[0].Title)
}

func TestGenerateUnknownInputsAreConfigurationErrors(t *testing.T) {
	_, err := Generate("Z", "mathematics")
	require.ErrorIs(t, err, ErrUnknownBand)
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = Generate("A", "history")
	require.ErrorIs(t, err, ErrUnknownSubject)
	require.ErrorIs(t, err, ErrConfiguration)
	require.False(t, errors.Is(err, ErrUnknownBand))
}

func TestGenerateReturnsCopies(t *testing.T) {
	first, err := Generate("B", "science")
	require.NoError(t, err)
	first.Resources[0].Title = "changed"

	second, err := Generate("B", "science")
	require.NoError(t, err)
	require.NotEqual(t, "changed", second.Resources[0].Title)
}

func TestEvaluateCriteriaWeakSubmission(t *testing.T) {
	v := features.Build(features.Input{
		Text:        "2x + 5 = 11\n2x = 6\nx = 3",
		Description: "Lös ekvationen 2x + 5 = 11",
	})

	c := EvaluateCriteria(v)
	require.Equal(t, []string{"Korrekt metodval"}, c.Met)
	require.Equal(t, []string{"Bristande resonemang", "Förklaring behöver utvecklas"}, c.Missed)
	require.Equal(t, []string{"Fortsätt på samma sätt! Du visar tydligt förståelse."}, c.Improvements)
}

func TestEvaluateCriteriaFlagsErrors(t *testing.T) {
	v := features.Build(features.Input{
		Text: "Först räknar vi 7 * 8 = 54 eftersom det är rätt.\nDärför använde jag fel formel.\nSedan addera vi.",
	})

	c := EvaluateCriteria(v)
	require.Contains(t, c.Met, "God resonemangsförmåga")
	require.Equal(t, []string{
		"Kontrollera beräkningarna – ett eller flera räknefel upptäcktes.",
		"Gå igenom de matematiska begreppen för att undvika missförstånd.",
	}, c.Improvements)
}
