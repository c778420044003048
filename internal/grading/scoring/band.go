package scoring

// Band is a letter grade derived from a 0-100 score.
type Band string

const (
	BandA Band = "A"
	BandB Band = "B"
	BandC Band = "C"
	BandD Band = "D"
	BandE Band = "E"
	BandF Band = "F"
)

var bandThresholds = []struct {
	min  float64
	band Band
}{
	{90, BandA},
	{80, BandB},
	{70, BandC},
	{60, BandD},
	{50, BandE},
}

// Bands lists every band from best to worst.
func Bands() []Band {
	return []Band{BandA, BandB, BandC, BandD, BandE, BandF}
}

// BandFor maps a score to its band.
func BandFor(score float64) Band {
	for _, t := range bandThresholds {
		if score >= t.min {
			return t.band
		}
	}
	return BandF
}

// ScoreToBand maps an optional score; a disqualified (nil) score has no band.
func ScoreToBand(score *float64) *Band {
	if score == nil {
		return nil
	}
	band := BandFor(*score)
	return &band
}
