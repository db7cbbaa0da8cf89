package games

import "github.com/Vodeneev/lottostats/internal/pkg/models"

const (
	Lotto6aus49  = "lotto6aus49"
	Eurojackpot  = "eurojackpot"
	EuroMillions = "euromillions"
	Powerball    = "powerball"
)

// Builtin returns the games supported out of the box.
func Builtin() []Game {
	return []Game{
		{
			Key:       Lotto6aus49,
			Name:      "Lotto 6aus49",
			SourceURL: "https://www.lotto.de/lotto-6aus49/lottozahlen",
			Config:    models.GameConfig{NumbersPerDraw: 6, MaxValue: 49},
			DrawSelectors: []string{
				".WinningNumbersArchive .WinningNumbers",
				".lottozahlen-archiv .ziehung",
			},
			WaitCondition: ".WinningNumbers",
		},
		{
			Key:       Eurojackpot,
			Name:      "Eurojackpot",
			SourceURL: "https://www.eurojackpot.de/eurojackpot/zahlen",
			Config:    models.GameConfig{NumbersPerDraw: 5, MaxValue: 50, SecondaryCount: 2, SecondaryMaxValue: 12},
			DrawSelectors: []string{
				".ej-archive .ej-draw",
				".WinningNumbersArchive .WinningNumbers",
			},
			WaitCondition: ".ej-draw, .WinningNumbers",
		},
		{
			Key:       EuroMillions,
			Name:      "EuroMillions",
			SourceURL: "https://www.euro-millions.com/results",
			Config:    models.GameConfig{NumbersPerDraw: 5, MaxValue: 50, SecondaryCount: 2, SecondaryMaxValue: 12},
			DrawSelectors: []string{
				"#resultsTable tbody tr.resultRow",
				".archives .archive-box",
			},
			WaitCondition: "#resultsTable",
		},
		{
			Key:       Powerball,
			Name:      "Powerball",
			SourceURL: "https://www.powerball.com/previous-results?gc=powerball",
			Config:    models.GameConfig{NumbersPerDraw: 5, MaxValue: 69, SecondaryCount: 1, SecondaryMaxValue: 26},
			DrawSelectors: []string{
				"#searchNumbersResults a.card",
				".previous-results .card",
			},
			WaitCondition: ".card",
		},
	}
}
