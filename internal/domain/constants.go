package domain

// OptionCount is the fixed number of options per question.
const OptionCount = 4

// MillionaireLadder holds the prize value reached at each question index.
// Score is replaced, not accumulated, as the player climbs.
var MillionaireLadder = []int{
	100, 120, 150, 200, 300,
	450, 600, 800, 1000, 1500,
	2500, 3500, 5000, 7500, 10000,
}

// SafetyNets are ladder indexes whose value is retained after a wrong answer.
var SafetyNets = []int{4, 9}

// WipeoutPrizes is the per-streak gain ladder; gains cap at the last entry.
var WipeoutPrizes = []int{50, 100, 200, 400, 800, 1200, 2000, 3500, 6000, 10000}

const (
	// LightningSeconds is the Lightning session time box.
	LightningSeconds = 60
	// GauntletSeconds is the Gauntlet starting timer.
	GauntletSeconds = 15
	// GauntletBonusSeconds is added every 3rd correct Gauntlet answer.
	GauntletBonusSeconds = 5
	// GauntletTimerCap bounds the replenished Gauntlet timer.
	GauntletTimerCap = 60

	// CategoryCount is how many sub-categories a CategoryKings batch holds.
	CategoryCount = 6
	// CategoryBlockSize is questions per sub-category block.
	CategoryBlockSize = 3
	// CategoryBonus is awarded when a block is answered perfectly.
	CategoryBonus = 1500

	// TeamQuestionsEach is how many questions each squad faces.
	TeamQuestionsEach = 5

	// BasePoints is the per-question gain in Lightning, Gauntlet, and
	// unmatched modes, before the neural-load multiplier.
	BasePoints = 100

	// MaxNeuralLoad bounds the streak multiplier.
	MaxNeuralLoad = 3
)

// Subjects are the selectable top-level question domains.
var Subjects = []string{
	"General Knowledge",
	"Mathematics",
	"English Studies",
	"Physics",
	"Chemistry",
	"Biology",
	"Basic & Applied Sciences",
	"Literature",
	"Economics",
	"History & Government",
	"Creative Arts",
}

// BatchSize is the question count requested from the provider per mode.
func BatchSize(mode GameMode, teamCount int) int {
	switch mode {
	case ModeMillionaire:
		return 15
	case ModeLightning:
		return 30
	case ModeGauntlet:
		return 50
	case ModeTeamBattle:
		if teamCount < 1 {
			teamCount = 1
		}
		return teamCount * TeamQuestionsEach
	case ModeCategoryKings:
		return CategoryCount * CategoryBlockSize
	default:
		return 10
	}
}

// Milestone names, unlocked during stats folding.
const (
	MilestonePurePrecision = "Pure Precision"
	MilestoneEliteHub      = "Elite Hub"
)
