package plan

// Size is the number of tasks in a freshly generated plan.
const Size = 3

// catalog is the fixed pool generated plans draw from.
var catalog = []string{
	"5 minutes of deep breathing",
	"Write down 3 things you’re grateful for",
	"Take a 10-minute walk outside",
	"Listen to a calming music track",
	"Do 10 gentle stretches",
}

// Fixed next-day plans chosen by DailyCheckIn.
var (
	smallStepsPlan = []string{"2 minutes deep breathing", "Write 1 good thing about today"}
	balancedPlan   = []string{"5 minutes walk", "Gratitude journaling"}
)

// Catalog returns a copy of the task pool.
func Catalog() []string {
	return append([]string(nil), catalog...)
}

// SmallStepsPlan is the plan set after a check-in reporting "no".
func SmallStepsPlan() []string {
	return append([]string(nil), smallStepsPlan...)
}

// BalancedPlan is the plan set after a check-in reporting "partly".
func BalancedPlan() []string {
	return append([]string(nil), balancedPlan...)
}
