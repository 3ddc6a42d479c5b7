package types

// Verdict represents the outcome of judging a run.
// Two verdicts with the same short name may differ in their flags
// (for example, compilation errors with and without penalty).
type Verdict struct {
	// ShortName is the compact code shown on scoreboards, e.g. "AC" or "WA".
	ShortName string `json:"shortName"`

	// IsAddingPenalty reports whether the verdict counts as a wrong attempt.
	IsAddingPenalty bool `json:"isAddingPenalty"`

	// IsAccepted reports whether the verdict solves the problem.
	IsAccepted bool `json:"isAccepted"`
}

// Supported verdict values.
var (
	VerdictAccepted                    = Verdict{ShortName: "AC", IsAddingPenalty: false, IsAccepted: true}
	VerdictRejected                    = Verdict{ShortName: "RJ", IsAddingPenalty: true, IsAccepted: false}
	VerdictFail                        = Verdict{ShortName: "FL", IsAddingPenalty: false, IsAccepted: true}
	VerdictCompilationError            = Verdict{ShortName: "CE", IsAddingPenalty: false, IsAccepted: false}
	VerdictCompilationErrorWithPenalty = Verdict{ShortName: "CE", IsAddingPenalty: true, IsAccepted: false}
	VerdictPresentationError           = Verdict{ShortName: "PE", IsAddingPenalty: true, IsAccepted: false}
	VerdictRuntimeError                = Verdict{ShortName: "RE", IsAddingPenalty: true, IsAccepted: false}
	VerdictTimeLimitExceeded           = Verdict{ShortName: "TL", IsAddingPenalty: true, IsAccepted: false}
	VerdictMemoryLimitExceeded         = Verdict{ShortName: "ML", IsAddingPenalty: true, IsAccepted: false}
	VerdictOutputLimitExceeded         = Verdict{ShortName: "OL", IsAddingPenalty: true, IsAccepted: false}
	VerdictIdlenessLimitExceeded       = Verdict{ShortName: "IL", IsAddingPenalty: true, IsAccepted: false}
	VerdictSecurityViolation           = Verdict{ShortName: "SV", IsAddingPenalty: true, IsAccepted: false}
	VerdictIgnored                     = Verdict{ShortName: "IG", IsAddingPenalty: false, IsAccepted: false}
	VerdictChallenged                  = Verdict{ShortName: "CH", IsAddingPenalty: true, IsAccepted: false}
	VerdictWrongAnswer                 = Verdict{ShortName: "WA", IsAddingPenalty: true, IsAccepted: false}
)

// AllVerdicts lists every predefined verdict.
var AllVerdicts = []Verdict{
	VerdictAccepted,
	VerdictRejected,
	VerdictFail,
	VerdictCompilationError,
	VerdictCompilationErrorWithPenalty,
	VerdictPresentationError,
	VerdictRuntimeError,
	VerdictTimeLimitExceeded,
	VerdictMemoryLimitExceeded,
	VerdictOutputLimitExceeded,
	VerdictIdlenessLimitExceeded,
	VerdictSecurityViolation,
	VerdictIgnored,
	VerdictChallenged,
	VerdictWrongAnswer,
}

var verdictAliases = map[string]Verdict{
	"OK":  VerdictAccepted,
	"TLE": VerdictTimeLimitExceeded,
	"RT":  VerdictRuntimeError,
	"RTE": VerdictRuntimeError,
	"OLE": VerdictOutputLimitExceeded,
	"MLE": VerdictMemoryLimitExceeded,
	"ILE": VerdictIdlenessLimitExceeded,
	"WTL": VerdictIdlenessLimitExceeded,
	"CTL": VerdictCompilationError,
}

// LookupVerdict finds the predefined verdict with the given short name and flags.
// Aliases such as "OK" or "TLE" are recognised. Unknown names fall back to
// accepted, rejected or ignored depending on the flags.
func LookupVerdict(shortName string, isAccepted, isAddingPenalty bool) Verdict {
	matches := func(v Verdict) bool {
		return v.IsAccepted == isAccepted && v.IsAddingPenalty == isAddingPenalty
	}
	var found []Verdict
	for _, v := range AllVerdicts {
		if v.ShortName == shortName && matches(v) {
			found = append(found, v)
		}
	}
	if alias, ok := verdictAliases[shortName]; ok && matches(alias) {
		found = append(found, alias)
	}
	if len(found) == 1 {
		return found[0]
	}
	switch {
	case isAccepted:
		return VerdictAccepted
	case isAddingPenalty:
		return VerdictRejected
	default:
		return VerdictIgnored
	}
}

// String returns the short name of the verdict.
func (v Verdict) String() string {
	return v.ShortName
}

