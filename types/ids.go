package types

// ProblemID identifies a problem for the lifetime of the process.
// Values are allocated by an enumerator on first reference to an external id.
type ProblemID int

// TeamID identifies a team for the lifetime of the process.
type TeamID int

// GroupID identifies a team group for the lifetime of the process.
type GroupID int

// OrganizationID identifies an organization for the lifetime of the process.
type OrganizationID int

// RunID identifies a run (a submission in feed terms) for the lifetime of the process.
type RunID int

// LanguageID identifies a programming language for the lifetime of the process.
type LanguageID int
