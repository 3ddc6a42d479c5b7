package tuning

import (
	"context"
	"maps"
	"slices"

	"github.com/jjudge-oj/livefeed/internal/enumerator"
	"github.com/jjudge-oj/livefeed/internal/feed"
	"github.com/jjudge-oj/livefeed/types"
)

// rules are settings resolved to internal ids.
type rules struct {
	settings *Settings
	teams    map[types.TeamID]TeamOverride
	problems map[types.ProblemID]ProblemOverride
	groups   map[types.GroupID]GroupOverride
	orgs     map[types.OrganizationID]OrganizationOverride
	awards   []types.AwardChain
}

func (s *Settings) resolve(ids *enumerator.Set) *rules {
	r := &rules{
		settings: s,
		teams:    make(map[types.TeamID]TeamOverride, len(s.Teams)),
		problems: make(map[types.ProblemID]ProblemOverride, len(s.Problems)),
		groups:   make(map[types.GroupID]GroupOverride, len(s.Groups)),
		orgs:     make(map[types.OrganizationID]OrganizationOverride, len(s.Organizations)),
		awards:   s.awardChains(ids),
	}
	// sorted, so that ids allocated here do not depend on map order
	for _, id := range slices.Sorted(maps.Keys(s.Teams)) {
		r.teams[ids.Teams.IDFor(id)] = s.Teams[id]
	}
	for _, id := range slices.Sorted(maps.Keys(s.Problems)) {
		r.problems[ids.Problems.IDFor(id)] = s.Problems[id]
	}
	for _, id := range slices.Sorted(maps.Keys(s.Groups)) {
		r.groups[ids.Groups.IDFor(id)] = s.Groups[id]
	}
	for _, id := range slices.Sorted(maps.Keys(s.Organizations)) {
		r.orgs[ids.Organizations.IDFor(id)] = s.Organizations[id]
	}
	return r
}

// Apply wraps an adapter so that every contest snapshot it emits carries the
// overrides. Ids are resolved through the same enumerators the adapter uses.
func Apply(adapter feed.Adapter, settings *Settings, ids *enumerator.Set) feed.Adapter {
	if settings == nil {
		return adapter
	}
	r := settings.resolve(ids)
	return feed.AdapterFunc(func(ctx context.Context, handler feed.Handler) error {
		var (
			last    types.ContestInfo
			hasLast bool
		)
		return adapter.Subscribe(ctx, func(ctx context.Context, update types.ContestUpdate) error {
			// runs and analytics carry the snapshot of the preceding InfoUpdate
			if _, ok := update.(types.InfoUpdate); ok || !hasLast {
				last = r.process(update.Contest())
				hasLast = true
			}
			switch u := update.(type) {
			case types.InfoUpdate:
				return handler(ctx, types.InfoUpdate{Info: last})
			case types.RunUpdate:
				return handler(ctx, types.RunUpdate{Info: last, Run: u.Run})
			case types.AnalyticsUpdate:
				return handler(ctx, types.AnalyticsUpdate{Info: last, Message: u.Message})
			default:
				return handler(ctx, update)
			}
		})
	})
}

func (r *rules) process(info types.ContestInfo) types.ContestInfo {
	s := r.settings
	if s.Name != "" {
		info.Name = s.Name
	}
	if s.ResultType != "" {
		info.ResultType = s.ResultType
	}
	if s.PenaltyRoundingMode != "" {
		info.PenaltyRoundingMode = s.PenaltyRoundingMode
	}
	if s.PenaltyPerWrongAttempt != nil {
		info.PenaltyPerWrongAttempt = *s.PenaltyPerWrongAttempt
	}
	if s.FreezeTime != nil {
		freeze := *s.FreezeTime
		info.FreezeTime = &freeze
	}
	if s.ContestLength != nil {
		info.ContestLength = *s.ContestLength
	}
	if s.ShowTeamsWithoutSubmissions != nil {
		info.ShowTeamsWithoutSubmissions = *s.ShowTeamsWithoutSubmissions
	}

	if len(r.teams) > 0 {
		info.Teams = slices.Clone(info.Teams)
		for i, team := range info.Teams {
			if o, ok := r.teams[team.ID]; ok {
				info.Teams[i] = o.apply(team)
			}
		}
	}
	if len(r.problems) > 0 {
		info.Problems = slices.Clone(info.Problems)
		for i, problem := range info.Problems {
			if o, ok := r.problems[problem.ID]; ok {
				info.Problems[i] = o.apply(problem)
			}
		}
	}
	if len(r.groups) > 0 {
		info.Groups = slices.Clone(info.Groups)
		for i, group := range info.Groups {
			if o, ok := r.groups[group.ID]; ok {
				if o.Hidden != nil {
					group.IsHidden = *o.Hidden
				}
				if o.OutOfContest != nil {
					group.IsOutOfContest = *o.OutOfContest
				}
				info.Groups[i] = group
			}
		}
	}
	if len(r.orgs) > 0 {
		info.Organizations = slices.Clone(info.Organizations)
		for i, org := range info.Organizations {
			if o, ok := r.orgs[org.ID]; ok {
				info.Organizations[i] = o.apply(org)
			}
		}
	}
	if len(r.awards) > 0 {
		info.AwardsSettings = append(slices.Clone(info.AwardsSettings), r.awards...)
	}
	return info
}

func (o TeamOverride) apply(team types.TeamInfo) types.TeamInfo {
	if o.FullName != "" {
		team.FullName = o.FullName
	}
	if o.DisplayName != "" {
		team.DisplayName = o.DisplayName
	}
	if o.Hidden != nil {
		team.IsHidden = *o.Hidden
	}
	if o.OutOfContest != nil {
		team.IsOutOfContest = *o.OutOfContest
	}
	if len(o.CustomFields) > 0 {
		team.CustomFields = mergeFields(team.CustomFields, o.CustomFields)
	}
	return team
}

func (o OrganizationOverride) apply(org types.OrganizationInfo) types.OrganizationInfo {
	if o.DisplayName != "" {
		org.DisplayName = o.DisplayName
	}
	if o.FullName != "" {
		org.FullName = o.FullName
	}
	if len(o.CustomFields) > 0 {
		org.CustomFields = mergeFields(org.CustomFields, o.CustomFields)
	}
	return org
}

func mergeFields(fields, overrides map[string]string) map[string]string {
	merged := maps.Clone(fields)
	if merged == nil {
		merged = make(map[string]string, len(overrides))
	}
	maps.Copy(merged, overrides)
	return merged
}

func (o ProblemOverride) apply(problem types.ProblemInfo) types.ProblemInfo {
	if o.Weight != nil {
		problem.Weight = *o.Weight
	}
	if o.ScoreMergeMode != "" {
		problem.ScoreMergeMode = o.ScoreMergeMode
	}
	if o.MinScore != nil {
		problem.MinScore = o.MinScore
	}
	if o.MaxScore != nil {
		problem.MaxScore = o.MaxScore
	}
	if o.Hidden != nil {
		problem.IsHidden = *o.Hidden
	}
	return problem
}
