package feed

import (
	"context"
	"sync"

	"github.com/jjudge-oj/livefeed/types"
	"golang.org/x/sync/errgroup"
)

// Merge runs several adapters concurrently as one contest. Handler calls are
// serialized; updates of one adapter keep their order, but there is no order
// between adapters. The first failing adapter cancels the others.
//
// Every forwarded update carries the combination of the latest snapshot of
// each adapter: teams, problems, groups, organizations and languages are
// united by id, the earlier adapter winning on conflicts, and contest-level
// fields come from the first adapter that reported. The combined contest is
// finalized only once every adapter is.
func Merge(adapters ...Adapter) Adapter {
	if len(adapters) == 1 {
		return adapters[0]
	}
	return AdapterFunc(func(ctx context.Context, handler Handler) error {
		var (
			mu     sync.Mutex
			latest = make([]*types.ContestInfo, len(adapters))
		)
		forward := func(index int) Handler {
			return func(ctx context.Context, update types.ContestUpdate) error {
				mu.Lock()
				defer mu.Unlock()
				info := update.Contest()
				latest[index] = &info
				return handler(ctx, withInfo(update, combineInfos(latest)))
			}
		}
		g, ctx := errgroup.WithContext(ctx)
		for i, adapter := range adapters {
			g.Go(func() error {
				return adapter.Subscribe(ctx, forward(i))
			})
		}
		return g.Wait()
	})
}

func withInfo(update types.ContestUpdate, info types.ContestInfo) types.ContestUpdate {
	switch u := update.(type) {
	case types.InfoUpdate:
		u.Info = info
		return u
	case types.RunUpdate:
		u.Info = info
		return u
	case types.AnalyticsUpdate:
		u.Info = info
		return u
	}
	return update
}

// combineInfos merges the known snapshots. Unreported adapters are nil and
// keep the combined contest from finalizing.
func combineInfos(infos []*types.ContestInfo) types.ContestInfo {
	var (
		combined types.ContestInfo
		found    bool
		statuses []types.ContestStatus
		complete = true
	)
	for _, info := range infos {
		if info == nil {
			complete = false
			continue
		}
		if !found {
			combined = *info
			combined.Problems = nil
			combined.Teams = nil
			combined.Groups = nil
			combined.Organizations = nil
			combined.Languages = nil
			found = true
		}
		combined.Problems = union(combined.Problems, info.Problems, func(p types.ProblemInfo) types.ProblemID { return p.ID })
		combined.Teams = union(combined.Teams, info.Teams, func(t types.TeamInfo) types.TeamID { return t.ID })
		combined.Groups = union(combined.Groups, info.Groups, func(g types.GroupInfo) types.GroupID { return g.ID })
		combined.Organizations = union(combined.Organizations, info.Organizations, func(o types.OrganizationInfo) types.OrganizationID { return o.ID })
		combined.Languages = union(combined.Languages, info.Languages, func(l types.LanguageInfo) types.LanguageID { return l.ID })
		statuses = append(statuses, info.Status)
	}
	if found {
		combined.Status = combineStatus(statuses, complete)
	}
	return combined
}

func union[T any, K comparable](dst, src []T, key func(T) K) []T {
	seen := make(map[K]struct{}, len(dst))
	for _, v := range dst {
		seen[key(v)] = struct{}{}
	}
	for _, v := range src {
		if _, ok := seen[key(v)]; ok {
			continue
		}
		seen[key(v)] = struct{}{}
		dst = append(dst, v)
	}
	return dst
}

// combineStatus picks the most advanced status. A finalized status is kept
// only when all sources are finalized, and then the latest finalization
// wins; otherwise it is reported as over.
func combineStatus(statuses []types.ContestStatus, complete bool) types.ContestStatus {
	best := statuses[0]
	allFinal := complete
	for _, s := range statuses {
		if !types.IsFinalized(s) {
			allFinal = false
		}
		if s.Phase() > best.Phase() {
			best = s
		}
	}
	final, ok := best.(types.StatusFinalized)
	if !ok {
		return best
	}
	if !allFinal {
		return types.StatusOver{StartedAt: final.StartedAt, FinishedAt: final.FinishedAt, FrozenAt: final.FrozenAt}
	}
	for _, s := range statuses {
		if f := s.(types.StatusFinalized); f.FinalizedAt.After(final.FinalizedAt) {
			final = f
		}
	}
	return final
}
