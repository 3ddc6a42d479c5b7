package clics

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/jjudge-oj/livefeed/internal/enumerator"
	"github.com/jjudge-oj/livefeed/types"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// ErrReference is returned when an event links to an entity that is not known
// or changes an existing link.
var ErrReference = errors.New("invalid entity reference")

const (
	defaultContestLength = 5 * time.Hour
	defaultFreezeTime    = 4 * time.Hour
)

// maxTestedPart keeps unjudged runs below full progress.
var maxTestedPart = math.Nextafter(1, 0)

// Model keeps the latest version of every entity of one contest and
// translates them into contest snapshots and runs.
type Model struct {
	ids    *enumerator.Set
	logger *zap.Logger

	contest *Contest
	state   *State

	judgementTypes map[string]*JudgementType
	languages      map[string]*Language
	organizations  map[string]*Organization
	groups         map[string]*Group
	teams          map[string]*Team
	problems       map[string]*Problem

	submissions map[string]*Submission
	judgements  map[string]*Judgement
	runs        map[string]*Run

	// deleted submissions are kept to emit them as hidden runs
	deleted map[string]bool

	submissionJudgements map[string]map[string]struct{}
	judgementRuns        map[string]map[string]struct{}
}

// NewModel creates an empty model allocating ids from ids.
func NewModel(ids *enumerator.Set, logger *zap.Logger) *Model {
	return &Model{
		ids:                  ids,
		logger:               logger,
		judgementTypes:       make(map[string]*JudgementType),
		languages:            make(map[string]*Language),
		organizations:        make(map[string]*Organization),
		groups:               make(map[string]*Group),
		teams:                make(map[string]*Team),
		problems:             make(map[string]*Problem),
		submissions:          make(map[string]*Submission),
		judgements:           make(map[string]*Judgement),
		runs:                 make(map[string]*Run),
		deleted:              make(map[string]bool),
		submissionJudgements: make(map[string]map[string]struct{}),
		judgementRuns:        make(map[string]map[string]struct{}),
	}
}

// change is what one event did to the model.
type change struct {
	info        bool
	submissions []string
	commentary  *Commentary
}

// Apply stores the event. Events that break entity links fail with
// ErrReference and leave the model unchanged.
func (m *Model) Apply(ev Event) (change, error) {
	switch ev.Type {
	case TypeContest:
		m.contest, _ = ev.Data.(*Contest)
		return change{info: true}, nil
	case TypeState:
		m.state, _ = ev.Data.(*State)
		return change{info: true}, nil
	case TypeJudgementTypes:
		obj, _ := ev.Data.(*JudgementType)
		put(m.judgementTypes, entityID(ev, obj, func(o *JudgementType) string { return o.ID }), obj)
		return change{info: true}, nil
	case TypeLanguages:
		obj, _ := ev.Data.(*Language)
		id := entityID(ev, obj, func(o *Language) string { return o.ID })
		m.ids.Languages.IDFor(id)
		put(m.languages, id, obj)
		return change{info: true}, nil
	case TypeOrganizations:
		obj, _ := ev.Data.(*Organization)
		id := entityID(ev, obj, func(o *Organization) string { return o.ID })
		m.ids.Organizations.IDFor(id)
		if obj != nil && obj.Country != nil {
			m.ids.Groups.IDFor(*obj.Country)
		}
		put(m.organizations, id, obj)
		return change{info: true}, nil
	case TypeGroups:
		obj, _ := ev.Data.(*Group)
		id := entityID(ev, obj, func(o *Group) string { return o.ID })
		m.ids.Groups.IDFor(id)
		put(m.groups, id, obj)
		return change{info: true}, nil
	case TypeTeams:
		obj, _ := ev.Data.(*Team)
		id := entityID(ev, obj, func(o *Team) string { return o.ID })
		m.ids.Teams.IDFor(id)
		if obj != nil {
			for _, g := range obj.GroupIDs {
				m.ids.Groups.IDFor(g)
			}
		}
		put(m.teams, id, obj)
		return change{info: true}, nil
	case TypeProblems:
		obj, _ := ev.Data.(*Problem)
		id := entityID(ev, obj, func(o *Problem) string { return o.ID })
		m.ids.Problems.IDFor(id)
		put(m.problems, id, obj)
		return change{info: true}, nil
	case TypeSubmissions:
		obj, _ := ev.Data.(*Submission)
		return m.processSubmission(entityID(ev, obj, func(o *Submission) string { return o.ID }), obj)
	case TypeJudgements:
		obj, _ := ev.Data.(*Judgement)
		return m.processJudgement(entityID(ev, obj, func(o *Judgement) string { return o.ID }), obj)
	case TypeRuns:
		obj, _ := ev.Data.(*Run)
		return m.processRun(entityID(ev, obj, func(o *Run) string { return o.ID }), obj)
	case TypeCommentary:
		obj, _ := ev.Data.(*Commentary)
		return change{commentary: obj}, nil
	default:
		m.logger.Debug("Ignoring event", zap.String("type", string(ev.Type)), zap.String("id", ev.ID))
		return change{}, nil
	}
}

func entityID[T any](ev Event, obj *T, id func(*T) string) string {
	if ev.ID == "" && obj != nil {
		return id(obj)
	}
	return ev.ID
}

func put[T any](entities map[string]*T, id string, obj *T) {
	if obj == nil {
		delete(entities, id)
		return
	}
	entities[id] = obj
}

func link(links map[string]map[string]struct{}, from, to string) {
	set, ok := links[from]
	if !ok {
		set = make(map[string]struct{})
		links[from] = set
	}
	set[to] = struct{}{}
}

func unlink(links map[string]map[string]struct{}, from, to string) {
	delete(links[from], to)
	if len(links[from]) == 0 {
		delete(links, from)
	}
}

func (m *Model) processSubmission(id string, s *Submission) (change, error) {
	old, exists := m.submissions[id]
	if s == nil {
		if !exists || m.deleted[id] {
			return change{}, nil
		}
		m.deleted[id] = true
		return change{submissions: []string{id}}, nil
	}
	if _, ok := m.teams[s.TeamID]; !ok {
		return change{}, fmt.Errorf("%w: submission %s has unknown team %s", ErrReference, id, s.TeamID)
	}
	if _, ok := m.problems[s.ProblemID]; !ok {
		return change{}, fmt.Errorf("%w: submission %s has unknown problem %s", ErrReference, id, s.ProblemID)
	}
	if exists && !m.deleted[id] && reflect.DeepEqual(old, s) {
		return change{}, nil
	}
	m.ids.Runs.IDFor(id)
	m.submissions[id] = s
	delete(m.deleted, id)
	return change{submissions: []string{id}}, nil
}

func (m *Model) processJudgement(id string, j *Judgement) (change, error) {
	old, exists := m.judgements[id]
	if j == nil {
		if !exists {
			return change{}, nil
		}
		delete(m.judgements, id)
		unlink(m.submissionJudgements, old.SubmissionID, id)
		return change{submissions: []string{old.SubmissionID}}, nil
	}
	if exists {
		if old.SubmissionID != j.SubmissionID {
			return change{}, fmt.Errorf("%w: judgement %s moved from submission %s to %s",
				ErrReference, id, old.SubmissionID, j.SubmissionID)
		}
		if reflect.DeepEqual(old, j) {
			return change{}, nil
		}
	} else if _, ok := m.submissions[j.SubmissionID]; !ok {
		return change{}, fmt.Errorf("%w: judgement %s has unknown submission %s", ErrReference, id, j.SubmissionID)
	}
	m.judgements[id] = j
	link(m.submissionJudgements, j.SubmissionID, id)
	return change{submissions: []string{j.SubmissionID}}, nil
}

func (m *Model) processRun(id string, r *Run) (change, error) {
	old, exists := m.runs[id]
	if r == nil {
		if !exists {
			return change{}, nil
		}
		delete(m.runs, id)
		unlink(m.judgementRuns, old.JudgementID, id)
		return m.judgementChange(old.JudgementID), nil
	}
	if exists {
		if old.JudgementID != r.JudgementID {
			return change{}, fmt.Errorf("%w: run %s moved from judgement %s to %s",
				ErrReference, id, old.JudgementID, r.JudgementID)
		}
		if reflect.DeepEqual(old, r) {
			return change{}, nil
		}
	} else if _, ok := m.judgements[r.JudgementID]; !ok {
		return change{}, fmt.Errorf("%w: run %s has unknown judgement %s", ErrReference, id, r.JudgementID)
	}
	m.runs[id] = r
	link(m.judgementRuns, r.JudgementID, id)
	return m.judgementChange(r.JudgementID), nil
}

func (m *Model) judgementChange(judgementID string) change {
	j, ok := m.judgements[judgementID]
	if !ok {
		return change{}
	}
	return change{submissions: []string{j.SubmissionID}}
}

// Submissions returns the ids of all known submissions in a stable order.
func (m *Model) Submissions() []string {
	ids := make([]string, 0, len(m.submissions))
	for id := range m.submissions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return m.ids.Runs.IDFor(ids[i]) < m.ids.Runs.IDFor(ids[j])
	})
	return ids
}

// Run translates a submission with its judgements into a run.
func (m *Model) Run(submissionID string) (types.RunInfo, bool) {
	s, ok := m.submissions[submissionID]
	if !ok {
		return types.RunInfo{}, false
	}
	run := types.RunInfo{
		ID:        m.ids.Runs.IDFor(s.ID),
		ProblemID: m.ids.Problems.IDFor(s.ProblemID),
		TeamID:    m.ids.Teams.IDFor(s.TeamID),
		Time:      s.ContestTime.Duration(),
		Result:    types.InProgressResult{},
		IsHidden:  m.deleted[submissionID],
	}
	if s.LanguageID != "" {
		language := m.ids.Languages.IDFor(s.LanguageID)
		run.LanguageID = &language
	}
	for _, media := range s.Reaction {
		if mt := mediaType(media); mt != nil {
			run.ReactionVideos = append(run.ReactionVideos, mt)
		}
	}

	j := m.latestJudgement(submissionID)
	if j == nil {
		return run, true
	}
	if j.EndContestTime != nil {
		tested := j.EndContestTime.Duration()
		run.TestedTime = &tested
	}
	if j.JudgementTypeID == nil {
		run.Result = types.InProgressResult{TestedPart: m.testedPart(s, j.ID)}
		return run, true
	}
	run.Result = types.ICPCResult{Verdict: m.verdict(*j.JudgementTypeID)}
	return run, true
}

// latestJudgement returns the judgement of the submission started last.
func (m *Model) latestJudgement(submissionID string) *Judgement {
	var latest *Judgement
	for id := range m.submissionJudgements[submissionID] {
		j := m.judgements[id]
		if latest == nil ||
			j.StartContestTime > latest.StartContestTime ||
			(j.StartContestTime == latest.StartContestTime && j.ID > latest.ID) {
			latest = j
		}
	}
	return latest
}

func (m *Model) testedPart(s *Submission, judgementID string) float64 {
	problem, ok := m.problems[s.ProblemID]
	if !ok || problem.TestDataCount == nil || *problem.TestDataCount <= 0 {
		return 0
	}
	passed := make(map[int]struct{})
	for id := range m.judgementRuns[judgementID] {
		r := m.runs[id]
		if jt, ok := m.judgementTypes[r.JudgementTypeID]; ok && jt.Solved {
			passed[r.Ordinal] = struct{}{}
		}
	}
	part := float64(len(passed)) / float64(*problem.TestDataCount)
	return math.Min(math.Max(part, 0), maxTestedPart)
}

func (m *Model) verdict(judgementTypeID string) types.Verdict {
	if jt, ok := m.judgementTypes[judgementTypeID]; ok {
		return types.LookupVerdict(jt.ID, jt.Solved, jt.Penalty)
	}
	for _, v := range types.AllVerdicts {
		if v.ShortName == judgementTypeID {
			return v
		}
	}
	m.logger.Warn("Unknown judgement type", zap.String("id", judgementTypeID))
	return types.VerdictRejected
}

// Analytics translates a commentary item.
func (m *Model) Analytics(c *Commentary) types.AnalyticsMessage {
	msg := types.AnalyticsMessage{
		ID:          c.ID,
		Message:     c.Message,
		Time:        c.Time.Time,
		ContestTime: c.ContestTime.Duration(),
		Tags:        c.Tags,
	}
	for _, id := range c.TeamIDs {
		msg.TeamIDs = append(msg.TeamIDs, m.ids.Teams.IDFor(id))
	}
	for _, id := range c.SubmissionIDs {
		msg.RunIDs = append(msg.RunIDs, m.ids.Runs.IDFor(id))
	}
	return msg
}

// Info builds the current contest snapshot.
func (m *Model) Info() types.ContestInfo {
	info := types.ContestInfo{
		ResultType:             types.ResultICPC,
		ContestLength:          defaultContestLength,
		PenaltyRoundingMode:    types.PenaltyEachSubmissionDownToMinute,
		PenaltyPerWrongAttempt: types.DefaultPenaltyPerWrongAttempt,
	}
	freeze := defaultFreezeTime
	info.FreezeTime = &freeze

	var (
		scheduled *time.Time
		hold      *time.Duration
	)
	if c := m.contest; c != nil {
		info.Name = norm.NFC.String(c.Name)
		info.ContestLength = c.Duration.Duration()
		info.FreezeTime = nil
		if c.ScoreboardFreezeDuration != nil {
			freeze := info.ContestLength - c.ScoreboardFreezeDuration.Duration()
			info.FreezeTime = &freeze
		}
		if c.PenaltyTime != nil {
			info.PenaltyPerWrongAttempt = time.Duration(*c.PenaltyTime)
		}
		if c.StartTime != nil {
			start := c.StartTime.Time
			scheduled = &start
		}
		if c.CountdownPauseTime != nil {
			h := c.CountdownPauseTime.Duration()
			hold = &h
		}
	}
	info.Status = m.status(info, scheduled, hold)

	info.Problems = m.problemInfos()
	info.Groups = m.groupInfos()
	info.Organizations = m.organizationInfos()
	info.Teams = m.teamInfos()
	info.Languages = m.languageInfos()
	return info
}

func (m *Model) status(info types.ContestInfo, scheduled *time.Time, hold *time.Duration) types.ContestStatus {
	s := m.state
	if s == nil {
		return types.StatusBefore{HoldTime: hold, ScheduledStartAt: scheduled}
	}
	// frozen stays set after a thaw
	var frozen *time.Time
	if s.Frozen != nil {
		f := s.Frozen.Time
		frozen = &f
	}
	switch {
	case s.EndOfUpdates != nil:
		started, ok := m.startedAt(scheduled)
		if !ok {
			return types.StatusBefore{HoldTime: hold, ScheduledStartAt: scheduled}
		}
		finished := started.Add(info.ContestLength)
		if s.Ended != nil {
			finished = s.Ended.Time
		}
		return types.StatusFinalized{
			StartedAt:   started,
			FinishedAt:  finished,
			FinalizedAt: s.EndOfUpdates.Time,
			FrozenAt:    frozen,
		}
	case s.Started == nil:
		return types.StatusBefore{HoldTime: hold, ScheduledStartAt: scheduled}
	case s.Ended != nil:
		return types.StatusOver{StartedAt: s.Started.Time, FinishedAt: s.Ended.Time, FrozenAt: frozen}
	default:
		return types.StatusRunning{StartedAt: s.Started.Time, FrozenAt: frozen}
	}
}

// startedAt is the actual start, or the scheduled one for a feed that ends
// without ever reporting a start.
func (m *Model) startedAt(scheduled *time.Time) (time.Time, bool) {
	if m.state.Started != nil {
		return m.state.Started.Time, true
	}
	if scheduled != nil {
		return *scheduled, true
	}
	return time.Time{}, false
}

func (m *Model) problemInfos() []types.ProblemInfo {
	problems := make([]types.ProblemInfo, 0, len(m.problems))
	for _, p := range m.problems {
		problems = append(problems, types.ProblemInfo{
			ID:          m.ids.Problems.IDFor(p.ID),
			DisplayName: p.Label,
			FullName:    norm.NFC.String(p.Name),
			Ordinal:     p.Ordinal,
			Color:       m.problemColor(p),
		})
	}
	sort.Slice(problems, func(i, j int) bool {
		if problems[i].Ordinal != problems[j].Ordinal {
			return problems[i].Ordinal < problems[j].Ordinal
		}
		return problems[i].ID < problems[j].ID
	})
	return problems
}

func (m *Model) problemColor(p *Problem) string {
	var raw string
	switch {
	case p.RGB != nil:
		raw = *p.RGB
	case p.Color != nil:
		raw = *p.Color
	default:
		return ""
	}
	color, err := parseColor(raw)
	if err != nil {
		m.logger.Warn("Failed to parse problem color", zap.String("problem", p.ID), zap.Error(err))
		return fallbackColor
	}
	return color
}

// groupInfos returns the defined groups plus groups and countries only
// referenced by teams and organizations.
func (m *Model) groupInfos() []types.GroupInfo {
	byID := make(map[types.GroupID]types.GroupInfo)
	add := func(external, name string, hidden bool) {
		id := m.ids.Groups.IDFor(external)
		if _, ok := byID[id]; !ok {
			byID[id] = types.GroupInfo{ID: id, DisplayName: norm.NFC.String(name), IsHidden: hidden}
		}
	}
	for _, g := range m.groups {
		add(g.ID, g.Name, g.Hidden != nil && *g.Hidden)
	}
	for _, t := range m.teams {
		for _, g := range t.GroupIDs {
			add(g, g, false)
		}
		if country := m.country(t); country != "" {
			add(country, country, false)
		}
	}
	groups := make([]types.GroupInfo, 0, len(byID))
	for _, g := range byID {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups
}

func (m *Model) country(t *Team) string {
	if t.OrganizationID == nil {
		return ""
	}
	org, ok := m.organizations[*t.OrganizationID]
	if !ok || org.Country == nil {
		return ""
	}
	return *org.Country
}

func (m *Model) organizationInfos() []types.OrganizationInfo {
	orgs := make([]types.OrganizationInfo, 0, len(m.organizations))
	for _, o := range m.organizations {
		info := types.OrganizationInfo{
			ID:          m.ids.Organizations.IDFor(o.ID),
			DisplayName: norm.NFC.String(o.Name),
			FullName:    norm.NFC.String(o.Name),
		}
		if o.FormalName != nil {
			info.FullName = norm.NFC.String(*o.FormalName)
		}
		if len(o.Logo) > 0 {
			info.Logo = mediaType(o.Logo[len(o.Logo)-1])
		}
		orgs = append(orgs, info)
	}
	sort.Slice(orgs, func(i, j int) bool { return orgs[i].ID < orgs[j].ID })
	return orgs
}

func (m *Model) teamInfos() []types.TeamInfo {
	teams := make([]types.TeamInfo, 0, len(m.teams))
	for _, t := range m.teams {
		displayName := t.Name
		if t.DisplayName != nil {
			displayName = *t.DisplayName
		}
		info := types.TeamInfo{
			ID:          m.ids.Teams.IDFor(t.ID),
			FullName:    norm.NFC.String(t.Name),
			DisplayName: norm.NFC.String(displayName),
			Groups:      []types.GroupID{},
			IsHidden:    t.Hidden != nil && *t.Hidden,
			CustomFields: map[string]string{
				"clicsTeamId":          t.ID,
				"clicsTeamFullName":    t.Name,
				"clicsTeamDisplayName": displayName,
			},
		}
		if t.Label != nil {
			info.CustomFields["clicsTeamLabel"] = *t.Label
		}
		for _, g := range t.GroupIDs {
			info.Groups = append(info.Groups, m.ids.Groups.IDFor(g))
		}
		if country := m.country(t); country != "" {
			if id := m.ids.Groups.IDFor(country); !info.InGroup(id) {
				info.Groups = append(info.Groups, id)
			}
		}
		if t.OrganizationID != nil {
			org := m.ids.Organizations.IDFor(*t.OrganizationID)
			info.OrganizationID = &org
			if o, ok := m.organizations[*t.OrganizationID]; ok && o.TwitterHashtag != nil {
				info.HashTag = *o.TwitterHashtag
			}
		}
		info.Medias = teamMedias(t)
		teams = append(teams, info)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].ID < teams[j].ID })
	return teams
}

func teamMedias(t *Team) map[types.TeamMediaType]types.MediaType {
	medias := make(map[types.TeamMediaType]types.MediaType)
	slots := []struct {
		slot  types.TeamMediaType
		files []Media
	}{
		{types.TeamMediaPhoto, t.Photo},
		{types.TeamMediaRecord, t.Video},
		{types.TeamMediaCamera, t.Webcam},
		{types.TeamMediaScreen, t.Desktop},
	}
	for _, s := range slots {
		if len(s.files) == 0 {
			continue
		}
		if mt := mediaType(s.files[0]); mt != nil {
			medias[s.slot] = mt
		}
	}
	if len(medias) == 0 {
		return nil
	}
	return medias
}

func (m *Model) languageInfos() []types.LanguageInfo {
	languages := make([]types.LanguageInfo, 0, len(m.languages))
	for _, l := range m.languages {
		languages = append(languages, types.LanguageInfo{
			ID:         m.ids.Languages.IDFor(l.ID),
			Name:       l.Name,
			Extensions: l.Extensions,
		})
	}
	sort.Slice(languages, func(i, j int) bool { return languages[i].ID < languages[j].ID })
	return languages
}

// mediaType classifies a file by its MIME type. Unknown types yield nil.
func mediaType(m Media) types.MediaType {
	switch {
	case strings.HasPrefix(m.Mime, "image"):
		return types.MediaImage{URL: m.Href}
	case strings.HasPrefix(m.Mime, "video/m2ts"):
		return types.MediaM2ts{URL: m.Href}
	case strings.HasPrefix(m.Mime, "application/vnd.apple.mpegurl"):
		return types.MediaHLS{URL: m.Href}
	case strings.HasPrefix(m.Mime, "video"):
		return types.MediaVideo{URL: m.Href}
	default:
		return nil
	}
}
