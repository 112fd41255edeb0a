// Package resolve turns free-text project and task references, including
// contextual pronouns like "that task", into concrete domain objects.
//
// A single reference resolves to zero matches (not found), one match
// (confident), or up to three (ambiguous, caller disambiguates). The
// selection policy is three-tiered: a near-certain score (>=0.9) or a clear
// winner (gap >0.2 over the runner-up) short-circuits to a single match;
// anything else surfaces the tie.
package resolve

import (
	"context"
	"sort"
	"strings"

	"github.com/foremanhq/foreman/internal/domain"
)

// MatchThreshold is the minimum similarity for a candidate to be considered.
const MatchThreshold = 0.4

// RecencyBoost is added to the score of candidates present in the context's
// recency list. It is deliberately not clamped at 1.0.
const RecencyBoost = 0.2

// confidentScore and clearWinnerGap are the selection-tier cutoffs.
const (
	confidentScore = 0.9
	clearWinnerGap = 0.2
	maxAmbiguous   = 3
)

var projectPronouns = []string{"that project", "this project", "the project", "it"}
var taskPronouns = []string{"that task", "this task", "the task", "it", "that", "this one"}

// Lookup is the domain-object read contract the resolver depends on.
type Lookup interface {
	ListProjects(ctx context.Context) ([]domain.Project, error)
	ListTasks(ctx context.Context) ([]domain.Task, error)
	GetProjectByID(ctx context.Context, id string) (*domain.Project, error)
	GetTaskByID(ctx context.Context, id string) (*domain.Task, error)
}

// Resolver resolves entity references against a Lookup.
type Resolver struct {
	lookup Lookup
}

// New creates a Resolver backed by the given Lookup.
func New(lookup Lookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// ProjectReference resolves one free-text project reference.
func (r *Resolver) ProjectReference(ctx context.Context, reference string, ac domain.ActiveContext) ([]domain.Project, error) {
	if containsAny(reference, projectPronouns) {
		if ac.CurrentProjectID != "" {
			p, err := r.lookup.GetProjectByID(ctx, ac.CurrentProjectID)
			if err != nil {
				return nil, err
			}
			if p != nil {
				return []domain.Project{*p}, nil
			}
		}
		// Stale current id: fall back to the recency list, skipping
		// entries that no longer resolve.
		for _, id := range ac.RecentlyMentionedProjects {
			p, err := r.lookup.GetProjectByID(ctx, id)
			if err != nil {
				return nil, err
			}
			if p != nil {
				return []domain.Project{*p}, nil
			}
		}
		return nil, nil
	}

	all, err := r.lookup.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	matches := BestMatches(reference, all, func(p domain.Project) string { return p.Name }, MatchThreshold)
	boostRecent(matches, func(p domain.Project) string { return p.ID }, ac.RecentlyMentionedProjects)

	picked := selectMatches(matches)
	out := make([]domain.Project, 0, len(picked))
	for _, m := range picked {
		out = append(out, m.Item)
	}
	return out, nil
}

// TaskReference resolves one free-text task reference. A non-empty
// projectID restricts the candidate set to that project's tasks.
func (r *Resolver) TaskReference(ctx context.Context, reference string, ac domain.ActiveContext, projectID string) ([]domain.Task, error) {
	if containsAny(reference, taskPronouns) {
		if ac.CurrentTaskID != "" {
			t, err := r.lookup.GetTaskByID(ctx, ac.CurrentTaskID)
			if err != nil {
				return nil, err
			}
			if t != nil {
				return []domain.Task{*t}, nil
			}
		}
		for _, id := range ac.RecentlyMentionedTasks {
			t, err := r.lookup.GetTaskByID(ctx, id)
			if err != nil {
				return nil, err
			}
			if t != nil {
				return []domain.Task{*t}, nil
			}
		}
		return nil, nil
	}

	all, err := r.lookup.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	candidates := all
	if projectID != "" {
		candidates = candidates[:0:0]
		for _, t := range all {
			if t.ProjectID == projectID {
				candidates = append(candidates, t)
			}
		}
	}

	matches := BestMatches(reference, candidates, func(t domain.Task) string { return t.Description }, MatchThreshold)
	boostRecent(matches, func(t domain.Task) string { return t.ID }, ac.RecentlyMentionedTasks)

	picked := selectMatches(matches)
	out := make([]domain.Task, 0, len(picked))
	for _, m := range picked {
		out = append(out, m.Item)
	}
	return out, nil
}

// Entities resolves all reference strings from a router result. Projects
// resolve first; the first resolved project then scopes task resolution.
// Results are deduplicated by id, first-seen order.
func (r *Resolver) Entities(ctx context.Context, projectRefs, taskRefs []string, ac domain.ActiveContext) (domain.ResolvedEntities, error) {
	var resolved domain.ResolvedEntities

	seenProjects := make(map[string]bool)
	for _, ref := range projectRefs {
		matches, err := r.ProjectReference(ctx, ref, ac)
		if err != nil {
			return domain.ResolvedEntities{}, err
		}
		for _, p := range matches {
			if !seenProjects[p.ID] {
				seenProjects[p.ID] = true
				resolved.Projects = append(resolved.Projects, domain.ResolvedProject{ID: p.ID, Name: p.Name})
			}
		}
	}

	projectID := ""
	if len(resolved.Projects) > 0 {
		projectID = resolved.Projects[0].ID
	}

	seenTasks := make(map[string]bool)
	for _, ref := range taskRefs {
		matches, err := r.TaskReference(ctx, ref, ac, projectID)
		if err != nil {
			return domain.ResolvedEntities{}, err
		}
		for _, t := range matches {
			if !seenTasks[t.ID] {
				seenTasks[t.ID] = true
				resolved.Tasks = append(resolved.Tasks, domain.ResolvedTask{ID: t.ID, Description: t.Description})
			}
		}
	}

	return resolved, nil
}

// SuggestsNewEntity reports whether a reference reads like a request to
// create something rather than find it.
func SuggestsNewEntity(reference string) bool {
	indicators := []string{"new", "create", "add", "start", "starting"}
	return containsAny(reference, indicators)
}

// ExtractProjectName pulls a likely project name out of natural language,
// e.g. "the Johnson deck" or "Chen project". Returns "" when nothing
// plausible is found.
func ExtractProjectName(text string) string {
	for _, pattern := range projectNamePatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

func containsAny(s string, phrases []string) bool {
	lower := strings.ToLower(s)
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func boostRecent[T any](matches []Match[T], id func(T) string, recent []string) {
	if len(recent) == 0 {
		return
	}
	recentSet := make(map[string]bool, len(recent))
	for _, r := range recent {
		recentSet[r] = true
	}
	for i := range matches {
		if recentSet[id(matches[i].Item)] {
			matches[i].Score += RecencyBoost
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
}

// selectMatches applies the three-tier selection policy to a boosted,
// score-descending list.
func selectMatches[T any](matches []Match[T]) []Match[T] {
	if len(matches) == 0 {
		return nil
	}
	if matches[0].Score >= confidentScore {
		// An exact tie at the top (e.g. two tasks both named "call
		// inspector") is genuine ambiguity, not a confident match.
		if len(matches) > 1 && matches[1].Score == matches[0].Score {
			if len(matches) > maxAmbiguous {
				return matches[:maxAmbiguous]
			}
			return matches
		}
		return matches[:1]
	}
	if len(matches) == 1 || matches[0].Score-matches[1].Score > clearWinnerGap {
		return matches[:1]
	}
	if len(matches) > maxAmbiguous {
		return matches[:maxAmbiguous]
	}
	return matches
}
