package codebuild

import (
	"errors"
	"fmt"
	"strings"

	cfn "github.com/lex00/wetwire-codebuild-go/resources/codebuild"
)

// EventAction is a webhook event that can trigger a build.
type EventAction string

const (
	EventActionPush                EventAction = "PUSH"
	EventActionPullRequestCreated  EventAction = "PULL_REQUEST_CREATED"
	EventActionPullRequestUpdated  EventAction = "PULL_REQUEST_UPDATED"
	EventActionPullRequestMerged   EventAction = "PULL_REQUEST_MERGED"
	EventActionPullRequestReopened EventAction = "PULL_REQUEST_REOPENED"
	EventActionPullRequestClosed   EventAction = "PULL_REQUEST_CLOSED"
	EventActionReleased            EventAction = "RELEASED"
	EventActionPrereleased         EventAction = "PRERELEASED"
	EventActionWorkflowJobQueued   EventAction = "WORKFLOW_JOB_QUEUED"
)

// FilterGroup is a set of webhook conditions that must all match for a build
// to start. Every And method returns a new group and leaves the receiver
// unchanged. Invalid combinations are reported by Err and when the group is
// bound to a source.
type FilterGroup struct {
	actions []EventAction
	filters []cfn.Project_WebhookFilter
	err     error
}

// InEventOf creates a filter group matching any of the given actions.
func InEventOf(actions ...EventAction) FilterGroup {
	g := FilterGroup{}
	for _, a := range actions {
		if !g.hasAction(a) {
			g.actions = append(g.actions, a)
		}
	}
	if len(g.actions) == 0 {
		g.err = fmt.Errorf("a filter group must contain at least one event action")
	}
	return g
}

// Actions returns the event actions of the group.
func (g FilterGroup) Actions() []EventAction {
	return append([]EventAction(nil), g.actions...)
}

// Err returns the first invalid condition added to the group.
func (g FilterGroup) Err() error {
	return g.err
}

// AndBranchIs matches events on the given branch. branch may be a regular expression.
func (g FilterGroup) AndBranchIs(branch string) FilterGroup {
	return g.AndHeadRefIs("refs/heads/" + branch)
}

// AndBranchIsNot excludes events on the given branch.
func (g FilterGroup) AndBranchIsNot(branch string) FilterGroup {
	return g.AndHeadRefIsNot("refs/heads/" + branch)
}

// AndTagIs matches events on the given tag.
func (g FilterGroup) AndTagIs(tag string) FilterGroup {
	return g.AndHeadRefIs("refs/tags/" + tag)
}

// AndTagIsNot excludes events on the given tag.
func (g FilterGroup) AndTagIsNot(tag string) FilterGroup {
	return g.AndHeadRefIsNot("refs/tags/" + tag)
}

// AndHeadRefIs matches the head ref, e.g. "refs/heads/main".
func (g FilterGroup) AndHeadRefIs(pattern string) FilterGroup {
	return g.with(cfn.WebhookFilterHeadRef, pattern, true)
}

// AndHeadRefIsNot excludes events whose head ref matches pattern.
func (g FilterGroup) AndHeadRefIsNot(pattern string) FilterGroup {
	return g.with(cfn.WebhookFilterHeadRef, pattern, false)
}

// AndBaseBranchIs matches pull requests targeting the given branch.
func (g FilterGroup) AndBaseBranchIs(branch string) FilterGroup {
	return g.AndBaseRefIs("refs/heads/" + branch)
}

// AndBaseBranchIsNot excludes pull requests targeting the given branch.
func (g FilterGroup) AndBaseBranchIsNot(branch string) FilterGroup {
	return g.AndBaseRefIsNot("refs/heads/" + branch)
}

// AndBaseRefIs matches the base ref of a pull request. Groups containing
// PUSH cannot carry base ref conditions.
func (g FilterGroup) AndBaseRefIs(pattern string) FilterGroup {
	return g.baseRef(pattern, true)
}

// AndBaseRefIsNot excludes pull requests whose base ref matches pattern.
func (g FilterGroup) AndBaseRefIsNot(pattern string) FilterGroup {
	return g.baseRef(pattern, false)
}

func (g FilterGroup) baseRef(pattern string, include bool) FilterGroup {
	if g.hasAction(EventActionPush) {
		return g.fail("a base reference condition cannot be added if a group contains a PUSH event action")
	}
	return g.with(cfn.WebhookFilterBaseRef, pattern, include)
}

// AndFilePathIs matches events that change a file matching pattern.
func (g FilterGroup) AndFilePathIs(pattern string) FilterGroup {
	return g.with(cfn.WebhookFilterFilePath, pattern, true)
}

// AndFilePathIsNot excludes events that change a file matching pattern.
func (g FilterGroup) AndFilePathIsNot(pattern string) FilterGroup {
	return g.with(cfn.WebhookFilterFilePath, pattern, false)
}

// AndActorIs matches the account id of the user that triggered the event.
func (g FilterGroup) AndActorIs(pattern string) FilterGroup {
	return g.with(cfn.WebhookFilterActorAccountID, pattern, true)
}

// AndActorIsNot excludes events triggered by a matching account id.
func (g FilterGroup) AndActorIsNot(pattern string) FilterGroup {
	return g.with(cfn.WebhookFilterActorAccountID, pattern, false)
}

// AndCommitMessageIs matches the head commit message. Only push and pull
// request events carry one.
func (g FilterGroup) AndCommitMessageIs(pattern string) FilterGroup {
	return g.commitMessage(pattern, true)
}

// AndCommitMessageIsNot excludes events whose head commit message matches pattern.
func (g FilterGroup) AndCommitMessageIsNot(pattern string) FilterGroup {
	return g.commitMessage(pattern, false)
}

func (g FilterGroup) commitMessage(pattern string, include bool) FilterGroup {
	for _, a := range g.actions {
		if a == EventActionReleased || a == EventActionPrereleased || a == EventActionWorkflowJobQueued {
			return g.fail(fmt.Sprintf("a commit message condition cannot be added if a group contains a %s event action", a))
		}
	}
	return g.with(cfn.WebhookFilterCommitMessage, pattern, include)
}

// AndRepositoryNameIs matches the repository name. Only global and
// organization webhooks deliver events for more than one repository.
func (g FilterGroup) AndRepositoryNameIs(pattern string) FilterGroup {
	return g.with(cfn.WebhookFilterRepositoryName, pattern, true)
}

// AndRepositoryNameIsNot excludes repositories whose name matches pattern.
func (g FilterGroup) AndRepositoryNameIsNot(pattern string) FilterGroup {
	return g.with(cfn.WebhookFilterRepositoryName, pattern, false)
}

func (g FilterGroup) hasAction(action EventAction) bool {
	for _, a := range g.actions {
		if a == action {
			return true
		}
	}
	return false
}

func (g FilterGroup) hasFilter(filterType string) bool {
	for _, f := range g.filters {
		if f.Type == filterType {
			return true
		}
	}
	return false
}

func (g FilterGroup) with(filterType, pattern string, include bool) FilterGroup {
	filter := cfn.Project_WebhookFilter{Type: filterType, Pattern: pattern}
	if !include {
		filter.ExcludeMatchedPattern = true
	}
	out := g.copy()
	out.filters = append(out.filters, filter)
	return out
}

func (g FilterGroup) fail(message string) FilterGroup {
	out := g.copy()
	if out.err == nil {
		out.err = errors.New(message)
	}
	return out
}

func (g FilterGroup) copy() FilterGroup {
	return FilterGroup{
		actions: append([]EventAction(nil), g.actions...),
		filters: append([]cfn.Project_WebhookFilter(nil), g.filters...),
		err:     g.err,
	}
}

// Render returns the webhook filters of the group, the event filter first.
func (g FilterGroup) Render() []cfn.Project_WebhookFilter {
	names := make([]string, len(g.actions))
	for i, a := range g.actions {
		names[i] = string(a)
	}
	out := []cfn.Project_WebhookFilter{{Type: cfn.WebhookFilterEvent, Pattern: strings.Join(names, ", ")}}
	return append(out, g.filters...)
}
