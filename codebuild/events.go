package codebuild

import (
	"fmt"

	"github.com/lex00/wetwire-codebuild-go/intrinsics"
	"github.com/lex00/wetwire-codebuild-go/resources/events"
)

// JSONPaths of the fields of a "CodeBuild Build State Change" event, for use
// in rule input transformers.
const (
	StateChangeEventBuildStatus  = "$.detail.build-status"
	StateChangeEventProjectName  = "$.detail.project-name"
	StateChangeEventBuildID      = "$.detail.build-id"
	StateChangeEventCurrentPhase = "$.detail.current-phase"
)

// JSONPaths of the fields of a "CodeBuild Build Phase Change" event.
const (
	PhaseChangeEventProjectName            = "$.detail.project-name"
	PhaseChangeEventBuildID                = "$.detail.build-id"
	PhaseChangeEventCompletedPhase         = "$.detail.completed-phase"
	PhaseChangeEventCompletedPhaseStatus   = "$.detail.completed-phase-status"
	PhaseChangeEventCompletedPhaseDuration = "$.detail.completed-phase-duration-seconds"
	PhaseChangeEventBuildComplete          = "$.detail.build-complete"
)

// Event sources and detail types emitted by CodeBuild.
const (
	EventSource                = "aws.codebuild"
	DetailTypeBuildStateChange = "CodeBuild Build State Change"
	DetailTypeBuildPhaseChange = "CodeBuild Build Phase Change"
)

// Build statuses carried by state change events.
const (
	BuildStatusInProgress = "IN_PROGRESS"
	BuildStatusSucceeded  = "SUCCEEDED"
	BuildStatusFailed     = "FAILED"
	BuildStatusStopped    = "STOPPED"
)

// EventPattern narrows the events a rule matches. Detail entries are merged
// with the project filter.
type EventPattern struct {
	DetailType []string
	Detail     map[string]any
}

// RuleTarget receives the events matched by a rule.
type RuleTarget struct {
	// ID defaults to "Target<index>".
	ID      string
	Arn     any
	RoleArn any
	// Input replaces the event with a constant JSON document.
	Input any
	// InputPaths and InputTemplate transform the event, e.g.
	// {"status": StateChangeEventBuildStatus}.
	InputPaths    map[string]string
	InputTemplate string
}

// OnEventOptions configures the rules created by the OnEvent family.
type OnEventOptions struct {
	RuleName    any
	Description string
	Targets     []RuleTarget
	// EventPattern adds conditions to the project filter.
	EventPattern *EventPattern
	// Disabled creates the rule in the DISABLED state.
	Disabled bool
}

// EventRule is an AWS::Events::Rule created for a project.
type EventRule struct {
	logicalID string
	resource  *events.Rule
}

// LogicalID returns the logical id of the rule resource.
func (r *EventRule) LogicalID() string {
	return r.logicalID
}

// RuleArn returns {"Fn::GetAtt": [rule, "Arn"]}.
func (r *EventRule) RuleArn() any {
	return intrinsics.GetAtt{LogicalName: r.logicalID, Attribute: events.RuleAttrArn}
}

// AddTarget adds a target to the rule.
func (r *EventRule) AddTarget(target RuleTarget) {
	r.resource.Targets = append(r.resource.Targets, renderTarget(target, len(r.resource.Targets)))
}

// OnEvent creates a rule matching every CodeBuild event of the project.
func (p *projectBase) OnEvent(id string, opts OnEventOptions) (*EventRule, error) {
	pattern := map[string]any{
		"source": []any{EventSource},
	}
	detail := map[string]any{
		"project-name": []any{p.name},
	}
	if opts.EventPattern != nil {
		if len(opts.EventPattern.DetailType) > 0 {
			types := make([]any, len(opts.EventPattern.DetailType))
			for i, t := range opts.EventPattern.DetailType {
				types[i] = t
			}
			pattern["detail-type"] = types
		}
		for k, v := range opts.EventPattern.Detail {
			detail[k] = v
		}
	}
	pattern["detail"] = detail

	rule := &events.Rule{
		Name:         opts.RuleName,
		Description:  optional(opts.Description),
		EventPattern: pattern,
		State:        "ENABLED",
	}
	if opts.Disabled {
		rule.State = "DISABLED"
	}
	for i, t := range opts.Targets {
		if t.Arn == nil {
			return nil, validationErrorf(p.path+"/"+id, "target %d has no ARN", i)
		}
		rule.Targets = append(rule.Targets, renderTarget(t, i))
	}

	logicalID, err := p.stack.AddResource(p.path+"/"+id, rule)
	if err != nil {
		return nil, err
	}
	return &EventRule{logicalID: logicalID, resource: rule}, nil
}

// OnStateChange creates a rule matching build state changes.
func (p *projectBase) OnStateChange(id string, opts OnEventOptions) (*EventRule, error) {
	return p.OnEvent(id, withDetailType(opts, DetailTypeBuildStateChange, nil))
}

// OnPhaseChange creates a rule matching build phase changes.
func (p *projectBase) OnPhaseChange(id string, opts OnEventOptions) (*EventRule, error) {
	return p.OnEvent(id, withDetailType(opts, DetailTypeBuildPhaseChange, nil))
}

// OnBuildStarted creates a rule matching builds entering IN_PROGRESS.
func (p *projectBase) OnBuildStarted(id string, opts OnEventOptions) (*EventRule, error) {
	return p.OnEvent(id, withDetailType(opts, DetailTypeBuildStateChange, []any{BuildStatusInProgress}))
}

// OnBuildFailed creates a rule matching failed builds.
func (p *projectBase) OnBuildFailed(id string, opts OnEventOptions) (*EventRule, error) {
	return p.OnEvent(id, withDetailType(opts, DetailTypeBuildStateChange, []any{BuildStatusFailed}))
}

// OnBuildSucceeded creates a rule matching successful builds.
func (p *projectBase) OnBuildSucceeded(id string, opts OnEventOptions) (*EventRule, error) {
	return p.OnEvent(id, withDetailType(opts, DetailTypeBuildStateChange, []any{BuildStatusSucceeded}))
}

func withDetailType(opts OnEventOptions, detailType string, statuses []any) OnEventOptions {
	pattern := EventPattern{Detail: map[string]any{}}
	if opts.EventPattern != nil {
		for k, v := range opts.EventPattern.Detail {
			pattern.Detail[k] = v
		}
	}
	pattern.DetailType = []string{detailType}
	if statuses != nil {
		pattern.Detail["build-status"] = statuses
	}
	opts.EventPattern = &pattern
	return opts
}

func renderTarget(t RuleTarget, index int) events.Rule_Target {
	id := t.ID
	if id == "" {
		id = fmt.Sprintf("Target%d", index)
	}
	out := events.Rule_Target{
		Id:      id,
		Arn:     t.Arn,
		RoleArn: t.RoleArn,
		Input:   t.Input,
	}
	if len(t.InputPaths) > 0 || t.InputTemplate != "" {
		paths := make(map[string]any, len(t.InputPaths))
		for k, v := range t.InputPaths {
			paths[k] = v
		}
		out.InputTransformer = &events.Rule_InputTransformer{
			InputPathsMap: paths,
			InputTemplate: optional(t.InputTemplate),
		}
	}
	return out
}
