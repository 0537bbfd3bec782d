// Package events contains the CloudFormation EventBridge rule type used for
// CodeBuild state and phase change notifications.
package events

// Rule represents AWS::Events::Rule.
type Rule struct {
	Description        any           `json:"Description,omitempty"`
	EventBusName       any           `json:"EventBusName,omitempty"`
	EventPattern       any           `json:"EventPattern,omitempty"`
	Name               any           `json:"Name,omitempty"`
	RoleArn            any           `json:"RoleArn,omitempty"`
	ScheduleExpression any           `json:"ScheduleExpression,omitempty"`
	State              any           `json:"State,omitempty"`
	Targets            []Rule_Target `json:"Targets,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r Rule) ResourceType() string {
	return "AWS::Events::Rule"
}

// Rule attributes available through Fn::GetAtt.
const (
	RuleAttrArn = "Arn"
)

// Rule_Target represents AWS::Events::Rule.Target.
type Rule_Target struct {
	// Arn is required.
	Arn any `json:"Arn,omitempty"`
	// Id is required.
	Id               any                    `json:"Id,omitempty"`
	Input            any                    `json:"Input,omitempty"`
	InputPath        any                    `json:"InputPath,omitempty"`
	InputTransformer *Rule_InputTransformer `json:"InputTransformer,omitempty"`
	RoleArn          any                    `json:"RoleArn,omitempty"`
}

// Rule_InputTransformer represents AWS::Events::Rule.InputTransformer.
type Rule_InputTransformer struct {
	InputPathsMap map[string]any `json:"InputPathsMap,omitempty"`
	InputTemplate any            `json:"InputTemplate,omitempty"`
}
