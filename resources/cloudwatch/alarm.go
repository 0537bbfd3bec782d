// Package cloudwatch contains the CloudFormation alarm type created from
// CodeBuild project metrics.
package cloudwatch

// Alarm represents AWS::CloudWatch::Alarm.
type Alarm struct {
	ActionsEnabled     any               `json:"ActionsEnabled,omitempty"`
	AlarmActions       []any             `json:"AlarmActions,omitempty"`
	AlarmDescription   any               `json:"AlarmDescription,omitempty"`
	AlarmName          any               `json:"AlarmName,omitempty"`
	ComparisonOperator any               `json:"ComparisonOperator,omitempty"`
	DatapointsToAlarm  any               `json:"DatapointsToAlarm,omitempty"`
	Dimensions         []Alarm_Dimension `json:"Dimensions,omitempty"`
	EvaluationPeriods  any               `json:"EvaluationPeriods,omitempty"`
	MetricName         any               `json:"MetricName,omitempty"`
	Namespace          any               `json:"Namespace,omitempty"`
	OKActions          []any             `json:"OKActions,omitempty"`
	Period             any               `json:"Period,omitempty"`
	Statistic          any               `json:"Statistic,omitempty"`
	Threshold          any               `json:"Threshold,omitempty"`
	TreatMissingData   any               `json:"TreatMissingData,omitempty"`
	Unit               any               `json:"Unit,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r Alarm) ResourceType() string {
	return "AWS::CloudWatch::Alarm"
}

// Alarm_Dimension represents AWS::CloudWatch::Alarm.Dimension.
type Alarm_Dimension struct {
	Name  any `json:"Name,omitempty"`
	Value any `json:"Value,omitempty"`
}

// Comparison operators.
const (
	GreaterThanOrEqualToThreshold = "GreaterThanOrEqualToThreshold"
	GreaterThanThreshold          = "GreaterThanThreshold"
	LessThanThreshold             = "LessThanThreshold"
	LessThanOrEqualToThreshold    = "LessThanOrEqualToThreshold"
)

// Missing data treatments.
const (
	TreatMissingBreaching    = "breaching"
	TreatMissingNotBreaching = "notBreaching"
	TreatMissingIgnore       = "ignore"
	TreatMissingMissing      = "missing"
)
