package codebuild

import (
	"fmt"
	"time"

	"github.com/lex00/wetwire-codebuild-go/intrinsics"
	"github.com/lex00/wetwire-codebuild-go/resources/cloudwatch"
)

// MetricNamespace is the CloudWatch namespace of CodeBuild metrics.
const MetricNamespace = "AWS/CodeBuild"

// CodeBuild metric names.
const (
	MetricNameBuilds          = "Builds"
	MetricNameDuration        = "Duration"
	MetricNameSucceededBuilds = "SucceededBuilds"
	MetricNameFailedBuilds    = "FailedBuilds"
)

const defaultMetricPeriod = 5 * time.Minute

// MetricOptions overrides the statistic and period of a metric.
type MetricOptions struct {
	Statistic string
	Period    time.Duration
}

// Metric describes a CloudWatch metric of a project.
type Metric struct {
	Namespace  string
	MetricName string
	Dimensions map[string]any
	Statistic  string
	Period     time.Duration
}

// Metric returns a metric of the project in the AWS/CodeBuild namespace.
// The statistic defaults to Sum.
func (p *projectBase) Metric(metricName string, opts MetricOptions) Metric {
	m := Metric{
		Namespace:  MetricNamespace,
		MetricName: metricName,
		Dimensions: map[string]any{"ProjectName": p.name},
		Statistic:  opts.Statistic,
		Period:     opts.Period,
	}
	if m.Statistic == "" {
		m.Statistic = "Sum"
	}
	if m.Period == 0 {
		m.Period = defaultMetricPeriod
	}
	return m
}

// MetricBuilds counts builds started.
func (p *projectBase) MetricBuilds(opts MetricOptions) Metric {
	return p.Metric(MetricNameBuilds, opts)
}

// MetricDuration measures build duration. The statistic defaults to Average.
func (p *projectBase) MetricDuration(opts MetricOptions) Metric {
	if opts.Statistic == "" {
		opts.Statistic = "Average"
	}
	return p.Metric(MetricNameDuration, opts)
}

// MetricSucceededBuilds counts successful builds.
func (p *projectBase) MetricSucceededBuilds(opts MetricOptions) Metric {
	return p.Metric(MetricNameSucceededBuilds, opts)
}

// MetricFailedBuilds counts failed builds.
func (p *projectBase) MetricFailedBuilds(opts MetricOptions) Metric {
	return p.Metric(MetricNameFailedBuilds, opts)
}

// AlarmOptions configures Metric.CreateAlarm.
type AlarmOptions struct {
	AlarmName        any
	AlarmDescription string
	Threshold        float64
	// EvaluationPeriods defaults to 1.
	EvaluationPeriods int
	DatapointsToAlarm int
	// ComparisonOperator defaults to GreaterThanOrEqualToThreshold.
	ComparisonOperator string
	// TreatMissingData defaults to the service default, "missing".
	TreatMissingData string
	AlarmActions     []any
	OKActions        []any
}

// Alarm is an AWS::CloudWatch::Alarm created from a metric.
type Alarm struct {
	logicalID string
}

// LogicalID returns the logical id of the alarm resource.
func (a *Alarm) LogicalID() string {
	return a.logicalID
}

// AlarmArn returns {"Fn::GetAtt": [alarm, "Arn"]}.
func (a *Alarm) AlarmArn() any {
	return intrinsics.GetAtt{LogicalName: a.logicalID, Attribute: "Arn"}
}

// CreateAlarm adds an alarm on the metric to the stack.
func (m Metric) CreateAlarm(stack *Stack, id string, opts AlarmOptions) (*Alarm, error) {
	seconds := int(m.Period / time.Second)
	if m.Period%time.Second != 0 || !(seconds == 10 || seconds == 30 || (seconds > 0 && seconds%60 == 0)) {
		return nil, validationErrorf(id, "metric period must be 10s, 30s, or a multiple of 60s, got %s", m.Period)
	}
	evaluationPeriods := opts.EvaluationPeriods
	if evaluationPeriods == 0 {
		evaluationPeriods = 1
	}
	if opts.DatapointsToAlarm > evaluationPeriods {
		return nil, validationErrorf(id, "datapoints to alarm (%d) cannot exceed evaluation periods (%d)",
			opts.DatapointsToAlarm, evaluationPeriods)
	}
	operator := opts.ComparisonOperator
	if operator == "" {
		operator = cloudwatch.GreaterThanOrEqualToThreshold
	}

	alarm := &cloudwatch.Alarm{
		AlarmName:          opts.AlarmName,
		AlarmDescription:   optional(opts.AlarmDescription),
		Namespace:          m.Namespace,
		MetricName:         m.MetricName,
		Statistic:          m.Statistic,
		Period:             seconds,
		EvaluationPeriods:  evaluationPeriods,
		Threshold:          opts.Threshold,
		ComparisonOperator: operator,
		TreatMissingData:   optional(opts.TreatMissingData),
		AlarmActions:       opts.AlarmActions,
		OKActions:          opts.OKActions,
	}
	if opts.DatapointsToAlarm > 0 {
		alarm.DatapointsToAlarm = opts.DatapointsToAlarm
	}
	for _, name := range sortedKeys(m.Dimensions) {
		alarm.Dimensions = append(alarm.Dimensions, cloudwatch.Alarm_Dimension{Name: name, Value: m.Dimensions[name]})
	}

	logicalID, err := stack.AddResource(id, alarm)
	if err != nil {
		return nil, fmt.Errorf("creating alarm: %w", err)
	}
	return &Alarm{logicalID: logicalID}, nil
}
