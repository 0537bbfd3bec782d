package codebuild

import (
	"github.com/lex00/wetwire-codebuild-go/intrinsics"
	cfn "github.com/lex00/wetwire-codebuild-go/resources/codebuild"
)

// ReportGroupType is the kind of reports a group holds.
type ReportGroupType string

const (
	ReportGroupTypeTest         ReportGroupType = cfn.ReportGroupTypeTest
	ReportGroupTypeCodeCoverage ReportGroupType = cfn.ReportGroupTypeCodeCoverage
)

// ReportGroupProps configures NewReportGroup.
type ReportGroupProps struct {
	ReportGroupName any
	// Type defaults to ReportGroupTypeTest.
	Type ReportGroupType
	// ExportBucket receives raw report files when set.
	ExportBucket IBucket
	ExportPath   string
	// ZipExport packages exported reports as a zip file.
	ZipExport bool
	// DeleteReports removes the reports when the group is deleted.
	DeleteReports bool
	Tags          map[string]string
}

// ReportGroup is an AWS::CodeBuild::ReportGroup.
type ReportGroup struct {
	logicalID    string
	exportBucket IBucket
}

// NewReportGroup adds a report group to the stack.
func NewReportGroup(stack *Stack, id string, props ReportGroupProps) (*ReportGroup, error) {
	groupType := props.Type
	if groupType == "" {
		groupType = ReportGroupTypeTest
	}
	resource := &cfn.ReportGroup{
		Name: props.ReportGroupName,
		Type: string(groupType),
		ExportConfig: &cfn.ReportGroup_ReportExportConfig{
			ExportConfigType: cfn.ReportExportTypeNoExport,
		},
		Tags: renderTags(props.Tags),
	}
	if props.DeleteReports {
		resource.DeleteReports = true
	}
	if props.ExportBucket != nil {
		packaging := cfn.PackagingNone
		if props.ZipExport {
			packaging = cfn.PackagingZip
		}
		resource.ExportConfig = &cfn.ReportGroup_ReportExportConfig{
			ExportConfigType: cfn.ReportExportTypeS3,
			S3Destination: &cfn.ReportGroup_S3ReportExportConfig{
				Bucket:    props.ExportBucket.BucketName(),
				Path:      optional(props.ExportPath),
				Packaging: packaging,
			},
		}
	}

	logicalID, err := stack.AddResource(id, resource)
	if err != nil {
		return nil, err
	}
	return &ReportGroup{logicalID: logicalID, exportBucket: props.ExportBucket}, nil
}

// LogicalID returns the logical id of the report group resource.
func (g *ReportGroup) LogicalID() string {
	return g.logicalID
}

// ReportGroupArn returns {"Ref": group}, which resolves to the ARN.
func (g *ReportGroup) ReportGroupArn() any {
	return intrinsics.Ref{LogicalName: g.logicalID}
}

// ReportGroupName returns {"Fn::GetAtt": [group, "Name"]}.
func (g *ReportGroup) ReportGroupName() any {
	return intrinsics.GetAtt{LogicalName: g.logicalID, Attribute: cfn.ReportGroupAttrName}
}

// GrantWrite lets role write reports into the group and its export bucket.
func (g *ReportGroup) GrantWrite(role IRole) {
	grant(role, []string{
		"codebuild:CreateReport",
		"codebuild:UpdateReport",
		"codebuild:BatchPutTestCases",
		"codebuild:BatchPutCodeCoverages",
	}, g.ReportGroupArn())
	if g.exportBucket != nil {
		grantBucketWrite(role, g.exportBucket, "*")
	}
}
