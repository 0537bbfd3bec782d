package codebuild

import (
	"github.com/lex00/wetwire-codebuild-go/intrinsics"
	cfn "github.com/lex00/wetwire-codebuild-go/resources/codebuild"
	"github.com/lex00/wetwire-codebuild-go/resources/iam"
)

// VpcConfig places builds in a VPC.
type VpcConfig struct {
	VpcID            any
	SubnetIDs        []any
	SecurityGroupIDs []any
}

func renderVpc(p *Project, vpc *VpcConfig) (*cfn.Project_VpcConfig, error) {
	if vpc == nil {
		return nil, nil
	}
	path := p.path + "/Vpc"
	if vpc.VpcID == nil {
		return nil, validationErrorf(path, "VPC config requires a VPC id")
	}
	if len(vpc.SubnetIDs) == 0 {
		return nil, validationErrorf(path, "VPC config requires at least one subnet")
	}
	if len(vpc.SecurityGroupIDs) == 0 {
		return nil, validationErrorf(path, "VPC config requires at least one security group")
	}

	subnetArns := make([]any, len(vpc.SubnetIDs))
	for i, id := range vpc.SubnetIDs {
		subnetArns[i] = intrinsics.JoinStrings(intrinsics.RegionalArn("ec2", "subnet/"), id)
	}
	eniPermission := intrinsics.Allow([]string{"ec2:CreateNetworkInterfacePermission"},
		intrinsics.RegionalArn("ec2", "network-interface/*"))
	eniPermission.Condition = intrinsics.Json{
		intrinsics.StringEquals: intrinsics.Json{
			"ec2:Subnet":            subnetArns,
			"ec2:AuthorizedService": "codebuild.amazonaws.com",
		},
	}
	statements := []intrinsics.PolicyStatement{
		intrinsics.Allow([]string{
			"ec2:CreateNetworkInterface",
			"ec2:DescribeNetworkInterfaces",
			"ec2:DeleteNetworkInterface",
			"ec2:DescribeSubnets",
			"ec2:DescribeSecurityGroups",
			"ec2:DescribeDhcpOptions",
			"ec2:DescribeVpcs",
		}, "*"),
		eniPermission,
	}

	// The project must wait for these statements, and the default policy
	// already depends on the project, so they get a policy of their own.
	switch role := p.Role().(type) {
	case *Role:
		policyPath := p.path + "/PolicyDocument"
		doc := intrinsics.NewPolicyDocument(statements...)
		id, err := p.stack.AddResource(policyPath, &iam.Policy{
			PolicyDocument: &doc,
			PolicyName:     LogicalID(policyPath),
			Roles:          []any{role.RoleName()},
		})
		if err != nil {
			return nil, err
		}
		p.vpcPolicyID = id
	case nil:
	default:
		for _, statement := range statements {
			role.AddToPolicy(statement)
		}
	}

	return &cfn.Project_VpcConfig{
		VpcId:            vpc.VpcID,
		Subnets:          vpc.SubnetIDs,
		SecurityGroupIds: vpc.SecurityGroupIDs,
	}, nil
}
