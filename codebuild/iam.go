package codebuild

import (
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/lex00/wetwire-codebuild-go/intrinsics"
	"github.com/lex00/wetwire-codebuild-go/resources/iam"
)

// IRole is an IAM role that statements can be granted to.
type IRole interface {
	RoleArn() any
	RoleName() any
	// AddToPolicy adds a statement to the role's default policy. It reports
	// false when the role cannot be modified, as with imported roles.
	AddToPolicy(statement intrinsics.PolicyStatement) bool
}

// RoleProps configures NewRole.
type RoleProps struct {
	// AssumedBy lists the service principals trusted by the role.
	AssumedBy         []string
	Description       string
	RoleName          any
	ManagedPolicyArns []any
}

// Role is an AWS::IAM::Role whose statements are collected into a separate
// AWS::IAM::Policy created on the first grant.
type Role struct {
	stack     *Stack
	path      string
	logicalID string
	resource  *iam.Role

	policyID string
	document *intrinsics.PolicyDocument
}

// NewRole adds an IAM role to the stack.
func NewRole(stack *Stack, id string, props RoleProps) (*Role, error) {
	resource := &iam.Role{
		AssumeRolePolicyDocument: intrinsics.AssumeRoleFor(props.AssumedBy...),
		RoleName:                 props.RoleName,
		ManagedPolicyArns:        props.ManagedPolicyArns,
	}
	if props.Description != "" {
		resource.Description = props.Description
	}
	logicalID, err := stack.AddResource(id, resource)
	if err != nil {
		return nil, err
	}
	return &Role{stack: stack, path: id, logicalID: logicalID, resource: resource}, nil
}

// LogicalID returns the logical id of the role resource.
func (r *Role) LogicalID() string {
	return r.logicalID
}

// PolicyLogicalID returns the logical id of the default policy, or "" when
// nothing has been granted yet.
func (r *Role) PolicyLogicalID() string {
	return r.policyID
}

// RoleArn returns {"Fn::GetAtt": [role, "Arn"]}.
func (r *Role) RoleArn() any {
	return intrinsics.GetAtt{LogicalName: r.logicalID, Attribute: iam.RoleAttrArn}
}

// RoleName returns {"Ref": role}.
func (r *Role) RoleName() any {
	return intrinsics.Ref{LogicalName: r.logicalID}
}

// Statements returns the statements granted to the role so far.
func (r *Role) Statements() []intrinsics.PolicyStatement {
	if r.document == nil {
		return nil
	}
	out := make([]intrinsics.PolicyStatement, 0, len(r.document.Statement))
	for _, s := range r.document.Statement {
		out = append(out, s.(intrinsics.PolicyStatement))
	}
	return out
}

// AddToPolicy adds a statement to the default policy. Identical statements
// are only added once.
func (r *Role) AddToPolicy(statement intrinsics.PolicyStatement) bool {
	if r.document == nil {
		doc := intrinsics.NewPolicyDocument()
		r.document = &doc
		policyPath := r.path + "/DefaultPolicy"
		policy := &iam.Policy{
			PolicyDocument: r.document,
			PolicyName:     LogicalID(policyPath),
			Roles:          []any{r.RoleName()},
		}
		id, err := r.stack.AddResource(policyPath, policy)
		if err != nil {
			r.stack.logger.Warn("default policy not created", zap.String("role", r.logicalID), zap.Error(err))
			r.document = nil
			return false
		}
		r.policyID = id
	}

	for _, existing := range r.document.Statement {
		if reflect.DeepEqual(existing, statement) {
			return true
		}
	}
	r.document.Statement = append(r.document.Statement, statement)
	r.stack.logger.Debug("statement granted",
		zap.String("role", r.logicalID),
		zap.Any("action", statement.Action))
	return true
}

type importedRole struct {
	arn any
}

type roleSnapshot struct {
	policyID   string
	document   *intrinsics.PolicyDocument
	statements int
}

func (r *Role) snapshot() roleSnapshot {
	snap := roleSnapshot{policyID: r.policyID, document: r.document}
	if r.document != nil {
		snap.statements = len(r.document.Statement)
	}
	return snap
}

// restore forgets statements granted after snap was taken. The default
// policy resource itself is removed by the stack restore.
func (r *Role) restore(snap roleSnapshot) {
	r.policyID = snap.policyID
	r.document = snap.document
	if r.document != nil {
		r.document.Statement = r.document.Statement[:snap.statements]
	}
}

// RoleFromArn references an existing role. Grants to it are dropped because
// its policies are managed elsewhere.
func RoleFromArn(arn any) IRole {
	return importedRole{arn: arn}
}

func (r importedRole) RoleArn() any {
	return r.arn
}

func (r importedRole) RoleName() any {
	if s, ok := r.arn.(string); ok {
		if i := strings.LastIndexByte(s, '/'); i >= 0 {
			return s[i+1:]
		}
	}
	return intrinsics.Select{Index: 1, List: intrinsics.Split{Delimiter: "/", Source: r.arn}}
}

func (r importedRole) AddToPolicy(intrinsics.PolicyStatement) bool {
	return false
}

func grant(role IRole, actions []string, resources ...any) {
	if role == nil || len(resources) == 0 {
		return
	}
	role.AddToPolicy(intrinsics.Allow(actions, resources...))
}
