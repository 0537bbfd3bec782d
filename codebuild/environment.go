package codebuild

import (
	"strings"

	"github.com/lex00/wetwire-codebuild-go/intrinsics"
	cfn "github.com/lex00/wetwire-codebuild-go/resources/codebuild"
)

// ComputeType is the size of the build host.
type ComputeType string

const (
	ComputeTypeSmall      ComputeType = "BUILD_GENERAL1_SMALL"
	ComputeTypeMedium     ComputeType = "BUILD_GENERAL1_MEDIUM"
	ComputeTypeLarge      ComputeType = "BUILD_GENERAL1_LARGE"
	ComputeTypeXLarge     ComputeType = "BUILD_GENERAL1_XLARGE"
	ComputeType2XLarge    ComputeType = "BUILD_GENERAL1_2XLARGE"
	ComputeTypeLambda1GB  ComputeType = "BUILD_LAMBDA_1GB"
	ComputeTypeLambda2GB  ComputeType = "BUILD_LAMBDA_2GB"
	ComputeTypeLambda4GB  ComputeType = "BUILD_LAMBDA_4GB"
	ComputeTypeLambda8GB  ComputeType = "BUILD_LAMBDA_8GB"
	ComputeTypeLambda10GB ComputeType = "BUILD_LAMBDA_10GB"
)

// IsLambda reports whether c runs builds on AWS Lambda.
func (c ComputeType) IsLambda() bool {
	return strings.HasPrefix(string(c), "BUILD_LAMBDA_")
}

// BuildEnvironmentVariableType says how a variable value is resolved.
type BuildEnvironmentVariableType string

const (
	// EnvVarPlaintext values are stored in the project as is.
	EnvVarPlaintext BuildEnvironmentVariableType = "PLAINTEXT"
	// EnvVarParameterStore values name an SSM parameter.
	EnvVarParameterStore BuildEnvironmentVariableType = "PARAMETER_STORE"
	// EnvVarSecretsManager values name a Secrets Manager secret, optionally
	// followed by ":json-key:version-stage:version-id".
	EnvVarSecretsManager BuildEnvironmentVariableType = "SECRETS_MANAGER"
)

// BuildEnvironmentVariable is an environment variable of a build.
type BuildEnvironmentVariable struct {
	Value any
	// Type defaults to EnvVarPlaintext.
	Type BuildEnvironmentVariableType
}

// ImagePullPrincipalType is the identity CodeBuild pulls the image with.
type ImagePullPrincipalType string

const (
	ImagePullPrincipalCodeBuild   ImagePullPrincipalType = "CODEBUILD"
	ImagePullPrincipalServiceRole ImagePullPrincipalType = "SERVICE_ROLE"
)

// BuildEnvironmentCertificate is a PEM certificate stored in S3 that builds
// trust.
type BuildEnvironmentCertificate struct {
	Bucket    IBucket
	ObjectKey string
}

// BuildEnvironment describes the build host.
type BuildEnvironment struct {
	// BuildImage defaults to LinuxBuildImageStandard7.
	BuildImage IBuildImage
	// ComputeType defaults to the image's default compute type.
	ComputeType ComputeType
	// Privileged enables the Docker daemon inside the build.
	Privileged           bool
	Certificate          *BuildEnvironmentCertificate
	EnvironmentVariables map[string]BuildEnvironmentVariable
	// FleetArn runs builds on a reserved capacity fleet.
	FleetArn any
}

func (e BuildEnvironment) image() IBuildImage {
	if e.BuildImage == nil {
		return LinuxBuildImageStandard7
	}
	return e.BuildImage
}

func (e BuildEnvironment) computeType() ComputeType {
	if e.ComputeType == "" {
		return e.image().DefaultComputeType()
	}
	return e.ComputeType
}

// renderEnvironment renders env for p, adding the project level variables
// on top of the environment's own, and grants what the image and variables
// need.
func renderEnvironment(p *Project, env BuildEnvironment, extra map[string]BuildEnvironmentVariable) *cfn.Project_Environment {
	image := env.image()
	out := &cfn.Project_Environment{
		Type:                     image.Type(),
		Image:                    image.ImageID(),
		ComputeType:              string(env.computeType()),
		ImagePullCredentialsType: string(image.ImagePullPrincipalType()),
	}
	if env.Privileged {
		out.PrivilegedMode = true
	}
	if env.FleetArn != nil {
		out.Fleet = &cfn.Project_ProjectFleet{FleetArn: env.FleetArn}
	}
	if env.Certificate != nil && env.Certificate.Bucket != nil {
		out.Certificate = env.Certificate.Bucket.ArnForObjects(env.Certificate.ObjectKey)
		grantBucketRead(p.Role(), env.Certificate.Bucket, env.Certificate.ObjectKey)
	}
	if binder, ok := image.(imageBinder); ok {
		out.RegistryCredential = binder.bindImage(p.Role())
	}

	vars := make(map[string]BuildEnvironmentVariable, len(env.EnvironmentVariables)+len(extra))
	for name, v := range env.EnvironmentVariables {
		vars[name] = v
	}
	for name, v := range extra {
		vars[name] = v
	}
	out.EnvironmentVariables = renderEnvironmentVariables(p.Role(), vars)
	return out
}

func renderEnvironmentVariables(role IRole, vars map[string]BuildEnvironmentVariable) []cfn.Project_EnvironmentVariable {
	var (
		out        []cfn.Project_EnvironmentVariable
		parameters []any
		secrets    []any
	)
	for _, name := range sortedKeys(vars) {
		v := vars[name]
		varType := v.Type
		if varType == "" {
			varType = EnvVarPlaintext
		}
		out = append(out, cfn.Project_EnvironmentVariable{Name: name, Type: string(varType), Value: v.Value})

		switch varType {
		case EnvVarParameterStore:
			parameters = append(parameters, parameterArn(v.Value))
		case EnvVarSecretsManager:
			secrets = append(secrets, secretArn(v.Value))
		}
	}
	grant(role, []string{"ssm:GetParameters"}, parameters...)
	grant(role, []string{"secretsmanager:GetSecretValue"}, secrets...)
	return out
}

func parameterArn(value any) any {
	name, ok := value.(string)
	if !ok {
		return intrinsics.Join{Delimiter: "", Values: []any{intrinsics.RegionalArn("ssm", "parameter/"), value}}
	}
	if strings.HasPrefix(name, "arn:") {
		return name
	}
	return intrinsics.RegionalArn("ssm", "parameter/"+intrinsics.EscapeSub(strings.TrimPrefix(name, "/")))
}

func secretArn(value any) any {
	ref, ok := value.(string)
	if !ok {
		return intrinsics.Join{Delimiter: "", Values: []any{value, "*"}}
	}
	if strings.HasPrefix(ref, "arn:") {
		parts := strings.Split(ref, ":")
		if len(parts) > 7 {
			parts = parts[:7]
		}
		return strings.Join(parts, ":") + "*"
	}
	name, _, _ := strings.Cut(ref, ":")
	return intrinsics.RegionalArn("secretsmanager", "secret:"+intrinsics.EscapeSub(name)+"-??????")
}

// looksLikeSecret reports whether a plaintext value resolves a secret at
// deploy time.
func looksLikeSecret(value any) bool {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case intrinsics.Sub:
		s = v.String
	default:
		return false
	}
	return strings.Contains(s, "{{resolve:secretsmanager:") || strings.Contains(s, "{{resolve:ssm-secure:")
}
