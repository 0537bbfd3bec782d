package codebuild

import (
	"fmt"
	"strings"

	"github.com/lex00/wetwire-codebuild-go/intrinsics"
	cfn "github.com/lex00/wetwire-codebuild-go/resources/codebuild"
)

// IBuildImage is the container image a build runs in.
type IBuildImage interface {
	// Type is the CodeBuild environment type, e.g. LINUX_CONTAINER.
	Type() string
	ImageID() string
	DefaultComputeType() ComputeType
	ImagePullPrincipalType() ImagePullPrincipalType
	// Validate returns the problems of running the image in env.
	Validate(env BuildEnvironment) []string
	// RunScriptBuildspec returns a build spec that downloads a script bundle
	// from $SCRIPT_S3_BUCKET/$SCRIPT_S3_KEY and runs entrypoint from it.
	RunScriptBuildspec(entrypoint string) (BuildSpec, error)
}

// imageBinder is implemented by images that need registry credentials or
// IAM grants to be pulled.
type imageBinder interface {
	bindImage(role IRole) *cfn.Project_RegistryCredential
}

type imageFamily int

const (
	familyLinux imageFamily = iota
	familyArm
	familyGpu
	familyLambda
	familyWindows
)

type buildImage struct {
	family         imageFamily
	envType        string
	id             string
	defaultCompute ComputeType
	pullPrincipal  ImagePullPrincipalType

	// secretsManagerCredentials is the secret holding registry credentials.
	secretsManagerCredentials any
	// repositoryArn is the ECR repository the image is pulled from.
	repositoryArn any
	invalid       string
}

func (b *buildImage) Type() string                                   { return b.envType }
func (b *buildImage) ImageID() string                                { return b.id }
func (b *buildImage) DefaultComputeType() ComputeType                { return b.defaultCompute }
func (b *buildImage) ImagePullPrincipalType() ImagePullPrincipalType { return b.pullPrincipal }

func (b *buildImage) Validate(env BuildEnvironment) []string {
	var problems []string
	if b.invalid != "" {
		problems = append(problems, b.invalid)
	}
	compute := env.computeType()

	if b.family != familyLambda && compute.IsLambda() {
		problems = append(problems, fmt.Sprintf("Lambda compute type %s requires a Lambda image, got %s", compute, b.id))
	}

	switch b.family {
	case familyArm:
		if compute != ComputeTypeSmall && compute != ComputeTypeLarge {
			problems = append(problems, fmt.Sprintf("ARM images only support compute types %s and %s, got %s",
				ComputeTypeSmall, ComputeTypeLarge, compute))
		}
	case familyGpu:
		if compute != ComputeTypeLarge {
			problems = append(problems, fmt.Sprintf("GPU images only support compute type %s, got %s", ComputeTypeLarge, compute))
		}
	case familyWindows:
		if compute == ComputeTypeSmall {
			problems = append(problems, "Windows images do not support the small compute type")
		}
	case familyLambda:
		if !compute.IsLambda() {
			problems = append(problems, fmt.Sprintf("Lambda images require a Lambda compute type, got %s", compute))
		}
		if env.Privileged {
			problems = append(problems, "Lambda images do not support privileged mode")
		}
	}
	return problems
}

func (b *buildImage) RunScriptBuildspec(entrypoint string) (BuildSpec, error) {
	switch b.family {
	case familyLambda:
		return BuildSpec{}, fmt.Errorf("run script build specs are not supported on Lambda images")
	case familyWindows:
		scriptDir := `$env:TEMP\scriptdir`
		return BuildSpecFromObject(map[string]any{
			"version": "0.2",
			"phases": map[string]any{
				"pre_build": map[string]any{
					"commands": []any{
						"mkdir " + scriptDir,
						"aws s3 cp s3://$env:SCRIPT_S3_BUCKET/$env:SCRIPT_S3_KEY " + scriptDir + `\scripts.zip`,
						"Expand-Archive -Path " + scriptDir + `\scripts.zip -DestinationPath ` + scriptDir,
					},
				},
				"build": map[string]any{
					"commands": []any{
						"Set-Variable -Name SCRIPT_DIR -Value " + scriptDir,
						"& " + scriptDir + `\` + entrypoint,
					},
				},
			},
		}), nil
	default:
		return BuildSpecFromObject(map[string]any{
			"version": "0.2",
			"phases": map[string]any{
				"pre_build": map[string]any{
					"commands": []any{
						`echo "Downloading scripts from s3://${SCRIPT_S3_BUCKET}/${SCRIPT_S3_KEY}"`,
						"aws s3 cp s3://${SCRIPT_S3_BUCKET}/${SCRIPT_S3_KEY} /tmp",
						"mkdir -p /tmp/scriptdir",
						"unzip /tmp/$(basename $SCRIPT_S3_KEY) -d /tmp/scriptdir",
					},
				},
				"build": map[string]any{
					"commands": []any{
						"export SCRIPT_DIR=/tmp/scriptdir",
						fmt.Sprintf(`echo "Running %s"`, entrypoint),
						"chmod +x /tmp/scriptdir/" + entrypoint,
						"/tmp/scriptdir/" + entrypoint,
					},
				},
			},
		}), nil
	}
}

func (b *buildImage) bindImage(role IRole) *cfn.Project_RegistryCredential {
	if b.repositoryArn != nil {
		grant(role, []string{
			"ecr:BatchCheckLayerAvailability",
			"ecr:GetDownloadUrlForLayer",
			"ecr:BatchGetImage",
		}, b.repositoryArn)
		grant(role, []string{"ecr:GetAuthorizationToken"}, "*")
	}
	if b.secretsManagerCredentials == nil {
		return nil
	}
	grant(role, []string{"secretsmanager:GetSecretValue"}, b.secretsManagerCredentials)
	return &cfn.Project_RegistryCredential{
		Credential:         b.secretsManagerCredentials,
		CredentialProvider: "SECRETS_MANAGER",
	}
}

func codeBuildImage(family imageFamily, envType, id string, compute ComputeType) *buildImage {
	return &buildImage{
		family:         family,
		envType:        envType,
		id:             id,
		defaultCompute: compute,
		pullPrincipal:  ImagePullPrincipalCodeBuild,
	}
}

// Linux x86_64 images managed by CodeBuild.
var (
	LinuxBuildImageStandard5      IBuildImage = linuxImage("aws/codebuild/standard:5.0")
	LinuxBuildImageStandard6      IBuildImage = linuxImage("aws/codebuild/standard:6.0")
	LinuxBuildImageStandard7      IBuildImage = linuxImage("aws/codebuild/standard:7.0")
	LinuxBuildImageAmazonLinux2_4 IBuildImage = linuxImage("aws/codebuild/amazonlinux2-x86_64-standard:4.0")
	LinuxBuildImageAmazonLinux2_5 IBuildImage = linuxImage("aws/codebuild/amazonlinux2-x86_64-standard:5.0")
)

// Linux ARM images managed by CodeBuild.
var (
	LinuxArmBuildImageAmazonLinux2Standard2 IBuildImage = armImage("aws/codebuild/amazonlinux2-aarch64-standard:2.0")
	LinuxArmBuildImageAmazonLinux2Standard3 IBuildImage = armImage("aws/codebuild/amazonlinux2-aarch64-standard:3.0")
)

// Lambda images managed by CodeBuild.
var (
	LinuxLambdaBuildImageNodejs18   IBuildImage = lambdaImage(cfn.EnvironmentTypeLinuxLambdaContainer, "aws/codebuild/amazonlinux-x86_64-lambda-standard:nodejs18")
	LinuxLambdaBuildImageNodejs20   IBuildImage = lambdaImage(cfn.EnvironmentTypeLinuxLambdaContainer, "aws/codebuild/amazonlinux-x86_64-lambda-standard:nodejs20")
	LinuxLambdaBuildImagePython3_12 IBuildImage = lambdaImage(cfn.EnvironmentTypeLinuxLambdaContainer, "aws/codebuild/amazonlinux-x86_64-lambda-standard:python3.12")
	LinuxLambdaBuildImageGo1_21     IBuildImage = lambdaImage(cfn.EnvironmentTypeLinuxLambdaContainer, "aws/codebuild/amazonlinux-x86_64-lambda-standard:go1.21")

	LinuxArmLambdaBuildImageNodejs20   IBuildImage = lambdaImage(cfn.EnvironmentTypeArmLambdaContainer, "aws/codebuild/amazonlinux-aarch64-lambda-standard:nodejs20")
	LinuxArmLambdaBuildImagePython3_12 IBuildImage = lambdaImage(cfn.EnvironmentTypeArmLambdaContainer, "aws/codebuild/amazonlinux-aarch64-lambda-standard:python3.12")
)

// Windows images managed by CodeBuild.
var (
	WindowsBuildImage2019_2 IBuildImage = codeBuildImage(familyWindows, cfn.EnvironmentTypeWindowsServer2019, "aws/codebuild/windows-base:2019-2.0", ComputeTypeMedium)
	WindowsBuildImage2019_3 IBuildImage = codeBuildImage(familyWindows, cfn.EnvironmentTypeWindowsServer2019, "aws/codebuild/windows-base:2019-3.0", ComputeTypeMedium)
	WindowsBuildImage2022_1 IBuildImage = codeBuildImage(familyWindows, cfn.EnvironmentTypeWindowsServer2022, "aws/codebuild/windows-base:2022-1.0", ComputeTypeMedium)
)

func linuxImage(id string) *buildImage {
	return codeBuildImage(familyLinux, cfn.EnvironmentTypeLinuxContainer, id, ComputeTypeSmall)
}

func armImage(id string) *buildImage {
	return codeBuildImage(familyArm, cfn.EnvironmentTypeArmContainer, id, ComputeTypeLarge)
}

func lambdaImage(envType, id string) *buildImage {
	return codeBuildImage(familyLambda, envType, id, ComputeTypeLambda1GB)
}

// DockerImageOptions configures images pulled from a Docker registry.
type DockerImageOptions struct {
	// SecretsManagerCredentials is the ARN of a secret with "username" and
	// "password" keys for a private registry.
	SecretsManagerCredentials any
}

// LinuxBuildImageFromCodeBuildImageID uses a CodeBuild managed Linux image
// not listed in this package.
func LinuxBuildImageFromCodeBuildImageID(id string) IBuildImage {
	return linuxImage(id)
}

// LinuxArmBuildImageFromCodeBuildImageID uses a CodeBuild managed ARM image.
func LinuxArmBuildImageFromCodeBuildImageID(id string) IBuildImage {
	return armImage(id)
}

// LinuxBuildImageFromDockerRegistry uses a Linux image from Docker Hub or
// another registry.
func LinuxBuildImageFromDockerRegistry(name string, opts DockerImageOptions) IBuildImage {
	return &buildImage{
		family:                    familyLinux,
		envType:                   cfn.EnvironmentTypeLinuxContainer,
		id:                        name,
		defaultCompute:            ComputeTypeSmall,
		pullPrincipal:             ImagePullPrincipalServiceRole,
		secretsManagerCredentials: opts.SecretsManagerCredentials,
	}
}

// WindowsBuildImageFromDockerRegistry uses a Windows Server 2019 image from
// a Docker registry.
func WindowsBuildImageFromDockerRegistry(name string, opts DockerImageOptions) IBuildImage {
	return &buildImage{
		family:                    familyWindows,
		envType:                   cfn.EnvironmentTypeWindowsServer2019,
		id:                        name,
		defaultCompute:            ComputeTypeMedium,
		pullPrincipal:             ImagePullPrincipalServiceRole,
		secretsManagerCredentials: opts.SecretsManagerCredentials,
	}
}

// LinuxBuildImageFromEcrRepository uses a Linux image from an ECR
// repository, given as "<account>.dkr.ecr.<region>.amazonaws.com/<name>".
func LinuxBuildImageFromEcrRepository(repositoryURI, tag string) IBuildImage {
	return ecrImage(familyLinux, cfn.EnvironmentTypeLinuxContainer, ComputeTypeSmall, repositoryURI, tag)
}

// LinuxGpuBuildImageFromEcrRepository uses a GPU image, such as an AWS Deep
// Learning Container, from an ECR repository.
func LinuxGpuBuildImageFromEcrRepository(repositoryURI, tag string) IBuildImage {
	return ecrImage(familyGpu, cfn.EnvironmentTypeLinuxGpuContainer, ComputeTypeLarge, repositoryURI, tag)
}

func ecrImage(family imageFamily, envType string, compute ComputeType, repositoryURI, tag string) *buildImage {
	if tag == "" {
		tag = "latest"
	}
	img := &buildImage{
		family:         family,
		envType:        envType,
		id:             repositoryURI + ":" + tag,
		defaultCompute: compute,
		pullPrincipal:  ImagePullPrincipalServiceRole,
	}
	arn, err := ecrRepositoryArn(repositoryURI)
	if err != nil {
		img.invalid = err.Error()
		return img
	}
	img.repositoryArn = arn
	return img
}

func ecrRepositoryArn(repositoryURI string) (any, error) {
	host, name, ok := strings.Cut(repositoryURI, "/")
	parts := strings.Split(host, ".")
	if !ok || name == "" || len(parts) < 5 || parts[1] != "dkr" || parts[2] != "ecr" {
		return nil, fmt.Errorf("invalid ECR repository URI %q", repositoryURI)
	}
	account, region := parts[0], parts[3]
	return intrinsics.Sub{String: fmt.Sprintf("arn:${AWS::Partition}:ecr:%s:%s:repository/%s", region, account, intrinsics.EscapeSub(name))}, nil
}

// BuildImageFromID picks the image family from an image id, as found in
// project files and existing templates.
func BuildImageFromID(id string) IBuildImage {
	switch {
	case strings.HasPrefix(id, "aws/codebuild/windows"):
		envType := cfn.EnvironmentTypeWindowsServer2019
		if strings.Contains(id, ":2022") {
			envType = cfn.EnvironmentTypeWindowsServer2022
		}
		return codeBuildImage(familyWindows, envType, id, ComputeTypeMedium)
	case strings.Contains(id, "aarch64-lambda"):
		return lambdaImage(cfn.EnvironmentTypeArmLambdaContainer, id)
	case strings.Contains(id, "lambda-standard"):
		return lambdaImage(cfn.EnvironmentTypeLinuxLambdaContainer, id)
	case strings.HasPrefix(id, "aws/codebuild/") && strings.Contains(id, "aarch64"):
		return armImage(id)
	case strings.HasPrefix(id, "aws/codebuild/"):
		return linuxImage(id)
	case strings.Contains(id, ".dkr.ecr."):
		uri, tag := id, ""
		if i := strings.LastIndex(id, ":"); i > strings.Index(id, "/") {
			uri, tag = id[:i], id[i+1:]
		}
		return LinuxBuildImageFromEcrRepository(uri, tag)
	default:
		return LinuxBuildImageFromDockerRegistry(id, DockerImageOptions{})
	}
}
