package codebuild

import (
	cfn "github.com/lex00/wetwire-codebuild-go/resources/codebuild"
)

// IArtifacts is where a project stores its build output.
type IArtifacts interface {
	Type() string
	// Identifier names a secondary artifact. Primary artifacts leave it empty.
	Identifier() string
	Bind(project *Project) (cfn.Project_Artifacts, error)
}

type noArtifacts struct{}

// NoArtifacts discards the build output.
func NoArtifacts() IArtifacts {
	return noArtifacts{}
}

func (noArtifacts) Type() string       { return cfn.ArtifactsTypeNoArtifacts }
func (noArtifacts) Identifier() string { return "" }

func (noArtifacts) Bind(*Project) (cfn.Project_Artifacts, error) {
	return cfn.Project_Artifacts{Type: cfn.ArtifactsTypeNoArtifacts}, nil
}

// S3ArtifactsProps configures S3Artifacts.
type S3ArtifactsProps struct {
	Bucket IBucket
	// Path is the key prefix inside the bucket.
	Path string
	// Name is the artifact name. When empty the build spec decides it.
	Name string
	// IncludeBuildID adds the build id to the artifact path. Defaults to true.
	IncludeBuildID *bool
	// PackageZip zips the output. Defaults to true.
	PackageZip *bool
	// Encryption encrypts the output. Defaults to true.
	Encryption *bool
	Identifier string
}

type s3Artifacts struct {
	props S3ArtifactsProps
}

// S3Artifacts uploads the build output to S3.
func S3Artifacts(props S3ArtifactsProps) IArtifacts {
	return s3Artifacts{props: props}
}

func (a s3Artifacts) Type() string       { return cfn.ArtifactsTypeS3 }
func (a s3Artifacts) Identifier() string { return a.props.Identifier }

func (a s3Artifacts) Bind(p *Project) (cfn.Project_Artifacts, error) {
	if a.props.Bucket == nil {
		return cfn.Project_Artifacts{}, validationErrorf(p.path+"/Artifacts", "S3 artifacts require a bucket")
	}
	grantBucketReadWrite(p.Role(), a.props.Bucket, "*")

	out := cfn.Project_Artifacts{
		Type:               cfn.ArtifactsTypeS3,
		Location:           a.props.Bucket.BucketName(),
		Path:               optional(a.props.Path),
		Name:               optional(a.props.Name),
		ArtifactIdentifier: optional(a.props.Identifier),
		NamespaceType:      cfn.NamespaceTypeBuildID,
		Packaging:          cfn.PackagingZip,
	}
	if !boolValue(a.props.IncludeBuildID, true) {
		out.NamespaceType = cfn.NamespaceTypeNone
	}
	if !boolValue(a.props.PackageZip, true) {
		out.Packaging = cfn.PackagingNone
	}
	if !boolValue(a.props.Encryption, true) {
		out.EncryptionDisabled = true
	}
	if a.props.Name == "" {
		out.OverrideArtifactName = true
	}
	return out, nil
}

type codePipelineArtifacts struct{}

// CodePipelineArtifacts hands the build output back to CodePipeline.
func CodePipelineArtifacts() IArtifacts {
	return codePipelineArtifacts{}
}

func (codePipelineArtifacts) Type() string       { return cfn.ArtifactsTypeCodePipeline }
func (codePipelineArtifacts) Identifier() string { return "" }

func (codePipelineArtifacts) Bind(*Project) (cfn.Project_Artifacts, error) {
	return cfn.Project_Artifacts{Type: cfn.ArtifactsTypeCodePipeline}, nil
}
