package codebuild

import (
	wetwire "github.com/lex00/wetwire-codebuild-go"
	"github.com/lex00/wetwire-codebuild-go/intrinsics"
	"github.com/lex00/wetwire-codebuild-go/resources/s3"
)

// IBucket is an S3 bucket used for sources, artifacts, caches, logs, and
// report exports.
type IBucket interface {
	BucketName() any
	BucketArn() any
	// ArnForObjects returns the ARN of the objects matching keyPattern.
	ArnForObjects(keyPattern string) any
}

var (
	bucketReadActions  = []string{"s3:GetObject*", "s3:GetBucket*", "s3:List*"}
	bucketWriteActions = []string{
		"s3:DeleteObject*",
		"s3:PutObject",
		"s3:PutObjectLegalHold",
		"s3:PutObjectRetention",
		"s3:PutObjectTagging",
		"s3:PutObjectVersionTagging",
		"s3:Abort*",
	}
)

func grantBucketRead(role IRole, bucket IBucket, keyPattern string) {
	grant(role, bucketReadActions, bucket.BucketArn(), bucket.ArnForObjects(keyPattern))
}

func grantBucketWrite(role IRole, bucket IBucket, keyPattern string) {
	grant(role, bucketWriteActions, bucket.BucketArn(), bucket.ArnForObjects(keyPattern))
}

func grantBucketReadWrite(role IRole, bucket IBucket, keyPattern string) {
	actions := append(append([]string{}, bucketReadActions...), bucketWriteActions...)
	grant(role, actions, bucket.BucketArn(), bucket.ArnForObjects(keyPattern))
}

// BucketProps configures NewBucket.
type BucketProps struct {
	BucketName any
	Versioned  bool
	// ExpirationDays expires objects after the given number of days when set.
	ExpirationDays int
	Tags           map[string]string
}

// Bucket is an AWS::S3::Bucket owned by the stack. It blocks public access and
// uses S3 managed encryption.
type Bucket struct {
	logicalID string
}

// NewBucket adds a bucket to the stack.
func NewBucket(stack *Stack, id string, props BucketProps) (*Bucket, error) {
	resource := &s3.Bucket{
		BucketName: props.BucketName,
		BucketEncryption: &s3.Bucket_BucketEncryption{
			ServerSideEncryptionConfiguration: []s3.Bucket_ServerSideEncryptionRule{{
				ServerSideEncryptionByDefault: &s3.Bucket_ServerSideEncryptionByDefault{SSEAlgorithm: "AES256"},
			}},
		},
		PublicAccessBlockConfiguration: &s3.Bucket_PublicAccessBlockConfiguration{
			BlockPublicAcls:       true,
			BlockPublicPolicy:     true,
			IgnorePublicAcls:      true,
			RestrictPublicBuckets: true,
		},
		Tags: renderTags(props.Tags),
	}
	if props.Versioned {
		resource.VersioningConfiguration = &s3.Bucket_VersioningConfiguration{Status: "Enabled"}
	}
	if props.ExpirationDays > 0 {
		resource.LifecycleConfiguration = &s3.Bucket_LifecycleConfiguration{
			Rules: []s3.Bucket_Rule{{Id: "Expire", ExpirationInDays: props.ExpirationDays, Status: "Enabled"}},
		}
	}
	logicalID, err := stack.AddResource(id, resource)
	if err != nil {
		return nil, err
	}
	return &Bucket{logicalID: logicalID}, nil
}

// LogicalID returns the logical id of the bucket resource.
func (b *Bucket) LogicalID() string {
	return b.logicalID
}

// BucketName returns {"Ref": bucket}.
func (b *Bucket) BucketName() any {
	return intrinsics.Ref{LogicalName: b.logicalID}
}

// BucketArn returns {"Fn::GetAtt": [bucket, "Arn"]}.
func (b *Bucket) BucketArn() any {
	return intrinsics.GetAtt{LogicalName: b.logicalID, Attribute: s3.BucketAttrArn}
}

// ArnForObjects returns the ARN of the objects matching keyPattern.
func (b *Bucket) ArnForObjects(keyPattern string) any {
	return intrinsics.Join{Delimiter: "", Values: []any{b.BucketArn(), "/" + keyPattern}}
}

type importedBucket struct {
	name string
}

// BucketFromName references an existing bucket by name.
func BucketFromName(name string) IBucket {
	return importedBucket{name: name}
}

func (b importedBucket) BucketName() any {
	return b.name
}

func (b importedBucket) BucketArn() any {
	return intrinsics.GlobalArn("s3", intrinsics.EscapeSub(b.name))
}

func (b importedBucket) ArnForObjects(keyPattern string) any {
	return intrinsics.GlobalArn("s3", intrinsics.EscapeSub(b.name+"/"+keyPattern))
}

func renderTags(tags map[string]string) []wetwire.Tag {
	if len(tags) == 0 {
		return nil
	}
	out := make([]wetwire.Tag, 0, len(tags))
	for _, key := range sortedKeys(tags) {
		out = append(out, wetwire.Tag{Key: key, Value: tags[key]})
	}
	return out
}
