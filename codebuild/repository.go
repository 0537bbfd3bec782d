package codebuild

import (
	"github.com/lex00/wetwire-codebuild-go/intrinsics"
)

// IRepository is a CodeCommit repository.
type IRepository interface {
	RepositoryName() string
	RepositoryArn() any
	RepositoryCloneURLHTTP() any
}

type importedRepository struct {
	name string
}

// RepositoryFromName references an existing CodeCommit repository in the
// stack's account and region.
func RepositoryFromName(name string) IRepository {
	return importedRepository{name: name}
}

func (r importedRepository) RepositoryName() string {
	return r.name
}

func (r importedRepository) RepositoryArn() any {
	return intrinsics.RegionalArn("codecommit", intrinsics.EscapeSub(r.name))
}

func (r importedRepository) RepositoryCloneURLHTTP() any {
	return intrinsics.Sub{String: "https://git-codecommit.${AWS::Region}.${AWS::URLSuffix}/v1/repos/" + intrinsics.EscapeSub(r.name)}
}
