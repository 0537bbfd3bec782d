package codebuild

import (
	cfn "github.com/lex00/wetwire-codebuild-go/resources/codebuild"
)

// EfsFileSystemLocation mounts an Amazon EFS file system into builds.
type EfsFileSystemLocation struct {
	// Identifier exposes the mount point as CODEBUILD_<Identifier>.
	Identifier string
	// Location is "<dns name>:/<directory>".
	Location     string
	MountPoint   string
	MountOptions string
}

func (l EfsFileSystemLocation) render() cfn.Project_ProjectFileSystemLocation {
	return cfn.Project_ProjectFileSystemLocation{
		Type:         "EFS",
		Identifier:   l.Identifier,
		Location:     l.Location,
		MountPoint:   l.MountPoint,
		MountOptions: optional(l.MountOptions),
	}
}

func (l EfsFileSystemLocation) validate(path string) error {
	if l.Identifier == "" || l.Location == "" || l.MountPoint == "" {
		return validationErrorf(path, "EFS file system locations require an identifier, a location, and a mount point")
	}
	return nil
}
