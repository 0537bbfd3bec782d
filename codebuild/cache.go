package codebuild

import (
	cfn "github.com/lex00/wetwire-codebuild-go/resources/codebuild"
)

// LocalCacheMode selects what a local cache keeps on the build host.
type LocalCacheMode string

const (
	LocalCacheModeSource      LocalCacheMode = cfn.CacheModeSource
	LocalCacheModeDockerLayer LocalCacheMode = cfn.CacheModeDockerLayer
	LocalCacheModeCustom      LocalCacheMode = cfn.CacheModeCustom
)

// Cache is the build cache of a project. The zero value means the project
// has no cache property at all.
type Cache struct {
	cacheType string
	modes     []LocalCacheMode
	bucket    IBucket
	prefix    string
}

// NoCache disables caching explicitly.
func NoCache() Cache {
	return Cache{cacheType: cfn.CacheTypeNoCache}
}

// LocalCache caches on the build host.
func LocalCache(modes ...LocalCacheMode) Cache {
	return Cache{cacheType: cfn.CacheTypeLocal, modes: modes}
}

// BucketCache caches in S3 under prefix. The project role gets read and
// write access to the prefix.
func BucketCache(bucket IBucket, prefix string) Cache {
	return Cache{cacheType: cfn.CacheTypeS3, bucket: bucket, prefix: prefix}
}

// Type returns the cache type, or "" for the zero value.
func (c Cache) Type() string {
	return c.cacheType
}

// IsZero reports whether the cache was left unset.
func (c Cache) IsZero() bool {
	return c.cacheType == ""
}

// Bind renders the cache for project.
func (c Cache) Bind(p *Project) (*cfn.Project_ProjectCache, error) {
	switch c.cacheType {
	case "":
		return nil, nil
	case cfn.CacheTypeLocal:
		out := &cfn.Project_ProjectCache{Type: cfn.CacheTypeLocal}
		for _, m := range c.modes {
			out.Modes = append(out.Modes, string(m))
		}
		return out, nil
	case cfn.CacheTypeS3:
		if c.bucket == nil {
			return nil, validationErrorf(p.path+"/Cache", "bucket cache requires a bucket")
		}
		pattern := "*"
		if c.prefix != "" {
			pattern = c.prefix + "/*"
		}
		grantBucketReadWrite(p.Role(), c.bucket, pattern)
		return &cfn.Project_ProjectCache{Type: cfn.CacheTypeS3, Location: joinPath(c.bucket.BucketName(), c.prefix)}, nil
	default:
		return &cfn.Project_ProjectCache{Type: c.cacheType}, nil
	}
}
