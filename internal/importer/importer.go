package importer

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	"gopkg.in/yaml.v3"

	"github.com/lex00/wetwire-codebuild-go/internal/config"
)

const (
	projectType          = "AWS::CodeBuild::Project"
	reportGroupType      = "AWS::CodeBuild::ReportGroup"
	sourceCredentialType = "AWS::CodeBuild::SourceCredential"
	bucketType           = "AWS::S3::Bucket"
)

// generated lists the resource types the construct layer recreates on its
// own, so they are dropped without a warning.
var generated = map[string]bool{
	"AWS::IAM::Role":   true,
	"AWS::IAM::Policy": true,
}

// Result is an imported project file plus everything that could not be
// carried over.
type Result struct {
	File     *config.File
	Warnings []string
}

// Import converts the CodeBuild resources of a template into a project file.
// The file is named after name, or after the template file when name is empty.
func Import(tmpl *Template, name string) (*Result, error) {
	if name == "" {
		name = deriveName(tmpl.SourceFile)
	}
	c := &converter{buckets: make(map[string]string)}
	f := &config.File{Name: name, Description: tmpl.Description}

	for id, p := range tmpl.Parameters {
		if f.Parameters == nil {
			f.Parameters = make(map[string]config.Parameter)
		}
		f.Parameters[id] = config.Parameter{
			Type:          p.Type,
			Description:   p.Description,
			Default:       p.Default,
			AllowedValues: p.AllowedValues,
			NoEcho:        p.NoEcho,
		}
	}

	for _, id := range tmpl.ResourceIDs(bucketType) {
		key := strcase.ToKebab(id)
		c.buckets[id] = key
		if f.Buckets == nil {
			f.Buckets = make(map[string]config.BucketSpec)
		}
		f.Buckets[key] = c.bucketSpec(id, tmpl.Resources[id].Properties)
	}

	for _, id := range tmpl.ResourceIDs(projectType) {
		f.Projects = append(f.Projects, c.project(id, tmpl.Resources[id].Properties))
	}
	for _, id := range tmpl.ResourceIDs(reportGroupType) {
		f.ReportGroups = append(f.ReportGroups, c.reportGroup(id, tmpl.Resources[id].Properties))
	}
	for _, id := range tmpl.ResourceIDs(sourceCredentialType) {
		f.SourceCredentials = append(f.SourceCredentials, c.credentials(id, tmpl.Resources[id].Properties))
	}

	for _, id := range sortedResourceIDs(tmpl) {
		r := tmpl.Resources[id]
		switch r.Type {
		case projectType, reportGroupType, sourceCredentialType, bucketType:
		default:
			if !generated[r.Type] {
				c.warnf("%s: %s is not imported", id, r.Type)
			}
		}
	}

	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("imported project file is invalid: %w", err)
	}
	return &Result{File: f, Warnings: c.warnings}, nil
}

// ImportFile parses a template file and imports it.
func ImportFile(path, name string) (*Result, error) {
	tmpl, err := ParseTemplate(path)
	if err != nil {
		return nil, err
	}
	return Import(tmpl, name)
}

// ConvertProject converts the properties of one AWS::CodeBuild::Project into
// a project spec. It returns the spec and the properties that were skipped.
func ConvertProject(id string, props map[string]any) (config.ProjectSpec, []string) {
	c := &converter{buckets: map[string]string{}}
	return c.project(id, props), c.warnings
}

func (c *converter) project(id string, props map[string]any) config.ProjectSpec {
	spec := config.ProjectSpec{
		ID:               strcase.ToKebab(id),
		Name:             c.str(id+".Name", props["Name"]),
		Description:      c.str(id+".Description", props["Description"]),
		ConcurrentBuilds: intValue(props["ConcurrentBuildLimit"]),
		AutoRetryLimit:   intValue(props["AutoRetryLimit"]),
		Badge:            boolValue(props["BadgeEnabled"]),
		BatchBuilds:      props["BuildBatchConfig"] != nil,
		EncryptionKey:    c.str(id+".EncryptionKey", props["EncryptionKey"]),
		Visibility:       c.str(id+".Visibility", props["Visibility"]),
		Tags:             c.tags(id+".Tags", props["Tags"]),
	}
	if n := intValue(props["TimeoutInMinutes"]); n > 0 {
		spec.Timeout = time.Duration(n) * time.Minute
	}
	if n := intValue(props["QueuedTimeoutInMinutes"]); n > 0 {
		spec.QueuedTimeout = time.Duration(n) * time.Minute
	}

	role := c.str(id+".ServiceRole", props["ServiceRole"])
	if !strings.HasPrefix(role, "${") {
		spec.RoleArn = role
	}

	if src := mapValue(props["Source"]); src != nil {
		path := id + ".Source"
		if strings.EqualFold(c.str(path+".Type", src["Type"]), "CODEPIPELINE") {
			spec.Pipeline = true
		} else {
			s := c.source(path, src)
			spec.Source = &s
			if branch := c.str(id+".SourceVersion", props["SourceVersion"]); branch != "" {
				spec.Source.Branch = strings.TrimPrefix(branch, "refs/heads/")
			}
			c.triggers(id+".Triggers", mapValue(props["Triggers"]), spec.Source)
		}
		spec.BuildSpec = c.buildSpec(path+".BuildSpec", src["BuildSpec"])
	}
	for i, item := range listValue(props["SecondarySources"]) {
		spec.SecondarySources = append(spec.SecondarySources, c.source(fmt.Sprintf("%s.SecondarySources[%d]", id, i), mapValue(item)))
	}

	if env := mapValue(props["Environment"]); env != nil {
		spec.Environment = c.environment(id+".Environment", env)
	}

	if art := mapValue(props["Artifacts"]); art != nil {
		switch a := c.artifacts(id+".Artifacts", art); {
		case spec.Pipeline && a.Type == "codepipeline":
		case a.Type == "none":
		default:
			spec.Artifacts = &a
		}
	}
	for i, item := range listValue(props["SecondaryArtifacts"]) {
		spec.SecondaryArtifacts = append(spec.SecondaryArtifacts, c.artifacts(fmt.Sprintf("%s.SecondaryArtifacts[%d]", id, i), mapValue(item)))
	}

	if cache := mapValue(props["Cache"]); cache != nil {
		spec.Cache = c.cache(id+".Cache", cache)
	}
	if logs := mapValue(props["LogsConfig"]); logs != nil {
		spec.Logging = c.logging(id+".LogsConfig", logs)
	}
	if vpc := mapValue(props["VpcConfig"]); vpc != nil {
		spec.Vpc = &config.VpcSpec{
			VpcID:          c.str(id+".VpcConfig.VpcId", vpc["VpcId"]),
			Subnets:        c.strings(id+".VpcConfig.Subnets", vpc["Subnets"]),
			SecurityGroups: c.strings(id+".VpcConfig.SecurityGroupIds", vpc["SecurityGroupIds"]),
		}
	}
	for i, item := range listValue(props["FileSystemLocations"]) {
		fs := mapValue(item)
		path := fmt.Sprintf("%s.FileSystemLocations[%d]", id, i)
		spec.FileSystems = append(spec.FileSystems, config.FileSystemSpec{
			Identifier:   c.str(path+".Identifier", fs["Identifier"]),
			Location:     c.str(path+".Location", fs["Location"]),
			MountPoint:   c.str(path+".MountPoint", fs["MountPoint"]),
			MountOptions: c.str(path+".MountOptions", fs["MountOptions"]),
		})
	}
	return spec
}

var (
	githubURL    = regexp.MustCompile(`^https://github\.com/([^/]+)/([^/]+?)(\.git)?$`)
	bitbucketURL = regexp.MustCompile(`^https://bitbucket\.org/([^/]+)/([^/]+?)(\.git)?$`)
)

func (c *converter) source(path string, src map[string]any) config.SourceSpec {
	location := c.str(path+".Location", src["Location"])
	spec := config.SourceSpec{
		Type:            strings.ToLower(c.str(path+".Type", src["Type"])),
		Identifier:      c.str(path+".SourceIdentifier", src["SourceIdentifier"]),
		CloneDepth:      intValue(src["GitCloneDepth"]),
		IgnoreSSLErrors: boolValue(src["InsecureSsl"]),
	}
	if sub := mapValue(src["GitSubmodulesConfig"]); sub != nil {
		spec.FetchSubmodules = boolValue(sub["FetchSubmodules"])
	}

	switch spec.Type {
	case "github", "bitbucket":
		pattern := githubURL
		if spec.Type == "bitbucket" {
			pattern = bitbucketURL
		}
		if m := pattern.FindStringSubmatch(location); m != nil {
			spec.Owner, spec.Repo = m[1], m[2]
		} else {
			c.warnf("%s.Location: cannot read owner and repository from %q", path, location)
		}
	case "github_enterprise":
		spec.URL = location
	case "codecommit":
		_, repo, ok := strings.Cut(location, "/v1/repos/")
		if !ok {
			c.warnf("%s.Location: %q is not a CodeCommit clone URL", path, location)
		}
		spec.Repository = repo
	case "s3":
		spec.Bucket, spec.Path = c.bucket(path+".Location", src["Location"])
	case "no_source":
		spec.Type = "none"
	}

	if spec.Type != "s3" && spec.Type != "none" {
		spec.ReportBuildStatus = optionalBool(src["ReportBuildStatus"])
		if status := mapValue(src["BuildStatusConfig"]); status != nil {
			spec.BuildStatusContext = c.str(path+".BuildStatusConfig.Context", status["Context"])
			spec.BuildStatusURL = c.str(path+".BuildStatusConfig.TargetUrl", status["TargetUrl"])
		}
	}
	return spec
}

// buildSpec returns an inline build spec as a mapping and a file name as a
// string.
func (c *converter) buildSpec(path string, v any) any {
	s := c.str(path, v)
	if s == "" {
		return nil
	}
	if !strings.Contains(s, "\n") && !strings.HasPrefix(strings.TrimSpace(s), "{") {
		return s
	}
	var inline map[string]any
	if err := yaml.Unmarshal([]byte(s), &inline); err != nil {
		c.warnf("%s: inline build spec is not valid YAML: %v", path, err)
		return nil
	}
	return inline
}

func (c *converter) triggers(path string, triggers map[string]any, spec *config.SourceSpec) {
	if triggers == nil {
		return
	}
	webhook := boolValue(triggers["Webhook"])
	spec.Webhook = &webhook
	spec.WebhookTriggersBatchBuild = strings.EqualFold(c.str(path+".BuildType", triggers["BuildType"]), "BUILD_BATCH")

	for i, group := range listValue(triggers["FilterGroups"]) {
		spec.WebhookFilters = append(spec.WebhookFilters, c.filterGroup(fmt.Sprintf("%s.FilterGroups[%d]", path, i), listValue(group)))
	}
}

func (c *converter) filterGroup(path string, filters []any) config.FilterSpec {
	var spec config.FilterSpec
	for i, item := range filters {
		f := mapValue(item)
		fpath := fmt.Sprintf("%s[%d]", path, i)
		pattern := c.str(fpath+".Pattern", f["Pattern"])
		exclude := boolValue(f["ExcludeMatchedPattern"])

		set := func(include, excluded *string) {
			target := include
			if exclude {
				target = excluded
			}
			if *target != "" {
				c.warnf("%s: only one %v condition per group is imported", fpath, f["Type"])
				return
			}
			*target = pattern
		}

		switch c.str(fpath+".Type", f["Type"]) {
		case "EVENT":
			for _, e := range strings.Split(pattern, ",") {
				if e = strings.TrimSpace(e); e != "" {
					spec.Events = append(spec.Events, e)
				}
			}
		case "HEAD_REF":
			if branch, ok := literalRef(pattern, "refs/heads/"); ok {
				pattern = branch
				set(&spec.Branch, &spec.BranchNot)
			} else if tag, ok := literalRef(pattern, "refs/tags/"); ok {
				pattern = tag
				set(&spec.Tag, &spec.TagNot)
			} else {
				set(&spec.HeadRef, &spec.HeadRefNot)
			}
		case "BASE_REF":
			if branch, ok := literalRef(pattern, "refs/heads/"); ok && !exclude {
				pattern = branch
				set(&spec.BaseBranch, &spec.BaseRefNot)
			} else {
				set(&spec.BaseRef, &spec.BaseRefNot)
			}
		case "FILE_PATH":
			set(&spec.FilePath, &spec.FilePathNot)
		case "ACTOR_ACCOUNT_ID":
			set(&spec.Actor, &spec.ActorNot)
		case "COMMIT_MESSAGE":
			set(&spec.CommitMessage, &spec.CommitMessageNot)
		case "REPOSITORY_NAME":
			set(&spec.RepositoryName, &spec.RepositoryNameNot)
		default:
			c.warnf("%s: filter type %v is not imported", fpath, f["Type"])
		}
	}
	return spec
}

// literalRef strips prefix from a ref pattern that matches a single name.
func literalRef(pattern, prefix string) (string, bool) {
	p := strings.TrimSuffix(strings.TrimPrefix(pattern, "^"), "$")
	if !strings.HasPrefix(p, prefix) {
		return "", false
	}
	name := strings.TrimPrefix(p, prefix)
	if name == "" || strings.ContainsAny(name, `*+?()[]{}|\^$`) {
		return "", false
	}
	return name, true
}

func (c *converter) environment(path string, env map[string]any) config.EnvironmentSpec {
	spec := config.EnvironmentSpec{
		Image:      c.str(path+".Image", env["Image"]),
		Compute:    c.str(path+".ComputeType", env["ComputeType"]),
		Privileged: boolValue(env["PrivilegedMode"]),
	}
	if creds := mapValue(env["RegistryCredential"]); creds != nil {
		spec.ImageCredentials = c.str(path+".RegistryCredential.Credential", creds["Credential"])
	}
	if fleet := mapValue(env["Fleet"]); fleet != nil {
		spec.Fleet = c.str(path+".Fleet.FleetArn", fleet["FleetArn"])
	}
	if cert := c.str(path+".Certificate", env["Certificate"]); cert != "" {
		spec.Certificate = c.certificate(cert)
	}

	for i, item := range listValue(env["EnvironmentVariables"]) {
		v := mapValue(item)
		name, _ := v["Name"].(string)
		if name == "" {
			continue
		}
		if spec.Variables == nil {
			spec.Variables = make(map[string]config.VariableSpec)
		}
		varType := strings.ToLower(c.str(fmt.Sprintf("%s.EnvironmentVariables[%d].Type", path, i), v["Type"]))
		if varType == "plaintext" {
			varType = ""
		}
		spec.Variables[name] = config.VariableSpec{
			Value: c.str(fmt.Sprintf("%s.EnvironmentVariables[%d].Value", path, i), v["Value"]),
			Type:  varType,
		}
	}
	return spec
}

// certificate turns an object ARN into the <bucket>/<key> form.
func (c *converter) certificate(arn string) string {
	if _, rest, ok := strings.Cut(arn, ":::"); ok {
		arn = rest
	}
	name, key, _ := strings.Cut(arn, "/")
	id := strings.TrimSuffix(strings.TrimPrefix(name, "${"), ".Arn}")
	if bucket, ok := c.buckets[id]; ok && id != name {
		name = bucket
	}
	return name + "/" + key
}

func (c *converter) artifacts(path string, art map[string]any) config.ArtifactsSpec {
	spec := config.ArtifactsSpec{
		Type:       strings.ToLower(c.str(path+".Type", art["Type"])),
		Identifier: c.str(path+".ArtifactIdentifier", art["ArtifactIdentifier"]),
	}
	switch spec.Type {
	case "s3":
		spec.Bucket, _ = c.bucket(path+".Location", art["Location"])
		spec.Path = c.str(path+".Path", art["Path"])
		spec.Name = c.str(path+".Name", art["Name"])
		if ns, ok := art["NamespaceType"].(string); ok {
			include := ns == "BUILD_ID"
			spec.IncludeBuildID = &include
		}
		if pkg, ok := art["Packaging"].(string); ok {
			zip := pkg == "ZIP"
			spec.Zip = &zip
		}
		if disabled := art["EncryptionDisabled"]; disabled != nil {
			encrypted := !boolValue(disabled)
			spec.Encryption = &encrypted
		}
	case "no_artifacts":
		spec.Type = "none"
	}
	return spec
}

func (c *converter) cache(path string, cache map[string]any) *config.CacheSpec {
	switch strings.ToUpper(c.str(path+".Type", cache["Type"])) {
	case "LOCAL":
		spec := &config.CacheSpec{Type: "local"}
		for _, m := range c.strings(path+".Modes", cache["Modes"]) {
			spec.Modes = append(spec.Modes, strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(m, "LOCAL_"), "_CACHE")))
		}
		return spec
	case "S3":
		spec := &config.CacheSpec{Type: "s3"}
		spec.Bucket, spec.Prefix = c.bucket(path+".Location", cache["Location"])
		return spec
	default:
		return nil
	}
}

func (c *converter) logging(path string, logs map[string]any) *config.LoggingSpec {
	spec := &config.LoggingSpec{}
	if cw := mapValue(logs["CloudWatchLogs"]); cw != nil {
		spec.CloudWatch = &config.CloudWatchLogSpec{
			Disabled: strings.EqualFold(c.str(path+".CloudWatchLogs.Status", cw["Status"]), "DISABLED"),
			LogGroup: c.str(path+".CloudWatchLogs.GroupName", cw["GroupName"]),
			Prefix:   c.str(path+".CloudWatchLogs.StreamName", cw["StreamName"]),
		}
	}
	if s3 := mapValue(logs["S3Logs"]); s3 != nil && !strings.EqualFold(c.str(path+".S3Logs.Status", s3["Status"]), "DISABLED") {
		bucket, prefix := c.bucket(path+".S3Logs.Location", s3["Location"])
		spec.S3 = &config.S3LogSpec{
			Bucket:      bucket,
			Prefix:      prefix,
			Unencrypted: boolValue(s3["EncryptionDisabled"]),
		}
	}
	if spec.CloudWatch == nil && spec.S3 == nil {
		return nil
	}
	return spec
}

func (c *converter) bucketSpec(id string, props map[string]any) config.BucketSpec {
	spec := config.BucketSpec{
		Name: c.str(id+".BucketName", props["BucketName"]),
		Tags: c.tags(id+".Tags", props["Tags"]),
	}
	if v := mapValue(props["VersioningConfiguration"]); v != nil {
		spec.Versioned = v["Status"] == "Enabled"
	}
	if lc := mapValue(props["LifecycleConfiguration"]); lc != nil {
		for _, rule := range listValue(lc["Rules"]) {
			if days := intValue(mapValue(rule)["ExpirationInDays"]); days > 0 {
				spec.ExpirationDays = days
				break
			}
		}
	}
	return spec
}

func (c *converter) reportGroup(id string, props map[string]any) config.ReportGroupSpec {
	spec := config.ReportGroupSpec{
		ID:            strcase.ToKebab(id),
		Name:          c.str(id+".Name", props["Name"]),
		Type:          strings.ToLower(c.str(id+".Type", props["Type"])),
		DeleteReports: boolValue(props["DeleteReports"]),
		Tags:          c.tags(id+".Tags", props["Tags"]),
	}
	if export := mapValue(props["ExportConfig"]); export != nil {
		if dest := mapValue(export["S3Destination"]); dest != nil {
			spec.ExportBucket, _ = c.bucket(id+".ExportConfig.S3Destination.Bucket", dest["Bucket"])
			spec.ExportPath = c.str(id+".ExportConfig.S3Destination.Path", dest["Path"])
			spec.Zip = dest["Packaging"] == "ZIP"
		}
	}
	return spec
}

func (c *converter) credentials(id string, props map[string]any) config.CredentialSpec {
	return config.CredentialSpec{
		ID:       strcase.ToKebab(id),
		Type:     strings.ToLower(c.str(id+".ServerType", props["ServerType"])),
		Token:    c.str(id+".Token", props["Token"]),
		Username: c.str(id+".Username", props["Username"]),
	}
}

func sortedResourceIDs(tmpl *Template) []string {
	ids := make([]string, 0, len(tmpl.Resources))
	for id := range tmpl.Resources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func deriveName(path string) string {
	if path == "" {
		return "imported"
	}
	base := filepath.Base(path)
	return strcase.ToKebab(strings.TrimSuffix(base, filepath.Ext(base)))
}
