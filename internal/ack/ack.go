// Package ack exports synthesized CodeBuild projects as AWS Controllers for
// Kubernetes (ACK) Project manifests.
//
// CloudFormation intrinsics have no meaning inside a Kubernetes manifest, so
// every Ref, GetAtt, Sub, and Join is resolved up front from Options. Values
// that cannot be resolved are reported as warnings and left out.
package ack

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/iancoleman/strcase"
	"gopkg.in/yaml.v3"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/validation"

	wetwire "github.com/lex00/wetwire-codebuild-go"
	"github.com/lex00/wetwire-codebuild-go/resources/k8s/codebuild/v1alpha1"
)

const projectType = "AWS::CodeBuild::Project"

// Options controls the export.
type Options struct {
	Namespace string
	Labels    map[string]string
	Region    string
	AccountID string
	// Partition defaults to "aws".
	Partition string
	// Values resolves Refs ("Name") and GetAtts ("Name.Attribute").
	// Parameters without a value fall back to their default.
	Values map[string]string
}

// Result is the exported manifests and the values that could not be carried
// over.
type Result struct {
	Projects []v1alpha1.Project
	Warnings []string
}

// Export converts every AWS::CodeBuild::Project of the template.
func Export(tmpl *wetwire.Template, opts Options) (*Result, error) {
	r := &resolver{opts: opts, params: make(map[string]string)}
	if r.opts.Partition == "" {
		r.opts.Partition = "aws"
	}
	for name, p := range tmpl.Parameters {
		if p.Default != nil {
			r.params[name] = fmt.Sprint(p.Default)
		}
	}

	var ids []string
	for id, res := range tmpl.Resources {
		if res.Type == projectType {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	result := &Result{}
	for _, id := range ids {
		project, err := r.project(id, tmpl.Resources[id].Properties)
		if err != nil {
			return nil, err
		}
		result.Projects = append(result.Projects, project)
	}
	result.Warnings = r.warnings
	return result, nil
}

func (r *resolver) project(id string, props map[string]any) (v1alpha1.Project, error) {
	name := r.str(id+".Name", props["Name"])
	if name == "" {
		name = strcase.ToKebab(id)
	}
	objectName := strings.ToLower(name)
	if errs := validation.IsDNS1123Subdomain(objectName); len(errs) > 0 {
		return v1alpha1.Project{}, fmt.Errorf("%s: %q is not a valid object name: %s", id, objectName, strings.Join(errs, "; "))
	}

	spec := v1alpha1.ProjectSpec{
		Name:                   name,
		Description:            r.optional(id+".Description", props["Description"]),
		ServiceRole:            r.optional(id+".ServiceRole", props["ServiceRole"]),
		SourceVersion:          r.optional(id+".SourceVersion", props["SourceVersion"]),
		EncryptionKey:          r.optional(id+".EncryptionKey", props["EncryptionKey"]),
		TimeoutInMinutes:       optionalInt(props["TimeoutInMinutes"]),
		QueuedTimeoutInMinutes: optionalInt(props["QueuedTimeoutInMinutes"]),
		ConcurrentBuildLimit:   optionalInt(props["ConcurrentBuildLimit"]),
		BadgeEnabled:           optionalBool(props["BadgeEnabled"]),
	}

	if src, ok := props["Source"].(map[string]any); ok {
		spec.Source = r.source(id+".Source", src)
	}
	for i, s := range list(props["SecondarySources"]) {
		if m, ok := s.(map[string]any); ok {
			spec.SecondarySources = append(spec.SecondarySources, r.source(fmt.Sprintf("%s.SecondarySources[%d]", id, i), m))
		}
	}
	if a, ok := props["Artifacts"].(map[string]any); ok {
		spec.Artifacts = r.artifacts(id+".Artifacts", a)
	}
	for i, a := range list(props["SecondaryArtifacts"]) {
		if m, ok := a.(map[string]any); ok {
			spec.SecondaryArtifacts = append(spec.SecondaryArtifacts, r.artifacts(fmt.Sprintf("%s.SecondaryArtifacts[%d]", id, i), m))
		}
	}
	if env, ok := props["Environment"].(map[string]any); ok {
		spec.Environment = r.environment(id+".Environment", env)
	}
	if cache, ok := props["Cache"].(map[string]any); ok {
		spec.Cache = &v1alpha1.ProjectCache{
			Type:     r.optional(id+".Cache.Type", cache["Type"]),
			Location: r.optional(id+".Cache.Location", cache["Location"]),
			Modes:    r.list(id+".Cache.Modes", cache["Modes"]),
		}
	}
	if logs, ok := props["LogsConfig"].(map[string]any); ok {
		spec.LogsConfig = r.logs(id+".LogsConfig", logs)
	}
	if vpc, ok := props["VpcConfig"].(map[string]any); ok {
		spec.VPCConfig = &v1alpha1.VPCConfig{
			VPCID:            r.optional(id+".VpcConfig.VpcId", vpc["VpcId"]),
			Subnets:          r.list(id+".VpcConfig.Subnets", vpc["Subnets"]),
			SecurityGroupIDs: r.list(id+".VpcConfig.SecurityGroupIds", vpc["SecurityGroupIds"]),
		}
	}
	for i, t := range list(props["Tags"]) {
		tag, ok := t.(map[string]any)
		if !ok {
			continue
		}
		spec.Tags = append(spec.Tags, &v1alpha1.Tag{
			Key:   r.optional(fmt.Sprintf("%s.Tags[%d].Key", id, i), tag["Key"]),
			Value: r.optional(fmt.Sprintf("%s.Tags[%d].Value", id, i), tag["Value"]),
		})
	}
	if props["Triggers"] != nil {
		r.warnf("%s.Triggers: webhooks are not part of the ACK Project resource, skipped", id)
	}

	return v1alpha1.Project{
		TypeMeta: v1alpha1.ProjectTypeMeta(),
		ObjectMeta: metav1.ObjectMeta{
			Name:      objectName,
			Namespace: r.opts.Namespace,
			Labels:    r.opts.Labels,
		},
		Spec: spec,
	}, nil
}

func (r *resolver) source(path string, src map[string]any) *v1alpha1.ProjectSource {
	return &v1alpha1.ProjectSource{
		Type:              r.optional(path+".Type", src["Type"]),
		Location:          r.optional(path+".Location", src["Location"]),
		BuildSpec:         r.optional(path+".BuildSpec", src["BuildSpec"]),
		GitCloneDepth:     optionalInt(src["GitCloneDepth"]),
		InsecureSSL:       optionalBool(src["InsecureSsl"]),
		ReportBuildStatus: optionalBool(src["ReportBuildStatus"]),
		SourceIdentifier:  r.optional(path+".SourceIdentifier", src["SourceIdentifier"]),
	}
}

func (r *resolver) artifacts(path string, a map[string]any) *v1alpha1.ProjectArtifacts {
	return &v1alpha1.ProjectArtifacts{
		Type:                 r.optional(path+".Type", a["Type"]),
		Location:             r.optional(path+".Location", a["Location"]),
		Path:                 r.optional(path+".Path", a["Path"]),
		Name:                 r.optional(path+".Name", a["Name"]),
		NamespaceType:        r.optional(path+".NamespaceType", a["NamespaceType"]),
		Packaging:            r.optional(path+".Packaging", a["Packaging"]),
		ArtifactIdentifier:   r.optional(path+".ArtifactIdentifier", a["ArtifactIdentifier"]),
		EncryptionDisabled:   optionalBool(a["EncryptionDisabled"]),
		OverrideArtifactName: optionalBool(a["OverrideArtifactName"]),
	}
}

func (r *resolver) environment(path string, env map[string]any) *v1alpha1.ProjectEnvironment {
	out := &v1alpha1.ProjectEnvironment{
		Type:                     r.optional(path+".Type", env["Type"]),
		Image:                    r.optional(path+".Image", env["Image"]),
		ComputeType:              r.optional(path+".ComputeType", env["ComputeType"]),
		ImagePullCredentialsType: r.optional(path+".ImagePullCredentialsType", env["ImagePullCredentialsType"]),
		PrivilegedMode:           optionalBool(env["PrivilegedMode"]),
		Certificate:              r.optional(path+".Certificate", env["Certificate"]),
	}
	for i, item := range list(env["EnvironmentVariables"]) {
		v, ok := item.(map[string]any)
		if !ok {
			continue
		}
		vpath := fmt.Sprintf("%s.EnvironmentVariables[%d]", path, i)
		out.EnvironmentVariables = append(out.EnvironmentVariables, &v1alpha1.EnvironmentVariable{
			Name:  r.optional(vpath+".Name", v["Name"]),
			Type:  r.optional(vpath+".Type", v["Type"]),
			Value: r.optional(vpath+".Value", v["Value"]),
		})
	}
	return out
}

func (r *resolver) logs(path string, logs map[string]any) *v1alpha1.LogsConfig {
	out := &v1alpha1.LogsConfig{}
	if cw, ok := logs["CloudWatchLogs"].(map[string]any); ok {
		out.CloudWatchLogs = &v1alpha1.CloudWatchLogsConfig{
			Status:     r.optional(path+".CloudWatchLogs.Status", cw["Status"]),
			GroupName:  r.optional(path+".CloudWatchLogs.GroupName", cw["GroupName"]),
			StreamName: r.optional(path+".CloudWatchLogs.StreamName", cw["StreamName"]),
		}
	}
	if s3, ok := logs["S3Logs"].(map[string]any); ok {
		out.S3Logs = &v1alpha1.S3LogsConfig{
			Status:             r.optional(path+".S3Logs.Status", s3["Status"]),
			Location:           r.optional(path+".S3Logs.Location", s3["Location"]),
			EncryptionDisabled: optionalBool(s3["EncryptionDisabled"]),
		}
	}
	return out
}

// Marshal renders the manifests as a multi-document YAML stream.
func Marshal(projects []v1alpha1.Project) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	for _, p := range projects {
		node, err := toNode(p)
		if err != nil {
			return nil, err
		}
		if err := enc.Encode(node); err != nil {
			return nil, err
		}
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// toNode goes through encoding/json so the Kubernetes json tags decide the
// field names and order.
func toNode(v any) (*yaml.Node, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	clean(&doc)
	return &doc, nil
}

// clean switches the JSON flow style to block style and drops null and
// empty mapping entries.
func clean(n *yaml.Node) {
	n.Style = 0
	if n.Kind == yaml.MappingNode {
		var kept []*yaml.Node
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, value := n.Content[i], n.Content[i+1]
			clean(value)
			if value.Tag == "!!null" || (value.Kind == yaml.MappingNode && len(value.Content) == 0) {
				continue
			}
			key.Style = 0
			kept = append(kept, key, value)
		}
		n.Content = kept
		return
	}
	for _, c := range n.Content {
		clean(c)
	}
}

type resolver struct {
	opts     Options
	params   map[string]string
	warnings []string
}

func (r *resolver) warnf(format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

func (r *resolver) optional(path string, v any) *string {
	if v == nil {
		return nil
	}
	s := r.str(path, v)
	if s == "" {
		return nil
	}
	return &s
}

func (r *resolver) list(path string, v any) []*string {
	var out []*string
	for i, item := range list(v) {
		if s := r.optional(fmt.Sprintf("%s[%d]", path, i), item); s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (r *resolver) str(path string, v any) string {
	s, err := r.resolve(v)
	if err != nil {
		r.warnf("%s: %v", path, err)
		return ""
	}
	return s
}

var placeholder = regexp.MustCompile(`\$\{([^!}][^}]*)\}`)

func (r *resolver) resolve(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case bool, int, int64, float64:
		return fmt.Sprint(val), nil
	case map[string]any:
		if len(val) != 1 {
			return "", fmt.Errorf("unsupported value %v", v)
		}
		for key, args := range val {
			switch key {
			case "Ref":
				name, _ := args.(string)
				return r.lookup(name)
			case "Fn::GetAtt":
				if a, ok := args.([]any); ok && len(a) == 2 {
					return r.lookup(fmt.Sprintf("%v.%v", a[0], a[1]))
				}
			case "Fn::Sub":
				if s, ok := args.(string); ok {
					return r.sub(s)
				}
			case "Fn::Join":
				return r.join(args)
			}
			return "", fmt.Errorf("cannot resolve %s", key)
		}
	}
	return "", fmt.Errorf("unsupported value %v", v)
}

func (r *resolver) sub(s string) (string, error) {
	var firstErr error
	out := placeholder.ReplaceAllStringFunc(s, func(m string) string {
		value, err := r.lookup(m[2 : len(m)-1])
		if err != nil && firstErr == nil {
			firstErr = err
		}
		return value
	})
	return strings.ReplaceAll(out, "${!", "${"), firstErr
}

func (r *resolver) join(args any) (string, error) {
	a, ok := args.([]any)
	if !ok || len(a) != 2 {
		return "", fmt.Errorf("malformed Fn::Join")
	}
	delim, _ := a[0].(string)
	parts := make([]string, 0, len(list(a[1])))
	for _, item := range list(a[1]) {
		s, err := r.resolve(item)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, delim), nil
}

func (r *resolver) lookup(name string) (string, error) {
	if v, ok := r.opts.Values[name]; ok {
		return v, nil
	}
	switch name {
	case "AWS::Region":
		if r.opts.Region != "" {
			return r.opts.Region, nil
		}
	case "AWS::AccountId":
		if r.opts.AccountID != "" {
			return r.opts.AccountID, nil
		}
	case "AWS::Partition":
		return r.opts.Partition, nil
	case "AWS::URLSuffix":
		if r.opts.Partition == "aws-cn" {
			return "amazonaws.com.cn", nil
		}
		return "amazonaws.com", nil
	}
	if v, ok := r.params[name]; ok {
		return v, nil
	}
	return "", fmt.Errorf("no value for %s", name)
}

func list(v any) []any {
	l, _ := v.([]any)
	return l
}

func optionalInt(v any) *int64 {
	var n int64
	switch val := v.(type) {
	case int:
		n = int64(val)
	case int64:
		n = val
	case float64:
		n = int64(val)
	default:
		return nil
	}
	return &n
}

func optionalBool(v any) *bool {
	b, ok := v.(bool)
	if !ok {
		return nil
	}
	return &b
}
