// Rules:
//
//	WCB001: Privileged mode grants the build root access to the Docker daemon
//	WCB002: Secret-looking environment variables stored as PLAINTEXT
//	WCB003: No explicit build timeout
//	WCB004: Build artifacts with encryption disabled
//	WCB005: No explicit log configuration
//	WCB006: S3 cache location without a prefix
//	WCB007: Webhook without filter groups builds on every event
//	WCB008: ARN with a hardcoded partition

package linter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	wetwire "github.com/lex00/wetwire-codebuild-go"
)

const projectType = "AWS::CodeBuild::Project"

// Rule is the interface for lint rules.
type Rule interface {
	ID() string
	Description() string
	Check(name string, def wetwire.ResourceDef) []Issue
}

// AllRules returns every rule in ID order.
func AllRules() []Rule {
	return []Rule{
		PrivilegedMode{},
		PlaintextSecret{},
		MissingTimeout{},
		UnencryptedArtifacts{},
		MissingLogsConfig{},
		CacheWithoutPrefix{},
		UnfilteredWebhook{},
		HardcodedPartition{},
	}
}

func issue(r Rule, name, path string, severity Severity, format string, args ...any) Issue {
	return Issue{
		Rule:     r.ID(),
		Resource: name,
		Path:     path,
		Severity: severity,
		Message:  fmt.Sprintf(format, args...),
	}
}

// PrivilegedMode flags projects running Docker in privileged mode.
type PrivilegedMode struct{}

func (r PrivilegedMode) ID() string { return "WCB001" }
func (r PrivilegedMode) Description() string {
	return "Privileged mode grants the build root access to the Docker daemon"
}

func (r PrivilegedMode) Check(name string, def wetwire.ResourceDef) []Issue {
	if def.Type != projectType {
		return nil
	}
	if isTrue(dig(def.Properties, "Environment", "PrivilegedMode")) {
		return []Issue{issue(r, name, "Environment.PrivilegedMode", SeverityWarning,
			"privileged mode is enabled; only enable it for projects that build Docker images")}
	}
	return nil
}

// PlaintextSecret flags PLAINTEXT variables whose name suggests a credential.
type PlaintextSecret struct{}

func (r PlaintextSecret) ID() string { return "WCB002" }
func (r PlaintextSecret) Description() string {
	return "Secret-looking environment variables stored as PLAINTEXT"
}

var secretName = regexp.MustCompile(`(?i)(password|passwd|secret|token|api_?key|private_?key|credential)`)

func (r PlaintextSecret) Check(name string, def wetwire.ResourceDef) []Issue {
	if def.Type != projectType {
		return nil
	}
	vars, _ := dig(def.Properties, "Environment", "EnvironmentVariables").([]any)

	var issues []Issue
	for i, v := range vars {
		variable, ok := v.(map[string]any)
		if !ok {
			continue
		}
		varName, _ := variable["Name"].(string)
		varType, _ := variable["Type"].(string)
		if varType != "" && varType != "PLAINTEXT" {
			continue
		}
		if secretName.MatchString(varName) {
			issues = append(issues, issue(r, name, fmt.Sprintf("Environment.EnvironmentVariables[%d]", i), SeverityError,
				"environment variable %s looks like a secret; use PARAMETER_STORE or SECRETS_MANAGER", varName))
		}
	}
	return issues
}

// MissingTimeout flags projects relying on the service default timeout.
type MissingTimeout struct{}

func (r MissingTimeout) ID() string { return "WCB003" }
func (r MissingTimeout) Description() string {
	return "No explicit build timeout"
}

func (r MissingTimeout) Check(name string, def wetwire.ResourceDef) []Issue {
	if def.Type != projectType {
		return nil
	}
	if _, ok := def.Properties["TimeoutInMinutes"]; ok {
		return nil
	}
	return []Issue{issue(r, name, "TimeoutInMinutes", SeverityInfo,
		"no TimeoutInMinutes set; builds run up to the 60 minute default")}
}

// UnencryptedArtifacts flags artifacts with EncryptionDisabled.
type UnencryptedArtifacts struct{}

func (r UnencryptedArtifacts) ID() string { return "WCB004" }
func (r UnencryptedArtifacts) Description() string {
	return "Build artifacts with encryption disabled"
}

func (r UnencryptedArtifacts) Check(name string, def wetwire.ResourceDef) []Issue {
	if def.Type != projectType {
		return nil
	}

	var issues []Issue
	if isTrue(dig(def.Properties, "Artifacts", "EncryptionDisabled")) {
		issues = append(issues, issue(r, name, "Artifacts.EncryptionDisabled", SeverityWarning,
			"artifact encryption is disabled"))
	}
	secondary, _ := def.Properties["SecondaryArtifacts"].([]any)
	for i, a := range secondary {
		if isTrue(dig(a, "EncryptionDisabled")) {
			issues = append(issues, issue(r, name, fmt.Sprintf("SecondaryArtifacts[%d].EncryptionDisabled", i), SeverityWarning,
				"artifact encryption is disabled"))
		}
	}
	return issues
}

// MissingLogsConfig flags projects without a LogsConfig.
type MissingLogsConfig struct{}

func (r MissingLogsConfig) ID() string { return "WCB005" }
func (r MissingLogsConfig) Description() string {
	return "No explicit log configuration"
}

func (r MissingLogsConfig) Check(name string, def wetwire.ResourceDef) []Issue {
	if def.Type != projectType {
		return nil
	}
	if _, ok := def.Properties["LogsConfig"]; ok {
		return nil
	}
	return []Issue{issue(r, name, "LogsConfig", SeverityInfo,
		"no LogsConfig; logs go to a CloudWatch log group named after the project")}
}

// CacheWithoutPrefix flags S3 caches written to the bucket root.
type CacheWithoutPrefix struct{}

func (r CacheWithoutPrefix) ID() string { return "WCB006" }
func (r CacheWithoutPrefix) Description() string {
	return "S3 cache location without a prefix"
}

func (r CacheWithoutPrefix) Check(name string, def wetwire.ResourceDef) []Issue {
	if def.Type != projectType {
		return nil
	}
	if dig(def.Properties, "Cache", "Type") != "S3" {
		return nil
	}
	// intrinsic locations are left alone
	location, ok := dig(def.Properties, "Cache", "Location").(string)
	if ok && !strings.Contains(strings.Trim(location, "/"), "/") {
		return []Issue{issue(r, name, "Cache.Location", SeverityInfo,
			"cache location %q has no prefix; projects sharing the bucket overwrite each other", location)}
	}
	return nil
}

// UnfilteredWebhook flags webhooks that trigger on every repository event.
type UnfilteredWebhook struct{}

func (r UnfilteredWebhook) ID() string { return "WCB007" }
func (r UnfilteredWebhook) Description() string {
	return "Webhook without filter groups builds on every event"
}

func (r UnfilteredWebhook) Check(name string, def wetwire.ResourceDef) []Issue {
	if def.Type != projectType {
		return nil
	}
	if !isTrue(dig(def.Properties, "Triggers", "Webhook")) {
		return nil
	}
	if groups, _ := dig(def.Properties, "Triggers", "FilterGroups").([]any); len(groups) > 0 {
		return nil
	}
	return []Issue{issue(r, name, "Triggers.FilterGroups", SeverityWarning,
		"webhook has no filter groups; every push and pull request starts a build")}
}

// HardcodedPartition flags ARNs written with a literal "aws" partition.
type HardcodedPartition struct{}

func (r HardcodedPartition) ID() string { return "WCB008" }
func (r HardcodedPartition) Description() string {
	return "ARN with a hardcoded partition"
}

func (r HardcodedPartition) Check(name string, def wetwire.ResourceDef) []Issue {
	var issues []Issue
	walkStrings(def.Properties, "", func(path, value string) {
		if strings.HasPrefix(value, "arn:aws:") {
			issues = append(issues, issue(r, name, path, SeverityInfo,
				"ARN %q hardcodes the aws partition; use Fn::Sub with ${AWS::Partition}", value))
		}
	})
	return issues
}

// dig walks nested property maps.
func dig(v any, keys ...string) any {
	for _, key := range keys {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = m[key]
	}
	return v
}

func isTrue(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return strings.EqualFold(val, "true")
	}
	return false
}

// walkStrings visits every plain string value with its property path.
// Intrinsic function arguments are not visited.
func walkStrings(v any, path string, visit func(path, value string)) {
	switch val := v.(type) {
	case string:
		visit(path, val)
	case map[string]any:
		keys := make([]string, 0, len(val))
		for key := range val {
			if !strings.HasPrefix(key, "Fn::") && key != "Ref" {
				keys = append(keys, key)
			}
		}
		sort.Strings(keys)
		for _, key := range keys {
			childPath := key
			if path != "" {
				childPath = path + "." + key
			}
			walkStrings(val[key], childPath, visit)
		}
	case []any:
		for i, child := range val {
			walkStrings(child, fmt.Sprintf("%s[%d]", path, i), visit)
		}
	}
}
