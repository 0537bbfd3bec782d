// Package graph renders the dependency graph of a synthesized template in DOT
// or Mermaid format.
package graph

import (
	"io"
	"sort"
	"strings"

	"github.com/emicklei/dot"

	wetwire "github.com/lex00/wetwire-codebuild-go"
	"github.com/lex00/wetwire-codebuild-go/internal/template"
)

// Format specifies the output format for the graph.
type Format string

const (
	// FormatDOT outputs Graphviz DOT format.
	FormatDOT Format = "dot"
	// FormatMermaid outputs Mermaid format for GitHub/markdown rendering.
	FormatMermaid Format = "mermaid"
)

// Generator creates dependency graphs from templates.
type Generator struct {
	// IncludeParameters adds template parameters and their Ref edges.
	IncludeParameters bool

	// Format specifies the output format (dot or mermaid). Defaults to dot.
	Format Format

	// ClusterByType groups resources by AWS service.
	ClusterByType bool
}

// Generate creates a dependency graph and writes it to w.
func (g *Generator) Generate(tmpl *wetwire.Template, w io.Writer) error {
	graph := g.buildGraph(tmpl)

	var output string
	if g.Format == FormatMermaid {
		output = dot.MermaidGraph(graph, dot.MermaidTopToBottom)
	} else {
		output = graph.String()
	}

	_, err := io.WriteString(w, output)
	return err
}

// GenerateString is a convenience method that returns the graph as a string.
func (g *Generator) GenerateString(tmpl *wetwire.Template) (string, error) {
	var sb strings.Builder
	if err := g.Generate(tmpl, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (g *Generator) buildGraph(tmpl *wetwire.Template) *dot.Graph {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "TB")

	graph.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})
	graph.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
	})

	names := sortedNames(tmpl.Resources)
	if g.ClusterByType {
		g.addClusteredNodes(graph, tmpl, names)
	} else {
		for _, name := range names {
			graph.Node(name).Label(nodeLabel(name, tmpl.Resources[name].Type))
		}
	}

	deps := template.Dependencies(tmpl)
	for _, name := range names {
		getAtts := getAttTargets(tmpl.Resources[name].Properties)
		for _, dep := range deps[name] {
			e := graph.Edge(graph.Node(name), graph.Node(dep))
			if getAtts[dep] {
				e.Attr("color", "blue")
			}
		}
	}

	if g.IncludeParameters {
		g.addParameters(graph, tmpl, names)
	}

	return graph
}

func (g *Generator) addParameters(graph *dot.Graph, tmpl *wetwire.Template, names []string) {
	params := make([]string, 0, len(tmpl.Parameters))
	for name := range tmpl.Parameters {
		params = append(params, name)
	}
	sort.Strings(params)

	for _, param := range params {
		n := graph.Node(param)
		n.Attr("shape", "ellipse")
		n.Attr("style", "dashed")
		n.Label(param)
	}

	for _, name := range names {
		for _, ref := range refTargets(tmpl.Resources[name].Properties) {
			if _, ok := tmpl.Parameters[ref]; ok {
				graph.Edge(graph.Node(name), graph.Node(ref)).Attr("style", "dashed")
			}
		}
	}
}

// addClusteredNodes groups resources of the same service into a subgraph.
func (g *Generator) addClusteredNodes(graph *dot.Graph, tmpl *wetwire.Template, names []string) {
	byService := make(map[string][]string)
	var services []string
	for _, name := range names {
		service := serviceOf(tmpl.Resources[name].Type)
		if _, ok := byService[service]; !ok {
			services = append(services, service)
		}
		byService[service] = append(byService[service], name)
	}
	sort.Strings(services)

	for _, service := range services {
		members := byService[service]
		if len(members) == 1 {
			graph.Node(members[0]).Label(nodeLabel(members[0], tmpl.Resources[members[0]].Type))
			continue
		}
		cluster := graph.Subgraph("cluster_"+service, dot.ClusterOption{})
		cluster.Attr("label", service)
		cluster.Attr("style", "rounded")
		cluster.Attr("bgcolor", "lightyellow")
		for _, name := range members {
			cluster.Node(name).Label(nodeLabel(name, tmpl.Resources[name].Type))
		}
	}
}

func nodeLabel(name, resourceType string) string {
	return name + "\\n[" + resourceType + "]"
}

// serviceOf returns the service part of a CloudFormation type.
// e.g., "AWS::CodeBuild::Project" -> "CodeBuild"
func serviceOf(resourceType string) string {
	parts := strings.Split(resourceType, "::")
	if len(parts) == 3 {
		return parts[1]
	}
	return "Other"
}

func sortedNames(resources map[string]wetwire.ResourceDef) []string {
	names := make([]string, 0, len(resources))
	for name := range resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// getAttTargets collects the logical names referenced through Fn::GetAtt.
func getAttTargets(v any) map[string]bool {
	found := make(map[string]bool)
	walk(v, func(key string, value any) {
		if key != "Fn::GetAtt" {
			return
		}
		switch args := value.(type) {
		case []any:
			if len(args) > 0 {
				if name, ok := args[0].(string); ok {
					found[name] = true
				}
			}
		case string:
			found[strings.SplitN(args, ".", 2)[0]] = true
		}
	})
	return found
}

// refTargets collects the names referenced through Ref.
func refTargets(v any) []string {
	var found []string
	walk(v, func(key string, value any) {
		if name, ok := value.(string); ok && key == "Ref" {
			found = append(found, name)
		}
	})
	return found
}

func walk(v any, visit func(key string, value any)) {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			visit(k, child)
			walk(child, visit)
		}
	case []any:
		for _, child := range val {
			walk(child, visit)
		}
	}
}
