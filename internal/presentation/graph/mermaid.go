package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/callflow/pkg/domain"
)

// GenerateMermaid produces a Mermaid flowchart of a compiled flow: one node per state and
// one node per endpoint, with an edge from each endpoint to the state it serves.
// State shapes follow their capabilities:
// - Routable: [Rectangle]
// - Normal: [/Parallelogram/] (consumes input)
// - Both: [[Subroutine]]
// Transition targets are decided at runtime and are not drawn.
func GenerateMermaid(states []domain.Classification, bindings []domain.RouteBinding) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	for _, s := range states {
		opener, closer := "[", "]"
		switch s.Kind {
		case domain.StateNormalOnly:
			opener, closer = "[/", "/]"
		case domain.StateBoth:
			opener, closer = "[[", "]]"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", stateID(s.Name), opener, s.Name, closer))
	}

	for _, b := range bindings {
		arrow := "-->"
		if b.Kind == domain.KindTransition {
			arrow = "-. transition .->"
		}
		sb.WriteString(fmt.Sprintf("    %s([\"%s %s\"]) %s %s\n", routeID(b.Path), b.Method, b.Path, arrow, stateID(b.StateName)))
	}

	return sb.String()
}

func stateID(name string) string {
	return "s_" + sanitizeMermaidID(name)
}

func routeID(path string) string {
	return "r" + sanitizeMermaidID(path)
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
