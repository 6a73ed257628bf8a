package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/beadnet/pkg/domain"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	// InFlight counts the beads still travelling, per channel id.
	InFlight map[string]int
	// HideBalances drops the source:target labels from the edges.
	HideBalances bool
	// HighlightColor is the stroke used for highlighted channels. Defaults to red.
	HighlightColor string
}

// GenerateMermaid produces a Mermaid flowchart of the network.
// Nodes are drawn as circles labelled with their free and offchain balances,
// channels as undirected edges labelled with their source:target balances.
// Highlighted channels and channels with beads in flight are styled.
func GenerateMermaid(s domain.Snapshot, overlay *GraphOverlay) string {
	if overlay == nil {
		overlay = &GraphOverlay{}
	}
	highlight := overlay.HighlightColor
	if highlight == "" {
		highlight = "#f00"
	}

	var sb strings.Builder
	sb.WriteString("graph LR\n")

	for _, node := range s.Nodes {
		fmt.Fprintf(&sb, "    %s((\"%s<br/>%d | %d\"))\n",
			sanitizeMermaidID(node.ID), escapeLabel(node.ID), node.Balance, node.OffchainBalance)
	}

	var styles []string
	for i, ch := range s.Channels {
		source, target := sanitizeMermaidID(ch.Source), sanitizeMermaidID(ch.Target)
		label := fmt.Sprintf("%d:%d", ch.SourceBalance, ch.TargetBalance)
		if n := overlay.InFlight[ch.ID]; n > 0 {
			label = fmt.Sprintf("%s (%d in flight)", label, n)
		}

		switch {
		case overlay.HideBalances && overlay.InFlight[ch.ID] == 0:
			fmt.Fprintf(&sb, "    %s --- %s\n", source, target)
		default:
			fmt.Fprintf(&sb, "    %s -- \"%s\" --- %s\n", source, label, target)
		}

		if ch.Highlighted {
			styles = append(styles, fmt.Sprintf("    linkStyle %d stroke:%s,stroke-width:4px;\n", i, highlight))
		} else if overlay.InFlight[ch.ID] > 0 {
			styles = append(styles, fmt.Sprintf("    linkStyle %d stroke-dasharray:5 5;\n", i))
		}
	}

	if len(styles) > 0 {
		sb.WriteString("\n    %% Channel Styles\n")
		for _, line := range styles {
			sb.WriteString(line)
		}
	}
	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
