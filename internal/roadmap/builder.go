// Package roadmap turns a course's week to topics map into a positioned
// node/edge graph plus a per-topic detail lookup.
package roadmap

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rcliao/ai-tutor/internal/model"
)

// Layout constants.
const (
	GroupX       = 150.0
	GroupSpacing = 500.0
	GroupOffsetY = 20.0
	TopicRadius  = 180.0
)

// NodeKind distinguishes week nodes from topic nodes.
type NodeKind string

const (
	KindGroup NodeKind = "group"
	KindTopic NodeKind = "topic"
)

// Position is a 2-D layout coordinate.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Node is a week (group) or topic node.
type Node struct {
	ID       string   `json:"id" yaml:"id"`
	Kind     NodeKind `json:"kind" yaml:"kind"`
	Label    string   `json:"label" yaml:"label"`
	Position Position `json:"position" yaml:"position"`
}

// Edge connects two nodes. Animated edges join a week to its topics.
type Edge struct {
	ID       string `json:"id" yaml:"id"`
	Source   string `json:"source" yaml:"source"`
	Target   string `json:"target" yaml:"target"`
	Animated bool   `json:"animated" yaml:"animated"`
}

// TopicLinks is the detail record kept for each topic node.
type TopicLinks struct {
	Name     string                   `json:"name" yaml:"name"`
	Parent   string                   `json:"parent" yaml:"parent"`
	External []string                 `json:"external" yaml:"external"`
	Internal []model.InternalResource `json:"internal" yaml:"internal"`
}

// Graph is the built roadmap.
type Graph struct {
	Nodes      []Node                `json:"nodes" yaml:"nodes"`
	Edges      []Edge                `json:"edges" yaml:"edges"`
	TopicLinks map[string]TopicLinks `json:"topic_links" yaml:"topic_links"`
}

type week struct {
	id     string
	title  string
	num    int
	topics []model.Topic
}

var digitsRe = regexp.MustCompile(`\d+`)

// weekNumber returns the first run of digits in label, or 0.
func weekNumber(label string) int {
	m := digitsRe.FindString(label)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return math.MaxInt
	}
	return n
}

func groupID(label string) string {
	return strings.Join(strings.Fields(label), "")
}

// sortedWeeks orders weeks by their embedded number, then by label so that
// equal numbers still give a total order.
func sortedWeeks(data model.Roadmap) []week {
	weeks := make([]week, 0, len(data))
	for label, topics := range data {
		weeks = append(weeks, week{
			id:     groupID(label),
			title:  label,
			num:    weekNumber(label),
			topics: topics,
		})
	}
	sort.Slice(weeks, func(i, j int) bool {
		if weeks[i].num != weeks[j].num {
			return weeks[i].num < weeks[j].num
		}
		return weeks[i].title < weeks[j].title
	})
	return weeks
}

// Build constructs the graph. Group nodes come first in week order, then
// topic nodes; week to topic edges come before the sequential week chain.
func Build(data model.Roadmap) *Graph {
	weeks := sortedWeeks(data)
	g := &Graph{
		Nodes:      []Node{},
		Edges:      []Edge{},
		TopicLinks: map[string]TopicLinks{},
	}

	groups := make([]Node, len(weeks))
	for i, w := range weeks {
		groups[i] = Node{
			ID:       w.id,
			Kind:     KindGroup,
			Label:    w.title,
			Position: Position{X: GroupX, Y: float64(i)*GroupSpacing + GroupOffsetY},
		}
	}
	g.Nodes = append(g.Nodes, groups...)

	for i, w := range weeks {
		center := groups[i].Position
		n := len(w.topics)
		for j, t := range w.topics {
			id := fmt.Sprintf("%s-%d", w.id, j)
			angle := 2*math.Pi*float64(j)/float64(n) - math.Pi/2
			g.Nodes = append(g.Nodes, Node{
				ID:    id,
				Kind:  KindTopic,
				Label: t.Topic,
				Position: Position{
					X: center.X + TopicRadius*math.Cos(angle),
					Y: center.Y + TopicRadius*math.Sin(angle),
				},
			})
			g.Edges = append(g.Edges, Edge{
				ID:       w.id + "-" + id,
				Source:   w.id,
				Target:   id,
				Animated: true,
			})
			g.TopicLinks[id] = TopicLinks{
				Name:     t.Topic,
				Parent:   w.title,
				External: t.External,
				Internal: t.Internal,
			}
		}
	}

	for i := 0; i+1 < len(weeks); i++ {
		a, b := weeks[i].id, weeks[i+1].id
		g.Edges = append(g.Edges, Edge{
			ID:     "group-" + a + "-to-" + b,
			Source: a,
			Target: b,
		})
	}

	return g
}

// Empty reports whether the roadmap has no weeks.
func (g *Graph) Empty() bool { return len(g.Nodes) == 0 }

// Weeks returns the group nodes in reading order.
func (g *Graph) Weeks() []Node {
	var out []Node
	for _, n := range g.Nodes {
		if n.Kind == KindGroup {
			out = append(out, n)
		}
	}
	return out
}

// Topics returns the topic nodes attached to a week, in list order.
func (g *Graph) Topics(weekID string) []Node {
	var out []Node
	for _, e := range g.Edges {
		if e.Source != weekID || !e.Animated {
			continue
		}
		for _, n := range g.Nodes {
			if n.ID == e.Target {
				out = append(out, n)
				break
			}
		}
	}
	return out
}
