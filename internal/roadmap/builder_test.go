package roadmap

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/ai-tutor/internal/model"
)

func topics(names ...string) []model.Topic {
	out := make([]model.Topic, 0, len(names))
	for _, n := range names {
		out = append(out, model.Topic{Topic: n})
	}
	return out
}

func edgeIDs(g *Graph) []string {
	ids := make([]string, 0, len(g.Edges))
	for _, e := range g.Edges {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestBuildOrdersWeeksNumerically(t *testing.T) {
	g := Build(model.Roadmap{
		"Week 2":  topics("b"),
		"Week 10": topics("j"),
		"Week 1":  topics("a"),
	})

	var chain []Edge
	for _, e := range g.Edges {
		if !e.Animated {
			chain = append(chain, e)
		}
	}
	require.Len(t, chain, 2)
	assert.Equal(t, "Week1", chain[0].Source)
	assert.Equal(t, "Week2", chain[0].Target)
	assert.Equal(t, "Week2", chain[1].Source)
	assert.Equal(t, "Week10", chain[1].Target)
	assert.Equal(t, "group-Week1-to-Week2", chain[0].ID)

	weeks := g.Weeks()
	require.Len(t, weeks, 3)
	assert.Equal(t, []string{"Week 1", "Week 2", "Week 10"}, []string{weeks[0].Label, weeks[1].Label, weeks[2].Label})
	assert.Equal(t, Position{X: 150, Y: 20}, weeks[0].Position)
	assert.Equal(t, Position{X: 150, Y: 1020}, weeks[2].Position)
}

func TestBuildLabelsWithoutDigitsSortFirst(t *testing.T) {
	g := Build(model.Roadmap{
		"Week 3":       topics("x"),
		"Introduction": topics("y"),
		"Week 5/6/7":   topics("z"),
	})
	weeks := g.Weeks()
	require.Len(t, weeks, 3)
	assert.Equal(t, "Introduction", weeks[0].Label)
	assert.Equal(t, "Week5/6/7", weeks[2].ID)
}

func TestBuildIsDeterministic(t *testing.T) {
	data := model.Roadmap{
		"Week 1": topics("a", "b", "c"),
		"Week 2": topics("d"),
		"Week 4": topics("e", "f"),
		"Week 3": topics(),
		"Week 5": topics("g"),
	}
	first := Build(data)
	for i := 0; i < 20; i++ {
		again := Build(data)
		assert.Equal(t, first.Nodes, again.Nodes)
		assert.Equal(t, edgeIDs(first), edgeIDs(again))
		assert.Equal(t, first.TopicLinks, again.TopicLinks)
	}
}

func TestBuildZeroTopicWeek(t *testing.T) {
	var g *Graph
	require.NotPanics(t, func() {
		g = Build(model.Roadmap{"Week 1": {}, "Week 2": topics("a")})
	})
	assert.Len(t, g.Nodes, 3)
	assert.Empty(t, g.Topics("Week1"))
	for _, n := range g.Nodes {
		assert.False(t, math.IsNaN(n.Position.X) || math.IsNaN(n.Position.Y), "node %s has NaN position", n.ID)
	}
	assert.Equal(t, []string{"Week2-Week2-0", "group-Week1-to-Week2"}, edgeIDs(g))
}

func TestBuildTopicIDsAndCircleLayout(t *testing.T) {
	g := Build(model.Roadmap{"Week 1": topics("a", "b", "c", "d")})

	nodes := g.Topics("Week1")
	require.Len(t, nodes, 4)
	for i, n := range nodes {
		assert.Equal(t, "Week1-"+string(rune('0'+i)), n.ID)
	}
	// First topic sits straight above the week node.
	assert.InDelta(t, 150, nodes[0].Position.X, 1e-9)
	assert.InDelta(t, 20-180, nodes[0].Position.Y, 1e-9)
	// Quarter turn clockwise in screen coordinates.
	assert.InDelta(t, 150+180, nodes[1].Position.X, 1e-9)
	assert.InDelta(t, 20, nodes[1].Position.Y, 1e-9)

	link := g.TopicLinks["Week1-2"]
	assert.Equal(t, "c", link.Name)
	assert.Equal(t, "Week 1", link.Parent)
}

func TestBuildEmptyInput(t *testing.T) {
	g := Build(model.Roadmap{})
	assert.True(t, g.Empty())
	assert.Empty(t, g.Edges)
	assert.Empty(t, g.TopicLinks)
}
