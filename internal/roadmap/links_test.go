package roadmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/ai-tutor/internal/model"
)

func TestExternalLinksNumbersPerDomain(t *testing.T) {
	links, skipped := ExternalLinks([]string{
		"https://www.geeksforgeeks.org/a",
		"https://youtube.com/watch?v=1",
		"https://geeksforgeeks.org/b",
	})
	assert.Empty(t, skipped)
	require.Len(t, links, 3)
	assert.Equal(t, "Geeks For Geeks Link 1", links[0].Label)
	assert.Equal(t, "YouTube Link 1", links[1].Label)
	assert.Equal(t, "Geeks For Geeks Link 2", links[2].Label)
	assert.Equal(t, "https://geeksforgeeks.org/b", links[2].Target)
}

func TestExternalLinksUnknownDomainFallsBackToHost(t *testing.T) {
	links, skipped := ExternalLinks([]string{"https://unknownsite.example/page"})
	assert.Empty(t, skipped)
	require.Len(t, links, 1)
	assert.Equal(t, "unknownsite.example Link 1", links[0].Label)
}

func TestExternalLinksSkipsMalformed(t *testing.T) {
	links, skipped := ExternalLinks([]string{
		"https://docs.oracle.com/javase",
		"not a url",
		"https://docs.oracle.com/other",
	})
	assert.Equal(t, []string{"not a url"}, skipped)
	require.Len(t, links, 2)
	assert.Equal(t, "Oracle Docs Link 2", links[1].Label)
}

func TestDetail(t *testing.T) {
	g := Build(model.Roadmap{
		"Week 1": {{
			Topic:    "Inheritance",
			External: []string{"https://www.baeldung.com/java-inheritance", "::bad"},
			Internal: []model.InternalResource{{Path: "lectures/week1/inheritance.pdf"}},
		}},
	})

	d, ok := g.Detail("Week1-0")
	require.True(t, ok)
	assert.Equal(t, "Inheritance", d.Name)
	assert.Equal(t, "Week 1", d.Parent)
	require.Len(t, d.External, 1)
	assert.Equal(t, "Baeldung Link 1", d.External[0].Label)
	assert.Equal(t, []string{"::bad"}, d.Skipped)
	require.Len(t, d.Internal, 1)
	assert.Equal(t, Link{Label: "inheritance.pdf", Target: "lectures/week1/inheritance.pdf"}, d.Internal[0])

	_, ok = g.Detail("Week9-0")
	assert.False(t, ok)
}
