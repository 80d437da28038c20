package roadmap

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rcliao/ai-tutor/internal/model"
)

// domainTitles maps a hostname (without "www.") to a readable name.
var domainTitles = map[string]string{
	"youtube.com":              "YouTube",
	"docs.oracle.com":          "Oracle Docs",
	"geeksforgeeks.org":        "Geeks For Geeks",
	"javatpoint.com":           "Javatpoint",
	"baeldung.com":             "Baeldung",
	"beginnersbook.com":        "Beginners Book",
	"cspages.ucalgary.ca":      "UCalgary",
	"homepage.divms.uiowa.edu": "UIowa",
	"pages.cs.wisc.edu":        "Wisc.edu",
	"teach.cs.toronto.edu":     "UofT CS",
	"people.engr.tamu.edu":     "TAMU",
	"brilliant.org":            "Brilliant",
	"oracle.com":               "Oracle",
	"coursera.org":             "Coursera",
	"stackoverflow.com":        "Stack Overflow",
	"programiz.com":            "Programiz",
	"visual-paradigm.com":      "Visual Paradigm",
	"interaction-design.org":   "Interaction Design",
	"agilealliance.org":        "Agile Alliance",
	"git-scm.com":              "Git SCM",
	"gitscripts.com":           "Git Scripts",
	"git.github.io":            "GitHub",
	"computer.org":             "Computer.org",
	"forbes.com":               "Forbes",
	"pmi.org":                  "PMI",
	"learn.microsoft.com":      "Microsoft Learn",
	"developer.ibm.com":        "IBM Developer",
	"medium.com":               "Medium",
	"java-design-patterns.com": "Java Design Patterns",
	"tpointtech.com":           "TpointTech",
	"cs.cornell.edu":           "Cornell CS",
	"introcs.cs.princeton.edu": "Princeton IntroCS",
	"eng.libretexts.org":       "LibreTexts",
	"w3schools.com":            "W3Schools",
	"developer.mozilla.org":    "MDN",
	"w3.org":                   "W3.org",
}

// Link is a labelled resource.
type Link struct {
	Label  string `json:"label" yaml:"label"`
	Target string `json:"target" yaml:"target"`
}

// Detail is the rendered detail panel of a topic.
type Detail struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Parent   string   `json:"parent" yaml:"parent"`
	External []Link   `json:"external" yaml:"external"`
	Internal []Link   `json:"internal" yaml:"internal"`
	Skipped  []string `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Domain returns the hostname of rawURL without a leading "www.". URLs
// without a scheme or host are rejected.
func Domain(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", err
	}
	host := strings.ToLower(u.Hostname())
	if u.Scheme == "" || host == "" {
		return "", fmt.Errorf("invalid url %q", rawURL)
	}
	return strings.TrimPrefix(host, "www."), nil
}

// DomainTitle returns the readable name of a domain, or the domain itself.
func DomainTitle(domain string) string {
	if t, ok := domainTitles[domain]; ok {
		return t
	}
	return domain
}

// ExternalLinks labels each URL "{title} Link {n}", numbering per domain.
// URLs that do not parse are returned in skipped and left out.
func ExternalLinks(urls []string) (links []Link, skipped []string) {
	counts := map[string]int{}
	for _, raw := range urls {
		domain, err := Domain(raw)
		if err != nil {
			skipped = append(skipped, raw)
			continue
		}
		counts[domain]++
		links = append(links, Link{
			Label:  fmt.Sprintf("%s Link %d", DomainTitle(domain), counts[domain]),
			Target: raw,
		})
	}
	return links, skipped
}

// InternalLinks labels each resource with the last segment of its path.
func InternalLinks(items []model.InternalResource) []Link {
	links := make([]Link, 0, len(items))
	for _, it := range items {
		name := it.Path[strings.LastIndex(it.Path, "/")+1:]
		links = append(links, Link{Label: name, Target: it.Path})
	}
	return links
}

// Detail resolves the detail panel for a topic node.
func (g *Graph) Detail(topicID string) (*Detail, bool) {
	t, ok := g.TopicLinks[topicID]
	if !ok {
		return nil, false
	}
	ext, skipped := ExternalLinks(t.External)
	return &Detail{
		ID:       topicID,
		Name:     t.Name,
		Parent:   t.Parent,
		External: ext,
		Internal: InternalLinks(t.Internal),
		Skipped:  skipped,
	}, true
}
