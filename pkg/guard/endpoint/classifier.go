package endpoint

import "strings"

// Risk is the two-level operational risk of an endpoint.
type Risk string

const (
	RiskHigh     Risk = "HIGH_RISK"
	RiskStandard Risk = "STANDARD"
)

// Classifier marks endpoints as high risk via an explicit prefix allowlist.
type Classifier struct {
	highRiskPrefixes []string
}

// NewClassifier builds a Classifier from the configured high-risk prefixes.
func NewClassifier(highRiskPrefixes []string) *Classifier {
	return &Classifier{highRiskPrefixes: highRiskPrefixes}
}

// Classify returns HIGH_RISK when the path matches a configured sensitive
// prefix, STANDARD otherwise.
func (c *Classifier) Classify(path, method string) Risk {
	for _, prefix := range c.highRiskPrefixes {
		if strings.HasPrefix(path, prefix) {
			return RiskHigh
		}
	}
	return RiskStandard
}
