package domain

import (
	"strings"
	"sync"
	"time"
)

// FallbackTitle is suggested for URLs that do not parse.
const FallbackTitle = "Saved Link"

// TitleRule maps hostname substrings to a friendly label.
type TitleRule struct {
	Patterns []string
	Label    string
}

// DefaultTitleRules is the built-in table of known sources, checked in order.
func DefaultTitleRules() []TitleRule {
	return []TitleRule{
		{Patterns: []string{"instagram.com"}, Label: "Instagram Post"},
		{Patterns: []string{"reddit.com"}, Label: "Reddit Post"},
		{Patterns: []string{"twitter.com", "x.com"}, Label: "Tweet"},
		{Patterns: []string{"youtube.com", "youtu.be"}, Label: "YouTube Video"},
		{Patterns: []string{"tiktok.com"}, Label: "TikTok Video"},
	}
}

// TitleClassifier suggests titles from an ordered rule table.
// The table can be swapped at runtime while lookups are in flight.
type TitleClassifier struct {
	mu         sync.RWMutex
	rules      []TitleRule
	lastReload time.Time
}

// NewTitleClassifier creates a classifier. A nil table means DefaultTitleRules.
func NewTitleClassifier(rules []TitleRule) *TitleClassifier {
	if rules == nil {
		rules = DefaultTitleRules()
	}
	return &TitleClassifier{rules: rules}
}

// Replace swaps the rule table.
func (c *TitleClassifier) Replace(rules []TitleRule) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rules = rules
	c.lastReload = time.Now()
}

// Rules returns a copy of the current table.
func (c *TitleClassifier) Rules() []TitleRule {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]TitleRule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Count returns the number of rules in the table.
func (c *TitleClassifier) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.rules)
}

// GetLastReload returns when the table was last replaced.
func (c *TitleClassifier) GetLastReload() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.lastReload
}

// DeriveTitle suggests a title for rawURL.
//
// The first rule with a pattern contained in the hostname wins. Otherwise
// the hostname itself is used, minus a leading "www.". URLs that do not
// parse get FallbackTitle.
func (c *TitleClassifier) DeriveTitle(rawURL string) string {
	u, ok := ParseURL(rawURL)
	if !ok {
		return FallbackTitle
	}
	hostname := strings.ToLower(u.Hostname())

	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, rule := range c.rules {
		for _, pattern := range rule.Patterns {
			if pattern != "" && strings.Contains(hostname, strings.ToLower(pattern)) {
				return rule.Label
			}
		}
	}

	return strings.TrimPrefix(hostname, "www.")
}
