// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package cache

import (
	"strings"
	"sync"
	"unicode/utf8"
)

// AhoCorasick matches many tokens against a text in O(n + m + z) time,
// where n is the text length, m the total token length and z the number
// of matches.
type AhoCorasick struct {
	mu       sync.RWMutex
	root     *acNode
	patterns []Pattern
	built    bool
}

type acNode struct {
	children map[rune]*acNode
	failure  *acNode
	output   []int // indices into patterns ending here
}

// Pattern is a token with the value reported when it matches.
type Pattern struct {
	Text string
	Data any
}

// Match is one occurrence of a pattern. Position is the byte offset in the
// lowercased text.
type Match struct {
	Pattern  string
	Data     any
	Position int
}

// NewAhoCorasick creates an empty, case-insensitive automaton.
func NewAhoCorasick() *AhoCorasick {
	return &AhoCorasick{root: newACNode()}
}

func newACNode() *acNode {
	return &acNode{children: make(map[rune]*acNode)}
}

// AddPattern adds a token. Empty tokens are ignored. Adding after Build
// requires another Build.
func (ac *AhoCorasick) AddPattern(pattern string, data any) {
	if pattern == "" {
		return
	}

	ac.mu.Lock()
	defer ac.mu.Unlock()

	ac.built = false
	ac.patterns = append(ac.patterns, Pattern{Text: strings.ToLower(pattern), Data: data})
}

// AddPatterns adds tokens that share data.
func (ac *AhoCorasick) AddPatterns(patterns []string, data any) {
	for _, p := range patterns {
		ac.AddPattern(p, data)
	}
}

// Build constructs the trie and failure links.
func (ac *AhoCorasick) Build() {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	if ac.built {
		return
	}

	ac.root = newACNode()
	for i, p := range ac.patterns {
		node := ac.root
		for _, ch := range p.Text {
			next := node.children[ch]
			if next == nil {
				next = newACNode()
				node.children[ch] = next
			}
			node = next
		}
		node.output = append(node.output, i)
	}

	ac.buildFailureLinks()
	ac.built = true
}

// buildFailureLinks walks the trie breadth first so every node's failure
// target is already linked when the node is visited.
func (ac *AhoCorasick) buildFailureLinks() {
	queue := make([]*acNode, 0, len(ac.root.children))
	for _, child := range ac.root.children {
		child.failure = ac.root
		queue = append(queue, child)
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for ch, child := range current.children {
			queue = append(queue, child)

			fail := current.failure
			for fail != nil && fail.children[ch] == nil {
				fail = fail.failure
			}
			if fail == nil {
				child.failure = ac.root
				continue
			}
			child.failure = fail.children[ch]
			child.output = append(child.output, child.failure.output...)
		}
	}
}

// step advances the automaton by one rune.
func (ac *AhoCorasick) step(node *acNode, ch rune) *acNode {
	for node != nil && node.children[ch] == nil {
		node = node.failure
	}
	if node == nil {
		return ac.root
	}
	return node.children[ch]
}

// Search returns every match in text. It returns nil before Build.
func (ac *AhoCorasick) Search(text string) []Match {
	ac.mu.RLock()
	defer ac.mu.RUnlock()

	if !ac.built || len(ac.patterns) == 0 {
		return nil
	}

	var matches []Match
	node := ac.root
	for i, ch := range strings.ToLower(text) {
		node = ac.step(node, ch)
		end := i + utf8.RuneLen(ch)
		for _, idx := range node.output {
			p := ac.patterns[idx]
			matches = append(matches, Match{Pattern: p.Text, Data: p.Data, Position: end - len(p.Text)})
		}
	}
	return matches
}

// SearchFirst returns the match that ends earliest in text.
func (ac *AhoCorasick) SearchFirst(text string) (Match, bool) {
	ac.mu.RLock()
	defer ac.mu.RUnlock()

	if !ac.built || len(ac.patterns) == 0 {
		return Match{}, false
	}

	node := ac.root
	for i, ch := range strings.ToLower(text) {
		node = ac.step(node, ch)
		if len(node.output) > 0 {
			p := ac.patterns[node.output[0]]
			end := i + utf8.RuneLen(ch)
			return Match{Pattern: p.Text, Data: p.Data, Position: end - len(p.Text)}, true
		}
	}
	return Match{}, false
}

// Contains reports whether any pattern occurs in text.
func (ac *AhoCorasick) Contains(text string) bool {
	_, found := ac.SearchFirst(text)
	return found
}

// PatternCount returns the number of patterns added.
func (ac *AhoCorasick) PatternCount() int {
	ac.mu.RLock()
	defer ac.mu.RUnlock()
	return len(ac.patterns)
}

// PatternMatcher is a built automaton over one token family.
type PatternMatcher struct {
	ac   *AhoCorasick
	data any
}

// NewPatternMatcher builds a matcher whose tokens all report data.
func NewPatternMatcher(patterns []string, data any) *PatternMatcher {
	ac := NewAhoCorasick()
	ac.AddPatterns(patterns, data)
	ac.Build()
	return &PatternMatcher{ac: ac, data: data}
}

// Data returns the value the matcher was built with.
func (pm *PatternMatcher) Data() any {
	return pm.data
}

// Contains reports whether any token occurs in text.
func (pm *PatternMatcher) Contains(text string) bool {
	return pm.ac.Contains(text)
}

// Match returns every token occurrence in text.
func (pm *PatternMatcher) Match(text string) []Match {
	return pm.ac.Search(text)
}
