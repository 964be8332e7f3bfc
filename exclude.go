// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Marbleland
// Source: github.com/marbleland/missionzip

package missionzip

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/woozymasta/pathrules"
)

// Preset excluded-path rules. Both lists describe files shipped with the
// matching game install; dependencies resolving to them are assumed present
// on the player's machine and omitted from combined archives.
var (
	baseGameExcludeRules = []pathrules.Rule{
		{Action: pathrules.ActionExclude, Pattern: "data/shapes/**"},
		{Action: pathrules.ActionExclude, Pattern: "data/skies/**"},
		{Action: pathrules.ActionExclude, Pattern: "data/sound/**"},
		{Action: pathrules.ActionExclude, Pattern: "data/textures/**"},
		{Action: pathrules.ActionExclude, Pattern: "data/particles/**"},
		{Action: pathrules.ActionExclude, Pattern: "data/interiors/*.dif"},
	}

	platinumQuestExcludeRules = append([]pathrules.Rule{
		{Action: pathrules.ActionExclude, Pattern: "platinum/data/shapes/**"},
		{Action: pathrules.ActionExclude, Pattern: "platinum/data/skies/**"},
		{Action: pathrules.ActionExclude, Pattern: "platinum/data/sound/**"},
		{Action: pathrules.ActionExclude, Pattern: "platinum/data/textures/**"},
		{Action: pathrules.ActionExclude, Pattern: "platinum/data/particles/**"},
		{Action: pathrules.ActionExclude, Pattern: "platinum/data/interiors/**"},
		{Action: pathrules.ActionExclude, Pattern: "platinum/data/multiplayer/interiors/**"},
	}, baseGameExcludeRules...)
)

// ExcludeRules returns a copy of the preset excluded-path rule list for mode.
func ExcludeRules(mode ExclusionMode) ([]pathrules.Rule, error) {
	switch mode {
	case "", ExclusionNone:
		return nil, nil
	case ExclusionBaseGame:
		return append([]pathrules.Rule(nil), baseGameExcludeRules...), nil
	case ExclusionPlatinumQuest:
		return append([]pathrules.Rule(nil), platinumQuestExcludeRules...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExclusionMode, mode)
	}
}

// ParseExclusionList reads a newline-delimited installed-file manifest and
// returns one exclusion rule per listed path. Blank lines and lines starting
// with '#' are skipped.
func ParseExclusionList(r io.Reader) ([]pathrules.Rule, error) {
	var rules []pathrules.Rule

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		normalized := NormalizeDependency(line)
		if normalized == "" {
			continue
		}

		rules = append(rules, pathrules.Rule{
			Action:  pathrules.ActionExclude,
			Pattern: normalized,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read exclusion list: %w", err)
	}

	return rules, nil
}

// excludeMatcher holds compiled excluded-path rules for one combine operation.
type excludeMatcher struct {
	matcher *pathrules.Matcher
}

// newExcludeMatcher compiles excluded-path rules.
// A nil matcher is returned for an empty rule list and excludes nothing.
func newExcludeMatcher(rules []pathrules.Rule, opts pathrules.MatcherOptions) (*excludeMatcher, error) {
	rules = normalizeExcludeRules(rules)
	if len(rules) == 0 {
		return nil, nil
	}

	matcher, err := pathrules.NewMatcher(rules, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: compile rules: %w", ErrInvalidExcludeRules, err)
	}

	return &excludeMatcher{matcher: matcher}, nil
}

// normalizeExcludeRules normalizes rule patterns and drops empty patterns.
func normalizeExcludeRules(rules []pathrules.Rule) []pathrules.Rule {
	normalized := make([]pathrules.Rule, 0, len(rules))
	for _, rule := range rules {
		pattern := strings.TrimPrefix(strings.ReplaceAll(strings.TrimSpace(rule.Pattern), `\`, "/"), "./")
		if pattern == "" {
			continue
		}

		normalized = append(normalized, pathrules.Rule{
			Action:  rule.Action,
			Pattern: pattern,
		})
	}

	return normalized
}

// Excluded reports whether the canonical path must be omitted from output.
func (m *excludeMatcher) Excluded(path string) bool {
	if m == nil || m.matcher == nil {
		return false
	}

	return !m.matcher.Included(path, false)
}

// newCombineFilter builds the exclusion matcher selected by options.
func newCombineFilter(opts CombineOptions) (*excludeMatcher, error) {
	rules := opts.ExcludeRules
	if rules == nil {
		preset, err := ExcludeRules(opts.Exclusion)
		if err != nil {
			return nil, err
		}

		rules = preset
	}

	return newExcludeMatcher(rules, opts.ExcludeMatcherOptions)
}
