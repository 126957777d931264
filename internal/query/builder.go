// Package query builds PubMed boolean search strings from topic records.
// All functions are pure: they read the topics they are given, perform no
// I/O, and are safe to call concurrently.
package query

import (
	"fmt"
	"strings"

	"github.com/helixir/literature-digest-service/internal/domain"
)

// BaseAgingFilter is the standing filter ANDed onto preset searches so that
// results stay within the aging/longevity literature regardless of topic
// selection.
const BaseAgingFilter = `(aging[MeSH] OR "healthy aging"[tiab] OR longevity[tiab] OR healthspan[tiab] ` +
	`OR "biological age"[tiab] OR lifespan[tiab])`

// Resolver looks up topics referenced by name, e.g. the members of an
// intersection topic. *topics.Registry satisfies it.
type Resolver interface {
	TopicByName(name string) (domain.Topic, error)
}

// BuildTopicQuery returns the search expression for a single topic.
//
// An authored query_fragment is returned verbatim. The auto-generate marker
// synthesizes a disjunction from the topic's synonym terms, preserving any
// authored field qualifiers. For an intersection topic the members are
// resolved through the resolver and combined with BuildIntersectionQuery;
// the generated form takes precedence over any authored fragment.
func BuildTopicQuery(topic domain.Topic, resolver Resolver) (string, error) {
	if topic.IsIntersection() {
		if resolver == nil {
			return "", domain.NewInvalidQueryError(
				fmt.Sprintf("topic %q is an intersection but no resolver was provided", topic.Name))
		}
		members := make([]domain.Topic, 0, len(topic.IntersectionWith))
		for _, name := range topic.IntersectionWith {
			member, err := resolver.TopicByName(name)
			if err != nil {
				return "", err
			}
			members = append(members, member)
		}
		return BuildIntersectionQuery(members)
	}

	return topicExpression(topic)
}

// BuildIntersectionQuery combines the given topics' expressions with AND,
// parenthesizing each sub-expression to preserve precedence:
// (expr_1) AND (expr_2) AND ... AND (expr_n). The literal string follows the
// input order; AND commutativity means reordering never changes the matched
// set. An empty list fails with InvalidQueryError; a single topic
// degenerates to that topic's own expression.
func BuildIntersectionQuery(topics []domain.Topic) (string, error) {
	if len(topics) == 0 {
		return "", domain.NewInvalidQueryError("intersection requires at least one topic")
	}

	exprs, err := topicExpressions(topics)
	if err != nil {
		return "", err
	}

	if len(exprs) == 1 {
		return exprs[0], nil
	}

	parts := make([]string, len(exprs))
	for i, expr := range exprs {
		parts[i] = "(" + expr + ")"
	}
	return strings.Join(parts, " AND "), nil
}

// BuildCombinedQuery combines the given topics' expressions with OR, used
// when searching "any of these topics". Each sub-expression is
// parenthesized. An empty list fails with InvalidQueryError.
func BuildCombinedQuery(topics []domain.Topic) (string, error) {
	if len(topics) == 0 {
		return "", domain.NewInvalidQueryError("combined query requires at least one topic")
	}

	exprs, err := topicExpressions(topics)
	if err != nil {
		return "", err
	}

	parts := make([]string, len(exprs))
	for i, expr := range exprs {
		parts[i] = "(" + expr + ")"
	}
	return strings.Join(parts, " OR "), nil
}

// SearchOptions controls how a preset's topic disjunction is wrapped into
// the full string sent to the paper source.
type SearchOptions struct {
	// IncludeBaseFilter ANDs BaseAgingFilter onto the topic disjunction.
	IncludeBaseFilter bool

	// Exclusions are terms appended as NOT clauses with a [tiab] qualifier.
	Exclusions []string
}

// BuildSearchQuery produces the complete search string for a preset run:
// the combined (OR) query over the topics, optionally scoped by the base
// aging filter, with exclusion NOT clauses appended. Intersection topics
// are expanded through the resolver. The returned string is recorded on the
// digest run for audit.
func BuildSearchQuery(topics []domain.Topic, resolver Resolver, opts SearchOptions) (string, error) {
	if len(topics) == 0 {
		return "", domain.NewInvalidQueryError("search requires at least one topic")
	}

	parts := make([]string, 0, len(topics))
	for _, t := range topics {
		expr, err := BuildTopicQuery(t, resolver)
		if err != nil {
			return "", err
		}
		parts = append(parts, "("+expr+")")
	}
	combined := strings.Join(parts, " OR ")

	var q string
	if opts.IncludeBaseFilter {
		q = BaseAgingFilter + " AND (" + combined + ")"
	} else {
		q = "(" + combined + ")"
	}

	for _, term := range opts.Exclusions {
		clause := exclusionClause(term)
		if clause != "" {
			q += " NOT " + clause
		}
	}

	return q, nil
}

// topicExpressions builds the plain expression for each topic. Intersection
// topics are rejected here: nesting an intersection inside another compound
// expression is not supported.
func topicExpressions(topics []domain.Topic) ([]string, error) {
	exprs := make([]string, 0, len(topics))
	for _, t := range topics {
		if t.IsIntersection() {
			return nil, domain.NewInvalidQueryError(
				fmt.Sprintf("topic %q is itself an intersection and cannot be nested", t.Name))
		}
		expr, err := topicExpression(t)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}
	return exprs, nil
}

// topicExpression returns a non-intersection topic's own expression.
func topicExpression(topic domain.Topic) (string, error) {
	if topic.AutoGenerated() {
		if len(topic.Synonyms) == 0 {
			return "", domain.NewInvalidQueryError(
				fmt.Sprintf("topic %q is marked auto-generate but declares no synonyms", topic.Name))
		}
		terms := make([]string, len(topic.Synonyms))
		for i, s := range topic.Synonyms {
			terms[i] = quoteTerm(s)
		}
		return strings.Join(terms, " OR "), nil
	}

	fragment := strings.TrimSpace(topic.QueryFragment)
	if fragment == "" {
		return "", domain.NewInvalidQueryError(
			fmt.Sprintf("topic %q has no query fragment", topic.Name))
	}
	return fragment, nil
}

// quoteTerm wraps multi-word terms in quotes unless the author already
// supplied quoting or a field qualifier.
func quoteTerm(term string) string {
	term = strings.TrimSpace(term)
	if strings.ContainsAny(term, " \t") && !strings.ContainsAny(term, `"[`) {
		return `"` + term + `"`
	}
	return term
}

// exclusionClause renders one exclusion term as a NOT-clause operand,
// adding the [tiab] qualifier when the author did not supply one.
func exclusionClause(term string) string {
	term = strings.TrimSpace(term)
	if term == "" {
		return ""
	}
	if strings.Contains(term, "[") {
		return term
	}
	return quoteTerm(term) + "[tiab]"
}
