// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the input tables, computed results, and API response
types shared by the engine and the HTTP layer.

# Input Tables

Loaded once per process and never mutated:

  - RespondentAnswer: one survey respondent (cohort reference + answers)
  - QuestionMetadata: question key, short/long labels, emoji
  - ChoiceMetadata: choice key scoped to a question, labels, family, tags
  - Cohort: ordinal, global id, name, population weight
  - NodeMetadata: flat parent/child rows for hierarchical graphs
  - Dataset: all of the above

FlexID and Answer accept the loose JSON found in survey exports: a cohort
reference may be a number or a string, an answer may be a scalar or a list.

# Computed Types

  - Distribution / ChoiceResult: counts and percentages for one question and
    one cohort (CohortID 0 is the quartier aggregate)
  - Graph / GraphNode / GraphLink: node list with index-based links

# Response Types

  - DistributionResponse: choices, cohort used, aggregate flag, warning
  - GraphResponse: nodes, links, cohort used, aggregate flag, warning
  - QuestionSummary, CohortSummary, CacheStatus, InvalidateResponse
  - ErrorResponse: error, message

# Constants

	QuartierID            = 0
	RootParent            = "root"
	WarningUnmappedCohort = "unmapped_cohort"
	WarningEmptyCohort    = "empty_cohort"
*/
package models
