// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package meta

import "strings"

// WorkType is the bibliographic type of a work. The named constants are
// the BibLaTeX entry types kitab recognizes; any other non-empty string
// is kept verbatim so that unfamiliar types survive a round trip.
type WorkType string

const (
	WorkTypeUnknown       WorkType = "unknown"
	WorkTypeArticle       WorkType = "article"
	WorkTypeBook          WorkType = "book"
	WorkTypeBooklet       WorkType = "booklet"
	WorkTypeInBook        WorkType = "inbook"
	WorkTypeInCollection  WorkType = "incollection"
	WorkTypeInProceedings WorkType = "inproceedings"
	WorkTypeManual        WorkType = "manual"
	WorkTypeMisc          WorkType = "misc"
	WorkTypeOnline        WorkType = "online"
	WorkTypeReport        WorkType = "report"
	WorkTypeThesis        WorkType = "thesis"
	WorkTypeUnpublished   WorkType = "unpublished"
	WorkTypeWhitepaper    WorkType = "whitepaper"
)

var knownWorkTypes = map[WorkType]bool{
	WorkTypeUnknown:       true,
	WorkTypeArticle:       true,
	WorkTypeBook:          true,
	WorkTypeBooklet:       true,
	WorkTypeInBook:        true,
	WorkTypeInCollection:  true,
	WorkTypeInProceedings: true,
	WorkTypeManual:        true,
	WorkTypeMisc:          true,
	WorkTypeOnline:        true,
	WorkTypeReport:        true,
	WorkTypeThesis:        true,
	WorkTypeUnpublished:   true,
	WorkTypeWhitepaper:    true,
}

// BibTeX aliases that map onto a BibLaTeX type.
var workTypeAliases = map[string]WorkType{
	"conference":    WorkTypeInProceedings,
	"electronic":    WorkTypeOnline,
	"www":           WorkTypeOnline,
	"techreport":    WorkTypeReport,
	"mastersthesis": WorkTypeThesis,
	"phdthesis":     WorkTypeThesis,
}

// ParseWorkType normalizes a type name. Known names and aliases are
// matched case-insensitively; other names are kept as given; blank input
// is WorkTypeUnknown.
func ParseWorkType(name string) WorkType {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return WorkTypeUnknown
	}
	lower := strings.ToLower(trimmed)
	if known := WorkType(lower); knownWorkTypes[known] {
		return known
	}
	if alias, ok := workTypeAliases[lower]; ok {
		return alias
	}
	return WorkType(trimmed)
}

// Known reports whether t is one of the named constants.
func (t WorkType) Known() bool {
	return knownWorkTypes[t]
}

func (t WorkType) String() string {
	return string(t)
}
