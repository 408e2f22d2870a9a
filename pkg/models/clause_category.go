package models

import "strings"

// ClauseCategory classifies clauses in the library.
type ClauseCategory string

const (
	CategoryPayment              ClauseCategory = "PAYMENT"
	CategoryDelivery             ClauseCategory = "DELIVERY"
	CategoryLiability            ClauseCategory = "LIABILITY"
	CategoryConfidentiality      ClauseCategory = "CONFIDENTIALITY"
	CategoryTermination          ClauseCategory = "TERMINATION"
	CategoryDisputeResolution    ClauseCategory = "DISPUTE_RESOLUTION"
	CategoryForceMajeure         ClauseCategory = "FORCE_MAJEURE"
	CategoryIntellectualProperty ClauseCategory = "INTELLECTUAL_PROPERTY"
	CategoryWarranties           ClauseCategory = "WARRANTIES"
	CategoryIndemnification      ClauseCategory = "INDEMNIFICATION"
	CategoryGoverningLaw         ClauseCategory = "GOVERNING_LAW"
	CategoryAmendments           ClauseCategory = "AMENDMENTS"
	CategoryAssignment           ClauseCategory = "ASSIGNMENT"
	CategoryNotices              ClauseCategory = "NOTICES"
	CategoryEntireAgreement      ClauseCategory = "ENTIRE_AGREEMENT"
	CategorySeverability         ClauseCategory = "SEVERABILITY"
	CategoryCounterparts         ClauseCategory = "COUNTERPARTS"
	CategoryOthers               ClauseCategory = "OTHERS"
)

// ClauseCategories lists every category in declaration order.
var ClauseCategories = []ClauseCategory{
	CategoryPayment,
	CategoryDelivery,
	CategoryLiability,
	CategoryConfidentiality,
	CategoryTermination,
	CategoryDisputeResolution,
	CategoryForceMajeure,
	CategoryIntellectualProperty,
	CategoryWarranties,
	CategoryIndemnification,
	CategoryGoverningLaw,
	CategoryAmendments,
	CategoryAssignment,
	CategoryNotices,
	CategoryEntireAgreement,
	CategorySeverability,
	CategoryCounterparts,
	CategoryOthers,
}

// ParseClauseCategory accepts a category name in any case.
func ParseClauseCategory(raw string) (ClauseCategory, bool) {
	key := ClauseCategory(strings.ToUpper(strings.TrimSpace(raw)))
	for _, c := range ClauseCategories {
		if c == key {
			return c, true
		}
	}
	return "", false
}
