// pkg/model/cleaning.go
package model

// CleaningOperation records one normalisation applied to a dataset on load
type CleaningOperation struct {
	Variable      string      `json:"variable,omitempty"`  // Empty for global attributes
	Attribute     string      `json:"attribute,omitempty"` // Attribute that was cleaned, if any
	OriginalValue interface{} `json:"original_value,omitempty"`
	NewValue      string      `json:"new_value,omitempty"`
	Operation     string      `json:"operation"` // Type of cleaning performed (e.g., "text_trim")
	Reason        string      `json:"reason"`    // Why it was needed (e.g., "fixed_width_padding")
	Count         int         `json:"count"`     // Number of values affected
}
