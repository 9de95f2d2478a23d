package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rainydayslabs/storefront-core/internal/models"
)

var sanitizePolicy = bluemonday.StrictPolicy()

// SanitizeText strips any markup from a free-text field.
func SanitizeText(s string) string {
	return strings.TrimSpace(sanitizePolicy.Sanitize(s))
}

// SanitizeCustomerInfo cleans every free-text field of the checkout form
// in place before it reaches validation or storage.
func SanitizeCustomerInfo(info *models.CustomerInfo) {
	info.FirstName = SanitizeText(info.FirstName)
	info.LastName = SanitizeText(info.LastName)
	info.Email = SanitizeText(info.Email)
	info.Phone = SanitizeText(info.Phone)
	info.Address = SanitizeText(info.Address)
	info.City = SanitizeText(info.City)
	info.Zip = SanitizeText(info.Zip)
}
