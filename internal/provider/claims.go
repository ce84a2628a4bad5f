package provider

import "github.com/facegate/facegate/pkg/models"

// profileClaims derives the OIDC profile claims from current user state.
// Claims are recomputed at issuance and at userinfo time so stale tokens
// never pin old attribute values.
func profileClaims(u *models.User) map[string]interface{} {
	claims := map[string]interface{}{
		"name":                  u.Name,
		"given_name":            u.GivenName,
		"family_name":           u.FamilyName,
		"email":                 u.Email,
		"email_verified":        u.EmailVerified,
		"phone_number_verified": u.PhoneNumberVerified,
		"face_verified":         u.FaceVerified,
		"updated_at":            u.UpdatedAt.Unix(),
	}
	if u.PreferredUsername != "" {
		claims["preferred_username"] = u.PreferredUsername
	}
	if u.PhoneNumber != "" {
		claims["phone_number"] = u.PhoneNumber
	}
	if u.PictureURL != "" {
		claims["picture"] = u.PictureURL
	}
	return claims
}
