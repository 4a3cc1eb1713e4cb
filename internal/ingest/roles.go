package ingest

import "github.com/hhdata/vacancy-ingest/internal/hh"

// FlattenRoles maps the provider's role catalog into category rows and role
// rows, each role carrying its owning category id. Entries without a usable
// integer id are skipped, as are roles whose category was skipped.
func FlattenRoles(catalog hh.RoleCatalog) ([]RoleCategoryRow, []RoleRow) {
	var categories []RoleCategoryRow
	var roles []RoleRow

	for _, cat := range catalog.Categories {
		catID, ok := parseID(&cat.ID)
		if !ok {
			continue
		}
		categories = append(categories, RoleCategoryRow{ID: catID, Name: cat.Name})

		for _, role := range cat.Roles {
			roleID, ok := parseID(&role.ID)
			if !ok {
				continue
			}
			roles = append(roles, RoleRow{
				ID:                      roleID,
				Name:                    role.Name,
				CategoryID:              catID,
				AcceptIncompleteResumes: role.AcceptIncompleteResumes,
			})
		}
	}
	return categories, roles
}
