package permission

import "strings"

const (
	AssetsView     = "inventory.assets.view"
	AssetsCreate   = "inventory.assets.create"
	AssetsUpdate   = "inventory.assets.update"
	AssetsDelete   = "inventory.assets.delete"
	AssetsCheckout = "inventory.assets.checkout"
	AssetsCheckin  = "inventory.assets.checkin"

	CredentialsView     = "inventory.credentials.view"
	CredentialsCreate   = "inventory.credentials.create"
	CredentialsUpdate   = "inventory.credentials.update"
	CredentialsDelete   = "inventory.credentials.delete"
	CredentialsCheckout = "inventory.credentials.checkout"
	CredentialsCheckin  = "inventory.credentials.checkin"
	CredentialsReveal   = "inventory.credentials.reveal"

	LocationsView   = "inventory.locations.view"
	LocationsManage = "inventory.locations.manage"

	UsersView         = "admin.users.view"
	UsersManage       = "admin.users.manage"
	RolesManage       = "admin.roles.manage"
	PermissionsManage = "admin.permissions.manage"
	ActivityView      = "admin.activity.view"
)

type Definition struct {
	Key         string
	Description string
}

// Registry lists every permission the service checks.
var Registry = []Definition{
	{AssetsView, "View assets and their history"},
	{AssetsCreate, "Create assets"},
	{AssetsUpdate, "Edit asset attributes and administrative status"},
	{AssetsDelete, "Soft delete and restore assets"},
	{AssetsCheckout, "Check assets out"},
	{AssetsCheckin, "Check assets in"},
	{CredentialsView, "View credentials, holders and history"},
	{CredentialsCreate, "Create credentials"},
	{CredentialsUpdate, "Edit credentials"},
	{CredentialsDelete, "Soft delete and restore credentials"},
	{CredentialsCheckout, "Assign credentials"},
	{CredentialsCheckin, "Release credentials"},
	{CredentialsReveal, "Reveal stored credential secrets"},
	{LocationsView, "View locations"},
	{LocationsManage, "Create locations"},
	{UsersView, "View users"},
	{UsersManage, "Create, deactivate and delete users"},
	{RolesManage, "Manage roles and role assignments"},
	{PermissionsManage, "Manage permissions and direct grants"},
	{ActivityView, "View the activity log"},
}

type RoleDefinition struct {
	Name        string
	Description string
	Keys        []string
}

func DefaultRoles() []RoleDefinition {
	all := make([]string, 0, len(Registry))
	var views []string
	for _, d := range Registry {
		all = append(all, d.Key)
		if strings.HasSuffix(d.Key, ".view") {
			views = append(views, d.Key)
		}
	}

	return []RoleDefinition{
		{
			Name:        "administrator",
			Description: "Full access",
			Keys:        all,
		},
		{
			Name:        "technician",
			Description: "Day to day checkout and check-in",
			Keys: []string{
				AssetsView, AssetsCheckout, AssetsCheckin,
				CredentialsView, CredentialsCheckout, CredentialsCheckin,
				LocationsView,
			},
		},
		{
			Name:        "viewer",
			Description: "Read-only access",
			Keys:        views,
		},
	}
}
