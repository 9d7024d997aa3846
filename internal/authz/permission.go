package authz

// Permission is an atomic, named capability. The set is closed; the
// role-permission matrix is compiled in and not editable at runtime.
type Permission string

const (
	PermReadUserData   Permission = "read_user_data"
	PermCreateUserData Permission = "create_user_data"
	PermUpdateUserData Permission = "update_user_data"
	PermDeleteUserData Permission = "delete_user_data"
	PermExportUserData Permission = "export_user_data"

	PermReadVillageArea   Permission = "read_village_area"
	PermCreateVillageArea Permission = "create_village_area"
	PermUpdateVillageArea Permission = "update_village_area"
	PermDeleteVillageArea Permission = "delete_village_area"

	PermReadReceipts   Permission = "read_receipts"
	PermCreateReceipts Permission = "create_receipts"
	PermUpdateReceipts Permission = "update_receipts"
	PermDeleteReceipts Permission = "delete_receipts"
	PermExportReceipts Permission = "export_receipts"

	PermManageUsers     Permission = "manage_users"
	PermManageRoles     Permission = "manage_roles"
	PermViewSystemStats Permission = "view_system_stats"
)

// AllPermissions is the full permission universe, granted to superusers
// and to the admin role.
var AllPermissions = []Permission{
	PermReadUserData,
	PermCreateUserData,
	PermUpdateUserData,
	PermDeleteUserData,
	PermExportUserData,
	PermReadVillageArea,
	PermCreateVillageArea,
	PermUpdateVillageArea,
	PermDeleteVillageArea,
	PermReadReceipts,
	PermCreateReceipts,
	PermUpdateReceipts,
	PermDeleteReceipts,
	PermExportReceipts,
	PermManageUsers,
	PermManageRoles,
	PermViewSystemStats,
}

// OwnershipRole is the one role whose receipt mutation grants are valid
// only for records the acting user created.
const OwnershipRole = "receipt_creator"

// rolePermissions maps role name to granted permissions. Roles created
// at runtime grant nothing until added here.
var rolePermissions = map[string][]Permission{
	"admin": AllPermissions,
	"user_data_editor": {
		PermReadUserData,
		PermCreateUserData,
		PermUpdateUserData,
		PermDeleteUserData,
		PermExportUserData,
		PermReadVillageArea,
		PermCreateVillageArea,
		PermUpdateVillageArea,
		PermDeleteVillageArea,
		PermViewSystemStats,
	},
	"user_data_viewer": {
		PermReadUserData,
		PermReadVillageArea,
		PermExportUserData,
	},
	"receipt_report_viewer": {
		PermReadReceipts,
		PermExportReceipts,
	},
	"receipt_creator": {
		PermCreateReceipts,
		PermUpdateReceipts,
		PermDeleteReceipts,
	},
}

// RolePermissions returns the permissions granted by a single role.
func RolePermissions(role string) []Permission {
	return rolePermissions[role]
}
